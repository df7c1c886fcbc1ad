package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/models"
	"civicreport/backend/internal/notify"
	"civicreport/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Push(ctx context.Context, chatID int64, text string) error {
	args := m.Called(chatID, text)
	return args.Error(0)
}

type fixture struct {
	store      *storagetest.Store
	citizen    models.Actor
	officer    models.Actor
	admin      models.Actor
	maintainer models.Actor
	report     *models.Report
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storagetest.New()
	store.Now = storagetest.FixedClock(time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC), time.Second)
	chatID := int64(4242)
	f := &fixture{store: store}
	f.citizen = models.Actor{ID: store.AddUser(models.User{
		Username: "mrossi", FirstName: "Mario", LastName: "Rossi",
		Email: "mario@example.org", TelegramChatID: &chatID, Language: "it", Role: models.RoleCitizen,
	}), Role: models.RoleCitizen}
	f.officer = models.Actor{ID: store.AddUser(models.User{Username: "officer", Role: models.RolePublicRelationsOfficer}), Role: models.RolePublicRelationsOfficer}
	f.admin = models.Actor{ID: store.AddUser(models.User{Username: "admin", Role: models.RoleMunicipalAdministrator}), Role: models.RoleMunicipalAdministrator}
	f.maintainer = models.Actor{ID: store.AddUser(models.User{Username: "fixit", Email: "ops@fixit.example", Role: models.RoleExternalMaintainer}), Role: models.RoleExternalMaintainer}

	maintainerID := f.maintainer.ID
	f.report = &models.Report{
		Title: "Buca", Description: "Via Po", Status: models.StatusExternallyAssigned,
		CreatedByID: f.citizen.ID, AssignedToID: &maintainerID,
	}
	require.NoError(t, store.CreateReport(context.Background(), f.report))
	return f
}

func TestOnStatusChange_StoresAndDelivers(t *testing.T) {
	// Arrange
	f := newFixture(t)
	mailer, pusher := new(MockMailer), new(MockPusher)
	mailer.On("Send", "mario@example.org", mock.AnythingOfType("string"), mock.AnythingOfType("string")).Return(nil).Once()
	pusher.On("Push", int64(4242), mock.AnythingOfType("string")).Return(nil).Once()
	d := notify.NewDispatcher(f.store, notify.WithMailer(mailer), notify.WithPusher(pusher))

	// Act
	d.OnStatusChange(context.Background(), f.report, models.StatusExternallyAssigned, models.StatusResolved)
	d.Wait()

	// Assert
	stored := f.store.Notifications()
	require.Len(t, stored, 1)
	n := stored[0]
	assert.Equal(t, models.NotificationReportStatus, n.Type)
	assert.Equal(t, f.citizen.ID, n.UserID)
	assert.Equal(t, f.report.ID, n.ReportID)
	assert.Equal(t, models.StatusExternallyAssigned, *n.PreviousStatus)
	assert.Equal(t, models.StatusResolved, *n.NewStatus)
	assert.False(t, n.Seen)
	assert.Nil(t, n.MessageID)

	mailer.AssertExpectations(t)
	pusher.AssertExpectations(t)
	subject := mailer.Calls[0].Arguments.String(1)
	body := mailer.Calls[0].Arguments.String(2)
	assert.Contains(t, subject, "segnalazione")
	assert.Contains(t, body, "risolta")
}

func TestOnStatusChange_StorageFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := newFixture(t)
	f.store.SaveNotificationErr = errors.New("db down")
	mailer := new(MockMailer)
	d := notify.NewDispatcher(f.store, notify.WithMailer(mailer), notify.WithLogger(zap.New(core).Sugar()))

	assert.NotPanics(t, func() {
		d.OnStatusChange(context.Background(), f.report, models.StatusAssigned, models.StatusExternallyAssigned)
	})
	d.Wait()

	assert.Empty(t, f.store.Notifications())
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	dropped := logs.FilterField(zap.String("event", "notification_dropped"))
	assert.Equal(t, 1, dropped.Len())
}

func TestDeliveryFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := newFixture(t)
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp unavailable"))
	d := notify.NewDispatcher(f.store, notify.WithMailer(mailer), notify.WithLogger(zap.New(core).Sugar()))

	d.OnStatusChange(context.Background(), f.report, models.StatusAssigned, models.StatusExternallyAssigned)
	d.Wait()

	assert.Len(t, f.store.Notifications(), 1)
	failed := logs.FilterField(zap.String("event", "delivery_failed"))
	assert.Equal(t, 1, failed.Len())
}

func TestOnNewMessage_Recipient(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		msg      func(f *fixture) *models.Message
		wantUser func(f *fixture) uint
	}{
		{"explicit receiver", func(f *fixture) *models.Message {
			r := f.officer.ID
			return &models.Message{SenderID: f.maintainer.ID, ReceiverID: &r}
		}, func(f *fixture) uint { return f.officer.ID }},
		{"comment by staff goes to the creator", func(f *fixture) *models.Message {
			return &models.Message{SenderID: f.officer.ID}
		}, func(f *fixture) uint { return f.citizen.ID }},
		{"comment by the creator goes to the assignee", func(f *fixture) *models.Message {
			return &models.Message{SenderID: f.citizen.ID}
		}, func(f *fixture) uint { return f.maintainer.ID }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			d := notify.NewDispatcher(f.store)
			msg := tt.msg(f)
			msg.ReportID = f.report.ID
			msg.Text = "hello"
			require.NoError(t, f.store.SaveMessage(ctx, msg))

			d.OnNewMessage(ctx, msg)

			stored := f.store.Notifications()
			require.Len(t, stored, 1)
			assert.Equal(t, models.NotificationMessage, stored[0].Type)
			assert.Equal(t, tt.wantUser(f), stored[0].UserID)
			require.NotNil(t, stored[0].MessageID)
			assert.Equal(t, msg.ID, *stored[0].MessageID)
			assert.Nil(t, stored[0].NewStatus)
		})
	}
}

func TestOnNewMessage_NoRecipientBesidesSender(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lonely := &models.Report{Title: "t", Description: "d", Status: models.StatusSubmitted, CreatedByID: f.citizen.ID}
	require.NoError(t, f.store.CreateReport(ctx, lonely))
	msg := &models.Message{ReportID: lonely.ID, SenderID: f.citizen.ID, Text: "anyone?"}
	require.NoError(t, f.store.SaveMessage(ctx, msg))
	d := notify.NewDispatcher(f.store)

	d.OnNewMessage(ctx, msg)

	assert.Empty(t, f.store.Notifications())
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := notify.NewDispatcher(f.store)
	d.OnStatusChange(ctx, f.report, models.StatusAssigned, models.StatusExternallyAssigned)
	d.OnStatusChange(ctx, f.report, models.StatusExternallyAssigned, models.StatusInProgress)
	officerID := f.officer.ID
	msg := &models.Message{ReportID: f.report.ID, SenderID: f.maintainer.ID, ReceiverID: &officerID, Text: "done soon"}
	require.NoError(t, f.store.SaveMessage(ctx, msg))
	d.OnNewMessage(ctx, msg)

	t.Run("list is admin only", func(t *testing.T) {
		_, err := d.List(ctx, f.officer)
		assert.ErrorIs(t, err, apperr.ErrForbidden)

		all, err := d.List(ctx, f.admin)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, models.NotificationMessage, all[0].Type)
		require.NotNil(t, all[0].Message)
		assert.NotNil(t, all[0].Message.Sender)
		require.NotNil(t, all[2].Report)
		assert.NotNil(t, all[2].Report.CreatedBy)
		assert.NotNil(t, all[2].User)
	})
	t.Run("my notifications newest first", func(t *testing.T) {
		mine, err := d.MyNotifications(ctx, f.citizen)

		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, models.StatusInProgress, *mine[0].NewStatus)
		assert.Equal(t, models.StatusExternallyAssigned, *mine[1].NewStatus)
	})
}

func TestMarkSeen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := notify.NewDispatcher(f.store)
	d.OnStatusChange(ctx, f.report, models.StatusAssigned, models.StatusExternallyAssigned)
	n := f.store.Notifications()[0]

	count, err := d.UnseenCount(ctx, f.citizen)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.ErrorIs(t, d.MarkSeen(ctx, f.officer, n.ID), apperr.ErrForbidden)
	assert.ErrorIs(t, d.MarkSeen(ctx, f.citizen, 999), apperr.ErrNotFound)

	require.NoError(t, d.MarkSeen(ctx, f.citizen, n.ID))
	require.NoError(t, d.MarkSeen(ctx, f.citizen, n.ID))
	require.NoError(t, d.MarkSeen(ctx, f.admin, n.ID))

	count, err = d.UnseenCount(ctx, f.citizen)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.True(t, f.store.Notifications()[0].Seen)
}

func TestMyNotifications_HidesAnonymousCreator(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	d := notify.NewDispatcher(f.store)
	maintainerID := f.maintainer.ID
	report := &models.Report{
		Title: "Graffiti", Description: "School wall", Anonymous: true, Status: models.StatusInProgress,
		CreatedByID: f.citizen.ID, AssignedToID: &maintainerID,
	}
	require.NoError(t, f.store.CreateReport(ctx, report))
	msg := &models.Message{ReportID: report.ID, SenderID: f.citizen.ID, ReceiverID: &maintainerID, Text: "thanks"}
	require.NoError(t, f.store.SaveMessage(ctx, msg))
	d.OnNewMessage(ctx, msg)
	d.Wait()

	// Act
	mine, err := d.MyNotifications(ctx, f.maintainer)

	// Assert
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Report)
	assert.Zero(t, mine[0].Report.CreatedByID)
	assert.Nil(t, mine[0].Report.CreatedBy)
	all, err := d.List(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, f.citizen.ID, all[0].Report.CreatedByID)
}
