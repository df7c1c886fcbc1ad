package notify_test

import (
	"context"
	"testing"

	"civicreport/backend/internal/chathub"
	"civicreport/backend/internal/models"
	"civicreport/backend/internal/notify"
	"civicreport/backend/internal/storage/storagetest"
	"civicreport/backend/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReportLifecycleScenario drives a report from submission to resolution
// through the engine, chat and dispatcher wired together.
func TestReportLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	store := storagetest.New()
	citizen := models.Actor{ID: store.AddUser(models.User{Username: "c", Role: models.RoleCitizen}), Role: models.RoleCitizen}
	officer := models.Actor{ID: store.AddUser(models.User{Username: "pro", Role: models.RolePublicRelationsOfficer}), Role: models.RolePublicRelationsOfficer}
	staff := models.Actor{ID: store.AddUser(models.User{Username: "s", Role: models.RoleTechnicalStaffMember}), Role: models.RoleTechnicalStaffMember}
	maintainer := models.Actor{ID: store.AddUser(models.User{Username: "m", Role: models.RoleExternalMaintainer}), Role: models.RoleExternalMaintainer}
	category := store.AddCategory(models.Category{Name: "Roads"})

	dispatcher := notify.NewDispatcher(store)
	engine := workflow.NewEngine(store, dispatcher)
	chat := chathub.NewService(store, dispatcher)

	r, err := engine.CreateReport(ctx, citizen, workflow.ReportInput{Title: "Pothole", Description: "Deep hole", Latitude: 45, Longitude: 7})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, r.Status)

	r, err = engine.SetCategory(ctx, r.ID, officer, category)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCategorized, r.Status)

	r, err = engine.AcceptOrReject(ctx, r.ID, officer, workflow.DecisionAccept, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, r.Status)
	first := store.Notifications()
	require.Len(t, first, 1)
	assert.Equal(t, citizen.ID, first[0].UserID)
	assert.Equal(t, models.StatusCategorized, *first[0].PreviousStatus)
	assert.Equal(t, models.StatusAssigned, *first[0].NewStatus)

	r, err = engine.AssignExternalMaintainer(ctx, r.ID, staff, maintainer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExternallyAssigned, r.Status)

	threads, err := chat.FindByReport(ctx, staff, r.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	_, err = chat.PostToThread(ctx, maintainer, threads[0].ID, "on site")
	require.NoError(t, err)

	r, err = engine.UpdateStatus(ctx, r.ID, maintainer, models.StatusResolved)
	require.NoError(t, err)
	dispatcher.Wait()

	assert.Equal(t, models.StatusResolved, r.Status)
	forCitizen, err := dispatcher.MyNotifications(ctx, citizen)
	require.NoError(t, err)
	assert.Len(t, forCitizen, 3)
	for _, n := range forCitizen {
		assert.Equal(t, models.NotificationReportStatus, n.Type)
	}
	forStaff, err := dispatcher.MyNotifications(ctx, staff)
	require.NoError(t, err)
	require.Len(t, forStaff, 1)
	assert.Equal(t, models.NotificationMessage, forStaff[0].Type)
	assert.Len(t, store.Notifications(), 4)
	assert.Len(t, store.Threads(), 1)
	assert.Len(t, store.Messages(), 1)
}
