package workflow_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/models"
	"civicreport/backend/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetReportByID_Visibility(t *testing.T) {
	f := newFixture(t)
	r := f.advance(t, models.StatusExternallyAssigned)
	stranger := models.Actor{ID: f.store.AddUser(models.User{Username: "stranger", Role: models.RoleCitizen}), Role: models.RoleCitizen}

	tests := []struct {
		name    string
		actor   models.Actor
		wantErr error
	}{
		{"creator", f.citizen, nil},
		{"assignee", f.maintainer, nil},
		{"supervisor", f.tech, nil},
		{"officer", f.officer, nil},
		{"administrator", f.admin, nil},
		{"other citizen", stranger, apperr.ErrForbidden},
		{"other maintainer", f.otherMaint, apperr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.engine.GetReportByID(context.Background(), r.ID, tt.actor)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, r.ID, got.ID)
		})
	}
}

func TestGetReportByID_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.GetReportByID(context.Background(), 404, f.admin)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetReportsByStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.submit(t)
	second := f.submit(t)
	f.advance(t, models.StatusCategorized)

	got, err := f.engine.GetReportsByStatus(ctx, f.maintainer, models.StatusSubmitted)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)

	_, err = f.engine.GetReportsByStatus(ctx, f.citizen, models.ReportStatus("CLOSED"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetReportsByStatus_HidesAnonymousCreator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.engine.CreateReport(ctx, f.citizen, workflow.ReportInput{
		Title: "Graffiti", Description: "On the school wall", Anonymous: true,
	})
	require.NoError(t, err)

	forMaintainer, err := f.engine.GetReportsByStatus(ctx, f.maintainer, models.StatusSubmitted)
	require.NoError(t, err)
	forOfficer, err := f.engine.GetReportsByStatus(ctx, f.officer, models.StatusSubmitted)
	require.NoError(t, err)

	require.Len(t, forMaintainer, 1)
	assert.Nil(t, forMaintainer[0].CreatedBy)
	require.Len(t, forOfficer, 1)
	assert.NotNil(t, forOfficer[0].CreatedBy)

	hidden, err := json.Marshal(forMaintainer[0])
	require.NoError(t, err)
	assert.NotContains(t, string(hidden), "created_by")
	shown, err := json.Marshal(forOfficer[0])
	require.NoError(t, err)
	assert.Contains(t, string(shown), fmt.Sprintf(`"created_by_id":%d`, f.citizen.ID))
}

func TestUpdateStatus_HidesAnonymousCreatorFromMaintainer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.events.On("OnStatusChange", mock.Anything, mock.Anything, mock.Anything)
	r, err := f.engine.CreateReport(ctx, f.citizen, workflow.ReportInput{
		Title: "Graffiti", Description: "On the school wall", Anonymous: true, CategoryID: &f.category,
	})
	require.NoError(t, err)
	_, err = f.engine.SetCategory(ctx, r.ID, f.officer, f.category)
	require.NoError(t, err)
	_, err = f.engine.AcceptOrReject(ctx, r.ID, f.officer, workflow.DecisionAccept, "")
	require.NoError(t, err)
	_, err = f.engine.AssignExternalMaintainer(ctx, r.ID, f.tech, f.maintainer.ID)
	require.NoError(t, err)

	got, err := f.engine.UpdateStatus(ctx, r.ID, f.maintainer, models.StatusInProgress)

	require.NoError(t, err)
	assert.Zero(t, got.CreatedByID)
	assert.Nil(t, got.CreatedBy)
	stored, _ := f.store.Report(r.ID)
	assert.Equal(t, f.citizen.ID, stored.CreatedByID)
	f.events.AssertCalled(t, "OnStatusChange", r.ID, models.StatusExternallyAssigned, models.StatusInProgress)
}

func TestGetMyReports(t *testing.T) {
	f := newFixture(t)
	r := f.submit(t)

	mine, err := f.engine.GetMyReports(context.Background(), f.citizen)
	require.NoError(t, err)
	none, err := f.engine.GetMyReports(context.Background(), f.officer)
	require.NoError(t, err)

	require.Len(t, mine, 1)
	assert.Equal(t, r.ID, mine[0].ID)
	assert.Empty(t, none)
}

func TestGetAssignedReports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	assigned := f.advance(t, models.StatusExternallyAssigned)
	waiting := f.advance(t, models.StatusAssigned)

	t.Run("maintainer sees own assignments", func(t *testing.T) {
		got, err := f.engine.GetAssignedReports(ctx, f.maintainer)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, assigned.ID, got[0].ID)
	})
	t.Run("other maintainer sees nothing", func(t *testing.T) {
		got, err := f.engine.GetAssignedReports(ctx, f.otherMaint)

		require.NoError(t, err)
		assert.Empty(t, got)
	})
	t.Run("supervisor sees supervised and waiting reports", func(t *testing.T) {
		got, err := f.engine.GetAssignedReports(ctx, f.tech)

		require.NoError(t, err)
		ids := []uint{}
		for _, r := range got {
			ids = append(ids, r.ID)
		}
		assert.ElementsMatch(t, []uint{assigned.ID, waiting.ID}, ids)
	})
	t.Run("other staff sees only waiting reports", func(t *testing.T) {
		got, err := f.engine.GetAssignedReports(ctx, f.otherTech)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, waiting.ID, got[0].ID)
	})
	t.Run("citizen is forbidden", func(t *testing.T) {
		_, err := f.engine.GetAssignedReports(ctx, f.citizen)

		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})
}
