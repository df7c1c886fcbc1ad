package storage

import (
	"context"
	"time"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func withReportRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("CreatedBy").Preload("AssignedTo").Preload("Supervisor")
}

// CreateReport inserts a new report with version 1.
func (s *Service) CreateReport(ctx context.Context, r *models.Report) error {
	r.Version = 1
	if err := s.db(ctx).Create(r).Error; err != nil {
		return s.fail(err, "create report", "report")
	}
	return nil
}

// GetReportByID returns a report with category, creator, assignee and supervisor loaded.
func (s *Service) GetReportByID(ctx context.Context, id uint) (*models.Report, error) {
	var r models.Report
	if err := withReportRelations(s.db(ctx)).First(&r, id).Error; err != nil {
		return nil, s.fail(err, "get report", "report %d not found", id)
	}
	return &r, nil
}

// GetReportForUpdate reads a report row with SELECT ... FOR UPDATE. It is
// meant to be called inside WithinTx.
func (s *Service) GetReportForUpdate(ctx context.Context, id uint) (*models.Report, error) {
	var r models.Report
	err := s.db(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&r, id).Error
	if err != nil {
		return nil, s.fail(err, "get report for update", "report %d not found", id)
	}
	return &r, nil
}

// UpdateReport writes the workflow-owned columns of r only if the stored
// version still equals expectedVersion. A lost race is a CONFLICT.
func (s *Service) UpdateReport(ctx context.Context, r *models.Report, expectedVersion uint) error {
	now := time.Now()
	res := s.db(ctx).Model(&models.Report{}).
		Where("id = ? AND version = ?", r.ID, expectedVersion).
		Updates(map[string]any{
			"status":           r.Status,
			"category_id":      r.CategoryID,
			"assigned_to_id":   r.AssignedToID,
			"supervisor_id":    r.SupervisorID,
			"rejection_reason": r.RejectionReason,
			"version":          expectedVersion + 1,
			"updated_at":       now,
		})
	if res.Error != nil {
		return s.fail(res.Error, "update report", "report %d not found", r.ID)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("report %d was modified concurrently", r.ID)
	}
	r.Version = expectedVersion + 1
	r.UpdatedAt = now
	return nil
}

func (s *Service) listReports(ctx context.Context, op string, query any, args ...any) ([]models.Report, error) {
	var reports []models.Report
	err := withReportRelations(s.db(ctx)).
		Where(query, args...).
		Order("created_at DESC").Order("id DESC").
		Find(&reports).Error
	if err != nil {
		return nil, s.fail(err, op, "reports")
	}
	return reports, nil
}

func (s *Service) ListReportsByStatus(ctx context.Context, status models.ReportStatus) ([]models.Report, error) {
	return s.listReports(ctx, "list reports by status", "status = ?", status)
}

func (s *Service) ListReportsByCreator(ctx context.Context, userID uint) ([]models.Report, error) {
	return s.listReports(ctx, "list reports by creator", "created_by_id = ?", userID)
}

func (s *Service) ListReportsByAssignee(ctx context.Context, userID uint) ([]models.Report, error) {
	return s.listReports(ctx, "list reports by assignee", "assigned_to_id = ?", userID)
}

// ListReportsForSupervisor returns the reports the staff member supervises
// plus every ASSIGNED report still waiting for an external maintainer.
func (s *Service) ListReportsForSupervisor(ctx context.Context, userID uint) ([]models.Report, error) {
	return s.listReports(ctx, "list reports for supervisor",
		"supervisor_id = ? OR (status = ? AND assigned_to_id IS NULL)", userID, models.StatusAssigned)
}
