package workflow

import (
	"context"
	"strings"
	"unicode/utf8"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/config"
	"civicreport/backend/internal/models"
)

// ReportInput is what a citizen submits.
type ReportInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	PhotoURLs   []string `json:"photo_urls"`
	Anonymous   bool     `json:"anonymous"`
	CategoryID  *uint    `json:"category_id"`
}

func (in ReportInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(in.Title) > config.MaxTitleLength {
		return apperr.Validation("title exceeds %d characters", config.MaxTitleLength)
	}
	if strings.TrimSpace(in.Description) == "" {
		return apperr.Validation("description is required")
	}
	if in.Latitude < config.MinLatitude || in.Latitude > config.MaxLatitude {
		return apperr.Validation("latitude %v out of range", in.Latitude)
	}
	if in.Longitude < config.MinLongitude || in.Longitude > config.MaxLongitude {
		return apperr.Validation("longitude %v out of range", in.Longitude)
	}
	if len(in.PhotoURLs) > config.MaxReportPhotos {
		return apperr.Validation("at most %d photos are allowed", config.MaxReportPhotos)
	}
	return nil
}

// Decision is the outcome of the officer's review.
type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionReject Decision = "REJECT"
)

// CreateReport stores a new SUBMITTED report owned by the citizen.
func (e *Engine) CreateReport(ctx context.Context, actor models.Actor, in ReportInput) (*models.Report, error) {
	if !actor.Is(models.RoleCitizen) {
		return nil, apperr.Forbidden("only citizens can submit reports")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if in.CategoryID != nil {
		if _, err := e.Storage.GetCategoryByID(ctx, *in.CategoryID); err != nil {
			return nil, asValidation(err, "category %d does not exist", *in.CategoryID)
		}
	}

	report := &models.Report{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		PhotoURLs:   in.PhotoURLs,
		Anonymous:   in.Anonymous,
		CategoryID:  in.CategoryID,
		Status:      models.StatusSubmitted,
		CreatedByID: actor.ID,
	}
	if err := e.Storage.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	e.log.Infow("report submitted", "report_id", report.ID, "actor_id", actor.ID)
	return e.Storage.GetReportByID(ctx, report.ID)
}

func (e *Engine) SetCategory(ctx context.Context, reportID uint, actor models.Actor, categoryID uint) (*models.Report, error) {
	return e.Transition(ctx, reportID, actor, TransitionRequest{Kind: KindSetCategory, CategoryID: &categoryID})
}

// AcceptOrReject records the officer's decision. reason is kept only for rejections.
func (e *Engine) AcceptOrReject(ctx context.Context, reportID uint, actor models.Actor, decision Decision, reason string) (*models.Report, error) {
	switch decision {
	case DecisionAccept:
		return e.Transition(ctx, reportID, actor, TransitionRequest{Kind: KindAccept})
	case DecisionReject:
		return e.Transition(ctx, reportID, actor, TransitionRequest{Kind: KindReject, Reason: strings.TrimSpace(reason)})
	}
	if !actor.Is(transitions[KindAccept].roles...) {
		return nil, apperr.Forbidden("role %s may not review reports", actor.Role)
	}
	return nil, apperr.Validation("decision must be ACCEPT or REJECT")
}

func (e *Engine) AssignExternalMaintainer(ctx context.Context, reportID uint, actor models.Actor, maintainerID uint) (*models.Report, error) {
	return e.Transition(ctx, reportID, actor, TransitionRequest{Kind: KindAssignMaintainer, MaintainerID: &maintainerID})
}

func (e *Engine) UpdateStatus(ctx context.Context, reportID uint, actor models.Actor, status models.ReportStatus) (*models.Report, error) {
	return e.Transition(ctx, reportID, actor, TransitionRequest{Kind: KindUpdateStatus, TargetStatus: &status})
}

// GetReportByID returns the report when the actor may see it.
func (e *Engine) GetReportByID(ctx context.Context, reportID uint, actor models.Actor) (*models.Report, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	report, err := e.Storage.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !report.VisibleTo(actor) {
		return nil, apperr.Forbidden("report %d is not visible to user %d", reportID, actor.ID)
	}
	return redact(report, actor), nil
}

// GetReportsByStatus lists reports in one status, newest first.
func (e *Engine) GetReportsByStatus(ctx context.Context, actor models.Actor, status models.ReportStatus) ([]models.Report, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown status %q", status)
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	reports, err := e.Storage.ListReportsByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return redactAll(reports, actor), nil
}

func (e *Engine) GetMyReports(ctx context.Context, actor models.Actor) ([]models.Report, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.Storage.ListReportsByCreator(ctx, actor.ID)
}

// GetAssignedReports lists a maintainer's assignments, or for technical staff
// the reports they supervise plus those still waiting for a maintainer.
func (e *Engine) GetAssignedReports(ctx context.Context, actor models.Actor) ([]models.Report, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	switch actor.Role {
	case models.RoleExternalMaintainer:
		reports, err := e.Storage.ListReportsByAssignee(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return redactAll(reports, actor), nil
	case models.RoleTechnicalStaffMember:
		return e.Storage.ListReportsForSupervisor(ctx, actor.ID)
	}
	return nil, apperr.Forbidden("role %s has no assigned reports", actor.Role)
}

// redact hides the creator of anonymous reports from non-staff readers
// other than the creator.
func redact(r *models.Report, actor models.Actor) *models.Report {
	out := *r
	out.RedactFor(actor)
	return &out
}

func redactAll(reports []models.Report, actor models.Actor) []models.Report {
	for i := range reports {
		reports[i].RedactFor(actor)
	}
	return reports
}
