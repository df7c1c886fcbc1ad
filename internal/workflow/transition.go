package workflow

import (
	"context"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/chathub"
	"civicreport/backend/internal/models"
	"civicreport/backend/internal/storage"
)

// Transition applies req to the report atomically and returns the stored
// result. The status-change event is emitted only after the commit.
func (e *Engine) Transition(ctx context.Context, reportID uint, actor models.Actor, req TransitionRequest) (*models.Report, error) {
	r, ok := transitions[req.Kind]
	if !ok {
		return nil, apperr.Validation("unknown transition %q", req.Kind)
	}
	if !r.allows(actor.Role) {
		return nil, apperr.Forbidden("role %s may not perform %s", actor.Role, req.Kind)
	}
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	unlock, err := e.Storage.LockReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var prev, next models.ReportStatus
	var committed *models.Report
	err = e.Storage.WithinTx(ctx, func(tx storage.Storage) error {
		report, err := tx.GetReportForUpdate(ctx, reportID)
		if err != nil {
			return err
		}
		prev = report.Status

		if !r.from(report.Status) {
			return apperr.InvalidTransition("cannot %s a report in status %s", req.Kind, report.Status)
		}
		target, ok := r.target(req, report.Status)
		if !ok {
			return apperr.InvalidTransition("cannot move a report from %s to %s", report.Status, target)
		}
		if req.Kind == KindUpdateStatus && !report.IsAssignee(actor.ID) && !report.IsSupervisor(actor.ID) {
			return apperr.Forbidden("user %d is not assigned to report %d", actor.ID, reportID)
		}

		if err := e.apply(ctx, tx, report, actor, req); err != nil {
			return err
		}
		report.Status = target
		next = target

		if err := tx.UpdateReport(ctx, report, report.Version); err != nil {
			return err
		}
		if req.Kind == KindAssignMaintainer {
			if err := e.openAssignmentThread(ctx, tx, report); err != nil {
				return err
			}
		}
		committed = report
		return nil
	})
	if err != nil {
		e.log.Infow("transition refused", "report_id", reportID, "kind", req.Kind, "actor_id", actor.ID, "error", err)
		return nil, err
	}

	e.log.Infow("report transitioned", "report_id", reportID, "kind", req.Kind, "actor_id", actor.ID, "from", prev, "to", next)

	// The change is committed: neither the reload nor the caller's deadline
	// may drop the event or turn the result into an error.
	after, cancelAfter := e.withTimeout(context.WithoutCancel(ctx))
	defer cancelAfter()
	report, err := e.Storage.GetReportByID(after, reportID)
	if err != nil {
		e.log.Warnw("reload after transition failed, returning committed snapshot",
			"report_id", reportID, "kind", req.Kind, "error", err)
		report = committed
	}
	if r.notify && prev != next && e.Events != nil {
		e.Events.OnStatusChange(after, report, prev, next)
	}
	return redact(report, actor), nil
}

func validatePayload(req TransitionRequest) error {
	switch req.Kind {
	case KindSetCategory:
		if req.CategoryID == nil {
			return apperr.Validation("category_id is required")
		}
	case KindAssignMaintainer:
		if req.MaintainerID == nil {
			return apperr.Validation("maintainer_id is required")
		}
	case KindUpdateStatus:
		if req.TargetStatus == nil {
			return apperr.Validation("status is required")
		}
		if !req.TargetStatus.Valid() {
			return apperr.Validation("unknown status %q", *req.TargetStatus)
		}
	}
	return nil
}

// apply resolves referenced entities and sets the non-status fields.
func (e *Engine) apply(ctx context.Context, tx storage.Storage, report *models.Report, actor models.Actor, req TransitionRequest) error {
	switch req.Kind {
	case KindSetCategory:
		if _, err := tx.GetCategoryByID(ctx, *req.CategoryID); err != nil {
			return asValidation(err, "category %d does not exist", *req.CategoryID)
		}
		report.CategoryID = req.CategoryID
	case KindReject:
		report.RejectionReason = req.Reason
	case KindAssignMaintainer:
		m, err := tx.GetUserByID(ctx, *req.MaintainerID)
		if err != nil {
			return asValidation(err, "maintainer %d does not exist", *req.MaintainerID)
		}
		if m.Role != models.RoleExternalMaintainer {
			return apperr.Validation("user %d is not an external maintainer", m.ID)
		}
		maintainer, supervisor := m.ID, actor.ID
		report.AssignedToID = &maintainer
		report.SupervisorID = &supervisor
	}
	return nil
}

func (e *Engine) openAssignmentThread(ctx context.Context, tx storage.Storage, report *models.Report) error {
	a := *report.AssignedToID
	b := *report.SupervisorID
	if e.chatPolicy == ChatMaintainerCitizen {
		b = report.CreatedByID
	}
	if a == b {
		return nil
	}
	_, _, err := chathub.EnsureThread(ctx, tx, report.ID, a, b)
	return err
}

func asValidation(err error, format string, args ...any) error {
	if apperr.KindOf(err) == apperr.KindNotFound {
		return apperr.Validation(format, args...)
	}
	return err
}
