package chathub

import (
	"context"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/models"
)

// ByReport returns the report's flat comments plus the thread messages the
// actor sent or received, oldest first.
func (s *Service) ByReport(ctx context.Context, actor models.Actor, reportID uint) ([]models.Message, error) {
	report, err := s.Storage.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !report.VisibleTo(actor) {
		return nil, apperr.Forbidden("report %d is not visible to user %d", reportID, actor.ID)
	}
	all, err := s.Storage.ListMessagesByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(all))
	for _, m := range all {
		if m.ThreadID == nil || m.Involves(actor.ID) {
			out = append(out, m)
		}
	}
	return redactReports(out, actor), nil
}

// ByThread returns the messages of a thread the actor can read, oldest first.
func (s *Service) ByThread(ctx context.Context, actor models.Actor, threadID uint) ([]models.Message, error) {
	if _, err := s.FindByID(ctx, actor, threadID); err != nil {
		return nil, err
	}
	messages, err := s.Storage.ListMessagesByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return redactReports(messages, actor), nil
}

func (s *Service) ByUser(ctx context.Context, actor models.Actor) ([]models.Message, error) {
	messages, err := s.Storage.ListMessagesByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return redactReports(messages, actor), nil
}

func redactReports(messages []models.Message, actor models.Actor) []models.Message {
	for i := range messages {
		messages[i].Report.RedactFor(actor)
	}
	return messages
}
