package storage

import (
	"context"

	"civicreport/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func withThreadRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("User1").Preload("User2")
}

// FindThread returns the thread of the unordered pair (userA, userB) on a
// report, or nil when there is none.
func (s *Service) FindThread(ctx context.Context, reportID, userA, userB uint) (*models.ChatThread, error) {
	u1, u2 := models.OrderedPair(userA, userB)

	var threads []models.ChatThread
	err := withThreadRelations(s.db(ctx)).
		Where("report_id = ? AND user1_id = ? AND user2_id = ?", reportID, u1, u2).
		Limit(1).
		Find(&threads).Error
	if err != nil {
		return nil, s.fail(err, "find thread", "thread")
	}
	if len(threads) == 0 {
		return nil, nil
	}
	return &threads[0], nil
}

// CreateThreadIfAbsent inserts t unless a thread for the same report and
// pair exists. Either way t ends up holding the stored row. ON CONFLICT DO
// NOTHING keeps a surrounding transaction usable when two requests race.
func (s *Service) CreateThreadIfAbsent(ctx context.Context, t *models.ChatThread) (bool, error) {
	t.User1ID, t.User2ID = models.OrderedPair(t.User1ID, t.User2ID)

	res := s.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "report_id"}, {Name: "user1_id"}, {Name: "user2_id"}},
		DoNothing: true,
	}).Create(t)
	if res.Error != nil {
		return false, s.fail(res.Error, "create thread", "thread")
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	existing, err := s.FindThread(ctx, t.ReportID, t.User1ID, t.User2ID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, s.fail(gorm.ErrInvalidData, "create thread", "thread")
	}
	*t = *existing
	return false, nil
}

// GetThreadByID returns a thread with both participants loaded.
func (s *Service) GetThreadByID(ctx context.Context, id uint) (*models.ChatThread, error) {
	var t models.ChatThread
	if err := withThreadRelations(s.db(ctx)).First(&t, id).Error; err != nil {
		return nil, s.fail(err, "get thread", "chat %d not found", id)
	}
	return &t, nil
}

func (s *Service) ListThreadsByReport(ctx context.Context, reportID uint) ([]models.ChatThread, error) {
	var threads []models.ChatThread
	err := withThreadRelations(s.db(ctx)).
		Where("report_id = ?", reportID).
		Order("id ASC").
		Find(&threads).Error
	if err != nil {
		return nil, s.fail(err, "list threads by report", "threads")
	}
	return threads, nil
}

func (s *Service) ListThreadsByUser(ctx context.Context, userID uint) ([]models.ChatThread, error) {
	var threads []models.ChatThread
	err := withThreadRelations(s.db(ctx)).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("id ASC").
		Find(&threads).Error
	if err != nil {
		return nil, s.fail(err, "list threads by user", "threads")
	}
	return threads, nil
}

// SaveMessage inserts a message. Messages are never updated.
func (s *Service) SaveMessage(ctx context.Context, m *models.Message) error {
	if err := s.db(ctx).Create(m).Error; err != nil {
		return s.fail(err, "save message", "message")
	}
	return nil
}

func (s *Service) listMessages(ctx context.Context, op string, query any, args ...any) ([]models.Message, error) {
	var messages []models.Message
	err := s.db(ctx).
		Preload("Sender").Preload("Receiver").Preload("Report").
		Where(query, args...).
		Order("sent_at ASC").Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, s.fail(err, op, "messages")
	}
	return messages, nil
}

func (s *Service) ListMessagesByReport(ctx context.Context, reportID uint) ([]models.Message, error) {
	return s.listMessages(ctx, "list messages by report", "report_id = ?", reportID)
}

func (s *Service) ListMessagesByThread(ctx context.Context, threadID uint) ([]models.Message, error) {
	return s.listMessages(ctx, "list messages by thread", "thread_id = ?", threadID)
}

func (s *Service) ListMessagesByUser(ctx context.Context, userID uint) ([]models.Message, error) {
	return s.listMessages(ctx, "list messages by user", "sender_id = ? OR receiver_id = ?", userID, userID)
}
