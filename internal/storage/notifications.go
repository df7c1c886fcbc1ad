package storage

import (
	"context"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/models"

	"gorm.io/gorm"
)

func withNotificationRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Report.Category").
		Preload("Report.CreatedBy").
		Preload("Message.Sender")
}

func (s *Service) SaveNotification(ctx context.Context, n *models.Notification) error {
	if err := s.db(ctx).Create(n).Error; err != nil {
		return s.fail(err, "save notification", "notification")
	}
	return nil
}

func (s *Service) GetNotificationByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := withNotificationRelations(s.db(ctx)).First(&n, id).Error; err != nil {
		return nil, s.fail(err, "get notification", "notification %d not found", id)
	}
	return &n, nil
}

// ListNotifications returns every notification, newest first.
func (s *Service) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	err := withNotificationRelations(s.db(ctx)).
		Order("created_at DESC").Order("id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, s.fail(err, "list notifications", "notifications")
	}
	return notifications, nil
}

// ListNotificationsForUser returns the notifications addressed to userID, newest first.
func (s *Service) ListNotificationsForUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := withNotificationRelations(s.db(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, s.fail(err, "list notifications for user", "notifications")
	}
	return notifications, nil
}

// MarkNotificationSeen sets seen = true. Marking twice is harmless.
func (s *Service) MarkNotificationSeen(ctx context.Context, id uint) error {
	res := s.db(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("seen", true)
	if res.Error != nil {
		return s.fail(res.Error, "mark notification seen", "notification %d not found", id)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("notification %d not found", id)
	}
	return nil
}

func (s *Service) CountUnseenNotifications(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND seen = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, s.fail(err, "count unseen notifications", "notifications")
	}
	return count, nil
}
