package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/config"
	"civicreport/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Storage is the persistence port of the workflow, chat and notification
// services. Every call honours ctx for timeout and cancellation.
type Storage interface {
	// WithinTx runs fn in a single transaction. The Storage handed to fn is
	// bound to that transaction; fn returning an error rolls everything back.
	WithinTx(ctx context.Context, fn func(tx Storage) error) error
	// LockReport serializes writers of one report across processes. A lock
	// already held by someone else yields a CONFLICT error.
	LockReport(ctx context.Context, reportID uint) (unlock func(), err error)

	CreateReport(ctx context.Context, r *models.Report) error
	GetReportByID(ctx context.Context, id uint) (*models.Report, error)
	GetReportForUpdate(ctx context.Context, id uint) (*models.Report, error)
	UpdateReport(ctx context.Context, r *models.Report, expectedVersion uint) error
	ListReportsByStatus(ctx context.Context, status models.ReportStatus) ([]models.Report, error)
	ListReportsByCreator(ctx context.Context, userID uint) ([]models.Report, error)
	ListReportsByAssignee(ctx context.Context, userID uint) ([]models.Report, error)
	ListReportsForSupervisor(ctx context.Context, userID uint) ([]models.Report, error)

	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
	GetCategoryByID(ctx context.Context, id uint) (*models.Category, error)
	SaveCategory(ctx context.Context, c *models.Category) error
	ListCategories(ctx context.Context) ([]models.Category, error)

	FindThread(ctx context.Context, reportID, userA, userB uint) (*models.ChatThread, error)
	CreateThreadIfAbsent(ctx context.Context, t *models.ChatThread) (created bool, err error)
	GetThreadByID(ctx context.Context, id uint) (*models.ChatThread, error)
	ListThreadsByReport(ctx context.Context, reportID uint) ([]models.ChatThread, error)
	ListThreadsByUser(ctx context.Context, userID uint) ([]models.ChatThread, error)

	SaveMessage(ctx context.Context, m *models.Message) error
	ListMessagesByReport(ctx context.Context, reportID uint) ([]models.Message, error)
	ListMessagesByThread(ctx context.Context, threadID uint) ([]models.Message, error)
	ListMessagesByUser(ctx context.Context, userID uint) ([]models.Message, error)

	SaveNotification(ctx context.Context, n *models.Notification) error
	GetNotificationByID(ctx context.Context, id uint) (*models.Notification, error)
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	ListNotificationsForUser(ctx context.Context, userID uint) ([]models.Notification, error)
	MarkNotificationSeen(ctx context.Context, id uint) error
	CountUnseenNotifications(ctx context.Context, userID uint) (int64, error)
}

// Service implements Storage on PostgreSQL (gorm) with Redis-held report locks.
type Service struct {
	DB      *gorm.DB
	Redis   *redis.Client
	LockTTL time.Duration
	Log     *zap.SugaredLogger
}

// NewStorageService Constructor. rdb may be nil, in which case LockReport is
// a no-op and concurrent writers are caught by the report version check.
func NewStorageService(db *gorm.DB, rdb *redis.Client, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{
		DB:      db,
		Redis:   rdb,
		LockTTL: config.DefaultReportLockTTL,
		Log:     log,
	}
}

// AutoMigrate creates or updates every table the services use.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Office{},
		&models.Category{},
		&models.User{},
		&models.Report{},
		&models.ChatThread{},
		&models.Message{},
		&models.Notification{},
	)
}

func (s *Service) db(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx)
}

// WithinTx runs fn inside a gorm transaction.
func (s *Service) WithinTx(ctx context.Context, fn func(tx Storage) error) error {
	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		bound := *s
		bound.DB = tx
		return fn(&bound)
	})
}

// fail classifies a driver error. Record-not-found becomes NOT_FOUND with the
// given message; everything else is logged and becomes INTERNAL.
func (s *Service) fail(err error, op string, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	s.Log.Errorw("storage operation failed", "op", op, "error", err)
	return apperr.Internal(fmt.Errorf("%s: %w", op, err))
}
