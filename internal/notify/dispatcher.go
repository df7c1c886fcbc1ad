// Package notify records notifications for status changes and new messages
// and forwards them out of band by email and Telegram.
package notify

import (
	"context"
	"sync"
	"time"

	"civicreport/backend/internal/config"
	"civicreport/backend/internal/localization"
	"civicreport/backend/internal/models"
	"civicreport/backend/internal/storage"

	"go.uber.org/zap"
)

// Mailer delivers a plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Pusher delivers a short text to a Telegram chat.
type Pusher interface {
	Push(ctx context.Context, chatID int64, text string) error
}

// Dispatcher turns workflow and chat events into stored notifications.
type Dispatcher struct {
	Storage storage.Storage

	mailer          Mailer
	pusher          Pusher
	localizer       *localization.Localizer
	log             *zap.SugaredLogger
	deliveryTimeout time.Duration

	wg sync.WaitGroup
}

type Option func(*Dispatcher)

func WithMailer(m Mailer) Option {
	return func(d *Dispatcher) { d.mailer = m }
}

func WithPusher(p Pusher) Option {
	return func(d *Dispatcher) { d.pusher = p }
}

func WithLocalizer(l *localization.Localizer) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.localizer = l
		}
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

func WithDeliveryTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.deliveryTimeout = t
		}
	}
}

// NewDispatcher Constructor. Without a Mailer or Pusher only the stored
// notification is produced.
func NewDispatcher(store storage.Storage, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		Storage:         store,
		localizer:       localization.Default(),
		log:             zap.NewNop().Sugar(),
		deliveryTimeout: config.DefaultDeliveryTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnStatusChange notifies the report creator. Failures are logged, never returned.
func (d *Dispatcher) OnStatusChange(ctx context.Context, report *models.Report, prev, next models.ReportStatus) {
	n := &models.Notification{
		Type:           models.NotificationReportStatus,
		PreviousStatus: prev.Ptr(),
		NewStatus:      next.Ptr(),
		UserID:         report.CreatedByID,
		ReportID:       report.ID,
	}
	if err := d.Storage.SaveNotification(ctx, n); err != nil {
		d.log.Errorw("status notification not stored", "event", "notification_dropped",
			"report_id", report.ID, "user_id", report.CreatedByID, "error", err)
		return
	}
	d.log.Infow("status notification stored", "notification_id", n.ID, "report_id", report.ID,
		"user_id", n.UserID, "from", prev, "to", next)

	d.deliver(n.UserID, func(lang string) (string, string) {
		return d.localizer.Format(lang, "notify.status.subject", report.ID),
			d.localizer.Format(lang, "notify.status.body", report.Title,
				d.localizer.GetString(lang, "status."+string(prev)),
				d.localizer.GetString(lang, "status."+string(next)))
	})
}

// OnNewMessage notifies the message's recipient: the explicit receiver, else
// the report creator, else the assignee. The sender is never notified.
func (d *Dispatcher) OnNewMessage(ctx context.Context, msg *models.Message) {
	report, err := d.Storage.GetReportByID(ctx, msg.ReportID)
	if err != nil {
		d.log.Errorw("message notification not stored", "event", "notification_dropped",
			"message_id", msg.ID, "report_id", msg.ReportID, "error", err)
		return
	}
	recipient, ok := messageRecipient(msg, report)
	if !ok {
		d.log.Debugw("message has no recipient to notify", "message_id", msg.ID, "report_id", msg.ReportID)
		return
	}

	n := &models.Notification{
		Type:      models.NotificationMessage,
		UserID:    recipient,
		ReportID:  msg.ReportID,
		MessageID: &msg.ID,
	}
	if err := d.Storage.SaveNotification(ctx, n); err != nil {
		d.log.Errorw("message notification not stored", "event", "notification_dropped",
			"message_id", msg.ID, "user_id", recipient, "error", err)
		return
	}
	d.log.Infow("message notification stored", "notification_id", n.ID, "message_id", msg.ID, "user_id", recipient)

	sender := "someone"
	if u, err := d.Storage.GetUserByID(ctx, msg.SenderID); err == nil {
		sender = u.DisplayName()
	}
	d.deliver(recipient, func(lang string) (string, string) {
		return d.localizer.Format(lang, "notify.message.subject", report.ID),
			d.localizer.Format(lang, "notify.message.body", sender, report.Title, msg.Text)
	})
}

func messageRecipient(msg *models.Message, report *models.Report) (uint, bool) {
	if msg.ReceiverID != nil {
		return *msg.ReceiverID, *msg.ReceiverID != msg.SenderID
	}
	if report.CreatedByID != msg.SenderID {
		return report.CreatedByID, true
	}
	if report.AssignedToID != nil && *report.AssignedToID != msg.SenderID {
		return *report.AssignedToID, true
	}
	return 0, false
}

// Wait blocks until every in-flight delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
