package notify

import (
	"context"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/models"
)

// List returns every notification, newest first. Administrators only.
func (d *Dispatcher) List(ctx context.Context, actor models.Actor) ([]models.Notification, error) {
	if !actor.Is(models.RoleMunicipalAdministrator) {
		return nil, apperr.Forbidden("only administrators can list all notifications")
	}
	return d.Storage.ListNotifications(ctx)
}

func (d *Dispatcher) MyNotifications(ctx context.Context, actor models.Actor) ([]models.Notification, error) {
	notifications, err := d.Storage.ListNotificationsForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	for i := range notifications {
		notifications[i].Report.RedactFor(actor)
	}
	return notifications, nil
}

func (d *Dispatcher) UnseenCount(ctx context.Context, actor models.Actor) (int64, error) {
	return d.Storage.CountUnseenNotifications(ctx, actor.ID)
}

// MarkSeen flags the notification as seen. Repeating it is a no-op.
func (d *Dispatcher) MarkSeen(ctx context.Context, actor models.Actor, id uint) error {
	n, err := d.Storage.GetNotificationByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != actor.ID && !actor.Is(models.RoleMunicipalAdministrator) {
		return apperr.Forbidden("notification %d belongs to another user", id)
	}
	if n.Seen {
		return nil
	}
	return d.Storage.MarkNotificationSeen(ctx, id)
}
