package notify

import (
	"context"

	"civicreport/backend/internal/config"
)

// deliver sends the rendered text to the user's email and Telegram chat on a
// background goroutine bounded by the delivery timeout.
func (d *Dispatcher) deliver(userID uint, render func(lang string) (subject, body string)) {
	if d.mailer == nil && d.pusher == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.deliveryTimeout)
		defer cancel()

		user, err := d.Storage.GetUserByID(ctx, userID)
		if err != nil {
			d.log.Warnw("recipient lookup failed", "event", "delivery_failed", "user_id", userID, "error", err)
			return
		}
		lang := user.Language
		if lang == "" || !d.localizer.Has(lang) {
			lang = config.DefaultLanguage
		}
		subject, body := render(lang)

		if d.mailer != nil && user.Email != "" {
			if err := d.mailer.Send(ctx, user.Email, subject, body); err != nil {
				d.log.Warnw("email delivery failed", "event", "delivery_failed", "channel", "email", "user_id", userID, "error", err)
			}
		}
		if d.pusher != nil && user.TelegramChatID != nil {
			if err := d.pusher.Push(ctx, *user.TelegramChatID, subject+"\n\n"+body); err != nil {
				d.log.Warnw("push delivery failed", "event", "delivery_failed", "channel", "telegram", "user_id", userID, "error", err)
			}
		}
	}()
}
