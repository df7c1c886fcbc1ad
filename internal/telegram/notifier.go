// Package telegram pushes notification texts to users' Telegram chats.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier delivers plain notification texts through a bot.
type Notifier struct {
	Bot Sender
	log *zap.SugaredLogger
}

// NewNotifier authorizes the bot token against the Telegram API.
func NewNotifier(token string, log *zap.SugaredLogger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize bot: %w", err)
	}
	bot.Debug = false
	n := NewNotifierWithSender(bot, log)
	n.log.Infow("telegram bot authorized", "account", bot.Self.UserName)
	return n, nil
}

func NewNotifierWithSender(bot Sender, log *zap.SugaredLogger) *Notifier {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Notifier{Bot: bot, log: log}
}

// Push sends text to chatID. User-provided text is escaped for Markdown.
func (n *Notifier) Push(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text))
	msg.ParseMode = tgbotapi.ModeMarkdown

	sent, err := n.Bot.Send(msg)
	if err != nil {
		return fmt.Errorf("telegram: send to chat %d: %w", chatID, err)
	}
	n.log.Debugw("telegram message sent", "chat_id", chatID, "message_id", sent.MessageID)
	return nil
}
