// Package alert sends operator-facing notifications over Telegram. The
// kill switch and safety veto route through Notifier.Urgent per spec.md §7.
package alert

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends alert text to a fixed chat.
type Notifier interface {
	Notify(text string) error
	Urgent(text string) error
}

// TelegramNotifier implements Notifier over the Telegram Bot API.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier dials the bot API with token and binds it to chatID.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("alert: connect telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) Notify(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	_, err := n.bot.Send(msg)
	return err
}

// Urgent prefixes text so it stands out among routine notifications.
func (n *TelegramNotifier) Urgent(text string) error {
	return n.Notify("🚨 URGENT: " + text)
}

// NoopNotifier discards every alert; used when Telegram is not configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(string) error { return nil }
func (NoopNotifier) Urgent(string) error { return nil }
