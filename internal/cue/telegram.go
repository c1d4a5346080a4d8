package cue

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends each cue's text to a single chat.
type Telegram struct {
	bot    sender
	chatID int64
}

// NewTelegram connects to the Bot API with token.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Handler returns the registry output for this chat.
func (t *Telegram) Handler() Handler {
	return func(c Cue) error {
		msg := tgbotapi.NewMessage(t.chatID, message(c))
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		return nil
	}
}

func message(c Cue) string {
	if c.Seq == 0 {
		return "Workout started. " + c.Text()
	}
	return fmt.Sprintf("#%d %s", c.Seq, c.Text())
}
