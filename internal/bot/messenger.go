package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"forgotten/internal/service"
)

// Messenger sends reminder payloads through the Telegram Bot API.
type Messenger struct {
	api *tgbotapi.BotAPI
}

func NewMessenger(api *tgbotapi.BotAPI) *Messenger {
	return &Messenger{api: api}
}

// SendText sends text verbatim, without any parse mode.
func (m *Messenger) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", service.ErrDelivery, err)
	}
	if _, err := m.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("%w: send message to %d: %w", service.ErrDelivery, chatID, err)
	}
	return nil
}

func (m *Messenger) SendPhoto(ctx context.Context, chatID int64, photo []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", service.ErrDelivery, err)
	}
	cfg := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "reminder.jpg", Bytes: photo})
	if _, err := m.api.Send(cfg); err != nil {
		return fmt.Errorf("%w: send photo to %d: %w", service.ErrDelivery, chatID, err)
	}
	return nil
}
