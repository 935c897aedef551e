package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"forgotten/internal/model"
	"forgotten/internal/service"
)

const (
	promptDate    = "Specify a date for the reminder in YYYY-MM-DD hh:mm format"
	promptContent = "Specify a message or send a photo to remember, or cancel with /cancel"
	dateHint      = "Date must be in format YYYY-MM-DD hh:mm"

	maxPhotoSize = 20 << 20
)

func (b *Bot) handleRemember(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if access := RequireKnownUser(ctx, b.reminders, chatID); !access.Granted() {
		return b.sendText(chatID, access.Message())
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		b.conversations.set(chatID, awaitingDate())
		return b.sendText(chatID, promptDate)
	}

	dueAt, err := parseDueAt(arg, b.location)
	if err != nil {
		return b.sendText(chatID, dateHint)
	}

	b.conversations.set(chatID, awaitingContent(dueAt))
	return b.sendText(chatID, promptContent)
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state conversationState) error {
	switch state.stage {
	case stageAwaitingDate:
		return b.handleDateInput(msg)
	case stageAwaitingContent:
		return b.handleContentInput(ctx, msg, state)
	default:
		b.conversations.clear(msg.Chat.ID)
		return nil
	}
}

func (b *Bot) handleDateInput(msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if msg.Text == "" {
		return b.sendText(chatID, promptDate)
	}

	dueAt, err := parseDueAt(msg.Text, b.location)
	if err != nil {
		return b.sendText(chatID, dateHint)
	}

	b.conversations.set(chatID, awaitingContent(dueAt))
	return b.sendText(chatID, promptContent)
}

func (b *Bot) handleContentInput(ctx context.Context, msg *tgbotapi.Message, state conversationState) error {
	chatID := msg.Chat.ID

	var payload model.Payload
	switch {
	case len(msg.Photo) > 0:
		handle, err := b.storePhoto(ctx, msg.Photo)
		if err != nil {
			slog.Error("bot: Failed to store photo", "error", err, "chat_id", chatID)
			b.conversations.clear(chatID)
			return b.sendText(chatID, "Failed to store photo, try again later")
		}
		payload = model.PhotoPayload(handle)
	case strings.TrimSpace(msg.Text) != "":
		payload = model.TextPayload(msg.Text)
	default:
		return b.sendText(chatID, "Content must be a text or a photo")
	}

	b.conversations.clear(chatID)

	reminder, err := b.reminders.CreateReminder(ctx, service.CreateReminderInput{
		Payload: payload,
		DueAt:   state.dueAt,
		OwnerID: chatID,
	})
	if err != nil {
		if handle, ok := payload.PhotoHandle(); ok {
			if delErr := b.media.Delete(handle); delErr != nil {
				slog.Warn("bot: Failed to delete orphaned photo", "error", delErr, "handle", handle)
			}
		}
		slog.Warn("bot: Failed to create reminder", "error", err, "chat_id", chatID)
		return b.sendText(chatID, fmt.Sprintf("Failed to store reminder: %s", userMessage(err)))
	}

	slog.Info("bot: Reminder created", "reminder_id", reminder.ID, "chat_id", chatID,
		"kind", reminder.Payload.Kind, "due_at", reminder.DueAt)
	return b.sendText(chatID, "Reminder stored!")
}

// storePhoto downloads the largest size of a photo and saves it to the media store.
func (b *Bot) storePhoto(ctx context.Context, sizes []tgbotapi.PhotoSize) (string, error) {
	largest := sizes[len(sizes)-1]

	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: largest.FileID})
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(b.fileEndpoint, b.api.Token, file.FilePath), nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := b.api.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoSize))
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	return b.media.Save(data)
}

func (b *Bot) handleListReminders(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if access := RequireKnownUser(ctx, b.reminders, chatID); !access.Granted() {
		return b.sendText(chatID, access.Message())
	}

	reminders, err := b.reminders.ListReminders(ctx, chatID)
	if err != nil {
		slog.Error("bot: Failed to list reminders", "error", err, "chat_id", chatID)
		return b.sendText(chatID, fmt.Sprintf("Failed to list reminders: %s", userMessage(err)))
	}
	if len(reminders) == 0 {
		return b.sendText(chatID, "You have no pending reminders")
	}

	var sb strings.Builder
	sb.WriteString("<b>Pending reminders</b>\n")
	for _, r := range reminders {
		sb.WriteString(fmt.Sprintf("#%d %s: %s\n", r.ID, r.DueAt.In(b.location).Format(dateLayout), describePayload(r.Payload)))
	}
	return b.sendText(chatID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleForget(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if access := RequireKnownUser(ctx, b.reminders, chatID); !access.Granted() {
		return b.sendText(chatID, access.Message())
	}

	id, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(msg.CommandArguments()), "#"), 10, 64)
	if err != nil || id == 0 {
		return b.sendText(chatID, "Missing argument: /forget &lt;id&gt;")
	}

	if err := b.reminders.CancelReminder(ctx, chatID, uint(id)); err != nil {
		if !errors.Is(err, service.ErrReminderNotFound) {
			slog.Error("bot: Failed to cancel reminder", "error", err, "chat_id", chatID, "reminder_id", id)
		}
		return b.sendText(chatID, fmt.Sprintf("Failed to forget reminder #%d: %s", id, userMessage(err)))
	}

	return b.sendText(chatID, fmt.Sprintf("Reminder #%d forgotten", id))
}

func describePayload(p model.Payload) string {
	if text, ok := p.Text(); ok {
		return escape(shortText(text, 40))
	}
	return "[photo]"
}

func shortText(text string, maxLen int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= maxLen {
		return string(runes)
	}
	return string(runes[:maxLen-1]) + "…"
}
