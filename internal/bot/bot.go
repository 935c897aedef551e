package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"forgotten/internal/service"
)

const helpText = "<b>Forgotten: reminders on demand</b>\n\nCommands:\n\n" +
	"/adduser &lt;tg_id&gt; &lt;name&gt; (admin command)\n" +
	"/listusers (admin command)\n" +
	"/rmuser &lt;tg_id&gt; (admin command)\n" +
	"/me -&gt; find Telegram ID\n" +
	"/remember -&gt; ask for date and text to remember\n" +
	"/remember &lt;YYYY-MM-DD hh:mm&gt; -&gt; ask for text to remember\n" +
	"/reminders -&gt; list pending reminders\n" +
	"/forget &lt;id&gt; -&gt; delete a pending reminder\n" +
	"/cancel -&gt; abort the current input"

// MediaSaver stores downloaded photos for later delivery.
type MediaSaver interface {
	Save(data []byte) (string, error)
	Delete(handle string) error
}

type Options struct {
	OwnerID  int64
	Location *time.Location
	// FileEndpoint is the printf pattern (token, file path) used to download
	// files. Defaults to tgbotapi.FileEndpoint.
	FileEndpoint string
}

// Bot aggregates Telegram API with the reminder service.
type Bot struct {
	api           *tgbotapi.BotAPI
	reminders     *service.ReminderService
	media         MediaSaver
	ownerID       int64
	location      *time.Location
	fileEndpoint  string
	conversations *conversations
}

func New(api *tgbotapi.BotAPI, reminders *service.ReminderService, media MediaSaver, opts Options) *Bot {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	fileEndpoint := opts.FileEndpoint
	if fileEndpoint == "" {
		fileEndpoint = tgbotapi.FileEndpoint
	}

	return &Bot{
		api:           api,
		reminders:     reminders,
		media:         media,
		ownerID:       opts.OwnerID,
		location:      loc,
		fileEndpoint:  fileEndpoint,
		conversations: newConversations(),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	slog.Info("bot: Start polling updates", "account", b.api.Self.UserName)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			slog.Error("bot: Failed to handle message", "error", err, "update_id", update.UpdateID)
		}
	}

	return ctx.Err()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat == nil {
		return nil
	}

	if msg.IsCommand() {
		slog.Info("bot: Command received", "chat_id", msg.Chat.ID, "command", msg.Command())
		return b.handleCommand(ctx, msg)
	}

	if state, ok := b.conversations.get(msg.Chat.ID); ok {
		slog.Debug("bot: Conversation step", "chat_id", msg.Chat.ID, "stage", state.stage)
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "I did not understand that. Send /help for the list of commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "me":
		return b.sendText(msg.Chat.ID, fmt.Sprintf("%d", msg.Chat.ID))
	case "adduser":
		return b.handleAddUser(ctx, msg)
	case "listusers":
		return b.handleListUsers(ctx, msg)
	case "rmuser":
		return b.handleRemoveUser(ctx, msg)
	case "remember":
		return b.handleRemember(ctx, msg)
	case "reminders":
		return b.handleListReminders(ctx, msg)
	case "forget":
		return b.handleForget(ctx, msg)
	case "cancel":
		b.conversations.clear(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "Operation cancelled")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. Send /help for the list of commands.")
	}
}

// userMessage turns service errors into text that is safe to show users.
func userMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrDuplicateUser):
		return "user already exists"
	case errors.Is(err, service.ErrInvalidUser):
		return "invalid user id or name"
	case errors.Is(err, service.ErrUnknownOwner):
		return "you are not a registered user"
	case errors.Is(err, service.ErrInvalidPayload):
		return "content must be a non-empty text or a photo"
	case errors.Is(err, service.ErrInvalidDueAt):
		return "invalid date"
	case errors.Is(err, service.ErrReminderNotFound):
		return "reminder not found"
	default:
		return "internal error, try again later"
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}

func escape(text string) string {
	return html.EscapeString(strings.TrimSpace(text))
}
