package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleAddUser(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if access := RequireOwner(b.ownerID, chatID); !access.Granted() {
		return b.sendText(chatID, access.Message())
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		return b.sendText(chatID, "Missing arguments: /adduser &lt;id&gt; &lt;name&gt;")
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		return b.sendText(chatID, "Not a valid Telegram ID")
	}
	name := strings.Join(args[1:], " ")

	if err := b.reminders.AddUser(ctx, userID, name); err != nil {
		slog.Warn("bot: Failed to add user", "error", err, "user_id", userID)
		return b.sendText(chatID, fmt.Sprintf("Failed to insert user: %s", userMessage(err)))
	}

	slog.Info("bot: User added", "user_id", userID, "name", name)
	return b.sendText(chatID, fmt.Sprintf("New user \"%s\" created", escape(name)))
}

func (b *Bot) handleListUsers(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if access := RequireOwner(b.ownerID, chatID); !access.Granted() {
		return b.sendText(chatID, access.Message())
	}

	users, err := b.reminders.ListUsers(ctx)
	if err != nil {
		slog.Error("bot: Failed to list users", "error", err)
		return b.sendText(chatID, fmt.Sprintf("Failed to list users: %s", userMessage(err)))
	}
	if len(users) == 0 {
		return b.sendText(chatID, "No users in database")
	}

	var sb strings.Builder
	for _, user := range users {
		sb.WriteString(fmt.Sprintf("- %d: %s\n", user.TelegramID, escape(user.Name)))
	}
	return b.sendText(chatID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleRemoveUser(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if access := RequireOwner(b.ownerID, chatID); !access.Granted() {
		return b.sendText(chatID, access.Message())
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	userID, err := strconv.ParseInt(arg, 10, 64)
	if arg == "" || err != nil {
		return b.sendText(chatID, "Missing argument: /rmuser &lt;id&gt;")
	}

	if err := b.reminders.RemoveUser(ctx, userID); err != nil {
		slog.Error("bot: Failed to remove user", "error", err, "user_id", userID)
		return b.sendText(chatID, fmt.Sprintf("Failed to remove user: %s", userMessage(err)))
	}

	slog.Info("bot: User removed", "user_id", userID)
	b.conversations.clear(userID)
	return b.sendText(chatID, fmt.Sprintf("User \"%d\" removed", userID))
}
