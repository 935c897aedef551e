package bot

import (
	"context"
	"log/slog"
)

// Access is the outcome of an authorization check.
type Access int

const (
	AccessGranted Access = iota
	AccessNotOwner
	AccessUnknownUser
	AccessUnavailable
)

func (a Access) Granted() bool {
	return a == AccessGranted
}

// Message is the reply sent to callers that were refused.
func (a Access) Message() string {
	switch a {
	case AccessGranted:
		return ""
	case AccessNotOwner:
		return "Sorry, you are not the owner of this bot"
	case AccessUnknownUser:
		return "Sorry, I don't recognize you. Contact the admin"
	default:
		return "Cannot check your permissions right now, try again later"
	}
}

type knownUserChecker interface {
	IsKnown(ctx context.Context, telegramID int64) (bool, error)
}

// RequireOwner grants access only to the configured owner. A non-positive
// owner id means no owner is configured.
func RequireOwner(ownerID, callerID int64) Access {
	if ownerID <= 0 || callerID != ownerID {
		return AccessNotOwner
	}
	return AccessGranted
}

// RequireKnownUser grants access to registered users.
func RequireKnownUser(ctx context.Context, users knownUserChecker, callerID int64) Access {
	known, err := users.IsKnown(ctx, callerID)
	if err != nil {
		slog.Error("bot: Failed to check user", "error", err, "chat_id", callerID)
		return AccessUnavailable
	}
	if !known {
		return AccessUnknownUser
	}
	return AccessGranted
}
