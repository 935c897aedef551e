package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"forgotten/internal/model"
	"forgotten/internal/repository"
)

// MediaStore gives access to stored photo blobs.
type MediaStore interface {
	Read(handle string) ([]byte, error)
	Exists(handle string) (bool, error)
	Delete(handle string) error
}

// CreateReminderInput represents data required to create a reminder.
type CreateReminderInput struct {
	Payload model.Payload
	DueAt   time.Time
	OwnerID int64
}

// ReminderService validates user-facing operations on users and reminders.
// Bot handlers and the delivery worker both go through it.
type ReminderService struct {
	store *repository.Store
	media MediaStore
}

func NewReminderService(store *repository.Store, media MediaStore) *ReminderService {
	return &ReminderService{store: store, media: media}
}

func (s *ReminderService) AddUser(ctx context.Context, telegramID int64, name string) error {
	name = strings.TrimSpace(name)
	if telegramID <= 0 || name == "" {
		return fmt.Errorf("%w: id %d, name %q", ErrInvalidUser, telegramID, name)
	}

	err := s.store.InsertUser(ctx, telegramID, name)
	if errors.Is(err, repository.ErrConstraintViolation) {
		return fmt.Errorf("%w: %d", ErrDuplicateUser, telegramID)
	}
	return err
}

// RemoveUser deletes the user and their reminders. Removing an unknown user
// succeeds.
func (s *ReminderService) RemoveUser(ctx context.Context, telegramID int64) error {
	purged, err := s.store.DeleteUser(ctx, telegramID)
	if err != nil {
		return err
	}
	for _, reminder := range purged {
		s.releaseMedia(reminder)
	}
	return nil
}

func (s *ReminderService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *ReminderService) IsKnown(ctx context.Context, telegramID int64) (bool, error) {
	ids, err := s.store.ListOwnerIDs(ctx)
	if err != nil {
		return false, err
	}
	_, ok := ids[telegramID]
	return ok, nil
}

// CreateReminder validates input and stores a new reminder with its due time
// truncated to the minute.
func (s *ReminderService) CreateReminder(ctx context.Context, input CreateReminderInput) (*model.Reminder, error) {
	if input.DueAt.IsZero() {
		return nil, ErrInvalidDueAt
	}
	if err := s.validatePayload(input.Payload); err != nil {
		return nil, err
	}

	known, err := s.IsKnown(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOwner, input.OwnerID)
	}

	reminder := model.Reminder{
		Payload: input.Payload,
		DueAt:   input.DueAt.Truncate(time.Minute),
		OwnerID: input.OwnerID,
	}
	if err := s.store.InsertReminder(ctx, &reminder); err != nil {
		// The owner may have been removed since the check above.
		if errors.Is(err, repository.ErrConstraintViolation) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownOwner, input.OwnerID)
		}
		return nil, err
	}
	return &reminder, nil
}

func (s *ReminderService) validatePayload(p model.Payload) error {
	switch p.Kind {
	case model.PayloadText:
		if strings.TrimSpace(p.Value) == "" {
			return fmt.Errorf("%w: empty text", ErrInvalidPayload)
		}
		return nil
	case model.PayloadPhoto:
		if p.Value == "" || s.media == nil {
			return fmt.Errorf("%w: missing photo", ErrInvalidPayload)
		}
		ok, err := s.media.Exists(p.Value)
		if err != nil || !ok {
			return fmt.Errorf("%w: photo %q cannot be resolved", ErrInvalidPayload, p.Value)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPayload, p.Kind)
	}
}

// DueReminders returns a snapshot of the reminders deliverable at now.
func (s *ReminderService) DueReminders(ctx context.Context, now time.Time) ([]model.Reminder, error) {
	return s.store.DueReminders(ctx, now)
}

// Retire permanently removes delivered reminders.
func (s *ReminderService) Retire(ctx context.Context, ids []uint) error {
	return s.store.DeleteReminders(ctx, ids)
}

func (s *ReminderService) ListReminders(ctx context.Context, ownerID int64) ([]model.Reminder, error) {
	return s.store.ListReminders(ctx, ownerID)
}

// CancelReminder deletes one of the owner's pending reminders.
func (s *ReminderService) CancelReminder(ctx context.Context, ownerID int64, id uint) error {
	reminder, err := s.store.DeleteOwnedReminder(ctx, ownerID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: #%d", ErrReminderNotFound, id)
	}
	if err != nil {
		return err
	}
	s.releaseMedia(reminder)
	return nil
}

func (s *ReminderService) releaseMedia(reminder model.Reminder) {
	handle, ok := reminder.Payload.PhotoHandle()
	if !ok || s.media == nil {
		return
	}
	if err := s.media.Delete(handle); err != nil {
		slog.Warn("service: Failed to delete media", "error", err, "reminder_id", reminder.ID, "handle", handle)
	}
}
