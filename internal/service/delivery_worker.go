package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"forgotten/internal/model"
)

// Messenger delivers reminder payloads to a chat. Each call is a single
// best-effort attempt.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photo []byte) error
}

type dueReminderSource interface {
	DueReminders(ctx context.Context, now time.Time) ([]model.Reminder, error)
	Retire(ctx context.Context, ids []uint) error
}

type DeliveryWorkerConfig struct {
	Reminders dueReminderSource
	Messenger Messenger
	Media     MediaStore
	Logger    *slog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Due       int
	Delivered int
	Failed    int
	Skipped   bool
}

// DeliveryWorker turns due reminders into sent messages and retires them.
type DeliveryWorker struct {
	reminders dueReminderSource
	messenger Messenger
	media     MediaStore
	logger    *slog.Logger
	now       func() time.Time

	running sync.Mutex
}

func NewDeliveryWorker(cfg DeliveryWorkerConfig) *DeliveryWorker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &DeliveryWorker{
		reminders: cfg.Reminders,
		messenger: cfg.Messenger,
		media:     cfg.Media,
		logger:    logger,
		now:       clock,
	}
}

// Sweep delivers every reminder due now. A failure on one reminder is logged
// and leaves it in place for the next sweep; it never stops the others.
// Concurrent calls do not overlap: a sweep started while another one runs is
// skipped.
func (w *DeliveryWorker) Sweep(ctx context.Context) SweepResult {
	if !w.running.TryLock() {
		w.logger.Info("worker: Sweep already in progress, skipping")
		return SweepResult{Skipped: true}
	}
	defer w.running.Unlock()

	now := w.now()
	due, err := w.reminders.DueReminders(ctx, now)
	if err != nil {
		w.logger.Error("worker: Failed to fetch due reminders", "error", err)
		return SweepResult{}
	}

	due = dueAt(due, now)
	result := SweepResult{Due: len(due)}
	if len(due) == 0 {
		w.logger.Debug("worker: Nothing due", "now", now)
		return result
	}

	delivered := make([]uint, 0, len(due))
	var photos []string
	for _, reminder := range due {
		if err := w.deliver(ctx, reminder); err != nil {
			result.Failed++
			w.logger.Error("worker: Failed to deliver reminder", "error", err,
				"reminder_id", reminder.ID, "owner_id", reminder.OwnerID)
			continue
		}
		delivered = append(delivered, reminder.ID)
		if handle, ok := reminder.Payload.PhotoHandle(); ok {
			photos = append(photos, handle)
		}
	}

	if err := w.reminders.Retire(ctx, delivered); err != nil {
		// Already sent; they will be sent again next sweep, so their photos stay.
		w.logger.Error("worker: Failed to retire delivered reminders", "error", err, "ids", delivered)
		result.Failed += len(delivered)
		return result
	}
	result.Delivered = len(delivered)
	w.releasePhotos(photos)

	w.logger.Info("worker: Sweep finished", "due", result.Due, "delivered", result.Delivered, "failed", result.Failed)
	return result
}

// dueAt drops reminders from the snapshot that are not due at now.
func dueAt(reminders []model.Reminder, now time.Time) []model.Reminder {
	kept := make([]model.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.IsDue(now) {
			kept = append(kept, r)
		}
	}
	return kept
}

func (w *DeliveryWorker) deliver(ctx context.Context, reminder model.Reminder) error {
	switch reminder.Payload.Kind {
	case model.PayloadText:
		if err := w.messenger.SendText(ctx, reminder.OwnerID, reminder.Payload.Value); err != nil {
			return fmt.Errorf("%w: send text: %w", ErrDelivery, err)
		}
		return nil
	case model.PayloadPhoto:
		return w.deliverPhoto(ctx, reminder)
	default:
		return fmt.Errorf("%w: unknown payload kind %q", ErrDelivery, reminder.Payload.Kind)
	}
}

func (w *DeliveryWorker) deliverPhoto(ctx context.Context, reminder model.Reminder) error {
	handle := reminder.Payload.Value
	if w.media == nil {
		return fmt.Errorf("%w: no media store for photo %s", ErrDelivery, handle)
	}

	photo, err := w.media.Read(handle)
	if err != nil {
		return fmt.Errorf("%w: read photo: %w", ErrDelivery, err)
	}
	if err := w.messenger.SendPhoto(ctx, reminder.OwnerID, photo); err != nil {
		return fmt.Errorf("%w: send photo: %w", ErrDelivery, err)
	}
	return nil
}

func (w *DeliveryWorker) releasePhotos(handles []string) {
	if w.media == nil {
		return
	}
	for _, handle := range handles {
		if err := w.media.Delete(handle); err != nil {
			w.logger.Warn("worker: Failed to delete delivered photo", "error", err, "handle", handle)
		}
	}
}
