package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"forgotten/internal/model"
)

// InsertReminder stores reminder and fills in its ID. It fails with
// ErrConstraintViolation when the owner is not a registered user.
func (s *Store) InsertReminder(ctx context.Context, reminder *model.Reminder) error {
	return s.guard.do(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&model.User{}).Where("tg_id = ?", reminder.OwnerID).Count(&count).Error; err != nil {
				return fmt.Errorf("find owner: %w", err)
			}
			if count == 0 {
				return fmt.Errorf("%w: owner %d does not exist", ErrConstraintViolation, reminder.OwnerID)
			}

			row := *reminder
			row.ID = 0
			row.DueAt = reminder.DueAt.UTC()
			if err := tx.Create(&row).Error; err != nil {
				if isConstraintError(err) {
					return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
				}
				return fmt.Errorf("create reminder: %w", err)
			}
			reminder.ID = row.ID
			return nil
		})
	})
}

// DueReminders returns every reminder with a due time at or before now.
func (s *Store) DueReminders(ctx context.Context, now time.Time) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := s.guard.do(func() error {
		return s.db.WithContext(ctx).
			Where("due_at <= ?", now.UTC()).
			Order("due_at ASC, id ASC").
			Find(&reminders).Error
	})
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	return reminders, nil
}

// ListReminders returns the pending reminders of one owner.
func (s *Store) ListReminders(ctx context.Context, ownerID int64) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := s.guard.do(func() error {
		return s.db.WithContext(ctx).
			Where("owner_id = ?", ownerID).
			Order("due_at ASC, id ASC").
			Find(&reminders).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// DeleteReminders removes the given ids in a single statement. Ids that do not
// exist are ignored.
func (s *Store) DeleteReminders(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.guard.do(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id IN ?", ids).Delete(&model.Reminder{}).Error; err != nil {
				return fmt.Errorf("delete reminders: %w", err)
			}
			return nil
		})
	})
}

// DeleteOwnedReminder removes one reminder if it belongs to ownerID and returns it.
func (s *Store) DeleteOwnedReminder(ctx context.Context, ownerID int64, id uint) (model.Reminder, error) {
	var reminder model.Reminder
	err := s.guard.do(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&reminder).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return fmt.Errorf("find reminder: %w", err)
			}
			if err := tx.Delete(&model.Reminder{}, reminder.ID).Error; err != nil {
				return fmt.Errorf("delete reminder: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return model.Reminder{}, err
	}
	return reminder, nil
}
