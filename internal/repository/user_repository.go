package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"forgotten/internal/model"
)

// InsertUser stores a new user. It fails with ErrConstraintViolation when the
// Telegram ID is already registered.
func (s *Store) InsertUser(ctx context.Context, telegramID int64, name string) error {
	return s.guard.do(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&model.User{}).Where("tg_id = ?", telegramID).Count(&count).Error; err != nil {
				return fmt.Errorf("find user: %w", err)
			}
			if count > 0 {
				return fmt.Errorf("%w: user %d already exists", ErrConstraintViolation, telegramID)
			}

			user := model.User{TelegramID: telegramID, Name: name}
			if err := tx.Create(&user).Error; err != nil {
				if isConstraintError(err) {
					return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
				}
				return fmt.Errorf("create user: %w", err)
			}
			return nil
		})
	})
}

// DeleteUser removes the user and every reminder they own, returning the
// removed reminders. Unknown users are not an error.
func (s *Store) DeleteUser(ctx context.Context, telegramID int64) ([]model.Reminder, error) {
	var purged []model.Reminder
	err := s.guard.do(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("owner_id = ?", telegramID).Order("id ASC").Find(&purged).Error; err != nil {
				return fmt.Errorf("find reminders: %w", err)
			}
			if err := tx.Where("owner_id = ?", telegramID).Delete(&model.Reminder{}).Error; err != nil {
				return fmt.Errorf("delete reminders: %w", err)
			}
			if err := tx.Where("tg_id = ?", telegramID).Delete(&model.User{}).Error; err != nil {
				return fmt.Errorf("delete user: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return purged, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.guard.do(func() error {
		return s.db.WithContext(ctx).Order("tg_id ASC").Find(&users).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListOwnerIDs returns the set of registered Telegram IDs.
func (s *Store) ListOwnerIDs(ctx context.Context) (map[int64]struct{}, error) {
	var ids []int64
	err := s.guard.do(func() error {
		return s.db.WithContext(ctx).Model(&model.User{}).Pluck("tg_id", &ids).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list owner ids: %w", err)
	}

	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
