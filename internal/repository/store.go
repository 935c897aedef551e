package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"forgotten/internal/model"
)

var (
	ErrConstraintViolation = errors.New("constraint violation")
	ErrNotFound            = errors.New("record not found")
)

// Store persists users and reminders. Every method runs under a single
// process-wide lock, so the bot handlers and the delivery worker never
// interleave at the storage layer.
type Store struct {
	db    *gorm.DB
	guard guard
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Initialize creates missing tables and enables foreign-key enforcement.
// It is safe to call on every start.
func (s *Store) Initialize(ctx context.Context) error {
	return s.guard.do(func() error {
		db := s.db.WithContext(ctx)
		if db.Dialector.Name() == "sqlite" {
			if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
				return fmt.Errorf("enable foreign keys: %w", err)
			}
		}
		if err := db.AutoMigrate(&model.User{}, &model.Reminder{}); err != nil {
			slog.Error("store: Failed to migrate database", "error", err)
			return fmt.Errorf("migrate db: %w", err)
		}
		return nil
	})
}

// isConstraintError reports whether err came from a unique or foreign key check.
func isConstraintError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated)
}
