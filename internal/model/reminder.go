package model

import "time"

// Reminder is a payload waiting to be delivered to its owner's chat once DueAt passes.
type Reminder struct {
	ID      uint      `gorm:"primaryKey"`
	Payload Payload   `gorm:"embedded;embeddedPrefix:payload_"`
	DueAt   time.Time `gorm:"index;not null"`
	OwnerID int64     `gorm:"index;not null"`
}

// IsDue reports whether the reminder may be delivered at now.
func (r Reminder) IsDue(now time.Time) bool {
	return !r.DueAt.After(now)
}
