package model

// User is a Telegram chat allowed to store reminders.
type User struct {
	ID         uint       `gorm:"primaryKey"`
	TelegramID int64      `gorm:"column:tg_id;uniqueIndex;not null"`
	Name       string     `gorm:"not null"`
	Reminders  []Reminder `gorm:"foreignKey:OwnerID;references:TelegramID;constraint:OnDelete:CASCADE"`
}
