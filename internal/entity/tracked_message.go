package entity

import "time"

// ActiveSlot is the key of the only row the tracked_messages table holds.
const ActiveSlot = "active"

type TrackedMessage struct {
	Slot      string `gorm:"primaryKey"`
	MessageID string `gorm:"not null"`
	ChannelID string `gorm:"not null"`
	GuildID   string
	UpdatedAt time.Time
}
