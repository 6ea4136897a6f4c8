package entity

// RoleReaction binds an emoji on a tracked message to a guild role.
type RoleReaction struct {
	Base
	MessageID string `gorm:"not null;uniqueIndex:idx_role_reactions_message_emoji"`
	Emoji     string `gorm:"not null;uniqueIndex:idx_role_reactions_message_emoji"`
	RoleID    string `gorm:"not null"`
}
