package discord

import "context"

type IEndpoint interface {
	GetMe(ctx context.Context) (User, error)
	GetChannel(ctx context.Context, channelID string) (Channel, error)
	GetMessage(ctx context.Context, channelID, messageID string) (Message, error)
	SendMessage(ctx context.Context, channelID, content string) (Message, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	GiveRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
}
