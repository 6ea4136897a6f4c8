package testutil

import (
	"context"
	"errors"

	"github.com/questx-lab/rolebot/pkg/api/discord"
)

type MockDiscordEndpoint struct {
	GetMeFunc             func(ctx context.Context) (discord.User, error)
	GetChannelFunc        func(ctx context.Context, channelID string) (discord.Channel, error)
	GetMessageFunc        func(ctx context.Context, channelID, messageID string) (discord.Message, error)
	SendMessageFunc       func(ctx context.Context, channelID, content string) (discord.Message, error)
	DeleteMessageFunc     func(ctx context.Context, channelID, messageID string) error
	AddReactionFunc       func(ctx context.Context, channelID, messageID, emoji string) error
	GiveRoleFunc          func(ctx context.Context, guildID, userID, roleID string) error
	RemoveRoleFunc        func(ctx context.Context, guildID, userID, roleID string) error
}

func (e *MockDiscordEndpoint) GetMe(ctx context.Context) (discord.User, error) {
	if e.GetMeFunc != nil {
		return e.GetMeFunc(ctx)
	}

	return discord.User{}, errors.New("not implemented")
}

func (e *MockDiscordEndpoint) GetChannel(ctx context.Context, channelID string) (discord.Channel, error) {
	if e.GetChannelFunc != nil {
		return e.GetChannelFunc(ctx, channelID)
	}

	return discord.Channel{}, errors.New("not implemented")
}

func (e *MockDiscordEndpoint) GetMessage(ctx context.Context, channelID, messageID string) (discord.Message, error) {
	if e.GetMessageFunc != nil {
		return e.GetMessageFunc(ctx, channelID, messageID)
	}

	return discord.Message{}, errors.New("not implemented")
}

func (e *MockDiscordEndpoint) SendMessage(ctx context.Context, channelID, content string) (discord.Message, error) {
	if e.SendMessageFunc != nil {
		return e.SendMessageFunc(ctx, channelID, content)
	}

	return discord.Message{}, errors.New("not implemented")
}

func (e *MockDiscordEndpoint) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if e.DeleteMessageFunc != nil {
		return e.DeleteMessageFunc(ctx, channelID, messageID)
	}

	return errors.New("not implemented")
}

func (e *MockDiscordEndpoint) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if e.AddReactionFunc != nil {
		return e.AddReactionFunc(ctx, channelID, messageID, emoji)
	}

	return errors.New("not implemented")
}

func (e *MockDiscordEndpoint) GiveRole(ctx context.Context, guildID, userID, roleID string) error {
	if e.GiveRoleFunc != nil {
		return e.GiveRoleFunc(ctx, guildID, userID, roleID)
	}

	return errors.New("not implemented")
}

func (e *MockDiscordEndpoint) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	if e.RemoveRoleFunc != nil {
		return e.RemoveRoleFunc(ctx, guildID, userID, roleID)
	}

	return errors.New("not implemented")
}
