package domain

import (
	"context"
	"errors"

	"github.com/questx-lab/rolebot/internal/common"
	"github.com/questx-lab/rolebot/internal/repository"
	"github.com/questx-lab/rolebot/pkg/api/discord"
	"github.com/questx-lab/rolebot/pkg/gateway"
	"github.com/questx-lab/rolebot/pkg/xcontext"
)

type ReactionDomain interface {
	HandleReactionAdd(ctx context.Context, ev *gateway.MessageReaction)
	HandleReactionRemove(ctx context.Context, ev *gateway.MessageReaction)
}

type reactionDomain struct {
	roleReactionRepo repository.RoleReactionRepository
	discordEndpoint  discord.IEndpoint
	state            GuildState
}

func NewReactionDomain(
	roleReactionRepo repository.RoleReactionRepository,
	discordEndpoint discord.IEndpoint,
	state GuildState,
) *reactionDomain {
	return &reactionDomain{
		roleReactionRepo: roleReactionRepo,
		discordEndpoint:  discordEndpoint,
		state:            state,
	}
}

func (d *reactionDomain) HandleReactionAdd(ctx context.Context, ev *gateway.MessageReaction) {
	d.handle(ctx, ev, "give", d.discordEndpoint.GiveRole)
}

func (d *reactionDomain) HandleReactionRemove(ctx context.Context, ev *gateway.MessageReaction) {
	d.handle(ctx, ev, "remove", d.discordEndpoint.RemoveRole)
}

func (d *reactionDomain) handle(
	ctx context.Context,
	ev *gateway.MessageReaction,
	action string,
	mutate func(ctx context.Context, guildID, userID, roleID string) error,
) {
	if ev.GuildID == "" || d.isBot(ev) {
		return
	}

	logger := xcontext.Logger(ctx)
	emoji := common.EmojiKeyFromEvent(ev.Emoji)

	binding, err := d.roleReactionRepo.GetByMessageAndEmoji(ctx, ev.MessageID, emoji)
	if err != nil {
		if !errors.Is(err, repository.ErrRoleReactionNotFound) {
			logger.Errorf("Cannot get binding of %s on message %s: %v", emoji, ev.MessageID, err)
		}
		return
	}

	if _, ok := d.state.Role(ev.GuildID, binding.RoleID); !ok {
		logger.Debugf("Role %s is not cached in guild %s", binding.RoleID, ev.GuildID)
		return
	}

	if _, ok := d.state.Member(ev.GuildID, ev.UserID); !ok {
		logger.Debugf("Member %s is not cached in guild %s", ev.UserID, ev.GuildID)
		return
	}

	err = mutate(ctx, ev.GuildID, ev.UserID, binding.RoleID)
	countRoleMutation(action, err)
	if err != nil {
		logger.Errorf("Cannot %s role %s of user %s: %v", action, binding.RoleID, ev.UserID, err)
		return
	}

	logger.Debugf("Role %s: user %s, role %s", action, ev.UserID, binding.RoleID)
}

func (d *reactionDomain) isBot(ev *gateway.MessageReaction) bool {
	if ev.Member != nil && ev.Member.User != nil && ev.Member.User.Bot {
		return true
	}

	if me := d.state.Me(); me.ID != "" && me.ID == ev.UserID {
		return true
	}

	if u, ok := d.state.User(ev.UserID); ok && u.Bot {
		return true
	}

	return false
}
