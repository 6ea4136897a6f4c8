package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/questx-lab/rolebot/internal/common"
	"github.com/questx-lab/rolebot/internal/entity"
	"github.com/questx-lab/rolebot/internal/repository"
	"github.com/questx-lab/rolebot/pkg/api/discord"
	"github.com/questx-lab/rolebot/pkg/errorx"
	"github.com/questx-lab/rolebot/pkg/gateway"
	"github.com/questx-lab/rolebot/pkg/idutil"
	"github.com/questx-lab/rolebot/pkg/xcontext"
)

const (
	PostReactionMessageCommand = "!postReactionMessage"
	AddRoleReactionCommand     = "!addRoleReaction"
)

const (
	postFailedNotice      = "An error occurred while posting the reaction message."
	noReactionNotice      = "No reaction message found."
	addFailedNotice       = "An error occurred while adding the role reaction."
	addRoleReactionUsage  = "Usage: !addRoleReaction <emoji> <roleId>"
	addedRoleReactionFmt  = "Added reaction role: %s -> %s"
	duplicateRoleReactFmt = "Reaction role for %s already exists."
)

type CommandDomain interface {
	HandleMessage(ctx context.Context, msg *gateway.MessageCreate)
}

type commandDomain struct {
	trackedMessageRepo repository.TrackedMessageRepository
	roleReactionRepo   repository.RoleReactionRepository
	discordEndpoint    discord.IEndpoint
}

func NewCommandDomain(
	trackedMessageRepo repository.TrackedMessageRepository,
	roleReactionRepo repository.RoleReactionRepository,
	discordEndpoint discord.IEndpoint,
) *commandDomain {
	return &commandDomain{
		trackedMessageRepo: trackedMessageRepo,
		roleReactionRepo:   roleReactionRepo,
		discordEndpoint:    discordEndpoint,
	}
}

// HandleMessage runs the command carried by a guild message, if any. Messages
// written by bots or sent outside of a guild are ignored.
func (d *commandDomain) HandleMessage(ctx context.Context, msg *gateway.MessageCreate) {
	if msg.Author.Bot || msg.GuildID == "" {
		return
	}

	if msg.Content == PostReactionMessageCommand {
		d.postReactionMessage(ctx, msg)
		return
	}

	fields := strings.Fields(msg.Content)
	if len(fields) > 0 && fields[0] == AddRoleReactionCommand {
		d.addRoleReaction(ctx, msg, fields[1:])
	}
}

func (d *commandDomain) postReactionMessage(ctx context.Context, msg *gateway.MessageCreate) {
	if err := d.post(ctx, msg); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot post reaction message in channel %s: %v", msg.ChannelID, err)
		countCommand(PostReactionMessageCommand, "error")
		d.notify(ctx, msg.ChannelID, postFailedNotice)
		return
	}

	countCommand(PostReactionMessageCommand, "ok")
}

// post sends the reaction message, tracks it and binds the configured emojis.
// If any step fails, the completed steps are undone before returning.
func (d *commandDomain) post(ctx context.Context, msg *gateway.MessageCreate) (err error) {
	cfg := xcontext.Configs(ctx).Reaction

	previous, err := d.trackedMessageRepo.Get(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrTrackedMessageNotFound) {
			return err
		}
	}

	undo := &compensator{}
	defer func() {
		if err != nil {
			undo.run(ctx)
		}
	}()

	sent, err := d.discordEndpoint.SendMessage(ctx, msg.ChannelID, cfg.Message)
	if err != nil {
		return err
	}
	undo.add("posted message", func(ctx context.Context) error {
		return d.discordEndpoint.DeleteMessage(ctx, msg.ChannelID, sent.ID)
	})

	err = d.trackedMessageRepo.Set(ctx, &entity.TrackedMessage{
		MessageID: sent.ID,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
	})
	if err != nil {
		return err
	}
	undo.add("tracked message", func(ctx context.Context) error {
		if previous == nil {
			return d.trackedMessageRepo.Clear(ctx)
		}
		return d.trackedMessageRepo.Set(ctx, previous)
	})

	emojis := make([]string, 0, len(cfg.Bindings))
	for _, b := range cfg.Bindings {
		binding := &entity.RoleReaction{
			MessageID: sent.ID,
			Emoji:     common.EmojiKey(b.Emoji),
			RoleID:    b.RoleID,
		}

		if err = d.roleReactionRepo.Create(ctx, binding); err != nil {
			return err
		}
		undo.add("binding "+binding.Emoji, func(ctx context.Context) error {
			return d.roleReactionRepo.DeleteByID(ctx, binding.ID)
		})

		emojis = append(emojis, binding.Emoji)
	}

	for _, emoji := range emojis {
		if err = d.discordEndpoint.AddReaction(ctx, msg.ChannelID, sent.ID, emoji); err != nil {
			return fmt.Errorf("react %s: %w", emoji, err)
		}
		countReaction(PostReactionMessageCommand)
	}

	xcontext.Logger(ctx).Infof("Posted reaction message %s in channel %s", sent.ID, msg.ChannelID)
	return nil
}

func (d *commandDomain) addRoleReaction(ctx context.Context, msg *gateway.MessageCreate, args []string) {
	logger := xcontext.Logger(ctx)

	if len(args) != 2 {
		countCommand(AddRoleReactionCommand, "invalid")
		d.notify(ctx, msg.ChannelID, addRoleReactionUsage)
		return
	}

	emoji := common.EmojiKey(args[0])
	roleID := common.RoleIDFromArg(args[1])
	if !idutil.IsSnowflake(roleID) {
		countCommand(AddRoleReactionCommand, "invalid")
		d.notify(ctx, msg.ChannelID, addRoleReactionUsage)
		return
	}

	tracked, err := d.trackedMessageRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrTrackedMessageNotFound) {
			countCommand(AddRoleReactionCommand, "not_found")
			d.notify(ctx, msg.ChannelID, noReactionNotice)
			return
		}

		d.addFailed(ctx, msg, err)
		return
	}

	target, err := d.discordEndpoint.GetMessage(ctx, tracked.ChannelID, tracked.MessageID)
	if err != nil {
		d.addFailed(ctx, msg, err)
		return
	}

	binding := &entity.RoleReaction{MessageID: target.ID, Emoji: emoji, RoleID: roleID}
	if err := d.roleReactionRepo.Create(ctx, binding); err != nil {
		if errorx.Is(err, errorx.DuplicateBinding) {
			countCommand(AddRoleReactionCommand, "duplicate")
			d.notify(ctx, msg.ChannelID, fmt.Sprintf(duplicateRoleReactFmt, args[0]))
			return
		}

		d.addFailed(ctx, msg, err)
		return
	}

	if err := d.discordEndpoint.AddReaction(ctx, tracked.ChannelID, target.ID, emoji); err != nil {
		if delErr := d.roleReactionRepo.DeleteByID(ctx, binding.ID); delErr != nil {
			logger.Errorf("Cannot compensate binding %s: %v", binding.ID, delErr)
		}

		d.addFailed(ctx, msg, err)
		return
	}
	countReaction(AddRoleReactionCommand)

	logger.Infof("Bound %s to role %s on message %s", emoji, roleID, target.ID)
	countCommand(AddRoleReactionCommand, "ok")
	d.notify(ctx, msg.ChannelID, fmt.Sprintf(addedRoleReactionFmt, args[0], roleID))
}

func (d *commandDomain) addFailed(ctx context.Context, msg *gateway.MessageCreate, err error) {
	xcontext.Logger(ctx).Errorf("Cannot add role reaction in channel %s: %v", msg.ChannelID, err)
	countCommand(AddRoleReactionCommand, "error")
	d.notify(ctx, msg.ChannelID, addFailedNotice)
}

func (d *commandDomain) notify(ctx context.Context, channelID, content string) {
	if _, err := d.discordEndpoint.SendMessage(ctx, channelID, content); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot send notice to channel %s: %v", channelID, err)
	}
}
