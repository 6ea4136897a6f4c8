package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/questx-lab/rolebot/internal/entity"
	"github.com/questx-lab/rolebot/internal/repository"
	"github.com/questx-lab/rolebot/pkg/api/discord"
	"github.com/questx-lab/rolebot/pkg/gateway"
	"github.com/questx-lab/rolebot/pkg/testutil"
	"github.com/stretchr/testify/require"
)

type roleCall struct {
	action string
	userID string
	roleID string
}

func setupReactionDomain(t *testing.T) (context.Context, *reactionDomain, *[]roleCall) {
	ctx := testutil.MockContext()
	repo := repository.NewRoleReactionRepository()
	require.NoError(t, repo.Create(ctx, &entity.RoleReaction{MessageID: "m1", Emoji: "🌞", RoleID: "r-day"}))
	require.NoError(t, repo.Create(ctx, &entity.RoleReaction{MessageID: "m1", Emoji: "party:99", RoleID: "r-party"}))
	require.NoError(t, repo.Create(ctx, &entity.RoleReaction{MessageID: "m1", Emoji: "👴", RoleID: "r-deleted"}))

	state := &testutil.MockGuildState{
		MeUser: discord.User{ID: "bot", Bot: true},
		Roles: map[string]discord.Role{
			"g1/r-day":   {ID: "r-day", Name: "Dag"},
			"g1/r-party": {ID: "r-party", Name: "Party"},
		},
		Members: map[string]discord.Member{
			"g1/u1":    {User: &discord.User{ID: "u1"}},
			"g1/robot": {User: &discord.User{ID: "robot", Bot: true}},
		},
		Users: map[string]discord.User{
			"robot": {ID: "robot", Bot: true},
		},
	}

	calls := &[]roleCall{}
	endpoint := &testutil.MockDiscordEndpoint{
		GiveRoleFunc: func(ctx context.Context, guildID, userID, roleID string) error {
			require.Equal(t, "g1", guildID)
			*calls = append(*calls, roleCall{"give", userID, roleID})
			return nil
		},
		RemoveRoleFunc: func(ctx context.Context, guildID, userID, roleID string) error {
			require.Equal(t, "g1", guildID)
			*calls = append(*calls, roleCall{"remove", userID, roleID})
			return nil
		},
	}

	return ctx, NewReactionDomain(repo, endpoint, state), calls
}

func reaction(userID string, emoji discord.Emoji) *gateway.MessageReaction {
	return &gateway.MessageReaction{
		UserID:    userID,
		ChannelID: "c1",
		MessageID: "m1",
		GuildID:   "g1",
		Emoji:     emoji,
	}
}

func Test_reactionDomain_GiveAndRemove(t *testing.T) {
	ctx, d, calls := setupReactionDomain(t)

	d.HandleReactionAdd(ctx, reaction("u1", discord.Emoji{Name: "🌞"}))
	d.HandleReactionRemove(ctx, reaction("u1", discord.Emoji{Name: "🌞"}))
	d.HandleReactionAdd(ctx, reaction("u1", discord.Emoji{ID: "99", Name: "party"}))

	require.Equal(t, []roleCall{
		{"give", "u1", "r-day"},
		{"remove", "u1", "r-day"},
		{"give", "u1", "r-party"},
	}, *calls)
}

func Test_reactionDomain_NoOp(t *testing.T) {
	tests := []struct {
		name string
		ev   *gateway.MessageReaction
	}{
		{name: "bot itself", ev: reaction("bot", discord.Emoji{Name: "🌞"})},
		{name: "cached bot user", ev: reaction("robot", discord.Emoji{Name: "🌞"})},
		{
			name: "bot member in event",
			ev: func() *gateway.MessageReaction {
				ev := reaction("other-bot", discord.Emoji{Name: "🌞"})
				ev.Member = &discord.Member{User: &discord.User{ID: "other-bot", Bot: true}}
				return ev
			}(),
		},
		{name: "unbound emoji", ev: reaction("u1", discord.Emoji{Name: "🔥"})},
		{name: "custom emoji with the same name", ev: reaction("u1", discord.Emoji{ID: "100", Name: "party"})},
		{name: "role not cached", ev: reaction("u1", discord.Emoji{Name: "👴"})},
		{name: "member not cached", ev: reaction("stranger", discord.Emoji{Name: "🌞"})},
		{
			name: "other message",
			ev: func() *gateway.MessageReaction {
				ev := reaction("u1", discord.Emoji{Name: "🌞"})
				ev.MessageID = "m2"
				return ev
			}(),
		},
		{
			name: "direct message",
			ev: func() *gateway.MessageReaction {
				ev := reaction("u1", discord.Emoji{Name: "🌞"})
				ev.GuildID = ""
				return ev
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, d, calls := setupReactionDomain(t)

			d.HandleReactionAdd(ctx, tt.ev)
			d.HandleReactionRemove(ctx, tt.ev)
			require.Empty(t, *calls)
		})
	}
}

func Test_reactionDomain_SwallowsErrors(t *testing.T) {
	ctx, d, _ := setupReactionDomain(t)

	attempts := 0
	d.discordEndpoint = &testutil.MockDiscordEndpoint{
		GiveRoleFunc: func(ctx context.Context, guildID, userID, roleID string) error {
			attempts++
			return errors.New("missing permissions")
		},
	}

	require.NotPanics(t, func() {
		d.HandleReactionAdd(ctx, reaction("u1", discord.Emoji{Name: "🌞"}))
	})
	require.Equal(t, 1, attempts)
}
