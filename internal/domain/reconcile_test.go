package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/questx-lab/rolebot/config"

	"github.com/questx-lab/rolebot/internal/entity"
	"github.com/questx-lab/rolebot/internal/repository"
	"github.com/questx-lab/rolebot/pkg/api/discord"
	"github.com/questx-lab/rolebot/pkg/testutil"
	"github.com/questx-lab/rolebot/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func setupTrackedMessage(t *testing.T, ctx context.Context, emojis ...string) {
	require.NoError(t, repository.NewTrackedMessageRepository().Set(ctx, &entity.TrackedMessage{
		MessageID: "1248700000000000000",
		ChannelID: "c1",
		GuildID:   "g1",
	}))

	for _, e := range emojis {
		require.NoError(t, repository.NewRoleReactionRepository().Create(ctx, &entity.RoleReaction{
			MessageID: "1248700000000000000",
			Emoji:     e,
			RoleID:    "role-" + e,
		}))
	}
}

func newReconcileDomain(endpoint discord.IEndpoint) *reconcileDomain {
	return NewReconcileDomain(
		repository.NewTrackedMessageRepository(),
		repository.NewRoleReactionRepository(),
		endpoint,
	)
}

func Test_reconcileDomain_NoTrackedMessage(t *testing.T) {
	ctx := testutil.MockContext()

	called := false
	endpoint := &testutil.MockDiscordEndpoint{
		GetChannelFunc: func(ctx context.Context, channelID string) (discord.Channel, error) {
			called = true
			return discord.Channel{}, nil
		},
	}

	require.NoError(t, newReconcileDomain(endpoint).Reconcile(ctx))
	require.False(t, called)
}

func Test_reconcileDomain_Idempotent(t *testing.T) {
	ctx := testutil.MockContext()
	setupTrackedMessage(t, ctx, "🌞", "🏠", "party:99")

	// Discord already shows the bot's 🌞 reaction.
	live := discord.Message{
		ID:        "1248700000000000000",
		ChannelID: "c1",
		Reactions: []discord.Reaction{
			{Emoji: discord.Emoji{Name: "🌞"}, Count: 4, Me: true},
			{Emoji: discord.Emoji{Name: "🏠"}, Count: 1, Me: false},
		},
	}

	var reacted []string
	endpoint := &testutil.MockDiscordEndpoint{
		GetChannelFunc: func(ctx context.Context, channelID string) (discord.Channel, error) {
			return discord.Channel{ID: channelID}, nil
		},
		GetMessageFunc: func(ctx context.Context, channelID, messageID string) (discord.Message, error) {
			require.Equal(t, "c1", channelID)
			return live, nil
		},
		AddReactionFunc: func(ctx context.Context, channelID, messageID, emoji string) error {
			reacted = append(reacted, emoji)

			name, id := emoji, ""
			if emoji == "party:99" {
				name, id = "party", "99"
			}
			live.Reactions = append(live.Reactions, discord.Reaction{
				Emoji: discord.Emoji{ID: id, Name: name}, Count: 1, Me: true,
			})
			return nil
		},
	}

	d := newReconcileDomain(endpoint)
	require.NoError(t, d.Reconcile(ctx))
	require.ElementsMatch(t, []string{"🏠", "party:99"}, reacted)

	reacted = nil
	require.NoError(t, d.Reconcile(ctx))
	require.Empty(t, reacted)
}

func Test_reconcileDomain_RetryBound(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		wantErr   bool
		wantCalls int
	}{
		{name: "success after three failures", failures: 3, wantErr: false, wantCalls: 4},
		{name: "four failures", failures: 10, wantErr: true, wantCalls: 4},
		{name: "first attempt", failures: 0, wantErr: false, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testutil.MockContext()
			setupTrackedMessage(t, ctx, "🌞")
			delay := xcontext.Configs(ctx).Reaction.FetchRetryDelay

			calls := 0
			reactions := 0
			endpoint := &testutil.MockDiscordEndpoint{
				GetChannelFunc: func(ctx context.Context, channelID string) (discord.Channel, error) {
					return discord.Channel{ID: channelID}, nil
				},
				GetMessageFunc: func(ctx context.Context, channelID, messageID string) (discord.Message, error) {
					calls++
					if calls <= tt.failures {
						return discord.Message{}, errors.New("unknown message")
					}
					return discord.Message{ID: messageID, ChannelID: channelID}, nil
				},
				AddReactionFunc: func(ctx context.Context, channelID, messageID, emoji string) error {
					reactions++
					return nil
				},
			}

			start := time.Now()
			err := newReconcileDomain(endpoint).Reconcile(ctx)
			elapsed := time.Since(start)

			require.Equal(t, tt.wantCalls, calls)
			require.GreaterOrEqual(t, elapsed, time.Duration(tt.wantCalls-1)*delay)
			if tt.wantErr {
				require.Error(t, err)
				require.Zero(t, reactions)
			} else {
				require.NoError(t, err)
				require.Equal(t, 1, reactions)
			}
		})
	}
}

func Test_reconcileDomain_ChannelFailure(t *testing.T) {
	ctx := testutil.MockContext()
	setupTrackedMessage(t, ctx, "🌞")

	endpoint := &testutil.MockDiscordEndpoint{
		GetChannelFunc: func(ctx context.Context, channelID string) (discord.Channel, error) {
			return discord.Channel{}, errors.New("missing access")
		},
	}

	require.Error(t, newReconcileDomain(endpoint).Reconcile(ctx))
}

func Test_reconcileDomain_ReactionFailureDoesNotAbort(t *testing.T) {
	ctx := testutil.MockContext()
	setupTrackedMessage(t, ctx, "🌞", "🏠", "👴")

	var attempted []string
	endpoint := &testutil.MockDiscordEndpoint{
		GetChannelFunc: func(ctx context.Context, channelID string) (discord.Channel, error) {
			return discord.Channel{ID: channelID}, nil
		},
		GetMessageFunc: func(ctx context.Context, channelID, messageID string) (discord.Message, error) {
			return discord.Message{ID: messageID}, nil
		},
		AddReactionFunc: func(ctx context.Context, channelID, messageID, emoji string) error {
			attempted = append(attempted, emoji)
			if emoji == "🏠" {
				return errors.New("unknown emoji")
			}
			return nil
		},
	}

	require.NoError(t, newReconcileDomain(endpoint).Reconcile(ctx))
	require.ElementsMatch(t, []string{"🌞", "🏠", "👴"}, attempted)
}

func Test_reconcileDomain_CancelledWait(t *testing.T) {
	ctx := testutil.MockContext()
	setupTrackedMessage(t, ctx, "🌞")

	ctx, cancel := context.WithCancel(ctx)
	endpoint := &testutil.MockDiscordEndpoint{
		GetChannelFunc: func(ctx context.Context, channelID string) (discord.Channel, error) {
			return discord.Channel{ID: channelID}, nil
		},
		GetMessageFunc: func(ctx context.Context, channelID, messageID string) (discord.Message, error) {
			cancel()
			return discord.Message{}, errors.New("unavailable")
		},
	}

	err := newReconcileDomain(endpoint).Reconcile(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func Test_reconcileDomain_InvalidTrackedMessage(t *testing.T) {
	ctx := testutil.MockContext()
	require.NoError(t, repository.NewTrackedMessageRepository().Set(ctx, &entity.TrackedMessage{
		MessageID: "not-a-message",
		ChannelID: "c1",
		GuildID:   "g1",
	}))

	called := false
	endpoint := &testutil.MockDiscordEndpoint{
		GetChannelFunc: func(ctx context.Context, channelID string) (discord.Channel, error) {
			called = true
			return discord.Channel{ID: channelID}, nil
		},
	}

	require.ErrorIs(t, newReconcileDomain(endpoint).Reconcile(ctx), errInvalidTrackedMessage)
	require.False(t, called)
}

func Test_reconcileDomain_RateLimitedFetchWaitIsBounded(t *testing.T) {
	ctx := testutil.MockContext()
	setupTrackedMessage(t, ctx, "🌞")
	delay := xcontext.Configs(ctx).Reaction.FetchRetryDelay

	calls := 0
	endpoint := &testutil.MockDiscordEndpoint{
		GetChannelFunc: func(ctx context.Context, channelID string) (discord.Channel, error) {
			return discord.Channel{ID: channelID}, nil
		},
		GetMessageFunc: func(ctx context.Context, channelID, messageID string) (discord.Message, error) {
			calls++
			if calls == 1 {
				return discord.Message{}, fmt.Errorf("%w:%d", discord.ErrRateLimit, time.Now().Add(time.Hour).UnixMilli())
			}
			return discord.Message{ID: messageID, ChannelID: channelID}, nil
		},
		AddReactionFunc: func(ctx context.Context, channelID, messageID, emoji string) error {
			return nil
		},
	}

	start := time.Now()
	require.NoError(t, newReconcileDomain(endpoint).Reconcile(ctx))
	elapsed := time.Since(start)

	require.Equal(t, 2, calls)
	require.GreaterOrEqual(t, elapsed, delay)
	require.Less(t, elapsed, time.Second)
}

// A 429 on one reaction is waited out by the endpoint, the batch goes on.
func Test_reconcileDomain_RateLimitedReaction(t *testing.T) {
	ctx := testutil.MockContext()
	setupTrackedMessage(t, ctx, "🌞", "🏠", "👴")

	puts := 0
	var applied []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/channels/c1":
			_, _ = w.Write([]byte(`{"id":"c1","type":0,"guild_id":"g1"}`))

		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":         "1248700000000000000",
				"channel_id": "c1",
				"reactions":  []any{},
			})

		case r.Method == http.MethodPut:
			puts++
			if puts == 2 {
				w.Header().Set("X-Ratelimit-Reset-After", "0.3")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"message":"You are being rate limited.","retry_after":0.3}`))
				return
			}

			applied = append(applied, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	endpoint := discord.New(config.DiscordConfigs{BotToken: "bot-token", APIURL: server.URL})
	require.NoError(t, newReconcileDomain(endpoint).Reconcile(ctx))

	require.Equal(t, 4, puts)
	require.ElementsMatch(t, []string{
		"/channels/c1/messages/1248700000000000000/reactions/🌞/@me",
		"/channels/c1/messages/1248700000000000000/reactions/🏠/@me",
		"/channels/c1/messages/1248700000000000000/reactions/👴/@me",
	}, applied)
}
