package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type gatewayServer struct {
	t        *testing.T
	server   *httptest.Server
	identify chan identify
	events   []string
}

func newGatewayServer(t *testing.T, events ...string) *gatewayServer {
	g := &gatewayServer{t: t, identify: make(chan identify, 1), events: events}
	upgrader := websocket.Upgrader{}

	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if err := conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"op":10,"d":{"heartbeat_interval":45000}}`)); err != nil {
			return
		}

		var p payload
		if err := conn.ReadJSON(&p); err != nil {
			return
		}

		if p.Op == opIdentify {
			var id identify
			_ = json.Unmarshal(p.Data, &id)
			g.identify <- id
		}

		for _, ev := range g.events {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(ev)); err != nil {
				return
			}
		}

		// Keep reading until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	return g
}

func (g *gatewayServer) url() string {
	return "ws" + strings.TrimPrefix(g.server.URL, "http")
}

func Test_Session_IdentifyAndDispatch(t *testing.T) {
	g := newGatewayServer(t,
		`{"op":0,"s":1,"t":"READY","d":{"session_id":"sess-1","resume_gateway_url":"wss://resume","user":{"id":"bot-1","bot":true}}}`,
		`{"op":0,"s":2,"t":"GUILD_CREATE","d":{"id":"g1","roles":[{"id":"r1","name":"Dag"}],"members":[{"user":{"id":"u1"},"roles":[]}]}}`,
		`{"op":0,"s":3,"t":"MESSAGE_CREATE","d":{"id":"m1","channel_id":"c1","guild_id":"g1","content":"!postReactionMessage","author":{"id":"u2"},"member":{"roles":["r1"]}}}`,
		`{"op":0,"s":4,"t":"MESSAGE_REACTION_ADD","d":{"user_id":"u3","channel_id":"c1","message_id":"m1","guild_id":"g1","member":{"user":{"id":"u3"},"roles":[]},"emoji":{"id":null,"name":"🌞"}}}`,
		`{"op":0,"s":5,"t":"MESSAGE_REACTION_REMOVE","d":{"user_id":"u3","channel_id":"c1","message_id":"m1","guild_id":"g1","emoji":{"id":"9","name":"party"}}}`,
	)
	defer g.server.Close()

	session := NewSession("token", IntentGuilds|IntentGuildMessageReactions, g.url(), time.Second)

	ready := make(chan *Ready, 1)
	messages := make(chan *MessageCreate, 1)
	added := make(chan *MessageReaction, 1)
	removed := make(chan *MessageReaction, 1)
	session.OnReady(func(ctx context.Context, r *Ready) { ready <- r })
	session.OnMessageCreate(func(ctx context.Context, m *MessageCreate) { messages <- m })
	session.OnReactionAdd(func(ctx context.Context, r *MessageReaction) { added <- r })
	session.OnReactionRemove(func(ctx context.Context, r *MessageReaction) { removed <- r })

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- session.Run(ctx) }()

	select {
	case id := <-g.identify:
		require.Equal(t, "token", id.Token)
		require.Equal(t, IntentGuilds|IntentGuildMessageReactions, id.Intents)
	case <-time.After(5 * time.Second):
		t.Fatal("identify was not sent")
	}

	r := receive(t, ready)
	require.Equal(t, "sess-1", r.SessionID)

	m := receive(t, messages)
	require.Equal(t, "!postReactionMessage", m.Content)
	require.Equal(t, "g1", m.GuildID)

	a := receive(t, added)
	require.Equal(t, "m1", a.MessageID)
	require.Equal(t, "🌞", a.Emoji.Name)
	require.Empty(t, a.Emoji.ID)

	rm := receive(t, removed)
	require.Equal(t, "9", rm.Emoji.ID)
	require.Nil(t, rm.Member)

	state := session.State()
	require.Equal(t, "bot-1", state.Me().ID)

	role, ok := state.Role("g1", "r1")
	require.True(t, ok)
	require.Equal(t, "Dag", role.Name)

	_, ok = state.Member("g1", "u1")
	require.True(t, ok)

	// The message author is cached from the member attached to the message.
	member, ok := state.Member("g1", "u2")
	require.True(t, ok)
	require.Equal(t, []string{"r1"}, member.Roles)

	_, ok = state.Member("g1", "u3")
	require.True(t, ok)

	cancel()
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
}

func receive[T any](t *testing.T, ch chan T) T {
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for %T", *new(T))
	}

	panic("unreachable")
}

func Test_State_RoleAndMemberLifecycle(t *testing.T) {
	state := NewState()

	_, ok := state.Role("g1", "r1")
	require.False(t, ok)

	state.AddGuild(GuildCreate{ID: "g1"})
	state.SetRole("g1", roleFixture("r1"))
	_, ok = state.Role("g1", "r1")
	require.True(t, ok)

	state.DeleteRole("g1", "r1")
	_, ok = state.Role("g1", "r1")
	require.False(t, ok)

	state.SetMember("g1", memberFixture("u1"))
	user, ok := state.User("u1")
	require.True(t, ok)
	require.Equal(t, "u1", user.ID)

	state.DeleteMember("g1", "u1")
	_, ok = state.Member("g1", "u1")
	require.False(t, ok)

	state.RemoveGuild("g1")
	_, ok = state.Member("g1", "u1")
	require.False(t, ok)
}

func Test_Session_HandlerPanic(t *testing.T) {
	session := NewSession("token", IntentGuildMessageReactions, "", time.Second)

	added := make(chan *MessageReaction, 1)
	session.OnReactionAdd(func(ctx context.Context, r *MessageReaction) { panic("boom") })
	session.OnReactionAdd(func(ctx context.Context, r *MessageReaction) { added <- r })

	session.dispatch(context.Background(), eventMessageReactionAdd, json.RawMessage(
		`{"user_id":"u3","channel_id":"c1","message_id":"m1","guild_id":"g1","emoji":{"id":null,"name":"🌞"}}`,
	))
	session.handlers.Wait()

	r := receive(t, added)
	require.Equal(t, "u3", r.UserID)

	// Later events are still dispatched.
	session.dispatch(context.Background(), eventMessageReactionAdd, json.RawMessage(
		`{"user_id":"u4","channel_id":"c1","message_id":"m1","guild_id":"g1","emoji":{"id":null,"name":"🏠"}}`,
	))
	session.handlers.Wait()
	require.Equal(t, "u4", receive(t, added).UserID)
}
