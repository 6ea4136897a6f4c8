package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/questx-lab/rolebot/pkg/xcontext"
	"golang.org/x/exp/slices"
)

var (
	errReconnect = errors.New("gateway asked to reconnect")
	errZombie    = errors.New("no heartbeat ack received")
)

// Close codes after which reconnecting cannot succeed.
var fatalCloseCodes = []int{4004, 4010, 4011, 4012, 4013, 4014}

type Session struct {
	token          string
	intents        int
	url            string
	reconnectDelay time.Duration
	compress       bool

	dialer *websocket.Dialer
	state  *State

	onReady          []func(context.Context, *Ready)
	onMessageCreate  []func(context.Context, *MessageCreate)
	onReactionAdd    []func(context.Context, *MessageReaction)
	onReactionRemove []func(context.Context, *MessageReaction)

	sequence  int64
	sessionID string
	resumeURL string

	writeMutex sync.Mutex
	handlers   sync.WaitGroup
}

func NewSession(token string, intents int, url string, reconnectDelay time.Duration) *Session {
	return &Session{
		token:          token,
		intents:        intents,
		url:            url,
		reconnectDelay: reconnectDelay,
		dialer:         websocket.DefaultDialer,
		state:          NewState(),
		sequence:       -1,
	}
}

// EnableCompression asks the gateway to send dispatches as zlib compressed
// binary messages.
func (s *Session) EnableCompression() {
	s.compress = true
}

func (s *Session) State() *State {
	return s.state
}

func (s *Session) OnReady(fn func(context.Context, *Ready)) {
	s.onReady = append(s.onReady, fn)
}

func (s *Session) OnMessageCreate(fn func(context.Context, *MessageCreate)) {
	s.onMessageCreate = append(s.onMessageCreate, fn)
}

func (s *Session) OnReactionAdd(fn func(context.Context, *MessageReaction)) {
	s.onReactionAdd = append(s.onReactionAdd, fn)
}

func (s *Session) OnReactionRemove(fn func(context.Context, *MessageReaction)) {
	s.onReactionRemove = append(s.onReactionRemove, fn)
}

// Run keeps the session connected until ctx is cancelled or the gateway
// closes the connection with a fatal code. Running handlers are awaited
// before returning.
func (s *Session) Run(ctx context.Context) error {
	defer s.handlers.Wait()

	for {
		err := s.connect(ctx)
		if ctx.Err() != nil {
			return nil
		}

		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) && isFatalCloseCode(closeErr.Code) {
			return fmt.Errorf("gateway closed the session: %w", err)
		}

		xcontext.Logger(ctx).Warnf("Gateway connection lost, reconnect in %s: %v", s.reconnectDelay, err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *Session) connect(ctx context.Context) error {
	url := s.url
	resuming := s.sessionID != "" && s.resumeURL != ""
	if resuming {
		url = s.resumeURL + "/?v=10&encoding=json"
	}

	conn, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			s.writeMutex.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			s.writeMutex.Unlock()
			conn.Close()
		case <-done:
		}
	}()

	var first payload
	if err := readPayload(conn, &first); err != nil {
		return err
	}

	if first.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", first.Op)
	}

	var h hello
	if err := json.Unmarshal(first.Data, &h); err != nil {
		return err
	}

	if resuming {
		err = s.send(conn, opResume, resume{
			Token:     s.token,
			SessionID: s.sessionID,
			Sequence:  atomic.LoadInt64(&s.sequence),
		})
	} else {
		err = s.send(conn, opIdentify, identify{
			Token:   s.token,
			Intents: s.intents,
			Properties: identifyProperties{
				OS:      "linux",
				Browser: "rolebot",
				Device:  "rolebot",
			},
			Compress: s.compress,
		})
	}
	if err != nil {
		return err
	}

	var acked int32 = 1
	heartbeatErr := make(chan error, 1)
	go s.heartbeat(conn, time.Duration(h.HeartbeatInterval)*time.Millisecond, &acked, heartbeatErr, done)

	for {
		var p payload
		if err := readPayload(conn, &p); err != nil {
			select {
			case hbErr := <-heartbeatErr:
				return hbErr
			default:
			}
			return err
		}

		switch p.Op {
		case opDispatch:
			if p.Sequence != nil {
				atomic.StoreInt64(&s.sequence, *p.Sequence)
			}
			s.dispatch(ctx, p.Type, p.Data)

		case opHeartbeat:
			if err := s.sendHeartbeat(conn); err != nil {
				return err
			}

		case opHeartbeatACK:
			atomic.StoreInt32(&acked, 1)

		case opReconnect:
			return errReconnect

		case opInvalidSession:
			var resumable bool
			_ = json.Unmarshal(p.Data, &resumable)
			if !resumable {
				s.sessionID = ""
				s.resumeURL = ""
				atomic.StoreInt64(&s.sequence, -1)
			}
			return errReconnect
		}
	}
}

func (s *Session) heartbeat(
	conn *websocket.Conn,
	interval time.Duration,
	acked *int32,
	errCh chan<- error,
	done <-chan struct{},
) {
	if interval <= 0 {
		return
	}

	timer := time.NewTimer(time.Duration(rand.Int63n(int64(interval))))
	defer timer.Stop()

	for {
		select {
		case <-done:
			return
		case <-timer.C:
		}

		if !atomic.CompareAndSwapInt32(acked, 1, 0) {
			errCh <- errZombie
			conn.Close()
			return
		}

		if err := s.sendHeartbeat(conn); err != nil {
			errCh <- err
			conn.Close()
			return
		}

		timer.Reset(interval)
	}
}

func (s *Session) sendHeartbeat(conn *websocket.Conn) error {
	seq := atomic.LoadInt64(&s.sequence)
	if seq < 0 {
		return s.send(conn, opHeartbeat, nil)
	}

	return s.send(conn, opHeartbeat, seq)
}

func (s *Session) send(conn *websocket.Conn, op int, data any) error {
	raw := json.RawMessage("null")
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		raw = b
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	return conn.WriteJSON(payload{Op: op, Data: raw})
}

func (s *Session) dispatch(ctx context.Context, eventType string, data json.RawMessage) {
	switch eventType {
	case eventReady:
		var ev Ready
		if !decode(ctx, eventType, data, &ev) {
			return
		}

		s.sessionID = ev.SessionID
		s.resumeURL = ev.ResumeGatewayURL
		s.state.SetMe(ev.User)
		for _, fn := range s.onReady {
			fn := fn
			s.goHandle(ctx, eventType, func() { fn(ctx, &ev) })
		}

	case eventResumed:
		xcontext.Logger(ctx).Infof("Gateway session %s resumed", s.sessionID)

	case eventGuildCreate:
		var ev GuildCreate
		if decode(ctx, eventType, data, &ev) && !ev.Unavailable {
			s.state.AddGuild(ev)
		}

	case eventGuildDelete:
		var ev GuildCreate
		if decode(ctx, eventType, data, &ev) {
			s.state.RemoveGuild(ev.ID)
		}

	case eventGuildRoleCreate, eventGuildRoleUpdate:
		var ev guildRole
		if decode(ctx, eventType, data, &ev) {
			s.state.SetRole(ev.GuildID, ev.Role)
		}

	case eventGuildRoleDelete:
		var ev guildRoleDelete
		if decode(ctx, eventType, data, &ev) {
			s.state.DeleteRole(ev.GuildID, ev.RoleID)
		}

	case eventGuildMemberAdd, eventGuildMemberUpdate:
		var ev guildMember
		if decode(ctx, eventType, data, &ev) {
			s.state.SetMember(ev.GuildID, ev.Member)
		}

	case eventGuildMemberRemove:
		var ev guildMemberRemove
		if decode(ctx, eventType, data, &ev) {
			s.state.DeleteMember(ev.GuildID, ev.User.ID)
		}

	case eventMessageCreate:
		var ev MessageCreate
		if !decode(ctx, eventType, data, &ev) {
			return
		}

		if ev.Member != nil && ev.GuildID != "" {
			member := *ev.Member
			member.User = &ev.Author
			s.state.SetMember(ev.GuildID, member)
		}

		for _, fn := range s.onMessageCreate {
			fn := fn
			s.goHandle(ctx, eventType, func() { fn(ctx, &ev) })
		}

	case eventMessageReactionAdd:
		var ev MessageReaction
		if !decode(ctx, eventType, data, &ev) {
			return
		}

		if ev.Member != nil && ev.GuildID != "" {
			s.state.SetMember(ev.GuildID, *ev.Member)
		}

		for _, fn := range s.onReactionAdd {
			fn := fn
			s.goHandle(ctx, eventType, func() { fn(ctx, &ev) })
		}

	case eventMessageReactionRemove:
		var ev MessageReaction
		if !decode(ctx, eventType, data, &ev) {
			return
		}

		for _, fn := range s.onReactionRemove {
			fn := fn
			s.goHandle(ctx, eventType, func() { fn(ctx, &ev) })
		}
	}
}

// goHandle runs a handler in its own goroutine so that a slow handler never
// blocks the read loop. A panicking handler is logged and the session goes on.
func (s *Session) goHandle(ctx context.Context, eventType string, fn func()) {
	s.handlers.Add(1)
	go func() {
		defer s.handlers.Done()
		defer func() {
			if r := recover(); r != nil {
				xcontext.Logger(ctx).Errorf("Handler of %s event panicked: %v", eventType, r)
			}
		}()

		fn()
	}()
}

func decode(ctx context.Context, eventType string, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot decode %s event: %v", eventType, err)
		return false
	}

	return true
}

func isFatalCloseCode(code int) bool {
	return slices.Contains(fatalCloseCodes, code)
}
