package discord

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/puzpuzpuz/xsync"
	"github.com/questx-lab/rolebot/config"
	"github.com/questx-lab/rolebot/pkg/api"
)

const userAgent = "DiscordBot (https://github.com/questx-lab/rolebot, 1.0)"

const (
	channelResource     = "channel"
	reactionResource    = "reaction"
	memberRoleResource  = "member_role"
	messageResource     = "message"
	readMessageResource = "read_message"
)

const (
	rateLimitRetries = 3
	maxRateLimitWait = 10 * time.Second
)

type Endpoint struct {
	BotToken string
	APIURL   string

	apiGenerator      api.Generator
	rateLimitResource *xsync.MapOf[string, *xsync.MapOf[string, time.Time]]
}

func New(cfg config.DiscordConfigs) *Endpoint {
	return &Endpoint{
		BotToken:          cfg.BotToken,
		APIURL:            cfg.APIURL,
		apiGenerator:      api.NewGenerator(),
		rateLimitResource: xsync.NewMapOf[*xsync.MapOf[string, time.Time]](),
	}
}

func (e *Endpoint) GetMe(ctx context.Context) (User, error) {
	resp, err := e.apiGenerator.New(e.APIURL, "/users/@me").
		Header("User-Agent", userAgent).
		GET(ctx, api.OAuth2("Bot", e.BotToken))
	if err != nil {
		return User{}, err
	}

	body, err := e.checkResponse(resp, "", "")
	if err != nil {
		return User{}, err
	}

	return parseUser(body)
}

func (e *Endpoint) GetChannel(ctx context.Context, channelID string) (Channel, error) {
	body, err := e.call(ctx, channelResource, channelID, func() (*api.Response, error) {
		return e.apiGenerator.New(e.APIURL, "/channels/%s", channelID).
			Header("User-Agent", userAgent).
			GET(ctx, api.OAuth2("Bot", e.BotToken))
	})
	if err != nil {
		return Channel{}, err
	}

	id, err := body.GetString("id")
	if err != nil {
		return Channel{}, err
	}

	channelType, err := body.GetInt("type")
	if err != nil {
		return Channel{}, err
	}

	return Channel{
		ID:      id,
		GuildID: optionalString(body, "guild_id"),
		Name:    optionalString(body, "name"),
		Type:    channelType,
	}, nil
}

func (e *Endpoint) GetMessage(ctx context.Context, channelID, messageID string) (Message, error) {
	body, err := e.call(ctx, readMessageResource, channelID, func() (*api.Response, error) {
		return e.apiGenerator.New(e.APIURL, "/channels/%s/messages/%s", channelID, messageID).
			Header("User-Agent", userAgent).
			GET(ctx, api.OAuth2("Bot", e.BotToken))
	})
	if err != nil {
		return Message{}, err
	}

	return parseMessage(body)
}

func (e *Endpoint) SendMessage(ctx context.Context, channelID, content string) (Message, error) {
	body, err := e.call(ctx, messageResource, channelID, func() (*api.Response, error) {
		return e.apiGenerator.New(e.APIURL, "/channels/%s/messages", channelID).
			Header("User-Agent", userAgent).
			Body(api.JSON{"content": content}).
			POST(ctx, api.OAuth2("Bot", e.BotToken))
	})
	if err != nil {
		return Message{}, err
	}

	return parseMessage(body)
}

func (e *Endpoint) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	_, err := e.call(ctx, messageResource, channelID, func() (*api.Response, error) {
		return e.apiGenerator.New(e.APIURL, "/channels/%s/messages/%s", channelID, messageID).
			Header("User-Agent", userAgent).
			DELETE(ctx, api.OAuth2("Bot", e.BotToken))
	})
	return err
}

func (e *Endpoint) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	_, err := e.call(ctx, reactionResource, channelID, func() (*api.Response, error) {
		return e.apiGenerator.New(e.APIURL, "/channels/%s/messages/%s/reactions/%s/@me",
			channelID, messageID, url.PathEscape(emoji)).
			Header("User-Agent", userAgent).
			PUT(ctx, api.OAuth2("Bot", e.BotToken))
	})
	return err
}

func (e *Endpoint) GiveRole(ctx context.Context, guildID, userID, roleID string) error {
	_, err := e.call(ctx, memberRoleResource, guildID, func() (*api.Response, error) {
		return e.apiGenerator.New(e.APIURL, "/guilds/%s/members/%s/roles/%s", guildID, userID, roleID).
			Header("User-Agent", userAgent).
			PUT(ctx, api.OAuth2("Bot", e.BotToken), api.AuditLogReason("reaction role"))
	})
	return err
}

func (e *Endpoint) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	_, err := e.call(ctx, memberRoleResource, guildID, func() (*api.Response, error) {
		return e.apiGenerator.New(e.APIURL, "/guilds/%s/members/%s/roles/%s", guildID, userID, roleID).
			Header("User-Agent", userAgent).
			DELETE(ctx, api.OAuth2("Bot", e.BotToken), api.AuditLogReason("reaction role"))
	})
	return err
}

// call sends a request on a rate limited resource. Before each attempt it
// waits until the known limit of the resource is reset, and a 429 answer is
// retried at most rateLimitRetries times.
func (e *Endpoint) call(
	ctx context.Context,
	resource, identifier string,
	send func() (*api.Response, error),
) (api.JSON, error) {
	for attempt := 0; ; attempt++ {
		if err := e.waitLimitingResource(ctx, resource, identifier); err != nil {
			return nil, err
		}

		resp, err := send()
		if err != nil {
			return nil, err
		}

		body, err := e.checkResponse(resp, resource, identifier)
		if _, limited := IsRateLimit(err); limited && attempt < rateLimitRetries {
			continue
		}

		return body, err
	}
}

// waitLimitingResource blocks until the resource is usable again. A reset
// further than maxRateLimitWait is returned as a rate limit error instead.
func (e *Endpoint) waitLimitingResource(ctx context.Context, resource, identifier string) error {
	err := e.checkLimitingResource(resource, identifier)
	resetAt, ok := IsRateLimit(err)
	if !ok {
		return err
	}

	wait := time.Until(resetAt)
	if wait > maxRateLimitWait {
		return err
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// checkResponse turns 429 and other non-2xx answers into errors. An empty
// resource skips the rate limit bookkeeping.
func (e *Endpoint) checkResponse(resp *api.Response, resource, identifier string) (api.JSON, error) {
	if resource != "" {
		if err := e.checkTooManyRequest(resp, resource, identifier); err != nil {
			return nil, err
		}
	}

	body, _ := resp.Body.(api.JSON)
	if !resp.OK() {
		apiErr := &APIError{Status: resp.Code, Message: http.StatusText(resp.Code)}
		if body != nil {
			if code, err := body.GetInt("code"); err == nil {
				apiErr.Code = code
			}
			if msg, err := body.GetString("message"); err == nil && msg != "" {
				apiErr.Message = msg
			}
		}
		return nil, apiErr
	}

	if body == nil {
		return nil, errors.New("invalid response")
	}

	return body, nil
}

func (e *Endpoint) checkLimitingResource(resource, identifier string) error {
	if limit, ok := e.rateLimitResource.Load(resource); ok {
		if resetAt, ok := limit.Load(identifier); ok {
			if resetAt.After(time.Now()) {
				return wrapRateLimit(resetAt)
			}

			// If the rate limit is reset, delete the limit for this resource.
			limit.Delete(identifier)
		}
	}

	return nil
}

func (e *Endpoint) checkTooManyRequest(resp *api.Response, resource, identifier string) error {
	if resp.Code != http.StatusTooManyRequests {
		return nil
	}

	resetAt, err := parseResetAt(resp.Header)
	if err != nil {
		return err
	}

	resourceLimiter, _ := e.rateLimitResource.LoadOrStore(resource, xsync.NewMapOf[time.Time]())
	resourceLimiter.Store(identifier, resetAt)
	return wrapRateLimit(resetAt)
}

// parseResetAt prefers the relative reset of the bucket, falls back to the
// absolute one. Discord sends both in seconds with a fractional part.
func parseResetAt(header http.Header) (time.Time, error) {
	if after := header.Get("X-Ratelimit-Reset-After"); after != "" {
		sec, err := strconv.ParseFloat(after, 64)
		if err != nil {
			return time.Time{}, err
		}

		return time.Now().Add(time.Duration(sec * float64(time.Second))), nil
	}

	reset, err := strconv.ParseFloat(header.Get("X-Ratelimit-Reset"), 64)
	if err != nil {
		return time.Time{}, err
	}

	sec, frac := math.Modf(reset)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))), nil
}

func parseUser(body api.JSON) (User, error) {
	id, err := body.GetString("id")
	if err != nil {
		return User{}, err
	}

	bot, _ := body.GetBool("bot")
	return User{ID: id, Username: optionalString(body, "username"), Bot: bot}, nil
}

func parseMessage(body api.JSON) (Message, error) {
	id, err := body.GetString("id")
	if err != nil {
		return Message{}, err
	}

	channelID, err := body.GetString("channel_id")
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		ID:        id,
		ChannelID: channelID,
		GuildID:   optionalString(body, "guild_id"),
		Content:   optionalString(body, "content"),
	}

	if author, err := body.GetJSON("author"); err == nil && author != nil {
		if msg.Author, err = parseUser(author); err != nil {
			return Message{}, err
		}
	}

	reactions, err := body.GetArray("reactions")
	if err != nil {
		// Messages without any reaction do not carry the field.
		return msg, nil
	}

	for _, r := range reactions {
		count, _ := r.GetInt("count")
		me, _ := r.GetBool("me")
		msg.Reactions = append(msg.Reactions, Reaction{
			Emoji: Emoji{
				ID:   optionalString(r, "emoji.id"),
				Name: optionalString(r, "emoji.name"),
			},
			Count: count,
			Me:    me,
		})
	}

	return msg, nil
}

func optionalString(body api.JSON, key string) string {
	s, _ := body.GetString(key)
	return s
}
