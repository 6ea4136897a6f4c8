package gateway

import (
	"encoding/json"

	"github.com/questx-lab/rolebot/pkg/api/discord"
)

const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opResume         = 6
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatACK   = 11
)

// Gateway intents.
const (
	IntentGuilds                = 1 << 0
	IntentGuildMembers          = 1 << 1
	IntentGuildMessages         = 1 << 9
	IntentGuildMessageReactions = 1 << 10
	IntentMessageContent        = 1 << 15
)

const (
	eventReady                 = "READY"
	eventResumed               = "RESUMED"
	eventGuildCreate           = "GUILD_CREATE"
	eventGuildDelete           = "GUILD_DELETE"
	eventGuildRoleCreate       = "GUILD_ROLE_CREATE"
	eventGuildRoleUpdate       = "GUILD_ROLE_UPDATE"
	eventGuildRoleDelete       = "GUILD_ROLE_DELETE"
	eventGuildMemberAdd        = "GUILD_MEMBER_ADD"
	eventGuildMemberUpdate     = "GUILD_MEMBER_UPDATE"
	eventGuildMemberRemove     = "GUILD_MEMBER_REMOVE"
	eventMessageCreate         = "MESSAGE_CREATE"
	eventMessageReactionAdd    = "MESSAGE_REACTION_ADD"
	eventMessageReactionRemove = "MESSAGE_REACTION_REMOVE"
)

type payload struct {
	Op       int             `json:"op"`
	Data     json.RawMessage `json:"d,omitempty"`
	Sequence *int64          `json:"s,omitempty"`
	Type     string          `json:"t,omitempty"`
}

type hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type identify struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
	Compress   bool               `json:"compress,omitempty"`
}

type resume struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Sequence  int64  `json:"seq"`
}

type Ready struct {
	User             discord.User `json:"user"`
	SessionID        string       `json:"session_id"`
	ResumeGatewayURL string       `json:"resume_gateway_url"`
}

type GuildCreate struct {
	ID          string           `json:"id"`
	Unavailable bool             `json:"unavailable"`
	Roles       []discord.Role   `json:"roles"`
	Members     []discord.Member `json:"members"`
}

type guildRole struct {
	GuildID string       `json:"guild_id"`
	Role    discord.Role `json:"role"`
}

type guildRoleDelete struct {
	GuildID string `json:"guild_id"`
	RoleID  string `json:"role_id"`
}

type guildMember struct {
	GuildID string `json:"guild_id"`
	discord.Member
}

type guildMemberRemove struct {
	GuildID string       `json:"guild_id"`
	User    discord.User `json:"user"`
}

type MessageCreate struct {
	discord.Message
	Member *discord.Member `json:"member"`
}

type MessageReaction struct {
	UserID    string          `json:"user_id"`
	ChannelID string          `json:"channel_id"`
	MessageID string          `json:"message_id"`
	GuildID   string          `json:"guild_id"`
	Member    *discord.Member `json:"member"`
	Emoji     discord.Emoji   `json:"emoji"`
}
