package gateway

import (
	"sync"

	"github.com/puzpuzpuz/xsync"
	"github.com/questx-lab/rolebot/pkg/api/discord"
)

type guildState struct {
	roles   *xsync.MapOf[string, discord.Role]
	members *xsync.MapOf[string, discord.Member]
}

func newGuildState() *guildState {
	return &guildState{
		roles:   xsync.NewMapOf[discord.Role](),
		members: xsync.NewMapOf[discord.Member](),
	}
}

// State caches the guild roles, members and users received from the gateway.
// It never calls the REST API.
type State struct {
	mutex sync.RWMutex
	me    discord.User

	guilds *xsync.MapOf[string, *guildState]
	users  *xsync.MapOf[string, discord.User]
}

func NewState() *State {
	return &State{
		guilds: xsync.NewMapOf[*guildState](),
		users:  xsync.NewMapOf[discord.User](),
	}
}

func (s *State) SetMe(user discord.User) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.me = user
	s.users.Store(user.ID, user)
}

func (s *State) Me() discord.User {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.me
}

func (s *State) AddGuild(g GuildCreate) {
	guild := newGuildState()
	for _, role := range g.Roles {
		guild.roles.Store(role.ID, role)
	}

	s.guilds.Store(g.ID, guild)

	for _, member := range g.Members {
		s.SetMember(g.ID, member)
	}
}

func (s *State) RemoveGuild(guildID string) {
	s.guilds.Delete(guildID)
}

func (s *State) guild(guildID string) *guildState {
	guild, _ := s.guilds.LoadOrStore(guildID, newGuildState())
	return guild
}

func (s *State) SetRole(guildID string, role discord.Role) {
	s.guild(guildID).roles.Store(role.ID, role)
}

func (s *State) DeleteRole(guildID, roleID string) {
	if guild, ok := s.guilds.Load(guildID); ok {
		guild.roles.Delete(roleID)
	}
}

// SetMember caches a member. Members without user are ignored because they
// cannot be keyed.
func (s *State) SetMember(guildID string, member discord.Member) {
	if member.User == nil || member.User.ID == "" {
		return
	}

	s.users.Store(member.User.ID, *member.User)
	s.guild(guildID).members.Store(member.User.ID, member)
}

func (s *State) DeleteMember(guildID, userID string) {
	if guild, ok := s.guilds.Load(guildID); ok {
		guild.members.Delete(userID)
	}
}

func (s *State) Role(guildID, roleID string) (discord.Role, bool) {
	guild, ok := s.guilds.Load(guildID)
	if !ok {
		return discord.Role{}, false
	}

	return guild.roles.Load(roleID)
}

func (s *State) Member(guildID, userID string) (discord.Member, bool) {
	guild, ok := s.guilds.Load(guildID)
	if !ok {
		return discord.Member{}, false
	}

	return guild.members.Load(userID)
}

func (s *State) User(userID string) (discord.User, bool) {
	return s.users.Load(userID)
}
