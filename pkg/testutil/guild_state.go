package testutil

import "github.com/questx-lab/rolebot/pkg/api/discord"

// MockGuildState is a static cache. Lookups miss for anything not listed.
type MockGuildState struct {
	MeUser  discord.User
	Roles   map[string]discord.Role   // guildID/roleID
	Members map[string]discord.Member // guildID/userID
	Users   map[string]discord.User
}

func (s *MockGuildState) Me() discord.User {
	return s.MeUser
}

func (s *MockGuildState) Role(guildID, roleID string) (discord.Role, bool) {
	r, ok := s.Roles[guildID+"/"+roleID]
	return r, ok
}

func (s *MockGuildState) Member(guildID, userID string) (discord.Member, bool) {
	m, ok := s.Members[guildID+"/"+userID]
	return m, ok
}

func (s *MockGuildState) User(userID string) (discord.User, bool) {
	u, ok := s.Users[userID]
	return u, ok
}
