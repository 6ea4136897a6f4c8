package gateway

import "github.com/questx-lab/rolebot/pkg/api/discord"

func roleFixture(id string) discord.Role {
	return discord.Role{ID: id, Name: "role-" + id}
}

func memberFixture(userID string) discord.Member {
	return discord.Member{User: &discord.User{ID: userID}}
}
