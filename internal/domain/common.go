package domain

import (
	"context"

	"github.com/questx-lab/rolebot/internal/common"
	"github.com/questx-lab/rolebot/pkg/api/discord"
	"github.com/questx-lab/rolebot/pkg/xcontext"
)

// GuildState is the cached view of guilds received from the gateway.
type GuildState interface {
	Me() discord.User
	Role(guildID, roleID string) (discord.Role, bool)
	Member(guildID, userID string) (discord.Member, bool)
	User(userID string) (discord.User, bool)
}

type compensation struct {
	name string
	fn   func(context.Context) error
}

// compensator collects the undo actions of a multi-step operation.
type compensator struct {
	steps []compensation
}

func (c *compensator) add(name string, fn func(context.Context) error) {
	c.steps = append(c.steps, compensation{name: name, fn: fn})
}

// run undoes the recorded steps in reverse order. A failing step is logged
// and the remaining ones still run.
func (c *compensator) run(ctx context.Context) {
	for i := len(c.steps) - 1; i >= 0; i-- {
		if err := c.steps[i].fn(ctx); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot compensate %s: %v", c.steps[i].name, err)
		}
	}
}

func countCommand(command, status string) {
	common.PromCounters[common.CommandTotal].WithLabelValues(command, status).Inc()
}

func countReaction(source string) {
	common.PromCounters[common.ReactionsAppliedTotal].WithLabelValues(source).Inc()
}

func countRoleMutation(action string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	common.PromCounters[common.RoleMutationTotal].WithLabelValues(action, status).Inc()
}
