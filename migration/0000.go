package migration

import (
	"context"

	"github.com/questx-lab/rolebot/internal/entity"
	"github.com/questx-lab/rolebot/pkg/xcontext"
)

// migrate0000 will create the database with the latest version.
func migrate0000(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.RoleReaction{},
		&entity.TrackedMessage{},
	)
}
