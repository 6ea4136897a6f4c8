package migration

import (
	"context"
	"testing"

	"github.com/questx-lab/rolebot/config"
	"github.com/questx-lab/rolebot/internal/entity"
	"github.com/questx-lab/rolebot/pkg/logger"
	"github.com/questx-lab/rolebot/pkg/xcontext"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newContext(t *testing.T) context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, config.Default())
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithDB(ctx, db)
	return ctx
}

func Test_Migrate_Idempotent(t *testing.T) {
	ctx := newContext(t)

	require.NoError(t, Migrate(ctx))
	require.NoError(t, Migrate(ctx))

	var count int64
	require.NoError(t, xcontext.DB(ctx).Model(&entity.Migration{}).Count(&count).Error)
	require.Equal(t, int64(len(Migrators)), count)

	migrator := xcontext.DB(ctx).Migrator()
	require.True(t, migrator.HasTable(&entity.RoleReaction{}))
	require.True(t, migrator.HasTable(&entity.TrackedMessage{}))
	require.True(t, migrator.HasIndex(&entity.RoleReaction{}, "idx_role_reactions_message_emoji"))
}

func Test_AutoMigrate(t *testing.T) {
	ctx := newContext(t)

	require.NoError(t, AutoMigrate(ctx))
	require.NoError(t, AutoMigrate(ctx))
	require.True(t, xcontext.DB(ctx).Migrator().HasTable(&entity.TrackedMessage{}))

	// Versioned migrations have nothing left to apply.
	applied := false
	Migrators["9999"] = func(ctx context.Context) error { applied = true; return nil }
	defer delete(Migrators, "9999")

	var count int64
	require.NoError(t, xcontext.DB(ctx).Model(&entity.Migration{}).Count(&count).Error)
	require.Equal(t, int64(len(Migrators)-1), count)

	require.NoError(t, Migrate(ctx))
	require.True(t, applied, "only the version added after auto migration runs")
	require.NoError(t, xcontext.DB(ctx).Model(&entity.Migration{}).Count(&count).Error)
	require.Equal(t, int64(len(Migrators)), count)
}
