package testutil

import (
	"context"
	"time"

	"github.com/questx-lab/rolebot/config"
	"github.com/questx-lab/rolebot/migration"
	"github.com/questx-lab/rolebot/pkg/logger"
	"github.com/questx-lab/rolebot/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// Every connection of the pool would open its own in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := config.Default()
	cfg.Discord.BotToken = "bot-token"
	cfg.Reaction.FetchRetries = 3
	cfg.Reaction.FetchRetryDelay = 10 * time.Millisecond

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithDB(ctx, db)

	if err := migration.Migrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}
