package main

import (
	"context"
	"fmt"

	"github.com/questx-lab/rolebot/config"
	"github.com/questx-lab/rolebot/internal/domain"
	"github.com/questx-lab/rolebot/internal/repository"
	"github.com/questx-lab/rolebot/migration"
	"github.com/questx-lab/rolebot/pkg/api/discord"
	"github.com/questx-lab/rolebot/pkg/gateway"
	"github.com/questx-lab/rolebot/pkg/logger"
	"github.com/questx-lab/rolebot/pkg/xcontext"
	"github.com/questx-lab/rolebot/pkg/xredis"
	"github.com/urfave/cli/v2"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	app *cli.App
	ctx context.Context

	redisClient xredis.Client

	roleReactionRepo   repository.RoleReactionRepository
	trackedMessageRepo repository.TrackedMessageRepository

	discordEndpoint discord.IEndpoint
	session         *gateway.Session

	reconcileDomain domain.ReconcileDomain
	commandDomain   domain.CommandDomain
	reactionDomain  domain.ReactionDomain
}

func (s *srv) loadConfig(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return err
	}

	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
	return nil
}

func (s *srv) loadLogger() {
	level := logger.ParseLevel(xcontext.Configs(s.ctx).LogLevel)
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(level))
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx).Database
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	var dialector gorm.Dialector
	switch cfg.Kind {
	case config.SqliteDatabase:
		dialector = sqlite.Open(cfg.SqliteFile)
	case config.MysqlDatabase:
		dialector = mysql.New(mysql.Config{
			DSN:                       cfg.ConnectionString(), // data source name
			DefaultStringSize:         256,                    // default size for string fields
			DisableDatetimePrecision:  true,                   // disable datetime precision, which not supported before MySQL 5.6
			DontSupportRenameIndex:    true,                   // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
			DontSupportRenameColumn:   true,                   // `change` when rename column, rename column not supported before MySQL 8, MariaDB
			SkipInitializeWithVersion: false,                  // auto configure based on currently MySQL version
		})
	default:
		panic(fmt.Sprintf("unsupported database kind %q", cfg.Kind))
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := migration.Migrate(s.ctx); err != nil {
		panic(err)
	}
}

// loadRedisClient connects to redis only when an address is configured.
func (s *srv) loadRedisClient() {
	if xcontext.Configs(s.ctx).Redis.Addr == "" {
		return
	}

	client, err := xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}

	s.redisClient = client
}

func (s *srv) loadRepos() {
	s.roleReactionRepo = repository.NewRoleReactionRepository()

	if s.redisClient != nil {
		xcontext.Logger(s.ctx).Infof("Tracked message is stored in redis")
		s.trackedMessageRepo = repository.NewTrackedMessageRedisRepository(s.redisClient)
	} else {
		s.trackedMessageRepo = repository.NewTrackedMessageRepository()
	}
}

func (s *srv) loadEndpoint() {
	s.discordEndpoint = discord.New(xcontext.Configs(s.ctx).Discord)
}

func (s *srv) loadSession() {
	cfg := xcontext.Configs(s.ctx).Discord
	s.session = gateway.NewSession(cfg.BotToken, cfg.Intents, cfg.GatewayURL, cfg.ReconnectDelay)
	if cfg.Compress {
		s.session.EnableCompression()
	}
}

func (s *srv) loadDomains() {
	s.reconcileDomain = domain.NewReconcileDomain(s.trackedMessageRepo, s.roleReactionRepo, s.discordEndpoint)
	s.commandDomain = domain.NewCommandDomain(s.trackedMessageRepo, s.roleReactionRepo, s.discordEndpoint)
	s.reactionDomain = domain.NewReactionDomain(s.roleReactionRepo, s.discordEndpoint, s.session.State())
}
