package main

import (
	"fmt"

	"github.com/questx-lab/rolebot/migration"
	"github.com/questx-lab/rolebot/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startMigrate(cctx *cli.Context) error {
	if err := s.loadConfig(cctx); err != nil {
		return err
	}
	s.loadLogger()

	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	logger := xcontext.Logger(s.ctx)

	if cctx.Bool("auto") {
		if err := migration.AutoMigrate(s.ctx); err != nil {
			return err
		}

		logger.Infof("Database schema is created from the latest models")
		return nil
	}

	s.migrateDB()

	if version := cctx.String("version"); version != "" {
		migrator, ok := migration.Migrators[version]
		if !ok {
			return fmt.Errorf("not found version %s", version)
		}

		if err := migrator(s.ctx); err != nil {
			return err
		}

		logger.Infof("Migration %s is applied again", version)
	}

	logger.Infof("Database is up to date")
	return nil
}
