package migration

import (
	"context"
	"errors"
	"sort"

	"github.com/questx-lab/rolebot/internal/entity"
	"github.com/questx-lab/rolebot/pkg/xcontext"
	"gorm.io/gorm"
)

type Migrator func(ctx context.Context) error

// Migrators are indexed by version. A version is applied at most once and
// versions are applied in ascending order.
var Migrators = map[string]Migrator{
	"0000": migrate0000,
}

// Migrate applies every migrator whose version is newer than the last one
// recorded in the migrations table.
func Migrate(ctx context.Context) error {
	db := xcontext.DB(ctx)
	if err := db.AutoMigrate(&entity.Migration{}); err != nil {
		return err
	}

	current := ""
	var last entity.Migration
	err := db.Order("version DESC").Take(&last).Error
	switch {
	case err == nil:
		current = last.Version
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	versions := make([]string, 0, len(Migrators))
	for v := range Migrators {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	logger := xcontext.Logger(ctx)
	for _, v := range versions {
		if v <= current {
			continue
		}

		if err := Migrators[v](ctx); err != nil {
			return err
		}

		if err := xcontext.DB(ctx).Create(&entity.Migration{Version: v}).Error; err != nil {
			return err
		}

		logger.Infof("Applied migration %s", v)
	}

	return nil
}
