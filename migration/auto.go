package migration

import (
	"context"

	"github.com/questx-lab/rolebot/internal/entity"
	"github.com/questx-lab/rolebot/pkg/xcontext"
	"gorm.io/gorm/clause"
)

// AutoMigrate creates the latest schema at once and records every known
// version as applied. When this migrator is called, no need to call other
// migrators.
func AutoMigrate(ctx context.Context) error {
	db := xcontext.DB(ctx)
	err := db.AutoMigrate(
		&entity.RoleReaction{},
		&entity.TrackedMessage{},
		&entity.Migration{},
	)
	if err != nil {
		return err
	}

	for v := range Migrators {
		err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entity.Migration{Version: v}).Error
		if err != nil {
			return err
		}
	}

	return nil
}
