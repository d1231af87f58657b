package migration

import (
	"github.com/ecpslabs/featuremart/internal/config"
	"github.com/ecpslabs/featuremart/internal/event"
	"github.com/ecpslabs/featuremart/internal/sink"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module applies the schema on startup. Postgres uses the embedded SQL
// migrations; sqlite and mysql fall back to AutoMigrate since the SQL files
// use postgres-specific types.
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(&event.Record{}, &sink.FeatureRecord{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
