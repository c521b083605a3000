package migration

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/config"
	dredomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
	drerepository "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/repository"
	reportconfigdomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/reportconfig/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		log = log.Named("migration")
		if !cfg.Migrate {
			log.Info("migrations disabled")
			return nil
		}

		if cfg.DBType != "postgres" {
			log.Info("auto-migrating models", zap.String("db_type", cfg.DBType))
			return AutoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		version, err := RunMigrations(sqlDB)
		if err != nil {
			return err
		}
		log.Info("migrations applied", zap.Uint("version", version))
		return nil
	}),
)

// AutoMigrate creates the schema from the gorm models. Used for sqlite and
// mysql where the embedded postgres migrations do not apply.
func AutoMigrate(conn *gorm.DB) error {
	models := []any{
		&dredomain.StoredReport{},
		&reportconfigdomain.ReportProfile{},
	}
	models = append(models, drerepository.SourceModels()...)
	return conn.AutoMigrate(models...)
}
