package database

import (
	"fmt"
	"sync"

	"github.com/clinicore/platform/pkg/common/config"
	"github.com/clinicore/platform/pkg/common/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	primaryDB   *gorm.DB
	primaryOnce sync.Once
)

// GetPrimary returns the shared handle to the primary store, the Postgres
// database that owns the clinic's domain model.
func GetPrimary() (*gorm.DB, error) {
	var err error
	primaryOnce.Do(func() {
		cfg := config.Load()
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.PostgresHost,
			cfg.PostgresUser,
			cfg.PostgresPassword,
			cfg.PostgresDB,
			cfg.PostgresPort,
			cfg.PostgresSSLMode,
		)

		primaryDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			TranslateError: true,
		})
		if err != nil {
			logger.Log.WithError(err).Error("Failed to connect to primary store")
			return
		}

		logger.Log.Info("Connected to primary store (PostgreSQL)")
	})

	return primaryDB, err
}

func ClosePrimary() error {
	if primaryDB != nil {
		sqlDB, err := primaryDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
