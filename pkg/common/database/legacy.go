package database

import (
	"fmt"
	"sync"

	"github.com/clinicore/platform/pkg/common/config"
	"github.com/clinicore/platform/pkg/common/logger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var (
	legacyDB   *gorm.DB
	legacyOnce sync.Once
)

// GetLegacy returns the shared handle to the legacy store, the clinic's
// pre-existing MySQL system. The connection is write-restricted by the
// database user; this service only ever inserts into (and, on saga
// compensation, deletes from) the patient table. The legacy schema is not
// migrated from here.
func GetLegacy() (*gorm.DB, error) {
	var err error
	legacyOnce.Do(func() {
		cfg := config.Load()
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.LegacyUser,
			cfg.LegacyPassword,
			cfg.LegacyHost,
			cfg.LegacyPort,
			cfg.LegacyDB,
		)

		legacyDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			TranslateError: true,
		})
		if err != nil {
			logger.Log.WithError(err).Error("Failed to connect to legacy store")
			return
		}

		logger.Log.Info("Connected to legacy store (MySQL)")
	})

	return legacyDB, err
}

func CloseLegacy() error {
	if legacyDB != nil {
		sqlDB, err := legacyDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
