package database

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/user/remind-me/personal/internal/config"
	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/repository"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a gorm connection for the postgres or sqlite driver. SQL
// logging goes through zap.
func Connect(driver, databaseURL string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.StoragePostgres:
		dialector = postgres.Open(databaseURL)
	case config.StorageSQLite:
		dialector = sqlite.Open(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if driver == config.StorageSQLite {
		// SQLite allows one writer; a single connection also keeps
		// ":memory:" databases alive for the life of the pool.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetMaxOpenConns(10)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.StorageRecord{},
	)
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenBlobStore returns the blob store selected by STORAGE_DRIVER and a
// function that releases it.
func OpenBlobStore(cfg *config.Config, log *zap.Logger) (repository.BlobStore, func() error, error) {
	if cfg.StorageDriver == config.StorageFile {
		dir := filepath.Clean(cfg.StorageDir)
		store, err := repository.NewFileBlobStore(afero.NewOsFs(), dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open storage directory: %w", err)
		}
		log.Info("Using file storage", zap.String("dir", dir))
		return store, func() error { return nil }, nil
	}

	db, err := Connect(cfg.StorageDriver, cfg.DatabaseURL, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		_ = Close(db)
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("Using database storage", zap.String("driver", cfg.StorageDriver))
	return repository.NewDBBlobStore(db), func() error { return Close(db) }, nil
}
