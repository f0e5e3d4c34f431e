package pkg

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/module-grading-service/internal/models"
)

// InitDatabase opens the postgres connection and migrates the grading
// schema.
func InitDatabase(databaseURL string, log *slog.Logger, debug bool) (*gorm.DB, error) {
	gormLogLevel := logger.Warn
	if debug {
		gormLogLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&models.Program{},
		&models.Course{},
		&models.ModuleVersion{},
		&models.Assignment{},
		&models.Enrollment{},
		&models.Interaction{},
		&models.ModuleGradeCache{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("Database initialized")
	return db, nil
}
