package database

import (
	"fmt"

	authdomain "hndld-backend/internal/auth/domain"
	hdomain "hndld-backend/internal/household/domain"
	taskdomain "hndld-backend/internal/task/domain"
	"hndld-backend/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresConnection opens the application database
func NewPostgresConnection(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table the service owns
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&hdomain.Household{},
		&hdomain.Member{},
		&hdomain.ImportantDate{},
		&taskdomain.Task{},
		&authdomain.DeviceToken{},
	)
}
