package bootstrap

import (
	"fmt"
	"log"

	authRepo "hndld-backend/internal/auth/repository"
	householdRepo "hndld-backend/internal/household/repository"
	taskRepo "hndld-backend/internal/task/repository"
	"hndld-backend/pkg/config"
	"hndld-backend/pkg/database"

	"gorm.io/gorm"
)

// Repositories bundles the persistence layer shared by the server and the ops CLI
type Repositories struct {
	Tasks      taskRepo.TaskRepository
	Households householdRepo.HouseholdRepository
	Devices    authRepo.DeviceTokenRepository

	db *gorm.DB
}

// DB returns the gorm handle, or nil with the memory driver
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// Close releases the database connection pool
func (r *Repositories) Close() error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenRepositories selects the storage driver from config. The gorm backed
// drivers migrate the schema before returning. With the sqlite driver
// DatabaseURL is the sqlite DSN, usually a file path.
func OpenRepositories(cfg *config.Config) (*Repositories, error) {
	switch cfg.StorageDriver {
	case "memory":
		log.Println("[Storage] Using in-memory storage, data is lost on restart")
		return &Repositories{
			Tasks:      taskRepo.NewMemoryTaskRepository(),
			Households: householdRepo.NewMemoryHouseholdRepository(),
			Devices:    authRepo.NewMemoryDeviceTokenRepository(),
		}, nil
	case "postgres", "":
		db, err := database.NewPostgresConnection(cfg)
		if err != nil {
			return nil, err
		}
		return openGorm(db)
	case "sqlite":
		log.Printf("[Storage] Using sqlite database %s", cfg.DatabaseURL)
		db, err := database.NewSQLiteConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return openGorm(db)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func openGorm(db *gorm.DB) (*Repositories, error) {
	if err := database.Migrate(db); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Repositories{
		Tasks:      taskRepo.NewGormTaskRepository(db),
		Households: householdRepo.NewGormHouseholdRepository(db),
		Devices:    authRepo.NewDeviceTokenRepository(db),
		db:         db,
	}, nil
}
