package database

import (
	"fmt"

	"insight-service/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide database handle, set by InitDB
var DB *gorm.DB

// InitDB opens the Postgres connection and applies the pool settings from
// config. Simple protocol is preferred so pgbouncer-style poolers work.
func InitDB(dbConfig *config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dbConfig.GetDSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(dbConfig.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	DB = db
	return DB, nil
}

// MigrateModels runs AutoMigrate for the given models
func MigrateModels(models ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database is not initialized")
	}
	if err := DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}
	return nil
}

// GetDB returns the process-wide database handle
func GetDB() *gorm.DB {
	return DB
}
