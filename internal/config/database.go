package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"fieldtrack/internal/logger"
	"fieldtrack/internal/models"
)

// OpenDB connects to postgres using environment variables and migrates
// the schema.
func OpenDB() (*gorm.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "password")
	dbname := getEnv("DB_NAME", "fieldtrack")
	sslmode := getEnv("DB_SSLMODE", "disable")
	timezone := getEnv("DB_TIMEZONE", "UTC")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		host, user, password, dbname, port, sslmode, timezone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.GormLogger()})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.Exec("CREATE EXTENSION IF NOT EXISTS postgis;")

	err = db.AutoMigrate(
		&models.LocationSample{},
		&models.Breadcrumb{},
		&models.GeofenceZone{},
		&models.GeofenceEvent{},
		&models.ComplianceViolation{},
		&models.DeliveryRoute{},
		&models.DeliveryStop{},
	)
	if err != nil {
		return nil, fmt.Errorf("auto-migration: %w", err)
	}
	return db, nil
}
