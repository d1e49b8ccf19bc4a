// Package database is the Postgres-backed record store. It implements
// catalog.Store on top of GORM with text[] columns for multi-valued
// fields and an atomic read-merge-write upsert.
package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DB wraps the GORM handle plus the per-ID upsert locks.
type DB struct {
	gorm        *gorm.DB
	upsertLocks keyedMutex
}

// Open connects to Postgres with the given DSN and runs migrations.
func Open(dsn string) (*DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.New(
			log.Default(),
			logger.Config{
				SlowThreshold:             10 * time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: "comics_",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{gorm: gdb}
	if err := db.AutoMigrate(); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenFromEnv connects using the POSTGRES_* environment variables.
func OpenFromEnv() (*DB, error) {
	return Open(fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_DATABASE"),
		os.Getenv("POSTGRES_PORT"),
	))
}

// AutoMigrate runs automatic migration for all models
func (d *DB) AutoMigrate() error {
	// Enable pg_trgm extension for trigram-based ILIKE indexes
	if err := d.gorm.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		return fmt.Errorf("failed to create pg_trgm extension: %w", err)
	}

	err := d.gorm.AutoMigrate(
		&Record{},
		&SearchLog{},
		&ImportRun{},
	)
	if err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (d *DB) Ping() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Gorm exposes the underlying handle for plugins (tracing).
func (d *DB) Gorm() *gorm.DB { return d.gorm }

// sanitizeString removes null bytes which PostgreSQL rejects in text fields
func sanitizeString(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

func sanitizeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = sanitizeString(v)
	}
	return out
}
