package database

import (
	"pokedex-api/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens the SQLite database at path and runs migrations.
// The file is created if it doesn't exist; ":memory:" gives a throwaway database.
// glebarez/sqlite is a pure Go implementation, no CGO required.
func Open(path string, verbose bool) (*gorm.DB, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening database %q", path)
	}

	// SQLite allows a single writer; one connection also keeps ":memory:" shared
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "acquiring connection pool")
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Favorite{}); err != nil {
		return errors.Wrap(err, "migrating schema")
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
