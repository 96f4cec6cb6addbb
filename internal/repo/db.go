// Package repo is the persistence layer: GORM over SQLite via the pure-Go
// glebarez driver, with thin context-aware functions per entity.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/giftella/go-gift-backend/internal/domain"
)

// OpenSQLite opens or creates the database at path, applies the PRAGMAs the
// service depends on and sizes the connection pool.
func OpenSQLite(path string) (*gorm.DB, error) {
	// A missing parent directory surfaces from sqlite as the cryptic
	// "out of memory (14)", so check it up front.
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// WAL keeps concurrent quiz submissions from blocking reads;
	// busy_timeout papers over the writer lock during ranking bursts.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	} {
		db.Exec(pragma)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for all persisted models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.GiftTemplate{},
		&domain.QuizSession{},
		&domain.GiftIdea{},
	)
}
