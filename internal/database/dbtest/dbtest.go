// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studiobook/internal/database"
)

// Open creates a file-backed SQLite database in t.TempDir and migrates models.
func Open(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.Join(t.TempDir(), "test.db"))
	db, err := database.Connect(dsn, zap.NewNop(), database.Options{MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)

	if err := database.Migrate(db, models...); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
