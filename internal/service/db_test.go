package service

import (
	"fmt"
	"testing"

	"gorm.io/gorm"

	"whatnow/internal/repository"
)

// newTestDB opens a named in-memory SQLite database with migrations applied.
// cache=shared keeps the database alive across pooled connections.
func newTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := repository.NewDB(dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}
