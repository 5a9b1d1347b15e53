package store

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/lifeboard/lifeboard/internal/database"
	"github.com/lifeboard/lifeboard/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreateUser(t *testing.T, db *sql.DB, name string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(fmt.Sprintf("%s@example.com", name), name, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}
