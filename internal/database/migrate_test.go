package database

import (
	"path/filepath"
	"testing"
)

func TestMigrateNewDB(t *testing.T) {
	db := openTestDB(t)

	version, err := getSchemaVersion(db.conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d, got %d", latestVersion(), version)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "idem.db")

	db1, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	db1.Close()

	db2, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db2.Close()

	version, err := getSchemaVersion(db2.conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d, got %d", latestVersion(), version)
	}
}

func TestMigrateFromVersionOne(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "v1.db")

	db, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// Roll back to a database that only has the first migration.
	if _, err := db.conn.Exec("DROP TABLE settings"); err != nil {
		t.Fatalf("drop settings: %v", err)
	}
	if _, err := db.conn.Exec("PRAGMA user_version = 1"); err != nil {
		t.Fatalf("reset version: %v", err)
	}
	db.Close()

	db, err = Open(dbPath, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='settings'"); err != nil {
		t.Fatalf("checking settings table: %v", err)
	}
	if count != 1 {
		t.Error("expected settings table to be recreated")
	}
}

func TestLatestVersion(t *testing.T) {
	if latestVersion() != len(migrations) {
		t.Errorf("expected latest version %d, got %d", len(migrations), latestVersion())
	}
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %d has version %d", i, m.Version)
		}
	}
}
