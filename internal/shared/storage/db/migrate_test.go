package db

import (
	"context"
	"io/fs"
	"strings"
	"testing"
)

func TestRunMigrationsNilDatabaseIsNoop(t *testing.T) {
	if err := RunMigrations(context.Background(), nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestEmbeddedMigrationsDeclareUniqueConstraints(t *testing.T) {
	raw, err := fs.ReadFile(migrationFiles, "migrations/00002_create_accounts.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	body := string(raw)
	for _, name := range []string{"accounts_identity_key_key", "accounts_email_key", "-- +goose Up", "-- +goose Down"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %q in accounts migration", name)
		}
	}
}
