package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/buffet/internal/db"
	"github.com/Simplici0/buffet/internal/migrations"
)

func TestRunIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cfg := Config{
		AdminEmail:    "admin@buffet.test",
		AdminPassword: "12345",
	}

	for i := 0; i < 5; i++ {
		stats, err := Run(context.Background(), database, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 3 {
				t.Fatalf("expected 3 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM users WHERE email = ?`, "admin@buffet.test", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM settings WHERE id = 1`, nil, 1)
	assertCount(t, database, `SELECT COUNT(*) FROM budget_categories WHERE name = ?`, "Buffet Completo", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM budget_item_templates`, nil, len(starterTemplates))

	var hash string
	if err := database.QueryRow(`SELECT password_hash FROM users WHERE email = ?`, "admin@buffet.test").Scan(&hash); err != nil {
		t.Fatalf("query admin hash: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("12345")); err != nil {
		t.Fatalf("expected admin hash to match password: %v", err)
	}
}

func TestRunWithoutAdminCredentials(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "seed-noadmin.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()
	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	stats, err := Run(context.Background(), database, Config{})
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 2 {
		t.Fatalf("expected 2 inserts without admin, got %d", stats.Inserts)
	}
	assertCount(t, database, `SELECT COUNT(*) FROM users`, nil, 0)
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
