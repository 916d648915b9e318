package seed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/buffet/internal/auth"
	"github.com/Simplici0/buffet/internal/domain"
)

const starterCategoryName = "Buffet Completo"

var starterTemplates = []struct {
	name     string
	unitCost string
}{
	{"Salgados (cento)", "45.00"},
	{"Doces finos (cento)", "60.00"},
	{"Bolo decorado (kg)", "80.00"},
	{"Refrigerante 2L", "9.50"},
	{"Garçom (diária)", "150.00"},
}

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureSettings(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureStarterCategory(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)`, uuid.NewString(), email, hash); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureSettings(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	defaults := domain.DefaultSettings()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO settings (id, occupancy_rate, working_days_per_month)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, defaults.OccupancyRate, defaults.WorkingDaysPerMonth)
	if err != nil {
		return fmt.Errorf("insert settings singleton: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read settings insert result: %w", err)
	}
	stats.Inserts += int(n)
	return nil
}

func ensureStarterCategory(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM budget_categories WHERE name = ? LIMIT 1)`, starterCategoryName).Scan(&exists); err != nil {
		return fmt.Errorf("check starter category existence: %w", err)
	}
	if exists {
		return nil
	}

	categoryID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO budget_categories (id, name, created_at)
		VALUES (?, ?, ?)
	`, categoryID, starterCategoryName, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("insert starter category: %w", err)
	}
	for i, t := range starterTemplates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO budget_item_templates (id, category_id, position, name, unit_cost)
			VALUES (?, ?, ?, ?, ?)
		`, domain.NewItemID(), categoryID, i, t.name, decimal.RequireFromString(t.unitCost)); err != nil {
			return fmt.Errorf("insert starter template %q: %w", t.name, err)
		}
	}
	stats.Inserts++
	return nil
}
