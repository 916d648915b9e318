package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/buffet/internal/domain"
)

// GetSettings returns the stored settings or the defaults when none exist.
func (s *Store) GetSettings(ctx context.Context) (domain.SystemSettings, error) {
	var settings domain.SystemSettings
	err := s.db.QueryRowContext(ctx, `
		SELECT occupancy_rate, working_days_per_month
		FROM settings
		WHERE id = 1
	`).Scan(&settings.OccupancyRate, &settings.WorkingDaysPerMonth)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.SystemSettings{}, fmt.Errorf("query settings: %w", err)
	}
	return settings, nil
}

// SaveSettings upserts the single settings row.
func (s *Store) SaveSettings(ctx context.Context, settings domain.SystemSettings) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, occupancy_rate, working_days_per_month, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			occupancy_rate = excluded.occupancy_rate,
			working_days_per_month = excluded.working_days_per_month,
			updated_at = CURRENT_TIMESTAMP
	`, settings.OccupancyRate, settings.WorkingDaysPerMonth); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
