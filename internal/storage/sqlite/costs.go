package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Simplici0/buffet/internal/domain"
)

// ListCosts returns every cost record, newest first.
func (s *Store) ListCosts(ctx context.Context) ([]domain.CostRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount, kind, month_year, created_at
		FROM costs
		ORDER BY created_at DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query costs: %w", err)
	}
	defer rows.Close()

	costs := make([]domain.CostRecord, 0)
	for rows.Next() {
		var (
			c    domain.CostRecord
			kind string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Amount, &kind, &c.MonthYear, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cost: %w", err)
		}
		c.Kind = domain.CostKind(kind)
		costs = append(costs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate costs: %w", err)
	}
	return costs, nil
}

// CreateCost inserts a new cost record.
func (s *Store) CreateCost(ctx context.Context, c *domain.CostRecord) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = s.stamp()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO costs (id, name, amount, kind, month_year, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Amount, string(c.Kind), c.MonthYear, c.CreatedAt); err != nil {
		return fmt.Errorf("insert cost: %w", err)
	}
	return nil
}

// DeleteCost removes a cost record.
func (s *Store) DeleteCost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM costs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete cost: %w", err)
	}
	return checkAffected(res, "delete cost "+id)
}
