package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/storage"
)

// ListCategories returns every category with its templates, oldest first.
func (s *Store) ListCategories(ctx context.Context) ([]domain.BudgetCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM budget_categories
		ORDER BY created_at, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	categories := make([]domain.BudgetCategory, 0)
	for rows.Next() {
		var c domain.BudgetCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Items = make([]domain.BudgetItemTemplate, 0)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	rows.Close()

	templates, err := s.templatesByCategory(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if items, ok := templates[categories[i].ID]; ok {
			categories[i].Items = items
		}
	}
	return categories, nil
}

// GetCategory retrieves one category with its templates.
func (s *Store) GetCategory(ctx context.Context, id string) (domain.BudgetCategory, error) {
	var c domain.BudgetCategory
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM budget_categories
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BudgetCategory{}, fmt.Errorf("category %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return domain.BudgetCategory{}, fmt.Errorf("query category: %w", err)
	}

	templates, err := s.templatesByCategory(ctx, id)
	if err != nil {
		return domain.BudgetCategory{}, err
	}
	c.Items = templates[id]
	if c.Items == nil {
		c.Items = make([]domain.BudgetItemTemplate, 0)
	}
	return c, nil
}

// templatesByCategory loads templates grouped by category id. An empty
// categoryID loads every category.
func (s *Store) templatesByCategory(ctx context.Context, categoryID string) (map[string][]domain.BudgetItemTemplate, error) {
	query := `
		SELECT category_id, id, name, unit_cost
		FROM budget_item_templates
	`
	var args []any
	if categoryID != "" {
		query += ` WHERE category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY category_id, position`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query item templates: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.BudgetItemTemplate)
	for rows.Next() {
		var (
			owner string
			t     domain.BudgetItemTemplate
		)
		if err := rows.Scan(&owner, &t.ID, &t.Name, &t.UnitCost); err != nil {
			return nil, fmt.Errorf("scan item template: %w", err)
		}
		out[owner] = append(out[owner], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item templates: %w", err)
	}
	return out, nil
}

// CreateCategory inserts a category and its templates in one transaction.
func (s *Store) CreateCategory(ctx context.Context, c *domain.BudgetCategory) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = s.stamp()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create category transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO budget_categories (id, name, created_at)
		VALUES (?, ?, ?)
	`, c.ID, c.Name, c.CreatedAt); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	if err := insertTemplates(ctx, tx, c.ID, c.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create category: %w", err)
	}
	return nil
}

// UpdateCategory replaces the name and the template list.
func (s *Store) UpdateCategory(ctx context.Context, c domain.BudgetCategory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update category transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE budget_categories SET name = ? WHERE id = ?`, c.Name, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if err := checkAffected(res, "update category "+c.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_item_templates WHERE category_id = ?`, c.ID); err != nil {
		return fmt.Errorf("clear item templates: %w", err)
	}
	if err := insertTemplates(ctx, tx, c.ID, c.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category and its templates.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_item_templates WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("delete item templates: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM budget_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := checkAffected(res, "delete category "+id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}
	return nil
}

func insertTemplates(ctx context.Context, tx *sql.Tx, categoryID string, items []domain.BudgetItemTemplate) error {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = domain.NewItemID()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO budget_item_templates (id, category_id, position, name, unit_cost)
			VALUES (?, ?, ?, ?, ?)
		`, items[i].ID, categoryID, i, items[i].Name, items[i].UnitCost); err != nil {
			return fmt.Errorf("insert item template: %w", err)
		}
	}
	return nil
}
