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

const budgetColumns = `
	id, client_name, client_phone, event_name, event_location, event_date,
	guest_count, status, total_fixed_cost_share, total_variable_cost,
	total_sales, net_profit, margin_percent, created_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBudget(row rowScanner) (domain.Budget, error) {
	var (
		b      domain.Budget
		date   string
		status string
	)
	if err := row.Scan(
		&b.ID,
		&b.ClientName,
		&b.ClientPhone,
		&b.EventName,
		&b.EventLocation,
		&date,
		&b.GuestCount,
		&status,
		&b.TotalFixedCostShare,
		&b.TotalVariableCost,
		&b.TotalSales,
		&b.NetProfit,
		&b.MarginPercent,
		&b.CreatedAt,
	); err != nil {
		return domain.Budget{}, err
	}
	eventDate, err := domain.ParseDate(date)
	if err != nil {
		return domain.Budget{}, err
	}
	b.EventDate = eventDate
	b.Status = domain.Status(status)
	b.Items = make([]domain.BudgetLineItem, 0)
	return b, nil
}

// ListBudgets returns every budget with its items, most recent event first.
func (s *Store) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY event_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}

	budgets := make([]domain.Budget, 0)
	index := make(map[string]int)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		index[b.ID] = len(budgets)
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	rows.Close()

	items, err := s.lineItems(ctx, "")
	if err != nil {
		return nil, err
	}
	for budgetID, list := range items {
		if i, ok := index[budgetID]; ok {
			budgets[i].Items = list
		}
	}
	return budgets, nil
}

// GetBudget retrieves one budget with its items.
func (s *Store) GetBudget(ctx context.Context, id string) (domain.Budget, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Budget{}, fmt.Errorf("budget %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return domain.Budget{}, fmt.Errorf("query budget: %w", err)
	}

	items, err := s.lineItems(ctx, id)
	if err != nil {
		return domain.Budget{}, err
	}
	if list, ok := items[id]; ok {
		b.Items = list
	}
	return b, nil
}

// lineItems loads items grouped by budget id. An empty budgetID loads all.
func (s *Store) lineItems(ctx context.Context, budgetID string) (map[string][]domain.BudgetLineItem, error) {
	query := `SELECT budget_id, id, name, quantity, unit_cost FROM budget_items`
	var args []any
	if budgetID != "" {
		query += ` WHERE budget_id = ?`
		args = append(args, budgetID)
	}
	query += ` ORDER BY budget_id, position`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query budget items: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.BudgetLineItem)
	for rows.Next() {
		var (
			owner string
			item  domain.BudgetLineItem
		)
		if err := rows.Scan(&owner, &item.ID, &item.Name, &item.Quantity, &item.UnitCost); err != nil {
			return nil, fmt.Errorf("scan budget item: %w", err)
		}
		out[owner] = append(out[owner], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budget items: %w", err)
	}
	return out, nil
}

// CreateBudget inserts a budget and its items in one transaction.
func (s *Store) CreateBudget(ctx context.Context, b *domain.Budget) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt == 0 {
		b.CreatedAt = s.stamp()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create budget transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO budgets (`+budgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID,
		b.ClientName,
		b.ClientPhone,
		b.EventName,
		b.EventLocation,
		domain.FormatDate(b.EventDate),
		b.GuestCount,
		string(b.Status),
		b.TotalFixedCostShare,
		b.TotalVariableCost,
		b.TotalSales,
		b.NetProfit,
		b.MarginPercent,
		b.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	if err := insertLineItems(ctx, tx, b.ID, b.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create budget: %w", err)
	}
	return nil
}

// UpdateBudget overwrites a stored budget and its items. created_at is left untouched.
func (s *Store) UpdateBudget(ctx context.Context, b domain.Budget) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update budget transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE budgets SET
			client_name = ?,
			client_phone = ?,
			event_name = ?,
			event_location = ?,
			event_date = ?,
			guest_count = ?,
			status = ?,
			total_fixed_cost_share = ?,
			total_variable_cost = ?,
			total_sales = ?,
			net_profit = ?,
			margin_percent = ?
		WHERE id = ?
	`,
		b.ClientName,
		b.ClientPhone,
		b.EventName,
		b.EventLocation,
		domain.FormatDate(b.EventDate),
		b.GuestCount,
		string(b.Status),
		b.TotalFixedCostShare,
		b.TotalVariableCost,
		b.TotalSales,
		b.NetProfit,
		b.MarginPercent,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if err := checkAffected(res, "update budget "+b.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_items WHERE budget_id = ?`, b.ID); err != nil {
		return fmt.Errorf("clear budget items: %w", err)
	}
	if err := insertLineItems(ctx, tx, b.ID, b.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update budget: %w", err)
	}
	return nil
}

// UpdateBudgetStatus changes only the status; the stored snapshot is kept.
func (s *Store) UpdateBudgetStatus(ctx context.Context, id string, status domain.Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE budgets SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update budget status: %w", err)
	}
	return checkAffected(res, "update budget status "+id)
}

// DeleteBudget removes a budget and its items.
func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete budget transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_items WHERE budget_id = ?`, id); err != nil {
		return fmt.Errorf("delete budget items: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if err := checkAffected(res, "delete budget "+id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete budget: %w", err)
	}
	return nil
}

func insertLineItems(ctx context.Context, tx *sql.Tx, budgetID string, items []domain.BudgetLineItem) error {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = domain.NewItemID()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO budget_items (budget_id, id, position, name, quantity, unit_cost)
			VALUES (?, ?, ?, ?, ?, ?)
		`, budgetID, items[i].ID, i, items[i].Name, items[i].Quantity, items[i].UnitCost); err != nil {
			return fmt.Errorf("insert budget item: %w", err)
		}
	}
	return nil
}
