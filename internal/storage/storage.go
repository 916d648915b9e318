// Package storage defines the data-access collaborator used by the services.
// Implementations persist whole records; every write replaces the stored
// record and there is no version check, so concurrent edits resolve as last
// write wins.
package storage

import (
	"context"
	"errors"

	"github.com/Simplici0/buffet/internal/domain"
)

// ErrNotFound is returned when a record with the requested id does not exist.
var ErrNotFound = errors.New("record not found")

// CostStore persists company cost records.
type CostStore interface {
	ListCosts(ctx context.Context) ([]domain.CostRecord, error)
	// CreateCost assigns ID and CreatedAt.
	CreateCost(ctx context.Context, cost *domain.CostRecord) error
	DeleteCost(ctx context.Context, id string) error
}

// SettingsStore persists the single settings record.
type SettingsStore interface {
	// GetSettings returns domain.DefaultSettings when nothing was saved yet.
	GetSettings(ctx context.Context) (domain.SystemSettings, error)
	SaveSettings(ctx context.Context, s domain.SystemSettings) error
}

// CategoryStore persists budget categories together with their templates.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]domain.BudgetCategory, error)
	GetCategory(ctx context.Context, id string) (domain.BudgetCategory, error)
	// CreateCategory assigns ID, CreatedAt and missing template ids.
	CreateCategory(ctx context.Context, c *domain.BudgetCategory) error
	// UpdateCategory overwrites the name and the full template list.
	UpdateCategory(ctx context.Context, c domain.BudgetCategory) error
	DeleteCategory(ctx context.Context, id string) error
}

// BudgetStore persists budgets with their line items and stored snapshot.
type BudgetStore interface {
	ListBudgets(ctx context.Context) ([]domain.Budget, error)
	GetBudget(ctx context.Context, id string) (domain.Budget, error)
	// CreateBudget assigns ID (when empty) and CreatedAt.
	CreateBudget(ctx context.Context, b *domain.Budget) error
	// UpdateBudget overwrites every field and item, keeping the original CreatedAt.
	UpdateBudget(ctx context.Context, b domain.Budget) error
	UpdateBudgetStatus(ctx context.Context, id string, status domain.Status) error
	DeleteBudget(ctx context.Context, id string) error
}

// UserStore looks up operators for password authentication.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
}

// Store bundles every collection the application reads and writes.
type Store interface {
	CostStore
	SettingsStore
	CategoryStore
	BudgetStore
	UserStore

	// Close releases any resources held by the store.
	Close() error
}
