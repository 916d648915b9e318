package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/storage"
)

// CatalogRepository is the slice of storage.Store the catalog service uses.
type CatalogRepository interface {
	storage.CostStore
	storage.SettingsStore
	storage.CategoryStore
}

// Catalog manages cost records, settings and budget categories.
type Catalog struct {
	store CatalogRepository
}

// NewCatalog creates a catalog service.
func NewCatalog(store CatalogRepository) *Catalog {
	return &Catalog{store: store}
}

// Overview loads costs, settings and categories concurrently.
func (c *Catalog) Overview(ctx context.Context) (CatalogData, error) {
	return loadCatalogData(ctx, c.store)
}

// AddCost validates and stores a new cost record. Costs are never edited in
// place; callers delete and recreate.
func (c *Catalog) AddCost(ctx context.Context, cost domain.CostRecord) (domain.CostRecord, error) {
	cost.Name = strings.TrimSpace(cost.Name)
	cost.MonthYear = strings.TrimSpace(cost.MonthYear)

	var missing []string
	if cost.Name == "" {
		missing = append(missing, "nome")
	}
	if cost.Amount.IsNegative() {
		missing = append(missing, "valor")
	}
	if _, err := domain.ParseCostKind(string(cost.Kind)); err != nil {
		missing = append(missing, "tipo")
	}
	if cost.MonthYear != "" {
		m, err := domain.ParseMonth(cost.MonthYear)
		if err != nil {
			missing = append(missing, "mês")
		} else {
			cost.MonthYear = m.String()
		}
	}
	if len(missing) > 0 {
		return domain.CostRecord{}, &domain.ValidationError{Fields: missing}
	}

	if err := c.store.CreateCost(ctx, &cost); err != nil {
		return domain.CostRecord{}, fmt.Errorf("add cost: %w", err)
	}
	slog.Info("cost added", "cost_id", cost.ID, "kind", string(cost.Kind), "month", cost.MonthYear)
	return cost, nil
}

// DeleteCost removes a cost record.
func (c *Catalog) DeleteCost(ctx context.Context, id string) error {
	if err := c.store.DeleteCost(ctx, id); err != nil {
		return fmt.Errorf("delete cost: %w", err)
	}
	return nil
}

// Settings returns the stored settings or the defaults.
func (c *Catalog) Settings(ctx context.Context) (domain.SystemSettings, error) {
	return c.store.GetSettings(ctx)
}

// SaveSettings validates and upserts the settings record.
func (c *Catalog) SaveSettings(ctx context.Context, s domain.SystemSettings) error {
	var invalid []string
	if s.OccupancyRate.IsNegative() {
		invalid = append(invalid, "taxa de ocupação")
	}
	if s.WorkingDaysPerMonth < 0 || s.WorkingDaysPerMonth > 31 {
		invalid = append(invalid, "dias úteis")
	}
	if len(invalid) > 0 {
		return &domain.ValidationError{Fields: invalid}
	}
	if err := c.store.SaveSettings(ctx, s); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	slog.Info("settings saved",
		"occupancy_rate", s.OccupancyRate.String(),
		"working_days", s.WorkingDaysPerMonth,
	)
	return nil
}

// Categories lists every category with its templates.
func (c *Catalog) Categories(ctx context.Context) ([]domain.BudgetCategory, error) {
	return c.store.ListCategories(ctx)
}

// CreateCategory stores an empty category.
func (c *Catalog) CreateCategory(ctx context.Context, name string) (domain.BudgetCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.BudgetCategory{}, &domain.ValidationError{Fields: []string{"nome"}}
	}
	cat := domain.BudgetCategory{Name: name, Items: []domain.BudgetItemTemplate{}}
	if err := c.store.CreateCategory(ctx, &cat); err != nil {
		return domain.BudgetCategory{}, fmt.Errorf("create category: %w", err)
	}
	return cat, nil
}

// RenameCategory changes a category name, keeping its templates.
func (c *Catalog) RenameCategory(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &domain.ValidationError{Fields: []string{"nome"}}
	}
	return c.updateCategory(ctx, id, func(cat *domain.BudgetCategory) { cat.Name = name })
}

// DeleteCategory removes a category and its templates. Budgets built from it
// are unaffected.
func (c *Catalog) DeleteCategory(ctx context.Context, id string) error {
	if err := c.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// AddTemplate appends a priced template to a category.
func (c *Catalog) AddTemplate(ctx context.Context, categoryID, name string, unitCost decimal.Decimal) error {
	name = strings.TrimSpace(name)
	var missing []string
	if name == "" {
		missing = append(missing, "item")
	}
	if unitCost.IsNegative() {
		missing = append(missing, "custo unitário")
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Fields: missing}
	}
	return c.updateCategory(ctx, categoryID, func(cat *domain.BudgetCategory) {
		cat.Items = append(cat.Items, domain.BudgetItemTemplate{
			ID:       domain.NewItemID(),
			Name:     name,
			UnitCost: unitCost,
		})
	})
}

// RemoveTemplate drops one template from a category.
func (c *Catalog) RemoveTemplate(ctx context.Context, categoryID, templateID string) error {
	return c.updateCategory(ctx, categoryID, func(cat *domain.BudgetCategory) {
		kept := cat.Items[:0]
		for _, t := range cat.Items {
			if t.ID != templateID {
				kept = append(kept, t)
			}
		}
		cat.Items = kept
	})
}

func (c *Catalog) updateCategory(ctx context.Context, id string, mutate func(*domain.BudgetCategory)) error {
	cat, err := c.store.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	mutate(&cat)
	if err := c.store.UpdateCategory(ctx, cat); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}
