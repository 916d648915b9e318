// Package service orchestrates the stores and the pure engines: it loads the
// records a computation needs, runs the pricing or reporting fold and
// persists the outcome.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/pricing"
	"github.com/Simplici0/buffet/internal/storage"
)

// SaveObserver is notified after a budget write. operation is "create" or "update".
type SaveObserver interface {
	ObserveSave(operation string)
}

// BudgetRepository is the slice of storage.Store the budget service uses.
type BudgetRepository interface {
	storage.BudgetStore
	storage.CostStore
	storage.SettingsStore
	storage.CategoryStore
}

// Budgets prices, saves and lists budgets.
type Budgets struct {
	store    BudgetRepository
	observer SaveObserver
}

// NewBudgets creates a budget service. observer may be nil.
func NewBudgets(store BudgetRepository, observer SaveObserver) *Budgets {
	return &Budgets{store: store, observer: observer}
}

// PricingContext is what the pricing engine needs besides the budget itself.
type PricingContext struct {
	Costs    []domain.CostRecord
	Settings domain.SystemSettings
}

// PricingContext loads cost records and settings concurrently. The first
// failure cancels the other load.
func (s *Budgets) PricingContext(ctx context.Context) (PricingContext, error) {
	return loadPricingContext(ctx, s.store)
}

func loadPricingContext(ctx context.Context, store interface {
	storage.CostStore
	storage.SettingsStore
}) (PricingContext, error) {
	var pc PricingContext
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		costs, err := store.ListCosts(gctx)
		if err != nil {
			return fmt.Errorf("load costs: %w", err)
		}
		pc.Costs = costs
		return nil
	})
	g.Go(func() error {
		settings, err := store.GetSettings(gctx)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		pc.Settings = settings
		return nil
	})
	if err := g.Wait(); err != nil {
		return PricingContext{}, err
	}
	return pc, nil
}

// CatalogData is the pricing context plus the categories offered as item
// templates.
type CatalogData struct {
	PricingContext
	Categories []domain.BudgetCategory
}

// FormContext loads what the budget form needs in one joined fetch.
func (s *Budgets) FormContext(ctx context.Context) (CatalogData, error) {
	return loadCatalogData(ctx, s.store)
}

func loadCatalogData(ctx context.Context, store interface {
	storage.CostStore
	storage.SettingsStore
	storage.CategoryStore
}) (CatalogData, error) {
	var data CatalogData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pc, err := loadPricingContext(gctx, store)
		if err != nil {
			return err
		}
		data.PricingContext = pc
		return nil
	})
	g.Go(func() error {
		categories, err := store.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		data.Categories = categories
		return nil
	})
	if err := g.Wait(); err != nil {
		return CatalogData{}, err
	}
	return data, nil
}

// Preview prices b against pc without persisting anything.
func Preview(pc PricingContext, b domain.Budget) pricing.Result {
	return pricing.Calculate(pricing.Input{
		Costs:         pc.Costs,
		Settings:      pc.Settings,
		EventDate:     b.EventDate,
		Items:         b.Items,
		MarginPercent: b.MarginPercent,
	})
}

// Preview loads a fresh pricing context and prices b.
func (s *Budgets) Preview(ctx context.Context, b domain.Budget) (pricing.Result, error) {
	pc, err := s.PricingContext(ctx)
	if err != nil {
		return pricing.Result{}, err
	}
	return Preview(pc, b), nil
}

// Save validates b, takes a fresh financial snapshot and persists it. A budget
// without ID is created; otherwise the stored record is overwritten in full.
func (s *Budgets) Save(ctx context.Context, b domain.Budget) (domain.Budget, error) {
	b.ClientName = strings.TrimSpace(b.ClientName)
	b.EventName = strings.TrimSpace(b.EventName)
	b.EventLocation = strings.TrimSpace(b.EventLocation)
	b.ClientPhone = domain.NormalizePhone(b.ClientPhone)
	if b.Status == "" {
		b.Status = domain.StatusDraft
	}
	if !b.Status.Valid() {
		return domain.Budget{}, &domain.ValidationError{Fields: []string{"status"}}
	}
	if err := b.Validate(); err != nil {
		return domain.Budget{}, err
	}

	pc, err := s.PricingContext(ctx)
	if err != nil {
		return domain.Budget{}, err
	}
	Preview(pc, b).Apply(&b)

	op := "update"
	if b.ID == "" {
		op = "create"
		if err := s.store.CreateBudget(ctx, &b); err != nil {
			return domain.Budget{}, fmt.Errorf("create budget: %w", err)
		}
	} else if err := s.store.UpdateBudget(ctx, b); err != nil {
		return domain.Budget{}, fmt.Errorf("update budget: %w", err)
	}

	if s.observer != nil {
		s.observer.ObserveSave(op)
	}
	slog.Info("budget saved",
		"budget_id", b.ID,
		"operation", op,
		"status", string(b.Status),
		"total_sales", b.TotalSales.StringFixed(2),
	)
	return s.store.GetBudget(ctx, b.ID)
}

// Get returns one budget.
func (s *Budgets) Get(ctx context.Context, id string) (domain.Budget, error) {
	return s.store.GetBudget(ctx, id)
}

// Filter narrows the budget list. Zero values match everything.
type Filter struct {
	Status domain.Status
	Query  string
}

func (f Filter) match(b domain.Budget) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.ClientName), q) ||
		strings.Contains(strings.ToLower(b.EventName), q)
}

// List returns the budgets matching f, latest event first. Budgets without a
// date come last.
func (s *Budgets) List(ctx context.Context, f Filter) ([]domain.Budget, error) {
	all, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]domain.Budget, 0, len(all))
	for _, b := range all {
		if f.match(b) {
			out = append(out, b)
		}
	}
	sortByEventDateDesc(out)
	return out, nil
}

func sortByEventDateDesc(budgets []domain.Budget) {
	sort.SliceStable(budgets, func(i, j int) bool {
		a, b := budgets[i].EventDate, budgets[j].EventDate
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		if !a.Equal(b) {
			return a.After(b)
		}
		return budgets[i].CreatedAt > budgets[j].CreatedAt
	})
}

// SetStatus moves a budget to status. The stored snapshot is not recomputed.
func (s *Budgets) SetStatus(ctx context.Context, id string, status domain.Status) error {
	if !status.Valid() {
		return &domain.ValidationError{Fields: []string{"status"}}
	}
	if err := s.store.UpdateBudgetStatus(ctx, id, status); err != nil {
		return fmt.Errorf("set budget status: %w", err)
	}
	slog.Info("budget status changed", "budget_id", id, "status", string(status))
	return nil
}

// Delete removes a budget.
func (s *Budgets) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	slog.Info("budget deleted", "budget_id", id)
	return nil
}

// Duplicate returns an unsaved copy of the stored budget id.
func (s *Budgets) Duplicate(ctx context.Context, id string) (domain.Budget, error) {
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return domain.Budget{}, err
	}
	return b.Duplicate(), nil
}

// ItemsFromCategory copies every template of a category into new line items.
func (s *Budgets) ItemsFromCategory(ctx context.Context, categoryID string) ([]domain.BudgetLineItem, error) {
	c, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	items := make([]domain.BudgetLineItem, 0, len(c.Items))
	for _, t := range c.Items {
		items = append(items, domain.NewLineItem(t))
	}
	return items, nil
}
