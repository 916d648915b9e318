package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "buffet-test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSettings_DefaultsThenUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	got, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if !got.OccupancyRate.Equal(decimal.NewFromInt(70)) || got.WorkingDaysPerMonth != 22 {
		t.Fatalf("expected defaults, got %+v", got)
	}

	for _, rate := range []string{"50", "65.5"} {
		want := domain.SystemSettings{OccupancyRate: decimal.RequireFromString(rate), WorkingDaysPerMonth: 20}
		if err := store.SaveSettings(ctx, want); err != nil {
			t.Fatalf("SaveSettings: %v", err)
		}
	}

	got, err = store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if !got.OccupancyRate.Equal(decimal.RequireFromString("65.5")) || got.WorkingDaysPerMonth != 20 {
		t.Fatalf("unexpected settings %+v", got)
	}

	var rows int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&rows); err != nil {
		t.Fatalf("count settings: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected a single settings row, got %d", rows)
	}
}

func TestCosts_CreateListDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rent := &domain.CostRecord{Name: "Aluguel", Amount: decimal.RequireFromString("3500.50"), Kind: domain.CostFixed}
	gas := &domain.CostRecord{Name: "Gás", Amount: decimal.NewFromInt(400), Kind: domain.CostVariable, MonthYear: "2025-03"}
	for _, c := range []*domain.CostRecord{rent, gas} {
		if err := store.CreateCost(ctx, c); err != nil {
			t.Fatalf("CreateCost: %v", err)
		}
		if c.ID == "" || c.CreatedAt == 0 {
			t.Fatalf("expected id and createdAt to be assigned: %+v", c)
		}
	}

	costs, err := store.ListCosts(ctx)
	if err != nil {
		t.Fatalf("ListCosts: %v", err)
	}
	if len(costs) != 2 {
		t.Fatalf("expected 2 costs, got %d", len(costs))
	}
	byName := map[string]domain.CostRecord{}
	for _, c := range costs {
		byName[c.Name] = c
	}
	if !byName["Aluguel"].Amount.Equal(decimal.RequireFromString("3500.5")) || !byName["Aluguel"].Recurring() {
		t.Fatalf("unexpected rent record %+v", byName["Aluguel"])
	}
	if byName["Gás"].Kind != domain.CostVariable || byName["Gás"].MonthYear != "2025-03" {
		t.Fatalf("unexpected gas record %+v", byName["Gás"])
	}

	if err := store.DeleteCost(ctx, rent.ID); err != nil {
		t.Fatalf("DeleteCost: %v", err)
	}
	if err := store.DeleteCost(ctx, rent.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestBudgets_RoundTripKeepsSnapshotAndItemOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := domain.NewBudget()
	b.ClientName = "Ana"
	b.ClientPhone = "11987654321"
	b.EventName = "Casamento"
	b.EventDate = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	b.GuestCount = 120
	b.Items = []domain.BudgetLineItem{
		{Name: "Salgados", Quantity: 2, UnitCost: decimal.NewFromInt(1000)},
		{Name: "Bolo", Quantity: 1, UnitCost: decimal.RequireFromString("450.75")},
	}
	b.TotalFixedCostShare = decimal.NewFromInt(500)
	b.TotalVariableCost = decimal.RequireFromString("2450.75")
	b.TotalSales = decimal.RequireFromString("3688.4375")
	b.NetProfit = decimal.RequireFromString("737.6875")

	if err := store.CreateBudget(ctx, &b); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	if b.ID == "" || b.CreatedAt == 0 || b.Items[0].ID == "" {
		t.Fatalf("expected ids to be assigned: %+v", b)
	}

	got, err := store.GetBudget(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if !got.EventDate.Equal(b.EventDate) || got.Status != domain.StatusDraft || got.GuestCount != 120 {
		t.Fatalf("unexpected budget %+v", got)
	}
	if !got.TotalSales.Equal(b.TotalSales) || !got.MarginPercent.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("snapshot not preserved: sales=%s margin=%s", got.TotalSales, got.MarginPercent)
	}
	if len(got.Items) != 2 || got.Items[0].Name != "Salgados" || got.Items[1].Name != "Bolo" {
		t.Fatalf("unexpected items %+v", got.Items)
	}
}

func TestBudgets_UpdateOverwritesAndKeepsCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := domain.Budget{ClientName: "Ana", EventName: "Festa", Status: domain.StatusDraft,
		Items: []domain.BudgetLineItem{{Name: "A", Quantity: 1, UnitCost: decimal.NewFromInt(10)}}}
	if err := store.CreateBudget(ctx, &b); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	created := b.CreatedAt

	b.CreatedAt = 0
	b.EventName = "Festa Grande"
	b.Items = []domain.BudgetLineItem{{Name: "B", Quantity: 3, UnitCost: decimal.NewFromInt(5)}}
	if err := store.UpdateBudget(ctx, b); err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}

	got, err := store.GetBudget(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if got.CreatedAt != created {
		t.Fatalf("createdAt changed: %d -> %d", created, got.CreatedAt)
	}
	if got.EventName != "Festa Grande" || len(got.Items) != 1 || got.Items[0].Name != "B" {
		t.Fatalf("budget not overwritten: %+v", got)
	}
	if !got.EventDate.IsZero() {
		t.Fatalf("expected empty event date, got %v", got.EventDate)
	}

	missing := domain.Budget{ID: "missing", Status: domain.StatusDraft}
	if err := store.UpdateBudget(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBudgets_StatusListAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := domain.Budget{ClientName: "A", EventName: "Antigo", Status: domain.StatusDraft,
		EventDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}
	newer := domain.Budget{ClientName: "B", EventName: "Novo", Status: domain.StatusDraft,
		EventDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Items:     []domain.BudgetLineItem{{Name: "X", Quantity: 1, UnitCost: decimal.NewFromInt(1)}}}
	for _, b := range []*domain.Budget{&older, &newer} {
		if err := store.CreateBudget(ctx, b); err != nil {
			t.Fatalf("CreateBudget: %v", err)
		}
	}

	if err := store.UpdateBudgetStatus(ctx, older.ID, domain.StatusCompleted); err != nil {
		t.Fatalf("UpdateBudgetStatus: %v", err)
	}

	list, err := store.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].Status != domain.StatusCompleted {
		t.Fatalf("unexpected list %+v", list)
	}
	if len(list[0].Items) != 1 || len(list[1].Items) != 0 {
		t.Fatalf("items not attached to their budgets: %+v", list)
	}

	if err := store.DeleteBudget(ctx, newer.ID); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if _, err := store.GetBudget(ctx, newer.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	var orphans int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM budget_items WHERE budget_id = ?`, newer.ID).Scan(&orphans); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected items to be deleted, found %d", orphans)
	}
}

func TestCategories_TemplatesFollowCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c := &domain.BudgetCategory{Name: "Infantil", Items: []domain.BudgetItemTemplate{
		{Name: "Brigadeiro", UnitCost: decimal.RequireFromString("0.80")},
		{Name: "Suco", UnitCost: decimal.NewFromInt(3)},
	}}
	if err := store.CreateCategory(ctx, c); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	c.Name = "Festa Infantil"
	c.Items = append(c.Items[:1], domain.BudgetItemTemplate{Name: "Pipoca", UnitCost: decimal.NewFromInt(2)})
	if err := store.UpdateCategory(ctx, *c); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}

	got, err := store.GetCategory(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got.Name != "Festa Infantil" || len(got.Items) != 2 || got.Items[1].Name != "Pipoca" {
		t.Fatalf("unexpected category %+v", got)
	}

	empty := &domain.BudgetCategory{Name: "Vazia"}
	if err := store.CreateCategory(ctx, empty); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	all, err := store.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Festa Infantil" || len(all[1].Items) != 0 {
		t.Fatalf("unexpected categories %+v", all)
	}

	if err := store.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if _, err := store.GetCategory(ctx, c.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUsers_LookupByEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	u := &domain.User{Email: "admin@example.com", PasswordHash: "hash"}
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	got, err := store.GetUserByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user %+v", got)
	}
}
