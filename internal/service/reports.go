package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/reports"
	"github.com/Simplici0/buffet/internal/storage"
)

// upcomingLimit caps the list of next scheduled events on the dashboard.
const upcomingLimit = 5

// ReportRepository is the slice of storage.Store the report service reads.
type ReportRepository interface {
	storage.BudgetStore
	storage.CostStore
}

// Reports folds stored budgets and costs into dashboard and DRE views.
type Reports struct {
	store ReportRepository
	scope reports.FixedCostScope
	now   func() time.Time
}

// NewReports creates a report service using scope for the DRE fixed costs.
func NewReports(store ReportRepository, scope reports.FixedCostScope) *Reports {
	return &Reports{store: store, scope: scope, now: time.Now}
}

// Scope returns the configured DRE fixed-cost scope.
func (r *Reports) Scope() reports.FixedCostScope {
	return r.scope
}

// DashboardView is everything the dashboard renders.
type DashboardView struct {
	Today    time.Time
	KPIs     reports.KPIs
	Trend    []reports.TrendPoint
	Calendar reports.CalendarMonth
	Upcoming []domain.Budget
}

// Dashboard loads budgets and costs concurrently and builds the indicators,
// the trend and the calendar for month.
func (r *Reports) Dashboard(ctx context.Context, month domain.Month) (DashboardView, error) {
	budgets, costs, err := r.load(ctx)
	if err != nil {
		return DashboardView{}, err
	}
	now := r.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return DashboardView{
		Today:    today,
		KPIs:     reports.Dashboard(budgets, now),
		Trend:    reports.Trend(budgets, costs, now),
		Calendar: reports.Calendar(budgets, month, today),
		Upcoming: upcoming(budgets, today),
	}, nil
}

// MonthlyDRE builds the income statement for month.
func (r *Reports) MonthlyDRE(ctx context.Context, month domain.Month) (reports.DRE, error) {
	budgets, costs, err := r.load(ctx)
	if err != nil {
		return reports.DRE{}, err
	}
	return reports.MonthlyDRE(budgets, costs, month, r.scope), nil
}

// CurrentMonth returns the month reports default to.
func (r *Reports) CurrentMonth() domain.Month {
	return domain.MonthOf(r.now())
}

func (r *Reports) load(ctx context.Context) ([]domain.Budget, []domain.CostRecord, error) {
	var (
		budgets []domain.Budget
		costs   []domain.CostRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if budgets, err = r.store.ListBudgets(gctx); err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if costs, err = r.store.ListCosts(gctx); err != nil {
			return fmt.Errorf("load costs: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return budgets, costs, nil
}

func upcoming(budgets []domain.Budget, today time.Time) []domain.Budget {
	out := make([]domain.Budget, 0, upcomingLimit)
	for _, b := range budgets {
		if b.Status == domain.StatusScheduled && !b.EventDate.IsZero() && !b.EventDate.Before(today) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	if len(out) > upcomingLimit {
		out = out[:upcomingLimit]
	}
	return out
}
