// Package reports folds stored budgets and cost records into the dashboard
// indicators, the six-month trend and the monthly income statement (DRE).
// Aggregations read the financial snapshot stored on each budget; nothing is
// repriced here.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/buffet/internal/domain"
)

// TrendMonths is the number of months in the revenue/expense series.
const TrendMonths = 6

var shortMonths = [...]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// ShortMonthName returns the pt-BR abbreviation used for chart labels.
func ShortMonthName(m time.Month) string {
	return shortMonths[m-1]
}

// KPIs are the dashboard counters, one bucket per non-declined status.
type KPIs struct {
	ScheduledCount      int
	ScheduledValue      decimal.Decimal
	PendingCount        int
	PendingValue        decimal.Decimal
	CompletedCount      int
	CompletedValue      decimal.Decimal
	CurrentMonthRevenue decimal.Decimal
}

// Dashboard buckets budgets by status in a single pass. Declined budgets are
// ignored.
func Dashboard(budgets []domain.Budget, now time.Time) KPIs {
	current := domain.MonthOf(now)
	k := KPIs{
		ScheduledValue:      decimal.Zero,
		PendingValue:        decimal.Zero,
		CompletedValue:      decimal.Zero,
		CurrentMonthRevenue: decimal.Zero,
	}
	for _, b := range budgets {
		switch b.Status {
		case domain.StatusScheduled:
			k.ScheduledCount++
			k.ScheduledValue = k.ScheduledValue.Add(b.TotalSales)
		case domain.StatusDraft:
			k.PendingCount++
			k.PendingValue = k.PendingValue.Add(b.TotalSales)
		case domain.StatusCompleted:
			k.CompletedCount++
			k.CompletedValue = k.CompletedValue.Add(b.TotalSales)
			if b.EventMonth() == current {
				k.CurrentMonthRevenue = k.CurrentMonthRevenue.Add(b.TotalSales)
			}
		}
	}
	return k
}

// TrendPoint is one month of the revenue vs. expense chart.
type TrendPoint struct {
	Month   domain.Month
	Label   string
	Revenue decimal.Decimal
	Expense decimal.Decimal
}

// Trend returns the trailing TrendMonths months, oldest first, ending with the
// month of now.
func Trend(budgets []domain.Budget, costs []domain.CostRecord, now time.Time) []TrendPoint {
	current := domain.MonthOf(now)
	points := make([]TrendPoint, 0, TrendMonths)
	for i := TrendMonths - 1; i >= 0; i-- {
		m := current.AddMonths(-i)
		revenue, variable := completedTotals(budgets, m)
		points = append(points, TrendPoint{
			Month:   m,
			Label:   ShortMonthName(m.Month),
			Revenue: revenue,
			Expense: variable.Add(costsFor(costs, m, nil)),
		})
	}
	return points
}

// FixedCostScope selects which fixed costs the DRE subtracts.
type FixedCostScope string

const (
	// FixedCostsAll subtracts every fixed cost record ever entered, whatever
	// month it is tagged with.
	FixedCostsAll FixedCostScope = "all"
	// FixedCostsMonth subtracts recurring fixed costs plus those tagged with
	// the report month.
	FixedCostsMonth FixedCostScope = "month"
)

// ParseFixedCostScope maps a config value to a scope, defaulting to FixedCostsAll.
func ParseFixedCostScope(s string) FixedCostScope {
	if FixedCostScope(s) == FixedCostsMonth {
		return FixedCostsMonth
	}
	return FixedCostsAll
}

// DRE is the simplified income statement for one month.
type DRE struct {
	Month              domain.Month
	Scope              FixedCostScope
	CompletedEvents    int
	TotalRevenue       decimal.Decimal
	TotalVariableCosts decimal.Decimal
	ActualFixedCosts   decimal.Decimal
	GrossProfit        decimal.Decimal
	NetResult          decimal.Decimal
	// NetMarginPercent is NetResult over TotalRevenue in percent, 0 without revenue.
	NetMarginPercent decimal.Decimal
	// BreakEven approximates the contribution needed to cover fixed costs.
	BreakEven decimal.Decimal
}

// MonthlyDRE builds the income statement for month m.
func MonthlyDRE(budgets []domain.Budget, costs []domain.CostRecord, m domain.Month, scope FixedCostScope) DRE {
	revenue, variable := completedTotals(budgets, m)

	fixedOnly := func(c domain.CostRecord) bool { return c.Kind == domain.CostFixed }
	fixed := decimal.Zero
	if scope == FixedCostsMonth {
		fixed = costsFor(costs, m, fixedOnly)
	} else {
		for _, c := range costs {
			if fixedOnly(c) {
				fixed = fixed.Add(c.Amount)
			}
		}
	}

	gross := revenue.Sub(variable)
	net := gross.Sub(fixed)
	margin := decimal.Zero
	if !revenue.IsZero() {
		margin = net.Div(revenue).Mul(decimal.NewFromInt(100))
	}

	events := 0
	for _, b := range budgets {
		if b.Status == domain.StatusCompleted && b.EventMonth() == m {
			events++
		}
	}

	return DRE{
		Month:              m,
		Scope:              scope,
		CompletedEvents:    events,
		TotalRevenue:       revenue,
		TotalVariableCosts: variable,
		ActualFixedCosts:   fixed,
		GrossProfit:        gross,
		NetResult:          net,
		NetMarginPercent:   margin,
		BreakEven:          fixed,
	}
}

func completedTotals(budgets []domain.Budget, m domain.Month) (revenue, variable decimal.Decimal) {
	revenue, variable = decimal.Zero, decimal.Zero
	for _, b := range budgets {
		if b.Status != domain.StatusCompleted || b.EventMonth() != m {
			continue
		}
		revenue = revenue.Add(b.TotalSales)
		variable = variable.Add(b.TotalVariableCost)
	}
	return revenue, variable
}

func costsFor(costs []domain.CostRecord, m domain.Month, keep func(domain.CostRecord) bool) decimal.Decimal {
	total := decimal.Zero
	for _, c := range costs {
		if !c.AppliesTo(m) {
			continue
		}
		if keep != nil && !keep(c) {
			continue
		}
		total = total.Add(c.Amount)
	}
	return total
}
