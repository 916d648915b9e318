package main

import (
	"html/template"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/buffet/internal/auth"
	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/format"
	"github.com/Simplici0/buffet/internal/pricing"
	"github.com/Simplici0/buffet/internal/reports"
	"github.com/Simplici0/buffet/internal/service"
)

type baseViewData struct {
	Title          string
	Active         string
	Identity       *auth.Identity
	ErrorMessage   string
	SuccessMessage string
}

type loginViewData struct {
	baseViewData
	Email       string
	DemoEnabled bool
}

type errorViewData struct {
	baseViewData
	Heading  string
	Message  string
	Retry    bool
	RetryURL string
}

type chartBar struct {
	Label      string
	Revenue    decimal.Decimal
	Expense    decimal.Decimal
	RevenuePct int
	ExpensePct int
}

type dashboardViewData struct {
	baseViewData
	View       service.DashboardView
	Bars       []chartBar
	MonthLabel string
	PrevMonth  string
	NextMonth  string
	Weekdays   [7]string
}

type costsViewData struct {
	baseViewData
	Settings       domain.SystemSettings
	ExpectedEvents decimal.Decimal
	Costs          []domain.CostRecord
	TotalFixed     decimal.Decimal
	TotalVariable  decimal.Decimal
	Categories     []domain.BudgetCategory
}

type budgetsViewData struct {
	baseViewData
	Query    string
	Status   domain.Status
	Statuses []domain.Status
	Budgets  []domain.Budget
}

type budgetFormViewData struct {
	baseViewData
	Heading      string
	Action       string
	Budget       domain.Budget
	Statuses     []domain.Status
	Result       pricing.Result
	MarginCapped bool
	Categories   []domain.BudgetCategory
}

type reportsViewData struct {
	baseViewData
	Month         string
	MonthLabel    string
	DRE           reports.DRE
	AllFixedCosts bool
}

var templateFuncs = template.FuncMap{
	"currency":  format.Currency,
	"percent":   format.Percent,
	"number":    format.Number,
	"date":      format.Date,
	"isoDate":   domain.FormatDate,
	"monthYear": format.MonthYear,
	"phone":     format.Phone,
	"statusClass": func(s domain.Status) string {
		return "status-" + string(s)
	},
}

// chartBars scales the trend so the tallest bar fills the chart.
func chartBars(points []reports.TrendPoint) []chartBar {
	peak := decimal.Zero
	for _, p := range points {
		peak = decimal.Max(peak, p.Revenue, p.Expense)
	}
	bars := make([]chartBar, 0, len(points))
	for _, p := range points {
		bars = append(bars, chartBar{
			Label:      p.Label,
			Revenue:    p.Revenue,
			Expense:    p.Expense,
			RevenuePct: share(p.Revenue, peak),
			ExpensePct: share(p.Expense, peak),
		})
	}
	return bars
}

func share(v, peak decimal.Decimal) int {
	if !peak.IsPositive() || !v.IsPositive() {
		return 0
	}
	return int(v.Div(peak).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

func sumCosts(costs []domain.CostRecord) (fixed, variable decimal.Decimal) {
	fixed, variable = decimal.Zero, decimal.Zero
	for _, c := range costs {
		if c.Kind == domain.CostFixed {
			fixed = fixed.Add(c.Amount)
		} else {
			variable = variable.Add(c.Amount)
		}
	}
	return fixed, variable
}
