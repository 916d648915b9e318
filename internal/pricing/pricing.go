// Package pricing computes the cost of an event and the sale price that yields
// a desired net margin. Every function is pure: no input is mutated and no
// numeric input produces an error.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/buffet/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Input groups everything the engine needs for one budget.
type Input struct {
	Costs         []domain.CostRecord
	Settings      domain.SystemSettings
	EventDate     time.Time
	Items         []domain.BudgetLineItem
	MarginPercent decimal.Decimal
}

// Breakdown is the calculation memory shown next to a budget.
type Breakdown struct {
	RelevantFixed    decimal.Decimal
	RelevantVariable decimal.Decimal
	TotalRelevant    decimal.Decimal
	ExpectedEvents   decimal.Decimal
	OverheadShare    decimal.Decimal
	ItemsCost        decimal.Decimal
	TotalEventCost   decimal.Decimal
}

// Result is the full pricing output for one budget.
type Result struct {
	Breakdown     Breakdown
	MarginPercent decimal.Decimal
	SellingPrice  decimal.Decimal
	NetProfit     decimal.Decimal
}

// Calculate runs the whole pipeline: overhead share, items cost, total cost
// and sale price.
func Calculate(in Input) Result {
	fixed, variable := relevantTotals(in.Costs, in.EventDate)
	totalRelevant := fixed.Add(variable)
	expected := ExpectedEvents(in.Settings)
	overhead := shareOf(totalRelevant, in.Settings)

	itemsCost := ItemsCost(in.Items)
	totalCost := TotalEventCost(overhead, itemsCost)
	price, profit := SellingPrice(totalCost, in.MarginPercent)

	return Result{
		Breakdown: Breakdown{
			RelevantFixed:    fixed,
			RelevantVariable: variable,
			TotalRelevant:    totalRelevant,
			ExpectedEvents:   expected,
			OverheadShare:    overhead,
			ItemsCost:        itemsCost,
			TotalEventCost:   totalCost,
		},
		MarginPercent: in.MarginPercent,
		SellingPrice:  price,
		NetProfit:     profit,
	}
}

// Apply writes the financial snapshot of r onto b.
func (r Result) Apply(b *domain.Budget) {
	b.TotalFixedCostShare = r.Breakdown.OverheadShare
	b.TotalVariableCost = r.Breakdown.ItemsCost
	b.TotalSales = r.SellingPrice
	b.NetProfit = r.NetProfit
	b.MarginPercent = r.MarginPercent
}

// RelevantCosts keeps the costs that belong to the event's month: recurring
// records plus records tagged with that month. A zero event date keeps only
// recurring records.
func RelevantCosts(costs []domain.CostRecord, eventDate time.Time) []domain.CostRecord {
	var out []domain.CostRecord
	for _, c := range costs {
		if isRelevant(c, eventDate) {
			out = append(out, c)
		}
	}
	return out
}

func isRelevant(c domain.CostRecord, eventDate time.Time) bool {
	if c.Recurring() {
		return true
	}
	if eventDate.IsZero() {
		return false
	}
	return c.AppliesTo(domain.MonthOf(eventDate))
}

func relevantTotals(costs []domain.CostRecord, eventDate time.Time) (fixed, variable decimal.Decimal) {
	fixed, variable = decimal.Zero, decimal.Zero
	for _, c := range RelevantCosts(costs, eventDate) {
		if c.Kind == domain.CostFixed {
			fixed = fixed.Add(c.Amount)
		} else {
			variable = variable.Add(c.Amount)
		}
	}
	return fixed, variable
}

// ExpectedEvents is workingDaysPerMonth x occupancyRate/100.
func ExpectedEvents(s domain.SystemSettings) decimal.Decimal {
	return decimal.NewFromInt(int64(s.WorkingDaysPerMonth)).Mul(s.OccupancyRate).Div(hundred)
}

// OverheadShare apportions the month's shared cost pool, fixed and variable
// alike, over the expected number of events. It is zero when no events are
// expected.
func OverheadShare(costs []domain.CostRecord, eventDate time.Time, settings domain.SystemSettings) decimal.Decimal {
	fixed, variable := relevantTotals(costs, eventDate)
	return shareOf(fixed.Add(variable), settings)
}

// shareOf divides pool by days x occupancy/100 without rounding the divisor
// first, so a tiny occupancy still yields a share.
func shareOf(pool decimal.Decimal, s domain.SystemSettings) decimal.Decimal {
	eventsTimesHundred := decimal.NewFromInt(int64(s.WorkingDaysPerMonth)).Mul(s.OccupancyRate)
	if !eventsTimesHundred.IsPositive() {
		return decimal.Zero
	}
	return pool.Mul(hundred).Div(eventsTimesHundred)
}

// ItemsCost sums quantity x unit cost over the line items.
func ItemsCost(items []domain.BudgetLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total())
	}
	return total
}

// TotalEventCost adds the overhead share to the items cost.
func TotalEventCost(overheadShare, itemsCost decimal.Decimal) decimal.Decimal {
	return overheadShare.Add(itemsCost)
}

// SellingPrice derives the price whose profit is marginPercent of the price
// itself. Margins of 100% or more fall back to selling at cost.
func SellingPrice(totalCost, marginPercent decimal.Decimal) (sellingPrice, netProfit decimal.Decimal) {
	if marginPercent.GreaterThanOrEqual(hundred) {
		return totalCost, decimal.Zero
	}
	sellingPrice = totalCost.Mul(hundred).Div(hundred.Sub(marginPercent))
	return sellingPrice, sellingPrice.Sub(totalCost)
}
