// Package domain holds the records the buffet back office works with and the
// small rules that belong to them: status values, month keys, phone
// canonicalisation and the copy constructors used when budgets are built from
// templates or duplicated.
package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostKind separates fixed from variable company costs.
type CostKind string

const (
	CostFixed    CostKind = "fixed"
	CostVariable CostKind = "variable"
)

// ParseCostKind validates a kind coming from a form or the database.
func ParseCostKind(s string) (CostKind, error) {
	switch CostKind(s) {
	case CostFixed, CostVariable:
		return CostKind(s), nil
	}
	return "", fmt.Errorf("unknown cost kind %q", s)
}

// Label returns the pt-BR display name.
func (k CostKind) Label() string {
	if k == CostFixed {
		return "Fixo"
	}
	return "Variável"
}

// CostRecord is a company cost. An empty MonthYear marks a recurring cost that
// applies to every month.
type CostRecord struct {
	ID        string
	Name      string
	Amount    decimal.Decimal
	Kind      CostKind
	MonthYear string
	CreatedAt int64
}

// Recurring reports whether the cost applies to every month.
func (c CostRecord) Recurring() bool {
	return c.MonthYear == ""
}

// AppliesTo reports whether the cost belongs to the shared pool of month m.
func (c CostRecord) AppliesTo(m Month) bool {
	return c.Recurring() || c.MonthYear == m.String()
}

// SystemSettings drives the expected number of events per month.
type SystemSettings struct {
	OccupancyRate       decimal.Decimal
	WorkingDaysPerMonth int
}

// DefaultSettings is used when no settings record has been stored yet.
func DefaultSettings() SystemSettings {
	return SystemSettings{
		OccupancyRate:       decimal.NewFromInt(70),
		WorkingDaysPerMonth: 22,
	}
}

// BudgetItemTemplate is a reusable priced item inside a category.
type BudgetItemTemplate struct {
	ID       string
	Name     string
	UnitCost decimal.Decimal
}

// BudgetCategory groups templates that are usually loaded together.
type BudgetCategory struct {
	ID        string
	Name      string
	Items     []BudgetItemTemplate
	CreatedAt int64
}

// NewItemID mints an identifier for a line item or template.
func NewItemID() string {
	return uuid.NewString()
}
