package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CopyPrefix marks the event name of a duplicated budget.
const CopyPrefix = "[CÓPIA] "

// DefaultMarginPercent is the desired net margin offered for a new budget.
var DefaultMarginPercent = decimal.NewFromInt(20)

// ErrValidation is wrapped by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError lists the required fields that are missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// BudgetLineItem is owned by exactly one budget. Its ID is only unique within
// that budget.
type BudgetLineItem struct {
	ID       string
	Name     string
	Quantity int
	UnitCost decimal.Decimal
}

// Total returns quantity x unit cost.
func (i BudgetLineItem) Total() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewLineItem copies a template into an independent line item with quantity 1.
func NewLineItem(t BudgetItemTemplate) BudgetLineItem {
	return BudgetLineItem{
		ID:       NewItemID(),
		Name:     t.Name,
		Quantity: 1,
		UnitCost: t.UnitCost,
	}
}

// Budget is an event quote. The five financial fields are the snapshot taken
// by the pricing engine when the budget was last saved.
type Budget struct {
	ID            string
	ClientName    string
	ClientPhone   string
	EventName     string
	EventLocation string
	EventDate     time.Time
	GuestCount    int
	Status        Status
	Items         []BudgetLineItem

	TotalFixedCostShare decimal.Decimal
	TotalVariableCost   decimal.Decimal
	TotalSales          decimal.Decimal
	NetProfit           decimal.Decimal
	MarginPercent       decimal.Decimal

	CreatedAt int64
}

// NewBudget returns an empty draft with the default margin.
func NewBudget() Budget {
	return Budget{Status: StatusDraft, MarginPercent: DefaultMarginPercent}
}

// EventMonth returns the calendar month of the event.
func (b Budget) EventMonth() Month {
	return MonthOf(b.EventDate)
}

// Validate checks the fields required before a save.
func (b Budget) Validate() error {
	var missing []string
	if strings.TrimSpace(b.ClientName) == "" {
		missing = append(missing, "cliente")
	}
	if strings.TrimSpace(b.EventName) == "" {
		missing = append(missing, "nome do evento")
	}
	if b.EventDate.IsZero() {
		missing = append(missing, "data")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// CloneItems returns a deep copy of the line items keeping their ids.
func (b Budget) CloneItems() []BudgetLineItem {
	if b.Items == nil {
		return nil
	}
	out := make([]BudgetLineItem, len(b.Items))
	copy(out, b.Items)
	return out
}

// Duplicate returns a new draft budget with fresh identities. Nothing is
// shared with the receiver.
func (b Budget) Duplicate() Budget {
	dup := b
	dup.ID = uuid.NewString()
	dup.Status = StatusDraft
	dup.EventName = CopyPrefix + b.EventName
	dup.CreatedAt = 0
	dup.Items = b.CloneItems()
	for i := range dup.Items {
		dup.Items[i].ID = NewItemID()
	}
	return dup
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
