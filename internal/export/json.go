package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/buffet/internal/domain"
)

type jsonExport struct {
	ExportedAt string       `json:"exported_at"`
	Count      int          `json:"count"`
	Budgets    []jsonBudget `json:"budgets"`
}

type jsonBudget struct {
	ID                  string          `json:"id"`
	ClientName          string          `json:"client_name"`
	ClientPhone         string          `json:"client_phone,omitempty"`
	EventName           string          `json:"event_name"`
	EventLocation       string          `json:"event_location,omitempty"`
	EventDate           string          `json:"event_date,omitempty"`
	GuestCount          int             `json:"guest_count"`
	Status              string          `json:"status"`
	Items               []jsonItem      `json:"items"`
	TotalFixedCostShare decimal.Decimal `json:"total_fixed_cost_share"`
	TotalVariableCost   decimal.Decimal `json:"total_variable_cost"`
	TotalSales          decimal.Decimal `json:"total_sales"`
	NetProfit           decimal.Decimal `json:"net_profit"`
	MarginPercent       decimal.Decimal `json:"margin_percent"`
	CreatedAt           int64           `json:"created_at"`
}

type jsonItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// BudgetsJSON writes a full backup of budgets, items included.
func BudgetsJSON(w io.Writer, budgets []domain.Budget, exportedAt time.Time) error {
	out := jsonExport{
		ExportedAt: exportedAt.UTC().Format(time.RFC3339),
		Count:      len(budgets),
		Budgets:    make([]jsonBudget, 0, len(budgets)),
	}
	for _, b := range budgets {
		items := make([]jsonItem, 0, len(b.Items))
		for _, it := range b.Items {
			items = append(items, jsonItem{ID: it.ID, Name: it.Name, Quantity: it.Quantity, UnitCost: it.UnitCost})
		}
		out.Budgets = append(out.Budgets, jsonBudget{
			ID:                  b.ID,
			ClientName:          b.ClientName,
			ClientPhone:         b.ClientPhone,
			EventName:           b.EventName,
			EventLocation:       b.EventLocation,
			EventDate:           domain.FormatDate(b.EventDate),
			GuestCount:          b.GuestCount,
			Status:              string(b.Status),
			Items:               items,
			TotalFixedCostShare: b.TotalFixedCostShare,
			TotalVariableCost:   b.TotalVariableCost,
			TotalSales:          b.TotalSales,
			NetProfit:           b.NetProfit,
			MarginPercent:       b.MarginPercent,
			CreatedAt:           b.CreatedAt,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode budgets json: %w", err)
	}
	return nil
}
