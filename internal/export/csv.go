// Package export writes budget lists for spreadsheets and backups.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/format"
)

// csvSeparator matches what pt-BR spreadsheet software expects when decimals use commas.
const csvSeparator = ';'

var csvHeader = []string{
	"ID", "Cliente", "Telefone", "Evento", "Local", "Data", "Convidados", "Status",
	"Custo Fixo (rateio)", "Custo Variável", "Venda", "Lucro Líquido", "Margem (%)",
}

// BudgetsCSV writes one row per budget with its stored snapshot.
func BudgetsCSV(w io.Writer, budgets []domain.Budget) error {
	cw := csv.NewWriter(w)
	cw.Comma = csvSeparator

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range budgets {
		row := []string{
			b.ID,
			b.ClientName,
			format.Phone(b.ClientPhone),
			b.EventName,
			b.EventLocation,
			domain.FormatDate(b.EventDate),
			strconv.Itoa(b.GuestCount),
			b.Status.Label(),
			format.Number(b.TotalFixedCostShare),
			format.Number(b.TotalVariableCost),
			format.Number(b.TotalSales),
			format.Number(b.NetProfit),
			format.Number(b.MarginPercent),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
