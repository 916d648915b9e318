package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/format"
	"github.com/Simplici0/buffet/internal/pricing"
	"github.com/Simplici0/buffet/internal/reports"
	"github.com/Simplici0/buffet/internal/service"
)

func newReportCmd(configPath *string) *cobra.Command {
	report := &cobra.Command{
		Use:   "report",
		Short: "Print reports computed from the stored budgets",
	}

	var month string
	dre := &cobra.Command{
		Use:   "dre",
		Short: "Print the monthly income statement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := service.NewReports(store, reports.ParseFixedCostScope(cfg.ReportFixedCosts))
			m := svc.CurrentMonth()
			if month != "" {
				if m, err = domain.ParseMonth(month); err != nil {
					return err
				}
			}
			statement, err := svc.MonthlyDRE(cmd.Context(), m)
			if err != nil {
				return err
			}
			return printDRE(cmd.OutOrStdout(), statement)
		},
	}
	dre.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")

	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the dashboard indicators and the six-month trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := service.NewReports(store, reports.ParseFixedCostScope(cfg.ReportFixedCosts))
			view, err := svc.Dashboard(cmd.Context(), svc.CurrentMonth())
			if err != nil {
				return err
			}
			return printDashboard(cmd.OutOrStdout(), view)
		},
	}

	report.AddCommand(dre, dashboard)
	return report
}

func newQuoteCmd(configPath *string) *cobra.Command {
	var (
		date   string
		margin string
		items  []string
	)
	cmd := &cobra.Command{
		Use:     "quote",
		Short:   "Price an event against the stored costs and settings",
		Example: `  buffet quote --date 2025-03-15 --margin 20 --item "Salgados:2:1000" --item "Bolo:1:300"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := quoteBudget(date, margin, items)
			if err != nil {
				return err
			}

			_, store, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := service.NewBudgets(store, nil).Preview(cmd.Context(), b)
			if err != nil {
				return err
			}
			return printQuote(cmd.OutOrStdout(), b, res)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "event date as YYYY-MM-DD")
	cmd.Flags().StringVar(&margin, "margin", domain.DefaultMarginPercent.String(), "desired net margin in percent")
	cmd.Flags().StringArrayVar(&items, "item", nil, `line item as "name:quantity:unit cost" (repeatable)`)
	return cmd
}

func quoteBudget(date, margin string, items []string) (domain.Budget, error) {
	b := domain.NewBudget()
	var err error
	if b.EventDate, err = domain.ParseDate(date); err != nil {
		return b, err
	}
	if b.MarginPercent, err = format.ParseDecimal(margin); err != nil {
		return b, fmt.Errorf("parse margin %q: %w", margin, err)
	}
	for _, raw := range items {
		item, err := parseItemFlag(raw)
		if err != nil {
			return b, err
		}
		b.Items = append(b.Items, item)
	}
	return b, nil
}

// parseItemFlag reads "name:quantity:unit cost". The name may itself contain
// colons; the last two fields are numeric.
func parseItemFlag(raw string) (domain.BudgetLineItem, error) {
	rest, cost, ok := cutLast(raw, ":")
	if !ok {
		return domain.BudgetLineItem{}, fmt.Errorf("item %q: want name:quantity:unit cost", raw)
	}
	name, qty, ok := cutLast(rest, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return domain.BudgetLineItem{}, fmt.Errorf("item %q: want name:quantity:unit cost", raw)
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(qty))
	if err != nil {
		return domain.BudgetLineItem{}, fmt.Errorf("item %q: parse quantity: %w", raw, err)
	}
	unitCost, err := format.ParseDecimal(cost)
	if err != nil {
		return domain.BudgetLineItem{}, fmt.Errorf("item %q: parse unit cost: %w", raw, err)
	}
	return domain.BudgetLineItem{
		ID:       domain.NewItemID(),
		Name:     strings.TrimSpace(name),
		Quantity: quantity,
		UnitCost: unitCost,
	}, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

func printQuote(w io.Writer, b domain.Budget, res pricing.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	bd := res.Breakdown

	fmt.Fprintf(tw, "Data do evento\t%s\t\n", format.Date(b.EventDate))
	for _, item := range b.Items {
		fmt.Fprintf(tw, "%s (%d x %s)\t%s\t\n", item.Name,
			item.Quantity, format.Currency(item.UnitCost), format.Currency(item.Total()))
	}
	fmt.Fprintf(tw, "Custos fixos do período\t%s\t\n", format.Currency(bd.RelevantFixed))
	fmt.Fprintf(tw, "Custos variáveis do período\t%s\t\n", format.Currency(bd.RelevantVariable))
	fmt.Fprintf(tw, "Eventos esperados no mês\t%s\t\n", format.Number(bd.ExpectedEvents))
	fmt.Fprintf(tw, "Rateio de custos fixos\t%s\t\n", format.Currency(bd.OverheadShare))
	fmt.Fprintf(tw, "Custo dos itens\t%s\t\n", format.Currency(bd.ItemsCost))
	fmt.Fprintf(tw, "Custo total do evento\t%s\t\n", format.Currency(bd.TotalEventCost))
	fmt.Fprintf(tw, "Margem desejada\t%s\t\n", format.Percent(res.MarginPercent))
	fmt.Fprintf(tw, "Preço de venda\t%s\t\n", format.Currency(res.SellingPrice))
	fmt.Fprintf(tw, "Lucro líquido\t%s\t\n", format.Currency(res.NetProfit))
	return tw.Flush()
}

func printDRE(w io.Writer, d reports.DRE) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "DRE %s\t\t\n", format.MonthYear(d.Month))
	fmt.Fprintf(tw, "Eventos realizados\t%d\t\n", d.CompletedEvents)
	fmt.Fprintf(tw, "(+) Receita bruta\t%s\t\n", format.Currency(d.TotalRevenue))
	fmt.Fprintf(tw, "(-) Custos variáveis\t%s\t\n", format.Currency(d.TotalVariableCosts))
	fmt.Fprintf(tw, "(=) Lucro bruto\t%s\t\n", format.Currency(d.GrossProfit))
	fmt.Fprintf(tw, "(-) Custos fixos (%s)\t%s\t\n", d.Scope, format.Currency(d.ActualFixedCosts))
	fmt.Fprintf(tw, "(=) Resultado líquido\t%s\t\n", format.Currency(d.NetResult))
	fmt.Fprintf(tw, "Margem líquida\t%s\t\n", format.Percent(d.NetMarginPercent))
	fmt.Fprintf(tw, "Ponto de equilíbrio\t%s\t\n", format.Currency(d.BreakEven))
	return tw.Flush()
}

func printDashboard(w io.Writer, v service.DashboardView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	k := v.KPIs

	fmt.Fprintf(tw, "Agendados\t%d\t%s\t\n", k.ScheduledCount, format.Currency(k.ScheduledValue))
	fmt.Fprintf(tw, "Pendentes\t%d\t%s\t\n", k.PendingCount, format.Currency(k.PendingValue))
	fmt.Fprintf(tw, "Realizados\t%d\t%s\t\n", k.CompletedCount, format.Currency(k.CompletedValue))
	fmt.Fprintf(tw, "Faturamento do mês\t\t%s\t\n", format.Currency(k.CurrentMonthRevenue))
	fmt.Fprintln(tw, "\t\t\t")
	fmt.Fprintln(tw, "Mês\tReceita\tDespesa\t")
	for _, p := range v.Trend {
		fmt.Fprintf(tw, "%s/%d\t%s\t%s\t\n", p.Label, p.Month.Year,
			format.Currency(p.Revenue), format.Currency(p.Expense))
	}
	return tw.Flush()
}
