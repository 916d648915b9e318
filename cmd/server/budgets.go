package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/export"
	"github.com/Simplici0/buffet/internal/format"
	"github.com/Simplici0/buffet/internal/pricing"
	"github.com/Simplici0/buffet/internal/proposal"
	"github.com/Simplici0/buffet/internal/service"
)

var hundred = decimal.NewFromInt(100)

func (s *server) handleBudgetsList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	status, _ := domain.ParseStatus(r.URL.Query().Get("status"))

	budgets, err := s.budgets.List(r.Context(), service.Filter{Status: status, Query: query})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.renderTemplate(w, http.StatusOK, "budgets.html", budgetsViewData{
		baseViewData: s.base(r, "Orçamentos", "budgets"),
		Query:        query,
		Status:       status,
		Statuses:     domain.Statuses(),
		Budgets:      budgets,
	})
}

func (s *server) handleBudgetNew(w http.ResponseWriter, r *http.Request) {
	s.renderBudgetForm(w, r, http.StatusOK, domain.NewBudget(), "")
}

func (s *server) handleBudgetEdit(w http.ResponseWriter, r *http.Request) {
	b, err := s.budgets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderBudgetForm(w, r, http.StatusOK, b, "")
}

// handleBudgetDuplicate opens the copy in the form; it is only stored once
// the operator saves it.
func (s *server) handleBudgetDuplicate(w http.ResponseWriter, r *http.Request) {
	dup, err := s.budgets.Duplicate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dup.ID = ""
	s.renderBudgetForm(w, r, http.StatusOK, dup, "")
}

// handleBudgetSubmit serves every button of the budget form. Item actions
// re-render the form with a fresh calculation; "save" persists it.
func (s *server) handleBudgetSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	b, invalid := parseBudgetForm(r)
	b.ID = chi.URLParam(r, "id")
	if b.ID != "" {
		stored, err := s.budgets.Get(r.Context(), b.ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		b.CreatedAt = stored.CreatedAt
	}

	action := r.FormValue("action")
	if action == "save" {
		s.saveBudget(w, r, b, invalid)
		return
	}

	if action == "load_category" {
		if categoryID := r.FormValue("category_id"); categoryID != "" {
			items, err := s.budgets.ItemsFromCategory(r.Context(), categoryID)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			b.Items = append(b.Items, items...)
		}
	} else {
		applyItemAction(&b, action)
	}

	status, message := http.StatusOK, ""
	if len(invalid) > 0 {
		status = http.StatusBadRequest
		message = validationMessage(&domain.ValidationError{Fields: invalid})
	}
	s.renderBudgetForm(w, r, status, b, message)
}

func (s *server) saveBudget(w http.ResponseWriter, r *http.Request, b domain.Budget, invalid []string) {
	if fields := mergeFields(invalid, b.Validate()); len(fields) > 0 {
		s.renderBudgetForm(w, r, http.StatusBadRequest, b,
			validationMessage(&domain.ValidationError{Fields: fields}))
		return
	}

	saved, err := s.budgets.Save(r.Context(), b)
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		s.renderBudgetForm(w, r, http.StatusBadRequest, b, validationMessage(verr))
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	redirectWith(w, r, "/budgets/"+saved.ID+"/edit", "success", "Orçamento salvo.")
}

// mergeFields appends the fields reported by err that are not yet listed.
func mergeFields(fields []string, err error) []string {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return fields
	}
	for _, f := range verr.Fields {
		seen := false
		for _, have := range fields {
			if have == f {
				seen = true
				break
			}
		}
		if !seen {
			fields = append(fields, f)
		}
	}
	return fields
}

func (s *server) renderBudgetForm(w http.ResponseWriter, r *http.Request, status int, b domain.Budget, message string) {
	data, err := s.budgets.FormContext(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view := budgetFormViewData{
		baseViewData: s.base(r, "Orçamento", "budgets"),
		Heading:      "Novo orçamento",
		Action:       "/budgets",
		Budget:       b,
		Statuses:     domain.Statuses(),
		Result:       service.Preview(data.PricingContext, b),
		MarginCapped: b.MarginPercent.GreaterThanOrEqual(hundred),
		Categories:   data.Categories,
	}
	if b.ID != "" {
		view.Heading = "Editar orçamento"
		view.Action = "/budgets/" + b.ID
	}
	if message != "" {
		view.ErrorMessage = message
		view.SuccessMessage = ""
	}
	s.renderTemplate(w, status, "budget_form.html", view)
}

// previewResponse carries the live financial summary of the budget form.
type previewResponse struct {
	Values       map[string]string `json:"values"`
	Formatted    map[string]string `json:"formatted"`
	MarginCapped bool              `json:"marginCapped"`
}

func newPreviewResponse(res pricing.Result) previewResponse {
	bd := res.Breakdown
	money := map[string]decimal.Decimal{
		"relevantFixed":    bd.RelevantFixed,
		"relevantVariable": bd.RelevantVariable,
		"totalRelevant":    bd.TotalRelevant,
		"overheadShare":    bd.OverheadShare,
		"itemsCost":        bd.ItemsCost,
		"totalEventCost":   bd.TotalEventCost,
		"sellingPrice":     res.SellingPrice,
		"netProfit":        res.NetProfit,
	}
	out := previewResponse{
		Values:       make(map[string]string, len(money)+1),
		Formatted:    make(map[string]string, len(money)+1),
		MarginCapped: res.MarginPercent.GreaterThanOrEqual(hundred),
	}
	for k, v := range money {
		out.Values[k] = v.StringFixed(2)
		out.Formatted[k] = format.Currency(v)
	}
	out.Values["expectedEvents"] = bd.ExpectedEvents.StringFixed(2)
	out.Formatted["expectedEvents"] = format.Number(bd.ExpectedEvents)
	return out
}

func (s *server) handleBudgetPreview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	b, _ := parseBudgetForm(r)
	res, err := s.budgets.Preview(r.Context(), b)
	if err != nil {
		slog.Error("budget preview", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": msgLoadFailed})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(newPreviewResponse(res))
}

func (s *server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	status, err := domain.ParseStatus(r.FormValue("status"))
	if err != nil {
		s.fail(w, r, &domain.ValidationError{Fields: []string{"status"}})
		return
	}
	if err := s.budgets.SetStatus(r.Context(), chi.URLParam(r, "id"), status); err != nil {
		s.fail(w, r, err)
		return
	}
	redirectWith(w, r, "/budgets", "success", "Status atualizado para "+status.Label()+".")
}

func (s *server) handleBudgetDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.budgets.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	redirectWith(w, r, "/budgets", "success", "Orçamento excluído.")
}

func (s *server) handleProposalPDF(w http.ResponseWriter, r *http.Request) {
	b, err := s.budgets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := proposal.Render(&buf, proposal.Build(b, s.now())); err != nil {
		slog.Error("render proposal", "budget_id", b.ID, "error", err)
		http.Error(w, "failed to render proposal", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(proposal.FileName(b)))
	_, _ = buf.WriteTo(w)
}

func (s *server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgets.List(r.Context(), service.Filter{})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.BudgetsCSV(&buf, budgets); err != nil {
		slog.Error("export csv", "error", err)
		http.Error(w, "failed to export", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment("orcamentos_"+domain.FormatDate(s.now())+".csv"))
	_, _ = buf.WriteTo(w)
}

func (s *server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgets.List(r.Context(), service.Filter{})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.BudgetsJSON(&buf, budgets, s.now()); err != nil {
		slog.Error("export json", "error", err)
		http.Error(w, "failed to export", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", attachment("buffet_backup_"+domain.FormatDate(s.now())+".json"))
	_, _ = buf.WriteTo(w)
}

func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

// parseBudgetForm reads the budget form. It returns the fields that could not
// be parsed; those keep their zero value in the budget.
func parseBudgetForm(r *http.Request) (domain.Budget, []string) {
	b := domain.NewBudget()
	var invalid []string

	b.ClientName = strings.TrimSpace(r.FormValue("client_name"))
	b.ClientPhone = domain.NormalizePhone(r.FormValue("client_phone"))
	b.EventName = strings.TrimSpace(r.FormValue("event_name"))
	b.EventLocation = strings.TrimSpace(r.FormValue("event_location"))

	date, err := domain.ParseDate(strings.TrimSpace(r.FormValue("event_date")))
	if err != nil {
		invalid = append(invalid, "data")
	}
	b.EventDate = date

	if raw := strings.TrimSpace(r.FormValue("guest_count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			invalid = append(invalid, "convidados")
		} else {
			b.GuestCount = n
		}
	}

	if raw := r.FormValue("status"); raw != "" {
		st, err := domain.ParseStatus(raw)
		if err != nil {
			invalid = append(invalid, "status")
		} else {
			b.Status = st
		}
	}

	if raw := strings.TrimSpace(r.FormValue("margin_percent")); raw != "" {
		m, err := format.ParseDecimal(raw)
		if err != nil {
			invalid = append(invalid, "margem")
		} else {
			b.MarginPercent = m
		}
	}

	items, itemFields := parseItems(r)
	b.Items = items
	return b, append(invalid, itemFields...)
}

func parseItems(r *http.Request) ([]domain.BudgetLineItem, []string) {
	ids := r.Form["item_id"]
	names := r.Form["item_name"]
	qtys := r.Form["item_qty"]
	costs := r.Form["item_cost"]

	var badQty, badCost bool
	items := make([]domain.BudgetLineItem, 0, len(names))
	for i, name := range names {
		item := domain.BudgetLineItem{
			ID:       at(ids, i),
			Name:     strings.TrimSpace(name),
			UnitCost: decimal.Zero,
		}
		if raw := strings.TrimSpace(at(qtys, i)); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				badQty = true
			} else {
				item.Quantity = n
			}
		}
		if raw := strings.TrimSpace(at(costs, i)); raw != "" {
			c, err := format.ParseDecimal(raw)
			if err != nil || c.IsNegative() {
				badCost = true
			} else {
				item.UnitCost = c
			}
		}
		if item.ID == "" {
			item.ID = domain.NewItemID()
		}
		items = append(items, item)
	}

	var invalid []string
	if badQty {
		invalid = append(invalid, "quantidade")
	}
	if badCost {
		invalid = append(invalid, "custo unitário")
	}
	return items, invalid
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

// applyItemAction edits the line items for the add, duplicate and remove
// buttons. Unknown actions leave the budget untouched.
func applyItemAction(b *domain.Budget, action string) {
	name, arg, _ := strings.Cut(action, ":")
	if name == "add_item" {
		b.Items = append(b.Items, domain.BudgetLineItem{
			ID:       domain.NewItemID(),
			Quantity: 1,
			UnitCost: decimal.Zero,
		})
		return
	}

	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 || i >= len(b.Items) {
		return
	}
	switch name {
	case "remove_item":
		b.Items = append(b.Items[:i:i], b.Items[i+1:]...)
	case "duplicate_item":
		dup := b.Items[i]
		dup.ID = domain.NewItemID()
		items := make([]domain.BudgetLineItem, 0, len(b.Items)+1)
		items = append(items, b.Items[:i+1]...)
		items = append(items, dup)
		items = append(items, b.Items[i+1:]...)
		b.Items = items
	}
}
