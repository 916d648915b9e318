package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/format"
	"github.com/Simplici0/buffet/internal/pricing"
	"github.com/Simplici0/buffet/internal/reports"
)

// monthParam reads ?month=YYYY-MM, falling back to the current month.
func (s *server) monthParam(r *http.Request) domain.Month {
	if m, err := domain.ParseMonth(r.URL.Query().Get("month")); err == nil {
		return m
	}
	return domain.MonthOf(s.now())
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	month := s.monthParam(r)
	view, err := s.reports.Dashboard(r.Context(), month)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.renderTemplate(w, http.StatusOK, "dashboard.html", dashboardViewData{
		baseViewData: s.base(r, "Dashboard", "dashboard"),
		View:         view,
		Bars:         chartBars(view.Trend),
		MonthLabel:   format.MonthYear(month),
		PrevMonth:    month.AddMonths(-1).String(),
		NextMonth:    month.AddMonths(1).String(),
		Weekdays:     reports.WeekdayLabels,
	})
}

func (s *server) handleReports(w http.ResponseWriter, r *http.Request) {
	month := s.monthParam(r)
	dre, err := s.reports.MonthlyDRE(r.Context(), month)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.renderTemplate(w, http.StatusOK, "reports.html", reportsViewData{
		baseViewData:  s.base(r, "Relatórios", "reports"),
		Month:         month.String(),
		MonthLabel:    format.MonthYear(month),
		DRE:           dre,
		AllFixedCosts: s.reports.Scope() == reports.FixedCostsAll,
	})
}

func (s *server) handleGuide(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, http.StatusOK, "guide.html", s.base(r, "Guia", "guide"))
}

func (s *server) handleCosts(w http.ResponseWriter, r *http.Request) {
	s.renderCosts(w, r, http.StatusOK, "")
}

func (s *server) renderCosts(w http.ResponseWriter, r *http.Request, status int, message string) {
	data, err := s.catalog.Overview(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	fixed, variable := sumCosts(data.Costs)
	view := costsViewData{
		baseViewData:   s.base(r, "Custos", "costs"),
		Settings:       data.Settings,
		ExpectedEvents: pricing.ExpectedEvents(data.Settings),
		Costs:          data.Costs,
		TotalFixed:     fixed,
		TotalVariable:  variable,
		Categories:     data.Categories,
	}
	if message != "" {
		view.ErrorMessage = message
		view.SuccessMessage = ""
	}
	s.renderTemplate(w, status, "costs.html", view)
}

// afterCatalogWrite re-renders the costs page on validation errors and
// redirects back to it otherwise.
func (s *server) afterCatalogWrite(w http.ResponseWriter, r *http.Request, err error, success string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		s.renderCosts(w, r, http.StatusBadRequest, validationMessage(verr))
	case err != nil:
		s.fail(w, r, err)
	default:
		redirectWith(w, r, "/costs", "success", success)
	}
}

func (s *server) handleSettingsSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	var invalid []string
	rate, err := format.ParseDecimal(r.FormValue("occupancy_rate"))
	if err != nil {
		invalid = append(invalid, "taxa de ocupação")
	}
	days, err := strconv.Atoi(strings.TrimSpace(r.FormValue("working_days")))
	if err != nil {
		invalid = append(invalid, "dias úteis")
	}
	if len(invalid) > 0 {
		s.afterCatalogWrite(w, r, &domain.ValidationError{Fields: invalid}, "")
		return
	}

	err = s.catalog.SaveSettings(r.Context(), domain.SystemSettings{
		OccupancyRate:       rate,
		WorkingDaysPerMonth: days,
	})
	s.afterCatalogWrite(w, r, err, "Parâmetros salvos.")
}

func (s *server) handleCostCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	amount, err := format.ParseDecimal(r.FormValue("amount"))
	if err != nil {
		// AddCost reports negative amounts as "valor".
		amount = decimal.NewFromInt(-1)
	}
	_, err = s.catalog.AddCost(r.Context(), domain.CostRecord{
		Name:      r.FormValue("name"),
		Amount:    amount,
		Kind:      domain.CostKind(r.FormValue("kind")),
		MonthYear: r.FormValue("month_year"),
	})
	s.afterCatalogWrite(w, r, err, "Custo adicionado.")
}

func (s *server) handleCostDelete(w http.ResponseWriter, r *http.Request) {
	err := s.catalog.DeleteCost(r.Context(), chi.URLParam(r, "id"))
	s.afterCatalogWrite(w, r, err, "Custo excluído.")
}

func (s *server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	_, err := s.catalog.CreateCategory(r.Context(), r.FormValue("name"))
	s.afterCatalogWrite(w, r, err, "Grupo criado.")
}

func (s *server) handleCategoryRename(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	err := s.catalog.RenameCategory(r.Context(), chi.URLParam(r, "id"), r.FormValue("name"))
	s.afterCatalogWrite(w, r, err, "Grupo renomeado.")
}

func (s *server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	err := s.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id"))
	s.afterCatalogWrite(w, r, err, "Grupo excluído.")
}

func (s *server) handleTemplateAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	cost, err := format.ParseDecimal(r.FormValue("unit_cost"))
	if err != nil {
		cost = decimal.NewFromInt(-1)
	}
	err = s.catalog.AddTemplate(r.Context(), chi.URLParam(r, "id"), r.FormValue("name"), cost)
	s.afterCatalogWrite(w, r, err, "Item adicionado ao grupo.")
}

func (s *server) handleTemplateRemove(w http.ResponseWriter, r *http.Request) {
	err := s.catalog.RemoveTemplate(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemID"))
	s.afterCatalogWrite(w, r, err, "Item removido do grupo.")
}
