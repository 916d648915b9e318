package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/buffet/internal/auth"
	"github.com/Simplici0/buffet/internal/config"
	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/metrics"
	"github.com/Simplici0/buffet/internal/reports"
	"github.com/Simplici0/buffet/internal/service"
	"github.com/Simplici0/buffet/internal/storage"
	"github.com/Simplici0/buffet/web"
)

const (
	msgLoadFailed  = "Não foi possível carregar os dados. Tente novamente."
	msgBadLogin    = "Credenciais inválidas. Tente novamente."
	msgRequired    = "Preencha os campos obrigatórios: "
	msgNotFound    = "O registro solicitado não existe ou foi excluído."
	headingInvalid = "Dados inválidos"
)

var pages = []string{
	"login.html",
	"error.html",
	"dashboard.html",
	"costs.html",
	"budgets.html",
	"budget_form.html",
	"reports.html",
	"guide.html",
}

type pinger interface {
	Ping(ctx context.Context) error
}

type server struct {
	cfg       config.Config
	store     storage.Store
	budgets   *service.Budgets
	reports   *service.Reports
	catalog   *service.Catalog
	passwords *auth.PasswordAuthenticator
	sessions  *auth.SessionManager
	metrics   *metrics.Metrics
	templates map[string]*template.Template
	now       func() time.Time
}

func newServer(cfg config.Config, store storage.Store, sessions *auth.SessionManager, m *metrics.Metrics) (*server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &server{
		cfg:       cfg,
		store:     store,
		budgets:   service.NewBudgets(store, m),
		reports:   service.NewReports(store, reports.ParseFixedCostScope(cfg.ReportFixedCosts)),
		catalog:   service.NewCatalog(store),
		passwords: auth.NewPasswordAuthenticator(store),
		sessions:  sessions,
		metrics:   m,
		templates: templates,
		now:       time.Now,
	}, nil
}

func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(web.Templates, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		out[page] = t
	}
	return out, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(s.authMiddleware)

	static, _ := fs.Sub(web.Static, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLoginSubmit)
	r.Post("/login/demo", s.handleDemoLogin)
	r.Post("/logout", s.handleLogout)

	r.Get("/dashboard", s.handleDashboard)
	r.Get("/reports", s.handleReports)
	r.Get("/guide", s.handleGuide)

	r.Get("/costs", s.handleCosts)
	r.Post("/costs", s.handleCostCreate)
	r.Post("/costs/{id}/delete", s.handleCostDelete)
	r.Post("/settings", s.handleSettingsSave)
	r.Post("/categories", s.handleCategoryCreate)
	r.Post("/categories/{id}/rename", s.handleCategoryRename)
	r.Post("/categories/{id}/delete", s.handleCategoryDelete)
	r.Post("/categories/{id}/items", s.handleTemplateAdd)
	r.Post("/categories/{id}/items/{itemID}/delete", s.handleTemplateRemove)

	r.Get("/budgets", s.handleBudgetsList)
	r.Post("/budgets", s.handleBudgetSubmit)
	r.Get("/budgets/new", s.handleBudgetNew)
	r.Post("/budgets/preview", s.handleBudgetPreview)
	r.Get("/budgets/export.csv", s.handleExportCSV)
	r.Get("/budgets/export.json", s.handleExportJSON)
	r.Get("/budgets/{id}/edit", s.handleBudgetEdit)
	r.Post("/budgets/{id}", s.handleBudgetSubmit)
	r.Get("/budgets/{id}/duplicate", s.handleBudgetDuplicate)
	r.Post("/budgets/{id}/status", s.handleBudgetStatus)
	r.Post("/budgets/{id}/delete", s.handleBudgetDelete)
	r.Get("/budgets/{id}/proposal.pdf", s.handleProposalPDF)

	return r
}

// requestLogger logs one line per request once the route pattern is known.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		slog.Info("http request",
			"method", r.Method,
			"route", metrics.RoutePattern(r),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *server) base(r *http.Request, title, active string) baseViewData {
	b := baseViewData{
		Title:          title,
		Active:         active,
		ErrorMessage:   r.URL.Query().Get("error"),
		SuccessMessage: r.URL.Query().Get("success"),
	}
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		b.Identity = &id
	}
	return b
}

// renderTemplate executes page into a buffer so a failed render never leaves
// a half-written response behind.
func (s *server) renderTemplate(w http.ResponseWriter, status int, page string, data any) {
	t, ok := s.templates[page]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		slog.Error("render template", "page", page, "error", err)
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fail maps an error to the page the operator sees.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	view := errorViewData{baseViewData: s.base(r, "Erro", "")}
	view.ErrorMessage, view.SuccessMessage = "", ""

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		view.Heading = headingInvalid
		view.Message = validationMessage(verr)
		s.renderTemplate(w, http.StatusBadRequest, "error.html", view)
	case errors.Is(err, storage.ErrNotFound):
		view.Heading = "Não encontrado"
		view.Message = msgNotFound
		s.renderTemplate(w, http.StatusNotFound, "error.html", view)
	case errors.Is(err, context.Canceled):
		slog.Debug("request cancelled", "route", metrics.RoutePattern(r))
	default:
		slog.Error("request failed",
			"route", metrics.RoutePattern(r),
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		view.Heading = "Serviço indisponível"
		view.Message = msgLoadFailed
		view.Retry = true
		view.RetryURL = "/dashboard"
		if r.Method == http.MethodGet {
			view.RetryURL = r.URL.RequestURI()
		}
		s.renderTemplate(w, http.StatusServiceUnavailable, "error.html", view)
	}
}

func validationMessage(verr *domain.ValidationError) string {
	return msgRequired + strings.Join(verr.Fields, ", ")
}

// redirectWith sends the browser to path carrying a flash message in the query.
func redirectWith(w http.ResponseWriter, r *http.Request, path, key, message string) {
	target := path
	if message != "" {
		target += "?" + key + "=" + url.QueryEscape(message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
