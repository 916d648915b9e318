package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/buffet/internal/auth"
	"github.com/Simplici0/buffet/internal/config"
	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/metrics"
	"github.com/Simplici0/buffet/internal/seed"
	"github.com/Simplici0/buffet/internal/storage"
	"github.com/Simplici0/buffet/internal/storage/sqlite"
)

const (
	testEmail    = "admin@buffet.test"
	testPassword = "s3cret-pass"
)

type testOptions struct {
	cfg  func(*config.Config)
	wrap func(storage.Store) storage.Store
}

func newTestServer(t *testing.T, opts testOptions) (*server, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "server-test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if _, err := seed.Run(context.Background(), store.DB(), seed.Config{
		AdminEmail:    testEmail,
		AdminPassword: testPassword,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := config.Default()
	if opts.cfg != nil {
		opts.cfg(&cfg)
	}
	var backing storage.Store = store
	if opts.wrap != nil {
		backing = opts.wrap(store)
	}

	srv, err := newServer(cfg, backing, auth.NewSessionManager("test-secret", time.Hour), metrics.New())
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	srv.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return srv, store
}

func signIn(t *testing.T, srv *server, req *http.Request) *http.Request {
	t.Helper()
	token, err := srv.sessions.Issue(auth.Identity{UserID: "user-1", Email: testEmail})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	return req
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func serve(srv *server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, req)
	return rr
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

func validBudgetForm() url.Values {
	return url.Values{
		"client_name":    {"Ana Souza"},
		"client_phone":   {"(11) 98765-4321"},
		"event_name":     {"Aniversário 15 anos"},
		"event_location": {"Salão Jardim"},
		"event_date":     {"2025-03-15"},
		"guest_count":    {"80"},
		"status":         {"draft"},
		"margin_percent": {"20"},
		"item_id":        {""},
		"item_name":      {"Salgados"},
		"item_qty":       {"2"},
		"item_cost":      {"1000"},
	}
}

func saveBudget(t *testing.T, srv *server) domain.Budget {
	t.Helper()
	b := domain.NewBudget()
	b.ClientName = "Ana Souza"
	b.EventName = "Aniversário"
	b.EventDate = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	b.Items = []domain.BudgetLineItem{{Name: "Salgados", Quantity: 2, UnitCost: decimal.NewFromInt(1000)}}
	saved, err := srv.budgets.Save(context.Background(), b)
	if err != nil {
		t.Fatalf("save budget: %v", err)
	}
	return saved
}

func TestAnonymousRequestsRedirectToLogin(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})

	for _, path := range []string{"/dashboard", "/budgets", "/costs", "/budgets/export.csv"} {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
			t.Fatalf("GET %s: status %d location %q", path, rr.Code, rr.Header().Get("Location"))
		}
	}
}

func TestPublicPathsSkipAuth(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})

	for _, path := range []string{"/login", "/healthz", "/static/app.css", "/metrics"} {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s: status %d", path, rr.Code)
		}
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})

	for _, form := range []url.Values{
		{"email": {testEmail}, "password": {"wrong"}},
		{"email": {"nobody@buffet.test"}, "password": {testPassword}},
	} {
		rr := serve(srv, postForm("/login", form))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), msgBadLogin) {
			t.Fatalf("expected generic message, got: %s", rr.Body.String())
		}
		if sessionCookie(rr) != nil {
			t.Fatalf("no session cookie expected on failure")
		}
	}
}

func TestLoginStartsSession(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})

	rr := serve(srv, postForm("/login", url.Values{"email": {testEmail}, "password": {testPassword}}))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/dashboard" {
		t.Fatalf("status %d location %q", rr.Code, rr.Header().Get("Location"))
	}
	cookie := sessionCookie(rr)
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("expected http-only session cookie, got %+v", cookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rr = serve(srv, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), testEmail) {
		t.Fatalf("expected signed-in email in navigation")
	}
}

func TestDemoLogin(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})

	rr := serve(srv, postForm("/login/demo", nil))
	cookie := sessionCookie(rr)
	if rr.Code != http.StatusSeeOther || cookie == nil {
		t.Fatalf("status %d cookie %+v", rr.Code, cookie)
	}
	id, err := srv.sessions.Verify(cookie.Value)
	if err != nil {
		t.Fatalf("verify demo token: %v", err)
	}
	if !id.Demo || id.UserID != auth.DemoIdentity().UserID {
		t.Fatalf("unexpected identity %+v", id)
	}

	disabled, _ := newTestServer(t, testOptions{cfg: func(c *config.Config) { c.DemoEnabled = false }})
	if rr := serve(disabled, postForm("/login/demo", nil)); rr.Code != http.StatusNotFound {
		t.Fatalf("disabled demo status = %d, want 404", rr.Code)
	}
}

func TestBudgetSaveRequiresFields(t *testing.T) {
	srv, store := newTestServer(t, testOptions{})

	form := url.Values{"action": {"save"}, "margin_percent": {"20"}}
	rr := serve(srv, signIn(t, srv, postForm("/budgets", form)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	want := "Preencha os campos obrigatórios: cliente, nome do evento, data"
	if !strings.Contains(rr.Body.String(), want) {
		t.Fatalf("expected %q in body", want)
	}
	budgets, err := store.ListBudgets(context.Background())
	if err != nil || len(budgets) != 0 {
		t.Fatalf("nothing should be stored: %v %v", budgets, err)
	}
}

func TestBudgetSaveRejectsNegativeQuantity(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})

	form := validBudgetForm()
	form.Set("action", "save")
	form.Set("item_qty", "-3")
	rr := serve(srv, signIn(t, srv, postForm("/budgets", form)))

	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "quantidade") {
		t.Fatalf("status %d, body: %s", rr.Code, rr.Body.String())
	}
}

func TestBudgetSaveStoresSnapshot(t *testing.T) {
	srv, store := newTestServer(t, testOptions{})

	form := validBudgetForm()
	form.Set("action", "save")
	rr := serve(srv, signIn(t, srv, postForm("/budgets", form)))

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, body: %s", rr.Code, rr.Body.String())
	}
	loc := rr.Header().Get("Location")
	if !strings.HasPrefix(loc, "/budgets/") || !strings.Contains(loc, "/edit") {
		t.Fatalf("location = %q", loc)
	}

	budgets, err := store.ListBudgets(context.Background())
	if err != nil || len(budgets) != 1 {
		t.Fatalf("budgets = %v, err = %v", budgets, err)
	}
	b := budgets[0]
	// No costs are stored, so the price is items cost 2000 at a 20% margin.
	if !b.TotalSales.Equal(decimal.NewFromInt(2500)) || !b.NetProfit.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("snapshot = sales %s profit %s", b.TotalSales, b.NetProfit)
	}
	if b.ClientPhone != "11987654321" || b.GuestCount != 80 {
		t.Fatalf("unexpected budget %+v", b)
	}
}

func TestBudgetFormActionsRerender(t *testing.T) {
	srv, store := newTestServer(t, testOptions{})

	form := validBudgetForm()
	form.Set("action", "add_item")
	rr := serve(srv, signIn(t, srv, postForm("/budgets", form)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := strings.Count(rr.Body.String(), `name="item_name"`); got != 2 {
		t.Fatalf("item rows = %d, want 2", got)
	}

	cats, err := store.ListCategories(context.Background())
	if err != nil || len(cats) == 0 {
		t.Fatalf("starter category missing: %v", err)
	}
	form = validBudgetForm()
	form.Set("action", "load_category")
	form.Set("category_id", cats[0].ID)
	rr = serve(srv, signIn(t, srv, postForm("/budgets", form)))
	if got := strings.Count(rr.Body.String(), `name="item_name"`); got != 1+len(cats[0].Items) {
		t.Fatalf("item rows = %d, want %d", got, 1+len(cats[0].Items))
	}

	budgets, _ := store.ListBudgets(context.Background())
	if len(budgets) != 0 {
		t.Fatalf("form actions must not persist, got %d budgets", len(budgets))
	}
}

func TestBudgetPreviewJSON(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})

	rr := serve(srv, signIn(t, srv, postForm("/budgets/preview", validBudgetForm())))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var got previewResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Formatted["sellingPrice"] != "R$ 2.500,00" || got.Values["itemsCost"] != "2000.00" {
		t.Fatalf("unexpected preview %+v", got)
	}
	if got.MarginCapped {
		t.Fatalf("20%% margin must not be capped")
	}
}

func TestBudgetPreviewMarginJustBelowHundred(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})
	form := validBudgetForm()
	form.Set("margin_percent", "99,99999999999999999")

	rr := serve(srv, signIn(t, srv, postForm("/budgets/preview", form)))
	if rr.Code != http.StatusOK {
		t.Fatalf("preview status = %d", rr.Code)
	}
	var got previewResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Formatted["sellingPrice"] != "R$ 20.000.000.000.000.000.000.000,00" {
		t.Fatalf("sellingPrice = %q", got.Formatted["sellingPrice"])
	}

	form.Set("action", "recalc")
	rr = serve(srv, signIn(t, srv, postForm("/budgets", form)))
	if rr.Code != http.StatusOK {
		t.Fatalf("form re-render status = %d", rr.Code)
	}
}

func TestBudgetStatusAndDelete(t *testing.T) {
	srv, store := newTestServer(t, testOptions{})
	b := saveBudget(t, srv)

	rr := serve(srv, signIn(t, srv, postForm("/budgets/"+b.ID+"/status", url.Values{"status": {"scheduled"}})))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status change = %d", rr.Code)
	}
	got, err := store.GetBudget(context.Background(), b.ID)
	if err != nil || got.Status != domain.StatusScheduled {
		t.Fatalf("status = %q, err = %v", got.Status, err)
	}
	if !got.TotalSales.Equal(b.TotalSales) {
		t.Fatalf("status change must keep the snapshot")
	}

	rr = serve(srv, signIn(t, srv, postForm("/budgets/"+b.ID+"/status", url.Values{"status": {"cancelled"}})))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown status = %d, want 400", rr.Code)
	}

	rr = serve(srv, signIn(t, srv, postForm("/budgets/"+b.ID+"/delete", nil)))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("delete = %d", rr.Code)
	}
	if _, err := store.GetBudget(context.Background(), b.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestBudgetDuplicateOpensUnsavedCopy(t *testing.T) {
	srv, store := newTestServer(t, testOptions{})
	b := saveBudget(t, srv)

	rr := serve(srv, signIn(t, srv, httptest.NewRequest(http.MethodGet, "/budgets/"+b.ID+"/duplicate", nil)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `action="/budgets"`) || !strings.Contains(body, "[CÓPIA] Aniversário") {
		t.Fatalf("expected create form for the copy, got: %s", body)
	}
	budgets, _ := store.ListBudgets(context.Background())
	if len(budgets) != 1 {
		t.Fatalf("duplicate must not be stored before save, got %d", len(budgets))
	}
}

func TestHandleBudgetEditMissingIs404(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})

	req := httptest.NewRequest(http.MethodGet, "/budgets/missing/edit", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "missing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	srv.handleBudgetEdit(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestProposalPDF(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})
	b := saveBudget(t, srv)

	rr := serve(srv, signIn(t, srv, httptest.NewRequest(http.MethodGet, "/budgets/"+b.ID+"/proposal.pdf", nil)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "Orcamento_Ana_Souza_2025-03-15.pdf") {
		t.Fatalf("content disposition = %q", cd)
	}
	if !strings.HasPrefix(rr.Body.String(), "%PDF") {
		t.Fatalf("body is not a PDF")
	}
}

func TestExports(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})
	saveBudget(t, srv)

	rr := serve(srv, signIn(t, srv, httptest.NewRequest(http.MethodGet, "/budgets/export.csv", nil)))
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("csv status %d type %q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "Ana Souza") {
		t.Fatalf("csv missing budget row: %s", rr.Body.String())
	}

	rr = serve(srv, signIn(t, srv, httptest.NewRequest(http.MethodGet, "/budgets/export.json", nil)))
	if rr.Code != http.StatusOK || !json.Valid(rr.Body.Bytes()) {
		t.Fatalf("json status %d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "buffet_backup_2025-03-10.json") {
		t.Fatalf("content disposition = %q", cd)
	}
}

type failingStore struct {
	storage.Store
}

func (failingStore) ListBudgets(context.Context) ([]domain.Budget, error) {
	return nil, errors.New("disk I/O error")
}

func TestStoreFailureRendersRetryPage(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{wrap: func(s storage.Store) storage.Store { return failingStore{s} }})

	for _, path := range []string{"/budgets", "/dashboard", "/reports"} {
		rr := serve(srv, signIn(t, srv, httptest.NewRequest(http.MethodGet, path, nil)))
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("GET %s: status = %d, want 503", path, rr.Code)
		}
		body := rr.Body.String()
		if !strings.Contains(body, msgLoadFailed) || !strings.Contains(body, "Tentar novamente") {
			t.Fatalf("GET %s: expected retryable error page, got: %s", path, body)
		}
	}
}

func TestCostsPageWrites(t *testing.T) {
	srv, store := newTestServer(t, testOptions{})
	ctx := context.Background()

	rr := serve(srv, signIn(t, srv, postForm("/costs", url.Values{
		"name": {"Aluguel"}, "amount": {"4.000,00"}, "kind": {"fixed"},
	})))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("add cost = %d", rr.Code)
	}
	costs, err := store.ListCosts(ctx)
	if err != nil || len(costs) != 1 || !costs[0].Amount.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("costs = %+v, err = %v", costs, err)
	}

	rr = serve(srv, signIn(t, srv, postForm("/costs", url.Values{"amount": {"abc"}, "kind": {"fixed"}})))
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "nome, valor") {
		t.Fatalf("invalid cost: status %d", rr.Code)
	}

	rr = serve(srv, signIn(t, srv, postForm("/settings", url.Values{"occupancy_rate": {"50"}, "working_days": {"20"}})))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("save settings = %d", rr.Code)
	}
	settings, _ := store.GetSettings(ctx)
	if !settings.OccupancyRate.Equal(decimal.NewFromInt(50)) || settings.WorkingDaysPerMonth != 20 {
		t.Fatalf("settings = %+v", settings)
	}

	rr = serve(srv, signIn(t, srv, httptest.NewRequest(http.MethodGet, "/costs", nil)))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Eventos esperados por mês: 10,00") {
		t.Fatalf("costs page status %d", rr.Code)
	}
}

func TestMetricsCountRequestsByRoute(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})
	serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	want := `buffet_http_requests_total{method="GET",route="/healthz",status="200"} 1`
	if !strings.Contains(rr.Body.String(), want) {
		t.Fatalf("expected %q in metrics output", want)
	}
}
