package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MedicD21/InnieOutie/internal/core"
	"github.com/MedicD21/InnieOutie/internal/report"
	"github.com/MedicD21/InnieOutie/internal/services"
	"github.com/MedicD21/InnieOutie/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	svc := services.NewLedgerService(repo, nil)
	srv := NewServer("127.0.0.1:0", svc, "USD")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		svc.Close()
	})
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postExpense(t *testing.T, srv *Server, amount, date, categoryID, note string) core.Expense {
	t.Helper()

	rr := doRequest(t, srv, http.MethodPost, "/api/expenses", expenseRequest{
		Amount: amount, Date: date, CategoryID: categoryID, Note: note,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create expense: status %d, body %s", rr.Code, rr.Body.String())
	}
	var e core.Expense
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode expense: %v", err)
	}
	return e
}

func postIncome(t *testing.T, srv *Server, amount, date, source string) core.Income {
	t.Helper()

	rr := doRequest(t, srv, http.MethodPost, "/api/income", incomeRequest{
		Amount: amount, Date: date, Source: source,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create income: status %d, body %s", rr.Code, rr.Body.String())
	}
	var in core.Income
	if err := json.Unmarshal(rr.Body.Bytes(), &in); err != nil {
		t.Fatalf("decode income: %v", err)
	}
	return in
}

func seedMarch(t *testing.T, srv *Server) {
	t.Helper()
	postExpense(t, srv, "100", "2025-03-10", "travel-mileage", "client visit")
	postExpense(t, srv, "80", "2025-03-15", "software-tools", "editor license")
	postIncome(t, srv, "800", "2025-03-05", "Acme Corp")
	postIncome(t, srv, "200", "2025-03-20", "Upwork")
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t)

	e := postExpense(t, srv, "42.50", "2025-03-10", "software-tools", "subscription")
	if e.ID == "" {
		t.Fatal("expected generated id")
	}

	rr := doRequest(t, srv, http.MethodGet, "/api/expenses", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: status %d", rr.Code)
	}
	var listed []core.Expense
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != e.ID {
		t.Fatalf("expected the created expense, got %+v", listed)
	}

	rr = doRequest(t, srv, http.MethodPut, "/api/expenses/"+e.ID, expenseRequest{
		Amount: "50", Date: "2025-03-11", CategoryID: "software-tools", Note: "renewed",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: status %d, body %s", rr.Code, rr.Body.String())
	}
	var updated core.Expense
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if updated.Note != "renewed" || updated.Amount.String() != "50" {
		t.Fatalf("unexpected updated expense: %+v", updated)
	}

	rr = doRequest(t, srv, http.MethodDelete, "/api/expenses/"+e.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodDelete, "/api/expenses/"+e.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("delete missing: status %d, want 404", rr.Code)
	}
}

func TestUpdateNormalizesTagIDs(t *testing.T) {
	srv := newTestServer(t)

	e := postExpense(t, srv, "10", "2025-03-10", "software-tools", "")

	rr := doRequest(t, srv, http.MethodPut, "/api/expenses/"+e.ID, expenseRequest{
		Amount: "10", Date: "2025-03-10", CategoryID: "software-tools",
		TagIDs: []string{" acme ", "acme", "", "beta"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: status %d, body %s", rr.Code, rr.Body.String())
	}
	var updated core.Expense
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if len(updated.TagIDs) != 2 || updated.TagIDs[0] != "acme" || updated.TagIDs[1] != "beta" {
		t.Fatalf("tag ids not normalized: %v", updated.TagIDs)
	}

	// The stored row round-trips the canonical list, not the raw one.
	stored, err := srv.ledger.Storage().GetExpense(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if len(stored.TagIDs) != 2 || stored.TagIDs[0] != "acme" || stored.TagIDs[1] != "beta" {
		t.Fatalf("stored tag ids not normalized: %v", stored.TagIDs)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		req  expenseRequest
	}{
		{"zero amount", expenseRequest{Amount: "0", Date: "2025-03-10", CategoryID: "misc-write-offs"}},
		{"negative amount", expenseRequest{Amount: "-5", Date: "2025-03-10", CategoryID: "misc-write-offs"}},
		{"bad date", expenseRequest{Amount: "10", Date: "March 10", CategoryID: "misc-write-offs"}},
		{"empty category", expenseRequest{Amount: "10", Date: "2025-03-10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, srv, http.MethodPost, "/api/expenses", tt.req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400", rr.Code)
			}
		})
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	srv := newTestServer(t)
	seedMarch(t, srv)

	rr := doRequest(t, srv, http.MethodGet, "/api/snapshot?year=2025&month=3", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rr.Code, rr.Body.String())
	}

	var resp snapshotResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if resp.Month != "2025-03" {
		t.Fatalf("month = %q, want 2025-03", resp.Month)
	}
	if got := resp.TotalExpenses.String(); got != "180" {
		t.Fatalf("total expenses = %s, want 180", got)
	}
	if got := resp.TotalIncome.String(); got != "1000" {
		t.Fatalf("total income = %s, want 1000", got)
	}
	if got := resp.NetProfit.String(); got != "820" {
		t.Fatalf("net profit = %s, want 820", got)
	}
	if resp.MoMChange != nil {
		t.Fatal("momChange attached without mom=1")
	}
	if len(resp.TopCategories) != 2 {
		t.Fatalf("top categories = %d, want 2", len(resp.TopCategories))
	}
	if resp.TopCategories[0].Name != "Travel & Mileage" {
		t.Fatalf("top category = %q, want Travel & Mileage", resp.TopCategories[0].Name)
	}
}

func TestSnapshotMoM(t *testing.T) {
	srv := newTestServer(t)
	seedMarch(t, srv)

	rr := doRequest(t, srv, http.MethodGet, "/api/snapshot?year=2025&month=3&mom=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var resp snapshotResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if resp.MoMChange == nil {
		t.Fatal("expected momChange with mom=1")
	}
	if *resp.MoMChange != 100 {
		t.Fatalf("momChange = %v, want 100 for empty previous month", *resp.MoMChange)
	}
}

func TestSnapshotCacheInvalidation(t *testing.T) {
	srv := newTestServer(t)
	seedMarch(t, srv)

	rr := doRequest(t, srv, http.MethodGet, "/api/snapshot?year=2025&month=3", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}

	postExpense(t, srv, "20", "2025-03-25", "insurance", "")

	rr = doRequest(t, srv, http.MethodGet, "/api/snapshot?year=2025&month=3", nil)
	var resp snapshotResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if got := resp.TotalExpenses.String(); got != "200" {
		t.Fatalf("total expenses after write = %s, want 200", got)
	}
}

func TestSnapshotBadMonth(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/snapshot?year=2025&month=13", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rr.Code)
	}
}

func TestAnnualReportEndpoint(t *testing.T) {
	srv := newTestServer(t)
	seedMarch(t, srv)

	rr := doRequest(t, srv, http.MethodGet, "/api/reports/annual?year=2025", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var rep report.Annual
	if err := json.Unmarshal(rr.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(rep.Months) != 12 {
		t.Fatalf("months = %d, want 12", len(rep.Months))
	}
	if got := rep.NetProfit.String(); got != "820" {
		t.Fatalf("net profit = %s, want 820", got)
	}
}

func TestTagReportRequiresParams(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/reports/tag?start=2025-01-01&end=2025-12-31", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing tag: status %d, want 400", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodGet, "/api/reports/tag?tag=x&start=2025-12-31&end=2025-01-01", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("inverted range: status %d, want 400", rr.Code)
	}
}

func TestDefaultCategoryDeleteRejected(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/categories", nil)
	var categories []core.Category
	if err := json.Unmarshal(rr.Body.Bytes(), &categories); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(categories) != 13 {
		t.Fatalf("categories = %d, want 13 defaults", len(categories))
	}

	rr = doRequest(t, srv, http.MethodDelete, "/api/categories/software-tools", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", rr.Code)
	}
}

func TestTagLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/tags", tagRequest{Name: "ClientX"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create tag: status %d", rr.Code)
	}
	var tag core.Tag
	if err := json.Unmarshal(rr.Body.Bytes(), &tag); err != nil {
		t.Fatalf("decode tag: %v", err)
	}
	if tag.Color != "blue" {
		t.Fatalf("color = %q, want default blue", tag.Color)
	}

	rr = doRequest(t, srv, http.MethodDelete, "/api/tags/"+tag.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete tag: status %d", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodDelete, "/api/tags/"+tag.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("delete missing tag: status %d, want 404", rr.Code)
	}
}

func TestMonthlyExportCSV(t *testing.T) {
	srv := newTestServer(t)
	seedMarch(t, srv)

	rr := doRequest(t, srv, http.MethodGet, "/api/export/monthly?year=2025&month=3", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q, want text/csv", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "innieoutie-2025-03.csv") {
		t.Fatalf("content disposition = %q", cd)
	}

	body := rr.Body.String()
	for _, want := range []string{"InnieOutie", "Total Income,$1000.00", "Net Profit,$820.00"} {
		if !strings.Contains(body, want) {
			t.Fatalf("export missing %q:\n%s", want, body)
		}
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	srv := newTestServer(t)

	var limited bool
	for i := 0; i < requestsPerMinute+1; i++ {
		rr := doRequest(t, srv, http.MethodPost, "/api/expenses", expenseRequest{
			Amount: "10", Date: "2025-03-10", CategoryID: "misc-write-offs",
			Note: fmt.Sprintf("purchase %d", i),
		})
		if rr.Code == http.StatusTooManyRequests {
			if got := rr.Header().Get("Retry-After"); got != "60" {
				t.Fatalf("Retry-After = %q, want 60", got)
			}
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected a 429 after exceeding the per-minute write limit")
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doRequest(t, srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rr.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/categories", nil)
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
}
