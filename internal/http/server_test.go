package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/narration"
	"fintrack/internal/repository"
	"fintrack/internal/services"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

type stubGenerator struct{ calls int }

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	g.calls++
	return "## Summary\nSpend less on food.", nil
}

type testServer struct {
	*Server
	repo *repository.Repository
	gen  *stubGenerator
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	repo := repository.Open(context.Background(), store.NewTransactionStore(memory.New()))
	t.Cleanup(func() { _ = repo.Close(context.Background()) })

	txs := services.NewTransactionService(repo, time.UTC, nil)
	txs.SetClock(func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) })
	gen := &stubGenerator{}
	ins := services.NewInsightService(repo, narration.New(gen, nil), cache.NewLRUCache[string](4, time.Minute), nil)

	s := NewServer(":0", txs, ins, Options{RateLimitPerMinute: rateLimit})
	t.Cleanup(func() { s.limiter.Stop() })
	return &testServer{Server: s, repo: repo, gen: gen}
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const lunchBody = `{"description":"Lunch","amount":"25,50","date":"2026-10-17","type":"expense","category":"Food"}`

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 60)
	rec := ts.do(t, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCreateAndGetTransaction(t *testing.T) {
	ts := newTestServer(t, 60)

	rec := ts.do(t, http.MethodPost, "/api/transactions", lunchBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[transactionJSON](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(2550), created.Amount.Cents)
	assert.Equal(t, "2026-10-17", created.Date)
	assert.Equal(t, "/api/transactions/"+created.ID, rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), `"amount":25.50`)

	rec = ts.do(t, http.MethodGet, "/api/transactions/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[transactionJSON](t, rec))
}

func TestCreateDefaults(t *testing.T) {
	ts := newTestServer(t, 60)

	rec := ts.do(t, http.MethodPost, "/api/transactions", `{"description":"Salary","amount":3000,"type":"INCOME","category":"ignored"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decode[transactionJSON](t, rec)

	assert.Equal(t, "income", got.Type)
	assert.Equal(t, "Income", got.Category)
	assert.Equal(t, "2026-10-17", got.Date)
}

func TestCreateValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"description":`, http.StatusBadRequest},
		{"trailing data", lunchBody + `{}`, http.StatusBadRequest},
		{"missing amount", `{"description":"x","category":"y"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"description":"x","amount":0,"category":"y"}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"description":"x","amount":"-3","category":"y"}`, http.StatusUnprocessableEntity},
		{"huge exponent amount", `{"description":"x","amount":1e-400000000,"category":"y"}`, http.StatusUnprocessableEntity},
		{"amount above maximum", `{"description":"x","amount":92233720368547758,"category":"y"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"description":"x","amount":1,"date":"17/10/2026","category":"y"}`, http.StatusUnprocessableEntity},
		{"bad type", `{"description":"x","amount":1,"type":"transfer","category":"y"}`, http.StatusUnprocessableEntity},
		{"empty description", `{"description":"  ","amount":1,"category":"y"}`, http.StatusUnprocessableEntity},
		{"expense without category", `{"description":"x","amount":1}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, 60)
			rec := ts.do(t, http.MethodPost, "/api/transactions", tt.body)

			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[ErrorBody](t, rec).Error)
			assert.Zero(t, ts.repo.Len())
		})
	}
}

func TestUpdateTransaction(t *testing.T) {
	ts := newTestServer(t, 60)
	created := decode[transactionJSON](t, ts.do(t, http.MethodPost, "/api/transactions", lunchBody))

	rec := ts.do(t, http.MethodPut, "/api/transactions/"+created.ID,
		`{"description":"Dinner","amount":40,"date":"2026-10-16","type":"expense","category":"Food"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[transactionJSON](t, rec)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Dinner", got.Description)
	assert.Equal(t, int64(4000), got.Amount.Cents)

	rec = ts.do(t, http.MethodPut, "/api/transactions/missing", lunchBody)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTransaction(t *testing.T) {
	ts := newTestServer(t, 60)
	created := decode[transactionJSON](t, ts.do(t, http.MethodPost, "/api/transactions", lunchBody))

	rec := ts.do(t, http.MethodDelete, "/api/transactions/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = ts.do(t, http.MethodDelete, "/api/transactions/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/transactions/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTransactions(t *testing.T) {
	ts := newTestServer(t, 60)
	ts.do(t, http.MethodPost, "/api/transactions", `{"description":"Old","amount":1,"date":"2026-09-01","category":"x"}`)
	ts.do(t, http.MethodPost, "/api/transactions", lunchBody)

	all := decode[[]transactionJSON](t, ts.do(t, http.MethodGet, "/api/transactions", ""))
	require.Len(t, all, 2)
	assert.Equal(t, "Lunch", all[0].Description)
	assert.Equal(t, "Old", all[1].Description)

	sept := decode[[]transactionJSON](t, ts.do(t, http.MethodGet, "/api/transactions?year=2026&month=9", ""))
	require.Len(t, sept, 1)
	assert.Equal(t, "Old", sept[0].Description)

	rec := ts.do(t, http.MethodGet, "/api/transactions?month=13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/transactions?year=2020&month=1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestSummary(t *testing.T) {
	ts := newTestServer(t, 60)
	ts.do(t, http.MethodPost, "/api/transactions", `{"description":"Salary","amount":"3000.00","date":"2026-10-01","type":"income"}`)
	ts.do(t, http.MethodPost, "/api/transactions", lunchBody)

	rec := ts.do(t, http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"year": 2026, "month": 10,
		"monthly_income": 3000.00,
		"monthly_expenses": 25.50,
		"balance": 2974.50,
		"category_breakdown": [{"name": "Food", "amount": 25.50}]
	}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/summary?year=2026&month=9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"year": 2026, "month": 9,
		"monthly_income": 0.00,
		"monthly_expenses": 0.00,
		"balance": 2974.50,
		"category_breakdown": []
	}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/summary?year=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInsights(t *testing.T) {
	ts := newTestServer(t, 60)

	rec := ts.do(t, http.MethodPost, "/api/insights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, narration.MessageNothingToAnalyze, decode[insightResponse](t, rec).Text)

	ts.do(t, http.MethodPost, "/api/transactions", lunchBody)
	rec = ts.do(t, http.MethodPost, "/api/insights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "## Summary\nSpend less on food.", decode[insightResponse](t, rec).Text)

	ts.do(t, http.MethodPost, "/api/insights", "")
	assert.Equal(t, 1, ts.gen.calls)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, 60)
	rec := ts.do(t, http.MethodPatch, "/api/transactions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimitOnMutations(t *testing.T) {
	ts := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		rec := ts.do(t, http.MethodPost, "/api/transactions", lunchBody)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := ts.do(t, http.MethodPost, "/api/transactions", lunchBody)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.NotEmpty(t, decode[ErrorBody](t, rec).Error)

	rec = ts.do(t, http.MethodGet, "/api/transactions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, ts.repo.Len())
}

func TestShutdownIdempotent(t *testing.T) {
	ts := newTestServer(t, 60)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, ts.Shutdown(ctx))
	assert.NoError(t, ts.Shutdown(ctx))
}

// failingTransactions returns err from every lookup and mutation.
type failingTransactions struct {
	TransactionService
	err error
}

func (f failingTransactions) Today() core.Date { return core.NewDate(2026, 10, 17) }

func (f failingTransactions) Get(string) (core.Transaction, error) {
	return core.Transaction{}, f.err
}

func (f failingTransactions) Create(context.Context, core.NewTransaction) (core.Transaction, error) {
	return core.Transaction{}, f.err
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"unexpected failure", errors.New("disk on fire"), http.StatusInternalServerError},
		{"not found", fmt.Errorf("%w: x", services.ErrNotFound), http.StatusNotFound},
		{"validation", fmt.Errorf("%w: %q", core.ErrInvalidType, "transfer"), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(":0", failingTransactions{err: tt.err}, nil, Options{RateLimitPerMinute: 60})
			t.Cleanup(func() { s.limiter.Stop() })
			ts := &testServer{Server: s}

			for _, req := range []struct{ method, target, body string }{
				{http.MethodGet, "/api/transactions/x", ""},
				{http.MethodPost, "/api/transactions", lunchBody},
			} {
				rec := ts.do(t, req.method, req.target, req.body)
				assert.Equal(t, tt.code, rec.Code, rec.Body.String())
				body := decode[ErrorBody](t, rec)
				if tt.code == http.StatusInternalServerError {
					assert.Equal(t, "internal error", body.Error)
				} else {
					assert.NotEmpty(t, body.Error)
				}
			}
		})
	}
}
