package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/txt2sql/internal/engine"
	"github.com/leapstack-labs/txt2sql/internal/llm"
	"github.com/leapstack-labs/txt2sql/internal/state"
	"github.com/leapstack-labs/txt2sql/internal/testutil"
	"github.com/leapstack-labs/txt2sql/pkg/adapters/sqlite"
	"github.com/leapstack-labs/txt2sql/pkg/core"
)

type fixture struct {
	handler http.Handler
	gen     *llm.Scripted
	store   *state.SQLiteStore
}

func newFixture(t *testing.T, withStore bool, replies ...string) *fixture {
	t.Helper()
	logger := testutil.NewTestLogger(t)

	a, err := sqlite.New(core.TargetConfig{Type: "sqlite", Database: testutil.SeedSQLite(t)}, logger)
	require.NoError(t, err)
	gen := llm.NewScripted(replies...)

	f := &fixture{gen: gen}
	var observer engine.Observer
	var store state.Store
	if withStore {
		f.store, err = state.Open(filepath.Join(t.TempDir(), "history.db"), logger)
		require.NoError(t, err)
		t.Cleanup(func() { _ = f.store.Close() })
		observer = state.Recorder(context.Background(), f.store, logger)
		store = f.store
	}

	eng, err := engine.New(engine.Config{Adapter: a, Generator: gen, MaxAttempts: 2, Logger: logger, Observer: observer})
	require.NoError(t, err)

	srv, err := New(Config{Engine: eng, Store: store, Logger: logger})
	require.NoError(t, err)
	f.handler = srv.Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func yamlReply(sql string) string {
	return "```yaml\nsql: |\n  " + sql + "\n```"
}

func TestNew_RequiresEngine(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)
	rr := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode(t, rr)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, false)
	rr := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "txt2sql_http_requests_total")
}

func TestAsk(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		replies    []string
		wantCode   int
		wantStatus string
		wantCalls  int
	}{
		{
			name:       "success",
			body:       `{"question":"customers in New York"}`,
			replies:    []string{yamlReply("SELECT name FROM customers WHERE city = 'New York' ORDER BY id")},
			wantCode:   http.StatusOK,
			wantStatus: "success",
			wantCalls:  1,
		},
		{
			name:       "schema question",
			body:       `{"question":"describe the schema"}`,
			wantCode:   http.StatusOK,
			wantStatus: "schema",
			wantCalls:  0,
		},
		{
			name:       "exhausted with max_retries override",
			body:       `{"question":"q","max_retries":0}`,
			replies:    []string{yamlReply("SELECT nope FROM nowhere")},
			wantCode:   http.StatusUnprocessableEntity,
			wantStatus: "failed",
			wantCalls:  1,
		},
		{
			name:       "fatal when generator has nothing",
			body:       `{"question":"q"}`,
			wantCode:   http.StatusBadGateway,
			wantStatus: "fatal",
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false, tt.replies...)

			rr := f.do(t, http.MethodPost, "/v1/ask", tt.body)
			require.Equal(t, tt.wantCode, rr.Code, rr.Body.String())

			body := decode(t, rr)
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.NotEmpty(t, body["run_id"])
			assert.Equal(t, tt.wantCalls, f.gen.CallCount())
		})
	}
}

func TestAsk_ReturnsRows(t *testing.T) {
	f := newFixture(t, false, yamlReply("SELECT name FROM customers WHERE city = 'New York' ORDER BY id"))

	rr := f.do(t, http.MethodPost, "/v1/ask", `{"question":"who lives in New York?"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, []any{"name"}, body["columns"])
	assert.Equal(t, []any{[]any{"Ann"}, []any{"Cy"}}, body["rows"])
}

func TestAsk_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"invalid json", `{`, "INVALID_JSON"},
		{"unknown field", `{"question":"q","sql":"x"}`, "INVALID_JSON"},
		{"empty question", `{"question":"   "}`, "QUESTION_REQUIRED"},
		{"negative retries", `{"question":"q","max_retries":-1}`, "INVALID_MAX_RETRIES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			rr := f.do(t, http.MethodPost, "/v1/ask", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.code, decode(t, rr)["error_code"])
			assert.Zero(t, f.gen.CallCount())
		})
	}
}

func TestSchema(t *testing.T) {
	f := newFixture(t, false)

	rr := f.do(t, http.MethodGet, "/v1/schema", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body schemaResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "SQLite", body.Dialect)
	assert.True(t, strings.HasPrefix(body.Target, "SQLite: "))
	require.Len(t, body.Tables, 2)
	assert.Equal(t, "customers", body.Tables[0].Name)
	assert.Equal(t, "id", body.Tables[0].Columns[0].Name)
	assert.Contains(t, body.Text, "Table: orders")
}

func TestRuns_HistoryDisabled(t *testing.T) {
	f := newFixture(t, false)
	rr := f.do(t, http.MethodGet, "/v1/runs", "")
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestRuns_RecordedAndFetched(t *testing.T) {
	f := newFixture(t, true, yamlReply("SELECT count(*) AS n FROM orders"))

	ask := f.do(t, http.MethodPost, "/v1/ask", `{"question":"how many orders?"}`)
	require.Equal(t, http.StatusOK, ask.Code)
	runID := decode(t, ask)["run_id"].(string)

	list := f.do(t, http.MethodGet, "/v1/runs?limit=5", "")
	require.Equal(t, http.StatusOK, list.Code)
	runs := decode(t, list)["runs"].([]any)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].(map[string]any)["id"])

	one := f.do(t, http.MethodGet, "/v1/runs/"+runID, "")
	require.Equal(t, http.StatusOK, one.Code)
	got := decode(t, one)
	assert.Equal(t, "how many orders?", got["question"])
	assert.Equal(t, float64(1), got["row_count"])
	assert.Len(t, got["history"], 1)

	missing := f.do(t, http.MethodGet, "/v1/runs/nope", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)

	bad := f.do(t, http.MethodGet, "/v1/runs?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}
