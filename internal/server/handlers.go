package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leapstack-labs/txt2sql/internal/engine"
	"github.com/leapstack-labs/txt2sql/internal/state"
)

const defaultRunsLimit = 20

type askRequest struct {
	Question   string `json:"question"`
	MaxRetries *int   `json:"max_retries"`
}

type columnResponse struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

type tableResponse struct {
	Name    string           `json:"name"`
	Columns []columnResponse `json:"columns"`
}

type schemaResponse struct {
	Target  string          `json:"target"`
	Dialect string          `json:"dialect"`
	Tables  []tableResponse `json:"tables"`
	Text    string          `json:"text"`
}

type attemptResponse struct {
	SQL   string `json:"sql"`
	Error string `json:"error,omitempty"`
}

type runResponse struct {
	ID          string            `json:"id"`
	Question    string            `json:"question"`
	Target      string            `json:"target"`
	Status      string            `json:"status"`
	SQL         string            `json:"sql,omitempty"`
	Error       string            `json:"error,omitempty"`
	Attempts    int               `json:"attempts"`
	MaxAttempts int               `json:"max_attempts"`
	RowCount    int               `json:"row_count"`
	DurationMS  int64             `json:"duration_ms"`
	StartedAt   time.Time         `json:"started_at"`
	History     []attemptResponse `json:"history,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"request_id": middleware.GetReqID(r.Context()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// reportStatus maps a run status to the response code: answered runs are
// 200, exhausted corrections 422, and fatal runs 502 since they fail on a
// collaborator (database or generator).
func reportStatus(st engine.Status) int {
	switch st {
	case engine.StatusFailed:
		return http.StatusUnprocessableEntity
	case engine.StatusFatal:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body: "+err.Error())
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, r, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required")
		return
	}

	var opts []engine.RunOption
	if req.MaxRetries != nil {
		if *req.MaxRetries < 0 {
			writeError(w, r, http.StatusBadRequest, "INVALID_MAX_RETRIES", "max_retries must be >= 0")
			return
		}
		opts = append(opts, engine.WithMaxAttempts(*req.MaxRetries))
	}

	report := s.engine.Run(r.Context(), question, opts...)
	writeJSON(w, reportStatus(report.Status), report)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	a := s.engine.Adapter()
	schema, err := a.DescribeSchema(r.Context())
	if err != nil {
		s.logger.Warn("schema request failed", "error", err)
		writeError(w, r, http.StatusBadGateway, "SCHEMA_UNAVAILABLE", err.Error())
		return
	}

	resp := schemaResponse{
		Target:  a.DescribeConnection(),
		Dialect: a.Dialect(),
		Tables:  make([]tableResponse, 0, len(schema.Tables)),
		Text:    schema.String(),
	}
	for _, t := range schema.Tables {
		tr := tableResponse{Name: t.Name, Columns: make([]columnResponse, 0, len(t.Columns))}
		for _, c := range t.Columns {
			tr.Columns = append(tr.Columns, columnResponse{Name: c.Name, Type: c.Type, Nullable: c.Nullable})
		}
		resp.Tables = append(resp.Tables, tr)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, http.StatusNotImplemented, "HISTORY_DISABLED", "run history is not enabled")
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "HISTORY_ERROR", err.Error())
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunResponse(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, http.StatusNotImplemented, "HISTORY_DISABLED", "run history is not enabled")
		return
	}

	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, state.ErrRunNotFound) {
		writeError(w, r, http.StatusNotFound, "RUN_NOT_FOUND", err.Error())
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "HISTORY_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

func toRunResponse(run *state.Run) runResponse {
	resp := runResponse{
		ID:          run.ID,
		Question:    run.Question,
		Target:      run.Target,
		Status:      run.Status,
		SQL:         run.SQL,
		Error:       run.Error,
		Attempts:    run.Attempts,
		MaxAttempts: run.MaxAttempts,
		RowCount:    run.RowCount,
		DurationMS:  run.DurationMS,
		StartedAt:   run.StartedAt,
	}
	for _, a := range run.History {
		resp.History = append(resp.History, attemptResponse{SQL: a.SQL, Error: a.Error})
	}
	return resp
}
