// Package api exposes the operational HTTP surface: health, metrics,
// provider budget status, and the AI audit trail.
package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/antigravity-ai/antigravity/pkg/analyzer"
	"github.com/antigravity-ai/antigravity/pkg/provider"
	"github.com/antigravity-ai/antigravity/pkg/sched"
	"github.com/antigravity-ai/antigravity/pkg/store"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

// StatusSource reports the provider limiter occupancy. Satisfied by the
// analyzer router.
type StatusSource interface {
	Status() []analyzer.ProviderStatus
}

// AuditSource reads back recorded provider attempts. Satisfied by the store.
type AuditSource interface {
	RecentAudit(ctx context.Context, limit int) ([]store.AuditEntry, error)
}

// SnapshotSource reads back the latest stored payload per data source.
// Satisfied by the store.
type SnapshotSource interface {
	LatestSnapshot(ctx context.Context, kind string, dest any) (bool, error)
}

// Server encapsulates the HTTP API server.
type Server struct {
	server    *http.Server
	status    StatusSource
	audit     AuditSource
	sched     NextSource
	analyzer  Analyzer
	pusher    Pusher
	snapshots SnapshotSource
	logger    *zap.Logger
}

// NextSource reports the next scheduled fire and per-job bookkeeping.
// Satisfied by the scheduler.
type NextSource interface {
	Next() time.Time
	Status() []sched.JobStatus
}

// Analyzer runs one AI analysis request. Satisfied by the analyzer router.
type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) analyzer.Result
}

// Pusher triggers the daily pipelines. Satisfied by the push pipeline.
type Pusher interface {
	PushAll(ctx context.Context) error
}

// NewServer creates the API server. audit and sched may be nil; their
// endpoints then report empty results.
func NewServer(addr string, status StatusSource, audit AuditSource, sched NextSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if addr == "" {
		addr = ":8090"
	}

	s := &Server{
		status: status,
		audit:  audit,
		sched:  sched,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/audit", s.handleAudit)
	mux.HandleFunc("/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("/v1/push", s.handlePush)
	mux.HandleFunc("/v1/report/", s.handleReport)

	handler := s.withLogging(withRecovery(mux, logger))

	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	return s
}

// SetAnalyzer enables the POST /v1/analyze endpoint.
func (s *Server) SetAnalyzer(a Analyzer) {
	s.analyzer = a
}

// SetPusher enables the POST /v1/push endpoint.
func (s *Server) SetPusher(p Pusher) {
	s.pusher = p
}

// SetSnapshots enables the GET /v1/report/{name} endpoints.
func (s *Server) SetSnapshots(src SnapshotSource) {
	s.snapshots = src
}

// Start runs the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info("api server starting", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("api server stopping")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

type statusResponse struct {
	Providers []analyzer.ProviderStatus `json:"providers"`
	NextPush  *time.Time                `json:"next_push,omitempty"`
	Jobs      []sched.JobStatus         `json:"jobs,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	resp := statusResponse{Providers: []analyzer.ProviderStatus{}}
	if s.status != nil {
		resp.Providers = s.status.Status()
	}
	if s.sched != nil {
		if next := s.sched.Next(); !next.IsZero() {
			resp.NextPush = &next
		}
		resp.Jobs = s.sched.Status()
	}
	writeJSON(w, s.logger, resp)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			http.Error(w, `{"error":"invalid_limit"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries := []store.AuditEntry{}
	if s.audit != nil {
		var err error
		entries, err = s.audit.RecentAudit(r.Context(), limit)
		if err != nil {
			s.logger.Error("audit query failed", zap.Error(err))
			http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []store.AuditEntry{}
		}
	}
	writeJSON(w, s.logger, map[string]any{"entries": entries})
}

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Prompt string `json:"prompt"`
	Prefer string `json:"prefer,omitempty"`
}

// AnalyzeResponse mirrors the router result. Available false means every
// provider was exhausted and the caller should fall back to rules.
type AnalyzeResponse struct {
	Text      string `json:"text"`
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	if s.analyzer == nil {
		http.Error(w, `{"error":"analyzer_not_configured"}`, http.StatusServiceUnavailable)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json_body"}`, http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, `{"error":"prompt_required"}`, http.StatusBadRequest)
		return
	}

	res := s.analyzer.Analyze(r.Context(), analyzer.Request{
		Prompt: req.Prompt,
		Prefer: provider.ProviderID(req.Prefer),
	})
	writeJSON(w, s.logger, AnalyzeResponse{
		Text:      res.Text,
		Provider:  string(res.Provider),
		Available: res.Available,
	})
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	if s.pusher == nil {
		http.Error(w, `{"error":"push_not_configured"}`, http.StatusServiceUnavailable)
		return
	}

	go func() {
		// Runs past the request lifetime; AI backoff can take minutes.
		if err := s.pusher.PushAll(context.WithoutCancel(r.Context())); err != nil {
			s.logger.Error("triggered push failed", zap.Error(err))
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte(`{"started":true}`))
}

// reportKinds maps URL names to stored snapshot kinds.
var reportKinds = map[string]string{
	"market-monitor": store.SnapshotMarketMonitor,
	"momentum50":     store.SnapshotMomentum,
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	kind, ok := reportKinds[strings.TrimPrefix(r.URL.Path, "/v1/report/")]
	if !ok {
		http.Error(w, `{"error":"unknown_report"}`, http.StatusNotFound)
		return
	}
	if s.snapshots == nil {
		http.Error(w, `{"error":"reports_not_configured"}`, http.StatusServiceUnavailable)
		return
	}

	var payload json.RawMessage
	found, err := s.snapshots.LatestSnapshot(r.Context(), kind, &payload)
	if err != nil {
		s.logger.Error("report query failed", zap.String("kind", kind), zap.Error(err))
		http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, `{"error":"no_report_yet"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// Middleware: Panic Recovery
func withRecovery(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered", zap.Any("error", err), zap.String("path", r.URL.Path))
				http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Middleware: Request Logging with trace IDs
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = generateTraceID()
		}
		ctx := context.WithValue(r.Context(), traceIDKey, traceID)
		r = r.WithContext(ctx)

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			zap.String("trace_id", traceID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func generateTraceID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}

// statusWriter captures HTTP status code
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
