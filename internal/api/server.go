package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nca-tools/nca-cli/internal/api/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrResultsPending signals that results were requested before the
// assessment run finished. Handlers translate it to 202 Accepted.
var ErrResultsPending = errors.New("analysis still in progress")

type Baseline struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ControlCount int    `json:"control_count"`
	Description  string `json:"description"`
}

type ControlFamily struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	ControlCount int    `json:"control_count"`
	Technical    bool   `json:"technical"`
}

type ControlSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	FamilyCode string `json:"family_code"`
}

type PredefinedScope struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Families    []string `json:"families,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Baseline    string   `json:"baseline"`
}

type ScopeRequest struct {
	Baseline         string   `json:"baseline"`
	ControlFamilies  []string `json:"control_families,omitempty"`
	SpecificControls []string `json:"specific_controls,omitempty"`
	Mode             string   `json:"mode,omitempty"`
}

type Estimate struct {
	ControlCount     int     `json:"control_count"`
	EstimatedTokens  int     `json:"estimated_tokens"`
	EstimatedMinutes float64 `json:"estimated_minutes"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	Mode             string  `json:"mode"`
}

type ScopeEstimate struct {
	ControlCount int      `json:"control_count"`
	Controls     []string `json:"controls"`
	Estimate     Estimate `json:"estimate"`
}

type EvidenceItem struct {
	ID     string `json:"id"`
	Source string `json:"source,omitempty"`
	Text   string `json:"text"`
}

type AssessRequest struct {
	SessionName string         `json:"session_name"`
	Operator    string         `json:"operator"`
	Scope       ScopeRequest   `json:"scope"`
	Evidence    []EvidenceItem `json:"evidence"`
}

type AssessAccepted struct {
	SessionID string `json:"session_id"`
	JobID     string `json:"job_id"`
}

type SessionStatus struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Stage     string `json:"stage"`
	Progress  int    `json:"progress"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

type SessionDeleted struct {
	SessionID string   `json:"session_id"`
	Deleted   []string `json:"deleted"`
	Message   string   `json:"message"`
}

type CatalogService interface {
	Baselines(ctx context.Context) ([]Baseline, error)
	ControlFamilies(ctx context.Context) ([]ControlFamily, error)
	Controls(ctx context.Context, family string) ([]ControlSummary, error)
	PredefinedScopes(ctx context.Context) ([]PredefinedScope, error)
}

type AssessmentService interface {
	EstimateScope(ctx context.Context, req ScopeRequest) (*ScopeEstimate, error)
	StartAssessment(ctx context.Context, req AssessRequest) (*AssessAccepted, error)
	SessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error)
	Results(ctx context.Context, sessionID string) ([]byte, error)
	DeleteSession(ctx context.Context, sessionID string) (*SessionDeleted, error)
}

type HealthService interface {
	Check(ctx context.Context) error
	Ready(ctx context.Context) error
}

type JobService interface {
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]Job, error)
	Subscribe() (chan Job, func())
}

type Config struct {
	Catalog     CatalogService
	Assessments AssessmentService
	Health      HealthService
	Jobs        JobService
	AuthToken   string
	Logger      *zap.Logger
	CORSOrigins []string // Allowed CORS origins (empty = allow all)
	RateLimit   int      // Requests per second per IP (0 = disabled)
	RateBurst   int      // Burst size for rate limiter
}

type Server struct {
	cfg      Config
	mux      *http.ServeMux
	handler  http.Handler
	limiters *rateLimiterMap
}

func NewServer(cfg Config) *Server {
	srv := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		limiters: newRateLimiterMap(),
	}
	srv.routes()
	// Middleware order: RequestID -> Logging -> RateLimit -> CORS, with
	// auth applied per route.
	srv.handler = middleware.RequestID(srv.withLogging(srv.withRateLimit(srv.withCORS(srv.mux))))
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", s.withAuth(http.HandlerFunc(s.handleHealth)))
	s.mux.Handle("/readyz", s.withAuth(http.HandlerFunc(s.handleReady)))

	// Version 1 API routes (primary)
	s.mux.Handle("/api/v1/baselines", s.withAuth(http.HandlerFunc(s.handleBaselines)))
	s.mux.Handle("/api/v1/control-families", s.withAuth(http.HandlerFunc(s.handleControlFamilies)))
	s.mux.Handle("/api/v1/controls", s.withAuth(http.HandlerFunc(s.handleControls)))
	s.mux.Handle("/api/v1/predefined-scopes", s.withAuth(http.HandlerFunc(s.handlePredefinedScopes)))
	s.mux.Handle("/api/v1/estimate-scope", s.withAuth(http.HandlerFunc(s.handleEstimateScope)))
	s.mux.Handle("/api/v1/assess", s.withAuth(http.HandlerFunc(s.handleAssess)))
	s.mux.Handle("/api/v1/status/", s.withAuth(http.HandlerFunc(s.handleStatus)))
	s.mux.Handle("/api/v1/results/", s.withAuth(http.HandlerFunc(s.handleResults)))
	s.mux.Handle("/api/v1/sessions/", s.withAuth(http.HandlerFunc(s.handleSessionByID)))
	s.mux.Handle("/api/v1/jobs", s.withAuth(http.HandlerFunc(s.handleJobs)))
	s.mux.Handle("/api/v1/jobs/", s.withAuth(http.HandlerFunc(s.handleJobByID)))
	s.mux.Handle("/api/v1/jobs-stream", s.withAuth(http.HandlerFunc(s.handleJobStream)))

	// Unversioned routes (backward compatibility - alias to v1)
	s.mux.Handle("/api/baselines", s.withAuth(http.HandlerFunc(s.handleBaselines)))
	s.mux.Handle("/api/control-families", s.withAuth(http.HandlerFunc(s.handleControlFamilies)))
	s.mux.Handle("/api/controls", s.withAuth(http.HandlerFunc(s.handleControls)))
	s.mux.Handle("/api/predefined-scopes", s.withAuth(http.HandlerFunc(s.handlePredefinedScopes)))
	s.mux.Handle("/api/estimate-scope", s.withAuth(http.HandlerFunc(s.handleEstimateScope)))
	s.mux.Handle("/api/assess", s.withAuth(http.HandlerFunc(s.handleAssess)))
	s.mux.Handle("/api/status/", s.withAuth(http.HandlerFunc(s.handleStatus)))
	s.mux.Handle("/api/results/", s.withAuth(http.HandlerFunc(s.handleResults)))
	s.mux.Handle("/api/sessions/", s.withAuth(http.HandlerFunc(s.handleSessionByID)))
	s.mux.Handle("/api/jobs", s.withAuth(http.HandlerFunc(s.handleJobs)))
	s.mux.Handle("/api/jobs/", s.withAuth(http.HandlerFunc(s.handleJobByID)))
	s.mux.Handle("/api/jobs-stream", s.withAuth(http.HandlerFunc(s.handleJobStream)))
}

// pathID extracts the trailing identifier from a request path, accepting
// both versioned and unversioned forms of the same route.
func pathID(path, route string) string {
	id := strings.TrimPrefix(path, "/api/v1/"+route+"/")
	if id == path {
		id = strings.TrimPrefix(path, "/api/"+route+"/")
	}
	if id == path {
		return ""
	}
	return id
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Health != nil {
		if err := s.cfg.Health.Check(r.Context()); err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Health != nil {
		if err := s.cfg.Health.Ready(r.Context()); err != nil {
			s.writeError(w, r, http.StatusServiceUnavailable, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleBaselines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	items, err := s.cfg.Catalog.Baselines(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]Baseline{"baselines": items})
}

func (s *Server) handleControlFamilies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	items, err := s.cfg.Catalog.ControlFamilies(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]ControlFamily{"families": items})
}

func (s *Server) handleControls(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	// Empty family returns the full catalog listing
	family := r.URL.Query().Get("family")
	items, err := s.cfg.Catalog.Controls(r.Context(), family)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]ControlSummary{"controls": items})
}

func (s *Server) handlePredefinedScopes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	items, err := s.cfg.Catalog.PredefinedScopes(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]PredefinedScope{"scopes": items})
}

func (s *Server) handleEstimateScope(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1048576) // 1MB limit
	var req ScopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	est, err := s.cfg.Assessments.EstimateScope(r.Context(), req)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 4194304) // 4MB limit, bodies carry evidence
	var req AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	accepted, err := s.cfg.Assessments.StartAssessment(r.Context(), req)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusAccepted, accepted)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	id := pathID(r.URL.Path, "status")
	if id == "" {
		s.writeError(w, r, http.StatusNotFound, errors.New("session ID required"))
		return
	}
	status, err := s.cfg.Assessments.SessionStatus(r.Context(), id)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	id := pathID(r.URL.Path, "results")
	if id == "" {
		s.writeError(w, r, http.StatusNotFound, errors.New("session ID required"))
		return
	}
	data, err := s.cfg.Assessments.Results(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrResultsPending) {
			s.writeError(w, r, http.StatusAccepted, err)
			return
		}
		s.writeError(w, r, http.StatusNotFound, err)
		return
	}
	// Write raw JSON data (already formatted from file)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil && s.cfg.Logger != nil {
		s.cfg.Logger.Error("failed to write response", zap.Error(err))
	}
}

func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.methodNotAllowed(w, r)
		return
	}
	id := pathID(r.URL.Path, "sessions")
	if id == "" {
		s.writeError(w, r, http.StatusNotFound, errors.New("session ID required"))
		return
	}
	deleted, err := s.cfg.Assessments.DeleteSession(r.Context(), id)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job service not available"))
		return
	}
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	limit := 25
	if q := r.URL.Query().Get("limit"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	jobs, err := s.cfg.Jobs.ListJobs(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job service not available"))
		return
	}
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	id := pathID(r.URL.Path, "jobs")
	if id == "" {
		s.writeError(w, r, http.StatusNotFound, errors.New("job ID required"))
		return
	}
	job, err := s.cfg.Jobs.GetJob(r.Context(), id)
	if err != nil || job == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job not found"))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job service not available"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	updates, unsubscribe := s.cfg.Jobs.Subscribe()
	defer unsubscribe()
	ctx := r.Context()
	for {
		select {
		case job, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(job)
			if err != nil {
				if s.cfg.Logger != nil {
					s.cfg.Logger.Error("failed to marshal job", zap.Error(err))
				}
				continue
			}
			if !s.writeStreamChunk(w, []byte("event: job\n")) {
				return
			}
			if !s.writeStreamChunk(w, []byte("data: ")) {
				return
			}
			if !s.writeStreamChunk(w, payload) {
				return
			}
			if !s.writeStreamChunk(w, []byte("\n\n")) {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip rate limiting if disabled
		if s.cfg.RateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		// Extract client IP (handle X-Forwarded-For for proxied requests)
		clientIP := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			// Use first IP in X-Forwarded-For chain
			if idx := strings.Index(forwarded, ","); idx > 0 {
				clientIP = strings.TrimSpace(forwarded[:idx])
			} else {
				clientIP = strings.TrimSpace(forwarded)
			}
		}
		// Remove port if present
		if idx := strings.LastIndex(clientIP, ":"); idx > 0 {
			clientIP = clientIP[:idx]
		}

		// Get or create limiter for this IP
		limiter := s.limiters.getLimiter(clientIP, s.cfg.RateLimit, s.cfg.RateBurst)

		if !limiter.Allow() {
			if s.cfg.Logger != nil {
				logger := s.requestLogger(r)
				logger.Warn("rate_limit_exceeded",
					zap.String("client_ip", clientIP),
				)
			}
			s.writeError(w, r, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Determine if origin is allowed
		allowOrigin := "*"
		if len(s.cfg.CORSOrigins) > 0 {
			// Check if origin is in whitelist
			allowed := false
			for _, allowedOrigin := range s.cfg.CORSOrigins {
				if allowedOrigin == origin {
					allowed = true
					allowOrigin = origin
					break
				}
			}
			if !allowed {
				allowOrigin = ""
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap the response writer to capture status code
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		if s.cfg.Logger != nil {
			requestID := middleware.GetRequestID(r.Context())
			s.cfg.Logger.Info("http_request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", lrw.statusCode),
				zap.Duration("duration", duration),
				zap.Int64("bytes", lrw.bytesWritten),
			)
		}
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.cfg.AuthToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		// Use constant-time comparison to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
			s.writeError(w, r, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture status code and bytes written
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += int64(n)
	return n, err
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	// Sanitize error messages to prevent information disclosure
	msg := err.Error()

	// For 5xx errors, return generic message and log details server-side
	if status >= 500 {
		if s.cfg.Logger != nil {
			logger := s.requestLogger(r)
			logger.Error("internal_server_error",
				zap.Error(err),
				zap.Int("status", status),
			)
		}
		msg = "internal server error"
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if s.cfg.Logger == nil {
		return zap.NewNop()
	}

	requestID := middleware.GetRequestID(r.Context())
	return s.cfg.Logger.With(
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func (s *Server) writeStreamChunk(w http.ResponseWriter, data []byte) bool {
	if _, err := w.Write(data); err != nil {
		if s.cfg.Logger != nil {
			s.cfg.Logger.Error("failed to write stream chunk", zap.Error(err))
		}
		return false
	}
	return true
}

// rateLimiterMap manages per-IP rate limiters with automatic cleanup
type rateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[string]*ipLimiter
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiterMap() *rateLimiterMap {
	m := &rateLimiterMap{
		limiters: make(map[string]*ipLimiter),
	}
	// Start cleanup goroutine to remove stale limiters
	go m.cleanupLoop()
	return m
}

func (m *rateLimiterMap) getLimiter(ip string, rps, burst int) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.limiters[ip]
	if !exists {
		limiter = &ipLimiter{
			limiter:  rate.NewLimiter(rate.Limit(rps), burst),
			lastSeen: time.Now(),
		}
		m.limiters[ip] = limiter
	} else {
		limiter.lastSeen = time.Now()
	}

	return limiter.limiter
}

// cleanupLoop removes limiters that haven't been used in 5 minutes
func (m *rateLimiterMap) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		for ip, limiter := range m.limiters {
			if time.Since(limiter.lastSeen) > 5*time.Minute {
				delete(m.limiters, ip)
			}
		}
		m.mu.Unlock()
	}
}
