package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanghalabs/bodhikit"
	"github.com/sanghalabs/bodhikit/store"
)

// Server wires the builder runtime and stores into an HTTP API.
type Server struct {
	cfg       Config
	builder   *bodhikit.Builder
	approvals *bodhikit.Manager
	agents    store.AgentStore
	knowledge store.KnowledgeStore
	users     store.UserStore
	apiKeys   store.APIKeyStore
	logger    *slog.Logger
	metrics   *Metrics
	mux       *http.ServeMux
}

// Deps are the collaborators a Server needs.
type Deps struct {
	Builder   *bodhikit.Builder
	Approvals *bodhikit.Manager
	Agents    store.AgentStore
	Knowledge store.KnowledgeStore
	Users     store.UserStore
	APIKeys   store.APIKeyStore
	Logger    *slog.Logger
	Metrics   *Metrics
}

// New creates a Server and registers its routes.
func New(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	s := &Server{
		cfg:       cfg,
		builder:   deps.Builder,
		approvals: deps.Approvals,
		agents:    deps.Agents,
		knowledge: deps.Knowledge,
		users:     deps.Users,
		apiKeys:   deps.APIKeys,
		logger:    logger,
		metrics:   metrics,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))

	s.mux.HandleFunc("POST /api/auth/signup", s.instrument("signup", s.handleSignup))
	s.mux.HandleFunc("POST /api/auth/signin", s.instrument("signin", s.handleSignin))
	s.mux.HandleFunc("POST /api/keys", s.instrument("create_api_key", s.requireAuth(s.handleCreateAPIKey)))
	s.mux.HandleFunc("GET /api/keys", s.instrument("list_api_keys", s.requireAuth(s.handleListAPIKeys)))
	s.mux.HandleFunc("DELETE /api/keys/{id}", s.instrument("delete_api_key", s.requireAuth(s.handleDeleteAPIKey)))

	s.mux.HandleFunc("GET /api/agents", s.instrument("list_agents", s.requireAuth(s.handleListAgents)))
	s.mux.HandleFunc("POST /api/agents", s.instrument("create_agent", s.requireAuth(s.handleCreateAgent)))
	s.mux.HandleFunc("GET /api/agents/{id}", s.instrument("get_agent", s.requireAuth(s.handleGetAgent)))
	s.mux.HandleFunc("PUT /api/agents/{id}", s.instrument("update_agent", s.requireAuth(s.handleUpdateAgent)))
	s.mux.HandleFunc("DELETE /api/agents/{id}", s.instrument("delete_agent", s.requireAuth(s.handleDeleteAgent)))
	s.mux.HandleFunc("GET /api/agents/{id}/knowledge", s.instrument("agent_knowledge", s.requireAuth(s.handleAgentKnowledge)))

	s.mux.HandleFunc("GET /api/approvals", s.instrument("list_approvals", s.requireAuth(s.handleListApprovals)))

	s.mux.HandleFunc("POST /api/chat", s.instrument("chat", s.requireAuth(s.handleChat)))
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// instrument records request latency per route.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next(rec, r)
		s.metrics.RequestDuration.
			WithLabelValues(route, strconv.Itoa(rec.code)).
			Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush forwards flushes so SSE streaming works through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}
