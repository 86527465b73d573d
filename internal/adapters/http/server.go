package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/strata"
	"github.com/aretw0/strata/pkg/graph"
	"github.com/aretw0/strata/pkg/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines the operations the API exposes.
type Engine interface {
	Eval(scenarios []string, names ...string) ([]model.Entry, error)
	Set(name string, value any) error
	Clear(name string) error
	SetWhatIf(scenario, node string, value any) error
	ClearWhatIf(scenario, node string) error
	AddScenario(name string) error
	Scenarios() []strata.ScenarioInfo
	Nodes() ([]strata.NodeInfo, error)
	Mermaid(scenarios []string) (string, error)
}

// Server serializes requests onto a single Engine. Graphs are not safe for
// concurrent use, so every handler holds the same lock.
type Server struct {
	Engine Engine
	Logger *slog.Logger
	mu     sync.Mutex
}

// Option configures the handler.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// WithLogger logs failed requests to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics serves gatherer on /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(o *options) {
		o.gatherer = gatherer
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Server{Engine: engine, Logger: o.logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.Health)
	r.Get("/info", s.Info)
	if o.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/nodes", s.ListNodes)
	r.Get("/nodes/{name}", s.GetNode)
	r.Put("/nodes/{name}", s.SetNode)
	r.Delete("/nodes/{name}", s.ClearNode)
	r.Post("/eval", s.Eval)
	r.Get("/graph", s.Graph)

	r.Get("/scenarios", s.ListScenarios)
	r.Post("/scenarios", s.CreateScenario)
	r.Put("/scenarios/{scenario}/whatifs/{name}", s.SetWhatIf)
	r.Delete("/scenarios/{scenario}/whatifs/{name}", s.ClearWhatIf)

	return r
}

// EvalRequest is the body of POST /eval.
type EvalRequest struct {
	Nodes     []string `json:"nodes"`
	Scenarios []string `json:"scenarios"`
}

// ValueRequest carries a value to fix.
type ValueRequest struct {
	Value any `json:"value"`
}

// ScenarioRequest is the body of POST /scenarios.
type ScenarioRequest struct {
	Name string `json:"name"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info handles GET /info.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "strata-http",
		"version":     strings.TrimSpace(strata.Version),
		"api_version": "0.1.0",
	})
}

// ListNodes handles GET /nodes.
func (s *Server) ListNodes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes, err := s.Engine.Nodes()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

// GetNode handles GET /nodes/{name}?scenario=a&scenario=b.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.Engine.Eval(r.URL.Query()["scenario"], chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries[0])
}

// SetNode handles PUT /nodes/{name}.
func (s *Server) SetNode(w http.ResponseWriter, r *http.Request) {
	var body ValueRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := chi.URLParam(r, "name")
	if err := s.Engine.Set(name, body.Value); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeNode(w, r, name)
}

// ClearNode handles DELETE /nodes/{name}.
func (s *Server) ClearNode(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := chi.URLParam(r, "name")
	if err := s.Engine.Clear(name); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeNode(w, r, name)
}

// Eval handles POST /eval.
func (s *Server) Eval(w http.ResponseWriter, r *http.Request) {
	var body EvalRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.Engine.Eval(body.Scenarios, body.Nodes...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Graph handles GET /graph?scenario=a, returning a Mermaid diagram.
func (s *Server) Graph(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.Engine.Mermaid(r.URL.Query()["scenario"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, out)
}

// ListScenarios handles GET /scenarios.
func (s *Server) ListScenarios(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.Engine.Scenarios())
}

// CreateScenario handles POST /scenarios.
func (s *Server) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var body ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Engine.AddScenario(body.Name); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, strata.ScenarioInfo{Name: body.Name, WhatIfs: map[string]any{}})
}

// SetWhatIf handles PUT /scenarios/{scenario}/whatifs/{name}.
func (s *Server) SetWhatIf(w http.ResponseWriter, r *http.Request) {
	var body ValueRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Engine.SetWhatIf(chi.URLParam(r, "scenario"), chi.URLParam(r, "name"), body.Value); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearWhatIf handles DELETE /scenarios/{scenario}/whatifs/{name}.
func (s *Server) ClearWhatIf(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Engine.ClearWhatIf(chi.URLParam(r, "scenario"), chi.URLParam(r, "name")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Helpers --

func (s *Server) writeNode(w http.ResponseWriter, r *http.Request, name string) {
	entries, err := s.Engine.Eval(nil, name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries[0])
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrUnknownNode), errors.Is(err, model.ErrUnknownScenario):
		return http.StatusNotFound
	case errors.Is(err, model.ErrScenarioExists), errors.Is(err, graph.ErrNothingToClear),
		errors.Is(err, graph.ErrDuplicateScenario), errors.Is(err, graph.ErrStackDiscipline):
		return http.StatusConflict
	case errors.Is(err, graph.ErrNotSettable), errors.Is(err, graph.ErrNotOverlayable), errors.Is(err, graph.ErrUnhashable),
		errors.Is(err, graph.ErrInvalidRead), errors.Is(err, graph.ErrCycle), errors.Is(err, graph.ErrInactiveStore):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
