// Package server exposes graph computation over HTTP.
//
// Routes:
//
//	POST /v1/graph                  compute a graph for a pipeline.Options body
//	GET  /v1/topologies             list stored networks
//	GET  /v1/topologies/{network}   summarize a stored network
//	GET  /healthz                   liveness and build information
//	GET  /metrics                   Prometheus metrics (when configured)
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pcegraph/pkg/buildinfo"
	"github.com/matzehuels/pcegraph/pkg/errors"
	"github.com/matzehuels/pcegraph/pkg/graph"
	"github.com/matzehuels/pcegraph/pkg/observability"
	"github.com/matzehuels/pcegraph/pkg/pipeline"
	"github.com/matzehuels/pcegraph/pkg/render/dot"
	"github.com/matzehuels/pcegraph/pkg/topology/store"
)

const (
	defaultAddr = ":8080"

	// maxBodyBytes bounds a graph request body.
	maxBodyBytes = 1 << 20
)

// Options configures a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// Defaults fills in request options the client left unset.
	Defaults func(*pipeline.Options)

	Logger *log.Logger
}

// Server encapsulates the HTTP API server.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
	server *http.Server
}

// New creates a server answering requests with runner.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = defaultAddr
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	s := &Server{runner: runner, opts: opts, logger: logger}
	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  2 * opts.ReadTimeout,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.withLogging)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/graph", s.handleGraph)
		r.Get("/topologies", s.handleNetworks)
		r.Get("/topologies/{network}", s.handleTopology)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

// =============================================================================
// Handlers
// =============================================================================

// graphResponse is the body of a /v1/graph response.
type graphResponse struct {
	*pipeline.Result
	Graph *graph.Summary `json:"graph,omitempty"`
	DOT   string         `json:"dot,omitempty"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if opts.RequestID == "" {
		opts.RequestID = middleware.GetReqID(r.Context())
	}
	if s.opts.Defaults != nil {
		s.opts.Defaults(&opts)
	}
	opts.Logger = s.logger

	res, err := s.runner.Execute(r.Context(), opts)
	resp := graphResponse{Result: res}
	if err == nil {
		sum := graph.Summarize(res.Graph)
		resp.Graph = &sum
		if r.URL.Query().Get("dot") == "true" {
			resp.DOT = dot.ToDOT(res.Graph, dot.Options{Detailed: true})
		}
	}
	writeJSON(w, statusFor(err), resp)
}

func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	networks, err := s.runner.Store.Networks(r.Context())
	if err != nil {
		s.logger.Error("list networks", "error", err)
		writeError(w, http.StatusInternalServerError, "listing topologies failed")
		return
	}
	if networks == nil {
		networks = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"networks": networks})
}

// topologySummary counts the entities of a stored network.
type topologySummary struct {
	Network     string         `json:"network"`
	Model       string         `json:"model,omitempty"`
	Nodes       int            `json:"nodes"`
	Links       int            `json:"links"`
	NodesByType map[string]int `json:"nodes_by_type"`
	LinksByType map[string]int `json:"links_by_type"`
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	network := chi.URLParam(r, "network")
	if err := errors.ValidateNetworkName(network); err != nil {
		writeError(w, http.StatusBadRequest, errors.UserMessage(err))
		return
	}
	snap, err := s.runner.Store.Read(r.Context(), network)
	switch {
	case stderrors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "topology not found: "+network)
		return
	case err != nil:
		s.logger.Error("read topology", "network", network, "error", err)
		writeError(w, http.StatusInternalServerError, "reading topology failed")
		return
	}

	sum := topologySummary{
		Network:     snap.Network,
		Model:       string(snap.Model),
		Nodes:       len(snap.Nodes),
		Links:       len(snap.Links),
		NodesByType: make(map[string]int),
		LinksByType: make(map[string]int),
	}
	for _, n := range snap.Nodes {
		sum.NodesByType[string(n.Type)]++
	}
	for _, l := range snap.Links {
		sum.LinksByType[string(l.Type)]++
	}
	writeJSON(w, http.StatusOK, sum)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

// statusFor maps a computation error to an HTTP status. A request that was
// computed but found no graph is still answered with 200: the Result body
// carries the failure.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case "":
		if err == nil {
			return http.StatusOK
		}
		return http.StatusInternalServerError
	case errors.ErrCodeInvalidRequest, errors.ErrCodeUnsupportedServiceType:
		return http.StatusBadRequest
	case errors.ErrCodeEndpointUnresolved, errors.ErrCodeEmptyGraph:
		return http.StatusOK
	case errors.ErrCodeInterrupted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// Middleware & Helpers
// =============================================================================

// withLogging logs each request and reports it to the HTTP observability
// hooks, labelled with the matched route pattern.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, path, status, duration)
		s.logger.Debug("http request",
			"request", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", path,
			"status", status,
			"duration", duration)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

