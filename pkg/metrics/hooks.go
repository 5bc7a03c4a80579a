package metrics

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/matzehuels/pcegraph/pkg/errors"
	"github.com/matzehuels/pcegraph/pkg/observability"
	"github.com/matzehuels/pcegraph/pkg/topology/store"
)

// Register installs r's hooks as the process-wide observability hooks.
func (r *Registry) Register() {
	observability.SetComputeHooks(ComputeHooks{r})
	observability.SetStoreHooks(StoreHooks{r})
	observability.SetHTTPHooks(HTTPHooks{r})
}

// result labels an outcome with the error code, or "ok".
func result(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	return "error"
}

// =============================================================================
// Compute Hooks
// =============================================================================

// ComputeHooks records graph computations.
type ComputeHooks struct{ r *Registry }

// NewComputeHooks returns compute hooks recording into r.
func NewComputeHooks(r *Registry) ComputeHooks { return ComputeHooks{r} }

func (h ComputeHooks) OnComputeStart(context.Context, string, string) {}

func (h ComputeHooks) OnComputeComplete(_ context.Context, _, serviceType string, nodes, links int, duration time.Duration, err error) {
	h.r.ComputeTotal.WithLabelValues(serviceType, result(err)).Inc()
	h.r.ComputeDuration.WithLabelValues(serviceType).Observe(duration.Seconds())
	if err == nil {
		h.r.GraphNodes.WithLabelValues(serviceType).Observe(float64(nodes))
		h.r.GraphLinks.WithLabelValues(serviceType).Observe(float64(links))
	}
}

func (h ComputeHooks) OnNodeRejected(_ context.Context, nodeType, code string) {
	h.r.NodesRejected.WithLabelValues(nodeType, code).Inc()
}

func (h ComputeHooks) OnLinkRejected(_ context.Context, linkType, code string) {
	h.r.LinksRejected.WithLabelValues(linkType, code).Inc()
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks records topology store traffic.
type StoreHooks struct{ r *Registry }

// NewStoreHooks returns store hooks recording into r.
func NewStoreHooks(r *Registry) StoreHooks { return StoreHooks{r} }

func (h StoreHooks) OnStoreRead(_ context.Context, backend, _ string, duration time.Duration, err error) {
	h.r.StoreReadsTotal.WithLabelValues(backend, readResult(err)).Inc()
	h.r.StoreReadDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

func (h StoreHooks) OnStoreWrite(_ context.Context, backend, _ string, size int) {
	h.r.StoreWritesTotal.WithLabelValues(backend).Inc()
	h.r.StoreWriteSize.WithLabelValues(backend).Observe(float64(size))
}

func (h StoreHooks) OnStoreRetry(_ context.Context, backend string, _ int) {
	h.r.StoreRetriesTotal.WithLabelValues(backend).Inc()
}

// readResult separates missing topologies from failed reads.
func readResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case stderrors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks records requests served by the HTTP server.
type HTTPHooks struct{ r *Registry }

// NewHTTPHooks returns HTTP hooks recording into r.
func NewHTTPHooks(r *Registry) HTTPHooks { return HTTPHooks{r} }

func (h HTTPHooks) OnRequest(context.Context, string, string) {
	h.r.HTTPRequestsInFlight.Inc()
}

func (h HTTPHooks) OnResponse(_ context.Context, method, path string, statusCode int, duration time.Duration) {
	h.r.HTTPRequestsInFlight.Dec()
	status := strconv.Itoa(statusCode)
	h.r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	h.r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

var (
	_ observability.ComputeHooks = ComputeHooks{}
	_ observability.StoreHooks   = StoreHooks{}
	_ observability.HTTPHooks    = HTTPHooks{}
)
