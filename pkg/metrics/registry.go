// Package metrics implements the observability hooks with Prometheus
// collectors.
//
// Register a registry's hooks at startup and expose its collectors over HTTP:
//
//	reg := metrics.NewRegistry()
//	reg.Register()
//	router.Handle("/metrics", reg.Handler())
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pcegraph"

// Registry holds all collectors of the application.
type Registry struct {
	// Compute Metrics
	ComputeTotal    *prometheus.CounterVec
	ComputeDuration *prometheus.HistogramVec
	GraphNodes      *prometheus.HistogramVec
	GraphLinks      *prometheus.HistogramVec
	NodesRejected   *prometheus.CounterVec
	LinksRejected   *prometheus.CounterVec

	// Store Metrics
	StoreReadsTotal   *prometheus.CounterVec
	StoreReadDuration *prometheus.HistogramVec
	StoreWritesTotal  *prometheus.CounterVec
	StoreWriteSize    *prometheus.HistogramVec
	StoreRetriesTotal *prometheus.CounterVec

	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every collector initialized, plus the
// Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{registry: reg}
	r.initComputeMetrics()
	r.initStoreMetrics()
	r.initHTTPMetrics()
	return r
}

// Prometheus returns the underlying Prometheus registry.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Registry) initComputeMetrics() {
	f := promauto.With(r.registry)

	r.ComputeTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computations_total",
			Help:      "Total number of graph computations by service type and result code",
		},
		[]string{"service_type", "result"},
	)

	r.ComputeDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "computation_duration_seconds",
			Help:      "Graph computation latency in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service_type"},
	)

	r.GraphNodes = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Number of nodes in built graphs",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"service_type"},
	)

	r.GraphLinks = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_links",
			Help:      "Number of links in built graphs",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"service_type"},
	)

	r.NodesRejected = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_rejected_total",
			Help:      "Nodes left out of a graph by node type and reason",
		},
		[]string{"node_type", "reason"},
	)

	r.LinksRejected = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_rejected_total",
			Help:      "Links left out of a graph by link type and reason",
		},
		[]string{"link_type", "reason"},
	)
}

func (r *Registry) initStoreMetrics() {
	f := promauto.With(r.registry)

	r.StoreReadsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_reads_total",
			Help:      "Total number of topology reads by backend and result",
		},
		[]string{"backend", "result"},
	)

	r.StoreReadDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_read_duration_seconds",
			Help:      "Topology read latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	r.StoreWritesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_writes_total",
			Help:      "Total number of topology writes by backend",
		},
		[]string{"backend"},
	)

	r.StoreWriteSize = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_write_entities",
			Help:      "Nodes plus links per written topology",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		},
		[]string{"backend"},
	)

	r.StoreRetriesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_retries_total",
			Help:      "Total number of retried topology reads",
		},
		[]string{"backend"},
	)
}

func (r *Registry) initHTTPMetrics() {
	f := promauto.With(r.registry)

	r.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestsInFlight = f.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
}
