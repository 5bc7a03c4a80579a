// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about graph computations, topology store reads, and the
// HTTP server.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The prometheus implementation lives in pkg/metrics; libraries only ever
// talk to the interfaces here.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetComputeHooks(metrics.NewComputeHooks(reg))
//	    observability.SetStoreHooks(metrics.NewStoreHooks(reg))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Compute().OnComputeStart(ctx, requestID, serviceType)
//	// ... build the graph ...
//	observability.Compute().OnComputeComplete(ctx, requestID, serviceType, nodes, links, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Compute Hooks
// =============================================================================

// ComputeHooks receives events from graph computations.
type ComputeHooks interface {
	// Request events
	OnComputeStart(ctx context.Context, requestID, serviceType string)
	OnComputeComplete(ctx context.Context, requestID, serviceType string, nodes, links int, duration time.Duration, err error)

	// Rejection events, one per dropped entity. code is the soft error code.
	OnNodeRejected(ctx context.Context, nodeType, code string)
	OnLinkRejected(ctx context.Context, linkType, code string)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from topology store operations.
type StoreHooks interface {
	// OnStoreRead records a snapshot read.
	OnStoreRead(ctx context.Context, backend, network string, duration time.Duration, err error)

	// OnStoreWrite records a snapshot write.
	OnStoreWrite(ctx context.Context, backend, network string, size int)

	// OnStoreRetry records a retried read.
	OnStoreRetry(ctx context.Context, backend string, attempt int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopComputeHooks is a no-op implementation of ComputeHooks.
type NoopComputeHooks struct{}

func (NoopComputeHooks) OnComputeStart(context.Context, string, string) {}
func (NoopComputeHooks) OnComputeComplete(context.Context, string, string, int, int, time.Duration, error) {
}
func (NoopComputeHooks) OnNodeRejected(context.Context, string, string) {}
func (NoopComputeHooks) OnLinkRejected(context.Context, string, string) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnStoreRead(context.Context, string, string, time.Duration, error) {}
func (NoopStoreHooks) OnStoreWrite(context.Context, string, string, int)                {}
func (NoopStoreHooks) OnStoreRetry(context.Context, string, int)                        {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                     {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	computeHooks ComputeHooks = NoopComputeHooks{}
	storeHooks   StoreHooks   = NoopStoreHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetComputeHooks registers custom compute hooks.
// This should be called once at application startup before any computation.
func SetComputeHooks(h ComputeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		computeHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store operations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Compute returns the registered compute hooks.
func Compute() ComputeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return computeHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	computeHooks = NoopComputeHooks{}
	storeHooks = NoopStoreHooks{}
	httpHooks = NoopHTTPHooks{}
}
