package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pcegraph/pkg/builder"
	"github.com/matzehuels/pcegraph/pkg/constraints"
	"github.com/matzehuels/pcegraph/pkg/errors"
	"github.com/matzehuels/pcegraph/pkg/graph"
	"github.com/matzehuels/pcegraph/pkg/observability"
	"github.com/matzehuels/pcegraph/pkg/service"
	"github.com/matzehuels/pcegraph/pkg/topology"
	"github.com/matzehuels/pcegraph/pkg/topology/store"
)

// Runner executes graph requests against a topology store.
//
// The Runner holds no per-request state. Multiple goroutines can safely use
// the same Runner with different options.
type Runner struct {
	Store  store.Store
	Logger *log.Logger

	// Retry retries transient store read failures with
	// [store.RetryWithBackoff]. The build itself never retries.
	Retry bool
}

// NewRunner creates a runner reading from s.
// If s is nil, an empty in-memory store is used.
func NewRunner(s store.Store, logger *log.Logger) *Runner {
	if s == nil {
		s = store.Instrument(store.NewMemoryStore(), store.BackendMemory)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Store:  s,
		Logger: logger,
	}
}

// Execute runs the read → build pipeline for opts.
//
// A Result is always returned. err is non-nil exactly when the request failed,
// in which case the Result carries the failure response and no graph.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		res := newResult(&opts)
		res.fail(err)
		r.Logger.Error("invalid request", "error", err)
		return res, err
	}
	res := newResult(&opts)
	logger := opts.Logger.With("request", opts.RequestID)
	opts.Logger = logger

	st, err := service.Resolve(opts.ServiceFormat, opts.ServiceRate)
	if err != nil {
		res.fail(err)
		logger.Error("unsupported service", "format", opts.ServiceFormat, "rate", opts.ServiceRate)
		return res, err
	}
	res.ServiceType = st

	start := time.Now()
	observability.Compute().OnComputeStart(ctx, opts.RequestID, string(st))
	g, err := r.run(ctx, &opts, st, res)
	observability.Compute().OnComputeComplete(ctx, opts.RequestID, string(st),
		res.Stats.NodeCount, res.Stats.LinkCount, time.Since(start), err)
	if err != nil {
		res.fail(err)
		logger.Warn("no graph", "cause", res.LocalCause, "error", errors.UserMessage(err))
		return res, err
	}
	res.succeed(g)
	return res, nil
}

func (r *Runner) run(ctx context.Context, opts *Options, st service.Type, res *Result) (*graph.Graph, error) {
	logger := opts.Logger
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInterrupted, err, "request cancelled")
	}

	// Stage 1: Read
	network := opts.Network
	if network == "" {
		network = st.Network()
	}
	res.Stats.Network = network
	readStart := time.Now()
	snap, err := r.read(ctx, network, logger)
	res.Stats.ReadTime = time.Since(readStart)
	if err != nil {
		logger.Error("topology read failed", "network", network, "error", err)
		return nil, err
	}
	logger.Info("read topology",
		"network", network,
		"nodes", len(snap.Nodes),
		"links", len(snap.Links),
		"duration", res.Stats.ReadTime)

	// Stage 2: Build
	cons := constraints.Expand(opts.Constraints, snap)
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInterrupted, err, "request cancelled")
	}
	g, rep, err := builder.Build(ctx, snap, opts.request(), cons, opts.builderConfig())
	res.Report = rep
	res.Stats.BuildTime = rep.Duration
	if err != nil {
		return nil, err
	}
	res.Stats.NodeCount = g.NodeCount()
	res.Stats.LinkCount = g.LinkCount()
	logger.Info("built graph",
		"service", st,
		"nodes", g.NodeCount(),
		"links", g.LinkCount(),
		"nodes_rejected", rep.NodesRejected,
		"links_rejected", rep.LinksRejected,
		"duration", rep.Duration)
	return g, nil
}

// read loads the topology layer for network. A missing topology is not an
// error: it yields an empty snapshot and the build fails on it like on any
// other empty topology.
func (r *Runner) read(ctx context.Context, network string, logger *log.Logger) (*topology.Snapshot, error) {
	var (
		snap *topology.Snapshot
		err  error
	)
	if r.Retry {
		snap, err = store.ReadWithRetry(ctx, r.Store, network)
	} else {
		snap, err = r.Store.Read(ctx, network)
	}
	switch {
	case err == nil:
		return snap, nil
	case stderrors.Is(err, store.ErrNotFound):
		logger.Warn("topology not found", "network", network)
		return &topology.Snapshot{Network: network}, nil
	case ctx.Err() != nil:
		return nil, errors.Wrap(errors.ErrCodeInterrupted, ctx.Err(), "reading %s", network)
	default:
		return nil, errors.Wrap(errors.ErrCodeTopologyRead, err, "reading %s", network)
	}
}

// Close releases the store.
func (r *Runner) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on opts if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
