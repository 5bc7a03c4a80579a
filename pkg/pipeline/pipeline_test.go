package pipeline

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/pcegraph/pkg/builder"
	"github.com/matzehuels/pcegraph/pkg/constraints"
	"github.com/matzehuels/pcegraph/pkg/errors"
	"github.com/matzehuels/pcegraph/pkg/observability"
	"github.com/matzehuels/pcegraph/pkg/service"
	"github.com/matzehuels/pcegraph/pkg/topology"
	"github.com/matzehuels/pcegraph/pkg/topology/store"
)

func validOptions() Options {
	return Options{
		ServiceFormat: service.FormatEthernet,
		ServiceRate:   100,
		AEnd:          builder.Endpoint{Node: "XPDR-A1"},
		ZEnd:          builder.Endpoint{Node: "XPDR-C1"},
	}
}

func loadedStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	snap, err := topology.Load("../../examples/topologies/disaggregated.yaml")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	s := store.NewMemoryStore()
	if err := s.Write(context.Background(), snap); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	return s
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"valid", nil, false},
		{"missing format", func(o *Options) { o.ServiceFormat = "" }, true},
		{"unknown format", func(o *Options) { o.ServiceFormat = "SDH" }, true},
		{"zero rate", func(o *Options) { o.ServiceRate = 0 }, true},
		{"missing A-end", func(o *Options) { o.AEnd.Node = "" }, true},
		{"missing Z-end", func(o *Options) { o.ZEnd = builder.Endpoint{} }, true},
		{"network traversal", func(o *Options) { o.Network = "../etc" }, true},
		{"network override", func(o *Options) { o.Network = "lab-topology" }, false},
		{"grid too large", func(o *Options) { o.XponderWavelengths = 1000 }, true},
		{"unsupported rate is not a validation error", func(o *Options) { o.ServiceRate = 7 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			if tt.mutate != nil {
				tt.mutate(&opts)
			}
			err := opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAndSetDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidRequest) {
				t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidRequest)
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	opts := validOptions()
	opts.AEnd.Node = ""
	err := opts.ValidateAndSetDefaults()
	if got, want := errors.UserMessage(err), "AEnd.Node: field is required"; got != want {
		t.Errorf("UserMessage() = %q, want %q", got, want)
	}
}

func TestDefaults(t *testing.T) {
	opts := validOptions()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if opts.RequestID == "" {
		t.Error("RequestID not set")
	}
	if opts.XponderWavelengths != DefaultXponderWavelengths {
		t.Errorf("XponderWavelengths = %d, want %d", opts.XponderWavelengths, DefaultXponderWavelengths)
	}
	if opts.ClientlessOTU == nil || !*opts.ClientlessOTU {
		t.Error("ClientlessOTU should default to true")
	}
	if opts.Logger == nil {
		t.Error("Logger not set")
	}

	id := opts.RequestID
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second ValidateAndSetDefaults() error: %v", err)
	}
	if opts.RequestID != id {
		t.Errorf("RequestID changed from %s to %s", id, opts.RequestID)
	}

	off := false
	opts = validOptions()
	opts.ClientlessOTU = &off
	opts.RequestID = "req-1"
	_ = opts.ValidateAndSetDefaults()
	if *opts.ClientlessOTU || opts.RequestID != "req-1" {
		t.Error("explicit values were overwritten")
	}
}

func TestCauseFor(t *testing.T) {
	tests := []struct {
		err  error
		want LocalCause
	}{
		{nil, CauseNone},
		{errors.New(errors.ErrCodeEndpointUnresolved, "x"), CauseNoPathExists},
		{errors.New(errors.ErrCodeEmptyGraph, "x"), CauseNoPathExists},
		{errors.New(errors.ErrCodeUnsupportedServiceType, "x"), CauseIntProblem},
		{errors.New(errors.ErrCodeTopologyRead, "x"), CauseIntProblem},
		{errors.New(errors.ErrCodeInvalidRequest, "x"), CauseIntProblem},
		{errors.New(errors.ErrCodeInterrupted, "x"), CauseIntProblem},
		{stderrors.New("plain"), CauseIntProblem},
	}
	for _, tt := range tests {
		if got := CauseFor(tt.err); got != tt.want {
			t.Errorf("CauseFor(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestExecute(t *testing.T) {
	r := NewRunner(loadedStore(t), nil)
	opts := validOptions()
	opts.RequestID = "req-42"

	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !res.Success || res.ResponseCode != ResponseOK || res.Message != MessageSuccess {
		t.Errorf("Result = %+v, want success", res)
	}
	if res.LocalCause != CauseNone {
		t.Errorf("LocalCause = %s, want %s", res.LocalCause, CauseNone)
	}
	if res.RequestID != "req-42" {
		t.Errorf("RequestID = %s, want req-42", res.RequestID)
	}
	if res.ServiceType != service.Type100GE || res.Rate != 100 || res.ServiceFormat != service.FormatEthernet {
		t.Errorf("service = %s %d %s, want 100GE 100 Ethernet", res.ServiceType, res.Rate, res.ServiceFormat)
	}
	if res.Graph == nil {
		t.Fatal("Graph is nil")
	}
	if res.Stats.NodeCount != 6 || res.Stats.LinkCount != 10 {
		t.Errorf("Stats = %d nodes, %d links, want 6, 10", res.Stats.NodeCount, res.Stats.LinkCount)
	}
	if res.Stats.Network != topology.NetworkOptical {
		t.Errorf("Stats.Network = %s, want %s", res.Stats.Network, topology.NetworkOptical)
	}
}

func TestExecuteConstraints(t *testing.T) {
	r := NewRunner(loadedStore(t), nil)
	opts := validOptions()
	opts.Constraints = constraints.Request{ExcludeSRLG: []uint32{1001}}

	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	for _, l := range res.Graph.Links() {
		if l.Type == topology.LinkRoadmToRoadm {
			t.Errorf("fiber %s in SRLG 1001 was kept", l.ID)
		}
	}
}

type failingStore struct {
	store.Store
	err error
}

func (s failingStore) Read(context.Context, string) (*topology.Snapshot, error) { return nil, s.err }
func (s failingStore) Close() error                                            { return nil }

func TestExecuteFailures(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name      string
		store     store.Store
		ctx       context.Context
		mutate    func(*Options)
		wantCode  errors.Code
		wantCause LocalCause
	}{
		{
			name:      "topology not found",
			store:     store.NewMemoryStore(),
			wantCode:  errors.ErrCodeEmptyGraph,
			wantCause: CauseNoPathExists,
		},
		{
			name:      "unknown endpoint",
			mutate:    func(o *Options) { o.ZEnd.Node = "XPDR-Z9" },
			wantCode:  errors.ErrCodeEndpointUnresolved,
			wantCause: CauseNoPathExists,
		},
		{
			name:      "unsupported service",
			mutate:    func(o *Options) { o.ServiceRate = 400 },
			wantCode:  errors.ErrCodeUnsupportedServiceType,
			wantCause: CauseIntProblem,
		},
		{
			name:      "invalid request",
			mutate:    func(o *Options) { o.ServiceFormat = "SDH" },
			wantCode:  errors.ErrCodeInvalidRequest,
			wantCause: CauseIntProblem,
		},
		{
			name:      "read error",
			store:     failingStore{err: stderrors.New("connection refused")},
			wantCode:  errors.ErrCodeTopologyRead,
			wantCause: CauseIntProblem,
		},
		{
			name:      "cancelled",
			ctx:       cancelled,
			wantCode:  errors.ErrCodeInterrupted,
			wantCause: CauseIntProblem,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.store
			if s == nil {
				s = loadedStore(t)
			}
			ctx := tt.ctx
			if ctx == nil {
				ctx = context.Background()
			}
			opts := validOptions()
			if tt.mutate != nil {
				tt.mutate(&opts)
			}

			res, err := NewRunner(s, nil).Execute(ctx, opts)
			if err == nil {
				t.Fatal("Execute() should fail")
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("code = %s, want %s", errors.GetCode(err), tt.wantCode)
			}
			if res == nil {
				t.Fatal("Execute() returned no Result")
			}
			if res.Success || res.ResponseCode != ResponseFailed || res.Message != MessageFailure {
				t.Errorf("Result = %+v, want failure", res)
			}
			if res.LocalCause != tt.wantCause {
				t.Errorf("LocalCause = %s, want %s", res.LocalCause, tt.wantCause)
			}
			if res.Graph != nil {
				t.Error("failed Result carries a graph")
			}
			if res.Error == "" {
				t.Error("Error is empty")
			}
		})
	}
}

func TestExecuteNetworkOverride(t *testing.T) {
	snap, err := topology.Load("../../examples/topologies/disaggregated.yaml")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	snap.Network = "lab-topology"
	s := store.NewMemoryStore()
	if err := s.Write(context.Background(), snap); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	opts := validOptions()
	opts.Network = "lab-topology"
	res, err := NewRunner(s, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Stats.Network != "lab-topology" {
		t.Errorf("Stats.Network = %s, want lab-topology", res.Stats.Network)
	}
}

// flakyStore fails the first failures reads with a transient error.
type flakyStore struct {
	store.Store
	mu       sync.Mutex
	failures int
	reads    int
}

func (s *flakyStore) Read(ctx context.Context, network string) (*topology.Snapshot, error) {
	s.mu.Lock()
	s.reads++
	fail := s.reads <= s.failures
	s.mu.Unlock()
	if fail {
		return nil, store.Retryable(stderrors.New("timeout"))
	}
	return s.Store.Read(ctx, network)
}

func TestExecuteRetry(t *testing.T) {
	tests := []struct {
		retry   bool
		wantErr bool
	}{
		{false, true},
		{true, false},
	}
	for _, tt := range tests {
		s := &flakyStore{Store: loadedStore(t), failures: 1}
		r := NewRunner(s, nil)
		r.Retry = tt.retry
		_, err := r.Execute(context.Background(), validOptions())
		if (err != nil) != tt.wantErr {
			t.Errorf("Retry=%v: Execute() error = %v, wantErr %v", tt.retry, err, tt.wantErr)
		}
	}
}

type recordingHooks struct {
	observability.NoopComputeHooks
	mu       sync.Mutex
	started  []string
	finished []error
	nodes    int
}

func (h *recordingHooks) OnComputeStart(_ context.Context, requestID, _ string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = append(h.started, requestID)
}

func (h *recordingHooks) OnComputeComplete(_ context.Context, _, _ string, nodes, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finished = append(h.finished, err)
	h.nodes = nodes
}

func TestExecuteHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetComputeHooks(h)
	defer observability.Reset()

	r := NewRunner(loadedStore(t), nil)
	opts := validOptions()
	opts.RequestID = "req-hooks"
	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	opts.RequestID = "req-fail"
	opts.AEnd.Node = "nowhere"
	_, _ = r.Execute(context.Background(), opts)

	if len(h.started) != 2 || h.started[0] != "req-hooks" || h.started[1] != "req-fail" {
		t.Errorf("started = %v, want [req-hooks req-fail]", h.started)
	}
	if len(h.finished) != 2 || h.finished[0] != nil || h.finished[1] == nil {
		t.Errorf("finished = %v, want [nil error]", h.finished)
	}
}

func TestExecuteExampleTopologies(t *testing.T) {
	tests := []struct {
		file        string
		opts        Options
		wantType    service.Type
		wantNetwork string
		wantNodes   int
		wantLinks   int
	}{
		{
			file: "otn.yaml",
			opts: Options{
				ServiceFormat: service.FormatODU,
				ServiceRate:   100,
				AEnd:          builder.Endpoint{Node: "SPDR-A1-XPDR1", Device: "SPDR-A1"},
				ZEnd:          builder.Endpoint{Node: "SPDR-C1-XPDR1", Device: "SPDR-C1"},
			},
			wantType:    service.TypeODU4,
			wantNetwork: topology.NetworkOTN,
			wantNodes:   3,
			wantLinks:   4,
		},
		{
			file: "composite.yaml",
			opts: Options{
				ServiceFormat: service.FormatEthernet,
				ServiceRate:   100,
				AEnd:          builder.Endpoint{Node: "XPDR-A"},
				ZEnd:          builder.Endpoint{Node: "XPDR-C"},
			},
			wantType:    service.Type100GE,
			wantNetwork: topology.NetworkOptical,
			wantNodes:   6,
			wantLinks:   10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			snap, err := topology.Load("../../examples/topologies/" + tt.file)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			s := store.NewMemoryStore()
			if err := s.Write(context.Background(), snap); err != nil {
				t.Fatalf("Write() error: %v", err)
			}

			res, err := NewRunner(s, nil).Execute(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if res.ServiceType != tt.wantType || res.Stats.Network != tt.wantNetwork {
				t.Errorf("service/network = %s/%s, want %s/%s",
					res.ServiceType, res.Stats.Network, tt.wantType, tt.wantNetwork)
			}
			if res.Stats.NodeCount != tt.wantNodes || res.Stats.LinkCount != tt.wantLinks {
				t.Errorf("nodes/links = %d/%d, want %d/%d",
					res.Stats.NodeCount, res.Stats.LinkCount, tt.wantNodes, tt.wantLinks)
			}
		})
	}
}
