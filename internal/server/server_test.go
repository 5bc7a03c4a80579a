package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/pcegraph/pkg/metrics"
	"github.com/matzehuels/pcegraph/pkg/observability"
	"github.com/matzehuels/pcegraph/pkg/pipeline"
	"github.com/matzehuels/pcegraph/pkg/topology"
	"github.com/matzehuels/pcegraph/pkg/topology/store"
)

const graphBody = `{
	"service_format": "Ethernet",
	"service_rate": 100,
	"a_end": {"node": "XPDR-A1"},
	"z_end": {"node": "XPDR-C1"}
}`

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	snap, err := topology.Load("../../examples/topologies/disaggregated.yaml")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	s := store.NewMemoryStore()
	if err := s.Write(context.Background(), snap); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	srv := httptest.NewServer(New(pipeline.NewRunner(s, nil), opts).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var got map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["status"] != "ok" || got["version"] == "" {
		t.Errorf("health = %v, want status ok with a version", got)
	}
}

type graphReply struct {
	RequestID    string `json:"request_id"`
	Success      bool   `json:"success"`
	ResponseCode string `json:"response_code"`
	LocalCause   string `json:"local_cause"`
	ServiceType  string `json:"service_type"`
	Error        string `json:"error"`
	DOT          string `json:"dot"`
	Graph        *struct {
		AEnd  string            `json:"a_end"`
		Nodes []json.RawMessage `json:"nodes"`
		Links []json.RawMessage `json:"links"`
	} `json:"graph"`
}

func TestGraph(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name       string
		body       string
		query      string
		wantStatus int
		wantOK     bool
		wantCause  string
		wantNodes  int
	}{
		{
			name:       "computed",
			body:       graphBody,
			wantStatus: http.StatusOK,
			wantOK:     true,
			wantCause:  "NONE",
			wantNodes:  6,
		},
		{
			name:       "unknown endpoint",
			body:       strings.Replace(graphBody, "XPDR-C1", "XPDR-Z9", 1),
			wantStatus: http.StatusOK,
			wantCause:  "NO_PATH_EXISTS",
		},
		{
			name:       "unsupported rate",
			body:       strings.Replace(graphBody, "100", "400", 1),
			wantStatus: http.StatusBadRequest,
			wantCause:  "INT_PROBLEM",
		},
		{
			name:       "missing endpoint",
			body:       `{"service_format": "Ethernet", "service_rate": 100, "z_end": {"node": "XPDR-C1"}}`,
			wantStatus: http.StatusBadRequest,
			wantCause:  "INT_PROBLEM",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+"/v1/graph"+tt.query, tt.body, nil)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.wantStatus, body)
			}
			var got graphReply
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Success != tt.wantOK {
				t.Errorf("success = %v, want %v (%s)", got.Success, tt.wantOK, got.Error)
			}
			if got.LocalCause != tt.wantCause {
				t.Errorf("local_cause = %q, want %q", got.LocalCause, tt.wantCause)
			}
			if got.RequestID == "" {
				t.Error("request_id is empty")
			}
			if tt.wantOK {
				if got.Graph == nil {
					t.Fatal("graph missing from successful response")
				}
				if len(got.Graph.Nodes) != tt.wantNodes {
					t.Errorf("nodes = %d, want %d", len(got.Graph.Nodes), tt.wantNodes)
				}
				if got.Graph.AEnd != "XPDR-A1-XPDR1" {
					t.Errorf("a_end = %q, want XPDR-A1-XPDR1", got.Graph.AEnd)
				}
			} else if got.Graph != nil {
				t.Error("failed response carries a graph")
			}
		})
	}
}

func TestGraphBadBody(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, body := range []string{`{`, `{"service_format": "Ethernet", "colour": "blue"}`} {
		resp, _ := do(t, http.MethodPost, srv.URL+"/v1/graph", body, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("POST %s: status = %d, want %d", body, resp.StatusCode, http.StatusBadRequest)
		}
	}
}

func TestGraphRequestIDAndDOT(t *testing.T) {
	srv := newTestServer(t, Options{})
	header := http.Header{"X-Request-Id": []string{"req-42"}}
	_, body := do(t, http.MethodPost, srv.URL+"/v1/graph?dot=true", graphBody, header)

	var got graphReply
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RequestID != "req-42" {
		t.Errorf("request_id = %q, want req-42", got.RequestID)
	}
	if !strings.HasPrefix(got.DOT, "digraph PCE {") {
		t.Errorf("dot = %q, want DOT source", got.DOT)
	}
}

func TestGraphDefaults(t *testing.T) {
	var seen pipeline.Options
	srv := newTestServer(t, Options{Defaults: func(o *pipeline.Options) {
		if o.XponderWavelengths == 0 {
			o.XponderWavelengths = 40
		}
		seen = *o
	}})
	resp, _ := do(t, http.MethodPost, srv.URL+"/v1/graph", graphBody, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if seen.XponderWavelengths != 40 {
		t.Errorf("XponderWavelengths = %d, want 40", seen.XponderWavelengths)
	}
}

func TestTopologies(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/topologies", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var list struct {
		Networks []string `json:"networks"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Networks) != 1 || list.Networks[0] != "openroadm-topology" {
		t.Errorf("networks = %v, want [openroadm-topology]", list.Networks)
	}

	tests := []struct {
		network    string
		wantStatus int
	}{
		{"openroadm-topology", http.StatusOK},
		{"otn-topology", http.StatusNotFound},
		{"a..b", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			resp, body := do(t, http.MethodGet, srv.URL+"/v1/topologies/"+tt.network, "", nil)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var sum topologySummary
			if err := json.Unmarshal(body, &sum); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if sum.Nodes != 6 || sum.NodesByType["SRG"] != 2 {
				t.Errorf("summary = %+v, want 6 nodes with 2 SRGs", sum)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	observability.SetHTTPHooks(metrics.NewHTTPHooks(reg))
	t.Cleanup(observability.Reset)

	srv := newTestServer(t, Options{Metrics: reg.Handler()})
	do(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	do(t, http.MethodGet, srv.URL+"/v1/topologies/openroadm-topology", "", nil)

	_, body := do(t, http.MethodGet, srv.URL+"/metrics", "", nil)
	for _, want := range []string{
		`pcegraph_http_requests_total{method="GET",path="/healthz",status="200"} 1`,
		`pcegraph_http_requests_total{method="GET",path="/v1/topologies/{network}",status="200"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(nil); got != http.StatusOK {
		t.Errorf("statusFor(nil) = %d, want %d", got, http.StatusOK)
	}
	if got := statusFor(io.EOF); got != http.StatusInternalServerError {
		t.Errorf("statusFor(io.EOF) = %d, want %d", got, http.StatusInternalServerError)
	}
}
