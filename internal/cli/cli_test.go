package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pcegraph/pkg/service"
)

const fixture = "../../examples/topologies/disaggregated.yaml"

// testEnv isolates the CLI from the user's config and store. Human-readable
// output is captured in the returned buffer.
func testEnv(t *testing.T) *bytes.Buffer {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PCEGRAPH_CONFIG", filepath.Join(dir, "missing.toml"))
	t.Setenv("PCEGRAPH_STORE_BACKEND", "file")
	t.Setenv("PCEGRAPH_STORE_DIR", filepath.Join(dir, "store"))

	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"compute", "serve", "topology", "version", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, cmd, err)
		}
	}
	for _, flag := range []string{"config", "verbose"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestSetup(t *testing.T) {
	testEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := "[log]\nlevel = \"warn\"\nformat = \"json\"\n\n[compute]\nxponder_wavelengths = 40\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		verbose bool
		want    log.Level
	}{
		{"configured level", false, log.WarnLevel},
		{"verbose wins", true, log.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(io.Discard, LogInfo)
			c.configPath = path
			c.verbose = tt.verbose
			cmd := &cobra.Command{}
			cmd.SetContext(context.Background())
			if err := c.setup(cmd, nil); err != nil {
				t.Fatalf("setup() error: %v", err)
			}
			if got := c.Logger.GetLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
			if c.Config.Compute.XponderWavelengths != 40 {
				t.Errorf("XponderWavelengths = %d, want 40", c.Config.Compute.XponderWavelengths)
			}
			if loggerFromContext(cmd.Context()) != c.Logger {
				t.Error("setup() did not attach the logger to the context")
			}
		})
	}
}

func TestSetupInvalidConfig(t *testing.T) {
	testEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", path, "version"); err == nil {
		t.Error("expected an error for an invalid log level")
	}
}

func TestComputeOptions(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(*testing.T, *computeFlags, *cobra.Command)
	}{
		{
			name: "endpoints and service",
			args: []string{"--format", "ODU", "--rate", "10", "--a-node", "SPDR-SA1",
				"--a-client-tp", "XPDR1-CLIENT1", "--z-node", "SPDR-SC1", "--z-device", "SPDR-SC1"},
			check: func(t *testing.T, f *computeFlags, cmd *cobra.Command) {
				opts := f.options(cmd)
				if opts.ServiceFormat != service.FormatODU || opts.ServiceRate != 10 {
					t.Errorf("service = %s %d, want ODU 10", opts.ServiceFormat, opts.ServiceRate)
				}
				if opts.AEnd.Node != "SPDR-SA1" || opts.AEnd.ClientTP != "XPDR1-CLIENT1" {
					t.Errorf("AEnd = %+v", opts.AEnd)
				}
				if opts.ZEnd.Device != "SPDR-SC1" {
					t.Errorf("ZEnd = %+v", opts.ZEnd)
				}
				if opts.ClientlessOTU != nil {
					t.Error("ClientlessOTU set without the flag")
				}
			},
		},
		{
			name: "constraints",
			args: []string{"--rate", "100", "--a-node", "A", "--z-node", "Z",
				"--exclude-node", "ROADM-B1,ROADM-B2", "--exclude-clli", "NodeB",
				"--exclude-srlg", "1001", "--exclude-srlg", "1002", "--exclude-srlg-link", "L1"},
			check: func(t *testing.T, f *computeFlags, cmd *cobra.Command) {
				c := f.options(cmd).Constraints
				if len(c.ExcludeNodes) != 2 || c.ExcludeNodes[1] != "ROADM-B2" {
					t.Errorf("ExcludeNodes = %v", c.ExcludeNodes)
				}
				if len(c.ExcludeSRLG) != 2 || c.ExcludeSRLG[0] != 1001 || c.ExcludeSRLG[1] != 1002 {
					t.Errorf("ExcludeSRLG = %v, want [1001 1002]", c.ExcludeSRLG)
				}
				if len(c.ExcludeCLLI) != 1 || len(c.ExcludeSRLGLinks) != 1 {
					t.Errorf("constraints = %+v", c)
				}
			},
		},
		{
			name: "tunables",
			args: []string{"--rate", "100", "--a-node", "A", "--z-node", "Z",
				"--clientless-otu=false", "--wavelengths", "40", "--network", "lab"},
			check: func(t *testing.T, f *computeFlags, cmd *cobra.Command) {
				opts := f.options(cmd)
				if opts.ClientlessOTU == nil || *opts.ClientlessOTU {
					t.Errorf("ClientlessOTU = %v, want false", opts.ClientlessOTU)
				}
				if opts.XponderWavelengths != 40 || opts.Network != "lab" {
					t.Errorf("opts = %+v", opts)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &computeFlags{}
			cmd := &cobra.Command{Use: "compute"}
			f.bind(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags() error: %v", err)
			}
			tt.check(t, f, cmd)
		})
	}
}

func computeArgs(extra ...string) []string {
	args := []string{"compute", "--topology", fixture, "--rate", "100",
		"--a-node", "XPDR-A1", "--z-node", "XPDR-C1"}
	return append(args, extra...)
}

func TestComputeJSON(t *testing.T) {
	testEnv(t)

	tests := []struct {
		name      string
		args      []string
		wantErr   bool
		wantCause string
		wantNodes int
	}{
		{"computed", computeArgs("--json"), false, "NONE", 6},
		{"unknown endpoint", computeArgs("--json", "--z-node", "XPDR-Z9"), true, "NO_PATH_EXISTS", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("compute error = %v, wantErr %v", err, tt.wantErr)
			}
			var got struct {
				Success    bool   `json:"success"`
				LocalCause string `json:"local_cause"`
				Graph      *struct {
					Nodes []json.RawMessage `json:"nodes"`
				} `json:"graph"`
			}
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("decode %q: %v", out, err)
			}
			if got.Success == tt.wantErr {
				t.Errorf("success = %v", got.Success)
			}
			if got.LocalCause != tt.wantCause {
				t.Errorf("local_cause = %q, want %q", got.LocalCause, tt.wantCause)
			}
			if tt.wantNodes > 0 && (got.Graph == nil || len(got.Graph.Nodes) != tt.wantNodes) {
				t.Errorf("graph = %+v, want %d nodes", got.Graph, tt.wantNodes)
			}
		})
	}
}

func TestComputeOTN(t *testing.T) {
	testEnv(t)
	out, err := execute(t, "compute", "--topology", "../../examples/topologies/otn.yaml",
		"--format", "ODU", "--rate", "100",
		"--a-node", "SPDR-A1-XPDR1", "--a-device", "SPDR-A1",
		"--z-node", "SPDR-C1-XPDR1", "--z-device", "SPDR-C1", "--json")
	if err != nil {
		t.Fatalf("compute error: %v\n%s", err, out)
	}
	var got struct {
		Success     bool   `json:"success"`
		ServiceType string `json:"service_type"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !got.Success || got.ServiceType != "ODU4" {
		t.Errorf("success/service_type = %v/%q, want true/ODU4", got.Success, got.ServiceType)
	}
}

func TestComputeHuman(t *testing.T) {
	buf := testEnv(t)
	dotPath := filepath.Join(t.TempDir(), "graph.dot")

	if _, err := execute(t, computeArgs("--dot", dotPath)...); err != nil {
		t.Fatalf("compute error: %v", err)
	}
	text := buf.String()
	for _, want := range []string{"Path is calculated by PCE", "XPDR-A1-XPDR1", "ROADM-TO-ROADM", dotPath} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q\n%s", want, text)
		}
	}
	src, err := os.ReadFile(dotPath)
	if err != nil {
		t.Fatalf("read dot: %v", err)
	}
	if !strings.HasPrefix(string(src), "digraph PCE {") {
		t.Errorf("dot file = %q", src)
	}
}

func TestComputeDOTStdout(t *testing.T) {
	testEnv(t)
	out, err := execute(t, computeArgs("--dot", "-")...)
	if err != nil {
		t.Fatalf("compute error: %v", err)
	}
	if !strings.Contains(out, "digraph PCE {") {
		t.Errorf("stdout missing DOT source:\n%s", out)
	}
}

func TestTopologyCommands(t *testing.T) {
	buf := testEnv(t)

	if _, err := execute(t, "topology", "list"); err != nil {
		t.Fatalf("list error: %v", err)
	}
	if !strings.Contains(buf.String(), "No topologies stored") {
		t.Errorf("empty list output = %q", buf.String())
	}

	if _, err := execute(t, "topology", "import", fixture); err != nil {
		t.Fatalf("import error: %v", err)
	}
	if _, err := execute(t, "topology", "import", "--network", "lab-topology", fixture); err != nil {
		t.Fatalf("import --network error: %v", err)
	}

	buf.Reset()
	if _, err := execute(t, "topology", "list"); err != nil {
		t.Fatalf("list error: %v", err)
	}
	if got, want := buf.String(), "lab-topology\nopenroadm-topology\n"; got != want {
		t.Errorf("list = %q, want %q", got, want)
	}

	buf.Reset()
	if _, err := execute(t, "topology", "show", "openroadm-topology"); err != nil {
		t.Fatalf("show error: %v", err)
	}
	for _, want := range []string{"disaggregated", "SRG", "XPONDER-OUTPUT"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("show output missing %q", want)
		}
	}

	out, err := execute(t, "topology", "show", "lab-topology", "-o", "yaml")
	if err != nil {
		t.Fatalf("show -o yaml error: %v", err)
	}
	if !strings.HasPrefix(out, "network: lab-topology") {
		t.Errorf("yaml output starts %q", out[:min(len(out), 40)])
	}

	if _, err := execute(t, "topology", "show", "missing"); err == nil {
		t.Error("show of a missing network should fail")
	}

	// The imported store now serves compute without --topology.
	if _, err := execute(t, "compute", "--rate", "100", "--a-node", "XPDR-A1", "--z-node", "XPDR-C1", "--json"); err != nil {
		t.Errorf("compute from store error: %v", err)
	}
}

func TestCompleteNetworks(t *testing.T) {
	testEnv(t)
	for _, network := range []string{"lab-a", "lab-b", "prod"} {
		if _, err := execute(t, "topology", "import", "--network", network, fixture); err != nil {
			t.Fatalf("import %s error: %v", network, err)
		}
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{"", []string{"lab-a", "lab-b", "prod"}},
		{"lab", []string{"lab-a", "lab-b"}},
		{"x", nil},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.SetContext(context.Background())
			got, directive := New(io.Discard, LogInfo).completeNetworks(cmd, nil, tt.prefix)
			if !slices.Equal(got, tt.want) {
				t.Errorf("completeNetworks(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
			if directive != cobra.ShellCompDirectiveNoFileComp {
				t.Errorf("directive = %v, want NoFileComp", directive)
			}
		})
	}

	out, err := execute(t, cobra.ShellCompRequestCmd, "topology", "show", "pr")
	if err != nil {
		t.Fatalf("__complete error: %v", err)
	}
	if !strings.HasPrefix(out, "prod\n") {
		t.Errorf("__complete output = %q, want prod first", out)
	}
}

func TestVersionCommand(t *testing.T) {
	testEnv(t)
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.Contains(out, "version: dev") {
		t.Errorf("version output = %q", out)
	}
}
