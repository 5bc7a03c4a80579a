package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pcegraph/pkg/builder"
	"github.com/matzehuels/pcegraph/pkg/constraints"
	"github.com/matzehuels/pcegraph/pkg/errors"
	"github.com/matzehuels/pcegraph/pkg/graph"
	"github.com/matzehuels/pcegraph/pkg/pipeline"
	"github.com/matzehuels/pcegraph/pkg/render/dot"
	"github.com/matzehuels/pcegraph/pkg/service"
)

// computeFlags holds the flags of the compute command.
type computeFlags struct {
	requestID string
	format    string
	rate      uint64
	aNode     string
	aDevice   string
	aClientTP string
	zNode     string
	zDevice   string
	zClientTP string

	excludeNodes     []string
	excludeCLLI      []string
	excludeSRLG      []uint
	excludeSRLGLinks []string

	network       string
	topologies    []string
	wavelengths   int
	clientlessOTU bool
	timeout       time.Duration

	jsonOut  bool
	dotOut   string
	svgOut   string
	detailed bool
	browse   bool
}

func (c *CLI) computeCommand() *cobra.Command {
	f := &computeFlags{}
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Build the service graph for one request",
		Long: `Build the validated graph a path computation engine searches for one
service request. The topology is read from the configured store unless
--topology files are given.`,
		Example: `  pcegraph compute --format Ethernet --rate 100 --a-node XPDR-A1 --z-node XPDR-C1
  pcegraph compute --format ODU --rate 100 --a-node SPDR-A1-XPDR1 --a-device SPDR-A1 \
      --z-node SPDR-C1-XPDR1 --z-device SPDR-C1 --topology examples/topologies/otn.yaml --json
  pcegraph compute --format Ethernet --rate 100 --a-node XPDR-A1 --z-node XPDR-C1 \
      --exclude-srlg 1001 --svg graph.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runCompute(cmd, f)
		},
	}
	f.bind(cmd)
	_ = cmd.RegisterFlagCompletionFunc("network", c.completeNetworks)
	return cmd
}

func (f *computeFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.requestID, "request-id", "", "request id (generated when empty)")
	fl.StringVarP(&f.format, "format", "f", string(service.FormatEthernet), "service format: Ethernet, OC, OTU, ODU")
	fl.Uint64VarP(&f.rate, "rate", "r", 0, "service rate in Gb/s")
	fl.StringVar(&f.aNode, "a-node", "", "A-end node id")
	fl.StringVar(&f.aDevice, "a-device", "", "A-end device name")
	fl.StringVar(&f.aClientTP, "a-client-tp", "", "A-end client termination point")
	fl.StringVar(&f.zNode, "z-node", "", "Z-end node id")
	fl.StringVar(&f.zDevice, "z-device", "", "Z-end device name")
	fl.StringVar(&f.zClientTP, "z-client-tp", "", "Z-end client termination point")

	fl.StringSliceVar(&f.excludeNodes, "exclude-node", nil, "node or device ids to exclude (repeatable)")
	fl.StringSliceVar(&f.excludeCLLI, "exclude-clli", nil, "CLLI sites to exclude (repeatable)")
	fl.UintSliceVar(&f.excludeSRLG, "exclude-srlg", nil, "SRLG ids to exclude (repeatable)")
	fl.StringSliceVar(&f.excludeSRLGLinks, "exclude-srlg-link", nil, "exclude every SRLG of these links (repeatable)")

	fl.StringVar(&f.network, "network", "", "override the network layer to read")
	fl.StringArrayVarP(&f.topologies, "topology", "t", nil, "topology snapshot file to use instead of the store (repeatable)")
	fl.IntVar(&f.wavelengths, "wavelengths", 0, "wavelength count assumed for xponders (default from config)")
	fl.BoolVar(&f.clientlessOTU, "clientless-otu", true, "accept OTU4 xponders with no client port")
	fl.DurationVar(&f.timeout, "timeout", 0, "abort the computation after this long")

	fl.BoolVar(&f.jsonOut, "json", false, "print the result and graph as JSON")
	fl.StringVar(&f.dotOut, "dot", "", "write Graphviz DOT to this file (- for stdout)")
	fl.StringVar(&f.svgOut, "svg", "", "render the graph to this SVG file")
	fl.BoolVar(&f.detailed, "detailed", false, "include resources and impairments in DOT/SVG labels")
	fl.BoolVar(&f.browse, "browse", false, "browse the graph interactively")

	_ = cmd.MarkFlagRequired("rate")
	_ = cmd.MarkFlagRequired("a-node")
	_ = cmd.MarkFlagRequired("z-node")
}

// options converts the flags into a pipeline request. Flags the user did not
// set are left zero so configuration defaults can fill them.
func (f *computeFlags) options(cmd *cobra.Command) pipeline.Options {
	srlgs := make([]uint32, 0, len(f.excludeSRLG))
	for _, s := range f.excludeSRLG {
		srlgs = append(srlgs, uint32(s))
	}
	opts := pipeline.Options{
		RequestID:     f.requestID,
		ServiceFormat: service.Format(f.format),
		ServiceRate:   f.rate,
		AEnd:          builder.Endpoint{Node: f.aNode, Device: f.aDevice, ClientTP: f.aClientTP},
		ZEnd:          builder.Endpoint{Node: f.zNode, Device: f.zDevice, ClientTP: f.zClientTP},
		Constraints: constraints.Request{
			ExcludeNodes:     f.excludeNodes,
			ExcludeCLLI:      f.excludeCLLI,
			ExcludeSRLG:      srlgs,
			ExcludeSRLGLinks: f.excludeSRLGLinks,
		},
		Network:            f.network,
		XponderWavelengths: f.wavelengths,
	}
	if cmd.Flags().Changed("clientless-otu") {
		v := f.clientlessOTU
		opts.ClientlessOTU = &v
	}
	return opts
}

// computeOutput is the --json form of a computation.
type computeOutput struct {
	*pipeline.Result
	Graph *graph.Summary `json:"graph,omitempty"`
}

func (c *CLI) runCompute(cmd *cobra.Command, f *computeFlags) error {
	ctx := cmd.Context()
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	logger := loggerFromContext(ctx)

	opts := f.options(cmd)
	c.Config.ApplyCompute(&opts)
	opts.Logger = logger

	runner, err := c.newRunner(ctx, f.topologies)
	if err != nil {
		return err
	}
	defer runner.Close()

	var spinner *Spinner
	if !f.jsonOut && !f.browse {
		spinner = newSpinner(ctx, "Computing graph...")
		spinner.Start()
	}
	res, err := runner.Execute(ctx, opts)
	if spinner != nil {
		spinner.Stop()
	}

	if f.jsonOut {
		if werr := writeComputeJSON(cmd.OutOrStdout(), res, err); werr != nil {
			return werr
		}
		return err
	}
	if err != nil {
		printWarning("%s", res.Message)
		printKeyValue("request", res.RequestID)
		printKeyValue("cause", string(res.LocalCause))
		return err
	}

	printComputeResult(res)
	if err := writeOutputs(ctx, cmd.OutOrStdout(), res.Graph, f); err != nil {
		return err
	}
	if f.browse {
		_, err := tea.NewProgram(newGraphBrowser(res.Graph), tea.WithContext(ctx)).Run()
		return err
	}
	return nil
}

func writeComputeJSON(w io.Writer, res *pipeline.Result, err error) error {
	out := computeOutput{Result: res}
	if err == nil {
		sum := graph.Summarize(res.Graph)
		out.Graph = &sum
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printComputeResult(res *pipeline.Result) {
	g := res.Graph
	printSuccess("%s %s", res.Message, StyleDim.Render("("+string(res.ServiceType)+")"))
	printKeyValue("request", res.RequestID)
	printKeyValue("network", res.Stats.Network)
	printKeyValue("A-end", StyleEndpoint.Render(g.AEnd().ID))
	printKeyValue("Z-end", StyleEndpoint.Render(g.ZEnd().ID))
	printStats(res.Stats.NodeCount, res.Stats.LinkCount, res.Stats.ReadTime+res.Stats.BuildTime)
	printNewline()
	printTable([]string{"Element", "Type", "Count"}, statsRows(g.Stats()))

	rep := res.Report
	if rep.NodesRejected+rep.LinksRejected+rep.LinksIgnored+rep.SRGsPruned > 0 {
		printDetail("rejected %d nodes, %d links; ignored %d links; pruned %d SRGs",
			rep.NodesRejected, rep.LinksRejected, rep.LinksIgnored, rep.SRGsPruned)
	}
	if v := rep.Virtual; v.SplitNodes > 0 {
		printDetail("virtual topology: %d nodes split into %d, %d internal links",
			v.SplitNodes, v.SubNodes, v.InternalLinks)
	}
}

// statsRows flattens graph statistics into table rows sorted by type.
func statsRows(s graph.Stats) [][]string {
	var rows [][]string
	for _, t := range slices.Sorted(maps.Keys(s.NodesByType)) {
		rows = append(rows, []string{"node", string(t), strconv.Itoa(s.NodesByType[t])})
	}
	for _, t := range slices.Sorted(maps.Keys(s.LinksByType)) {
		rows = append(rows, []string{"link", string(t), strconv.Itoa(s.LinksByType[t])})
	}
	return rows
}

func writeOutputs(ctx context.Context, w io.Writer, g *graph.Graph, f *computeFlags) error {
	if f.dotOut == "" && f.svgOut == "" {
		return nil
	}
	src := dot.ToDOT(g, dot.Options{Detailed: f.detailed, ClusterDevices: true})

	switch f.dotOut {
	case "":
	case "-":
		if _, err := io.WriteString(w, src); err != nil {
			return err
		}
	default:
		if err := os.WriteFile(f.dotOut, []byte(src), 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s", f.dotOut)
		}
		printFile(f.dotOut)
	}

	if f.svgOut != "" {
		svg, err := dot.RenderSVG(ctx, src)
		if err != nil {
			return fmt.Errorf("render svg: %w", err)
		}
		if err := os.WriteFile(f.svgOut, svg, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s", f.svgOut)
		}
		printFile(f.svgOut)
	}
	return nil
}
