package cli

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pcegraph/pkg/errors"
	"github.com/matzehuels/pcegraph/pkg/topology"
)

func (c *CLI) topologyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "topology",
		Aliases: []string{"topo"},
		Short:   "Manage stored topologies",
		Long:    `Import, list, and inspect the topology snapshots graphs are computed from.`,
	}
	cmd.AddCommand(c.topologyImportCommand())
	cmd.AddCommand(c.topologyListCommand())
	cmd.AddCommand(c.topologyShowCommand())
	return cmd
}

func (c *CLI) topologyImportCommand() *cobra.Command {
	var network string
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import snapshot files into the store",
		Long: `Import YAML or JSON snapshot files into the configured store. Each file
replaces the stored snapshot of its network.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if network != "" && len(args) > 1 {
				return fmt.Errorf("--network needs exactly one file")
			}

			s, err := c.openStore(ctx, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			prog := newProgress(loggerFromContext(ctx))
			for _, path := range args {
				snap, err := topology.Load(path)
				if err != nil {
					return err
				}
				if network != "" {
					snap.Network = network
				}
				if err := errors.ValidateNetworkName(snap.Network); err != nil {
					return fmt.Errorf("%s: %s", path, errors.UserMessage(err))
				}
				if err := s.Write(ctx, snap); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				printSuccess("Imported %s", StyleHighlight.Render(snap.Network))
				printDetail("%d nodes · %d links", len(snap.Nodes), len(snap.Links))
				printFile(path)
			}
			prog.done(fmt.Sprintf("Imported %d topologies", len(args)))
			return nil
		},
	}
	cmd.Flags().StringVar(&network, "network", "", "store the snapshot under this network name")
	_ = cmd.RegisterFlagCompletionFunc("network", c.completeNetworks)
	return cmd
}

func (c *CLI) topologyListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored networks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.openStore(ctx, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			networks, err := s.Networks(ctx)
			if err != nil {
				return err
			}
			if len(networks) == 0 {
				printInfo("No topologies stored")
				printNextStep("Import one", appName+" topology import FILE")
				return nil
			}
			for _, n := range networks {
				fmt.Fprintln(stdout, n)
			}
			return nil
		},
	}
}

func (c *CLI) topologyShowCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show NETWORK",
		Short: "Show a stored topology",
		Long: `Show a stored topology as a summary table, or dump the raw snapshot with
--output yaml or --output json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := errors.ValidateNetworkName(args[0]); err != nil {
				return err
			}
			s, err := c.openStore(ctx, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := s.Read(ctx, args[0])
			if err != nil {
				return err
			}

			switch output {
			case "table", "":
				printSnapshot(snap)
				return nil
			case "yaml":
				return topology.Encode(cmd.OutOrStdout(), snap, topology.FormatYAML)
			case "json":
				return topology.Encode(cmd.OutOrStdout(), snap, topology.FormatJSON)
			default:
				return fmt.Errorf("unknown output %q (want table, yaml or json)", output)
			}
		},
	}
	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return c.completeNetworks(cmd, args, toComplete)
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output: table, yaml, json")
	return cmd
}

func printSnapshot(snap *topology.Snapshot) {
	printKeyValue("network", snap.Network)
	if snap.Model != "" {
		printKeyValue("model", string(snap.Model))
	}
	printKeyValue("nodes", strconv.Itoa(len(snap.Nodes)))
	printKeyValue("links", strconv.Itoa(len(snap.Links)))
	printNewline()

	nodes := make(map[string]int)
	for _, n := range snap.Nodes {
		nodes[string(n.Type)]++
	}
	links := make(map[string]int)
	for _, l := range snap.Links {
		links[string(l.Type)]++
	}
	var rows [][]string
	for _, t := range sortedTypes(nodes) {
		rows = append(rows, []string{"node", t, strconv.Itoa(nodes[t])})
	}
	for _, t := range sortedTypes(links) {
		rows = append(rows, []string{"link", t, strconv.Itoa(links[t])})
	}
	if len(rows) > 0 {
		printTable([]string{"Element", "Type", "Count"}, rows)
	}
}

func sortedTypes(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

