package virtual

import (
	"slices"

	"github.com/matzehuels/pcegraph/pkg/topology"
)

// splitXponder types the ports of a composite xponder and, when client is
// set, keeps only the network ports that client is wired to.
func splitXponder(n *topology.Node, client string) topology.Node {
	out := *n
	out.TerminationPoints = make([]topology.TerminationPoint, 0, len(n.TerminationPoints))
	for _, tp := range n.TerminationPoints {
		if tp.Type == topology.TPXponderPort || tp.Type == topology.TPPhotonicPort || tp.Type == "" {
			if tp.HasCapability(topology.CapabilityOTS) {
				tp.Type = topology.TPXponderNetwork
			} else {
				tp.Type = topology.TPXponderClient
			}
		}
		out.TerminationPoints = append(out.TerminationPoints, tp)
	}
	if client == "" || out.TP(client) == nil {
		return out
	}

	reach := Reachable(&out, client)
	kept := out.TerminationPoints[:0]
	for _, tp := range out.TerminationPoints {
		if tp.Type.IsNetwork() {
			if !slices.Contains(reach, tp.ID) {
				continue
			}
			if tp.ConnectionMapPort == "" {
				tp.ConnectionMapPort = client
			}
		}
		if tp.ID == client && tp.ConnectionMapPort == "" && len(reach) > 0 {
			tp.ConnectionMapPort = reach[0]
		}
		kept = append(kept, tp)
	}
	out.TerminationPoints = kept
	return out
}

// Reachable returns, sorted, the network ports of n that client is wired
// to: the network ports on its parent chain, the one its connection map
// names, and the network ports sharing a rule group with any port on that
// chain.
func Reachable(n *topology.Node, client string) []string {
	chain := map[string]bool{}
	for cur := client; cur != "" && !chain[cur]; {
		chain[cur] = true
		tp := n.TP(cur)
		if tp == nil {
			break
		}
		if tp.ConnectionMapPort != "" && n.TP(tp.ConnectionMapPort) != nil {
			chain[tp.ConnectionMapPort] = true
		}
		cur = tp.Parent
	}

	var out []string
	addNetwork := func(id string) {
		if tp := n.TP(id); tp != nil && tp.Type.IsNetwork() && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	for id := range chain {
		addNetwork(id)
	}
	for _, g := range n.RuleGroups {
		if !slices.ContainsFunc(g.Ports, func(p string) bool { return chain[p] }) {
			continue
		}
		for _, p := range g.Ports {
			addNetwork(p)
		}
	}
	slices.Sort(out)
	return out
}
