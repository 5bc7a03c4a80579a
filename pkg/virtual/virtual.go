// Package virtual recovers the internal structure of composite ROADMs.
//
// Some topology models describe a ROADM as a single node whose photonic
// ports are only grouped by forwarding rules. Path computation needs the
// degree/SRG split, so [Synthesize] rebuilds it:
//
//  1. photonic ports are classified as add/drop (OTS without OMS) or line
//     (OTS and OMS) ports; ports that are out of service or have no free
//     spectrum are ignored
//  2. every forwarding rule group gets virtual ports: one shared port for a
//     blocking group, one per physical port otherwise
//  3. virtual ports in the same rule group, or in rule groups joined by an
//     inter-rule-group with spare capacity, are meshed with internal links
//  4. every virtual port becomes a DEGREE or SRG sub-node owning its
//     physical ports, and external links are re-pointed to the sub-nodes
//
// Composite xponders are not split; their ports are typed as network or
// client ports and, when the request pins a client port, pruned to the
// network ports that client is wired to.
//
// The output is an ordinary disaggregated snapshot that flows through the
// same validators as any other.
package virtual

import (
	"cmp"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pcegraph/pkg/topology"
)

// Options configures synthesis.
type Options struct {
	// ClientTPs pins the client port of an endpoint, keyed by the endpoint
	// identifier (device id or node id).
	ClientTPs map[string]string

	Logger *log.Logger
}

// Report summarizes what synthesis did.
type Report struct {
	SplitNodes    int
	SubNodes      int
	InternalLinks int
	DroppedLinks  int
}

// Synthesize returns a disaggregated copy of a composite snapshot. A
// snapshot that is not composite is returned unchanged.
func Synthesize(snap *topology.Snapshot, opts Options) (*topology.Snapshot, Report) {
	var rep Report
	if snap == nil || !snap.Composite() {
		return snap, rep
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	out := &topology.Snapshot{
		Network: snap.Network,
		Model:   topology.ModelDisaggregated,
	}

	// owner maps composite node id → physical tp → sub-node id.
	owner := make(map[string]map[string]string)
	var internal []topology.Link

	for i := range snap.Nodes {
		n := &snap.Nodes[i]
		if n.Type != topology.NodeTypeROADM {
			out.Nodes = append(out.Nodes, splitXponder(n, opts.ClientTPs[endpointID(n)]))
			continue
		}
		s := splitROADM(n)
		if len(s.nodes) == 0 {
			logger.Debug("composite node has no usable photonic port", "node", n.ID)
			continue
		}
		rep.SplitNodes++
		rep.SubNodes += len(s.nodes)
		rep.InternalLinks += len(s.links)
		owner[n.ID] = s.owner
		out.Nodes = append(out.Nodes, s.nodes...)
		internal = append(internal, s.links...)
	}

	for _, l := range snap.Links {
		src, okSrc := repoint(owner, l.Source)
		dst, okDst := repoint(owner, l.Dest)
		if !okSrc || !okDst {
			rep.DroppedLinks++
			logger.Debug("link endpoint has no sub-node", "link", l.ID)
			continue
		}
		l.Source, l.Dest = src, dst
		out.Links = append(out.Links, l)
	}
	out.Links = append(out.Links, internal...)

	logger.Debug("synthesized virtual topology",
		"composite", rep.SplitNodes, "subnodes", rep.SubNodes,
		"internal_links", rep.InternalLinks, "dropped_links", rep.DroppedLinks)
	return out, rep
}

func endpointID(n *topology.Node) string {
	if dev := n.DeviceID(); dev != "" {
		return dev
	}
	return n.ID
}

// repoint moves a link endpoint on a split node to the owning sub-node.
func repoint(owner map[string]map[string]string, ep topology.Endpoint) (topology.Endpoint, bool) {
	tps, split := owner[ep.Node]
	if !split {
		return ep, true
	}
	sub, ok := tps[ep.TP]
	if !ok {
		return ep, false
	}
	return topology.Endpoint{Node: sub, TP: ep.TP}, true
}

type portRole int

const (
	roleNone portRole = iota
	roleAddDrop
	roleLine
)

func classify(tp *topology.TerminationPoint) portRole {
	if !tp.InService() || len(tp.AvailableWavelengths) == 0 || !tp.HasCapability(topology.CapabilityOTS) {
		return roleNone
	}
	if tp.HasCapability(topology.CapabilityOMS) {
		return roleLine
	}
	return roleAddDrop
}

type split struct {
	nodes []topology.Node
	links []topology.Link
	owner map[string]string
}

func splitROADM(n *topology.Node) split {
	roles := make(map[string]portRole)
	for i := range n.TerminationPoints {
		tp := &n.TerminationPoints[i]
		if r := classify(tp); r != roleNone {
			roles[tp.ID] = r
		}
	}

	groups := slices.Clone(n.RuleGroups)
	slices.SortFunc(groups, func(a, b topology.RuleGroup) int { return cmp.Compare(a.ID, b.ID) })

	byGroup := make(map[string][]*Port)
	var ports []*Port
	for _, g := range groups {
		if !g.Forwarding.Forwards() {
			continue
		}
		gp := groupPorts(n.ID, g, roles)
		if len(gp) == 0 {
			continue
		}
		byGroup[g.ID] = gp
		ports = append(ports, gp...)
	}
	if len(ports) == 0 {
		return split{}
	}

	links := make(map[string]topology.Link)
	subOf := assignSubNodes(n.ID, ports)
	for _, g := range groups {
		mesh(byGroup[g.ID], nil, subOf, links)
	}
	irgs := slices.Clone(n.InterRuleGroups)
	slices.SortFunc(irgs, func(a, b topology.InterRuleGroup) int { return cmp.Compare(a.ID, b.ID) })
	for _, irg := range irgs {
		if irg.AvailableCapacity == 0 {
			continue
		}
		var members []*Port
		for _, gid := range irg.RuleGroups {
			members = append(members, byGroup[gid]...)
		}
		mesh(members, func(a, b *Port) bool { return a.Group != b.Group }, subOf, links)
	}

	s := split{owner: make(map[string]string)}
	s.nodes = subNodes(n, ports, subOf, s.owner)
	for _, id := range sortedKeys(links) {
		s.links = append(s.links, links[id])
	}
	return s
}

// groupPorts synthesizes the virtual ports of one forwarding rule group.
func groupPorts(node string, g topology.RuleGroup, roles map[string]portRole) []*Port {
	var pps, ttps []string
	for _, p := range g.Ports {
		switch roles[p] {
		case roleAddDrop:
			pps = append(pps, p)
		case roleLine:
			ttps = append(ttps, p)
		}
	}
	slices.Sort(pps)
	pps = slices.Compact(pps)
	slices.Sort(ttps)
	ttps = slices.Compact(ttps)

	var out []*Port
	add := func(kind PortKind, tp string, members []string) {
		name := CanonicalName(node, kind, g.ID, tp)
		out = append(out, &Port{ID: PortID(name), Name: name, Kind: kind, Group: g.ID, Members: members})
	}
	if g.Forwarding.Blocking() {
		if len(pps) > 0 {
			add(KindCP, "", pps)
		}
		if len(ttps) > 0 {
			add(KindCTP, "", ttps)
		}
		return out
	}
	for _, p := range pps {
		add(KindCP, p, []string{p})
	}
	for _, p := range ttps {
		add(KindCTP, p, []string{p})
	}
	return out
}

// mesh adds a bidirectional link between every connectable pair of ports.
// Pairs are visited in id order so each unordered pair is handled once.
func mesh(ports []*Port, keep func(a, b *Port) bool, subOf map[string]string, links map[string]topology.Link) {
	sorted := slices.Clone(ports)
	slices.SortFunc(sorted, func(a, b *Port) int { return cmp.Compare(a.ID, b.ID) })
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if a.ID == b.ID || (keep != nil && !keep(a, b)) {
				continue
			}
			if a.Kind == KindCP && b.Kind == KindCP {
				continue
			}
			ab, ba := LinkID(a.ID, b.ID), LinkID(b.ID, a.ID)
			links[ab] = internalLink(ab, ba, a, b, subOf)
			links[ba] = internalLink(ba, ab, b, a, subOf)
		}
	}
}

func internalLink(id, opposite string, from, to *Port, subOf map[string]string) topology.Link {
	return topology.Link{
		ID:           id,
		Type:         linkType(from, to),
		Source:       topology.Endpoint{Node: subOf[from.ID], TP: from.ID},
		Dest:         topology.Endpoint{Node: subOf[to.ID], TP: to.ID},
		AdminState:   topology.StateInService,
		OperState:    topology.StateInService,
		OppositeLink: opposite,
	}
}

var indexPatterns = map[PortKind]*regexp.Regexp{
	KindCP:  regexp.MustCompile(`(?i)SRG-?(\d+)`),
	KindCTP: regexp.MustCompile(`(?i)DEG(?:REE)?-?(\d+)`),
}

// parseIndex finds the SRG or degree number in the rule group id or the
// member port ids. It returns 0 when none is found.
func parseIndex(p *Port) int {
	re := indexPatterns[p.Kind]
	for _, s := range append([]string{p.Group}, p.Members...) {
		if m := re.FindStringSubmatch(s); m != nil {
			if idx, err := strconv.Atoi(m[1]); err == nil && idx > 0 {
				return idx
			}
		}
	}
	return 0
}

// assignSubNodes names the sub-node of every port. Parsed indexes are kept
// in canonical-name order; a port whose index is missing or already taken
// gets the lowest free one.
func assignSubNodes(node string, ports []*Port) map[string]string {
	sorted := slices.Clone(ports)
	slices.SortFunc(sorted, func(a, b *Port) int { return cmp.Compare(a.Name, b.Name) })

	used := map[PortKind]map[int]bool{KindCP: {}, KindCTP: {}}
	index := make(map[string]int, len(sorted))
	for _, p := range sorted {
		if idx := parseIndex(p); idx > 0 && !used[p.Kind][idx] {
			used[p.Kind][idx] = true
			index[p.ID] = idx
		}
	}
	for _, p := range sorted {
		if _, ok := index[p.ID]; ok {
			continue
		}
		idx := 1
		for used[p.Kind][idx] {
			idx++
		}
		used[p.Kind][idx] = true
		index[p.ID] = idx
	}

	out := make(map[string]string, len(sorted))
	for _, p := range sorted {
		prefix := "DEG"
		if p.Kind == KindCP {
			prefix = "SRG"
		}
		out[p.ID] = fmt.Sprintf("%s-%s%d", node, prefix, index[p.ID])
	}
	return out
}

// subNodes builds one sub-node per virtual port. A physical port shared by
// several rule groups belongs to the first sub-node in id order.
func subNodes(n *topology.Node, ports []*Port, subOf map[string]string, owner map[string]string) []topology.Node {
	supporting := slices.Clone(n.SupportingNodes)
	if n.DeviceID() == "" {
		supporting = append(supporting, topology.SupportingNode{NetworkRef: topology.NetworkOpenROADM, NodeRef: n.ID})
	}

	sorted := slices.Clone(ports)
	slices.SortFunc(sorted, func(a, b *Port) int { return cmp.Compare(subOf[a.ID], subOf[b.ID]) })

	out := make([]topology.Node, 0, len(sorted))
	for _, p := range sorted {
		sub := topology.Node{
			ID:              subOf[p.ID],
			Type:            p.SubNodeType(),
			AdminState:      n.AdminState,
			OperState:       n.OperState,
			SupportingNodes: supporting,
			TerminationPoints: []topology.TerminationPoint{{
				ID:         p.ID,
				Type:       p.TPType(),
				AdminState: topology.StateInService,
				OperState:  topology.StateInService,
			}},
		}
		var wl []int
		for _, m := range p.Members {
			tp := n.TP(m)
			wl = append(wl, tp.AvailableWavelengths...)
			if _, taken := owner[m]; taken {
				continue
			}
			owner[m] = sub.ID
			phys := *tp
			phys.Type = physicalType(p.Kind)
			sub.TerminationPoints = append(sub.TerminationPoints, phys)
		}
		owner[p.ID] = sub.ID
		slices.Sort(wl)
		sub.Wavelengths = slices.Compact(wl)
		out = append(out, sub)
	}
	return out
}

func physicalType(k PortKind) topology.TPType {
	if k == KindCP {
		return topology.TPSrgTxRxPP
	}
	return topology.TPDegreeTxRxTTP
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
