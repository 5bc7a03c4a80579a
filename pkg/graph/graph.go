package graph

import (
	"errors"
	"maps"
	"slices"

	"github.com/matzehuels/pcegraph/pkg/service"
	"github.com/matzehuels/pcegraph/pkg/topology"
)

var (
	// ErrInvalidNodeID is returned by [Builder.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Builder.AddNode] when a node with
	// the same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidLinkID is returned by [Builder.AddLink] when the link ID is empty.
	ErrInvalidLinkID = errors.New("link ID must not be empty")

	// ErrDuplicateLinkID is returned by [Builder.AddLink] when a link with
	// the same ID already exists.
	ErrDuplicateLinkID = errors.New("duplicate link ID")

	// ErrUnknownSourceNode is returned by [Builder.AddLink] when the source
	// node is not in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Builder.AddLink] when the
	// destination node is not in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidAttachment is returned by [Builder.AddLink] when the link is
	// attached to a node that is neither of its endpoints.
	ErrInvalidAttachment = errors.New("link attached to a non-endpoint node")

	// ErrUnknownEndpoint is returned by [Builder.SetEndpoints] and
	// [Builder.Freeze] when the A or Z end is not in the graph.
	ErrUnknownEndpoint = errors.New("unknown A/Z endpoint")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when a link
	// references a node that doesn't exist.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrUnknownLink is returned by [Graph.SetWeight] for an unknown link id.
	ErrUnknownLink = errors.New("unknown link")
)

// Graph is the finished, immutable result of graph construction. Accessors
// return deep copies of nodes and links.
//
// A Graph is owned by one request. It is safe for concurrent reads; the
// only mutation it allows is [Graph.SetWeight], which belongs to path search
// and must not race with other weight writes.
type Graph struct {
	nodes       map[string]*Node
	links       map[string]*Link
	aEnd        string
	zEnd        string
	serviceType service.Type
}

// ServiceType returns the service type the graph was built for.
func (g *Graph) ServiceType() service.Type { return g.serviceType }

// AEnd returns the A-end node.
func (g *Graph) AEnd() Node { return *g.nodes[g.aEnd].clone() }

// ZEnd returns the Z-end node.
func (g *Graph) ZEnd() Node { return *g.nodes[g.zEnd].clone() }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// LinkCount returns the number of links.
func (g *Graph) LinkCount() int { return len(g.links) }

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n.clone(), true
}

// Link returns the link with the given id.
func (g *Graph) Link(id string) (Link, bool) {
	l, ok := g.links[id]
	if !ok {
		return Link{}, false
	}
	return *l.clone(), true
}

// NodeIDs returns all node ids, sorted.
func (g *Graph) NodeIDs() []string { return slices.Sorted(maps.Keys(g.nodes)) }

// LinkIDs returns all link ids, sorted.
func (g *Graph) LinkIDs() []string { return slices.Sorted(maps.Keys(g.links)) }

// Nodes returns all nodes sorted by id.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, id := range g.NodeIDs() {
		out = append(out, *g.nodes[id].clone())
	}
	return out
}

// Links returns all links sorted by id.
func (g *Graph) Links() []Link {
	out := make([]Link, 0, len(g.links))
	for _, id := range g.LinkIDs() {
		out = append(out, *g.links[id].clone())
	}
	return out
}

// Outgoing returns the links leaving node id, in attachment order.
func (g *Graph) Outgoing(id string) []Link {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]Link, 0, len(n.outgoing))
	for _, lid := range n.outgoing {
		if l, ok := g.links[lid]; ok {
			out = append(out, *l.clone())
		}
	}
	return out
}

// Opposite returns the opposite link of link id, if it is in the graph.
func (g *Graph) Opposite(id string) (Link, bool) {
	l, ok := g.links[id]
	if !ok || l.OppositeLink == "" {
		return Link{}, false
	}
	return g.Link(l.OppositeLink)
}

// SetWeight sets the path-search weight of a link.
func (g *Graph) SetWeight(id string, w float64) error {
	l, ok := g.links[id]
	if !ok {
		return ErrUnknownLink
	}
	l.Weight = w
	return nil
}

// Validate checks the structural invariants of the graph: both A/Z ends
// exist, every link endpoint exists, and every outgoing entry names a link
// leaving that node.
func (g *Graph) Validate() error {
	if _, ok := g.nodes[g.aEnd]; !ok {
		return ErrUnknownEndpoint
	}
	if _, ok := g.nodes[g.zEnd]; !ok {
		return ErrUnknownEndpoint
	}
	for _, l := range g.links {
		if _, ok := g.nodes[l.Source.Node]; !ok {
			return ErrInvalidEdgeEndpoint
		}
		if _, ok := g.nodes[l.Dest.Node]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	for id, n := range g.nodes {
		for _, lid := range n.outgoing {
			l, ok := g.links[lid]
			if !ok || (l.Source.Node != id && l.Dest.Node != id) {
				return ErrInvalidEdgeEndpoint
			}
		}
	}
	return nil
}

// Stats counts nodes and links by type.
type Stats struct {
	Nodes       int
	Links       int
	NodesByType map[topology.NodeType]int
	LinksByType map[topology.LinkType]int
}

// Stats returns node and link counts.
func (g *Graph) Stats() Stats {
	s := Stats{
		Nodes:       len(g.nodes),
		Links:       len(g.links),
		NodesByType: make(map[topology.NodeType]int),
		LinksByType: make(map[topology.LinkType]int),
	}
	for _, n := range g.nodes {
		s.NodesByType[n.Type]++
	}
	for _, l := range g.links {
		s.LinksByType[l.Type]++
	}
	return s
}
