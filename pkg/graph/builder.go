package graph

import (
	"slices"

	"github.com/matzehuels/pcegraph/pkg/service"
)

// Builder assembles a graph. It is used by a single request and is not safe
// for concurrent use.
//
// The zero value is not usable - use NewBuilder.
type Builder struct {
	nodes       map[string]*Node
	links       map[string]*Link
	aEnd        string
	zEnd        string
	serviceType service.Type
}

// NewBuilder creates an empty builder for the given service type.
func NewBuilder(st service.Type) *Builder {
	return &Builder{
		nodes:       make(map[string]*Node),
		links:       make(map[string]*Link),
		serviceType: st,
	}
}

// AddNode adds a validated node. The builder takes ownership of n.
func (b *Builder) AddNode(n *Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := b.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	n.outgoing = nil
	b.nodes[n.ID] = n
	return nil
}

// Node returns the node with the given id while the graph is being built.
func (b *Builder) Node(id string) (*Node, bool) {
	n, ok := b.nodes[id]
	return n, ok
}

// HasNode reports whether a node is present.
func (b *Builder) HasNode(id string) bool {
	_, ok := b.nodes[id]
	return ok
}

// RemoveNode removes a node together with every link touching it.
func (b *Builder) RemoveNode(id string) {
	if _, ok := b.nodes[id]; !ok {
		return
	}
	for lid, l := range b.links {
		if l.Source.Node == id || l.Dest.Node == id {
			b.RemoveLink(lid)
		}
	}
	delete(b.nodes, id)
}

// NodeIDs returns the ids of all nodes, sorted.
func (b *Builder) NodeIDs() []string {
	ids := make([]string, 0, len(b.nodes))
	for id := range b.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// NodeCount returns the number of nodes.
func (b *Builder) NodeCount() int { return len(b.nodes) }

// LinkCount returns the number of links.
func (b *Builder) LinkCount() int { return len(b.links) }

// AddLink adds a link and appends it to the outgoing list of attachTo,
// which must be one of the link's endpoints. The builder takes ownership
// of l.
func (b *Builder) AddLink(l *Link, attachTo string) error {
	if l.ID == "" {
		return ErrInvalidLinkID
	}
	if _, exists := b.links[l.ID]; exists {
		return ErrDuplicateLinkID
	}
	if _, ok := b.nodes[l.Source.Node]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := b.nodes[l.Dest.Node]; !ok {
		return ErrUnknownTargetNode
	}
	if attachTo != l.Source.Node && attachTo != l.Dest.Node {
		return ErrInvalidAttachment
	}
	b.links[l.ID] = l
	n := b.nodes[attachTo]
	n.outgoing = append(n.outgoing, l.ID)
	return nil
}

// HasLink reports whether a link is present.
func (b *Builder) HasLink(id string) bool {
	_, ok := b.links[id]
	return ok
}

// RemoveLink removes a link and detaches it from its node. It reports
// whether the link was present.
func (b *Builder) RemoveLink(id string) bool {
	l, ok := b.links[id]
	if !ok {
		return false
	}
	delete(b.links, id)
	for _, nid := range []string{l.Source.Node, l.Dest.Node} {
		if n, ok := b.nodes[nid]; ok {
			n.outgoing = slices.DeleteFunc(n.outgoing, func(s string) bool { return s == id })
		}
	}
	return true
}

// SetEndpoints records the A and Z ends. Both must already be nodes.
func (b *Builder) SetEndpoints(a, z string) error {
	if !b.HasNode(a) || !b.HasNode(z) {
		return ErrUnknownEndpoint
	}
	b.aEnd, b.zEnd = a, z
	return nil
}

// Freeze returns an immutable copy of the graph. The builder can be
// discarded afterwards; later builder changes do not affect the graph.
func (b *Builder) Freeze() (*Graph, error) {
	g := &Graph{
		nodes:       make(map[string]*Node, len(b.nodes)),
		links:       make(map[string]*Link, len(b.links)),
		aEnd:        b.aEnd,
		zEnd:        b.zEnd,
		serviceType: b.serviceType,
	}
	for id, n := range b.nodes {
		g.nodes[id] = n.clone()
	}
	for id, l := range b.links {
		g.links[id] = l.clone()
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
