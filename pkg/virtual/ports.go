package virtual

import (
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/pcegraph/pkg/topology"
)

// PortKind is the kind of a synthesized port.
type PortKind string

const (
	// KindCP is a shared coupling port on the add/drop side.
	KindCP PortKind = "CP"
	// KindCTP is a connection port on the line side.
	KindCTP PortKind = "CTP"
)

// namespace scopes every synthesized id.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:pcegraph:virtual"))

// CanonicalName returns the canonical name of a virtual port. Fields are
// joined with "|" in the order node, kind, rule group and, for a port that
// stands for a single physical port, that port's id.
func CanonicalName(node string, kind PortKind, group, tp string) string {
	parts := []string{node, string(kind), group}
	if tp != "" {
		parts = append(parts, tp)
	}
	return strings.Join(parts, "|")
}

// PortID returns the id of the virtual port with the given canonical name.
// The id is a name-based (SHA-1) UUID, so it is stable across runs.
func PortID(name string) string {
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// LinkID returns the id of the internal link from port a to port b.
func LinkID(from, to string) string {
	return PortID("link|" + from + "|" + to)
}

// Port is a synthesized CP or CTP.
type Port struct {
	ID    string
	Name  string
	Kind  PortKind
	Group string
	// Members are the physical ports the virtual port stands for, sorted.
	Members []string
}

// SubNodeType returns the node type of the sub-node owning the port.
func (p *Port) SubNodeType() topology.NodeType {
	if p.Kind == KindCP {
		return topology.NodeTypeSRG
	}
	return topology.NodeTypeDegree
}

// TPType returns the termination point type of the virtual port itself.
func (p *Port) TPType() topology.TPType {
	if p.Kind == KindCP {
		return topology.TPSrgTxRxCP
	}
	return topology.TPDegreeTxRxCTP
}

// linkType returns the internal link type between two virtual ports, or ""
// when the pair must not be connected.
func linkType(from, to *Port) topology.LinkType {
	switch {
	case from.Kind == KindCTP && to.Kind == KindCTP:
		return topology.LinkExpress
	case from.Kind == KindCP && to.Kind == KindCTP:
		return topology.LinkAdd
	case from.Kind == KindCTP && to.Kind == KindCP:
		return topology.LinkDrop
	}
	return ""
}
