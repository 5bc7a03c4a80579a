package graph

import (
	"maps"
	"slices"

	"github.com/matzehuels/pcegraph/pkg/topology"
)

// NodeKind distinguishes photonic from OTN nodes.
type NodeKind int

const (
	NodeKindOptical NodeKind = iota
	NodeKindOTN
)

func (k NodeKind) String() string {
	if k == NodeKindOTN {
		return "otn"
	}
	return "optical"
}

// Resources is the kind-specific payload of a node. It is implemented by
// *OpticalResources and *OTNResources only.
type Resources interface {
	// Usable reports whether the node still has a resource to offer.
	Usable() bool
	isResources()
}

// OpticalResources are the wavelength-domain resources of an SRG, DEGREE or
// XPONDER node.
type OpticalResources struct {
	// Wavelengths is the sorted set of available wavelength indexes.
	Wavelengths []int
	// CouplingPorts are SRG CP ports.
	CouplingPorts []string
	// AvailablePPs are in-service SRG PP ports with no wavelength assigned.
	AvailablePPs []string
	// NetworkTPs are xponder network TPs that can carry the service.
	NetworkTPs []string
	// BusyTPs already carry a wavelength.
	BusyTPs []string
	// Clients maps a network TP to its client TP. An empty value marks a
	// client-less infrastructure connection.
	Clients map[string]string
}

func (*OpticalResources) isResources() {}

// Usable reports whether at least one wavelength is available.
func (r *OpticalResources) Usable() bool { return len(r.Wavelengths) > 0 }

// OTNResources are the tributary resources of a MUXPDR, SWITCH or TPDR node.
type OTNResources struct {
	NetworkTPs []string
	ClientTPs  []string
	BusyTPs    []string
	TribPorts  map[string][]int
	TribSlots  map[string][]int
	Clients    map[string]string
	// Transit marks a switch used as an intermediate node.
	Transit bool
}

func (*OTNResources) isResources() {}

// Usable reports whether the node has a usable TP pair: two network TPs for
// a transit switch, otherwise a network TP plus a client TP when clients
// are required.
func (r *OTNResources) Usable() bool {
	if r.Transit {
		return len(r.NetworkTPs) >= 2
	}
	return len(r.NetworkTPs) > 0
}

// Node is a validated graph node.
//
// Nodes are created by the node validator and must not be modified once
// handed to a [Builder], except through the Builder itself.
type Node struct {
	ID         string
	DeviceID   string
	CLLI       string
	Type       topology.NodeType
	Kind       NodeKind
	AdminState topology.State
	OperState  topology.State
	Resources  Resources

	outgoing []string
}

// OpticalResources returns the photonic payload of the node.
func (n *Node) OpticalResources() (*OpticalResources, bool) {
	r, ok := n.Resources.(*OpticalResources)
	return r, ok
}

// OTNResources returns the OTN payload of the node.
func (n *Node) OTNResources() (*OTNResources, bool) {
	r, ok := n.Resources.(*OTNResources)
	return r, ok
}

// Valid reports whether the node satisfies the graph membership invariant.
func (n *Node) Valid() bool {
	return n.ID != "" && n.Resources != nil && n.Resources.Usable()
}

// OutgoingLinks returns the ids of links leaving this node, in insertion order.
func (n *Node) OutgoingLinks() []string { return slices.Clone(n.outgoing) }

// HasWavelength reports whether wavelength index idx is available.
func (n *Node) HasWavelength(idx int) bool {
	r, ok := n.OpticalResources()
	if !ok {
		return false
	}
	_, found := slices.BinarySearch(r.Wavelengths, idx)
	return found
}

// IsTPBusy reports whether tp already carries traffic.
func (n *Node) IsTPBusy(tp string) bool {
	switch r := n.Resources.(type) {
	case *OpticalResources:
		return slices.Contains(r.BusyTPs, tp)
	case *OTNResources:
		return slices.Contains(r.BusyTPs, tp)
	}
	return false
}

// ClientForTP returns the client TP serving tp. For an SRG coupling port it
// is the first available PP; for an xponder or OTN network TP it is the
// mapped client TP. It returns "" when there is none.
func (n *Node) ClientForTP(tp string) string {
	switch r := n.Resources.(type) {
	case *OpticalResources:
		if c, ok := r.Clients[tp]; ok {
			return c
		}
		if n.Type == topology.NodeTypeSRG {
			if slices.Contains(r.AvailablePPs, tp) {
				return tp
			}
			if slices.Contains(r.CouplingPorts, tp) && len(r.AvailablePPs) > 0 {
				return r.AvailablePPs[0]
			}
		}
	case *OTNResources:
		return r.Clients[tp]
	}
	return ""
}

// TribPorts returns the free tributary ports of an OTN network TP.
func (n *Node) TribPorts(tp string) []int {
	if r, ok := n.OTNResources(); ok {
		return slices.Clone(r.TribPorts[tp])
	}
	return nil
}

// TribSlots returns the free tributary slots of an OTN network TP.
func (n *Node) TribSlots(tp string) []int {
	if r, ok := n.OTNResources(); ok {
		return slices.Clone(r.TribSlots[tp])
	}
	return nil
}

// clone returns a deep copy used when freezing a graph.
func (n *Node) clone() *Node {
	c := *n
	c.outgoing = slices.Clone(n.outgoing)
	switch r := n.Resources.(type) {
	case *OpticalResources:
		rc := *r
		rc.Wavelengths = slices.Clone(r.Wavelengths)
		rc.CouplingPorts = slices.Clone(r.CouplingPorts)
		rc.AvailablePPs = slices.Clone(r.AvailablePPs)
		rc.NetworkTPs = slices.Clone(r.NetworkTPs)
		rc.BusyTPs = slices.Clone(r.BusyTPs)
		rc.Clients = maps.Clone(r.Clients)
		c.Resources = &rc
	case *OTNResources:
		rc := *r
		rc.NetworkTPs = slices.Clone(r.NetworkTPs)
		rc.ClientTPs = slices.Clone(r.ClientTPs)
		rc.BusyTPs = slices.Clone(r.BusyTPs)
		rc.TribPorts = cloneIntMap(r.TribPorts)
		rc.TribSlots = cloneIntMap(r.TribSlots)
		rc.Clients = maps.Clone(r.Clients)
		c.Resources = &rc
	}
	return &c
}

func cloneIntMap(m map[string][]int) map[string][]int {
	if m == nil {
		return nil
	}
	out := make(map[string][]int, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}
