package graph

import (
	"slices"

	"github.com/matzehuels/pcegraph/pkg/impairment"
	"github.com/matzehuels/pcegraph/pkg/topology"
)

// LinkKind distinguishes photonic from OTN links.
type LinkKind int

const (
	LinkKindOptical LinkKind = iota
	LinkKindOTN
)

func (k LinkKind) String() string {
	if k == LinkKindOTN {
		return "otn"
	}
	return "optical"
}

// LinkAttrs is the kind-specific payload of a link. It is implemented by
// *OpticalAttrs and *OTNAttrs only.
type LinkAttrs interface {
	isLinkAttrs()
}

// OpticalAttrs are the derived impairments of a photonic link.
type OpticalAttrs struct {
	impairment.Metrics
}

func (*OpticalAttrs) isLinkAttrs() {}

// OTNAttrs are the bandwidth figures of an OTN link, Mb/s.
type OTNAttrs struct {
	Available uint64
	Used      uint64
	RateType  string
}

func (*OTNAttrs) isLinkAttrs() {}

// Endpoint is a node and termination point pair.
type Endpoint struct {
	Node string
	TP   string
}

// Link is a validated graph edge.
type Link struct {
	ID           string
	Type         topology.LinkType
	Kind         LinkKind
	Source       Endpoint
	Dest         Endpoint
	AdminState   topology.State
	OperState    topology.State
	OppositeLink string
	// Client is the client TP reached through this link, if any.
	Client string
	Attrs  LinkAttrs

	// Weight is written by path search. Nothing in graph construction
	// reads it.
	Weight float64
}

// Impairments returns the photonic payload of the link.
func (l *Link) Impairments() (*OpticalAttrs, bool) {
	a, ok := l.Attrs.(*OpticalAttrs)
	return a, ok
}

// Bandwidth returns the OTN payload of the link.
func (l *Link) Bandwidth() (*OTNAttrs, bool) {
	a, ok := l.Attrs.(*OTNAttrs)
	return a, ok
}

// SRLGs returns the shared risk link groups of a photonic link.
func (l *Link) SRLGs() []uint32 {
	if a, ok := l.Impairments(); ok {
		return slices.Clone(a.SRLGs)
	}
	return nil
}

func (l *Link) clone() *Link {
	c := *l
	switch a := l.Attrs.(type) {
	case *OpticalAttrs:
		ac := *a
		ac.SRLGs = slices.Clone(a.SRLGs)
		c.Attrs = &ac
	case *OTNAttrs:
		ac := *a
		c.Attrs = &ac
	}
	return &c
}
