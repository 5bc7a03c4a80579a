// Package constraints implements the hard exclusion constraints of a path
// computation request.
//
// A [Request] carries what the caller asked for: nodes, facilities (CLLI)
// and SRLGs to avoid, plus links whose SRLGs must be avoided. [Expand]
// resolves that request against the raw topology into a [Set] of primitive
// exclusions, which is then read-only for the rest of the computation.
//
// Only hard constraints live here. Soft constraints influence path scoring
// and belong to path search.
package constraints

import (
	"slices"

	"github.com/matzehuels/pcegraph/pkg/errors"
	"github.com/matzehuels/pcegraph/pkg/topology"
)

// Request is the caller-supplied constraint input.
type Request struct {
	ExcludeNodes []string `json:"exclude_nodes,omitempty" yaml:"exclude_nodes,omitempty"`
	ExcludeCLLI  []string `json:"exclude_clli,omitempty" yaml:"exclude_clli,omitempty"`
	ExcludeSRLG  []uint32 `json:"exclude_srlg,omitempty" yaml:"exclude_srlg,omitempty"`
	// ExcludeSRLGLinks names links the path must be SRLG-diverse from.
	ExcludeSRLGLinks []string `json:"exclude_srlg_links,omitempty" yaml:"exclude_srlg_links,omitempty"`
}

// Empty reports whether the request constrains nothing.
func (r Request) Empty() bool {
	return len(r.ExcludeNodes) == 0 && len(r.ExcludeCLLI) == 0 &&
		len(r.ExcludeSRLG) == 0 && len(r.ExcludeSRLGLinks) == 0
}

// Set is the expanded, primitive form of a constraint request.
//
// The zero value excludes nothing.
type Set struct {
	nodes map[string]bool
	cllis map[string]bool
	srlgs map[uint32]bool
}

// Expand resolves diversity constraints against the given snapshots:
//   - a raw node named in ExcludeNodes also excludes its device and its CLLI
//   - an optical link named in ExcludeSRLGLinks also excludes every SRLG on
//     its spans
//
// Snapshots may be nil.
func Expand(req Request, snaps ...*topology.Snapshot) *Set {
	s := &Set{
		nodes: make(map[string]bool),
		cllis: make(map[string]bool),
		srlgs: make(map[uint32]bool),
	}
	for _, id := range req.ExcludeNodes {
		s.nodes[id] = true
	}
	for _, id := range req.ExcludeCLLI {
		s.cllis[id] = true
	}
	for _, id := range req.ExcludeSRLG {
		s.srlgs[id] = true
	}

	for _, snap := range snaps {
		if snap == nil {
			continue
		}
		for i := range snap.Nodes {
			n := &snap.Nodes[i]
			if !slices.Contains(req.ExcludeNodes, n.ID) {
				continue
			}
			if dev := n.DeviceID(); dev != "" {
				s.nodes[dev] = true
			}
			if clli := n.CLLI(); clli != "" {
				s.cllis[clli] = true
			}
		}
		for i := range snap.Links {
			l := &snap.Links[i]
			if !l.Type.IsOptical() || !slices.Contains(req.ExcludeSRLGLinks, l.ID) {
				continue
			}
			for _, id := range l.SRLGs() {
				s.srlgs[id] = true
			}
		}
	}
	return s
}

// ExcludedNodes returns the excluded node ids, sorted.
func (s *Set) ExcludedNodes() []string { return sortedKeys(s.nodes) }

// ExcludedCLLI returns the excluded CLLI ids, sorted.
func (s *Set) ExcludedCLLI() []string { return sortedKeys(s.cllis) }

// ExcludedSRLGs returns the excluded SRLG ids, sorted.
func (s *Set) ExcludedSRLGs() []uint32 {
	out := make([]uint32, 0, len(s.srlgs))
	for id := range s.srlgs {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// CheckNode returns a CONSTRAINT_EXCLUDED error when n is excluded by its
// own id, its device or its CLLI.
func (s *Set) CheckNode(n *topology.Node) error {
	if s == nil {
		return nil
	}
	switch {
	case s.nodes[n.ID]:
		return errors.New(errors.ErrCodeConstraintExcluded, "node %s is excluded", n.ID)
	case s.nodes[n.DeviceID()]:
		return errors.New(errors.ErrCodeConstraintExcluded, "device %s of node %s is excluded", n.DeviceID(), n.ID)
	case s.cllis[n.CLLI()]:
		return errors.New(errors.ErrCodeConstraintExcluded, "CLLI %s of node %s is excluded", n.CLLI(), n.ID)
	}
	return nil
}

// CheckLink returns a CONSTRAINT_EXCLUDED error when a ROADM-to-ROADM link
// shares an SRLG with the exclusion set. Other link types are never
// excluded here.
func (s *Set) CheckLink(id string, typ topology.LinkType, srlgs []uint32) error {
	if s == nil || typ != topology.LinkRoadmToRoadm {
		return nil
	}
	for _, g := range srlgs {
		if s.srlgs[g] {
			return errors.New(errors.ErrCodeConstraintExcluded, "link %s is in excluded SRLG %d", id, g)
		}
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
