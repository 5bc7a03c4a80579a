package constraints

import (
	"slices"
	"testing"

	"github.com/matzehuels/pcegraph/pkg/errors"
	"github.com/matzehuels/pcegraph/pkg/topology"
)

func node(id, device, clli string) topology.Node {
	return topology.Node{
		ID:   id,
		Type: topology.NodeTypeSRG,
		SupportingNodes: []topology.SupportingNode{
			{NetworkRef: topology.NetworkOpenROADM, NodeRef: device},
			{NetworkRef: topology.NetworkCLLI, NodeRef: clli},
		},
	}
}

func snapshot() *topology.Snapshot {
	return &topology.Snapshot{
		Network: topology.NetworkOptical,
		Nodes: []topology.Node{
			node("ROADM-A1-SRG1", "ROADM-A1", "NodeA"),
			node("ROADM-A1-DEG1", "ROADM-A1", "NodeA"),
			node("ROADM-B1-DEG1", "ROADM-B1", "NodeB"),
		},
		Links: []topology.Link{
			{
				ID:    "L1",
				Type:  topology.LinkRoadmToRoadm,
				Spans: []topology.Span{{LengthKm: 10, SRLGs: []uint32{7, 8}}},
			},
			{
				ID:   "L2",
				Type: topology.LinkOTN,
			},
		},
	}
}

func TestSRLGExclusion(t *testing.T) {
	s := Expand(Request{ExcludeSRLG: []uint32{20}})
	tests := []struct {
		name  string
		typ   topology.LinkType
		srlgs []uint32
		want  bool
	}{
		{"shared srlg", topology.LinkRoadmToRoadm, []uint32{10, 20, 30}, true},
		{"disjoint srlg", topology.LinkRoadmToRoadm, []uint32{40, 50}, false},
		{"no srlg", topology.LinkRoadmToRoadm, nil, false},
		{"express ignored", topology.LinkExpress, []uint32{20}, false},
		{"add ignored", topology.LinkAdd, []uint32{20}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CheckLink("L", tt.typ, tt.srlgs)
			if got := err != nil; got != tt.want {
				t.Errorf("CheckLink() excluded = %v, want %v", got, tt.want)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeConstraintExcluded) {
				t.Errorf("CheckLink() code = %s, want %s", errors.GetCode(err), errors.ErrCodeConstraintExcluded)
			}
		})
	}
}

func TestExpandNodeDiversity(t *testing.T) {
	s := Expand(Request{ExcludeNodes: []string{"ROADM-A1-SRG1"}}, snapshot())

	if got, want := s.ExcludedNodes(), []string{"ROADM-A1", "ROADM-A1-SRG1"}; !slices.Equal(got, want) {
		t.Errorf("ExcludedNodes() = %v, want %v", got, want)
	}
	if got, want := s.ExcludedCLLI(), []string{"NodeA"}; !slices.Equal(got, want) {
		t.Errorf("ExcludedCLLI() = %v, want %v", got, want)
	}

	snap := snapshot()
	tests := []struct {
		node *topology.Node
		want bool
	}{
		{&snap.Nodes[0], true},
		{&snap.Nodes[1], true},
		{&snap.Nodes[2], false},
	}
	for _, tt := range tests {
		if got := s.CheckNode(tt.node) != nil; got != tt.want {
			t.Errorf("CheckNode(%s) excluded = %v, want %v", tt.node.ID, got, tt.want)
		}
	}
}

func TestExpandCLLI(t *testing.T) {
	s := Expand(Request{ExcludeCLLI: []string{"NodeB"}}, snapshot())
	snap := snapshot()
	if s.CheckNode(&snap.Nodes[0]) != nil {
		t.Error("NodeA node excluded by CLLI NodeB")
	}
	if s.CheckNode(&snap.Nodes[2]) == nil {
		t.Error("NodeB node not excluded")
	}
}

func TestExpandSRLGLinks(t *testing.T) {
	s := Expand(Request{ExcludeSRLGLinks: []string{"L1", "L2", "missing"}}, snapshot())
	if got, want := s.ExcludedSRLGs(), []uint32{7, 8}; !slices.Equal(got, want) {
		t.Errorf("ExcludedSRLGs() = %v, want %v", got, want)
	}
	if s.CheckLink("X", topology.LinkRoadmToRoadm, []uint32{8}) == nil {
		t.Error("link sharing SRLG 8 not excluded")
	}
}

func TestNilSetExcludesNothing(t *testing.T) {
	var s *Set
	n := node("n", "d", "c")
	if err := s.CheckNode(&n); err != nil {
		t.Errorf("CheckNode() = %v, want nil", err)
	}
	if err := s.CheckLink("l", topology.LinkRoadmToRoadm, []uint32{1}); err != nil {
		t.Errorf("CheckLink() = %v, want nil", err)
	}
}

func TestRequestEmpty(t *testing.T) {
	if !(Request{}).Empty() {
		t.Error("Request{}.Empty() = false, want true")
	}
	if (Request{ExcludeSRLG: []uint32{1}}).Empty() {
		t.Error("Empty() = true with SRLG, want false")
	}
}
