package builder

import (
	"github.com/matzehuels/pcegraph/pkg/topology"
)

// Test topologies. The optical one is a three-site ring:
//
//	XPDR-A1 - A1:SRG1 - A1:DEG1 ========== C1:DEG1 - C1:SRG1 - XPDR-C1
//	                    A1:DEG2 - B1:DEG1/DEG2 - C1:DEG2
//
// A1:SRG3 has add/drop links but serves no endpoint.

func supportedBy(device, clli string) []topology.SupportingNode {
	return []topology.SupportingNode{
		{NetworkRef: topology.NetworkOpenROADM, NodeRef: device},
		{NetworkRef: topology.NetworkCLLI, NodeRef: clli},
	}
}

func xponderNode(device, clli string) topology.Node {
	return topology.Node{
		ID:              device + "-XPDR1",
		Type:            topology.NodeTypeXponder,
		AdminState:      topology.StateInService,
		OperState:       topology.StateInService,
		SupportingNodes: supportedBy(device, clli),
		TerminationPoints: []topology.TerminationPoint{
			{ID: "XPDR1-NETWORK1", Type: topology.TPXponderNetwork, ConnectionMapPort: "XPDR1-CLIENT1"},
			{ID: "XPDR1-CLIENT1", Type: topology.TPXponderClient, ConnectionMapPort: "XPDR1-NETWORK1"},
		},
	}
}

func srgNode(device, clli string, idx string) topology.Node {
	return topology.Node{
		ID:              device + "-SRG" + idx,
		Type:            topology.NodeTypeSRG,
		AdminState:      topology.StateInService,
		OperState:       topology.StateInService,
		SupportingNodes: supportedBy(device, clli),
		Wavelengths:     []int{1, 2, 3, 4},
		TerminationPoints: []topology.TerminationPoint{
			{ID: "SRG" + idx + "-CP-TXRX", Type: topology.TPSrgTxRxCP},
			{ID: "SRG" + idx + "-PP1-TXRX", Type: topology.TPSrgTxRxPP},
		},
	}
}

func degreeNode(device, clli string, idx string) topology.Node {
	return topology.Node{
		ID:              device + "-DEG" + idx,
		Type:            topology.NodeTypeDegree,
		AdminState:      topology.StateInService,
		OperState:       topology.StateInService,
		SupportingNodes: supportedBy(device, clli),
		Wavelengths:     []int{1, 2, 3, 4},
		TerminationPoints: []topology.TerminationPoint{
			{ID: "DEG" + idx + "-CTP-TXRX", Type: topology.TPDegreeTxRxCTP},
			{ID: "DEG" + idx + "-TTP-TXRX", Type: topology.TPDegreeTxRxTTP},
		},
	}
}

func ep(node, tp string) topology.Endpoint { return topology.Endpoint{Node: node, TP: tp} }

// pair returns a link and its opposite direction.
func pair(fwd, rev string, fwdType, revType topology.LinkType, a, z topology.Endpoint) []topology.Link {
	return []topology.Link{
		{ID: fwd, Type: fwdType, Source: a, Dest: z, AdminState: topology.StateInService, OperState: topology.StateInService, OppositeLink: rev},
		{ID: rev, Type: revType, Source: z, Dest: a, AdminState: topology.StateInService, OperState: topology.StateInService, OppositeLink: fwd},
	}
}

func fiberPair(fwd, rev string, a, z topology.Endpoint, km float64, srlg uint32) []topology.Link {
	out := pair(fwd, rev, topology.LinkRoadmToRoadm, topology.LinkRoadmToRoadm, a, z)
	for i := range out {
		out[i].Spans = []topology.Span{{LengthKm: km, FiberType: "smf", SRLGs: []uint32{srlg}}}
	}
	return out
}

func addDrop(device, srg, deg string) []topology.Link {
	s, d := device+"-SRG"+srg, device+"-DEG"+deg
	return pair(s+"-DEG"+deg, d+"-SRG"+srg, topology.LinkAdd, topology.LinkDrop,
		ep(s, "SRG"+srg+"-CP-TXRX"), ep(d, "DEG"+deg+"-CTP-TXRX"))
}

func express(device, from, to string) []topology.Link {
	a, z := device+"-DEG"+from, device+"-DEG"+to
	return pair(a+"-DEG"+to, z+"-DEG"+from, topology.LinkExpress, topology.LinkExpress,
		ep(a, "DEG"+from+"-CTP-TXRX"), ep(z, "DEG"+to+"-CTP-TXRX"))
}

func xponderLinks(device, srg string) []topology.Link {
	x := device + "-XPDR1"
	return pair(x+"-OUT", x+"-IN", topology.LinkXponderOutput, topology.LinkXponderInput,
		ep(x, "XPDR1-NETWORK1"), ep(srg, "SRG1-PP1-TXRX"))
}

func opticalSnapshot() *topology.Snapshot {
	nodes := []topology.Node{
		xponderNode("XPDR-A1", "NodeA"),
		srgNode("ROADM-A1", "NodeA", "1"),
		srgNode("ROADM-A1", "NodeA", "3"),
		degreeNode("ROADM-A1", "NodeA", "1"),
		degreeNode("ROADM-A1", "NodeA", "2"),
		degreeNode("ROADM-B1", "NodeB", "1"),
		degreeNode("ROADM-B1", "NodeB", "2"),
		degreeNode("ROADM-C1", "NodeC", "1"),
		degreeNode("ROADM-C1", "NodeC", "2"),
		srgNode("ROADM-C1", "NodeC", "1"),
		xponderNode("XPDR-C1", "NodeC"),
	}

	var links []topology.Link
	links = append(links, xponderLinks("XPDR-A1", "ROADM-A1-SRG1")...)
	links = append(links, addDrop("ROADM-A1", "1", "1")...)
	links = append(links, addDrop("ROADM-A1", "1", "2")...)
	links = append(links, addDrop("ROADM-A1", "3", "1")...)
	links = append(links, express("ROADM-A1", "1", "2")...)
	links = append(links, express("ROADM-B1", "1", "2")...)
	links = append(links, express("ROADM-C1", "1", "2")...)
	links = append(links, fiberPair("A1-C1", "C1-A1", ep("ROADM-A1-DEG1", "DEG1-TTP-TXRX"), ep("ROADM-C1-DEG1", "DEG1-TTP-TXRX"), 100, 10)...)
	links = append(links, fiberPair("A1-B1", "B1-A1", ep("ROADM-A1-DEG2", "DEG2-TTP-TXRX"), ep("ROADM-B1-DEG1", "DEG1-TTP-TXRX"), 60, 20)...)
	links = append(links, fiberPair("B1-C1", "C1-B1", ep("ROADM-B1-DEG2", "DEG2-TTP-TXRX"), ep("ROADM-C1-DEG2", "DEG2-TTP-TXRX"), 70, 30)...)
	links = append(links, addDrop("ROADM-C1", "1", "1")...)
	links = append(links, addDrop("ROADM-C1", "1", "2")...)
	links = append(links, xponderLinks("XPDR-C1", "ROADM-C1-SRG1")...)

	return &topology.Snapshot{
		Network: topology.NetworkOptical,
		Model:   topology.ModelDisaggregated,
		Nodes:   nodes,
		Links:   links,
	}
}

func opticalRequest() Request {
	return Request{
		ServiceFormat: "Ethernet",
		ServiceRate:   100,
		AEnd:          Endpoint{Node: "XPDR-A1"},
		ZEnd:          Endpoint{Node: "XPDR-C1"},
	}
}

func otnNode(device string, typ topology.NodeType, networks ...string) topology.Node {
	n := topology.Node{
		ID:              device + "-XPDR1",
		Type:            typ,
		AdminState:      topology.StateInService,
		OperState:       topology.StateInService,
		SupportingNodes: supportedBy(device, "CLLI-"+device),
		TerminationPoints: []topology.TerminationPoint{{
			ID:                  "XPDR1-CLIENT1",
			Type:                topology.TPXponderClient,
			SupportedInterfaces: []string{"IfOCHOTU4ODU4"},
			ConnectionMapPort:   networks[0],
		}},
	}
	for _, nw := range networks {
		n.TerminationPoints = append(n.TerminationPoints, topology.TerminationPoint{
			ID:            nw,
			Type:          topology.TPXponderNetwork,
			TailEquipment: "XPDR1-CLIENT1",
		})
	}
	return n
}

func otnPair(fwd, rev string, a, z topology.Endpoint, available, used uint64) []topology.Link {
	out := pair(fwd, rev, topology.LinkOTN, topology.LinkOTN, a, z)
	for i := range out {
		out[i].AvailableBandwidth = &available
		out[i].UsedBandwidth = &used
		out[i].RateType = "OTU4"
	}
	return out
}

// otnSnapshot is a triangle of two muxponders and a switch. The A-B trunk
// already carries traffic.
func otnSnapshot() *topology.Snapshot {
	sw := otnNode("SPDR-B1", topology.NodeTypeSwitch, "XPDR1-NETWORK1", "XPDR1-NETWORK2")
	sw.SwitchingPools = []topology.SwitchingPool{{
		ID: "pool-1",
		NonBlockingLists: []topology.NonBlockingList{
			{ID: "nbl-1", TPs: []string{"XPDR1-NETWORK1", "XPDR1-NETWORK2"}, AvailableBandwidth: 100000},
		},
	}}

	nodes := []topology.Node{
		otnNode("SPDR-A1", topology.NodeTypeMuxpdr, "XPDR1-NETWORK1", "XPDR1-NETWORK2"),
		sw,
		otnNode("SPDR-C1", topology.NodeTypeMuxpdr, "XPDR1-NETWORK1", "XPDR1-NETWORK2"),
		otnNode("SPDR-D1", topology.NodeTypeMuxpdr, "XPDR1-NETWORK1"),
	}

	var links []topology.Link
	links = append(links, otnPair("OTN-C1-A1", "OTN-A1-C1",
		ep("SPDR-C1-XPDR1", "XPDR1-NETWORK1"), ep("SPDR-A1-XPDR1", "XPDR1-NETWORK1"), 100000, 0)...)
	links = append(links, otnPair("OTN-A1-B1", "OTN-B1-A1",
		ep("SPDR-A1-XPDR1", "XPDR1-NETWORK2"), ep("SPDR-B1-XPDR1", "XPDR1-NETWORK1"), 100000, 10000)...)
	links = append(links, otnPair("OTN-B1-C1", "OTN-C1-B1",
		ep("SPDR-B1-XPDR1", "XPDR1-NETWORK2"), ep("SPDR-C1-XPDR1", "XPDR1-NETWORK2"), 100000, 0)...)

	return &topology.Snapshot{
		Network: topology.NetworkOTN,
		Nodes:   nodes,
		Links:   links,
	}
}

func otnRequest() Request {
	return Request{
		ServiceFormat: "ODU",
		ServiceRate:   100,
		AEnd:          Endpoint{Node: "SPDR-A1-XPDR1", Device: "SPDR-A1"},
		ZEnd:          Endpoint{Node: "SPDR-C1-XPDR1", Device: "SPDR-C1"},
	}
}

// compositeSnapshot has two single-SRG, single-degree composite ROADMs.
func compositeSnapshot() *topology.Snapshot {
	ots := []topology.Capability{topology.CapabilityOTS}
	oms := []topology.Capability{topology.CapabilityOTS, topology.CapabilityOMS}
	roadm := func(id string) topology.Node {
		return topology.Node{
			ID:         id,
			Type:       topology.NodeTypeROADM,
			AdminState: topology.StateInService,
			OperState:  topology.StateInService,
			TerminationPoints: []topology.TerminationPoint{
				{ID: "SRG1-PP1", Type: topology.TPPhotonicPort, Capabilities: ots, AvailableWavelengths: []int{1, 2}},
				{ID: "DEG1-TTP", Type: topology.TPPhotonicPort, Capabilities: oms, AvailableWavelengths: []int{1, 2}},
			},
			RuleGroups: []topology.RuleGroup{
				{ID: "SRG1", Ports: []string{"SRG1-PP1"}, Forwarding: topology.ForwardingCannotAcrossGroup},
				{ID: "DEG1", Ports: []string{"DEG1-TTP"}, Forwarding: topology.ForwardingMayAcrossGroup},
			},
			InterRuleGroups: []topology.InterRuleGroup{
				{ID: "irg", RuleGroups: []string{"SRG1", "DEG1"}, AvailableCapacity: 100},
			},
		}
	}
	xpdr := func(id string) topology.Node {
		return topology.Node{
			ID:         id,
			Type:       topology.NodeTypeXponder,
			AdminState: topology.StateInService,
			OperState:  topology.StateInService,
			TerminationPoints: []topology.TerminationPoint{
				{ID: "NET1", Type: topology.TPXponderPort, Capabilities: ots, ConnectionMapPort: "CL1"},
				{ID: "CL1", Type: topology.TPXponderPort, ConnectionMapPort: "NET1"},
			},
		}
	}

	var links []topology.Link
	links = append(links, pair("XA-OUT", "XA-IN", topology.LinkXponderOutput, topology.LinkXponderInput,
		ep("XPDR-A", "NET1"), ep("ROADM-A", "SRG1-PP1"))...)
	links = append(links, fiberPair("RA-RC", "RC-RA", ep("ROADM-A", "DEG1-TTP"), ep("ROADM-C", "DEG1-TTP"), 80, 7)...)
	links = append(links, pair("XC-OUT", "XC-IN", topology.LinkXponderOutput, topology.LinkXponderInput,
		ep("XPDR-C", "NET1"), ep("ROADM-C", "SRG1-PP1"))...)

	return &topology.Snapshot{
		Network: topology.NetworkOptical,
		Model:   topology.ModelComposite,
		Nodes:   []topology.Node{xpdr("XPDR-A"), roadm("ROADM-A"), roadm("ROADM-C"), xpdr("XPDR-C")},
		Links:   links,
	}
}
