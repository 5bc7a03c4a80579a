package topology

import "strings"

// State is an administrative or operational state.
type State string

const (
	StateInService    State = "inService"
	StateOutOfService State = "outOfService"
	StateMaintenance  State = "maintenance"
)

// Known network layer names.
const (
	NetworkCLLI      = "clli-network"
	NetworkOpenROADM = "openroadm-network"
	NetworkOptical   = "openroadm-topology"
	NetworkOTN       = "otn-topology"
)

// Model tells how ROADMs and xponders are represented in a snapshot.
type Model string

const (
	// ModelDisaggregated exposes Degree and SRG nodes natively.
	ModelDisaggregated Model = "disaggregated"
	// ModelComposite represents each ROADM as one node whose internal
	// structure must be recovered from port capabilities and rule groups.
	ModelComposite Model = "composite"
)

// NodeType is the kind of a raw topology node.
type NodeType string

const (
	NodeTypeSRG     NodeType = "SRG"
	NodeTypeDegree  NodeType = "DEGREE"
	NodeTypeXponder NodeType = "XPONDER"
	NodeTypeMuxpdr  NodeType = "MUXPDR"
	NodeTypeSwitch  NodeType = "SWITCH"
	NodeTypeTpdr    NodeType = "TPDR"
	// NodeTypeROADM is a composite ROADM that still needs to be split.
	NodeTypeROADM NodeType = "ROADM"
)

// IsOptical reports whether the type belongs to the photonic layer.
func (t NodeType) IsOptical() bool {
	switch t {
	case NodeTypeSRG, NodeTypeDegree, NodeTypeXponder, NodeTypeROADM:
		return true
	}
	return false
}

// IsOTN reports whether the type belongs to the OTN layer.
func (t NodeType) IsOTN() bool {
	switch t {
	case NodeTypeMuxpdr, NodeTypeSwitch, NodeTypeTpdr:
		return true
	}
	return false
}

// TPType is the role of a termination point.
type TPType string

const (
	TPXponderNetwork TPType = "XPONDER-NETWORK"
	TPXponderClient  TPType = "XPONDER-CLIENT"
	TPXponderPort    TPType = "XPONDER-PORT"

	TPSrgTxRxPP TPType = "SRG-TXRX-PP"
	TPSrgRxPP   TPType = "SRG-RX-PP"
	TPSrgTxPP   TPType = "SRG-TX-PP"
	TPSrgTxRxCP TPType = "SRG-TXRX-CP"
	TPSrgRxCP   TPType = "SRG-RX-CP"
	TPSrgTxCP   TPType = "SRG-TX-CP"

	TPDegreeTxRxTTP TPType = "DEGREE-TXRX-TTP"
	TPDegreeRxTTP   TPType = "DEGREE-RX-TTP"
	TPDegreeTxTTP   TPType = "DEGREE-TX-TTP"
	TPDegreeTxRxCTP TPType = "DEGREE-TXRX-CTP"
	TPDegreeRxCTP   TPType = "DEGREE-RX-CTP"
	TPDegreeTxCTP   TPType = "DEGREE-TX-CTP"

	// TPPhotonicPort is an unclassified port of a composite ROADM.
	TPPhotonicPort TPType = "PHOTONIC-PORT"
)

// IsPP reports whether the TP is an SRG add/drop client port.
func (t TPType) IsPP() bool { return strings.HasPrefix(string(t), "SRG-") && strings.HasSuffix(string(t), "-PP") }

// IsCP reports whether the TP is an SRG coupling port.
func (t TPType) IsCP() bool { return strings.HasPrefix(string(t), "SRG-") && strings.HasSuffix(string(t), "-CP") }

// IsTTP reports whether the TP is a degree line port.
func (t TPType) IsTTP() bool {
	return strings.HasPrefix(string(t), "DEGREE-") && strings.HasSuffix(string(t), "-TTP")
}

// IsCTP reports whether the TP is a degree connection port.
func (t TPType) IsCTP() bool {
	return strings.HasPrefix(string(t), "DEGREE-") && strings.HasSuffix(string(t), "-CTP")
}

// IsNetwork reports whether the TP is an xponder line-side port.
func (t TPType) IsNetwork() bool { return t == TPXponderNetwork }

// IsClient reports whether the TP is an xponder client-side port.
func (t TPType) IsClient() bool { return t == TPXponderClient }

// Capability is a photonic or digital layer a TP participates in.
type Capability string

const (
	CapabilityOTS Capability = "OTS"
	CapabilityOMS Capability = "OMS"
	CapabilityOCH Capability = "OCH"
	CapabilityOTU Capability = "OTU"
	CapabilityODU Capability = "ODU"
	CapabilityETH Capability = "ETH"
)

// LinkType is the kind of a raw topology link.
type LinkType string

const (
	LinkRoadmToRoadm  LinkType = "ROADM-TO-ROADM"
	LinkExpress       LinkType = "EXPRESS-LINK"
	LinkAdd           LinkType = "ADD-LINK"
	LinkDrop          LinkType = "DROP-LINK"
	LinkXponderInput  LinkType = "XPONDER-INPUT"
	LinkXponderOutput LinkType = "XPONDER-OUTPUT"
	LinkOTN           LinkType = "OTN-LINK"
)

var knownLinkTypes = map[LinkType]bool{
	LinkRoadmToRoadm:  true,
	LinkExpress:       true,
	LinkAdd:           true,
	LinkDrop:          true,
	LinkXponderInput:  true,
	LinkXponderOutput: true,
	LinkOTN:           true,
}

// Known reports whether t is one of the enumerated link kinds.
func (t LinkType) Known() bool { return knownLinkTypes[t] }

// IsOptical reports whether the link belongs to the photonic layer.
func (t LinkType) IsOptical() bool { return t.Known() && t != LinkOTN }

// ForwardingRule describes how traffic may flow inside a rule group.
type ForwardingRule string

const (
	// ForwardingNone marks a group that does not forward at all.
	ForwardingNone ForwardingRule = ""
	// ForwardingMayAcrossGroup marks a non-blocking group.
	ForwardingMayAcrossGroup ForwardingRule = "may-forward-across-group"
	// ForwardingCannotAcrossGroup marks a blocking group sharing one
	// contention point.
	ForwardingCannotAcrossGroup ForwardingRule = "cannot-forward-across-group"
)

// Blocking reports whether the rule describes a shared contention block.
func (f ForwardingRule) Blocking() bool { return f == ForwardingCannotAcrossGroup }

// Forwards reports whether the group forwards traffic at all.
func (f ForwardingRule) Forwards() bool { return f != ForwardingNone }
