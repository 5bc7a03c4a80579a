package topology

import "slices"

// SupportingNode references the node this node is built on in another layer.
type SupportingNode struct {
	NetworkRef string `json:"network_ref" yaml:"network_ref" bson:"network_ref"`
	NodeRef    string `json:"node_ref" yaml:"node_ref" bson:"node_ref"`
}

// Node is a raw topology node as stored in the topology store.
type Node struct {
	ID              string           `json:"id" yaml:"id" bson:"id"`
	Type            NodeType         `json:"type" yaml:"type" bson:"type"`
	AdminState      State            `json:"admin_state,omitempty" yaml:"admin_state,omitempty" bson:"admin_state,omitempty"`
	OperState       State            `json:"oper_state,omitempty" yaml:"oper_state,omitempty" bson:"oper_state,omitempty"`
	SupportingNodes []SupportingNode `json:"supporting_nodes,omitempty" yaml:"supporting_nodes,omitempty" bson:"supporting_nodes,omitempty"`

	// Wavelengths lists the available wavelength indexes of SRG and
	// DEGREE nodes.
	Wavelengths []int `json:"wavelengths,omitempty" yaml:"wavelengths,omitempty" bson:"wavelengths,omitempty"`

	TerminationPoints []TerminationPoint `json:"termination_points,omitempty" yaml:"termination_points,omitempty" bson:"termination_points,omitempty"`
	SwitchingPools    []SwitchingPool    `json:"switching_pools,omitempty" yaml:"switching_pools,omitempty" bson:"switching_pools,omitempty"`
	RuleGroups        []RuleGroup        `json:"rule_groups,omitempty" yaml:"rule_groups,omitempty" bson:"rule_groups,omitempty"`
	InterRuleGroups   []InterRuleGroup   `json:"inter_rule_groups,omitempty" yaml:"inter_rule_groups,omitempty" bson:"inter_rule_groups,omitempty"`
}

// SupportingNode returns the node reference in the given network, or "".
func (n *Node) SupportingNode(network string) string {
	for _, s := range n.SupportingNodes {
		if s.NetworkRef == network {
			return s.NodeRef
		}
	}
	return ""
}

// DeviceID returns the openroadm-network supporting node.
func (n *Node) DeviceID() string { return n.SupportingNode(NetworkOpenROADM) }

// CLLI returns the clli-network supporting node.
func (n *Node) CLLI() string { return n.SupportingNode(NetworkCLLI) }

// TP returns the termination point with the given id, or nil.
func (n *Node) TP(id string) *TerminationPoint {
	for i := range n.TerminationPoints {
		if n.TerminationPoints[i].ID == id {
			return &n.TerminationPoints[i]
		}
	}
	return nil
}

// TerminationPoint is a port on a node.
type TerminationPoint struct {
	ID         string `json:"id" yaml:"id" bson:"id"`
	Type       TPType `json:"type" yaml:"type" bson:"type"`
	AdminState State  `json:"admin_state,omitempty" yaml:"admin_state,omitempty" bson:"admin_state,omitempty"`
	OperState  State  `json:"oper_state,omitempty" yaml:"oper_state,omitempty" bson:"oper_state,omitempty"`

	// Wavelength is the wavelength index already assigned to the port;
	// zero means the port is free.
	Wavelength int `json:"wavelength,omitempty" yaml:"wavelength,omitempty" bson:"wavelength,omitempty"`

	// AvailableWavelengths is the spectrum still free on a photonic port.
	AvailableWavelengths []int `json:"available_wavelengths,omitempty" yaml:"available_wavelengths,omitempty" bson:"available_wavelengths,omitempty"`

	// ConnectionMapPort is the TP on the other side of an xponder
	// (network TP → client TP and vice versa).
	ConnectionMapPort string `json:"connection_map_port,omitempty" yaml:"connection_map_port,omitempty" bson:"connection_map_port,omitempty"`

	// TailEquipment is the server reference of an OTN network TP.
	TailEquipment string `json:"tail_equipment,omitempty" yaml:"tail_equipment,omitempty" bson:"tail_equipment,omitempty"`

	SupportedInterfaces []string      `json:"supported_interfaces,omitempty" yaml:"supported_interfaces,omitempty" bson:"supported_interfaces,omitempty"`
	ODU                 *ODUContainer `json:"odu,omitempty" yaml:"odu,omitempty" bson:"odu,omitempty"`
	Capabilities        []Capability  `json:"capabilities,omitempty" yaml:"capabilities,omitempty" bson:"capabilities,omitempty"`

	// Parent is the TP this one is carried on (client → ODU → network).
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty" bson:"parent,omitempty"`
}

// InService reports whether both states of the TP are in service.
// A missing state is treated as in service.
func (tp *TerminationPoint) InService() bool {
	return tp.AdminState != StateOutOfService && tp.OperState != StateOutOfService &&
		tp.AdminState != StateMaintenance && tp.OperState != StateMaintenance
}

// Busy reports whether the TP already carries a wavelength.
func (tp *TerminationPoint) Busy() bool { return tp.Wavelength != 0 }

// HasCapability reports whether the TP supports layer c.
func (tp *TerminationPoint) HasCapability(c Capability) bool {
	return slices.Contains(tp.Capabilities, c)
}

// SupportsInterface reports whether the TP declares the interface capability.
func (tp *TerminationPoint) SupportsInterface(name string) bool {
	return slices.Contains(tp.SupportedInterfaces, name)
}

// ODUContainer is a pre-provisioned high-order ODU on an OTN network TP.
type ODUContainer struct {
	Rate      string `json:"rate" yaml:"rate" bson:"rate"`
	TribPorts []int  `json:"trib_ports,omitempty" yaml:"trib_ports,omitempty" bson:"trib_ports,omitempty"`
	TribSlots []int  `json:"trib_slots,omitempty" yaml:"trib_slots,omitempty" bson:"trib_slots,omitempty"`
}

// SwitchingPool declares which TPs of an OTN node can be cross-connected.
type SwitchingPool struct {
	ID               string            `json:"id" yaml:"id" bson:"id"`
	Type             string            `json:"type,omitempty" yaml:"type,omitempty" bson:"type,omitempty"`
	NonBlockingLists []NonBlockingList `json:"non_blocking_lists,omitempty" yaml:"non_blocking_lists,omitempty" bson:"non_blocking_lists,omitempty"`
}

// NonBlockingList is a set of TPs that can be switched together, along
// with the bandwidth (Mb/s) still available for new cross-connections.
type NonBlockingList struct {
	ID                 string   `json:"id" yaml:"id" bson:"id"`
	TPs                []string `json:"tps" yaml:"tps" bson:"tps"`
	AvailableBandwidth uint64   `json:"available_bandwidth" yaml:"available_bandwidth" bson:"available_bandwidth"`
}

// RuleGroup groups ports of a composite node that share a forwarding rule.
type RuleGroup struct {
	ID         string         `json:"id" yaml:"id" bson:"id"`
	Ports      []string       `json:"ports" yaml:"ports" bson:"ports"`
	Forwarding ForwardingRule `json:"forwarding,omitempty" yaml:"forwarding,omitempty" bson:"forwarding,omitempty"`
}

// InterRuleGroup allows forwarding between several rule groups.
type InterRuleGroup struct {
	ID                string   `json:"id" yaml:"id" bson:"id"`
	RuleGroups        []string `json:"rule_groups" yaml:"rule_groups" bson:"rule_groups"`
	AvailableCapacity uint64   `json:"available_capacity" yaml:"available_capacity" bson:"available_capacity"`
}
