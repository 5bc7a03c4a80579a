// Package nodes validates raw topology nodes and turns them into graph nodes
// annotated with the resources a service can use.
//
// Every node goes through [Validator.Validate], which either returns a
// complete [graph.Node] or a NODE_REJECTED error naming the reason. A
// rejected node is never partially constructed.
package nodes

import (
	"slices"

	"github.com/matzehuels/pcegraph/pkg/errors"
	"github.com/matzehuels/pcegraph/pkg/graph"
	"github.com/matzehuels/pcegraph/pkg/service"
	"github.com/matzehuels/pcegraph/pkg/topology"
)

// DefaultXponderWavelengths is the size of the fixed spectrum grid offered
// by an in-service optical xponder.
const DefaultXponderWavelengths = 96

// Context is the request information node validation depends on.
type Context struct {
	ServiceType   service.Type
	ServiceFormat service.Format

	// AEnd and ZEnd are the endpoint identifiers nodes are matched against.
	AEnd string
	ZEnd string

	// AClientTP and ZClientTP optionally pin the client port of an endpoint.
	AClientTP string
	ZClientTP string

	// XponderWavelengths overrides DefaultXponderWavelengths when > 0.
	XponderWavelengths int

	// RejectClientlessOTU refuses unmapped xponder network TPs for OTU
	// requests. By default they count as client-less infrastructure
	// connections.
	RejectClientlessOTU bool
}

// Validator validates nodes for one request.
type Validator struct {
	ctx Context
}

// NewValidator creates a validator for the given request context.
func NewValidator(ctx Context) *Validator {
	if ctx.XponderWavelengths <= 0 {
		ctx.XponderWavelengths = DefaultXponderWavelengths
	}
	return &Validator{ctx: ctx}
}

// EndpointID returns the id a node is matched against the A/Z ends with:
// its device, or its own id when it has no device.
func EndpointID(n *topology.Node) string {
	if dev := n.DeviceID(); dev != "" {
		return dev
	}
	return n.ID
}

// IsEndpoint reports whether n hosts the A or Z end.
func (v *Validator) IsEndpoint(n *topology.Node) bool {
	id := EndpointID(n)
	return id == v.ctx.AEnd || id == v.ctx.ZEnd
}

func (v *Validator) clientTPFor(n *topology.Node) string {
	switch EndpointID(n) {
	case v.ctx.AEnd:
		return v.ctx.AClientTP
	case v.ctx.ZEnd:
		return v.ctx.ZClientTP
	}
	return ""
}

func reject(n *topology.Node, format string, args ...any) error {
	return errors.New(errors.ErrCodeNodeRejected, "node %s: "+format, append([]any{n.ID}, args...)...)
}

// Validate checks a raw node and builds its graph node.
func (v *Validator) Validate(n *topology.Node) (*graph.Node, error) {
	switch {
	case n.ID == "":
		return nil, errors.New(errors.ErrCodeNodeRejected, "node without id")
	case n.Type == "":
		return nil, reject(n, "missing type")
	case n.AdminState == "":
		return nil, reject(n, "missing admin state")
	case n.OperState == "":
		return nil, reject(n, "missing operational state")
	case n.OperState == topology.StateOutOfService:
		return nil, reject(n, "operational state is %s", n.OperState)
	}

	out := &graph.Node{
		ID:         n.ID,
		DeviceID:   EndpointID(n),
		CLLI:       n.CLLI(),
		Type:       n.Type,
		AdminState: n.AdminState,
		OperState:  n.OperState,
	}

	var err error
	switch n.Type {
	case topology.NodeTypeSRG:
		out.Kind = graph.NodeKindOptical
		out.Resources, err = v.srg(n)
	case topology.NodeTypeDegree:
		out.Kind = graph.NodeKindOptical
		out.Resources, err = v.degree(n)
	case topology.NodeTypeXponder:
		out.Kind = graph.NodeKindOptical
		out.Resources, err = v.xponder(n)
	case topology.NodeTypeMuxpdr, topology.NodeTypeSwitch, topology.NodeTypeTpdr:
		out.Kind = graph.NodeKindOTN
		out.Resources, err = v.otn(n)
	default:
		return nil, reject(n, "unsupported node type %s", n.Type)
	}
	if err != nil {
		return nil, err
	}
	if !out.Valid() {
		return nil, reject(n, "no usable resources")
	}
	return out, nil
}

func wavelengthSet(ids []int) []int {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func (v *Validator) degree(n *topology.Node) (*graph.OpticalResources, error) {
	wl := wavelengthSet(n.Wavelengths)
	if len(wl) == 0 {
		return nil, reject(n, "no available wavelength")
	}
	r := &graph.OpticalResources{Wavelengths: wl}
	for _, tp := range n.TerminationPoints {
		if tp.Type.IsCTP() {
			r.CouplingPorts = append(r.CouplingPorts, tp.ID)
		}
	}
	return r, nil
}

func (v *Validator) srg(n *topology.Node) (*graph.OpticalResources, error) {
	wl := wavelengthSet(n.Wavelengths)
	if len(wl) == 0 {
		return nil, reject(n, "no available wavelength")
	}
	r := &graph.OpticalResources{Wavelengths: wl}
	for _, tp := range n.TerminationPoints {
		switch {
		case tp.Type.IsCP():
			r.CouplingPorts = append(r.CouplingPorts, tp.ID)
		case tp.Type.IsPP():
			if tp.Busy() {
				r.BusyTPs = append(r.BusyTPs, tp.ID)
				continue
			}
			if tp.InService() {
				r.AvailablePPs = append(r.AvailablePPs, tp.ID)
			}
		}
	}
	if len(r.CouplingPorts) == 0 {
		return nil, reject(n, "no coupling port")
	}
	if len(r.AvailablePPs) == 0 {
		return nil, reject(n, "no available add/drop port")
	}
	return r, nil
}

func (v *Validator) xponder(n *topology.Node) (*graph.OpticalResources, error) {
	if !v.IsEndpoint(n) {
		return nil, reject(n, "xponder is not an endpoint")
	}
	if n.OperState != topology.StateInService {
		return nil, reject(n, "xponder is %s", n.OperState)
	}

	r := &graph.OpticalResources{Clients: make(map[string]string)}
	pinned := v.clientTPFor(n)
	for _, tp := range n.TerminationPoints {
		if !tp.Type.IsNetwork() {
			continue
		}
		if tp.Busy() {
			r.BusyTPs = append(r.BusyTPs, tp.ID)
			continue
		}
		client := ""
		if tp.ConnectionMapPort != "" {
			if c := n.TP(tp.ConnectionMapPort); c != nil && c.Type.IsClient() {
				client = c.ID
			}
		}
		switch {
		case client != "":
			if pinned != "" && client != pinned {
				continue
			}
		case v.ctx.ServiceFormat == service.FormatOTU && !v.ctx.RejectClientlessOTU:
			// client-less infrastructure connection
		default:
			continue
		}
		r.NetworkTPs = append(r.NetworkTPs, tp.ID)
		r.Clients[tp.ID] = client
	}
	if len(r.NetworkTPs) == 0 {
		return nil, reject(n, "no usable network port")
	}
	r.Wavelengths = make([]int, v.ctx.XponderWavelengths)
	for i := range r.Wavelengths {
		r.Wavelengths[i] = i + 1
	}
	return r, nil
}

// requiresClient reports whether an OTN endpoint needs a usable client TP.
func requiresClient(t service.Type) bool {
	return t != service.TypeODU4
}

func (v *Validator) otn(n *topology.Node) (*graph.OTNResources, error) {
	st := v.ctx.ServiceType
	endpoint := v.IsEndpoint(n)
	if !endpoint && n.Type != topology.NodeTypeSwitch {
		return nil, reject(n, "%s cannot be an intermediate node", n.Type)
	}

	r := &graph.OTNResources{
		TribPorts: make(map[string][]int),
		TribSlots: make(map[string][]int),
		Clients:   make(map[string]string),
		Transit:   !endpoint,
	}
	for _, tp := range n.TerminationPoints {
		switch {
		case tp.Type.IsNetwork():
			if tp.Busy() {
				r.BusyTPs = append(r.BusyTPs, tp.ID)
				continue
			}
			if tp.TailEquipment == "" {
				continue
			}
			if st.IsSubRate() {
				if tp.ODU == nil || tp.ODU.Rate != service.ContainerRate ||
					len(tp.ODU.TribSlots) < service.TribSlots(st) {
					continue
				}
				r.TribPorts[tp.ID] = slices.Clone(tp.ODU.TribPorts)
				r.TribSlots[tp.ID] = slices.Clone(tp.ODU.TribSlots)
			}
			r.NetworkTPs = append(r.NetworkTPs, tp.ID)
		case tp.Type.IsClient():
			if !tp.InService() || !service.MatchesInterface(st, tp.SupportedInterfaces) {
				continue
			}
			r.ClientTPs = append(r.ClientTPs, tp.ID)
		}
	}

	if !endpoint {
		return v.transit(n, r)
	}

	if pinned := v.clientTPFor(n); pinned != "" && len(r.ClientTPs) > 0 {
		if !slices.Contains(r.ClientTPs, pinned) {
			return nil, reject(n, "client port %s is not usable", pinned)
		}
		r.ClientTPs = []string{pinned}
	}
	if len(r.NetworkTPs) == 0 {
		return nil, reject(n, "no usable network port")
	}
	if requiresClient(st) && len(r.ClientTPs) == 0 {
		return nil, reject(n, "no client port supports %s", st)
	}
	mapClients(n, r)
	return r, nil
}

// mapClients pairs every usable network TP with a usable client TP, taking
// the declared connection map first and the first client otherwise.
func mapClients(n *topology.Node, r *graph.OTNResources) {
	for _, c := range r.ClientTPs {
		tp := n.TP(c)
		if tp != nil && slices.Contains(r.NetworkTPs, tp.ConnectionMapPort) {
			if _, set := r.Clients[tp.ConnectionMapPort]; !set {
				r.Clients[tp.ConnectionMapPort] = c
			}
		}
	}
	if len(r.ClientTPs) == 0 {
		return
	}
	for _, nw := range r.NetworkTPs {
		if _, set := r.Clients[nw]; !set {
			r.Clients[nw] = r.ClientTPs[0]
		}
	}
}

// transit validates an intermediate switch: two usable network TPs that a
// non-blocking list can cross-connect with enough spare bandwidth.
func (v *Validator) transit(n *topology.Node, r *graph.OTNResources) (*graph.OTNResources, error) {
	if len(r.NetworkTPs) < 2 {
		return nil, reject(n, "transit switch has %d usable network ports", len(r.NetworkTPs))
	}
	req, _ := service.RequirementFor(v.ctx.ServiceType)

	var usable []string
	for _, pool := range n.SwitchingPools {
		for _, nbl := range pool.NonBlockingLists {
			if nbl.AvailableBandwidth < req.Bandwidth {
				continue
			}
			var members []string
			for _, tp := range r.NetworkTPs {
				if slices.Contains(nbl.TPs, tp) {
					members = append(members, tp)
				}
			}
			if len(members) >= 2 {
				usable = append(usable, members...)
			}
		}
	}
	slices.Sort(usable)
	usable = slices.Compact(usable)
	if len(usable) < 2 {
		return nil, reject(n, "no non-blocking list can switch %s", v.ctx.ServiceType)
	}
	r.NetworkTPs = usable
	r.ClientTPs = nil
	return r, nil
}
