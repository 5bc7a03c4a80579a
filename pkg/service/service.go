// Package service resolves requested service formats into service types and
// holds the per-type resource tables used by the validators.
package service

import (
	"slices"

	pceerrors "github.com/matzehuels/pcegraph/pkg/errors"
	"github.com/matzehuels/pcegraph/pkg/topology"
)

// Format is the requested service format.
type Format string

const (
	FormatEthernet Format = "Ethernet"
	FormatOC       Format = "OC"
	FormatOTU      Format = "OTU"
	FormatODU      Format = "ODU"
)

// Type is a resolved service type.
type Type string

const (
	Type100GE  Type = "100GE"
	TypeOTU4   Type = "OTU4"
	TypeODU4   Type = "ODU4"
	Type10GE   Type = "10GE"
	Type1GE    Type = "1GE"
	TypeODUC2  Type = "ODUC2"
	TypeODUC3  Type = "ODUC3"
	TypeODUC4  Type = "ODUC4"
	TypeODU2   Type = "ODU2"
	TypeODU2e  Type = "ODU2e"
	TypeODU0   Type = "ODU0"
	TypeODU1   Type = "ODU1"
	Type100GEm Type = "100GEm"
	Type100GEs Type = "100GEs"
)

type formatRate struct {
	format Format
	rate   uint64
}

var typeTable = map[formatRate]Type{
	{FormatEthernet, 100}: Type100GE,
	{FormatOC, 100}:       Type100GE,
	{FormatOTU, 100}:      TypeOTU4,
	{FormatODU, 100}:      TypeODU4,
	{FormatEthernet, 10}:  Type10GE,
	{FormatEthernet, 1}:   Type1GE,
}

// Resolve maps a service format and rate (Gb/s) to a service type.
// Unsupported combinations fail with ErrCodeUnsupportedServiceType.
func Resolve(format Format, rate uint64) (Type, error) {
	if t, ok := typeTable[formatRate{format, rate}]; ok {
		return t, nil
	}
	return "", pceerrors.New(pceerrors.ErrCodeUnsupportedServiceType,
		"no service type for format %q rate %d", format, rate)
}

// IsOTN reports whether the type is computed on the OTN layer.
func (t Type) IsOTN() bool {
	switch t {
	case TypeODU4, Type10GE, Type1GE:
		return true
	}
	return false
}

// Network returns the topology layer a type is computed on.
func (t Type) Network() string {
	if t.IsOTN() {
		return topology.NetworkOTN
	}
	return topology.NetworkOptical
}

// EndpointIsDevice reports whether A/Z are identified by the device hosting
// the endpoint port rather than by the declared node id.
func (t Type) EndpointIsDevice() bool { return t.IsOTN() }

// IsSubRate reports whether the type is multiplexed into a pre-existing
// high-order ODU container.
func (t Type) IsSubRate() bool { return t == Type10GE || t == Type1GE }

// Requirement is the OTN link bandwidth a service type consumes.
type Requirement struct {
	Bandwidth uint64 // Mb/s
	RateType  string // required link rate type, empty for any
	Exclusive bool   // link must be entirely unused
}

var requirements = map[Type]Requirement{
	TypeODUC2:  {Bandwidth: 200000, RateType: "OTUC2", Exclusive: true},
	TypeODUC3:  {Bandwidth: 300000, RateType: "OTUC3", Exclusive: true},
	TypeODUC4:  {Bandwidth: 400000, RateType: "OTUC4", Exclusive: true},
	TypeODU4:   {Bandwidth: 100000, RateType: "OTU4", Exclusive: true},
	Type100GEs: {Bandwidth: 100000, RateType: "OTU4", Exclusive: true},
	TypeODU2:   {Bandwidth: 12500},
	TypeODU2e:  {Bandwidth: 12500},
	TypeODU0:   {Bandwidth: 1250},
	TypeODU1:   {Bandwidth: 2500},
	Type100GEm: {Bandwidth: 100000, RateType: "ODUC4"},
	Type10GE:   {Bandwidth: 10000, RateType: "ODTU4"},
	Type1GE:    {Bandwidth: 1000, RateType: "ODTU4"},
}

// RequirementFor returns the OTN requirement of t.
func RequirementFor(t Type) (Requirement, bool) {
	r, ok := requirements[t]
	return r, ok
}

var clientInterfaces = map[Type][]string{
	Type100GE: {"If100GE", "If100GEODU4"},
	TypeODU4:  {"If100GEODU4", "IfOCHOTU4ODU4"},
	Type10GE:  {"If10GEODU2e", "If10GEODU2", "If10GE"},
	Type1GE:   {"If1GEODU0", "If1GE"},
}

// ClientInterfaces returns the interface capabilities a client TP must
// declare to carry t.
func ClientInterfaces(t Type) []string { return clientInterfaces[t] }

// MatchesInterface reports whether any of the declared interfaces carries t.
func MatchesInterface(t Type, declared []string) bool {
	for _, want := range clientInterfaces[t] {
		if slices.Contains(declared, want) {
			return true
		}
	}
	return false
}

var tribSlots = map[Type]int{
	Type10GE: 8,
	Type1GE:  1,
}

// TribSlots returns the number of ODU4 tributary slots a sub-rate type needs.
func TribSlots(t Type) int { return tribSlots[t] }

// ContainerRate is the high-order ODU a sub-rate service is multiplexed into.
const ContainerRate = "ODU4"
