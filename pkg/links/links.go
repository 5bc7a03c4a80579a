// Package links validates raw topology links and turns them into graph
// links carrying impairments (photonic layer) or bandwidth (OTN layer).
package links

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pcegraph/pkg/errors"
	"github.com/matzehuels/pcegraph/pkg/graph"
	"github.com/matzehuels/pcegraph/pkg/impairment"
	"github.com/matzehuels/pcegraph/pkg/service"
	"github.com/matzehuels/pcegraph/pkg/topology"
)

// Config configures a link validator.
type Config struct {
	ServiceType service.Type

	// Raw indexes every raw link of the snapshot by id. It is used to read
	// the reverse direction of bidirectional links.
	Raw map[string]*topology.Link

	Logger *log.Logger
}

// Validator validates links for one request.
type Validator struct {
	st     service.Type
	raw    map[string]*topology.Link
	logger *log.Logger
}

// NewValidator creates a link validator.
func NewValidator(cfg Config) *Validator {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Validator{st: cfg.ServiceType, raw: cfg.Raw, logger: logger}
}

func reject(l *topology.Link, format string, args ...any) error {
	return errors.New(errors.ErrCodeLinkRejected, "link %s: "+format, append([]any{l.ID}, args...)...)
}

// Validate checks a raw link whose endpoints have already been validated
// into src and dst, and builds its graph link.
func (v *Validator) Validate(l *topology.Link, src, dst *graph.Node) (*graph.Link, error) {
	switch {
	case l.ID == "":
		return nil, errors.New(errors.ErrCodeLinkRejected, "link without id")
	case !l.Type.Known():
		return nil, reject(l, "unknown link type %q", l.Type)
	case src == nil || src.ID != l.Source.Node:
		return nil, reject(l, "source node %s is not in the graph", l.Source.Node)
	case dst == nil || dst.ID != l.Dest.Node:
		return nil, reject(l, "destination node %s is not in the graph", l.Dest.Node)
	case l.OperState == topology.StateOutOfService:
		return nil, reject(l, "operational state is %s", l.OperState)
	}

	out := &graph.Link{
		ID:           l.ID,
		Type:         l.Type,
		Source:       graph.Endpoint{Node: l.Source.Node, TP: l.Source.TP},
		Dest:         graph.Endpoint{Node: l.Dest.Node, TP: l.Dest.TP},
		AdminState:   l.AdminState,
		OperState:    l.OperState,
		OppositeLink: l.OppositeLink,
	}

	if l.Type == topology.LinkOTN {
		if src.Kind != graph.NodeKindOTN || dst.Kind != graph.NodeKindOTN {
			return nil, reject(l, "OTN link between non-OTN nodes")
		}
		out.Kind = graph.LinkKindOTN
		out.Attrs = v.bandwidth(l)
		return out, nil
	}

	if src.Kind != graph.NodeKindOptical || dst.Kind != graph.NodeKindOptical {
		return nil, reject(l, "optical link between non-optical nodes")
	}
	out.Kind = graph.LinkKindOptical

	switch l.Type {
	case topology.LinkRoadmToRoadm:
		m, err := v.impairments(l)
		if err != nil {
			return nil, err
		}
		out.Attrs = &graph.OpticalAttrs{Metrics: m}
	case topology.LinkAdd:
		out.Client = src.ClientForTP(l.Source.TP)
		out.Attrs = &graph.OpticalAttrs{}
	case topology.LinkDrop:
		out.Client = dst.ClientForTP(l.Dest.TP)
		out.Attrs = &graph.OpticalAttrs{}
	case topology.LinkXponderInput:
		if err := xponderTP(l, dst, l.Dest.TP); err != nil {
			return nil, err
		}
		out.Client = dst.ClientForTP(l.Dest.TP)
		out.Attrs = &graph.OpticalAttrs{}
	case topology.LinkXponderOutput:
		if err := xponderTP(l, src, l.Source.TP); err != nil {
			return nil, err
		}
		out.Client = src.ClientForTP(l.Source.TP)
		out.Attrs = &graph.OpticalAttrs{}
	default:
		out.Attrs = &graph.OpticalAttrs{}
	}
	return out, nil
}

// xponderTP checks the xponder side of an XPONDER-INPUT/OUTPUT link.
func xponderTP(l *topology.Link, n *graph.Node, tp string) error {
	if n.Type != topology.NodeTypeXponder {
		return reject(l, "%s end %s is not an xponder", l.Type, n.ID)
	}
	if n.IsTPBusy(tp) {
		return reject(l, "network port %s of %s is busy", tp, n.ID)
	}
	r, _ := n.OpticalResources()
	if _, ok := r.Clients[tp]; !ok {
		return reject(l, "network port %s of %s is not usable", tp, n.ID)
	}
	return nil
}

// impairments derives the metrics of a ROADM-to-ROADM link, combined with
// its reverse direction when that direction carries data.
func (v *Validator) impairments(l *topology.Link) (impairment.Metrics, error) {
	m, ok := impairment.ForLink(l)
	if !ok {
		return impairment.Metrics{}, reject(l, "no span or impairment data")
	}
	if opp, found := v.raw[l.OppositeLink]; found && l.OppositeLink != "" {
		if rm, ok := impairment.ForLink(opp); ok {
			m = impairment.Max(m, rm)
		}
	}
	return m, nil
}

func (v *Validator) bandwidth(l *topology.Link) *graph.OTNAttrs {
	a := &graph.OTNAttrs{RateType: l.RateType}
	if l.AvailableBandwidth != nil {
		a.Available = *l.AvailableBandwidth
	} else {
		v.logger.Warn("OTN link has no available bandwidth, using 0", "link", l.ID)
	}
	if l.UsedBandwidth != nil {
		a.Used = *l.UsedBandwidth
	} else {
		v.logger.Warn("OTN link has no used bandwidth, using 0", "link", l.ID)
	}
	return a
}

// Eligible reports whether an OTN link can carry service type st: enough
// available bandwidth, a matching rate type when one is required, and no
// traffic at all for exclusive service types.
func Eligible(st service.Type, a *graph.OTNAttrs) bool {
	req, ok := service.RequirementFor(st)
	if !ok || a == nil {
		return false
	}
	if a.Available < req.Bandwidth {
		return false
	}
	if req.RateType != "" && req.RateType != a.RateType {
		return false
	}
	if req.Exclusive && a.Used != 0 {
		return false
	}
	return true
}

// CheckEligible returns a LINK_INELIGIBLE error when an OTN link cannot
// carry st. Optical links are always eligible.
func CheckEligible(st service.Type, l *graph.Link) error {
	a, ok := l.Bandwidth()
	if !ok {
		return nil
	}
	if !Eligible(st, a) {
		return errors.New(errors.ErrCodeLinkIneligible,
			"link %s: available %d used %d rate %q cannot carry %s", l.ID, a.Available, a.Used, a.RateType, st)
	}
	return nil
}
