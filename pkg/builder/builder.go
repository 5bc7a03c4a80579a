// Package builder turns a raw topology snapshot into the validated graph a
// path computation searches.
//
// [Build] runs the whole intake for one request:
//
//  1. resolve the service type from the requested format and rate
//  2. pick the A/Z identifiers (device for OTN types, node otherwise)
//  3. split composite ROADMs into degree/SRG sub-nodes (pkg/virtual)
//  4. validate and constraint-filter every node, locating the A and Z ends
//  5. validate, constraint-filter and attach every link
//  6. keep only the SRGs serving A or Z and their add/drop links
//  7. freeze the result
//
// A rejected node or link is logged and skipped. Unsupported service types,
// unresolved endpoints and an empty result abort the whole build.
package builder

import (
	"cmp"
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pcegraph/pkg/constraints"
	"github.com/matzehuels/pcegraph/pkg/errors"
	"github.com/matzehuels/pcegraph/pkg/graph"
	"github.com/matzehuels/pcegraph/pkg/links"
	"github.com/matzehuels/pcegraph/pkg/nodes"
	"github.com/matzehuels/pcegraph/pkg/observability"
	"github.com/matzehuels/pcegraph/pkg/service"
	"github.com/matzehuels/pcegraph/pkg/topology"
	"github.com/matzehuels/pcegraph/pkg/virtual"
)

// Endpoint is one end of the requested service.
type Endpoint struct {
	// Node is the declared node id (for example a ROADM or xponder).
	Node string `json:"node" yaml:"node" validate:"required"`
	// Device is the device hosting the endpoint port. OTN service types
	// are matched on it; it defaults to Node.
	Device string `json:"device,omitempty" yaml:"device,omitempty"`
	// ClientTP optionally pins the client port.
	ClientTP string `json:"client_tp,omitempty" yaml:"client_tp,omitempty"`
}

// ID returns the identifier the endpoint is matched with for st.
func (e Endpoint) ID(st service.Type) string {
	if st.EndpointIsDevice() && e.Device != "" {
		return e.Device
	}
	return e.Node
}

// Request describes the service a graph is built for.
type Request struct {
	ServiceFormat service.Format
	ServiceRate   uint64
	AEnd          Endpoint
	ZEnd          Endpoint
}

// Config carries the tunables of a build.
type Config struct {
	// XponderWavelengths is the spectrum grid size offered by xponders.
	XponderWavelengths int
	// RejectClientlessOTU refuses unmapped xponder network ports for OTU
	// requests.
	RejectClientlessOTU bool

	Logger *log.Logger
}

// Report summarizes a build. It is filled in as far as the build got, so a
// failed build still reports the service type when it was resolved.
type Report struct {
	ServiceType   service.Type
	NodesRejected int
	LinksRejected int
	LinksIgnored  int
	SRGsPruned    int
	Virtual       virtual.Report
	Duration      time.Duration
}

type pendingLink struct {
	link    *graph.Link
	srgSide string
	attach  string
}

type build struct {
	ctx       context.Context
	logger    *log.Logger
	st        service.Type
	aID       string
	zID       string
	aEnd      string
	zEnd      string
	cons      *constraints.Set
	b         *graph.Builder
	nodes     *nodes.Validator
	links     *links.Validator
	azSrgs    map[string]bool
	deferred  []pendingLink
	processed map[string]bool
	rejected  map[string]bool
	rep       *Report
}

// Build validates snap against req and cons and returns the frozen graph.
// cons may be nil.
func Build(ctx context.Context, snap *topology.Snapshot, req Request, cons *constraints.Set, cfg Config) (*graph.Graph, Report, error) {
	start := time.Now()
	var rep Report
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	st, err := service.Resolve(req.ServiceFormat, req.ServiceRate)
	if err != nil {
		logger.Error("unsupported service", "format", req.ServiceFormat, "rate", req.ServiceRate)
		return nil, rep, err
	}
	rep.ServiceType = st

	if snap == nil {
		snap = &topology.Snapshot{}
	}
	if len(snap.Nodes) == 0 || len(snap.Links) == 0 {
		logger.Error("topology is empty", "network", snap.Network, "nodes", len(snap.Nodes), "links", len(snap.Links))
		return nil, rep, errors.New(errors.ErrCodeEmptyGraph,
			"topology %q has %d nodes, %d links", snap.Network, len(snap.Nodes), len(snap.Links))
	}
	aID, zID := req.AEnd.ID(st), req.ZEnd.ID(st)
	if snap.Composite() {
		pins := map[string]string{}
		if req.AEnd.ClientTP != "" {
			pins[aID] = req.AEnd.ClientTP
		}
		if req.ZEnd.ClientTP != "" {
			pins[zID] = req.ZEnd.ClientTP
		}
		snap, rep.Virtual = virtual.Synthesize(snap, virtual.Options{ClientTPs: pins, Logger: logger})
	}

	bd := &build{
		ctx:    ctx,
		logger: logger,
		st:     st,
		aID:    aID,
		zID:    zID,
		cons:   cons,
		b:      graph.NewBuilder(st),
		nodes: nodes.NewValidator(nodes.Context{
			ServiceType:         st,
			ServiceFormat:       req.ServiceFormat,
			AEnd:                aID,
			ZEnd:                zID,
			AClientTP:           req.AEnd.ClientTP,
			ZClientTP:           req.ZEnd.ClientTP,
			XponderWavelengths:  cfg.XponderWavelengths,
			RejectClientlessOTU: cfg.RejectClientlessOTU,
		}),
		links:     links.NewValidator(links.Config{ServiceType: st, Raw: snap.LinkIndex(), Logger: logger}),
		azSrgs:    make(map[string]bool),
		processed: make(map[string]bool),
		rejected:  make(map[string]bool),
		rep:       &rep,
	}

	if err := bd.addNodes(snap.Nodes); err != nil {
		rep.Duration = time.Since(start)
		return nil, rep, err
	}
	bd.addLinks(orderLinks(snap.Links))
	bd.commitDeferred()
	bd.pruneSRGs()

	if bd.b.NodeCount() == 0 || bd.b.LinkCount() == 0 {
		rep.Duration = time.Since(start)
		logger.Error("graph is empty after filtering", "nodes", bd.b.NodeCount(), "links", bd.b.LinkCount())
		return nil, rep, errors.New(errors.ErrCodeEmptyGraph,
			"no usable graph: %d nodes, %d links", bd.b.NodeCount(), bd.b.LinkCount())
	}
	if err := bd.b.SetEndpoints(bd.aEnd, bd.zEnd); err != nil {
		return nil, rep, errors.Wrap(errors.ErrCodeInternal, err, "set endpoints")
	}
	g, err := bd.b.Freeze()
	if err != nil {
		return nil, rep, errors.Wrap(errors.ErrCodeInternal, err, "freeze graph")
	}
	rep.Duration = time.Since(start)
	logger.Info("built graph",
		"service", st, "nodes", g.NodeCount(), "links", g.LinkCount(),
		"rejected_nodes", rep.NodesRejected, "rejected_links", rep.LinksRejected,
		"duration", rep.Duration)
	return g, rep, nil
}

// orderLinks returns the processing order: OTN links sorted by source TP,
// everything else in read order after them.
func orderLinks(raw []topology.Link) []*topology.Link {
	var otn, optical []*topology.Link
	for i := range raw {
		if raw[i].Type == topology.LinkOTN {
			otn = append(otn, &raw[i])
		} else {
			optical = append(optical, &raw[i])
		}
	}
	slices.SortStableFunc(otn, func(a, b *topology.Link) int { return cmp.Compare(a.Source.TP, b.Source.TP) })
	return append(otn, optical...)
}

// endpointNode reports whether a node of type t can serve as A or Z.
func endpointNode(st service.Type, t topology.NodeType) bool {
	if st.IsOTN() {
		return t.IsOTN()
	}
	return t == topology.NodeTypeSRG || t == topology.NodeTypeXponder
}

func (bd *build) rejectNode(n *topology.Node, err error) {
	bd.rep.NodesRejected++
	bd.logger.Debug("node rejected", "node", n.ID, "reason", err)
	observability.Compute().OnNodeRejected(bd.ctx, string(n.Type), string(errors.GetCode(err)))
}

func (bd *build) addNodes(raw []topology.Node) error {
	for i := range raw {
		n := &raw[i]
		if err := bd.cons.CheckNode(n); err != nil {
			bd.rejectNode(n, err)
			continue
		}
		gn, err := bd.nodes.Validate(n)
		if err != nil {
			bd.rejectNode(n, err)
			continue
		}
		if err := bd.b.AddNode(gn); err != nil {
			bd.rejectNode(n, errors.Wrap(errors.ErrCodeNodeRejected, err, "node %s", n.ID))
			continue
		}
		if !endpointNode(bd.st, gn.Type) {
			continue
		}
		// A and Z may name the same device; the first match serves both.
		if bd.aEnd == "" && gn.DeviceID == bd.aID {
			bd.aEnd = gn.ID
		}
		if bd.zEnd == "" && gn.DeviceID == bd.zID {
			bd.zEnd = gn.ID
		}
	}

	switch {
	case bd.aEnd == "":
		bd.logger.Error("A-end not found", "id", bd.aID)
		return errors.New(errors.ErrCodeEndpointUnresolved, "A-end %s not found", bd.aID)
	case bd.zEnd == "":
		bd.logger.Error("Z-end not found", "id", bd.zID)
		return errors.New(errors.ErrCodeEndpointUnresolved, "Z-end %s not found", bd.zID)
	}
	bd.logger.Debug("validated nodes", "nodes", bd.b.NodeCount(), "a_end", bd.aEnd, "z_end", bd.zEnd)
	return nil
}

func (bd *build) isAZ(id string) bool { return id == bd.aEnd || id == bd.zEnd }

// rejectLink drops l and, when already processed, its opposite link.
func (bd *build) rejectLink(l *topology.Link, err error) {
	bd.rep.LinksRejected++
	bd.rejected[l.ID] = true
	bd.logger.Debug("link rejected", "link", l.ID, "reason", err)
	observability.Compute().OnLinkRejected(bd.ctx, string(l.Type), string(errors.GetCode(err)))
	if l.OppositeLink == "" || !bd.processed[l.OppositeLink] {
		return
	}
	bd.rejected[l.OppositeLink] = true
	if bd.b.RemoveLink(l.OppositeLink) {
		bd.logger.Debug("opposite link removed", "link", l.OppositeLink, "opposite_of", l.ID)
	}
}

func (bd *build) addLinks(raw []*topology.Link) {
	for _, l := range raw {
		bd.processed[l.ID] = true
		if !l.Type.Known() {
			bd.rep.LinksIgnored++
			bd.logger.Debug("link ignored", "link", l.ID, "type", l.Type)
			continue
		}
		src, srcOK := bd.b.Node(l.Source.Node)
		dst, dstOK := bd.b.Node(l.Dest.Node)
		if !srcOK || !dstOK {
			bd.rejectLink(l, errors.New(errors.ErrCodeLinkRejected, "link %s: endpoint not in graph", l.ID))
			continue
		}
		gl, err := bd.links.Validate(l, src, dst)
		if err != nil {
			bd.rejectLink(l, err)
			continue
		}
		if err := bd.cons.CheckLink(gl.ID, gl.Type, gl.SRLGs()); err != nil {
			bd.rejectLink(l, err)
			continue
		}
		if err := links.CheckEligible(bd.st, gl); err != nil {
			bd.rejectLink(l, err)
			continue
		}

		switch l.Type {
		case topology.LinkAdd:
			if bd.isAZ(src.ID) {
				bd.azSrgs[src.ID] = true
			}
			bd.deferred = append(bd.deferred, pendingLink{link: gl, srgSide: src.ID, attach: src.ID})
			continue
		case topology.LinkDrop:
			if bd.isAZ(dst.ID) {
				bd.azSrgs[dst.ID] = true
			}
			bd.deferred = append(bd.deferred, pendingLink{link: gl, srgSide: dst.ID, attach: src.ID})
			continue
		case topology.LinkXponderInput:
			if bd.isAZ(dst.ID) {
				bd.azSrgs[src.ID] = true
			}
		case topology.LinkXponderOutput:
			if bd.isAZ(src.ID) {
				bd.azSrgs[dst.ID] = true
			}
		}
		bd.insert(gl, src.ID)
	}
}

func (bd *build) insert(gl *graph.Link, attach string) {
	if err := bd.b.AddLink(gl, attach); err != nil {
		bd.rep.LinksRejected++
		bd.logger.Debug("link not inserted", "link", gl.ID, "reason", err)
	}
}

// commitDeferred inserts add/drop links whose SRG serves A or Z.
func (bd *build) commitDeferred() {
	for _, d := range bd.deferred {
		if bd.rejected[d.link.ID] {
			continue
		}
		if !bd.azSrgs[d.srgSide] {
			bd.logger.Debug("add/drop link dropped, SRG does not serve an endpoint", "link", d.link.ID, "srg", d.srgSide)
			continue
		}
		if !bd.b.HasNode(d.link.Source.Node) || !bd.b.HasNode(d.link.Dest.Node) {
			continue
		}
		bd.insert(d.link, d.attach)
	}
	bd.deferred = nil
}

// pruneSRGs removes every SRG that serves neither A nor Z.
func (bd *build) pruneSRGs() {
	for _, id := range bd.b.NodeIDs() {
		n, _ := bd.b.Node(id)
		if n.Type != topology.NodeTypeSRG || bd.azSrgs[id] || bd.isAZ(id) {
			continue
		}
		bd.b.RemoveNode(id)
		bd.rep.SRGsPruned++
	}
	if bd.rep.SRGsPruned > 0 {
		bd.logger.Debug("pruned SRGs", "count", bd.rep.SRGsPruned)
	}
}
