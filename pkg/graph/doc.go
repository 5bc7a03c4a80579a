// Package graph holds the validated, resource-annotated graph handed to path
// search.
//
// # Overview
//
// Nodes and links live in flat id-keyed maps. Every cross reference
// (outgoing edges, opposite link, link endpoints) is an id resolved through
// the [Graph], never a pointer, so there are no ownership cycles between
// nodes, links and their opposites.
//
// A graph is assembled with a [Builder]: nodes are added, links are added
// and attached to the outgoing list of one endpoint, rejected links are
// removed again. [Builder.Freeze] produces an immutable [Graph]; after that
// the only writable field is the link weight, which belongs to path search
// ([Graph.SetWeight]).
//
//	b := graph.NewBuilder(service.Type100GE)
//	b.AddNode(srg)
//	b.AddNode(deg)
//	b.AddLink(add, srg.ID)
//	b.SetEndpoints(srg.ID, deg.ID)
//	g, err := b.Freeze()
//
// # Node and Link Kinds
//
// A [Node] carries a tagged [Resources] payload: [*OpticalResources] for
// SRG, DEGREE and XPONDER nodes, [*OTNResources] for MUXPDR, SWITCH and
// TPDR nodes. A [Link] carries [*OpticalAttrs] (impairments) or
// [*OTNAttrs] (bandwidth). Use a type switch or the typed accessors
// ([Node.OpticalResources], [Link.Impairments], ...) to read them.
package graph
