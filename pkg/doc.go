// Package pkg provides the core libraries for pcegraph.
//
// # Overview
//
// pcegraph turns a snapshot of an OpenROADM or OTN network into the
// directed graph a path computation engine searches for one service
// request. Every node and link of the snapshot is validated, reduced to the
// attributes path computation needs, and filtered by the request's
// exclusion constraints. Xponders are expanded into virtual client and
// network ports when the snapshot lacks them.
//
// # Architecture
//
//	[topology/store] (file, memory, redis, mongo, sqlite)
//	         ↓
//	    [topology] snapshot
//	         ↓
//	    [builder] ([nodes], [links], [virtual], [constraints], [impairment])
//	         ↓
//	    [graph] + [render/dot]
//
// [pipeline] ties these together behind a single Execute call that the CLI
// and the HTTP server both use.
//
// # Quick Start
//
//	s, _ := store.Open(ctx, store.Config{Backend: store.BackendFile, Dir: "topologies"})
//	r := pipeline.NewRunner(s, logger)
//	defer r.Close()
//
//	res, err := r.Execute(ctx, pipeline.Options{
//	    ServiceFormat: service.FormatEthernet,
//	    ServiceRate:   100,
//	    AEnd:          builder.Endpoint{Node: "XPDR-A1"},
//	    ZEnd:          builder.Endpoint{Node: "XPDR-C1"},
//	})
//	if err != nil {
//	    log.Fatal(res.LocalCause, err)
//	}
//	fmt.Println(res.Graph.Stats())
//
// # Supporting Packages
//
// [service] maps a format and rate onto a service type. [errors] defines the
// coded errors every layer returns. [config] loads the TOML configuration,
// [observability] exposes hook points, and [metrics] backs them with
// Prometheus collectors.
//
// [topology]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/topology
// [topology/store]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/topology/store
// [builder]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/builder
// [nodes]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/nodes
// [links]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/links
// [virtual]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/virtual
// [constraints]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/constraints
// [impairment]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/impairment
// [graph]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/graph
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/render/dot
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/pipeline
// [service]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/service
// [errors]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/errors
// [config]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/observability
// [metrics]: https://pkg.go.dev/github.com/matzehuels/pcegraph/pkg/metrics
package pkg
