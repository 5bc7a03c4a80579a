// Package topology models the raw multi-layer network topology that a path
// computation reads from the topology store.
//
// # Overview
//
// A [Snapshot] holds every [Node] and [Link] of one named network layer
// (for example "openroadm-topology" or "otn-topology"). Snapshots are
// immutable input: validators read them, nothing in pcegraph writes them
// back. Fields that may legitimately be missing in the source data (loss,
// PMD, OTN bandwidth) are pointers so that absence can be told apart from
// zero.
//
// # Layers
//
// Nodes reference the layers they are built on through [SupportingNode]
// entries. Two of those layers matter for path computation:
//
//   - [NetworkOpenROADM]: the device a node belongs to
//   - [NetworkCLLI]: the facility location used for diversity
//
// # Encoding
//
// Snapshots decode from YAML or JSON with [Decode] and encode with [Encode].
// The same struct tags are used by the mongo store, so a snapshot round-trips
// through every backend unchanged.
package topology
