// Package render groups the visual outputs of a built graph.
//
// The [dot] subpackage emits Graphviz DOT source and renders it to SVG.
//
// [dot]: github.com/matzehuels/pcegraph/pkg/render/dot
package render
