package graph

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/pcegraph/pkg/impairment"
	"github.com/matzehuels/pcegraph/pkg/service"
	"github.com/matzehuels/pcegraph/pkg/topology"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// Summary is the JSON form of a finished graph. Nodes and links are sorted
// by id so identical graphs always serialize to identical bytes.
type Summary struct {
	ServiceType service.Type  `json:"service_type"`
	AEnd        string        `json:"a_end"`
	ZEnd        string        `json:"z_end"`
	Nodes       []NodeSummary `json:"nodes"`
	Links       []LinkSummary `json:"links"`
}

// NodeSummary is the JSON form of a node.
type NodeSummary struct {
	ID          string            `json:"id"`
	Type        topology.NodeType `json:"type"`
	Kind        string            `json:"kind"`
	DeviceID    string            `json:"device_id,omitempty"`
	CLLI        string            `json:"clli,omitempty"`
	Wavelengths []int             `json:"wavelengths,omitempty"`
	NetworkTPs  []string          `json:"network_tps,omitempty"`
	ClientTPs   []string          `json:"client_tps,omitempty"`
	Outgoing    []string          `json:"outgoing,omitempty"`
}

// LinkSummary is the JSON form of a link.
type LinkSummary struct {
	ID           string              `json:"id"`
	Type         topology.LinkType   `json:"type"`
	Source       string              `json:"source"`
	SourceTP     string              `json:"source_tp,omitempty"`
	Dest         string              `json:"dest"`
	DestTP       string              `json:"dest_tp,omitempty"`
	OppositeLink string              `json:"opposite_link,omitempty"`
	Client       string              `json:"client,omitempty"`
	Impairments  *impairment.Metrics `json:"impairments,omitempty"`
	Available    *uint64             `json:"available_bandwidth,omitempty"`
	Used         *uint64             `json:"used_bandwidth,omitempty"`
}

// Summarize builds the serializable summary of g.
func Summarize(g *Graph) Summary {
	s := Summary{
		ServiceType: g.serviceType,
		AEnd:        g.aEnd,
		ZEnd:        g.zEnd,
		Nodes:       make([]NodeSummary, 0, len(g.nodes)),
		Links:       make([]LinkSummary, 0, len(g.links)),
	}
	for _, n := range g.Nodes() {
		ns := NodeSummary{
			ID:       n.ID,
			Type:     n.Type,
			Kind:     n.Kind.String(),
			DeviceID: n.DeviceID,
			CLLI:     n.CLLI,
			Outgoing: n.OutgoingLinks(),
		}
		switch r := n.Resources.(type) {
		case *OpticalResources:
			ns.Wavelengths = r.Wavelengths
			ns.NetworkTPs = r.NetworkTPs
		case *OTNResources:
			ns.NetworkTPs = r.NetworkTPs
			ns.ClientTPs = r.ClientTPs
		}
		s.Nodes = append(s.Nodes, ns)
	}
	for _, l := range g.Links() {
		ls := LinkSummary{
			ID:           l.ID,
			Type:         l.Type,
			Source:       l.Source.Node,
			SourceTP:     l.Source.TP,
			Dest:         l.Dest.Node,
			DestTP:       l.Dest.TP,
			OppositeLink: l.OppositeLink,
			Client:       l.Client,
		}
		switch a := l.Attrs.(type) {
		case *OpticalAttrs:
			m := a.Metrics
			ls.Impairments = &m
		case *OTNAttrs:
			avail, used := a.Available, a.Used
			ls.Available, ls.Used = &avail, &used
		}
		s.Links = append(s.Links, ls)
	}
	return s
}

// MarshalGraph converts a graph to JSON bytes.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes a graph summary to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes a graph summary as JSON to an io.Writer.
// Use MarshalGraph for in-memory serialization or WriteGraphFile for files.
func WriteGraph(g *Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// Fingerprint returns a hex sha256 of the graph's JSON summary. Two runs
// over the same input produce the same fingerprint.
func Fingerprint(g *Graph) (string, error) {
	data, err := MarshalGraph(g)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Summarize(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
