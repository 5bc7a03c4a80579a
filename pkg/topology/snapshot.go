package topology

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Snapshot is the content of one network layer at the time it was read.
type Snapshot struct {
	Network string `json:"network" yaml:"network" bson:"network"`
	Model   Model  `json:"model,omitempty" yaml:"model,omitempty" bson:"model,omitempty"`
	Nodes   []Node `json:"nodes" yaml:"nodes" bson:"nodes"`
	Links   []Link `json:"links" yaml:"links" bson:"links"`
}

// Composite reports whether the snapshot needs virtual-topology synthesis.
func (s *Snapshot) Composite() bool { return s.Model == ModelComposite }

// Empty reports whether the snapshot has neither nodes nor links.
func (s *Snapshot) Empty() bool { return len(s.Nodes) == 0 && len(s.Links) == 0 }

// NodeIndex returns the snapshot nodes keyed by id. Duplicate ids keep the
// first occurrence.
func (s *Snapshot) NodeIndex() map[string]*Node {
	idx := make(map[string]*Node, len(s.Nodes))
	for i := range s.Nodes {
		if _, ok := idx[s.Nodes[i].ID]; !ok {
			idx[s.Nodes[i].ID] = &s.Nodes[i]
		}
	}
	return idx
}

// LinkIndex returns the snapshot links keyed by id. Duplicate ids keep the
// first occurrence.
func (s *Snapshot) LinkIndex() map[string]*Link {
	idx := make(map[string]*Link, len(s.Links))
	for i := range s.Links {
		if _, ok := idx[s.Links[i].ID]; !ok {
			idx[s.Links[i].ID] = &s.Links[i]
		}
	}
	return idx
}

// Format is a snapshot serialization format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks a format from a file extension, defaulting to YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Decode reads a snapshot from r. Decode does not close r.
func Decode(r io.Reader, format Format) (*Snapshot, error) {
	var s Snapshot
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML, "":
		if err := yaml.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", format)
	}
	return &s, nil
}

// Encode writes s to w in the given format.
func Encode(w io.Writer, s *Snapshot, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown snapshot format %q", format)
	}
}

// Load reads a snapshot file, choosing the format from its extension.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	s, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
