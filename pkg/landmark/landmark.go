// Package landmark loads and holds the fixed world-frame landmarks the
// simulator reports relative bearings to.
package landmark

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Landmark is a named fixed point in the world frame.
type Landmark struct {
	ID string  `json:"landmark_id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Registry is the ordered, immutable collection of landmarks loaded at
// startup. Order matches the landmark file's document order and determines
// path output ordering.
type Registry struct {
	landmarks []Landmark
}

// Load reads the landmark configuration file. The file is a top-level YAML
// mapping from landmark id to {x, y}:
//
//	landmark_1:
//	  x: 3.0
//	  y: 4.0
//
// A plain map decode would lose document order, so the YAML node tree is
// walked directly. Any malformed entry is a fatal load error.
func Load(path string) (*Registry, error) {
	if path == "" {
		return nil, fmt.Errorf("landmark config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading landmark config '%s': %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing landmark config '%s': %w", path, err)
	}

	reg := &Registry{}
	if len(doc.Content) == 0 {
		// Empty file: valid, zero landmarks.
		return reg, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("landmark config '%s': top level must be a mapping", path)
	}

	// Mapping nodes store key/value pairs as alternating content entries.
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		value := root.Content[i+1]

		var entry struct {
			X *float64 `yaml:"x"`
			Y *float64 `yaml:"y"`
		}
		if err := value.Decode(&entry); err != nil {
			return nil, fmt.Errorf("landmark '%s': %w", key.Value, err)
		}
		if entry.X == nil {
			return nil, fmt.Errorf("landmark '%s': missing required field x", key.Value)
		}
		if entry.Y == nil {
			return nil, fmt.Errorf("landmark '%s': missing required field y", key.Value)
		}

		reg.landmarks = append(reg.landmarks, Landmark{
			ID: key.Value,
			X:  *entry.X,
			Y:  *entry.Y,
		})
	}

	return reg, nil
}

// NewRegistry builds a registry directly from landmarks, in the given order.
// Production code loads from file via Load; this is for tests and tooling.
func NewRegistry(landmarks ...Landmark) *Registry {
	reg := &Registry{landmarks: make([]Landmark, len(landmarks))}
	copy(reg.landmarks, landmarks)
	return reg
}

// Landmarks returns the landmarks in registry order. The returned slice is a
// copy; the registry itself never changes after Load.
func (r *Registry) Landmarks() []Landmark {
	out := make([]Landmark, len(r.landmarks))
	copy(out, r.landmarks)
	return out
}

// Len returns the number of landmarks.
func (r *Registry) Len() int {
	return len(r.landmarks)
}
