package voxel

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pdrpinto/teleport-astar/geom"
)

// UnmarshalYAML lets world files name kinds ("solid", "carpet", ...).
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseKind(name)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*k = parsed
	return nil
}

// MarshalYAML writes the kind name.
func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Region is one entry of a world file: a block kind filling the inclusive
// box Min..Max. Max defaults to Min.
type Region struct {
	Kind Kind  `yaml:"kind"`
	Min  []int `yaml:"min"`
	Max  []int `yaml:"max,omitempty"`
}

// File is the on-disk world layout. Regions apply in order, so later
// regions overwrite earlier ones and "air" carves holes.
type File struct {
	Regions []Region `yaml:"regions"`
}

func cellFrom(v []int) (geom.CellKey, error) {
	if len(v) != 3 {
		return geom.CellKey{}, fmt.Errorf("want 3 coordinates, got %d", len(v))
	}
	return geom.CellKey{X: v[0], Y: v[1], Z: v[2]}, nil
}

// Build materialises the regions into a World.
func (f File) Build() (*World, error) {
	w := NewWorld()
	for i, region := range f.Regions {
		lo, err := cellFrom(region.Min)
		if err != nil {
			return nil, fmt.Errorf("region %d min: %w", i, err)
		}
		hi := lo
		if region.Max != nil {
			if hi, err = cellFrom(region.Max); err != nil {
				return nil, fmt.Errorf("region %d max: %w", i, err)
			}
		}
		w.Fill(lo, hi, region.Kind)
	}
	return w, nil
}

// DecodeWorld reads a YAML world, rejecting unknown fields.
func DecodeWorld(r io.Reader) (*World, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("YAML syntax error in world file: %w", err)
	}
	return file.Build()
}

// LoadWorld reads a YAML world file from disk.
func LoadWorld(path string) (*World, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open world file: %w", err)
	}
	defer file.Close()
	return DecodeWorld(file)
}
