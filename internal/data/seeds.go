package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/emberline/ecscore/internal/component"
)

// Vec3 is a YAML-friendly triple.
type Vec3 struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// SeedEntry describes one world to create at startup and the entities to
// spawn into it.
type SeedEntry struct {
	Name     string  `yaml:"name"`
	Entities int     `yaml:"entities"`
	Spacing  float32 `yaml:"spacing"`
	Origin   Vec3    `yaml:"origin"`
	Velocity Vec3    `yaml:"velocity"`
	Health   int32   `yaml:"health"` // 0 = no Health component
	Regen    float32 `yaml:"regen"`
}

// Position returns the spawn position of the i-th entity: entities are laid
// out along X starting at Origin.
func (e *SeedEntry) Position(i int) component.Position {
	return component.Position{
		X: e.Origin.X + float32(i)*e.Spacing,
		Y: e.Origin.Y,
		Z: e.Origin.Z,
	}
}

// SeedTable holds the worlds listed in a seed file, in file order.
type SeedTable struct {
	entries []SeedEntry
	byName  map[string]*SeedEntry
}

// LoadSeeds loads a world seed file.
func LoadSeeds(path string) (*SeedTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seeds: %w", err)
	}
	return ParseSeeds(raw)
}

// ParseSeeds parses seed YAML. World names must be unique and entity counts
// non-negative.
func ParseSeeds(raw []byte) (*SeedTable, error) {
	var file struct {
		Worlds []SeedEntry `yaml:"worlds"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse seeds: %w", err)
	}
	t := &SeedTable{
		entries: file.Worlds,
		byName:  make(map[string]*SeedEntry, len(file.Worlds)),
	}
	for i := range t.entries {
		e := &t.entries[i]
		if e.Name == "" {
			return nil, fmt.Errorf("seed %d: missing name", i)
		}
		if e.Entities < 0 {
			return nil, fmt.Errorf("seed %q: negative entity count %d", e.Name, e.Entities)
		}
		if _, dup := t.byName[e.Name]; dup {
			return nil, fmt.Errorf("seed %q: duplicate world name", e.Name)
		}
		if e.Spacing == 0 {
			e.Spacing = 1
		}
		t.byName[e.Name] = e
	}
	return t, nil
}

// Get returns the seed for a world name, or nil if none.
func (t *SeedTable) Get(name string) *SeedEntry {
	return t.byName[name]
}

// All returns the seeds in file order.
func (t *SeedTable) All() []SeedEntry {
	return t.entries
}

// Count returns the total number of worlds loaded.
func (t *SeedTable) Count() int {
	return len(t.entries)
}
