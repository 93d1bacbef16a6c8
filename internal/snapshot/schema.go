package snapshot

import (
	"fmt"

	"github.com/emberline/ecscore/internal/codec"
	"github.com/emberline/ecscore/internal/core/ecs"
	"github.com/emberline/ecscore/internal/stream"
)

// Schema lists the component stores that make up a snapshot, in the order
// they are written.
type Schema struct {
	sections []section
	byName   map[string]int
}

type section struct {
	name   string
	encode func(w *stream.Writer, world *ecs.World)
	decode func(r *stream.Reader, world *ecs.World) error
}

func NewSchema() *Schema {
	return &Schema{byName: make(map[string]int)}
}

// Register adds the store of T under name. T is resolved immediately, so an
// ineligible component type fails here with codec.ErrTypeNotEligible rather
// than on the first snapshot.
func Register[T any](s *Schema, name string) error {
	if name == "" {
		return fmt.Errorf("register section: empty name")
	}
	if _, ok := s.byName[name]; ok {
		return fmt.Errorf("register section %q: %w", name, ErrDuplicateSection)
	}
	comps, err := codec.ResolveArray[T]()
	if err != nil {
		return fmt.Errorf("register section %q: %w", name, err)
	}
	ids := codec.MustResolveArray[ecs.EntityID]()

	s.byName[name] = len(s.sections)
	s.sections = append(s.sections, section{
		name: name,
		encode: func(w *stream.Writer, world *ecs.World) {
			store := ecs.StoreOf[T](world)
			keys := store.IDs()
			values := make([]T, len(keys))
			for i, id := range keys {
				c, _ := store.Get(id)
				values[i] = *c
			}
			ids.Write(w, keys)
			comps.Write(w, values)
		},
		decode: func(r *stream.Reader, world *ecs.World) error {
			keys := ids.Read(r)
			values := comps.Read(r)
			if err := r.Err(); err != nil {
				return err
			}
			if len(keys) != len(values) {
				return fmt.Errorf("%d entities but %d components", len(keys), len(values))
			}
			store := ecs.StoreOf[T](world)
			for i, id := range keys {
				if !world.Alive(id) {
					if err := world.Restore(id); err != nil {
						return err
					}
				}
				store.Set(id, &values[i])
			}
			return nil
		},
	})
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](s *Schema, name string) {
	if err := Register[T](s, name); err != nil {
		panic(err)
	}
}

// Names returns the registered section names in order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.sections))
	for i, sec := range s.sections {
		names[i] = sec.name
	}
	return names
}
