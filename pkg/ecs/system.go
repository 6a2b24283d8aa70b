package ecs

import (
	"slices"
	"strings"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// System is a function that contains game logic. It reaches the world only through its Access.
type System func(access *Access) error

// systemMetadata describes a registered system.
type systemMetadata struct {
	name string     // Unique name other systems refer to in their dependencies
	fn   System     // The system function
	mode AccessMode // Capability handed to fn
	deps []string   // Names of the systems that must finish before this one starts
}

// Systems is the system registry. It collects systems in registration order until Build compiles
// them into a Dispatcher.
type Systems struct {
	systems []systemMetadata
}

// NewSystems creates an empty system registry.
func NewSystems() *Systems {
	return &Systems{systems: make([]systemMetadata, 0)}
}

// With registers a system that may mutate the world. deps names the systems that must complete
// before it runs.
func (s *Systems) With(fn System, name string, deps ...string) *Systems {
	return s.register(fn, name, WriteAccess, deps)
}

// WithReader registers a system that only reads the world.
func (s *Systems) WithReader(fn System, name string, deps ...string) *Systems {
	return s.register(fn, name, ReadAccess, deps)
}

func (s *Systems) register(fn System, name string, mode AccessMode, deps []string) *Systems {
	s.systems = append(s.systems, systemMetadata{name: name, fn: fn, mode: mode, deps: slices.Clone(deps)})
	return s
}

// Build compiles the registry into a Dispatcher. Systems are grouped into stages: a system lands in
// the first stage after all of its dependencies have been placed. Systems without dependencies form
// stage 0. Within a stage systems keep their registration order but run concurrently.
//
// Build fails if a name is empty or repeated, a dependency names an unknown system, or the
// dependencies form a cycle.
func (s *Systems) Build() (*Dispatcher, error) {
	stages, err := compileStages(s.systems)
	if err != nil {
		return nil, eris.Wrap(err, "failed to build dispatcher")
	}
	return &Dispatcher{stages: stages}, nil
}

// compileStages layers systems by dependency depth.
func compileStages(systems []systemMetadata) ([][]systemMetadata, error) {
	index := make(map[string]int, len(systems))
	for i, sys := range systems {
		if sys.name == "" {
			return nil, eris.Wrapf(ErrInvalidSystem, "system %d has no name", i)
		}
		if sys.fn == nil {
			return nil, eris.Wrapf(ErrInvalidSystem, "system %s has no function", sys.name)
		}
		if _, exists := index[sys.name]; exists {
			return nil, eris.Wrapf(ErrDuplicateSystem, "system %s", sys.name)
		}
		index[sys.name] = i
	}
	for _, sys := range systems {
		for _, dep := range sys.deps {
			if _, exists := index[dep]; !exists {
				return nil, eris.Wrapf(ErrUnknownDependency, "system %s depends on %s", sys.name, dep)
			}
		}
	}

	var placed bitmap.Bitmap // Indices of systems assigned to an earlier stage
	remaining := make([]int, len(systems))
	for i := range remaining {
		remaining[i] = i
	}

	stages := make([][]systemMetadata, 0)
	for len(remaining) > 0 {
		var stage []systemMetadata
		var next []int
		var stageBits bitmap.Bitmap

		for _, i := range remaining {
			ready := true
			for _, dep := range systems[i].deps {
				if !placed.Contains(uint32(index[dep])) { //nolint:gosec // index is a slice position
					ready = false
					break
				}
			}
			if ready {
				stage = append(stage, systems[i])
				stageBits.Set(uint32(i)) //nolint:gosec // i is a slice position
			} else {
				next = append(next, i)
			}
		}

		if len(stage) == 0 {
			names := make([]string, len(next))
			for j, i := range next {
				names[j] = systems[i].name
			}
			return nil, eris.Wrapf(ErrCyclicDependency, "unresolvable systems: %s", strings.Join(names, ", "))
		}

		placed.Or(stageBits)
		stages = append(stages, stage)
		remaining = next
	}

	return stages, nil
}
