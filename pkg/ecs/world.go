package ecs

import (
	"context"
	"reflect"
	"runtime"

	"github.com/DynamicGoose/magma-ecs/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// World holds all the data of the simulation: the entity store and the resources.
type World struct {
	id        uuid.UUID
	entities  *Entities
	resources Resources
	workers   int

	logger    zerolog.Logger
	tracer    trace.Tracer
	telemetry *telemetry.Telemetry // Set when the world built its own logger or tracer
}

// NewWorld creates a new World. Options left at their zero value are taken from the environment
// (see worldConfig). When no logger or tracer is passed in, they are built from the telemetry
// config and released by Shutdown.
func NewWorld(opts WorldOptions) (*World, error) {
	cfg, err := loadWorldConfig()
	if err != nil {
		return nil, err
	}

	options := newDefaultWorldOptions()
	cfg.applyToOptions(&options)
	options.apply(opts)
	if err := options.validate(); err != nil {
		return nil, eris.Wrap(err, "invalid world options")
	}
	if options.Workers == 0 {
		options.Workers = runtime.GOMAXPROCS(0)
	}

	var tel *telemetry.Telemetry
	if options.Logger == nil || options.Tracer == nil {
		t, err := telemetry.New(telemetry.Options{ServiceName: "mecs"})
		if err != nil {
			return nil, eris.Wrap(err, "failed to set up telemetry")
		}
		tel = &t
		if options.Logger == nil {
			logger := t.GetLogger("world")
			options.Logger = &logger
		}
		if options.Tracer == nil {
			options.Tracer = t.Tracer
		}
	}

	id := uuid.New()
	logger := options.Logger.With().Str("world_id", id.String()).Logger()

	world := &World{
		id:        id,
		entities:  newEntities(options, logger),
		resources: newResources(),
		workers:   options.Workers,
		logger:    logger,
		tracer:    options.Tracer,
		telemetry: tel,
	}

	logger.Debug().
		Int("max_components", options.MaxComponents).
		Int("workers", options.Workers).
		Int("parallel_scan_threshold", options.ParallelScanThreshold).
		Msg("world created")

	return world, nil
}

// ID returns the world's instance ID. It is attached to every log line the world writes.
func (w *World) ID() uuid.UUID {
	return w.id
}

// Entities returns the entity store.
func (w *World) Entities() *Entities {
	return w.entities
}

// Resources returns the resource store.
func (w *World) Resources() Resources {
	return w.resources
}

// Shutdown flushes the telemetry the world created for itself.
func (w *World) Shutdown(ctx context.Context) error {
	if w.telemetry == nil {
		return nil
	}
	return w.telemetry.Shutdown(ctx)
}

func (w *World) registerType(typ reflect.Type, factory columnFactory) error {
	return w.entities.registerType(typ, factory)
}

// CreateEntity creates an entity holding the given components. See Entities.CreateEntity.
func (w *World) CreateEntity(components ...any) (EntityID, error) {
	return w.entities.CreateEntity(components...)
}

// AddComponent sets a component on the entity at id.
func (w *World) AddComponent(id EntityID, data any) error {
	return w.entities.AddComponent(id, data)
}

// RemoveComponentType removes the component of type typ from the entity at id.
func (w *World) RemoveComponentType(id EntityID, typ reflect.Type) error {
	return w.entities.RemoveComponentType(id, typ)
}

// DeleteEntity deletes the entity at id.
func (w *World) DeleteEntity(id EntityID) error {
	return w.entities.DeleteEntity(id)
}

// HasType reports whether the entity at id holds a component of type typ.
func (w *World) HasType(id EntityID, typ reflect.Type) bool {
	return w.entities.HasType(id, typ)
}

// Query starts a query over the world's entities.
func (w *World) Query() *Query {
	return w.entities.Query()
}

// Entity returns a handle to the live entity at id.
func (w *World) Entity(id EntityID) (*QueryEntity, error) {
	return w.entities.Entity(id)
}
