package ecs

import (
	"testing"

	. "github.com/DynamicGoose/magma-ecs/pkg/ecs/internal/testutils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// newTestEntities creates a store with Health, Position and Velocity registered, in that order.
func newTestEntities(t *testing.T) *Entities {
	t.Helper()
	e := newEntities(newDefaultWorldOptions(), zerolog.Nop())
	require.NoError(t, RegisterComponent[Health](e))
	require.NoError(t, RegisterComponent[Position](e))
	require.NoError(t, RegisterComponent[Velocity](e))
	return e
}

// newTestWorld creates a world that logs nowhere and traces nothing.
func newTestWorld(t *testing.T, opts WorldOptions) *World {
	t.Helper()
	logger := zerolog.Nop()
	if opts.Logger == nil {
		opts.Logger = &logger
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("test")
	}
	w, err := NewWorld(opts)
	require.NoError(t, err)
	return w
}

// queryIDs runs a query over the given component types and returns the matching slots.
func queryIDs(t *testing.T, q *Query, with ...func(*Query) error) []EntityID {
	t.Helper()
	for _, fn := range with {
		require.NoError(t, fn(q))
	}
	var ids []EntityID
	q.Run(func(entities []*QueryEntity) {
		for _, h := range entities {
			ids = append(ids, h.ID())
		}
	})
	return ids
}
