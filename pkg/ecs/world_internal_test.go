package ecs

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/DynamicGoose/magma-ecs/pkg/ecs/internal/testutils"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorld_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    WorldOptions
		wantErr bool
	}{
		{name: "defaults", opts: WorldOptions{}},
		{name: "explicit", opts: WorldOptions{MaxComponents: 8, Workers: 2, ParallelScanThreshold: 16}},
		{name: "negative max components", opts: WorldOptions{MaxComponents: -1}, wantErr: true},
		{name: "negative workers", opts: WorldOptions{Workers: -3}, wantErr: true},
		{name: "negative threshold", opts: WorldOptions{ParallelScanThreshold: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			logger := zerolog.Nop()
			tt.opts.Logger = &logger

			w, err := NewWorld(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Positive(t, w.workers)
			require.NoError(t, w.Shutdown(t.Context()))
		})
	}
}

func TestNewWorld_MaxComponents(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t, WorldOptions{MaxComponents: 2})
	require.NoError(t, RegisterComponent[Health](w))
	require.NoError(t, RegisterComponent[Position](w))
	require.ErrorIs(t, RegisterComponent[Velocity](w), ErrCapacityExceeded)
}

func TestNewWorld_EnvConfig(t *testing.T) {
	t.Setenv("MECS_WORKERS", "3")
	t.Setenv("MECS_PARALLEL_SCAN_THRESHOLD", "10")
	t.Setenv("MECS_MAX_COMPONENTS", "1")

	w := newTestWorld(t, WorldOptions{})
	assert.Equal(t, 3, w.workers)
	assert.Equal(t, 3, w.entities.scanner.workers)
	assert.Equal(t, 10, w.entities.scanner.threshold)
	require.NoError(t, RegisterComponent[Health](w))
	require.ErrorIs(t, RegisterComponent[Position](w), ErrCapacityExceeded)

	// Explicit options take precedence over the environment.
	w = newTestWorld(t, WorldOptions{Workers: 5})
	assert.Equal(t, 5, w.workers)
}

func TestNewWorld_InvalidEnvConfig(t *testing.T) {
	t.Setenv("MECS_WORKERS", "many")

	_, err := NewWorld(WorldOptions{})
	require.Error(t, err)
}

func TestNewWorld_BuildsOwnTelemetry(t *testing.T) {
	t.Setenv("MECS_LOG_LEVEL", "disabled")

	w, err := NewWorld(WorldOptions{})
	require.NoError(t, err)
	require.NotNil(t, w.telemetry)
	require.NoError(t, w.Shutdown(t.Context()))
}

func TestWorld_LogsCarryWorldID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	w := newTestWorld(t, WorldOptions{Logger: &logger})
	require.NoError(t, RegisterComponent[Health](w))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var created, registered map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &created))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &registered))

	assert.Equal(t, "world created", created["message"])
	assert.Equal(t, w.ID().String(), created["world_id"])
	assert.Equal(t, "component registered", registered["message"])
	assert.Equal(t, w.ID().String(), registered["world_id"])
	assert.Contains(t, registered["component"], "Health")
}

func TestWorld_EntityOperations(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t, WorldOptions{})
	require.NoError(t, RegisterComponent[Health](w))
	require.NoError(t, RegisterComponent[Position](w))
	require.ErrorIs(t, RegisterComponent[Health](w), ErrDuplicateRegistration)

	id, err := w.CreateEntity(Health{Value: 1})
	require.NoError(t, err)
	require.NoError(t, w.AddComponent(id, Position{X: 2}))
	assert.True(t, Has[Position](w, id))

	h, err := w.Entity(id)
	require.NoError(t, err)
	require.NoError(t, ComponentRef(h, func(p *Position) { assert.Equal(t, 2, p.X) }))

	require.NoError(t, RemoveComponent[Position](w, id))
	assert.False(t, Has[Position](w, id))
	assert.Equal(t, []EntityID{id}, queryIDs(t, w.Query(), WithComponent[Health]))

	require.NoError(t, w.DeleteEntity(id))
	assert.Empty(t, queryIDs(t, w.Query()))
	assert.Same(t, w.entities, w.Entities())

	_, err = w.Entity(id)
	require.ErrorIs(t, err, ErrEntityDoesNotExist)
}
