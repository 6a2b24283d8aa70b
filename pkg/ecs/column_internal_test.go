package ecs

import (
	"reflect"
	"testing"

	. "github.com/DynamicGoose/magma-ecs/pkg/ecs/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumn_SetReadWriteClear(t *testing.T) {
	t.Parallel()

	col := newColumn[Health](2)
	assert.Equal(t, 2, col.len())
	assert.Equal(t, reflect.TypeFor[Health](), col.typ())
	assert.False(t, col.has(0))

	err := col.read(0, func(*Health) { t.Fatal("read ran on an empty slot") })
	require.ErrorIs(t, err, ErrComponentDataDoesNotExist)

	col.setAbstract(1, Health{Value: 10})
	assert.True(t, col.has(1))

	require.NoError(t, col.write(1, func(h *Health) { h.Value += 5 }))
	var got int
	require.NoError(t, col.read(1, func(h *Health) { got = h.Value }))
	assert.Equal(t, 15, got)

	col.clear(1)
	assert.False(t, col.has(1))
	require.ErrorIs(t, col.write(1, func(*Health) {}), ErrComponentDataDoesNotExist)
}

func TestColumn_ExtendKeepsValues(t *testing.T) {
	t.Parallel()

	col := newColumn[Position](0)
	for i := range 100 {
		col.extend()
		col.set(i, Position{X: i, Y: -i})
	}
	assert.Equal(t, 100, col.len())

	for i := range 100 {
		require.NoError(t, col.read(i, func(p *Position) {
			assert.Equal(t, Position{X: i, Y: -i}, *p)
		}))
	}
}

func TestColumn_SetReplacesCell(t *testing.T) {
	t.Parallel()

	col := newColumn[Health](1)
	col.set(0, Health{Value: 1})
	old := col.cells[0]

	col.set(0, Health{Value: 2})
	assert.NotSame(t, old, col.cells[0])
	assert.Equal(t, 1, old.value.Value)
}

func TestColumn_WrongTypePanics(t *testing.T) {
	t.Parallel()

	col := newColumn[Health](1)
	assert.Panics(t, func() { col.setAbstract(0, Position{}) })
	assert.Panics(t, func() { toColumn[Position](col) })
}

func TestColumn_CallbackDoesNotHoldColumnLock(t *testing.T) {
	t.Parallel()

	col := newColumn[Health](1)
	col.set(0, Health{Value: 1})

	require.NoError(t, col.read(0, func(h *Health) {
		col.extend()
		col.set(1, Health{Value: 2})
		assert.Equal(t, 1, h.Value)
	}))
	require.NoError(t, col.write(0, func(h *Health) {
		col.extend()
		// Replacing the cell detaches the one being written.
		col.set(0, Health{Value: 9})
		h.Value = 100
	}))

	assert.Equal(t, 3, col.len())
	require.NoError(t, col.read(0, func(h *Health) { assert.Equal(t, 9, h.Value) }))
}
