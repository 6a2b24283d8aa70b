package ecs

import (
	"reflect"
	"sync"
	"testing"
	"time"

	. "github.com/DynamicGoose/magma-ecs/pkg/ecs/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryEntity_ComponentAccess(t *testing.T) {
	t.Parallel()

	e := newTestEntities(t)
	id, err := e.CreateEntity(Health{Value: 10})
	require.NoError(t, err)
	h, err := e.Entity(id)
	require.NoError(t, err)

	require.NoError(t, ComponentMut(h, func(v *Health) { v.Value *= 2 }))
	require.NoError(t, ComponentRef(h, func(v *Health) { assert.Equal(t, 20, v.Value) }))

	// Registered but not held.
	require.ErrorIs(t, ComponentRef(h, func(*Position) {}), ErrComponentDataDoesNotExist)
	require.ErrorIs(t, ComponentMut(h, func(*Position) {}), ErrComponentDataDoesNotExist)
	// Not registered at all.
	require.ErrorIs(t, ComponentRef(h, func(*PlayerTag) {}), ErrComponentNotInQuery)

	assert.True(t, h.Has(reflect.TypeFor[Health]()))
	assert.False(t, h.Has(reflect.TypeFor[Position]()))
}

func TestQueryEntity_AddAndRemove(t *testing.T) {
	t.Parallel()

	e := newTestEntities(t)
	id, err := e.CreateEntity(Health{})
	require.NoError(t, err)
	h, err := e.Entity(id)
	require.NoError(t, err)

	require.NoError(t, h.AddComponent(Position{X: 1}))
	assert.True(t, Has[Position](e, id))

	require.NoError(t, Remove[Health](h))
	assert.False(t, Has[Health](e, id))
	require.ErrorIs(t, Remove[PlayerTag](h), ErrComponentNotRegistered)
}

func TestQueryEntity_DeleteInvalidatesHandle(t *testing.T) {
	t.Parallel()

	e := newTestEntities(t)
	id, err := e.CreateEntity(Health{}, Position{})
	require.NoError(t, err)
	h, err := e.Entity(id)
	require.NoError(t, err)

	require.NoError(t, h.Delete())
	assert.False(t, e.Alive(id))

	// The slot may already belong to someone else, so the handle must not touch it.
	reused, err := e.CreateEntity(Health{Value: 5})
	require.NoError(t, err)
	require.Equal(t, id, reused)

	require.ErrorIs(t, h.Delete(), ErrEntityDoesNotExist)
	require.ErrorIs(t, ComponentRef(h, func(*Health) {}), ErrEntityDoesNotExist)
	require.ErrorIs(t, ComponentMut(h, func(*Health) {}), ErrEntityDoesNotExist)
	require.ErrorIs(t, h.AddComponent(Velocity{}), ErrEntityDoesNotExist)
	require.ErrorIs(t, Remove[Health](h), ErrEntityDoesNotExist)
	assert.False(t, h.Has(reflect.TypeFor[Health]()))
	assert.True(t, Has[Health](e, reused))
}

func TestQueryEntity_ConcurrentDeleteOnlySucceedsOnce(t *testing.T) {
	t.Parallel()

	e := newTestEntities(t)
	id, err := e.CreateEntity(Health{})
	require.NoError(t, err)
	h, err := e.Entity(id)
	require.NoError(t, err)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = h.Delete()
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrEntityDoesNotExist)
	}
	assert.Equal(t, 1, ok)
}

func TestQueryEntity_ReadOnly(t *testing.T) {
	t.Parallel()

	e := newTestEntities(t)
	id, err := e.CreateEntity(Health{Value: 1})
	require.NoError(t, err)
	h := newQueryEntity(id, e, true)

	require.NoError(t, ComponentRef(h, func(v *Health) { assert.Equal(t, 1, v.Value) }))
	require.ErrorIs(t, ComponentMut(h, func(*Health) {}), ErrReadOnlyAccess)
	require.ErrorIs(t, h.AddComponent(Position{}), ErrReadOnlyAccess)
	require.ErrorIs(t, Remove[Health](h), ErrReadOnlyAccess)
	require.ErrorIs(t, h.Delete(), ErrReadOnlyAccess)
	assert.True(t, e.Alive(id))
}

func TestQueryEntity_ConcurrentWritersNeverTear(t *testing.T) {
	t.Parallel()

	e := newTestEntities(t)
	require.NoError(t, RegisterComponent[Counter](e))
	id, err := e.CreateEntity(Counter{})
	require.NoError(t, err)

	const writers, iterations = 8, 200
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := e.Entity(id)
			if !assert.NoError(t, err) {
				return
			}
			for range iterations {
				assert.NoError(t, ComponentMut(h, func(c *Counter) { c.Inc() }))
				assert.NoError(t, ComponentRef(h, func(c *Counter) { assert.True(t, c.Consistent()) }))
			}
		}()
	}
	wg.Wait()

	h, err := e.Entity(id)
	require.NoError(t, err)
	require.NoError(t, ComponentRef(h, func(c *Counter) {
		assert.Equal(t, int64(writers*iterations), c.A)
		assert.True(t, c.Consistent())
	}))
}

// Callbacks hold only the cell lock, so reads of the store from inside them must not block behind a
// create that grows every column.
func TestQueryEntity_CallbackReadsDuringConcurrentGrow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		run  func(h *QueryEntity, e *Entities, inside func()) error
	}{
		{
			name: "ref then has",
			run: func(h *QueryEntity, _ *Entities, inside func()) error {
				return ComponentRef(h, func(*Health) {
					inside()
					h.Has(reflect.TypeFor[Position]())
				})
			},
		},
		{
			name: "mut then count and nested query",
			run: func(h *QueryEntity, e *Entities, inside func()) error {
				return ComponentMut(h, func(v *Health) {
					inside()
					v.Value = e.Count()
					_ = e.Query().Entities()
				})
			},
		},
		{
			name: "mut then create",
			run: func(h *QueryEntity, e *Entities, inside func()) error {
				return ComponentMut(h, func(*Health) {
					inside()
					_, _ = e.CreateEntity(Velocity{})
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestEntities(t)
			id, err := e.CreateEntity(Health{})
			require.NoError(t, err)
			h, err := e.Entity(id)
			require.NoError(t, err)

			entered := make(chan struct{})
			done := make(chan struct{}, 2)

			go func() {
				defer func() { done <- struct{}{} }()
				assert.NoError(t, tt.run(h, e, func() {
					close(entered)
					// Give the create below time to take the membership lock and wait on the columns.
					time.Sleep(50 * time.Millisecond)
				}))
			}()
			go func() {
				defer func() { done <- struct{}{} }()
				<-entered
				_, err := e.CreateEntity(Position{})
				assert.NoError(t, err)
			}()

			for range 2 {
				select {
				case <-done:
				case <-time.After(5 * time.Second):
					t.Fatal("component callback blocked against a concurrent create")
				}
			}
			assertMembershipInvariant(t, e)
		})
	}
}
