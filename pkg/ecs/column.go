package ecs

import (
	"reflect"
	"sync"

	"github.com/DynamicGoose/magma-ecs/pkg/assert"
	"github.com/rotisserie/eris"
)

// columnFactory creates a column already extended to the given number of slots.
type columnFactory func(slots int) abstractColumn

// abstractColumn is the type-erased view of a column used by the entity store, which only knows
// component values as `any`.
type abstractColumn interface {
	typ() reflect.Type
	len() int
	extend()
	has(row int) bool
	setAbstract(row int, value any)
	clear(row int)
}

var _ abstractColumn = &column[struct{}]{}

// cell holds one component value. Each cell has its own lock so handles can read or write different
// entities of the same component type concurrently.
type cell[T any] struct {
	mu    sync.RWMutex
	value T
}

// column stores the values of one component type, one optional cell per entity slot. The column
// lock guards the slice itself (growing it and swapping cells in and out); the cell locks guard
// the values.
type column[T any] struct {
	mu    sync.RWMutex
	cells []*cell[T]
}

// newColumn creates a column with the given number of empty slots.
func newColumn[T any](slots int) *column[T] {
	const initialCapacity = 16
	return &column[T]{cells: make([]*cell[T], slots, max(slots, initialCapacity))}
}

// newColumnFactory returns a function that constructs a new column of type T.
func newColumnFactory[T any]() columnFactory {
	return func(slots int) abstractColumn {
		return newColumn[T](slots)
	}
}

func (c *column[T]) typ() reflect.Type {
	return reflect.TypeFor[T]()
}

func (c *column[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cells)
}

// extend appends one empty slot. append doubles the capacity when it runs out.
func (c *column[T]) extend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cells = append(c.cells, nil)
}

// has reports whether the slot holds a value.
func (c *column[T]) has(row int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.That(row < len(c.cells), "row %d outside column of length %d", row, len(c.cells))
	return c.cells[row] != nil
}

// set stores a fresh cell at row. A new cell is used instead of writing into the old one so that a
// value from a previous occupant of the slot is never merged with the new one.
func (c *column[T]) set(row int, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	assert.That(row < len(c.cells), "column isn't extended when entity is created")
	c.cells[row] = &cell[T]{value: value}
}

// setAbstract stores a value whose concrete type is only known as `any`. The registry guarantees the
// dynamic type matches T, so a failed assertion is a bug.
func (c *column[T]) setAbstract(row int, value any) {
	concrete, ok := value.(T)
	assert.That(ok, "tried to set %T into column of %s", value, c.typ())
	c.set(row, concrete)
}

// clear empties the slot.
func (c *column[T]) clear(row int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	assert.That(row < len(c.cells), "tried to clear row %d outside column", row)
	c.cells[row] = nil
}

// read runs fn with shared access to the value at row. Only the cell is locked while fn runs, so fn
// may call back into the store as long as it doesn't lock this cell again.
func (c *column[T]) read(row int, fn func(*T)) error {
	target, err := c.cellAt(row)
	if err != nil {
		return err
	}
	target.mu.RLock()
	defer target.mu.RUnlock()
	fn(&target.value)
	return nil
}

// write runs fn with exclusive access to the value at row. A concurrent set or clear swaps the cell
// out instead of touching it, so a write racing with a replacement lands in the detached cell.
func (c *column[T]) write(row int, fn func(*T)) error {
	target, err := c.cellAt(row)
	if err != nil {
		return err
	}
	target.mu.Lock()
	defer target.mu.Unlock()
	fn(&target.value)
	return nil
}

// cellAt returns the cell at row.
func (c *column[T]) cellAt(row int) (*cell[T], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if row >= len(c.cells) || c.cells[row] == nil {
		return nil, eris.Wrapf(ErrComponentDataDoesNotExist, "%s at slot %d", c.typ(), row)
	}
	return c.cells[row], nil
}

// toColumn downcasts a type-erased column. The registry keys columns by reflect.Type, so a mismatch
// means the registry is corrupt.
func toColumn[T any](col abstractColumn) *column[T] {
	concrete, ok := col.(*column[T])
	assert.That(ok, "column of %s is not a column of %s", col.typ(), reflect.TypeFor[T]())
	return concrete
}
