package testutils

import "github.com/DynamicGoose/magma-ecs/pkg/assert"

const genMaxDepth = 32

// Gen walks every combination of bounded choices made inside a `for !g.Done()` loop. Each call to
// Intn or Bool records a digit; Done advances the rightmost digit that is still below its bound and
// zeroes everything after it, like an odometer whose wheels are sized on first use.
//
// See: <https://matklad.github.io/2021/11/07/generate-all-the-things.html>
type Gen struct {
	started bool
	digits  [genMaxDepth]struct{ value, bound uint32 }
	pos     int
	used    int
}

// NewGen creates a new exhaustive generator.
func NewGen() *Gen {
	return &Gen{}
}

// Done reports whether every combination has been produced.
func (g *Gen) Done() bool {
	if !g.started {
		g.started = true
		return false
	}
	for i := g.used - 1; i >= 0; i-- {
		if g.digits[i].value < g.digits[i].bound {
			g.digits[i].value++
			g.used = i + 1
			g.pos = 0
			return false
		}
	}
	return true
}

func (g *Gen) next(bound uint32) uint32 {
	assert.That(g.pos < genMaxDepth, "exhaustigen: exceeded maximum depth of %d", genMaxDepth)
	if g.pos == g.used {
		g.digits[g.pos].value = 0
		g.used++
	}
	g.digits[g.pos].bound = bound
	g.pos++
	return g.digits[g.pos-1].value
}

// Intn returns an int in range [0, bound] (inclusive).
func (g *Gen) Intn(bound int) int {
	return int(g.next(uint32(bound))) //nolint:gosec // bound is expected to be small in tests
}

// Bool returns an exhaustive boolean value.
func (g *Gen) Bool() bool {
	return g.Intn(1) == 1
}

// Subset returns n exhaustive booleans, one per member of a set of size n.
func (g *Gen) Subset(n int) []bool {
	members := make([]bool, n)
	for i := range members {
		members[i] = g.Bool()
	}
	return members
}
