// Package testutils holds component fixtures for the ecs tests.
package testutils

type Health struct {
	Value int `json:"value"`
}

type Position struct{ X, Y int }

type Velocity struct{ X, Y int }

type Experience struct{ Value int }

type PlayerTag struct{ Tag string }

type Level struct{ Value int }

// Counter is a large component used to check that concurrent writers never tear a value: every
// field must always hold the same number.
type Counter struct {
	A, B, C, D, E, F, G, H int64
}

// Consistent reports whether all fields hold the same value.
func (c Counter) Consistent() bool {
	return c.A == c.B && c.B == c.C && c.C == c.D && c.D == c.E && c.E == c.F && c.F == c.G && c.G == c.H
}

// Inc increments every field.
func (c *Counter) Inc() {
	c.A++
	c.B++
	c.C++
	c.D++
	c.E++
	c.F++
	c.G++
	c.H++
}
