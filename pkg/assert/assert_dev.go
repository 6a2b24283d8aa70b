//go:build !release

// Package assert checks internal invariants. Violations panic in regular builds and compile to
// no-ops when built with the release tag.
package assert

import "fmt"

func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
