package ecs

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// scanner matches membership masks against a query. Stores smaller than threshold are scanned on
// the calling goroutine; larger ones are split into contiguous chunks scanned by up to workers
// goroutines and stitched back together in slot order.
type scanner struct {
	workers   int
	threshold int
}

func newScanner(workers, threshold int) scanner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return scanner{workers: workers, threshold: threshold}
}

// match returns the slots containing every component in ids in ascending order. Expects the caller
// to hold the membership read lock for the duration of the call.
func (s scanner) match(m *membership, ids []componentID) []EntityID {
	n := m.len()
	if n == 0 {
		return nil
	}
	if s.workers <= 1 || n < s.threshold {
		return matchRange(m, ids, 0, n)
	}

	chunkSize := (n + s.workers - 1) / s.workers
	parts := make([][]EntityID, (n+chunkSize-1)/chunkSize)

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i := range parts {
		g.Go(func() error {
			lo := i * chunkSize
			parts[i] = matchRange(m, ids, lo, min(lo+chunkSize, n))
			return nil
		})
	}
	_ = g.Wait() // Chunks never fail.

	var total int
	for _, p := range parts {
		total += len(p)
	}
	out := make([]EntityID, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// matchRange scans slots [lo, hi).
func matchRange(m *membership, ids []componentID, lo, hi int) []EntityID {
	var out []EntityID
	for i := lo; i < hi; i++ {
		id := EntityID(i) //nolint:gosec // slots are bounded by MaxEntityID
		if m.contains(id, ids) {
			out = append(out, id)
		}
	}
	return out
}
