package ecs

import (
	"context"

	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Dispatcher runs compiled system stages against a world. It is immutable and may be dispatched
// any number of times; every dispatch runs every stage from scratch.
type Dispatcher struct {
	stages [][]systemMetadata
}

// Stages returns the system names of each stage, in execution order.
func (d *Dispatcher) Stages() [][]string {
	out := make([][]string, len(d.stages))
	for i, stage := range d.stages {
		out[i] = make([]string, len(stage))
		for j, sys := range stage {
			out[i][j] = sys.name
		}
	}
	return out
}

// Dispatch runs the stages in order. The systems of a stage run concurrently on up to the world's
// worker count of goroutines, and the next stage only starts after all of them have returned. The
// dispatcher takes no locks itself: systems synchronize through the store.
//
// Every system of a stage runs even if one of them fails, but later stages are skipped and the
// first error is returned. ctx carries tracing only; running systems are not cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, w *World) error {
	ctx, span := w.tracer.Start(ctx, "ecs.dispatch", trace.WithAttributes(
		attribute.String("world_id", w.id.String()),
		attribute.Int("stages", len(d.stages)),
	))
	defer span.End()

	for i, stage := range d.stages {
		w.logger.Debug().Int("stage", i).Int("systems", len(stage)).Msg("running stage")

		if err := d.runStage(ctx, w, i, stage); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "system failed")
			w.logger.Warn().Err(err).Int("stage", i).Msg("dispatch aborted")
			return eris.Wrapf(err, "stage %d failed", i)
		}
	}
	return nil
}

// runStage fans the systems of one stage out and waits for all of them.
func (d *Dispatcher) runStage(ctx context.Context, w *World, stageID int, stage []systemMetadata) error {
	g := new(errgroup.Group)
	g.SetLimit(w.workers)

	for _, sys := range stage {
		g.Go(func() error {
			return runSystem(ctx, w, stageID, sys)
		})
	}

	return g.Wait()
}

// runSystem runs a single system inside its own span.
func runSystem(ctx context.Context, w *World, stageID int, sys systemMetadata) error {
	ctx, span := w.tracer.Start(ctx, "ecs.system."+sys.name, trace.WithAttributes(
		attribute.String("system", sys.name),
		attribute.String("access", sys.mode.String()),
		attribute.Int("stage", stageID),
	))
	defer span.End()

	logger := w.logger.With().Str("system", sys.name).Logger()
	if err := sys.fn(newAccess(ctx, w, sys.mode, logger)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return eris.Wrapf(err, "system %s failed", sys.name)
	}
	return nil
}
