// Profiling:
// go build ./profile/dispatch
// go tool pprof -http=":8000" -nodefraction=0.001 ./dispatch cpu.pprof

package main

import (
	"context"

	"github.com/DynamicGoose/magma-ecs/pkg/ecs"
	"github.com/DynamicGoose/magma-ecs/pkg/telemetry"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type position struct {
	X float64
	Y float64
}

type velocity struct {
	X float64
	Y float64
}

type health struct {
	Value int
}

type ticks struct {
	N int
}

const population = 10000

func main() {
	tel, err := telemetry.New(telemetry.Options{ServiceName: "mecs-profile"})
	if err != nil {
		panic(err)
	}
	logger := tel.GetLogger("profile")
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shut down telemetry")
		}
	}()

	rounds := 10
	iters := 200
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	if err := run(&logger, tel.Tracer, rounds, iters, population); err != nil {
		logger.Error().Err(err).Msg("profile run failed")
	}
	p.Stop()
}

func run(logger *zerolog.Logger, tracer trace.Tracer, rounds, iters, numEntities int) error {
	for round := range rounds {
		w, err := ecs.NewWorld(ecs.WorldOptions{Logger: logger, Tracer: tracer})
		if err != nil {
			return err
		}
		if err := setup(w, numEntities); err != nil {
			return err
		}

		dispatcher, err := ecs.NewSystems().
			With(movement, "movement").
			With(decay, "decay").
			With(reap, "reap", "decay").
			With(respawn, "respawn", "reap").
			WithReader(count, "count", "movement", "reap").
			Build()
		if err != nil {
			return err
		}

		for range iters {
			if err := dispatcher.Dispatch(context.Background(), w); err != nil {
				return err
			}
		}
		logger.Info().Int("round", round).Int("entities", w.Entities().Count()).Msg("round finished")
	}
	return nil
}

func setup(w *ecs.World, numEntities int) error {
	if err := ecs.RegisterComponent[position](w); err != nil {
		return err
	}
	if err := ecs.RegisterComponent[velocity](w); err != nil {
		return err
	}
	if err := ecs.RegisterComponent[health](w); err != nil {
		return err
	}
	if err := ecs.AddResource(w.Resources(), ticks{}); err != nil {
		return err
	}
	for i := range numEntities {
		if _, err := w.CreateEntity(position{}, velocity{X: 1, Y: 2}, health{Value: i % 100}); err != nil {
			return err
		}
	}
	return nil
}

func movement(a *ecs.Access) error {
	q := a.Query()
	if err := ecs.WithComponent[position](q); err != nil {
		return err
	}
	if err := ecs.WithComponent[velocity](q); err != nil {
		return err
	}
	var err error
	q.Run(func(entities []*ecs.QueryEntity) {
		for _, e := range entities {
			var v velocity
			if err = ecs.ComponentRef(e, func(vel *velocity) { v = *vel }); err != nil {
				return
			}
			if err = ecs.ComponentMut(e, func(p *position) {
				p.X += v.X
				p.Y += v.Y
			}); err != nil {
				return
			}
		}
	})
	return err
}

func decay(a *ecs.Access) error {
	q := a.Query()
	if err := ecs.WithComponent[health](q); err != nil {
		return err
	}
	var err error
	q.Run(func(entities []*ecs.QueryEntity) {
		for _, e := range entities {
			if err = ecs.ComponentMut(e, func(h *health) { h.Value-- }); err != nil {
				return
			}
		}
	})
	return err
}

func reap(a *ecs.Access) error {
	q := a.Query()
	if err := ecs.WithComponent[health](q); err != nil {
		return err
	}
	var err error
	q.Run(func(entities []*ecs.QueryEntity) {
		for _, e := range entities {
			dead := false
			if err = ecs.ComponentRef(e, func(h *health) { dead = h.Value <= 0 }); err != nil {
				return
			}
			if !dead {
				continue
			}
			if err = e.Delete(); err != nil {
				return
			}
		}
	})
	return err
}

func respawn(a *ecs.Access) error {
	spawned := 0
	for a.Count() < population {
		if _, err := a.CreateEntity(position{}, velocity{X: 1, Y: 2}, health{Value: 100}); err != nil {
			return err
		}
		spawned++
	}
	return ecs.ResourceMut(a.Resources(), func(t *ticks) { t.N += spawned })
}

func count(a *ecs.Access) error {
	return ecs.ResourceRef(a.Resources(), func(t *ticks) {
		a.Logger().Debug().Int("spawned", t.N).Msg("tick")
	})
}
