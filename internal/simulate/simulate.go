// Package simulate runs many independent draws of the same league in
// parallel and writes their outcomes in a flat text format.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/draw"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/model"
)

// Options configure a batch. Trial i runs with seed Seed+i; every other
// engine setting comes from Engine.
type Options struct {
	Trials  int
	Workers int // 0 means GOMAXPROCS
	Seed    int64
	Engine  draw.Options
}

// Summary aggregates a batch. Results holds one entry per trial in trial
// order, nil where the draw was infeasible.
type Summary struct {
	Trials     int
	Completed  int
	Infeasible int
	DeadEnds   int
	Backtracks int
	Restarts   int
	Elapsed    time.Duration

	// MeanStrength is each team's opponent strength averaged over the
	// completed trials, indexed by TeamID.
	MeanStrength []draw.Strength

	Results []*draw.Result
}

type outcome struct {
	result *draw.Result
	stats  draw.Stats
}

// Run plays opts.Trials draws of l. Infeasible draws are counted, not
// returned as errors; any other engine error or a cancelled ctx stops the
// batch.
func Run(ctx context.Context, l *model.League, opts Options) (*Summary, error) {
	if opts.Trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", opts.Trials)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := opts.Engine.Logger
	if log == nil {
		log = zap.NewNop()
	}

	start := time.Now()
	outcomes := make([]outcome, opts.Trials)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < opts.Trials; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			eo := opts.Engine
			eo.Seed = opts.Seed + int64(i)
			e, err := draw.New(l, eo)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			r, err := e.Run()
			outcomes[i].stats = e.Stats()
			switch {
			case err == nil:
				outcomes[i].result = r
			case errors.Is(err, draw.ErrInfeasible):
				log.Debug("trial infeasible", zap.Int("trial", i), zap.Error(err))
			default:
				return fmt.Errorf("trial %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Summary{
		Trials:       opts.Trials,
		Elapsed:      time.Since(start),
		MeanStrength: make([]draw.Strength, l.NumTeams()),
		Results:      make([]*draw.Result, opts.Trials),
	}
	for i, o := range outcomes {
		s.DeadEnds += o.stats.DeadEnds
		s.Backtracks += o.stats.Backtracks
		s.Restarts += o.stats.Restarts
		if o.result == nil {
			s.Infeasible++
			continue
		}
		s.Completed++
		s.Results[i] = o.result
		for t := range s.MeanStrength {
			st := o.result.OpponentStrength(model.TeamID(t))
			s.MeanStrength[t].Elo += st.Elo
			s.MeanStrength[t].Coefficient += st.Coefficient
		}
	}
	if s.Completed > 0 {
		for t := range s.MeanStrength {
			s.MeanStrength[t].Elo /= float64(s.Completed)
			s.MeanStrength[t].Coefficient /= float64(s.Completed)
		}
	}

	log.Info("simulation finished",
		zap.Int("trials", s.Trials),
		zap.Int("completed", s.Completed),
		zap.Int("infeasible", s.Infeasible),
		zap.Duration("elapsed", s.Elapsed))
	return s, nil
}
