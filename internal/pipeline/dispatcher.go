package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/san-kum/atomsim/internal/ecs"
	"golang.org/x/sync/errgroup"
)

// Dispatcher runs a levelled stage graph once per call to Dispatch.
type Dispatcher struct {
	levels   [][]node
	logger   *slog.Logger
	observer StageObserver
}

// Levels returns the stage names grouped by execution level.
func (d *Dispatcher) Levels() [][]string {
	out := make([][]string, len(d.levels))
	for i, lvl := range d.levels {
		for _, nd := range lvl {
			out[i] = append(out[i], nd.name)
		}
	}
	return out
}

// Order returns the stage names in a valid sequential execution order.
func (d *Dispatcher) Order() []string {
	out := make([]string, 0)
	for _, lvl := range d.Levels() {
		out = append(out, lvl...)
	}
	return out
}

// Dispatch runs every level in order. Commands queued before the call and
// by each level are applied at the level barriers.
func (d *Dispatcher) Dispatch(ctx context.Context, w *ecs.World) error {
	w.Maintain()

	for _, lvl := range d.levels {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.runLevel(ctx, w, lvl); err != nil {
			return err
		}
		w.Maintain()
	}
	return nil
}

func (d *Dispatcher) runLevel(ctx context.Context, w *ecs.World, lvl []node) error {
	if len(lvl) == 1 {
		return d.runStage(ctx, w, lvl[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, nd := range lvl {
		g.Go(func() error {
			return d.runStage(gctx, w, nd)
		})
	}
	return g.Wait()
}

func (d *Dispatcher) runStage(ctx context.Context, w *ecs.World, nd node) error {
	start := time.Now()
	err := nd.stage.Run(ctx, w)
	elapsed := time.Since(start)

	if d.observer != nil {
		d.observer(nd.name, elapsed, err)
	}
	if err != nil {
		d.logger.Error("stage failed", "stage", nd.name, "err", err)
		return &StageError{Stage: nd.name, Err: err}
	}
	d.logger.Debug("stage done", "stage", nd.name, "elapsed", elapsed)
	return nil
}
