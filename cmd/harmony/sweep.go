package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"

	"github.com/san-kum/harmony/internal/audio"
	"github.com/san-kum/harmony/internal/dynamo"
	"github.com/san-kum/harmony/internal/engine"
	"github.com/san-kum/harmony/internal/metrics"
	"github.com/san-kum/harmony/internal/optim"
	"github.com/spf13/cobra"
)

var (
	sweepAxes    []string
	sweepMetric  string
	sweepMax     bool
	sweepWorkers int
)

// sweepSession runs one offline session per grid point and ranks the
// points by a recorded metric.
func sweepSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, presetFor(args, "calm"))
	if err != nil {
		return err
	}
	if duration <= 0 {
		return fmt.Errorf("--time must be positive, got %g", duration)
	}
	if !knownMetric(sweepMetric) {
		return fmt.Errorf("unknown metric %q", sweepMetric)
	}

	names := make([]string, 0, len(sweepAxes))
	ranges := make([][]float64, 0, len(sweepAxes))
	for _, axis := range sweepAxes {
		name, values, err := optim.ParseAxis(axis)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	grid, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	grid.WithWorkers(sweepWorkers)

	objective := func(ctx context.Context, patch dynamo.PhysicsPatch) (float64, error) {
		point := *cfg
		physics, err := cfg.Physics.Apply(patch)
		if err != nil {
			return 0, err
		}
		point.Physics = physics

		rec := metrics.NewRecorder(1, metrics.Standard()...)
		e, err := newEngine(&point, audio.Nop{}, engine.WithObserver(rec))
		if err != nil {
			return 0, err
		}
		if err := stepOffline(ctx, e, nil, point.Engine.FrameTime); err != nil {
			return 0, err
		}
		return rec.Values()[sweepMetric], nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping %d points for %.1fs each...\n", len(grid.Points()), duration)
	best, results, err := grid.Search(ctx, objective, sweepMax)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		if sweepMax {
			return results[i].Value > results[j].Value
		}
		return results[i].Value < results[j].Value
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PARAMS\t%s\n", sweepMetric)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", r.Params, r.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%.4f\n", r.Params, r.Value)
	}
	w.Flush()
	fmt.Printf("\nbest: %s (%s = %.4f)\n", best.Params, sweepMetric, best.Value)
	return nil
}

func knownMetric(name string) bool {
	for _, m := range metrics.Standard() {
		if m.Name() == name {
			return true
		}
	}
	return false
}
