package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/harmony/internal/audio"
	"github.com/san-kum/harmony/internal/engine"
	"github.com/san-kum/harmony/internal/metrics"
	"github.com/san-kum/harmony/internal/storage"
	"github.com/san-kum/harmony/internal/storyboard"
	"github.com/san-kum/harmony/internal/tui"
	"github.com/spf13/cobra"
)

// loadBoardFile reads --storyboard if given and picks the preset to run.
func loadBoardFile(args []string) (string, *storage.StoryboardFile, error) {
	if boardFile == "" {
		return presetFor(args, "calm"), nil, nil
	}
	file, err := storage.LoadStoryboard(boardFile)
	if err != nil {
		return "", nil, err
	}
	fallback := file.Preset
	if fallback == "" {
		fallback = "calm"
	}
	return presetFor(args, fallback), file, nil
}

func runSession(cmd *cobra.Command, args []string) error {
	preset, file, err := loadBoardFile(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, preset)
	if err != nil {
		return err
	}
	if duration <= 0 {
		return fmt.Errorf("--time must be positive, got %g", duration)
	}

	rec := metrics.NewRecorder(0, metrics.Standard()...)
	e, err := newEngine(cfg, audio.Nop{}, engine.WithObserver(rec))
	if err != nil {
		return err
	}

	var board *storyboard.Manager
	if file != nil {
		board = storyboard.NewManager(e, cfg.Playback, storyboard.WithLogger(logger))
		if err := board.Load(file.Keyframes); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s for %.1fs...\n", preset, duration)
	start := time.Now()
	if offline {
		err = stepOffline(ctx, e, board, cfg.Engine.FrameTime)
	} else {
		err = stepRealtime(ctx, e, board)
	}
	elapsed := time.Since(start)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		logger.Error("session failed", "error", err)
	}

	state := e.GetState()
	samples := rec.Samples()
	meta := storage.RunMetadata{
		Preset:     preset,
		Storyboard: boardFile,
		Seed:       cfg.Universe.Seed,
		FrameTime:  cfg.Engine.FrameTime,
		Duration:   state.Snapshot.Time,
		Integrator: cfg.Engine.Integrator,
		Particles:  len(state.Snapshot.Particles),
		Physics:    state.Physics,
		Metrics:    rec.Values(),
	}

	st := storage.New(dataDir)
	runID, saveErr := st.Save(meta, samples)
	if saveErr != nil {
		return saveErr
	}
	meta.ID = runID
	if exportFile != "" {
		if err := storage.ExportJSONFile(exportFile, meta, samples); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d\n", state.Snapshot.Frame)
	printMetrics(meta.Metrics)
	plotSeries(metrics.Series(samples, metrics.Frequency), "frequency (hz)")
	return err
}

func stepOffline(ctx context.Context, e *engine.Engine, board *storyboard.Manager, frame time.Duration) error {
	dt := frame.Seconds()
	length := 0.0
	if board != nil {
		length = board.Duration()
	}
	for t := 0.0; t < duration; t += dt {
		if err := ctx.Err(); err != nil {
			return err
		}
		if board != nil {
			at := t
			if length > 0 {
				at = math.Mod(t, length)
			}
			if err := board.Seek(at); err != nil {
				return err
			}
		}
		if err := e.Advance(dt); err != nil {
			return err
		}
	}
	return nil
}

func stepRealtime(ctx context.Context, e *engine.Engine, board *storyboard.Manager) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	if board != nil {
		if err := board.Play(0); err != nil {
			return errors.Join(err, e.Stop())
		}
	}

	var waitErr error
	select {
	case <-time.After(time.Duration(duration * float64(time.Second))):
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	var pauseErr error
	if board != nil {
		pauseErr = board.Pause()
		if err := board.Err(); err != nil {
			logger.Warn("storyboard playback", "error", err)
		}
	}
	return errors.Join(waitErr, pauseErr, e.Stop())
}

func runLive(cmd *cobra.Command, args []string) error {
	preset, file, err := loadBoardFile(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, preset)
	if err != nil {
		return err
	}

	e, err := newEngine(cfg, audio.Nop{})
	if err != nil {
		return err
	}

	var timeline tui.Timeline
	if file != nil {
		board := storyboard.NewManager(e, cfg.Playback, storyboard.WithLogger(logger))
		if err := board.Load(file.Keyframes); err != nil {
			return err
		}
		timeline = board
		defer board.Pause()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := e.Start(ctx); err != nil {
		return err
	}
	defer e.Stop()

	return tui.Run(tui.NewModel(ctx, e, timeline, preset, cfg.Universe.Seed))
}

func renderStoryboard(cmd *cobra.Command, args []string) error {
	file, err := storage.LoadStoryboard(args[0])
	if err != nil {
		return err
	}
	preset := file.Preset
	if preset == "" {
		preset = "calm"
	}
	cfg, err := loadConfig(cmd, preset)
	if err != nil {
		return err
	}

	synth := audio.NewSynth(cfg.Audio.SampleRate,
		audio.WithGain(cfg.Audio.Gain),
		audio.WithGlide(cfg.Audio.Glide, cfg.Audio.Damping))
	out := synth.Recorder()

	e, err := newEngine(cfg, synth)
	if err != nil {
		return err
	}
	board := storyboard.NewManager(e, cfg.Playback, storyboard.WithLogger(logger))
	if err := board.Load(file.Keyframes); err != nil {
		return err
	}

	length := duration
	if length <= 0 {
		length = board.Duration()
	}
	if length <= 0 {
		return fmt.Errorf("storyboard %s has no length; pass --time", args[0])
	}

	frame := cfg.Engine.FrameTime
	total := time.Duration(length * float64(time.Second))
	for t := time.Duration(0); t < total; t += frame {
		if err := board.Seek(t.Seconds()); err != nil {
			return err
		}
		if err := e.Advance(frame.Seconds()); err != nil {
			return err
		}
		out.Advance(frame)
	}

	if err := out.WriteFile(outFile); err != nil {
		return err
	}
	fmt.Printf("rendered %s (%.2fs, %d keyframes) to %s\n", file.Name, out.Duration().Seconds(), board.Len(), outFile)
	return nil
}

func printMetrics(values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.6f\n", name, values[name])
	}
	w.Flush()
}

func plotSeries(data []float64, caption string) {
	if len(data) < 2 {
		return
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println()
	fmt.Println(graph)
	fmt.Println()
}
