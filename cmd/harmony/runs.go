package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/harmony/internal/analysis"
	"github.com/san-kum/harmony/internal/config"
	"github.com/san-kum/harmony/internal/metrics"
	"github.com/san-kum/harmony/internal/storage"
	"github.com/spf13/cobra"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSIM TIME\tFRAME\tPARTICLES\tSTORYBOARD")

	for _, run := range runs {
		board := run.Storyboard
		if board == "" {
			board = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%v\t%d\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.FrameTime,
			run.Particles,
			board,
		)
	}

	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(trace) < 2 {
		return fmt.Errorf("run %s has too few samples to analyze", runID)
	}
	if meta.FrameTime <= 0 {
		return fmt.Errorf("run %s has no frame time", runID)
	}

	rate := 1 / meta.FrameTime.Seconds()
	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("preset: %s, %d samples at %.1f hz\n\n", meta.Preset, len(trace), rate)

	series := []struct {
		name  string
		field func(metrics.Sample) float64
	}{
		{"frequency", metrics.Frequency},
		{"amplitude", metrics.Amplitude},
		{"energy", metrics.TotalEnergy},
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tMIN\tMAX\tMEAN\tSTDDEV\tDOMINANT\tPERIOD")
	for _, s := range series {
		data := metrics.Series(trace, s.field)
		stats := analysis.Summarize(data)
		hz, _ := analysis.DominantFrequency(data, rate)
		period := "-"
		if hz > 0 {
			period = fmt.Sprintf("%.3fs", 1/hz)
		}
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f hz\t%s\n",
			s.name, stats.Min, stats.Max, stats.Mean, stats.StdDev, hz, period)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ps := analysis.PowerSpectrum(metrics.Series(trace, metrics.Frequency))
	if len(ps) > 4 {
		graph := asciigraph.Plot(ps[:len(ps)/2],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum (frequency)"),
		)
		fmt.Println()
		fmt.Println(graph)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, trace)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tWAVEFORM\tPARTICLES\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", name, p.Waveform, p.Universe.Random.Count+len(p.Universe.Particles), p.Description)
	}
	return w.Flush()
}
