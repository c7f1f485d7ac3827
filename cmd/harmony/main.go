package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	envFile    string
	logLevel   string

	duration   float64
	frameTime  time.Duration
	integrator string
	seed       int64
	count      int
	waveform   string
	gravity    float64
	friction   float64
	elasticity float64
	airRes     float64
	timeScale  float64

	offline    bool
	boardFile  string
	exportFile string
	outFile    string
	sampleRate int

	keyAt      float64
	keyHarmony float64
	keyTrans   float64
	keyFreq    float64
	keyAmp     float64
	keyWave    string
	keyGravity float64
	keyColor   string
)

// main registers the harmony commands and runs the root command, exiting
// with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:               "harmony",
		Short:             "particle physics driven sound engine",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".harmony", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with HARMONY_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a headless session and save its trace",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSession,
	}
	addWorldFlags(runCmd)
	runCmd.Flags().Float64Var(&duration, "time", 10.0, "duration in seconds")
	runCmd.Flags().BoolVar(&offline, "offline", false, "step manually instead of in real time")
	runCmd.Flags().StringVar(&boardFile, "storyboard", "", "storyboard file to play")
	runCmd.Flags().StringVar(&exportFile, "export", "", "also write the run as json to this path")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "interactive terminal monitor",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addWorldFlags(liveCmd)
	liveCmd.Flags().StringVar(&boardFile, "storyboard", "", "storyboard file to play")

	renderCmd := &cobra.Command{
		Use:   "render [storyboard]",
		Short: "render a storyboard to a wav file",
		Args:  cobra.ExactArgs(1),
		RunE:  renderStoryboard,
	}
	addWorldFlags(renderCmd)
	renderCmd.Flags().Float64Var(&duration, "time", 0, "duration in seconds (default: storyboard length)")
	renderCmd.Flags().StringVar(&outFile, "out", "harmony.wav", "output wav file")
	renderCmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "output sample rate")

	storyboardCmd := &cobra.Command{
		Use:   "storyboard",
		Short: "edit storyboard files",
	}
	addCmd := &cobra.Command{
		Use:   "add [file]",
		Short: "add a keyframe",
		Args:  cobra.ExactArgs(1),
		RunE:  addKeyframe,
	}
	addCmd.Flags().Float64Var(&keyAt, "at", 0, "timestamp in seconds")
	addCmd.Flags().Float64Var(&keyHarmony, "harmony", 0.5, "harmony [0,1]")
	addCmd.Flags().Float64Var(&keyTrans, "transition", 0, "transition duration in seconds")
	addCmd.Flags().Float64Var(&keyFreq, "frequency", 0, "pin frequency in hz")
	addCmd.Flags().Float64Var(&keyAmp, "amplitude", 0, "pin amplitude [0,1]")
	addCmd.Flags().StringVar(&keyWave, "waveform", "", "sine, triangle, square or saw")
	addCmd.Flags().Float64Var(&keyGravity, "gravity", 0, "gravity")
	addCmd.Flags().StringVar(&keyColor, "color", "", "color scheme")
	_ = addCmd.MarkFlagRequired("at")

	removeCmd := &cobra.Command{
		Use:   "remove [file]",
		Short: "remove the keyframe closest to a timestamp",
		Args:  cobra.ExactArgs(1),
		RunE:  removeKeyframe,
	}
	removeCmd.Flags().Float64Var(&keyAt, "at", 0, "timestamp in seconds")
	_ = removeCmd.MarkFlagRequired("at")

	showCmd := &cobra.Command{
		Use:   "list [file]",
		Short: "list keyframes",
		Args:  cobra.ExactArgs(1),
		RunE:  listKeyframes,
	}
	storyboardCmd.AddCommand(addCmd, removeCmd, showCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "rank physics parameter combinations by a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepSession,
	}
	addWorldFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&duration, "time", 5.0, "duration of each session in seconds")
	sweepCmd.Flags().StringArrayVar(&sweepAxes, "param", nil, "axis as name=v1,v2 or name=lo:hi:step (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "mean_energy", "metric to rank by")
	sweepCmd.Flags().BoolVar(&sweepMax, "max", false, "rank highest first")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "concurrent sessions (default: cpu count)")
	_ = sweepCmd.MarkFlagRequired("param")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, renderCmd, storyboardCmd, listCmd, analyzeCmd, exportCmd, sweepCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addWorldFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&frameTime, "frame-time", 16*time.Millisecond, "engine frame time")
	cmd.Flags().StringVar(&integrator, "integrator", "semi_implicit", "integrator")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed for the particle cloud")
	cmd.Flags().IntVar(&count, "particles", 12, "number of random particles")
	cmd.Flags().StringVar(&waveform, "waveform", "sine", "sine, triangle, square or saw")
	cmd.Flags().Float64Var(&gravity, "gravity", 9.81, "gravity")
	cmd.Flags().Float64Var(&friction, "friction", 0.1, "friction [0,1]")
	cmd.Flags().Float64Var(&elasticity, "elasticity", 0.8, "elasticity [0,1]")
	cmd.Flags().Float64Var(&airRes, "air", 0.01, "air resistance")
	cmd.Flags().Float64Var(&timeScale, "time-scale", 1.0, "simulation time scale")
}
