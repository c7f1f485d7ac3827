package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/harmony/internal/config"
	"github.com/san-kum/harmony/internal/dynamo"
	"github.com/san-kum/harmony/internal/storage"
	"github.com/san-kum/harmony/internal/storyboard"
	"github.com/spf13/cobra"
)

// openBoard loads path into an editing manager, starting empty when the
// file does not exist yet. The manager has no target and is never played.
func openBoard(path string) (*storage.StoryboardFile, *storyboard.Manager, error) {
	file, err := storage.LoadStoryboard(path)
	if errors.Is(err, fs.ErrNotExist) {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		file, err = &storage.StoryboardFile{Name: name}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	board := storyboard.NewManager(nil, config.DefaultPlayback(), storyboard.WithLogger(logger))
	if err := board.Load(file.Keyframes); err != nil {
		return nil, nil, err
	}
	return file, board, nil
}

func saveBoard(path string, file *storage.StoryboardFile, board *storyboard.Manager) error {
	file.Keyframes = board.Points()
	return storage.SaveStoryboard(path, file)
}

func addKeyframe(cmd *cobra.Command, args []string) error {
	file, board, err := openBoard(args[0])
	if err != nil {
		return err
	}

	k := storyboard.Keyframe{Timestamp: keyAt, Harmony: keyHarmony, TransitionDuration: keyTrans}
	flags := cmd.Flags()
	if flags.Changed("frequency") {
		k.Audio.Frequency = dynamo.Float(keyFreq)
	}
	if flags.Changed("amplitude") {
		k.Audio.Amplitude = dynamo.Float(keyAmp)
	}
	if flags.Changed("waveform") {
		w, err := dynamo.ParseWaveform(keyWave)
		if err != nil {
			return err
		}
		k.Audio.Waveform = dynamo.Wave(w)
	}
	if flags.Changed("gravity") {
		k.Physics.Gravity = dynamo.Float(keyGravity)
	}
	if flags.Changed("color") {
		k.Visual.ColorScheme = dynamo.String(keyColor)
	}

	idx, err := board.AddPoint(k)
	if err != nil {
		return err
	}
	if err := saveBoard(args[0], file, board); err != nil {
		return err
	}
	fmt.Printf("added keyframe %d at %.3fs (%d total)\n", idx, keyAt, board.Len())
	return nil
}

func removeKeyframe(cmd *cobra.Command, args []string) error {
	file, board, err := openBoard(args[0])
	if err != nil {
		return err
	}
	k, ok := board.RemovePoint(keyAt)
	if !ok {
		return fmt.Errorf("no keyframe within 1ms of %.3fs: %w", keyAt, dynamo.ErrNotFound)
	}
	if err := saveBoard(args[0], file, board); err != nil {
		return err
	}
	fmt.Printf("removed keyframe at %.3fs (%d left)\n", k.Timestamp, board.Len())
	return nil
}

func listKeyframes(cmd *cobra.Command, args []string) error {
	file, err := storage.LoadStoryboard(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s", file.Name)
	if file.Preset != "" {
		fmt.Printf(" (preset %s)", file.Preset)
	}
	fmt.Println()
	if file.Description != "" {
		fmt.Println(file.Description)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tHARMONY\tTRANSITION\tPHYSICS\tAUDIO\tVISUAL")
	for _, k := range file.Keyframes {
		fmt.Fprintf(w, "%.3fs\t%.2f\t%.2fs\t%s\t%s\t%s\n",
			k.Timestamp, k.Harmony, k.TransitionDuration,
			describePhysics(k.Physics), describeAudio(k.Audio), describeVisual(k.Visual))
	}
	return w.Flush()
}

func describePhysics(p dynamo.PhysicsPatch) string {
	var parts []string
	add := func(name string, v *float64) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s=%g", name, *v))
		}
	}
	add("gravity", p.Gravity)
	add("friction", p.Friction)
	add("elasticity", p.Elasticity)
	add("air", p.AirResistance)
	add("density", p.Density)
	add("time_scale", p.TimeScale)
	return joinOrDash(parts)
}

func describeAudio(a dynamo.AudioPatch) string {
	var parts []string
	add := func(name string, v *float64) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s=%g", name, *v))
		}
	}
	add("freq", a.Frequency)
	add("amp", a.Amplitude)
	add("cutoff", a.FilterCutoff)
	add("reverb", a.ReverbAmount)
	if a.Waveform != nil {
		parts = append(parts, a.Waveform.String())
	}
	return joinOrDash(parts)
}

func describeVisual(v dynamo.VisualPatch) string {
	var parts []string
	if v.ColorScheme != nil {
		parts = append(parts, *v.ColorScheme)
	}
	if v.Intensity != nil {
		parts = append(parts, fmt.Sprintf("intensity=%g", *v.Intensity))
	}
	return joinOrDash(parts)
}

func joinOrDash(parts []string) string {
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
