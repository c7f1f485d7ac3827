package storyboard_test

import (
	"github.com/san-kum/harmony/internal/dynamo"
	"github.com/san-kum/harmony/internal/storyboard"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Interpolation", func() {
	It("lerps between endpoints", func() {
		Expect(storyboard.Lerp(2, 4, 0)).To(Equal(2.0))
		Expect(storyboard.Lerp(2, 4, 0.25)).To(Equal(2.5))
		Expect(storyboard.Lerp(2, 4, 1)).To(Equal(4.0))
	})

	It("carries fields present on one side", func() {
		a := dynamo.PhysicsPatch{Gravity: dynamo.Float(3)}
		b := dynamo.PhysicsPatch{Density: dynamo.Float(2)}

		got := storyboard.InterpolatePhysics(a, b, 0.5)
		Expect(*got.Gravity).To(Equal(3.0))
		Expect(*got.Density).To(Equal(2.0))
		Expect(got.Friction).To(BeNil())
	})

	It("does not alias its inputs", func() {
		a := dynamo.AudioPatch{Amplitude: dynamo.Float(0.4)}
		got := storyboard.InterpolateAudio(a, dynamo.AudioPatch{}, 0.5)
		*got.Amplitude = 0.9
		Expect(*a.Amplitude).To(Equal(0.4))
	})

	DescribeTable("snaps the waveform",
		func(t float64, want dynamo.Waveform) {
			a := dynamo.AudioPatch{Waveform: dynamo.Wave(dynamo.WaveSquare)}
			b := dynamo.AudioPatch{Waveform: dynamo.Wave(dynamo.WaveTriangle)}
			Expect(*storyboard.InterpolateAudio(a, b, t).Waveform).To(Equal(want))
		},
		Entry("at the start", 0.0, dynamo.WaveSquare),
		Entry("almost at the end", 0.999, dynamo.WaveSquare),
		Entry("at the end", 1.0, dynamo.WaveTriangle),
	)

	It("snaps colour schemes and blends intensity", func() {
		a := dynamo.VisualPatch{ColorScheme: dynamo.String("dusk"), Intensity: dynamo.Float(0)}
		b := dynamo.VisualPatch{ColorScheme: dynamo.String("neon"), Intensity: dynamo.Float(1)}

		mid := storyboard.InterpolateVisual(a, b, 0.5)
		Expect(*mid.ColorScheme).To(Equal("dusk"))
		Expect(*mid.Intensity).To(Equal(0.5))

		end := storyboard.InterpolateVisual(a, b, 1)
		Expect(*end.ColorScheme).To(Equal("neon"))
	})
})
