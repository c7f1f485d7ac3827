package storyboard_test

import (
	"github.com/san-kum/harmony/internal/config"
	"github.com/san-kum/harmony/internal/dynamo"
	"github.com/san-kum/harmony/internal/storyboard"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func at(ts, harmony float64) storyboard.Keyframe {
	return storyboard.Keyframe{Timestamp: ts, Harmony: harmony}
}

func timestamps(m *storyboard.Manager) []float64 {
	var out []float64
	for _, k := range m.Points() {
		out = append(out, k.Timestamp)
	}
	return out
}

var _ = Describe("Manager", func() {
	var m *storyboard.Manager

	BeforeEach(func() {
		m = storyboard.NewManager(&target{}, config.DefaultPlayback(), quiet())
	})

	Describe("AddPoint", func() {
		It("keeps keyframes ordered by timestamp", func() {
			for _, ts := range []float64{5, 1, 9, 3} {
				_, err := m.AddPoint(at(ts, 0.5))
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(timestamps(m)).To(Equal([]float64{1, 3, 5, 9}))
			Expect(m.Len()).To(Equal(4))
			Expect(m.Duration()).To(Equal(9.0))
		})

		It("inserts duplicates after existing equal timestamps", func() {
			i, _ := m.AddPoint(at(5, 0.1))
			Expect(i).To(Equal(0))
			i, _ = m.AddPoint(at(5, 0.9))
			Expect(i).To(Equal(1))
			_, _ = m.AddPoint(at(10, 0.5))

			seg, ok := m.GetStateAtTime(5)
			Expect(ok).To(BeTrue())
			Expect(seg.Prev.Harmony).To(Equal(0.9))
			Expect(seg.Next.Timestamp).To(Equal(10.0))
		})

		DescribeTable("rejects invalid keyframes",
			func(k storyboard.Keyframe) {
				_, err := m.AddPoint(k)
				Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
				Expect(m.Len()).To(BeZero())
			},
			Entry("negative timestamp", at(-1, 0.5)),
			Entry("harmony above one", at(1, 1.5)),
			Entry("negative transition", storyboard.Keyframe{Timestamp: 1, TransitionDuration: -2}),
			Entry("bad physics", storyboard.Keyframe{Timestamp: 1, Physics: dynamo.PhysicsPatch{Friction: dynamo.Float(4)}}),
			Entry("bad audio", storyboard.Keyframe{Timestamp: 1, Audio: dynamo.AudioPatch{Amplitude: dynamo.Float(2)}}),
			Entry("bad visual", storyboard.Keyframe{Timestamp: 1, Visual: dynamo.VisualPatch{Intensity: dynamo.Float(-1)}}),
		)
	})

	Describe("RemovePoint", func() {
		BeforeEach(func() {
			for _, ts := range []float64{1, 5, 9} {
				_, _ = m.AddPoint(at(ts, 0.5))
			}
		})

		It("matches within a millisecond", func() {
			k, ok := m.RemovePoint(5.0005)
			Expect(ok).To(BeTrue())
			Expect(k.Timestamp).To(Equal(5.0))
			Expect(timestamps(m)).To(Equal([]float64{1, 9}))
		})

		It("reports a miss without changing anything", func() {
			_, ok := m.RemovePoint(5.002)
			Expect(ok).To(BeFalse())
			Expect(m.Len()).To(Equal(3))
		})

		It("removes the closest match", func() {
			_, _ = m.AddPoint(at(5.0008, 0.5))
			k, ok := m.RemovePoint(5.0006)
			Expect(ok).To(BeTrue())
			Expect(k.Timestamp).To(Equal(5.0008))
		})

		It("removes the later of two equal timestamps", func() {
			_, _ = m.AddPoint(at(5, 0.9))
			k, ok := m.RemovePoint(5)
			Expect(ok).To(BeTrue())
			Expect(k.Harmony).To(Equal(0.9))
			Expect(m.Len()).To(Equal(3))
		})
	})

	Describe("GetStateAtTime", func() {
		It("fails on an empty timeline", func() {
			_, ok := m.GetStateAtTime(1)
			Expect(ok).To(BeFalse())
		})

		Context("with keyframes at 2 and 8", func() {
			BeforeEach(func() {
				_, _ = m.AddPoint(at(2, 0.2))
				_, _ = m.AddPoint(at(8, 0.8))
			})

			It("clamps before the first keyframe", func() {
				seg, ok := m.GetStateAtTime(1)
				Expect(ok).To(BeTrue())
				Expect(seg.Prev.Timestamp).To(Equal(2.0))
				Expect(seg.Next.Timestamp).To(Equal(2.0))
				Expect(seg.Progress).To(Equal(0.0))
			})

			It("clamps at and after the last keyframe", func() {
				for _, t := range []float64{8, 20} {
					seg, ok := m.GetStateAtTime(t)
					Expect(ok).To(BeTrue())
					Expect(seg.Prev.Timestamp).To(Equal(8.0))
					Expect(seg.Next.Timestamp).To(Equal(8.0))
					Expect(seg.Progress).To(Equal(1.0))
				}
			})

			It("reports progress between neighbours", func() {
				seg, ok := m.GetStateAtTime(5)
				Expect(ok).To(BeTrue())
				Expect(seg.Prev.Timestamp).To(Equal(2.0))
				Expect(seg.Next.Timestamp).To(Equal(8.0))
				Expect(seg.Progress).To(BeNumerically("~", 0.5, 1e-12))
			})
		})
	})

	Describe("Evaluate", func() {
		It("blends harmony halfway at the midpoint", func() {
			_, _ = m.AddPoint(at(0, 0.2))
			_, _ = m.AddPoint(at(10, 0.8))

			f, ok := m.Evaluate(5)
			Expect(ok).To(BeTrue())
			Expect(f.Harmony).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("holds the previous keyframe until the transition starts", func() {
			_, _ = m.AddPoint(at(0, 0))
			_, _ = m.AddPoint(storyboard.Keyframe{Timestamp: 10, Harmony: 1, TransitionDuration: 2})

			f, _ := m.Evaluate(5)
			Expect(f.Harmony).To(Equal(0.0))
			f, _ = m.Evaluate(8)
			Expect(f.Harmony).To(Equal(0.0))
			f, _ = m.Evaluate(9)
			Expect(f.Harmony).To(BeNumerically("~", 0.5, 1e-9))
			f, _ = m.Evaluate(10)
			Expect(f.Harmony).To(Equal(1.0))
		})

		It("ignores a transition longer than the segment", func() {
			_, _ = m.AddPoint(at(0, 0))
			_, _ = m.AddPoint(storyboard.Keyframe{Timestamp: 10, Harmony: 1, TransitionDuration: 20})

			f, _ := m.Evaluate(5)
			Expect(f.Harmony).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("blends physics and audio patches", func() {
			_, _ = m.AddPoint(storyboard.Keyframe{
				Timestamp: 0,
				Physics:   dynamo.PhysicsPatch{Gravity: dynamo.Float(0), Friction: dynamo.Float(0.2)},
				Audio:     dynamo.AudioPatch{Frequency: dynamo.Float(200), Waveform: dynamo.Wave(dynamo.WaveSine)},
			})
			_, _ = m.AddPoint(storyboard.Keyframe{
				Timestamp: 4,
				Physics:   dynamo.PhysicsPatch{Gravity: dynamo.Float(8)},
				Audio:     dynamo.AudioPatch{Frequency: dynamo.Float(400), Waveform: dynamo.Wave(dynamo.WaveSaw)},
			})

			f, _ := m.Evaluate(1)
			Expect(*f.Physics.Gravity).To(BeNumerically("~", 2, 1e-9))
			Expect(*f.Physics.Friction).To(Equal(0.2))
			Expect(f.Physics.Elasticity).To(BeNil())
			Expect(*f.Audio.Frequency).To(BeNumerically("~", 250, 1e-9))
			Expect(*f.Audio.Waveform).To(Equal(dynamo.WaveSine))
		})
	})

	Describe("Load", func() {
		It("replaces keyframes in timestamp order", func() {
			_, _ = m.AddPoint(at(100, 0.5))
			err := m.Load([]storyboard.Keyframe{at(4, 0.1), at(2, 0.2), at(4, 0.3)})
			Expect(err).NotTo(HaveOccurred())

			points := m.Points()
			Expect(timestamps(m)).To(Equal([]float64{2, 4, 4}))
			Expect(points[1].Harmony).To(Equal(0.1))
			Expect(points[2].Harmony).To(Equal(0.3))
		})

		It("keeps the old keyframes when one is invalid", func() {
			_, _ = m.AddPoint(at(1, 0.5))
			err := m.Load([]storyboard.Keyframe{at(2, 0.2), at(3, 7)})
			Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
			Expect(timestamps(m)).To(Equal([]float64{1}))
		})
	})
})
