package storyboard_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/harmony/internal/config"
	"github.com/san-kum/harmony/internal/dynamo"
	"github.com/san-kum/harmony/internal/engine"
	"github.com/san-kum/harmony/internal/storyboard"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type target struct {
	mu       sync.Mutex
	physics  []dynamo.PhysicsPatch
	audio    []dynamo.AudioPatch
	harmony  []float64
	err      error
	block    chan struct{}
	blocking sync.Once
	entered  chan struct{}
}

func (t *target) UpdatePhysicsParameters(p dynamo.PhysicsPatch) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.physics = append(t.physics, p)
	return nil
}

func (t *target) UpdateAudioParameters(p dynamo.AudioPatch) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.audio = append(t.audio, p)
	return nil
}

func (t *target) SetHarmony(v float64) error {
	if t.block != nil {
		t.blocking.Do(func() { close(t.entered) })
		<-t.block
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.harmony = append(t.harmony, v)
	return t.err
}

func (t *target) harmonies() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]float64(nil), t.harmony...)
}

func quiet() storyboard.Option {
	return storyboard.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func fastPlayback() config.Playback {
	return config.Playback{FrameTime: 2 * time.Millisecond, StopTimeout: time.Second}
}

var _ = Describe("Playback", func() {
	var (
		tgt *target
		m   *storyboard.Manager
	)

	BeforeEach(func() {
		tgt = &target{}
		m = storyboard.NewManager(tgt, fastPlayback(), quiet())
		_, _ = m.AddPoint(storyboard.Keyframe{
			Timestamp: 0,
			Harmony:   0.2,
			Physics:   dynamo.PhysicsPatch{Gravity: dynamo.Float(1)},
		})
		_, _ = m.AddPoint(storyboard.Keyframe{
			Timestamp: 10,
			Harmony:   0.8,
			Audio:     dynamo.AudioPatch{Frequency: dynamo.Float(330)},
		})
	})

	AfterEach(func() {
		Expect(m.Pause()).To(Succeed())
	})

	Describe("Seek", func() {
		It("clamps and pushes immediately", func() {
			Expect(m.Seek(-3)).To(Succeed())
			Expect(m.CurrentTime()).To(Equal(0.0))
			Expect(tgt.harmonies()).To(Equal([]float64{0.2}))

			Expect(m.Seek(100)).To(Succeed())
			Expect(m.CurrentTime()).To(Equal(10.0))
			Expect(tgt.harmonies()).To(Equal([]float64{0.2, 0.8}))
		})

		It("pushes only the fields the timeline sets", func() {
			Expect(m.Seek(5)).To(Succeed())
			Expect(tgt.physics).To(HaveLen(1))
			Expect(*tgt.physics[0].Gravity).To(Equal(1.0))
			Expect(tgt.physics[0].Friction).To(BeNil())
			Expect(*tgt.audio[0].Frequency).To(Equal(330.0))
		})

		It("does nothing on an empty timeline", func() {
			empty := storyboard.NewManager(tgt, fastPlayback(), quiet())
			Expect(empty.Seek(3)).To(Succeed())
			Expect(tgt.harmonies()).To(BeEmpty())
		})
	})

	Describe("Play and Pause", func() {
		It("pushes frames until paused", func() {
			Expect(m.Play(0)).To(Succeed())
			Expect(m.Play(0)).To(Succeed())
			Expect(m.Playing()).To(BeTrue())
			Eventually(func() int { return len(tgt.harmonies()) }).Should(BeNumerically(">", 3))

			Expect(m.Pause()).To(Succeed())
			Expect(m.Playing()).To(BeFalse())
			pushed := len(tgt.harmonies())
			paused := m.CurrentTime()
			Consistently(func() int { return len(tgt.harmonies()) }, "20ms").Should(Equal(pushed))
			Expect(m.CurrentTime()).To(Equal(paused))
			Expect(m.Err()).NotTo(HaveOccurred())
		})

		It("rejects a negative start", func() {
			Expect(m.Play(-1)).To(MatchError(dynamo.ErrInvalidParameter))
			Expect(m.Playing()).To(BeFalse())
		})

		It("wraps to the start at the end of the timeline", func() {
			var ticks atomic.Int64
			clock := func() time.Time {
				return time.Unix(0, 0).Add(time.Duration(ticks.Add(1)) * 3 * time.Second)
			}
			m = storyboard.NewManager(tgt, fastPlayback(), quiet(), storyboard.WithClock(clock))
			_, _ = m.AddPoint(at(0, 0))
			_, _ = m.AddPoint(at(10, 1))

			Expect(m.Play(0)).To(Succeed())
			Eventually(func() int { return len(tgt.harmonies()) }).Should(BeNumerically(">=", 8))
			Expect(m.Pause()).To(Succeed())

			got := tgt.harmonies()
			Expect(got[:4]).To(HaveEach(BeNumerically("<", 1)))
			Expect(got[:4]).To(ConsistOf(
				BeNumerically("~", 0.3, 1e-9),
				BeNumerically("~", 0.6, 1e-9),
				BeNumerically("~", 0.9, 1e-9),
				Equal(0.0),
			))
			Expect(m.CurrentTime()).To(BeNumerically("<", 10))
		})

		It("stops when the engine has crashed", func() {
			tgt.err = fmt.Errorf("push: %w", dynamo.ErrEngineCrashed)
			Expect(m.Play(0)).To(Succeed())

			Eventually(m.Playing).Should(BeFalse())
			Expect(m.Err()).To(MatchError(dynamo.ErrEngineCrashed))
		})

		It("times out a pause when the target hangs", func() {
			tgt.block = make(chan struct{})
			tgt.entered = make(chan struct{})
			var release sync.Once
			defer release.Do(func() { close(tgt.block) })

			m = storyboard.NewManager(tgt, config.Playback{
				FrameTime:   2 * time.Millisecond,
				StopTimeout: 20 * time.Millisecond,
			}, quiet())
			_, _ = m.AddPoint(at(0, 0))
			_, _ = m.AddPoint(at(10, 1))

			Expect(m.Play(0)).To(Succeed())
			Eventually(tgt.entered).Should(BeClosed())
			Expect(m.Pause()).To(MatchError(dynamo.ErrStopTimeout))
			Expect(m.Playing()).To(BeFalse())

			By("refusing a second clock while the first is stuck")
			Expect(m.Play(0)).To(MatchError(dynamo.ErrStopTimeout))
			Expect(m.Playing()).To(BeFalse())

			By("playing again once the stuck goroutine exits")
			release.Do(func() { close(tgt.block) })
			Eventually(func() error { return m.Play(0) }).Should(Succeed())
			Expect(m.Playing()).To(BeTrue())
		})
	})

	Describe("driving an engine", func() {
		It("sets harmony and physics on the engine", func() {
			cfg := config.DefaultEngine()
			e, err := engine.New(cfg, dynamo.DefaultPhysicsParameters(), nil,
				engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
			Expect(err).NotTo(HaveOccurred())

			board := storyboard.NewManager(e, fastPlayback(), quiet())
			Expect(board.Load(m.Points())).To(Succeed())
			Expect(board.Seek(5)).To(Succeed())

			s := e.GetState()
			Expect(s.Audio.Harmony).To(BeNumerically("~", 0.5, 1e-9))
			Expect(s.Audio.Frequency).To(Equal(330.0))
			Expect(s.Physics.Gravity).To(Equal(1.0))

			Expect(e.Start(context.Background())).To(Succeed())
			Expect(board.Play(0)).To(Succeed())
			Eventually(func() uint64 { return e.GetState().Snapshot.Frame }).Should(BeNumerically(">", 2))
			Expect(board.Pause()).To(Succeed())
			Expect(e.Stop()).To(Succeed())
		})
	})
})
