package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/san-kum/harmony/internal/config"
	"github.com/san-kum/harmony/internal/dynamo"
)

type recorder struct {
	mu    sync.Mutex
	calls []dynamo.AudioParameters
	err   error
	panic atomic.Bool
}

func (r *recorder) SetParameters(p dynamo.AudioParameters) error {
	if r.panic.Load() {
		panic("generator exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, p)
	return r.err
}

func (r *recorder) last() dynamo.AudioParameters {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return dynamo.AudioParameters{}
	}
	return r.calls[len(r.calls)-1]
}

type blocking struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (b *blocking) SetParameters(dynamo.AudioParameters) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return nil
}

type panicObserver struct{}

func (panicObserver) OnTick(State) { panic("observer exploded") }

type countObserver struct{ n atomic.Int64 }

func (c *countObserver) OnTick(State) { c.n.Add(1) }

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func fastConfig() config.Engine {
	cfg := config.DefaultEngine()
	cfg.FrameTime = 2 * time.Millisecond
	cfg.StopTimeout = time.Second
	return cfg
}

func weightless() dynamo.PhysicsParameters {
	p := dynamo.DefaultPhysicsParameters()
	p.Gravity = 0
	p.Friction = 0
	p.AirResistance = 0
	return p
}

func newEngine(t *testing.T, gen Generator, opts ...Option) *Engine {
	t.Helper()
	e, err := New(fastConfig(), weightless(), gen, append([]Option{quiet()}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })
	return e
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewEngineIsStopped(t *testing.T) {
	e := newEngine(t, nil)
	s := e.GetState()
	if s.Running || s.Crashed {
		t.Errorf("running=%v crashed=%v, want both false", s.Running, s.Crashed)
	}
	if len(s.Snapshot.Particles) != 0 {
		t.Errorf("particles = %d, want 0", len(s.Snapshot.Particles))
	}
	if s.Audio != dynamo.DefaultAudioParameters() {
		t.Errorf("audio = %+v, want defaults", s.Audio)
	}
	if s.Bounds != dynamo.DefaultBounds() {
		t.Errorf("bounds = %+v", s.Bounds)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := fastConfig()
	cfg.FrameTime = 0
	if _, err := New(cfg, weightless(), nil); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("zero frame time: err = %v", err)
	}
	cfg = fastConfig()
	cfg.Integrator = "leapfrog"
	if _, err := New(cfg, weightless(), nil); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("unknown integrator: err = %v", err)
	}
	p := weightless()
	p.Friction = 3
	if _, err := New(fastConfig(), p, nil); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("bad physics: err = %v", err)
	}
}

func TestAddParticleVisibleImmediately(t *testing.T) {
	e := newEngine(t, nil)
	seen := map[dynamo.ParticleID]bool{}
	for i := 0; i < 5; i++ {
		id, err := e.AddParticle(dynamo.V(100+float64(i)*50, 200), dynamo.Vec2{}, 1, 5)
		if err != nil {
			t.Fatalf("AddParticle: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
		if n := len(e.GetState().Snapshot.Particles); n != i+1 {
			t.Fatalf("particles = %d, want %d", n, i+1)
		}
	}

	if _, err := e.AddParticle(dynamo.V(10, 10), dynamo.Vec2{}, -1, 5); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("negative mass: err = %v", err)
	}
	if n := len(e.GetState().Snapshot.Particles); n != 5 {
		t.Errorf("particles after rejected add = %d, want 5", n)
	}

	if err := e.ClearParticles(); err != nil {
		t.Fatal(err)
	}
	if n := len(e.GetState().Snapshot.Particles); n != 0 {
		t.Errorf("particles after clear = %d", n)
	}
	id, _ := e.AddParticle(dynamo.V(10, 10), dynamo.Vec2{}, 1, 5)
	if seen[id] {
		t.Errorf("id %d reused after clear", id)
	}
}

func TestAdvanceForwardsMappedAudio(t *testing.T) {
	gen := &recorder{}
	e := newEngine(t, gen)
	if _, err := e.AddParticle(dynamo.V(400, 300), dynamo.Vec2{}, 1, 5); err != nil {
		t.Fatal(err)
	}
	if err := e.Advance(0.016); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	got := gen.last()
	if got.Frequency != 3220 {
		t.Errorf("frequency = %g, want 3220", got.Frequency)
	}
	if got.Amplitude != 0.1 {
		t.Errorf("amplitude = %g, want 0.1", got.Amplitude)
	}
	if s := e.GetState(); s.Audio != got || s.Snapshot.Frame != 1 {
		t.Errorf("state audio = %+v frame %d, want %+v frame 1", s.Audio, s.Snapshot.Frame, got)
	}
}

func TestAudioOverridesArePinned(t *testing.T) {
	gen := &recorder{}
	e := newEngine(t, gen)
	_, _ = e.AddParticle(dynamo.V(400, 300), dynamo.Vec2{}, 1, 5)

	if err := e.UpdateAudioParameters(dynamo.AudioPatch{Frequency: dynamo.Float(440)}); err != nil {
		t.Fatal(err)
	}
	if f := gen.last().Frequency; f != 440 {
		t.Errorf("forwarded frequency = %g, want 440 before any tick", f)
	}
	if err := e.SetHarmony(0.7); err != nil {
		t.Fatal(err)
	}

	_ = e.Advance(0.016)
	got := gen.last()
	if got.Frequency != 440 {
		t.Errorf("pinned frequency = %g, want 440", got.Frequency)
	}
	if got.Harmony != 0.7 {
		t.Errorf("harmony = %g, want 0.7", got.Harmony)
	}

	if err := e.ResetAudioOverrides(); err != nil {
		t.Fatal(err)
	}
	_ = e.Advance(0.016)
	got = gen.last()
	if got.Frequency != 3220 {
		t.Errorf("frequency after reset = %g, want 3220", got.Frequency)
	}
	if got.Harmony != 0.7 {
		t.Errorf("harmony after reset = %g, want 0.7", got.Harmony)
	}
}

func TestInvalidUpdatesLeaveStateUnchanged(t *testing.T) {
	e := newEngine(t, nil)
	before := e.GetState()

	err := e.UpdatePhysicsParameters(dynamo.PhysicsPatch{
		Gravity:  dynamo.Float(3),
		Friction: dynamo.Float(2),
	})
	if !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}
	if err := e.UpdateAudioParameters(dynamo.AudioPatch{Amplitude: dynamo.Float(-1)}); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}
	if err := e.SetBounds(dynamo.Rect{MaxX: -1, MaxY: 10}); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}

	after := e.GetState()
	if after.Physics != before.Physics || after.Audio != before.Audio || after.Bounds != before.Bounds {
		t.Errorf("state changed by rejected updates:\nbefore %+v\nafter  %+v", before, after)
	}

	if err := e.UpdatePhysicsParameters(dynamo.PhysicsPatch{Gravity: dynamo.Float(3)}); err != nil {
		t.Fatal(err)
	}
	if g := e.GetState().Physics.Gravity; g != 3 {
		t.Errorf("gravity = %g, want 3", g)
	}
}

func TestStartStop(t *testing.T) {
	obs := &countObserver{}
	e := newEngine(t, nil, WithObserver(obs))
	_, _ = e.AddParticle(dynamo.V(400, 300), dynamo.V(10, 0), 1, 5)

	for round := 0; round < 2; round++ {
		if err := e.Start(context.Background()); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if err := e.Start(context.Background()); err != nil {
			t.Fatalf("second Start: %v", err)
		}
		if !e.Running() {
			t.Fatal("not running after Start")
		}
		start := e.GetState().Snapshot.Frame
		waitFor(t, "ticks", func() bool { return e.GetState().Snapshot.Frame > start+2 })

		if err := e.Stop(); err != nil {
			t.Fatalf("Stop: %v", err)
		}
		if e.Running() {
			t.Fatal("running after Stop")
		}
		frozen := e.GetState().Snapshot.Frame
		time.Sleep(10 * time.Millisecond)
		if f := e.GetState().Snapshot.Frame; f != frozen {
			t.Errorf("frame moved from %d to %d while stopped", frozen, f)
		}
	}
	if obs.n.Load() == 0 {
		t.Error("observer never called")
	}
	if err := e.Stop(); err != nil {
		t.Errorf("Stop on stopped engine: %v", err)
	}
}

func TestContextCancelStopsLoop(t *testing.T) {
	e := newEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	waitFor(t, "loop exit", func() bool { return !e.Running() })
	if err := e.Start(context.Background()); err != nil {
		t.Errorf("restart after cancel: %v", err)
	}
}

func TestStartRightAfterCancelKeepsRunning(t *testing.T) {
	e := newEngine(t, nil)
	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
		cancel()
		if err := e.Start(context.Background()); err != nil {
			t.Fatalf("round %d: Start: %v", i, err)
		}
		time.Sleep(5 * time.Millisecond)
		if !e.Running() {
			t.Fatalf("round %d: engine stopped after Start returned nil", i)
		}
		if err := e.Stop(); err != nil {
			t.Fatalf("round %d: Stop: %v", i, err)
		}
	}
}

func TestLoopPanicCrashesEngine(t *testing.T) {
	gen := &recorder{}
	e := newEngine(t, gen)
	_, _ = e.AddParticle(dynamo.V(400, 300), dynamo.Vec2{}, 1, 5)
	gen.panic.Store(true)

	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "crash", func() bool { return e.Err() != nil })

	if !errors.Is(e.Err(), dynamo.ErrEngineCrashed) {
		t.Errorf("Err = %v, want ErrEngineCrashed", e.Err())
	}
	s := e.GetState()
	if !s.Crashed || s.Running || s.Err == "" {
		t.Errorf("state = crashed %v running %v err %q", s.Crashed, s.Running, s.Err)
	}
	if _, err := e.AddParticle(dynamo.V(1, 1), dynamo.Vec2{}, 1, 1); !errors.Is(err, dynamo.ErrEngineCrashed) {
		t.Errorf("AddParticle after crash: %v", err)
	}
	if err := e.Start(context.Background()); !errors.Is(err, dynamo.ErrEngineCrashed) {
		t.Errorf("Start after crash: %v", err)
	}
	if err := e.Stop(); !errors.Is(err, dynamo.ErrEngineCrashed) {
		t.Errorf("Stop after crash: %v", err)
	}
}

func TestAdvancePanicCrashesEngine(t *testing.T) {
	e := newEngine(t, nil, WithObserver(panicObserver{}))
	err := e.Advance(0.016)
	if !errors.Is(err, dynamo.ErrEngineCrashed) {
		t.Fatalf("Advance = %v, want ErrEngineCrashed", err)
	}
	var crash *dynamo.CrashError
	if !errors.As(err, &crash) {
		t.Fatalf("Advance error %T is not a CrashError", err)
	}
	if err := e.Advance(0.016); !errors.Is(err, dynamo.ErrEngineCrashed) {
		t.Errorf("second Advance = %v", err)
	}
	if !e.GetState().Crashed {
		t.Error("state not crashed")
	}
}

func TestStopTimeoutAbandonsWorker(t *testing.T) {
	gen := &blocking{entered: make(chan struct{}), release: make(chan struct{})}
	defer close(gen.release)

	cfg := fastConfig()
	cfg.StopTimeout = 20 * time.Millisecond
	e, err := New(cfg, weightless(), gen, quiet())
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-gen.entered

	begin := time.Now()
	err = e.Stop()
	if !errors.Is(err, dynamo.ErrStopTimeout) || !errors.Is(err, dynamo.ErrEngineCrashed) {
		t.Fatalf("Stop = %v, want stop timeout crash", err)
	}
	if waited := time.Since(begin); waited > time.Second {
		t.Errorf("Stop waited %v", waited)
	}
	if !e.GetState().Crashed {
		t.Error("state not crashed after abandoned stop")
	}
	if err := e.SetHarmony(0.3); !errors.Is(err, dynamo.ErrEngineCrashed) {
		t.Errorf("SetHarmony after crash: %v", err)
	}
}

func TestGeneratorErrorsAreCounted(t *testing.T) {
	gen := &recorder{err: errors.New("device busy")}
	e := newEngine(t, gen)
	for i := 0; i < 3; i++ {
		if err := e.Advance(0.016); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	s := e.GetState()
	if s.GeneratorErrors != 3 {
		t.Errorf("generator errors = %d, want 3", s.GeneratorErrors)
	}
	if s.Crashed {
		t.Error("generator errors must not crash the engine")
	}
}

func TestConcurrentAccess(t *testing.T) {
	e := newEngine(t, &recorder{})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	const workers, each = 4, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				pos := dynamo.V(50+float64(w)*150, 50+float64(i)*20)
				if _, err := e.AddParticle(pos, dynamo.V(5, 0), 1, 3); err != nil {
					t.Errorf("AddParticle: %v", err)
					return
				}
				_ = e.GetState()
				_ = e.SetHarmony(float64(i) / each)
				_ = e.UpdatePhysicsParameters(dynamo.PhysicsPatch{Gravity: dynamo.Float(float64(i % 10))})
			}
		}(w)
	}
	wg.Wait()

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if n := len(e.GetState().Snapshot.Particles); n != workers*each {
		t.Errorf("particles = %d, want %d", n, workers*each)
	}
}

func TestLoopClampsToMaxStep(t *testing.T) {
	base := time.Unix(0, 0)
	var calls atomic.Int64
	clock := func() time.Time {
		return base.Add(time.Duration(calls.Add(1)) * time.Second)
	}

	e := newEngine(t, nil, WithClock(clock))
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "ticks", func() bool { return e.GetState().Snapshot.Frame >= 3 })
	if err := e.Stop(); err != nil {
		t.Fatal(err)
	}

	s := e.GetState().Snapshot
	want := float64(s.Frame) * config.DefaultMaxStep.Seconds()
	if diff := s.Time - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("sim time = %g after %d frames, want %g", s.Time, s.Frame, want)
	}
}
