package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/harmony/internal/audio"
	"github.com/san-kum/harmony/internal/config"
	"github.com/san-kum/harmony/internal/dynamo"
	"github.com/san-kum/harmony/internal/integrators"
	"github.com/san-kum/harmony/internal/physics"
)

// Generator receives audio parameters after every tick and every audio
// update. It is called without the engine lock held.
type Generator interface {
	SetParameters(dynamo.AudioParameters) error
}

// Observer is notified with the committed state after each tick, from the
// goroutine that ran the tick.
type Observer interface {
	OnTick(State)
}

// State is a consistent copy of everything the engine exposes.
type State struct {
	Snapshot        dynamo.Snapshot          `json:"snapshot"`
	Physics         dynamo.PhysicsParameters `json:"physics"`
	Audio           dynamo.AudioParameters   `json:"audio"`
	Bounds          dynamo.Rect              `json:"bounds"`
	Energy          dynamo.Energy            `json:"energy"`
	Running         bool                     `json:"running"`
	Crashed         bool                     `json:"crashed"`
	Err             string                   `json:"error,omitempty"`
	GeneratorErrors uint64                   `json:"generator_errors"`
}

type Engine struct {
	cfg       config.Engine
	gen       Generator
	log       *slog.Logger
	now       func() time.Time
	observers []Observer

	mu        sync.Mutex // protects sim, audio, overrides
	sim       *physics.Simulator
	audio     dynamo.AudioParameters
	overrides dynamo.AudioPatch

	life    sync.Mutex // protects quit, done, loopCtx
	quit    chan struct{}
	done    chan struct{}
	loopCtx context.Context
	running atomic.Bool

	published atomic.Pointer[State]
	crashed   atomic.Pointer[dynamo.CrashError]
	genErrors atomic.Uint64
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock replaces time.Now for frame pacing.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithAudio sets the starting audio parameters (waveform, harmony).
func WithAudio(p dynamo.AudioParameters) Option {
	return func(e *Engine) { e.audio = p }
}

// New builds a stopped engine with no particles. A nil gen discards audio.
func New(cfg config.Engine, params dynamo.PhysicsParameters, gen Generator, opts ...Option) (*Engine, error) {
	if cfg.FrameTime <= 0 {
		return nil, dynamo.Invalid("frame_time", "must be > 0, got %v", cfg.FrameTime)
	}
	if cfg.MaxStep < cfg.FrameTime {
		cfg.MaxStep = cfg.FrameTime
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = config.DefaultStopTimeout
	}
	integ, err := integrators.ByName(cfg.Integrator)
	if err != nil {
		return nil, dynamo.Invalid("integrator", "%v", err)
	}
	sim, err := physics.New(params, cfg.Bounds, physics.WithIntegrator(integ))
	if err != nil {
		return nil, err
	}
	if gen == nil {
		gen = audio.Nop{}
	}

	e := &Engine{
		cfg:   cfg,
		gen:   gen,
		log:   slog.Default(),
		now:   time.Now,
		sim:   sim,
		audio: dynamo.DefaultAudioParameters(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.mu.Lock()
	e.publishLocked()
	e.mu.Unlock()
	return e, nil
}

// Start launches the update loop. It is a no-op when already running.
// Cancelling ctx stops the loop as Stop would.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.Err(); err != nil {
		return err
	}
	e.life.Lock()
	defer e.life.Unlock()
	if e.running.Load() {
		if e.loopCtx.Err() == nil {
			return nil
		}
		// the loop is leaving because its context ended; join it first
		select {
		case <-e.done:
		case <-timeAfter(e.cfg.StopTimeout):
			return e.crash(fmt.Errorf("%w after %v", dynamo.ErrStopTimeout, e.cfg.StopTimeout))
		}
		if err := e.Err(); err != nil {
			return err
		}
	}
	e.quit = make(chan struct{})
	e.done = make(chan struct{})
	e.loopCtx = ctx
	e.running.Store(true)
	go e.loop(ctx, e.quit, e.done)

	e.log.Debug("engine started", "frame_time", e.cfg.FrameTime)
	return nil
}

// Stop signals the loop and waits for it to exit, at most StopTimeout. A
// loop that does not exit in time is abandoned and the engine crashes.
func (e *Engine) Stop() error {
	e.life.Lock()
	defer e.life.Unlock()
	if !e.running.Load() {
		return e.Err()
	}
	e.running.Store(false)
	close(e.quit)

	select {
	case <-e.done:
		e.log.Debug("engine stopped")
		return e.Err()
	case <-timeAfter(e.cfg.StopTimeout):
		err := e.crash(fmt.Errorf("%w after %v", dynamo.ErrStopTimeout, e.cfg.StopTimeout))
		return err
	}
}

func (e *Engine) Running() bool { return e.running.Load() }

// Err returns the crash cause, or nil while the engine is healthy.
func (e *Engine) Err() error {
	if c := e.crashed.Load(); c != nil {
		return c
	}
	return nil
}

// GetState returns the last committed state. It never blocks on the
// engine lock.
func (e *Engine) GetState() State {
	var s State
	if p := e.published.Load(); p != nil {
		s = *p
		s.Snapshot = p.Snapshot.Clone()
	}
	s.Running = e.running.Load()
	s.GeneratorErrors = e.genErrors.Load()
	if c := e.crashed.Load(); c != nil {
		s.Crashed = true
		s.Running = false
		s.Err = c.Error()
	}
	return s
}

func (e *Engine) UpdatePhysicsParameters(patch dynamo.PhysicsPatch) error {
	return e.mutate(func() error {
		return e.sim.UpdateParameters(patch)
	})
}

// UpdateAudioParameters merges patch into the current audio parameters and
// forwards them to the generator. Numeric fields stay pinned over the
// physics mapping until ResetAudioOverrides.
func (e *Engine) UpdateAudioParameters(patch dynamo.AudioPatch) error {
	var out dynamo.AudioParameters
	err := e.mutate(func() error {
		next, err := e.audio.Apply(patch)
		if err != nil {
			return err
		}
		e.audio = next
		e.overrides = pin(e.overrides, patch)
		out = next
		return nil
	})
	if err != nil {
		return err
	}
	e.forward(out)
	return nil
}

func (e *Engine) SetHarmony(v float64) error {
	return e.UpdateAudioParameters(dynamo.AudioPatch{Harmony: dynamo.Float(v)})
}

// ResetAudioOverrides hands every numeric audio field back to the mapper.
func (e *Engine) ResetAudioOverrides() error {
	return e.mutate(func() error {
		e.overrides = dynamo.AudioPatch{}
		return nil
	})
}

func (e *Engine) AddParticle(pos, vel dynamo.Vec2, mass, radius float64) (dynamo.ParticleID, error) {
	var id dynamo.ParticleID
	err := e.mutate(func() error {
		var err error
		id, err = e.sim.AddParticle(pos, vel, mass, radius)
		return err
	})
	return id, err
}

func (e *Engine) ClearParticles() error {
	return e.mutate(func() error {
		e.sim.Clear()
		return nil
	})
}

func (e *Engine) SetBounds(r dynamo.Rect) error {
	return e.mutate(func() error {
		return e.sim.SetBounds(r)
	})
}

// Advance runs one tick of dt seconds on the calling goroutine. It lets
// offline renders and tests drive a stopped engine deterministically.
func (e *Engine) Advance(dt float64) error {
	if err := e.Err(); err != nil {
		return err
	}
	return e.safeTick(dt)
}

// mutate runs fn under the lock and publishes the result if it succeeds.
func (e *Engine) mutate(fn func() error) error {
	if err := e.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	e.publishLocked()
	return nil
}

func (e *Engine) publishLocked() {
	s := &State{
		Snapshot: e.sim.Snapshot(),
		Physics:  e.sim.Parameters(),
		Audio:    e.audio,
		Bounds:   e.sim.Bounds(),
		Energy:   e.sim.Energy(),
	}
	e.published.Store(s)
}

func (e *Engine) forward(p dynamo.AudioParameters) {
	if err := e.gen.SetParameters(p); err != nil {
		e.genErrors.Add(1)
		e.log.Warn("audio generator rejected parameters", "error", err)
	}
}

// crash records the first failure and returns it.
func (e *Engine) crash(cause error) error {
	c := &dynamo.CrashError{Cause: cause}
	if !e.crashed.CompareAndSwap(nil, c) {
		return e.crashed.Load()
	}
	e.running.Store(false)
	e.log.Error("engine crashed", "error", cause)
	return c
}

// pin records the numeric fields of patch as overrides.
func pin(dst, src dynamo.AudioPatch) dynamo.AudioPatch {
	if src.Frequency != nil {
		dst.Frequency = src.Frequency
	}
	if src.Amplitude != nil {
		dst.Amplitude = src.Amplitude
	}
	if src.FilterCutoff != nil {
		dst.FilterCutoff = src.FilterCutoff
	}
	if src.ReverbAmount != nil {
		dst.ReverbAmount = src.ReverbAmount
	}
	return dst
}
