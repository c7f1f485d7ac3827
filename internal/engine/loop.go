package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/harmony/internal/audio"
	"github.com/san-kum/harmony/internal/dynamo"
)

var timeAfter = time.After

func (e *Engine) loop(ctx context.Context, quit, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(e.cfg.FrameTime)
	defer timer.Stop()

	last := e.now()
	for {
		select {
		case <-quit:
			return
		case <-ctx.Done():
			e.running.Store(false)
			return
		default:
		}

		now := e.now()
		delta := now.Sub(last)
		if delta >= e.cfg.FrameTime {
			last = now
			if delta > e.cfg.MaxStep {
				delta = e.cfg.MaxStep
			}
			if err := e.safeTick(delta.Seconds()); err != nil {
				e.crash(err)
				return
			}
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(e.cfg.FrameTime - delta)
		select {
		case <-quit:
			return
		case <-ctx.Done():
			e.running.Store(false)
			return
		case <-timer.C:
		}
	}
}

// safeTick runs a tick and turns a panic into a crash.
func (e *Engine) safeTick(dt float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = e.crash(fmt.Errorf("panic: %v", r))
		}
	}()
	return e.tick(dt)
}

func (e *Engine) tick(dt float64) error {
	params, state, err := e.step(dt)
	if err != nil {
		return err
	}
	e.forward(params)
	for _, o := range e.observers {
		o.OnTick(state)
	}
	return nil
}

// step integrates and maps under the lock. The deferred unlock keeps the
// mutex usable if the simulator panics.
func (e *Engine) step(dt float64) (dynamo.AudioParameters, State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.sim.Step(dt)
	if err != nil {
		return dynamo.AudioParameters{}, State{}, err
	}
	mapped := audio.Map(snap, e.sim.Parameters(), e.audio)
	if mapped, err = mapped.Apply(e.overrides); err != nil {
		return dynamo.AudioParameters{}, State{}, err
	}
	e.audio = mapped
	e.publishLocked()

	state := *e.published.Load()
	state.Running = e.running.Load()
	return mapped, state, nil
}
