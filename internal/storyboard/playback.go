package storyboard

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/harmony/internal/dynamo"
)

// Play starts advancing the playhead from start, pushing an evaluated
// frame into the target every tick. The playhead wraps to 0 at the end.
// Calling Play while playing does nothing. After a Pause that timed out,
// Play fails with ErrStopTimeout until the abandoned goroutine has exited.
func (m *Manager) Play(start float64) error {
	if math.IsNaN(start) || math.IsInf(start, 0) || start < 0 {
		return dynamo.Invalid("start", "must be >= 0, got %g", start)
	}
	m.life.Lock()
	defer m.life.Unlock()
	if m.playing.Load() {
		return nil
	}
	if m.done != nil {
		select {
		case <-m.done:
		default:
			return fmt.Errorf("storyboard: play: previous playback still running: %w", dynamo.ErrStopTimeout)
		}
	}

	m.mu.Lock()
	m.current = math.Min(start, m.durationLocked())
	m.err = nil
	m.mu.Unlock()

	m.quit = make(chan struct{})
	m.done = make(chan struct{})
	m.playing.Store(true)
	go m.run(m.quit, m.done)

	m.log.Debug("storyboard playing", "start", start, "keyframes", m.Len())
	return nil
}

// Pause stops playback and waits for the playback goroutine, at most the
// configured stop timeout. The playhead keeps its position.
func (m *Manager) Pause() error {
	m.life.Lock()
	defer m.life.Unlock()
	if !m.playing.Load() {
		return nil
	}
	m.playing.Store(false)
	close(m.quit)

	select {
	case <-m.done:
		return nil
	case <-time.After(m.cfg.StopTimeout):
		err := fmt.Errorf("storyboard: pause: %w after %v", dynamo.ErrStopTimeout, m.cfg.StopTimeout)
		m.setErr(err)
		return err
	}
}

// Seek moves the playhead to t, clamped to [0, Duration], and pushes the
// frame at that time immediately.
func (m *Manager) Seek(t float64) error {
	if math.IsNaN(t) {
		return dynamo.Invalid("time", "must be a number")
	}
	m.mu.Lock()
	t = math.Max(0, math.Min(t, m.durationLocked()))
	m.current = t
	frame, ok := m.evaluateLocked(t)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return m.push(frame)
}

func (m *Manager) Playing() bool { return m.playing.Load() }

func (m *Manager) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Err returns the last playback failure.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Manager) setErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *Manager) run(quit, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(m.cfg.FrameTime)
	defer timer.Stop()

	last := m.now()
	for {
		select {
		case <-quit:
			return
		default:
		}

		now := m.now()
		delta := now.Sub(last)
		if delta >= m.cfg.FrameTime {
			last = now
			frame, ok := m.advance(delta.Seconds())
			if ok {
				if err := m.push(frame); errors.Is(err, dynamo.ErrEngineCrashed) {
					m.log.Error("storyboard playback stopped", "error", err)
					m.playing.Store(false)
					return
				}
			}
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(m.cfg.FrameTime - delta)
		select {
		case <-quit:
			return
		case <-timer.C:
		}
	}
}

// advance moves the playhead by dt seconds and evaluates the new position.
func (m *Manager) advance(dt float64) (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current += dt
	if d := m.durationLocked(); m.current >= d {
		m.current = 0
	}
	return m.evaluateLocked(m.current)
}

// push sends a frame to the target. Only fields present in the frame are
// sent.
func (m *Manager) push(f Frame) error {
	if !f.Physics.IsEmpty() {
		if err := m.target.UpdatePhysicsParameters(f.Physics); err != nil {
			return m.pushFailed("physics", err)
		}
	}
	if !f.Audio.IsEmpty() {
		if err := m.target.UpdateAudioParameters(f.Audio); err != nil {
			return m.pushFailed("audio", err)
		}
	}
	if err := m.target.SetHarmony(f.Harmony); err != nil {
		return m.pushFailed("harmony", err)
	}
	return nil
}

func (m *Manager) pushFailed(what string, err error) error {
	err = fmt.Errorf("storyboard: push %s at %.3fs: %w", what, m.CurrentTime(), err)
	m.setErr(err)
	if !errors.Is(err, dynamo.ErrEngineCrashed) {
		m.log.Warn("storyboard push rejected", "error", err)
	}
	return err
}
