package storyboard

import (
	"log/slog"
	"math"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/harmony/internal/config"
	"github.com/san-kum/harmony/internal/dynamo"
)

// matchEpsilon is how close a timestamp must be for RemovePoint to match.
const matchEpsilon = 1e-3

// Target receives evaluated frames. *engine.Engine satisfies it.
type Target interface {
	UpdatePhysicsParameters(dynamo.PhysicsPatch) error
	UpdateAudioParameters(dynamo.AudioPatch) error
	SetHarmony(float64) error
}

// Manager keeps keyframes ordered by timestamp and plays them back into a
// Target. Keyframes with equal timestamps keep insertion order.
type Manager struct {
	target Target
	cfg    config.Playback
	log    *slog.Logger
	now    func() time.Time

	mu      sync.Mutex // protects points, current, err
	points  []Keyframe
	current float64
	err     error

	life    sync.Mutex // protects quit, done
	quit    chan struct{}
	done    chan struct{}
	playing atomic.Bool
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(target Target, cfg config.Playback, opts ...Option) *Manager {
	if cfg.FrameTime <= 0 {
		cfg.FrameTime = config.DefaultFrameTime
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = config.DefaultStopTimeout
	}
	m := &Manager{
		target: target,
		cfg:    cfg,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddPoint inserts k after any keyframes with the same timestamp and
// returns its index.
func (m *Manager) AddPoint(k Keyframe) (int, error) {
	if err := k.Validate(); err != nil {
		return -1, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := sort.Search(len(m.points), func(i int) bool {
		return m.points[i].Timestamp > k.Timestamp
	})
	m.points = slices.Insert(m.points, i, k)
	return i, nil
}

// RemovePoint deletes the keyframe closest to ts, if one lies within
// matchEpsilon. Ties go to the later inserted keyframe.
func (m *Manager) RemovePoint(ts float64) (Keyframe, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lo := sort.Search(len(m.points), func(i int) bool {
		return m.points[i].Timestamp > ts-matchEpsilon
	})
	best, bestDist := -1, math.Inf(1)
	for i := lo; i < len(m.points) && m.points[i].Timestamp < ts+matchEpsilon; i++ {
		if d := math.Abs(m.points[i].Timestamp - ts); d <= bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Keyframe{}, false
	}
	k := m.points[best]
	m.points = slices.Delete(m.points, best, best+1)
	return k, true
}

// Load replaces every keyframe. Nothing changes if any keyframe is invalid.
func (m *Manager) Load(points []Keyframe) error {
	for _, k := range points {
		if err := k.Validate(); err != nil {
			return err
		}
	}
	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b Keyframe) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = sorted
	if d := m.durationLocked(); m.current > d {
		m.current = d
	}
	return nil
}

func (m *Manager) Points() []Keyframe {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.points)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.points)
}

// Duration is the timestamp of the last keyframe.
func (m *Manager) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.durationLocked()
}

func (m *Manager) durationLocked() float64 {
	if len(m.points) == 0 {
		return 0
	}
	return m.points[len(m.points)-1].Timestamp
}

// GetStateAtTime returns the keyframes around t and how far t lies
// between them. Times before the first keyframe clamp to it with progress
// 0, times at or after the last clamp with progress 1.
func (m *Manager) GetStateAtTime(t float64) (Segment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.segmentLocked(t)
}

func (m *Manager) segmentLocked(t float64) (Segment, bool) {
	n := len(m.points)
	if n == 0 || math.IsNaN(t) {
		return Segment{}, false
	}
	i := sort.Search(n, func(i int) bool { return m.points[i].Timestamp > t })
	switch {
	case i == 0:
		return Segment{Prev: m.points[0], Next: m.points[0], Progress: 0}, true
	case i == n:
		return Segment{Prev: m.points[n-1], Next: m.points[n-1], Progress: 1}, true
	}

	prev, next := m.points[i-1], m.points[i]
	span := next.Timestamp - prev.Timestamp
	if span <= 0 {
		return Segment{Prev: prev, Next: next, Progress: 1}, true
	}
	return Segment{Prev: prev, Next: next, Progress: (t - prev.Timestamp) / span}, true
}

// Evaluate interpolates the timeline at t. When the next keyframe has a
// transition duration shorter than the segment, the previous keyframe
// holds until the transition starts.
func (m *Manager) Evaluate(t float64) (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evaluateLocked(t)
}

func (m *Manager) evaluateLocked(t float64) (Frame, bool) {
	seg, ok := m.segmentLocked(t)
	if !ok {
		return Frame{}, false
	}

	p := seg.Progress
	span := seg.Next.Timestamp - seg.Prev.Timestamp
	if td := seg.Next.TransitionDuration; td > 0 && td < span && p > 0 && p < 1 {
		start := seg.Next.Timestamp - td
		p = math.Max(0, (t-start)/td)
	}

	return Frame{
		Time:     t,
		Progress: p,
		Physics:  InterpolatePhysics(seg.Prev.Physics, seg.Next.Physics, p),
		Audio:    InterpolateAudio(seg.Prev.Audio, seg.Next.Audio, p),
		Visual:   InterpolateVisual(seg.Prev.Visual, seg.Next.Visual, p),
		Harmony:  Lerp(seg.Prev.Harmony, seg.Next.Harmony, p),
	}, true
}
