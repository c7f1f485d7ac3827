package metrics

import (
	"math"

	"github.com/san-kum/harmony/internal/engine"
)

type PeakSpeed struct {
	peak float64
}

func NewPeakSpeed() *PeakSpeed { return &PeakSpeed{} }

func (p *PeakSpeed) Name() string { return "peak_speed" }

func (p *PeakSpeed) Observe(s engine.State) {
	for _, ps := range s.Snapshot.Particles {
		p.peak = math.Max(p.peak, ps.Velocity.Magnitude())
	}
}

func (p *PeakSpeed) Value() float64 { return p.peak }

func (p *PeakSpeed) Reset() { p.peak = 0 }

// ContactRate is the mean number of contacts per frame.
type ContactRate struct {
	frames   int
	contacts int
}

func NewContactRate() *ContactRate { return &ContactRate{} }

func (c *ContactRate) Name() string { return "contact_rate" }

func (c *ContactRate) Observe(s engine.State) {
	c.contacts += len(s.Snapshot.Contacts)
	c.frames++
}

func (c *ContactRate) Value() float64 {
	if c.frames == 0 {
		return 0
	}
	return float64(c.contacts) / float64(c.frames)
}

func (c *ContactRate) Reset() {
	c.frames = 0
	c.contacts = 0
}

type MeanFrequency struct {
	samples int
	total   float64
}

func NewMeanFrequency() *MeanFrequency { return &MeanFrequency{} }

func (f *MeanFrequency) Name() string { return "mean_frequency" }

func (f *MeanFrequency) Observe(s engine.State) {
	f.total += s.Audio.Frequency
	f.samples++
}

func (f *MeanFrequency) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return f.total / float64(f.samples)
}

func (f *MeanFrequency) Reset() {
	f.total = 0
	f.samples = 0
}
