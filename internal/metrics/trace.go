package metrics

import (
	"sync"

	"github.com/san-kum/harmony/internal/engine"
)

// Sample is one row of a run trace.
type Sample struct {
	Time         float64 `json:"time"`
	Frame        uint64  `json:"frame"`
	Particles    int     `json:"particles"`
	Contacts     int     `json:"contacts"`
	Kinetic      float64 `json:"kinetic"`
	Potential    float64 `json:"potential"`
	Frequency    float64 `json:"frequency"`
	Amplitude    float64 `json:"amplitude"`
	FilterCutoff float64 `json:"filter_cutoff"`
	ReverbAmount float64 `json:"reverb_amount"`
	Harmony      float64 `json:"harmony"`
}

func SampleOf(s engine.State) Sample {
	return Sample{
		Time:         s.Snapshot.Time,
		Frame:        s.Snapshot.Frame,
		Particles:    len(s.Snapshot.Particles),
		Contacts:     len(s.Snapshot.Contacts),
		Kinetic:      s.Energy.Kinetic,
		Potential:    s.Energy.Potential,
		Frequency:    s.Audio.Frequency,
		Amplitude:    s.Audio.Amplitude,
		FilterCutoff: s.Audio.FilterCutoff,
		ReverbAmount: s.Audio.ReverbAmount,
		Harmony:      s.Audio.Harmony,
	}
}

// Recorder is an engine observer that keeps the most recent samples and
// feeds every tick to its metrics. A limit of 0 keeps everything.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	samples []Sample
	metrics []Metric
}

func NewRecorder(limit int, metrics ...Metric) *Recorder {
	return &Recorder{limit: limit, metrics: metrics}
}

func (r *Recorder) OnTick(s engine.State) {
	sample := SampleOf(s)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, sample)
	if r.limit > 0 && len(r.samples) > r.limit {
		r.samples = append(r.samples[:0], r.samples[len(r.samples)-r.limit:]...)
	}
	for _, m := range r.metrics {
		m.Observe(s)
	}
}

func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Values reports each metric by name.
func (r *Recorder) Values() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Series extracts one column of the trace.
func Series(samples []Sample, field func(Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = field(s)
	}
	return out
}

func Frequency(s Sample) float64 { return s.Frequency }

func Amplitude(s Sample) float64 { return s.Amplitude }

func TotalEnergy(s Sample) float64 { return s.Kinetic + s.Potential }
