package metrics

import "github.com/san-kum/harmony/internal/engine"

// Metric accumulates one scalar over a run.
type Metric interface {
	Name() string
	Observe(engine.State)
	Value() float64
	Reset()
}

// Standard returns the metrics recorded for every run.
func Standard() []Metric {
	return []Metric{
		NewMeanEnergy(),
		NewEnergyDrift(),
		NewPeakSpeed(),
		NewContactRate(),
		NewMeanFrequency(),
	}
}
