package metrics

import (
	"math"

	"github.com/san-kum/harmony/internal/engine"
)

type MeanEnergy struct {
	samples int
	total   float64
}

func NewMeanEnergy() *MeanEnergy { return &MeanEnergy{} }

func (e *MeanEnergy) Name() string { return "mean_energy" }

func (e *MeanEnergy) Observe(s engine.State) {
	e.total += s.Energy.Total
	e.samples++
}

func (e *MeanEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *MeanEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift is the largest relative change of total energy against the
// first observation.
type EnergyDrift struct {
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift { return &EnergyDrift{} }

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(s engine.State) {
	energy := s.Energy.Total
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
