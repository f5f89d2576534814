package sensor

import "math/rand/v2"

// Channel base temperatures and uniform jitter bounds for the simulated
// generator. Channel 1 stays in [0, 13] degrees C, channel 2 in [20, 31].
const (
	simBase1 = 5.0
	simMin1  = -5.0
	simMax1  = 8.0

	simBase2 = 24.0
	simMin2  = -4.0
	simMax2  = 7.0
)

// SimulatedSource generates plausible two-channel readings. It never fails
// and always reports connected.
type SimulatedSource struct{}

func NewSimulatedSource() *SimulatedSource {
	return &SimulatedSource{}
}

func (s *SimulatedSource) ReadAll() Values {
	return Values{
		Channel1: ptr(simBase1 + uniform(simMin1, simMax1)),
		Channel2: ptr(simBase2 + uniform(simMin2, simMax2)),
	}
}

func (s *SimulatedSource) Status() Status {
	return Status{Connected: true}
}

func (s *SimulatedSource) Disconnect() {}

func uniform(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}
