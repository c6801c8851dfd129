package metrics

import (
	"github.com/san-kum/nonsmooth/internal/dynamo"
)

type energySource interface {
	Energy(t float64, q, u dynamo.State) (kinetic, potential float64, err error)
}

// Energy tracks the mechanical energy of a run. Its value is the change from
// the first to the last observation; impacts and friction make it negative.
type Energy struct {
	name    string
	sys     energySource
	first   float64
	last    float64
	peak    float64
	samples int
	err     error
}

func NewEnergy(sys energySource) *Energy {
	return &Energy{name: "energy_change", sys: sys}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(t float64, q, u dynamo.State) {
	kin, pot, err := e.sys.Energy(t, q, u)
	if err != nil {
		e.err = err
		return
	}
	total := kin + pot
	if e.samples == 0 {
		e.first, e.peak = total, total
	}
	e.last = total
	e.peak = max(e.peak, total)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.last - e.first
}

// Gain is the largest rise above the initial energy.
func (e *Energy) Gain() float64 { return e.peak - e.first }

// Err returns the last evaluation error.
func (e *Energy) Err() error { return e.err }

func (e *Energy) Reset() {
	e.first, e.last, e.peak = 0, 0, 0
	e.samples = 0
	e.err = nil
}
