// Package diagnostics checks conservation properties of integrated
// trajectories. Leapfrog bounds the energy error rather than shrinking
// it, so drift here is a step-size sanity signal, not a convergence
// measure.
package diagnostics

import (
	"math"

	"github.com/exolab/exomoon/internal/dynamics"
	"github.com/exolab/exomoon/internal/units"
)

// TotalEnergy returns the mechanical energy of one sample in
// Msun AU^2/yr^2. Masses are recovered from the gravitational
// parameters.
func TotalEnergy(mus [3]float64, pos, vel [3]dynamics.Vec3) float64 {
	var m [3]float64
	for i, mu := range mus {
		m[i] = mu / units.FourPiSquared
	}

	ke := 0.0
	for i := 0; i < 3; i++ {
		v := vel[i]
		ke += 0.5 * m[i] * (v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	}

	pe := 0.0
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			r := pos[i].Sub(pos[j]).Norm()
			if r > 0 {
				pe -= units.FourPiSquared * m[i] * m[j] / r
			}
		}
	}
	return ke + pe
}

// EnergyDrift accumulates the worst relative energy deviation seen
// across observed samples.
type EnergyDrift struct {
	initial  float64
	maxDrift float64
	samples  int
}

func (e *EnergyDrift) Observe(energy float64) {
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

// DriftOver runs an EnergyDrift across a full trajectory. Returns 0
// when the trajectory carries no velocities.
func DriftOver(traj *dynamics.Trajectory, st dynamics.State) float64 {
	n := traj.Steps()
	if len(traj.StarVel) != n || len(traj.PlanetVel) != n || len(traj.MoonVel) != n {
		return 0
	}

	mus := [3]float64{st.Star.Mu, st.Planet.Mu, st.Moon.Mu}
	var drift EnergyDrift
	for i := 0; i < n; i++ {
		pos := [3]dynamics.Vec3{traj.Star[i], traj.Planet[i], traj.Moon[i]}
		vel := [3]dynamics.Vec3{traj.StarVel[i], traj.PlanetVel[i], traj.MoonVel[i]}
		drift.Observe(TotalEnergy(mus, pos, vel))
	}
	return drift.Value()
}
