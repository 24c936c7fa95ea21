// Package sim chooses step size and duration for a run and drives the
// integrator. A run is single-threaded and synchronous: the leapfrog loop
// has a strict step-to-step data dependency. Independent runs are safe to
// execute concurrently; each allocates its own state and trajectory.
package sim

import (
	"fmt"
	"math"

	"github.com/exolab/exomoon/internal/dynamics"
	"github.com/exolab/exomoon/internal/hz"
	"github.com/exolab/exomoon/internal/params"
)

// Resolution policy. The moon is the fastest-varying component and sets
// the step size; the per-year cap keeps long runs from exploding the step
// count when the moon orbit is slow.
const (
	singleOrbitSubsteps = 1000.0
	moonOrbitSubsteps   = 100.0
	maxStepsPerYear     = 20000.0
	minDuration         = 1e-9
)

// Mode selects how the run duration is determined.
type Mode int

const (
	// ModeSingleOrbit runs exactly one star-(planet+moon) orbital period.
	ModeSingleOrbit Mode = iota
	// ModeFixedDuration runs an explicit number of years.
	ModeFixedDuration
)

// RunPolicy is the tagged duration policy consumed by Run.
type RunPolicy struct {
	Mode  Mode
	Years float64 // ModeFixedDuration only
}

// SingleOrbit is the policy for one representative planetary orbit.
func SingleOrbit() RunPolicy {
	return RunPolicy{Mode: ModeSingleOrbit}
}

// ForYears is the policy for an explicit duration.
func ForYears(years float64) RunPolicy {
	return RunPolicy{Mode: ModeFixedDuration, Years: years}
}

// Result is one completed simulation run.
type Result struct {
	Params params.System
	State  dynamics.State
	Traj   *dynamics.Trajectory
	Dt     float64
	TEnd   float64

	// Habitable-zone bounds of the host star, for reporting.
	HZInnerAU float64
	HZOuterAU float64
}

// OrbitalPeriod is Kepler's third law in scaled units:
// P = 2pi a^1.5 / sqrt(mu_total), years.
func OrbitalPeriod(aAU, muTotal float64) float64 {
	return 2.0 * math.Pi * math.Pow(aAU, 1.5) / math.Sqrt(muTotal)
}

// Run builds the initial state, resolves the policy into a concrete
// (duration, dt) pair, and integrates.
func Run(p params.System, policy RunPolicy) (*Result, error) {
	st, err := dynamics.InitialState(p)
	if err != nil {
		return nil, err
	}

	planetPeriod := OrbitalPeriod(p.ApAU, st.Planet.Mu+st.Star.Mu)
	moonPeriod := OrbitalPeriod(st.MoonSMA, st.Planet.Mu+st.Moon.Mu)

	var tEnd, dt float64
	switch policy.Mode {
	case ModeSingleOrbit:
		tEnd = planetPeriod
		dt = moonPeriod / singleOrbitSubsteps
	case ModeFixedDuration:
		dt = math.Min(moonPeriod/moonOrbitSubsteps, 1.0/maxStepsPerYear)
		tEnd = math.Max(minDuration, policy.Years)
		// Snap dt so an integer number of steps covers tEnd exactly.
		n := math.Max(1, math.Ceil(tEnd/dt))
		dt = tEnd / n
	default:
		return nil, fmt.Errorf("sim: unknown run mode %d", policy.Mode)
	}

	traj, err := dynamics.Integrate(st, tEnd, dt)
	if err != nil {
		return nil, err
	}

	inner, outer := hz.BoundsAU(p.Ts, st.StarRadiusM)

	return &Result{
		Params:    p,
		State:     st,
		Traj:      traj,
		Dt:        traj.Dt,
		TEnd:      traj.TEnd,
		HZInnerAU: inner,
		HZOuterAU: outer,
	}, nil
}
