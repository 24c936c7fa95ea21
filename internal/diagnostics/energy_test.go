package diagnostics

import (
	"math"
	"testing"

	"github.com/exolab/exomoon/internal/dynamics"
	"github.com/exolab/exomoon/internal/params"
	"github.com/exolab/exomoon/internal/sim"
	"github.com/exolab/exomoon/internal/units"
)

func simParams() params.System {
	return params.System{
		Ts: 5772.0, RsSolar: 1.0, MsSolar: 1.0,
		MpEarth: 1.0, DpCGS: 5.5, ApAU: 1.0, Ep: 0.0,
		MmEarth: 0.01, AmHill: 0.25, Em: 0.0,
	}
}

func TestTotalEnergyTwoBodyCircular(t *testing.T) {
	// One solar mass and a massless-ish probe on a circular 1 AU orbit:
	// E = -G M m / (2a).
	msMu := units.GravParamSolar(1.0)
	mmMu := units.GravParamSolar(1e-9)

	v := math.Sqrt(msMu / 1.0)
	mus := [3]float64{msMu, mmMu, 0}
	pos := [3]dynamics.Vec3{{0, 0, 0}, {1, 0, 0}, {100, 100, 100}}
	vel := [3]dynamics.Vec3{{0, 0, 0}, {0, v, 0}, {0, 0, 0}}

	got := TotalEnergy(mus, pos, vel)
	m := mmMu / units.FourPiSquared
	want := -msMu * m / 2.0
	if math.Abs(got-want)/math.Abs(want) > 1e-9 {
		t.Errorf("circular orbit energy: got %.12g, want %.12g", got, want)
	}
}

func TestEnergyDriftAccumulator(t *testing.T) {
	var d EnergyDrift
	d.Observe(-10.0)
	d.Observe(-10.1)
	d.Observe(-9.95)

	if math.Abs(d.Value()-0.01) > 1e-12 {
		t.Errorf("max drift: got %g, want 0.01", d.Value())
	}

	d.Reset()
	if d.Value() != 0 {
		t.Error("reset must clear the accumulator")
	}
}

func TestDriftOverBoundedRun(t *testing.T) {
	res, err := sim.Run(simParams(), sim.ForYears(1.0))
	if err != nil {
		t.Fatal(err)
	}

	drift := DriftOver(res.Traj, res.State)
	if drift <= 0 {
		t.Error("a real run should show some nonzero drift")
	}
	if drift > 1e-2 {
		t.Errorf("energy drift %.3e over one year exceeds tolerance", drift)
	}
}

func TestDriftOverNoVelocities(t *testing.T) {
	traj := &dynamics.Trajectory{
		Planet: []dynamics.Vec3{{1, 0, 0}},
		Star:   []dynamics.Vec3{{0, 0, 0}},
		Moon:   []dynamics.Vec3{{1.01, 0, 0}},
		Dt:     0.1,
		TEnd:   0.1,
	}
	if got := DriftOver(traj, dynamics.State{}); got != 0 {
		t.Errorf("trajectory without velocities: got %g", got)
	}
}
