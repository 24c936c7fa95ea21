// Package dynamics builds the self-consistent initial state of a
// star-planet-moon system and evolves it with a fixed-step leapfrog
// integrator under pairwise Newtonian gravity.
//
// All quantities use the AU-year-solar-mass convention from
// [github.com/exolab/exomoon/internal/units]: gravitational parameters are
// masses scaled by 4pi^2, so no explicit G appears in the equations of
// motion.
package dynamics

import "errors"

var (
	// ErrCoincidentBodies is returned when two bodies reach zero
	// separation during integration. Gravity is unsoftened, so this is a
	// terminal condition, not something to patch over.
	ErrCoincidentBodies = errors.New("dynamics: coincident bodies (zero separation)")
)

// Body is one point mass: barycentric position, velocity, and the
// dimensionless gravitational parameter mu = m * 4pi^2 (solar masses).
type Body struct {
	Pos Vec3
	Vel Vec3
	Mu  float64
}

// State is the full dynamical state at one instant, in the system
// barycentric frame. The integrator never mutates a State it is handed;
// it steps a private copy.
type State struct {
	Planet Body
	Star   Body
	Moon   Body

	// Derived at construction.
	RHill          float64 // planet Hill radius at periapse, AU
	MoonSMA        float64 // moon semi-major axis, AU
	PlanetRadiusKM float64 // from mass and bulk density; reference only
	StarRadiusM    float64
}

// Trajectory is the recorded history of one integration run. Sample i
// holds the state after step i+1, i.e. simulated time (i+1)*Dt; the
// initial state at t=0 is not stored. Read-only after creation.
type Trajectory struct {
	Planet []Vec3
	Star   []Vec3
	Moon   []Vec3

	PlanetVel []Vec3
	StarVel   []Vec3
	MoonVel   []Vec3

	Dt   float64 // realized step size, years
	TEnd float64 // total simulated duration, years
}

// Steps returns the number of recorded samples.
func (t *Trajectory) Steps() int { return len(t.Planet) }

// Time maps sample index i to simulated time (i+1)*Dt.
func (t *Trajectory) Time(i int) float64 { return float64(i+1) * t.Dt }
