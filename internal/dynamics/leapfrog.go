package dynamics

import (
	"fmt"
	"math"
)

// accel is the gravitational pull on a body at pos from a source body at
// srcPos with gravitational parameter mu. Unsoftened; the caller checks
// for zero separation before dividing.
func accel(pos, srcPos Vec3, mu float64) Vec3 {
	r := pos.Sub(srcPos)
	d := r.Norm()
	r3 := d * d * d
	return r.Scale(-mu / r3)
}

// stepBody advances one body by a kick-drift-kick step against the two
// source bodies. Sources are read at whatever state they hold when this
// body is processed: bodies earlier in the fixed per-step order have
// already moved.
func stepBody(b *Body, srcA, srcB *Body, dt float64) error {
	half := b.Pos.Add(b.Vel.Scale(dt / 2))
	if half.Sub(srcA.Pos).Norm() == 0 || half.Sub(srcB.Pos).Norm() == 0 {
		return ErrCoincidentBodies
	}
	a := accel(half, srcA.Pos, srcA.Mu).Add(accel(half, srcB.Pos, srcB.Mu))
	b.Vel = b.Vel.Add(a.Scale(dt))
	b.Pos = half.Add(b.Vel.Scale(dt / 2))
	return nil
}

// Integrate evolves the state for the requested duration with fixed-step
// leapfrog and returns the full per-step trajectory. The step count is
// ceil(duration/dt); dt is adjusted to duration/steps so the final step
// lands exactly on the requested duration.
//
// Within a step the bodies advance in a fixed order, planet then star
// then moon, each seeing the already-updated positions of bodies
// processed before it. That sequencing is part of the published contract
// of the trajectory, not an accident of iteration order.
//
// The caller's state is not modified.
func Integrate(st State, duration, dt float64) (*Trajectory, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("dynamics: step size must be positive, got %g", dt)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("dynamics: duration must be positive, got %g", duration)
	}

	steps := int(math.Ceil(duration / dt))
	if steps < 1 {
		steps = 1
	}
	dt = duration / float64(steps)

	// Private working copies; State holds no reference types beyond these.
	planet, star, moon := st.Planet, st.Star, st.Moon

	traj := &Trajectory{
		Planet:    make([]Vec3, 0, steps),
		Star:      make([]Vec3, 0, steps),
		Moon:      make([]Vec3, 0, steps),
		PlanetVel: make([]Vec3, 0, steps),
		StarVel:   make([]Vec3, 0, steps),
		MoonVel:   make([]Vec3, 0, steps),
		Dt:        dt,
		TEnd:      duration,
	}

	for i := 0; i < steps; i++ {
		if err := stepBody(&planet, &star, &moon, dt); err != nil {
			return nil, fmt.Errorf("step %d (planet): %w", i, err)
		}
		if err := stepBody(&star, &planet, &moon, dt); err != nil {
			return nil, fmt.Errorf("step %d (star): %w", i, err)
		}
		if err := stepBody(&moon, &planet, &star, dt); err != nil {
			return nil, fmt.Errorf("step %d (moon): %w", i, err)
		}

		traj.Planet = append(traj.Planet, planet.Pos)
		traj.Star = append(traj.Star, star.Pos)
		traj.Moon = append(traj.Moon, moon.Pos)
		traj.PlanetVel = append(traj.PlanetVel, planet.Vel)
		traj.StarVel = append(traj.StarVel, star.Vel)
		traj.MoonVel = append(traj.MoonVel, moon.Vel)
	}

	return traj, nil
}
