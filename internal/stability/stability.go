// Package stability classifies long-term moon stability from a simulated
// trajectory: the moon has escaped once its planar separation from the
// planet exceeds a multiple of the planet's Hill radius.
package stability

import (
	"github.com/exolab/exomoon/internal/dynamics"
	"github.com/exolab/exomoon/internal/params"
	"github.com/exolab/exomoon/internal/sim"
)

// Report is the outcome of one stability assessment. Threshold,
// EscapeTime and EscapeIndex are nil when no escape occurred; Threshold
// is also nil when the Hill radius is unavailable (degenerate system),
// in which case Stable is false rather than an error.
type Report struct {
	Stable        bool     `json:"stable"`
	MaxSeparation float64  `json:"max_r_rel"`  // max planar moon-planet distance, AU
	HillRadius    float64  `json:"rhill_AU"`
	EscapeFactor  float64  `json:"escape_factor"`
	Threshold     *float64 `json:"threshold"`
	EscapeTime    *float64 `json:"escape_time"`  // years
	EscapeIndex   *int     `json:"escape_index"` // first sample exceeding threshold
	TEnd          float64  `json:"t_end"`
	Dt            float64  `json:"dt"`
}

// Separations returns the per-step planar moon-planet distance series.
func Separations(traj *dynamics.Trajectory) []float64 {
	sep := make([]float64, traj.Steps())
	for i := range sep {
		sep[i] = traj.Moon[i].Sub(traj.Planet[i]).PlanarNorm()
	}
	return sep
}

// Classify derives a Report from a trajectory and the Hill radius. A
// non-positive or NaN rhill means the threshold cannot be formed; the
// moon is then reported unstable with a nil threshold.
//
// Sample index j corresponds to simulated time (j+1)*dt, matching the
// integrator's recording convention. When the separation strictly grows
// across the crossing, the escape time is linearly interpolated between
// the two bracketing samples; otherwise the sample's own time is used.
func Classify(traj *dynamics.Trajectory, rhill, escapeFactor float64) *Report {
	rep := &Report{
		HillRadius:   rhill,
		EscapeFactor: escapeFactor,
		TEnd:         traj.TEnd,
		Dt:           traj.Dt,
	}

	sep := Separations(traj)
	for _, r := range sep {
		if r > rep.MaxSeparation {
			rep.MaxSeparation = r
		}
	}

	if !(rhill > 0) { // catches NaN as well
		rep.Stable = false
		return rep
	}

	threshold := escapeFactor * rhill
	rep.Threshold = &threshold
	rep.Stable = rep.MaxSeparation <= threshold
	if rep.Stable {
		return rep
	}

	for j, r := range sep {
		if r <= threshold {
			continue
		}
		var t float64
		if j > 0 && sep[j] > sep[j-1] {
			frac := (threshold - sep[j-1]) / (sep[j] - sep[j-1])
			if frac < 0 {
				frac = 0
			} else if frac > 1 {
				frac = 1
			}
			// Sample j-1 sits at time j*dt.
			t = (float64(j) + frac) * traj.Dt
		} else {
			t = float64(j+1) * traj.Dt
		}
		idx := j
		rep.EscapeIndex = &idx
		rep.EscapeTime = &t
		break
	}
	return rep
}

// Assess runs a fixed-duration simulation and classifies the result.
// Stable means the maximum planar moon-planet separation over [0, years]
// stayed within escapeFactor * Hill radius.
func Assess(p params.System, years, escapeFactor float64) (*Report, error) {
	res, err := sim.Run(p, sim.ForYears(years))
	if err != nil {
		return nil, err
	}
	return Classify(res.Traj, res.State.RHill, escapeFactor), nil
}
