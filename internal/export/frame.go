// Package export flattens trajectories into tabular form for CSV output
// and packs them into a compact transport string for hand-off between
// processes.
//
// The t_years column follows the trajectory's sample convention: row i
// is the state after step i+1, so the first row carries t = dt, not 0.
// Tables produced by other tools may start their clock at zero.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/exolab/exomoon/internal/dynamics"
)

// Frame is a row-per-step table over a trajectory: time in years,
// positions and velocities in AU and AU/yr, plus derived relative vectors
// and distances. Column order is fixed so CSV output is reproducible.
type Frame struct {
	Columns []string
	Data    map[string][]float64
}

// Rows returns the number of time steps in the frame.
func (f *Frame) Rows() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.Data[f.Columns[0]])
}

func addVec(f *Frame, prefix string, comps [3]string, vs []dynamics.Vec3) {
	for c := 0; c < 3; c++ {
		col := prefix + comps[c]
		series := make([]float64, len(vs))
		for i, v := range vs {
			series[i] = v[c]
		}
		f.Columns = append(f.Columns, col)
		f.Data[col] = series
	}
}

func addSeries(f *Frame, col string, s []float64) {
	f.Columns = append(f.Columns, col)
	f.Data[col] = s
}

var (
	posComps = [3]string{"_x", "_y", "_z"}
	velComps = [3]string{"_vx", "_vy", "_vz"}
)

// Build flattens a trajectory. Velocity columns are included only when
// the trajectory carries velocities.
func Build(traj *dynamics.Trajectory) *Frame {
	n := traj.Steps()
	f := &Frame{Data: make(map[string][]float64)}

	t := make([]float64, n)
	for i := range t {
		t[i] = traj.Time(i)
	}
	addSeries(f, "t_years", t)

	addVec(f, "star", posComps, traj.Star)
	addVec(f, "planet", posComps, traj.Planet)
	addVec(f, "moon", posComps, traj.Moon)

	moonRel := make([]dynamics.Vec3, n)
	planetRel := make([]dynamics.Vec3, n)
	moonPlanetDist := make([]float64, n)
	planetStarDist := make([]float64, n)
	for i := 0; i < n; i++ {
		moonRel[i] = traj.Moon[i].Sub(traj.Planet[i])
		planetRel[i] = traj.Planet[i].Sub(traj.Star[i])
		moonPlanetDist[i] = moonRel[i].Norm()
		planetStarDist[i] = planetRel[i].Norm()
	}
	addVec(f, "moon_rel", posComps, moonRel)
	addVec(f, "planet_rel", posComps, planetRel)
	addSeries(f, "moon_planet_dist", moonPlanetDist)
	addSeries(f, "planet_star_dist", planetStarDist)

	if len(traj.StarVel) == n && len(traj.PlanetVel) == n && len(traj.MoonVel) == n {
		addVec(f, "star", velComps, traj.StarVel)
		addVec(f, "planet", velComps, traj.PlanetVel)
		addVec(f, "moon", velComps, traj.MoonVel)

		speeds := func(vs []dynamics.Vec3) []float64 {
			s := make([]float64, n)
			for i, v := range vs {
				s[i] = v.Norm()
			}
			return s
		}
		addSeries(f, "moon_speed", speeds(traj.MoonVel))
		addSeries(f, "planet_speed", speeds(traj.PlanetVel))
		addSeries(f, "star_speed", speeds(traj.StarVel))
	}

	return f
}

// Select returns a frame restricted to the requested columns, always
// keeping t_years first. Unknown columns are skipped; an empty request
// returns the frame unchanged.
func (f *Frame) Select(cols []string) *Frame {
	keep := make([]string, 0, len(cols))
	for _, c := range cols {
		if _, ok := f.Data[c]; ok && c != "t_years" {
			keep = append(keep, c)
		}
	}
	if len(keep) == 0 {
		return f
	}
	out := &Frame{Data: make(map[string][]float64)}
	addSeries(out, "t_years", f.Data["t_years"])
	for _, c := range keep {
		addSeries(out, c, f.Data[c])
	}
	return out
}

// WriteCSV serializes the frame with full float64 round-trip precision.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return err
	}
	row := make([]string, len(f.Columns))
	for i, n := 0, f.Rows(); i < n; i++ {
		for c, col := range f.Columns {
			row[c] = strconv.FormatFloat(f.Data[col][i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// VarInfo returns a human-friendly label and unit for a frame column.
// The unit is empty for dimensionless or unknown columns.
func VarInfo(name string) (label, unit string) {
	switch name {
	case "t_years":
		return "Time", "years"
	case "moon_planet_dist":
		return "Moon-Planet Distance", "AU"
	case "planet_star_dist":
		return "Planet-Star Distance", "AU"
	case "moon_speed", "planet_speed", "star_speed":
		return fmt.Sprintf("%s Speed", title(name[:len(name)-6])), "AU/yr"
	}
	if len(name) > 3 {
		switch name[len(name)-3:] {
		case "_vx", "_vy", "_vz":
			return title(name[:len(name)-3]) + " V" + name[len(name)-1:], "AU/yr"
		}
	}
	if len(name) > 2 {
		switch name[len(name)-2:] {
		case "_x", "_y", "_z":
			return title(name[:len(name)-2]) + " " + upper(name[len(name)-1:]), "AU"
		}
	}
	return title(name), ""
}

func title(s string) string {
	out := []byte(s)
	up := true
	for i, c := range out {
		if c == '_' {
			out[i] = ' '
			up = true
			continue
		}
		if up && c >= 'a' && c <= 'z' {
			out[i] = c - 'a' + 'A'
		}
		up = false
	}
	return string(out)
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
