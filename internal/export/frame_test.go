package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"strings"
	"testing"

	"github.com/exolab/exomoon/internal/dynamics"
)

func sampleTrajectory() *dynamics.Trajectory {
	return &dynamics.Trajectory{
		Planet:    []dynamics.Vec3{{1, 0, 0}, {0.9, 0.1, 0}},
		Star:      []dynamics.Vec3{{0, 0, 0}, {0, -0.001, 0}},
		Moon:      []dynamics.Vec3{{1.01, 0, 0}, {0.91, 0.11, 0}},
		PlanetVel: []dynamics.Vec3{{0, 6.28, 0}, {-0.6, 6.2, 0}},
		StarVel:   []dynamics.Vec3{{0, -0.001, 0}, {0, -0.001, 0}},
		MoonVel:   []dynamics.Vec3{{0, 6.5, 0}, {-0.6, 6.4, 0}},
		Dt:        0.25,
		TEnd:      0.5,
	}
}

func TestBuildColumns(t *testing.T) {
	f := Build(sampleTrajectory())

	for _, col := range []string{
		"t_years", "star_x", "planet_y", "moon_z",
		"moon_rel_x", "planet_rel_y",
		"moon_planet_dist", "planet_star_dist",
		"planet_vx", "moon_speed",
	} {
		if _, ok := f.Data[col]; !ok {
			t.Errorf("missing column %s", col)
		}
	}
	if f.Columns[0] != "t_years" {
		t.Errorf("first column must be t_years, got %s", f.Columns[0])
	}
	if f.Rows() != 2 {
		t.Errorf("rows: got %d, want 2", f.Rows())
	}

	// Sample i sits at time (i+1)*dt.
	if f.Data["t_years"][0] != 0.25 || f.Data["t_years"][1] != 0.5 {
		t.Errorf("time column: got %v", f.Data["t_years"])
	}

	wantDist := math.Hypot(0.01, 0)
	if math.Abs(f.Data["moon_planet_dist"][0]-wantDist) > 1e-15 {
		t.Errorf("moon_planet_dist[0]: got %g, want %g", f.Data["moon_planet_dist"][0], wantDist)
	}
}

func TestBuildWithoutVelocities(t *testing.T) {
	traj := sampleTrajectory()
	traj.PlanetVel = nil
	traj.StarVel = nil
	traj.MoonVel = nil

	f := Build(traj)
	if _, ok := f.Data["planet_vx"]; ok {
		t.Error("velocity columns must be absent when the trajectory has none")
	}
	if _, ok := f.Data["moon_speed"]; ok {
		t.Error("speed columns must be absent when the trajectory has none")
	}
}

func TestSelect(t *testing.T) {
	f := Build(sampleTrajectory())

	sub := f.Select([]string{"moon_planet_dist", "nope", "t_years"})
	if len(sub.Columns) != 2 {
		t.Fatalf("columns: got %v", sub.Columns)
	}
	if sub.Columns[0] != "t_years" || sub.Columns[1] != "moon_planet_dist" {
		t.Errorf("column order: got %v", sub.Columns)
	}

	// Empty or fully unknown selections leave the frame unchanged.
	if got := f.Select(nil); len(got.Columns) != len(f.Columns) {
		t.Error("nil selection must return the full frame")
	}
	if got := f.Select([]string{"bogus"}); len(got.Columns) != len(f.Columns) {
		t.Error("unknown-only selection must return the full frame")
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	f := Build(sampleTrajectory())

	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if records[0][0] != "t_years" {
		t.Errorf("header starts with %s", records[0][0])
	}
	if records[1][0] != "0.25" {
		t.Errorf("first time cell: got %s", records[1][0])
	}
}

func TestVarInfo(t *testing.T) {
	cases := []struct {
		name  string
		label string
		unit  string
	}{
		{"t_years", "Time", "years"},
		{"moon_planet_dist", "Moon-Planet Distance", "AU"},
		{"planet_x", "Planet X", "AU"},
		{"moon_vy", "Moon Vy", "AU/yr"},
		{"moon_speed", "Moon Speed", "AU/yr"},
	}
	for _, c := range cases {
		label, unit := VarInfo(c.name)
		if label != c.label || unit != c.unit {
			t.Errorf("VarInfo(%q) = %q, %q; want %q, %q", c.name, label, unit, c.label, c.unit)
		}
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	traj := sampleTrajectory()

	s, err := Pack(traj)
	if err != nil {
		t.Fatal(err)
	}
	if strings.ContainsAny(s, "\n ") {
		t.Error("packed form must be a single base64 token")
	}

	got, err := Unpack(s)
	if err != nil {
		t.Fatal(err)
	}

	if got.Dt != traj.Dt || got.TEnd != traj.TEnd {
		t.Errorf("metadata: got dt=%g t_end=%g", got.Dt, got.TEnd)
	}
	if got.Steps() != traj.Steps() {
		t.Fatalf("steps: got %d, want %d", got.Steps(), traj.Steps())
	}
	for i := 0; i < traj.Steps(); i++ {
		for c := 0; c < 3; c++ {
			if math.Abs(got.Moon[i][c]-traj.Moon[i][c]) > 1e-12 {
				t.Fatalf("moon sample %d differs: %v vs %v", i, got.Moon[i], traj.Moon[i])
			}
			if math.Abs(got.PlanetVel[i][c]-traj.PlanetVel[i][c]) > 1e-12 {
				t.Fatalf("planet velocity sample %d differs", i)
			}
		}
	}
}

func TestUnpackRejectsGarbage(t *testing.T) {
	if _, err := Unpack("not base64!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := Unpack("aGVsbG8="); err == nil {
		t.Error("expected error for non-gzip payload")
	}
}

func TestOrbitSVG(t *testing.T) {
	svg := OrbitSVG(sampleTrajectory(), 400, 400)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Error("not a complete SVG document")
	}
	if got := strings.Count(svg, "<path"); got != 3 {
		t.Errorf("expected 3 body paths, got %d", got)
	}
}

func TestMoonLocalSVG(t *testing.T) {
	svg := MoonLocalSVG(sampleTrajectory(), 400, 400)
	if got := strings.Count(svg, "<path"); got != 1 {
		t.Errorf("expected 1 path, got %d", got)
	}
	if !strings.Contains(svg, "viewBox=\"0 0 400 400\"") {
		t.Error("missing viewBox")
	}
}
