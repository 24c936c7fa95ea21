package storage

import (
	"testing"

	"github.com/exolab/exomoon/internal/params"
	"github.com/exolab/exomoon/internal/sim"
	"github.com/exolab/exomoon/internal/stability"
)

func savedRun(t *testing.T) (*Store, string, *sim.Result) {
	t.Helper()

	p := params.System{
		Ts: 5772.0, RsSolar: 1.0, MsSolar: 1.0,
		MpEarth: 1.0, DpCGS: 5.5, ApAU: 1.0, Ep: 0.0,
		MmEarth: 0.01, AmHill: 0.25, Em: 0.0,
	}
	res, err := sim.Run(p, sim.ForYears(0.02))
	if err != nil {
		t.Fatal(err)
	}
	rep := stability.Classify(res.Traj, res.State.RHill, 1.0)

	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	id, err := store.Save(res, rep)
	if err != nil {
		t.Fatal(err)
	}
	return store, id, res
}

func TestSaveLoad(t *testing.T) {
	store, id, res := savedRun(t)

	meta, err := store.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if meta.ID != id {
		t.Errorf("id: got %q, want %q", meta.ID, id)
	}
	if meta.System.ApAU != 1.0 {
		t.Errorf("system not preserved: ap_au %g", meta.System.ApAU)
	}
	if meta.Steps != res.Traj.Steps() {
		t.Errorf("steps: got %d, want %d", meta.Steps, res.Traj.Steps())
	}
	if meta.Report == nil || !meta.Report.Stable {
		t.Errorf("report not preserved: %+v", meta.Report)
	}
}

func TestList(t *testing.T) {
	store, id, _ := savedRun(t)

	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Errorf("listing: got %+v", runs)
	}
}

func TestListEmptyDir(t *testing.T) {
	store := New(t.TempDir() + "/never-created")
	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected empty listing, got %d", len(runs))
	}
}

func TestLoadFrame(t *testing.T) {
	store, id, res := savedRun(t)

	frame, err := store.LoadFrame(id)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Rows() != res.Traj.Steps() {
		t.Errorf("rows: got %d, want %d", frame.Rows(), res.Traj.Steps())
	}
	if _, ok := frame.Data["moon_planet_dist"]; !ok {
		t.Error("derived columns missing from the reloaded frame")
	}
	if frame.Data["t_years"][0] != res.Traj.Time(0) {
		t.Errorf("time column: got %g, want %g", frame.Data["t_years"][0], res.Traj.Time(0))
	}
}

func TestLoadMissingRun(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Load("run_0"); err == nil {
		t.Error("expected error for missing run")
	}
}
