package sweep

import (
	"context"
	"math"
	"testing"

	"github.com/exolab/exomoon/internal/params"
)

func baseSystem() params.System {
	return params.System{
		Ts: 5772.0, RsSolar: 1.0, MsSolar: 1.0,
		MpEarth: 1.0, DpCGS: 5.5, ApAU: 1.0, Ep: 0.0,
		MmEarth: 0.01, AmHill: 0.25, Em: 0.0,
	}
}

func TestHillRange(t *testing.T) {
	got := HillRange(0.1, 0.9, 5)
	want := []float64{0.1, 0.3, 0.5, 0.7, 0.9}
	if len(got) != len(want) {
		t.Fatalf("length: got %d", len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("point %d: got %g, want %g", i, got[i], want[i])
		}
	}

	if got := HillRange(0.5, 0.9, 1); len(got) != 1 || got[0] != 0.5 {
		t.Errorf("single point: got %v", got)
	}
	if got := HillRange(0.1, 0.9, 0); got != nil {
		t.Errorf("zero points: got %v", got)
	}
}

func TestGridRunDeterministicOrder(t *testing.T) {
	fractions := HillRange(0.1, 0.3, 3)
	g := Grid{
		Base:          baseSystem(),
		HillFractions: fractions,
		Years:         0.02,
		EscapeFactor:  1.0,
		Workers:       2,
	}

	points, err := g.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != len(fractions) {
		t.Fatalf("points: got %d, want %d", len(points), len(fractions))
	}
	for i, pt := range points {
		if pt.AmHill != fractions[i] {
			t.Errorf("point %d out of order: got %g, want %g", i, pt.AmHill, fractions[i])
		}
		if pt.Err != nil {
			t.Errorf("point %d failed: %v", i, pt.Err)
		}
		if pt.Report == nil {
			t.Errorf("point %d missing report", i)
		}
	}
}

func TestGridRunBadCellDoesNotAbort(t *testing.T) {
	bad := baseSystem()
	bad.MsSolar = 0 // every cell fails validation

	g := Grid{
		Base:          bad,
		HillFractions: []float64{0.2, 0.4},
		Years:         0.01,
		EscapeFactor:  1.0,
		Workers:       1,
	}
	points, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("cell failures must not abort the sweep: %v", err)
	}
	for i, pt := range points {
		if pt.Err == nil {
			t.Errorf("point %d should carry the validation error", i)
		}
	}
}

func TestGridRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := Grid{
		Base:          baseSystem(),
		HillFractions: HillRange(0.1, 0.9, 50),
		Years:         0.01,
		EscapeFactor:  1.0,
		Workers:       1,
	}
	if _, err := g.Run(ctx); err == nil {
		t.Error("expected context error")
	}
}

func TestGridRunEmpty(t *testing.T) {
	g := Grid{Base: baseSystem(), Years: 0.01, EscapeFactor: 1.0}
	points, err := g.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 0 {
		t.Errorf("expected no points, got %d", len(points))
	}
}
