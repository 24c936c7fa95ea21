package units

import (
	"math"
	"testing"
)

func TestGravParamSolar(t *testing.T) {
	if got := GravParamSolar(1.0); math.Abs(got-FourPiSquared) > 1e-12 {
		t.Errorf("one solar mass: got %.12g, want 4pi^2", got)
	}
	if got := GravParamSolar(0.5); math.Abs(got-FourPiSquared/2) > 1e-12 {
		t.Errorf("half solar mass: got %.12g", got)
	}
}

func TestGravParamEarth(t *testing.T) {
	ratio := GravParamEarth(1.0) / GravParamSolar(1.0)
	want := MEarth / MSun
	if math.Abs(ratio-want)/want > 1e-12 {
		t.Errorf("earth/sun mass ratio: got %.12g, want %.12g", ratio, want)
	}
}
