package dynamics

import (
	"math"

	"github.com/exolab/exomoon/internal/params"
	"github.com/exolab/exomoon/internal/units"
)

// InitialState maps a validated parameter set onto barycentric positions
// and velocities. Both orbits start at periapse in the x-y plane: the
// star-(planet+moon) pair and the planet-moon pair are each placed with
// the reduced two-body relation, and the pair is then translated into the
// system frame. Velocities follow vis-viva at periapse,
// v = mu_other / sqrt((1-e) mu_total a), along +/-y.
func InitialState(p params.System) (State, error) {
	if err := p.Validate(); err != nil {
		return State{}, err
	}

	// Planet radius (km) from bulk density; star radius in meters.
	// Reference output only, the integrator never sees them.
	rpKM := math.Cbrt(0.75*p.MpEarth*units.MEarth/(p.DpCGS*1e3)) / 1e3
	rsM := p.RsSolar * units.RSun

	ms := units.GravParamSolar(p.MsSolar)
	mp := units.GravParamEarth(p.MpEarth)
	mm := units.GravParamEarth(p.MmEarth)

	// Hill radius at periapse (Hamilton & Burns 1992): the (1-e) factor
	// accounts for the reduced tidal stability at closest approach.
	rhill := p.ApAU * (1.0 - p.Ep) * math.Cbrt(mp/(3.0*ms))
	amAU := p.AmHill * rhill

	// Planet-moon barycenter about the system barycenter.
	xpm := p.ApAU * (1.0 - p.Ep) * ms / (ms + mp + mm)
	vypm := ms / math.Sqrt((1.0-p.Ep)*(mp+mm+ms)*p.ApAU)

	// Star, complementary mass ratio, opposite tangential velocity.
	xs := -p.ApAU * (1.0 - p.Ep) * (mp + mm) / (ms + mp + mm)
	vys := -(mp + mm) / math.Sqrt((1.0-p.Ep)*(mp+mm+ms)*p.ApAU)

	// Planet and moon about their mutual barycenter.
	xp := -amAU * (1.0 - p.Em) * mm / (mp + mm)
	vyp := -mm / math.Sqrt((1.0-p.Em)*(mp+mm)*amAU)

	xm := amAU * (1.0 - p.Em) * mp / (mp + mm)
	vym := mp / math.Sqrt((1.0-p.Em)*(mp+mm)*amAU)

	// A retrograde moon flips only its own relative angular momentum;
	// the planet's complementary contribution keeps its sign.
	if p.MoonDir == params.Retrograde {
		vym = -vym
	}

	return State{
		Planet: Body{
			Pos: Vec3{xpm + xp, 0, 0},
			Vel: Vec3{0, vypm + vyp, 0},
			Mu:  mp,
		},
		Star: Body{
			Pos: Vec3{xs, 0, 0},
			Vel: Vec3{0, vys, 0},
			Mu:  ms,
		},
		Moon: Body{
			Pos: Vec3{xpm + xm, 0, 0},
			Vel: Vec3{0, vypm + vym, 0},
			Mu:  mm,
		},
		RHill:          rhill,
		MoonSMA:        amAU,
		PlanetRadiusKM: rpKM,
		StarRadiusM:    rsM,
	}, nil
}
