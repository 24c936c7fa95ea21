// Package hz estimates the host star's habitable zone from its effective
// temperature and radius.
package hz

import (
	"math"

	"github.com/exolab/exomoon/internal/units"
)

// Flux bounds relative to the solar constant at Earth.
const (
	innerFluxFactor = 1.1
	outerFluxFactor = 0.5
)

// BoundsAU returns the inner and outer habitable-zone radii in AU for a
// star of temperature tsK (kelvin) and radius rsM (meters), from the
// Stefan-Boltzmann luminosity and the inverse-square flux law.
func BoundsAU(tsK, rsM float64) (inner, outer float64) {
	l := 4 * math.Pi * rsM * rsM * units.StefBoltz * math.Pow(tsK, 4)
	innerM := math.Sqrt(l / (4 * math.Pi * innerFluxFactor * units.FluxEarth))
	outerM := math.Sqrt(l / (4 * math.Pi * outerFluxFactor * units.FluxEarth))
	return innerM / units.AU, outerM / units.AU
}
