// Package units holds physical constants and the scaling convention used
// throughout the simulator: lengths in AU, time in years, masses in solar
// masses. Multiplying a solar-mass-normalized mass by 4pi^2 yields the
// dimensionless gravitational parameter directly, so the equations of
// motion carry no explicit G.
package units

import "math"

// Physical constants (SI unless noted).
const (
	BigG       = 6.6732e-11 // N m^2 kg^-2
	SecPerYear = 3.15576e7
	RSun       = 6.9598e8   // m
	MSun       = 1.989e30   // kg
	MEarth     = 5.976e24   // kg
	REarth     = 6.378e6    // m
	AU         = 1.495979e11 // m
	Planck     = 6.626196e-34
	Boltzmann  = 1.380622e-23
	LightSpeed = 2.99792e8
	StefBoltz  = 5.6696e-8 // W m^-2 K^-4
	Parsec     = 3.0856e16 // m
	FluxEarth  = 1370.0    // W/m^2, solar constant at 1 AU
)

// FourPiSquared converts solar-mass-normalized mass into the AU-year
// gravitational parameter.
const FourPiSquared = 4.0 * math.Pi * math.Pi

// GravParamSolar returns the dimensionless gravitational parameter for a
// mass given in solar masses.
func GravParamSolar(mSolar float64) float64 {
	return mSolar * FourPiSquared
}

// GravParamEarth returns the dimensionless gravitational parameter for a
// mass given in Earth masses.
func GravParamEarth(mEarth float64) float64 {
	return mEarth * (MEarth / MSun) * FourPiSquared
}
