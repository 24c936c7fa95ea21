package dynamics

import "math"

// Vec3 is a Cartesian 3-vector in the barycentric frame, AU for positions
// and AU/yr for velocities.
type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v[0] * f, v[1] * f, v[2] * f}
}

func (v Vec3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// PlanarNorm is the Euclidean norm of the x-y projection. The stability
// analyzer measures moon-planet separation in the orbital plane only.
func (v Vec3) PlanarNorm() float64 {
	return math.Hypot(v[0], v[1])
}

func (v Vec3) IsValid() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
