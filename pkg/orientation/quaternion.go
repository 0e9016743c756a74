// Package orientation smooths incoming attitude samples into a stable
// render pose at a fixed tick rate.
package orientation

import "math"

// Quaternion is a rotation in scalar-first order.
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity returns the no-rotation quaternion.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// Norm returns the quaternion's magnitude.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalize returns q scaled to unit length. A degenerate quaternion
// normalizes to identity.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n < 1e-12 {
		return Identity()
	}
	inv := 1.0 / n
	return Quaternion{W: q.W * inv, X: q.X * inv, Y: q.Y * inv, Z: q.Z * inv}
}

// Dot returns the four-dimensional dot product of q and r.
func (q Quaternion) Dot(r Quaternion) float64 {
	return q.W*r.W + q.X*r.X + q.Y*r.Y + q.Z*r.Z
}

// AngleTo returns the rotation angle in radians between q and r,
// treating q and -q as the same rotation.
func (q Quaternion) AngleTo(r Quaternion) float64 {
	d := math.Abs(q.Dot(r))
	if d > 1 {
		d = 1
	}
	return 2 * math.Acos(d)
}

// FromEuler builds a quaternion from roll, pitch, yaw in radians using
// ZYX intrinsic rotation order (yaw, then pitch, then roll).
func FromEuler(roll, pitch, yaw float64) Quaternion {
	cr := math.Cos(roll * 0.5)
	sr := math.Sin(roll * 0.5)
	cp := math.Cos(pitch * 0.5)
	sp := math.Sin(pitch * 0.5)
	cy := math.Cos(yaw * 0.5)
	sy := math.Sin(yaw * 0.5)

	return Quaternion{
		W: cr*cp*cy + sr*sp*sy,
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
	}.Normalize()
}

// Slerp interpolates from q toward r by t in [0, 1] along the shortest
// arc. Nearly parallel inputs fall back to normalized linear
// interpolation to avoid dividing by a vanishing sine.
func Slerp(q, r Quaternion, t float64) Quaternion {
	d := q.Dot(r)
	if d < 0 {
		r = Quaternion{W: -r.W, X: -r.X, Y: -r.Y, Z: -r.Z}
		d = -d
	}
	if d > 1 {
		d = 1
	}

	if d > 0.9995 {
		return Quaternion{
			W: q.W + t*(r.W-q.W),
			X: q.X + t*(r.X-q.X),
			Y: q.Y + t*(r.Y-q.Y),
			Z: q.Z + t*(r.Z-q.Z),
		}.Normalize()
	}

	theta := math.Acos(d)
	sinTheta := math.Sin(theta)
	a := math.Sin((1-t)*theta) / sinTheta
	b := math.Sin(t*theta) / sinTheta
	return Quaternion{
		W: a*q.W + b*r.W,
		X: a*q.X + b*r.X,
		Y: a*q.Y + b*r.Y,
		Z: a*q.Z + b*r.Z,
	}.Normalize()
}
