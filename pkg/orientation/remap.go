package orientation

import (
	"math"

	"groundlink/pkg/telemetry"
)

// axisMap selects one sensor-frame component for a render axis.
type axisMap struct {
	src  int // sensor component index: 0=x/roll, 1=y/pitch, 2=z/yaw
	sign float64
}

// frameRemap is the sensor-to-render frame mapping, indexed by render
// axis (X, Y, Z). The sensor frame is Z-up with yaw about Z; the render
// frame is Y-up. The same permutation applies to quaternion vector
// parts and to Euler rotations, so both paths share this table.
var frameRemap = [3]axisMap{
	{src: 0, sign: 1},  // render X <- sensor x / roll
	{src: 2, sign: 1},  // render Y <- sensor z / yaw
	{src: 1, sign: -1}, // render Z <- sensor y / pitch, negated
}

func remapVector(v [3]float64) [3]float64 {
	var out [3]float64
	for i, m := range frameRemap {
		out[i] = m.sign * v[m.src]
	}
	return out
}

// RemapQuaternion converts a sensor-frame quaternion to the render
// frame by permuting its vector part through the frame table.
func RemapQuaternion(q Quaternion) Quaternion {
	v := remapVector([3]float64{q.X, q.Y, q.Z})
	return Quaternion{W: q.W, X: v[0], Y: v[1], Z: v[2]}.Normalize()
}

// RemapEuler converts sensor-frame roll, pitch, yaw (degrees) to
// render-frame rotations about X, Y, Z (radians).
func RemapEuler(roll, pitch, yaw float64) (rx, ry, rz float64) {
	const degToRad = math.Pi / 180
	v := remapVector([3]float64{roll * degToRad, pitch * degToRad, yaw * degToRad})
	return v[0], v[1], v[2]
}

// TargetFromPacket derives the render-frame target pose for one
// telemetry packet. A fused quaternion is preferred; packets without
// one fall back to the Euler angles.
func TargetFromPacket(p *telemetry.Packet) Quaternion {
	if p.HasQuaternion {
		return RemapQuaternion(Quaternion{W: p.QuatW, X: p.QuatX, Y: p.QuatY, Z: p.QuatZ})
	}
	rx, ry, rz := RemapEuler(p.Roll, p.Pitch, p.Yaw)
	return FromEuler(rx, ry, rz)
}
