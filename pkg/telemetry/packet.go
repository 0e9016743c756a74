// Package telemetry normalizes the backend's heterogeneous telemetry
// payloads into one canonical packet shape and provides session
// recording and flight statistics over it.
package telemetry

import "time"

// Packet is the canonical telemetry record. Fields the source omits
// stay at their zero values; downstream consumers never see a missing
// value.
type Packet struct {
	Timestamp time.Time

	// Acceleration in m/s².
	AccelX, AccelY, AccelZ float64

	// Raw gyroscope rate in deg/s.
	GyroX, GyroY, GyroZ float64

	// Fused orientation in degrees.
	Roll, Pitch, Yaw float64

	// Fused unit quaternion. HasQuaternion distinguishes a real
	// reading from the zero value.
	QuatW, QuatX, QuatY, QuatZ float64
	HasQuaternion              bool

	// Magnetometer in µT.
	MagX, MagY, MagZ float64

	// GPS fix.
	Latitude, Longitude float64
	AltitudeGPS         float64
	Satellites          int

	// Barometric altitude in m.
	AltitudeBaro float64

	Temperature float64 // °C
	Pressure    float64 // hPa
}
