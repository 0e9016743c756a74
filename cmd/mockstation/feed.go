package main

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Synthetic attitude: three slow sine waves with distinct frequencies
// and phases so the motion never repeats visibly.
const (
	feedRollAmplitudeDeg  = 25.0
	feedPitchAmplitudeDeg = 40.0
	feedYawAmplitudeDeg   = 180.0

	feedRollFreqHz  = 0.23
	feedPitchFreqHz = 0.31
	feedYawFreqHz   = 0.17

	feedPitchPhaseRad = math.Pi / 3.0
	feedYawPhaseRad   = 2.0 * math.Pi / 3.0
)

func feedEulerDeg(t float64) (roll, pitch, yaw float64) {
	roll = feedRollAmplitudeDeg * math.Sin(2.0*math.Pi*feedRollFreqHz*t)
	pitch = feedPitchAmplitudeDeg * math.Sin(2.0*math.Pi*feedPitchFreqHz*t+feedPitchPhaseRad)
	yaw = feedYawAmplitudeDeg * math.Sin(2.0*math.Pi*feedYawFreqHz*t+feedYawPhaseRad)
	return
}

// feedQuaternion builds a ZYX quaternion from the synthetic attitude.
func feedQuaternion(rollDeg, pitchDeg, yawDeg float64) (w, x, y, z float64) {
	const degToRad = math.Pi / 180
	roll := rollDeg * degToRad
	pitch := pitchDeg * degToRad
	yaw := yawDeg * degToRad

	cr := math.Cos(roll * 0.5)
	sr := math.Sin(roll * 0.5)
	cp := math.Cos(pitch * 0.5)
	sp := math.Sin(pitch * 0.5)
	cy := math.Cos(yaw * 0.5)
	sy := math.Sin(yaw * 0.5)

	w = cr*cp*cy + sr*sp*sy
	x = sr*cp*cy - cr*sp*sy
	y = cr*sp*cy + sr*cp*sy
	z = cr*cp*sy - sr*sp*cy

	norm := math.Sqrt(w*w + x*x + y*y + z*z)
	if norm == 0 {
		return 1, 0, 0, 0
	}
	return w / norm, x / norm, y / norm, z / norm
}

// feedTelemetry builds one fused telemetry object for time t seconds
// into the flight.
func feedTelemetry(t float64) map[string]any {
	roll, pitch, yaw := feedEulerDeg(t)
	w, x, y, z := feedQuaternion(roll, pitch, yaw)

	// A lazy parabolic hop: up for 30s, down for 30s.
	altitude := 1400.0 + 900.0*math.Sin(math.Pi*math.Mod(t, 60)/60)

	return map[string]any{
		"timestamp":         float64(time.Now().UnixNano()) / float64(time.Second),
		"accel_x_g":         0.1 * math.Sin(2*math.Pi*0.5*t),
		"accel_y_g":         0.1 * math.Cos(2*math.Pi*0.5*t),
		"accel_z_g":         1.0 + 0.05*math.Sin(2*math.Pi*0.9*t),
		"gyro_x_dps":        5 * math.Cos(2*math.Pi*feedRollFreqHz*t),
		"gyro_y_dps":        5 * math.Cos(2*math.Pi*feedPitchFreqHz*t),
		"gyro_z_dps":        5 * math.Cos(2*math.Pi*feedYawFreqHz*t),
		"orientation_roll":  roll,
		"orientation_pitch": pitch,
		"orientation_yaw":   yaw,
		"quaternion_w":      w,
		"quaternion_x":      x,
		"quaternion_y":      y,
		"quaternion_z":      z,
		"mag_x_ut":          22.0 + 3*math.Sin(2*math.Pi*0.1*t),
		"mag_y_ut":          -4.0,
		"mag_z_ut":          41.0,
		"gps_lat_deg":       32.9401 + 0.0001*t,
		"gps_lon_deg":       -106.9219,
		"gps_satellites":    9,
		"altitude_m":        altitude,
		"temperature_c":     21.0 - altitude/300.0,
	}
}

// feedSerialLine builds one raw comma-delimited line in the legacy
// flight-computer format.
func feedSerialLine(t float64) string {
	roll, pitch, yaw := feedEulerDeg(t)
	altitude := 1400.0 + 900.0*math.Sin(math.Pi*math.Mod(t, 60)/60)

	return fmt.Sprintf("%.3f,%.3f,%.3f,%.2f,%.2f,%.2f,%.1f,%.1f,%.1f,%.1f,%.1f,%.1f,%.5f,%.5f,0,%d,%.1f",
		0.1*math.Sin(2*math.Pi*0.5*t), 0.1*math.Cos(2*math.Pi*0.5*t), 9.9,
		roll, pitch, yaw,
		21.0-altitude/300.0, 856.2, altitude,
		22.0, -4.0, 41.0,
		32.9401+0.0001*t, -106.9219,
		9, altitude+2.5)
}

// runFeed pushes synthetic telemetry to the client until the port is
// closed or the connection drops. Every third frame is a raw serial
// line; the rest are fused objects.
func (c *clientConn) runFeed(ctx context.Context, port string, hz int) {
	if hz <= 0 {
		hz = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	start := time.Now()
	var seq int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t := time.Since(start).Seconds()
			var err error
			if seq%3 == 2 {
				err = c.push("serial_data", feedSerialLine(t), port)
			} else {
				err = c.push("telemetry_data", feedTelemetry(t), port)
			}
			if err != nil {
				return
			}
			seq++
		}
	}
}
