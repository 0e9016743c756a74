package telemetry

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func fixedNormalizer(t *testing.T) (*Normalizer, time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	n := NewNormalizer(nil)
	n.now = func() time.Time { return now }
	return n, now
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalizeLegacyLine(t *testing.T) {
	n, now := fixedNormalizer(t)

	packets := n.Normalize(json.RawMessage(`"1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,4,16"`))
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	p := packets[0]

	if !approx(p.AccelX, 1) || !approx(p.AccelY, 2) || !approx(p.AccelZ, 3) {
		t.Errorf("accel = (%v, %v, %v), want (1, 2, 3)", p.AccelX, p.AccelY, p.AccelZ)
	}
	if !approx(p.GyroX, 4) || !approx(p.GyroY, 5) || !approx(p.GyroZ, 6) {
		t.Errorf("gyro = (%v, %v, %v), want (4, 5, 6)", p.GyroX, p.GyroY, p.GyroZ)
	}
	if !approx(p.Temperature, 7) || !approx(p.Pressure, 8) || !approx(p.AltitudeBaro, 9) {
		t.Errorf("temp/pressure/alt = (%v, %v, %v), want (7, 8, 9)", p.Temperature, p.Pressure, p.AltitudeBaro)
	}
	if !approx(p.MagX, 10) || !approx(p.MagY, 11) || !approx(p.MagZ, 12) {
		t.Errorf("mag = (%v, %v, %v), want (10, 11, 12)", p.MagX, p.MagY, p.MagZ)
	}
	if !approx(p.Latitude, 13) || !approx(p.Longitude, 14) {
		t.Errorf("lat/lon = (%v, %v), want (13, 14)", p.Latitude, p.Longitude)
	}
	if p.Satellites != 4 {
		t.Errorf("satellites = %d, want 4", p.Satellites)
	}
	if !approx(p.AltitudeGPS, 16) {
		t.Errorf("alt_gps = %v, want 16", p.AltitudeGPS)
	}
	if !p.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", p.Timestamp, now)
	}
	if p.HasQuaternion {
		t.Error("legacy packet should not carry a quaternion")
	}
}

func TestNormalizeLegacyMultiline(t *testing.T) {
	n, _ := fixedNormalizer(t)

	payload := "1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,4,16\n" +
		"\n" +
		"short,line\n" +
		"2,2,3,4,5,6,7,8,9,10,11,12,13,14,15,6,20\n"
	packets := n.NormalizeLegacy(payload)
	if len(packets) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(packets))
	}
	if packets[1].Satellites != 6 || !approx(packets[1].AltitudeGPS, 20) {
		t.Errorf("second line: satellites=%d alt_gps=%v, want 6 and 20", packets[1].Satellites, packets[1].AltitudeGPS)
	}
}

func TestNormalizeLegacyBadFieldDefaultsZero(t *testing.T) {
	n, _ := fixedNormalizer(t)

	packets := n.NormalizeLegacy("x,2,3,4,5,6,7,8,9,10,11,12,13,14,15,bad,16")
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	if packets[0].AccelX != 0 {
		t.Errorf("accel_x = %v, want 0 for unparseable field", packets[0].AccelX)
	}
	if packets[0].Satellites != 0 {
		t.Errorf("satellites = %d, want 0 for unparseable field", packets[0].Satellites)
	}
}

func TestNormalizeStructured(t *testing.T) {
	n, _ := fixedNormalizer(t)

	raw := json.RawMessage(`{
		"timestamp": 1700000000.5,
		"accel_x_g": 1.0, "accel_y_g": -0.5, "accel_z_g": 2.0,
		"gyro_x_dps": 10, "gyro_y_dps": 20, "gyro_z_dps": 30,
		"orientation_roll": 1.5, "orientation_pitch": -2.5, "orientation_yaw": 90,
		"quaternion_w": 1, "quaternion_x": 0, "quaternion_y": 0, "quaternion_z": 0,
		"mag_x_ut": 25, "mag_y_ut": -12, "mag_z_ut": 40,
		"gps_lat_deg": 32.99, "gps_lon_deg": -106.97, "gps_satellites": 9,
		"altitude_m": 1401.2, "temperature_c": 21.5
	}`)
	packets := n.Normalize(raw)
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	p := packets[0]

	if !approx(p.AccelX, 9.81) || !approx(p.AccelY, -4.905) || !approx(p.AccelZ, 19.62) {
		t.Errorf("accel = (%v, %v, %v), want g converted to m/s²", p.AccelX, p.AccelY, p.AccelZ)
	}
	if !approx(p.GyroZ, 30) {
		t.Errorf("gyro_z = %v, want 30", p.GyroZ)
	}
	if !approx(p.Yaw, 90) || !approx(p.Pitch, -2.5) {
		t.Errorf("orientation = (%v, %v, %v)", p.Roll, p.Pitch, p.Yaw)
	}
	if !p.HasQuaternion || !approx(p.QuatW, 1) {
		t.Errorf("quaternion not carried: has=%v w=%v", p.HasQuaternion, p.QuatW)
	}
	if p.Satellites != 9 || !approx(p.AltitudeGPS, 1401.2) {
		t.Errorf("gps = %d sats, alt %v", p.Satellites, p.AltitudeGPS)
	}
	want := time.Unix(1700000000, int64(500*time.Millisecond))
	if !p.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", p.Timestamp, want)
	}
}

func TestNormalizeStructuredWithoutQuaternion(t *testing.T) {
	n, _ := fixedNormalizer(t)

	packets := n.Normalize(json.RawMessage(`{"accel_x_g": 1, "orientation_yaw": 45}`))
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	if packets[0].HasQuaternion {
		t.Error("packet without quaternion_w should report HasQuaternion=false")
	}
}

func TestResolveTimestampDateTimePair(t *testing.T) {
	n, _ := fixedNormalizer(t)

	packets := n.Normalize(json.RawMessage(`{"date": "03/14/2026", "time": "09:26:53", "accel_x_g": 0}`))
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	want := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if !packets[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", packets[0].Timestamp, want)
	}
}

func TestResolveTimestampFallsBackToClock(t *testing.T) {
	n, now := fixedNormalizer(t)

	packets := n.Normalize(json.RawMessage(`{"date": "garbage", "time": "also", "accel_x_g": 0}`))
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	if !packets[0].Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want wall clock %v", packets[0].Timestamp, now)
	}
}

func TestNormalizeDropsUnsupportedShapes(t *testing.T) {
	n, _ := fixedNormalizer(t)

	for _, raw := range []string{`[1,2,3]`, `42`, `true`, ``} {
		if got := n.Normalize(json.RawMessage(raw)); got != nil {
			t.Errorf("Normalize(%q) = %v, want nil", raw, got)
		}
	}
}
