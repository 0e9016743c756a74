package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Standard gravity, used to convert g readings to m/s².
const gravity = 9.81

// Normalizer turns backend telemetry payloads into canonical packets.
// A payload is either a structured JSON object (fused telemetry) or a
// legacy comma-delimited text blob; anything that fails to parse is
// logged and dropped, never propagated.
type Normalizer struct {
	log *slog.Logger
	now func() time.Time
}

// NewNormalizer creates a normalizer using the given logger.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{log: logger, now: time.Now}
}

// Normalize converts one push payload into zero or more packets. A
// JSON object takes the structured path; a JSON string is treated as
// legacy line-oriented text.
func (n *Normalizer) Normalize(data json.RawMessage) []Packet {
	trimmed := firstByte(data)
	switch trimmed {
	case '{':
		pkt, ok := n.normalizeStructured(data)
		if !ok {
			return nil
		}
		return []Packet{pkt}
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			n.log.Warn("dropping telemetry payload", "error", err)
			return nil
		}
		return n.NormalizeLegacy(text)
	default:
		n.log.Warn("dropping telemetry payload", "error", fmt.Errorf("unsupported payload shape"))
		return nil
	}
}

func firstByte(data json.RawMessage) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b
	}
	return 0
}

// structuredFrame mirrors the fused telemetry object emitted by the
// backend's sensor-fusion stage. Pointer fields mark values whose
// presence matters for source selection downstream.
type structuredFrame struct {
	Timestamp *float64 `json:"timestamp"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`

	AccelXG float64 `json:"accel_x_g"`
	AccelYG float64 `json:"accel_y_g"`
	AccelZG float64 `json:"accel_z_g"`

	GyroX float64 `json:"gyro_x_dps"`
	GyroY float64 `json:"gyro_y_dps"`
	GyroZ float64 `json:"gyro_z_dps"`

	Roll  float64 `json:"orientation_roll"`
	Pitch float64 `json:"orientation_pitch"`
	Yaw   float64 `json:"orientation_yaw"`

	QuatW *float64 `json:"quaternion_w"`
	QuatX float64  `json:"quaternion_x"`
	QuatY float64  `json:"quaternion_y"`
	QuatZ float64  `json:"quaternion_z"`

	MagX float64 `json:"mag_x_ut"`
	MagY float64 `json:"mag_y_ut"`
	MagZ float64 `json:"mag_z_ut"`

	Latitude   float64 `json:"gps_lat_deg"`
	Longitude  float64 `json:"gps_lon_deg"`
	Satellites int     `json:"gps_satellites"`
	Altitude   float64 `json:"altitude_m"`

	Temperature float64 `json:"temperature_c"`
	Pressure    float64 `json:"pressure"`
}

// normalizeStructured maps one fused telemetry object to a packet.
// Acceleration arrives in g and is converted to m/s²; magnetometer and
// GPS values are already µT and degrees upstream and pass through.
func (n *Normalizer) normalizeStructured(raw json.RawMessage) (Packet, bool) {
	var f structuredFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		n.log.Warn("dropping telemetry object", "error", err)
		return Packet{}, false
	}

	pkt := Packet{
		Timestamp: n.resolveTimestamp(&f),

		AccelX: f.AccelXG * gravity,
		AccelY: f.AccelYG * gravity,
		AccelZ: f.AccelZG * gravity,

		GyroX: f.GyroX,
		GyroY: f.GyroY,
		GyroZ: f.GyroZ,

		Roll:  f.Roll,
		Pitch: f.Pitch,
		Yaw:   f.Yaw,

		MagX: f.MagX,
		MagY: f.MagY,
		MagZ: f.MagZ,

		Latitude:     f.Latitude,
		Longitude:    f.Longitude,
		Satellites:   f.Satellites,
		AltitudeGPS:  f.Altitude,
		AltitudeBaro: f.Altitude,

		Temperature: f.Temperature,
		Pressure:    f.Pressure,
	}

	if f.QuatW != nil {
		pkt.QuatW = *f.QuatW
		pkt.QuatX = f.QuatX
		pkt.QuatY = f.QuatY
		pkt.QuatZ = f.QuatZ
		pkt.HasQuaternion = true
	}

	return pkt, true
}

// resolveTimestamp picks the packet time: explicit epoch seconds, then
// the date/time pair, then the wall clock.
func (n *Normalizer) resolveTimestamp(f *structuredFrame) time.Time {
	if f.Timestamp != nil {
		sec := int64(*f.Timestamp)
		nsec := int64((*f.Timestamp - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec)
	}
	if f.Date != "" && f.Time != "" {
		if ts, err := time.ParseInLocation("01/02/2006,15:04:05", f.Date+","+f.Time, time.UTC); err == nil {
			return ts
		}
	}
	return n.now()
}
