package telemetry

import (
	"errors"
	"math"
	"time"
)

// FlightStats summarizes one recorded session.
type FlightStats struct {
	Apogee     float64 // highest altitude, m
	ApogeeTime time.Time

	PeakAccel     float64 // highest acceleration magnitude, m/s²
	PeakAccelTime time.Time

	MaxTemperature float64
	MaxTempTime    time.Time
	MinTemperature float64
	MinTempTime    time.Time

	DataRateHz float64
	Packets    int
	Duration   time.Duration
}

// ErrNoPackets is returned when a session holds no telemetry.
var ErrNoPackets = errors.New("telemetry: no packets in session")

// altitude picks the better altitude source per packet: GPS when a
// fix exists, barometric otherwise.
func altitude(p *Packet) float64 {
	if p.Satellites >= 4 {
		return p.AltitudeGPS
	}
	return p.AltitudeBaro
}

func accelMagnitude(p *Packet) float64 {
	return math.Sqrt(p.AccelX*p.AccelX + p.AccelY*p.AccelY + p.AccelZ*p.AccelZ)
}

// Analyze computes flight statistics over packets in arrival order.
func Analyze(packets []Packet) (FlightStats, error) {
	if len(packets) == 0 {
		return FlightStats{}, ErrNoPackets
	}

	first := &packets[0]
	stats := FlightStats{
		Apogee:         altitude(first),
		ApogeeTime:     first.Timestamp,
		PeakAccel:      accelMagnitude(first),
		PeakAccelTime:  first.Timestamp,
		MaxTemperature: first.Temperature,
		MaxTempTime:    first.Timestamp,
		MinTemperature: first.Temperature,
		MinTempTime:    first.Timestamp,
		Packets:        len(packets),
	}

	for i := range packets {
		p := &packets[i]

		if alt := altitude(p); alt > stats.Apogee {
			stats.Apogee = alt
			stats.ApogeeTime = p.Timestamp
		}
		if a := accelMagnitude(p); a > stats.PeakAccel {
			stats.PeakAccel = a
			stats.PeakAccelTime = p.Timestamp
		}
		if p.Temperature > stats.MaxTemperature {
			stats.MaxTemperature = p.Temperature
			stats.MaxTempTime = p.Timestamp
		}
		if p.Temperature < stats.MinTemperature {
			stats.MinTemperature = p.Temperature
			stats.MinTempTime = p.Timestamp
		}
	}

	stats.Duration = packets[len(packets)-1].Timestamp.Sub(packets[0].Timestamp)
	if sec := stats.Duration.Seconds(); sec > 0 {
		stats.DataRateHz = float64(len(packets)) / sec
	}

	return stats, nil
}
