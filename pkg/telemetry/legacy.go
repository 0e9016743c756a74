package telemetry

import (
	"strconv"
	"strings"
)

// legacyMinFields is the minimum field count for a legacy line to
// qualify.
const legacyMinFields = 17

// Positional schema of the legacy comma-delimited feed. Index 14 is
// unused: the feed kept satellites and alt_gps at the tail positions
// of the older 17-field layout while the leading fields start at
// accel_x.
const (
	legacyAccelX = iota
	legacyAccelY
	legacyAccelZ
	legacyGyroX
	legacyGyroY
	legacyGyroZ
	legacyTemp
	legacyPressure
	legacyAltBMP
	legacyMagX
	legacyMagY
	legacyMagZ
	legacyLatitude
	legacyLongitude
	_
	legacySatellites
	legacyAltGPS
)

// NormalizeLegacy splits a legacy text payload into lines and parses
// each qualifying line into a packet. Lines that are empty or too
// short are dropped with a diagnostic; a field that fails to parse
// defaults to zero rather than discarding the line.
func (n *Normalizer) NormalizeLegacy(payload string) []Packet {
	var packets []Packet
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pkt, ok := n.parseLegacyLine(line)
		if !ok {
			n.log.Debug("dropping legacy line", "line", line)
			continue
		}
		packets = append(packets, pkt)
	}
	return packets
}

func (n *Normalizer) parseLegacyLine(line string) (Packet, bool) {
	fields := strings.Split(line, ",")
	if len(fields) < legacyMinFields {
		return Packet{}, false
	}

	return Packet{
		Timestamp: n.now(),

		AccelX: legacyFloat(fields, legacyAccelX),
		AccelY: legacyFloat(fields, legacyAccelY),
		AccelZ: legacyFloat(fields, legacyAccelZ),

		GyroX: legacyFloat(fields, legacyGyroX),
		GyroY: legacyFloat(fields, legacyGyroY),
		GyroZ: legacyFloat(fields, legacyGyroZ),

		Temperature: legacyFloat(fields, legacyTemp),
		Pressure:    legacyFloat(fields, legacyPressure),

		AltitudeBaro: legacyFloat(fields, legacyAltBMP),

		MagX: legacyFloat(fields, legacyMagX),
		MagY: legacyFloat(fields, legacyMagY),
		MagZ: legacyFloat(fields, legacyMagZ),

		Latitude:   legacyFloat(fields, legacyLatitude),
		Longitude:  legacyFloat(fields, legacyLongitude),
		Satellites: legacyInt(fields, legacySatellites),

		AltitudeGPS: legacyFloat(fields, legacyAltGPS),
	}, true
}

func legacyFloat(fields []string, i int) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
	if err != nil {
		return 0
	}
	return v
}

func legacyInt(fields []string, i int) int {
	v, err := strconv.Atoi(strings.TrimSpace(fields[i]))
	if err != nil {
		return 0
	}
	return v
}
