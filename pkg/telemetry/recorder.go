package telemetry

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

var sessionHeader = []string{
	"timestamp",
	"accel_x", "accel_y", "accel_z",
	"gyro_x", "gyro_y", "gyro_z",
	"roll", "pitch", "yaw",
	"quat_w", "quat_x", "quat_y", "quat_z",
	"mag_x", "mag_y", "mag_z",
	"latitude", "longitude", "satellites", "alt_gps",
	"alt_bmp", "temperature", "pressure",
}

// Recorder appends canonical packets to a CSV session file.
type Recorder struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
	n  int
}

// NewRecorder creates (or truncates) a session file and writes the
// header row.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create session file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(sessionHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("telemetry: write session header: %w", err)
	}
	return &Recorder{f: f, w: w}, nil
}

// Write appends one packet.
func (r *Recorder) Write(p *Packet) error {
	row := []string{
		strconv.FormatInt(p.Timestamp.UnixMilli(), 10),
		ftoa(p.AccelX), ftoa(p.AccelY), ftoa(p.AccelZ),
		ftoa(p.GyroX), ftoa(p.GyroY), ftoa(p.GyroZ),
		ftoa(p.Roll), ftoa(p.Pitch), ftoa(p.Yaw),
		ftoa(p.QuatW), ftoa(p.QuatX), ftoa(p.QuatY), ftoa(p.QuatZ),
		ftoa(p.MagX), ftoa(p.MagY), ftoa(p.MagZ),
		ftoa(p.Latitude), ftoa(p.Longitude), strconv.Itoa(p.Satellites), ftoa(p.AltitudeGPS),
		ftoa(p.AltitudeBaro), ftoa(p.Temperature), ftoa(p.Pressure),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.w.Write(row); err != nil {
		return fmt.Errorf("telemetry: write session row: %w", err)
	}
	r.n++
	if r.n%64 == 0 {
		r.w.Flush()
	}
	return r.w.Error()
}

// Count returns the number of packets written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Close flushes and closes the session file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}

// ReadSession loads a recorded session file back into packets.
func ReadSession(path string) ([]Packet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open session file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(sessionHeader)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("telemetry: read session file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	packets := make([]Packet, 0, len(rows)-1)
	for _, row := range rows[1:] {
		ms, _ := strconv.ParseInt(row[0], 10, 64)
		sats, _ := strconv.Atoi(row[19])
		p := Packet{
			Timestamp: time.UnixMilli(ms),
			AccelX:    atof(row[1]), AccelY: atof(row[2]), AccelZ: atof(row[3]),
			GyroX: atof(row[4]), GyroY: atof(row[5]), GyroZ: atof(row[6]),
			Roll: atof(row[7]), Pitch: atof(row[8]), Yaw: atof(row[9]),
			QuatW: atof(row[10]), QuatX: atof(row[11]), QuatY: atof(row[12]), QuatZ: atof(row[13]),
			MagX: atof(row[14]), MagY: atof(row[15]), MagZ: atof(row[16]),
			Latitude: atof(row[17]), Longitude: atof(row[18]), Satellites: sats,
			AltitudeGPS:  atof(row[20]),
			AltitudeBaro: atof(row[21]),
			Temperature:  atof(row[22]),
			Pressure:     atof(row[23]),
		}
		p.HasQuaternion = p.QuatW != 0 || p.QuatX != 0 || p.QuatY != 0 || p.QuatZ != 0
		packets = append(packets, p)
	}
	return packets, nil
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func atof(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
