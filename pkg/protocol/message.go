// Package protocol defines the JSON wire format spoken over the
// ground-station WebSocket: outbound command envelopes and the inbound
// tagged union of command responses and push messages.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Message type tags carried in the "type" field of inbound frames.
const (
	TypeResponse      = "response"
	TypeSerialData    = "serial_data"
	TypeTelemetryData = "telemetry_data"
	TypeConsoleData   = "console_data"
)

// Inbound is a single server-to-client frame, decoded once at the
// socket boundary. Type=="response" frames correlate to an outstanding
// request by ID; everything else is a push.
type Inbound struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Command string `json:"command,omitempty"`
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`

	Data json.RawMessage `json:"data,omitempty"`

	// Push metadata attached by the backend to serial_data frames.
	Port      string  `json:"port,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// IsResponse reports whether the frame answers an outstanding request.
func (m *Inbound) IsResponse() bool {
	return m.Type == TypeResponse
}

// ParseInbound decodes and validates one wire frame. A frame without a
// type tag is malformed; callers log and drop it.
func ParseInbound(raw []byte) (*Inbound, error) {
	var m Inbound
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("frame missing type tag")
	}
	if m.IsResponse() && m.ID == "" {
		return nil, fmt.Errorf("response frame missing id")
	}
	return &m, nil
}

// Envelope builds the client-to-server command frame
// {id, command, ...params}. Params are flattened into the top-level
// object; "id" and "command" keys in params are ignored.
func Envelope(id, command string, params map[string]any) ([]byte, error) {
	frame := make(map[string]any, len(params)+2)
	for k, v := range params {
		if k == "id" || k == "command" {
			continue
		}
		frame[k] = v
	}
	frame["id"] = id
	frame["command"] = command
	return json.Marshal(frame)
}
