package station

import (
	"encoding/json"
	"fmt"
)

// SerialPort describes one serial device reported by the backend.
type SerialPort struct {
	Port        string `json:"port"`
	Description string `json:"description"`
	HWID        string `json:"hwid"`
}

// ListPorts returns the serial devices visible to the backend.
func (c *Client) ListPorts() ([]SerialPort, error) {
	data, err := c.SendCommand("list_ports", nil)
	if err != nil {
		return nil, err
	}
	var ports []SerialPort
	if err := json.Unmarshal(data, &ports); err != nil {
		return nil, fmt.Errorf("station: decode port list: %w", err)
	}
	return ports, nil
}

// OpenPort asks the backend to open a serial port. Telemetry from the
// port arrives as serial_data pushes afterwards.
func (c *Client) OpenPort(port string, baudRate int) error {
	_, err := c.SendCommand("open_port", map[string]any{
		"port":     port,
		"baudrate": baudRate,
	})
	return err
}

// ClosePort closes one serial port on the backend.
func (c *Client) ClosePort(port string) error {
	_, err := c.SendCommand("close_port", map[string]any{"port": port})
	return err
}

// CloseAllPorts closes every open port on the backend.
func (c *Client) CloseAllPorts() error {
	_, err := c.SendCommand("close_all_ports", nil)
	return err
}

// WritePort sends raw data to an open port.
func (c *Client) WritePort(port, data string) error {
	_, err := c.SendCommand("write_port", map[string]any{
		"port": port,
		"data": data,
	})
	return err
}

// WritePortLine sends data with a trailing newline, the framing the
// flight computer's console expects.
func (c *Client) WritePortLine(port, data string) error {
	_, err := c.SendCommand("write_port_line", map[string]any{
		"port": port,
		"data": data,
	})
	return err
}

// ReadPort reads up to n bytes from an open port. n <= 0 reads
// whatever is buffered.
func (c *Client) ReadPort(port string, n int) (string, error) {
	params := map[string]any{"port": port}
	if n > 0 {
		params["num_bytes"] = n
	}
	data, err := c.SendCommand("read_port", params)
	if err != nil {
		return "", err
	}
	return decodeString(data)
}

// ReadPortLine reads one line from an open port.
func (c *Client) ReadPortLine(port string) (string, error) {
	data, err := c.SendCommand("read_port_line", map[string]any{"port": port})
	if err != nil {
		return "", err
	}
	return decodeString(data)
}

// IsPortOpen reports whether the backend holds the port open.
func (c *Client) IsPortOpen(port string) (bool, error) {
	raw, err := c.SendCommand("is_port_open", map[string]any{"port": port})
	if err != nil {
		return false, err
	}
	var open bool
	if err := json.Unmarshal(raw, &open); err != nil {
		return false, fmt.Errorf("station: decode is_port_open payload: %w", err)
	}
	return open, nil
}

// PortInfo returns the backend's metadata for an open port.
func (c *Client) PortInfo(port string) (json.RawMessage, error) {
	return c.SendCommand("get_port_info", map[string]any{"port": port})
}

func decodeString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("station: decode string payload: %w", err)
	}
	return s, nil
}
