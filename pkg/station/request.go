package station

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"groundlink/pkg/protocol"
)

var (
	// ErrNotConnected is returned when a command is issued without a
	// live connection.
	ErrNotConnected = errors.New("station: not connected")
	// ErrRequestTimeout is returned when no response arrives within
	// the request timeout.
	ErrRequestTimeout = errors.New("station: request timed out")
	// ErrDisconnected is returned when the session is closed while a
	// request is in flight.
	ErrDisconnected = errors.New("station: connection closed")
)

// CommandError carries the server-supplied message of a
// success=false response.
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("station: command %s failed: %s", e.Command, e.Message)
}

type outcome struct {
	data json.RawMessage
	err  error
}

// SendCommand transmits {id, command, ...params} and blocks until the
// matching response arrives or the request times out. Exactly one of
// three things happens: a success=true response resolves with its data,
// a success=false response fails with a CommandError, or the timeout
// fails with ErrRequestTimeout. The pending entry is removed exactly
// once in every case.
func (c *Client) SendCommand(command string, params map[string]any) (json.RawMessage, error) {
	if c.State() != StateConnected {
		return nil, ErrNotConnected
	}

	id := strconv.FormatUint(c.nextID.Add(1), 10)
	frame, err := protocol.Envelope(id, command, params)
	if err != nil {
		return nil, fmt.Errorf("station: encode %s: %w", command, err)
	}

	ch := make(chan outcome, 1)
	c.pmu.Lock()
	c.pending[id] = ch
	c.pmu.Unlock()

	if err := c.write(frame); err != nil {
		c.takePending(id)
		return nil, fmt.Errorf("station: send %s: %w", command, err)
	}

	timer := time.NewTimer(c.opts.RequestTimeout)
	defer timer.Stop()

	select {
	case out, ok := <-ch:
		if !ok {
			return nil, ErrDisconnected
		}
		return out.data, out.err
	case <-timer.C:
		if c.takePending(id) == nil {
			// The response won the race against the timer; its outcome
			// is already in flight on the channel.
			if out, ok := <-ch; ok {
				return out.data, out.err
			}
			return nil, ErrDisconnected
		}
		return nil, fmt.Errorf("%w: %s after %s", ErrRequestTimeout, command, c.opts.RequestTimeout)
	}
}

// PendingRequests returns the number of requests awaiting a response.
func (c *Client) PendingRequests() int {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	return len(c.pending)
}

// takePending removes and returns the pending entry for id, or nil if
// it was already settled. This is the single point of removal, which
// keeps resolution exactly-once.
func (c *Client) takePending(id string) chan outcome {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	ch := c.pending[id]
	if ch != nil {
		delete(c.pending, id)
	}
	return ch
}

// settle routes a response frame to its waiting caller.
func (c *Client) settle(msg *protocol.Inbound) {
	ch := c.takePending(msg.ID)
	if ch == nil {
		c.log.Debug("response for unknown request", "id", msg.ID, "command", msg.Command)
		return
	}
	if msg.Success {
		ch <- outcome{data: msg.Data}
		return
	}
	ch <- outcome{err: &CommandError{Command: msg.Command, Message: msg.Error}}
}

// failPending releases every waiting caller with ErrDisconnected.
func (c *Client) failPending() {
	c.pmu.Lock()
	chans := make([]chan outcome, 0, len(c.pending))
	for id, ch := range c.pending {
		chans = append(chans, ch)
		delete(c.pending, id)
	}
	c.pmu.Unlock()

	for _, ch := range chans {
		close(ch)
	}
}
