package orientation

import (
	"sync"
	"time"

	"groundlink/pkg/telemetry"
)

// Defaults matching a 60fps render loop.
const (
	DefaultSmoothing = 0.1
	DefaultTickRate  = 16 * time.Millisecond
)

// Consumer holds the current render pose and eases it toward the most
// recent telemetry target at a fixed rate. All telemetry flows through
// SetTarget; the render side only ever reads Current.
type Consumer struct {
	mu      sync.RWMutex
	current Quaternion
	target  Quaternion

	step float64
	rate time.Duration
	stop chan struct{}
}

// NewConsumer creates a consumer at identity pose. A step outside
// (0, 1] or a non-positive rate falls back to the default.
func NewConsumer(step float64, rate time.Duration) *Consumer {
	if step <= 0 || step > 1 {
		step = DefaultSmoothing
	}
	if rate <= 0 {
		rate = DefaultTickRate
	}
	return &Consumer{
		current: Identity(),
		target:  Identity(),
		step:    step,
		rate:    rate,
		stop:    make(chan struct{}),
	}
}

// Ingest derives a target pose from one packet.
func (c *Consumer) Ingest(p *telemetry.Packet) {
	c.SetTarget(TargetFromPacket(p))
}

// SetTarget replaces the pose the consumer eases toward.
func (c *Consumer) SetTarget(q Quaternion) {
	c.mu.Lock()
	c.target = q.Normalize()
	c.mu.Unlock()
}

// Current returns the smoothed render pose.
func (c *Consumer) Current() Quaternion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Target returns the pose the consumer is easing toward.
func (c *Consumer) Target() Quaternion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.target
}

// Snapshot returns the current and target poses together, read under
// one lock.
func (c *Consumer) Snapshot() (current, target Quaternion) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.target
}

// Advance moves the current pose one smoothing step toward the target
// and returns the result.
func (c *Consumer) Advance() Quaternion {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = Slerp(c.current, c.target, c.step)
	return c.current
}

// Run drives the smoothing loop. Blocks until Stop is called.
func (c *Consumer) Run() {
	ticker := time.NewTicker(c.rate)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Advance()
		}
	}
}

// Stop halts the smoothing loop.
func (c *Consumer) Stop() {
	close(c.stop)
}
