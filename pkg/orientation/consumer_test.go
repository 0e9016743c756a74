package orientation

import (
	"math"
	"sync"
	"testing"
	"time"

	"groundlink/pkg/telemetry"
)

func TestConsumerDefaults(t *testing.T) {
	c := NewConsumer(0, 0)
	if c.step != DefaultSmoothing {
		t.Errorf("step = %v, want default %v", c.step, DefaultSmoothing)
	}
	if c.rate != DefaultTickRate {
		t.Errorf("rate = %v, want default %v", c.rate, DefaultTickRate)
	}
	if !quatEquals(c.Current(), Identity()) {
		t.Errorf("initial pose = %+v, want identity", c.Current())
	}
}

func TestConsumerAdvanceConverges(t *testing.T) {
	c := NewConsumer(0.1, time.Millisecond)
	target := FromEuler(0.5, -0.2, 1.0)
	c.SetTarget(target)

	prev := c.Current().AngleTo(target)
	for i := 0; i < 150; i++ {
		cur := c.Advance()
		angle := cur.AngleTo(target)
		if angle > prev+1e-12 {
			t.Fatalf("step %d: angle grew from %v to %v", i, prev, angle)
		}
		prev = angle
	}
	if prev > 1e-5 {
		t.Errorf("angle to target after 150 steps = %v, want ~0", prev)
	}

	cur, tgt := c.Snapshot()
	if !quatEquals(cur, c.Current()) || !quatEquals(tgt, target) {
		t.Errorf("Snapshot = (%+v, %+v)", cur, tgt)
	}
}

func TestConsumerIngest(t *testing.T) {
	c := NewConsumer(1, time.Millisecond)
	p := &telemetry.Packet{Yaw: 90}
	c.Ingest(p)

	got := c.Advance()
	want := TargetFromPacket(p)
	if !quatEquals(got, want) {
		t.Errorf("pose after full-step advance = %+v, want %+v", got, want)
	}
}

func TestConsumerRunStop(t *testing.T) {
	c := NewConsumer(0.2, time.Millisecond)
	c.SetTarget(FromEuler(0, 0, math.Pi/2))

	done := make(chan struct{})
	go func() {
		c.Run()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	c.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}

	if angle := c.Current().AngleTo(c.Target()); angle > 0.1 {
		t.Errorf("loop made little progress: angle to target = %v", angle)
	}
}

func TestConsumerConcurrentAccess(t *testing.T) {
	c := NewConsumer(0.1, time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(yaw float64) {
			defer wg.Done()
			c.Ingest(&telemetry.Packet{Yaw: yaw})
		}(float64(i * 10))
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance()
			_ = c.Current()
		}()
	}
	wg.Wait()
}
