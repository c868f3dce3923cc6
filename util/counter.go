package util

import (
	"sync"
	"time"
)

const counterWindow = 2 * time.Second

// Counter measures the rate of Update calls over a sliding window. Used for
// the on-screen FPS readout and the capture rate gauge.
type Counter struct {
	mu    sync.Mutex
	times []time.Time

	// now is swapped out by tests.
	now func() time.Time
}

func NewCounter() *Counter {
	return &Counter{now: time.Now}
}

// Update records one event.
func (c *Counter) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now()
	c.times = append(c.times, t)
	cutoff := t.Add(-counterWindow)
	i := 0
	for i < len(c.times) && c.times[i].Before(cutoff) {
		i++
	}
	c.times = c.times[i:]
}

// FPS returns the measured rate, or 0 before two events have been seen.
func (c *Counter) FPS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.times) < 2 {
		return 0
	}
	el := c.times[len(c.times)-1].Sub(c.times[0]).Seconds()
	if el <= 0 {
		return 0
	}
	return float64(len(c.times)-1) / el
}
