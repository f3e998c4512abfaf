package countdown

import (
	"fmt"
	"sync"
	"time"

	"github.com/JinFuuMugen/coinshop/internal/clock"
)

const (
	DefaultStart = 300 * time.Second
	Tick         = time.Second
)

// Countdown ticks down once a second while it is shown. Reaching zero only
// stops the ticking. Like the resolver, methods expect mu to be held.
type Countdown struct {
	mu    sync.Locker
	sched clock.Scheduler
	start time.Duration

	remaining time.Duration
	running   bool
	timer     clock.Timer
	gen       uint64
}

func New(mu sync.Locker, sched clock.Scheduler, start time.Duration) *Countdown {
	return &Countdown{mu: mu, sched: sched, start: start, remaining: start}
}

// Start rewinds to the configured start and begins ticking.
func (c *Countdown) Start() {
	c.Stop()
	c.remaining = c.start
	c.running = true
	c.schedule()
}

func (c *Countdown) Stop() {
	c.gen++
	c.running = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Countdown) Running() bool {
	return c.running
}

func (c *Countdown) Remaining() time.Duration {
	return c.remaining
}

func (c *Countdown) String() string {
	return Format(c.remaining)
}

func (c *Countdown) schedule() {
	if c.remaining <= 0 {
		c.running = false
		c.timer = nil
		return
	}

	gen := c.gen
	c.timer = c.sched.AfterFunc(Tick, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if gen != c.gen {
			return
		}
		c.remaining -= Tick
		if c.remaining < 0 {
			c.remaining = 0
		}
		c.schedule()
	})
}

// Format renders whole seconds as MM:SS.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
