// Package clock schedules delayed callbacks. Real uses the runtime timers;
// Virtual only moves when Advance is called, which lets tests drive every
// debounce, latency and tick deterministically.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancellation handle for a scheduled callback. Stop reports
// whether the call prevented the callback from running.
type Timer interface {
	Stop() bool
}

type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Virtual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*virtualTimer
}

type virtualTimer struct {
	v    *Virtual
	when time.Time
	seq  uint64
	f    func()
}

func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.seq++
	t := &virtualTimer{v: v, when: v.now.Add(d), seq: v.seq, f: f}
	v.timers = append(v.timers, t)
	return t
}

// Advance moves virtual time forward by d, running every callback that
// falls due on the way in deadline order. Callbacks run on the caller's
// goroutine without internal locks held, so they may schedule or stop
// timers; new timers due within the window also fire.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()

	for {
		v.mu.Lock()
		next := v.popDue(target)
		if next == nil {
			v.now = target
			v.mu.Unlock()
			return
		}
		v.now = next.when
		v.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of scheduled callbacks that have not fired
// or been stopped.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.timers)
}

func (v *Virtual) popDue(target time.Time) *virtualTimer {
	if len(v.timers) == 0 {
		return nil
	}

	sort.Slice(v.timers, func(i, j int) bool {
		if v.timers[i].when.Equal(v.timers[j].when) {
			return v.timers[i].seq < v.timers[j].seq
		}
		return v.timers[i].when.Before(v.timers[j].when)
	})

	t := v.timers[0]
	if t.when.After(target) {
		return nil
	}
	v.timers = v.timers[1:]
	return t
}

func (t *virtualTimer) Stop() bool {
	t.v.mu.Lock()
	defer t.v.mu.Unlock()

	for i, other := range t.v.timers {
		if other == t {
			t.v.timers = append(t.v.timers[:i], t.v.timers[i+1:]...)
			return true
		}
	}
	return false
}
