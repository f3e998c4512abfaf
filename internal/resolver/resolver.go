package resolver

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/JinFuuMugen/coinshop/internal/clock"
	"github.com/JinFuuMugen/coinshop/internal/models"
)

const MinHandleLength = 2

type Config struct {
	Debounce time.Duration
	Latency  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Debounce: 600 * time.Millisecond,
		Latency:  time.Second,
	}
}

// Result is delivered for every settled lookup and for every clear. A nil
// Account with a nil Err means the account was cleared.
type Result struct {
	Handle  string
	Account *models.Account
	Err     error
}

// Resolver turns search text into an account. All methods must be called
// with mu held; timer callbacks take mu themselves, and notify is always
// invoked with mu held.
type Resolver struct {
	mu     sync.Locker
	sched  clock.Scheduler
	lookup AccountLookup
	cfg    Config
	notify func(Result)

	base     context.Context
	shutdown context.CancelFunc

	// debounceGen invalidates scheduled lookups, fireGen invalidates fired ones.
	debounceGen uint64
	fireGen     uint64
	debounce    clock.Timer
	latency     clock.Timer
	cancel      context.CancelFunc
	loading     bool
}

func New(mu sync.Locker, sched clock.Scheduler, lookup AccountLookup, cfg Config, notify func(Result)) *Resolver {
	base, shutdown := context.WithCancel(context.Background())
	return &Resolver{
		mu:       mu,
		sched:    sched,
		lookup:   lookup,
		cfg:      cfg,
		notify:   notify,
		base:     base,
		shutdown: shutdown,
	}
}

// Clean trims the text and strips one leading "@".
func Clean(text string) string {
	return strings.TrimPrefix(strings.TrimSpace(text), "@")
}

// Edit reacts to a change of the search text.
func (r *Resolver) Edit(text string) {
	handle := Clean(text)
	if utf8.RuneCountInString(handle) < MinHandleLength {
		r.Cancel()
		r.notify(Result{Handle: handle})
		return
	}

	r.stopDebounce()
	gen := r.debounceGen
	r.debounce = r.sched.AfterFunc(r.cfg.Debounce, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if gen != r.debounceGen {
			return
		}
		r.debounce = nil
		r.fire(handle)
	})
}

// Submit resolves the text right away, dropping any pending debounce.
func (r *Resolver) Submit(text string) {
	handle := Clean(text)
	if utf8.RuneCountInString(handle) < MinHandleLength {
		r.Cancel()
		r.notify(Result{Handle: handle})
		return
	}

	r.stopDebounce()
	r.fire(handle)
}

// Cancel drops the scheduled and the in-flight lookup without notifying.
func (r *Resolver) Cancel() {
	r.stopDebounce()
	r.stopFired()
	r.loading = false
}

func (r *Resolver) Loading() bool {
	return r.loading
}

func (r *Resolver) Close() {
	r.Cancel()
	r.shutdown()
}

func (r *Resolver) fire(handle string) {
	r.stopFired()

	ctx, cancel := context.WithCancel(r.base)
	r.cancel = cancel
	r.loading = true

	gen := r.fireGen
	r.latency = r.sched.AfterFunc(r.cfg.Latency, func() {
		r.mu.Lock()
		if gen != r.fireGen {
			r.mu.Unlock()
			return
		}
		r.latency = nil
		r.mu.Unlock()

		acct, err := r.lookup.Lookup(ctx, handle)

		r.mu.Lock()
		defer r.mu.Unlock()

		if gen != r.fireGen {
			return
		}
		r.loading = false
		r.cancel = nil
		cancel()

		if err != nil {
			r.notify(Result{Handle: handle, Err: err})
			return
		}
		r.notify(Result{Handle: handle, Account: &acct})
	})
}

func (r *Resolver) stopDebounce() {
	r.debounceGen++
	if r.debounce != nil {
		r.debounce.Stop()
		r.debounce = nil
	}
}

func (r *Resolver) stopFired() {
	r.fireGen++
	if r.latency != nil {
		r.latency.Stop()
		r.latency = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
