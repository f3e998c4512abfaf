package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JinFuuMugen/coinshop/internal/clock"
	"github.com/JinFuuMugen/coinshop/internal/models"
	"github.com/google/uuid"
)

const DefaultLatency = 1500 * time.Millisecond

func NewReceipt(order models.Order, method models.PaymentMethod, paidAt time.Time) models.Receipt {
	return models.Receipt{
		OrderID: order.ID,
		Coins:   order.Coins,
		Handle:  order.Handle,
		Price:   order.Price,
		Method:  method.Label,
		PaidAt:  paidAt,
	}
}

// Simulator charges an order through the gateway after a fixed latency.
// One charge runs at a time and a settled order is never charged twice.
// Methods expect mu to be held; done is invoked with mu held.
type Simulator struct {
	mu      sync.Locker
	sched   clock.Scheduler
	gateway Gateway
	latency time.Duration

	base     context.Context
	shutdown context.CancelFunc

	gen      uint64
	timer    clock.Timer
	cancel   context.CancelFunc
	inflight uuid.UUID
	settled  map[uuid.UUID]struct{}
}

func NewSimulator(mu sync.Locker, sched clock.Scheduler, gateway Gateway, latency time.Duration) *Simulator {
	base, shutdown := context.WithCancel(context.Background())
	return &Simulator{
		mu:       mu,
		sched:    sched,
		gateway:  gateway,
		latency:  latency,
		base:     base,
		shutdown: shutdown,
		settled:  make(map[uuid.UUID]struct{}),
	}
}

func (s *Simulator) Charge(order models.Order, method models.PaymentMethod, done func(models.Receipt, error)) error {
	if s.inflight != uuid.Nil {
		return ErrChargeInFlight
	}
	if _, ok := s.settled[order.ID]; ok {
		return ErrAlreadyCharged
	}

	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(s.base)
	s.cancel = cancel
	s.inflight = order.ID

	s.timer = s.sched.AfterFunc(s.latency, func() {
		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()

		receipt, err := s.gateway.Charge(ctx, order, method)

		s.mu.Lock()
		defer s.mu.Unlock()

		if gen != s.gen {
			return
		}
		cancel()
		s.cancel = nil
		s.inflight = uuid.Nil

		if err != nil {
			var perr *PaymentError
			if !errors.As(err, &perr) {
				perr = &PaymentError{OrderID: order.ID, Reason: err.Error(), Err: err}
			}
			done(models.Receipt{}, perr)
			return
		}
		s.settled[order.ID] = struct{}{}
		done(receipt, nil)
	})

	return nil
}

func (s *Simulator) InFlight() bool {
	return s.inflight != uuid.Nil
}

// Cancel abandons the running charge; its completion is never delivered.
func (s *Simulator) Cancel() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.inflight = uuid.Nil
}

func (s *Simulator) Close() {
	s.Cancel()
	s.shutdown()
}
