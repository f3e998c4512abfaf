package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JinFuuMugen/coinshop/internal/clock"
	"github.com/JinFuuMugen/coinshop/internal/workflow"
)

var ErrNotFound = errors.New("session not found")

type Factory func() *workflow.Controller

type entry struct {
	flow     *workflow.Controller
	lastSeen time.Time
}

// Manager keeps one purchase flow per client.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
	factory  Factory
	clock    clock.Scheduler
	ttl      time.Duration
}

func NewManager(factory Factory, sched clock.Scheduler, ttl time.Duration) *Manager {
	if sched == nil {
		sched = clock.Real{}
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*entry),
		factory:  factory,
		clock:    sched,
		ttl:      ttl,
	}
}

func (m *Manager) Create() (uuid.UUID, *workflow.Controller) {
	id := uuid.New()
	flow := m.factory()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &entry{flow: flow, lastSeen: m.clock.Now()}
	return id, flow
}

// Get returns the flow of a live session and marks it as used.
func (m *Manager) Get(id uuid.UUID) (*workflow.Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = m.clock.Now()
	return e.flow, nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes and forgets sessions idle for longer than the ttl and
// returns how many were dropped.
func (m *Manager) Sweep() int {
	now := m.clock.Now()

	m.mu.Lock()
	var expired []*workflow.Controller
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) > m.ttl {
			expired = append(expired, e.flow)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, flow := range expired {
		flow.Close()
	}
	return len(expired)
}

// Close shuts every session down.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*entry)
	m.mu.Unlock()

	for _, e := range sessions {
		e.flow.Close()
	}
}
