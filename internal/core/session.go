package core

import (
	"sync"

	"github.com/dkeye/JanusRelay/internal/domain"
)

// Session is the state shared by the health loop and the relay of one stream.
// mu guards exactly the endpoints and the two flags; nothing slow runs under it.
type Session struct {
	stream domain.Stream

	mu               sync.Mutex
	endpoints        domain.Endpoints
	hasEndpoints     bool
	reconnect        bool
	awaitingKeyframe bool
}

type SessionSnapshot struct {
	Endpoints        *domain.Endpoints `json:"endpoints,omitempty"`
	ReconnectPending bool              `json:"reconnect_pending"`
	AwaitingKeyframe bool              `json:"awaiting_keyframe"`
}

func NewSession(stream domain.Stream) *Session {
	return &Session{stream: stream}
}

func (s *Session) Stream() domain.Stream { return s.stream }

// PublishEndpoints stores e and requests a reconnect when it differs from the
// endpoints known so far. It reports whether a reconnect was requested.
func (s *Session) PublishEndpoints(e domain.Endpoints) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasEndpoints && s.endpoints.Equal(e) {
		return false
	}
	s.endpoints = e.Clone()
	s.hasEndpoints = true
	s.reconnect = true
	return true
}

// PendingReconnect returns the endpoints to reopen sinks on, if a reconnect was requested.
func (s *Session) PendingReconnect() (domain.Endpoints, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.reconnect {
		return domain.Endpoints{}, false
	}
	return s.endpoints.Clone(), true
}

// AckReconnect is called once sinks for e are open. The request stays pending
// if newer endpoints were published meanwhile.
func (s *Session) AckReconnect(e domain.Endpoints) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaitingKeyframe = true
	if s.endpoints.Equal(e) {
		s.reconnect = false
	}
}

func (s *Session) KeyframeSeen() {
	s.mu.Lock()
	s.awaitingKeyframe = false
	s.mu.Unlock()
}

func (s *Session) AwaitingKeyframe() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaitingKeyframe
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := SessionSnapshot{
		ReconnectPending: s.reconnect,
		AwaitingKeyframe: s.awaitingKeyframe,
	}
	if s.hasEndpoints {
		e := s.endpoints.Clone()
		snap.Endpoints = &e
	}
	return snap
}
