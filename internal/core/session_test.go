package core

import (
	"sync"
	"testing"

	"github.com/dkeye/JanusRelay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func endpoints(video, audio int) domain.Endpoints {
	e := domain.Endpoints{Video: domain.Endpoint{Host: "janus", Port: video}}
	if audio > 0 {
		e.Audio = &domain.Endpoint{Host: "janus", Port: audio}
	}
	return e
}

func TestSessionPublishEndpoints(t *testing.T) {
	s := NewSession(domain.Stream{})

	_, pending := s.PendingReconnect()
	assert.False(t, pending)

	assert.True(t, s.PublishEndpoints(endpoints(5000, 0)))
	e, pending := s.PendingReconnect()
	require.True(t, pending)
	assert.Equal(t, 5000, e.Video.Port)

	s.AckReconnect(e)
	_, pending = s.PendingReconnect()
	assert.False(t, pending)
	assert.True(t, s.AwaitingKeyframe())

	assert.False(t, s.PublishEndpoints(endpoints(5000, 0)), "same ports must not request a reconnect")
	_, pending = s.PendingReconnect()
	assert.False(t, pending)

	assert.True(t, s.PublishEndpoints(endpoints(5000, 5002)))
	_, pending = s.PendingReconnect()
	assert.True(t, pending)
}

func TestSessionAckKeepsNewerRequest(t *testing.T) {
	s := NewSession(domain.Stream{})
	s.PublishEndpoints(endpoints(5000, 0))
	first, _ := s.PendingReconnect()

	s.PublishEndpoints(endpoints(6000, 0))
	s.AckReconnect(first)

	e, pending := s.PendingReconnect()
	require.True(t, pending)
	assert.Equal(t, 6000, e.Video.Port)
}

func TestSessionKeyframe(t *testing.T) {
	s := NewSession(domain.Stream{})
	s.PublishEndpoints(endpoints(5000, 0))
	e, _ := s.PendingReconnect()
	s.AckReconnect(e)
	require.True(t, s.AwaitingKeyframe())

	s.KeyframeSeen()
	assert.False(t, s.AwaitingKeyframe())
}

func TestSessionSnapshotIsDetached(t *testing.T) {
	s := NewSession(domain.Stream{})
	assert.Nil(t, s.Snapshot().Endpoints)

	s.PublishEndpoints(endpoints(5000, 5002))
	snap := s.Snapshot()
	require.NotNil(t, snap.Endpoints)
	snap.Endpoints.Audio.Port = 1

	e, _ := s.PendingReconnect()
	assert.Equal(t, 5002, e.Audio.Port)
	assert.True(t, snap.ReconnectPending)
}

func TestSessionConcurrentAccess(t *testing.T) {
	s := NewSession(domain.Stream{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.PublishEndpoints(endpoints(5000+i%3, 6000+i%3))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if e, ok := s.PendingReconnect(); ok {
				// Both ports always come from the same publish call.
				assert.Equal(t, e.Video.Port+1000, e.Audio.Port)
				s.AckReconnect(e)
			}
			s.KeyframeSeen()
		}
	}()
	wg.Wait()
}
