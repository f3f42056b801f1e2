// Package orch ties a published stream to its health loop and relay.
package orch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/JanusRelay/internal/app/health"
	"github.com/dkeye/JanusRelay/internal/app/relay"
	"github.com/dkeye/JanusRelay/internal/codec"
	"github.com/dkeye/JanusRelay/internal/core"
	"github.com/dkeye/JanusRelay/internal/domain"
	"github.com/dkeye/JanusRelay/internal/metrics"
)

var (
	ErrStreamActive = errors.New("a stream is already active")
	ErrNoStream     = errors.New("no active stream")
)

type activeStream struct {
	session *core.Session
	loop    *health.Loop
	relay   *relay.Relay
}

// Orchestrator runs at most one stream at a time.
type Orchestrator struct {
	Mountpoint  domain.Mountpoint
	Provisioner core.Provisioner
	Opener      core.SinkOpener
	Health      health.Config
	Metrics     *metrics.Metrics

	logger zerolog.Logger

	mu     sync.Mutex
	active *activeStream
}

func New(mp domain.Mountpoint, p core.Provisioner, o core.SinkOpener, hc health.Config, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		Mountpoint:  mp,
		Provisioner: p,
		Opener:      o,
		Health:      hc,
		Metrics:     m,
		logger:      log.With().Str("module", "orch").Str("mountpoint", mp.ID).Logger(),
	}
}

// StartStream validates the tracks, starts keeping the mountpoint provisioned
// and returns the relay packets of the stream go to. The health loop lives
// until StopStream or until ctx is done.
func (o *Orchestrator) StartStream(ctx context.Context, tracks []domain.Track) (*relay.Relay, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return nil, ErrStreamActive
	}

	prepared := make([]domain.Track, 0, len(tracks))
	for _, t := range tracks {
		p, err := codec.Prepare(t)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", t.Index, err)
		}
		prepared = append(prepared, p)
	}
	stream, err := domain.NewStream(o.Mountpoint, prepared)
	if err != nil {
		return nil, err
	}

	session := core.NewSession(stream)
	a := &activeStream{
		session: session,
		loop:    health.NewLoop(o.Provisioner, session, o.Health, o.Metrics),
		relay:   relay.New(session, o.Opener, o.Metrics),
	}
	a.loop.Start(ctx)
	o.active = a

	ev := o.logger.Info().Str("video", string(stream.Video.Codec))
	if stream.HasAudio() {
		ev = ev.Str("audio", string(stream.Audio.Codec))
	}
	ev.Msg("stream started")
	return a.relay, nil
}

// StopStream stops the health loop, waits for it and then closes the sinks.
func (o *Orchestrator) StopStream() error {
	o.mu.Lock()
	a := o.active
	o.active = nil
	o.mu.Unlock()
	if a == nil {
		return ErrNoStream
	}

	a.loop.Stop()
	err := a.relay.Close()
	o.logger.Info().Err(err).Msg("stream stopped")
	return err
}

type StreamStatus struct {
	Active     bool           `json:"active"`
	Mountpoint string         `json:"mountpoint"`
	State      string         `json:"state,omitempty"`
	Stream     *domain.Stream `json:"stream,omitempty"`
	core.SessionSnapshot
}

func (o *Orchestrator) Status() StreamStatus {
	o.mu.Lock()
	a := o.active
	o.mu.Unlock()

	st := StreamStatus{Mountpoint: o.Mountpoint.ID}
	if a == nil {
		return st
	}
	stream := a.session.Stream()
	st.Active = true
	st.State = a.loop.State()
	st.Stream = &stream
	st.SessionSnapshot = a.session.Snapshot()
	return st
}

// SessionDescription renders the SDP of the active stream's mountpoint.
func (o *Orchestrator) SessionDescription() ([]byte, error) {
	o.mu.Lock()
	a := o.active
	o.mu.Unlock()
	if a == nil {
		return nil, ErrNoStream
	}
	return codec.SessionDescription(a.session.Stream(), a.session.Snapshot().Endpoints)
}
