// Package relay forwards encoded packets of one stream to the RTP endpoints of
// its mountpoint.
package relay

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/JanusRelay/internal/codec"
	"github.com/dkeye/JanusRelay/internal/core"
	"github.com/dkeye/JanusRelay/internal/domain"
	"github.com/dkeye/JanusRelay/internal/metrics"
)

type output struct {
	sink core.Sink
	// failing suppresses repeated write error logs until the next reconnect.
	failing bool
}

// Relay owns the sinks of a stream. It reads endpoint changes from the session
// but never talks to the control plane itself.
type Relay struct {
	session *core.Session
	opener  core.SinkOpener
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu     sync.Mutex
	video  output
	audio  output
	closed bool
}

func New(session *core.Session, opener core.SinkOpener, m *metrics.Metrics) *Relay {
	return &Relay{
		session: session,
		opener:  opener,
		metrics: m,
		logger: log.With().
			Str("module", "relay").
			Str("mountpoint", session.Stream().Mountpoint.ID).
			Logger(),
	}
}

// OnPacket forwards pkt, reopening the sinks first when the mountpoint moved.
// Packets are dropped while no sink is open or, after a reconnect, until the
// next video keyframe. Safe for concurrent use.
func (r *Relay) OnPacket(pkt domain.Packet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	if e, ok := r.session.PendingReconnect(); ok {
		if err := r.reconnect(e); err != nil {
			return err
		}
	}

	stream := r.session.Stream()
	switch {
	case pkt.Track == stream.Video.Index:
		return r.forwardVideo(pkt, stream.Video)
	case stream.Audio != nil && pkt.Track == stream.Audio.Index:
		return r.forwardAudio(pkt)
	}
	r.metrics.Packet("unknown", metrics.PacketDropped)
	return nil
}

func (r *Relay) forwardVideo(pkt domain.Packet, t domain.Track) error {
	kind := string(domain.KindVideo)
	if r.video.sink == nil {
		r.metrics.Packet(kind, metrics.PacketDropped)
		return nil
	}
	if pkt.Keyframe {
		r.session.KeyframeSeen()
		if codec.UsesInBandParameterSets(t.Codec) && len(t.Extradata) > 0 && codec.MissingParameterSets(t.Codec, pkt.Data) {
			pkt = pkt.WithPrefix(t.Extradata)
		}
	} else if r.session.AwaitingKeyframe() {
		r.metrics.Packet(kind, metrics.PacketGated)
		return nil
	}
	return r.write(&r.video, pkt, kind)
}

func (r *Relay) forwardAudio(pkt domain.Packet) error {
	kind := string(domain.KindAudio)
	if r.audio.sink == nil {
		r.metrics.Packet(kind, metrics.PacketDropped)
		return nil
	}
	if r.session.AwaitingKeyframe() {
		r.metrics.Packet(kind, metrics.PacketGated)
		return nil
	}
	return r.write(&r.audio, pkt, kind)
}

func (r *Relay) write(out *output, pkt domain.Packet, kind string) error {
	if err := out.sink.Write(pkt); err != nil {
		r.metrics.Packet(kind, metrics.PacketFailed)
		if !out.failing {
			out.failing = true
			r.logger.Error().Err(err).Str("kind", kind).Msg("sink write failed")
		}
		return fmt.Errorf("%w: %s: %w", core.ErrSinkWrite, kind, err)
	}
	out.failing = false
	r.metrics.Packet(kind, metrics.PacketForwarded)
	return nil
}

// reconnect replaces the sinks with ones bound to e. On failure no sink is
// left open and the reconnect stays pending.
func (r *Relay) reconnect(e domain.Endpoints) error {
	r.closeSinks()

	stream := r.session.Stream()
	video, err := r.opener.Open(e.Video, stream.Video)
	if err != nil {
		r.logger.Error().Err(err).Str("endpoint", e.Video.String()).Msg("open video sink")
		return fmt.Errorf("open video sink: %w", err)
	}
	r.video = output{sink: video}
	r.metrics.SinkOpened()

	if stream.Audio != nil && e.Audio != nil {
		audio, err := r.opener.Open(*e.Audio, *stream.Audio)
		if err != nil {
			r.logger.Error().Err(err).Str("endpoint", e.Audio.String()).Msg("open audio sink")
			r.closeSinks()
			return fmt.Errorf("open audio sink: %w", err)
		}
		r.audio = output{sink: audio}
		r.metrics.SinkOpened()
	}

	r.session.AckReconnect(e)
	ev := r.logger.Info().Str("video", e.Video.String())
	if r.audio.sink != nil {
		ev = ev.Str("audio", e.Audio.String())
	}
	ev.Msg("sinks reopened, waiting for keyframe")
	return nil
}

func (r *Relay) closeSinks() error {
	var errs []error
	for _, out := range []*output{&r.video, &r.audio} {
		if out.sink == nil {
			continue
		}
		if err := out.sink.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("close sink")
			errs = append(errs, err)
		}
		*out = output{}
	}
	return errors.Join(errs...)
}

// AwaitingKeyframe reports whether forwarding waits for a video keyframe.
func (r *Relay) AwaitingKeyframe() bool {
	return r.session.AwaitingKeyframe()
}

// Close closes the open sinks. Packets arriving afterwards are ignored and never
// reopen a sink.
func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return r.closeSinks()
}
