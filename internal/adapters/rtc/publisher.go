package rtc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/samplebuilder"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/JanusRelay/internal/codec"
	"github.com/dkeye/JanusRelay/internal/domain"
)

const (
	// maxLate is the reorder window of the video sample builder, in packets.
	maxLate         = 256
	keyframeRequest = time.Second
)

// Ingest consumes the packets of a published stream.
type Ingest interface {
	OnPacket(pkt domain.Packet) error
	AwaitingKeyframe() bool
}

// Handlers connect a publisher to the stream it feeds. Start is called once
// every announced track arrived; Stop once the peer is gone, only if Start
// succeeded. Closed always runs once the peer is gone.
type Handlers struct {
	Start  func(tracks []domain.Track) (Ingest, error)
	Stop   func()
	Closed func()
}

type remoteTrack struct {
	remote *webrtc.TrackRemote
	track  domain.Track
}

// Publisher feeds the tracks of one WHIP peer into an Ingest.
type Publisher struct {
	ID       string
	conn     *Connection
	offer    Offer
	handlers Handlers
	logger   zerolog.Logger

	mu      sync.Mutex
	tracks  map[domain.TrackKind]remoteTrack
	started bool

	// ingest is set before ready is closed.
	ingest    Ingest
	ready     chan struct{}
	closeOnce sync.Once
}

func NewPublisher(id string, conn *Connection, offer Offer, h Handlers) *Publisher {
	p := &Publisher{
		ID:       id,
		conn:     conn,
		offer:    offer,
		handlers: h,
		logger:   log.With().Str("module", "rtc.publisher").Str("whip_id", id).Logger(),
		tracks:   make(map[domain.TrackKind]remoteTrack, 2),
		ready:    make(chan struct{}),
	}
	conn.OnTrack(p.onTrack)
	conn.OnClosed(p.onClosed)
	return p
}

func (p *Publisher) Close() {
	p.conn.Close()
}

func (p *Publisher) onClosed() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		ingest := p.ingest
		p.mu.Unlock()
		if ingest != nil && p.handlers.Stop != nil {
			p.handlers.Stop()
		}
		if p.handlers.Closed != nil {
			p.handlers.Closed()
		}
		p.logger.Info().Msg("publisher gone")
	})
}

func (p *Publisher) onTrack(ctx context.Context, remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	t, err := trackFromCodec(remote.Codec())
	if err != nil {
		p.logger.Error().Err(err).Msg("rejecting publisher")
		go p.Close()
		return
	}

	p.mu.Lock()
	if _, dup := p.tracks[t.Kind]; dup {
		p.mu.Unlock()
		p.logger.Warn().Str("kind", string(t.Kind)).Msg("ignoring extra track")
		return
	}
	p.tracks[t.Kind] = remoteTrack{remote: remote, track: t}
	complete := len(p.tracks) == p.offer.Tracks() && !p.started
	if complete {
		p.started = true
	}
	p.mu.Unlock()

	if complete {
		p.begin()
	}

	select {
	case <-p.ready:
	case <-ctx.Done():
		return
	}
	if p.ingest == nil {
		return
	}

	if t.Kind == domain.KindVideo {
		go p.requestKeyframes(ctx, remote.SSRC())
		p.readVideo(remote, t)
		return
	}
	p.readAudio(remote, t)
}

func (p *Publisher) begin() {
	p.mu.Lock()
	tracks := make([]domain.Track, 0, len(p.tracks))
	for _, kind := range []domain.TrackKind{domain.KindVideo, domain.KindAudio} {
		if rt, ok := p.tracks[kind]; ok {
			tracks = append(tracks, rt.track)
		}
	}
	p.mu.Unlock()

	ingest, err := p.handlers.Start(tracks)
	if err != nil {
		p.logger.Error().Err(err).Msg("start stream")
		close(p.ready)
		go p.Close()
		return
	}
	p.mu.Lock()
	p.ingest = ingest
	p.mu.Unlock()
	close(p.ready)
	p.logger.Info().Int("tracks", len(tracks)).Msg("publishing")
}

func (p *Publisher) readVideo(remote *webrtc.TrackRemote, t domain.Track) {
	c, _ := lookupCodec(remote.Codec().MimeType)
	sb := samplebuilder.New(maxLate, c.depacketizer(), remote.Codec().ClockRate)
	for {
		pkt, _, err := remote.ReadRTP()
		if err != nil {
			p.logger.Debug().Err(err).Msg("video track ended")
			return
		}
		sb.Push(pkt)
		for s := sb.Pop(); s != nil; s = sb.Pop() {
			p.deliver(domain.Packet{
				Track:     t.Index,
				Data:      s.Data,
				Keyframe:  codec.IsKeyframe(t.Codec, s.Data),
				Timestamp: s.PacketTimestamp,
			})
		}
	}
}

func (p *Publisher) readAudio(remote *webrtc.TrackRemote, t domain.Track) {
	for {
		pkt, _, err := remote.ReadRTP()
		if err != nil {
			p.logger.Debug().Err(err).Msg("audio track ended")
			return
		}
		if len(pkt.Payload) == 0 {
			continue
		}
		p.deliver(domain.Packet{Track: t.Index, Data: pkt.Payload, Timestamp: pkt.Timestamp})
	}
}

func (p *Publisher) deliver(pkt domain.Packet) {
	if err := p.ingest.OnPacket(pkt); err != nil {
		p.logger.Debug().Err(err).Int("track", pkt.Track).Msg("packet not forwarded")
	}
}

// requestKeyframes asks the publisher for a keyframe while the relay waits
// for one, at most once per interval.
func (p *Publisher) requestKeyframes(ctx context.Context, ssrc webrtc.SSRC) {
	ticker := time.NewTicker(keyframeRequest)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.ingest.AwaitingKeyframe() {
				continue
			}
			if err := p.conn.RequestKeyframe(ssrc); err != nil {
				p.logger.Warn().Err(fmt.Errorf("pli: %w", err)).Msg("keyframe request failed")
			}
		}
	}
}
