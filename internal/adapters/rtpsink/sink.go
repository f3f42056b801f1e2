// Package rtpsink packetizes access units into RTP and sends them over UDP.
package rtpsink

import (
	"fmt"
	"math/rand/v2"
	"net"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/JanusRelay/internal/core"
	"github.com/dkeye/JanusRelay/internal/domain"
)

const DefaultMTU = 1200

func payloader(id domain.CodecID) (rtp.Payloader, bool) {
	switch id {
	case domain.CodecH264:
		return &codecs.H264Payloader{}, true
	case domain.CodecH265:
		return &codecs.H265Payloader{}, true
	case domain.CodecVP8:
		return &codecs.VP8Payloader{EnablePictureID: true}, true
	case domain.CodecVP9:
		return &codecs.VP9Payloader{}, true
	case domain.CodecOpus:
		return &codecs.OpusPayloader{}, true
	case domain.CodecPCMU, domain.CodecPCMA:
		return &codecs.G711Payloader{}, true
	case domain.CodecG722:
		return &codecs.G722Payloader{}, true
	}
	return nil, false
}

// Supported reports whether tracks of the codec can be sent.
func Supported(id domain.CodecID) bool {
	_, ok := payloader(id)
	return ok
}

type Opener struct {
	mtu    uint16
	logger zerolog.Logger
}

func NewOpener(mtu uint16) *Opener {
	if mtu == 0 {
		mtu = DefaultMTU
	}
	return &Opener{mtu: mtu, logger: log.With().Str("module", "rtpsink").Logger()}
}

var _ core.SinkOpener = (*Opener)(nil)

func (o *Opener) Open(ep domain.Endpoint, track domain.Track) (core.Sink, error) {
	p, ok := payloader(track.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: no payloader for %s", core.ErrUnsupportedCodec, track.Codec)
	}
	conn, err := net.Dial("udp", ep.String())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", ep, err)
	}
	ssrc := rand.Uint32()
	o.logger.Debug().
		Str("endpoint", ep.String()).
		Str("codec", string(track.Codec)).
		Uint32("ssrc", ssrc).
		Msg("sink opened")
	return &Sink{
		conn:       conn,
		packetizer: rtp.NewPacketizer(o.mtu, track.PayloadType, ssrc, p, rtp.NewRandomSequencer(), track.ClockRate),
	}, nil
}

// Sink is bound to one UDP endpoint. Not safe for concurrent use.
type Sink struct {
	conn       net.Conn
	packetizer rtp.Packetizer

	started bool
	last    uint32
}

// Write sends pkt as one or more RTP packets. RTP timestamps advance by the
// distance between consecutive packet timestamps.
func (s *Sink) Write(pkt domain.Packet) error {
	if s.started {
		s.packetizer.SkipSamples(pkt.Timestamp - s.last)
	}
	s.started = true
	s.last = pkt.Timestamp

	for _, p := range s.packetizer.Packetize(pkt.Data, 0) {
		raw, err := p.Marshal()
		if err != nil {
			return fmt.Errorf("%w: marshal rtp: %w", core.ErrSinkWrite, err)
		}
		if _, err := s.conn.Write(raw); err != nil {
			return fmt.Errorf("%w: %w", core.ErrSinkWrite, err)
		}
	}
	return nil
}

func (s *Sink) Close() error {
	return s.conn.Close()
}
