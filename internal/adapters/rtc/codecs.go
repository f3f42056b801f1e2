package rtc

import (
	"fmt"
	"strings"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4"

	"github.com/dkeye/JanusRelay/internal/core"
	"github.com/dkeye/JanusRelay/internal/domain"
)

const (
	videoIndex = 0
	audioIndex = 1
)

type ingestCodec struct {
	id           domain.CodecID
	kind         domain.TrackKind
	sampleRate   int
	depacketizer func() rtp.Depacketizer
}

// ingestCodecs lists what a publisher may send. Keys are lower case mime types.
var ingestCodecs = map[string]ingestCodec{
	strings.ToLower(webrtc.MimeTypeH264): {id: domain.CodecH264, kind: domain.KindVideo,
		depacketizer: func() rtp.Depacketizer { return &codecs.H264Packet{} }},
	strings.ToLower(webrtc.MimeTypeVP8): {id: domain.CodecVP8, kind: domain.KindVideo,
		depacketizer: func() rtp.Depacketizer { return &codecs.VP8Packet{} }},
	strings.ToLower(webrtc.MimeTypeVP9): {id: domain.CodecVP9, kind: domain.KindVideo,
		depacketizer: func() rtp.Depacketizer { return &codecs.VP9Packet{} }},
	strings.ToLower(webrtc.MimeTypeOpus): {id: domain.CodecOpus, kind: domain.KindAudio, sampleRate: 48000},
	strings.ToLower(webrtc.MimeTypeG722): {id: domain.CodecG722, kind: domain.KindAudio, sampleRate: 16000},
	strings.ToLower(webrtc.MimeTypePCMU): {id: domain.CodecPCMU, kind: domain.KindAudio, sampleRate: 8000},
	strings.ToLower(webrtc.MimeTypePCMA): {id: domain.CodecPCMA, kind: domain.KindAudio, sampleRate: 8000},
}

func lookupCodec(mime string) (ingestCodec, bool) {
	c, ok := ingestCodecs[strings.ToLower(mime)]
	return c, ok
}

// trackFromCodec describes a negotiated remote track in domain terms.
func trackFromCodec(p webrtc.RTPCodecParameters) (domain.Track, error) {
	c, ok := lookupCodec(p.MimeType)
	if !ok {
		return domain.Track{}, fmt.Errorf("%w: %s", core.ErrUnsupportedCodec, p.MimeType)
	}
	t := domain.Track{
		Kind:      c.kind,
		Codec:     c.id,
		ClockRate: p.ClockRate,
	}
	if c.kind == domain.KindVideo {
		t.Index = videoIndex
		return t, nil
	}
	t.Index = audioIndex
	t.SampleRate = c.sampleRate
	t.Channels = int(p.Channels)
	if t.Channels == 0 {
		t.Channels = 1
	}
	return t, nil
}

var videoFeedback = []webrtc.RTCPFeedback{
	{Type: "nack"},
	{Type: "nack", Parameter: "pli"},
	{Type: "ccm", Parameter: "fir"},
	{Type: "goog-remb"},
}

// NewAPI builds a WebRTC API that negotiates only codecs the relay can send
// on to a mountpoint.
func NewAPI() (*webrtc.API, error) {
	m := &webrtc.MediaEngine{}
	video := []webrtc.RTPCodecParameters{
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264, ClockRate: 90000,
			SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f", RTCPFeedback: videoFeedback},
			PayloadType: 102},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264, ClockRate: 90000,
			SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=640032", RTCPFeedback: videoFeedback},
			PayloadType: 112},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000,
			RTCPFeedback: videoFeedback}, PayloadType: 96},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP9, ClockRate: 90000,
			SDPFmtpLine: "profile-id=0", RTCPFeedback: videoFeedback}, PayloadType: 98},
	}
	audio := []webrtc.RTPCodecParameters{
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2,
			SDPFmtpLine: "minptime=10;useinbandfec=1"}, PayloadType: 111},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeG722, ClockRate: 8000}, PayloadType: 9},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypePCMU, ClockRate: 8000}, PayloadType: 0},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypePCMA, ClockRate: 8000}, PayloadType: 8},
	}
	for _, c := range video {
		if err := m.RegisterCodec(c, webrtc.RTPCodecTypeVideo); err != nil {
			return nil, fmt.Errorf("register %s: %w", c.MimeType, err)
		}
	}
	for _, c := range audio {
		if err := m.RegisterCodec(c, webrtc.RTPCodecTypeAudio); err != nil {
			return nil, fmt.Errorf("register %s: %w", c.MimeType, err)
		}
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, registry); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}
	return webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithInterceptorRegistry(registry)), nil
}
