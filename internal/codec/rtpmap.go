// Package codec maps track descriptors onto the RTP attributes Janus needs to
// create a mountpoint and knows the few bitstream details the relay depends on.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dkeye/JanusRelay/internal/core"
	"github.com/dkeye/JanusRelay/internal/domain"
)

var ErrInvalidExtradata = errors.New("invalid codec extradata")

// RTPMap is the rtpmap attribute value without the payload type.
type RTPMap struct {
	Name      string
	ClockRate uint32
	// Channels is omitted from the string when zero.
	Channels uint16
}

func (m RTPMap) String() string {
	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteByte('/')
	b.WriteString(strconv.FormatUint(uint64(m.ClockRate), 10))
	if m.Channels > 0 {
		b.WriteByte('/')
		b.WriteString(strconv.FormatUint(uint64(m.Channels), 10))
	}
	return b.String()
}

// Description is what a mountpoint needs to know about one track.
type Description struct {
	RTPMap      RTPMap
	FMTP        string
	PayloadType uint8
}

type mapFunc func(t domain.Track) RTPMap

func fixed(name string, clock uint32) mapFunc {
	return func(domain.Track) RTPMap { return RTPMap{Name: name, ClockRate: clock} }
}

func rateChannels(name string) mapFunc {
	return func(t domain.Track) RTPMap {
		return RTPMap{Name: name, ClockRate: uint32(t.SampleRate), Channels: uint16(t.Channels)}
	}
}

func rateOnly(name string) mapFunc {
	return func(t domain.Track) RTPMap { return RTPMap{Name: name, ClockRate: uint32(t.SampleRate)} }
}

var rtpMaps = map[domain.CodecID]mapFunc{
	domain.CodecVC2:    fixed("VC2", 90000),
	domain.CodecH264:   fixed("H264", 90000),
	domain.CodecH261:   fixed("H261", 90000),
	domain.CodecH263:   fixed("H263-2000", 90000),
	domain.CodecH263P:  fixed("H263-2000", 90000),
	domain.CodecH265:   fixed("H265", 90000),
	domain.CodecMPEG4:  fixed("MP4V-ES", 90000),
	domain.CodecTheora: fixed("theora", 90000),
	domain.CodecMJPEG:  fixed("JPEG", 90000),
	domain.CodecVP8:    fixed("VP8", 90000),
	domain.CodecVP9:    fixed("VP9", 90000),

	domain.CodecAAC: func(t domain.Track) RTPMap {
		name := "MPEG4-GENERIC"
		if t.LATM {
			name = "MP4A-LATM"
		}
		return RTPMap{Name: name, ClockRate: uint32(t.SampleRate), Channels: uint16(t.Channels)}
	},
	domain.CodecL16:    rateChannels("L16"),
	domain.CodecPCMU:   rateChannels("PCMU"),
	domain.CodecPCMA:   rateChannels("PCMA"),
	domain.CodecAMRNB:  rateChannels("AMR"),
	domain.CodecAMRWB:  rateChannels("AMR-WB"),
	domain.CodecVorbis: rateChannels("vorbis"),
	// G.722 keeps the 8000 Hz clock of RFC 3551 whatever the sample rate.
	domain.CodecG722: func(t domain.Track) RTPMap {
		return RTPMap{Name: "G722", ClockRate: 8000, Channels: uint16(t.Channels)}
	},
	domain.CodecG726: func(t domain.Track) RTPMap {
		return RTPMap{Name: fmt.Sprintf("G726-%d", t.BitsPerCodedSample*8), ClockRate: uint32(t.SampleRate)}
	},
	domain.CodecILBC:  rateOnly("iLBC"),
	domain.CodecSpeex: rateOnly("speex"),
	domain.CodecOpus:  fixedChannels("opus", 48000, 2),
}

func fixedChannels(name string, clock uint32, channels uint16) mapFunc {
	return func(domain.Track) RTPMap { return RTPMap{Name: name, ClockRate: clock, Channels: channels} }
}

// Supported reports whether the codec can be announced to Janus.
func Supported(id domain.CodecID) bool {
	_, ok := rtpMaps[id]
	return ok
}

// Describe returns the rtpmap, fmtp and payload type of a track.
// The fmtp may be empty when the codec has none or the extradata is unusable.
func Describe(t domain.Track) (Description, error) {
	m, ok := rtpMaps[t.Codec]
	if !ok {
		return Description{}, fmt.Errorf("%w: %s", core.ErrUnsupportedCodec, t.Codec)
	}
	fmtp, err := FormatParameters(t)
	if err != nil {
		return Description{}, err
	}
	return Description{
		RTPMap:      m(t),
		FMTP:        fmtp,
		PayloadType: PayloadType(t),
	}, nil
}
