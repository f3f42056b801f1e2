package codec

import (
	"fmt"

	"github.com/dkeye/JanusRelay/internal/core"
	"github.com/dkeye/JanusRelay/internal/domain"
)

// UsesInBandParameterSets reports whether decoders expect parameter sets
// ahead of every keyframe of the codec.
func UsesInBandParameterSets(id domain.CodecID) bool {
	return id == domain.CodecH264 || id == domain.CodecH265
}

// MissingParameterSets reports whether an Annex B keyframe does not start with
// a parameter set and so needs the extradata in front of it.
func MissingParameterSets(id domain.CodecID, data []byte) bool {
	nal, ok := firstNAL(data)
	if !ok {
		return false
	}
	switch id {
	case domain.CodecH264:
		return nal[0]&0x1f != h264NALSPS
	case domain.CodecH265:
		return hevcNALType(nal) != hevcNALVPS
	}
	return false
}

// IsKeyframe inspects an access unit of a video codec for a random access point.
func IsKeyframe(id domain.CodecID, data []byte) bool {
	switch id {
	case domain.CodecH264:
		return h264IsKeyframe(data)
	case domain.CodecVP8:
		// P bit of the frame tag is zero on key frames.
		return len(data) > 0 && data[0]&0x01 == 0
	case domain.CodecVP9:
		return vp9IsKeyframe(data)
	}
	return false
}

func vp9IsKeyframe(data []byte) bool {
	if len(data) == 0 || data[0]>>6 != 0b10 {
		return false
	}
	b := data[0]
	profile := (b>>5)&1 | ((b>>4)&1)<<1
	bit := 4
	if profile == 3 {
		bit++
	}
	if (b>>(7-bit))&1 == 1 { // show_existing_frame
		return false
	}
	bit++
	return (b>>(7-bit))&1 == 0
}

// NormalizeExtradata returns the extradata in start-code delimited form for
// codecs whose parameter sets travel in-band.
func NormalizeExtradata(t domain.Track) ([]byte, error) {
	switch t.Codec {
	case domain.CodecH264:
		return AVCCToAnnexB(t.Extradata)
	case domain.CodecH265:
		return HVCCToAnnexB(t.Extradata)
	}
	return t.Extradata, nil
}

// Prepare validates a track and fills in what the rest of the pipeline relies
// on: Annex B extradata, the payload type and the RTP clock rate.
func Prepare(t domain.Track) (domain.Track, error) {
	m, ok := rtpMaps[t.Codec]
	if !ok {
		return t, fmt.Errorf("%w: %s", core.ErrUnsupportedCodec, t.Codec)
	}
	extradata, err := NormalizeExtradata(t)
	if err != nil {
		return t, err
	}
	t.Extradata = extradata
	t.PayloadType = PayloadType(t)
	if t.ClockRate == 0 {
		t.ClockRate = m(t).ClockRate
	}
	return t, nil
}
