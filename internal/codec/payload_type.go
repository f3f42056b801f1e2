package codec

import "github.com/dkeye/JanusRelay/internal/domain"

const (
	dynamicVideoPT uint8 = 96
	dynamicAudioPT uint8 = 97
)

// Static payload types of RFC 3551. Audio entries only apply at the listed
// sample rate and channel count.
var staticPayloadTypes = []struct {
	codec      domain.CodecID
	sampleRate int
	channels   int
	pt         uint8
}{
	{domain.CodecPCMU, 8000, 1, 0},
	{domain.CodecPCMA, 8000, 1, 8},
	{domain.CodecG722, 16000, 1, 9},
	{domain.CodecL16, 44100, 2, 10},
	{domain.CodecL16, 44100, 1, 11},
	{domain.CodecMJPEG, 0, 0, 26},
	{domain.CodecH261, 0, 0, 31},
}

// PayloadType returns the static payload type of the track, or the first
// dynamic one for its kind.
func PayloadType(t domain.Track) uint8 {
	for _, s := range staticPayloadTypes {
		if s.codec != t.Codec {
			continue
		}
		if s.sampleRate > 0 && (s.sampleRate != t.SampleRate || s.channels != t.Channels) {
			continue
		}
		return s.pt
	}
	if t.IsAudio() {
		return dynamicAudioPT
	}
	return dynamicVideoPT
}
