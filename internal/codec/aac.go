package codec

import (
	"encoding/hex"
	"fmt"

	"github.com/dkeye/JanusRelay/internal/domain"
)

var mpeg4AudioSampleRates = [...]int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

// latmConfig builds the StreamMuxConfig of RFC 3016 for AAC LC.
func latmConfig(t domain.Track) (string, error) {
	rateIndex := -1
	for i, r := range mpeg4AudioSampleRates {
		if r == t.SampleRate {
			rateIndex = i
			break
		}
	}
	if rateIndex < 0 {
		return "", fmt.Errorf("%w: unsupported LATM sample rate %d", ErrInvalidExtradata, t.SampleRate)
	}
	cfg := []byte{0x40, 0, 0x20 | byte(rateIndex), byte(t.Channels << 4), 0x3f, 0xc0}
	return hex.EncodeToString(cfg), nil
}

// latmProfileLevel picks the AAC Profile level for the sample rate and channel count.
func latmProfileLevel(t domain.Track) int {
	switch {
	case t.SampleRate <= 24000:
		if t.Channels <= 2 {
			return 0x28
		}
	case t.SampleRate <= 48000:
		if t.Channels <= 2 {
			return 0x29
		}
		if t.Channels <= 5 {
			return 0x2a
		}
	case t.SampleRate <= 96000:
		if t.Channels <= 5 {
			return 0x2b
		}
	}
	return 0x2b
}
