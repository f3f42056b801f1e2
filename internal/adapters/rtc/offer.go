package rtc

import (
	"errors"
	"fmt"

	"github.com/pion/sdp/v3"

	"github.com/dkeye/JanusRelay/internal/domain"
)

var ErrBadOffer = errors.New("bad offer")

// Offer is what a WHIP offer announces to publish.
type Offer struct {
	Video bool
	Audio bool
}

// Tracks is the number of remote tracks to wait for.
func (o Offer) Tracks() int {
	n := 0
	if o.Video {
		n++
	}
	if o.Audio {
		n++
	}
	return n
}

// ParseOffer inspects the media sections of an offer. Rejected sections and
// ones that do not send are ignored. Only the first section of a kind counts.
func ParseOffer(raw string) (Offer, error) {
	var desc sdp.SessionDescription
	if err := desc.UnmarshalString(raw); err != nil {
		return Offer{}, fmt.Errorf("%w: %w", ErrBadOffer, err)
	}
	var o Offer
	for _, md := range desc.MediaDescriptions {
		if rejected(md) || !sends(md) {
			continue
		}
		switch md.MediaName.Media {
		case string(domain.KindVideo):
			o.Video = true
		case string(domain.KindAudio):
			o.Audio = true
		}
	}
	if !o.Video {
		return Offer{}, fmt.Errorf("%w: %w", ErrBadOffer, domain.ErrNoVideoTrack)
	}
	return o, nil
}

// rejected reports a zero port that is not a bundle-only section.
func rejected(md *sdp.MediaDescription) bool {
	if md.MediaName.Port.Value != 0 {
		return false
	}
	_, bundled := md.Attribute("bundle-only")
	return !bundled
}

func sends(md *sdp.MediaDescription) bool {
	for _, dir := range []string{"recvonly", "inactive"} {
		if _, ok := md.Attribute(dir); ok {
			return false
		}
	}
	return true
}
