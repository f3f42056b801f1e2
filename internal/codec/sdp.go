package codec

import (
	"strings"

	"github.com/pion/sdp/v3"

	"github.com/dkeye/JanusRelay/internal/domain"
)

// SessionDescription renders what a receiver of the mountpoint RTP would need
// to decode it. Ports are zero until the mountpoint was provisioned.
func SessionDescription(stream domain.Stream, endpoints *domain.Endpoints) ([]byte, error) {
	host := "0.0.0.0"
	if endpoints != nil && endpoints.Video.Host != "" {
		host = endpoints.Video.Host
	}
	addrType := "IP4"
	if strings.Contains(host, ":") {
		addrType = "IP6"
	}

	sd := &sdp.SessionDescription{
		Origin: sdp.Origin{
			Username:       "-",
			SessionID:      0,
			SessionVersion: 0,
			NetworkType:    "IN",
			AddressType:    addrType,
			UnicastAddress: host,
		},
		SessionName: sdp.SessionName(stream.Mountpoint.ID),
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: addrType,
			Address:     &sdp.Address{Address: host},
		},
		TimeDescriptions: []sdp.TimeDescription{{Timing: sdp.Timing{}}},
	}

	videoPort := 0
	if endpoints != nil {
		videoPort = endpoints.Video.Port
	}
	md, err := mediaDescription(stream.Video, videoPort)
	if err != nil {
		return nil, err
	}
	sd.WithMedia(md)

	if stream.Audio != nil {
		audioPort := 0
		if endpoints != nil && endpoints.Audio != nil {
			audioPort = endpoints.Audio.Port
		}
		md, err := mediaDescription(*stream.Audio, audioPort)
		if err != nil {
			return nil, err
		}
		sd.WithMedia(md)
	}
	return sd.Marshal()
}

func mediaDescription(t domain.Track, port int) (*sdp.MediaDescription, error) {
	desc, err := Describe(t)
	if err != nil {
		return nil, err
	}
	md := &sdp.MediaDescription{
		MediaName: sdp.MediaName{
			Media:  string(t.Kind),
			Port:   sdp.RangedPort{Value: port},
			Protos: []string{"RTP", "AVP"},
		},
	}
	md.WithCodec(desc.PayloadType, desc.RTPMap.Name, desc.RTPMap.ClockRate, desc.RTPMap.Channels, desc.FMTP)
	return md.WithPropertyAttribute("recvonly"), nil
}
