package domain

import (
	"net"
	"strconv"
)

// Endpoint is a UDP destination assigned by the media server.
type Endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

type Endpoints struct {
	Video Endpoint  `json:"video"`
	Audio *Endpoint `json:"audio,omitempty"`
}

// Equal compares the video endpoint and, when both sides carry one, the audio endpoint.
func (e Endpoints) Equal(o Endpoints) bool {
	if e.Video != o.Video {
		return false
	}
	switch {
	case e.Audio == nil && o.Audio == nil:
		return true
	case e.Audio == nil || o.Audio == nil:
		return false
	default:
		return *e.Audio == *o.Audio
	}
}

// Clone returns a copy that shares no memory with e.
func (e Endpoints) Clone() Endpoints {
	if e.Audio != nil {
		a := *e.Audio
		e.Audio = &a
	}
	return e
}
