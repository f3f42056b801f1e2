package core

import "github.com/dkeye/JanusRelay/internal/domain"

// Sink is an open media output bound to one endpoint.
// Owned by the relay; the relay must Close() it.
type Sink interface {
	Write(pkt domain.Packet) error
	Close() error
}

// SinkOpener opens sinks for a track. Open must not perform control-plane I/O.
type SinkOpener interface {
	Open(ep domain.Endpoint, track domain.Track) (Sink, error)
}
