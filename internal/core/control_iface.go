package core

//go:generate mockgen -source=media_iface.go -destination=mocks/mock_media.go -package=mocks
//go:generate mockgen -source=control_iface.go -destination=mocks/mock_control.go -package=mocks

import (
	"context"

	"github.com/dkeye/JanusRelay/internal/domain"
)

// ControlTransport delivers one JSON control request and returns the raw reply.
// path is the Janus resource path, e.g. /janus/{session}/{handle}.
// Implementations must give up as soon as ctx is done.
type ControlTransport interface {
	Send(ctx context.Context, path string, body []byte) ([]byte, error)
	Close() error
}

// Provisioner creates the mountpoint for a stream and reports the ports the
// media server assigned to it.
type Provisioner interface {
	Provision(ctx context.Context, stream domain.Stream, destroyExisting bool) (domain.Endpoints, error)
}
