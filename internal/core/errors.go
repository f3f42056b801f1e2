package core

import "errors"

// Control-plane failures. All of them are retried by the health loop and never
// reach the packet path.
var (
	ErrTransport       = errors.New("janus transport error")
	ErrProtocol        = errors.New("janus protocol error")
	ErrPortUnavailable = errors.New("mountpoint port unavailable")
)

// Data-plane failures.
var (
	ErrSinkWrite        = errors.New("sink write failed")
	ErrUnsupportedCodec = errors.New("codec is not supported")
)
