package orch

import (
	"context"
	"errors"

	"github.com/dkeye/JanusRelay/internal/adapters/rtc"
	"github.com/dkeye/JanusRelay/internal/domain"
)

// MediaHandlers binds a WHIP publisher to the stream lifecycle. Streams
// started through them outlive the publish request and end with ctx.
func (o *Orchestrator) MediaHandlers(ctx context.Context) rtc.Handlers {
	return rtc.Handlers{
		Start: func(tracks []domain.Track) (rtc.Ingest, error) {
			r, err := o.StartStream(ctx, tracks)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
		Stop: func() { o.OnMediaDisconnect() },
	}
}

// OnMediaDisconnect ends the stream once its publisher is gone.
func (o *Orchestrator) OnMediaDisconnect() {
	if err := o.StopStream(); err != nil && !errors.Is(err, ErrNoStream) {
		o.logger.Warn().Err(err).Msg("stop stream after disconnect")
	}
}
