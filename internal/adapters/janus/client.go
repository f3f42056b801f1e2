// Package janus talks to the Janus gateway control API and provisions
// streaming mountpoints through it.
package janus

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/JanusRelay/internal/core"
)

const statusSuccess = "success"

// Client issues one control request at a time over a ControlTransport.
type Client struct {
	transport core.ControlTransport
	logger    zerolog.Logger
}

func NewClient(transport core.ControlTransport) *Client {
	return &Client{
		transport: transport,
		logger:    log.With().Str("module", "janus.client").Logger(),
	}
}

// Request sends body to path and returns the reply once its status is "success".
func (c *Client) Request(ctx context.Context, path string, body any) (Document, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Document{}, fmt.Errorf("encode request: %w", err)
	}
	c.logger.Debug().Str("path", path).Msg("janus request")

	raw, err := c.transport.Send(ctx, path, payload)
	if err != nil {
		if !errors.Is(err, core.ErrTransport) && !errors.Is(err, core.ErrProtocol) {
			err = fmt.Errorf("%w: %w", core.ErrTransport, err)
		}
		return Document{}, err
	}

	doc, err := ParseDocument(raw)
	if err != nil {
		return Document{}, err
	}
	status, ok := doc.Status()
	if !ok {
		return Document{}, fmt.Errorf("%w: reply has no status", core.ErrProtocol)
	}
	if status != statusSuccess {
		return Document{}, fmt.Errorf("%w: status %q %s", core.ErrProtocol, status, doc.errorReason())
	}
	c.logger.Debug().Str("path", path).RawJSON("reply", raw).Msg("janus reply")
	return doc, nil
}

func (c *Client) Close() error {
	return c.transport.Close()
}

func newTransaction() string {
	return uuid.NewString()
}
