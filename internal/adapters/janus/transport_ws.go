package janus

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/JanusRelay/internal/core"
)

const wsSubprotocol = "janus-protocol"

// WSTransport speaks the Janus WebSocket API over one long lived connection.
// Janus binds sessions to the connection they were created on, so the
// connection is kept across requests and only redialled after a failure.
type WSTransport struct {
	url      string
	basePath string
	timeout  time.Duration
	dialer   *websocket.Dialer
	logger   zerolog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWSTransport(url, basePath string, timeout time.Duration) *WSTransport {
	return &WSTransport{
		url:      url,
		basePath: strings.TrimRight(basePath, "/"),
		timeout:  timeout,
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
			Subprotocols:     []string{wsSubprotocol},
		},
		logger: log.With().Str("module", "janus.ws").Logger(),
	}
}

// Send moves the session and handle ids of path into the message, writes it
// and waits for the reply carrying the same transaction. Acks are skipped.
func (t *WSTransport) Send(ctx context.Context, path string, body []byte) ([]byte, error) {
	msg, txn, err := t.route(path, body)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	conn, err := t.connect(ctx)
	if err != nil {
		return nil, err
	}
	// A cancelled ctx closes the socket, which unblocks ReadMessage.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	deadline := time.Now().Add(t.timeout)
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		t.reset()
		return nil, t.wrap(ctx, err)
	}

	_ = conn.SetReadDeadline(deadline)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.reset()
			return nil, t.wrap(ctx, err)
		}
		var hdr struct {
			Janus       string `json:"janus"`
			Transaction string `json:"transaction"`
		}
		if err := json.Unmarshal(raw, &hdr); err != nil {
			t.logger.Warn().Err(err).Msg("skipping undecodable frame")
			continue
		}
		if hdr.Transaction != txn || hdr.Janus == "ack" {
			continue
		}
		return raw, nil
	}
}

func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *WSTransport) connect(ctx context.Context) (*websocket.Conn, error) {
	if t.conn != nil {
		return t.conn, nil
	}
	conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return nil, t.wrap(ctx, err)
	}
	t.logger.Info().Str("url", t.url).Msg("connected")
	t.conn = conn
	return conn, nil
}

func (t *WSTransport) reset() {
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
}

func (t *WSTransport) wrap(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", core.ErrTransport, ctxErr)
	}
	return fmt.Errorf("%w: %w", core.ErrTransport, err)
}

// route injects session_id and handle_id taken from a REST style path.
func (t *WSTransport) route(path string, body []byte) ([]byte, string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var msg map[string]any
	if err := dec.Decode(&msg); err != nil {
		return nil, "", fmt.Errorf("decode request: %w", err)
	}
	txn, _ := msg["transaction"].(string)

	rest := strings.Trim(strings.TrimPrefix(path, t.basePath), "/")
	if rest != "" {
		ids := strings.Split(rest, "/")
		keys := []string{"session_id", "handle_id"}
		if len(ids) > len(keys) {
			return nil, "", fmt.Errorf("unexpected janus path %q", path)
		}
		for i, id := range ids {
			msg[keys[i]] = wireID(id)
		}
	}

	out, err := json.Marshal(msg)
	if err != nil {
		return nil, "", fmt.Errorf("encode request: %w", err)
	}
	return out, txn, nil
}

func wireID(id string) any {
	if _, err := strconv.ParseUint(id, 10, 64); err == nil {
		return json.Number(id)
	}
	return id
}
