package janus

import "github.com/dkeye/JanusRelay/internal/domain"

const (
	pluginStreaming = "janus.plugin.streaming"

	// errCodeAlreadyExists is JANUS_STREAMING_ERROR_CANT_CREATE, returned when
	// a mountpoint with the requested id exists.
	errCodeAlreadyExists = "456"
	// errCodeNoSuchMountpoint is expected when destroying before the first create.
	errCodeNoSuchMountpoint = "455"
)

type envelope struct {
	Janus       string `json:"janus"`
	Transaction string `json:"transaction"`
	Plugin      string `json:"plugin,omitempty"`
	Body        any    `json:"body,omitempty"`
}

func newEnvelope(verb string) envelope {
	return envelope{Janus: verb, Transaction: newTransaction()}
}

func newMessage(body any) envelope {
	e := newEnvelope("message")
	e.Body = body
	return e
}

// mountpointRequest is the body of "destroy" and "info".
type mountpointRequest struct {
	Request string `json:"request"`
	ID      any    `json:"id"`
	Secret  string `json:"secret,omitempty"`
}

type createMountpoint struct {
	Request   string `json:"request"`
	Secret    string `json:"secret,omitempty"`
	AdminKey  string `json:"admin_key,omitempty"`
	Pin       string `json:"pin,omitempty"`
	Type      string `json:"type"`
	IsPrivate bool   `json:"is_private"`
	ID        any    `json:"id"`
	Name      string `json:"name"`

	Video       bool   `json:"video"`
	VideoRTPMap string `json:"videortpmap"`
	VideoPT     uint8  `json:"videopt"`
	VideoFMTP   string `json:"videofmtp,omitempty"`
	VideoPort   int    `json:"videoport"`

	Audio       bool   `json:"audio"`
	AudioRTPMap string `json:"audiortpmap,omitempty"`
	AudioPT     *uint8 `json:"audiopt,omitempty"`
	AudioFMTP   string `json:"audiofmtp,omitempty"`
	AudioPort   *int   `json:"audioport,omitempty"`
}

// mountpointID is sent as a number unless the id is not numeric, which Janus
// accepts only when configured with string_ids.
func mountpointID(mp domain.Mountpoint) any {
	if n, ok := mp.NumericID(); ok {
		return n
	}
	return mp.ID
}
