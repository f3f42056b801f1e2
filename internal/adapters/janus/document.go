package janus

import (
	"bytes"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/dkeye/JanusRelay/internal/core"
	"github.com/dkeye/JanusRelay/internal/domain"
)

// Document is a decoded Janus reply.
type Document struct {
	root map[string]any
}

// ParseDocument decodes a reply, keeping numbers in their textual form so that
// 64 bit session and handle ids survive untouched.
func ParseDocument(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return Document{}, fmt.Errorf("%w: decode reply: %v", core.ErrProtocol, err)
	}
	return Document{root: root}, nil
}

// Status returns the top-level "janus" field.
func (d Document) Status() (string, bool) {
	return scalar(d.root["janus"])
}

// Extract returns the first scalar value stored under field, searching the
// document breadth first. Keys of one object are visited in sorted order.
func (d Document) Extract(field string) (string, bool) {
	queue := []any{d.root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		switch v := node.(type) {
		case map[string]any:
			if s, ok := scalar(v[field]); ok {
				return s, true
			}
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				queue = append(queue, v[k])
			}
		case []any:
			queue = append(queue, v...)
		}
	}
	return "", false
}

// Port returns the port Janus assigned to a track kind. Replies to "create"
// name it video_port/audio_port, replies to "info" videoport/audioport.
func (d Document) Port(kind domain.TrackKind) (string, bool) {
	if v, ok := d.Extract(string(kind) + "port"); ok {
		return v, true
	}
	return d.Extract(string(kind) + "_port")
}

// errorReason describes a Janus level error reply.
func (d Document) errorReason() string {
	obj, ok := d.root["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := scalar(obj["code"])
	reason, _ := scalar(obj["reason"])
	return fmt.Sprintf("code=%s reason=%s", code, reason)
}

func scalar(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case bool:
		if s {
			return "true", true
		}
		return "false", true
	}
	return "", false
}
