package janus

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
)

const (
	fakeSessionID = "8391047162834511"
	fakeHandleID  = "4451238790012345"
)

type fakeRequest struct {
	Path    string
	Janus   string
	Request string
	Body    map[string]any
}

type fakePorts struct {
	video, audio int
}

// fakeJanus mimics the parts of the Janus REST API and streaming plugin the
// provisioner relies on.
type fakeJanus struct {
	t *testing.T

	mu          sync.Mutex
	requests    []fakeRequest
	mountpoints map[string]fakePorts
	nextPort    int

	createErrorCode  int
	destroyErrorCode int
	failDestroy      bool
	omitInfoPorts   bool
}

func newFakeJanus(t *testing.T) (*fakeJanus, *httptest.Server) {
	f := &fakeJanus{t: t, mountpoints: make(map[string]fakePorts), nextPort: 5000}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeJanus) calls() []fakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeRequest(nil), f.requests...)
}

func (f *fakeJanus) verbs() []string {
	var out []string
	for _, r := range f.calls() {
		v := r.Janus
		if r.Request != "" {
			v += ":" + r.Request
		}
		out = append(out, v)
	}
	return out
}

func (f *fakeJanus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var msg map[string]any
	if err := dec.Decode(&msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	verb, _ := msg["janus"].(string)
	txn, _ := msg["transaction"].(string)
	body, _ := msg["body"].(map[string]any)
	request, _ := body["request"].(string)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, fakeRequest{Path: r.URL.Path, Janus: verb, Request: request, Body: body})

	switch {
	case verb == "create" && r.URL.Path == "/janus":
		f.reply(w, fmt.Sprintf(`{"janus":"success","transaction":%q,"data":{"id":%s}}`, txn, fakeSessionID))
	case verb == "attach":
		f.reply(w, fmt.Sprintf(`{"janus":"success","session_id":%s,"transaction":%q,"data":{"id":%s}}`, fakeSessionID, txn, fakeHandleID))
	case verb == "detach" || verb == "destroy":
		f.reply(w, fmt.Sprintf(`{"janus":"success","session_id":%s,"transaction":%q}`, fakeSessionID, txn))
	case verb == "message":
		f.message(w, txn, request, body)
	default:
		f.reply(w, fmt.Sprintf(`{"janus":"error","transaction":%q,"error":{"code":453,"reason":"Unknown request '%s'"}}`, txn, verb))
	}
}

func (f *fakeJanus) message(w http.ResponseWriter, txn, request string, body map[string]any) {
	id := fmt.Sprint(body["id"])
	plugin := func(data string) {
		f.reply(w, fmt.Sprintf(`{"janus":"success","session_id":%s,"sender":%s,"transaction":%q,`+
			`"plugindata":{"plugin":"janus.plugin.streaming","data":%s}}`, fakeSessionID, fakeHandleID, txn, data))
	}

	switch request {
	case "destroy":
		if f.failDestroy {
			f.reply(w, fmt.Sprintf(`{"janus":"error","transaction":%q,"error":{"code":458,"reason":"Session not found"}}`, txn))
			return
		}
		if f.destroyErrorCode != 0 {
			plugin(fmt.Sprintf(`{"streaming":"event","error_code":%d,"error":"Unauthorized (wrong secret)"}`, f.destroyErrorCode))
			return
		}
		if _, ok := f.mountpoints[id]; !ok {
			plugin(`{"streaming":"event","error_code":455,"error":"No such mountpoint/stream"}`)
			return
		}
		delete(f.mountpoints, id)
		plugin(fmt.Sprintf(`{"streaming":"destroyed","destroyed":%q}`, id))

	case "create":
		if f.createErrorCode != 0 {
			plugin(fmt.Sprintf(`{"streaming":"event","error_code":%d,"error":"Missing mandatory element"}`, f.createErrorCode))
			return
		}
		if _, ok := f.mountpoints[id]; ok {
			plugin(`{"streaming":"event","error_code":456,"error":"A stream with the provided ID already exists"}`)
			return
		}
		ports := fakePorts{video: f.nextPort}
		f.nextPort += 2
		stream := fmt.Sprintf(`"id":%q,"type":"live","is_private":false,"video_port":%d`, id, ports.video)
		if audio, _ := body["audio"].(bool); audio {
			ports.audio = f.nextPort
			f.nextPort += 2
			stream += fmt.Sprintf(`,"audio_port":%d`, ports.audio)
		}
		f.mountpoints[id] = ports
		plugin(fmt.Sprintf(`{"streaming":"created","created":%q,"permanent":false,"stream":{%s}}`, id, stream))

	case "info":
		ports, ok := f.mountpoints[id]
		if !ok {
			plugin(`{"streaming":"event","error_code":455,"error":"No such mountpoint/stream"}`)
			return
		}
		fields := []string{fmt.Sprintf(`"id":%q`, id), `"name":"mp"`}
		if !f.omitInfoPorts {
			fields = append(fields, fmt.Sprintf(`"videoport":%d`, ports.video))
			if ports.audio != 0 {
				fields = append(fields, fmt.Sprintf(`"audioport":%d`, ports.audio))
			}
		}
		plugin(fmt.Sprintf(`{"streaming":"info","info":{%s}}`, strings.Join(fields, ",")))

	default:
		plugin(`{"streaming":"event","error_code":451,"error":"Invalid request"}`)
	}
}

func (f *fakeJanus) reply(w http.ResponseWriter, raw string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, raw)
}
