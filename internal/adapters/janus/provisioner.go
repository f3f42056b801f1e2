package janus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/JanusRelay/internal/codec"
	"github.com/dkeye/JanusRelay/internal/core"
	"github.com/dkeye/JanusRelay/internal/domain"
)

// Provisioner creates streaming mountpoints through a short lived Janus
// session: create, attach, [destroy], create mountpoint, [info], detach, destroy.
type Provisioner struct {
	client   *Client
	basePath string
	rtpHost  string
	logger   zerolog.Logger
}

// NewProvisioner returns a provisioner whose endpoints point at rtpHost.
// basePath is the Janus API root, usually /janus.
func NewProvisioner(client *Client, basePath, rtpHost string) *Provisioner {
	return &Provisioner{
		client:   client,
		basePath: "/" + strings.Trim(basePath, "/"),
		rtpHost:  rtpHost,
		logger:   log.With().Str("module", "janus.provision").Logger(),
	}
}

var _ core.Provisioner = (*Provisioner)(nil)

func (p *Provisioner) Provision(ctx context.Context, stream domain.Stream, destroyExisting bool) (domain.Endpoints, error) {
	mp := stream.Mountpoint
	logger := p.logger.With().Str("mountpoint", mp.ID).Logger()

	create, err := createRequest(stream)
	if err != nil {
		return domain.Endpoints{}, err
	}

	doc, err := p.client.Request(ctx, p.basePath, newEnvelope("create"))
	if err != nil {
		return domain.Endpoints{}, fmt.Errorf("create session: %w", err)
	}
	sessionID, ok := doc.Extract("id")
	if !ok {
		return domain.Endpoints{}, fmt.Errorf("%w: session id missing in reply", core.ErrProtocol)
	}
	sessionPath := p.basePath + "/" + sessionID
	logger = logger.With().Str("session_id", sessionID).Logger()
	defer p.cleanup(ctx, sessionPath, newEnvelope("destroy"), logger)

	attach := newEnvelope("attach")
	attach.Plugin = pluginStreaming
	if doc, err = p.client.Request(ctx, sessionPath, attach); err != nil {
		return domain.Endpoints{}, fmt.Errorf("attach %s: %w", pluginStreaming, err)
	}
	handleID, ok := doc.Extract("id")
	if !ok {
		return domain.Endpoints{}, fmt.Errorf("%w: handle id missing in reply", core.ErrProtocol)
	}
	handlePath := sessionPath + "/" + handleID
	defer p.cleanup(ctx, handlePath, newEnvelope("detach"), logger)

	if destroyExisting {
		destroy := mountpointRequest{Request: "destroy", ID: mountpointID(mp), Secret: mp.Secret}
		reply, err := p.client.Request(ctx, handlePath, newMessage(destroy))
		if err != nil {
			if ctx.Err() != nil {
				return domain.Endpoints{}, fmt.Errorf("destroy mountpoint: %w", err)
			}
			logger.Warn().Err(err).Msg("destroy of previous mountpoint failed")
		} else if code, failed := reply.Extract("error_code"); failed {
			level := zerolog.WarnLevel
			if code == errCodeNoSuchMountpoint {
				level = zerolog.DebugLevel
			}
			reason, _ := reply.Extract("error")
			logger.WithLevel(level).Str("error_code", code).Str("reason", reason).Msg("destroy of previous mountpoint rejected")
		}
	}

	if doc, err = p.client.Request(ctx, handlePath, newMessage(create)); err != nil {
		return domain.Endpoints{}, fmt.Errorf("create mountpoint: %w", err)
	}
	if code, failed := doc.Extract("error_code"); failed {
		if code != errCodeAlreadyExists {
			reason, _ := doc.Extract("error")
			return domain.Endpoints{}, fmt.Errorf("%w: create mountpoint: error_code %s: %s", core.ErrProtocol, code, reason)
		}
		logger.Debug().Msg("mountpoint already exists, querying info")

		info := mountpointRequest{Request: "info", ID: mountpointID(mp), Secret: mp.Secret}
		if doc, err = p.client.Request(ctx, handlePath, newMessage(info)); err != nil {
			return domain.Endpoints{}, fmt.Errorf("mountpoint info: %w", err)
		}
		if code, failed := doc.Extract("error_code"); failed {
			reason, _ := doc.Extract("error")
			return domain.Endpoints{}, fmt.Errorf("%w: mountpoint info: error_code %s: %s", core.ErrProtocol, code, reason)
		}
	}

	endpoints, err := p.endpoints(doc, stream)
	if err != nil {
		return domain.Endpoints{}, err
	}
	logger.Debug().Int("video_port", endpoints.Video.Port).Msg("mountpoint provisioned")
	return endpoints, nil
}

// cleanup detaches the handle or destroys the session. Failures are only
// logged; the outcome of the provisioning attempt is already decided.
func (p *Provisioner) cleanup(ctx context.Context, path string, req envelope, logger zerolog.Logger) {
	if ctx.Err() != nil {
		logger.Debug().Str("janus", req.Janus).Msg("skipping cleanup, context done")
		return
	}
	if _, err := p.client.Request(ctx, path, req); err != nil {
		logger.Warn().Err(err).Str("janus", req.Janus).Msg("cleanup request failed")
	}
}

func (p *Provisioner) endpoints(doc Document, stream domain.Stream) (domain.Endpoints, error) {
	videoPort, err := port(doc, domain.KindVideo)
	if err != nil {
		return domain.Endpoints{}, err
	}
	e := domain.Endpoints{Video: domain.Endpoint{Host: p.rtpHost, Port: videoPort}}
	if stream.HasAudio() {
		audioPort, err := port(doc, domain.KindAudio)
		if err != nil {
			return domain.Endpoints{}, err
		}
		e.Audio = &domain.Endpoint{Host: p.rtpHost, Port: audioPort}
	}
	return e, nil
}

func port(doc Document, kind domain.TrackKind) (int, error) {
	raw, ok := doc.Port(kind)
	if !ok {
		return 0, fmt.Errorf("%w: %s port missing in reply", core.ErrPortUnavailable, kind)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 65535 {
		return 0, fmt.Errorf("%w: %s port %q", core.ErrPortUnavailable, kind, raw)
	}
	return n, nil
}

func createRequest(stream domain.Stream) (createMountpoint, error) {
	mp := stream.Mountpoint
	video, err := codec.Describe(stream.Video)
	if err != nil {
		return createMountpoint{}, fmt.Errorf("video track: %w", err)
	}
	req := createMountpoint{
		Request:     "create",
		Secret:      mp.Secret,
		AdminKey:    mp.AdminKey,
		Pin:         mp.Pin,
		Type:        "rtp",
		IsPrivate:   mp.Private,
		ID:          mountpointID(mp),
		Name:        mp.ID,
		Video:       true,
		VideoRTPMap: video.RTPMap.String(),
		VideoPT:     video.PayloadType,
		VideoFMTP:   video.FMTP,
	}
	if stream.HasAudio() {
		audio, err := codec.Describe(*stream.Audio)
		if err != nil {
			return createMountpoint{}, fmt.Errorf("audio track: %w", err)
		}
		zero := 0
		req.Audio = true
		req.AudioRTPMap = audio.RTPMap.String()
		req.AudioPT = &audio.PayloadType
		req.AudioFMTP = audio.FMTP
		req.AudioPort = &zero
	}
	return req, nil
}
