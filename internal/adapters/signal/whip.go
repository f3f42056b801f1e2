// Package signal implements WHIP publishing (RFC 9725) over gin.
package signal

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/JanusRelay/internal/adapters/rtc"
	"github.com/dkeye/JanusRelay/internal/app"
	"github.com/dkeye/JanusRelay/internal/app/orch"
	"github.com/dkeye/JanusRelay/internal/metrics"
)

const (
	sdpContentType = "application/sdp"
	maxOfferSize   = 64 << 10
)

type WHIPController struct {
	Orch     *orch.Orchestrator
	Registry *app.Registry
	API      *webrtc.API
	Config   webrtc.Configuration
	Token    string
	Limiter  *PublishRateLimiter
	Metrics  *metrics.Metrics

	// ctx bounds the lifetime of publishers and the streams they start.
	ctx    context.Context
	logger zerolog.Logger
}

func NewWHIPController(ctx context.Context, o *orch.Orchestrator, reg *app.Registry, api *webrtc.API, cfg webrtc.Configuration) *WHIPController {
	return &WHIPController{
		Orch:     o,
		Registry: reg,
		API:      api,
		Config:   cfg,
		ctx:      ctx,
		logger:   log.With().Str("module", "signal").Logger(),
	}
}

// Authorize rejects requests without the configured bearer token.
func (ctl *WHIPController) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ctl.Token == "" {
			c.Next()
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(ctl.Token)) != 1 {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (ctl *WHIPController) HandlePublish(c *gin.Context) {
	if !ctl.Limiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many publish attempts"})
		return
	}
	if c.ContentType() != sdpContentType {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "expected " + sdpContentType})
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxOfferSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read offer"})
		return
	}
	offer, err := rtc.ParseOffer(string(raw))
	if err != nil {
		ctl.logger.Warn().Err(err).Str("client", c.ClientIP()).Msg("bad offer")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ctl.Orch.Status().Active {
		c.JSON(http.StatusConflict, gin.H{"error": orch.ErrStreamActive.Error()})
		return
	}

	id := uuid.NewString()
	logger := ctl.logger.With().Str("whip_id", id).Logger()
	conn, err := rtc.NewConnection(ctl.API, ctl.Config, id)
	if err != nil {
		logger.Error().Err(err).Msg("webrtc new pc")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "peer connection"})
		return
	}

	handlers := ctl.Orch.MediaHandlers(ctl.ctx)
	handlers.Closed = func() {
		if ctl.Registry.Unbind(id) {
			ctl.Metrics.PublisherRemoved()
		}
	}
	pub := rtc.NewPublisher(id, conn, offer, handlers)
	ctl.Registry.Bind(id, pub)
	ctl.Metrics.PublisherAdded()

	if err := conn.Start(ctl.ctx); err != nil {
		logger.Error().Err(err).Msg("webrtc start")
		pub.Close()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "peer connection"})
		return
	}

	answer, err := conn.ApplyOfferAndCreateAnswer(c.Request.Context(), webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  string(raw),
	})
	if err != nil {
		logger.Error().Err(err).Msg("webrtc apply offer")
		pub.Close()
		status := http.StatusBadRequest
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "negotiation failed"})
		return
	}

	logger.Info().Bool("audio", offer.Audio).Str("client", c.ClientIP()).Msg("publisher accepted")
	c.Header("Location", "/api/whip/"+id)
	c.Data(http.StatusCreated, sdpContentType, []byte(answer.SDP))
}

func (ctl *WHIPController) HandleDelete(c *gin.Context) {
	if !ctl.Registry.Close(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown resource"})
		return
	}
	c.Status(http.StatusOK)
}
