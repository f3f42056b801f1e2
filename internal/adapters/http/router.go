package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/JanusRelay/internal/adapters/signal"
	"github.com/dkeye/JanusRelay/internal/app/orch"
	"github.com/dkeye/JanusRelay/internal/config"
	"github.com/dkeye/JanusRelay/internal/metrics"
)

// RequestLogger logs each request through zerolog.
func RequestLogger() gin.HandlerFunc {
	logger := log.With().Str("module", "adapters.http").Logger()
	return func(c *gin.Context) {
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Str("client", c.ClientIP()).
			Msg("request")
	}
}

func SetupRouter(cfg *config.Config, o *orch.Orchestrator, whip *signal.WHIPController, m *metrics.Metrics) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery(), RequestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")

	api.GET("/stream", func(c *gin.Context) {
		c.JSON(http.StatusOK, o.Status())
	})

	api.GET("/stream/sdp", func(c *gin.Context) {
		raw, err := o.SessionDescription()
		if errors.Is(err, orch.ErrNoStream) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("render sdp")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/sdp", raw)
	})

	w := api.Group("/whip", whip.Authorize())
	w.POST("", whip.HandlePublish)
	w.DELETE("/:id", whip.HandleDelete)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
