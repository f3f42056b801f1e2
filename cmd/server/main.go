package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/JanusRelay/internal/adapters/http"
	"github.com/dkeye/JanusRelay/internal/adapters/janus"
	"github.com/dkeye/JanusRelay/internal/adapters/rtc"
	"github.com/dkeye/JanusRelay/internal/adapters/rtpsink"
	whip "github.com/dkeye/JanusRelay/internal/adapters/signal"
	"github.com/dkeye/JanusRelay/internal/app"
	"github.com/dkeye/JanusRelay/internal/app/health"
	"github.com/dkeye/JanusRelay/internal/app/orch"
	"github.com/dkeye/JanusRelay/internal/config"
	"github.com/dkeye/JanusRelay/internal/core"
	"github.com/dkeye/JanusRelay/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	} else {
		zerolog.SetGlobalLevel(level)
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New()

	var transport core.ControlTransport
	switch cfg.Janus.Transport {
	case "ws":
		transport = janus.NewWSTransport(cfg.Janus.WSURL, cfg.Janus.Path, cfg.Janus.Timeout)
	default:
		transport = janus.NewHTTPTransport(cfg.Janus.URL, cfg.Janus.Timeout)
	}
	client := janus.NewClient(transport)
	defer client.Close()

	o := orch.New(
		cfg.MountpointConfig(),
		janus.NewProvisioner(client, cfg.Janus.Path, cfg.Janus.RTPHost),
		rtpsink.NewOpener(cfg.Relay.MTU),
		health.Config{PollInterval: cfg.Health.PollInterval, RetryInterval: cfg.Health.RetryInterval},
		m,
	)

	api, err := rtc.NewAPI()
	if err != nil {
		return fmt.Errorf("webrtc api: %w", err)
	}
	reg := app.NewRegistry()
	ctl := whip.NewWHIPController(ctx, o, reg, api, rtc.DefaultWebRTCConfig(cfg.WebRTC.ICEServers))
	ctl.Token = cfg.WHIP.Token
	ctl.Limiter = whip.NewPublishRateLimiter(cfg.WHIP.RateLimit, cfg.WHIP.RateEvery)
	ctl.Metrics = m

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.SetupRouter(cfg, o, ctl, m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Str("control", cfg.ControlURL()).Msg("JanusRelay server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		reg.CloseAll()
		if err := o.StopStream(); err != nil && !errors.Is(err, orch.ErrNoStream) {
			log.Error().Err(err).Msg("stop stream")
		}
		return nil
	})
	return g.Wait()
}
