// Package health keeps the mountpoint of a stream provisioned.
//
// The loop provisions once with destroyExisting=true, then re-provisions
// every poll interval with destroyExisting=false, which Janus answers with the
// existing ports. Failed attempts are retried after the retry interval.
// Changed ports are published to the session, where the relay picks them up.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/JanusRelay/internal/core"
	"github.com/dkeye/JanusRelay/internal/metrics"
)

const (
	StateProvisioning = "provisioning"
	StateSteady       = "steady"
	StateRetrying     = "retrying"
	StateStopped      = "stopped"
)

var states = []string{StateProvisioning, StateSteady, StateRetrying, StateStopped}

const (
	eventProvisioned = "provisioned"
	eventFailed      = "failed"
	eventPoll        = "poll"
	eventRetry       = "retry"
	eventStop        = "stop"
)

const (
	DefaultPollInterval  = 300 * time.Second
	DefaultRetryInterval = 10 * time.Second
)

type Config struct {
	PollInterval  time.Duration
	RetryInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	return c
}

type Loop struct {
	provisioner core.Provisioner
	session     *core.Session
	cfg         Config
	metrics     *metrics.Metrics
	logger      zerolog.Logger

	fsm *fsm.FSM

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}

	// provisioned is owned by the loop goroutine.
	provisioned bool
}

func NewLoop(p core.Provisioner, s *core.Session, cfg Config, m *metrics.Metrics) *Loop {
	l := &Loop{
		provisioner: p,
		session:     s,
		cfg:         cfg.withDefaults(),
		metrics:     m,
		logger: log.With().
			Str("module", "health").
			Str("mountpoint", s.Stream().Mountpoint.ID).
			Logger(),
		done: make(chan struct{}),
	}
	l.fsm = fsm.NewFSM(
		StateProvisioning,
		fsm.Events{
			{Name: eventProvisioned, Src: []string{StateProvisioning}, Dst: StateSteady},
			{Name: eventFailed, Src: []string{StateProvisioning}, Dst: StateRetrying},
			{Name: eventPoll, Src: []string{StateSteady}, Dst: StateProvisioning},
			{Name: eventRetry, Src: []string{StateRetrying}, Dst: StateProvisioning},
			{Name: eventStop, Src: []string{StateProvisioning, StateSteady, StateRetrying}, Dst: StateStopped},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				l.logger.Debug().Str("from", e.Src).Str("to", e.Dst).Msg("health state")
				l.metrics.SetHealthState(e.Dst, states)
			},
		},
	)
	l.metrics.SetHealthState(StateProvisioning, states)
	return l
}

// Start runs the loop on its own goroutine until ctx is done or Stop is called.
// Only the first call has an effect.
func (l *Loop) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		ctx, l.cancel = context.WithCancel(ctx)
		go l.run(ctx)
	})
}

// Stop cancels the loop, including an in-flight request, and waits for its
// goroutine to exit. It is safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		started := true
		l.startOnce.Do(func() { started = false })
		if !started {
			l.fire(eventStop)
			close(l.done)
			return
		}
		l.cancel()
		<-l.done
	})
}

func (l *Loop) State() string {
	return l.fsm.Current()
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	defer l.fire(eventStop)

	l.logger.Info().
		Dur("poll_interval", l.cfg.PollInterval).
		Dur("retry_interval", l.cfg.RetryInterval).
		Msg("health loop started")
	defer l.logger.Info().Msg("health loop stopped")

	for ctx.Err() == nil {
		switch l.fsm.Current() {
		case StateProvisioning:
			l.provision(ctx)
		case StateSteady:
			if sleep(ctx, l.cfg.PollInterval) {
				l.fire(eventPoll)
			}
		case StateRetrying:
			if sleep(ctx, l.cfg.RetryInterval) {
				l.fire(eventRetry)
			}
		default:
			return
		}
	}
}

func (l *Loop) provision(ctx context.Context) {
	endpoints, err := l.provisioner.Provision(ctx, l.session.Stream(), !l.provisioned)
	if ctx.Err() != nil {
		return
	}
	l.metrics.ObserveProvision(err)
	if err != nil {
		l.logger.Warn().Err(err).Dur("retry_in", l.cfg.RetryInterval).Msg("provisioning failed")
		l.fire(eventFailed)
		return
	}
	l.provisioned = true

	if l.session.PublishEndpoints(endpoints) {
		ev := l.logger.Info().Str("video", endpoints.Video.String())
		if endpoints.Audio != nil {
			ev = ev.Str("audio", endpoints.Audio.String())
		}
		ev.Msg("mountpoint endpoints changed, reconnect requested")
		l.metrics.Reconnect()
	}
	l.fire(eventProvisioned)
}

// fire runs a transition. Events are never cancelled, fsm would abort them.
func (l *Loop) fire(event string) {
	if err := l.fsm.Event(context.Background(), event); err != nil {
		l.logger.Error().Err(err).Str("event", event).Msg("health transition")
	}
}

// sleep waits for d and reports false if ctx was done first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
