package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/JanusRelay/internal/core"
	"github.com/dkeye/JanusRelay/internal/core/mocks"
	"github.com/dkeye/JanusRelay/internal/domain"
	"github.com/dkeye/JanusRelay/internal/metrics"
)

var testStream = domain.Stream{
	Mountpoint: domain.Mountpoint{ID: "cam1"},
	Video:      domain.Track{Kind: domain.KindVideo, Codec: domain.CodecH264},
}

func endpoints(port int) domain.Endpoints {
	return domain.Endpoints{Video: domain.Endpoint{Host: "127.0.0.1", Port: port}}
}

func fastConfig() Config {
	return Config{PollInterval: 10 * time.Millisecond, RetryInterval: 10 * time.Millisecond}
}

func TestLoopDestroysOnlyOnFirstSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := mocks.NewMockProvisioner(ctrl)
	session := core.NewSession(testStream)

	polled := make(chan struct{}, 16)
	gomock.InOrder(
		prov.EXPECT().Provision(gomock.Any(), testStream, true).Return(endpoints(5000), nil),
		prov.EXPECT().Provision(gomock.Any(), testStream, false).
			DoAndReturn(func(context.Context, domain.Stream, bool) (domain.Endpoints, error) {
				select {
				case polled <- struct{}{}:
				default:
				}
				return endpoints(5000), nil
			}).MinTimes(2),
	)

	l := NewLoop(prov, session, fastConfig(), metrics.New())
	l.Start(context.Background())
	<-polled
	<-polled
	l.Stop()

	assert.Equal(t, StateStopped, l.State())
	e, pending := session.PendingReconnect()
	assert.True(t, pending, "first endpoints request a reconnect")
	assert.Equal(t, endpoints(5000), e)
}

func TestLoopRetriesAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := mocks.NewMockProvisioner(ctrl)
	session := core.NewSession(testStream)

	done := make(chan struct{})
	gomock.InOrder(
		prov.EXPECT().Provision(gomock.Any(), testStream, true).Return(domain.Endpoints{}, core.ErrTransport),
		prov.EXPECT().Provision(gomock.Any(), testStream, true).Return(domain.Endpoints{}, core.ErrPortUnavailable),
		prov.EXPECT().Provision(gomock.Any(), testStream, true).
			DoAndReturn(func(context.Context, domain.Stream, bool) (domain.Endpoints, error) {
				close(done)
				return endpoints(5000), nil
			}),
	)
	prov.EXPECT().Provision(gomock.Any(), testStream, false).Return(endpoints(5000), nil).AnyTimes()

	l := NewLoop(prov, session, fastConfig(), nil)
	l.Start(context.Background())
	<-done
	require.Eventually(t, func() bool { return session.Snapshot().Endpoints != nil }, time.Second, 5*time.Millisecond)
	l.Stop()
}

func TestLoopPublishesChangedEndpoints(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := mocks.NewMockProvisioner(ctrl)
	session := core.NewSession(testStream)

	second := make(chan struct{})
	gomock.InOrder(
		prov.EXPECT().Provision(gomock.Any(), testStream, true).Return(endpoints(5000), nil),
		prov.EXPECT().Provision(gomock.Any(), testStream, false).
			DoAndReturn(func(context.Context, domain.Stream, bool) (domain.Endpoints, error) {
				close(second)
				return endpoints(5002), nil
			}),
	)
	prov.EXPECT().Provision(gomock.Any(), testStream, false).Return(endpoints(5002), nil).AnyTimes()

	l := NewLoop(prov, session, fastConfig(), nil)
	l.Start(context.Background())
	<-second
	require.Eventually(t, func() bool {
		e, ok := session.PendingReconnect()
		return ok && e.Video.Port == 5002
	}, time.Second, 5*time.Millisecond)
	l.Stop()
}

func TestLoopStopWhileSleeping(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := mocks.NewMockProvisioner(ctrl)
	prov.EXPECT().Provision(gomock.Any(), testStream, true).Return(endpoints(5000), nil)

	l := NewLoop(prov, core.NewSession(testStream), Config{PollInterval: time.Hour}, nil)
	l.Start(context.Background())
	require.Eventually(t, func() bool { return l.State() == StateSteady }, time.Second, 5*time.Millisecond)

	start := time.Now()
	l.Stop()
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StateStopped, l.State())
}

func TestLoopStopInterruptsRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := mocks.NewMockProvisioner(ctrl)
	inFlight := make(chan struct{})
	prov.EXPECT().Provision(gomock.Any(), testStream, true).
		DoAndReturn(func(ctx context.Context, _ domain.Stream, _ bool) (domain.Endpoints, error) {
			close(inFlight)
			<-ctx.Done()
			return domain.Endpoints{}, ctx.Err()
		})

	session := core.NewSession(testStream)
	l := NewLoop(prov, session, Config{}, nil)
	l.Start(context.Background())
	<-inFlight

	start := time.Now()
	l.Stop()
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StateStopped, l.State())
	assert.Nil(t, session.Snapshot().Endpoints)
}

func TestLoopStopIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := mocks.NewMockProvisioner(ctrl)

	l := NewLoop(prov, core.NewSession(testStream), Config{}, nil)
	l.Stop()
	l.Stop()
	l.Start(context.Background())
	assert.Equal(t, StateStopped, l.State())
}

func TestLoopStopsWithParentContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	prov := mocks.NewMockProvisioner(ctrl)
	prov.EXPECT().Provision(gomock.Any(), testStream, true).Return(endpoints(5000), nil)

	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(prov, core.NewSession(testStream), Config{PollInterval: time.Hour}, nil)
	l.Start(ctx)
	require.Eventually(t, func() bool { return l.State() == StateSteady }, time.Second, 5*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return l.State() == StateStopped }, time.Second, 5*time.Millisecond)
	l.Stop()
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, DefaultPollInterval, c.PollInterval)
	assert.Equal(t, DefaultRetryInterval, c.RetryInterval)
}
