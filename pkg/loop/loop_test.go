package loop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func waitSignal(t *testing.T, ch <-chan struct{}) {
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout")
	}
}

func signalPoller(ch chan struct{}) Poller {
	return PollFunc(func(context.Context) error {
		select {
		case ch <- struct{}{}:
		default:
		}
		return nil
	})
}

func TestLoopTriggerNext(t *testing.T) {
	polled := make(chan struct{}, 1)
	trigger := make(chan struct{})
	l := NewLoop()
	l.Interval = time.Hour
	l.AddPoller(signalPoller(polled))
	l.AddRunnable(RunnableFunc(func(ctx context.Context) error {
		<-trigger
		ControlFrom(ctx).TriggerNext()
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	waitSignal(t, polled)
	close(trigger)
	waitSignal(t, polled)
	cancel()
	require.NoError(t, <-errCh)
}

func TestLoopTick(t *testing.T) {
	polled := make(chan struct{}, 1)
	l := NewLoop()
	l.Interval = time.Millisecond
	l.AddPoller(signalPoller(polled))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	for i := 0; i < 3; i++ {
		waitSignal(t, polled)
	}
	cancel()
	require.NoError(t, <-errCh)
}

func TestLoopPollerError(t *testing.T) {
	var calls int
	l := NewLoop().AddPoller(
		PollFunc(func(context.Context) error { return errBoom }),
		PollFunc(func(context.Context) error { calls++; return nil }),
	)
	err := l.Run(context.Background())
	require.ErrorIs(t, err, errBoom)
	require.Zero(t, calls)
}

func TestLoopRunnableStops(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	l.AddRunnable(
		NamedRun("failing", RunnableFunc(func(context.Context) error { return errBoom })),
		RunnableFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	err := l.Run(context.Background())
	require.ErrorIs(t, err, errBoom)
}

func TestLoopDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := NewLoop().Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type adderFunc func(*Loop)

func (f adderFunc) AddToLoop(l *Loop) { f(l) }

func TestLoopAdd(t *testing.T) {
	var polled bool
	l := NewLoop().Add(adderFunc(func(l *Loop) {
		l.AddPoller(PollFunc(func(context.Context) error {
			polled = true
			return errBoom
		}))
	}))
	require.ErrorIs(t, l.Run(context.Background()), errBoom)
	require.True(t, polled)
}

func TestControlFromOutsideLoop(t *testing.T) {
	require.NotPanics(t, func() {
		ControlFrom(context.Background()).TriggerNext()
	})
}
