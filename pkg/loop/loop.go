package loop

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the polling interval when none is configured.
const DefaultInterval = 10 * time.Millisecond

// Loop polls Pollers on a fixed interval, and immediately when
// TriggerNext is called, while running Runnables in the background.
type Loop struct {
	Interval time.Duration

	pollers  []Poller
	runners  []Runnable
	wakeUpCh chan struct{}
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{
		Interval: DefaultInterval,
		wakeUpCh: make(chan struct{}, 1),
	}
}

// Add adds Adders.
func (l *Loop) Add(adders ...Adder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddPoller registers pollers, invoked in order on every iteration.
func (l *Loop) AddPoller(pollers ...Poller) *Loop {
	l.pollers = append(l.pollers, pollers...)
	return l
}

// AddRunnable registers background Runnables.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// TriggerNext implements Control.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Run implements Runnable. It returns when ctx is done, a Poller fails or
// a Runnable stops.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(context.WithValue(ctx, ctxKey{}, Control(l)))
	defer cancel()

	runner := NewRunnerWith(ctx)
	runner.Go(l.runners...)
	stopped := runner.Stopped()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	glog.V(2).Infof("loop started with %d pollers, %d runners", len(l.pollers), len(l.runners))
	err := l.poll(ctx)
	for err == nil {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-stopped:
			err = context.Canceled
		case <-ticker.C:
			err = l.poll(ctx)
		case <-l.wakeUpCh:
			err = l.poll(ctx)
		}
	}
	cancel()
	var errs AggregatedError
	if !errors.Is(err, context.Canceled) {
		errs.Add(err)
	}
	errs.Add(runner.Wait())
	glog.V(2).Info("loop stopped")
	return errs.Aggregate()
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail(ctx context.Context) {
	if err := l.Run(ctx); err != nil {
		glog.Exit(err)
	}
}

func (l *Loop) poll(ctx context.Context) error {
	for _, p := range l.pollers {
		if err := p.Poll(ctx); err != nil {
			return err
		}
	}
	return nil
}
