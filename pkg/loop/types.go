// Package loop provides the cooperative super-loop which drives the
// PathWire parser and dispatcher.
package loop

import "context"

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a background task which runs until ctx is done.
type Runnable interface {
	Run(context.Context) error
}

// Poller is invoked on every loop iteration. It must not block.
type Poller interface {
	Poll(context.Context) error
}

// PollFunc is func type of Poller.
type PollFunc func(context.Context) error

// Poll implements Poller.
func (f PollFunc) Poll(ctx context.Context) error {
	return f(ctx)
}

// Adder adds itself to a Loop.
type Adder interface {
	AddToLoop(*Loop)
}

// Control exposes the running loop to Runnables.
type Control interface {
	// TriggerNext schedules an iteration as soon as possible.
	TriggerNext()
}

type ctxKey struct{}

// ControlFrom gets the Control of the running loop from ctx. It returns
// a no-op Control outside a loop.
func ControlFrom(ctx context.Context) Control {
	if c, ok := ctx.Value(ctxKey{}).(Control); ok {
		return c
	}
	return nopControl{}
}

type nopControl struct{}

func (nopControl) TriggerNext() {}
