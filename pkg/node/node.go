package node

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/pathwire/pkg/loop"
	"github.com/robotalks/pathwire/pkg/pathwire"
)

// Stats combines the parser and dispatcher counters.
type Stats struct {
	Parser   pathwire.ParserStats
	Dispatch pathwire.DispatchStats
}

// Node is one end of a PathWire link. The transport produces into Rx and
// consumes Tx, everything else runs on the goroutine calling Poll.
type Node struct {
	Config Config

	Rx     *pathwire.Queue[byte]
	Tx     *pathwire.Queue[byte]
	Frames *pathwire.Queue[pathwire.Frame]

	Parser     *pathwire.Parser
	Dispatcher *pathwire.Dispatcher
	Sender     *pathwire.Sender
	// Hook is the Sender's notifier, the transport registers into it.
	Hook *pathwire.Hook

	// Tap, when set, sees every frame before it is dispatched.
	Tap func(pathwire.Frame)

	now        func() time.Time
	lastExpire time.Time
}

// NewNode creates a Node dispatching to table.
func (c *Config) NewNode(table []pathwire.PathEntry) (*Node, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	n := &Node{
		Config: *c,
		Rx:     pathwire.NewQueue(make([]byte, c.RxSize)),
		Tx:     pathwire.NewQueue(make([]byte, c.TxSize)),
		Frames: pathwire.NewQueue(make([]pathwire.Frame, c.FrameSlots)),
		Hook:   &pathwire.Hook{},
		now:    time.Now,
	}
	n.Parser = pathwire.NewParser(n.Rx, n.Frames, c.WorkSize)
	n.Dispatcher = pathwire.NewDispatcher(n.Frames, table, pathwire.WithNumberPolicy(c.NumberPolicy))
	n.Sender = pathwire.NewSender(n.Tx, n.Hook)
	n.lastExpire = n.now()
	return n, nil
}

// Poll implements loop.Poller. It parses all received bytes and dispatches
// every complete frame.
func (n *Node) Poll(ctx context.Context) error {
	n.Parser.Poll()
	for {
		frame, ok := n.Frames.Pop()
		if !ok {
			break
		}
		if n.Tap != nil {
			n.Tap(frame)
		}
		n.Dispatcher.Dispatch(frame)
	}
	if timeout := n.Config.FrameTimeout; timeout > 0 {
		if now := n.now(); now.Sub(n.lastExpire) >= timeout {
			n.lastExpire = now
			if n.Parser.Expire() {
				glog.V(2).Info("partial frame expired")
			}
		}
	}
	return nil
}

// AddToLoop implements loop.Adder.
func (n *Node) AddToLoop(l *loop.Loop) {
	l.AddPoller(n)
}

// Stats returns a snapshot of the counters.
func (n *Node) Stats() Stats {
	return Stats{
		Parser:   n.Parser.Stats(),
		Dispatch: n.Dispatcher.Stats(),
	}
}
