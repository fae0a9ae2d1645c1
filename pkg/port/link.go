// Package port moves bytes between a transport and the PathWire queues of
// a node.
package port

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/pathwire/pkg/loop"
	"github.com/robotalks/pathwire/pkg/pathwire"
)

// DefaultChunkSize is the size of read and write buffers.
const DefaultChunkSize = 256

// LinkStats counts bytes moved by a Link.
type LinkStats struct {
	RxBytes   uint64
	RxDropped uint64 // bytes lost because the rx queue was full
	TxBytes   uint64
}

// Link is the producer of a rx queue and the consumer of a tx queue. It
// implements pathwire.Notifier: register it into the Sender's hook to kick
// transmission.
type Link struct {
	Name string

	conn io.ReadWriteCloser
	rx   *pathwire.Queue[byte]
	tx   *pathwire.Queue[byte]

	kickCh    chan struct{}
	rxBytes   atomic.Uint64
	rxDropped atomic.Uint64
	txBytes   atomic.Uint64
}

// NewLink creates a Link over conn. The Link owns conn and closes it when
// Run returns.
func NewLink(conn io.ReadWriteCloser, rx, tx *pathwire.Queue[byte]) *Link {
	return &Link{
		Name:   "link",
		conn:   conn,
		rx:     rx,
		tx:     tx,
		kickCh: make(chan struct{}, 1),
	}
}

// NotifyTx implements pathwire.Notifier. It never blocks.
func (l *Link) NotifyTx() {
	select {
	case l.kickCh <- struct{}{}:
	default:
	}
}

// Stats returns a snapshot of the counters.
func (l *Link) Stats() LinkStats {
	return LinkStats{
		RxBytes:   l.rxBytes.Load(),
		RxDropped: l.rxDropped.Load(),
		TxBytes:   l.txBytes.Load(),
	}
}

// AddToLoop implements loop.Adder.
func (l *Link) AddToLoop(lp *loop.Loop) {
	lp.AddRunnable(l)
}

// Run implements loop.Runnable. It returns nil when the peer closes the
// connection.
func (l *Link) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	glog.Infof("%s: open", l.Name)

	writeErrCh := make(chan error, 1)
	go func() {
		err := l.writeLoop(ctx)
		cancel()
		writeErrCh <- err
	}()
	// Bytes queued before Run are flushed right away.
	l.NotifyTx()

	readErr := loop.RunWithContextCloser(ctx, l.conn, func() error {
		return l.readLoop(ctx)
	})
	cancel()
	writeErr := <-writeErrCh

	var errs loop.AggregatedError
	if readErr != nil && !errors.Is(readErr, context.Canceled) {
		errs.Add(readErr)
	}
	if writeErr != nil && !errors.Is(writeErr, context.Canceled) {
		errs.Add(writeErr)
	}
	err := errs.Aggregate()
	if err != nil {
		glog.Warningf("%s: closed: %v", l.Name, err)
	} else {
		glog.Infof("%s: closed", l.Name)
	}
	return err
}

func (l *Link) readLoop(ctx context.Context) error {
	ctl := loop.ControlFrom(ctx)
	buf := make([]byte, DefaultChunkSize)
	for {
		n, err := l.conn.Read(buf)
		if n > 0 {
			l.rxBytes.Add(uint64(n))
			for _, b := range buf[:n] {
				if !l.rx.Push(b) {
					l.rxDropped.Add(1)
				}
			}
			ctl.TriggerNext()
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (l *Link) writeLoop(ctx context.Context) error {
	buf := make([]byte, DefaultChunkSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.kickCh:
		}
		for {
			n := 0
			for n < len(buf) {
				b, ok := l.tx.Pop()
				if !ok {
					break
				}
				buf[n] = b
				n++
			}
			if n == 0 {
				break
			}
			if _, err := l.conn.Write(buf[:n]); err != nil {
				return err
			}
			l.txBytes.Add(uint64(n))
			if glog.V(4) {
				glog.Infof("%s: TX %q", l.Name, buf[:n])
			}
		}
	}
}
