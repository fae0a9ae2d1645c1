package port

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/pathwire/pkg/loop"
	"github.com/robotalks/pathwire/pkg/pathwire"
)

// Listener accepts a device over websocket. Only one peer is linked at a
// time as the queues allow a single producer and consumer.
type Listener struct {
	Addr string
	Path string

	rx   *pathwire.Queue[byte]
	tx   *pathwire.Queue[byte]
	hook *pathwire.Hook
	busy atomic.Bool
}

// NewListener creates a Listener feeding rx and draining tx. The link of
// the current peer is registered into hook.
func NewListener(addr, path string, rx, tx *pathwire.Queue[byte], hook *pathwire.Hook) *Listener {
	if path == "" {
		path = "/"
	}
	return &Listener{Addr: addr, Path: path, rx: rx, tx: tx, hook: hook}
}

// AddToLoop implements loop.Adder.
func (l *Listener) AddToLoop(lp *loop.Loop) {
	lp.AddRunnable(loop.NamedRun("ws-listener", l))
}

// Run implements loop.Runnable.
func (l *Listener) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.Addr)
	if err != nil {
		return err
	}
	return l.Serve(ctx, ln)
}

// Serve accepts peers on ln until ctx is done.
func (l *Listener) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(l.Path, WebsocketHandler(func(conn io.ReadWriteCloser) {
		l.accept(ctx, conn)
	}))
	srv := &http.Server{Handler: mux}
	glog.Infof("listening on %s%s", ln.Addr(), l.Path)
	err := loop.RunWithContextCancel(ctx, func() { srv.Close() }, func() error {
		return srv.Serve(ln)
	})
	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (l *Listener) accept(ctx context.Context, conn io.ReadWriteCloser) {
	if !l.busy.CompareAndSwap(false, true) {
		glog.Warning("link busy, reject peer")
		conn.Close()
		return
	}
	defer l.busy.Store(false)
	link := NewLink(conn, l.rx, l.tx)
	link.Name = "ws-peer"
	l.hook.Register(link)
	defer l.hook.Register(nil)
	link.Run(ctx)
}
