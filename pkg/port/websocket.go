package port

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gorilla "github.com/gorilla/websocket"
	"golang.org/x/net/websocket"
)

// DefaultHandshakeTimeout bounds the websocket handshake of DialWebsocket.
const DefaultHandshakeTimeout = 10 * time.Second

// wsConn presents the binary messages of a websocket as a byte stream.
type wsConn struct {
	conn *gorilla.Conn
	buf  []byte
}

func (w *wsConn) Read(p []byte) (int, error) {
	for len(w.buf) == 0 {
		typ, data, err := w.conn.ReadMessage()
		if err != nil {
			if gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, err
		}
		if typ == gorilla.BinaryMessage || typ == gorilla.TextMessage {
			w.buf = data
		}
	}
	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

func (w *wsConn) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(gorilla.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

// DialWebsocket connects to a ws:// or wss:// endpoint. User info in the
// URL is sent as HTTP basic auth.
func DialWebsocket(ctx context.Context, wsURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	headers := http.Header{}
	if u.User != nil {
		pwd, _ := u.User.Password()
		cred := base64.StdEncoding.EncodeToString([]byte(u.User.Username() + ":" + pwd))
		headers.Set("Authorization", "Basic "+cred)
		u.User = nil
	}
	dialer := gorilla.Dialer{HandshakeTimeout: DefaultHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}
	return &wsConn{conn: conn}, nil
}

// WebsocketHandler accepts websocket peers and passes each connection, in
// binary frame mode, to accept. The connection is closed when accept
// returns.
func WebsocketHandler(accept func(io.ReadWriteCloser)) http.Handler {
	return websocket.Server{
		Handler: func(conn *websocket.Conn) {
			conn.PayloadType = websocket.BinaryFrame
			accept(conn)
		},
	}
}
