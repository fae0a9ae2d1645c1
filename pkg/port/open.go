package port

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
)

// ErrUnsupportedScheme is returned for link URLs Open can't handle.
var ErrUnsupportedScheme = errors.New("unsupported link scheme")

// Open opens a transport by URL:
//
//	serial:///dev/ttyUSB0?baud=115200
//	tcp://host:port
//	ws://host:port/path, wss://...
//
// A bare path is treated as a serial device.
func Open(ctx context.Context, linkURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(linkURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "", "serial":
		baud := DefaultBaudRate
		if val := u.Query().Get("baud"); val != "" {
			if baud, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("invalid baud rate %q: %w", val, err)
			}
		}
		return OpenSerial(u.Path, baud)
	case "tcp":
		var d net.Dialer
		return d.DialContext(ctx, "tcp", u.Host)
	case "ws", "wss":
		return DialWebsocket(ctx, linkURL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}
