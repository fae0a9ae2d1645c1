package pathwire

import "errors"

var (
	// ErrTxOverflow indicates the tx queue filled up while a frame was
	// being written. The bytes already queued are not rolled back.
	ErrTxOverflow = errors.New("tx queue overflow")
)
