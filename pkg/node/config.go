// Package node assembles the PathWire queues, parser, dispatcher, sender
// and notification hook into a single pollable endpoint.
package node

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/pathwire/pkg/pathwire"
)

// Config defines the buffer sizes and parsing behavior of a Node.
type Config struct {
	// RxSize and TxSize are the storage lengths of the byte queues. A queue
	// holds one byte less than its storage.
	RxSize int `toml:"rx_size"`
	TxSize int `toml:"tx_size"`
	// FrameSlots is the storage length of the frame queue.
	FrameSlots int `toml:"frame_slots"`
	// WorkSize bounds path plus data of a single frame.
	WorkSize int `toml:"work_size"`
	// NumberPolicy selects how malformed numeric fields are handled.
	NumberPolicy pathwire.NumberPolicy `toml:"number_policy"`
	// FrameTimeout abandons a partial frame which receives no byte for this
	// long. Zero disables it.
	FrameTimeout time.Duration `toml:"frame_timeout"`
}

var defaultConfig = Config{
	RxSize:       512,
	TxSize:       512,
	FrameSlots:   8,
	WorkSize:     128,
	FrameTimeout: 100 * time.Millisecond,
}

var errInvalidConfig = errors.New("invalid node config")

func init() {
	if val := os.Getenv("PATHWIRE_WORK_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			defaultConfig.WorkSize = n
		} else {
			glog.Warningf("ignore PATHWIRE_WORK_SIZE: %v", err)
		}
	}
	if val := os.Getenv("PATHWIRE_NUMBER_POLICY"); val != "" {
		if err := defaultConfig.NumberPolicy.UnmarshalText([]byte(val)); err != nil {
			glog.Warningf("ignore PATHWIRE_NUMBER_POLICY: %v", err)
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.RxSize, "rx-size", defaultConfig.RxSize, "Rx queue storage in bytes")
	flag.IntVar(&defaultConfig.TxSize, "tx-size", defaultConfig.TxSize, "Tx queue storage in bytes")
	flag.IntVar(&defaultConfig.FrameSlots, "frame-slots", defaultConfig.FrameSlots, "Frame queue storage")
	flag.IntVar(&defaultConfig.WorkSize, "work-size", defaultConfig.WorkSize, "Max bytes of path plus data in a frame")
	flag.TextVar(&defaultConfig.NumberPolicy, "number-policy", defaultConfig.NumberPolicy, "Malformed number handling: lenient or strict")
	flag.DurationVar(&defaultConfig.FrameTimeout, "frame-timeout", defaultConfig.FrameTimeout, "Abandon partial frames idle for this long")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the sizes are usable.
func (c *Config) Validate() error {
	switch {
	case c.RxSize < 2:
		return fmt.Errorf("%w: rx size %d", errInvalidConfig, c.RxSize)
	case c.TxSize < 2:
		return fmt.Errorf("%w: tx size %d", errInvalidConfig, c.TxSize)
	case c.FrameSlots < 2:
		return fmt.Errorf("%w: frame slots %d", errInvalidConfig, c.FrameSlots)
	case c.WorkSize < 1:
		return fmt.Errorf("%w: work size %d", errInvalidConfig, c.WorkSize)
	case c.FrameTimeout < 0:
		return fmt.Errorf("%w: frame timeout %v", errInvalidConfig, c.FrameTimeout)
	}
	return nil
}
