// Package config loads the pathwired TOML configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/pathwire/pkg/bridge/codec"
	"github.com/robotalks/pathwire/pkg/node"
	"github.com/robotalks/pathwire/pkg/pathwire"
)

// Defaults.
const (
	DefaultMQTTURL = "mqtt://localhost:1883/pathwire/"
	DefaultCodec   = "json"
	fallbackDevice = "pathwire"
	deviceIDLen    = 12
)

// LinkConfig selects the transport to the device.
type LinkConfig struct {
	// URL is passed to port.Open, e.g. serial:///dev/ttyUSB0?baud=115200.
	URL string `toml:"url"`
	// Listen accepts the device over websocket on this address instead.
	Listen string `toml:"listen"`
	// Path is the HTTP path of the websocket endpoint.
	Path string `toml:"path"`
}

// MQTTConfig selects the broker side of the bridge.
type MQTTConfig struct {
	URL   string `toml:"url"`
	Codec string `toml:"codec"`
	// QoS and Retain apply to published telemetry.
	QoS    byte `toml:"qos"`
	Retain bool `toml:"retain"`
}

// Route is a frame path published as telemetry.
type Route struct {
	Path string `toml:"path"`
	Kind string `toml:"kind"`
}

// Config is the daemon configuration.
type Config struct {
	Device string      `toml:"device"`
	Link   LinkConfig  `toml:"link"`
	Node   node.Config `toml:"node"`
	MQTT   MQTTConfig  `toml:"mqtt"`
	Routes []Route     `toml:"routes"`
}

// ConfigError reports an invalid setting.
type ConfigError struct {
	Field string
	Err   error
}

// Error implements error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

// Unwrap returns the cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// DeviceID derives a stable device name from the machine ID.
func DeviceID() string {
	id, err := machineid.ProtectedID("pathwire")
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return fallbackDevice
	}
	if len(id) > deviceIDLen {
		id = id[:deviceIDLen]
	}
	return id
}

// Default creates a Config with default settings.
func Default() *Config {
	return &Config{
		Device: DeviceID(),
		Link:   LinkConfig{Path: "/pathwire"},
		Node:   *node.NewConfig(),
		MQTT: MQTTConfig{
			URL:   DefaultMQTTURL,
			Codec: DefaultCodec,
		},
	}
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	conf := Default()
	meta, err := toml.DecodeFile(path, conf)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return conf, conf.check(meta)
}

// Parse decodes TOML text over the defaults.
func Parse(text string) (*Config, error) {
	conf := Default()
	meta, err := toml.Decode(text, conf)
	if err != nil {
		return nil, err
	}
	return conf, conf.check(meta)
}

func (c *Config) check(meta toml.MetaData) error {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return &ConfigError{Field: keys[0], Err: fmt.Errorf("unknown keys %s", strings.Join(keys, ", "))}
	}
	return c.Validate()
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Device == "" || strings.ContainsAny(c.Device, "/+#") {
		return &ConfigError{Field: "device", Err: fmt.Errorf("invalid device name %q", c.Device)}
	}
	if c.Link.URL != "" && c.Link.Listen != "" {
		return &ConfigError{Field: "link", Err: fmt.Errorf("url and listen are exclusive")}
	}
	if err := c.Node.Validate(); err != nil {
		return &ConfigError{Field: "node", Err: err}
	}
	if _, err := codec.Lookup(c.MQTT.Codec); err != nil {
		return &ConfigError{Field: "mqtt.codec", Err: err}
	}
	if c.MQTT.QoS > 2 {
		return &ConfigError{Field: "mqtt.qos", Err: fmt.Errorf("invalid qos %d", c.MQTT.QoS)}
	}
	seen := make(map[string]bool)
	for i, r := range c.Routes {
		field := fmt.Sprintf("routes[%d]", i)
		if r.Path == "" || strings.ContainsAny(r.Path, "{}:,+#") {
			return &ConfigError{Field: field, Err: fmt.Errorf("invalid path %q", r.Path)}
		}
		if seen[r.Path] {
			return &ConfigError{Field: field, Err: fmt.Errorf("duplicated path %q", r.Path)}
		}
		seen[r.Path] = true
		if _, err := r.PathKind(); err != nil {
			return &ConfigError{Field: field, Err: err}
		}
	}
	return nil
}

// PathKind parses the route kind. Empty means a trigger.
func (r Route) PathKind() (pathwire.Kind, error) {
	if r.Kind == "" {
		return pathwire.KindNone, nil
	}
	kind, ok := pathwire.ParseKind(r.Kind)
	if !ok {
		return pathwire.KindNone, &codec.UnknownKindError{Kind: r.Kind}
	}
	return kind, nil
}
