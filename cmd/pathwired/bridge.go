package main

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/robotalks/pathwire/pkg/bridge/codec"
	"github.com/robotalks/pathwire/pkg/bridge/mqtt"
	"github.com/robotalks/pathwire/pkg/config"
	"github.com/robotalks/pathwire/pkg/loop"
	"github.com/robotalks/pathwire/pkg/node"
	"github.com/robotalks/pathwire/pkg/pathwire"
	"github.com/robotalks/pathwire/pkg/port"
)

var bridgeConfigFile string

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Bridge a device to an MQTT broker",
	Long: `bridge publishes the frames matching the configured routes to
<prefix><device>/tlm/<path> and sends messages received on
<prefix><device>/cmd/<path> to the device.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadBridgeConfig(cmd)
		if err != nil {
			return err
		}
		return runBridge(conf)
	},
}

func init() {
	bridgeCmd.Flags().StringVarP(&bridgeConfigFile, "config", "c", "", "TOML config file")
	rootCmd.AddCommand(bridgeCmd)
}

func loadBridgeConfig(cmd *cobra.Command) (*config.Config, error) {
	conf := config.Default()
	if bridgeConfigFile != "" {
		var err error
		if conf, err = config.Load(bridgeConfigFile); err != nil {
			return nil, err
		}
	}
	applyFlags(conf, cmd.Flags(), node.Default())
	return conf, conf.Validate()
}

// applyFlags overrides conf with the flags set on the command line. The
// node flags are bound to nodeFlags.
func applyFlags(conf *config.Config, flags *pflag.FlagSet, nodeFlags *node.Config) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "link":
			conf.Link.URL, conf.Link.Listen = f.Value.String(), ""
		case "rx-size":
			conf.Node.RxSize = nodeFlags.RxSize
		case "tx-size":
			conf.Node.TxSize = nodeFlags.TxSize
		case "frame-slots":
			conf.Node.FrameSlots = nodeFlags.FrameSlots
		case "work-size":
			conf.Node.WorkSize = nodeFlags.WorkSize
		case "number-policy":
			conf.Node.NumberPolicy = nodeFlags.NumberPolicy
		case "frame-timeout":
			conf.Node.FrameTimeout = nodeFlags.FrameTimeout
		}
	})
}

func runBridge(conf *config.Config) error {
	c, err := codec.Lookup(conf.MQTT.Codec)
	if err != nil {
		return err
	}
	opts, topicPrefix, err := mqtt.ClientOptionsFromURL(conf.MQTT.URL)
	if err != nil {
		return err
	}
	opts.SetWill(topicPrefix+mqtt.StatusTopic(conf.Device), mqtt.StatusOffline, mqtt.StatusQoS, true)
	client := mqtt.NewClient(opts, topicPrefix)
	bridge := mqtt.NewBridge(client, conf.Device, c, nil)
	bridge.QoS, bridge.Retain = conf.MQTT.QoS, conf.MQTT.Retain
	table := make([]pathwire.PathEntry, 0, len(conf.Routes))
	for _, r := range conf.Routes {
		kind, err := r.PathKind()
		if err != nil {
			return err
		}
		table = append(table, bridge.Telemetry(r.Path, kind))
	}
	n, err := conf.Node.NewNode(table)
	if err != nil {
		return err
	}
	bridge.SetSender(n.Sender)

	runner := loop.NewRunner().HandleSignals()
	l := loop.NewLoop().Add(n, bridge)
	switch {
	case conf.Link.Listen != "":
		l.Add(port.NewListener(conf.Link.Listen, conf.Link.Path, n.Rx, n.Tx, n.Hook))
	case conf.Link.URL != "":
		conn, err := port.Open(runner.Context, conf.Link.URL)
		if err != nil {
			return err
		}
		link := port.NewLink(conn, n.Rx, n.Tx)
		n.Hook.Register(link)
		l.Add(link)
	default:
		return fmt.Errorf("either link url or listen is required")
	}

	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect %s: %w", conf.MQTT.URL, err)
	}
	defer client.Close()
	glog.Infof("bridging device %s with %d routes", conf.Device, len(table))
	return runner.Go(l).Wait()
}
