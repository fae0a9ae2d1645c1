package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robotalks/pathwire/pkg/loop"
	"github.com/robotalks/pathwire/pkg/node"
	"github.com/robotalks/pathwire/pkg/port"
)

var rootCmd = &cobra.Command{
	Use:   "pathwired",
	Short: "PathWire host daemon",
	Long: `pathwired talks the PathWire text protocol with a device over a serial
port, TCP or websocket.

Link URLs:
  serial:///dev/ttyUSB0?baud=115200
  tcp://host:port
  ws://host:port/path (user:password@ for basic auth)`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		// glog reads flag.CommandLine, mark it parsed.
		flag.CommandLine.Parse(nil)
	},
}

var linkURL string

func init() {
	node.SetupFlags()
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	rootCmd.PersistentFlags().StringVarP(&linkURL, "link", "l", "", "Link URL of the device")
}

// session is a node linked to a device.
type session struct {
	node *node.Node
	link *port.Link
	loop *loop.Loop
}

func openSession(ctx context.Context, conf *node.Config, url string) (*session, error) {
	if url == "" {
		return nil, fmt.Errorf("--link is required")
	}
	n, err := conf.NewNode(nil)
	if err != nil {
		return nil, err
	}
	conn, err := port.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	s := &session{node: n, link: port.NewLink(conn, n.Rx, n.Tx)}
	n.Hook.Register(s.link)
	s.loop = loop.NewLoop().Add(n, s.link)
	return s, nil
}
