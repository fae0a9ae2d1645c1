package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/robotalks/pathwire/pkg/bridge/codec"
	"github.com/robotalks/pathwire/pkg/loop"
	"github.com/robotalks/pathwire/pkg/node"
	"github.com/robotalks/pathwire/pkg/pathwire"
)

var monitorCodec string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print every frame received from the device",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := codec.Lookup(monitorCodec)
		if err != nil {
			return err
		}
		runner := loop.NewRunner().HandleSignals()
		s, err := openSession(runner.Context, node.Default(), linkURL)
		if err != nil {
			return err
		}
		s.node.Tap = func(f pathwire.Frame) {
			ts := time.Now().Format("15:04:05.000")
			if c == codec.Wire {
				fmt.Fprintf(os.Stdout, "%s %s\n", ts, f)
				return
			}
			var msg codec.Message
			if err := codec.Wire.Unmarshal([]byte(f.String()), &msg); err != nil {
				fmt.Fprintf(os.Stdout, "%s %s (%v)\n", ts, f, err)
				return
			}
			out, err := c.Marshal(&msg)
			if err != nil {
				fmt.Fprintf(os.Stdout, "%s %s (%v)\n", ts, f, err)
				return
			}
			fmt.Fprintf(os.Stdout, "%s %s\n", ts, out)
		}
		err = runner.Go(s.loop).Wait()
		stats := s.node.Stats()
		fmt.Fprintf(os.Stderr, "frames=%d malformed=%d overflows=%d dropped=%d stalls=%d\n",
			stats.Parser.Frames, stats.Parser.Malformed, stats.Parser.Overflows,
			stats.Parser.Dropped, stats.Parser.Stalls)
		return err
	},
}

func init() {
	monitorCmd.Flags().StringVar(&monitorCodec, "format", "wire", "Output format: wire or json")
	rootCmd.AddCommand(monitorCmd)
}
