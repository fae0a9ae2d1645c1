package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/robotalks/pathwire/pkg/bridge/codec"
	"github.com/robotalks/pathwire/pkg/node"
)

var sendLinger time.Duration

var sendCmd = &cobra.Command{
	Use:   "send PATH [VALUE...]",
	Short: "Send one frame to the device",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := fmt.Sprintf("{p:%s:d:%s}", args[0], strings.Join(args[1:], ","))
		var msg codec.Message
		if err := codec.Wire.Unmarshal([]byte(text), &msg); err != nil {
			return fmt.Errorf("invalid frame %s: %w", text, err)
		}

		s, err := openSession(cmd.Context(), node.Default(), linkURL)
		if err != nil {
			return err
		}
		if err := msg.Send(s.node.Sender); err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		time.AfterFunc(sendLinger, cancel)
		err = s.loop.Run(ctx)
		if err == nil && s.link.Stats().TxBytes == 0 {
			err = fmt.Errorf("frame not transmitted within %v", sendLinger)
		}
		return err
	},
}

func init() {
	sendCmd.Flags().DurationVar(&sendLinger, "linger", 200*time.Millisecond, "Time to flush the frame before closing the link")
	rootCmd.AddCommand(sendCmd)
}
