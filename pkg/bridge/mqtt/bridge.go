package mqtt

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/pathwire/pkg/bridge/codec"
	"github.com/robotalks/pathwire/pkg/loop"
	"github.com/robotalks/pathwire/pkg/pathwire"
)

// Topic segments between the device and the frame path.
const (
	TelemetrySegment = "tlm"
	CommandSegment   = "cmd"
)

// DefaultCommandBacklog is the number of commands buffered between the
// MQTT callbacks and the loop.
const DefaultCommandBacklog = 16

// TelemetryTopic is where frames received from the device are published.
func TelemetryTopic(device, path string) string {
	return device + "/" + TelemetrySegment + "/" + path
}

// CommandTopic is where frames for the device are received from.
func CommandTopic(device, path string) string {
	return device + "/" + CommandSegment + "/" + path
}

// Device status payloads, published retained on the status topic.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// StatusQoS is the QoS of status messages, including the will.
const StatusQoS byte = 1

// StatusTopic is where the bridge announces whether it is online.
func StatusTopic(device string) string {
	return device + "/status"
}

// BridgeStats counts bridged messages.
type BridgeStats struct {
	Published   uint64
	Commands    uint64
	Rejected    uint64 // commands failed to decode or validate
	Overflows   uint64 // commands dropped on a full backlog or tx queue
	PublishErrs uint64
	Disconnects uint64
}

// Bridge publishes dispatched frames as telemetry and forwards command
// messages to the device as frames.
type Bridge struct {
	Client *Client
	Device string
	Codec  codec.Codec
	// QoS and Retain apply to telemetry messages.
	QoS    byte
	Retain bool

	sender *pathwire.Sender
	cmdCh  chan *codec.Message
	ctl    atomic.Pointer[loop.Control]

	published   atomic.Uint64
	commands    atomic.Uint64
	rejected    atomic.Uint64
	overflows   atomic.Uint64
	publishErrs atomic.Uint64
	disconnects atomic.Uint64
}

// NewBridge creates a Bridge sending commands through sender. It takes
// over the connect hooks of client to maintain the status topic.
func NewBridge(client *Client, device string, c codec.Codec, sender *pathwire.Sender) *Bridge {
	b := &Bridge{
		Client: client,
		Device: device,
		Codec:  c,
		sender: sender,
		cmdCh:  make(chan *codec.Message, DefaultCommandBacklog),
	}
	client.OnConnect = b.onConnect
	client.OnDisconnect = b.onDisconnect
	return b
}

// SetSender sets where commands are written. It must be called before
// the bridge is polled.
func (b *Bridge) SetSender(sender *pathwire.Sender) {
	b.sender = sender
}

// Stats returns a snapshot of the counters.
func (b *Bridge) Stats() BridgeStats {
	return BridgeStats{
		Published:   b.published.Load(),
		Commands:    b.commands.Load(),
		Rejected:    b.rejected.Load(),
		Overflows:   b.overflows.Load(),
		PublishErrs: b.publishErrs.Load(),
		Disconnects: b.disconnects.Load(),
	}
}

// Telemetry returns a table entry publishing frames of path.
func (b *Bridge) Telemetry(path string, kind pathwire.Kind) pathwire.PathEntry {
	topic := TelemetryTopic(b.Device, path)
	return pathwire.PathEntry{
		Path: path,
		Kind: kind,
		Handler: pathwire.HandleFunc(func(v *pathwire.Values) {
			b.publish(topic, codec.FromValues(path, v))
		}),
	}
}

func (b *Bridge) publish(topic string, msg *codec.Message) {
	payload, err := b.Codec.Marshal(msg)
	if err != nil {
		b.publishErrs.Add(1)
		glog.Warningf("encode %s error: %v", topic, err)
		return
	}
	b.published.Add(1)
	b.Client.PubWith(topic, payload, b.QoS, b.Retain)
}

func (b *Bridge) publishStatus(status string) {
	b.Client.PubWith(StatusTopic(b.Device), []byte(status), StatusQoS, true)
}

func (b *Bridge) onConnect(*Client) {
	b.publishStatus(StatusOnline)
}

func (b *Bridge) onDisconnect(*Client) {
	b.disconnects.Add(1)
}

// AddToLoop implements loop.Adder.
func (b *Bridge) AddToLoop(l *loop.Loop) {
	l.AddRunnable(loop.NamedRun("mqtt-bridge", b)).AddPoller(b)
}

// Run implements loop.Runnable. It subscribes to the command topics of the
// device until ctx is done, then announces the device offline.
func (b *Bridge) Run(ctx context.Context) error {
	ctl := loop.ControlFrom(ctx)
	b.ctl.Store(&ctl)
	sub := b.Client.Sub(CommandTopic(b.Device, "#"), b.handleCommand)
	defer sub.Close()
	<-ctx.Done()
	b.publishStatus(StatusOffline)
	return ctx.Err()
}

// Poll implements loop.Poller. It writes the queued commands as frames.
func (b *Bridge) Poll(context.Context) error {
	for {
		select {
		case msg := <-b.cmdCh:
			if err := msg.Send(b.sender); err != nil {
				b.overflows.Add(1)
				glog.Warningf("send %q error: %v", msg.Path, err)
			}
		default:
			return nil
		}
	}
}

func (b *Bridge) handleCommand(topic string, payload []byte) {
	prefix := CommandTopic(b.Device, "")
	if !strings.HasPrefix(topic, prefix) {
		return
	}
	msg := &codec.Message{}
	if err := b.Codec.Unmarshal(payload, msg); err != nil {
		b.rejected.Add(1)
		glog.Warningf("decode command %q error: %v", topic, err)
		return
	}
	if path := topic[len(prefix):]; path != "" && msg.Path == "" {
		msg.Path = path
	}
	if err := msg.Validate(); err != nil {
		b.rejected.Add(1)
		glog.Warningf("reject command %q: %v", topic, err)
		return
	}
	b.commands.Add(1)
	select {
	case b.cmdCh <- msg:
		if ctl := b.ctl.Load(); ctl != nil {
			(*ctl).TriggerNext()
		}
	default:
		b.overflows.Add(1)
		glog.Warningf("command backlog full, drop %q", msg.Path)
	}
}
