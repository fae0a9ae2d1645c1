// Package shell provides an interactive console on a PathWire link.
package shell

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/pathwire/pkg/bridge/codec"
	"github.com/robotalks/pathwire/pkg/loop"
	"github.com/robotalks/pathwire/pkg/node"
	"github.com/robotalks/pathwire/pkg/pathwire"
	"github.com/robotalks/pathwire/pkg/port"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	LinkURL     string

	Shell   *ishell.Shell
	Config  *node.Config
	Session *Session
}

// Session is a running loop with an open link.
type Session struct {
	URL    string
	Cancel func()
	Node   *node.Node
	Link   *port.Link
	Done   chan error
}

const (
	shellKey       = "$shell"
	unopenedPrompt = "[none] > "
)

var (
	evalOnly   bool
	outputJSON bool
	linkURL    string

	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
		&SendCmd,
		&StatsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&linkURL, "link", linkURL, "Link to open on start, e.g. serial:///dev/ttyUSB0")
}

// New creates a new shell.
func New(conf *node.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		LinkURL:     linkURL,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unopenedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an open link.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(fmt.Errorf("no link open"))
			return
		}
		fn(c)
	}
}

// Open opens a link and starts a loop printing every received frame.
func (s *Shell) Open(linkURL string) error {
	ctx, cancel := context.WithCancel(context.Background())
	conn, err := port.Open(ctx, linkURL)
	if err != nil {
		cancel()
		return err
	}
	n, err := s.Config.NewNode(nil)
	if err != nil {
		cancel()
		conn.Close()
		return err
	}
	sess := &Session{
		URL:    linkURL,
		Cancel: cancel,
		Node:   n,
		Link:   port.NewLink(conn, n.Rx, n.Tx),
		Done:   make(chan error, 1),
	}
	n.Hook.Register(sess.Link)
	n.Tap = s.printFrame
	s.Close()
	s.Session = sess
	go func() {
		sess.Done <- loop.NewLoop().Add(n, sess.Link).Run(ctx)
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", linkURL))
	return nil
}

// Close closes current link.
func (s *Shell) Close() error {
	if s.Session == nil {
		return nil
	}
	sess := s.Session
	s.Session = nil
	s.Shell.SetPrompt(unopenedPrompt)
	sess.Cancel()
	return <-sess.Done
}

func (s *Shell) printFrame(f pathwire.Frame) {
	if !s.OutputJSON {
		s.Shell.Println(f.String())
		return
	}
	var msg codec.Message
	if err := codec.Wire.Unmarshal([]byte(f.String()), &msg); err != nil {
		s.Shell.Println(f.String())
		return
	}
	if out, err := json.Marshal(&msg); err == nil {
		s.Shell.Println(string(out))
	}
}

// Send encodes path and values as a frame and queues it.
func (s *Session) Send(path string, values ...string) error {
	text := fmt.Sprintf("{p:%s:d:%s}", path, strings.Join(values, ","))
	var msg codec.Message
	if err := codec.Wire.Unmarshal([]byte(text), &msg); err != nil {
		return fmt.Errorf("invalid frame %s: %w", text, err)
	}
	return msg.Send(s.Node.Sender)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.LinkURL != "" {
		if err := s.Open(s.LinkURL); err != nil {
			log.Fatalf("open %q failed: %v", s.LinkURL, err)
		}
		defer s.Close()
	}
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := port.SerialPorts()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, p := range ports {
				c.Println(p)
			}
		},
	}

	// OpenCmd opens a link.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "URL",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("link URL required"))
				return
			}
			if err := ShellFrom(c).Open(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the link.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Close(); err != nil {
				c.Err(err)
			}
		},
	}

	// SendCmd sends a frame.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "PATH [VALUE...]",
		Func: MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("path required"))
				return
			}
			if err := ShellFrom(c).Session.Send(c.Args[0], c.Args[1:]...); err != nil {
				c.Err(err)
			}
		}),
	}

	// StatsCmd prints the counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: MustBeOpen(func(c *ishell.Context) {
			sess := ShellFrom(c).Session
			stats := struct {
				Node node.Stats
				Link port.LinkStats
			}{sess.Node.Stats(), sess.Link.Stats()}
			out, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(string(out))
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(node.NewConfig()).Run(flag.Args()...)
}
