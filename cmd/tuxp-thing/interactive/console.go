// Package interactive provides the interactive command-line interface
// for the TUXP node.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

// Status is a snapshot of the node.
type Status struct {
	Info             commissioning.ThingInfo
	Address          transport.Address
	Operational      bool
	SessionID        string
	RegistrationCode string
	LED              bool
	Uptime           time.Duration
}

// Node is the node the console controls. Every method is safe to call
// from the console goroutine.
type Node interface {
	Status(ctx context.Context) (Status, error)
	Notify(ctx context.Context, text string, ack bool) error
	Report(ctx context.Context) error
	Reset(ctx context.Context) error
	SetReceiveInterval(ctx context.Context, d time.Duration) error
}

// Console handles interactive mode for tuxp-thing.
type Console struct {
	node Node
	rl   *readline.Instance
}

// New creates a new console.
func New(node Node) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "thing> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{node: node, rl: rl}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		if !c.Execute(ctx, line) {
			cancel()
			return
		}
	}
}

// Execute runs one command line and reports whether the console should
// keep running.
func (c *Console) Execute(ctx context.Context, line string) bool {
	return execute(ctx, c.node, c.rl.Stdout(), line)
}

func execute(ctx context.Context, node Node, w io.Writer, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		printHelp(w)

	case "status", "s":
		cmdStatus(ctx, node, w)

	case "info", "i":
		cmdInfo(ctx, node, w)

	case "notify", "n":
		cmdNotify(ctx, node, w, args)

	case "report", "r":
		if err := node.Report(ctx); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return true
		}
		fmt.Fprintln(w, "Uptime reported")

	case "reset":
		if err := node.Reset(ctx); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return true
		}
		fmt.Fprintln(w, "Allocation dropped, DAC exchange restarted")

	case "interval":
		cmdInterval(ctx, node, w, args)

	case "quit", "exit", "q":
		fmt.Fprintln(w, "Exiting...")
		return false

	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) printHelp() {
	printHelp(c.rl.Stdout())
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `
TUXP Thing Commands:
  status               - Show DAC state and address
  info                 - Show the commissioning record
  notify [-ack] <text> - Send a text notification to the gateway
  report               - Report the uptime now
  reset                - Drop the allocation and restart the DAC exchange
  interval <duration>  - Set the radio receive interval (e.g. 500ms)

  help                 - Show this help
  quit                 - Exit`)
}

func cmdStatus(ctx context.Context, node Node, w io.Writer) {
	st, err := node.Status(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(w, "State:       %s\n", st.Info.State)
	fmt.Fprintf(w, "Operational: %v\n", st.Operational)
	fmt.Fprintf(w, "Address:     %s (lan %d)\n", st.Address, st.Address.LanID())
	led := "off"
	if st.LED {
		led = "on"
	}
	fmt.Fprintf(w, "LED:         %s\n", led)
	fmt.Fprintf(w, "Uptime:      %s\n", st.Uptime.Round(time.Second))
}

func cmdInfo(ctx context.Context, node Node, w io.Writer) {
	st, err := node.Status(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	info := st.Info
	thingID := info.ThingID
	if thingID == "" {
		thingID = "(not generated)"
	}
	fmt.Fprintf(w, "Thing ID:          %s\n", thingID)
	fmt.Fprintf(w, "Registration code: %s\n", st.RegistrationCode)
	fmt.Fprintf(w, "DAC state:         %s\n", info.State)
	if alloc := info.Allocation(); alloc != nil {
		fmt.Fprintf(w, "Allocated address: %s\n", alloc.Address)
		fmt.Fprintf(w, "Uplink address:    %02x%02x\n", alloc.UplinkAddressHigh, alloc.UplinkAddressLow)
		fmt.Fprintf(w, "Uplink channels:   0x%02x-0x%02x\n", alloc.UplinkChannelBegin, alloc.UplinkChannelEnd)
	} else {
		fmt.Fprintln(w, "Allocation:        none")
	}
	fmt.Fprintf(w, "Session:           %s\n", st.SessionID)
}

func cmdNotify(ctx context.Context, node Node, w io.Writer, args []string) {
	ack := false
	if len(args) > 0 && args[0] == "-ack" {
		ack = true
		args = args[1:]
	}
	if len(args) == 0 {
		fmt.Fprintln(w, "Usage: notify [-ack] <text>")
		return
	}

	text := strings.Join(args, " ")
	if err := node.Notify(ctx, text, ack); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Notified %q\n", text)
}

func cmdInterval(ctx context.Context, node Node, w io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: interval <duration>")
		return
	}
	d, err := time.ParseDuration(args[0])
	if err != nil {
		fmt.Fprintf(w, "Invalid duration: %v\n", err)
		return
	}
	if err := node.SetReceiveInterval(ctx, d); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Receive interval set to %s\n", d)
}
