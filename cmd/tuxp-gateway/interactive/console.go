// Package interactive provides the interactive command-line interface
// for the TUXP gateway.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/mud-protocol/tuxp-go/internal/gatewaysim"
	"github.com/mud-protocol/tuxp-go/pkg/tinyid"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// Protocols of the sample node.
var (
	ledAction = wire.NewName(0xF7, 0x01, 0x00)
	ledQuery  = wire.NewName(0xF7, 0x01, 0x01)
)

const attrValue = 0x01

// Gateway is the gateway the console controls.
type Gateway interface {
	Things() []gatewaysim.Thing
	Configure(thingID string) error
	ExecuteOn(thingID string, action *wire.Protocol, at time.Time) (tinyid.ID, error)
	Pending() int
	Save() error
}

// Console handles interactive mode for tuxp-gateway.
type Console struct {
	gw Gateway
	rl *readline.Instance
}

// New creates a new console.
func New(gw Gateway) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "gateway> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{gw: gw, rl: rl}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	printHelp(c.rl.Stdout())

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		if !execute(c.gw, c.rl.Stdout(), line) {
			cancel()
			return
		}
	}
}

// execute runs one command line and reports whether the console should
// keep running.
func execute(gw Gateway, w io.Writer, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		printHelp(w)
	case "things", "t":
		cmdThings(gw, w)
	case "configure", "c":
		cmdConfigure(gw, w, args)
	case "led":
		cmdLED(gw, w, args)
	case "query", "q":
		cmdQuery(gw, w, args)
	case "save":
		if err := gw.Save(); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return true
		}
		fmt.Fprintln(w, "Allocation table saved")
	case "quit", "exit":
		return false
	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help')\n", cmd)
	}
	return true
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `
Commands:
  things, t              List allocated things
  configure, c <id>      Tell an allocated thing to go operational
  led <id> on|off        Switch the led of a demo thing
  query, q <id>          Ask a demo thing for its led state
  save                   Save the allocation table
  help, ?                Show this help
  quit, exit             Stop the gateway

Thing ids may be shortened to any unique prefix.`)
}

func cmdThings(gw Gateway, w io.Writer) {
	things := gw.Things()
	if len(things) == 0 {
		fmt.Fprintln(w, "No things")
		return
	}
	fmt.Fprintf(w, "%-44s %-10s %s\n", "THING", "ADDRESS", "STATE")
	for _, th := range things {
		fmt.Fprintf(w, "%-44s %-10s %s\n", th.ThingID, th.Address, thingState(th))
	}
	if n := gw.Pending(); n > 0 {
		fmt.Fprintf(w, "%d execution(s) waiting for an answer\n", n)
	}
}

func thingState(th gatewaysim.Thing) string {
	switch {
	case th.Configured:
		return "configured"
	case th.Allocated:
		return "allocated"
	default:
		return "introduced"
	}
}

func cmdConfigure(gw Gateway, w io.Writer, args []string) {
	id, ok := resolve(gw, w, args)
	if !ok {
		return
	}
	if err := gw.Configure(id); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Configured sent to %s\n", id)
}

func cmdLED(gw Gateway, w io.Writer, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(w, "Usage: led <id> on|off")
		return
	}
	var value int
	switch strings.ToLower(args[1]) {
	case "on", "1":
		value = 1
	case "off", "0":
	default:
		fmt.Fprintf(w, "Invalid led state: %s\n", args[1])
		return
	}

	id, ok := resolve(gw, w, args[:1])
	if !ok {
		return
	}
	action := wire.New(ledAction)
	if err := action.AddInt(attrValue, value); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	send(gw, w, id, action)
}

func cmdQuery(gw Gateway, w io.Writer, args []string) {
	id, ok := resolve(gw, w, args)
	if !ok {
		return
	}
	send(gw, w, id, wire.New(ledQuery))
}

func send(gw Gateway, w io.Writer, thingID string, action *wire.Protocol) {
	tid, err := gw.ExecuteOn(thingID, action, time.Now())
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Sent %s to %s (tiny id %s)\n", action.Name, thingID, tid)
}

// resolve expands a thing id prefix given as the only argument.
func resolve(gw Gateway, w io.Writer, args []string) (string, bool) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Expected one thing id")
		return "", false
	}
	prefix := args[0]

	var matches []string
	for _, th := range gw.Things() {
		if th.ThingID == prefix {
			return prefix, true
		}
		if strings.HasPrefix(th.ThingID, prefix) {
			matches = append(matches, th.ThingID)
		}
	}
	switch len(matches) {
	case 0:
		fmt.Fprintf(w, "Thing not found: %s\n", prefix)
		return "", false
	case 1:
		return matches[0], true
	default:
		fmt.Fprintf(w, "Ambiguous thing id %s: %s\n", prefix, strings.Join(matches, ", "))
		return "", false
	}
}
