// Package interactive provides the interactive command-line interface
// for the capture console.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/chzyer/readline"

	"github.com/capture-protocol/capture-go/pkg/model"
	"github.com/capture-protocol/capture-go/pkg/session"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// Console drives a session from the terminal. It also implements
// session.Notifier so notifications are printed above the prompt.
type Console struct {
	sess *session.Session
	rl   *readline.Instance
	out  io.Writer

	// autoConfirm acknowledges decoded data with a good-read confirmation.
	autoConfirm atomic.Bool
}

var _ session.Notifier = (*Console)(nil)

// New creates a console. Attach it to a session with Bind before Run.
func New() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "capture> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	c := &Console{rl: rl, out: rl.Stdout()}
	c.autoConfirm.Store(true)
	return c, nil
}

// Bind sets the session the console drives.
func (c *Console) Bind(s *session.Session) {
	c.sess = s
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with input.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
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
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()
		case "devices", "list", "ls":
			c.cmdDevices()
		case "status":
			c.cmdStatus()
		case "queue":
			c.cmdQueue()
		case "open":
			c.cmdOpen(ctx)
		case "close":
			c.cmdClose()
		case "info", "i":
			c.cmdInfo(args)
		case "name":
			c.cmdName(args)
		case "battery":
			c.cmdBattery(args)
		case "stand":
			c.cmdStand(args)
		case "action":
			c.cmdAction(args)
		case "ack":
			c.cmdAck(args)
		case "confirm":
			c.cmdConfirm(args)
		case "autoconfirm":
			c.cmdAutoConfirm(args)
		case "mode":
			c.cmdMode(args)
		case "symbology", "sym":
			c.cmdSymbology(args)
		case "symbologies":
			c.cmdSymbologies(args)
		case "timers":
			c.cmdTimers(args)
		case "postamble", "suffix":
			c.cmdPostamble(args)
		case "datastore":
			c.cmdDataStore(args)
		case "specific":
			c.cmdSpecific(args)
		case "version":
			c.cmdVersion(args)
		case "quit", "exit", "q":
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		default:
			fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Capture Console Commands:
  Session:
    open                               - Open the session
    close                              - Close the session
    status                             - Show session state
    queue                              - Show queued requests
    mode [off|device|capture|app]      - Get or set data confirmation mode
    version [dev]                      - Show service or scanner firmware version

  Scanners (<dev> is a list index, identity or name):
    devices                            - List scanners
    info <dev>                         - Refresh name, type, address, firmware
    name <dev> [new name]              - Get or set friendly name
    battery <dev>                      - Read battery level
    stand <dev> [mobile|stand|detect|auto]
    action <dev> [none|beep|flash|rumble ...]
    ack <dev> [on|off]                 - Local acknowledgment
    confirm <dev> [good|bad]           - Send a data confirmation
    autoconfirm [on|off]               - Confirm decoded data automatically
    symbology <dev> <id> [on|off]      - Get or set one symbology
    symbologies <dev>                  - Read the symbology table
    timers <dev> [lock off-disc off-conn]
    postamble <dev> [suffix]           - Get or set data suffix
    datastore <dev> <index>            - Read a data store slot
    specific <dev> <hex>               - Send a device specific command

  General:
    help                               - Show this help
    quit                               - Exit`)
}

// Notifier callbacks.

func (c *Console) OnDeviceArrival(result wire.Result, d *model.Device) {
	if d == nil {
		fmt.Fprintf(c.out, "[EVENT] Scanner arrival failed: %s\n", result)
		return
	}
	fmt.Fprintf(c.out, "[EVENT] Scanner connected: %s (%s)\n", d.Name(), d.Identity())
}

func (c *Console) OnDeviceRemoval(d *model.Device) {
	fmt.Fprintf(c.out, "[EVENT] Scanner disconnected: %s (%s)\n", d.Name(), d.Identity())
}

func (c *Console) OnDecodedData(d *model.Device, data wire.DecodedData) {
	fmt.Fprintf(c.out, "[SCAN] %s: %s %q\n", d.Name(), data.SymbologyID, data.Data)
	if !c.autoConfirm.Load() || c.sess == nil {
		return
	}
	err := c.sess.SetDataConfirmation(d, wire.GoodConfirmation, func(err error) {
		if err != nil {
			fmt.Fprintf(c.out, "[SCAN] Confirmation failed: %v\n", err)
		}
	})
	if err != nil {
		fmt.Fprintf(c.out, "[SCAN] Confirmation failed: %v\n", err)
	}
}

func (c *Console) OnError(result wire.Result, message string) {
	fmt.Fprintf(c.out, "[ERROR] %s: %s\n", result, message)
}

func (c *Console) OnSessionInitializeComplete(result wire.Result) {
	if !result.IsSuccess() {
		fmt.Fprintf(c.out, "[EVENT] Session open failed: %s\n", result)
		return
	}
	fmt.Fprintln(c.out, "[EVENT] Session open")
}

func (c *Console) OnSessionTerminated() {
	fmt.Fprintln(c.out, "[EVENT] Session terminated (use 'open' to start again)")
}

func (c *Console) OnErrorRetrievingMessage(result wire.Result) {
	fmt.Fprintf(c.out, "[ERROR] Lost the capture service: %s\n", result)
}
