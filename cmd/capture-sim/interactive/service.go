// Package interactive provides the interactive command-line interface
// for the simulated capture service.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/capture-protocol/capture-go/pkg/sim"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// Status reports what the service host knows beyond the simulator.
type Status interface {
	// ListenAddress returns the address clients connect to.
	ListenAddress() string

	// Connections returns the number of connected clients.
	Connections() int

	// Advertised reports whether the service is announced with mDNS.
	Advertised() bool
}

// Service drives a simulator from the terminal.
type Service struct {
	svc    *sim.Service
	status Status
	rl     *readline.Instance
	out    io.Writer
}

// New creates an interactive service handler. Attach the simulator with
// Bind before Run.
func New(status Status) (*Service, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sim> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Service{status: status, rl: rl, out: rl.Stdout()}, nil
}

// Bind sets the simulator the console drives.
func (s *Service) Bind(svc *sim.Service) {
	s.svc = svc
}

// Stdout returns a writer that coordinates with the readline prompt.
func (s *Service) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive command loop.
func (s *Service) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
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
			s.printHelp()
		case "devices", "list", "ls":
			s.cmdDevices()
		case "add":
			s.cmdAdd(args)
		case "remove", "rm":
			s.cmdRemove(args)
		case "scan":
			s.cmdScan(args)
		case "battery":
			s.cmdBattery(args)
		case "error":
			s.cmdError(args)
		case "fail":
			s.cmdFail(args)
		case "reject":
			s.cmdReject(args)
		case "drop":
			s.svc.Drop()
			fmt.Fprintln(s.out, "Message source dropped until the next open")
		case "requests", "log":
			s.cmdRequests(args)
		case "confirmation":
			s.cmdConfirmation(args)
		case "status":
			s.cmdStatus()
		case "quit", "exit", "q":
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		default:
			fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *Service) printHelp() {
	fmt.Fprintln(s.out, `
Capture Simulator Commands:
  Scanners (<dev> is a list index, identity or name):
    devices                          - List simulated scanners
    add <name> [type]                - Connect a scanner (type: 7, 7x, 8, d7, nfc or hex)
    remove <dev>                     - Disconnect a scanner
    scan <dev> <symbology> <data>    - Deliver decoded data
    battery <dev> <percent>          - Change battery level
    confirmation <dev>               - Show the last data confirmation

  Fault Injection:
    error <result> <message>         - Deliver an error event
    fail <property> <result> [n]     - Fail the next n completions (n=0 clears)
    reject <property> <result|off>   - Reject requests before they are accepted
    drop                             - Break the message source

  General:
    requests [n]                     - Show the last n accepted requests
    status                           - Show service status
    help                             - Show this help
    quit                             - Exit`)
}

func (s *Service) device(args []string, usage string) (sim.DeviceInfo, bool) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: "+usage)
		return sim.DeviceInfo{}, false
	}
	d, err := resolveDevice(s.svc.Devices(), args[0])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return sim.DeviceInfo{}, false
	}
	return d, true
}

func (s *Service) cmdDevices() {
	devices := s.svc.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(s.out, "No scanners")
		return
	}
	fmt.Fprintf(s.out, "\nScanners (%d):\n", len(devices))
	fmt.Fprintln(s.out, "-------------------------------------------")
	for i, d := range devices {
		state := "not opened"
		if d.Handle != wire.HandleNone {
			state = fmt.Sprintf("opened (handle %d)", d.Handle)
		}
		fmt.Fprintf(s.out, "  %d. %s\n", i+1, d.Name)
		fmt.Fprintf(s.out, "      Identity: %s\n", d.Identity)
		fmt.Fprintf(s.out, "      Type:     0x%08x\n", d.DeviceType)
		fmt.Fprintf(s.out, "      State:    %s\n", state)
	}
	fmt.Fprintln(s.out)
}

func (s *Service) cmdAdd(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: add <name> [type]")
		return
	}
	deviceType := wire.DeviceTypeScanner7
	name := strings.Join(args, " ")
	if len(args) > 1 {
		if t, err := parseDeviceType(args[len(args)-1]); err == nil {
			deviceType = t
			name = strings.Join(args[:len(args)-1], " ")
		}
	}
	identity := s.svc.AddDevice(name, deviceType)
	fmt.Fprintf(s.out, "Added %s (%s)\n", name, identity)
}

func (s *Service) cmdRemove(args []string) {
	d, ok := s.device(args, "remove <dev>")
	if !ok {
		return
	}
	if err := s.svc.RemoveDevice(d.Identity); err != nil {
		fmt.Fprintf(s.out, "Remove failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Removed %s\n", d.Name)
}

func (s *Service) cmdScan(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out, "Usage: scan <dev> <symbology> <data>")
		return
	}
	d, ok := s.device(args, "scan <dev> <symbology> <data>")
	if !ok {
		return
	}
	id, ok := wire.LookupSymbology(args[1])
	if !ok {
		fmt.Fprintf(s.out, "Unknown symbology: %s\n", args[1])
		return
	}
	if err := s.svc.Scan(d.Identity, id, []byte(strings.Join(args[2:], " "))); err != nil {
		fmt.Fprintf(s.out, "Scan failed: %v\n", err)
	}
}

func (s *Service) cmdBattery(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: battery <dev> <percent>")
		return
	}
	d, ok := s.device(args, "battery <dev> <percent>")
	if !ok {
		return
	}
	pct, err := strconv.ParseUint(strings.TrimSuffix(args[1], "%"), 10, 8)
	if err != nil || pct > 100 {
		fmt.Fprintf(s.out, "Invalid percent: %s\n", args[1])
		return
	}
	if err := s.svc.SetBattery(d.Identity, uint8(pct)); err != nil {
		fmt.Fprintf(s.out, "Battery failed: %v\n", err)
	}
}

func (s *Service) cmdError(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: error <result> <message>")
		return
	}
	result, ok := wire.LookupResult(args[0])
	if !ok {
		fmt.Fprintf(s.out, "Unknown result: %s\n", args[0])
		return
	}
	s.svc.ReportError(result, strings.Join(args[1:], " "))
}

func (s *Service) cmdFail(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: fail <property> <result> [n]")
		return
	}
	prop, result, err := parseFault(args[0], args[1])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	n := 1
	if len(args) > 2 {
		if n, err = strconv.Atoi(args[2]); err != nil {
			fmt.Fprintf(s.out, "Invalid count: %s\n", args[2])
			return
		}
	}
	s.svc.FailNext(prop, result, n)
	fmt.Fprintf(s.out, "Next %d %s completions fail with %s\n", max(n, 0), prop, result)
}

func (s *Service) cmdReject(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: reject <property> <result|off>")
		return
	}
	if strings.EqualFold(args[1], "off") {
		prop, ok := wire.LookupProperty(args[0])
		if !ok {
			fmt.Fprintf(s.out, "Unknown property: %s\n", args[0])
			return
		}
		s.svc.FailDispatch(prop, nil)
		fmt.Fprintf(s.out, "%s requests accepted again\n", prop)
		return
	}
	prop, result, err := parseFault(args[0], args[1])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	s.svc.FailDispatch(prop, wire.Errorf(result, "rejected by simulator"))
	fmt.Fprintf(s.out, "%s requests rejected with %s\n", prop, result)
}

func (s *Service) cmdRequests(args []string) {
	requests := s.svc.Requests()
	n := 20
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		}
	}
	if len(requests) > n {
		requests = requests[len(requests)-n:]
	}
	if len(requests) == 0 {
		fmt.Fprintln(s.out, "No requests")
		return
	}
	fmt.Fprintf(s.out, "%-4s %-28s %-8s %s\n", "OP", "PROPERTY", "HANDLE", "TOKEN")
	for _, r := range requests {
		fmt.Fprintf(s.out, "%-4s %-28s %-8d %d\n", r.Op, r.Property.ID, r.Handle, r.Token)
	}
}

func (s *Service) cmdConfirmation(args []string) {
	d, ok := s.device(args, "confirmation <dev>")
	if !ok {
		return
	}
	c, ok := s.svc.LastConfirmation(d.Identity)
	if !ok {
		fmt.Fprintln(s.out, "No confirmation received")
		return
	}
	fmt.Fprintf(s.out, "LED %d, beep %d, rumble %d\n", c.LED, c.Beep, c.Rumble)
}

func (s *Service) cmdStatus() {
	fmt.Fprintln(s.out, "\nService Status")
	fmt.Fprintln(s.out, "-------------------------------------------")
	fmt.Fprintf(s.out, "  Listening:    %s\n", s.status.ListenAddress())
	fmt.Fprintf(s.out, "  Advertised:   %t\n", s.status.Advertised())
	fmt.Fprintf(s.out, "  Clients:      %d\n", s.status.Connections())
	fmt.Fprintf(s.out, "  Session open: %t\n", s.svc.IsOpen())
	fmt.Fprintf(s.out, "  Scanners:     %d\n", len(s.svc.Devices()))
	fmt.Fprintf(s.out, "  Requests:     %d\n", len(s.svc.Requests()))
	fmt.Fprintln(s.out)
}
