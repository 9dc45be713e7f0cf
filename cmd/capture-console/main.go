// Command capture-console is an interactive capture application.
//
// It opens a session against a capture service and prints scanner
// arrivals, decoded data and errors as they happen. Scanner properties
// can be read and written from the prompt.
//
// Usage:
//
//	capture-console [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-env string           Environment file with CAPTURE_* overrides (default ".env")
//	-address string       Capture service address (host:port, tcp://, ws://)
//	-discover             Find the capture service with mDNS
//	-app-id string        Application identifier sent in the handshake
//	-log-level string     Log level: debug, info, warn, error
//	-protocol-log string  Write protocol events to this CBOR file
//	-interactive          Enable interactive command mode (default true)
//
// Without -address or -discover the console runs against an in-process
// simulator with two scanners attached.
//
// Examples:
//
//	# Try the console without hardware
//	capture-console
//
//	# Connect to a capture-sim on another host
//	capture-console -address 192.168.1.20:7420
//
//	# Find the service on the local network and record the protocol
//	capture-console -discover -protocol-log capture.cbor
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/capture-protocol/capture-go/cmd/capture-console/interactive"
	"github.com/capture-protocol/capture-go/pkg/config"
	"github.com/capture-protocol/capture-go/pkg/discovery"
	protolog "github.com/capture-protocol/capture-go/pkg/log"
	"github.com/capture-protocol/capture-go/pkg/model"
	"github.com/capture-protocol/capture-go/pkg/remote"
	"github.com/capture-protocol/capture-go/pkg/session"
	"github.com/capture-protocol/capture-go/pkg/sim"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// Flags holds the command line. Set values override the config file.
type Flags struct {
	ConfigFile  string
	EnvFile     string
	Address     string
	Discover    bool
	AppID       string
	LogLevel    string
	ProtocolLog string
	Interactive bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.EnvFile, "env", ".env", "Environment file with CAPTURE_* overrides (ignored if missing)")
	flag.StringVar(&flags.Address, "address", "", "Capture service address (host:port, tcp://, ws://)")
	flag.BoolVar(&flags.Discover, "discover", false, "Find the capture service with mDNS")
	flag.StringVar(&flags.AppID, "app-id", "", "Application identifier sent in the handshake")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.ProtocolLog, "protocol-log", "", "Write protocol events to this CBOR file")
	flag.BoolVar(&flags.Interactive, "interactive", true, "Enable interactive command mode")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	setupLogging(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	log.Println("Capture Console")
	log.Println("===============")
	log.Printf("Application: %s", cfg.Session.AppID)

	var console *interactive.Console
	var notifier session.Notifier = logNotifier{}
	if flags.Interactive {
		console, err = interactive.New()
		if err != nil {
			log.Fatalf("Failed to create console: %v", err)
		}
		// Keep log output off the prompt line.
		log.SetOutput(console.Stdout())
		logger = slog.New(slog.NewTextHandler(console.Stdout(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
		notifier = console
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	plog, closeLog, err := protocolLogger(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open protocol log: %v", err)
	}
	defer closeLog()

	layer, err := deviceLayer(ctx, cfg, logger, plog)
	if err != nil {
		log.Fatalf("Failed to set up the capture service: %v", err)
	}

	sc := cfg.SessionConfig()
	sc.Logger = logger
	sc.ProtocolLogger = plog
	sess := session.New(layer, notifier, sc)
	log.Printf("Session: %s", sess.ID())
	if console != nil {
		console.Bind(sess)
	}

	if err := sess.Open(ctx); err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}
	go func() {
		_ = sess.Run(ctx)
	}()

	if console != nil {
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	closeSession(sess)
	cancel()
	log.Println("Goodbye!")
}

func loadConfig() (*config.File, error) {
	if err := config.LoadDotEnv(flags.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if flags.Address != "" {
		cfg.Remote.Address = flags.Address
		cfg.Remote.Discover = false
	}
	if flags.Discover {
		cfg.Remote.Discover = true
		cfg.Remote.Address = ""
	}
	if flags.AppID != "" {
		cfg.Session.AppID = flags.AppID
	}
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	if flags.ProtocolLog != "" {
		cfg.Log.ProtocolFile = flags.ProtocolLog
	}
	return cfg, cfg.Validate()
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}

// protocolLogger combines the CBOR file log with debug output.
func protocolLogger(cfg *config.File, logger *slog.Logger) (protolog.Logger, func(), error) {
	var loggers []protolog.Logger
	closeFn := func() {}

	if cfg.Log.ProtocolFile != "" {
		fl, err := protolog.NewFileLogger(cfg.Log.ProtocolFile)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Protocol log: %s", cfg.Log.ProtocolFile)
		loggers = append(loggers, fl)
		closeFn = func() {
			if err := fl.Close(); err != nil {
				log.Printf("Warning: Failed to close protocol log: %v", err)
			}
		}
	}
	if cfg.SlogLevel() <= slog.LevelDebug {
		loggers = append(loggers, protolog.NewSlogAdapter(logger))
	}
	if len(loggers) == 0 {
		return nil, closeFn, nil
	}
	return protolog.NewMultiLogger(loggers...), closeFn, nil
}

// deviceLayer picks the capture service: an explicit address, one found
// with mDNS, or an in-process simulator.
func deviceLayer(ctx context.Context, cfg *config.File, logger *slog.Logger, plog protolog.Logger) (session.DeviceLayer, error) {
	address := cfg.Remote.Address

	if cfg.Remote.Discover {
		log.Println("Browsing for capture services...")
		browser := discovery.NewBrowser(discovery.BrowserConfig{
			Interface: cfg.Remote.Interface,
			Logger:    logger,
		})
		findCtx, cancel := context.WithTimeout(ctx, cfg.Remote.BrowseTimeout)
		svc, err := browser.FindFirst(findCtx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("discovery: %w", err)
		}
		log.Printf("Found %s", svc)
		address = svc.Address()
	}

	if address == "" {
		log.Println("No service address given, using the built-in simulator")
		sc := cfg.SimConfig()
		sc.Logger = logger
		svc := sim.New(sc)
		svc.AddDevice("Socket S700", wire.DeviceTypeScanner7)
		svc.AddDevice("Socket D750", wire.DeviceTypeScannerD7)
		return svc, nil
	}

	log.Printf("Capture service: %s", address)
	rc := cfg.RemoteConfig(address)
	rc.Logger = logger
	rc.ProtocolLogger = plog
	return remote.New(rc), nil
}

// closeSession closes the session and waits briefly for it to reach Closed.
func closeSession(sess *session.Session) {
	if err := sess.Close(); err != nil {
		return
	}
	deadline := time.Now().Add(2 * time.Second)
	for sess.State() != session.StateClosed && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
}

// logNotifier prints notifications when the console is not interactive.
type logNotifier struct {
	session.NopNotifier
}

func (logNotifier) OnSessionInitializeComplete(result wire.Result) {
	log.Printf("[EVENT] Session open: %s", result)
}

func (logNotifier) OnDeviceArrival(result wire.Result, d *model.Device) {
	if d == nil {
		log.Printf("[EVENT] Scanner arrival failed: %s", result)
		return
	}
	log.Printf("[EVENT] Scanner connected: %s (%s)", d.Name(), d.Identity())
}

func (logNotifier) OnDeviceRemoval(d *model.Device) {
	log.Printf("[EVENT] Scanner disconnected: %s", d.Name())
}

func (logNotifier) OnDecodedData(d *model.Device, data wire.DecodedData) {
	log.Printf("[SCAN] %s: %s %q", d.Name(), data.SymbologyID, data.Data)
}

func (logNotifier) OnError(result wire.Result, message string) {
	log.Printf("[ERROR] %s: %s", result, message)
}

func (logNotifier) OnSessionTerminated() {
	log.Println("[EVENT] Session terminated")
}
