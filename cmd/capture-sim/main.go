// Command capture-sim runs a simulated capture service on the network.
//
// Applications connect with the remote device layer (capture-console
// -address, or -discover while the service is advertised). Scanners,
// scans and faults are driven from the interactive prompt.
//
// Usage:
//
//	capture-sim [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-env string           Environment file with CAPTURE_* overrides (default ".env")
//	-listen string        Listen address (default ":7420")
//	-websocket            Serve WebSocket instead of raw TCP
//	-advertise            Advertise the service with mDNS (default true)
//	-name string          Advertised instance name
//	-interface string     Restrict mDNS to one network interface
//	-devices int          Scanners connected at startup (default 1)
//	-log-level string     Log level: debug, info, warn, error
//	-protocol-log string  Write protocol events to this CBOR file
//	-interactive          Enable interactive command mode (default true)
//
// Interactive Commands:
//
//	devices     - List simulated scanners
//	add         - Connect a scanner
//	scan        - Deliver decoded data
//	fail        - Inject failing completions
//	drop        - Break the message source
//	status      - Show service status
//	quit        - Exit the simulator
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/capture-protocol/capture-go/cmd/capture-sim/interactive"
	"github.com/capture-protocol/capture-go/pkg/config"
	"github.com/capture-protocol/capture-go/pkg/discovery"
	protolog "github.com/capture-protocol/capture-go/pkg/log"
	"github.com/capture-protocol/capture-go/pkg/remote"
	"github.com/capture-protocol/capture-go/pkg/sim"
	"github.com/capture-protocol/capture-go/pkg/transport"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// Flags holds the command line. Set values override the config file.
type Flags struct {
	ConfigFile  string
	EnvFile     string
	Listen      string
	WebSocket   bool
	Advertise   bool
	Name        string
	Interface   string
	Devices     int
	LogLevel    string
	ProtocolLog string
	Interactive bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.EnvFile, "env", ".env", "Environment file with CAPTURE_* overrides (ignored if missing)")
	flag.StringVar(&flags.Listen, "listen", "", "Listen address (default \":7420\")")
	flag.BoolVar(&flags.WebSocket, "websocket", false, "Serve WebSocket instead of raw TCP")
	flag.BoolVar(&flags.Advertise, "advertise", true, "Advertise the service with mDNS")
	flag.StringVar(&flags.Name, "name", "", "Advertised instance name")
	flag.StringVar(&flags.Interface, "interface", "", "Restrict mDNS to one network interface")
	flag.IntVar(&flags.Devices, "devices", 1, "Scanners connected at startup")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.ProtocolLog, "protocol-log", "", "Write protocol events to this CBOR file")
	flag.BoolVar(&flags.Interactive, "interactive", true, "Enable interactive command mode")
}

// host implements interactive.Status.
type host struct {
	server     *transport.Server
	advertiser *discovery.Advertiser
}

func (h *host) ListenAddress() string { return h.server.Addr().String() }
func (h *host) Connections() int      { return h.server.ConnectionCount() }
func (h *host) Advertised() bool      { return h.advertiser != nil && h.advertiser.Advertised() != nil }

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	setupLogging(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	log.Println("Capture Service Simulator")
	log.Println("=========================")

	var console *interactive.Service
	h := &host{}
	if flags.Interactive {
		console, err = interactive.New(h)
		if err != nil {
			log.Fatalf("Failed to create console: %v", err)
		}
		log.SetOutput(console.Stdout())
		logger = slog.New(slog.NewTextHandler(console.Stdout(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	}

	sc := cfg.SimConfig()
	sc.Logger = logger
	svc := sim.New(sc)
	for i := range flags.Devices {
		svc.AddDevice(fmt.Sprintf("Socket S700 #%d", i+1), wire.DeviceTypeScanner7)
	}
	if console != nil {
		console.Bind(svc)
	}
	log.Printf("Version: %s, confirmation mode: %s", sc.Version, sc.ConfirmationMode)

	var plog protolog.Logger
	if cfg.Log.ProtocolFile != "" {
		fl, err := protolog.NewFileLogger(cfg.Log.ProtocolFile)
		if err != nil {
			log.Fatalf("Failed to open protocol log: %v", err)
		}
		defer fl.Close()
		log.Printf("Protocol log: %s", cfg.Log.ProtocolFile)
		plog = fl
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := transport.NewServer(transport.ServerConfig{
		Address:   cfg.Service.Listen,
		WebSocket: cfg.Service.WebSocket,
		Logger:    plog,
		Handler: remote.Handler(svc, remote.ServeConfig{
			Logger:         logger,
			ProtocolLogger: plog,
		}),
		OnConnect: func(c transport.Conn) {
			log.Printf("[EVENT] Client connected: %s", c.RemoteAddr())
		},
		OnDisconnect: func(c transport.Conn) {
			log.Printf("[EVENT] Client disconnected: %s", c.RemoteAddr())
		},
		OnError: func(err error) {
			log.Printf("[ERROR] %v", err)
		},
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	h.server = server
	log.Printf("Listening on %s (websocket: %t)", server.Addr(), cfg.Service.WebSocket)

	if cfg.Service.Advertise {
		h.advertiser = discovery.NewAdvertiser(discovery.AdvertiserConfig{
			Interface: cfg.Service.Interface,
			TTL:       discovery.DefaultAdvertiserConfig().TTL,
			Logger:    logger,
		})
		err := h.advertiser.Advertise(discovery.Info{
			Name:      cfg.Service.Name,
			Version:   sc.Version.String(),
			Port:      listenPort(server.Addr()),
			WebSocket: cfg.Service.WebSocket,
		})
		if err != nil {
			log.Printf("Warning: Failed to advertise: %v", err)
		} else {
			log.Printf("Advertising %q as %s", cfg.Service.Name, discovery.ServiceType)
		}
	}

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
	if h.advertiser != nil {
		h.advertiser.Stop()
	}
	cancel()
	if err := server.Stop(); err != nil {
		log.Printf("Error stopping server: %v", err)
	}
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
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if flags.Listen != "" {
		cfg.Service.Listen = flags.Listen
	}
	if set["websocket"] {
		cfg.Service.WebSocket = flags.WebSocket
	}
	if set["advertise"] {
		cfg.Service.Advertise = flags.Advertise
	}
	if flags.Name != "" {
		cfg.Service.Name = flags.Name
	}
	if flags.Interface != "" {
		cfg.Service.Interface = flags.Interface
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

func listenPort(addr net.Addr) uint16 {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return uint16(tcp.Port)
	}
	return discovery.DefaultPort
}
