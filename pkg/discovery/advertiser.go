package discovery

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// AdvertiserConfig configures an Advertiser.
type AdvertiserConfig struct {
	// Interface restricts advertising to one network interface.
	// Empty means all interfaces.
	Interface string

	// TTL is the DNS record TTL (default: 120s).
	TTL time.Duration

	// Logger for operational logging (optional).
	Logger *slog.Logger
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{TTL: 120 * time.Second}
}

// Advertiser announces one capture service.
type Advertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
	info   *Info
}

// NewAdvertiser creates an advertiser. Nothing is announced until Advertise.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	return &Advertiser{config: config}
}

// Advertise starts announcing info, replacing any earlier announcement.
func (a *Advertiser) Advertise(info Info) error {
	instance, err := InstanceName(info.Name)
	if err != nil {
		return err
	}
	if info.Port == 0 {
		info.Port = DefaultPort
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}
	server, err := zeroconf.Register(
		instance,
		ServiceType,
		Domain,
		int(info.Port),
		TXTRecordsToStrings(EncodeTXT(&info)),
		interfaces(a.config.Interface),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceType, err)
	}
	a.server = server
	a.info = &info
	if a.config.Logger != nil {
		a.config.Logger.Info("discovery: advertising", "instance", instance, "port", info.Port, "websocket", info.WebSocket)
	}
	return nil
}

// Advertised returns the info currently announced, or nil.
func (a *Advertiser) Advertised() *Info {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.info == nil {
		return nil
	}
	info := *a.info
	return &info
}

// Stop withdraws the announcement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *Advertiser) stopLocked() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	a.info = nil
}

// interfaces resolves an interface name; nil selects all interfaces.
func interfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}
