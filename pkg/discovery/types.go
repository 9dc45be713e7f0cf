package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// ServiceType is the DNS-SD service type for capture services.
	ServiceType = "_capture._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort matches transport.DefaultPort.
	DefaultPort = 7420

	// BrowseTimeout is the default timeout for FindFirst.
	BrowseTimeout = 5 * time.Second

	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// TXTVersion is the TXT record format written by Advertise.
	TXTVersion = 1
)

// TXT record keys.
const (
	TXTKeyTXTVersion = "txtvers"
	TXTKeyVersion    = "ver"
	TXTKeyName       = "name"
	TXTKeyWebSocket  = "ws"
)

var (
	ErrMissingRequired  = errors.New("missing required TXT record")
	ErrInvalidTXTRecord = errors.New("invalid TXT record")
	ErrInvalidName      = errors.New("invalid instance name")
	ErrNotFound         = errors.New("no capture service found")
)

// Info describes a service to advertise.
type Info struct {
	Name      string
	Version   string
	Port      uint16
	WebSocket bool
}

// Service is a capture service found on the network.
type Service struct {
	Instance  string
	Host      string
	Port      uint16
	Addresses []string

	Name      string
	Version   string
	WebSocket bool
}

// Address returns a dialable address for the first known IP, using the
// ws:// scheme for WebSocket services. It returns "" when no address is
// known.
func (s *Service) Address() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	if host == "" {
		return ""
	}
	hp := net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
	if s.WebSocket {
		return "ws://" + hp + "/"
	}
	return hp
}

func (s *Service) String() string {
	return fmt.Sprintf("%s (%s) at %s", s.Name, s.Version, s.Address())
}
