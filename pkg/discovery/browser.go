package discovery

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/enbility/zeroconf/v3"
)

// BrowserConfig configures a Browser.
type BrowserConfig struct {
	// Interface restricts browsing to one network interface.
	Interface string

	// Logger for operational logging (optional).
	Logger *slog.Logger
}

// Browser finds capture services.
type Browser struct {
	config BrowserConfig
}

// NewBrowser creates a browser.
func NewBrowser(config BrowserConfig) *Browser {
	return &Browser{config: config}
}

// Browse emits each capture service once, when first seen. Addresses seen
// on further interfaces are merged into the emitted Service. The channel is
// closed when ctx ends.
func (b *Browser) Browse(ctx context.Context) (<-chan *Service, error) {
	out := make(chan *Service)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if ifaces := interfaces(b.config.Interface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}

	go func() {
		defer close(out)
		agg := newAggregator()
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc, isNew := agg.add(entry)
				if svc == nil {
					b.debugLog("discovery: ignoring entry", "instance", entry.Instance)
					continue
				}
				if !isNew {
					continue
				}
				emitted := *svc
				emitted.Addresses = slices.Clone(svc.Addresses)
				select {
				case out <- &emitted:
				case <-ctx.Done():
					return
				}
			case entry, ok := <-removed:
				if ok {
					agg.remove(entry)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		if err := zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...); err != nil {
			b.debugLog("discovery: browse failed", "error", err)
		}
	}()

	return out, nil
}

// FindFirst returns the first service found, or ErrNotFound after
// BrowseTimeout when ctx has no earlier deadline.
func (b *Browser) FindFirst(ctx context.Context) (*Service, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, BrowseTimeout)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	found, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	for svc := range found {
		if svc.Address() != "" {
			return svc, nil
		}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}
	return nil, ErrNotFound
}

func (b *Browser) debugLog(msg string, args ...any) {
	if b.config.Logger != nil {
		b.config.Logger.Debug(msg, args...)
	}
}

// aggregator merges per-interface entries by instance name.
type aggregator struct {
	services map[string]*Service
}

func newAggregator() *aggregator {
	return &aggregator{services: make(map[string]*Service)}
}

// add records entry. It returns the aggregated service and whether it was
// seen for the first time; nil when the entry's TXT records are invalid.
func (a *aggregator) add(entry *zeroconf.ServiceEntry) (*Service, bool) {
	svc, err := DecodeTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		return nil, false
	}
	svc.Instance = entry.Instance
	svc.Host = entry.HostName
	svc.Port = uint16(entry.Port)
	svc.Addresses = entryAddresses(entry)
	if svc.Name == "" {
		svc.Name = entry.Instance
	}

	if existing, ok := a.services[svc.Instance]; ok {
		existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
		return existing, false
	}
	a.services[svc.Instance] = svc
	return svc, true
}

// remove drops the entry's addresses, and the service once none remain.
func (a *aggregator) remove(entry *zeroconf.ServiceEntry) {
	existing, ok := a.services[entry.Instance]
	if !ok {
		return
	}
	existing.Addresses = removeAddresses(existing.Addresses, entryAddresses(entry))
	if len(existing.Addresses) == 0 {
		delete(a.services, entry.Instance)
	}
}

func entryAddresses(entry *zeroconf.ServiceEntry) []string {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

func mergeAddresses(existing, more []string) []string {
	for _, addr := range more {
		if !slices.Contains(existing, addr) {
			existing = append(existing, addr)
		}
	}
	return existing
}

func removeAddresses(addresses, gone []string) []string {
	return slices.DeleteFunc(addresses, func(addr string) bool {
		return slices.Contains(gone, addr)
	})
}
