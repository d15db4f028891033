// Package discovery finds network-attached Firmata boards via mDNS.
// WiFi-capable boards running a network Firmata firmware announce
// themselves as "_arduino._tcp" services; Browse turns those
// announcements into dialable addresses for a TCP stream.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// mDNS service parameters for network Firmata boards.
const (
	// ServiceType is the mDNS service type boards announce.
	ServiceType = "_arduino._tcp"

	// Domain is the mDNS browse domain.
	Domain = "local."

	// BrowseTimeout is the default deadline for Find.
	BrowseTimeout = 10 * time.Second
)

// ErrNotFound indicates no matching board answered before the deadline.
var ErrNotFound = errors.New("board not found")

// BoardService is one discovered board announcement.
type BoardService struct {
	// InstanceName is the board's announced instance name.
	InstanceName string

	// Host is the board's mDNS hostname.
	Host string

	// Addresses holds the board's IP addresses, IPv4 first.
	Addresses []string

	// Port is the TCP port the board listens on.
	Port int

	// TXT holds the announcement's key=value TXT records. Keys without a
	// value map to the empty string.
	TXT map[string]string
}

// Address returns a "host:port" dial target, preferring the first
// announced IP over the mDNS hostname.
func (s *BoardService) Address() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(strings.TrimSuffix(host, "."), fmt.Sprintf("%d", s.Port))
}

// Config configures a Browser.
type Config struct {
	// Interface restricts browsing to one network interface by name.
	// Empty means all interfaces.
	Interface string
}

// Browser browses for board announcements.
type Browser struct {
	config Config
}

// NewBrowser creates a browser.
func NewBrowser(config Config) *Browser {
	return &Browser{config: config}
}

// Browse streams board announcements until the context ends. Announcements
// arriving on multiple interfaces are aggregated by instance name: each
// board is emitted once, with its addresses merged.
func (b *Browser) Browse(ctx context.Context) (<-chan *BoardService, error) {
	out := make(chan *BoardService)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)

		seen := make(map[string]*BoardService)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := entryToService(entry)
				if existing, found := seen[svc.InstanceName]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}
				seen[svc.InstanceName] = svc
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				delete(seen, entry.Instance)

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, b.options()...)
	}()

	return out, nil
}

// Find browses until a board with the given instance name announces
// itself. An empty name matches the first board seen. The context bounds
// the wait; without a deadline, BrowseTimeout applies.
func (b *Browser) Find(ctx context.Context, instanceName string) (*BoardService, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, BrowseTimeout)
		defer cancel()
	}

	services, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case svc, ok := <-services:
			if !ok {
				return nil, ErrNotFound
			}
			if instanceName == "" || svc.InstanceName == instanceName {
				return svc, nil
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %q", ErrNotFound, instanceName)
		}
	}
}

func (b *Browser) options() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if b.config.Interface != "" {
		if iface, err := net.InterfaceByName(b.config.Interface); err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

func entryToService(entry *zeroconf.ServiceEntry) *BoardService {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	txt := make(map[string]string, len(entry.Text))
	for _, record := range entry.Text {
		key, value, _ := strings.Cut(record, "=")
		if key != "" {
			txt[key] = value
		}
	}

	return &BoardService{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Addresses:    addrs,
		Port:         entry.Port,
		TXT:          txt,
	}
}

func mergeAddresses(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		seen[a] = struct{}{}
	}
	for _, a := range incoming {
		if _, ok := seen[a]; !ok {
			existing = append(existing, a)
		}
	}
	return existing
}
