// ABOUTME: mDNS advertisement and lookup of voice changer hosts
// ABOUTME: The web host announces itself; the CLI can find one for -remote auto
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/voicechanger-go/internal/version"
)

// ServiceType is the DNS-SD service advertised by the web host
const ServiceType = "_voicechanger._tcp"

// ErrNotFound is returned by Find when no host answers in time
var ErrNotFound = errors.New("no voice changer host found on the local network")

// Config describes the advertised service
type Config struct {
	ServiceName string
	Port        int
	Path        string // UI path announced in the TXT record, default "/"
}

// Manager owns one advertisement
type Manager struct {
	config Config

	mu     sync.Mutex
	server *mdns.Server
	once   sync.Once
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Path == "" {
		config.Path = "/"
	}
	return &Manager{config: config}
}

// Advertise announces the web UI until Stop is called
func (m *Manager) Advertise() error {
	ips, err := advertisableIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(m.config.ServiceName, ServiceType, "", "", m.config.Port, ips, m.txtRecords())
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.mu.Lock()
	m.server = server
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"service": m.config.ServiceName,
		"port":    m.config.Port,
		"type":    ServiceType,
		"ips":     len(ips),
	}).Info("Advertising mDNS service")
	return nil
}

func (m *Manager) txtRecords() []string {
	return []string{
		"path=" + m.config.Path,
		"product=" + version.Product,
		"version=" + version.Version,
	}
}

// Stop withdraws the advertisement
func (m *Manager) Stop() {
	m.once.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.server != nil {
			if err := m.server.Shutdown(); err != nil {
				logrus.WithError(err).Debug("mDNS shutdown failed")
			}
		}
	})
}

// Host is one answer to a lookup
type Host struct {
	Name string
	Addr string // host:port
	Path string
}

// Find queries the local network once and returns the first host that answers
func Find(ctx context.Context, timeout time.Duration) (Host, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan Host, 1)

	go func() {
		for entry := range entries {
			if h, ok := hostFromEntry(entry); ok {
				select {
				case found <- h:
				default:
				}
			}
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Timeout = timeout
	params.Entries = entries
	params.DisableIPv6 = true

	errc := make(chan error, 1)
	go func() {
		errc <- mdns.Query(params)
		close(entries)
	}()

	select {
	case h := <-found:
		return h, nil
	case <-ctx.Done():
		return Host{}, ctx.Err()
	case err := <-errc:
		// The collector may still be draining the last entry
		select {
		case h := <-found:
			return h, nil
		case <-time.After(50 * time.Millisecond):
		}
		if err != nil {
			return Host{}, fmt.Errorf("mdns query failed: %w", err)
		}
		return Host{}, ErrNotFound
	}
}

func hostFromEntry(e *mdns.ServiceEntry) (Host, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Host{}, false
	}
	h := Host{
		Name: strings.TrimSuffix(e.Name, "."+ServiceType+".local."),
		Addr: net.JoinHostPort(e.AddrV4.String(), strconv.Itoa(e.Port)),
		Path: "/",
	}
	for _, f := range e.InfoFields {
		if p, ok := strings.CutPrefix(f, "path="); ok && p != "" {
			h.Path = p
		}
	}
	return h, true
}

func advertisableIPs() ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ip := ipv4(addr); ip != nil {
				ips = append(ips, ip)
			}
		}
	}
	return ips, nil
}

// ipv4 returns the non-loopback IPv4 address carried by addr, or nil
func ipv4(addr net.Addr) net.IP {
	ipnet, ok := addr.(*net.IPNet)
	if !ok || ipnet.IP.IsLoopback() {
		return nil
	}
	return ipnet.IP.To4()
}
