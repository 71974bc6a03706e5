// ABOUTME: mDNS service discovery for NetworkTables servers
// ABOUTME: Browses _networktables._tcp and reports the servers it finds
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const (
	// ServiceType is advertised by NetworkTables 4 servers
	ServiceType = "_networktables._tcp"

	DefaultQueryTimeout = 3 * time.Second
)

// Config holds discovery configuration
type Config struct {
	Service      string
	Domain       string
	QueryTimeout time.Duration
}

// Manager handles mDNS browsing
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo
	query   func(*mdns.QueryParam) error
}

// ServerInfo describes a discovered server
type ServerInfo struct {
	Name string
	Host string
	Port int
}

// Address returns host:port for dialing
func (s *ServerInfo) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Service == "" {
		config.Service = ServiceType
	}
	if config.Domain == "" {
		config.Domain = "local"
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = DefaultQueryTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
		query:   mdns.Query,
	}
}

// Browse searches for servers in the background until Stop
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop repeats the query until stopped
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				server := serverFromEntry(entry)
				if server == nil {
					continue
				}

				log.Printf("Discovered server: %s at %s", server.Name, server.Address())

				select {
				case m.servers <- server:
				case <-m.ctx.Done():
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: m.config.Service,
			Domain:  m.config.Domain,
			Timeout: m.config.QueryTimeout,
			Entries: entries,
		}

		if err := m.query(params); err != nil {
			log.Printf("mDNS query failed: %v", err)
			select {
			case <-time.After(m.config.QueryTimeout):
			case <-m.ctx.Done():
			}
		}
		close(entries)
		<-done
	}
}

// Servers returns the channel of discovered servers
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// FindServer browses until the first server is found or timeout elapses
func (m *Manager) FindServer(ctx context.Context, timeout time.Duration) (*ServerInfo, error) {
	if err := m.Browse(); err != nil {
		return nil, err
	}
	defer m.Stop()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case server := <-m.servers:
		return server, nil
	case <-timer.C:
		return nil, fmt.Errorf("no %s server found within %v", m.config.Service, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// serverFromEntry prefers the IPv4 address, then IPv6, then the host name
func serverFromEntry(entry *mdns.ServiceEntry) *ServerInfo {
	if entry == nil || entry.Port == 0 {
		return nil
	}

	host := strings.TrimSuffix(entry.Host, ".")
	switch {
	case entry.AddrV4 != nil:
		host = entry.AddrV4.String()
	case entry.AddrV6 != nil:
		host = entry.AddrV6.String()
	}
	if host == "" {
		return nil
	}

	return &ServerInfo{
		Name: entry.Name,
		Host: host,
		Port: entry.Port,
	}
}
