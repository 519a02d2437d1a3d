// ABOUTME: mDNS advertisement and browsing for spatial player control servers
// ABOUTME: Players advertise their control endpoint, remotes browse for players
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const (
	// ServiceType is advertised by players that accept remote control
	ServiceType = "_spatial-control._tcp"

	// ControlPath is the WebSocket endpoint announced in the TXT record
	ControlPath = "/control"

	browseTimeout  = 3 * time.Second
	browseRetry    = time.Second
	maxBrowseRetry = 30 * time.Second
)

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Layout      string // announced in TXT so remotes can show it before connecting
	Version     string
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	players chan *PlayerInfo

	// query runs one mDNS lookup; retryDelay is the first wait after a failed one
	query      func(*mdns.QueryParam) error
	retryDelay time.Duration
}

// PlayerInfo describes a discovered player
type PlayerInfo struct {
	Name string
	Host string
	Port int
	Path string
}

// URL returns the WebSocket address of the player's control endpoint
func (p *PlayerInfo) URL() string {
	return fmt.Sprintf("ws://%s%s", net.JoinHostPort(p.Host, fmt.Sprint(p.Port)), p.Path)
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		players: make(chan *PlayerInfo, 10),

		query:      mdns.Query,
		retryDelay: browseRetry,
	}
}

// txtRecords returns the TXT entries announced with the service
func (m *Manager) txtRecords() []string {
	txt := []string{"path=" + ControlPath}
	if m.config.Layout != "" {
		txt = append(txt, "layout="+m.config.Layout)
	}
	if m.config.Version != "" {
		txt = append(txt, "version="+m.config.Version)
	}
	return txt
}

// Advertise advertises this player's control server via mDNS
func (m *Manager) Advertise() error {
	if m.config.Port <= 0 {
		return fmt.Errorf("invalid advertise port %d", m.config.Port)
	}

	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.txtRecords(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for spatial players until Stop is called
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop continuously browses for players. Failed queries are retried
// with a doubling delay so a host without multicast does not spin.
func (m *Manager) browseLoop() {
	delay := m.retryDelay
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)

		go func() {
			for entry := range entries {
				player := playerFromEntry(entry)
				log.Printf("Discovered player: %s at %s", player.Name, player.URL())

				select {
				case m.players <- player:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: ServiceType,
			Domain:  "local",
			Timeout: browseTimeout,
			Entries: entries,
		}

		err := m.query(params)
		close(entries)
		if err == nil {
			delay = m.retryDelay
			continue
		}

		log.Printf("mDNS browse failed, retrying in %s: %v", delay, err)
		select {
		case <-m.ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(2*delay, maxBrowseRetry)
	}
}

// playerFromEntry converts an mDNS answer, reading the control path from TXT
func playerFromEntry(entry *mdns.ServiceEntry) *PlayerInfo {
	player := &PlayerInfo{
		Name: entry.Name,
		Port: entry.Port,
		Path: ControlPath,
	}
	if entry.AddrV4 != nil {
		player.Host = entry.AddrV4.String()
	} else if entry.AddrV6 != nil {
		player.Host = entry.AddrV6.String()
	}
	for _, field := range entry.InfoFields {
		if path, ok := strings.CutPrefix(field, "path="); ok {
			player.Path = path
		}
	}
	return player
}

// Players returns the channel of discovered players
func (m *Manager) Players() <-chan *PlayerInfo {
	return m.players
}

// Stop stops advertising and browsing
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
