package discovery

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceTypeHub is the service type of a UDP radio hub.
	ServiceTypeHub = "_tuxp-hub._udp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default hub port.
	DefaultPort = 41794

	// HubVersion is the datagram format version a hub speaks.
	HubVersion = 1
)

// TXT record key constants.
const (
	TXTKeyNetwork = "NW" // Network name
	TXTKeyChannel = "CH" // Gateway channel (hex)
	TXTKeyVersion = "PV" // Datagram format version
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// Discovery errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrUnsupportedVersion  = errors.New("unsupported hub version")
	ErrNotFound            = errors.New("service not found")
)

// HubInfo is what a hub advertises about itself.
type HubInfo struct {
	// Network names the radio network, so several hubs can share a LAN.
	Network string

	// Channel is the radio channel of the gateway.
	Channel byte

	// Port is the UDP port of the hub.
	Port uint16
}

// InstanceName returns the mDNS instance name of the hub.
func (i *HubInfo) InstanceName() string {
	name := i.Network + "-" + strconv.FormatUint(uint64(i.Channel)|0x100, 16)[1:]
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// HubService is a hub found on the network.
type HubService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	Network string
	Channel byte
}

// UDPAddr returns the first address of the hub as host:port.
func (s *HubService) UDPAddr() (string, error) {
	if len(s.Addresses) == 0 {
		return "", ErrNotFound
	}
	return net.JoinHostPort(s.Addresses[0], strconv.Itoa(int(s.Port))), nil
}

// Advertiser announces hubs.
type Advertiser interface {
	// AdvertiseHub starts advertising a hub. A running advertisement of the
	// same network is replaced.
	AdvertiseHub(ctx context.Context, info *HubInfo) error

	// StopHub stops advertising the hub of a network.
	StopHub(network string) error

	// StopAll stops every advertisement.
	StopAll()
}

// Browser finds hubs.
type Browser interface {
	// BrowseHubs searches for hubs until ctx is done.
	BrowseHubs(ctx context.Context) (<-chan *HubService, error)

	// FindHub returns the first hub of a network. An empty network
	// matches any hub.
	FindHub(ctx context.Context, network string) (*HubService, error)

	// Stop stops all active browsing operations.
	Stop()
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the record TTL. Zero keeps the zeroconf default.
	TTL time.Duration
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout bounds FindHub when ctx has no deadline.
	// Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
	}
}
