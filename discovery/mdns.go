package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// DefaultService is the mDNS service name without domain suffix.
	DefaultService = "_msgsync._tcp"
	// DefaultDomain is the mDNS domain.
	DefaultDomain = "local."
	// DefaultVersion is the TXT record protocol version.
	DefaultVersion = 1
	// DefaultAPIRoot is the path prefix served by the message API.
	DefaultAPIRoot = "/api"
	// DefaultScanTimeout bounds each discovery scan.
	DefaultScanTimeout = 3 * time.Second
)

// ErrNoEndpoint is returned when no server answered within the scan window.
var ErrNoEndpoint = errors.New("discovery: no message server found")

type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (*zeroconf.Server, error)
type browseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

// Config controls mDNS advertisement and resolution.
type Config struct {
	Service     string
	Domain      string
	Version     int
	ScanTimeout time.Duration

	ServerID     string
	InstanceName string
	Port         int
	APIRoot      string

	registerFn registerFunc
	browseFn   browseFunc
}

func (c Config) withDefaults() Config {
	out := c
	if out.Service == "" {
		out.Service = DefaultService
	}
	if out.Domain == "" {
		out.Domain = DefaultDomain
	}
	if out.Version == 0 {
		out.Version = DefaultVersion
	}
	if out.ScanTimeout <= 0 {
		out.ScanTimeout = DefaultScanTimeout
	}
	if out.APIRoot == "" {
		out.APIRoot = DefaultAPIRoot
	}
	if out.registerFn == nil {
		out.registerFn = zeroconf.Register
	}
	return out
}

func (c Config) validateForAdvertise() error {
	if strings.TrimSpace(c.ServerID) == "" {
		return errors.New("server ID is required")
	}
	if strings.TrimSpace(c.InstanceName) == "" {
		return errors.New("instance name is required")
	}
	if c.Port <= 0 {
		return errors.New("port must be > 0")
	}
	return nil
}

// Endpoint is one message server found on the LAN.
type Endpoint struct {
	ServerID  string
	Instance  string
	HostName  string
	Port      int
	APIRoot   string
	Version   int
	Addresses []string
}

// BaseURL returns the API root URL for the endpoint's preferred address.
func (e Endpoint) BaseURL() string {
	host := strings.TrimSuffix(e.HostName, ".")
	if len(e.Addresses) > 0 {
		host = e.Addresses[0]
	}
	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(host, strconv.Itoa(e.Port)),
		Path:   e.APIRoot,
	}
	return u.String()
}

// Advertiser publishes the local message server via mDNS.
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers and starts the mDNS announcement.
func Advertise(config Config) (*Advertiser, error) {
	cfg := config.withDefaults()
	if err := cfg.validateForAdvertise(); err != nil {
		return nil, err
	}

	txt := []string{
		"server_id=" + cfg.ServerID,
		"version=" + strconv.Itoa(cfg.Version),
		"api_root=" + cfg.APIRoot,
	}

	server, err := cfg.registerFn(cfg.InstanceName, cfg.Service, cfg.Domain, cfg.Port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("register mDNS service: %w", err)
	}

	return &Advertiser{server: server}, nil
}

// Stop withdraws the announcement.
func (a *Advertiser) Stop() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
}

// Resolve browses for one scan window and returns the first usable endpoint.
// Endpoints are ordered by server ID so repeated scans pick the same server.
func Resolve(ctx context.Context, config Config) (Endpoint, error) {
	cfg := config.withDefaults()

	browse := cfg.browseFn
	if browse == nil {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return Endpoint{}, fmt.Errorf("create mDNS resolver: %w", err)
		}
		browse = resolver.Browse
	}

	scanCtx, cancel := context.WithTimeout(ctx, cfg.ScanTimeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 32)
	collected := make(map[string]Endpoint)
	collectorDone := make(chan struct{})

	go func() {
		defer close(collectorDone)
		for {
			select {
			case <-scanCtx.Done():
				return
			case entry := <-entries:
				if entry == nil {
					continue
				}
				endpoint, ok := parseEntry(entry)
				if !ok {
					continue
				}
				collected[endpoint.ServerID] = endpoint
			}
		}
	}()

	if err := browse(scanCtx, cfg.Service, cfg.Domain, entries); err != nil {
		cancel()
		<-collectorDone
		return Endpoint{}, fmt.Errorf("browse mDNS: %w", err)
	}

	<-scanCtx.Done()
	<-collectorDone

	if err := ctx.Err(); err != nil {
		return Endpoint{}, err
	}
	if len(collected) == 0 {
		return Endpoint{}, ErrNoEndpoint
	}

	ids := make([]string, 0, len(collected))
	for id := range collected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return collected[ids[0]], nil
}

func parseEntry(entry *zeroconf.ServiceEntry) (Endpoint, bool) {
	txt := txtToMap(entry.Text)

	serverID := strings.TrimSpace(txt["server_id"])
	if serverID == "" || entry.Port <= 0 {
		return Endpoint{}, false
	}

	version := 0
	if txt["version"] != "" {
		if parsed, err := strconv.Atoi(txt["version"]); err == nil {
			version = parsed
		}
	}

	apiRoot := strings.TrimSpace(txt["api_root"])
	if apiRoot == "" {
		apiRoot = DefaultAPIRoot
	}
	if !strings.HasPrefix(apiRoot, "/") {
		apiRoot = "/" + apiRoot
	}

	addresses := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	seen := make(map[string]struct{})
	for _, ip := range append(entry.AddrIPv4, entry.AddrIPv6...) {
		if ip == nil {
			continue
		}
		raw := ip.String()
		if raw == "" {
			continue
		}
		if _, exists := seen[raw]; exists {
			continue
		}
		seen[raw] = struct{}{}
		addresses = append(addresses, raw)
	}
	sort.Strings(addresses)

	if len(addresses) == 0 && strings.TrimSpace(entry.HostName) == "" {
		return Endpoint{}, false
	}

	return Endpoint{
		ServerID:  serverID,
		Instance:  strings.TrimSpace(entry.Instance),
		HostName:  entry.HostName,
		Port:      entry.Port,
		APIRoot:   apiRoot,
		Version:   version,
		Addresses: addresses,
	}, true
}

func txtToMap(text []string) map[string]string {
	out := make(map[string]string, len(text))
	for _, entry := range text {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(parts[1])
	}
	return out
}
