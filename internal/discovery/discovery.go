// Package discovery advertises and finds lumiwave servers over mDNS.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/enbility/zeroconf/v3"
)

const (
	Service = "_lumiwave._tcp"
	Domain  = "local"
)

var ErrNotFound = errors.New("discovery: no server found")

// Advertise registers the server on all multicast interfaces. An empty
// instance uses the host name. The returned func withdraws the record.
func Advertise(instance string, port int, txt []string) (func(), error) {
	if instance == "" {
		h, err := os.Hostname()
		if err != nil {
			h = "lumiwave"
		}
		instance = "lumiwave-" + h
	}
	srv, err := zeroconf.Register(instance, Service, Domain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: register: %w", err)
	}
	return srv.Shutdown, nil
}

// Server is one browse result.
type Server struct {
	Instance string
	Addr     string
	TXT      map[string]string
}

// Browse returns the first server that answers within timeout.
func Browse(ctx context.Context, timeout time.Duration) (Server, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	browsed := make(chan error, 1)
	go func() {
		browsed <- zeroconf.Browse(ctx, Service, Domain, entries, removed)
	}()

	for {
		select {
		case e, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			addr, ok := entryAddr(e)
			if !ok {
				continue
			}
			return Server{Instance: e.Instance, Addr: addr, TXT: ParseTXT(e.Text)}, nil

		case _, ok := <-removed:
			if !ok {
				removed = nil
			}

		case err := <-browsed:
			if err != nil && ctx.Err() == nil {
				return Server{}, fmt.Errorf("discovery: browse: %w", err)
			}
			browsed = nil

		case <-ctx.Done():
			return Server{}, fmt.Errorf("%w on %s within %s", ErrNotFound, Service, timeout)
		}
	}
}

// entryAddr prefers IPv4, then IPv6, then the advertised host name.
func entryAddr(e *zeroconf.ServiceEntry) (string, bool) {
	if e == nil || e.Port <= 0 {
		return "", false
	}
	port := strconv.Itoa(e.Port)
	switch {
	case len(e.AddrIPv4) > 0:
		return net.JoinHostPort(e.AddrIPv4[0].String(), port), true
	case len(e.AddrIPv6) > 0:
		return net.JoinHostPort(e.AddrIPv6[0].String(), port), true
	case e.HostName != "":
		return net.JoinHostPort(strings.TrimSuffix(e.HostName, "."), port), true
	}
	return "", false
}

// ParseTXT splits key=value records. Records without '=' map to "".
func ParseTXT(txt []string) map[string]string {
	out := make(map[string]string, len(txt))
	for _, kv := range txt {
		k, v, _ := strings.Cut(kv, "=")
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
