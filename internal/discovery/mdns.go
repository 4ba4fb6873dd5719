// Package discovery advertises refboard servers on the local network and
// finds them again.
package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_refboard._tcp"

// Peer is a server found on the network.
type Peer struct {
	Instance string   `json:"instance"`
	Host     string   `json:"host"`
	Addr     string   `json:"addr"` // ip:port
	Info     []string `json:"info,omitempty"`
}

// Advertiser answers mDNS queries for one server until Shutdown.
type Advertiser struct {
	server *mdns.Server
}

// Advertise announces a server listening on port. An empty instance uses the
// hostname.
func Advertise(instance string, port int, info ...string) (*Advertiser, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		instance = host
	}

	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, nil, append([]string{"refboard"}, info...))
	if err != nil {
		return nil, fmt.Errorf("create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("start mDNS server: %w", err)
	}
	return &Advertiser{server: server}, nil
}

func (a *Advertiser) Shutdown() error {
	return a.server.Shutdown()
}

// Browse queries the network for up to timeout, or until ctx is done, and
// returns the servers that answered, sorted by address.
func Browse(ctx context.Context, timeout time.Duration) ([]Peer, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, ctx.Err()
	}

	entries := make(chan *mdns.ServiceEntry, 16)
	collected := make(chan []Peer, 1)
	go func() {
		seen := make(map[string]bool)
		var peers []Peer
		for e := range entries {
			p, ok := peerFromEntry(e)
			if !ok || seen[p.Addr] {
				continue
			}
			seen[p.Addr] = true
			peers = append(peers, p)
		}
		collected <- peers
	}()

	err := mdns.Query(&mdns.QueryParam{
		Service:     ServiceType,
		Domain:      "local",
		Timeout:     timeout,
		Entries:     entries,
		DisableIPv6: true,
	})
	close(entries)
	peers := <-collected
	if err != nil {
		return nil, fmt.Errorf("mDNS query: %w", err)
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i].Addr < peers[j].Addr })
	return peers, nil
}

func peerFromEntry(e *mdns.ServiceEntry) (Peer, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Peer{}, false
	}
	if !strings.Contains(e.Name, ServiceType+".") {
		return Peer{}, false
	}
	instance, _, _ := strings.Cut(e.Name, "."+ServiceType)
	return Peer{
		Instance: instance,
		Host:     strings.TrimSuffix(e.Host, "."),
		Addr:     net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port)),
		Info:     e.InfoFields,
	}, true
}
