package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
)

func TestPeerFromEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry *mdns.ServiceEntry
		want  Peer
		ok    bool
	}{
		{
			name: "refboard server",
			entry: &mdns.ServiceEntry{
				Name:       "studio._refboard._tcp.local.",
				Host:       "studio.local.",
				AddrV4:     net.IPv4(192, 168, 1, 20),
				Port:       8080,
				InfoFields: []string{"refboard"},
			},
			want: Peer{Instance: "studio", Host: "studio.local", Addr: "192.168.1.20:8080", Info: []string{"refboard"}},
			ok:   true,
		},
		{
			name:  "no address",
			entry: &mdns.ServiceEntry{Name: "x._refboard._tcp.local.", Port: 8080},
		},
		{
			name:  "no port",
			entry: &mdns.ServiceEntry{Name: "x._refboard._tcp.local.", AddrV4: net.IPv4(10, 0, 0, 1)},
		},
		{
			name:  "other service",
			entry: &mdns.ServiceEntry{Name: "printer._ipp._tcp.local.", AddrV4: net.IPv4(10, 0, 0, 1), Port: 631},
		},
		{name: "nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := peerFromEntry(tt.entry)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Instance != tt.want.Instance || got.Host != tt.want.Host || got.Addr != tt.want.Addr || len(got.Info) != len(tt.want.Info) {
				t.Errorf("peer = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBrowseExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctx, cancel = context.WithDeadline(ctx, time.Now().Add(-time.Second))
	defer cancel()

	if _, err := Browse(ctx, time.Second); err == nil {
		t.Error("Browse with an expired deadline succeeded")
	}
}
