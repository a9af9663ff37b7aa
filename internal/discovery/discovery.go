package discovery

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/sirupsen/logrus"
)

const (
	DefaultService = "_multiput._tcp"
	DefaultDomain  = "local."
)

// Peer is a receiver advertising itself over mDNS.
type Peer struct {
	Instance string
	Host     string
	IP       net.IP
	Port     int
}

// Browse collects the peers answering for service until timeout elapses or ctx ends.
func Browse(ctx context.Context, service, domain string, timeout time.Duration) ([]Peer, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		peers []Peer
	)
	entries := make(chan *zeroconf.ServiceEntry)
	go func(results <-chan *zeroconf.ServiceEntry) {
		for entry := range results {
			peer, ok := peerFromEntry(entry)
			if !ok {
				logrus.WithField("instance", entry.Instance).Debug("Ignoring entry without address")
				continue
			}
			logrus.WithField("instance", peer.Instance).Debugf("Found peer %s:%d", peer.IP, peer.Port)
			mu.Lock()
			peers = append(peers, peer)
			mu.Unlock()
		}
	}(entries)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := resolver.Browse(ctx, service, domain, entries); err != nil {
		return nil, err
	}
	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]Peer(nil), peers...), nil
}

// peerFromEntry prefers an IPv4 address, as the transfer endpoint does.
func peerFromEntry(entry *zeroconf.ServiceEntry) (Peer, bool) {
	peer := Peer{
		Instance: entry.Instance,
		Host:     entry.HostName,
		Port:     entry.Port,
	}
	switch {
	case len(entry.AddrIPv4) > 0:
		peer.IP = entry.AddrIPv4[0]
	case len(entry.AddrIPv6) > 0:
		peer.IP = entry.AddrIPv6[0]
	default:
		return Peer{}, false
	}
	return peer, true
}
