// Package dnscache caches DNS resolutions keyed by "host:port" with a TTL.
//
// Entries are committed only for non-empty resolutions and evicted lazily
// when read after expiry, or eagerly via Cleanup. Resolution happens outside
// the cache lock so a slow lookup never blocks concurrent readers.
package dnscache

import (
	"context"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"time"
)

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = 300 * time.Second

// LookupFunc resolves a hostname to its IP addresses (IPv4 and IPv6).
type LookupFunc func(ctx context.Context, host string) ([]netip.Addr, error)

type entry struct {
	addrs      []netip.AddrPort
	resolvedAt time.Time
	ttl        time.Duration
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// Cache is a TTL-bounded DNS cache. The zero value is not usable; use New.
type Cache struct {
	lookup LookupFunc
	ttl    time.Duration

	mu      sync.Mutex
	entries map[string]entry
	hits    uint64
	misses  uint64
}

// New creates a cache with the given default TTL. A ttl <= 0 falls back to
// DefaultTTL. lookup may be nil, in which case the system resolver is used.
func New(ttl time.Duration, lookup LookupFunc) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if lookup == nil {
		lookup = systemLookup
	}
	return &Cache{
		lookup:  lookup,
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

func systemLookup(ctx context.Context, host string) ([]netip.Addr, error) {
	return net.DefaultResolver.LookupNetIP(ctx, "ip", host)
}

func key(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Resolve returns the cached addresses for host:port while the entry is
// fresh, resolving and caching otherwise. A resolution failure returns an
// empty slice; callers treat empty as failure. Empty results are not cached.
func (c *Cache) Resolve(ctx context.Context, host string, port int) []netip.AddrPort {
	k := key(host, port)

	c.mu.Lock()
	if e, ok := c.entries[k]; ok {
		if time.Since(e.resolvedAt) < e.ttl {
			c.hits++
			addrs := e.addrs
			c.mu.Unlock()
			return addrs
		}
		delete(c.entries, k)
	}
	c.misses++
	c.mu.Unlock()

	ips, err := c.lookup(ctx, host)
	if err != nil || len(ips) == 0 {
		return nil
	}

	addrs := make([]netip.AddrPort, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, netip.AddrPortFrom(ip.Unmap(), uint16(port)))
	}

	c.mu.Lock()
	c.entries[k] = entry{addrs: addrs, resolvedAt: time.Now(), ttl: c.ttl}
	c.mu.Unlock()

	return addrs
}

// Warmup resolves host:port and discards the result, priming the cache.
func (c *Cache) Warmup(ctx context.Context, host string, port int) {
	c.Resolve(ctx, host, port)
}

// Cleanup sweeps expired entries.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.entries {
		if now.Sub(e.resolvedAt) >= e.ttl {
			delete(c.entries, k)
		}
	}
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// GetStats returns hit/miss counters and the current entry count.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}
