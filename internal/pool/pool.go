// Package pool caches idle keep-alive connections keyed by origin.
//
// Acquire only ever returns an existing connection; creating new ones is the
// caller's job so DNS/TCP/TLS timing can be recorded where it happens.
// Capacity is enforced at release time: a release that would overflow the
// pool closes the connection instead, so in-flight reuse is never refused.
package pool

import (
	"net"
	"sync"
	"time"
)

// Key identifies an origin. Connections are never shared across keys.
type Key struct {
	Host string
	Port int
	TLS  bool
}

// Conn is a pooled connection: the raw TCP socket plus the stream actually
// used for I/O (the socket itself, or a TLS session layered over it).
type Conn struct {
	tcp      *net.TCPConn
	stream   net.Conn
	isTLS    bool
	lastUsed time.Time
	inUse    bool
}

// NewConn wraps an established connection for pooling. stream may be nil
// for plain connections.
func NewConn(tcp *net.TCPConn, stream net.Conn) *Conn {
	isTLS := stream != nil
	if stream == nil {
		stream = tcp
	}
	return &Conn{tcp: tcp, stream: stream, isTLS: isTLS, lastUsed: time.Now(), inUse: true}
}

// IsTLS reports whether the connection carries a TLS session.
func (c *Conn) IsTLS() bool { return c.isTLS }

// Stream returns the connection to read and write on.
func (c *Conn) Stream() net.Conn { return c.stream }

// TCP returns the underlying socket.
func (c *Conn) TCP() *net.TCPConn { return c.tcp }

// Close closes the stream (and with it the socket).
func (c *Conn) Close() error { return c.stream.Close() }

// Pool holds idle connections grouped by Key, with a soft global capacity
// and an idle timeout. All state is guarded by a single mutex; the total
// count is cached so the capacity check is O(1).
type Pool struct {
	mu          sync.Mutex
	conns       map[Key][]*Conn
	total       int
	maxConns    int
	idleTimeout time.Duration
}

// New creates a pool limited to maxConns idle entries overall.
func New(maxConns int, idleTimeout time.Duration) *Pool {
	return &Pool{
		conns:       make(map[Key][]*Conn),
		maxConns:    maxConns,
		idleTimeout: idleTimeout,
	}
}

// SetMaxConns adjusts the capacity. Existing entries are not evicted; the
// new limit applies from the next release.
func (p *Pool) SetMaxConns(n int) {
	p.mu.Lock()
	p.maxConns = n
	p.mu.Unlock()
}

// Acquire returns an idle connection for the exact key, or nil when none is
// available. Candidates are liveness-probed; dead ones are closed and
// dropped before the next candidate is tried.
func (p *Pool) Acquire(host string, port int, tls bool) *Conn {
	k := Key{Host: host, Port: port, TLS: tls}

	p.mu.Lock()
	defer p.mu.Unlock()

	list := p.conns[k]
	for i := len(list) - 1; i >= 0; i-- {
		c := list[i]
		if c.inUse {
			continue
		}
		list = append(list[:i], list[i+1:]...)
		p.total--
		if !probe(c.tcp) {
			c.Close()
			continue
		}
		p.conns[k] = list
		c.inUse = true
		c.lastUsed = time.Now()
		return c
	}
	p.conns[k] = list
	return nil
}

// Release returns a connection to the pool, closing it instead when the
// pool is at capacity.
func (p *Pool) Release(host string, port int, c *Conn) {
	if c == nil {
		return
	}
	k := Key{Host: host, Port: port, TLS: c.isTLS}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total >= p.maxConns {
		c.Close()
		return
	}

	c.inUse = false
	c.lastUsed = time.Now()
	p.conns[k] = append(p.conns[k], c)
	p.total++
}

// CleanupIdle closes and removes entries idle for at least the idle timeout.
func (p *Pool) CleanupIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for k, list := range p.conns {
		kept := list[:0]
		for _, c := range list {
			if !c.inUse && now.Sub(c.lastUsed) >= p.idleTimeout {
				c.Close()
				p.total--
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) == 0 {
			delete(p.conns, k)
		} else {
			p.conns[k] = kept
		}
	}
}

// Len reports the number of idle entries currently held.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Close closes every pooled connection.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, list := range p.conns {
		for _, c := range list {
			c.Close()
		}
		delete(p.conns, k)
	}
	p.total = 0
}
