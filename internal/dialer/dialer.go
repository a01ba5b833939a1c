// Package dialer establishes TCP connections using the RFC 8305 Happy
// Eyeballs procedure: IPv6 attempts get a short head start, IPv4 follows
// without waiting for IPv6 to fully fail, and within each address family
// attempts are staggered rather than strictly sequential.
package dialer

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"sync"
	"time"
)

const (
	// ConnectionAttemptDelay is the stagger between attempts within a round.
	ConnectionAttemptDelay = 250 * time.Millisecond

	// ResolutionDelay bounds the initial IPv6-only round before IPv4 starts.
	ResolutionDelay = 50 * time.Millisecond
)

// ErrNoAddresses is returned when the address list is empty.
var ErrNoAddresses = errors.New("dialer: no addresses to dial")

// ErrConnectFailed is returned when no attempt succeeded within the timeout.
var ErrConnectFailed = errors.New("dialer: all connection attempts failed")

// Dialer races staggered connection attempts across the given addresses.
type Dialer struct {
	// AttemptDelay overrides ConnectionAttemptDelay when > 0. Tests use a
	// small value to keep rounds fast.
	AttemptDelay time.Duration

	// KeepAlive is the TCP keep-alive period for established connections.
	// Zero selects 30s.
	KeepAlive time.Duration
}

func (d *Dialer) attemptDelay() time.Duration {
	if d.AttemptDelay > 0 {
		return d.AttemptDelay
	}
	return ConnectionAttemptDelay
}

func (d *Dialer) keepAlive() time.Duration {
	if d.KeepAlive > 0 {
		return d.KeepAlive
	}
	return 30 * time.Second
}

// Dial connects to one of addrs within timeout. IPv6 addresses are tried
// first with a ResolutionDelay budget, then IPv4 with the remaining time,
// then IPv6 once more if time remains.
func (d *Dialer) Dial(ctx context.Context, addrs []netip.AddrPort, timeout time.Duration) (*net.TCPConn, error) {
	if len(addrs) == 0 {
		return nil, ErrNoAddresses
	}

	var v6, v4 []netip.AddrPort
	for _, a := range addrs {
		if a.Addr().Is6() && !a.Addr().Is4In6() {
			v6 = append(v6, a)
		} else {
			v4 = append(v4, a)
		}
	}

	deadline := time.Now().Add(timeout)

	if len(v6) > 0 {
		budget := ResolutionDelay
		if staggered := time.Duration(len(v6)) * d.attemptDelay(); staggered < budget {
			budget = staggered
		}
		if conn, err := d.dialRound(ctx, v6, budget); err == nil {
			return conn, nil
		}
	}

	if remaining := time.Until(deadline); len(v4) > 0 && remaining > 0 {
		if conn, err := d.dialRound(ctx, v4, remaining); err == nil {
			return conn, nil
		}
	}

	if remaining := time.Until(deadline); len(v6) > 0 && remaining > 0 {
		if conn, err := d.dialRound(ctx, v6, remaining); err == nil {
			return conn, nil
		}
	}

	return nil, ErrConnectFailed
}

// dialRound launches staggered attempts against addrs and returns the first
// connection to complete. Losing connections are closed.
func (d *Dialer) dialRound(ctx context.Context, addrs []netip.AddrPort, budget time.Duration) (*net.TCPConn, error) {
	rctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type result struct {
		conn *net.TCPConn
		err  error
	}
	results := make(chan result, len(addrs))

	var wg sync.WaitGroup
	attempt := func(addr netip.AddrPort) {
		defer wg.Done()
		nd := net.Dialer{KeepAlive: d.keepAlive()}
		c, err := nd.DialContext(rctx, "tcp", addr.String())
		if err != nil {
			results <- result{err: err}
			return
		}
		tc := c.(*net.TCPConn)
		tc.SetNoDelay(true)
		results <- result{conn: tc}
	}

	launched := 0
	failed := 0
	stagger := time.NewTimer(0)
	defer stagger.Stop()

	var winner *net.TCPConn
loop:
	for {
		select {
		case <-stagger.C:
			if launched < len(addrs) {
				wg.Add(1)
				go attempt(addrs[launched])
				launched++
				stagger.Reset(d.attemptDelay())
			}
		case r := <-results:
			if r.conn != nil {
				winner = r.conn
				break loop
			}
			failed++
			if failed == len(addrs) {
				break loop
			}
			// An early failure frees a slot; start the next attempt now.
			if launched < len(addrs) {
				stagger.Reset(0)
			}
		case <-rctx.Done():
			break loop
		}
	}

	// Unblock any in-flight dials and reap their connections.
	cancel()
	go func() {
		wg.Wait()
		close(results)
		for r := range results {
			if r.conn != nil {
				r.conn.Close()
			}
		}
	}()

	if winner == nil {
		return nil, ErrConnectFailed
	}
	return winner, nil
}
