package client

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/itzender5820/crawl/internal/dialer"
	"github.com/itzender5820/crawl/internal/dnscache"
	"github.com/itzender5820/crawl/internal/pool"
	"github.com/itzender5820/crawl/internal/ratelimit"
	"github.com/itzender5820/crawl/internal/stats"
)

// ProgressObserver receives live byte counts from the response reader.
type ProgressObserver interface {
	Add(n int64)
}

// Options configures a Client. Zero values select the defaults noted on
// each field.
type Options struct {
	// UserAgent is sent when the request does not set one. Default:
	// "Crawl/1.0".
	UserAgent string

	// Timeout is the default per-request inactivity timeout. Default: 30s.
	Timeout time.Duration

	// ConnectTimeout bounds connection establishment (all Happy Eyeballs
	// rounds together). Default: 10s.
	ConnectTimeout time.Duration

	// MaxConnections caps the total number of pooled idle connections.
	// Default: 200.
	MaxConnections int

	// IdleTimeout is how long an idle pooled connection may live.
	// Default: 90s.
	IdleTimeout time.Duration

	// DisableCompression stops advertising Accept-Encoding and decoding
	// compressed bodies. Default: false (compression on).
	DisableCompression bool

	// VerifyTLS makes certificate verification strict. The default keeps
	// the permissive mode the original client shipped with: roots are
	// loaded but an unverifiable chain does not abort the handshake.
	VerifyTLS bool

	// MaxResponseSize aborts reads beyond this many bytes, guarding
	// against unbounded buffer growth. Negative disables the limit.
	// Default: 1GiB.
	MaxResponseSize int64

	// Progress, when set, receives byte counts as responses arrive.
	Progress ProgressObserver
}

const defaultMaxResponseSize = 1 << 30

// Client executes HTTP/1.1 requests over its own connection pool, DNS
// cache, and rate limiter. Safe for concurrent use; configuration setters
// should be called before the first request.
type Client struct {
	pool    *pool.Pool
	dialer  *dialer.Dialer
	limiter *ratelimit.Limiter
	stats   *stats.Statistics

	dns *dnscache.Cache

	userAgent         string
	defaultTimeout    time.Duration
	connectTimeout    time.Duration
	enableCompression bool
	verifyTLS         bool
	maxResponseSize   int64
	progress          ProgressObserver
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = "Crawl/1.0"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = 200
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 90 * time.Second
	}
	if opts.MaxResponseSize == 0 {
		opts.MaxResponseSize = defaultMaxResponseSize
	} else if opts.MaxResponseSize < 0 {
		opts.MaxResponseSize = 0
	}

	return &Client{
		pool:              pool.New(opts.MaxConnections, opts.IdleTimeout),
		dialer:            &dialer.Dialer{},
		limiter:           ratelimit.New(0, 0),
		stats:             stats.New(),
		userAgent:         opts.UserAgent,
		defaultTimeout:    opts.Timeout,
		connectTimeout:    opts.ConnectTimeout,
		enableCompression: !opts.DisableCompression,
		verifyTLS:         opts.VerifyTLS,
		maxResponseSize:   opts.MaxResponseSize,
		progress:          opts.Progress,
	}
}

// SetTimeout changes the default inactivity timeout for requests that do
// not carry their own.
func (c *Client) SetTimeout(d time.Duration) { c.defaultTimeout = d }

// SetUserAgent changes the default User-Agent header.
func (c *Client) SetUserAgent(ua string) { c.userAgent = ua }

// SetMaxConnections resizes the connection pool's idle capacity.
func (c *Client) SetMaxConnections(n int) { c.pool.SetMaxConns(n) }

// EnableCompression toggles Accept-Encoding advertisement and decoding.
func (c *Client) EnableCompression(enable bool) { c.enableCompression = enable }

// SetRateLimit installs a token-bucket gate of rps requests per second
// with the given burst. rps <= 0 disables limiting.
func (c *Client) SetRateLimit(rps float64, burst int) { c.limiter.SetRate(rps, burst) }

// EnableDNSCache turns on DNS caching with the given TTL (<= 0 selects the
// package default of 300s).
func (c *Client) EnableDNSCache(ttl time.Duration) { c.dns = dnscache.New(ttl, nil) }

// DisableDNSCache drops the cache; every request resolves fresh.
func (c *Client) DisableDNSCache() { c.dns = nil }

// DNSCache returns the active cache, or nil when disabled.
func (c *Client) DNSCache() *dnscache.Cache { return c.dns }

// WarmupDNS pre-resolves each host for both the https and http ports.
func (c *Client) WarmupDNS(hosts []string) {
	if c.dns == nil {
		return
	}
	ctx := context.Background()
	for _, h := range hosts {
		c.dns.Warmup(ctx, h, 443)
		c.dns.Warmup(ctx, h, 80)
	}
}

// Stats returns the client's statistics sink.
func (c *Client) Stats() *stats.Statistics { return c.stats }

// SetProgress installs a progress observer fed by the response reader.
func (c *Client) SetProgress(p ProgressObserver) { c.progress = p }

// CleanupIdleConnections sweeps pooled connections past the idle timeout.
func (c *Client) CleanupIdleConnections() { c.pool.CleanupIdle() }

// Close releases all pooled connections.
func (c *Client) Close() { c.pool.Close() }

// Get issues a GET for rawurl with default settings.
func (c *Client) Get(rawurl string) Response {
	u, err := ParseURL(rawurl)
	if err != nil {
		c.stats.RecordError(stats.ErrInvalidURL)
		return Response{Headers: make(Header)}
	}
	req := NewRequest("GET", u)
	req.Timeout = c.defaultTimeout
	return c.execute(req)
}

// Post issues a POST of data to rawurl as application/octet-stream.
func (c *Client) Post(rawurl string, data []byte) Response {
	u, err := ParseURL(rawurl)
	if err != nil {
		c.stats.RecordError(stats.ErrInvalidURL)
		return Response{Headers: make(Header)}
	}
	req := NewRequest("POST", u)
	req.Timeout = c.defaultTimeout
	req.Body = data
	req.Headers.Set("Content-Type", "application/octet-stream")
	return c.execute(req)
}

// Do executes req, applying the retry policy when MaxRetries > 0.
func (c *Client) Do(req Request) Response {
	if req.MaxRetries > 0 {
		return c.executeWithRetry(req)
	}
	return c.execute(req)
}

// executeWithRetry runs req up to MaxRetries+1 times. Transport failures
// (status 0) and server errors (>= 500) are retried; anything else is
// returned as-is. Exhausting the budget yields a transport-failure
// response, mirroring the original client.
func (c *Client) executeWithRetry(req Request) Response {
	maxAttempts := req.MaxRetries + 1

	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp := c.execute(req)
		if resp.StatusCode > 0 && resp.StatusCode < 500 {
			return resp
		}
		if attempt+1 < maxAttempts {
			delay := req.RetryDelay
			if req.ExponentialBackoff {
				delay *= time.Duration(1 << attempt)
			}
			time.Sleep(delay)
			c.stats.RecordError(stats.ErrRetry)
		}
	}

	c.stats.RecordError(stats.ErrMaxRetries)
	return Response{Headers: make(Header)}
}

// execute runs the full request pipeline: rate gate, pool lookup or fresh
// connection, send, read, parse, release, stats, redirect.
func (c *Client) execute(req Request) Response {
	start := time.Now()
	ctx := context.Background()

	c.limiter.Acquire(ctx)

	if req.Timeout <= 0 {
		req.Timeout = c.defaultTimeout
	}

	host, port := req.URL.Host, req.URL.Port
	useTLS := req.URL.IsTLS()

	fail := func(kind string) Response {
		c.stats.RecordError(kind)
		return Response{Headers: make(Header), ElapsedTime: time.Since(start)}
	}

	conn := c.pool.Acquire(host, port, useTLS)
	if conn == nil {
		dnsStart := time.Now()
		addrs, cached := c.resolve(ctx, host, port)
		c.stats.RecordDNSLookup(time.Since(dnsStart), cached)
		if len(addrs) == 0 {
			return fail(stats.ErrDNSFailure)
		}

		tcpStart := time.Now()
		tc, err := c.dialer.Dial(ctx, addrs, c.connectTimeout)
		c.stats.RecordTCPHandshake(time.Since(tcpStart))
		if err != nil {
			return fail(stats.ErrConnectionFailed)
		}

		var stream net.Conn
		if useTLS {
			stream, err = wrapTLS(tc, host, c.verifyTLS)
			if err != nil {
				tc.Close()
				return fail(stats.ErrTLSHandshake)
			}
		}
		conn = pool.NewConn(tc, stream)

		c.stats.RecordConnection(false)
		if addr, ok := tc.RemoteAddr().(*net.TCPAddr); ok {
			c.stats.SetCurrentIP(addr.IP.String())
		}
		c.stats.SetCurrentHost(host)
		c.stats.SetIsSecure(useTLS)
	} else {
		// DNS and TCP setup already happened on a previous request.
		c.stats.RecordDNSLookup(0, true)
		c.stats.RecordTCPHandshake(0)
		c.stats.RecordConnection(true)
	}

	wire := buildRequest(req, c.userAgent, c.enableCompression)
	if _, err := conn.Stream().Write(wire); err != nil {
		conn.Close()
		return fail(stats.ErrSendFailed)
	}
	c.stats.RecordBytesSent(uint64(len(wire)))

	if len(req.Body) > 0 {
		if _, err := conn.Stream().Write(req.Body); err != nil {
			conn.Close()
			return fail(stats.ErrSendFailed)
		}
		c.stats.RecordBytesSent(uint64(len(req.Body)))
	}

	data, cause, rerr := c.readResponse(conn.Stream(), req.Timeout, req.Method, start)
	if rerr == errResponseTooLarge {
		conn.Close()
		return fail(stats.ErrReadError)
	}

	resp, decodeFailed := parseResponse(data, req.EnableCompression && c.enableCompression)
	resp.ElapsedTime = time.Since(start)

	// Returned even after a short read: the liveness probe on the next
	// acquire reaps a dead connection.
	c.pool.Release(host, port, conn)

	if decodeFailed {
		c.stats.RecordError(stats.ErrDecompression)
	}
	if resp.StatusCode == 0 {
		switch cause {
		case readTimedOut:
			c.stats.RecordError(stats.ErrReadTimeout)
		default:
			c.stats.RecordError(stats.ErrReadError)
		}
	}

	c.stats.RecordRequest(resp.ElapsedTime, resp.BytesReceived)

	if req.FollowRedirects && resp.StatusCode >= 300 && resp.StatusCode < 400 && req.MaxRedirects > 0 {
		if loc := resp.Headers.Get("Location"); loc != "" {
			if u, err := ParseURL(loc); err == nil {
				next := req
				next.URL = u
				next.MaxRedirects = req.MaxRedirects - 1
				chained := c.execute(next)
				chained.RedirectCount++
				return chained
			}
		}
	}

	return resp
}

// resolve returns addresses for host:port via the DNS cache when enabled,
// or a fresh system resolution otherwise. The bool reports a cache hit.
func (c *Client) resolve(ctx context.Context, host string, port int) ([]netip.AddrPort, bool) {
	if c.dns != nil {
		before := c.dns.GetStats().Hits
		addrs := c.dns.Resolve(ctx, host, port)
		return addrs, c.dns.GetStats().Hits > before
	}

	ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, false
	}
	addrs := make([]netip.AddrPort, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, netip.AddrPortFrom(ip.Unmap(), uint16(port)))
	}
	return addrs, false
}
