// Package stats collects thread-safe request-execution counters and renders
// them as an ANSI report.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// Error kinds recorded by the client. Kept as plain strings so callers can
// define their own without touching this package.
const (
	ErrInvalidURL       = "invalid_url"
	ErrDNSFailure       = "dns_failure"
	ErrConnectionFailed = "connection_failed"
	ErrTLSHandshake     = "tls_handshake_failed"
	ErrSendFailed       = "send_failed"
	ErrReadTimeout      = "read_timeout"
	ErrReadError        = "read_error"
	ErrRetry            = "retry"
	ErrMaxRetries       = "max_retries_exceeded"
	ErrDecompression    = "decompression_failed"
)

// Statistics accumulates thread-safe counters about request execution.
// Numeric counters are atomics; the error map and current-connection info
// are guarded by their own mutexes.
type Statistics struct {
	totalRequests      atomic.Uint64
	totalErrors        atomic.Uint64
	totalBytesReceived atomic.Uint64
	totalBytesSent     atomic.Uint64

	connectionsCreated atomic.Uint64
	connectionsReused  atomic.Uint64

	dnsLookups   atomic.Uint64
	dnsCacheHits atomic.Uint64

	totalLatencyMs atomic.Uint64
	minLatencyMs   atomic.Uint64
	maxLatencyMs   atomic.Uint64

	totalDNSMs       atomic.Uint64
	totalTCPMs       atomic.Uint64
	totalFirstByteMs atomic.Uint64

	tcpHandshakeCount atomic.Uint64
	firstByteCount    atomic.Uint64

	infoMu      sync.Mutex
	currentIP   string
	currentHost string
	isSecure    bool

	errMu       sync.Mutex
	errorCounts map[string]uint64
}

const unsetMinLatency = 999999

// New returns an empty Statistics sink.
func New() *Statistics {
	s := &Statistics{errorCounts: make(map[string]uint64)}
	s.minLatencyMs.Store(unsetMinLatency)
	return s
}

// RecordRequest records a completed request's wall time and body bytes.
func (s *Statistics) RecordRequest(latency time.Duration, bytesReceived uint64) {
	s.totalRequests.Add(1)
	s.totalBytesReceived.Add(bytesReceived)

	ms := uint64(latency.Milliseconds())
	s.totalLatencyMs.Add(ms)

	for {
		cur := s.minLatencyMs.Load()
		if ms >= cur || s.minLatencyMs.CompareAndSwap(cur, ms) {
			break
		}
	}
	for {
		cur := s.maxLatencyMs.Load()
		if ms <= cur || s.maxLatencyMs.CompareAndSwap(cur, ms) {
			break
		}
	}
}

// RecordBytesSent adds to the outbound byte counter.
func (s *Statistics) RecordBytesSent(n uint64) {
	s.totalBytesSent.Add(n)
}

// RecordConnection counts a connection as created or reused.
func (s *Statistics) RecordConnection(reused bool) {
	if reused {
		s.connectionsReused.Add(1)
	} else {
		s.connectionsCreated.Add(1)
	}
}

// RecordError counts one error of the given kind.
func (s *Statistics) RecordError(kind string) {
	s.totalErrors.Add(1)
	s.errMu.Lock()
	s.errorCounts[kind]++
	s.errMu.Unlock()
}

// RecordDNSLookup records one resolution and whether it was served from cache.
func (s *Statistics) RecordDNSLookup(d time.Duration, cached bool) {
	s.dnsLookups.Add(1)
	if cached {
		s.dnsCacheHits.Add(1)
	}
	s.totalDNSMs.Add(uint64(d.Milliseconds()))
}

// RecordTCPHandshake records the time spent establishing a TCP connection.
func (s *Statistics) RecordTCPHandshake(d time.Duration) {
	s.tcpHandshakeCount.Add(1)
	s.totalTCPMs.Add(uint64(d.Milliseconds()))
}

// RecordFirstByte records the delay between sending a request and the first
// byte of its response.
func (s *Statistics) RecordFirstByte(d time.Duration) {
	s.firstByteCount.Add(1)
	s.totalFirstByteMs.Add(uint64(d.Milliseconds()))
}

// SetCurrentIP notes the peer address of the most recent connection.
func (s *Statistics) SetCurrentIP(ip string) {
	s.infoMu.Lock()
	s.currentIP = ip
	s.infoMu.Unlock()
}

// SetCurrentHost notes the host of the most recent connection.
func (s *Statistics) SetCurrentHost(host string) {
	s.infoMu.Lock()
	s.currentHost = host
	s.infoMu.Unlock()
}

// SetIsSecure notes whether the most recent connection used TLS.
func (s *Statistics) SetIsSecure(secure bool) {
	s.infoMu.Lock()
	s.isSecure = secure
	s.infoMu.Unlock()
}

// Snapshot is a point-in-time copy of all counters with derived averages.
type Snapshot struct {
	TotalRequests      uint64
	TotalErrors        uint64
	TotalBytesReceived uint64
	TotalBytesSent     uint64

	ConnectionsCreated uint64
	ConnectionsReused  uint64

	DNSLookups   uint64
	DNSCacheHits uint64

	AvgLatencyMs float64
	MinLatencyMs float64
	MaxLatencyMs float64

	AvgDNSMs          float64
	AvgTCPHandshakeMs float64
	AvgFirstByteMs    float64
	AvgLastByteMs     float64

	CurrentIP   string
	CurrentHost string
	IsSecure    bool

	ErrorCounts map[string]uint64
}

// Get returns a consistent-enough snapshot of the counters. Individual
// counters are monotone; the snapshot is not a single atomic cut.
func (s *Statistics) Get() Snapshot {
	var snap Snapshot
	snap.TotalRequests = s.totalRequests.Load()
	snap.TotalErrors = s.totalErrors.Load()
	snap.TotalBytesReceived = s.totalBytesReceived.Load()
	snap.TotalBytesSent = s.totalBytesSent.Load()
	snap.ConnectionsCreated = s.connectionsCreated.Load()
	snap.ConnectionsReused = s.connectionsReused.Load()
	snap.DNSLookups = s.dnsLookups.Load()
	snap.DNSCacheHits = s.dnsCacheHits.Load()

	if req := snap.TotalRequests; req > 0 {
		snap.AvgLatencyMs = float64(s.totalLatencyMs.Load()) / float64(req)
	}
	if mn := s.minLatencyMs.Load(); mn != unsetMinLatency {
		snap.MinLatencyMs = float64(mn)
	}
	snap.MaxLatencyMs = float64(s.maxLatencyMs.Load())

	if n := snap.DNSLookups; n > 0 {
		snap.AvgDNSMs = float64(s.totalDNSMs.Load()) / float64(n)
	}
	if n := s.tcpHandshakeCount.Load(); n > 0 {
		snap.AvgTCPHandshakeMs = float64(s.totalTCPMs.Load()) / float64(n)
	}
	if n := s.firstByteCount.Load(); n > 0 {
		snap.AvgFirstByteMs = float64(s.totalFirstByteMs.Load()) / float64(n)
	}
	snap.AvgLastByteMs = snap.AvgLatencyMs

	s.infoMu.Lock()
	snap.CurrentIP = s.currentIP
	snap.CurrentHost = s.currentHost
	snap.IsSecure = s.isSecure
	s.infoMu.Unlock()
	if snap.CurrentIP == "" {
		snap.CurrentIP = "N/A"
	}
	if snap.CurrentHost == "" {
		snap.CurrentHost = "N/A"
	}

	snap.ErrorCounts = make(map[string]uint64)
	s.errMu.Lock()
	for k, v := range s.errorCounts {
		snap.ErrorCounts[k] = v
	}
	s.errMu.Unlock()

	return snap
}

// Reset zeroes all counters.
func (s *Statistics) Reset() {
	s.totalRequests.Store(0)
	s.totalErrors.Store(0)
	s.totalBytesReceived.Store(0)
	s.totalBytesSent.Store(0)
	s.connectionsCreated.Store(0)
	s.connectionsReused.Store(0)
	s.dnsLookups.Store(0)
	s.dnsCacheHits.Store(0)
	s.totalLatencyMs.Store(0)
	s.minLatencyMs.Store(unsetMinLatency)
	s.maxLatencyMs.Store(0)
	s.totalDNSMs.Store(0)
	s.totalTCPMs.Store(0)
	s.totalFirstByteMs.Store(0)
	s.tcpHandshakeCount.Store(0)
	s.firstByteCount.Store(0)

	s.infoMu.Lock()
	s.currentIP = ""
	s.currentHost = ""
	s.isSecure = false
	s.infoMu.Unlock()

	s.errMu.Lock()
	s.errorCounts = make(map[string]uint64)
	s.errMu.Unlock()
}
