package stats

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRecordRequest(t *testing.T) {
	s := New()
	s.RecordRequest(100*time.Millisecond, 1000)
	s.RecordRequest(300*time.Millisecond, 2000)

	snap := s.Get()
	if snap.TotalRequests != 2 {
		t.Errorf("requests = %d, want 2", snap.TotalRequests)
	}
	if snap.TotalBytesReceived != 3000 {
		t.Errorf("bytes = %d, want 3000", snap.TotalBytesReceived)
	}
	if snap.MinLatencyMs != 100 {
		t.Errorf("min latency = %g, want 100", snap.MinLatencyMs)
	}
	if snap.MaxLatencyMs != 300 {
		t.Errorf("max latency = %g, want 300", snap.MaxLatencyMs)
	}
	if snap.AvgLatencyMs != 200 {
		t.Errorf("avg latency = %g, want 200", snap.AvgLatencyMs)
	}
}

func TestMinLatencyUnsetIsZero(t *testing.T) {
	s := New()
	if snap := s.Get(); snap.MinLatencyMs != 0 {
		t.Errorf("min latency = %g with no requests, want 0", snap.MinLatencyMs)
	}
}

func TestRecordConnection(t *testing.T) {
	s := New()
	s.RecordConnection(false)
	s.RecordConnection(true)
	s.RecordConnection(true)

	snap := s.Get()
	if snap.ConnectionsCreated != 1 || snap.ConnectionsReused != 2 {
		t.Errorf("created/reused = %d/%d, want 1/2", snap.ConnectionsCreated, snap.ConnectionsReused)
	}
}

func TestRecordError(t *testing.T) {
	s := New()
	s.RecordError(ErrRetry)
	s.RecordError(ErrRetry)
	s.RecordError(ErrMaxRetries)

	snap := s.Get()
	if snap.TotalErrors != 3 {
		t.Errorf("errors = %d, want 3", snap.TotalErrors)
	}
	if snap.ErrorCounts[ErrRetry] != 2 {
		t.Errorf("retry count = %d, want 2", snap.ErrorCounts[ErrRetry])
	}
	if snap.ErrorCounts[ErrMaxRetries] != 1 {
		t.Errorf("max retries count = %d, want 1", snap.ErrorCounts[ErrMaxRetries])
	}
}

func TestDNSAndTimingAverages(t *testing.T) {
	s := New()
	s.RecordDNSLookup(10*time.Millisecond, false)
	s.RecordDNSLookup(30*time.Millisecond, true)
	s.RecordTCPHandshake(20 * time.Millisecond)
	s.RecordFirstByte(40 * time.Millisecond)

	snap := s.Get()
	if snap.DNSLookups != 2 || snap.DNSCacheHits != 1 {
		t.Errorf("dns lookups/hits = %d/%d, want 2/1", snap.DNSLookups, snap.DNSCacheHits)
	}
	if snap.AvgDNSMs != 20 {
		t.Errorf("avg dns = %g, want 20", snap.AvgDNSMs)
	}
	if snap.AvgTCPHandshakeMs != 20 {
		t.Errorf("avg tcp = %g, want 20", snap.AvgTCPHandshakeMs)
	}
	if snap.AvgFirstByteMs != 40 {
		t.Errorf("avg first byte = %g, want 40", snap.AvgFirstByteMs)
	}
}

func TestCurrentInfoDefaults(t *testing.T) {
	s := New()
	snap := s.Get()
	if snap.CurrentIP != "N/A" || snap.CurrentHost != "N/A" {
		t.Errorf("current ip/host = %q/%q, want N/A", snap.CurrentIP, snap.CurrentHost)
	}

	s.SetCurrentIP("192.0.2.1")
	s.SetCurrentHost("example.com")
	s.SetIsSecure(true)
	snap = s.Get()
	if snap.CurrentIP != "192.0.2.1" || snap.CurrentHost != "example.com" || !snap.IsSecure {
		t.Errorf("current info not recorded: %+v", snap)
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.RecordRequest(time.Second, 100)
	s.RecordError(ErrRetry)
	s.Reset()

	snap := s.Get()
	if snap.TotalRequests != 0 || snap.TotalErrors != 0 || len(snap.ErrorCounts) != 0 {
		t.Errorf("counters survived reset: %+v", snap)
	}
	if snap.MinLatencyMs != 0 {
		t.Errorf("min latency = %g after reset, want 0", snap.MinLatencyMs)
	}
}

func TestConcurrentRecording(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.RecordRequest(time.Millisecond, 1)
				s.RecordError("kind")
				s.RecordConnection(j%2 == 0)
			}
		}()
	}
	wg.Wait()

	snap := s.Get()
	if snap.TotalRequests != 800 {
		t.Errorf("requests = %d, want 800", snap.TotalRequests)
	}
	if snap.ErrorCounts["kind"] != 800 {
		t.Errorf("error count = %d, want 800", snap.ErrorCounts["kind"])
	}
	if snap.ConnectionsCreated+snap.ConnectionsReused != 800 {
		t.Errorf("connections = %d, want 800", snap.ConnectionsCreated+snap.ConnectionsReused)
	}
}

func TestRender(t *testing.T) {
	s := New()
	s.RecordRequest(123*time.Millisecond, 2048)
	s.RecordConnection(false)
	s.RecordConnection(true)
	s.RecordError(ErrRetry)

	var buf bytes.Buffer
	s.Render(&buf)

	out := buf.String()
	for _, want := range []string{
		"CRAWL STATISTICS",
		"GENERAL INFO",
		"Requests:",
		"LATENCY (ms)",
		"CONNECTIONS",
		"Reuse Rate:",
		"50.0%",
		"DETAILED TIMING",
		"ERRORS",
		"retry:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q", want)
		}
	}
}
