package dialer

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"
)

func listen(t *testing.T) (net.Listener, netip.AddrPort) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	return ln, ln.Addr().(*net.TCPAddr).AddrPort()
}

// deadPort returns an address nothing listens on.
func deadPort(t *testing.T) netip.AddrPort {
	t.Helper()
	ln, addr := listen(t)
	ln.Close()
	return addr
}

func TestDialSingleAddress(t *testing.T) {
	_, addr := listen(t)

	d := &Dialer{}
	conn, err := d.Dial(context.Background(), []netip.AddrPort{addr}, 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	conn.Close()
}

func TestDialNoAddresses(t *testing.T) {
	d := &Dialer{}
	if _, err := d.Dial(context.Background(), nil, time.Second); err != ErrNoAddresses {
		t.Errorf("err = %v, want ErrNoAddresses", err)
	}
}

func TestDialAllFail(t *testing.T) {
	addrs := []netip.AddrPort{deadPort(t), deadPort(t)}

	d := &Dialer{AttemptDelay: 10 * time.Millisecond}
	start := time.Now()
	_, err := d.Dial(context.Background(), addrs, 500*time.Millisecond)
	if err == nil {
		t.Fatal("expected failure when nothing listens")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("failure took far longer than the timeout")
	}
}

func TestDialPicksWorkingAddress(t *testing.T) {
	_, good := listen(t)
	addrs := []netip.AddrPort{deadPort(t), good, deadPort(t)}

	d := &Dialer{AttemptDelay: 10 * time.Millisecond}
	conn, err := d.Dial(context.Background(), addrs, 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if conn.RemoteAddr().(*net.TCPAddr).AddrPort() != good {
		t.Errorf("connected to %v, want %v", conn.RemoteAddr(), good)
	}
}

func TestDialStaggersAttempts(t *testing.T) {
	// Two live listeners: the first launched attempt should win well
	// before the second's stagger delay elapses.
	_, addr1 := listen(t)
	_, addr2 := listen(t)

	d := &Dialer{AttemptDelay: 500 * time.Millisecond}
	start := time.Now()
	conn, err := d.Dial(context.Background(), []netip.AddrPort{addr1, addr2}, 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("first attempt should win immediately, took %v", elapsed)
	}
}

func TestDialContextCancel(t *testing.T) {
	addrs := []netip.AddrPort{deadPort(t)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &Dialer{}
	if _, err := d.Dial(ctx, addrs, time.Second); err == nil {
		t.Error("expected failure with cancelled context")
	}
}
