//go:build unix

package pool

import (
	"net"

	"golang.org/x/sys/unix"
)

// probe checks whether the peer is still there without consuming data: a
// non-blocking one-byte peek. A zero-byte read means the peer half-closed;
// EAGAIN means the connection is idle and healthy; anything else is dead.
func probe(tcp *net.TCPConn) bool {
	raw, err := tcp.SyscallConn()
	if err != nil {
		return false
	}

	alive := true
	cerr := raw.Control(func(fd uintptr) {
		var buf [1]byte
		n, _, err := unix.Recvfrom(int(fd), buf[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
		switch {
		case n == 0 && err == nil:
			alive = false
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
		case err != nil:
			alive = false
		}
	})
	return cerr == nil && alive
}
