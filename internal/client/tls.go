package client

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"
	"path/filepath"
	"sync"
)

// Well-known CA locations probed before falling back to the platform pool.
var caDirs = []string{
	"/etc/ssl/certs",
	"/etc/pki/tls/certs",
	"/usr/local/share/certs",
	"/etc/ssl",
}

var caFiles = []string{
	"/etc/ssl/certs/ca-certificates.crt",
	"/etc/pki/tls/certs/ca-bundle.crt",
}

var (
	rootsOnce sync.Once
	roots     *x509.CertPool
)

// loadRoots builds the trust anchor pool once: first CA directory that
// yields certificates wins, then the bundle files, then the system pool.
func loadRoots() *x509.CertPool {
	rootsOnce.Do(func() {
		pool := x509.NewCertPool()
		for _, dir := range caDirs {
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue
			}
			loaded := false
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				pem, err := os.ReadFile(filepath.Join(dir, e.Name()))
				if err != nil {
					continue
				}
				if pool.AppendCertsFromPEM(pem) {
					loaded = true
				}
			}
			if loaded {
				roots = pool
				return
			}
		}
		for _, file := range caFiles {
			pem, err := os.ReadFile(file)
			if err != nil {
				continue
			}
			if pool.AppendCertsFromPEM(pem) {
				roots = pool
				return
			}
		}
		if sys, err := x509.SystemCertPool(); err == nil {
			roots = sys
		}
	})
	return roots
}

// wrapTLS layers a TLS session over an established connection and runs the
// handshake. SNI is set to host. When verify is false certificate
// verification is skipped (InsecureSkipVerify), so an untrusted chain does
// not abort the handshake, matching the original client's "optional"
// verification mode; the loaded roots are only consulted when verify is true.
func wrapTLS(conn net.Conn, host string, verify bool) (net.Conn, error) {
	cfg := &tls.Config{
		ServerName:         host,
		RootCAs:            loadRoots(),
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !verify,
	}
	tc := tls.Client(conn, cfg)
	if err := tc.Handshake(); err != nil {
		return nil, err
	}
	return tc, nil
}
