package client

import "time"

// Request describes one HTTP exchange. The zero value is not usable; start
// from NewRequest or fill URL and Method yourself.
type Request struct {
	Method  string
	URL     URL
	Headers Header
	Body    []byte

	// Timeout is a read-inactivity deadline: it resets on every byte
	// received, so a slow but live transfer never times out.
	Timeout time.Duration

	FollowRedirects bool
	MaxRedirects    int

	EnableCompression bool

	MaxRetries         int
	RetryDelay         time.Duration
	ExponentialBackoff bool
}

// NewRequest returns a Request for url with the same defaults the original
// CLI applies: GET, 30s inactivity timeout, compression on, up to 10
// redirect hops when following is enabled.
func NewRequest(method string, u URL) Request {
	if method == "" {
		method = "GET"
	}
	return Request{
		Method:             method,
		URL:                u,
		Headers:            make(Header),
		Timeout:            30 * time.Second,
		MaxRedirects:       10,
		EnableCompression:  true,
		RetryDelay:         time.Second,
		ExponentialBackoff: true,
	}
}

// Response is the outcome of a Request. A StatusCode of 0 signals a
// transport failure; the error kind is recorded in the statistics sink.
type Response struct {
	StatusCode    int
	StatusMessage string
	Headers       Header
	Body          []byte

	ElapsedTime time.Duration

	// BytesReceived counts body bytes as framed on the wire (after chunked
	// decoding, before decompression). It can differ from len(Body) when
	// the body was compressed.
	BytesReceived uint64

	WasCompressed bool
	RedirectCount int
}

// Success reports whether the response carries a non-error status.
func (r Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}
