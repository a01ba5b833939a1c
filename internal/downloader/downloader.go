package downloader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/itzender5820/crawl/internal/client"
)

// ErrRangeNotSupported is returned when the server does not advertise byte
// ranges or a usable length.
var ErrRangeNotSupported = errors.New("downloader: server does not support range requests")

// ErrSegmentFailed is returned when any segment never produced a 206; the
// caller falls back to a single-pipe request.
var ErrSegmentFailed = errors.New("downloader: segment download failed")

// probeTimeout bounds the metadata HEAD request.
const probeTimeout = 5 * time.Second

// Options configures a parallel download.
type Options struct {
	// Parallel is the number of byte-range segments (and workers).
	Parallel int

	// Timeout is the per-segment inactivity timeout.
	Timeout time.Duration

	// Headers are sent with every segment request (Range is added).
	Headers client.Header

	// EnableCompression is passed through to each segment request.
	// Usually false: ranged responses are raw bytes.
	EnableCompression bool

	// SegmentRetries is how many attempts each segment gets before the
	// whole download is abandoned. Default: 3.
	SegmentRetries int

	// SegmentRetryDelay is the pause between segment attempts. Default: 1s.
	SegmentRetryDelay time.Duration
}

// FileInfo is what the HEAD probe learned about the target.
type FileInfo struct {
	Size          int64
	AcceptsRanges bool
}

// Probe issues a HEAD request to learn the target's size and whether it
// accepts byte ranges.
func Probe(c *client.Client, u client.URL, headers client.Header) FileInfo {
	req := client.NewRequest("HEAD", u)
	req.Headers = headers.Clone()
	req.Timeout = probeTimeout

	resp := c.Do(req)

	var info FileInfo
	if cl := resp.Headers.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			info.Size = n
		}
	}
	if ar := resp.Headers.Get("Accept-Ranges"); strings.Contains(ar, "bytes") {
		info.AcceptsRanges = true
	}
	return info
}

// Download fetches u in opts.Parallel byte-range segments and reassembles
// them in order. Every segment must answer 206; any segment exhausting its
// retries fails the whole download with ErrSegmentFailed.
func Download(c *client.Client, u client.URL, size int64, opts Options) ([]byte, error) {
	if opts.Parallel < 2 || size <= 0 {
		return nil, ErrRangeNotSupported
	}
	if opts.SegmentRetries <= 0 {
		opts.SegmentRetries = 3
	}
	if opts.SegmentRetryDelay <= 0 {
		opts.SegmentRetryDelay = time.Second
	}

	n := opts.Parallel
	segmentSize := size / int64(n)
	parts := make([][]byte, n)

	var g errgroup.Group
	g.SetLimit(n)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			startByte := int64(i) * segmentSize
			rangeValue := fmt.Sprintf("bytes=%d-", startByte)
			if i < n-1 {
				rangeValue = fmt.Sprintf("bytes=%d-%d", startByte, (int64(i)+1)*segmentSize-1)
			}

			req := client.NewRequest("GET", u)
			req.Headers = opts.Headers.Clone()
			req.Headers.Set("Range", rangeValue)
			req.EnableCompression = opts.EnableCompression
			if opts.Timeout > 0 {
				req.Timeout = opts.Timeout
			}

			var resp client.Response
			for attempt := 0; attempt < opts.SegmentRetries; attempt++ {
				if attempt > 0 {
					time.Sleep(opts.SegmentRetryDelay)
				}
				resp = c.Do(req)
				if resp.StatusCode == 206 {
					parts[i] = resp.Body
					return nil
				}
			}
			return fmt.Errorf("%w: segment %d got status %d", ErrSegmentFailed, i, resp.StatusCode)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]byte, 0, size)
	for _, part := range parts {
		result = append(result, part...)
	}
	return result, nil
}
