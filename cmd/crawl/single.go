package main

import (
	"fmt"
	"os"
	"time"

	"github.com/itzender5820/crawl/internal/client"
	"github.com/itzender5820/crawl/internal/config"
	"github.com/itzender5820/crawl/internal/downloader"
	"github.com/itzender5820/crawl/internal/progress"
)

// runSingle performs one request, optionally as a parallel range download
// when the target supports it and the output goes to a file.
func runSingle(c *client.Client, cfg config.Config, rawurl string) int {
	u, err := client.ParseURL(rawurl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: Invalid URL")
		return ExitFailure
	}

	req := client.NewRequest(cfg.Method, u)
	for k, v := range cfg.Headers {
		req.Headers.Set(k, v)
	}
	req.FollowRedirects = cfg.FollowRedirects
	req.Timeout = cfg.MaxTime
	req.MaxRetries = cfg.Retry.Count
	req.RetryDelay = cfg.Retry.Delay
	req.ExponentialBackoff = cfg.Retry.ExponentialBackoff
	req.EnableCompression = !cfg.NoCompress

	if cfg.Data != "" {
		req.Body = []byte(cfg.Data)
		if !req.Headers.Has("Content-Type") {
			req.Headers.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}

	if cfg.Verbose {
		fmt.Fprintln(os.Stderr, "* Crawl - HTTP client")
		fmt.Fprintf(os.Stderr, "* Connecting to %s:%d...\n", u.Host, u.Port)
		if cfg.DNSCache {
			fmt.Fprintln(os.Stderr, "* DNS caching enabled")
		}
		if !cfg.NoCompress {
			fmt.Fprintln(os.Stderr, "* Compression enabled")
		}
		if cfg.RateLimit > 0 {
			fmt.Fprintf(os.Stderr, "* Rate limit: %g req/s\n", cfg.RateLimit)
		}
	}

	// Probe for a parallel range download: only worth it when writing to a
	// file with more than one pipe, and only possible when the server
	// advertises a length and byte ranges.
	var info downloader.FileInfo
	if cfg.Parallel > 1 && cfg.Output != "" {
		info = downloader.Probe(c, u, req.Headers)
	}

	var counter progress.Counter
	var reporter *progress.Reporter
	if cfg.ShowProgress && cfg.Output != "" {
		counter.SetTotal(info.Size)
		c.SetProgress(&counter)
		reporter = progress.NewReporter(&counter, progress.Options{})
		reporter.Start()
	}

	start := time.Now()
	var resp client.Response

	if cfg.Parallel > 1 && cfg.Output != "" && info.AcceptsRanges && info.Size > 0 {
		if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "* Parallel download: %d pipes, %s total\n",
				cfg.Parallel, progress.FormatBytes(info.Size))
		}
		body, err := downloader.Download(c, u, info.Size, downloader.Options{
			Parallel: cfg.Parallel,
			Timeout:  cfg.MaxTime,
			Headers:  req.Headers,
		})
		if err == nil {
			resp = client.Response{
				StatusCode:    206,
				Headers:       make(client.Header),
				Body:          body,
				BytesReceived: uint64(len(body)),
			}
			c.Stats().RecordRequest(time.Since(start), resp.BytesReceived)
			c.Stats().RecordConnection(false)
		} else {
			if cfg.Verbose {
				fmt.Fprintf(os.Stderr, "* Parallel download failed (%v), falling back\n", err)
			}
			counter.Reset()
			resp = c.Do(req)
		}
	} else {
		resp = c.Do(req)
	}

	elapsed := time.Since(start)

	if reporter != nil {
		reporter.Stop()
	}

	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "* Request completed in %d ms\n", elapsed.Milliseconds())
		fmt.Fprintf(os.Stderr, "* Status: %d %s\n", resp.StatusCode, resp.StatusMessage)
		fmt.Fprintf(os.Stderr, "* Received: %s\n", progress.FormatBytes(int64(resp.BytesReceived)))
		if resp.WasCompressed {
			fmt.Fprintf(os.Stderr, "* Decompressed to %s\n", progress.FormatBytes(int64(len(resp.Body))))
		}
		if resp.RedirectCount > 0 {
			fmt.Fprintf(os.Stderr, "* Redirects: %d\n", resp.RedirectCount)
		}
	}

	if resp.StatusCode == 0 {
		fmt.Fprintln(os.Stderr, "Error: Connection failed")
		if cfg.ShowStats {
			c.Stats().Render(os.Stdout)
		}
		return ExitFailure
	}

	if cfg.JSON {
		if err := writeJSON(os.Stdout, rawurl, resp); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitFailure
		}
		return ExitSuccess
	}

	if err := writeResponse(cfg, resp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitFailure
	}

	if cfg.Verbose && cfg.Output != "" {
		fmt.Fprintf(os.Stderr, "* Saved to %s (%s)\n", cfg.Output, progress.FormatBytes(int64(len(resp.Body))))
	}

	if cfg.ShowStats {
		c.Stats().Render(os.Stdout)
	}

	if resp.Success() {
		return ExitSuccess
	}
	return ExitFailure
}
