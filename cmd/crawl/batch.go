package main

import (
	"fmt"
	"os"
	"time"

	"github.com/itzender5820/crawl/internal/client"
	"github.com/itzender5820/crawl/internal/config"
)

// runBatch executes every request in the batch file with bounded
// parallelism. Exit code is success only when every response succeeded.
func runBatch(c *client.Client, cfg config.Config) int {
	entries, err := config.LoadBatchFile(cfg.BatchFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitFailure
	}

	var requests []client.Request
	for _, e := range entries {
		u, err := client.ParseURL(e.URL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Invalid URL: %s\n", e.URL)
			continue
		}

		method := e.Method
		if method == "" {
			method = cfg.Method
		}
		req := client.NewRequest(method, u)
		for k, v := range cfg.Headers {
			req.Headers.Set(k, v)
		}
		for k, v := range e.Headers {
			req.Headers.Set(k, v)
		}
		if e.Body != "" {
			req.Body = []byte(e.Body)
		}
		req.FollowRedirects = cfg.FollowRedirects
		req.Timeout = cfg.MaxTime
		req.MaxRetries = cfg.Retry.Count
		req.RetryDelay = cfg.Retry.Delay
		req.ExponentialBackoff = cfg.Retry.ExponentialBackoff
		req.EnableCompression = !cfg.NoCompress

		requests = append(requests, req)
	}

	if len(requests) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No valid URLs in batch file")
		return ExitFailure
	}

	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "* Processing %d URLs with %d parallel connections...\n",
			len(requests), cfg.Parallel)
	}

	start := time.Now()
	responses := c.Batch(requests, cfg.Parallel)
	elapsed := time.Since(start)

	success := 0
	for i, resp := range responses {
		if resp.Success() {
			success++
		} else if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "* Failed: %s (status %d)\n", requests[i].URL.String(), resp.StatusCode)
		}
	}

	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "* Completed in %d ms\n", elapsed.Milliseconds())
		fmt.Fprintf(os.Stderr, "* Success: %d/%d\n", success, len(responses))
	}

	if cfg.ShowStats {
		c.Stats().Render(os.Stdout)
	}

	if success == len(responses) {
		return ExitSuccess
	}
	return ExitFailure
}
