package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/itzender5820/crawl/internal/client"
	"github.com/itzender5820/crawl/internal/config"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitInvalidArgs = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// headerList collects repeatable -H "Key: Value" flags.
type headerList map[string]string

func (h headerList) String() string { return "" }

func (h headerList) Set(value string) error {
	colon := strings.IndexByte(value, ':')
	if colon < 0 {
		return fmt.Errorf("header must be Key: Value, got %q", value)
	}
	key := strings.TrimSpace(value[:colon])
	h[key] = strings.TrimSpace(value[colon+1:])
	return nil
}

// stringList collects repeatable string flags.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func run(args []string) int {
	cfg := config.Default()
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	fs := flag.NewFlagSet("crawl", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	headers := headerList(cfg.Headers)
	var warmup stringList
	maxTime := fs.Int("m", int(cfg.MaxTime/time.Second), "Read inactivity timeout in seconds")
	fs.IntVar(maxTime, "max-time", *maxTime, "Read inactivity timeout in seconds")

	fs.StringVar(&cfg.Method, "X", cfg.Method, "HTTP method (GET, POST, etc.)")
	fs.StringVar(&cfg.Method, "request", cfg.Method, "HTTP method (GET, POST, etc.)")
	fs.Var(headers, "H", "Add custom header (repeatable)")
	fs.Var(headers, "header", "Add custom header (repeatable)")
	fs.StringVar(&cfg.Data, "d", cfg.Data, "HTTP POST data")
	fs.StringVar(&cfg.Data, "data", cfg.Data, "HTTP POST data")
	fs.StringVar(&cfg.Output, "o", cfg.Output, "Write output to file")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "Write output to file")
	fs.BoolVar(&cfg.IncludeHeaders, "i", cfg.IncludeHeaders, "Include headers in output")
	fs.BoolVar(&cfg.IncludeHeaders, "include", cfg.IncludeHeaders, "Include headers in output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose output with timing")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output with timing")
	fs.BoolVar(&cfg.FollowRedirects, "L", cfg.FollowRedirects, "Follow redirects")
	fs.BoolVar(&cfg.FollowRedirects, "location", cfg.FollowRedirects, "Follow redirects")
	fs.StringVar(&cfg.UserAgent, "A", cfg.UserAgent, "Custom User-Agent string")
	fs.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "Custom User-Agent string")
	fs.IntVar(&cfg.Retry.Count, "r", cfg.Retry.Count, "Retry failed requests N times")
	fs.IntVar(&cfg.Retry.Count, "retry", cfg.Retry.Count, "Retry failed requests N times")
	fs.Float64Var(&cfg.RateLimit, "R", cfg.RateLimit, "Rate limit (requests per second)")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Rate limit (requests per second)")
	fs.BoolVar(&cfg.ShowProgress, "p", cfg.ShowProgress, "Show progress bar for downloads")
	fs.BoolVar(&cfg.ShowProgress, "progress", cfg.ShowProgress, "Show progress bar for downloads")
	fs.BoolVar(&cfg.NoCompress, "C", cfg.NoCompress, "Disable compression")
	fs.BoolVar(&cfg.NoCompress, "no-compress", cfg.NoCompress, "Disable compression")
	fs.BoolVar(&cfg.DNSCache, "D", cfg.DNSCache, "Enable DNS caching")
	fs.BoolVar(&cfg.DNSCache, "dns-cache", cfg.DNSCache, "Enable DNS caching")
	fs.BoolVar(&cfg.ShowStats, "S", cfg.ShowStats, "Show detailed statistics")
	fs.BoolVar(&cfg.ShowStats, "stats", cfg.ShowStats, "Show detailed statistics")
	fs.StringVar(&cfg.BatchFile, "B", cfg.BatchFile, "Batch mode: read URLs from file")
	fs.StringVar(&cfg.BatchFile, "batch", cfg.BatchFile, "Batch mode: read URLs from file")
	fs.IntVar(&cfg.Parallel, "P", cfg.Parallel, "Parallel requests")
	fs.IntVar(&cfg.Parallel, "parallel", cfg.Parallel, "Parallel requests")
	fs.BoolVar(&cfg.JSON, "J", cfg.JSON, "Output response as JSON")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "Output response as JSON")
	fs.Var(&warmup, "warmup", "Pre-warm DNS cache for host (repeatable)")
	fs.IntVar(&cfg.MaxConns, "max-conn", cfg.MaxConns, "Max concurrent connections")
	fs.BoolVar(&cfg.VerifyTLS, "verify-tls", cfg.VerifyTLS, "Fail on untrusted TLS certificates")

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	cfg.MaxTime = time.Duration(*maxTime) * time.Second
	cfg.WarmupHosts = warmup

	// POST data turns a GET (default or explicit) into POST; any other
	// method is kept.
	if cfg.Data != "" && cfg.Method == "GET" {
		cfg.Method = "POST"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	c := client.New(client.Options{
		UserAgent:          cfg.UserAgent,
		Timeout:            cfg.MaxTime,
		MaxConnections:     cfg.MaxConns,
		DisableCompression: cfg.NoCompress,
		VerifyTLS:          cfg.VerifyTLS,
		MaxResponseSize:    cfg.MaxResponseSize,
	})
	defer c.Close()

	if cfg.RateLimit > 0 {
		c.SetRateLimit(cfg.RateLimit, int(cfg.RateLimit*2))
	}
	if cfg.DNSCache {
		c.EnableDNSCache(cfg.DNSCacheTTL)
	}
	for _, host := range cfg.WarmupHosts {
		if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "* Warming up DNS for %s...\n", host)
		}
		c.WarmupDNS([]string{host})
	}

	if cfg.BatchFile != "" {
		return runBatch(c, cfg)
	}

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: URL required")
		printUsage(fs)
		return ExitInvalidArgs
	}

	return runSingle(c, cfg, fs.Arg(0))
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, `Usage: crawl [options] <URL>

A fast HTTP/1.1 client with connection reuse, dual-stack connects,
parallel downloads, and per-request timing.

Options:`)
	fs.PrintDefaults()
	fmt.Fprintln(os.Stderr, `
Examples:
  crawl https://example.com
  crawl -v -L https://google.com
  crawl -X POST -d "data" https://api.example.com
  crawl -B urls.txt -P 20 -S
  crawl -p -o file.zip https://example.com/large.zip`)
}
