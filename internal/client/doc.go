// Package client implements an HTTP/1.1 client over raw TCP with
// keep-alive pooling, dual-stack connection racing, optional DNS caching,
// rate limiting, and per-request timing statistics.
//
// This package handles:
//   - URL parsing and the request/response model
//   - HTTP/1.1 wire encoding and a streaming response reader
//     (Content-Length, chunked, and read-until-close framing)
//   - Transparent decompression (br, gzip, deflate)
//   - Connection reuse keyed by (host, port, tls)
//   - Retries with optional exponential backoff, and redirect following
//   - Bounded-parallel batch execution
//
// # Usage
//
//	c := client.New(client.Options{})
//	resp := c.Get("https://example.com/")
//	// resp.StatusCode, resp.Body, resp.ElapsedTime
//
//	req := client.NewRequest("POST", u)
//	req.Body = payload
//	req.MaxRetries = 2
//	resp = c.Do(req)
//
// A StatusCode of 0 signals a transport failure; the error kind is
// recorded in the client's statistics sink.
package client
