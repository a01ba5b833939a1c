// Package downloader fetches a single resource as parallel byte-range
// segments.
//
// A HEAD probe first establishes the content length and range support.
// The body is then split into equal segments (the last one open-ended to
// absorb the remainder), fetched concurrently with Range headers, and
// reassembled in index order. Any segment that cannot produce a 206 after
// its retries fails the download; the caller is expected to fall back to a
// plain single-connection request.
package downloader
