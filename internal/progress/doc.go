// Package progress tracks and displays download progress.
//
// A Counter is the bridge between the client and the terminal: the response
// reader calls Add as bytes arrive, and a Reporter goroutine redraws an
// ANSI progress bar from the counter at a fixed interval.
package progress
