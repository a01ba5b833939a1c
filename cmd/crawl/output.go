package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/itzender5820/crawl/internal/client"
	"github.com/itzender5820/crawl/internal/config"
)

// jsonResponse is the -J output shape.
type jsonResponse struct {
	URL           string            `json:"url"`
	Status        int               `json:"status"`
	StatusMessage string            `json:"status_message"`
	ElapsedMs     int64             `json:"elapsed_ms"`
	BytesReceived uint64            `json:"bytes_received"`
	Compressed    bool              `json:"compressed"`
	Headers       map[string]string `json:"headers"`
	BodyLength    int               `json:"body_length"`
}

// writeJSON emits the response metadata as indented JSON.
func writeJSON(w io.Writer, url string, resp client.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonResponse{
		URL:           url,
		Status:        resp.StatusCode,
		StatusMessage: resp.StatusMessage,
		ElapsedMs:     resp.ElapsedTime.Milliseconds(),
		BytesReceived: resp.BytesReceived,
		Compressed:    resp.WasCompressed,
		Headers:       resp.Headers,
		BodyLength:    len(resp.Body),
	})
}

// writeResponse writes the body (optionally preceded by the status line and
// headers) to the configured output file or stdout.
func writeResponse(cfg config.Config, resp client.Response) error {
	var out io.Writer = os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("open output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if cfg.IncludeHeaders {
		fmt.Fprintf(out, "HTTP/1.1 %d %s\n", resp.StatusCode, resp.StatusMessage)
		for k, v := range resp.Headers {
			fmt.Fprintf(out, "%s: %s\n", k, v)
		}
		fmt.Fprintln(out)
	}

	if _, err := out.Write(resp.Body); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
