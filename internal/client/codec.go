package client

import (
	"bytes"
	"errors"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/itzender5820/crawl/internal/compress"
)

// readBufSize is the per-read unit. Large enough that big downloads are not
// dominated by syscall overhead.
const readBufSize = 128 * 1024

// errResponseTooLarge aborts reads that exceed the configured cap.
var errResponseTooLarge = errors.New("client: response exceeds maximum size")

// buildRequest assembles the HTTP/1.1 wire form of req. User headers are
// written verbatim (sorted for determinism); missing defaults are appended.
func buildRequest(req Request, userAgent string, compression bool) []byte {
	var b bytes.Buffer
	b.Grow(512)

	b.WriteString(req.Method)
	b.WriteByte(' ')
	b.WriteString(req.URL.Path)
	if req.URL.Query != "" {
		b.WriteByte('?')
		b.WriteString(req.URL.Query)
	}
	b.WriteString(" HTTP/1.1\r\n")

	b.WriteString("Host: ")
	b.WriteString(req.URL.Host)
	if !req.URL.defaultPort() {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(req.URL.Port))
	}
	b.WriteString("\r\n")

	keys := make([]string, 0, len(req.Headers))
	for k := range req.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(req.Headers[k])
		b.WriteString("\r\n")
	}

	if !req.Headers.Has("User-Agent") {
		b.WriteString("User-Agent: ")
		b.WriteString(userAgent)
		b.WriteString("\r\n")
	}
	if !req.Headers.Has("Connection") {
		b.WriteString("Connection: keep-alive\r\n")
	}
	if !req.Headers.Has("Accept") {
		b.WriteString("Accept: */*\r\n")
	}
	if !req.Headers.Has("Accept-Encoding") && req.EnableCompression && compression {
		b.WriteString("Accept-Encoding: ")
		b.WriteString(compress.AcceptEncoding())
		b.WriteString("\r\n")
	}
	if len(req.Body) > 0 && !req.Headers.Has("Content-Length") {
		b.WriteString("Content-Length: ")
		b.WriteString(strconv.Itoa(len(req.Body)))
		b.WriteString("\r\n")
	}

	b.WriteString("\r\n")
	return b.Bytes()
}

// readCause says why a read loop stopped short of a complete message.
type readCause int

const (
	readDone readCause = iota
	readTimedOut
	readFailed
)

// readResponse streams the response off conn into a growing buffer.
//
// The timeout is an inactivity deadline: any byte received pushes it out by
// the full timeout again, so a slow transfer can run arbitrarily long while
// a stalled one is cut off. The loop stops as soon as the framing says the
// message is complete: after headers for HEAD, on the 0\r\n\r\n terminator
// for chunked bodies (trailer sections are not supported), at
// headers+Content-Length otherwise, or on peer close when no length was
// given.
func (c *Client) readResponse(conn net.Conn, timeout time.Duration, method string, start time.Time) ([]byte, readCause, error) {
	buf := make([]byte, 0, 64*1024)
	readBuf := make([]byte, readBufSize)

	headersComplete := false
	headersEnd := 0
	contentLength := -1
	chunked := false
	firstByte := false

	for {
		conn.SetReadDeadline(time.Now().Add(timeout))
		n, err := conn.Read(readBuf)

		if n > 0 {
			if !firstByte {
				firstByte = true
				c.stats.RecordFirstByte(time.Since(start))
			}
			buf = append(buf, readBuf[:n]...)
			if c.progress != nil {
				c.progress.Add(int64(n))
			}
			if c.maxResponseSize > 0 && int64(len(buf)) > c.maxResponseSize {
				return buf, readFailed, errResponseTooLarge
			}
		}

		if !headersComplete {
			if i := bytes.Index(buf, []byte("\r\n\r\n")); i >= 0 {
				headersComplete = true
				headersEnd = i + 4
				contentLength, chunked = scanFraming(buf[:headersEnd])
			}
		}

		if headersComplete {
			switch {
			case method == "HEAD":
				return buf, readDone, nil
			case chunked:
				if bytes.Contains(buf[headersEnd:], []byte("0\r\n\r\n")) {
					return buf, readDone, nil
				}
			case contentLength > 0:
				if len(buf) >= headersEnd+contentLength {
					return buf, readDone, nil
				}
			case contentLength == 0:
				return buf, readDone, nil
			}
		}

		if err != nil {
			if err == io.EOF {
				return buf, readDone, nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return buf, readTimedOut, nil
			}
			return buf, readFailed, err
		}
	}
}

// scanFraming extracts Content-Length and Transfer-Encoding: chunked from a
// raw header block. Returns -1 when no length header is present.
func scanFraming(headers []byte) (contentLength int, chunked bool) {
	contentLength = -1
	for _, line := range bytes.Split(headers, []byte("\r\n"))[1:] {
		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		key := strings.ToLower(string(bytes.TrimSpace(line[:colon])))
		value := string(bytes.TrimSpace(line[colon+1:]))
		switch key {
		case "content-length":
			n := 0
			ok := false
			for _, ch := range value {
				if ch < '0' || ch > '9' {
					break
				}
				n = n*10 + int(ch-'0')
				ok = true
			}
			if ok {
				contentLength = n
			}
		case "transfer-encoding":
			if strings.Contains(strings.ToLower(value), "chunked") {
				chunked = true
			}
		}
	}
	return contentLength, chunked
}

// parseResponse turns a raw response buffer into a Response. Decompression
// is best-effort: a decode failure keeps the wire body and reports the
// failure so the caller can count it.
func parseResponse(data []byte, decompress bool) (resp Response, decodeFailed bool) {
	resp.Headers = make(Header)

	headersEnd := bytes.Index(data, []byte("\r\n\r\n"))
	if len(data) == 0 || headersEnd < 0 {
		return resp, false
	}
	headersEnd += 4

	lines := bytes.Split(data[:headersEnd-4], []byte("\r\n"))

	// Status line: HTTP/x.y CODE MESSAGE
	parts := strings.SplitN(string(lines[0]), " ", 3)
	if len(parts) >= 2 {
		code, err := strconv.Atoi(parts[1])
		if err != nil {
			return Response{Headers: resp.Headers}, false
		}
		resp.StatusCode = code
	}
	if len(parts) == 3 {
		resp.StatusMessage = parts[2]
	}

	for _, line := range lines[1:] {
		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		key := string(bytes.TrimSpace(line[:colon]))
		value := string(bytes.TrimSpace(line[colon+1:]))
		resp.Headers[key] = value
	}

	if headersEnd < len(data) {
		if strings.Contains(strings.ToLower(resp.Headers.Get("Transfer-Encoding")), "chunked") {
			resp.Body = dechunk(data[headersEnd:])
		} else {
			resp.Body = append([]byte(nil), data[headersEnd:]...)
		}
	}

	resp.BytesReceived = uint64(len(resp.Body))

	if decompress && len(resp.Body) > 0 {
		if enc := compress.Detect(resp.Headers.Get("Content-Encoding")); enc != compress.None {
			decoded, err := compress.Decode(resp.Body, enc)
			if err != nil {
				return resp, true
			}
			resp.Body = decoded
			resp.WasCompressed = true
		}
	}

	return resp, false
}

// dechunk decodes a chunked transfer-encoded body: hex size line, payload,
// CRLF, until a zero-size chunk. Trailer headers are not decoded.
func dechunk(data []byte) []byte {
	var body []byte
	pos := 0
	for pos < len(data) {
		lineEnd := bytes.Index(data[pos:], []byte("\r\n"))
		if lineEnd < 0 {
			break
		}
		sizeStr := string(data[pos : pos+lineEnd])
		if i := strings.IndexByte(sizeStr, ';'); i >= 0 {
			sizeStr = sizeStr[:i]
		}
		size, err := strconv.ParseUint(strings.TrimSpace(sizeStr), 16, 32)
		if err != nil || size == 0 {
			break
		}
		pos += lineEnd + 2
		if pos+int(size) <= len(data) {
			body = append(body, data[pos:pos+int(size)]...)
		}
		pos += int(size) + 2
	}
	return body
}
