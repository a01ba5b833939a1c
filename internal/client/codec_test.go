package client

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func mustParse(t *testing.T, raw string) URL {
	t.Helper()
	u, err := ParseURL(raw)
	if err != nil {
		t.Fatalf("ParseURL(%q): %v", raw, err)
	}
	return u
}

func TestBuildRequestDefaults(t *testing.T) {
	req := NewRequest("GET", mustParse(t, "http://example.com/path?q=1"))

	wire := string(buildRequest(req, "Crawl/1.0", true))

	if !strings.HasPrefix(wire, "GET /path?q=1 HTTP/1.1\r\n") {
		t.Errorf("bad request line: %q", wire)
	}
	for _, want := range []string{
		"Host: example.com\r\n",
		"User-Agent: Crawl/1.0\r\n",
		"Connection: keep-alive\r\n",
		"Accept: */*\r\n",
		"Accept-Encoding: br, gzip, deflate\r\n",
	} {
		if !strings.Contains(wire, want) {
			t.Errorf("missing %q in request:\n%s", want, wire)
		}
	}
	if !strings.HasSuffix(wire, "\r\n\r\n") {
		t.Error("request not terminated with blank line")
	}
}

func TestBuildRequestHostPort(t *testing.T) {
	req := NewRequest("GET", mustParse(t, "http://example.com:8080/"))
	wire := string(buildRequest(req, "ua", false))
	if !strings.Contains(wire, "Host: example.com:8080\r\n") {
		t.Errorf("non-default port missing from Host: %q", wire)
	}

	req = NewRequest("GET", mustParse(t, "https://example.com:443/"))
	wire = string(buildRequest(req, "ua", false))
	if !strings.Contains(wire, "Host: example.com\r\n") {
		t.Errorf("default port should be elided from Host: %q", wire)
	}
}

func TestBuildRequestUserHeadersWinOverDefaults(t *testing.T) {
	req := NewRequest("GET", mustParse(t, "http://example.com/"))
	req.Headers.Set("user-agent", "custom")
	req.Headers.Set("Accept", "text/html")

	wire := string(buildRequest(req, "Crawl/1.0", true))

	if strings.Contains(wire, "Crawl/1.0") {
		t.Error("default User-Agent emitted despite user header")
	}
	if !strings.Contains(wire, "user-agent: custom\r\n") {
		t.Error("user header not emitted verbatim")
	}
	if strings.Contains(wire, "Accept: */*") {
		t.Error("default Accept emitted despite user header")
	}
}

func TestBuildRequestContentLength(t *testing.T) {
	req := NewRequest("POST", mustParse(t, "http://example.com/"))
	req.Body = []byte("hello")

	wire := string(buildRequest(req, "ua", false))
	if !strings.Contains(wire, "Content-Length: 5\r\n") {
		t.Errorf("missing Content-Length: %q", wire)
	}

	req.Headers.Set("Content-Length", "5")
	wire = string(buildRequest(req, "ua", false))
	if strings.Count(wire, "Content-Length") != 1 {
		t.Errorf("duplicated Content-Length: %q", wire)
	}
}

func TestBuildRequestNoAcceptEncodingWhenDisabled(t *testing.T) {
	req := NewRequest("GET", mustParse(t, "http://example.com/"))
	req.EnableCompression = false
	wire := string(buildRequest(req, "ua", true))
	if strings.Contains(wire, "Accept-Encoding") {
		t.Errorf("Accept-Encoding emitted with compression disabled: %q", wire)
	}
}

func TestScanFraming(t *testing.T) {
	headers := []byte("HTTP/1.1 200 OK\r\nContent-Length: 42\r\nServer: x\r\n\r\n")
	cl, chunked := scanFraming(headers)
	if cl != 42 || chunked {
		t.Errorf("got (%d, %v), want (42, false)", cl, chunked)
	}

	headers = []byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n")
	cl, chunked = scanFraming(headers)
	if cl != -1 || !chunked {
		t.Errorf("got (%d, %v), want (-1, true)", cl, chunked)
	}
}

func TestParseResponseContentLength(t *testing.T) {
	data := []byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\nServer: test\r\n\r\nhello")

	resp, failed := parseResponse(data, false)
	if failed {
		t.Fatal("unexpected decode failure")
	}
	if resp.StatusCode != 200 || resp.StatusMessage != "OK" {
		t.Errorf("status = %d %q", resp.StatusCode, resp.StatusMessage)
	}
	if string(resp.Body) != "hello" {
		t.Errorf("body = %q", resp.Body)
	}
	if resp.BytesReceived != 5 {
		t.Errorf("bytes received = %d, want 5", resp.BytesReceived)
	}
	if resp.Headers.Get("server") != "test" {
		t.Errorf("headers = %v", resp.Headers)
	}
}

func TestParseResponseChunked(t *testing.T) {
	data := []byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"2\r\nab\r\n1\r\nc\r\n0\r\n\r\n")

	resp, _ := parseResponse(data, false)
	if string(resp.Body) != "abc" {
		t.Errorf("body = %q, want abc", resp.Body)
	}
	if resp.BytesReceived != 3 {
		t.Errorf("bytes received = %d, want 3", resp.BytesReceived)
	}
}

func TestParseResponseChunkedEqualsPlain(t *testing.T) {
	payload := "the quick brown fox"
	plain := []byte("HTTP/1.1 200 OK\r\nContent-Length: 19\r\n\r\n" + payload)
	chunked := []byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"a\r\nthe quick \r\n9\r\nbrown fox\r\n0\r\n\r\n")

	p, _ := parseResponse(plain, false)
	c, _ := parseResponse(chunked, false)
	if !bytes.Equal(p.Body, c.Body) {
		t.Errorf("chunked body %q != plain body %q", c.Body, p.Body)
	}
}

func TestParseResponseZeroLength(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("HTTP/1.1 204 No Content\r\nContent-Length: 0\r\n\r\n"),
		[]byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n0\r\n\r\n"),
	} {
		resp, _ := parseResponse(data, false)
		if len(resp.Body) != 0 {
			t.Errorf("body = %q, want empty", resp.Body)
		}
	}
}

func TestParseResponseGzip(t *testing.T) {
	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	zw.Write([]byte("hello gzip"))
	zw.Close()

	var data bytes.Buffer
	data.WriteString("HTTP/1.1 200 OK\r\nContent-Encoding: gzip\r\n\r\n")
	data.Write(compressed.Bytes())

	resp, failed := parseResponse(data.Bytes(), true)
	if failed {
		t.Fatal("unexpected decode failure")
	}
	if !resp.WasCompressed {
		t.Error("WasCompressed = false")
	}
	if string(resp.Body) != "hello gzip" {
		t.Errorf("body = %q", resp.Body)
	}
	if resp.BytesReceived != uint64(compressed.Len()) {
		t.Errorf("bytes received = %d, want wire size %d", resp.BytesReceived, compressed.Len())
	}
}

func TestParseResponseBadCompressionKeepsBody(t *testing.T) {
	data := []byte("HTTP/1.1 200 OK\r\nContent-Encoding: gzip\r\n\r\nnot gzip at all")

	resp, failed := parseResponse(data, true)
	if !failed {
		t.Error("expected decode failure to be reported")
	}
	if resp.WasCompressed {
		t.Error("WasCompressed should be false after failed decode")
	}
	if string(resp.Body) != "not gzip at all" {
		t.Errorf("raw body not preserved: %q", resp.Body)
	}
}

func TestParseResponseGarbage(t *testing.T) {
	resp, _ := parseResponse([]byte("garbage with no header terminator"), false)
	if resp.StatusCode != 0 {
		t.Errorf("status = %d, want 0", resp.StatusCode)
	}

	resp, _ = parseResponse(nil, false)
	if resp.StatusCode != 0 {
		t.Errorf("status = %d, want 0 for empty input", resp.StatusCode)
	}
}

func TestDechunkIgnoresExtensions(t *testing.T) {
	body := dechunk([]byte("5;ext=1\r\nhello\r\n0\r\n\r\n"))
	if string(body) != "hello" {
		t.Errorf("body = %q", body)
	}
}
