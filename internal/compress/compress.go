// Package compress decodes HTTP response bodies by Content-Encoding.
package compress

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Encoding identifies a supported content coding.
type Encoding int

const (
	None Encoding = iota
	Gzip
	Deflate
	Brotli
)

// ErrUnsupported is returned for encodings this package cannot decode.
var ErrUnsupported = errors.New("compress: unsupported encoding")

// Detect maps a Content-Encoding header value to an Encoding. Matching is
// by substring, so "gzip, br" detects as Brotli (br is checked first, as
// the highest-ratio coding we advertise).
func Detect(contentEncoding string) Encoding {
	v := strings.ToLower(contentEncoding)
	switch {
	case strings.Contains(v, "br"):
		return Brotli
	case strings.Contains(v, "gzip"):
		return Gzip
	case strings.Contains(v, "deflate"):
		return Deflate
	}
	return None
}

// AcceptEncoding returns the Accept-Encoding value advertising every coding
// Decode can handle.
func AcceptEncoding() string {
	return "br, gzip, deflate"
}

// Decode decompresses data according to enc. None returns data unchanged.
func Decode(data []byte, enc Encoding) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	switch enc {
	case None:
		return data, nil
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case Deflate:
		// Servers disagree on whether "deflate" means a raw stream or a
		// zlib-wrapped one; try zlib first, then raw.
		if r, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
			defer r.Close()
			if out, err := io.ReadAll(r); err == nil {
				return out, nil
			}
		}
		r := flate.NewReader(bytes.NewReader(data))
		defer r.Close()
		return io.ReadAll(r)
	case Brotli:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	}
	return nil, ErrUnsupported
}
