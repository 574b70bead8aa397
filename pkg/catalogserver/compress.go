package catalogserver

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
)

const (
	encodingBrotli = "br"
	encodingGzip   = "gzip"

	// defaultCompressMinSize keeps small catalogs uncompressed.
	defaultCompressMinSize = 512
	brotliLevel            = 5
)

// compress negotiates brotli or gzip from Accept-Encoding and compresses
// bodies of at least minSize bytes. Brotli wins ties.
func compress(minSize int) func(http.Handler) http.Handler {
	if minSize <= 0 {
		minSize = defaultCompressMinSize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			appendVary(w.Header(), "Accept-Encoding")
			encoding := negotiateEncoding(r.Header.Get("Accept-Encoding"))
			if encoding == "" || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			cw := &compressWriter{base: w, encoding: encoding, minSize: minSize}
			defer cw.Close()
			next.ServeHTTP(cw, r)
		})
	}
}

func negotiateEncoding(acceptEncoding string) string {
	if acceptEncoding == "" {
		return ""
	}
	qAny, hasAny := encodingQuality(acceptEncoding, "*")
	qBr, hasBr := encodingQuality(acceptEncoding, encodingBrotli)
	if !hasBr && hasAny {
		qBr = qAny
	}
	qGzip, hasGzip := encodingQuality(acceptEncoding, encodingGzip)
	if !hasGzip && hasAny {
		qGzip = qAny
	}

	switch {
	case qBr > 0 && qBr >= qGzip:
		return encodingBrotli
	case qGzip > 0:
		return encodingGzip
	default:
		return ""
	}
}

func encodingQuality(acceptEncoding, encoding string) (float64, bool) {
	for _, part := range strings.Split(acceptEncoding, ",") {
		sections := strings.Split(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(sections[0]), encoding) {
			continue
		}
		q := 1.0
		for _, param := range sections[1:] {
			kv := strings.SplitN(strings.TrimSpace(param), "=", 2)
			if len(kv) != 2 || !strings.EqualFold(kv[0], "q") {
				continue
			}
			if parsed, err := strconv.ParseFloat(kv[1], 64); err == nil {
				q = parsed
			}
		}
		return q, true
	}
	return 0, false
}

// compressWriter buffers the body until minSize bytes arrive, then decides
// between the compressed and the plain stream.
type compressWriter struct {
	base     http.ResponseWriter
	encoding string
	minSize  int

	status  int
	decided bool
	out     io.Writer
	closer  io.Closer
	buffer  bytes.Buffer
}

func (w *compressWriter) Header() http.Header { return w.base.Header() }

func (w *compressWriter) WriteHeader(code int) {
	if w.status != 0 {
		return
	}
	w.status = code
	if code == http.StatusNoContent || code == http.StatusNotModified || code < 200 {
		w.decide(false)
	}
}

func (w *compressWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	if w.decided {
		return w.out.Write(p)
	}
	w.buffer.Write(p)
	if w.buffer.Len() < w.minSize {
		return len(p), nil
	}
	if err := w.flushBuffer(true); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *compressWriter) decide(compressible bool) {
	w.decided = true
	w.out = w.base
	if compressible && w.Header().Get("Content-Encoding") == "" {
		w.Header().Del("Content-Length")
		w.Header().Set("Content-Encoding", w.encoding)
		switch w.encoding {
		case encodingBrotli:
			bw := brotli.NewWriterLevel(w.base, brotliLevel)
			w.out, w.closer = bw, bw
		case encodingGzip:
			gw := gzip.NewWriter(w.base)
			w.out, w.closer = gw, gw
		}
	}
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.base.WriteHeader(w.status)
}

func (w *compressWriter) flushBuffer(compressible bool) error {
	w.decide(compressible)
	if w.buffer.Len() == 0 {
		return nil
	}
	_, err := w.out.Write(w.buffer.Bytes())
	w.buffer.Reset()
	return err
}

// Close flushes a body that never reached minSize and finishes the
// compressed stream.
func (w *compressWriter) Close() error {
	if !w.decided {
		if w.status == 0 && w.buffer.Len() == 0 {
			return nil
		}
		if err := w.flushBuffer(false); err != nil {
			return err
		}
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

func appendVary(header http.Header, value string) {
	current := header.Get("Vary")
	if current == "" {
		header.Set("Vary", value)
		return
	}
	for _, part := range strings.Split(current, ",") {
		if strings.EqualFold(strings.TrimSpace(part), value) {
			return
		}
	}
	header.Set("Vary", current+", "+value)
}
