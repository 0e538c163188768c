package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig tunes response compression.
type BrotliConfig struct {
	Quality int
	// MinLength is the number of buffered bytes below which a response is
	// sent uncompressed.
	MinLength int
	// ExcludedPrefixes lists path prefixes that are never compressed.
	ExcludedPrefixes []string
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:          brotli.DefaultCompression,
	MinLength:        1024,
	ExcludedPrefixes: []string{"/ws/"},
}

type brotliWriter struct {
	gin.ResponseWriter
	writer     *brotli.Writer
	buf        []byte
	minLength  int
	once       sync.Once
	compressed bool
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	bw.buf = append(bw.buf, data...)

	if len(bw.buf) >= bw.minLength {
		bw.once.Do(func() {
			bw.compressed = true
			bw.ResponseWriter.Header().Set("Content-Encoding", "br")
			bw.ResponseWriter.Header().Del("Content-Length")
		})
		if _, err := bw.writer.Write(bw.buf); err != nil {
			return 0, err
		}
		bw.buf = bw.buf[:0]
	}

	return len(data), nil
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.Write([]byte(s))
}

// Flush forwards buffered bytes, compressed or not depending on whether
// compression already started, and flushes the underlying writer.
func (bw *brotliWriter) Flush() {
	_ = bw.flush()
	if bw.compressed {
		_ = bw.writer.Flush()
	}
	bw.ResponseWriter.Flush()
}

// flush drains the buffer. Once compression started the remainder must go
// through the brotli stream, otherwise plain bytes are written.
func (bw *brotliWriter) flush() error {
	if len(bw.buf) == 0 {
		return nil
	}
	var err error
	if bw.compressed {
		_, err = bw.writer.Write(bw.buf)
	} else {
		_, err = bw.ResponseWriter.Write(bw.buf)
	}
	bw.buf = bw.buf[:0]
	return err
}

func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < 0 || cfg.Quality > 11 {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if shouldSkip(c) || excluded(c.Request.URL.Path, cfg.ExcludedPrefixes) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		bw := &brotliWriter{
			ResponseWriter: c.Writer,
			minLength:      cfg.MinLength,
			writer:         brotli.NewWriterLevel(c.Writer, cfg.Quality),
		}

		defer func() {
			if err := bw.flush(); err != nil {
				_ = c.Error(err)
			}
			if bw.compressed {
				bw.writer.Close()
			}
		}()

		c.Writer = bw
		c.Next()
	}
}

// shouldSkip returns true for protocols that are incompatible with
// buffered compression and must be passed through untouched.
func shouldSkip(c *gin.Context) bool {
	// SSE requires immediate streaming.
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	// The Upgrade handshake fails on a wrapped writer.
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return true
	}
	return false
}

func excluded(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func acceptsBrotli(r *http.Request) bool {
	ae := r.Header.Get("Accept-Encoding")
	for _, enc := range strings.Split(ae, ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
