package middleware

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

type BrotliConfig struct {
	Quality   int
	MinLength int
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

// brotliWriter holds the whole body until the handler returns, then
// compresses it only if it reached MinLength.
type brotliWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	return bw.buf.Write(data)
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.buf.WriteString(s)
}

func (bw *brotliWriter) finish(cfg BrotliConfig) error {
	if bw.buf.Len() == 0 {
		bw.ResponseWriter.WriteHeaderNow()
		return nil
	}
	if bw.buf.Len() < cfg.MinLength {
		_, err := bw.ResponseWriter.Write(bw.buf.Bytes())
		return err
	}

	h := bw.ResponseWriter.Header()
	h.Set("Content-Encoding", "br")
	h.Del("Content-Length")

	w := brotli.NewWriterLevel(bw.ResponseWriter, cfg.Quality)
	if _, err := w.Write(bw.buf.Bytes()); err != nil {
		return err
	}
	return w.Close()
}

func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < brotli.BestSpeed || cfg.Quality > brotli.BestCompression {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodHead || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		bw := &brotliWriter{ResponseWriter: c.Writer}
		c.Writer = bw
		defer func() {
			c.Writer = bw.ResponseWriter
			if err := bw.finish(cfg); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Next()
	}
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		// Drop any quality parameter, e.g. "br;q=0.8".
		name, _, _ := strings.Cut(enc, ";")
		if strings.EqualFold(strings.TrimSpace(name), "br") {
			return true
		}
	}
	return false
}
