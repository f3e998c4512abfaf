package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/JinFuuMugen/coinshop/internal/logger"
)

type gzipResponseWriter struct {
	http.ResponseWriter
	io.Writer
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w gzipResponseWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(statusCode)
}

type gzipBody struct {
	*gzip.Reader
	orig io.ReadCloser
}

func (b gzipBody) Close() error {
	if err := b.Reader.Close(); err != nil {
		return err
	}
	return b.orig.Close()
}

// GzipMiddleware inflates gzip request bodies and compresses responses for
// clients that accept it.
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			reader, err := gzip.NewReader(r.Body)
			if err != nil {
				logger.Errorf("cannot create gzip reader: %v", err)
				http.Error(w, "invalid gzip body", http.StatusBadRequest)
				return
			}
			r.Body = gzipBody{Reader: reader, orig: r.Body}
			r.Header.Del("Content-Encoding")
			r.ContentLength = -1
		}

		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")

		gzipWriter := gzip.NewWriter(w)
		defer func() {
			if err := gzipWriter.Close(); err != nil {
				logger.Errorf("cannot flush gzip response: %v", err)
			}
		}()

		next.ServeHTTP(gzipResponseWriter{ResponseWriter: w, Writer: gzipWriter}, r)
	})
}
