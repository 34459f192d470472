package response // import "github.com/Andres337939/libros-front/internal/http/response"

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap"

	"github.com/Andres337939/libros-front/internal/log"
)

const compressionThreshold = 1024

// Builder generates HTTP responses.
type Builder struct {
	w                 http.ResponseWriter
	r                 *http.Request
	statusCode        int
	headers           map[string]string
	enableCompression bool
	body              []byte
}

// New creates a new response builder.
func New(w http.ResponseWriter, r *http.Request) *Builder {
	return &Builder{w: w, r: r, statusCode: http.StatusOK, headers: make(map[string]string), enableCompression: true}
}

// WithStatus uses the given status code to build the response.
func (b *Builder) WithStatus(statusCode int) *Builder {
	b.statusCode = statusCode
	return b
}

// WithHeader adds the given HTTP header to the response.
func (b *Builder) WithHeader(key, value string) *Builder {
	b.headers[key] = value
	return b
}

// WithBody uses the given body to build the response.
func (b *Builder) WithBody(body []byte) *Builder {
	b.body = body
	return b
}

// WithoutCompression disables HTTP compression.
func (b *Builder) WithoutCompression() *Builder {
	b.enableCompression = false
	return b
}

// Write generates the HTTP response.
func (b *Builder) Write() {
	b.w.Header().Set("X-Content-Type-Options", "nosniff")
	b.w.Header().Set("X-Frame-Options", "DENY")
	for key, value := range b.headers {
		b.w.Header().Set(key, value)
	}

	if b.body == nil {
		b.w.WriteHeader(b.statusCode)
		return
	}
	b.writeBody()
}

func (b *Builder) writeBody() {
	if !b.enableCompression || len(b.body) <= compressionThreshold {
		b.w.WriteHeader(b.statusCode)
		b.write(b.w)
		return
	}

	acceptEncoding := b.r.Header.Get("Accept-Encoding")
	switch {
	case strings.Contains(acceptEncoding, "br"):
		b.w.Header().Set("Content-Encoding", "br")
		b.w.Header().Set("Vary", "Accept-Encoding")
		b.w.WriteHeader(b.statusCode)

		brotliWriter := brotli.NewWriterLevel(b.w, brotli.BestSpeed)
		defer brotliWriter.Close()
		b.write(brotliWriter)
	case strings.Contains(acceptEncoding, "gzip"):
		b.w.Header().Set("Content-Encoding", "gzip")
		b.w.Header().Set("Vary", "Accept-Encoding")
		b.w.WriteHeader(b.statusCode)

		gzipWriter := gzip.NewWriter(b.w)
		defer gzipWriter.Close()
		b.write(gzipWriter)
	default:
		b.w.WriteHeader(b.statusCode)
		b.write(b.w)
	}
}

func (b *Builder) write(w io.Writer) {
	if _, err := w.Write(b.body); err != nil {
		log.Debug("Unable to write response body", zap.Error(err))
	}
}
