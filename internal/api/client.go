// Package api is the HTTP gateway to the library REST API. It transports
// calls and maps failures; authorization is left to the caller.
package api // import "github.com/Andres337939/libros-front/internal/api"

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/Andres337939/libros-front/internal/log"
	"github.com/Andres337939/libros-front/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "libros-front"
)

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a gateway for the API rooted at baseURL, e.g.
// http://localhost:3000/api.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends one request and decodes a 2xx body into out when out is not nil.
// No retries are attempted.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &model.Error{Kind: model.KindNetwork, Message: "failed to encode request", Err: err}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &model.Error{Kind: model.KindNetwork, Message: fmt.Sprintf("failed to build request: %v", err), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("API request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return &model.Error{Kind: model.KindNetwork, Message: fmt.Sprintf("network error: %v", err), Err: err}
	}
	defer resp.Body.Close()

	log.Debug("API request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	raw, err := readBody(resp)
	if err != nil {
		return &model.Error{Kind: model.KindNetwork, Status: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		if out != nil {
			return &model.Error{Kind: model.KindServer, Status: resp.StatusCode, Message: "empty response body"}
		}
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &model.Error{Kind: model.KindServer, Status: resp.StatusCode, Message: "malformed response body", Err: err}
	}
	return nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}

// errorFromResponse maps a non-2xx response. 401 and 403 are auth failures,
// everything else is a server failure.
func errorFromResponse(resp *http.Response, raw []byte) error {
	kind := model.KindServer
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		kind = model.KindAuth
	}

	var body struct {
		Message      string `json:"message"`
		ErrorMessage string `json:"error_message"`
	}
	_ = json.Unmarshal(raw, &body)

	msg := body.Message
	if msg == "" {
		msg = body.ErrorMessage
	}
	if msg == "" {
		msg = fmt.Sprintf("Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &model.Error{Kind: kind, Status: resp.StatusCode, Message: msg}
}
