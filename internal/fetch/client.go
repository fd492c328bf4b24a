package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DesktopUserAgent is sent on scraping requests that need to look like a
// regular browser.
const DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of any response body is read. Scraped pages
// larger than this are cut off rather than rejected.
const maxBodyBytes = 16 << 20

// NewHTTPClient returns a pooled HTTP client. Per-request deadlines come
// from the request context, so the client itself carries no timeout.
func NewHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport}
}

// Response is a fully-read HTTP response.
type Response struct {
	Status   int
	Header   http.Header
	Body     []byte
	FinalURL string // after redirects
}

// Text returns the body as a string.
func (r *Response) Text() string { return string(r.Body) }

// JSON decodes the body into v.
func (r *Response) JSON(v any) error { return json.Unmarshal(r.Body, v) }

// OK reports whether the status is 2xx.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Fetcher issues scraping requests. A failed fetch is recoverable "no data"
// for every caller, so errors are reported but never fatal.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

func New(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = NewHTTPClient()
	}
	return &Fetcher{client: client, logger: logger}
}

// Get issues a GET with the given headers, bounded by timeout.
func (f *Fetcher) Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error) {
	return f.do(ctx, http.MethodGet, url, headers, timeout)
}

// Head issues a HEAD, following redirects; Response.FinalURL carries the
// URL the redirect chain landed on.
func (f *Fetcher) Head(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error) {
	return f.do(ctx, http.MethodHead, url, headers, timeout)
}

// PostJSON POSTs v as a JSON body.
func (f *Fetcher) PostJSON(ctx context.Context, url string, v any, timeout time.Duration) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return f.roundTrip(req)
}

func (f *Fetcher) do(ctx context.Context, method, url string, headers map[string]string, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return f.roundTrip(req)
}

func (f *Fetcher) roundTrip(req *http.Request) (*Response, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("fetch failed", "method", req.Method, "url", req.URL.String(), "err", err)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		Status:   resp.StatusCode,
		Header:   resp.Header,
		Body:     body,
		FinalURL: resp.Request.URL.String(),
	}, nil
}
