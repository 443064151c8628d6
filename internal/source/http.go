package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"wastedash/internal/core"
)

// maxBody caps the size of a downloaded dataset.
const maxBody = 64 << 20

// ErrDatasetTooLarge is returned when a download exceeds the size cap.
var ErrDatasetTooLarge = errors.New("dataset too large")

// HTTP loads the dataset from a static file served over HTTP, the way the
// browser dashboard fetched it from its own base path.
type HTTP struct {
	url     string
	client  *http.Client
	maxBody int64
}

// NewHTTP returns a loader fetching path relative to baseURL. A nil client
// gets a pooled client with conservative timeouts.
func NewHTTP(baseURL, path string, client *http.Client) *HTTP {
	if client == nil {
		client = newHTTPClient()
	}
	url := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	return &HTTP{url: url, client: client, maxBody: maxBody}
}

// URL returns the dataset URL.
func (h *HTTP) URL() string {
	return h.url
}

// Load downloads and decodes the dataset.
func (h *HTTP) Load(ctx context.Context) ([]core.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch dataset: unexpected status %s", resp.Status)
	}
	if resp.ContentLength > h.maxBody {
		return nil, fmt.Errorf("fetch dataset: %w: %d bytes, limit %d", ErrDatasetTooLarge, resp.ContentLength, h.maxBody)
	}
	body := &cappedReader{r: resp.Body, remaining: h.maxBody}
	records, err := Decode(FormatOf(req.URL.Path), body)
	if body.exceeded {
		return nil, fmt.Errorf("fetch dataset: %w: limit %d bytes", ErrDatasetTooLarge, h.maxBody)
	}
	return records, err
}

// cappedReader fails once more than remaining bytes are read, so an
// oversized body is reported instead of decoded as a truncated document.
type cappedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.exceeded {
		return 0, ErrDatasetTooLarge
	}
	// Read one byte past the cap to tell an exact fit from an overflow.
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	if int64(n) > c.remaining {
		c.exceeded = true
		return 0, ErrDatasetTooLarge
	}
	c.remaining -= int64(n)
	return n, err
}

func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}
