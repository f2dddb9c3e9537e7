package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "modpkg"

// Client wraps HTTP operations for the metadata API and artifact downloads.
//
// Client provides:
//   - A configured User-Agent header
//   - Per-request timeouts for metadata calls
//   - Streamed GETs for artifact downloads
//
// The timeout bounds metadata requests end to end. Streamed downloads are
// only bounded until the response headers arrive so a large artifact is
// never cut off mid-body.
//
// Example usage:
//
//	client := NewClient(30 * time.Second)
//
//	// Fetch JSON
//	var files []dto.JSONModFile
//	err := client.GetJSON(ctx, "https://api.example.com/addon/1/files", &files)
//
//	// Stream a file
//	resp, err := client.Open(ctx, downloadURL)
//	defer resp.Body.Close()
type Client struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	log        logrus.FieldLogger
}

// NewClient creates a new HTTP client. A zero timeout disables it.
func NewClient(timeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	return &Client{
		httpClient: &http.Client{Transport: transport},
		userAgent:  DefaultUserAgent,
		timeout:    timeout,
		log:        logrus.StandardLogger(),
	}
}

// WithLogger sets the logger used for request diagnostics.
func (c *Client) WithLogger(log logrus.FieldLogger) *Client {
	c.log = log
	return c
}

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Status)
}

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsRetryable reports whether a request failing with err may succeed when
// repeated: network failures, 429 and 5xx answers. Context cancellation is
// never retryable.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}

// Response is an open, streamed response body.
type Response struct {
	// Body must be closed by the caller.
	Body io.ReadCloser

	// ContentLength is the transport reported size, or -1 when unknown.
	ContentLength int64
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns an error if:
//   - The request fails
//   - The response status is not 200 OK
//   - Reading the body fails
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// GetJSON performs a GET request and decodes the JSON body into v.
//
// Example:
//
//	var files []dto.JSONModFile
//	err := client.GetJSON(ctx, baseURL+"/addon/238222/files", &files)
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// Open starts a streamed GET request.
//
// The response body is not read; the caller streams and closes it.
// Non-200 answers are returned as *StatusError.
func (c *Client) Open(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.log.WithField("url", url).Debug("GET")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return &Response{Body: resp.Body, ContentLength: resp.ContentLength}, nil
}

// ProgressWriter wraps a writer to report every written chunk.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer:  file,
//	    OnWrite: func(n int) { handle.Advance(int64(n)) },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// OnWrite is called after each successful Write with the chunk length.
	OnWrite func(n int)
}

// Write implements io.Writer, tracking progress and calling OnWrite.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	if n > 0 && pw.OnWrite != nil {
		pw.OnWrite(n)
	}
	return n, err
}
