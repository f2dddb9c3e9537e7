// Package http provides the HTTP client used for metadata lookups and
// artifact downloads.
//
// The Client in this package handles:
//   - User-Agent headers
//   - JSON requests with a per-request timeout
//   - Streamed GETs for large files
//   - Classification of failures (not found, retryable)
//
// # Basic Usage
//
//	client := http.NewClient(30 * time.Second)
//
//	// Fetch JSON
//	err := client.GetJSON(ctx, url, &v)
//
//	// Stream a download
//	resp, err := client.Open(ctx, url)
//	defer resp.Body.Close()
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:  file,
//	    OnWrite: func(n int) { /* update UI */ },
//	}
package http
