package ioutils

import (
	"context"
	"io"
	"sync"
)

// WriteError wraps a failure of the underlying writer, as opposed to a
// failure of whatever produced the bytes.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return "write: " + e.Err.Error() }

func (e *WriteError) Unwrap() error { return e.Err }

type writeRequest struct {
	w    io.Writer
	p    []byte
	done chan<- writeResult
}

type writeResult struct {
	n   int
	err error
}

// WritePool performs blocking writes on a fixed set of goroutines.
//
// Network-bound download tasks hand their chunks to the pool instead of
// writing inline, so a slow disk occupies at most the pool's workers.
// Each Write waits for its own chunk, which keeps the bytes of one writer
// in the order they were submitted.
//
// Example:
//
//	pool := NewWritePool(4)
//	defer pool.Close()
//
//	w := pool.Writer(ctx, file)
//	io.Copy(w, resp.Body)
type WritePool struct {
	requests  chan writeRequest
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewWritePool starts a pool with the given number of workers (minimum 1).
func NewWritePool(workers int) *WritePool {
	if workers < 1 {
		workers = 1
	}
	p := &WritePool{requests: make(chan writeRequest)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *WritePool) work() {
	defer p.wg.Done()
	for req := range p.requests {
		n, err := req.w.Write(req.p)
		req.done <- writeResult{n: n, err: err}
	}
}

// Close stops the workers after the pending writes finished. Writes must
// not be submitted after Close.
func (p *WritePool) Close() {
	p.closeOnce.Do(func() {
		close(p.requests)
	})
	p.wg.Wait()
}

// Writer returns an io.Writer that routes every Write through the pool.
// The returned writer must not be used concurrently.
func (p *WritePool) Writer(ctx context.Context, w io.Writer) io.Writer {
	return &pooledWriter{ctx: ctx, pool: p, w: w, done: make(chan writeResult, 1)}
}

type pooledWriter struct {
	ctx  context.Context
	pool *WritePool
	w    io.Writer
	done chan writeResult
}

func (pw *pooledWriter) Write(b []byte) (int, error) {
	select {
	case <-pw.ctx.Done():
		return 0, pw.ctx.Err()
	case pw.pool.requests <- writeRequest{w: pw.w, p: b, done: pw.done}:
	}

	// The worker holds b until it answers, so wait regardless of ctx.
	res := <-pw.done
	if res.err != nil {
		return res.n, &WriteError{Err: res.err}
	}
	return res.n, nil
}
