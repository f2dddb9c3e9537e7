package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/modpkg/modpkg/internal/config"
	"github.com/modpkg/modpkg/internal/http"
	ioutils "github.com/modpkg/modpkg/internal/io"
	"github.com/modpkg/modpkg/internal/model"
	"github.com/modpkg/modpkg/internal/progress"
)

// FallbackSize is the expected size of an artifact whose response carries
// no content length.
const FallbackSize int64 = 2_500_000

const chunkSize = 32 * 1024

var (
	errNoDownloadURL = errors.New("no download url")
	errNameCollision = errors.New("file name collision")
)

// Report lists the outcome of every job of a DownloadAll call.
type Report struct {
	Succeeded []*model.ModRecord
	Failed    []*JobError
	// Bytes is the number of bytes written by successful jobs.
	Bytes int64
}

// Total returns the number of jobs.
func (r *Report) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// Downloader fetches artifacts concurrently into a target directory.
//
// Every record becomes its own job: the artifact is streamed chunk by
// chunk, each chunk is written through a shared write pool, and the job's
// progress handle advances as the chunks land on disk.
//
// Example:
//
//	dl := download.New(client,
//	    download.WithDisplay(display),
//	    download.WithMaxConcurrent(8),
//	)
//
//	report, err := dl.DownloadAll(ctx, records, "mods")
//	if err != nil {
//	    fmt.Println(err) // "2 of 12 downloads failed: ..."
//	}
type Downloader struct {
	client  *http.Client
	display *progress.Display
	log     logrus.FieldLogger

	writers         int
	maxConcurrent   int
	attempts        int
	cooldown        func(tries int) time.Duration
	limiter         *rate.Limiter
	cancelOnFailure bool
	keepPartial     bool
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithDisplay reports job progress to display. The caller joins it.
func WithDisplay(display *progress.Display) Option {
	return func(d *Downloader) { d.display = display }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Downloader) { d.log = log }
}

// WithWriters sets the number of file writer goroutines.
func WithWriters(n int) Option {
	return func(d *Downloader) { d.writers = n }
}

// WithMaxConcurrent caps the number of jobs in flight. Zero is unbounded.
func WithMaxConcurrent(n int) Option {
	return func(d *Downloader) { d.maxConcurrent = n }
}

// WithRetries sets how many times opening a stream is attempted and how
// long to wait after the n-th failed attempt.
func WithRetries(attempts int, cooldown func(tries int) time.Duration) Option {
	return func(d *Downloader) {
		d.attempts = attempts
		d.cooldown = cooldown
	}
}

// WithBandwidthLimit caps the combined read rate of all jobs in bytes per
// second. Zero disables the cap.
func WithBandwidthLimit(bytesPerSecond int64) Option {
	return func(d *Downloader) {
		if bytesPerSecond <= 0 {
			d.limiter = nil
			return
		}
		d.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), chunkSize)
	}
}

// WithCancelOnFailure stops the remaining jobs after the first failure.
func WithCancelOnFailure(enabled bool) Option {
	return func(d *Downloader) { d.cancelOnFailure = enabled }
}

// WithKeepPartialFiles keeps the truncated file of a failed job.
func WithKeepPartialFiles(enabled bool) Option {
	return func(d *Downloader) { d.keepPartial = enabled }
}

// SettingsOptions translates settings into options.
func SettingsOptions(s *config.Settings) []Option {
	return []Option{
		WithWriters(s.MaxConcurrentWrites),
		WithMaxConcurrent(s.MaxConcurrentDownloads),
		WithRetries(s.DownloadMaxRetries, s.RetryCooldown),
		WithBandwidthLimit(s.BandwidthLimit),
		WithCancelOnFailure(s.CancelOnFailure),
		WithKeepPartialFiles(s.KeepPartialFiles),
	}
}

// New creates a Downloader using client for all requests.
func New(client *http.Client, opts ...Option) *Downloader {
	d := &Downloader{
		client:   client,
		log:      logrus.StandardLogger(),
		writers:  4,
		attempts: 1,
		cooldown: func(int) time.Duration { return 0 },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadAll downloads every record into dir and waits for all jobs.
//
// A failing job never stops its siblings unless cancel-on-failure is
// enabled. Records whose file names collide with an earlier record fail
// with KindFilesystem. The report is returned in both cases; the error is a
// *multierror.Error of *JobError values when at least one job failed.
func (d *Downloader) DownloadAll(ctx context.Context, records []*model.ModRecord, dir string) (*Report, error) {
	if err := ioutils.EnsureDir(dir); err != nil {
		return nil, err
	}

	display := d.display
	if display == nil {
		display = progress.New(nil, 0)
		defer display.Join()
	}

	pool := ioutils.NewWritePool(d.writers)
	defer pool.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group
	if d.maxConcurrent > 0 {
		g.SetLimit(d.maxConcurrent)
	}

	failures := make([]*JobError, len(records))
	written := make([]int64, len(records))
	owners := make(map[string]*model.ModRecord, len(records))
	for i, rec := range records {
		// The first record claiming a file name owns it; later ones fail
		// before anything is opened so no file is shared.
		name := rec.DiskName()
		key := strings.ToLower(name)
		if owner, taken := owners[key]; taken {
			err := fmt.Errorf("%w: %s is already written by %s", errNameCollision, name, owner.Label())
			display.Attach(name, FallbackSize).Finish(err)
			d.log.WithFields(logrus.Fields{"mod_id": rec.ModID, "file": name, "owner": owner.ModID}).Warn("skipping download with colliding file name")
			failures[i] = &JobError{Index: i, Total: len(records), Mod: rec, Kind: KindFilesystem, Err: err}
			if d.cancelOnFailure {
				cancel()
			}
			continue
		}
		owners[key] = rec

		i, rec := i, rec
		g.Go(func() error {
			n, jobErr := d.job(ctx, pool, display, rec, dir)
			written[i] = n
			if jobErr != nil {
				jobErr.Index, jobErr.Total = i, len(records)
				failures[i] = jobErr
				if d.cancelOnFailure {
					cancel()
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{}
	for i, rec := range records {
		if failures[i] != nil {
			report.Failed = append(report.Failed, failures[i])
			continue
		}
		report.Succeeded = append(report.Succeeded, rec)
		report.Bytes += written[i]
	}
	return report, aggregate(report.Failed)
}

// job runs one download and returns the bytes written.
func (d *Downloader) job(ctx context.Context, pool *ioutils.WritePool, display *progress.Display, rec *model.ModRecord, dir string) (int64, *JobError) {
	name := rec.DiskName()
	log := d.log.WithFields(logrus.Fields{"mod_id": rec.ModID, "url": rec.DownloadURL, "file": name})

	h := display.Attach(name, FallbackSize)
	err := d.transfer(ctx, pool, h, rec, dir, name, log)
	h.Finish(err)

	if err != nil {
		kind := classify(ctx, err)
		log.WithError(err).WithField("kind", kind.String()).Debug("download failed")
		return h.Written(), &JobError{Mod: rec, Kind: kind, Err: err}
	}

	log.WithField("bytes", h.Written()).Debug("download finished")
	return h.Written(), nil
}

func (d *Downloader) transfer(ctx context.Context, pool *ioutils.WritePool, h *progress.Handle, rec *model.ModRecord, dir, name string, log logrus.FieldLogger) error {
	if rec.DownloadURL == "" {
		return errNoDownloadURL
	}

	resp, err := d.open(ctx, rec.DownloadURL, log)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.ContentLength > 0 {
		h.SetTotal(resp.ContentLength)
	}

	f, path, err := ioutils.CreateFile(dir, name)
	if err != nil {
		return &ioutils.WriteError{Err: err}
	}

	var body io.Reader = resp.Body
	if d.limiter != nil {
		body = &limitedReader{ctx: ctx, r: body, limiter: d.limiter}
	}

	pw := &http.ProgressWriter{
		Writer:  pool.Writer(ctx, f),
		OnWrite: func(n int) { h.Advance(int64(n)) },
	}
	_, err = io.CopyBuffer(pw, body, make([]byte, chunkSize))

	if cerr := f.Close(); err == nil && cerr != nil {
		err = &ioutils.WriteError{Err: cerr}
	}

	if err != nil && !d.keepPartial {
		if rerr := ioutils.RemoveIfExists(path); rerr != nil {
			log.WithError(rerr).Warn("could not remove partial file")
		}
	}
	return err
}

// open starts the stream, retrying failures that may be transient. Once
// the body is being written nothing is retried.
func (d *Downloader) open(ctx context.Context, url string, log logrus.FieldLogger) (*http.Response, error) {
	for tries := 0; ; tries++ {
		resp, err := d.client.Open(ctx, url)
		if err == nil {
			return resp, nil
		}
		if tries+1 >= d.attempts || !http.IsRetryable(err) {
			return nil, err
		}

		log.WithError(err).WithField("attempt", tries+1).Warn("retrying download")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.cooldown(tries)):
		}
	}
}

// classify looks at the job's own error first. The context only decides
// for untyped stream failures, which an aborted request surfaces as.
func classify(ctx context.Context, err error) Kind {
	var (
		we *ioutils.WriteError
		se *http.StatusError
	)
	switch {
	case errors.As(err, &we):
		return KindFilesystem
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.As(err, &se), errors.Is(err, errNoDownloadURL):
		return KindTransport
	case ctx.Err() != nil:
		return KindCancelled
	default:
		return KindTransport
	}
}

// limitedReader throttles reads against a shared limiter.
type limitedReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if burst := l.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := l.r.Read(p)
	if n > 0 {
		if werr := l.limiter.WaitN(l.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
