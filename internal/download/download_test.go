package download

import (
	"bytes"
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modpkg/modpkg/internal/config"
	"github.com/modpkg/modpkg/internal/http"
	ioutils "github.com/modpkg/modpkg/internal/io"
	"github.com/modpkg/modpkg/internal/model"
	"github.com/modpkg/modpkg/internal/progress"
)

// artifactServer serves fixed payloads plus a few failure modes.
type artifactServer struct {
	*httptest.Server
	flakyHits atomic.Int32
}

func newArtifactServer(t *testing.T) *artifactServer {
	t.Helper()

	s := &artifactServer{}
	mux := nethttp.NewServeMux()

	mux.HandleFunc("/sized/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		n, _ := strconv.Atoi(filepath.Base(r.URL.Path))
		w.Header().Set("Content-Length", strconv.Itoa(n))
		w.Write(bytes.Repeat([]byte{'x'}, n))
	})
	mux.HandleFunc("/unsized/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		n, _ := strconv.Atoi(filepath.Base(r.URL.Path))
		w.(nethttp.Flusher).Flush()
		w.Write(bytes.Repeat([]byte{'y'}, n))
	})
	mux.HandleFunc("/missing", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.NotFound(w, r)
	})
	mux.HandleFunc("/broken", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Error(w, "boom", nethttp.StatusInternalServerError)
	})
	mux.HandleFunc("/flaky", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if s.flakyHits.Add(1) == 1 {
			nethttp.Error(w, "busy", nethttp.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/truncated", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Length", "1000")
		w.Write(bytes.Repeat([]byte{'z'}, 100))
		w.(nethttp.Flusher).Flush()
		panic(nethttp.ErrAbortHandler)
	})
	mux.HandleFunc("/slow", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte("z"))
		w.(nethttp.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *artifactServer) record(id, file, path string) *model.ModRecord {
	return &model.ModRecord{ModID: id, FileName: file, DownloadURL: s.URL + path}
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

func jobErrors(t *testing.T, err error) []*JobError {
	t.Helper()
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)

	out := make([]*JobError, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		var je *JobError
		require.ErrorAs(t, e, &je)
		out = append(out, je)
	}
	return out
}

func TestDownloadAll_WritesEveryArtifact(t *testing.T) {
	srv := newArtifactServer(t)
	dir := t.TempDir()
	display := progress.New(nil, time.Millisecond)

	records := []*model.ModRecord{
		srv.record("modA", "a", "/sized/1000"),
		srv.record("modB", "b.jar", "/sized/500"),
	}

	dl := New(http.NewClient(5*time.Second), WithDisplay(display))
	report, err := dl.DownloadAll(context.Background(), records, dir)
	display.Join()

	require.NoError(t, err)
	assert.Len(t, report.Succeeded, 2)
	assert.Empty(t, report.Failed)
	assert.Equal(t, int64(1500), report.Bytes)

	assert.Equal(t, int64(1000), fileSize(t, filepath.Join(dir, "a.jar")))
	assert.Equal(t, int64(500), fileSize(t, filepath.Join(dir, "b.jar")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	for _, s := range display.States() {
		assert.True(t, s.Done)
		assert.Equal(t, s.Total, s.Written)
		assert.Equal(t, 1.0, s.Percent())
	}
}

func TestDownloadAll_FallbackSize(t *testing.T) {
	srv := newArtifactServer(t)
	dir := t.TempDir()
	display := progress.New(nil, time.Millisecond)

	dl := New(http.NewClient(5*time.Second), WithDisplay(display))
	_, err := dl.DownloadAll(context.Background(), []*model.ModRecord{srv.record("modC", "c", "/unsized/300")}, dir)
	display.Join()
	require.NoError(t, err)

	states := display.States()
	require.Len(t, states, 1)
	assert.Equal(t, FallbackSize, states[0].Total)
	assert.Equal(t, int64(300), states[0].Written)
	assert.Equal(t, 1.0, states[0].Percent())
	assert.Equal(t, int64(300), fileSize(t, filepath.Join(dir, "c.jar")))
}

func TestDownloadAll_HeterogeneousFailures(t *testing.T) {
	srv := newArtifactServer(t)
	dir := t.TempDir()

	// A directory where the artifact should go makes creation fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "blocked.jar"), 0755))

	records := []*model.ModRecord{
		srv.record("ok1", "ok1", "/sized/1000"),
		srv.record("gone", "gone", "/missing"),
		srv.record("ok2", "ok2", "/sized/20"),
		srv.record("err", "err", "/broken"),
		srv.record("blocked", "blocked", "/sized/10"),
	}

	dl := New(http.NewClient(5*time.Second))
	report, err := dl.DownloadAll(context.Background(), records, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 of 5 downloads failed")

	assert.Len(t, report.Succeeded, 2)
	assert.Equal(t, int64(1020), report.Bytes)
	assert.Equal(t, int64(1000), fileSize(t, filepath.Join(dir, "ok1.jar")))
	assert.Equal(t, int64(20), fileSize(t, filepath.Join(dir, "ok2.jar")))

	failed := jobErrors(t, err)
	require.Len(t, failed, 3)

	byID := map[string]*JobError{}
	for _, je := range failed {
		assert.Equal(t, 5, je.Total)
		byID[je.Mod.ModID] = je
	}

	assert.Equal(t, KindTransport, byID["gone"].Kind)
	assert.True(t, http.IsNotFound(byID["gone"]))
	assert.Equal(t, 1, byID["gone"].Index)

	assert.Equal(t, KindTransport, byID["err"].Kind)
	assert.Equal(t, KindFilesystem, byID["blocked"].Kind)

	assert.NoFileExists(t, filepath.Join(dir, "gone.jar"))
	assert.NoFileExists(t, filepath.Join(dir, "err.jar"))
}

func TestDownloadAll_RemovesPartialFile(t *testing.T) {
	srv := newArtifactServer(t)
	dir := t.TempDir()

	dl := New(http.NewClient(5*time.Second))
	report, err := dl.DownloadAll(context.Background(), []*model.ModRecord{srv.record("cut", "cut", "/truncated")}, dir)
	require.Error(t, err)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, KindTransport, report.Failed[0].Kind)
	assert.NoFileExists(t, filepath.Join(dir, "cut.jar"))
}

func TestDownloadAll_KeepsPartialFile(t *testing.T) {
	srv := newArtifactServer(t)
	dir := t.TempDir()

	dl := New(http.NewClient(5*time.Second), WithKeepPartialFiles(true))
	_, err := dl.DownloadAll(context.Background(), []*model.ModRecord{srv.record("cut", "cut", "/truncated")}, dir)
	require.Error(t, err)
	assert.Equal(t, int64(100), fileSize(t, filepath.Join(dir, "cut.jar")))
}

func TestDownloadAll_RetriesOpen(t *testing.T) {
	srv := newArtifactServer(t)
	dir := t.TempDir()

	dl := New(http.NewClient(5*time.Second), WithRetries(3, func(int) time.Duration { return time.Millisecond }))
	report, err := dl.DownloadAll(context.Background(), []*model.ModRecord{srv.record("flaky", "flaky", "/flaky")}, dir)
	require.NoError(t, err)
	assert.Len(t, report.Succeeded, 1)
	assert.Equal(t, int32(2), srv.flakyHits.Load())
}

func TestDownloadAll_DoesNotRetryNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		hits.Add(1)
		nethttp.NotFound(w, r)
	}))
	defer srv.Close()

	dl := New(http.NewClient(5*time.Second), WithRetries(3, func(int) time.Duration { return 0 }))
	_, err := dl.DownloadAll(context.Background(), []*model.ModRecord{{ModID: "x", DownloadURL: srv.URL}}, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDownloadAll_CancelOnFailure(t *testing.T) {
	srv := newArtifactServer(t)
	dir := t.TempDir()

	records := []*model.ModRecord{
		srv.record("slow", "slow", "/slow"),
		srv.record("gone", "gone", "/missing"),
	}

	dl := New(http.NewClient(5*time.Second), WithCancelOnFailure(true))

	start := time.Now()
	report, err := dl.DownloadAll(context.Background(), records, dir)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)

	require.Len(t, report.Failed, 2)
	kinds := map[string]Kind{}
	for _, je := range report.Failed {
		kinds[je.Mod.ModID] = je.Kind
	}
	assert.Equal(t, KindTransport, kinds["gone"])
	assert.Equal(t, KindCancelled, kinds["slow"])
	assert.NoFileExists(t, filepath.Join(dir, "slow.jar"))
}

func TestDownloadAll_CancelledContext(t *testing.T) {
	srv := newArtifactServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dl := New(http.NewClient(5 * time.Second))
	report, err := dl.DownloadAll(ctx, []*model.ModRecord{srv.record("a", "a", "/sized/10")}, t.TempDir())
	require.Error(t, err)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, KindCancelled, report.Failed[0].Kind)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDownloadAll_MissingURL(t *testing.T) {
	dl := New(http.NewClient(time.Second))
	_, err := dl.DownloadAll(context.Background(), []*model.ModRecord{{ModID: "nourl"}}, t.TempDir())
	assert.ErrorIs(t, err, errNoDownloadURL)
}

func TestDownloadAll_FileNameCollision(t *testing.T) {
	srv := newArtifactServer(t)
	dir := t.TempDir()

	records := []*model.ModRecord{
		srv.record("modA", "core", "/sized/1000"),
		srv.record("modB", "core.jar", "/unsized/500"),
		srv.record("modC", "CORE.JAR", "/sized/10"),
		srv.record("modD", "other", "/sized/20"),
	}

	display := progress.New(nil, 0)
	dl := New(http.NewClient(5*time.Second), WithDisplay(display))
	report, err := dl.DownloadAll(context.Background(), records, dir)
	display.Join()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 4 downloads failed")

	require.Len(t, report.Succeeded, 2)
	assert.Equal(t, "modA", report.Succeeded[0].ModID)
	assert.Equal(t, "modD", report.Succeeded[1].ModID)
	assert.Equal(t, int64(1020), report.Bytes)
	assert.Equal(t, int64(1000), fileSize(t, filepath.Join(dir, "core.jar")))

	failed := jobErrors(t, err)
	require.Len(t, failed, 2)
	for _, je := range failed {
		assert.Equal(t, KindFilesystem, je.Kind)
		assert.ErrorIs(t, je, errNameCollision)
		assert.Contains(t, je.Error(), "already written by modA")
	}
	assert.Equal(t, 1, failed[0].Index)
	assert.Equal(t, 2, failed[1].Index)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Len(t, display.States(), 4)
}

func TestClassify(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	live := context.Background()

	statusErr := &http.StatusError{StatusCode: nethttp.StatusBadGateway}
	readErr := errors.New("unexpected EOF")

	assert.Equal(t, KindTransport, classify(cancelled, statusErr))
	assert.Equal(t, KindTransport, classify(cancelled, errNoDownloadURL))
	assert.Equal(t, KindCancelled, classify(cancelled, readErr))
	assert.Equal(t, KindTransport, classify(live, readErr))
	assert.Equal(t, KindCancelled, classify(live, context.Canceled))
	assert.Equal(t, KindFilesystem, classify(cancelled, &ioutils.WriteError{Err: readErr}))
}

func TestDownloadAll_BandwidthLimit(t *testing.T) {
	srv := newArtifactServer(t)
	dir := t.TempDir()

	dl := New(http.NewClient(5*time.Second), WithBandwidthLimit(1<<20))
	report, err := dl.DownloadAll(context.Background(), []*model.ModRecord{srv.record("a", "a", "/sized/100000")}, dir)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), report.Bytes)
}

func TestDownloadAll_MaxConcurrent(t *testing.T) {
	srv := newArtifactServer(t)
	dir := t.TempDir()

	var records []*model.ModRecord
	for i := 0; i < 10; i++ {
		id := "mod" + strconv.Itoa(i)
		records = append(records, srv.record(id, id, "/sized/64"))
	}

	dl := New(http.NewClient(5*time.Second), WithMaxConcurrent(2), WithWriters(1))
	report, err := dl.DownloadAll(context.Background(), records, dir)
	require.NoError(t, err)
	assert.Equal(t, 10, report.Total())
}

func TestSettingsOptions(t *testing.T) {
	s := config.DefaultSettings()
	s.MaxConcurrentDownloads = 3
	s.BandwidthLimit = 1000
	s.CancelOnFailure = true

	d := New(http.NewClient(time.Second), SettingsOptions(s)...)
	assert.Equal(t, 3, d.maxConcurrent)
	assert.Equal(t, s.MaxConcurrentWrites, d.writers)
	assert.Equal(t, s.DownloadMaxRetries, d.attempts)
	assert.NotNil(t, d.limiter)
	assert.True(t, d.cancelOnFailure)
	assert.False(t, d.keepPartial)
}

func TestJobError(t *testing.T) {
	je := &JobError{
		Index: 1,
		Total: 4,
		Mod:   &model.ModRecord{ModID: "238222", DisplayName: "JEI"},
		Kind:  KindFilesystem,
		Err:   errors.New("disk full"),
	}
	assert.Equal(t, "[2/4] JEI: filesystem: disk full", je.Error())

	err := aggregate([]*JobError{je})
	assert.Equal(t, "1 of 4 downloads failed:\n\t* [2/4] JEI: filesystem: disk full", err.Error())
	assert.NoError(t, aggregate(nil))
}
