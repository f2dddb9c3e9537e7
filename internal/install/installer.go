package install

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/modpkg/modpkg/internal/config"
	"github.com/modpkg/modpkg/internal/download"
	"github.com/modpkg/modpkg/internal/http"
	ioutils "github.com/modpkg/modpkg/internal/io"
	"github.com/modpkg/modpkg/internal/manifest"
	"github.com/modpkg/modpkg/internal/metadata"
	"github.com/modpkg/modpkg/internal/moddb"
	"github.com/modpkg/modpkg/internal/model"
	"github.com/modpkg/modpkg/internal/progress"
	"github.com/modpkg/modpkg/internal/resolver"
)

// Request describes one install.
type Request struct {
	// Mods are ids, slugs or names of the requested mods.
	Mods []string
	// Pinned records are downloaded as given, without resolution.
	Pinned    []*model.ModRecord
	TargetDir string
	Platform  model.PlatformVersion
	// LockFile is written after a successful install when set.
	LockFile string
}

// Result is the outcome of an install.
type Result struct {
	// Resolved holds every record that was scheduled for download.
	Resolved []*model.ModRecord
	// Report is nil when the install failed before downloading.
	Report *download.Report
}

// Installer runs the resolve and download pipeline.
//
// Example:
//
//	inst := install.New(source, client,
//	    install.WithDatabase(db),
//	    install.OnProgress(func(e progress.Event) { fmt.Println(e.Message) }),
//	)
//
//	result, err := inst.Install(ctx, install.Request{
//	    Mods:      []string{"jei", "journeymap"},
//	    TargetDir: "mods",
//	    Platform:  model.MustParsePlatformVersion("1.12.2"),
//	})
type Installer struct {
	source       metadata.Source
	client       *http.Client
	db           *moddb.DB
	resolveLimit int
	downloadOpts []download.Option
	newRenderer  func() progress.Renderer
	refresh      time.Duration
	onProgress   func(progress.Event)
	log          logrus.FieldLogger
}

// Option configures an Installer.
type Option func(*Installer)

// WithDatabase maps non-numeric identifiers through db.
func WithDatabase(db *moddb.DB) Option {
	return func(i *Installer) { i.db = db }
}

// WithResolveLimit caps concurrent metadata lookups. Zero is unbounded.
func WithResolveLimit(n int) Option {
	return func(i *Installer) { i.resolveLimit = n }
}

// WithDownloadOptions configures the downloader of every install.
func WithDownloadOptions(opts ...download.Option) Option {
	return func(i *Installer) { i.downloadOpts = append(i.downloadOpts, opts...) }
}

// WithRenderer sets the factory for the progress renderer of an install.
// Renderers are closed when the install ends, so each install gets a new one.
func WithRenderer(newRenderer func() progress.Renderer) Option {
	return func(i *Installer) { i.newRenderer = newRenderer }
}

// WithRefresh sets the progress refresh interval.
func WithRefresh(d time.Duration) Option {
	return func(i *Installer) { i.refresh = d }
}

// OnProgress sets the callback for user-facing messages.
func OnProgress(fn func(progress.Event)) Option {
	return func(i *Installer) { i.onProgress = fn }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(i *Installer) { i.log = log }
}

// SettingsOptions translates settings into options.
func SettingsOptions(s *config.Settings) []Option {
	return []Option{
		WithResolveLimit(s.MaxConcurrentResolves),
		WithDownloadOptions(download.SettingsOptions(s)...),
		WithRefresh(s.RefreshInterval()),
	}
}

// New creates an Installer resolving against source and downloading with
// client.
func New(source metadata.Source, client *http.Client, opts ...Option) *Installer {
	i := &Installer{
		source: source,
		client: client,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Resolve maps the requested identifiers to ids and resolves their
// dependency closure without downloading anything.
func (i *Installer) Resolve(ctx context.Context, mods []string, platform model.PlatformVersion) ([]*model.ModRecord, error) {
	ids, err := i.modIDs(mods)
	if err != nil {
		return nil, err
	}

	i.progress(progress.Event{
		Message: fmt.Sprintf("Resolving %d mod(s) for Minecraft %s", len(ids), platform),
		Level:   progress.LevelInfo,
	})

	res := resolver.New(i.source, resolver.WithLimit(i.resolveLimit), resolver.WithLogger(i.log))
	records, err := res.Resolve(ctx, ids, platform)
	if err != nil {
		i.progress(progress.Event{Message: fmt.Sprintf("Resolving failed: %v", err), Level: progress.LevelError})
		return nil, err
	}

	i.progress(progress.Event{Message: fmt.Sprintf("Resolved %d mod(s)", len(records)), Level: progress.LevelSuccess})
	for _, rec := range records {
		i.progress(progress.Event{Message: fmt.Sprintf("%s: %s", rec.Label(), rec.DiskName()), Level: progress.LevelVerbose})
	}
	return records, nil
}

// Install resolves and downloads the requested mods into the target
// directory.
//
// The target directory is locked for the duration of the install. When
// resolution fails nothing is downloaded. When downloads fail the result
// still carries the report, and no lock file is written.
func (i *Installer) Install(ctx context.Context, req Request) (*Result, error) {
	lock, err := ioutils.LockDir(req.TargetDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			i.log.WithError(err).Warn("could not release directory lock")
		}
	}()

	var records []*model.ModRecord
	if len(req.Mods) > 0 {
		records, err = i.Resolve(ctx, req.Mods, req.Platform)
		if err != nil {
			return nil, err
		}
	}
	records = appendPinned(records, req.Pinned)

	result := &Result{Resolved: records}
	if len(records) == 0 {
		i.progress(progress.Event{Message: "Nothing to install", Level: progress.LevelWarning})
		result.Report = &download.Report{}
		return result, nil
	}

	i.progress(progress.Event{
		Message: fmt.Sprintf("Downloading %d mod(s) to %s", len(records), req.TargetDir),
		Level:   progress.LevelInfo,
	})

	var renderer progress.Renderer
	if i.newRenderer != nil {
		renderer = i.newRenderer()
	}
	display := progress.New(renderer, i.refresh)

	opts := append([]download.Option{download.WithLogger(i.log)}, i.downloadOpts...)
	opts = append(opts, download.WithDisplay(display))
	report, err := download.New(i.client, opts...).DownloadAll(ctx, records, req.TargetDir)
	display.Join()

	result.Report = report
	if err != nil {
		i.progress(progress.Event{Message: summary(report, err), Level: progress.LevelError})
		return result, err
	}

	if req.LockFile != "" {
		if err := manifest.NewLockFile(req.Platform, records).Write(req.LockFile); err != nil {
			return result, fmt.Errorf("write lock file: %w", err)
		}
		i.progress(progress.Event{Message: "Updated " + req.LockFile, Level: progress.LevelVerbose})
	}

	i.progress(progress.Event{
		Message: fmt.Sprintf("Installed %d mod(s) (%s)", len(report.Succeeded), progress.FormatBytes(report.Bytes)),
		Level:   progress.LevelSuccess,
	})
	return result, nil
}

func (i *Installer) modIDs(mods []string) ([]string, error) {
	if i.db == nil {
		return mods, nil
	}

	ids := make([]string, 0, len(mods))
	for _, m := range mods {
		id, err := i.db.ModID(m)
		if err != nil {
			return nil, err
		}
		if id != m {
			i.progress(progress.Event{Message: fmt.Sprintf("%s is mod %s", m, id), Level: progress.LevelVerbose})
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (i *Installer) progress(event progress.Event) {
	if i.onProgress != nil {
		i.onProgress(event)
	}
}

// appendPinned adds pinned records whose id was not resolved already.
func appendPinned(records, pinned []*model.ModRecord) []*model.ModRecord {
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		seen[rec.ModID] = true
	}
	for _, rec := range pinned {
		if !seen[rec.ModID] {
			seen[rec.ModID] = true
			records = append(records, rec)
		}
	}
	return records
}

func summary(report *download.Report, err error) string {
	if report == nil || report.Total() == 0 {
		return fmt.Sprintf("Download failed: %v", err)
	}
	if errors.Is(err, context.Canceled) && len(report.Failed) == report.Total() {
		return "Download cancelled"
	}
	return fmt.Sprintf("%d of %d downloads failed", len(report.Failed), report.Total())
}
