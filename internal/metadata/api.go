package metadata

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/modpkg/modpkg/internal/http"
	"github.com/modpkg/modpkg/internal/metadata/dto"
	"github.com/modpkg/modpkg/internal/model"
)

// APISource looks mods up through the remote metadata API.
//
// For every lookup it fetches the mod's file list and picks the newest
// file that declares compatibility with the platform version.
//
// Example usage:
//
//	src := NewAPISource(http.NewClient(30*time.Second), config.DefaultAPIBaseURL)
//	rec, err := src.Lookup(ctx, "238222", model.MustParsePlatformVersion("1.12.2"))
//	if errors.Is(err, ErrNotFound) {
//	    // no release for 1.12.2
//	}
type APISource struct {
	client  *http.Client
	baseURL string
	log     logrus.FieldLogger
}

// NewAPISource creates a new APISource.
func NewAPISource(client *http.Client, baseURL string) *APISource {
	return &APISource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logrus.StandardLogger(),
	}
}

// WithLogger sets the logger used for lookup diagnostics.
func (s *APISource) WithLogger(log logrus.FieldLogger) *APISource {
	s.log = log
	return s
}

// Lookup fetches the newest compatible release of modID.
func (s *APISource) Lookup(ctx context.Context, modID string, version model.PlatformVersion) (*model.ModRecord, error) {
	filesURL := fmt.Sprintf("%s/addon/%s/files", s.baseURL, url.PathEscape(modID))

	var files []dto.JSONModFile
	if err := s.client.GetJSON(ctx, filesURL, &files); err != nil {
		if http.IsNotFound(err) {
			return nil, fmt.Errorf("mod %s: %w", modID, ErrNotFound)
		}
		return nil, err
	}

	release := FindRelease(files, version)
	if release == nil {
		s.log.WithFields(logrus.Fields{
			"mod_id":   modID,
			"platform": version.String(),
			"files":    len(files),
		}).Debug("no compatible release")
		return nil, fmt.Errorf("mod %s does not support platform version %s: %w", modID, version, ErrNotFound)
	}

	s.log.WithFields(logrus.Fields{
		"mod_id": modID,
		"file":   release.FileName,
	}).Debug("selected release")
	return release.ToRecord(modID), nil
}

// FindRelease returns the newest file supporting version, or nil.
// Files with equal dates are ordered by id.
func FindRelease(files []dto.JSONModFile, version model.PlatformVersion) *dto.JSONModFile {
	var best *dto.JSONModFile
	for i := range files {
		f := &files[i]
		if !f.SupportsVersion(version) {
			continue
		}
		if best == nil || newer(f, best) {
			best = f
		}
	}
	return best
}

func newer(a, b *dto.JSONModFile) bool {
	if a.FileDate.Equal(b.FileDate.Time) {
		return a.ID > b.ID
	}
	return a.FileDate.After(b.FileDate.Time)
}
