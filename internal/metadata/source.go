package metadata

import (
	"context"
	"errors"
	"sync"

	"github.com/modpkg/modpkg/internal/model"
)

// ErrNotFound is returned when a mod does not exist or has no artifact
// compatible with the requested platform version.
var ErrNotFound = errors.New("metadata: no compatible artifact found")

// Source provides mod metadata for a platform version.
//
// Lookup returns ErrNotFound (possibly wrapped) for business misses. Every
// other error is a transport or data failure.
type Source interface {
	Lookup(ctx context.Context, modID string, version model.PlatformVersion) (*model.ModRecord, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, modID string, version model.PlatformVersion) (*model.ModRecord, error)

// Lookup calls f.
func (f SourceFunc) Lookup(ctx context.Context, modID string, version model.PlatformVersion) (*model.ModRecord, error) {
	return f(ctx, modID, version)
}

// StaticSource serves records from memory, keyed by platform version and
// mod id. It is safe for concurrent use.
type StaticSource struct {
	mu      sync.RWMutex
	records map[string]map[string]*model.ModRecord
}

// NewStaticSource creates an empty StaticSource.
func NewStaticSource() *StaticSource {
	return &StaticSource{records: make(map[string]map[string]*model.ModRecord)}
}

// Add registers rec for the given platform version.
func (s *StaticSource) Add(version string, rec *model.ModRecord) *StaticSource {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.records[version]
	if !ok {
		byID = make(map[string]*model.ModRecord)
		s.records[version] = byID
	}
	byID[rec.ModID] = rec
	return s
}

// Lookup returns the record registered for version and modID.
func (s *StaticSource) Lookup(ctx context.Context, modID string, version model.PlatformVersion) (*model.ModRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[version.String()][modID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}
