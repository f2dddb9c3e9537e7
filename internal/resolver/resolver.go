package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/modpkg/modpkg/internal/metadata"
	"github.com/modpkg/modpkg/internal/model"
)

// Resolver computes the transitive closure of required mods.
type Resolver struct {
	source metadata.Source
	limit  int64
	log    logrus.FieldLogger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLimit caps the number of concurrent metadata lookups. Zero or a
// negative value means unbounded.
func WithLimit(n int) Option {
	return func(r *Resolver) {
		r.limit = int64(n)
	}
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// New creates a Resolver backed by source.
func New(source metadata.Source, opts ...Option) *Resolver {
	r := &Resolver{
		source: source,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run holds everything shared by the branches of one Resolve call.
type run struct {
	*Resolver
	version model.PlatformVersion
	state   *state
	sem     *semaphore.Weighted
}

// Resolve returns every mod reachable from ids through required
// dependencies, each exactly once.
//
// All requested ids are resolved concurrently and every branch fans out to
// its dependencies. The first failure cancels the remaining branches and
// is returned as is; no partial result is exposed. The records are
// returned in the order their ids were first claimed, which depends on
// scheduling.
func (r *Resolver) Resolve(ctx context.Context, ids []string, version model.PlatformVersion) ([]*model.ModRecord, error) {
	rn := &run{Resolver: r, version: version, state: newState()}
	if r.limit > 0 {
		rn.sem = semaphore.NewWeighted(r.limit)
	}

	if err := rn.resolveAll(ctx, ids, ""); err != nil {
		return nil, err
	}

	records := rn.state.snapshot()
	r.log.WithFields(logrus.Fields{
		"requested": len(ids),
		"resolved":  len(records),
		"platform":  version.String(),
	}).Debug("resolution complete")
	return records, nil
}

// resolveAll resolves ids concurrently and waits for all of them.
func (rn *run) resolveAll(ctx context.Context, ids []string, parent string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		rn.dispatch(g, func() error {
			return rn.resolve(ctx, id, parent)
		})
	}
	return g.Wait()
}

// dispatch starts one resolution task. All fan-out goes through here.
func (rn *run) dispatch(g *errgroup.Group, task func() error) {
	g.Go(task)
}

// resolve handles a single id and, recursively, its dependencies.
func (rn *run) resolve(ctx context.Context, id, parent string) error {
	if !rn.state.claim(id) {
		return nil
	}

	rec, err := rn.lookup(ctx, id)
	if err != nil {
		return rn.wrap(ctx, err, id, parent)
	}
	rn.state.fill(rec)

	rn.log.WithFields(logrus.Fields{
		"mod_id":       id,
		"file":         rec.FileName,
		"dependencies": len(rec.DependencyIDs),
	}).Debug("resolved mod")

	if len(rec.DependencyIDs) == 0 {
		return nil
	}
	return rn.resolveAll(ctx, rec.DependencyIDs, id)
}

func (rn *run) lookup(ctx context.Context, id string) (*model.ModRecord, error) {
	if rn.sem != nil {
		if err := rn.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer rn.sem.Release(1)
	}

	rec, err := rn.source.Lookup(ctx, id, rn.version)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("mod %s: source returned no record", id)
	}
	if rec.ModID != id {
		// Keys of the state must match the ids dependencies point at.
		cp := *rec
		cp.ModID = id
		rec = &cp
	}
	return rec, nil
}

func (rn *run) wrap(ctx context.Context, err error, id, parent string) error {
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		return &ModNotFoundError{ModID: id, RequiredBy: parent, Version: rn.version.String(), Err: err}
	case ctx.Err() != nil:
		// A sibling failed first; its error is the one reported.
		return ctx.Err()
	default:
		return &TransportError{ModID: id, Err: err}
	}
}
