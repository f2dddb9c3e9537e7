// Package resolver computes the set of mods an install needs.
//
// Given the requested mod ids and a platform version, the Resolver
// queries a metadata.Source for every id, follows the required
// dependencies of each result and returns the deduplicated closure:
//
//	r := resolver.New(source)
//	records, err := r.Resolve(ctx, []string{"238222"}, version)
//
// # Concurrency
//
// Every requested id and every dependency is resolved in its own
// goroutine. A branch completes once all of its dependencies have. The
// shared state claims an id before fetching it, so a mod reached through
// several branches (or through a cycle) is fetched and descended exactly
// once.
//
// Fan-out is unbounded by default; WithLimit caps concurrent lookups.
//
// # Errors
//
// Resolution is fail-fast. The first failure cancels all other branches
// and Resolve returns it without any records:
//   - *ModNotFoundError when a mod has no compatible release
//   - *TransportError when the metadata source failed
//
// Both match errors.Is(err, resolver.ErrResolve).
package resolver
