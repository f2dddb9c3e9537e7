// Package metadata provides the metadata sources the resolver queries.
//
// A Source answers one question: which artifact of a mod is compatible
// with a platform version, and which mods does it require?
//
// # API Source
//
// APISource talks to a CurseForge-style JSON API:
//
//	GET {base}/addon/{id}/files
//
// returns every file of a mod together with its declared game versions
// and dependencies. The newest compatible file wins; only dependencies of
// type "required" are followed.
//
// # Errors
//
// Business misses (unknown mod, no file for the version) wrap ErrNotFound.
// Everything else is a transport or decoding failure:
//
//	rec, err := src.Lookup(ctx, id, version)
//	switch {
//	case errors.Is(err, metadata.ErrNotFound):
//	    // not available for this version
//	case err != nil:
//	    // network trouble
//	}
//
// # Static Source
//
// StaticSource serves records from memory and is mostly useful in tests.
package metadata
