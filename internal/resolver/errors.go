package resolver

import (
	"errors"
	"fmt"
)

// ErrResolve matches every error produced by the resolver itself.
var ErrResolve = errors.New("resolve failed")

// ModNotFoundError reports a requested or transitively required mod that
// has no artifact compatible with the platform version.
type ModNotFoundError struct {
	ModID string
	// RequiredBy is the mod that declared the dependency. Empty for
	// requested mods.
	RequiredBy string
	Version    string
	Err        error
}

func (e *ModNotFoundError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("mod %s (required by %s) has no release for platform version %s", e.ModID, e.RequiredBy, e.Version)
	}
	return fmt.Sprintf("mod %s has no release for platform version %s", e.ModID, e.Version)
}

func (e *ModNotFoundError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrResolve) succeed.
func (e *ModNotFoundError) Is(target error) bool { return target == ErrResolve }

// TransportError reports a metadata source failure while looking up a mod.
type TransportError struct {
	ModID string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("looking up mod %s: %v", e.ModID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrResolve) succeed.
func (e *TransportError) Is(target error) bool { return target == ErrResolve }
