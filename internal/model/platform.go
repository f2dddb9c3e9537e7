package model

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// PlatformVersion is the target platform (game) version every metadata
// lookup of a run is parameterized by. It is fixed once per invocation.
type PlatformVersion struct {
	raw    string
	parsed *semver.Version
}

// ParsePlatformVersion parses a version such as "1.12.2".
//
// Versions that are not semver-like (snapshots such as "20w14a") are
// accepted too; they only ever match exactly.
func ParsePlatformVersion(raw string) (PlatformVersion, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PlatformVersion{}, fmt.Errorf("platform version must not be empty")
	}
	v := PlatformVersion{raw: raw}
	if parsed, err := semver.NewVersion(raw); err == nil {
		v.parsed = parsed
	}
	return v, nil
}

// MustParsePlatformVersion is like ParsePlatformVersion but panics on error.
func MustParsePlatformVersion(raw string) PlatformVersion {
	v, err := ParsePlatformVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as given by the user.
func (v PlatformVersion) String() string {
	return v.raw
}

// IsZero reports whether the version was never set.
func (v PlatformVersion) IsZero() bool {
	return v.raw == ""
}

// Matches reports whether an artifact's declared game version is
// compatible with v.
//
// Plain entries ("1.12.2") must match exactly. Range entries ("1.12.x",
// ">=1.12 <1.13", "~1.12") are checked as semver constraints. Entries that
// are neither, like "Forge" or "Java 8", never match.
func (v PlatformVersion) Matches(gameVersion string) bool {
	gameVersion = strings.TrimSpace(gameVersion)
	if gameVersion == v.raw {
		return true
	}
	if v.parsed == nil || !isRange(gameVersion) {
		return false
	}
	c, err := semver.NewConstraint(gameVersion)
	if err != nil {
		return false
	}
	return c.Check(v.parsed)
}

func isRange(s string) bool {
	return strings.ContainsAny(s, "xX*~^<>=")
}
