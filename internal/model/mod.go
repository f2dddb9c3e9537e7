package model

import (
	"regexp"
	"strings"
)

// ArtifactExtension is the file extension every installed mod carries on disk.
const ArtifactExtension = ".jar"

// ModRecord describes one fetchable artifact as returned by a metadata source.
//
// A ModRecord is immutable once fetched. The resolver owns it until the
// resolved set is emitted; after that it is shared read-only with the
// downloader.
//
// Example:
//
//	rec := &ModRecord{
//	    ModID:         "238222",
//	    DisplayName:   "Just Enough Items",
//	    FileName:      "jei_1.12.2-4.15.0.291",
//	    DownloadURL:   "https://media.example.com/files/2995/840/jei_1.12.2-4.15.0.291.jar",
//	    DependencyIDs: nil,
//	}
//	rec.DiskName() // "jei_1.12.2-4.15.0.291.jar"
type ModRecord struct {
	// ModID is the opaque, stable identifier of the mod.
	ModID string

	// DisplayName is the human readable name shown in the UI.
	DisplayName string

	// FileName is the remote file name. It may or may not carry
	// ArtifactExtension.
	FileName string

	// DownloadURL is where the artifact bytes are fetched from.
	DownloadURL string

	// DependencyIDs lists the required dependencies in declaration order.
	DependencyIDs []string
}

// DiskName returns the normalized on-disk file name for this record.
// Records without a file name fall back to the mod id.
func (m *ModRecord) DiskName() string {
	name := m.FileName
	if strings.TrimSpace(name) == "" {
		name = m.ModID
	}
	return NormalizeFileName(name)
}

// Label returns the display name, or the mod id when no name is known.
func (m *ModRecord) Label() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.ModID
}

// NormalizeFileName computes the on-disk file name for a remote file name.
//
// Invalid characters are replaced (see sanitizeFileName) and
// ArtifactExtension is appended unless the name already ends with it
// (case-insensitive). Applying it twice yields the same result as once.
//
// Example:
//
//	NormalizeFileName("jei-1.12.2")     // "jei-1.12.2.jar"
//	NormalizeFileName("jei-1.12.2.jar") // "jei-1.12.2.jar"
//	NormalizeFileName("Mod: Core")      // "Mod_ Core.jar"
func NormalizeFileName(name string) string {
	name = sanitizeFileName(name)
	if !HasArtifactExtension(name) {
		name += ArtifactExtension
	}
	return name
}

// HasArtifactExtension reports whether name already ends in ArtifactExtension.
func HasArtifactExtension(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ArtifactExtension)
}

var (
	invalidChars  = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots  = regexp.MustCompile(`\.+$`)
	repeatedSpace = regexp.MustCompile(`\s+`)
)

// sanitizeFileName removes or replaces characters that are invalid in
// file names on any supported OS.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are replaced with underscore
//   - Trailing dots are removed (Windows limitation)
//   - Multiple whitespace is collapsed to single space
//   - Trailing whitespace is removed
//
// Example:
//
//	sanitizeFileName("Mod: Part 1/2") // Returns "Mod_ Part 1_2"
func sanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = repeatedSpace.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}
