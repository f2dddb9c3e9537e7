package dto

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/modpkg/modpkg/internal/model"
)

// DependencyTypeRequired marks a dependency that must be installed
// alongside the mod. Other types (embedded, optional, tool, incompatible)
// are ignored by the resolver.
const DependencyTypeRequired = 3

// FileTime is a custom time type that handles the API's date formats.
type FileTime struct {
	time.Time
}

// UnmarshalJSON parses dates like "2019-07-12T17:19:35.613Z".
func (ft *FileTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if s == "" {
		ft.Time = time.Time{}
		return nil
	}

	formats := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.999",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			ft.Time = t
			return nil
		}
	}

	return fmt.Errorf("unable to parse date: %s", s)
}

// JSONModFile represents one release file of a mod.
type JSONModFile struct {
	ID           int64            `json:"id"`
	DisplayName  string           `json:"displayName"`
	FileName     string           `json:"fileName"`
	FileDate     FileTime         `json:"fileDate"`
	DownloadURL  string           `json:"downloadUrl"`
	GameVersions []string         `json:"gameVersion"`
	Dependencies []JSONDependency `json:"dependencies"`
}

// JSONDependency is a dependency edge declared by a file.
type JSONDependency struct {
	AddonID int64 `json:"addonId"`
	Type    int   `json:"type"`
}

// SupportsVersion reports whether the file declares compatibility with v.
func (f *JSONModFile) SupportsVersion(v model.PlatformVersion) bool {
	for _, gv := range f.GameVersions {
		if v.Matches(gv) {
			return true
		}
	}
	return false
}

// ToRecord converts the file to a model.ModRecord for the given mod id.
// Only required dependencies are kept; duplicates are dropped while
// preserving declaration order.
func (f *JSONModFile) ToRecord(modID string) *model.ModRecord {
	var deps []string
	seen := make(map[int64]bool)
	for _, d := range f.Dependencies {
		if d.Type != DependencyTypeRequired || seen[d.AddonID] {
			continue
		}
		seen[d.AddonID] = true
		deps = append(deps, strconv.FormatInt(d.AddonID, 10))
	}

	return &model.ModRecord{
		ModID:         modID,
		DisplayName:   f.DisplayName,
		FileName:      f.FileName,
		DownloadURL:   f.DownloadURL,
		DependencyIDs: deps,
	}
}
