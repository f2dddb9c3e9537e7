package manifest

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/modpkg/modpkg/internal/model"
)

// LockFile records what an install put on disk.
//
// Example:
//
//	# generated by modpkg, do not edit
//	platform = "1.12.2"
//	generated = 2024-03-01T12:00:00Z
//
//	[[mod]]
//	id = "238222"
//	name = "Just Enough Items"
//	file = "jei_1.12.2-4.16.1.302.jar"
//	url = "https://edge.forgecdn.net/files/3043/174/jei_1.12.2-4.16.1.302.jar"
type LockFile struct {
	Platform  string      `toml:"platform"`
	Generated time.Time   `toml:"generated"`
	Mods      []LockedMod `toml:"mod"`
}

// LockedMod is one installed artifact.
type LockedMod struct {
	ID   string `toml:"id"`
	Name string `toml:"name,omitempty"`
	File string `toml:"file"`
	URL  string `toml:"url"`
}

const lockHeader = "# generated by modpkg, do not edit\n"

// NewLockFile builds a lock file from installed records, sorted by id.
func NewLockFile(platform model.PlatformVersion, records []*model.ModRecord) *LockFile {
	lock := &LockFile{
		Platform:  platform.String(),
		Generated: time.Now().UTC().Truncate(time.Second),
		Mods:      make([]LockedMod, 0, len(records)),
	}
	for _, rec := range records {
		lock.Mods = append(lock.Mods, LockedMod{
			ID:   rec.ModID,
			Name: rec.DisplayName,
			File: rec.DiskName(),
			URL:  rec.DownloadURL,
		})
	}
	sort.Slice(lock.Mods, func(i, j int) bool {
		return lock.Mods[i].ID < lock.Mods[j].ID
	})
	return lock
}

// Content renders the lock file.
func (l *LockFile) Content() (string, error) {
	var buf bytes.Buffer
	buf.WriteString(lockHeader)
	if err := toml.NewEncoder(&buf).Encode(l); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write saves the lock file to path.
func (l *LockFile) Write(path string) error {
	content, err := l.Content()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// LoadLockFile reads a lock file from path.
func LoadLockFile(path string) (*LockFile, error) {
	var l LockFile
	if _, err := toml.DecodeFile(path, &l); err != nil {
		return nil, fmt.Errorf("read lock file %s: %w", path, err)
	}
	return &l, nil
}

// Records converts the locked mods back into records without
// dependencies, ready to be downloaded again.
func (l *LockFile) Records() []*model.ModRecord {
	out := make([]*model.ModRecord, len(l.Mods))
	for i, m := range l.Mods {
		out[i] = &model.ModRecord{ModID: m.ID, DisplayName: m.Name, FileName: m.File, DownloadURL: m.URL}
	}
	return out
}
