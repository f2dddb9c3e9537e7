package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// DefaultAPIBaseURL is the metadata API used when no other is configured.
const DefaultAPIBaseURL = "https://addons-ecs.forgesvc.net/api/v2"

// Settings holds all configuration options.
type Settings struct {
	// Install settings
	ModsDirectory   string `json:"mods_directory"`
	PlatformVersion string `json:"platform_version"`
	ManifestPath    string `json:"manifest_path"`
	LockFilePath    string `json:"lock_file_path"`
	DatabasePath    string `json:"database_path"`

	// Metadata source
	APIBaseURL            string  `json:"api_base_url"`
	RequestTimeout        float64 `json:"request_timeout"`
	MaxConcurrentResolves int     `json:"max_concurrent_resolves"`

	// Download settings
	MaxConcurrentDownloads int     `json:"max_concurrent_downloads"`
	MaxConcurrentWrites    int     `json:"max_concurrent_writes"`
	DownloadMaxRetries     int     `json:"download_max_retries"`
	DownloadRetryCooldown  float64 `json:"download_retry_cooldown"`
	DownloadRetryExponent  float64 `json:"download_retry_exponent"`
	BandwidthLimit         int64   `json:"bandwidth_limit"`
	CancelOnFailure        bool    `json:"cancel_on_failure"`
	KeepPartialFiles       bool    `json:"keep_partial_files"`

	// Display settings
	ProgressRefresh float64 `json:"progress_refresh"`
	PlainOutput     bool    `json:"plain_output"`
	Verbose         bool    `json:"verbose"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		ModsDirectory:   "mods",
		PlatformVersion: "",
		ManifestPath:    "minepkg.toml",
		LockFilePath:    "modpkg-lock.toml",
		DatabasePath:    filepath.Join(homeDir, ".modpkg", "complete.json.bz2"),

		APIBaseURL:            DefaultAPIBaseURL,
		RequestTimeout:        30,
		MaxConcurrentResolves: 0,

		MaxConcurrentDownloads: 0,
		MaxConcurrentWrites:    4,
		DownloadMaxRetries:     3,
		DownloadRetryCooldown:  0.2,
		DownloadRetryExponent:  4.0,
		BandwidthLimit:         0,
		CancelOnFailure:        false,
		KeepPartialFiles:       false,

		ProgressRefresh: 0.1,
		PlainOutput:     false,
		Verbose:         false,
	}
}

// Load reads settings from a JSON file. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
// Zero or negative values disable the timeout.
func (s *Settings) RequestTimeoutDuration() time.Duration {
	return seconds(s.RequestTimeout)
}

// RetryCooldown returns the wait before retry number tries (0-indexed).
func (s *Settings) RetryCooldown(tries int) time.Duration {
	cooldown := s.DownloadRetryCooldown
	for i := 0; i < tries; i++ {
		cooldown *= s.DownloadRetryExponent
	}
	return seconds(cooldown)
}

// RefreshInterval returns how often the progress display redraws.
func (s *Settings) RefreshInterval() time.Duration {
	if s.ProgressRefresh <= 0 {
		return 100 * time.Millisecond
	}
	return seconds(s.ProgressRefresh)
}

func seconds(v float64) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}
