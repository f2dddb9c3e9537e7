// Package config provides configuration management for modpkg.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Conversion of second-based values to durations
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Installs into ./mods
//	// Unbounded resolve and download fan-out
//	// Four file write workers
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.json")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Configuration Options
//
// Settings includes options for:
//   - Target directory, platform version and manifest location
//   - Metadata API endpoint and request timeout
//   - Concurrency caps for lookups, downloads and file writes
//   - Retry behavior and bandwidth limit
//   - Failure policy (cancel siblings, keep partial files)
//   - Progress display
package config
