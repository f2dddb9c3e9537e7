// Package download fetches resolved mod artifacts into a target directory.
//
// # Downloader
//
// The Downloader runs one job per record, concurrently:
//
//  1. Normalize the artifact file name
//  2. Open a streamed GET (retried while no byte was written)
//  3. Create or truncate the target file
//  4. Stream chunks through the shared write pool
//  5. Advance the job's progress handle after every chunk
//
// # Basic Usage
//
//	dl := download.New(client, download.SettingsOptions(settings)...)
//
//	report, err := dl.DownloadAll(ctx, records, settings.ModsDirectory)
//	for _, failed := range report.Failed {
//	    fmt.Println(failed.Mod.ModID, failed.Kind)
//	}
//
// # Failures
//
// A failing job does not stop its siblings by default. DownloadAll waits
// for every job and returns a *multierror.Error whose entries are
// *JobError values, each classified as KindTransport, KindFilesystem or
// KindCancelled. The truncated file of a failed job is removed unless
// WithKeepPartialFiles is set.
//
// # Retry Logic
//
// Opening a stream is retried with exponential backoff, configurable via
// settings.DownloadMaxRetries, settings.DownloadRetryCooldown and
// settings.DownloadRetryExponent.
package download
