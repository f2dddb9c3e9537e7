// Package install wires the resolver, the downloader and the progress
// display into the install pipeline.
//
//  1. Lock the target directory
//  2. Map requested names and slugs to mod ids
//  3. Resolve the dependency closure (fail-fast)
//  4. Download every artifact with a progress display
//  5. Join the display
//  6. Write the lock file
//
// # Basic Usage
//
//	inst := install.New(source, client, install.SettingsOptions(settings)...)
//
//	req, err := install.FromManifest(m, settings.ModsDirectory)
//	result, err := inst.Install(ctx, req)
//
// User-facing messages are reported through the OnProgress callback:
//
//	install.OnProgress(func(e progress.Event) {
//	    fmt.Println(e.Level, e.Message)
//	})
package install
