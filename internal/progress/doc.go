// Package progress aggregates per-job download progress and hands
// snapshots to a Renderer.
//
// # Lifecycle
//
//	display := progress.New(renderer, 100*time.Millisecond)
//
//	// One handle per job
//	h := display.Attach("jei-1.12.2.jar", expectedSize)
//	h.SetTotal(contentLength) // once known
//	h.Advance(int64(n))       // for every chunk
//	h.Finish(err)             // nil on success
//
//	// After every job finished
//	display.Join()
//
// # Renderers
//
//   - TextRenderer: prints a line per finished job
//   - Nop: draws nothing
//   - tui.Renderer: one animated bar per job (see internal/tui)
//
// # Events
//
// Event and Level carry user-facing messages of the install pipeline:
//
//	onProgress(progress.Event{Message: "Resolved 12 mods", Level: progress.LevelSuccess})
package progress
