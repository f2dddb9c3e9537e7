// Package tui draws download progress as one animated bar per job.
//
// # Renderer
//
// Renderer implements progress.Renderer on top of a Bubble Tea program:
//
//	r := tui.NewRenderer(os.Stdout, verbose)
//	display := progress.New(r, 100*time.Millisecond)
//
// Every snapshot of the display becomes a StatesMsg; user-facing events
// can be shown below the bars with Log. Closing the renderer draws a
// summary box and waits for the program to exit.
//
// # Layout
//
//	modpkg
//
//	jei-1.12.2.jar       ████████████░░░░░░░░ 1.2 MB / 2.4 MB
//	journeymap-1.12.2-…  ████████████████████ ✓ 3.1 MB
//
//	› Resolved 12 mods
package tui
