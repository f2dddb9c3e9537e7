package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/modpkg/modpkg/internal/progress"
	"github.com/modpkg/modpkg/internal/tui"
)

// console prints user-facing events and owns the progress renderer.
// While a TUI renderer is active, events are shown inside it.
type console struct {
	out     io.Writer
	verbose bool
	plain   bool

	mu     sync.Mutex
	active *tui.Renderer
}

func newConsole(out io.Writer, verbose, plain bool) *console {
	if !plain {
		f, ok := out.(*os.File)
		plain = !ok || !term.IsTerminal(int(f.Fd()))
	}
	return &console{out: out, verbose: verbose, plain: plain}
}

func (c *console) Event(event progress.Event) {
	if event.Level == progress.LevelVerbose && !c.verbose {
		return
	}

	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	if active != nil {
		active.Log(event)
		return
	}

	prefix := ""
	switch event.Level {
	case progress.LevelError:
		prefix = "✗ "
	case progress.LevelWarning:
		prefix = "! "
	case progress.LevelSuccess:
		prefix = "✓ "
	case progress.LevelInfo:
		prefix = "› "
	default:
		prefix = "  "
	}
	fmt.Fprintln(c.out, prefix+event.Message)
}

func (c *console) NewRenderer() progress.Renderer {
	if c.plain {
		return progress.NewTextRenderer(c.out)
	}

	r := tui.NewRenderer(c.out, c.verbose)
	c.mu.Lock()
	c.active = r
	c.mu.Unlock()
	return &consoleRenderer{Renderer: r, console: c}
}

// consoleRenderer detaches the TUI from the console before closing it.
type consoleRenderer struct {
	*tui.Renderer
	console *console
}

func (r *consoleRenderer) Close() {
	r.console.mu.Lock()
	r.console.active = nil
	r.console.mu.Unlock()

	r.Renderer.Close()
}
