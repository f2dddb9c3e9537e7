package progress

import (
	"fmt"
	"io"
)

// TextRenderer prints one line per finished job. It suits logs and pipes,
// where redrawing bars is not possible.
type TextRenderer struct {
	w        io.Writer
	reported map[int]bool
}

// NewTextRenderer returns a renderer writing to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w, reported: make(map[int]bool)}
}

// Render prints jobs that finished since the last call.
func (r *TextRenderer) Render(states []BarState) {
	for _, s := range states {
		if !s.Done || r.reported[s.ID] {
			continue
		}
		r.reported[s.ID] = true

		if s.Err != nil {
			fmt.Fprintf(r.w, "✗ %s: %v\n", s.Name, s.Err)
			continue
		}
		fmt.Fprintf(r.w, "✓ %s (%s)\n", s.Name, FormatBytes(s.Written))
	}
}

// Close implements Renderer.
func (r *TextRenderer) Close() {}

// Nop is a Renderer that draws nothing.
type Nop struct{}

// Render implements Renderer.
func (Nop) Render([]BarState) {}

// Close implements Renderer.
func (Nop) Close() {}

// FormatBytes formats a byte count for humans.
//
// Example:
//
//	FormatBytes(512)       // "512 B"
//	FormatBytes(2_500_000) // "2.4 MB"
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
