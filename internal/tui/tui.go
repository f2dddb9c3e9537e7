// Package tui provides a Bubble Tea terminal renderer for modpkg downloads.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	modprogress "github.com/modpkg/modpkg/internal/progress"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(0, 2)
)

// PrefixWidth is the number of columns reserved for a job name.
const PrefixWidth = 20

const maxLogs = 10

// Message types
type (
	// StatesMsg carries a new snapshot of every job.
	StatesMsg struct {
		States []modprogress.BarState
	}

	// LogMsg is a user-facing message shown below the bars.
	LogMsg struct {
		Event modprogress.Event
	}

	// DoneMsg ends the program after drawing the final frame.
	DoneMsg struct{}
)

// Model is the Bubble Tea model for the download view.
type Model struct {
	progress progress.Model
	bars     []modprogress.BarState
	logs     []modprogress.Event
	verbose  bool
	done     bool
	width    int
}

// NewModel creates a new TUI model. Verbose messages are dropped unless
// verbose is set.
func NewModel(verbose bool) Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return Model{
		progress: prog,
		verbose:  verbose,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = msg.Width - PrefixWidth - 24
		if m.progress.Width > 60 {
			m.progress.Width = 60
		}
		if m.progress.Width < 10 {
			m.progress.Width = 10
		}

	case StatesMsg:
		m.bars = msg.States

	case LogMsg:
		// Filter verbose messages if not in verbose mode
		if msg.Event.Level == modprogress.LevelVerbose && !m.verbose {
			return m, nil
		}
		m.logs = append(m.logs, msg.Event)
		if len(m.logs) > maxLogs {
			m.logs = m.logs[len(m.logs)-maxLogs:]
		}

	case DoneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("modpkg"))
	b.WriteString("\n")

	for _, bar := range m.bars {
		b.WriteString(m.renderBar(bar))
		b.WriteString("\n")
	}

	if len(m.logs) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderLogs())
	}

	if m.done && len(m.bars) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderSummary())
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderBar(bar modprogress.BarState) string {
	prefix := fmt.Sprintf("%-*s", PrefixWidth, Truncate(bar.Name, PrefixWidth))

	var status string
	switch {
	case bar.Done && bar.Err != nil:
		status = errorStyle.Render("✗ failed")
	case bar.Done:
		status = successStyle.Render("✓ " + modprogress.FormatBytes(bar.Written))
	default:
		status = dimStyle.Render(modprogress.FormatBytes(bar.Written) + " / " + modprogress.FormatBytes(bar.Total))
	}

	return prefix + " " + m.progress.ViewAs(bar.Percent()) + " " + status
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case modprogress.LevelError:
			style = errorStyle
			prefix = "✗"
		case modprogress.LevelWarning:
			style = warningStyle
			prefix = "!"
		case modprogress.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case modprogress.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderSummary() string {
	var ok, failed int
	var written int64
	for _, bar := range m.bars {
		switch {
		case bar.Done && bar.Err == nil:
			ok++
			written += bar.Written
		case bar.Done:
			failed++
		}
	}

	text := fmt.Sprintf("Installed %d of %d mods (%s)", ok, len(m.bars), modprogress.FormatBytes(written))
	if failed > 0 {
		text += "\n" + errorStyle.Render(fmt.Sprintf("%d failed", failed))
	}
	return boxStyle.Render(text)
}

// Truncate shortens s to at most width runes, marking the cut with "…".
func Truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

// Renderer draws a progress.Display through a Bubble Tea program.
//
// The program reads no input and installs no signal handler, so the CLI
// keeps ownership of stdin and SIGINT.
//
// Example:
//
//	r := tui.NewRenderer(os.Stdout, settings.Verbose)
//	display := progress.New(r, settings.RefreshInterval())
//	// ... downloads ...
//	display.Join() // closes r
type Renderer struct {
	program *tea.Program
	exited  chan struct{}
	err     error
}

// NewRenderer starts the program writing to w.
func NewRenderer(w io.Writer, verbose bool) *Renderer {
	r := &Renderer{
		program: tea.NewProgram(NewModel(verbose),
			tea.WithInput(nil),
			tea.WithOutput(w),
			tea.WithoutSignalHandler(),
		),
		exited: make(chan struct{}),
	}

	go func() {
		defer close(r.exited)
		_, r.err = r.program.Run()
	}()

	return r
}

// Render implements progress.Renderer.
func (r *Renderer) Render(states []modprogress.BarState) {
	r.program.Send(StatesMsg{States: states})
}

// Log shows a user-facing message below the bars.
func (r *Renderer) Log(event modprogress.Event) {
	r.program.Send(LogMsg{Event: event})
}

// Close implements progress.Renderer. It waits for the final frame.
func (r *Renderer) Close() {
	r.program.Send(DoneMsg{})
	<-r.exited
}

// Err returns the error the program exited with, if any. Only valid after
// Close.
func (r *Renderer) Err() error {
	return r.err
}
