package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PrettyLogger writes operator-facing output: run summaries, session
// details and session tables.
type PrettyLogger struct {
	writer io.Writer
	styles PrettyStyles
}

// PrettyStyles holds the lipgloss styles used by PrettyLogger.
type PrettyStyles struct {
	Success lipgloss.Style
	Failure lipgloss.Style
	Running lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Path    lipgloss.Style
	Header  lipgloss.Style
}

// DefaultPrettyStyles uses the 16-color ANSI palette.
func DefaultPrettyStyles() PrettyStyles {
	return PrettyStyles{
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Failure: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Running: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Path:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Italic(true),
		Header:  lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

// NewPrettyLogger writes to stderr until WithWriter is called.
func NewPrettyLogger() *PrettyLogger {
	return &PrettyLogger{
		writer: os.Stderr,
		styles: DefaultPrettyStyles(),
	}
}

func (p *PrettyLogger) WithWriter(w io.Writer) *PrettyLogger {
	p.writer = w
	return p
}

func (p *PrettyLogger) Success(message string) {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.styles.Success.Render("✓"),
		p.styles.Success.Render(message))
}

func (p *PrettyLogger) Field(key string, value interface{}) {
	fmt.Fprintf(p.writer, "%s: %s\n",
		p.styles.Key.Render(key),
		p.styles.Value.Render(fmt.Sprint(value)))
}

func (p *PrettyLogger) Path(label string, path string) {
	fmt.Fprintf(p.writer, "%s: %s\n",
		p.styles.Key.Render(label),
		p.styles.Path.Render(path))
}

// Status renders a session status (completed, failed, running, interrupted)
// in its color. Unknown values are returned unstyled.
func (p *PrettyLogger) Status(status string) string {
	switch status {
	case "completed":
		return p.styles.Success.Render(status)
	case "failed":
		return p.styles.Failure.Render(status)
	case "running":
		return p.styles.Running.Render(status)
	case "interrupted":
		return p.styles.Muted.Render(status)
	default:
		return status
	}
}

// Table renders rows in left-aligned columns sized to their widest cell.
// Widths are measured with lipgloss so styled cells line up.
func (p *PrettyLogger) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	line := func(cells []string, style func(string) string) string {
		out := make([]string, 0, len(cells))
		for i := 0; i < len(cells) && i < len(widths); i++ {
			cell := cells[i]
			if gap := widths[i] - lipgloss.Width(cell); gap > 0 {
				cell += strings.Repeat(" ", gap)
			}
			out = append(out, style(cell))
		}
		return strings.TrimRight(strings.Join(out, "  "), " ")
	}

	fmt.Fprintln(p.writer, line(headers, func(s string) string { return p.styles.Header.Render(s) }))
	for _, row := range rows {
		fmt.Fprintln(p.writer, line(row, func(s string) string { return s }))
	}
}

// Divider prints a horizontal rule.
func (p *PrettyLogger) Divider() {
	fmt.Fprintln(p.writer, p.styles.Key.Render(strings.Repeat("─", 60)))
}
