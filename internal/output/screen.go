package output

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/chris-regnier/bailiff/internal/issue"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("13"))

	severityStyles = map[issue.Level]lipgloss.Style{
		issue.Undefined: lipgloss.NewStyle(),
		issue.Low:       lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		issue.Medium:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		issue.High:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// ScreenFormatter renders the text report with terminal colours: headers
// and issues are coloured by lipgloss and code snippets are highlighted
// with chroma.
type ScreenFormatter struct{}

// Format renders the report for a terminal.
func (f *ScreenFormatter) Format(r *Report) ([]byte, error) {
	return []byte(renderHuman(r, newScreenPainter())), nil
}

type screenPainter struct {
	lexer chroma.Lexer
	style *chroma.Style
}

func newScreenPainter() *screenPainter {
	lexer := lexers.Get("python")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	return &screenPainter{lexer: chroma.Coalesce(lexer), style: style}
}

func (p *screenPainter) header(s string) string {
	// Leading newlines stay outside the styled span.
	trimmed := strings.TrimLeft(s, "\n")
	return s[:len(s)-len(trimmed)] + headerStyle.Render(trimmed)
}

func (p *screenPainter) issue(sev issue.Level, s string) string {
	style := severityStyles[sev]
	lines := strings.Split(s, "\n")
	for k, l := range lines {
		lines[k] = style.Render(l)
	}
	return strings.Join(lines, "\n")
}

// code highlights a numbered snippet line ("12\tsource").
func (p *screenPainter) code(line string) string {
	num, src, ok := strings.Cut(line, "\t")
	if !ok {
		return line
	}
	hl, err := highlightLine(src, p.lexer, p.style)
	if err != nil {
		hl = src
	}
	return lineNumberStyle.Render(num) + "\t" + hl
}

func highlightLine(line string, lexer chroma.Lexer, style *chroma.Style) (string, error) {
	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := formatters.TTY256.Format(&b, style, iterator); err != nil {
		return "", err
	}
	// Lexers may append a newline to the input.
	return strings.ReplaceAll(b.String(), "\n", ""), nil
}
