package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/portfolio/internal/render"
)

// line is one prefixed diagnostic or result line. The icon is dropped when
// colors are off; the label is kept.
type line struct {
	icon  string
	label string
	color string
	bold  bool
	dim   bool
}

var (
	successLine = line{icon: "✔", color: "2"}
	errorLine   = line{icon: "✘", label: "Error:", color: "1", bold: true}
	warnLine    = line{icon: "⚠", label: "Warning:", color: "3", bold: true}
	infoLine    = line{icon: "ℹ", color: "8", dim: true}
	hintLine    = line{label: "Hint:", color: "8", dim: true}
)

func (l line) write(w io.Writer, msg string) {
	if !render.ColorsEnabled() {
		if l.label != "" {
			msg = l.label + " " + msg
		}
		fmt.Fprintln(w, msg)
		return
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(l.color)).Bold(l.bold)
	parts := make([]string, 0, 3)
	if l.icon != "" {
		parts = append(parts, style.Render(l.icon))
	}
	if l.label != "" {
		parts = append(parts, style.Render(l.label))
	}
	if l.dim {
		msg = style.Render(msg)
	}
	parts = append(parts, msg)
	fmt.Fprintln(w, strings.Join(parts, " "))
}

// writeHumanSuccess prints message. Multi-line content (tables, boards,
// detail views) is printed as-is; a single line gets a checkmark.
func writeHumanSuccess(w io.Writer, message string) {
	if message == "" {
		return
	}
	if strings.Contains(message, "\n") {
		fmt.Fprintln(w, message)
		return
	}
	successLine.write(w, message)
}

// hints suggest a next step for error codes where one is obvious.
var hints = map[ErrorCode]string{
	ErrStorage: "run 'portfolio config' to check the database location",
}

func writeHumanError(w io.Writer, err error, code ErrorCode) {
	errorLine.write(w, err.Error())
	if hint, ok := hints[code]; ok {
		hintLine.write(w, hint)
	}
}
