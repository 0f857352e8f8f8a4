package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	// fatih/color disables these automatically when output is not a TTY
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
	dimColor     = color.New(color.FgHiBlack)
)

// Summary lines printed at the end of every batch command.
const (
	summarySuccess = "Process completed"
	summaryFailure = "Process completed with errors"
)

// printer writes user-facing output. Errors go to err, everything else to out.
type printer struct {
	out io.Writer
	err io.Writer
}

// Section prints a section header
func (p *printer) Section(title string) {
	fmt.Fprintln(p.out)
	_, _ = headerColor.Fprintf(p.out, "▸ %s\n", title)
	fmt.Fprintln(p.out)
}

// Success prints a success message with a checkmark
func (p *printer) Success(msg string) {
	_, _ = successColor.Fprintf(p.out, "✓ %s\n", msg)
}

// Warning prints a warning message with a warning symbol
func (p *printer) Warning(msg string) {
	_, _ = warningColor.Fprintf(p.out, "⚠ %s\n", msg)
}

// Error prints one "Error: <message>" line.
func (p *printer) Error(err error) {
	_, _ = errorColor.Fprintf(p.err, "Error: %v\n", err)
}

// Info prints an informational message
func (p *printer) Info(msg string) {
	fmt.Fprintln(p.out, msg)
}

// LabelValue prints a label-value pair
func (p *printer) LabelValue(label, value string) {
	_, _ = labelColor.Fprintf(p.out, "  %s: ", label)
	_, _ = valueColor.Fprintln(p.out, value)
}

// List prints items with bullet points
func (p *printer) List(items []string, indent int) {
	indentStr := strings.Repeat("  ", indent)
	for _, item := range items {
		_, _ = infoColor.Fprintf(p.out, "%s• %s\n", indentStr, item)
	}
}

// Table prints a simple column-aligned table
func (p *printer) Table(headers []string, rows [][]string) {
	if len(headers) == 0 || len(rows) == 0 {
		return
	}

	colWidths := make([]int, len(headers))
	for i, header := range headers {
		colWidths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	fmt.Fprint(p.out, "  ")
	for i, header := range headers {
		if i > 0 {
			fmt.Fprint(p.out, "  ")
		}
		_, _ = headerColor.Fprintf(p.out, "%-*s", colWidths[i], header)
	}
	fmt.Fprintln(p.out)

	fmt.Fprint(p.out, "  ")
	for i, width := range colWidths {
		if i > 0 {
			fmt.Fprint(p.out, "  ")
		}
		fmt.Fprint(p.out, strings.Repeat("-", width))
	}
	fmt.Fprintln(p.out)

	for _, row := range rows {
		fmt.Fprint(p.out, "  ")
		for i, cell := range row {
			if i >= len(colWidths) {
				break
			}
			if i > 0 {
				fmt.Fprint(p.out, "  ")
			}
			_, _ = stateColor(cell).Fprintf(p.out, "%-*s", colWidths[i], cell)
		}
		fmt.Fprintln(p.out)
	}
}

// EmptyState prints a message when there's no data to show
func (p *printer) EmptyState(msg string) {
	_, _ = dimColor.Fprintf(p.out, "  %s\n", msg)
}

// Summary prints the closing line of a batch command.
func (p *printer) Summary(failed bool) {
	if failed {
		_, _ = errorColor.Fprintln(p.out, summaryFailure)
		return
	}
	_, _ = successColor.Fprintln(p.out, summarySuccess)
}

// countNoun formats a count with the right noun form
func countNoun(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// stateColor highlights status table cells that name an entry state.
func stateColor(cell string) *color.Color {
	switch cell {
	case "linked", "copied":
		return successColor
	case "modified", "missing":
		return warningColor
	case "foreign", "source-missing":
		return errorColor
	default:
		return valueColor
	}
}
