// Package observability provides formatted output utilities for verbose CLI
// mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/azournas/art-agent/internal/inspect"
	"github.com/azournas/art-agent/internal/pipeline"
)

// boxWidth is the default width for formatted output boxes
const boxWidth = 60

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProfile outputs a human-readable summary of a data profile.
func (p *Printer) PrintProfile(profile inspect.Profile) {
	var sb strings.Builder
	if profile.OK {
		sb.WriteString(fmt.Sprintf("Columns:  %d\n", len(profile.Columns)))
		for _, col := range profile.Columns {
			sb.WriteString(fmt.Sprintf("  - %s\n", col))
		}
	} else {
		sb.WriteString("Inspection failed\n")
		sb.WriteString(profile.Description)
	}
	p.printBox("Data Profile", strings.TrimRight(sb.String(), "\n"))
}

// PrintReport outputs an execution report.
func (p *Printer) PrintReport(title, report string) {
	p.printBox(title, report)
}

// PrintEvent writes one progress event as a step line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintEvent(e pipeline.Event) {
	if e.Level == pipeline.LevelError {
		fmt.Fprintf(p.out, "ERROR: %s\n", e.Message)
		return
	}
	if e.Total > 0 {
		fmt.Fprintf(p.out, "Step %d/%d: %s\n", e.Step, e.Total, e.Message)
		return
	}
	fmt.Fprintf(p.out, "%s\n", e.Message)
}
