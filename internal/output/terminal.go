// Package output formats comparison results for display.
// terminal.go renders colored output to the terminal.
package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/TsekNet/confdiff/internal/compare"
	"github.com/TsekNet/confdiff/internal/diff"
	"github.com/TsekNet/confdiff/internal/value"
)

// Terminal color palette.
var (
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // additions
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // modifications
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // removals
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	bold    = lipgloss.NewStyle().Bold(true)
	dim     = lipgloss.NewStyle().Faint(true)
)

const (
	maxLineWidth = 80         // target line width for truncation
	valueIndent  = "        " // 8 spaces for value lines under a path
)

var severityStyle = map[diff.Severity]lipgloss.Style{
	diff.Critical: magenta,
	diff.Major:    red,
	diff.Minor:    yellow,
	diff.Cosmetic: dim,
}

// TerminalOptions controls terminal rendering.
type TerminalOptions struct {
	// Verbose shows full old/new values instead of truncated snippets.
	Verbose bool
	// MinSeverity hides changes ranked below it. Empty shows everything.
	MinSeverity diff.Severity
}

// RenderTerminal renders a comparison result to styled terminal output.
func RenderTerminal(res *compare.Result, opts TerminalOptions) string {
	var sb strings.Builder
	sb.WriteString(bold.Render(fmt.Sprintf("%s → %s", res.Left, res.Right)))
	sb.WriteString("\n")

	hidden := 0
	var lines []string
	for _, c := range res.Changes {
		if opts.MinSeverity != "" && c.Severity.Rank() < opts.MinSeverity.Rank() {
			hidden++
			continue
		}
		lines = append(lines, renderChange(c, opts.Verbose)...)
	}
	if len(lines) > 0 {
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteString("\n")
	}
	if hidden > 0 {
		sb.WriteString(dim.Render(fmt.Sprintf("  (%d changes below %s hidden)", hidden, opts.MinSeverity)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(renderSummaryBar(res))
	return strings.TrimRight(sb.String(), "\n")
}

// renderChange renders one change as a path line plus indented value lines.
//
// Added:   "+ path" then "= new"
// Removed: "- path" then "was old"
// Changed: "~ path" then "old → new"
//
// Default mode truncates values to fit 80-column lines; verbose mode prints
// them in full.
func renderChange(c diff.Change, verbose bool) []string {
	var head string
	switch c.Kind {
	case diff.Added:
		head = green.Render("  + " + displayPath(c.Path))
	case diff.Removed:
		head = red.Render("  - " + displayPath(c.Path))
	default:
		head = yellow.Render("  ~ " + displayPath(c.Path))
	}
	head += " " + badge(c)

	var body string
	switch c.Kind {
	case diff.Added:
		val := "= " + value.Render(c.NewValue)
		if !verbose {
			val = truncateToFit(val, maxLineWidth-len(valueIndent))
		}
		body = valueIndent + dim.Render(val)
	case diff.Removed:
		val := "was " + value.Render(c.OldValue)
		if !verbose {
			val = truncateToFit(val, maxLineWidth-len(valueIndent))
		}
		body = valueIndent + dim.Render(val)
	default:
		old, nw := value.Render(c.OldValue), value.Render(c.NewValue)
		if !verbose {
			half := (maxLineWidth - len(valueIndent) - len(" → ")) / 2
			old, nw = diffContext(old, nw, half)
		}
		if c.OldType != c.NewType {
			old += dim.Render(" (" + c.OldType.String() + ")")
			nw += dim.Render(" (" + c.NewType.String() + ")")
		}
		body = valueIndent + dim.Render(old+" ") + yellow.Render("→") + dim.Render(" "+nw)
	}
	return []string{head, body}
}

func displayPath(p string) string {
	if p == "" {
		return "(root)"
	}
	return p
}

func badge(c diff.Change) string {
	style, ok := severityStyle[c.Severity]
	if !ok {
		style = dim
	}
	label := string(c.Severity)
	if c.Category != "" && c.Category != diff.Structure {
		label += "/" + string(c.Category)
	}
	return style.Render("[" + label + "]")
}

// truncateToFit shortens a string to maxWidth display columns, appending
// "..." if truncated.
func truncateToFit(s string, maxWidth int) string {
	if maxWidth < 4 {
		maxWidth = 4
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// diffContext extracts a short window around the first point where old and new
// diverge. Returns (oldSnippet, newSnippet) each at most maxWidth columns,
// starting a little before the first difference. If the strings are short
// enough already, returns them unchanged.
func diffContext(old, new string, maxWidth int) (string, string) {
	if maxWidth < 8 {
		maxWidth = 8
	}
	if runewidth.StringWidth(old) <= maxWidth && runewidth.StringWidth(new) <= maxWidth {
		return old, new
	}

	o, n := []rune(old), []rune(new)
	diffAt := 0
	for diffAt < len(o) && diffAt < len(n) && o[diffAt] == n[diffAt] {
		diffAt++
	}

	// Window: start a bit before the diff point so there's context.
	start := max(diffAt-max(maxWidth/4, 4), 0)

	extract := func(r []rune) string {
		s := string(r)
		if runewidth.StringWidth(s) <= maxWidth {
			return s
		}
		prefix := ""
		if start > 0 && start < len(r) {
			prefix = "..."
			s = string(r[start:])
		}
		return prefix + runewidth.Truncate(s, maxWidth-len(prefix), "...")
	}

	return extract(o), extract(n)
}

func renderSummaryBar(res *compare.Result) string {
	s := res.Summary()
	parts := []string{}
	if s.Added > 0 {
		parts = append(parts, green.Render(fmt.Sprintf("%d added", s.Added)))
	}
	if s.Changed > 0 {
		parts = append(parts, yellow.Render(fmt.Sprintf("%d changed", s.Changed)))
	}
	if s.Removed > 0 {
		parts = append(parts, red.Render(fmt.Sprintf("%d removed", s.Removed)))
	}

	line := "Summary: "
	if len(parts) == 0 {
		line += dim.Render("no changes")
	} else {
		line += strings.Join(parts, ", ")
	}
	line += dim.Render(fmt.Sprintf(" (%.1f%% similar)", res.Stats.Similarity))

	var sb strings.Builder
	sb.WriteString(dim.Render(strings.Repeat("-", maxLineWidth)) + "\n")
	sb.WriteString(line)
	if sev := renderBreakdown(res.Stats.BySeverity); sev != "" {
		sb.WriteString("\n" + dim.Render("Severity: ") + sev)
	}
	return sb.String()
}

// renderBreakdown lists non-zero severity counts from critical down.
func renderBreakdown(counts map[diff.Severity]int) string {
	sevs := make([]diff.Severity, 0, len(counts))
	for s, n := range counts {
		if n > 0 {
			sevs = append(sevs, s)
		}
	}
	sort.Slice(sevs, func(i, j int) bool { return sevs[i].Rank() > sevs[j].Rank() })

	parts := make([]string, 0, len(sevs))
	for _, s := range sevs {
		style, ok := severityStyle[s]
		if !ok {
			style = dim
		}
		parts = append(parts, style.Render(fmt.Sprintf("%d %s", counts[s], s)))
	}
	return strings.Join(parts, ", ")
}
