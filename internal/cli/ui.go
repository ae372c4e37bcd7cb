package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/cardsmith/pkg/pipeline"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// stdout receives all human-readable output. Tests swap it.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(stdout, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Render Output
// =============================================================================

// printRenderStats prints one summary line for a render, e.g.
// "modern@v3 · 7 nodes · 1 warning · 12ms · cached".
func printRenderStats(res *pipeline.Result) {
	name := res.Template.ID + "@v" + strconv.Itoa(res.Template.Version)
	if res.DefaultUsed {
		name = "default template"
	}
	parts := []string{name, plural(res.Stats.NodeCount, "node")}
	if res.Stats.WarningCount > 0 {
		parts = append(parts, plural(res.Stats.WarningCount, "warning"))
	}
	total := res.Stats.LoadTime + res.Stats.SceneTime + res.Stats.ArtifactTime
	parts = append(parts, total.Round(time.Millisecond).String())

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	if res.CacheInfo.SceneHit && res.CacheInfo.ArtifactHit {
		line += StyleDim.Render(" · ") + styleCached.Render(iconCached)
	} else {
		line += StyleDim.Render(" · ") + styleComputed.Render(iconFresh)
	}
	fmt.Fprintln(stdout, line)
}

// printValidationErrors prints one line per failed rule.
func printValidationErrors(errs template.ValidationErrors) {
	for _, e := range errs {
		printDetail("%s", e.Error())
	}
}

// =============================================================================
// Template Tables
// =============================================================================

// templateRows formats templates as table rows.
func templateRows(ts []template.Template) [][]string {
	rows := make([][]string, 0, len(ts))
	for _, t := range ts {
		rows = append(rows, []string{
			t.ID,
			"v" + strconv.Itoa(t.Version),
			t.Name,
			dash(t.Category),
			dash(strings.Join(t.Tags, ", ")),
			flags(t),
		})
	}
	return rows
}

var templateHeaders = []string{"ID", "Version", "Name", "Category", "Tags", "Flags"}

// renderTemplateTable draws templates as a bordered table.
func renderTemplateTable(ts []template.Template) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(templateHeaders...).
		Rows(templateRows(ts)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if row < len(ts) && !ts[row].IsActive {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// =============================================================================
// Utilities
// =============================================================================

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func flags(t template.Template) string {
	var fs []string
	if t.IsActive {
		fs = append(fs, "active")
	}
	if t.IsFeatured {
		fs = append(fs, "featured")
	}
	return dash(strings.Join(fs, ", "))
}
