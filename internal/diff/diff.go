// Package diff compares Brewfile packages with knowledge-graph packages.
package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/danieljhkim/macsetup/internal/manifest"
)

// SampleSize is how many matched packages Render lists.
const SampleSize = 10

var (
	titleColor = color.New(color.FgBlue, color.Bold)
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow, color.Bold)
	dimColor   = color.New(color.FgHiBlack)
)

// Report is the result of Compare. All lists are sorted.
type Report struct {
	// BrewfileOnly are Brewfile packages no graph tool installs
	BrewfileOnly []string

	// GraphOnly are graph packages missing from the Brewfile
	GraphOnly []string

	// Matched are packages present in both
	Matched []string
}

// Compare diffs the Brewfile names against the graph's key -> package map.
// Several graph keys installing the same package count once.
func Compare(brewfile manifest.Set, graphPackages map[string]string) *Report {
	graphSet := make(manifest.Set, len(graphPackages))
	for _, pkg := range graphPackages {
		if pkg != "" {
			graphSet.Add(pkg)
		}
	}

	report := &Report{
		BrewfileOnly: []string{},
		GraphOnly:    []string{},
		Matched:      []string{},
	}
	for _, name := range brewfile.Sorted() {
		if graphSet.Has(name) {
			report.Matched = append(report.Matched, name)
		} else {
			report.BrewfileOnly = append(report.BrewfileOnly, name)
		}
	}
	for _, pkg := range graphSet.Sorted() {
		if !brewfile.Has(pkg) {
			report.GraphOnly = append(report.GraphOnly, pkg)
		}
	}
	return report
}

// HasMismatches reports whether either side has packages the other lacks.
func (r *Report) HasMismatches() bool {
	return len(r.BrewfileOnly) > 0 || len(r.GraphOnly) > 0
}

// BrewfileTotal counts Brewfile packages.
func (r *Report) BrewfileTotal() int {
	return len(r.BrewfileOnly) + len(r.Matched)
}

// GraphTotal counts distinct graph packages.
func (r *Report) GraphTotal() int {
	return len(r.GraphOnly) + len(r.Matched)
}

// Render writes the human-readable report.
func (r *Report) Render(w io.Writer) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	_, _ = titleColor.Fprintln(w, "BREWFILE vs KNOWLEDGE GRAPH VALIDATION REPORT")
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "\nSUMMARY:")
	fmt.Fprintf(w, "  Tools in Brewfile: %d\n", r.BrewfileTotal())
	fmt.Fprintf(w, "  Tools in Knowledge Graph: %d\n", r.GraphTotal())
	fmt.Fprintf(w, "  Matched tools: %d\n", len(r.Matched))
	fmt.Fprintf(w, "  Tools only in Brewfile: %d\n", len(r.BrewfileOnly))
	fmt.Fprintf(w, "  Tools only in Graph: %d\n", len(r.GraphOnly))

	if len(r.BrewfileOnly) > 0 {
		_, _ = warnColor.Fprintf(w, "\n%d TOOLS IN BREWFILE BUT NOT IN KNOWLEDGE GRAPH:\n", len(r.BrewfileOnly))
		for _, name := range r.BrewfileOnly {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}

	if len(r.GraphOnly) > 0 {
		_, _ = warnColor.Fprintf(w, "\n%d TOOLS IN KNOWLEDGE GRAPH BUT NOT IN BREWFILE:\n", len(r.GraphOnly))
		for _, name := range r.GraphOnly {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}

	if len(r.Matched) > 0 {
		fmt.Fprintf(w, "\n%d MATCHED TOOLS (sample):\n", len(r.Matched))
		for i, name := range r.Matched {
			if i == SampleSize {
				_, _ = dimColor.Fprintf(w, "  ... and %d more\n", len(r.Matched)-SampleSize)
				break
			}
			_, _ = okColor.Fprintf(w, "  ✓ %s\n", name)
		}
	}

	if r.HasMismatches() {
		fmt.Fprintln(w, "\nRECOMMENDATIONS:")
		if len(r.BrewfileOnly) > 0 {
			fmt.Fprintln(w, "  1. Add the missing tools to the knowledge graph")
			fmt.Fprintln(w, "     See: docs/ai-llm-guide.md for instructions")
		}
		if len(r.GraphOnly) > 0 {
			fmt.Fprintln(w, "  2. Add the missing tools to the Brewfile or remove them from the knowledge graph")
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
}
