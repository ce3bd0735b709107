package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/berrythewa/xselq/internal/types"
)

// Formatter renders selection results and history records
type Formatter struct {
	options Options
}

// New creates a new formatter with the given options
func New(opts Options) *Formatter {
	return &Formatter{
		options: opts,
	}
}

// NewDefault creates a new formatter with default options
func NewDefault() *Formatter {
	return New(DefaultOptions())
}

// FormatResult renders one result as its Selection, Owner and Targets lines
func (f *Formatter) FormatResult(result *types.SelectionResult) string {
	if result == nil {
		return ""
	}

	lines := []string{
		f.line("Selection:", result.Query.Name),
		f.line("Owner:", f.owner(result)),
		f.line("Targets:", f.targets(result)),
	}
	return strings.Join(lines, "\n") + "\n"
}

// FormatResults renders results separated by blank lines
func (f *Formatter) FormatResults(results []*types.SelectionResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		parts = append(parts, f.FormatResult(r))
	}
	return strings.Join(parts, "\n")
}

// WriteResults writes FormatResults to w
func (f *Formatter) WriteResults(w io.Writer, results []*types.SelectionResult) error {
	_, err := io.WriteString(w, f.FormatResults(results))
	return err
}

// FormatHistory renders records one per line, newest first
func (f *Formatter) FormatHistory(records []*types.HistoryRecord) string {
	if len(records) == 0 {
		return DimIf("No history recorded", f.options.UseColors) + "\n"
	}

	var b strings.Builder
	for _, r := range records {
		if r == nil || r.Result == nil {
			continue
		}
		stamp := r.Recorded.Local().Format("2006-01-02 15:04:05")
		if f.options.RelativeTime {
			stamp = fmt.Sprintf("%-19s", FormatRelativeTime(r.Recorded))
		}
		fmt.Fprintf(&b, "%s  %s  %s\n",
			DimIf(stamp, f.options.UseColors),
			BoldIf(fmt.Sprintf("%-10s", r.Result.Query.Name), f.options.UseColors),
			f.owner(r.Result))
		if r.Result.HasOwner() && len(r.Result.Owner.Targets) > 0 {
			fmt.Fprintf(&b, "%s%s\n", strings.Repeat(" ", len(stamp)+2), f.targets(r.Result))
		}
	}
	return b.String()
}

func (f *Formatter) line(label, value string) string {
	padded := fmt.Sprintf("%-*s", LabelWidth, label)
	return BoldIf(padded, f.options.UseColors) + " " + value
}

func (f *Formatter) owner(result *types.SelectionResult) string {
	switch {
	case result.Degraded():
		return ColorizeIf(fmt.Sprintf("error (%s)", result.Err), Red, f.options.UseColors)
	case !result.HasOwner():
		return DimIf("none", f.options.UseColors)
	}
	o := result.Owner
	return fmt.Sprintf("%d (%s)", o.Window, ColorizeIf(o.DisplayName, Green, f.options.UseColors))
}

func (f *Formatter) targets(result *types.SelectionResult) string {
	if !result.HasOwner() {
		return ""
	}
	names := make([]string, 0, len(result.Owner.Targets))
	for _, t := range result.Owner.Targets {
		name := t.Name
		if f.options.ShowAtoms {
			name = fmt.Sprintf("%s[%d]", name, t.Atom)
		}
		names = append(names, ColorizeIf(name, Cyan, f.options.UseColors))
	}
	return strings.Join(names, " ")
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Package-level convenience functions

// FormatResult formats a single result with the given options
func FormatResult(result *types.SelectionResult, opts Options) string {
	return New(opts).FormatResult(result)
}

// FormatResults formats results with the given options
func FormatResults(results []*types.SelectionResult, opts Options) string {
	return New(opts).FormatResults(results)
}
