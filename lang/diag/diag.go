// Package diag defines PhysLang's structured diagnostics: errors, warnings
// and notes collected as values during compilation and rendered only at the
// caller's boundary. No phase of the compiler ever panics or returns a bare
// error for a source-level problem — every such problem becomes a
// *Diagnostic appended to a List, mirroring how the language's reference
// tooling treats parse/resolve errors as an accumulated, sorted
// scanner.ErrorList rather than as control-flow exceptions.
package diag

import (
	"cmp"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/mna/physlang/lang/token"
)

// Severity classifies a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Label attaches a message to a secondary span, used to chain context onto
// a diagnostic (e.g. "defined here", "condition evaluated to false here").
type Label struct {
	Span    token.Span
	Message string
}

// Diagnostic is a single structured compiler message.
type Diagnostic struct {
	Severity Severity
	Code     string // stable code, e.g. "E0201" or "W1101"
	Span     token.Span
	Message  string
	Labels   []Label
	Notes    []string // lines prefixed with "=" when rendered
	Help     string   // optional suggested fix
}

// IsError reports whether d blocks compilation from proceeding.
func (d *Diagnostic) IsError() bool { return d.Severity == Error }

func (d *Diagnostic) Error() string {
	line, col := d.Span.Start.LineCol()
	if d.Code != "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s [%s]", d.Span.File, line, col, d.Severity, d.Message, d.Code)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.Span.File, line, col, d.Severity, d.Message)
}

// Render writes a human-readable rendition of d to sb, underlining the
// primary span's token range in the provided source snippet when the line
// text is available.
func (d *Diagnostic) Render(sb *strings.Builder, lineText string) {
	line, col := d.Span.Start.LineCol()
	fmt.Fprintf(sb, "%s:%d:%d: %s", d.Span.File, line, col, d.Severity)
	if d.Code != "" {
		fmt.Fprintf(sb, "[%s]", d.Code)
	}
	fmt.Fprintf(sb, ": %s\n", d.Message)

	if lineText != "" {
		fmt.Fprintf(sb, "  %s\n", lineText)
		width := tokenWidth(d.Span)
		fmt.Fprintf(sb, "  %s%s\n", strings.Repeat(" ", max(col-1, 0)), strings.Repeat("^", max(width, 1)))
	}

	for _, l := range d.Labels {
		ll, lc := l.Span.Start.LineCol()
		fmt.Fprintf(sb, "  note: %s (at %d:%d)\n", l.Message, ll, lc)
	}
	for _, n := range d.Notes {
		fmt.Fprintf(sb, "  = %s\n", n)
	}
	if d.Help != "" {
		fmt.Fprintf(sb, "  help: %s\n", d.Help)
	}
}

func tokenWidth(sp token.Span) int {
	sl, sc := sp.Start.LineCol()
	el, ec := sp.End.LineCol()
	if sl != el || ec <= sc {
		return 1
	}
	return ec - sc
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// List is an ordered collection of diagnostics. It implements error so a
// function can return a List as its error result and have *List == nil
// checked the usual way, while callers that need structure can range over
// Unwrap().
type List struct {
	items []*Diagnostic
}

// Add appends d to the list.
func (l *List) Add(d *Diagnostic) { l.items = append(l.items, d) }

// Errorf appends a new Error-severity diagnostic built from format/args.
func (l *List) Errorf(sp token.Span, code, format string, args ...any) {
	l.Add(&Diagnostic{Severity: Error, Code: code, Span: sp, Message: fmt.Sprintf(format, args...)})
}

// Warnf appends a new Warning-severity diagnostic built from format/args.
func (l *List) Warnf(sp token.Span, code, format string, args ...any) {
	l.Add(&Diagnostic{Severity: Warning, Code: code, Span: sp, Message: fmt.Sprintf(format, args...)})
}

// Items returns the diagnostics currently in the list, in insertion order.
func (l *List) Items() []*Diagnostic { return l.items }

// Len returns the number of diagnostics in the list.
func (l *List) Len() int { return len(l.items) }

// HasErrors reports whether any diagnostic in the list has Error severity.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.IsError() {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of Error-severity diagnostics.
func (l *List) ErrorCount() int {
	n := 0
	for _, d := range l.items {
		if d.IsError() {
			n++
		}
	}
	return n
}

// Sort orders diagnostics by file, then by start position, for deterministic
// reporting (spec requirement: the same source always produces the same
// diagnostics in the same order).
func (l *List) Sort() {
	slices.SortStableFunc(l.items, func(a, b *Diagnostic) int {
		if c := strings.Compare(a.Span.File, b.Span.File); c != 0 {
			return c
		}
		return cmp.Compare(a.Span.Start, b.Span.Start)
	})
}

// Err returns l as an error if it contains any diagnostic, or nil if l is
// empty. This lets a phase's internal "var errs diag.List" be returned
// directly as the function's error result.
func (l *List) Err() error {
	if l == nil || len(l.items) == 0 {
		return nil
	}
	return l
}

func (l *List) Error() string {
	var sb strings.Builder
	for i, d := range l.items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(d.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual diagnostics as errors, per the standard
// multi-error convention.
func (l *List) Unwrap() []error {
	errs := make([]error, len(l.items))
	for i, d := range l.items {
		errs[i] = d
	}
	return errs
}

// Merge appends the contents of other to l.
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}
	l.items = append(l.items, other.items...)
}
