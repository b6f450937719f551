package diag_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/physlang/lang/diag"
	"github.com/mna/physlang/lang/token"
)

func span(file string, line, col int) token.Span {
	p := token.MakePos(line, col)
	return token.Span{File: file, Start: p, End: p}
}

func TestListSortOrdersByFileThenPosition(t *testing.T) {
	var l diag.List
	l.Errorf(span("b.phys", 1, 1), "E0001", "in b")
	l.Errorf(span("a.phys", 5, 1), "E0002", "later in a")
	l.Errorf(span("a.phys", 2, 1), "E0003", "earlier in a")

	l.Sort()
	items := l.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "E0003", items[0].Code)
	assert.Equal(t, "E0002", items[1].Code)
	assert.Equal(t, "E0001", items[2].Code)
}

func TestListSortIsStableForEqualPositions(t *testing.T) {
	var l diag.List
	l.Errorf(span("a.phys", 1, 1), "E0001", "first")
	l.Errorf(span("a.phys", 1, 1), "E0002", "second")

	l.Sort()
	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "E0001", items[0].Code)
	assert.Equal(t, "E0002", items[1].Code)
}

func TestHasErrorsAndErrorCountIgnoreWarnings(t *testing.T) {
	var l diag.List
	l.Warnf(span("a.phys", 1, 1), "W1101", "just a warning")
	assert.False(t, l.HasErrors())
	assert.Equal(t, 0, l.ErrorCount())

	l.Errorf(span("a.phys", 2, 1), "E0001", "an actual error")
	assert.True(t, l.HasErrors())
	assert.Equal(t, 1, l.ErrorCount())
	assert.Equal(t, 2, l.Len())
}

func TestListErrAndUnwrap(t *testing.T) {
	var empty diag.List
	assert.NoError(t, empty.Err())

	var l diag.List
	l.Errorf(span("a.phys", 1, 1), "E0001", "boom")
	err := l.Err()
	require.Error(t, err)

	var asList *diag.List
	require.True(t, errors.As(err, &asList))

	unwrapped := l.Unwrap()
	require.Len(t, unwrapped, 1)
}

func TestListMerge(t *testing.T) {
	var a, b diag.List
	a.Errorf(span("a.phys", 1, 1), "E0001", "from a")
	b.Errorf(span("a.phys", 2, 1), "E0002", "from b")
	a.Merge(&b)
	assert.Equal(t, 2, a.Len())

	var c diag.List
	c.Merge(nil)
	assert.Equal(t, 0, c.Len())
}

func TestDiagnosticRenderIncludesCodeMessageAndCaret(t *testing.T) {
	d := &diag.Diagnostic{
		Severity: diag.Error,
		Code:     "E0101",
		Span:     token.Span{File: "a.phys", Start: token.MakePos(3, 5), End: token.MakePos(3, 10)},
		Message:  "unexpected token",
	}
	var sb strings.Builder
	d.Render(&sb, "particle a at bogus;")
	out := sb.String()

	assert.Contains(t, out, "a.phys:3:5")
	assert.Contains(t, out, "E0101")
	assert.Contains(t, out, "unexpected token")
	assert.Contains(t, out, "particle a at bogus;")
	assert.Contains(t, out, "^")
}

func TestDiagnosticErrorStringIncludesCode(t *testing.T) {
	d := &diag.Diagnostic{
		Severity: diag.Warning,
		Code:     "W1101",
		Span:     span("a.phys", 1, 1),
		Message:  "risky",
	}
	assert.Contains(t, d.Error(), "W1101")
	assert.Contains(t, d.Error(), "warning")
}
