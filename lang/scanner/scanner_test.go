package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/physlang/lang/diag"
	"github.com/mna/physlang/lang/scanner"
	"github.com/mna/physlang/lang/token"
)

func TestScanAll(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []token.Token
	}{
		{
			name: "particle decl",
			src:  "particle a at (0, 0) mass 1.0;",
			want: []token.Token{
				token.PARTICLE, token.IDENT, token.AT, token.LPAREN, token.INT,
				token.COMMA, token.INT, token.RPAREN, token.MASS, token.FLOAT,
				token.SEMI, token.EOF,
			},
		},
		{
			name: "comment is skipped",
			src:  "# a comment\nlet x = 1;",
			want: []token.Token{token.LET, token.IDENT, token.EQ, token.INT, token.SEMI, token.EOF},
		},
		{
			name: "range and comparisons",
			src:  "for i in 0..10 { }\nif a <= b { }",
			want: []token.Token{
				token.FOR, token.IDENT, token.IN, token.INT, token.DOTDOT, token.INT,
				token.LBRACE, token.RBRACE,
				token.IF, token.IDENT, token.LE, token.IDENT, token.LBRACE, token.RBRACE,
				token.EOF,
			},
		},
		{
			name: "all comparison operators",
			src:  "== != < > <= >=",
			want: []token.Token{token.EQL, token.NEQ, token.LT, token.GT, token.LE, token.GE, token.EOF},
		},
		{
			name: "string literal",
			src:  `detect name = "foo";`,
			want: []token.Token{token.DETECT, token.IDENT, token.EQ, token.STRING, token.SEMI, token.EOF},
		},
		{
			name: "field access",
			src:  "position(a).x",
			want: []token.Token{token.POSITION, token.LPAREN, token.IDENT, token.RPAREN, token.DOT, token.IDENT, token.EOF},
		},
		{
			name: "float with exponent",
			src:  "1.5e-3",
			want: []token.Token{token.FLOAT, token.EOF},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var errs diag.List
			toks, _ := scanner.ScanAll("test.phys", []byte(c.src), &errs)
			require.False(t, errs.HasErrors(), "unexpected scan errors: %v", errs.Items())
			assert.Equal(t, c.want, toks)
		})
	}
}

func TestScanNumericLiteralValues(t *testing.T) {
	var errs diag.List
	toks, vals := scanner.ScanAll("test.phys", []byte("42 3.5"), &errs)
	require.False(t, errs.HasErrors())
	require.Equal(t, []token.Token{token.INT, token.FLOAT, token.EOF}, toks)
	assert.Equal(t, int64(42), vals[0].Int)
	assert.Equal(t, 3.5, vals[1].Float)
}

func TestScanIllegalCharacter(t *testing.T) {
	var errs diag.List
	toks, _ := scanner.ScanAll("test.phys", []byte("let x = 1 $;"), &errs)
	assert.Contains(t, toks, token.ILLEGAL)
	assert.True(t, errs.HasErrors())
}

func TestScanUnterminatedString(t *testing.T) {
	var errs diag.List
	scanner.ScanAll("test.phys", []byte(`"unterminated`), &errs)
	require.True(t, errs.HasErrors())
}

func TestScanSpansAdvanceAcrossLines(t *testing.T) {
	var errs diag.List
	_, vals := scanner.ScanAll("test.phys", []byte("a\nb"), &errs)
	require.False(t, errs.HasErrors())
	require.Len(t, vals, 3) // a, b, EOF

	l0, c0 := vals[0].Pos.LineCol()
	l1, c1 := vals[1].Pos.LineCol()
	assert.Equal(t, 1, l0)
	assert.Equal(t, 1, c0)
	assert.Equal(t, 2, l1)
	assert.Equal(t, 1, c1)
}
