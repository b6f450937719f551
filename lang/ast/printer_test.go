package ast_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/physlang/lang/ast"
	"github.com/mna/physlang/lang/diag"
	"github.com/mna/physlang/lang/parser"
)

func TestPrinterPrintWritesOneLinePerNode(t *testing.T) {
	src := `
particle a at (0, 0) mass 1.0;
simulate dt 0.1 steps 1;
`
	var errs diag.List
	ch := parser.Parse("test.phys", []byte(src), &errs, 0)
	require.False(t, errs.HasErrors(), "unexpected parse errors: %v", errs.Items())

	var sb strings.Builder
	p := &ast.Printer{Output: &sb}
	require.NoError(t, p.Print(ch))

	out := sb.String()
	assert.Contains(t, out, "*ast.Chunk")
	assert.Contains(t, out, "*ast.ParticleDecl")
	assert.Contains(t, out, "*ast.SimulateDecl")
	// the particle's initial position and mass are nested expressions,
	// indented one level deeper than the declaration that holds them.
	assert.Contains(t, out, ". . *ast.IntLit")
}

func TestPrinterPrintWithPosIncludesSourceRange(t *testing.T) {
	src := `particle a at (0, 0) mass 1.0;
simulate dt 0.1 steps 1;
`
	var errs diag.List
	ch := parser.Parse("test.phys", []byte(src), &errs, 0)
	require.False(t, errs.HasErrors(), "unexpected parse errors: %v", errs.Items())

	var sb strings.Builder
	p := &ast.Printer{Output: &sb, Pos: true}
	require.NoError(t, p.Print(ch))

	out := sb.String()
	assert.Contains(t, out, "[1:1-")
}
