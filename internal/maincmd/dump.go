package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/physlang"
	"github.com/mna/physlang/lang/ast"
	"github.com/mna/physlang/lang/diag"
	"github.com/mna/physlang/lang/parser"
)

// Dump implements the "dump <file>" subcommand: parse the file and print
// its abstract syntax tree, one indented line per node, without running
// elaboration, analysis or simulation. It is a diagnostic aid for
// inspecting how the parser structured a program, printed through
// ast.Printer's depth-tracked ast.Walk traversal.
func (c *Cmd) Dump(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DumpFile(ctx, stdio, c.compileOptions(), args[0])
}

// DumpFile parses filename and writes its AST to stdio.Stdout. Parse
// diagnostics, if any, are printed to stdio.Stderr; a file with parse
// errors still has its (partial) tree dumped, the same "best-effort tree
// despite errors" contract parser.Parse offers the rest of the pipeline.
func DumpFile(ctx context.Context, stdio mainer.Stdio, opts physlang.Options, filename string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "physlang: %s\n", err)
		return err
	}

	var errs diag.List
	maxErrors := opts.MaxErrors
	ch := parser.Parse(filename, src, &errs, maxErrors)
	printDiagnostics(stdio, src, &errs)

	p := &ast.Printer{Output: stdio.Stdout, Pos: true}
	if err := p.Print(ch); err != nil {
		fmt.Fprintf(stdio.Stderr, "physlang: %s\n", err)
		return err
	}
	if errs.HasErrors() {
		return fmt.Errorf("physlang: %s failed to parse", filename)
	}
	return nil
}
