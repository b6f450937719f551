package maincmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mna/mainer"

	"github.com/mna/physlang"
)

// Run implements the "run <file>" subcommand: compile and simulate the
// file to completion, printing the detector readouts in declaration order.
// Exit code is non-zero if any error diagnostic was produced, or if a
// runtime violation halted the simulation before all steps completed.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunFile(ctx, stdio, c.compileOptions(), args[0])
}

func (c *Cmd) compileOptions() physlang.Options {
	opts := physlang.DefaultOptions()
	opts.StrictDimensions = c.StrictDimensions
	opts.DenyWarnings = c.DenyWarnings
	if c.MaxErrors > 0 {
		opts.MaxErrors = c.MaxErrors
	}
	return opts
}

// RunFile compiles filename under opts and runs the resulting Program to
// completion, printing its detector results and any diagnostics. It
// returns a non-nil error whenever the process's exit code should be
// non-zero: a compile error, a runtime violation, or a host I/O failure.
func RunFile(ctx context.Context, stdio mainer.Stdio, opts physlang.Options, filename string) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "physlang: %s\n", err)
		return err
	}

	prog, diags := physlang.Compile(filename, src, opts)
	printDiagnostics(stdio, src, diags)
	if prog == nil {
		return fmt.Errorf("physlang: %s failed to compile", filename)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	results, violations, err := prog.Run()
	for _, v := range violations {
		fmt.Fprintf(stdio.Stderr, "physlang: runtime violation [%s]: %s\n", v.Code, v.Message)
	}
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "physlang: %s\n", err)
		return err
	}

	for _, r := range results {
		fmt.Fprintf(stdio.Stdout, "%s = %s\n", r.Name, formatResult(r.Value))
	}
	return nil
}

func formatResult(v float64) string {
	s := fmt.Sprintf("%.6f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
