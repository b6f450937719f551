package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/physlang"
)

// Visual implements the "visual <file>" subcommand. Interactive rendering
// (file-change watching, an actual GUI) is left to an external tool; this
// command only proves out the contract it depends on - a stepwise Session
// - by driving it to completion one step at a time and printing each
// step's particle positions to stdout, standing in for a
// real visualizer without pulling in a GUI toolkit.
func (c *Cmd) Visual(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return VisualFile(ctx, stdio, c.compileOptions(), args[0])
}

// VisualFile compiles filename and drives a stepwise Session to
// completion, printing one line of state per step.
func VisualFile(ctx context.Context, stdio mainer.Stdio, opts physlang.Options, filename string) error {
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

	sess := prog.StepIter()
	particles := prog.World().Particles

	for i := 0; i < prog.World().Simulate.Steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		violations, err := sess.Step()
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "physlang: %s\n", err)
			return err
		}

		st := sess.State()
		fmt.Fprintf(stdio.Stdout, "step %d:", st.Step)
		for pi, p := range particles {
			fmt.Fprintf(stdio.Stdout, " %s=(%.4f,%.4f)", p.Name, st.PosX[pi], st.PosY[pi])
		}
		fmt.Fprintln(stdio.Stdout)

		for _, v := range violations {
			fmt.Fprintf(stdio.Stderr, "physlang: runtime violation [%s]: %s\n", v.Code, v.Message)
		}
		if len(violations) > 0 {
			return fmt.Errorf("physlang: %s halted with %d runtime violation(s)", filename, len(violations))
		}
	}
	return nil
}
