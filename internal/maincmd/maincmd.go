// Package maincmd implements the CLI contract of the PhysLang compiler:
// "run", "visual" and "dump" subcommands wired through a Cmd struct
// carrying flag-tagged fields, dispatched to a method by name through
// reflection, with mainer handling argument parsing and signal-based
// cancellation, and caarlos0/env handling the environment variable overlay.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"
)

const binName = "physlang"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> <path>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> <path>
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and simulator for the %[1]s domain-specific language.

The <command> can be one of:
       run                       Compile and simulate <path>, printing the
                                 program's detector readouts.
       visual                    Open a stepwise session over <path> and
                                 drive it step by step, printing particle
                                 state as it evolves (a placeholder for an
                                 external, graphical visualizer).
       dump                      Parse <path> and print its abstract
                                 syntax tree without elaborating or
                                 running it.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --strict-dimensions       Promote dimensional-role conflicts from
                                 warnings to errors.
       --deny-warnings           Promote every warning to an error.
       --max-errors <n>          Cap the number of diagnostics collected
                                 before the compiler stops (default 50).

Environment variables PHYSLANG_STRICT_DIMENSIONS, PHYSLANG_DENY_WARNINGS
and PHYSLANG_MAX_ERRORS set the same options, overridden by the
corresponding flag when both are present.

More information on the %[1]s repository:
       https://github.com/mna/physlang
`, binName)
)

// envConfig is the environment-variable overlay applied before explicit
// flags (done out-of-band with a dedicated library since mainer's own env
// support is a boolean per-Cmd toggle, not per-field).
type envConfig struct {
	StrictDimensions *bool `env:"PHYSLANG_STRICT_DIMENSIONS"`
	DenyWarnings     *bool `env:"PHYSLANG_DENY_WARNINGS"`
	MaxErrors        *int  `env:"PHYSLANG_MAX_ERRORS"`
}

// Cmd is the root command, populated by mainer.Parser from the process's
// argv and (for fields mainer hands it) the environment.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	StrictDimensions bool `flag:"strict-dimensions"`
	DenyWarnings     bool `flag:"deny-warnings"`
	MaxErrors        int  `flag:"max-errors"`

	args    []string
	flags   map[string]bool
	cmdFn   func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}
	if len(c.args[1:]) != 1 {
		return fmt.Errorf("%s: exactly one file path must be provided", cmdName)
	}
	return nil
}

// applyEnvOverlay loads envConfig from the process environment and fills
// in any of c's option fields the caller did not set explicitly via a
// flag: environment variables sit underneath explicit flags in priority.
func (c *Cmd) applyEnvOverlay() error {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return fmt.Errorf("parsing environment overlay: %w", err)
	}
	if !c.flags["strict-dimensions"] && ec.StrictDimensions != nil {
		c.StrictDimensions = *ec.StrictDimensions
	}
	if !c.flags["deny-warnings"] && ec.DenyWarnings != nil {
		c.DenyWarnings = *ec.DenyWarnings
	}
	if !c.flags["max-errors"] && ec.MaxErrors != nil {
		c.MaxErrors = *ec.MaxErrors
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	if err := c.applyEnvOverlay(); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return mainer.Failure
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		return mainer.Failure
	}
	return mainer.Success
}

// buildCmds discovers Cmd's exported subcommand methods by reflection -
// every method matching func(*Cmd, context.Context, mainer.Stdio,
// []string) error becomes a dispatchable command, keyed by its lowercased
// name.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
