package maincmd

import (
	"strings"

	"github.com/mna/mainer"

	"github.com/mna/physlang/lang/diag"
)

// printDiagnostics renders every diagnostic in diags to stdio.Stderr,
// using src to recover the source line each diagnostic's primary span
// points at. Diagnostics are already in deterministic, sorted order by
// the time physlang.Compile returns them.
func printDiagnostics(stdio mainer.Stdio, src []byte, diags *diag.List) {
	if diags == nil || diags.Len() == 0 {
		return
	}
	lines := strings.Split(string(src), "\n")
	var sb strings.Builder
	for _, d := range diags.Items() {
		line, _ := d.Span.Start.LineCol()
		text := ""
		if line >= 1 && line <= len(lines) {
			text = lines[line-1]
		}
		d.Render(&sb, text)
	}
	stdio.Stderr.Write([]byte(sb.String()))
}
