package elaborate

import (
	"strconv"
	"strings"
)

// mangle computes the declared name a particle (or any other world entity
// declared inside one or more `for` unrollings) is given in the elaborated
// world: the source name suffixed with "_<i>" for every enclosing `for`
// iteration, outermost first, so that "p" declared on iteration 2 of a
// single enclosing loop becomes "p_2", and on iteration (1, 3) of two
// nested loops becomes "p_1_3". Outside of any `for`, the name passes
// through unchanged.
func (el *elaborator) mangle(name string) string {
	if len(el.forStack) == 0 {
		return name
	}
	var sb strings.Builder
	sb.WriteString(name)
	for _, i := range el.forStack {
		sb.WriteByte('_')
		sb.WriteString(strconv.FormatInt(i, 10))
	}
	return sb.String()
}
