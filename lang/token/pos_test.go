package token

import "testing"

func TestMakePosRoundTrip(t *testing.T) {
	cases := []struct {
		line, col int
	}{
		{1, 1},
		{1, 80},
		{42, 7},
		{MaxLines, MaxCols},
	}
	for _, c := range cases {
		p := MakePos(c.line, c.col)
		gotLine, gotCol := p.LineCol()
		if gotLine != c.line || gotCol != c.col {
			t.Errorf("MakePos(%d, %d).LineCol() = (%d, %d), want (%d, %d)", c.line, c.col, gotLine, gotCol, c.line, c.col)
		}
		if p.Unknown() {
			t.Errorf("MakePos(%d, %d) reported Unknown", c.line, c.col)
		}
	}
}

func TestNoPosUnknown(t *testing.T) {
	if !NoPos.Unknown() {
		t.Error("NoPos.Unknown() = false, want true")
	}
}

func TestSpanIsValid(t *testing.T) {
	valid := Span{File: "a.phys", Start: MakePos(1, 1), End: MakePos(1, 5)}
	if !valid.IsValid() {
		t.Error("span with known start reported invalid")
	}
	invalid := Span{File: "a.phys", Start: NoPos, End: MakePos(1, 5)}
	if invalid.IsValid() {
		t.Error("span with NoPos start reported valid")
	}
}
