package token

import "testing"

func TestLookupKeyword(t *testing.T) {
	cases := []struct {
		lit  string
		want Token
	}{
		{"particle", PARTICLE},
		{"gravity", GRAVITY},
		{"spring", SPRING},
		{"loop", LOOP},
		{"cycles", CYCLES},
		{"simulate", SIMULATE},
		{"fn", FN},
		{"world", WORLD},
		{"match", MATCH},
		{"sin", SIN},
		{"clamp", CLAMP},
		{"not_a_keyword", IDENT},
		{"a", IDENT},
	}
	for _, c := range cases {
		t.Run(c.lit, func(t *testing.T) {
			if got := Lookup(c.lit); got != c.want {
				t.Errorf("Lookup(%q) = %v, want %v", c.lit, got, c.want)
			}
		})
	}
}

func TestIsKeyword(t *testing.T) {
	if !PARTICLE.IsKeyword() {
		t.Error("PARTICLE.IsKeyword() = false, want true")
	}
	if IDENT.IsKeyword() {
		t.Error("IDENT.IsKeyword() = true, want false")
	}
	if PLUS.IsKeyword() {
		t.Error("PLUS.IsKeyword() = true, want false")
	}
}

func TestGoStringQuotesPunctuation(t *testing.T) {
	if got := PLUS.GoString(); got != "'+'" {
		t.Errorf("PLUS.GoString() = %q, want %q", got, "'+'")
	}
	if got := PARTICLE.GoString(); got != "particle" {
		t.Errorf("PARTICLE.GoString() = %q, want %q", got, "particle")
	}
}
