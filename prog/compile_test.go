package prog

import (
	"errors"
	"strings"
	"testing"

	"github.com/coregx/regexvm/syntax"
)

func mustCompile(t *testing.T, expr string, flags syntax.Flags) *Prog {
	t.Helper()
	pat, err := syntax.Parse(expr, flags)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", expr, err)
	}
	p, err := Compile(pat)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", expr, err)
	}
	return p
}

func TestCompileIdempotent(t *testing.T) {
	exprs := []string{
		"abc",
		"(a|b)+c{2,4}",
		`(?P<x>\d+)-(?P<y>\d+)`,
		"(?<=foo)bar(?!baz)",
		"[a-z&&[^aeiou]]+",
	}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			first := mustCompile(t, expr, 0)
			second := mustCompile(t, expr, 0)
			if first.String() != second.String() {
				t.Errorf("two compilations differ:\n%s\n---\n%s", first, second)
			}
		})
	}
}

func TestCompileMetadata(t *testing.T) {
	tests := []struct {
		expr           string
		prefix         string
		prefixComplete bool
		minWidth       int
		maxWidth       int
		hasBackref     bool
		hasLook        bool
	}{
		{"abc", "abc", true, 3, 3, false, false},
		{"abc.*", "abc", false, 3, -1, false, false},
		{"a|b", "", false, 1, 1, false, false},
		{`(a)b\1`, "ab", false, 2, -1, true, false},
		{"(?=x)y", "", false, 1, 1, false, true},
		{"x{2,4}", "xx", false, 2, 4, false, false},
		{"(foo)bar", "foobar", true, 6, 6, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p := mustCompile(t, tt.expr, 0)
			if p.Prefix != tt.prefix || p.PrefixComplete != tt.prefixComplete {
				t.Errorf("prefix = %q complete %v, want %q %v",
					p.Prefix, p.PrefixComplete, tt.prefix, tt.prefixComplete)
			}
			if p.MinWidth != tt.minWidth || p.MaxWidth != tt.maxWidth {
				t.Errorf("width = [%d, %d], want [%d, %d]",
					p.MinWidth, p.MaxWidth, tt.minWidth, tt.maxWidth)
			}
			if p.HasBackref != tt.hasBackref || p.HasLook != tt.hasLook {
				t.Errorf("backref %v look %v, want %v %v",
					p.HasBackref, p.HasLook, tt.hasBackref, tt.hasLook)
			}
		})
	}
}

func TestCompileSlots(t *testing.T) {
	// Two capture groups plus one progress slot for the outer star whose
	// body can match empty.
	p := mustCompile(t, "(a*)*(b)", 0)
	if p.NumCap != 3 {
		t.Fatalf("NumCap = %d, want 3", p.NumCap)
	}
	if p.NumSlots <= 2*p.NumCap {
		t.Errorf("NumSlots = %d, want scratch beyond %d", p.NumSlots, 2*p.NumCap)
	}
}

func TestCompileTooComplex(t *testing.T) {
	pat, err := syntax.Parse("(a{1000}){1000}", 0)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Compile(pat)
	if !errors.Is(err, ErrTooComplex) {
		t.Fatalf("Compile = %v, want ErrTooComplex", err)
	}

	// A small custom limit trips on modest patterns too.
	pat, err = syntax.Parse("a{100}", 0)
	if err != nil {
		t.Fatal(err)
	}
	_, err = CompileWithConfig(pat, Config{MaxInsts: 16})
	if !errors.Is(err, ErrTooComplex) {
		t.Fatalf("CompileWithConfig = %v, want ErrTooComplex", err)
	}
}

func TestCompileLookaroundSharesSlots(t *testing.T) {
	p := mustCompile(t, `(?=(\d+))\w+`, 0)
	var look *Inst
	for i := range p.Insts {
		if p.Insts[i].Op == OpLook {
			look = &p.Insts[i]
			break
		}
	}
	if look == nil {
		t.Fatal("no look instruction emitted")
	}
	if look.Sub.NumSlots != p.NumSlots {
		t.Errorf("sub NumSlots = %d, outer %d; slot spaces must agree",
			look.Sub.NumSlots, p.NumSlots)
	}
	if look.Sub.NumCap != p.NumCap {
		t.Errorf("sub NumCap = %d, outer %d", look.Sub.NumCap, p.NumCap)
	}
}

func TestProgString(t *testing.T) {
	p := mustCompile(t, "a(b|c)*", 0)
	s := p.String()
	for _, want := range []string{"rune", "split", "save", "match"} {
		if !strings.Contains(s, want) {
			t.Errorf("disassembly missing %q:\n%s", want, s)
		}
	}
}
