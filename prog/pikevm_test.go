package prog

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/coregx/regexvm/syntax"
)

func TestPikeVMSearch(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		flags syntax.Flags
		input string
		want  []int
	}{
		{"literal", "abc", 0, "xabcy", []int{1, 4}},
		{"no match", "abc", 0, "xbc", nil},
		{"overlapping starts", "a*b", 0, "aaab", []int{0, 4}},
		{"late start", "ab", 0, "aab", []int{1, 3}},
		{"leftmost first alt", "a|ab", 0, "ab", []int{0, 1}},
		{"alt order", "ab|a", 0, "ab", []int{0, 2}},
		{"greedy", "a+", 0, "aaa", []int{0, 3}},
		{"lazy", "a+?", 0, "aaa", []int{0, 1}},
		{"captures", "(a+)(b+)", 0, "xaabb", []int{1, 5, 1, 3, 3, 5}},
		{"unset group", "(a)|b", 0, "b", []int{0, 1, -1, -1}},
		{"counted", "x{2,3}", 0, "xxxx", []int{0, 3}},
		{"anchor begin", "^b", 0, "ab", nil},
		{"anchor end", "b$", 0, "ba ab", []int{4, 5}},
		{"word boundary", `\bfoo\b`, 0, "a foo b", []int{2, 5}},
		{"fold literal", "(?i)abc", 0, "xABCy", []int{1, 4}},
		{"empty pattern", "", 0, "abc", []int{0, 0}},
		{"star empty input", "a*", 0, "", []int{0, 0}},
		{"lookahead", "q(?=u)", 0, "qa qu", []int{3, 4}},
		{"lookbehind", "(?<=foo)bar", 0, "foobar", []int{3, 6}},
		{"look captures", `(?=(\d+))`, 0, "25", []int{0, 0, 0, 2}},
		{"class intersection", "[a-c&&b-f]+", 0, "abcdef", []int{1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewPikeVM(mustCompile(t, tt.expr, tt.flags))
			got, err := v.Search(tt.input, 0)
			if err != nil {
				t.Fatalf("Search(%q) error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPikeVMRejectsBackrefs(t *testing.T) {
	v := NewPikeVM(mustCompile(t, `(a)\1`, 0))
	_, err := v.Search("aa", 0)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Search = %v, want ErrUnsupported", err)
	}
}

func TestPikeVMLinearOnPathologicalInput(t *testing.T) {
	// The same pattern that blows up the backtracker completes here
	// without touching any step budget.
	v := NewPikeVM(mustCompile(t, "(a+)+$", 0))
	input := strings.Repeat("a", 200) + "b"
	got, err := v.Search(input, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Search = %v, want no match", got)
	}
}

func TestPikeVMSearchAt(t *testing.T) {
	v := NewPikeVM(mustCompile(t, "abc", 0))
	got, err := v.SearchAt("xabc", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []int{1, 4}) {
		t.Errorf("SearchAt = %v, want [1 4]", got)
	}
	got, err = v.SearchAt("xabc", 0)
	if err != nil || got != nil {
		t.Errorf("SearchAt(0) = %v, %v, want nil", got, err)
	}
}

func TestPikeVMLookbehindStateReuse(t *testing.T) {
	v := NewPikeVM(mustCompile(t, `(?<=\d)[a-z]+`, 0))
	st := NewPikeState()
	v.InitState(st)
	for i := 0; i < 3; i++ {
		got, err := v.SearchWithState(st, "12ab 3cd", 0)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, []int{2, 4}) {
			t.Fatalf("iteration %d: got %v, want [2 4]", i, got)
		}
	}
}

func TestPikeVMWithState(t *testing.T) {
	v := NewPikeVM(mustCompile(t, "(a+)b", 0))
	st := NewPikeState()
	v.InitState(st)
	for i := 0; i < 3; i++ {
		got, err := v.SearchWithState(st, "xxaab", 0)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, []int{2, 5, 2, 4}) {
			t.Fatalf("iteration %d: got %v", i, got)
		}
	}
}

// TestEnginesAgree cross-checks both engines over backreference-free
// patterns: identical capture slots on identical inputs.
func TestEnginesAgree(t *testing.T) {
	patterns := []struct {
		expr  string
		flags syntax.Flags
	}{
		{"abc", 0},
		{"a|ab|abc", 0},
		{"(a+)(b*)c", 0},
		{"colou?r", 0},
		{"[a-f]+[0-9]{2,3}", 0},
		{"^start.*end$", 0},
		{`\b\w+\b`, 0},
		{"(?i)hello", 0},
		{"x(?=y)", 0},
		{"(?<=x)y", 0},
		{"a.c", syntax.FlagDotAll},
		{"^.", syntax.FlagMultiline},
		{"[a-z&&[^mn]]+", 0},
		{"(ab|a)(b?)", 0},
	}
	inputs := []string{
		"",
		"a",
		"abc",
		"xabcxabcx",
		"color colour",
		"start middle end",
		"hello HELLO HeLLo",
		"xyxy",
		"abcdef123456",
		"a\nb\nc",
		"mamba",
		"aabbb",
	}
	for _, pp := range patterns {
		p := mustCompile(t, pp.expr, pp.flags)
		bt := NewBacktracker(p)
		vm := NewPikeVM(p)
		for _, input := range inputs {
			wantSlots, err := bt.Search(input, 0)
			if err != nil {
				t.Fatalf("%s on %q: backtracker: %v", pp.expr, input, err)
			}
			gotSlots, err := vm.Search(input, 0)
			if err != nil {
				t.Fatalf("%s on %q: pike vm: %v", pp.expr, input, err)
			}
			if !reflect.DeepEqual(gotSlots, wantSlots) {
				t.Errorf("%s on %q: pike %v, backtracker %v",
					pp.expr, input, gotSlots, wantSlots)
			}
		}
	}
}

// Degenerate empty-body loops: the engines must agree on the match
// bounds and terminate.
func TestEnginesEmptyLoops(t *testing.T) {
	for _, expr := range []string{"(a*)*", "(a*)+", "(|a)*"} {
		p := mustCompile(t, expr, 0)
		bt := NewBacktracker(p)
		vm := NewPikeVM(p)
		for _, input := range []string{"", "aa", "b"} {
			want, err := bt.Search(input, 0)
			if err != nil {
				t.Fatalf("%s on %q: %v", expr, input, err)
			}
			got, err := vm.Search(input, 0)
			if err != nil {
				t.Fatalf("%s on %q: %v", expr, input, err)
			}
			if want == nil || got == nil {
				t.Fatalf("%s on %q: no match (%v, %v)", expr, input, got, want)
			}
			if got[0] != want[0] || got[1] != want[1] {
				t.Errorf("%s on %q: pike bounds [%d,%d], backtracker [%d,%d]",
					expr, input, got[0], got[1], want[0], want[1])
			}
		}
	}
}
