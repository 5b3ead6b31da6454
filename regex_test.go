package regexvm

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/coregx/regexvm/prog"
	"github.com/coregx/regexvm/syntax"
)

func TestFindStringIndex(t *testing.T) {
	tests := []struct {
		expr  string
		input string
		want  []int
	}{
		{"abc", "xabcy", []int{1, 4}},
		{"abc", "xyz", nil},
		{"a+", "baaab", []int{1, 4}},
		{"^", "abc", []int{0, 0}},
		{"$", "abc", []int{3, 3}},
		{`\d{4}-\d{2}`, "date 2026-08-23", []int{5, 12}},
	}
	for _, tt := range tests {
		re := MustCompile(tt.expr)
		if got := re.FindStringIndex(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q.FindStringIndex(%q) = %v, want %v", tt.expr, tt.input, got, tt.want)
		}
	}
}

func TestFindStringSubmatch(t *testing.T) {
	re := MustCompile(`(\w+)@(\w+)\.com`)
	got := re.FindStringSubmatch("mail me at bob@example.com please")
	want := []string{"bob@example.com", "bob", "example"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FindStringSubmatch = %q, want %q", got, want)
	}
	if re.FindStringSubmatch("no address here") != nil {
		t.Error("FindStringSubmatch on non-match should be nil")
	}
}

func TestNamedGroups(t *testing.T) {
	re := MustCompile(`(?P<year>\d{4})-(?P<month>\d{2})`)
	if got := re.NumSubexp(); got != 2 {
		t.Fatalf("NumSubexp = %d, want 2", got)
	}
	wantNames := []string{"", "year", "month"}
	if got := re.SubexpNames(); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("SubexpNames = %q, want %q", got, wantNames)
	}
	if got := re.SubexpIndex("month"); got != 2 {
		t.Errorf("SubexpIndex(month) = %d, want 2", got)
	}
	if got := re.SubexpIndex("day"); got != -1 {
		t.Errorf("SubexpIndex(day) = %d, want -1", got)
	}

	m := re.FindStringSubmatch("on 2026-08-23")
	if m[re.SubexpIndex("year")] != "2026" {
		t.Errorf("year = %q, want 2026", m[re.SubexpIndex("year")])
	}
}

func TestFindAll(t *testing.T) {
	re := MustCompile(`\d+`)
	input := "1 22 333 4444"

	if got := re.FindAllString(input, -1); !reflect.DeepEqual(got, []string{"1", "22", "333", "4444"}) {
		t.Errorf("FindAllString = %q", got)
	}
	if got := re.FindAllString(input, 2); !reflect.DeepEqual(got, []string{"1", "22"}) {
		t.Errorf("FindAllString(n=2) = %q", got)
	}
	if got := re.FindAllString("none", -1); got != nil {
		t.Errorf("FindAllString(no match) = %q, want nil", got)
	}

	idx := re.FindAllStringIndex(input, -1)
	want := [][]int{{0, 1}, {2, 4}, {5, 8}, {9, 13}}
	if !reflect.DeepEqual(idx, want) {
		t.Errorf("FindAllStringIndex = %v, want %v", idx, want)
	}
}

func TestFindAllEmptyMatches(t *testing.T) {
	// Empty matches advance one rune at a time and never loop.
	re := MustCompile("x*")
	got := re.FindAllStringIndex("héy", -1)
	// é is two bytes, so offset 2 is skipped.
	want := [][]int{{0, 0}, {1, 1}, {3, 3}, {4, 4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindAllStringIndex = %v, want %v", got, want)
	}
}

func TestGlobalFlag(t *testing.T) {
	re, err := CompileFlags("a", syntax.FlagGlobal)
	if err != nil {
		t.Fatal(err)
	}
	if re.Flags()&syntax.FlagGlobal == 0 {
		t.Fatal("global flag lost")
	}
	if got := re.ReplaceString("banana", "-"); got != "b-n-n-" {
		t.Errorf("global ReplaceString = %q, want b-n-n-", got)
	}

	re = MustCompile("a")
	if got := re.ReplaceString("banana", "-"); got != "b-nana" {
		t.Errorf("non-global ReplaceString = %q, want b-nana", got)
	}
}

func TestSearchStepLimit(t *testing.T) {
	// Backreference routes to the backtracker, whose budget the
	// low-level Search surfaces.
	re := MustCompile(`(a+)+\1$`)
	if re.Strategy() != StrategyBacktrack {
		t.Fatalf("strategy = %v, want backtrack", re.Strategy())
	}
	input := strings.Repeat("a", 40) + "b"
	_, err := re.Search(input, 0)
	if !errors.Is(err, prog.ErrStepLimit) {
		t.Fatalf("Search = %v, want ErrStepLimit", err)
	}
	// The convenience API degrades to no match.
	if re.MatchString(input) {
		t.Error("MatchString reported a match on a cut-short search")
	}
}

func TestLiteralSetStrategy(t *testing.T) {
	re := MustCompile("apple|banana|cherry|date|fig")
	if re.Strategy() != StrategyLiteralSet {
		t.Fatalf("strategy = %v, want literal-set", re.Strategy())
	}
	tests := []struct {
		input string
		want  string
	}{
		{"I ate a banana today", "banana"},
		{"fig and date", "fig"},
		{"grape", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := re.FindString(tt.input); got != tt.want {
			t.Errorf("FindString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
	// All-matches iteration crosses the candidate scan repeatedly.
	got := re.FindAllString("date, apple; cherry", -1)
	if !reflect.DeepEqual(got, []string{"date", "apple", "cherry"}) {
		t.Errorf("FindAllString = %q", got)
	}
}

// Overlapping alternates must resolve the same way under the automaton
// strategy as under the plain VM scan: leftmost start first, then
// alternation order.
func TestLiteralSetOverlap(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    []int
	}{
		{"bc|abcd|xx|yy", "zabcd", []int{1, 5}},
		{"ab|abcd|xx|yy", "zabcd", []int{1, 3}},
		{"bc|abcd|xx|yy", "zbcd", []int{1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			fast := MustCompile(tt.pattern)
			if fast.Strategy() != StrategyLiteralSet {
				t.Fatalf("strategy = %v, want literal-set", fast.Strategy())
			}
			// Wrapping in a group forces the plain VM scan.
			slow := MustCompile("(" + tt.pattern + ")")
			if slow.Strategy() != StrategyPikeVM {
				t.Fatalf("reference strategy = %v, want pikevm", slow.Strategy())
			}
			got := fast.FindStringIndex(tt.input)
			ref := slow.FindStringIndex(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindStringIndex = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(ref, tt.want) {
				t.Errorf("reference FindStringIndex = %v, want %v", ref, tt.want)
			}
		})
	}
}

func TestPrefixSkip(t *testing.T) {
	re := MustCompile("needle[0-9]")
	if re.Program().Prefix != "needle" {
		t.Fatalf("prefix = %q, want needle", re.Program().Prefix)
	}
	input := strings.Repeat("hay ", 100) + "needle7"
	if got := re.FindString(input); got != "needle7" {
		t.Errorf("FindString = %q, want needle7", got)
	}
	if re.MatchString(strings.Repeat("hay ", 100)) {
		t.Error("false positive without prefix present")
	}
}

func TestFromProgram(t *testing.T) {
	src := MustCompile(`(\w+)-(\d+)`)
	re := FromProgram(src.String(), src.Program())
	got := re.FindStringSubmatch("item abc-42 done")
	want := []string{"abc-42", "abc", "42"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindStringSubmatch = %q, want %q", got, want)
	}
	if re.String() != src.String() {
		t.Errorf("String = %q, want %q", re.String(), src.String())
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile on a bad pattern did not panic")
		}
	}()
	MustCompile("(")
}

func TestConcurrentUse(t *testing.T) {
	res := []*Regex{
		MustCompile(`\b\w+\b`),
		MustCompile(`(a)b\1|x`),
		MustCompile("apple|banana|cherry|date|fig"),
	}
	inputs := []string{
		"the quick brown fox",
		"aba x aba",
		"fig apple banana",
		"",
	}
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				for _, re := range res {
					for _, in := range inputs {
						_ = re.MatchString(in)
						_ = re.FindStringSubmatchIndex(in)
					}
				}
			}
		}()
	}
	wg.Wait()
}

func TestUnicodeMatching(t *testing.T) {
	tests := []struct {
		expr  string
		flags syntax.Flags
		input string
		want  string
	}{
		{`\p{Greek}+`, 0, "ascii αβγ more", "αβγ"},
		{`\p{Lu}+`, 0, "loud SHOUT quiet", "SHOUT"},
		{"(?i)straße", 0, "STRASSE straße", "straße"},
		{"[α-ω]+", 0, "A κοσμε B", "κοσμε"},
	}
	for _, tt := range tests {
		re, err := CompileFlags(tt.expr, tt.flags)
		if err != nil {
			t.Fatalf("CompileFlags(%q): %v", tt.expr, err)
		}
		if got := re.FindString(tt.input); got != tt.want {
			t.Errorf("%q.FindString(%q) = %q, want %q", tt.expr, tt.input, got, tt.want)
		}
	}
}
