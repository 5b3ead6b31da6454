package regexvm

import (
	"reflect"
	"testing"
)

func TestReplaceAllString(t *testing.T) {
	tests := []struct {
		name string
		expr string
		src  string
		repl string
		want string
	}{
		{"plain", "cat", "cat sat on cat", "dog", "dog sat on dog"},
		{"group ref", `(\w+)@(\w+)`, "bob@host sue@box", "$2/$1", "host/bob box/sue"},
		{"whole match", `\d+`, "a 12 b 34", "<$&>", "a <12> b <34>"},
		{"dollar literal", "x", "axb", "$$", "a$b"},
		{"braced number", "(a)(b)", "ab", "${2}${1}", "ba"},
		{"named group", `(?P<first>\w+) (?P<second>\w+)`, "hello world", "${second} ${first}", "world hello"},
		{"unset group", "(x)|y", "y", "[$1]", "[]"},
		{"no match", "zzz", "abc", "!", "abc"},
		{"empty matches", "x*", "abc", "-", "-a-b-c-"},
		{"unknown group", "a", "a", "$9", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := MustCompile(tt.expr)
			if got := re.ReplaceAllString(tt.src, tt.repl); got != tt.want {
				t.Errorf("ReplaceAllString(%q, %q) = %q, want %q", tt.src, tt.repl, got, tt.want)
			}
		})
	}
}

func TestReplaceFirstString(t *testing.T) {
	re := MustCompile("a")
	if got := re.ReplaceFirstString("banana", "-"); got != "b-nana" {
		t.Errorf("ReplaceFirstString = %q, want b-nana", got)
	}
	if got := re.ReplaceFirstString("xyz", "-"); got != "xyz" {
		t.Errorf("ReplaceFirstString(no match) = %q, want xyz", got)
	}
}

func TestReplaceAllStringFunc(t *testing.T) {
	re := MustCompile(`\d+`)
	got := re.ReplaceAllStringFunc("a1 b22 c333", func(s string) string {
		return "<" + s + ">"
	})
	if got != "a<1> b<22> c<333>" {
		t.Errorf("ReplaceAllStringFunc = %q", got)
	}
}

// A zero-width match at offset 0 still counts as a match; the source
// must not be returned unchanged.
func TestReplaceZeroWidthAtStart(t *testing.T) {
	re := MustCompile(`\A`)
	if got := re.ReplaceAllString("abc", "X"); got != "Xabc" {
		t.Errorf("ReplaceAllString = %q, want Xabc", got)
	}
	re = MustCompile(`\A()\1`)
	if got := re.ReplaceAllString("abc", "X"); got != "Xabc" {
		t.Errorf("ReplaceAllString(backref) = %q, want Xabc", got)
	}
	got := MustCompile("^").ReplaceAllStringFunc("abc", func(string) string { return "<" })
	if got != "<abc" {
		t.Errorf("ReplaceAllStringFunc = %q, want <abc", got)
	}
}

func TestSplitString(t *testing.T) {
	re := MustCompile(",")
	tests := []struct {
		src  string
		n    int
		want []string
	}{
		{"a,b,c", -1, []string{"a", "b", "c"}},
		{"a,b,c", 2, []string{"a", "b,c"}},
		{"a,b,c", 0, nil},
		{"abc", -1, []string{"abc"}},
		{",a,", -1, []string{"", "a", ""}},
	}
	for _, tt := range tests {
		if got := re.SplitString(tt.src, tt.n); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitString(%q, %d) = %q, want %q", tt.src, tt.n, got, tt.want)
		}
	}
}
