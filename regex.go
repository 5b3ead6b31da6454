// Package regexvm is a regular expression engine built around a
// compact linear instruction program with two interchangeable
// execution engines: a depth-first backtracker and a breadth-first
// Pike VM. The dialect supports lookaround, backreferences, inline
// flags, and character class set operations ([a-z&&[^aeiou]] style
// intersection, difference and union).
//
// Compile selects an execution strategy per pattern: backreferences
// force the backtracker, large plain literal alternations use an
// Aho-Corasick automaton to find candidates, and everything else runs
// on the Pike VM with linear time guarantees. A compiled Regex is
// immutable and safe for concurrent use; per-search scratch is pooled.
package regexvm

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/regexvm/prog"
	"github.com/coregx/regexvm/syntax"
)

// Strategy identifies the execution plan chosen at compile time.
type Strategy int

const (
	// StrategyPikeVM runs the breadth-first VM. Default.
	StrategyPikeVM Strategy = iota
	// StrategyBacktrack runs the depth-first engine. Chosen whenever
	// the pattern contains backreferences.
	StrategyBacktrack
	// StrategyLiteralSet uses an Aho-Corasick automaton over the
	// alternation's literals to find candidates, then confirms with an
	// anchored VM run. Chosen for alternations of several plain
	// literals.
	StrategyLiteralSet
)

func (s Strategy) String() string {
	switch s {
	case StrategyPikeVM:
		return "pikevm"
	case StrategyBacktrack:
		return "backtrack"
	case StrategyLiteralSet:
		return "literal-set"
	}
	return "unknown"
}

// minLiteralAlternates is the alternation size at which the literal
// set strategy starts paying for the automaton build.
const minLiteralAlternates = 4

// Regex is a compiled pattern. Safe for concurrent use.
type Regex struct {
	expr     string
	flags    syntax.Flags
	prog     *prog.Prog
	strategy Strategy

	pike     *prog.PikeVM
	literals *ahocorasick.Automaton

	states sync.Pool // *searchState
}

// searchState is the pooled per-search scratch: one Pike VM state and
// one backtracker, whichever the strategy ends up needing.
type searchState struct {
	pike *prog.PikeState
	back *prog.Backtracker
}

// Compile parses and compiles a pattern with no flags.
func Compile(expr string) (*Regex, error) {
	return CompileFlags(expr, 0)
}

// CompileFlags parses and compiles a pattern under the given flags.
// Use syntax.ParseFlags to build flags from a string like "ims".
func CompileFlags(expr string, flags syntax.Flags) (*Regex, error) {
	pat, err := syntax.Parse(expr, flags)
	if err != nil {
		return nil, err
	}
	p, err := prog.Compile(pat)
	if err != nil {
		return nil, err
	}
	re := newRegex(expr, p)

	if lits, ok := literalAlternates(pat); ok {
		b := ahocorasick.NewBuilder()
		for _, lit := range lits {
			b.AddPattern([]byte(lit))
		}
		if auto, err := b.Build(); err == nil {
			re.literals = auto
			re.strategy = StrategyLiteralSet
		}
	}
	return re, nil
}

// MustCompile is Compile but panics on error, for package-level
// variables.
func MustCompile(expr string) *Regex {
	re, err := Compile(expr)
	if err != nil {
		panic("regexvm: Compile(" + quote(expr) + "): " + err.Error())
	}
	return re
}

// MustCompileFlags is CompileFlags but panics on error.
func MustCompileFlags(expr string, flags syntax.Flags) *Regex {
	re, err := CompileFlags(expr, flags)
	if err != nil {
		panic("regexvm: Compile(" + quote(expr) + "): " + err.Error())
	}
	return re
}

// FromProgram wraps an already compiled program, typically one emitted
// by the regexgen code generator. expr is kept for String only.
func FromProgram(expr string, p *prog.Prog) *Regex {
	return newRegex(expr, p)
}

func newRegex(expr string, p *prog.Prog) *Regex {
	re := &Regex{
		expr:     expr,
		flags:    p.Flags,
		prog:     p,
		strategy: StrategyPikeVM,
		pike:     prog.NewPikeVM(p),
	}
	if p.HasBackref {
		re.strategy = StrategyBacktrack
	}
	re.states.New = func() any {
		st := &searchState{
			back: prog.NewBacktracker(p),
			pike: prog.NewPikeState(),
		}
		re.pike.InitState(st.pike)
		return st
	}
	return re
}

// literalAlternates reports whether the whole pattern is an
// alternation of plain case-sensitive literals, large enough for the
// literal set strategy.
func literalAlternates(pat *syntax.Pattern) ([]string, bool) {
	if pat.NumCap != 1 {
		return nil, false
	}
	alt, ok := pat.Root.(*syntax.Alternate)
	if !ok || len(alt.Subs) < minLiteralAlternates {
		return nil, false
	}
	lits := make([]string, 0, len(alt.Subs))
	for _, sub := range alt.Subs {
		lit, ok := sub.(*syntax.Literal)
		if !ok || lit.Fold || len(lit.Runes) == 0 {
			return nil, false
		}
		lits = append(lits, string(lit.Runes))
	}
	return lits, true
}

// String returns the source text of the pattern.
func (re *Regex) String() string { return re.expr }

// Flags returns the flags the pattern was compiled with.
func (re *Regex) Flags() syntax.Flags { return re.flags }

// Strategy returns the execution plan chosen at compile time.
func (re *Regex) Strategy() Strategy { return re.strategy }

// Program returns the compiled instruction program. The caller must
// not modify it.
func (re *Regex) Program() *prog.Prog { return re.prog }

// NumSubexp returns the number of capturing groups, excluding the
// implicit group 0.
func (re *Regex) NumSubexp() int { return re.prog.NumCap - 1 }

// SubexpNames returns the names of the capturing groups, indexed by
// group number. Unnamed groups have an empty string; entry 0 is
// always empty.
func (re *Regex) SubexpNames() []string {
	names := make([]string, re.prog.NumCap)
	copy(names, re.prog.Names)
	return names
}

// SubexpIndex returns the group number of the named group, or -1.
func (re *Regex) SubexpIndex(name string) int {
	if name == "" {
		return -1
	}
	for i, n := range re.prog.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Search is the low-level entry point: it finds the leftmost match at
// or after byte offset start and returns the capture slots as byte
// offset pairs (2*(NumSubexp+1) entries, -1 for unset groups), or nil
// when there is no match. It is the only entry point that surfaces
// prog.ErrStepLimit; the convenience methods treat a cut-short search
// as no match.
func (re *Regex) Search(input string, start int) ([]int, error) {
	if start < 0 || start > len(input) {
		return nil, nil
	}
	st := re.states.Get().(*searchState)
	defer re.states.Put(st)
	return re.search(st, input, start)
}

func (re *Regex) search(st *searchState, input string, start int) ([]int, error) {
	switch re.strategy {
	case StrategyBacktrack:
		if pos, ok := re.skipToPrefix(input, start); ok {
			return st.back.Search(input, pos)
		}
		return nil, nil

	case StrategyLiteralSet:
		if start >= len(input) {
			// The automaton has nothing to scan; no literal is empty.
			return nil, nil
		}
		// Find reports the leftmost candidate under the same
		// first-pattern-wins rule the VM applies to alternations;
		// overlapping literals resolve identically in both strategies.
		m := re.literals.Find([]byte(input), start)
		if m == nil {
			return nil, nil
		}
		// Anchored confirmation re-derives bounds and capture slots
		// from the pattern itself.
		return re.pike.SearchAtWithState(st.pike, input, m.Start)

	default:
		if pos, ok := re.skipToPrefix(input, start); ok {
			return re.pike.SearchWithState(st.pike, input, pos)
		}
		return nil, nil
	}
}

// skipToPrefix advances start to the first occurrence of the
// program's mandatory literal prefix. Positions before it cannot
// start a match.
func (re *Regex) skipToPrefix(input string, start int) (int, bool) {
	pfx := re.prog.Prefix
	if pfx == "" {
		return start, true
	}
	i := strings.Index(input[start:], pfx)
	if i < 0 {
		return 0, false
	}
	return start + i, true
}

// MatchString reports whether the pattern matches anywhere in s.
func (re *Regex) MatchString(s string) bool {
	m, err := re.Search(s, 0)
	return err == nil && m != nil
}

// Match reports whether the pattern matches anywhere in b.
func (re *Regex) Match(b []byte) bool {
	return re.MatchString(string(b))
}

// FindString returns the text of the leftmost match, or "" when there
// is none. Use FindStringIndex to tell an empty match from no match.
func (re *Regex) FindString(s string) string {
	m, err := re.Search(s, 0)
	if err != nil || m == nil {
		return ""
	}
	return s[m[0]:m[1]]
}

// FindStringIndex returns the byte offsets of the leftmost match, or
// nil.
func (re *Regex) FindStringIndex(s string) []int {
	m, err := re.Search(s, 0)
	if err != nil || m == nil {
		return nil
	}
	return []int{m[0], m[1]}
}

// FindStringSubmatch returns the text of the leftmost match and its
// groups. Unset groups yield "".
func (re *Regex) FindStringSubmatch(s string) []string {
	m, err := re.Search(s, 0)
	if err != nil || m == nil {
		return nil
	}
	out := make([]string, re.prog.NumCap)
	for i := 0; i < re.prog.NumCap; i++ {
		lo, hi := m[2*i], m[2*i+1]
		if lo >= 0 && hi >= 0 {
			out[i] = s[lo:hi]
		}
	}
	return out
}

// FindStringSubmatchIndex returns the byte offset pairs of the
// leftmost match and its groups, -1 for unset groups, or nil.
func (re *Regex) FindStringSubmatchIndex(s string) []int {
	m, err := re.Search(s, 0)
	if err != nil || m == nil {
		return nil
	}
	return m
}

// FindAllString returns the text of up to n successive non-overlapping
// matches. n < 0 means all.
func (re *Regex) FindAllString(s string, n int) []string {
	var out []string
	re.findAll(s, n, func(m []int) {
		out = append(out, s[m[0]:m[1]])
	})
	return out
}

// FindAllStringIndex returns the offsets of up to n successive
// non-overlapping matches. n < 0 means all.
func (re *Regex) FindAllStringIndex(s string, n int) [][]int {
	var out [][]int
	re.findAll(s, n, func(m []int) {
		out = append(out, []int{m[0], m[1]})
	})
	return out
}

// FindAllStringSubmatchIndex returns the full slot vectors of up to n
// successive non-overlapping matches. n < 0 means all.
func (re *Regex) FindAllStringSubmatchIndex(s string, n int) [][]int {
	var out [][]int
	re.findAll(s, n, func(m []int) {
		out = append(out, m)
	})
	return out
}

// findAll drives successive non-overlapping searches. An empty match
// advances by one rune so iteration always terminates.
func (re *Regex) findAll(s string, n int, yield func([]int)) {
	if n < 0 {
		n = len(s) + 1
	}
	st := re.states.Get().(*searchState)
	defer re.states.Put(st)

	pos := 0
	for count := 0; count < n && pos <= len(s); count++ {
		m, err := re.search(st, s, pos)
		if err != nil || m == nil {
			return
		}
		yield(m)
		if m[1] > m[0] {
			pos = m[1]
		} else {
			pos = m[1] + 1
			if m[1] < len(s) {
				_, w := utf8.DecodeRuneInString(s[m[1]:])
				pos = m[1] + w
			}
		}
	}
}

func quote(s string) string {
	if strings.ContainsRune(s, '`') {
		return `"` + s + `"`
	}
	return "`" + s + "`"
}
