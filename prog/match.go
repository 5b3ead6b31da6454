package prog

import (
	"unicode"
	"unicode/utf8"

	"github.com/coregx/regexvm/syntax"
)

// foldEq reports whether a and b are equal under simple Unicode
// folding.
func foldEq(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}

// instMatchRune reports whether a consuming instruction accepts r.
func instMatchRune(inst *Inst, r rune) bool {
	switch inst.Op {
	case OpRune:
		if inst.Fold {
			return foldEq(inst.Rune, r)
		}
		return r == inst.Rune
	case OpRuneClass:
		in := syntax.RangesContain(inst.Ranges, r)
		if !in && inst.Fold {
			for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
				if syntax.RangesContain(inst.Ranges, f) {
					in = true
					break
				}
			}
		}
		if inst.Negated {
			return !in
		}
		return in
	case OpAnyChar:
		return true
	case OpAnyCharNotNL:
		return r != '\n'
	}
	return false
}

// isWordRune matches the \w definition used by \b.
func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= '0' && r <= '9') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= 'a' && r <= 'z')
}

// assertHolds evaluates a zero-width assertion at byte offset pos.
func assertHolds(kind syntax.AssertKind, input string, pos int) bool {
	switch kind {
	case syntax.AssertBeginText:
		return pos == 0
	case syntax.AssertEndText:
		return pos == len(input)
	case syntax.AssertBeginLine:
		return pos == 0 || input[pos-1] == '\n'
	case syntax.AssertEndLine:
		return pos == len(input) || input[pos] == '\n'
	case syntax.AssertWordBoundary, syntax.AssertNoWordBoundary:
		var prev, next rune = -1, -1
		if pos > 0 {
			prev, _ = utf8.DecodeLastRuneInString(input[:pos])
		}
		if pos < len(input) {
			next, _ = utf8.DecodeRuneInString(input[pos:])
		}
		boundary := isWordRune(prev) != isWordRune(next)
		if kind == syntax.AssertNoWordBoundary {
			return !boundary
		}
		return boundary
	}
	return false
}

// backrefLen returns the byte length of input consumed when the text
// captured in group g matches at pos, or -1 on mismatch or unset group.
func backrefLen(inst *Inst, input string, pos int, slots []int) int {
	g := inst.Slot
	lo, hi := slots[2*g], slots[2*g+1]
	if lo < 0 || hi < 0 {
		// Unset group: the path fails rather than matching empty.
		return -1
	}
	captured := input[lo:hi]
	if !inst.Fold {
		if len(input)-pos < len(captured) || input[pos:pos+len(captured)] != captured {
			return -1
		}
		return len(captured)
	}
	n := 0
	for _, cr := range captured {
		r, w := utf8.DecodeRuneInString(input[pos+n:])
		if w == 0 || !foldEq(cr, r) {
			return -1
		}
		n += w
	}
	return n
}
