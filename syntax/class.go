package syntax

import (
	"sort"
	"unicode"
)

// Range is an inclusive range of runes.
type Range struct {
	Lo, Hi rune
}

// Built-in class escapes. \w follows the ASCII definition used by the
// word-boundary assertion so the two agree.
var (
	digitRanges = []Range{{'0', '9'}}
	wordRanges  = []Range{{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}}
	spaceRanges = []Range{{'\t', '\r'}, {' ', ' '}}
)

// normalizeRanges sorts rs by Lo and merges overlapping or adjacent
// ranges. The input slice is reused.
func normalizeRanges(rs []Range) []Range {
	if len(rs) <= 1 {
		return rs
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].Lo < rs[j].Lo })
	out := rs[:1]
	for _, r := range rs[1:] {
		last := &out[len(out)-1]
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// negateRanges complements rs over [0, MaxRune]. rs must be normalized.
func negateRanges(rs []Range) []Range {
	var out []Range
	next := rune(0)
	for _, r := range rs {
		if r.Lo > next {
			out = append(out, Range{next, r.Lo - 1})
		}
		next = r.Hi + 1
	}
	if next <= unicode.MaxRune {
		out = append(out, Range{next, unicode.MaxRune})
	}
	return out
}

// unionRanges returns a ∪ b, normalized.
func unionRanges(a, b []Range) []Range {
	merged := make([]Range, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return normalizeRanges(merged)
}

// intersectRanges returns a ∩ b. Both inputs must be normalized.
func intersectRanges(a, b []Range) []Range {
	var out []Range
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo, hi := a[i].Lo, a[i].Hi
		if b[j].Lo > lo {
			lo = b[j].Lo
		}
		if b[j].Hi < hi {
			hi = b[j].Hi
		}
		if lo <= hi {
			out = append(out, Range{lo, hi})
		}
		if a[i].Hi < b[j].Hi {
			i++
		} else {
			j++
		}
	}
	return out
}

// differenceRanges returns a \ b. Both inputs must be normalized.
func differenceRanges(a, b []Range) []Range {
	return intersectRanges(a, negateRanges(b))
}

// rangeTableRanges flattens a unicode.RangeTable into rune ranges.
// Stride-n ranges are split so the result is plain inclusive intervals.
func rangeTableRanges(t *unicode.RangeTable) []Range {
	var out []Range
	for _, r := range t.R16 {
		if r.Stride == 1 {
			out = append(out, Range{rune(r.Lo), rune(r.Hi)})
			continue
		}
		for c := rune(r.Lo); c <= rune(r.Hi); c += rune(r.Stride) {
			out = append(out, Range{c, c})
		}
	}
	for _, r := range t.R32 {
		if r.Stride == 1 {
			out = append(out, Range{rune(r.Lo), rune(r.Hi)})
			continue
		}
		for c := rune(r.Lo); c <= rune(r.Hi); c += rune(r.Stride) {
			out = append(out, Range{c, c})
		}
	}
	return normalizeRanges(out)
}

// unicodePropertyRanges resolves a \p{Name} property to rune ranges.
// General categories ("L", "Lu", "Nd", ...) are tried first, then
// scripts ("Greek", "Latin", ...). Returns nil if the name is unknown.
func unicodePropertyRanges(name string) []Range {
	if t, ok := unicode.Categories[name]; ok {
		return rangeTableRanges(t)
	}
	if t, ok := unicode.Scripts[name]; ok {
		return rangeTableRanges(t)
	}
	// Long-form aliases for the one-letter categories.
	switch name {
	case "Letter":
		return rangeTableRanges(unicode.L)
	case "Number":
		return rangeTableRanges(unicode.N)
	case "Mark":
		return rangeTableRanges(unicode.M)
	case "Punctuation":
		return rangeTableRanges(unicode.P)
	case "Symbol":
		return rangeTableRanges(unicode.S)
	case "Separator":
		return rangeTableRanges(unicode.Z)
	}
	return nil
}

// RangesContain reports whether r falls in one of the normalized
// ranges, using binary search.
func RangesContain(rs []Range, r rune) bool {
	lo, hi := 0, len(rs)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case r < rs[mid].Lo:
			hi = mid
		case r > rs[mid].Hi:
			lo = mid + 1
		default:
			return true
		}
	}
	return false
}
