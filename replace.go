package regexvm

import (
	"strings"

	"github.com/coregx/regexvm/syntax"
)

// ReplaceString replaces matches of the pattern in src with repl.
// Patterns compiled with the global flag replace every match, others
// only the first. The replacement template supports $& for the whole
// match, $1 through $99 and ${name} for groups, and $$ for a literal
// dollar sign. Unset groups expand to "".
func (re *Regex) ReplaceString(src, repl string) string {
	if re.flags&syntax.FlagGlobal != 0 {
		return re.ReplaceAllString(src, repl)
	}
	return re.ReplaceFirstString(src, repl)
}

// ReplaceAllString replaces every non-overlapping match in src with
// the expanded repl template.
func (re *Regex) ReplaceAllString(src, repl string) string {
	var b strings.Builder
	last := 0
	matched := false
	re.findAll(src, -1, func(m []int) {
		b.WriteString(src[last:m[0]])
		re.expand(&b, repl, src, m)
		last = m[1]
		matched = true
	})
	if !matched {
		return src
	}
	b.WriteString(src[last:])
	return b.String()
}

// ReplaceFirstString replaces only the leftmost match.
func (re *Regex) ReplaceFirstString(src, repl string) string {
	m, err := re.Search(src, 0)
	if err != nil || m == nil {
		return src
	}
	var b strings.Builder
	b.WriteString(src[:m[0]])
	re.expand(&b, repl, src, m)
	b.WriteString(src[m[1]:])
	return b.String()
}

// ReplaceAllStringFunc replaces every non-overlapping match with the
// return value of f applied to the matched text.
func (re *Regex) ReplaceAllStringFunc(src string, f func(string) string) string {
	var b strings.Builder
	last := 0
	matched := false
	re.findAll(src, -1, func(m []int) {
		b.WriteString(src[last:m[0]])
		b.WriteString(f(src[m[0]:m[1]]))
		last = m[1]
		matched = true
	})
	if !matched {
		return src
	}
	b.WriteString(src[last:])
	return b.String()
}

// expand writes the repl template to b with group references filled
// in from match.
func (re *Regex) expand(b *strings.Builder, repl, src string, match []int) {
	for i := 0; i < len(repl); {
		c := repl[i]
		if c != '$' || i+1 == len(repl) {
			b.WriteByte(c)
			i++
			continue
		}
		i++
		switch {
		case repl[i] == '$':
			b.WriteByte('$')
			i++

		case repl[i] == '&':
			re.writeGroup(b, src, match, 0)
			i++

		case repl[i] == '{':
			j := strings.IndexByte(repl[i:], '}')
			if j < 0 {
				// Unterminated brace: leave the text as is.
				b.WriteByte('$')
				continue
			}
			name := repl[i+1 : i+j]
			i += j + 1
			if g, ok := groupNumber(name); ok {
				re.writeGroup(b, src, match, g)
			} else if g := re.SubexpIndex(name); g >= 0 {
				re.writeGroup(b, src, match, g)
			}

		case repl[i] >= '0' && repl[i] <= '9':
			g := 0
			for i < len(repl) && repl[i] >= '0' && repl[i] <= '9' && g < 100 {
				g = g*10 + int(repl[i]-'0')
				i++
			}
			re.writeGroup(b, src, match, g)

		default:
			b.WriteByte('$')
		}
	}
}

func (re *Regex) writeGroup(b *strings.Builder, src string, match []int, g int) {
	if g >= re.prog.NumCap {
		return
	}
	lo, hi := match[2*g], match[2*g+1]
	if lo < 0 || hi < 0 {
		return
	}
	b.WriteString(src[lo:hi])
}

func groupNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n >= 1000 {
			return 0, false
		}
	}
	return n, true
}

// SplitString slices src around all matches, returning at most n
// substrings. n < 0 means all. Adjacent matches produce empty
// elements, matching the behavior of the standard library.
func (re *Regex) SplitString(src string, n int) []string {
	if n == 0 {
		return nil
	}
	matches := re.FindAllStringIndex(src, -1)
	out := make([]string, 0, len(matches)+1)
	last := 0
	for _, m := range matches {
		if n > 0 && len(out) >= n-1 {
			break
		}
		out = append(out, src[last:m[0]])
		last = m[1]
	}
	out = append(out, src[last:])
	return out
}
