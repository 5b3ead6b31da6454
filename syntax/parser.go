package syntax

import (
	"strings"
	"unicode/utf8"
)

// maxRepeatCount bounds {m,n} quantifiers. The compiler unrolls counted
// repeats, so the bound keeps program sizes predictable.
const maxRepeatCount = 1000

// Parse parses a pattern under the given flags and returns its AST.
func Parse(expr string, flags Flags) (*Pattern, error) {
	p := &parser{
		expr:  expr,
		flags: flags,
		names: make(map[int]string),
	}
	root, err := p.parseAlternate()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.expr) {
		// Only an unbalanced ')' can stop parseAlternate early.
		return nil, p.errorf(ErrUnbalancedGroup)
	}
	names := make([]string, p.numCap+1)
	for i, name := range p.names {
		names[i] = name
	}
	return &Pattern{
		Root:   root,
		Expr:   expr,
		Flags:  flags,
		NumCap: p.numCap + 1,
		Names:  names,
	}, nil
}

type parser struct {
	expr   string
	pos    int
	flags  Flags
	numCap int // capture groups seen so far, excluding group 0
	names  map[int]string
}

func (p *parser) errorf(code ErrorCode) error {
	return &Error{Code: code, Expr: p.expr, Offset: p.pos}
}

func (p *parser) errorAt(code ErrorCode, off int) error {
	return &Error{Code: code, Expr: p.expr, Offset: off}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.expr)
}

func (p *parser) peek() rune {
	if p.eof() {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(p.expr[p.pos:])
	return r
}

func (p *parser) next() rune {
	if p.eof() {
		return -1
	}
	r, w := utf8.DecodeRuneInString(p.expr[p.pos:])
	p.pos += w
	return r
}

// lit wraps a single rune in a Literal node honoring the current fold
// flag.
func (p *parser) lit(r rune) Node {
	return &Literal{Runes: []rune{r}, Fold: p.flags&FlagIgnoreCase != 0}
}

// skipSpace consumes free-spacing whitespace and # comments when
// FlagExtended is set. Outside extended mode it is a no-op.
func (p *parser) skipSpace() {
	if p.flags&FlagExtended == 0 {
		return
	}
	for !p.eof() {
		c := p.expr[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			p.pos++
		case c == '#':
			for !p.eof() && p.expr[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

// parseAlternate handles branch|branch|...
func (p *parser) parseAlternate() (Node, error) {
	first, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	if p.eof() || p.peek() != '|' {
		return first, nil
	}
	subs := []Node{first}
	for !p.eof() && p.peek() == '|' {
		p.next()
		sub, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return &Alternate{Subs: subs}, nil
}

// parseConcat handles a sequence of quantified atoms.
func (p *parser) parseConcat() (Node, error) {
	var subs []Node
	for {
		p.skipSpace()
		if p.eof() || p.peek() == '|' || p.peek() == ')' {
			break
		}
		sub, err := p.parseRepeat()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	switch len(subs) {
	case 0:
		return &Empty{}, nil
	case 1:
		return subs[0], nil
	}
	return &Concat{Subs: subs}, nil
}

// parseRepeat parses an atom and any quantifier suffix attached to it.
func (p *parser) parseRepeat() (Node, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		min, max, quantified, err := p.parseQuantifier()
		if err != nil {
			return nil, err
		}
		if !quantified {
			return atom, nil
		}
		greedy := true
		p.skipSpace()
		if !p.eof() && p.peek() == '?' {
			p.next()
			greedy = false
		}
		if _, ok := atom.(*Repeat); ok {
			// a** and friends
			return nil, p.errorf(ErrBadQuantifier)
		}
		atom = &Repeat{Sub: atom, Min: min, Max: max, Greedy: greedy}
	}
}

// parseQuantifier consumes *, +, ? or {m,n} if present.
// Returns quantified=false when the next token is not a quantifier.
// A '{' that does not open a well-formed bound is left for the caller
// to treat as a literal.
func (p *parser) parseQuantifier() (min, max int, quantified bool, err error) {
	if p.eof() {
		return 0, 0, false, nil
	}
	start := p.pos
	switch p.peek() {
	case '*':
		p.next()
		return 0, -1, true, nil
	case '+':
		p.next()
		return 1, -1, true, nil
	case '?':
		p.next()
		return 0, 1, true, nil
	case '{':
		p.next()
		min, ok := p.scanInt()
		if !ok {
			// Not a quantifier; '{' is a literal.
			p.pos = start
			return 0, 0, false, nil
		}
		max = min
		if p.peek() == ',' {
			p.next()
			if p.peek() == '}' {
				max = -1
			} else {
				max, ok = p.scanInt()
				if !ok {
					return 0, 0, false, p.errorAt(ErrBadQuantifier, start)
				}
			}
		}
		if p.peek() != '}' {
			return 0, 0, false, p.errorAt(ErrBadQuantifier, start)
		}
		p.next()
		if min > maxRepeatCount || max > maxRepeatCount || (max != -1 && min > max) {
			return 0, 0, false, p.errorAt(ErrBadQuantifier, start)
		}
		return min, max, true, nil
	}
	return 0, 0, false, nil
}

func (p *parser) scanInt() (int, bool) {
	start := p.pos
	n := 0
	for !p.eof() && p.expr[p.pos] >= '0' && p.expr[p.pos] <= '9' {
		n = n*10 + int(p.expr[p.pos]-'0')
		if n > 1<<24 {
			return 0, false
		}
		p.pos++
	}
	return n, p.pos > start
}

// parseAtom parses a single non-quantified element.
func (p *parser) parseAtom() (Node, error) {
	switch p.peek() {
	case '(':
		p.next()
		return p.parseGroup()
	case '[':
		p.next()
		return p.parseClass()
	case '.':
		p.next()
		return &AnyChar{DotAll: p.flags&FlagDotAll != 0}, nil
	case '^':
		p.next()
		if p.flags&FlagMultiline != 0 {
			return &Assert{Kind: AssertBeginLine}, nil
		}
		return &Assert{Kind: AssertBeginText}, nil
	case '$':
		p.next()
		if p.flags&FlagMultiline != 0 {
			return &Assert{Kind: AssertEndLine}, nil
		}
		return &Assert{Kind: AssertEndText}, nil
	case '\\':
		return p.parseEscape()
	case '*', '+', '?':
		return nil, p.errorf(ErrBadQuantifier)
	case ')':
		return nil, p.errorf(ErrUnbalancedGroup)
	default:
		return p.lit(p.next()), nil
	}
}

// parseEscape handles escapes outside character classes.
func (p *parser) parseEscape() (Node, error) {
	off := p.pos
	p.next() // backslash
	if p.eof() {
		return nil, p.errorAt(ErrTrailingBackslash, off)
	}
	fold := p.flags&FlagIgnoreCase != 0
	c := p.next()
	switch c {
	case 'd':
		return &Class{Ranges: digitRanges, Fold: fold}, nil
	case 'D':
		return &Class{Ranges: digitRanges, Negated: true, Fold: fold}, nil
	case 'w':
		return &Class{Ranges: wordRanges, Fold: fold}, nil
	case 'W':
		return &Class{Ranges: wordRanges, Negated: true, Fold: fold}, nil
	case 's':
		return &Class{Ranges: spaceRanges, Fold: fold}, nil
	case 'S':
		return &Class{Ranges: spaceRanges, Negated: true, Fold: fold}, nil
	case 'b':
		return &Assert{Kind: AssertWordBoundary}, nil
	case 'B':
		return &Assert{Kind: AssertNoWordBoundary}, nil
	case 'A':
		return &Assert{Kind: AssertBeginText}, nil
	case 'z', 'Z':
		return &Assert{Kind: AssertEndText}, nil
	case 'p', 'P':
		rs, err := p.parseUnicodeProperty(off)
		if err != nil {
			return nil, err
		}
		return &Class{Ranges: rs, Negated: c == 'P', Fold: fold}, nil
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		idx := int(c - '0')
		if idx > p.numCap {
			return nil, p.errorAt(ErrBadBackref, off)
		}
		return &Backref{Index: idx, Fold: fold}, nil
	}
	r, err := p.escapedRune(c, off)
	if err != nil {
		return nil, err
	}
	return p.lit(r), nil
}

// escapedRune resolves the simple (single-rune) escapes shared between
// atoms and character classes. c is the rune after the backslash.
func (p *parser) escapedRune(c rune, off int) (rune, error) {
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case 'f':
		return '\f', nil
	case 'v':
		return '\v', nil
	case 'a':
		return '\a', nil
	case '0':
		return 0, nil
	case 'x':
		return p.scanHexEscape(off)
	case 'u':
		return p.scanFixedHex(4, off)
	}
	// Any punctuation escapes to itself. Escaping a letter that has no
	// assigned meaning is an error rather than a silent literal.
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
		return 0, p.errorAt(ErrBadEscape, off)
	}
	return c, nil
}

// scanHexEscape handles \xHH and \x{H...}.
func (p *parser) scanHexEscape(off int) (rune, error) {
	if !p.eof() && p.peek() == '{' {
		p.next()
		var r rune
		n := 0
		for !p.eof() && p.peek() != '}' {
			d, ok := hexDigit(p.next())
			if !ok {
				return 0, p.errorAt(ErrBadEscape, off)
			}
			r = r<<4 | d
			if n++; n > 6 || r > utf8.MaxRune {
				return 0, p.errorAt(ErrBadEscape, off)
			}
		}
		if p.eof() || n == 0 {
			return 0, p.errorAt(ErrBadEscape, off)
		}
		p.next() // '}'
		return r, nil
	}
	return p.scanFixedHex(2, off)
}

func (p *parser) scanFixedHex(n int, off int) (rune, error) {
	var r rune
	for i := 0; i < n; i++ {
		if p.eof() {
			return 0, p.errorAt(ErrBadEscape, off)
		}
		d, ok := hexDigit(p.next())
		if !ok {
			return 0, p.errorAt(ErrBadEscape, off)
		}
		r = r<<4 | d
	}
	if r > utf8.MaxRune {
		return 0, p.errorAt(ErrBadEscape, off)
	}
	return r, nil
}

func hexDigit(c rune) (rune, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// parseUnicodeProperty handles the name part of \p{Name}, \pL and the
// negated forms.
func (p *parser) parseUnicodeProperty(off int) ([]Range, error) {
	if p.eof() {
		return nil, p.errorAt(ErrBadEscape, off)
	}
	var name string
	if p.peek() == '{' {
		p.next()
		end := strings.IndexByte(p.expr[p.pos:], '}')
		if end < 0 {
			return nil, p.errorAt(ErrUnknownProperty, off)
		}
		name = p.expr[p.pos : p.pos+end]
		p.pos += end + 1
	} else {
		name = string(p.next())
	}
	rs := unicodePropertyRanges(name)
	if rs == nil {
		return nil, p.errorAt(ErrUnknownProperty, off)
	}
	return rs, nil
}

// parseGroup handles everything after '(': capturing and non-capturing
// groups, named groups, lookaround, and inline flag toggles.
func (p *parser) parseGroup() (Node, error) {
	off := p.pos - 1
	if p.eof() {
		return nil, p.errorAt(ErrUnbalancedGroup, off)
	}
	if p.peek() != '?' {
		// Plain capturing group.
		p.numCap++
		idx := p.numCap
		sub, err := p.parseGroupBody(off)
		if err != nil {
			return nil, err
		}
		return &Group{Sub: sub, Index: idx}, nil
	}
	p.next() // '?'
	if p.eof() {
		return nil, p.errorAt(ErrBadGroupSyntax, off)
	}
	switch p.peek() {
	case ':':
		p.next()
		return p.parseGroupBody(off)
	case 'P':
		p.next()
		if p.eof() || p.next() != '<' {
			return nil, p.errorAt(ErrBadGroupSyntax, off)
		}
		return p.parseNamedGroup(off)
	case '=':
		p.next()
		return p.parseLook(off, false, false)
	case '!':
		p.next()
		return p.parseLook(off, true, false)
	case '<':
		p.next()
		switch p.peek() {
		case '=':
			p.next()
			return p.parseLook(off, false, true)
		case '!':
			p.next()
			return p.parseLook(off, true, true)
		default:
			// (?<name>...) named group.
			return p.parseNamedGroup(off)
		}
	default:
		return p.parseFlagGroup(off)
	}
}

func (p *parser) parseGroupBody(off int) (Node, error) {
	saved := p.flags
	sub, err := p.parseAlternate()
	if err != nil {
		return nil, err
	}
	if p.eof() || p.next() != ')' {
		return nil, p.errorAt(ErrUnbalancedGroup, off)
	}
	p.flags = saved
	return sub, nil
}

func (p *parser) parseNamedGroup(off int) (Node, error) {
	end := strings.IndexByte(p.expr[p.pos:], '>')
	if end < 0 {
		return nil, p.errorAt(ErrBadGroupSyntax, off)
	}
	name := p.expr[p.pos : p.pos+end]
	if name == "" {
		return nil, p.errorAt(ErrBadGroupSyntax, off)
	}
	p.pos += end + 1
	p.numCap++
	idx := p.numCap
	p.names[idx] = name
	sub, err := p.parseGroupBody(off)
	if err != nil {
		return nil, err
	}
	return &Group{Sub: sub, Index: idx, Name: name}, nil
}

func (p *parser) parseLook(off int, negated, behind bool) (Node, error) {
	sub, err := p.parseGroupBody(off)
	if err != nil {
		return nil, err
	}
	return &Look{Sub: sub, Negated: negated, Behind: behind}, nil
}

// parseFlagGroup handles (?flags), (?flags-flags) and the scoped
// (?flags:...) and (?flags-flags:...) forms. The unscoped form changes
// flags for the remainder of the enclosing group.
func (p *parser) parseFlagGroup(off int) (Node, error) {
	set, clear, err := p.scanInlineFlags(off)
	if err != nil {
		return nil, err
	}
	switch p.peek() {
	case ')':
		p.next()
		p.flags = (p.flags | set) &^ clear
		return &Empty{}, nil
	case ':':
		p.next()
		saved := p.flags
		p.flags = (p.flags | set) &^ clear
		sub, err := p.parseAlternate()
		if err != nil {
			return nil, err
		}
		if p.eof() || p.next() != ')' {
			return nil, p.errorAt(ErrUnbalancedGroup, off)
		}
		p.flags = saved
		return sub, nil
	default:
		return nil, p.errorAt(ErrBadGroupSyntax, off)
	}
}

func (p *parser) scanInlineFlags(off int) (set, clear Flags, err error) {
	target := &set
	for !p.eof() {
		switch p.peek() {
		case 'i':
			*target |= FlagIgnoreCase
		case 'm':
			*target |= FlagMultiline
		case 's':
			*target |= FlagDotAll
		case 'x':
			*target |= FlagExtended
		case '-':
			if target == &clear {
				return 0, 0, p.errorAt(ErrBadGroupSyntax, off)
			}
			target = &clear
		case ')', ':':
			if target == &clear && clear == 0 {
				return 0, 0, p.errorAt(ErrBadGroupSyntax, off)
			}
			return set, clear, nil
		default:
			return 0, 0, p.errorAt(ErrBadGroupSyntax, off)
		}
		p.next()
	}
	return 0, 0, p.errorAt(ErrUnbalancedGroup, off)
}

// parseClass parses a [...] character class, including the set
// operations && (intersection), ~~ (difference) and || (union).
func (p *parser) parseClass() (Node, error) {
	off := p.pos - 1
	negated := false
	if !p.eof() && p.peek() == '^' {
		p.next()
		negated = true
	}
	result, err := p.parseClassTerm(off, true)
	if err != nil {
		return nil, err
	}
	for !p.eof() && p.peek() != ']' {
		var op byte
		switch {
		case strings.HasPrefix(p.expr[p.pos:], "&&"):
			op = '&'
		case strings.HasPrefix(p.expr[p.pos:], "~~"):
			op = '~'
		case strings.HasPrefix(p.expr[p.pos:], "||"):
			op = '|'
		default:
			return nil, p.errorf(ErrBadRange)
		}
		p.pos += 2
		term, err := p.parseClassTerm(off, false)
		if err != nil {
			return nil, err
		}
		switch op {
		case '&':
			result = intersectRanges(result, term)
		case '~':
			result = differenceRanges(result, term)
		case '|':
			result = unionRanges(result, term)
		}
	}
	if p.eof() || p.next() != ']' {
		return nil, p.errorAt(ErrUnclosedClass, off)
	}
	return &Class{
		Ranges:  result,
		Negated: negated,
		Fold:    p.flags&FlagIgnoreCase != 0,
	}, nil
}

// parseClassTerm accumulates ranges until ']' or a set operator.
// first marks the leading term, where ']' is a literal when it is the
// very first item.
func (p *parser) parseClassTerm(off int, first bool) ([]Range, error) {
	var rs []Range
	leading := first
	for {
		if p.eof() {
			return nil, p.errorAt(ErrUnclosedClass, off)
		}
		c := p.peek()
		if c == ']' && !leading {
			return normalizeRanges(rs), nil
		}
		if strings.HasPrefix(p.expr[p.pos:], "&&") ||
			strings.HasPrefix(p.expr[p.pos:], "~~") ||
			strings.HasPrefix(p.expr[p.pos:], "||") {
			if len(rs) == 0 {
				return nil, p.errorf(ErrBadRange)
			}
			return normalizeRanges(rs), nil
		}
		leading = false
		if c == '[' {
			// Nested class as a set-operation operand: [\p{L}&&[a-z]].
			p.next()
			sub, err := p.parseClass()
			if err != nil {
				return nil, err
			}
			cls := sub.(*Class)
			inner := cls.Ranges
			if cls.Negated {
				inner = negateRanges(inner)
			}
			rs = append(rs, inner...)
			continue
		}
		lo, isClass, classRanges, err := p.classAtom(off)
		if err != nil {
			return nil, err
		}
		if isClass {
			rs = append(rs, classRanges...)
			continue
		}
		if !p.eof() && p.peek() == '-' && p.pos+1 < len(p.expr) && p.expr[p.pos+1] != ']' {
			rangeOff := p.pos
			p.next() // '-'
			hi, isClass, _, err := p.classAtom(off)
			if err != nil {
				return nil, err
			}
			if isClass || hi < lo {
				return nil, p.errorAt(ErrBadRange, rangeOff)
			}
			rs = append(rs, Range{lo, hi})
			continue
		}
		rs = append(rs, Range{lo, lo})
	}
}

// classAtom parses one item inside a class: a literal rune, an escaped
// rune, or an embedded class escape like \d or \p{L}.
func (p *parser) classAtom(off int) (r rune, isClass bool, rs []Range, err error) {
	c := p.next()
	if c != '\\' {
		return c, false, nil, nil
	}
	if p.eof() {
		return 0, false, nil, p.errorAt(ErrTrailingBackslash, off)
	}
	escOff := p.pos - 1
	e := p.next()
	switch e {
	case 'd':
		return 0, true, digitRanges, nil
	case 'D':
		return 0, true, negateRanges(digitRanges), nil
	case 'w':
		return 0, true, wordRanges, nil
	case 'W':
		return 0, true, negateRanges(wordRanges), nil
	case 's':
		return 0, true, spaceRanges, nil
	case 'S':
		return 0, true, negateRanges(spaceRanges), nil
	case 'p', 'P':
		prop, err := p.parseUnicodeProperty(escOff)
		if err != nil {
			return 0, false, nil, err
		}
		if e == 'P' {
			prop = negateRanges(prop)
		}
		return 0, true, prop, nil
	case 'b':
		// Inside a class \b is the backspace character.
		return '\b', false, nil, nil
	}
	r, err = p.escapedRune(e, escOff)
	if err != nil {
		return 0, false, nil, err
	}
	return r, false, nil, nil
}
