package syntax

// Flags control how a pattern is parsed and matched.
type Flags uint8

const (
	// FlagIgnoreCase makes literals, classes and backreferences match
	// case-insensitively using simple Unicode folding.
	FlagIgnoreCase Flags = 1 << iota

	// FlagMultiline makes ^ and $ match at line boundaries in addition
	// to the beginning and end of text.
	FlagMultiline

	// FlagDotAll makes . match any character including newline.
	FlagDotAll

	// FlagExtended enables free-spacing mode: unescaped whitespace
	// outside character classes is ignored and # starts a comment that
	// runs to end of line.
	FlagExtended

	// FlagGlobal requests all-matches semantics from the replacement
	// layer. It has no effect on parsing or on single-match searches.
	FlagGlobal
)

// ParseFlags converts a flag-letter string ("i", "ims", "gx", ...) into
// a Flags value. Unknown letters produce an error.
func ParseFlags(s string) (Flags, error) {
	var f Flags
	for i, c := range s {
		switch c {
		case 'i':
			f |= FlagIgnoreCase
		case 'm':
			f |= FlagMultiline
		case 's':
			f |= FlagDotAll
		case 'x':
			f |= FlagExtended
		case 'g':
			f |= FlagGlobal
		default:
			return 0, &Error{Code: ErrBadFlag, Expr: s, Offset: i}
		}
	}
	return f, nil
}

// String returns the flag-letter form of f.
func (f Flags) String() string {
	buf := make([]byte, 0, 5)
	if f&FlagGlobal != 0 {
		buf = append(buf, 'g')
	}
	if f&FlagIgnoreCase != 0 {
		buf = append(buf, 'i')
	}
	if f&FlagMultiline != 0 {
		buf = append(buf, 'm')
	}
	if f&FlagDotAll != 0 {
		buf = append(buf, 's')
	}
	if f&FlagExtended != 0 {
		buf = append(buf, 'x')
	}
	return string(buf)
}
