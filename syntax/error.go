package syntax

import "fmt"

// ErrorCode categorizes a pattern syntax error.
type ErrorCode uint8

const (
	ErrInternal ErrorCode = iota
	ErrUnbalancedGroup
	ErrBadEscape
	ErrBadRange
	ErrBadQuantifier
	ErrBadBackref
	ErrUnknownProperty
	ErrUnclosedClass
	ErrTrailingBackslash
	ErrBadGroupSyntax
	ErrBadFlag
)

// String returns a human-readable category name.
func (c ErrorCode) String() string {
	switch c {
	case ErrUnbalancedGroup:
		return "unbalanced group"
	case ErrBadEscape:
		return "invalid escape sequence"
	case ErrBadRange:
		return "invalid character class range"
	case ErrBadQuantifier:
		return "invalid quantifier bounds"
	case ErrBadBackref:
		return "invalid backreference"
	case ErrUnknownProperty:
		return "unknown unicode property"
	case ErrUnclosedClass:
		return "unclosed character class"
	case ErrTrailingBackslash:
		return "trailing backslash"
	case ErrBadGroupSyntax:
		return "invalid group syntax"
	case ErrBadFlag:
		return "invalid flag"
	default:
		return "internal error"
	}
}

// Error is a pattern syntax error. Offset is the rune offset into the
// pattern string at which the problem was detected.
type Error struct {
	Code   ErrorCode
	Expr   string
	Offset int
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("syntax: %s at offset %d in %q", e.Code, e.Offset, e.Expr)
}
