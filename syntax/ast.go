// Package syntax parses regular expression patterns into an AST.
//
// The dialect is Perl-flavored: capturing and named groups, lookaround,
// backreferences, inline flag toggles, lazy quantifiers, and character
// classes with set operations (&& intersection, ~~ difference, ||
// union). Unicode property escapes \p{Name} resolve against the
// stdlib unicode category and script tables.
//
// Parsing produces a Pattern; lowering the AST to executable
// instructions is the prog package's job.
package syntax

// NodeKind identifies the concrete type of an AST node.
type NodeKind uint8

const (
	KindEmpty NodeKind = iota
	KindLiteral
	KindClass
	KindAnyChar
	KindConcat
	KindAlternate
	KindRepeat
	KindGroup
	KindAssert
	KindLook
	KindBackref
)

// Node is an AST node. Implementations live in this package only.
type Node interface {
	kind() NodeKind
}

// Empty matches the empty string.
type Empty struct{}

func (*Empty) kind() NodeKind { return KindEmpty }

// Literal matches a fixed sequence of runes.
type Literal struct {
	Runes []rune
	Fold  bool // case-insensitive comparison
}

func (*Literal) kind() NodeKind { return KindLiteral }

// Class matches a single rune against a set of ranges.
// Ranges are normalized: sorted by Lo, non-overlapping, non-adjacent.
type Class struct {
	Ranges  []Range
	Negated bool
	Fold    bool
}

func (*Class) kind() NodeKind { return KindClass }

// AnyChar matches any single rune. When DotAll is false a newline is
// excluded.
type AnyChar struct {
	DotAll bool
}

func (*AnyChar) kind() NodeKind { return KindAnyChar }

// Concat matches its subexpressions in sequence.
type Concat struct {
	Subs []Node
}

func (*Concat) kind() NodeKind { return KindConcat }

// Alternate matches any one of its subexpressions, preferring earlier
// branches.
type Alternate struct {
	Subs []Node
}

func (*Alternate) kind() NodeKind { return KindAlternate }

// Repeat matches Sub between Min and Max times. Max == -1 means
// unbounded. Greedy repeats prefer more iterations.
type Repeat struct {
	Sub    Node
	Min    int
	Max    int
	Greedy bool
}

func (*Repeat) kind() NodeKind { return KindRepeat }

// Group is a capturing group. Index is 1-based; Name is empty for
// unnamed groups.
type Group struct {
	Sub   Node
	Index int
	Name  string
}

func (*Group) kind() NodeKind { return KindGroup }

// AssertKind identifies a zero-width position assertion.
type AssertKind uint8

const (
	AssertBeginText AssertKind = iota // \A, or ^ outside multiline
	AssertEndText                     // \z, or $ outside multiline
	AssertBeginLine                   // ^ in multiline mode
	AssertEndLine                     // $ in multiline mode
	AssertWordBoundary
	AssertNoWordBoundary
)

// Assert is a zero-width position assertion.
type Assert struct {
	Kind AssertKind
}

func (*Assert) kind() NodeKind { return KindAssert }

// Look is a lookaround assertion: it constrains the match without
// consuming input. Behind selects lookbehind.
type Look struct {
	Sub     Node
	Negated bool
	Behind  bool
}

func (*Look) kind() NodeKind { return KindLook }

// Backref matches the text most recently captured by group Index.
type Backref struct {
	Index int
	Fold  bool
}

func (*Backref) kind() NodeKind { return KindBackref }

// Pattern is the result of parsing: the AST root plus pattern-level
// metadata needed by the compiler and the public API.
type Pattern struct {
	Root   Node
	Expr   string
	Flags  Flags
	NumCap int      // capture groups including group 0
	Names  []string // Names[i] is the name of group i ("" if unnamed)
}
