// Package prog defines the compiled instruction form shared by both
// execution engines, the compiler that lowers a parsed pattern into it,
// and the engines themselves: a backtracking matcher with full
// backreference and lookaround support, and a Pike VM that simulates
// the program breadth-first in guaranteed linear time.
//
// A Prog is immutable after compilation and safe to share across
// goroutines; all mutable search state lives in per-search structs.
package prog

import (
	"fmt"
	"strings"

	"github.com/coregx/regexvm/syntax"
)

// Op identifies an instruction.
type Op uint8

const (
	// OpMatch ends a successful match attempt.
	OpMatch Op = iota

	// OpRune matches a single rune (fold-aware when Fold is set).
	OpRune

	// OpRuneClass matches one rune against a set of ranges.
	OpRuneClass

	// OpAnyChar matches any rune including newline.
	OpAnyChar

	// OpAnyCharNotNL matches any rune except newline.
	OpAnyCharNotNL

	// OpSplit forks execution: prefer Out, fall back to Arg.
	OpSplit

	// OpJmp continues at Out.
	OpJmp

	// OpSave records the current input position in slot Slot.
	OpSave

	// OpAssert checks a zero-width position assertion.
	OpAssert

	// OpBackref matches the text captured by group Slot.
	OpBackref

	// OpLook runs Sub as a zero-width lookaround assertion.
	OpLook

	// OpProgress kills the current path if the input position has not
	// advanced since the previous loop iteration. Guards zero-width
	// quantifier bodies against spinning in place.
	OpProgress

	// OpFail always fails. Produced for classes that match nothing.
	OpFail
)

// String returns the opcode mnemonic.
func (op Op) String() string {
	switch op {
	case OpMatch:
		return "match"
	case OpRune:
		return "rune"
	case OpRuneClass:
		return "class"
	case OpAnyChar:
		return "any"
	case OpAnyCharNotNL:
		return "anynotnl"
	case OpSplit:
		return "split"
	case OpJmp:
		return "jmp"
	case OpSave:
		return "save"
	case OpAssert:
		return "assert"
	case OpBackref:
		return "backref"
	case OpLook:
		return "look"
	case OpProgress:
		return "progress"
	case OpFail:
		return "fail"
	default:
		return fmt.Sprintf("op(%d)", op)
	}
}

// Inst is a single instruction. Which fields are meaningful depends on
// Op; instruction indices are the program counter, so Out and Arg are
// indices into Prog.Insts.
type Inst struct {
	Op Op

	// Out is the primary successor (OpSplit, OpJmp) . For consuming
	// instructions the successor is the next index, so Out is unused.
	Out int

	// Arg is the alternative successor for OpSplit.
	Arg int

	// Rune is the literal for OpRune.
	Rune rune

	// Ranges and Negated describe the set for OpRuneClass.
	Ranges  []syntax.Range
	Negated bool

	// Fold enables simple case folding for OpRune, OpRuneClass and
	// OpBackref.
	Fold bool

	// Slot is the capture slot for OpSave, the group index for
	// OpBackref, and the scratch slot for OpProgress.
	Slot int

	// Assert is the assertion kind for OpAssert.
	Assert syntax.AssertKind

	// Sub, LookNeg and LookBehind describe an OpLook assertion.
	Sub        *Prog
	LookNeg    bool
	LookBehind bool
}

// Prog is a compiled pattern: a linear instruction sequence plus the
// metadata the engines and the public API need. Execution always
// starts at instruction 0.
type Prog struct {
	Insts []Inst

	// NumCap counts capture groups including group 0 (the whole match).
	NumCap int

	// NumSlots is the length of the slot array a search carries:
	// 2*NumCap capture slots followed by scratch slots for OpProgress.
	// Lookaround sub-programs share the outer program's slot space.
	NumSlots int

	// Names holds capture group names; Names[0] is always "".
	Names []string

	// Flags is the flag set the pattern was compiled under.
	Flags syntax.Flags

	// Prefix is a literal that every match must start with, usable to
	// skip ahead during unanchored search. Empty when no useful prefix
	// exists. PrefixComplete reports that the prefix is the entire
	// pattern.
	Prefix         string
	PrefixComplete bool

	// MinWidth and MaxWidth bound the length, in runes, of any text
	// this program can match. MaxWidth is -1 when unbounded. Lookbehind
	// evaluation depends on these.
	MinWidth int
	MaxWidth int

	// HasBackref and HasLook record feature use; the orchestrator
	// routes backreference programs to the backtracker.
	HasBackref bool
	HasLook    bool
}

// String returns a one-instruction-per-line disassembly, for tests and
// debugging.
func (p *Prog) String() string {
	var b strings.Builder
	for i := range p.Insts {
		inst := &p.Insts[i]
		fmt.Fprintf(&b, "%3d %s", i, inst.Op)
		switch inst.Op {
		case OpRune:
			fmt.Fprintf(&b, " %q", inst.Rune)
		case OpRuneClass:
			fmt.Fprintf(&b, " %d ranges", len(inst.Ranges))
			if inst.Negated {
				b.WriteString(" negated")
			}
		case OpSplit:
			fmt.Fprintf(&b, " -> %d, %d", inst.Out, inst.Arg)
		case OpJmp:
			fmt.Fprintf(&b, " -> %d", inst.Out)
		case OpSave, OpProgress:
			fmt.Fprintf(&b, " %d", inst.Slot)
		case OpBackref:
			fmt.Fprintf(&b, " group %d", inst.Slot)
		case OpAssert:
			fmt.Fprintf(&b, " %d", inst.Assert)
		case OpLook:
			neg := ""
			if inst.LookNeg {
				neg = " negated"
			}
			dir := "ahead"
			if inst.LookBehind {
				dir = "behind"
			}
			fmt.Fprintf(&b, " %s%s (%d insts)", dir, neg, len(inst.Sub.Insts))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
