package prog

import (
	"errors"
	"unicode/utf8"
)

// ErrStepLimit is returned when a backtracking search exceeds its step
// budget. It is distinct from "no match": the search was cut short, so
// nothing is known about the input.
var ErrStepLimit = errors.New("prog: backtracking step limit exceeded")

// DefaultStepLimit is the default backtracking step budget per search.
// Pathological patterns (catastrophic backtracking) hit it; ordinary
// patterns stay far below.
const DefaultStepLimit = 1 << 20

// Backtracker is the depth-first execution engine. It walks the
// program with an explicit frame stack, never native recursion, so
// stack growth is bounded and the step budget can cut a runaway search
// at any point. It supports every instruction, including
// backreferences and lookaround.
//
// A Backtracker holds mutable search state and must not be shared
// between goroutines; the Prog it runs may be.
type Backtracker struct {
	prog *Prog

	// StepLimit bounds the work of one Search call. Zero selects
	// DefaultStepLimit.
	StepLimit int

	stack []btFrame
	slots []int
	free  [][]int
	look  lookCache
}

// btFrame is one pending alternative: resume at pc with the input
// position and capture slots restored.
type btFrame struct {
	pc    int
	pos   int
	slots []int
}

// NewBacktracker returns a backtracker for p.
func NewBacktracker(p *Prog) *Backtracker {
	return &Backtracker{prog: p}
}

// Search finds the leftmost match at or after byte offset start.
// It returns the capture slots (2*NumCap entries, -1 for unset groups)
// or nil when there is no match. ErrStepLimit is returned when the
// step budget runs out before the search completes.
func (b *Backtracker) Search(input string, start int) ([]int, error) {
	limit := b.StepLimit
	if limit <= 0 {
		limit = DefaultStepLimit
	}
	steps := 0
	for pos := start; ; {
		_, ok, err := b.runAt(input, pos, -1, nil, &steps, limit)
		if err != nil {
			return nil, err
		}
		if ok {
			out := make([]int, 2*b.prog.NumCap)
			copy(out, b.slots[:2*b.prog.NumCap])
			return out, nil
		}
		if pos >= len(input) {
			return nil, nil
		}
		_, w := utf8.DecodeRuneInString(input[pos:])
		pos += w
	}
}

// SearchAt runs a single anchored attempt at pos and returns the
// capture slots, or nil when the program does not match there.
func (b *Backtracker) SearchAt(input string, pos int) ([]int, error) {
	limit := b.StepLimit
	if limit <= 0 {
		limit = DefaultStepLimit
	}
	steps := 0
	_, ok, err := b.runAt(input, pos, -1, nil, &steps, limit)
	if err != nil || !ok {
		return nil, err
	}
	out := make([]int, 2*b.prog.NumCap)
	copy(out, b.slots[:2*b.prog.NumCap])
	return out, nil
}

// runAt executes one anchored attempt starting at pos. requireEnd, if
// non-negative, demands that the match end exactly there (used by
// lookbehind). seed, if non-nil, provides initial slot values so a
// lookaround sub-program sees the captures made so far. On success
// b.slots holds the final slot values.
func (b *Backtracker) runAt(input string, pos, requireEnd int, seed []int, steps *int, limit int) (end int, matched bool, err error) {
	if cap(b.slots) < b.prog.NumSlots {
		b.slots = make([]int, b.prog.NumSlots)
	}
	b.slots = b.slots[:b.prog.NumSlots]
	if seed != nil {
		copy(b.slots, seed)
	} else {
		for i := range b.slots {
			b.slots[i] = -1
		}
	}
	b.stack = b.stack[:0]
	slots := b.slots
	pc := 0

	for {
		*steps++
		if *steps > limit {
			b.releaseStack()
			return 0, false, ErrStepLimit
		}

		inst := &b.prog.Insts[pc]
		ok := true

		switch inst.Op {
		case OpMatch:
			if requireEnd < 0 || pos == requireEnd {
				copy(b.slots, slots)
				b.releaseStack()
				return pos, true, nil
			}
			ok = false

		case OpRune, OpRuneClass, OpAnyChar, OpAnyCharNotNL:
			r, w := utf8.DecodeRuneInString(input[pos:])
			if w == 0 || !instMatchRune(inst, r) {
				ok = false
			} else {
				pos += w
				pc++
			}

		case OpSplit:
			b.stack = append(b.stack, btFrame{
				pc:    inst.Arg,
				pos:   pos,
				slots: b.copySlots(slots),
			})
			pc = inst.Out

		case OpJmp:
			pc = inst.Out

		case OpSave:
			slots[inst.Slot] = pos
			pc++

		case OpAssert:
			if assertHolds(inst.Assert, input, pos) {
				pc++
			} else {
				ok = false
			}

		case OpProgress:
			if slots[inst.Slot] == pos {
				ok = false
			} else {
				slots[inst.Slot] = pos
				pc++
			}

		case OpBackref:
			n := backrefLen(inst, input, pos, slots)
			if n < 0 {
				ok = false
			} else {
				pos += n
				pc++
			}

		case OpLook:
			holds, lerr := checkLook(inst, input, pos, slots, &b.look, steps, limit)
			if lerr != nil {
				b.releaseStack()
				return 0, false, lerr
			}
			if holds {
				pc++
			} else {
				ok = false
			}

		case OpFail:
			ok = false
		}

		if ok {
			continue
		}
		// Backtrack: resume the most recent untried alternative.
		if len(b.stack) == 0 {
			return 0, false, nil
		}
		fr := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]
		pc, pos = fr.pc, fr.pos
		copy(slots, fr.slots)
		b.release(fr.slots)
	}
}

func (b *Backtracker) copySlots(src []int) []int {
	var dst []int
	if n := len(b.free); n > 0 {
		dst = b.free[n-1]
		b.free = b.free[:n-1]
	} else {
		dst = make([]int, len(src))
	}
	copy(dst, src)
	return dst
}

func (b *Backtracker) release(s []int) {
	b.free = append(b.free, s)
}

func (b *Backtracker) releaseStack() {
	for i := range b.stack {
		b.release(b.stack[i].slots)
	}
	b.stack = b.stack[:0]
}
