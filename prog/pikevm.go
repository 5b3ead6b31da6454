package prog

import (
	"errors"
	"unicode/utf8"

	"github.com/coregx/regexvm/internal/conv"
	"github.com/coregx/regexvm/internal/sparse"
)

// ErrUnsupported is returned when the Pike VM is asked to run a
// program containing backreferences. Backreference state cannot be
// represented in a finite-automaton simulation; the orchestrator
// routes such programs to the backtracker instead.
var ErrUnsupported = errors.New("prog: pike vm cannot execute backreference programs")

// PikeVM is the breadth-first execution engine: a simulation of the
// program as a nondeterministic finite automaton. All live paths
// advance together one rune at a time, and a sparse set deduplicates
// threads by program counter, which bounds the thread list by program
// length and gives O(len(program) * len(input)) matching for programs
// without lookaround.
//
// Priority is leftmost-first (Perl): threads are kept in depth-first
// order, split instructions prefer their first branch, and once a
// thread reaches Match every lower-priority thread is cut and no new
// start threads are injected. A surviving higher-priority thread can
// still replace the recorded match later.
//
// The PikeVM itself is immutable; mutable per-search state lives in a
// PikeState. The convenience methods without a state argument use an
// internal PikeState and are not safe for concurrent use.
type PikeVM struct {
	prog *Prog

	internal PikeState
}

// PikeState holds the mutable scratch for one search: the current and
// next thread queues, the visited set for the generation being built,
// the lookaround scratch and step budget. States are reusable across
// searches and should be pooled for concurrent use.
type PikeState struct {
	queue   []pthread
	next    []pthread
	visited *sparse.Set
	look    lookCache

	steps int
	err   error
}

// pthread is one live path: a program counter plus its capture slots.
// Slot slices may be shared between threads; they are copied before
// any write.
type pthread struct {
	pc    uint32
	slots []int
}

// NewPikeVM returns a Pike VM executing p.
func NewPikeVM(p *Prog) *PikeVM {
	v := &PikeVM{prog: p}
	v.InitState(&v.internal)
	return v
}

// NewPikeState returns an empty state; InitState prepares it for a
// particular VM.
func NewPikeState() *PikeState {
	return &PikeState{}
}

// InitState sizes st for this VM's program.
func (v *PikeVM) InitState(st *PikeState) {
	n := len(v.prog.Insts)
	if n < 16 {
		n = 16
	}
	st.queue = make([]pthread, 0, n)
	st.next = make([]pthread, 0, n)
	st.visited = sparse.New(conv.IntToUint32(len(v.prog.Insts)))
}

// Search finds the leftmost match at or after byte offset start using
// the VM's internal state. Not safe for concurrent use; see
// SearchWithState.
func (v *PikeVM) Search(input string, start int) ([]int, error) {
	return v.search(&v.internal, input, start, false)
}

// SearchAt runs an anchored attempt at start using the internal state.
func (v *PikeVM) SearchAt(input string, start int) ([]int, error) {
	return v.search(&v.internal, input, start, true)
}

// SearchWithState is Search with caller-owned scratch, safe for
// concurrent use with distinct states.
func (v *PikeVM) SearchWithState(st *PikeState, input string, start int) ([]int, error) {
	return v.search(st, input, start, false)
}

// SearchAtWithState is SearchAt with caller-owned scratch.
func (v *PikeVM) SearchAtWithState(st *PikeState, input string, start int) ([]int, error) {
	return v.search(st, input, start, true)
}

func (v *PikeVM) search(st *PikeState, input string, start int, anchored bool) ([]int, error) {
	if v.prog.HasBackref {
		return nil, ErrUnsupported
	}
	st.queue = st.queue[:0]
	st.next = st.next[:0]
	st.visited.Clear()
	st.steps = 0
	st.err = nil

	var matched []int
	pos := start
	for {
		// Inject a start thread at the lowest priority, into the queue
		// processed at this position. The visited generation is
		// re-seeded with the queued program counters so the injected
		// closure cannot duplicate a thread that stepped here. Once a
		// match is recorded, later starts cannot win and are skipped.
		if matched == nil && (pos == start || !anchored) {
			st.visited.Clear()
			for i := range st.queue {
				st.visited.Insert(st.queue[i].pc)
			}
			v.addThread(st, &st.queue, 0, pos, v.newSlots(), input)
		}
		if st.err != nil {
			return nil, st.err
		}
		if len(st.queue) == 0 && (matched != nil || anchored || pos >= len(input)) {
			break
		}

		var r rune = -1
		w := 0
		if pos < len(input) {
			r, w = utf8.DecodeRuneInString(input[pos:])
		}

		// Step every live thread; survivors land in the next queue
		// under a fresh visited generation for pos+w.
		st.visited.Clear()
		st.next = st.next[:0]
		for i := range st.queue {
			t := &st.queue[i]
			inst := &v.prog.Insts[t.pc]
			if inst.Op == OpMatch {
				matched = make([]int, 2*v.prog.NumCap)
				copy(matched, t.slots[:2*v.prog.NumCap])
				// Cut lower-priority threads.
				break
			}
			if w > 0 && instMatchRune(inst, r) {
				v.addThread(st, &st.next, int(t.pc)+1, pos+w, t.slots, input)
			}
		}
		if st.err != nil {
			return nil, st.err
		}
		st.queue, st.next = st.next, st.queue

		if pos >= len(input) {
			break
		}
		pos += w
	}
	return matched, nil
}

// addThread follows epsilon transitions from pc at input position pos
// and appends the reachable consuming (or Match) instructions to q,
// deduplicated by the current visited generation. The traversal order
// is what establishes thread priority: first branches of splits are
// explored first.
//
// Recursion depth is bounded by program length.
func (v *PikeVM) addThread(st *PikeState, q *[]pthread, pc, pos int, slots []int, input string) {
	if !st.visited.Insert(uint32(pc)) {
		return
	}
	inst := &v.prog.Insts[pc]
	switch inst.Op {
	case OpJmp:
		v.addThread(st, q, inst.Out, pos, slots, input)

	case OpSplit:
		v.addThread(st, q, inst.Out, pos, slots, input)
		v.addThread(st, q, inst.Arg, pos, slots, input)

	case OpSave:
		ns := v.cloneSlots(slots)
		ns[inst.Slot] = pos
		v.addThread(st, q, pc+1, pos, ns, input)

	case OpProgress:
		if slots[inst.Slot] == pos {
			return
		}
		ns := v.cloneSlots(slots)
		ns[inst.Slot] = pos
		v.addThread(st, q, pc+1, pos, ns, input)

	case OpAssert:
		if assertHolds(inst.Assert, input, pos) {
			v.addThread(st, q, pc+1, pos, slots, input)
		}

	case OpLook:
		ns := v.cloneSlots(slots)
		ok, err := checkLook(inst, input, pos, ns, &st.look, &st.steps, DefaultStepLimit)
		if err != nil {
			st.err = err
			return
		}
		if ok {
			v.addThread(st, q, pc+1, pos, ns, input)
		}

	case OpFail:
		// dead path

	default:
		// Consuming instruction or Match: park the thread.
		*q = append(*q, pthread{pc: uint32(pc), slots: slots})
	}
}

func (v *PikeVM) newSlots() []int {
	s := make([]int, v.prog.NumSlots)
	for i := range s {
		s[i] = -1
	}
	return s
}

func (v *PikeVM) cloneSlots(src []int) []int {
	dst := make([]int, len(src))
	copy(dst, src)
	return dst
}
