package prog

import "unicode/utf8"

// lookCache lends out one backtracker per lookaround sub-program so
// repeated evaluations within a search reuse the frame stack and slot
// scratch. It belongs to the searching engine's mutable state and is
// populated lazily.
type lookCache map[*Prog]*Backtracker

func (c *lookCache) get(p *Prog) *Backtracker {
	if *c == nil {
		*c = make(lookCache)
	}
	b := (*c)[p]
	if b == nil {
		b = NewBacktracker(p)
		(*c)[p] = b
	}
	return b
}

// checkLook evaluates a lookaround assertion at byte offset pos.
//
// The sub-program runs as a nested, independent match attempt that
// consumes no input. Lookahead anchors at pos; lookbehind tries start
// offsets scanning backward rune by rune, bounded by the sub-program's
// minimum and maximum width, and requires the sub-match to end exactly
// at pos. Captures written inside a successful non-negated lookaround
// persist in slots; a negated or failed attempt leaves slots intact.
//
// Both engines share this: the Pike VM calls it during epsilon
// closure, the backtracker from its dispatch loop. steps charges the
// nested work against the caller's budget.
func checkLook(inst *Inst, input string, pos int, slots []int, cache *lookCache, steps *int, limit int) (bool, error) {
	sub := cache.get(inst.Sub)
	matched := false

	if !inst.LookBehind {
		_, ok, err := sub.runAt(input, pos, -1, slots, steps, limit)
		if err != nil {
			return false, err
		}
		matched = ok
	} else {
		minW, maxW := inst.Sub.MinWidth, inst.Sub.MaxWidth
		back := 0 // runes stepped back so far
		for at := pos; at >= 0; {
			if back >= minW {
				_, ok, err := sub.runAt(input, at, pos, slots, steps, limit)
				if err != nil {
					return false, err
				}
				if ok {
					matched = true
					break
				}
			}
			if at == 0 || (maxW >= 0 && back == maxW) {
				break
			}
			_, w := utf8.DecodeLastRuneInString(input[:at])
			at -= w
			back++
		}
	}

	if matched && !inst.LookNeg {
		// Group captures made inside the lookaround are visible.
		copy(slots, sub.slots)
	}
	return matched != inst.LookNeg, nil
}
