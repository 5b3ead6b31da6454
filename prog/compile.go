package prog

import (
	"errors"

	"github.com/coregx/regexvm/syntax"
)

// ErrTooComplex indicates the pattern would compile to a program
// larger than the configured instruction limit. Counted repeats are
// always unrolled, so deeply nested {m,n} bounds are the usual cause.
var ErrTooComplex = errors.New("prog: pattern too complex")

// Config controls compilation limits.
type Config struct {
	// MaxInsts caps the total instruction count, including lookaround
	// sub-programs. Compilation fails with ErrTooComplex beyond it.
	MaxInsts int
}

// DefaultConfig returns the default compilation limits.
func DefaultConfig() Config {
	return Config{MaxInsts: 1 << 14}
}

// Compile lowers a parsed pattern into an executable program using the
// default limits.
func Compile(pat *syntax.Pattern) (*Prog, error) {
	return CompileWithConfig(pat, DefaultConfig())
}

// CompileWithConfig lowers a parsed pattern into an executable program.
//
// Lowering policy: alternation becomes paired split/jmp, star and plus
// become split loops, and bounded {m,n} repeats are always unrolled
// into m mandatory copies plus n-m optional split chains. Quantifier
// bodies that can match the empty string are guarded with a progress
// instruction so the loops cannot spin without advancing.
func CompileWithConfig(pat *syntax.Pattern, cfg Config) (*Prog, error) {
	if cfg.MaxInsts <= 0 {
		cfg.MaxInsts = DefaultConfig().MaxInsts
	}
	c := &compiler{cfg: cfg, numCap: pat.NumCap}
	p := c.compileTop(pat)
	if c.err != nil {
		return nil, c.err
	}
	// One slot space is shared by the outer program and every
	// lookaround sub-program, so the final count lands after all of
	// them are lowered.
	numSlots := 2*pat.NumCap + c.scratch
	for _, sub := range c.progs {
		sub.NumCap = pat.NumCap
		sub.NumSlots = numSlots
		sub.Names = p.Names
		sub.Flags = pat.Flags
	}
	p.NumSlots = numSlots
	return p, nil
}

type compiler struct {
	cfg     Config
	numCap  int
	scratch int     // progress slots allocated so far
	count   int     // instructions emitted across all programs
	progs   []*Prog // every program built, for slot finalization
	cur     *Prog
	err     error
}

func (c *compiler) compileTop(pat *syntax.Pattern) *Prog {
	p := &Prog{
		NumCap: pat.NumCap,
		Names:  pat.Names,
		Flags:  pat.Flags,
	}
	c.progs = append(c.progs, p)
	c.cur = p
	c.emit(Inst{Op: OpSave, Slot: 0})
	c.lower(pat.Root)
	c.emit(Inst{Op: OpSave, Slot: 1})
	c.emit(Inst{Op: OpMatch})

	p.MinWidth, p.MaxWidth = nodeWidth(pat.Root)
	p.HasBackref, p.HasLook = nodeFeatures(pat.Root)
	p.Prefix, p.PrefixComplete = literalPrefix(pat.Root)
	return p
}

// compileSub lowers a lookaround body into its own program sharing the
// outer capture slot space.
func (c *compiler) compileSub(root syntax.Node) *Prog {
	sub := &Prog{}
	c.progs = append(c.progs, sub)

	saved := c.cur
	c.cur = sub
	c.lower(root)
	c.emit(Inst{Op: OpMatch})
	c.cur = saved

	sub.MinWidth, sub.MaxWidth = nodeWidth(root)
	sub.HasBackref, sub.HasLook = nodeFeatures(root)
	return sub
}

func (c *compiler) emit(inst Inst) int {
	c.count++
	if c.count > c.cfg.MaxInsts && c.err == nil {
		c.err = ErrTooComplex
	}
	c.cur.Insts = append(c.cur.Insts, inst)
	return len(c.cur.Insts) - 1
}

func (c *compiler) pc() int {
	return len(c.cur.Insts)
}

func (c *compiler) lower(n syntax.Node) {
	if c.err != nil {
		return
	}
	switch n := n.(type) {
	case *syntax.Empty:
		// matches the empty string; nothing to emit

	case *syntax.Literal:
		for _, r := range n.Runes {
			c.emit(Inst{Op: OpRune, Rune: r, Fold: n.Fold})
		}

	case *syntax.Class:
		if len(n.Ranges) == 0 && !n.Negated {
			c.emit(Inst{Op: OpFail})
			return
		}
		c.emit(Inst{Op: OpRuneClass, Ranges: n.Ranges, Negated: n.Negated, Fold: n.Fold})

	case *syntax.AnyChar:
		if n.DotAll {
			c.emit(Inst{Op: OpAnyChar})
		} else {
			c.emit(Inst{Op: OpAnyCharNotNL})
		}

	case *syntax.Concat:
		for _, sub := range n.Subs {
			c.lower(sub)
		}

	case *syntax.Alternate:
		c.lowerAlternate(n)

	case *syntax.Repeat:
		c.lowerRepeat(n)

	case *syntax.Group:
		c.emit(Inst{Op: OpSave, Slot: 2 * n.Index})
		c.lower(n.Sub)
		c.emit(Inst{Op: OpSave, Slot: 2*n.Index + 1})

	case *syntax.Assert:
		c.emit(Inst{Op: OpAssert, Assert: n.Kind})

	case *syntax.Look:
		sub := c.compileSub(n.Sub)
		c.emit(Inst{Op: OpLook, Sub: sub, LookNeg: n.Negated, LookBehind: n.Behind})

	case *syntax.Backref:
		c.emit(Inst{Op: OpBackref, Slot: n.Index, Fold: n.Fold})
	}
}

func (c *compiler) lowerAlternate(n *syntax.Alternate) {
	var jmps []int
	for i, sub := range n.Subs {
		if i == len(n.Subs)-1 {
			c.lower(sub)
			break
		}
		split := c.emit(Inst{Op: OpSplit})
		c.cur.Insts[split].Out = c.pc()
		c.lower(sub)
		jmps = append(jmps, c.emit(Inst{Op: OpJmp}))
		c.cur.Insts[split].Arg = c.pc()
	}
	end := c.pc()
	for _, j := range jmps {
		c.cur.Insts[j].Out = end
	}
}

func (c *compiler) lowerRepeat(n *syntax.Repeat) {
	if n.Max == -1 {
		// Mandatory copies, then a loop. x{3,} lowers to x x x+.
		for i := 1; i < n.Min; i++ {
			c.lower(n.Sub)
		}
		if n.Min == 0 {
			c.lowerStar(n.Sub, n.Greedy)
		} else {
			c.lowerPlus(n.Sub, n.Greedy)
		}
		return
	}
	for i := 0; i < n.Min; i++ {
		c.lower(n.Sub)
	}
	// Optional copies: each split either enters its copy or bails to
	// the shared end past all of them.
	var splits []int
	for i := n.Min; i < n.Max; i++ {
		split := c.emit(Inst{Op: OpSplit})
		splits = append(splits, split)
		c.lower(n.Sub)
	}
	end := c.pc()
	for _, s := range splits {
		if n.Greedy {
			c.cur.Insts[s].Out = s + 1
			c.cur.Insts[s].Arg = end
		} else {
			c.cur.Insts[s].Out = end
			c.cur.Insts[s].Arg = s + 1
		}
	}
}

func (c *compiler) lowerStar(sub syntax.Node, greedy bool) {
	split := c.emit(Inst{Op: OpSplit})
	body := c.pc()
	c.guardZeroWidth(sub)
	c.lower(sub)
	c.emit(Inst{Op: OpJmp, Out: split})
	end := c.pc()
	if greedy {
		c.cur.Insts[split].Out = body
		c.cur.Insts[split].Arg = end
	} else {
		c.cur.Insts[split].Out = end
		c.cur.Insts[split].Arg = body
	}
}

func (c *compiler) lowerPlus(sub syntax.Node, greedy bool) {
	body := c.pc()
	c.guardZeroWidth(sub)
	c.lower(sub)
	split := c.emit(Inst{Op: OpSplit})
	end := c.pc()
	if greedy {
		c.cur.Insts[split].Out = body
		c.cur.Insts[split].Arg = end
	} else {
		c.cur.Insts[split].Out = end
		c.cur.Insts[split].Arg = body
	}
}

// guardZeroWidth inserts a progress check when the loop body can match
// the empty string, so patterns like (a*)* terminate on any input.
func (c *compiler) guardZeroWidth(sub syntax.Node) {
	if min, _ := nodeWidth(sub); min > 0 {
		return
	}
	slot := 2*c.numCap + c.scratch
	c.scratch++
	c.emit(Inst{Op: OpProgress, Slot: slot})
}

// nodeWidth returns the minimum and maximum number of runes n can
// consume. max is -1 when unbounded. Backreference width depends on
// captured text, so it is conservatively unbounded.
func nodeWidth(n syntax.Node) (min, max int) {
	switch n := n.(type) {
	case *syntax.Empty, *syntax.Assert, *syntax.Look:
		return 0, 0
	case *syntax.Literal:
		return len(n.Runes), len(n.Runes)
	case *syntax.Class, *syntax.AnyChar:
		return 1, 1
	case *syntax.Backref:
		return 0, -1
	case *syntax.Group:
		return nodeWidth(n.Sub)
	case *syntax.Concat:
		for _, sub := range n.Subs {
			smin, smax := nodeWidth(sub)
			min += smin
			if max == -1 || smax == -1 {
				max = -1
			} else {
				max += smax
			}
		}
		return min, max
	case *syntax.Alternate:
		min, max = nodeWidth(n.Subs[0])
		for _, sub := range n.Subs[1:] {
			smin, smax := nodeWidth(sub)
			if smin < min {
				min = smin
			}
			if max != -1 && (smax == -1 || smax > max) {
				max = smax
			}
			if smax == -1 {
				max = -1
			}
		}
		return min, max
	case *syntax.Repeat:
		smin, smax := nodeWidth(n.Sub)
		min = smin * n.Min
		if n.Max == -1 || smax == -1 {
			return min, -1
		}
		return min, smax * n.Max
	}
	return 0, -1
}

// nodeFeatures reports whether n contains backreferences or lookaround
// anywhere, including nested sub-expressions.
func nodeFeatures(n syntax.Node) (backref, look bool) {
	switch n := n.(type) {
	case *syntax.Backref:
		return true, false
	case *syntax.Look:
		backref, _ = nodeFeatures(n.Sub)
		return backref, true
	case *syntax.Group:
		return nodeFeatures(n.Sub)
	case *syntax.Repeat:
		return nodeFeatures(n.Sub)
	case *syntax.Concat:
		for _, sub := range n.Subs {
			b, l := nodeFeatures(sub)
			backref = backref || b
			look = look || l
		}
		return backref, look
	case *syntax.Alternate:
		for _, sub := range n.Subs {
			b, l := nodeFeatures(sub)
			backref = backref || b
			look = look || l
		}
		return backref, look
	}
	return false, false
}

// literalPrefix extracts a literal every match must begin with.
// complete reports that the literal is the entire pattern.
func literalPrefix(n syntax.Node) (prefix string, complete bool) {
	switch n := n.(type) {
	case *syntax.Literal:
		if n.Fold {
			return "", false
		}
		return string(n.Runes), true
	case *syntax.Group:
		return literalPrefix(n.Sub)
	case *syntax.Concat:
		var b []rune
		for i, sub := range n.Subs {
			p, c := literalPrefix(sub)
			b = append(b, []rune(p)...)
			if !c {
				return string(b), false
			}
			if i == len(n.Subs)-1 {
				return string(b), true
			}
		}
		return string(b), true
	case *syntax.Repeat:
		if n.Min >= 1 {
			p, _ := literalPrefix(n.Sub)
			return p, false
		}
	}
	return "", false
}
