// Package gen emits Go source for ahead-of-time compiled patterns.
// The generated file declares a package-level *regexvm.Regex built
// with FromProgram from the pattern's compiled instruction program, so
// matching at runtime pays no parse or compile cost and the pattern
// errors surface at generation time instead.
package gen

import (
	"bytes"
	"fmt"
	"go/token"

	"github.com/dave/jennifer/jen"

	"github.com/coregx/regexvm/prog"
	"github.com/coregx/regexvm/syntax"
)

const (
	modulePath = "github.com/coregx/regexvm"
	progPath   = modulePath + "/prog"
	syntaxPath = modulePath + "/syntax"
)

// Options configure one generated pattern.
type Options struct {
	// Pattern is the regular expression source text.
	Pattern string

	// Flags is the flag-letter string the pattern is compiled under
	// ("i", "ims", ...). May be empty.
	Flags string

	// Name is the identifier of the generated variable.
	Name string

	// Package is the package name of the generated file.
	Package string
}

// Validate reports the first problem with the options.
func (o *Options) Validate() error {
	if o.Pattern == "" {
		return fmt.Errorf("gen: empty pattern")
	}
	if !token.IsIdentifier(o.Name) {
		return fmt.Errorf("gen: %q is not a valid Go identifier", o.Name)
	}
	if !token.IsIdentifier(o.Package) {
		return fmt.Errorf("gen: %q is not a valid package name", o.Package)
	}
	if _, err := syntax.ParseFlags(o.Flags); err != nil {
		return fmt.Errorf("gen: bad flags %q: %w", o.Flags, err)
	}
	return nil
}

// Generate compiles the pattern and renders the generated source file.
func Generate(opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	flags, err := syntax.ParseFlags(opts.Flags)
	if err != nil {
		return nil, err
	}
	pat, err := syntax.Parse(opts.Pattern, flags)
	if err != nil {
		return nil, fmt.Errorf("gen: parse %q: %w", opts.Pattern, err)
	}
	p, err := prog.Compile(pat)
	if err != nil {
		return nil, fmt.Errorf("gen: compile %q: %w", opts.Pattern, err)
	}

	f := jen.NewFile(opts.Package)
	f.HeaderComment("Code generated by regexgen. DO NOT EDIT.")
	f.Comment(fmt.Sprintf("%s matches the pattern %q.", opts.Name, opts.Pattern))
	f.Var().Id(opts.Name).Op("=").Qual(modulePath, "FromProgram").Call(
		jen.Lit(opts.Pattern),
		progExpr(p),
	)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("gen: render: %w", err)
	}
	return buf.Bytes(), nil
}

var opIdent = map[prog.Op]string{
	prog.OpMatch:        "OpMatch",
	prog.OpRune:         "OpRune",
	prog.OpRuneClass:    "OpRuneClass",
	prog.OpAnyChar:      "OpAnyChar",
	prog.OpAnyCharNotNL: "OpAnyCharNotNL",
	prog.OpSplit:        "OpSplit",
	prog.OpJmp:          "OpJmp",
	prog.OpSave:         "OpSave",
	prog.OpAssert:       "OpAssert",
	prog.OpBackref:      "OpBackref",
	prog.OpLook:         "OpLook",
	prog.OpProgress:     "OpProgress",
	prog.OpFail:         "OpFail",
}

var assertIdent = map[syntax.AssertKind]string{
	syntax.AssertBeginText:      "AssertBeginText",
	syntax.AssertEndText:        "AssertEndText",
	syntax.AssertBeginLine:      "AssertBeginLine",
	syntax.AssertEndLine:        "AssertEndLine",
	syntax.AssertWordBoundary:   "AssertWordBoundary",
	syntax.AssertNoWordBoundary: "AssertNoWordBoundary",
}

var flagIdent = []struct {
	flag  syntax.Flags
	ident string
}{
	{syntax.FlagIgnoreCase, "FlagIgnoreCase"},
	{syntax.FlagMultiline, "FlagMultiline"},
	{syntax.FlagDotAll, "FlagDotAll"},
	{syntax.FlagExtended, "FlagExtended"},
	{syntax.FlagGlobal, "FlagGlobal"},
}

// progExpr renders a program as a &prog.Prog composite literal,
// recursing into lookaround sub-programs. Zero-valued fields are
// omitted.
func progExpr(p *prog.Prog) *jen.Statement {
	d := jen.Dict{
		jen.Id("Insts"): instsExpr(p.Insts),
	}
	if p.NumCap != 0 {
		d[jen.Id("NumCap")] = jen.Lit(p.NumCap)
	}
	if p.NumSlots != 0 {
		d[jen.Id("NumSlots")] = jen.Lit(p.NumSlots)
	}
	if len(p.Names) > 0 {
		names := make([]jen.Code, len(p.Names))
		for i, n := range p.Names {
			names[i] = jen.Lit(n)
		}
		d[jen.Id("Names")] = jen.Index().String().Values(names...)
	}
	if p.Flags != 0 {
		d[jen.Id("Flags")] = flagsExpr(p.Flags)
	}
	if p.Prefix != "" {
		d[jen.Id("Prefix")] = jen.Lit(p.Prefix)
	}
	if p.PrefixComplete {
		d[jen.Id("PrefixComplete")] = jen.Lit(true)
	}
	if p.MinWidth != 0 {
		d[jen.Id("MinWidth")] = jen.Lit(p.MinWidth)
	}
	if p.MaxWidth != 0 {
		d[jen.Id("MaxWidth")] = jen.Lit(p.MaxWidth)
	}
	if p.HasBackref {
		d[jen.Id("HasBackref")] = jen.Lit(true)
	}
	if p.HasLook {
		d[jen.Id("HasLook")] = jen.Lit(true)
	}
	return jen.Op("&").Qual(progPath, "Prog").Values(d)
}

func instsExpr(insts []prog.Inst) *jen.Statement {
	return jen.Index().Qual(progPath, "Inst").ValuesFunc(func(g *jen.Group) {
		for i := range insts {
			g.Add(instExpr(&insts[i]))
		}
	})
}

func instExpr(inst *prog.Inst) *jen.Statement {
	d := jen.Dict{
		jen.Id("Op"): jen.Qual(progPath, opIdent[inst.Op]),
	}
	if inst.Out != 0 {
		d[jen.Id("Out")] = jen.Lit(inst.Out)
	}
	if inst.Arg != 0 {
		d[jen.Id("Arg")] = jen.Lit(inst.Arg)
	}
	if inst.Rune != 0 {
		d[jen.Id("Rune")] = jen.LitRune(inst.Rune)
	}
	if len(inst.Ranges) > 0 {
		d[jen.Id("Ranges")] = rangesExpr(inst.Ranges)
	}
	if inst.Negated {
		d[jen.Id("Negated")] = jen.Lit(true)
	}
	if inst.Fold {
		d[jen.Id("Fold")] = jen.Lit(true)
	}
	if inst.Slot != 0 {
		d[jen.Id("Slot")] = jen.Lit(inst.Slot)
	}
	if inst.Op == prog.OpAssert {
		d[jen.Id("Assert")] = jen.Qual(syntaxPath, assertIdent[inst.Assert])
	}
	if inst.Sub != nil {
		d[jen.Id("Sub")] = progExpr(inst.Sub)
	}
	if inst.LookNeg {
		d[jen.Id("LookNeg")] = jen.Lit(true)
	}
	if inst.LookBehind {
		d[jen.Id("LookBehind")] = jen.Lit(true)
	}
	return jen.Values(d)
}

func rangesExpr(ranges []syntax.Range) *jen.Statement {
	return jen.Index().Qual(syntaxPath, "Range").ValuesFunc(func(g *jen.Group) {
		for _, r := range ranges {
			g.Values(jen.Dict{
				jen.Id("Lo"): jen.LitRune(r.Lo),
				jen.Id("Hi"): jen.LitRune(r.Hi),
			})
		}
	})
}

func flagsExpr(f syntax.Flags) *jen.Statement {
	var parts []jen.Code
	for _, fi := range flagIdent {
		if f&fi.flag != 0 {
			parts = append(parts, jen.Qual(syntaxPath, fi.ident))
		}
	}
	if len(parts) == 0 {
		return jen.Lit(0)
	}
	st := jen.Add(parts[0])
	for _, p := range parts[1:] {
		st = st.Op("|").Add(p)
	}
	return st
}
