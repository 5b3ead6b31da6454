// Command regexgen compiles a regular expression at build time and
// emits a Go source file declaring the ready-to-use matcher.
//
// Usage:
//
//	regexgen -pattern '(\w+)@(\w+)\.com' -name EmailRe -package mail -output email_gen.go
//
// Without -output the generated source is written to stdout.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/coregx/regexvm/gen"
)

func main() {
	var (
		pattern = flag.String("pattern", "", "regular expression to compile (required)")
		flags   = flag.String("flags", "", `flag letters, e.g. "ims"`)
		name    = flag.String("name", "Pattern", "identifier of the generated variable")
		pkg     = flag.String("package", "main", "package name of the generated file")
		output  = flag.String("output", "", "output file (default stdout)")
	)
	flag.Parse()

	src, err := gen.Generate(gen.Options{
		Pattern: *pattern,
		Flags:   *flags,
		Name:    *name,
		Package: *pkg,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "regexgen:", err)
		os.Exit(1)
	}

	if *output == "" {
		os.Stdout.Write(src)
		return
	}
	if err := os.WriteFile(*output, src, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "regexgen:", err)
		os.Exit(1)
	}
}
