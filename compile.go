package main

import (
	"fmt"
	"strings"
)

// CompileSource runs the whole pipeline on one source text and
// returns the generated assembly for the given target.
func CompileSource(src string, target Target, verbose bool) (string, error) {
	tokens := Tokenize(src)
	if verbose {
		fmt.Printf("lex: %d tokens\n", len(tokens))
	}

	prog, err := Parse(tokens)
	if err != nil {
		return "", err
	}
	if verbose {
		fmt.Printf("parse: %d structs, %d functions\n", len(prog.Structs), len(prog.Funcs))
	}

	analysis, err := Analyze(prog)
	if err != nil {
		return "", err
	}
	if verbose {
		fmt.Printf("semantic: ok\n")
		fmt.Printf("ast: %s\n", ToSExpr(prog))
	}

	asm, err := Generate(prog, analysis, target)
	if err != nil {
		return "", &CompileError{Phase: "codegen", Msg: err.Error()}
	}
	if verbose {
		fmt.Printf("codegen (%s): %d lines\n", target, strings.Count(asm, "\n"))
	}
	return asm, nil
}
