package main

import "fmt"

// CompileError is a positioned, phase-tagged compilation failure. The
// pipeline stops at the first one.
type CompileError struct {
	Phase string // "parse", "semantic", "codegen"
	Line  int
	Col   int
	Msg   string
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s error at %d:%d: %s", e.Phase, e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("%s error: %s", e.Phase, e.Msg)
}

func parseErrorf(tok Token, format string, args ...any) *CompileError {
	return &CompileError{Phase: "parse", Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, args...)}
}

func semanticErrorf(node *ASTNode, format string, args ...any) *CompileError {
	err := &CompileError{Phase: "semantic", Msg: fmt.Sprintf(format, args...)}
	if node != nil {
		err.Line = node.Line
		err.Col = node.Col
	}
	return err
}
