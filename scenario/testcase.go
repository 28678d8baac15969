package scenario

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// AssertionType represents the type of assertion code fence in a
// scenario test
type AssertionType string

const (
	// AssertionStdout is the expected program output; checked only
	// when a native toolchain is available to run the executable.
	AssertionStdout AssertionType = "stdout"
	// AssertionAsmContains is a substring the emitted assembly must
	// contain.
	AssertionAsmContains AssertionType = "asm-contains"
	// AssertionAsmExcludes is a substring the emitted assembly must
	// NOT contain.
	AssertionAsmExcludes AssertionType = "asm-excludes"
	// AssertionCompileError is a substring of the expected
	// compilation error.
	AssertionCompileError AssertionType = "compile-error"
	// fenceInput carries stdin data for execution tests.
	fenceInput = "stdin"
	// fenceProgram carries the LC source of the test.
	fenceProgram = "lc-program"
)

// Assertion represents a single assertion in a scenario test
type Assertion struct {
	Type    AssertionType
	Content string
}

// TestCase represents a complete scenario test case extracted from
// Markdown: a heading "Test: <name>", one lc-program fence, an
// optional stdin fence, and one or more assertion fences.
type TestCase struct {
	Name       string
	Program    string
	Stdin      string
	Assertions []Assertion
}

// ExtractTestCases parses a Markdown document and extracts all
// scenario test cases.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	md := goldmark.New()
	source := []byte(markdownContent)
	doc := md.Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var current *TestCase

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			headingText := extractTextFromNode(n, source)
			if strings.HasPrefix(headingText, "Test: ") {
				if current != nil {
					if err := validateTestCase(current); err != nil {
						return ast.WalkStop, err
					}
					testCases = append(testCases, *current)
				}
				current = &TestCase{Name: strings.TrimPrefix(headingText, "Test: ")}
			}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			if language == "" {
				return ast.WalkContinue, nil
			}
			content := extractCodeBlockContent(n, source)
			lineNum := getLineNumber(n, source)

			if current == nil {
				if language == fenceProgram || language == fenceInput || isAssertionFence(language) {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", lineNum, language)
				}
				return ast.WalkContinue, nil
			}

			switch {
			case language == fenceProgram:
				if current.Program != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple lc-program fences in test '%s'", lineNum, current.Name)
				}
				current.Program = content
			case language == fenceInput:
				if current.Stdin != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple stdin fences in test '%s'", lineNum, current.Name)
				}
				current.Stdin = content
			case isAssertionFence(language):
				current.Assertions = append(current.Assertions, Assertion{
					Type:    AssertionType(language),
					Content: strings.TrimRight(content, "\n"),
				})
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", lineNum, language, current.Name)
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}

	if current != nil {
		if err := validateTestCase(current); err != nil {
			return nil, err
		}
		testCases = append(testCases, *current)
	}

	return testCases, nil
}

// extractTextFromNode extracts plain text content from a markdown node
func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if text, ok := n.(*ast.Text); ok {
				buf.Write(text.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// extractCodeBlockContent extracts the content from a fenced code block
func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertionStdout, AssertionAsmContains, AssertionAsmExcludes, AssertionCompileError:
		return true
	}
	return false
}

// validateTestCase ensures a test case has both a program and at
// least one assertion
func validateTestCase(testCase *TestCase) error {
	if testCase.Program == "" {
		return fmt.Errorf("test '%s' has no lc-program fence", testCase.Name)
	}
	if len(testCase.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", testCase.Name)
	}
	return nil
}

// getLineNumber calculates the line number of a given AST node
func getLineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	startPos := node.Lines().At(0).Start
	lineNum := 1
	for i := 0; i < startPos && i < len(source); i++ {
		if source[i] == '\n' {
			lineNum++
		}
	}
	return lineNum
}
