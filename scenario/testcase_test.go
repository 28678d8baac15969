package scenario

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestExtractSingleTestCase(t *testing.T) {
	markdown := "# Test: hello\n\n" +
		"```lc-program\nrun { @print[\"Hello\"]; };\n```\n\n" +
		"```stdout\nHello\n```\n"

	cases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 1)
	be.Equal(t, cases[0].Name, "hello")
	be.Equal(t, strings.TrimSpace(cases[0].Program), `run { @print["Hello"]; };`)
	be.Equal(t, len(cases[0].Assertions), 1)
	be.Equal(t, cases[0].Assertions[0].Type, AssertionStdout)
	be.Equal(t, cases[0].Assertions[0].Content, "Hello")
}

func TestExtractMultipleTestCases(t *testing.T) {
	markdown := "# Test: first\n\n" +
		"```lc-program\nrun { };\n```\n\n" +
		"```asm-contains\n_start:\n```\n\n" +
		"## Test: second\n\n" +
		"```lc-program\nrun { };\n```\n\n" +
		"```compile-error\nsomething\n```\n"

	cases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 2)
	be.Equal(t, cases[0].Name, "first")
	be.Equal(t, cases[1].Name, "second")
	be.Equal(t, cases[1].Assertions[0].Type, AssertionCompileError)
}

func TestExtractStdinFence(t *testing.T) {
	markdown := "# Test: echo\n\n" +
		"```lc-program\nrun { };\n```\n\n" +
		"```stdin\n42\n```\n\n" +
		"```stdout\n42\n```\n"

	cases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, cases[0].Stdin, "42\n")
	be.Equal(t, len(cases[0].Assertions), 1)
}

func TestExtractMultipleAssertions(t *testing.T) {
	markdown := "# Test: multi\n\n" +
		"```lc-program\nrun { };\n```\n\n" +
		"```asm-contains\nstr_0\n```\n\n" +
		"```asm-excludes\nstr_9\n```\n"

	cases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(cases[0].Assertions), 2)
	be.Equal(t, cases[0].Assertions[1].Type, AssertionAsmExcludes)
}

func TestRejectProgramWithoutAssertion(t *testing.T) {
	markdown := "# Test: bare\n\n```lc-program\nrun { };\n```\n"
	_, err := ExtractTestCases(markdown)
	be.Err(t, err)
}

func TestRejectAssertionWithoutProgram(t *testing.T) {
	markdown := "# Test: empty\n\n```stdout\nHello\n```\n"
	_, err := ExtractTestCases(markdown)
	be.Err(t, err)
}

func TestRejectFenceOutsideTestCase(t *testing.T) {
	markdown := "Some prose.\n\n```lc-program\nrun { };\n```\n"
	_, err := ExtractTestCases(markdown)
	be.Err(t, err)
}

func TestRejectUnknownFence(t *testing.T) {
	markdown := "# Test: odd\n\n" +
		"```lc-program\nrun { };\n```\n\n" +
		"```hexdump\nx\n```\n"
	_, err := ExtractTestCases(markdown)
	be.Err(t, err)
}

func TestRejectDuplicateProgramFence(t *testing.T) {
	markdown := "# Test: dup\n\n" +
		"```lc-program\nrun { };\n```\n\n" +
		"```lc-program\nrun { };\n```\n\n" +
		"```stdout\nx\n```\n"
	_, err := ExtractTestCases(markdown)
	be.Err(t, err)
}

func TestPlainFencesAreIgnored(t *testing.T) {
	markdown := "Intro with a plain code block:\n\n" +
		"```\nnot a test\n```\n\n" +
		"# Test: real\n\n" +
		"```lc-program\nrun { };\n```\n\n" +
		"```asm-contains\n_start\n```\n"

	cases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 1)
}
