package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const version = "0.3.0"

func showUsage() {
	fmt.Fprintf(os.Stderr, `lcc - ahead-of-time compiler for the LC language

Usage:
    lcc [options] input.lc

Options:
    -o PATH         Executable output path (default: input basename)
    -S, --keep-asm  Keep the generated .s file
    -v, --verbose   Show phase-by-phase progress
    --target NAME   Cross-compile for x86_64, arm64 or arm32
    --version       Print the compiler version
    -h, --help      Show this help message

Examples:
    lcc hello.lc
    lcc -o greet -S hello.lc
    lcc --target arm64 hello.lc
`)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("lcc", flag.ContinueOnError)
	fs.Usage = showUsage

	output := fs.String("o", "", "executable output path")
	keepAsm := fs.Bool("S", false, "keep the generated .s file")
	fs.BoolVar(keepAsm, "keep-asm", false, "keep the generated .s file")
	verbose := fs.Bool("v", false, "show phase-by-phase progress")
	fs.BoolVar(verbose, "verbose", false, "show phase-by-phase progress")
	targetName := fs.String("target", "", "target architecture")
	showVersion := fs.Bool("version", false, "print the compiler version")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	if *showVersion {
		fmt.Printf("lcc %s\n", version)
		return 0
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: no input file\n\n")
		showUsage()
		return 1
	}
	inputPath := fs.Arg(0)

	if !strings.HasSuffix(inputPath, ".lc") {
		fmt.Fprintf(os.Stderr, "Warning: input file should end in .lc\n")
	}

	var target Target
	var err error
	if *targetName != "" {
		target, err = ParseTarget(*targetName)
	} else {
		target, err = DetectTarget()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *verbose {
		fmt.Printf("target: %s\n", target)
	}

	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", inputPath, err)
		return 1
	}

	asm, err := CompileSource(string(source), target, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	asmPath := base + ".s"
	if err := os.WriteFile(asmPath, []byte(asm), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", asmPath, err)
		return 1
	}
	if !*keepAsm {
		defer os.Remove(asmPath)
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = base
	}
	if err := AssembleAndLink(asmPath, outputPath, target, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *verbose {
		fmt.Printf("wrote %s\n", outputPath)
	}
	return 0
}
