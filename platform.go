package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DetectTarget asks uname -m for the host architecture.
func DetectTarget() (Target, error) {
	out, err := exec.Command("uname", "-m").Output()
	if err != nil {
		return "", fmt.Errorf("cannot detect host architecture: %v", err)
	}
	machine := strings.TrimSpace(string(out))
	switch machine {
	case "x86_64", "amd64":
		return TargetX8664, nil
	case "aarch64", "arm64":
		return TargetARM64, nil
	case "armv7l", "armv6l", "arm":
		return TargetARM32, nil
	}
	return "", fmt.Errorf("unsupported host architecture %q", machine)
}

// toolchainFor returns the assembler command (with its flags) and the
// linker command for a target.
func toolchainFor(target Target) (assembler []string, linker string) {
	switch target {
	case TargetARM64:
		return []string{"aarch64-linux-gnu-as"}, "aarch64-linux-gnu-ld"
	case TargetARM32:
		return []string{"arm-linux-gnueabihf-as"}, "arm-linux-gnueabihf-ld"
	default:
		return []string{"as", "--64"}, "ld"
	}
}

// AssembleAndLink turns the assembly file into an executable. The
// object file is removed afterwards; toolchain output is forwarded
// verbatim inside the returned error.
func AssembleAndLink(asmPath, outputPath string, target Target, verbose bool) error {
	assembler, linker := toolchainFor(target)
	objPath := outputPath + ".o"

	asArgs := append(assembler[1:], "-o", objPath, asmPath)
	if verbose {
		fmt.Printf("assemble: %s %s\n", assembler[0], strings.Join(asArgs, " "))
	}
	if out, err := exec.Command(assembler[0], asArgs...).CombinedOutput(); err != nil {
		return fmt.Errorf("assembler failed: %v\n%s", err, out)
	}
	defer os.Remove(objPath)

	if verbose {
		fmt.Printf("link: %s -o %s %s\n", linker, outputPath, objPath)
	}
	if out, err := exec.Command(linker, "-o", outputPath, objPath).CombinedOutput(); err != nil {
		return fmt.Errorf("linker failed: %v\n%s", err, out)
	}
	return nil
}
