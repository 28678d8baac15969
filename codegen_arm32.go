package main

import (
	"fmt"
	"strings"
)

// arm32Gen is the skeletal ARMv7-A backend (hard-float ABI). Syscalls
// use svc #0 with the number in r7 (write = 4, exit = 1). Like the
// AArch64 skeleton it only lowers text-literal printing.
type arm32Gen struct {
	pool      map[string]string
	poolOrder []string
}

func generateARM32(prog *ASTNode, analysis *Analysis) (string, error) {
	cg := &arm32Gen{pool: make(map[string]string)}

	var text strings.Builder
	text.WriteString(".global _start\n_start:\n")
	text.WriteString("    push {fp, lr}\n")
	text.WriteString("    mov fp, sp\n")

	if len(prog.Funcs) > 0 || len(prog.Structs) > 0 {
		return "", fmt.Errorf("arm32 backend incomplete: functions and structs are not lowered yet")
	}
	for _, stmt := range prog.RunBlock.Body.Children {
		if err := cg.genStatement(&text, stmt); err != nil {
			return "", err
		}
	}

	text.WriteString("    mov r7, #1\n") // sys_exit
	text.WriteString("    mov r0, #0\n")
	text.WriteString("    svc #0\n")

	var asm strings.Builder
	asm.WriteString(".data\n")
	for _, content := range cg.poolOrder {
		fmt.Fprintf(&asm, "%s: .asciz \"%s\"\n", cg.pool[content], escapeAsm(content))
	}
	asm.WriteString("\n.text\n")
	asm.WriteString(text.String())
	asm.WriteString(arm32Runtime)
	return asm.String(), nil
}

func (cg *arm32Gen) genStatement(text *strings.Builder, stmt *ASTNode) error {
	if stmt.Kind == NodeCall && stmt.Name == "print" &&
		len(stmt.Children) == 1 && stmt.Children[0].Kind == NodeText {
		label := cg.intern(stmt.Children[0].Name)
		fmt.Fprintf(text, "    ldr r0, =%s\n", label)
		text.WriteString("    bl print_string\n")
		return nil
	}
	return fmt.Errorf("arm32 backend incomplete: cannot lower %s", stmt.Kind)
}

func (cg *arm32Gen) intern(content string) string {
	if label, ok := cg.pool[content]; ok {
		return label
	}
	label := fmt.Sprintf("str_%d", len(cg.poolOrder))
	cg.pool[content] = label
	cg.poolOrder = append(cg.poolOrder, content)
	return label
}

const arm32Runtime = `
@ print_string: write the NUL-terminated string in r0 to fd 1.
print_string:
    push {fp, lr}
    mov fp, sp
    mov r1, r0
    mov r2, #0
.Lps_len:
    ldrb r3, [r1, r2]
    cmp r3, #0
    beq .Lps_write
    add r2, r2, #1
    b .Lps_len
.Lps_write:
    mov r7, #4
    mov r0, #1
    svc #0
    pop {fp, pc}
`
