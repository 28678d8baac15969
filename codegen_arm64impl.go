package main

import (
	"fmt"
	"strings"
)

// arm64Gen is the skeletal AArch64 backend. It carries the section
// layout, the entry point and the write/exit syscall plumbing
// (svc #0 with the number in x8: write = 64, exit = 93), but lowers
// only text-literal printing so far. Everything else reports the
// backend as incomplete rather than emitting wrong code.
type arm64Gen struct {
	out       strings.Builder
	pool      map[string]string
	poolOrder []string
}

func generateARM64(prog *ASTNode, analysis *Analysis) (string, error) {
	cg := &arm64Gen{pool: make(map[string]string)}

	var text strings.Builder
	text.WriteString(".global _start\n_start:\n")
	text.WriteString("    stp x29, x30, [sp, #-16]!\n")
	text.WriteString("    mov x29, sp\n")

	if len(prog.Funcs) > 0 || len(prog.Structs) > 0 {
		return "", fmt.Errorf("arm64 backend incomplete: functions and structs are not lowered yet")
	}
	for _, stmt := range prog.RunBlock.Body.Children {
		if err := cg.genStatement(&text, stmt); err != nil {
			return "", err
		}
	}

	text.WriteString("    mov x8, #93\n") // sys_exit
	text.WriteString("    mov x0, #0\n")
	text.WriteString("    svc #0\n")

	var asm strings.Builder
	asm.WriteString(".data\n")
	for _, content := range cg.poolOrder {
		fmt.Fprintf(&asm, "%s: .asciz \"%s\"\n", cg.pool[content], escapeAsm(content))
	}
	asm.WriteString("\n.text\n")
	asm.WriteString(text.String())
	asm.WriteString(arm64Runtime)
	return asm.String(), nil
}

func (cg *arm64Gen) genStatement(text *strings.Builder, stmt *ASTNode) error {
	if stmt.Kind == NodeCall && stmt.Name == "print" &&
		len(stmt.Children) == 1 && stmt.Children[0].Kind == NodeText {
		label := cg.intern(stmt.Children[0].Name)
		fmt.Fprintf(text, "    adrp x0, %s\n", label)
		fmt.Fprintf(text, "    add x0, x0, :lo12:%s\n", label)
		text.WriteString("    bl print_string\n")
		return nil
	}
	return fmt.Errorf("arm64 backend incomplete: cannot lower %s", stmt.Kind)
}

func (cg *arm64Gen) intern(content string) string {
	if label, ok := cg.pool[content]; ok {
		return label
	}
	label := fmt.Sprintf("str_%d", len(cg.poolOrder))
	cg.pool[content] = label
	cg.poolOrder = append(cg.poolOrder, content)
	return label
}

const arm64Runtime = `
# print_string: write the NUL-terminated string in x0 to fd 1.
print_string:
    stp x29, x30, [sp, #-16]!
    mov x29, sp
    mov x1, x0
    mov x2, #0
.Lps_len:
    ldrb w3, [x1, x2]
    cbz w3, .Lps_write
    add x2, x2, #1
    b .Lps_len
.Lps_write:
    mov x8, #64
    mov x0, #1
    svc #0
    ldp x29, x30, [sp], #16
    ret
`
