package main

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

// analyze parses and analyzes a program, returning the annotated tree.
func analyze(t *testing.T, input string) *ASTNode {
	t.Helper()
	prog, err := Parse(Tokenize(input))
	be.Err(t, err, nil)
	_, err = Analyze(prog)
	be.Err(t, err, nil)
	return prog
}

// analyzeErr analyzes a program expecting a semantic failure.
func analyzeErr(t *testing.T, input string) string {
	t.Helper()
	prog, err := Parse(Tokenize(input))
	be.Err(t, err, nil)
	_, err = Analyze(prog)
	if err == nil {
		t.Fatalf("expected a semantic error for %q", input)
	}
	return err.Error()
}

func TestSemanticRejections(t *testing.T) {
	tests := []struct {
		name    string
		program string
		wantMsg string
	}{
		{
			"undefined variable",
			"run { x = 1; };",
			"undefined variable x",
		},
		{
			"undefined in expression",
			"run { num y = x + 1; };",
			"undefined variable x",
		},
		{
			"duplicate declaration",
			"run { num x = 1; num x = 2; };",
			"already declared",
		},
		{
			"shadowing rejected",
			"run { num x = 1; if [true] { num x = 2; }; };",
			"already declared",
		},
		{
			"reassign constant",
			"run { val num X = 1; X = 2; };",
			"Cannot reassign constant X",
		},
		{
			"null into non-nullable",
			"run { num x = null; };",
			"cannot assign null to non-nullable",
		},
		{
			"text into num",
			`run { num x = "s"; };`,
			"type mismatch",
		},
		{
			"plus on text",
			`run { text a = "x"; text b = a + "y"; };`,
			"spelled +>>",
		},
		{
			"arith on bool",
			"run { num x = true * 2; };",
			"requires num operands",
		},
		{
			"comparison type mismatch",
			`run { bool b = 1 == "one"; };`,
			"equal operand types",
		},
		{
			"logical on num",
			"run { bool b = 1 && true; };",
			"requires bool operands",
		},
		{
			"negate text",
			`run { num n = -"x"; };`,
			"unary - requires num",
		},
		{
			"if condition not bool",
			"run { if [1] { }; };",
			"must be bool",
		},
		{
			"for condition not bool",
			"run { for [num i = 0; i; i = i] { }; };",
			"must be bool",
		},
		{
			"concat struct",
			"struct S { num n; }; run { S s = S { n: 1 }; text t = s +>> s; };",
			"+>> operand must be",
		},
		{
			"array element type clash",
			`run { num[] xs = [1, "two"]; };`,
			"share one type",
		},
		{
			"array literal length mismatch",
			"run { num[3] xs = [1, 2]; };",
			"array literal has 2 elements",
		},
		{
			"index on non-array",
			"run { num x = 1; num y = x[0]; };",
			"is not an array",
		},
		{
			"index must be num",
			"run { num[2] xs = [1, 2]; num y = xs[true]; };",
			"index must be num",
		},
		{
			"index receiver must be identifier",
			"run { num[2] xs = [1, 2]; num y = [1, 2][0]; };",
			"array variable",
		},
		{
			"unknown struct field",
			"struct P { num x; }; run { P p = P { x: 1 }; num y = p->z; };",
			"has no field z",
		},
		{
			"struct literal missing field",
			"struct P { num x; num y; }; run { P p = P { x: 1 }; };",
			"missing field y",
		},
		{
			"struct literal unknown field",
			"struct P { num x; }; run { P p = P { x: 1, q: 2 }; };",
			"has no field q",
		},
		{
			"duplicate struct",
			"struct P { num x; }; struct P { num y; }; run { };",
			"already defined",
		},
		{
			"duplicate function",
			"fnc f[]:void { } fnc f[]:void { } run { };",
			"already defined",
		},
		{
			"undefined function",
			"run { @nothing[]; };",
			"undefined function nothing",
		},
		{
			"call arity",
			"fnc f[num a]:num { return a; } run { num x = @f[1, 2]; };",
			"takes 1 arguments, found 2",
		},
		{
			"call argument type",
			`fnc f[num a]:num { return a; } run { num x = @f["one"]; };`,
			"cannot pass text as num",
		},
		{
			"when type mismatch",
			`run { num d = 1; repeat [d] { when ["x"] { } }; };`,
			"does not match repeat expression type",
		},
		{
			"return type mismatch",
			`fnc f[]:num { return "x"; } run { };`,
			"cannot return text",
		},
		{
			"value return from void",
			"fnc f[]:void { return 1; } run { };",
			"void",
		},
		{
			"constant division by zero",
			"run { val num X = 1 / 0; };",
			"division by zero in constant expression",
		},
		{
			"unknown struct type in signature",
			"fnc f[Ghost g]:void { } run { };",
			"unknown type Ghost",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := errFor(t, tt.program)
			if !strings.Contains(msg, tt.wantMsg) {
				t.Fatalf("error %q does not contain %q", msg, tt.wantMsg)
			}
		})
	}
}

// errFor compiles through the front end and returns whichever error
// surfaces first (parse or semantic).
func errFor(t *testing.T, input string) string {
	t.Helper()
	prog, err := Parse(Tokenize(input))
	if err != nil {
		return err.Error()
	}
	_, err = Analyze(prog)
	if err == nil {
		t.Fatalf("expected an error for %q", input)
	}
	return err.Error()
}

func TestNullabilityAccepts(t *testing.T) {
	analyze(t, `
run {
    num? a = null;
    num? b = 5;
    num c = 7;
    b = c;
    text? s = "x";
    s = null;
};`)
}

func TestNullableIntoNonNullableRejected(t *testing.T) {
	msg := analyzeErr(t, "run { num? a = 1; num b = a; };")
	be.True(t, strings.Contains(msg, "type mismatch"))
}

func TestExpressionTypesAreSet(t *testing.T) {
	prog := analyze(t, `
fnc twice[num n]:num {
    return n * 2;
}
run {
    num x = @twice[4];
    bool ok = x > 3 && true;
    text msg = "x is $x";
    @print[msg];
};`)

	var assertTyped func(node *ASTNode)
	assertTyped = func(node *ASTNode) {
		if node == nil {
			return
		}
		switch node.Kind {
		case NodeNumber, NodeText, NodeChar, NodeBoolean, NodeNull,
			NodeIdent, NodeBinary, NodeUnary, NodeCall, NodeInterp,
			NodeConcat, NodeArrayLit, NodeIndex, NodeMember, NodeStructLit:
			if node.Type == nil {
				t.Fatalf("%s node at %d:%d has no type", node.Kind, node.Line, node.Col)
			}
		}
		for _, child := range node.Children {
			assertTyped(child)
		}
		for _, child := range node.Exprs {
			assertTyped(child)
		}
		assertTyped(node.Left)
		assertTyped(node.Right)
		assertTyped(node.Target)
		assertTyped(node.Index)
		assertTyped(node.Value)
		assertTyped(node.Cond)
		assertTyped(node.Body)
		assertTyped(node.Else)
		assertTyped(node.Init)
		assertTyped(node.Post)
	}
	for _, f := range prog.Funcs {
		assertTyped(f.Body)
	}
	assertTyped(prog.RunBlock.Body)
}

func TestConstantFolding(t *testing.T) {
	prog := analyze(t, `
run {
    val num A = 2 + 3 * 4;
    val num B = A - 4;
    val num C = B / 2;
    val text T = "hi";
    val bool F = true;
    val char L = 'q';
};`)
	stmts := prog.RunBlock.Body.Children

	be.True(t, stmts[0].IsCompileTimeConst)
	be.Equal(t, stmts[0].ConstVal.Num, int64(14))
	be.True(t, stmts[1].IsCompileTimeConst)
	be.Equal(t, stmts[1].ConstVal.Num, int64(10))
	be.True(t, stmts[2].IsCompileTimeConst)
	be.Equal(t, stmts[2].ConstVal.Num, int64(5))
	be.Equal(t, stmts[3].ConstVal.Kind, TypeText)
	be.Equal(t, stmts[3].ConstVal.Text, "hi")
	be.Equal(t, stmts[4].ConstVal.Bool, true)
	be.Equal(t, stmts[5].ConstVal.Char, byte('q'))
}

// A folded constant's value is always one of the four literal kinds.
func TestFoldedConstantKinds(t *testing.T) {
	prog := analyze(t, `
run {
    val num A = 1 + 1;
    val text B = "b";
    val char C = 'c';
    val bool D = false;
};`)
	for _, stmt := range prog.RunBlock.Body.Children {
		be.True(t, stmt.IsCompileTimeConst)
		switch stmt.ConstVal.Kind {
		case TypeNum, TypeText, TypeChar, TypeBool:
		default:
			t.Fatalf("unexpected folded kind %s", stmt.ConstVal.Kind)
		}
	}
}

// A constant whose initializer needs runtime work is still a
// constant, just not a folded one.
func TestRuntimeConstantNotFolded(t *testing.T) {
	prog := analyze(t, `
fnc f[]:num { return 1; }
run {
    val num X = @f[];
};`)
	stmt := prog.RunBlock.Body.Children[0]
	be.True(t, stmt.IsConst)
	be.True(t, !stmt.IsCompileTimeConst)
}

func TestConstantMissingInitializer(t *testing.T) {
	msg := analyzeErr(t, "run { val num X; };")
	be.True(t, strings.Contains(msg, "must have an initializer"))
}

func TestStructRegistryLifecycle(t *testing.T) {
	analyze(t, "struct P { num x; }; run { P p = P { x: 1 }; };")

	// A fresh compilation starts from an empty registry: the struct
	// from the previous run is gone.
	msg := analyzeErr(t, "fnc f[P p]:void { } run { };")
	be.True(t, strings.Contains(msg, "unknown type P"))
}
