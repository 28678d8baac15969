package main

// FuncSig is a registered function signature.
type FuncSig struct {
	Name   string
	Params []*TypeNode
	Result *TypeNode
}

// Analysis is the semantic analyzer's output: the struct registry and
// the function table, both scoped to one compilation. The tree itself
// is annotated in place (expression types, constant folding).
type Analysis struct {
	Registry *StructRegistry
	Funcs    map[string]*FuncSig
}

// binding is one name in scope.
type binding struct {
	Type    *TypeNode
	IsConst bool
	Const   *ConstValue // non-nil when the binding folded at compile time
}

// Analyzer walks the program twice: pass 1 registers structs and
// function signatures, pass 2 type-checks every body. The first error
// stops the walk.
type Analyzer struct {
	registry *StructRegistry
	funcs    map[string]*FuncSig
	scopes   []map[string]*binding

	// Return type of the function currently being checked; nil inside
	// the run block.
	returnType *TypeNode
}

// Analyze validates the program and annotates the tree.
func Analyze(prog *ASTNode) (*Analysis, error) {
	a := &Analyzer{
		registry: NewStructRegistry(),
		funcs:    make(map[string]*FuncSig),
	}

	// Pass 1: declaration tables.
	for _, s := range prog.Structs {
		if err := a.registerStruct(s); err != nil {
			return nil, err
		}
	}
	for _, f := range prog.Funcs {
		if err := a.registerFunc(f); err != nil {
			return nil, err
		}
	}

	// Pass 2: bodies.
	for _, f := range prog.Funcs {
		if err := a.checkFunc(f); err != nil {
			return nil, err
		}
	}
	if prog.RunBlock == nil {
		return nil, &CompileError{Phase: "semantic", Msg: "Missing run block"}
	}
	a.returnType = nil
	a.pushScope()
	err := a.checkBlock(prog.RunBlock.Body)
	a.popScope()
	if err != nil {
		return nil, err
	}

	return &Analysis{Registry: a.registry, Funcs: a.funcs}, nil
}

func (a *Analyzer) registerStruct(s *ASTNode) error {
	for _, f := range s.Fields {
		if err := a.resolveType(f.Type, s); err != nil {
			return err
		}
	}
	if err := a.registry.Register(s.Name, s.Fields); err != nil {
		return semanticErrorf(s, "%s", err.Error())
	}
	return nil
}

func (a *Analyzer) registerFunc(f *ASTNode) error {
	if _, exists := a.funcs[f.Name]; exists {
		return semanticErrorf(f, "function %s already defined", f.Name)
	}
	sig := &FuncSig{Name: f.Name, Result: f.ReturnType}
	for _, p := range f.Params {
		if err := a.resolveType(p.Type, f); err != nil {
			return err
		}
		sig.Params = append(sig.Params, p.Type)
	}
	if err := a.resolveType(f.ReturnType, f); err != nil {
		return err
	}
	a.funcs[f.Name] = sig
	return nil
}

// resolveType verifies that every struct name inside t is registered.
func (a *Analyzer) resolveType(t *TypeNode, at *ASTNode) error {
	switch {
	case t == nil:
		return nil
	case t.Kind == TypeStruct:
		if _, ok := a.registry.Lookup(t.Name); !ok {
			return semanticErrorf(at, "unknown type %s", t.Name)
		}
	case t.Kind == TypeArray:
		return a.resolveType(t.Elem, at)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Scopes

func (a *Analyzer) pushScope() {
	a.scopes = append(a.scopes, make(map[string]*binding))
}

func (a *Analyzer) popScope() {
	a.scopes = a.scopes[:len(a.scopes)-1]
}

// declare adds a binding to the innermost scope. Shadowing an outer
// binding is rejected like a same-scope duplicate.
func (a *Analyzer) declare(node *ASTNode, name string, b *binding) error {
	if a.lookup(name) != nil {
		return semanticErrorf(node, "identifier %s already declared", name)
	}
	a.scopes[len(a.scopes)-1][name] = b
	return nil
}

func (a *Analyzer) lookup(name string) *binding {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if b, ok := a.scopes[i][name]; ok {
			return b
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Statements

func (a *Analyzer) checkFunc(f *ASTNode) error {
	a.returnType = f.ReturnType
	a.pushScope()
	defer a.popScope()
	for _, p := range f.Params {
		if err := a.declare(f, p.Name, &binding{Type: p.Type, IsConst: p.IsConst}); err != nil {
			return err
		}
	}
	return a.checkBlock(f.Body)
}

func (a *Analyzer) checkBlock(block *ASTNode) error {
	for _, stmt := range block.Children {
		if err := a.checkStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) checkScopedBlock(block *ASTNode) error {
	a.pushScope()
	defer a.popScope()
	return a.checkBlock(block)
}

func (a *Analyzer) checkStatement(stmt *ASTNode) error {
	switch stmt.Kind {
	case NodeVarDecl:
		return a.checkVarDecl(stmt)
	case NodeAssign:
		return a.checkAssign(stmt)
	case NodeIndexAssign:
		return a.checkIndexAssign(stmt)
	case NodeMemberAssign:
		return a.checkMemberAssign(stmt)
	case NodeIf:
		return a.checkIf(stmt)
	case NodeFor:
		return a.checkFor(stmt)
	case NodeTry:
		return a.checkTry(stmt)
	case NodeRepeat:
		return a.checkRepeat(stmt)
	case NodeReturn:
		return a.checkReturn(stmt)
	case NodeBlock:
		return a.checkScopedBlock(stmt)
	default:
		_, err := a.checkExpr(stmt)
		return err
	}
}

func (a *Analyzer) checkVarDecl(stmt *ASTNode) error {
	if err := a.resolveType(stmt.DeclType, stmt); err != nil {
		return err
	}
	if stmt.IsConst && stmt.Value == nil {
		return semanticErrorf(stmt, "constant %s must have an initializer", stmt.Name)
	}

	b := &binding{Type: stmt.DeclType, IsConst: stmt.IsConst}

	if stmt.Value != nil {
		valueType, err := a.checkExpr(stmt.Value)
		if err != nil {
			return err
		}
		if err := a.checkDeclAssignable(stmt, valueType); err != nil {
			return err
		}
		if stmt.IsConst {
			cv, err := a.foldConst(stmt.Value)
			if err != nil {
				return err
			}
			if cv != nil {
				stmt.IsCompileTimeConst = true
				stmt.ConstVal = cv
				b.Const = cv
			}
		}
	}
	return a.declare(stmt, stmt.Name, b)
}

// checkDeclAssignable applies the declaration compatibility rule,
// with the one array wrinkle: a fixed-length declaration requires the
// literal's element count to match, while an unsized declaration
// accepts any length.
func (a *Analyzer) checkDeclAssignable(stmt *ASTNode, valueType *TypeNode) error {
	declType := stmt.DeclType
	if declType.Kind == TypeArray && valueType != nil && valueType.Kind == TypeArray &&
		valueType.ArrayLen > 0 && TypesEqual(declType.Elem, valueType.Elem) &&
		declType.Nullable == valueType.Nullable {
		if declType.ArrayLen == 0 {
			return nil
		}
		if declType.ArrayLen != valueType.ArrayLen {
			return semanticErrorf(stmt, "array literal has %d elements, type %s wants %d",
				valueType.ArrayLen, TypeName(declType), declType.ArrayLen)
		}
		return nil
	}
	if !AssignableTo(valueType, declType) {
		if valueType != nil && valueType.Kind == TypeNull {
			return semanticErrorf(stmt, "cannot assign null to non-nullable %s %s",
				TypeName(declType), stmt.Name)
		}
		return semanticErrorf(stmt, "type mismatch: cannot initialize %s %s with %s",
			TypeName(declType), stmt.Name, TypeName(valueType))
	}
	return nil
}

func (a *Analyzer) checkAssign(stmt *ASTNode) error {
	b := a.lookup(stmt.Name)
	if b == nil {
		return semanticErrorf(stmt, "undefined variable %s", stmt.Name)
	}
	if b.IsConst {
		return semanticErrorf(stmt, "Cannot reassign constant %s", stmt.Name)
	}
	valueType, err := a.checkExpr(stmt.Value)
	if err != nil {
		return err
	}
	if !AssignableTo(valueType, b.Type) {
		if valueType != nil && valueType.Kind == TypeNull {
			return semanticErrorf(stmt, "cannot assign null to non-nullable %s %s",
				TypeName(b.Type), stmt.Name)
		}
		return semanticErrorf(stmt, "type mismatch: cannot assign %s to %s %s",
			TypeName(valueType), TypeName(b.Type), stmt.Name)
	}
	return nil
}

func (a *Analyzer) checkIndexAssign(stmt *ASTNode) error {
	elemType, err := a.checkIndexTarget(stmt, stmt.Target, stmt.Index)
	if err != nil {
		return err
	}
	valueType, err := a.checkExpr(stmt.Value)
	if err != nil {
		return err
	}
	if !AssignableTo(valueType, elemType) {
		return semanticErrorf(stmt, "type mismatch: cannot store %s into %s element",
			TypeName(valueType), TypeName(elemType))
	}
	return nil
}

func (a *Analyzer) checkMemberAssign(stmt *ASTNode) error {
	objType, err := a.checkExpr(stmt.Target)
	if err != nil {
		return err
	}
	if objType.Kind != TypeStruct {
		return semanticErrorf(stmt, "member assignment requires a struct, found %s", TypeName(objType))
	}
	idx, fieldType := a.registry.FieldIndex(objType.Name, stmt.Name)
	if idx < 0 {
		return semanticErrorf(stmt, "struct %s has no field %s", objType.Name, stmt.Name)
	}
	valueType, err := a.checkExpr(stmt.Value)
	if err != nil {
		return err
	}
	if !AssignableTo(valueType, fieldType) {
		return semanticErrorf(stmt, "type mismatch: cannot assign %s to field %s.%s",
			TypeName(valueType), objType.Name, stmt.Name)
	}
	return nil
}

func (a *Analyzer) checkIf(stmt *ASTNode) error {
	condType, err := a.checkExpr(stmt.Cond)
	if err != nil {
		return err
	}
	if condType.Kind != TypeBool {
		return semanticErrorf(stmt.Cond, "if condition must be bool, found %s", TypeName(condType))
	}
	if err := a.checkScopedBlock(stmt.Body); err != nil {
		return err
	}
	switch {
	case stmt.Else == nil:
		return nil
	case stmt.Else.Kind == NodeIf:
		return a.checkIf(stmt.Else)
	default:
		return a.checkScopedBlock(stmt.Else)
	}
}

func (a *Analyzer) checkFor(stmt *ASTNode) error {
	a.pushScope()
	defer a.popScope()
	if err := a.checkStatement(stmt.Init); err != nil {
		return err
	}
	condType, err := a.checkExpr(stmt.Cond)
	if err != nil {
		return err
	}
	if condType.Kind != TypeBool {
		return semanticErrorf(stmt.Cond, "for condition must be bool, found %s", TypeName(condType))
	}
	if err := a.checkStatement(stmt.Post); err != nil {
		return err
	}
	return a.checkScopedBlock(stmt.Body)
}

func (a *Analyzer) checkTry(stmt *ASTNode) error {
	if err := a.checkScopedBlock(stmt.Body); err != nil {
		return err
	}
	a.pushScope()
	err := a.declare(stmt, stmt.Name, &binding{Type: TextType})
	if err == nil {
		err = a.checkBlock(stmt.CatchBody)
	}
	a.popScope()
	if err != nil {
		return err
	}
	if stmt.FinallyBody != nil {
		return a.checkScopedBlock(stmt.FinallyBody)
	}
	return nil
}

func (a *Analyzer) checkRepeat(stmt *ASTNode) error {
	switchType, err := a.checkExpr(stmt.Value)
	if err != nil {
		return err
	}
	for _, c := range stmt.Cases {
		caseType, err := a.checkExpr(c.Value)
		if err != nil {
			return err
		}
		if !TypesEqual(caseType, switchType) {
			return semanticErrorf(c, "when value type %s does not match repeat expression type %s",
				TypeName(caseType), TypeName(switchType))
		}
		if err := a.checkScopedBlock(c.Body); err != nil {
			return err
		}
	}
	if stmt.FixedBody != nil {
		return a.checkScopedBlock(stmt.FixedBody)
	}
	return nil
}

func (a *Analyzer) checkReturn(stmt *ASTNode) error {
	if stmt.Value == nil {
		if a.returnType != nil && a.returnType.Kind != TypeVoid {
			return semanticErrorf(stmt, "return without value in function returning %s",
				TypeName(a.returnType))
		}
		return nil
	}
	valueType, err := a.checkExpr(stmt.Value)
	if err != nil {
		return err
	}
	if a.returnType == nil || a.returnType.Kind == TypeVoid {
		return semanticErrorf(stmt, "return with value in void context")
	}
	if !AssignableTo(valueType, a.returnType) {
		return semanticErrorf(stmt, "type mismatch: cannot return %s from function returning %s",
			TypeName(valueType), TypeName(a.returnType))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Expressions

// checkExpr type-checks an expression and records the type on the
// node. Every expression node has a non-nil Type afterwards.
func (a *Analyzer) checkExpr(node *ASTNode) (*TypeNode, error) {
	t, err := a.exprType(node)
	if err != nil {
		return nil, err
	}
	node.Type = t
	return t, nil
}

func (a *Analyzer) exprType(node *ASTNode) (*TypeNode, error) {
	switch node.Kind {
	case NodeNumber:
		return NumType, nil
	case NodeText:
		return TextType, nil
	case NodeChar:
		return CharType, nil
	case NodeBoolean:
		return BoolType, nil
	case NodeNull:
		return NullType, nil

	case NodeIdent:
		b := a.lookup(node.Name)
		if b == nil {
			return nil, semanticErrorf(node, "undefined variable %s", node.Name)
		}
		return b.Type, nil

	case NodeBinary:
		return a.checkBinary(node)

	case NodeUnary:
		operandType, err := a.checkExpr(node.Left)
		if err != nil {
			return nil, err
		}
		switch node.Op {
		case "-", "+":
			if operandType.Kind != TypeNum {
				return nil, semanticErrorf(node, "unary %s requires num, found %s", node.Op, TypeName(operandType))
			}
			return NumType, nil
		case "!!":
			if operandType.Kind != TypeBool {
				return nil, semanticErrorf(node, "!! requires bool, found %s", TypeName(operandType))
			}
			return BoolType, nil
		}
		return nil, semanticErrorf(node, "unknown unary operator %s", node.Op)

	case NodeConcat:
		for _, side := range []*ASTNode{node.Left, node.Right} {
			t, err := a.checkExpr(side)
			if err != nil {
				return nil, err
			}
			if !concatenable(t) {
				return nil, semanticErrorf(side, "+>> operand must be num, text, char or bool, found %s", TypeName(t))
			}
		}
		return TextType, nil

	case NodeCall:
		return a.checkCall(node)

	case NodeInterp:
		for _, expr := range node.Exprs {
			t, err := a.checkExpr(expr)
			if err != nil {
				return nil, err
			}
			if !concatenable(t) {
				return nil, semanticErrorf(expr, "cannot interpolate %s value", TypeName(t))
			}
		}
		return TextType, nil

	case NodeArrayLit:
		if len(node.Children) == 0 {
			return nil, semanticErrorf(node, "array literal must not be empty")
		}
		elemType, err := a.checkExpr(node.Children[0])
		if err != nil {
			return nil, err
		}
		for _, el := range node.Children[1:] {
			t, err := a.checkExpr(el)
			if err != nil {
				return nil, err
			}
			if !TypesEqual(t, elemType) {
				return nil, semanticErrorf(el, "array literal elements must share one type: %s vs %s",
					TypeName(elemType), TypeName(t))
			}
		}
		return &TypeNode{Kind: TypeArray, Elem: elemType, ArrayLen: len(node.Children)}, nil

	case NodeIndex:
		return a.checkIndexTarget(node, node.Target, node.Index)

	case NodeMember:
		objType, err := a.checkExpr(node.Target)
		if err != nil {
			return nil, err
		}
		if objType.Kind != TypeStruct {
			return nil, semanticErrorf(node, "member access requires a struct, found %s", TypeName(objType))
		}
		idx, fieldType := a.registry.FieldIndex(objType.Name, node.Name)
		if idx < 0 {
			return nil, semanticErrorf(node, "struct %s has no field %s", objType.Name, node.Name)
		}
		return fieldType, nil

	case NodeStructLit:
		return a.checkStructLit(node)
	}
	return nil, semanticErrorf(node, "internal: unexpected expression node %s", node.Kind)
}

func concatenable(t *TypeNode) bool {
	switch t.Kind {
	case TypeNum, TypeText, TypeChar, TypeBool:
		return true
	}
	return false
}

func (a *Analyzer) checkBinary(node *ASTNode) (*TypeNode, error) {
	leftType, err := a.checkExpr(node.Left)
	if err != nil {
		return nil, err
	}
	rightType, err := a.checkExpr(node.Right)
	if err != nil {
		return nil, err
	}
	switch node.Op {
	case "+", "-", "*", "/", "%":
		if leftType.Kind != TypeNum || rightType.Kind != TypeNum {
			if node.Op == "+" && (leftType.Kind == TypeText || rightType.Kind == TypeText) {
				return nil, semanticErrorf(node, "text concatenation is spelled +>>, not +")
			}
			return nil, semanticErrorf(node, "%s requires num operands, found %s and %s",
				node.Op, TypeName(leftType), TypeName(rightType))
		}
		return NumType, nil
	case "==", "!=", "<", ">", "<=", ">=":
		if !TypesEqual(leftType, rightType) {
			return nil, semanticErrorf(node, "%s requires equal operand types, found %s and %s",
				node.Op, TypeName(leftType), TypeName(rightType))
		}
		return BoolType, nil
	case "&&", "||":
		if leftType.Kind != TypeBool || rightType.Kind != TypeBool {
			return nil, semanticErrorf(node, "%s requires bool operands, found %s and %s",
				node.Op, TypeName(leftType), TypeName(rightType))
		}
		return BoolType, nil
	}
	return nil, semanticErrorf(node, "unknown operator %s", node.Op)
}

// checkIndexTarget enforces the indexing rule: the receiver must be a
// bare identifier bound to an array variable, and the index must be
// numeric.
func (a *Analyzer) checkIndexTarget(at *ASTNode, target *ASTNode, index *ASTNode) (*TypeNode, error) {
	if target.Kind != NodeIdent {
		return nil, semanticErrorf(at, "array access requires an array variable, not a computed expression")
	}
	targetType, err := a.checkExpr(target)
	if err != nil {
		return nil, err
	}
	if targetType.Kind != TypeArray {
		return nil, semanticErrorf(at, "%s is not an array", target.Name)
	}
	indexType, err := a.checkExpr(index)
	if err != nil {
		return nil, err
	}
	if indexType.Kind != TypeNum {
		return nil, semanticErrorf(index, "array index must be num, found %s", TypeName(indexType))
	}
	return targetType.Elem, nil
}

func (a *Analyzer) checkCall(node *ASTNode) (*TypeNode, error) {
	// Built-ins first.
	switch node.Name {
	case "print":
		if len(node.Children) != 1 {
			return nil, semanticErrorf(node, "print takes exactly 1 argument, found %d", len(node.Children))
		}
		if _, err := a.checkExpr(node.Children[0]); err != nil {
			return nil, err
		}
		return VoidType, nil
	case "read":
		if len(node.Children) != 1 {
			return nil, semanticErrorf(node, "read takes exactly 1 argument, found %d", len(node.Children))
		}
		t, err := a.checkExpr(node.Children[0])
		if err != nil {
			return nil, err
		}
		if t.Kind != TypeText {
			return nil, semanticErrorf(node, "read prompt must be text, found %s", TypeName(t))
		}
		return TextType, nil
	case "num.read", "text.read", "char.read", "bool.read":
		if len(node.Children) > 1 {
			return nil, semanticErrorf(node, "%s takes at most 1 argument, found %d", node.Name, len(node.Children))
		}
		if len(node.Children) == 1 {
			t, err := a.checkExpr(node.Children[0])
			if err != nil {
				return nil, err
			}
			if t.Kind != TypeText {
				return nil, semanticErrorf(node, "%s prompt must be text, found %s", node.Name, TypeName(t))
			}
		}
		switch node.Name {
		case "num.read":
			return NumType, nil
		case "text.read":
			return TextType, nil
		case "char.read":
			return CharType, nil
		}
		return BoolType, nil
	}

	sig, ok := a.funcs[node.Name]
	if !ok {
		return nil, semanticErrorf(node, "undefined function %s", node.Name)
	}
	if len(node.Children) != len(sig.Params) {
		return nil, semanticErrorf(node, "%s takes %d arguments, found %d",
			node.Name, len(sig.Params), len(node.Children))
	}
	for i, arg := range node.Children {
		argType, err := a.checkExpr(arg)
		if err != nil {
			return nil, err
		}
		if !AssignableTo(argType, sig.Params[i]) {
			return nil, semanticErrorf(arg, "argument %d of %s: cannot pass %s as %s",
				i+1, node.Name, TypeName(argType), TypeName(sig.Params[i]))
		}
	}
	return sig.Result, nil
}

func (a *Analyzer) checkStructLit(node *ASTNode) (*TypeNode, error) {
	fields, ok := a.registry.Lookup(node.Name)
	if !ok {
		return nil, semanticErrorf(node, "unknown struct %s", node.Name)
	}
	seen := make(map[string]bool)
	for i, fieldName := range node.FieldNames {
		idx, fieldType := a.registry.FieldIndex(node.Name, fieldName)
		if idx < 0 {
			return nil, semanticErrorf(node, "struct %s has no field %s", node.Name, fieldName)
		}
		if seen[fieldName] {
			return nil, semanticErrorf(node, "duplicate field %s in %s literal", fieldName, node.Name)
		}
		seen[fieldName] = true
		valueType, err := a.checkExpr(node.FieldValues[i])
		if err != nil {
			return nil, err
		}
		if !AssignableTo(valueType, fieldType) {
			return nil, semanticErrorf(node, "field %s.%s wants %s, found %s",
				node.Name, fieldName, TypeName(fieldType), TypeName(valueType))
		}
	}
	for _, f := range fields {
		if !seen[f.Name] {
			return nil, semanticErrorf(node, "struct %s literal is missing field %s", node.Name, f.Name)
		}
	}
	return &TypeNode{Kind: TypeStruct, Name: node.Name}, nil
}

// ---------------------------------------------------------------------------
// Compile-time constants

// foldConst evaluates expr if it is a compile-time constant: a
// literal, a reference to another compile-time constant, or + - * /
// over two foldable operands. A non-constant expression folds to nil
// without error; division by zero is an error.
func (a *Analyzer) foldConst(expr *ASTNode) (*ConstValue, error) {
	switch expr.Kind {
	case NodeNumber:
		return &ConstValue{Kind: TypeNum, Num: expr.NumValue}, nil
	case NodeText:
		return &ConstValue{Kind: TypeText, Text: expr.Name}, nil
	case NodeChar:
		return &ConstValue{Kind: TypeChar, Char: expr.CharValue}, nil
	case NodeBoolean:
		return &ConstValue{Kind: TypeBool, Bool: expr.BoolValue}, nil

	case NodeIdent:
		b := a.lookup(expr.Name)
		if b != nil && b.Const != nil {
			cv := *b.Const
			return &cv, nil
		}
		return nil, nil

	case NodeBinary:
		left, err := a.foldConst(expr.Left)
		if err != nil || left == nil {
			return nil, err
		}
		right, err := a.foldConst(expr.Right)
		if err != nil || right == nil {
			return nil, err
		}
		if left.Kind != TypeNum || right.Kind != TypeNum {
			return nil, nil
		}
		switch expr.Op {
		case "+":
			return &ConstValue{Kind: TypeNum, Num: left.Num + right.Num}, nil
		case "-":
			return &ConstValue{Kind: TypeNum, Num: left.Num - right.Num}, nil
		case "*":
			return &ConstValue{Kind: TypeNum, Num: left.Num * right.Num}, nil
		case "/":
			if right.Num == 0 {
				return nil, semanticErrorf(expr, "division by zero in constant expression")
			}
			return &ConstValue{Kind: TypeNum, Num: left.Num / right.Num}, nil
		}
	}
	return nil, nil
}
