package main

import (
	"strconv"
	"strings"
)

// Parser is a recursive-descent parser over a materialized token
// stream. Parse errors abort via panic(*CompileError) and are
// recovered at the Parse boundary, so the internals stay free of
// error plumbing.
type Parser struct {
	tokens []Token
	pos    int

	// Struct names seen so far; a leading identifier that matches one
	// starts a declaration statement.
	structNames map[string]bool
}

// Parse consumes the token stream and returns the program root.
func Parse(tokens []Token) (prog *ASTNode, err error) {
	p := &Parser{tokens: tokens, structNames: make(map[string]bool)}
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				prog, err = nil, ce
				return
			}
			panic(r)
		}
	}()
	prog = p.parseProgram()
	return prog, nil
}

func (p *Parser) cur() Token {
	return p.tokens[p.pos]
}

// peekKind returns the kind of the token after the current one,
// skipping nothing.
func (p *Parser) peekKind() TokenKind {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1].Kind
	}
	return EOF
}

func (p *Parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) at(kind TokenKind) bool {
	return p.cur().Kind == kind
}

// expect consumes the current token, failing unless it has the given
// kind.
func (p *Parser) expect(kind TokenKind, context string) Token {
	tok := p.cur()
	if tok.Kind != kind {
		panic(parseErrorf(tok, "expected %q in %s, found %q", string(kind), context, tok.Lexeme))
	}
	return p.next()
}

// skipNewlines skips a run of newline tokens between statements and
// declarations.
func (p *Parser) skipNewlines() {
	for p.at(NEWLINE) {
		p.next()
	}
}

func (p *Parser) fail(format string, args ...any) {
	panic(parseErrorf(p.cur(), format, args...))
}

// ---------------------------------------------------------------------------
// Declarations

func (p *Parser) parseProgram() *ASTNode {
	prog := &ASTNode{Kind: NodeProgram, Line: 1, Col: 1}
	for {
		p.skipNewlines()
		switch p.cur().Kind {
		case STRUCT:
			prog.Structs = append(prog.Structs, p.parseStructDecl())
		case FNC:
			prog.Funcs = append(prog.Funcs, p.parseFuncDecl())
		case RUN:
			if prog.RunBlock != nil {
				p.fail("duplicate run block")
			}
			prog.RunBlock = p.parseRunBlock()
		case EOF:
			if prog.RunBlock == nil {
				p.fail("Missing run block")
			}
			return prog
		default:
			p.fail("expected struct, fnc or run at top level, found %q", p.cur().Lexeme)
		}
	}
}

// struct Name { Type field; ... };
func (p *Parser) parseStructDecl() *ASTNode {
	start := p.expect(STRUCT, "struct declaration")
	name := p.expect(IDENT, "struct declaration")
	node := &ASTNode{Kind: NodeStructDecl, Name: name.Lexeme, Line: start.Line, Col: start.Col}
	p.expect(LBRACE, "struct declaration")
	for {
		p.skipNewlines()
		if p.at(RBRACE) {
			break
		}
		fieldType := p.parseType()
		fieldName := p.expect(IDENT, "struct field")
		p.expect(SEMICOLON, "struct field")
		node.Fields = append(node.Fields, StructField{Name: fieldName.Lexeme, Type: fieldType})
	}
	p.expect(RBRACE, "struct declaration")
	p.expect(SEMICOLON, "struct declaration")
	p.structNames[node.Name] = true
	return node
}

// fnc Name [val? Type param, ...] : ReturnType { body }
func (p *Parser) parseFuncDecl() *ASTNode {
	start := p.expect(FNC, "function declaration")
	name := p.expect(IDENT, "function declaration")
	node := &ASTNode{Kind: NodeFuncDecl, Name: name.Lexeme, Line: start.Line, Col: start.Col}

	p.expect(LBRACKET, "function parameter list")
	for !p.at(RBRACKET) {
		isConst := false
		if p.at(VAL) {
			p.next()
			isConst = true
		}
		paramType := p.parseType()
		paramName := p.expect(IDENT, "function parameter")
		node.Params = append(node.Params, FuncParam{Type: paramType, Name: paramName.Lexeme, IsConst: isConst})
		if p.at(COMMA) {
			p.next()
			continue
		}
		break
	}
	p.expect(RBRACKET, "function parameter list")
	p.parseReturnType(node)
	node.Body = p.parseBlock()
	if p.at(SEMICOLON) {
		p.next()
	}
	return node
}

// parseReturnType handles ": Type". The lexer folds ":d", ":f" and
// ":s" into format-specifier tokens when no identifier character
// follows, so a return type named exactly "d", "f" or "s" (e.g. a
// struct named "d") arrives fused; split it back apart here.
func (p *Parser) parseReturnType(node *ASTNode) {
	switch p.cur().Kind {
	case COLON:
		p.next()
		node.ReturnType = p.parseType()
	case FMT_D, FMT_F, FMT_S:
		tok := p.next()
		node.ReturnType = p.parseTypeFromName(tok, tok.Lexeme[1:])
	default:
		p.fail("expected \":\" before return type, found %q", p.cur().Lexeme)
	}
}

// run { body };
func (p *Parser) parseRunBlock() *ASTNode {
	start := p.expect(RUN, "run block")
	node := &ASTNode{Kind: NodeRun, Line: start.Line, Col: start.Col}
	node.Body = p.parseBlock()
	p.expect(SEMICOLON, "run block")
	return node
}

// ---------------------------------------------------------------------------
// Types

// parseType parses a type expression: a primitive keyword or struct
// name, an optional "[n]" or "[]" array suffix, and an optional "?"
// nullable suffix.
func (p *Parser) parseType() *TypeNode {
	tok := p.cur()
	var base *TypeNode
	switch tok.Kind {
	case TYPE_NUM:
		base = NumType
	case TYPE_TEXT:
		base = TextType
	case TYPE_CHAR:
		base = CharType
	case TYPE_BOOL:
		base = BoolType
	case TYPE_VOID:
		base = VoidType
	case IDENT:
		base = &TypeNode{Kind: TypeStruct, Name: tok.Lexeme}
	default:
		p.fail("expected a type, found %q", tok.Lexeme)
	}
	p.next()
	return p.parseTypeSuffix(base)
}

// parseTypeFromName builds a type from a bare name that arrived fused
// into another token.
func (p *Parser) parseTypeFromName(tok Token, name string) *TypeNode {
	var base *TypeNode
	switch name {
	case "num":
		base = NumType
	case "text":
		base = TextType
	case "char":
		base = CharType
	case "bool":
		base = BoolType
	case "void":
		base = VoidType
	default:
		base = &TypeNode{Kind: TypeStruct, Name: name}
	}
	return p.parseTypeSuffix(base)
}

func (p *Parser) parseTypeSuffix(base *TypeNode) *TypeNode {
	t := base
	if p.at(LBRACKET) {
		p.next()
		length := 0
		if p.at(NUMBER) {
			n, err := strconv.Atoi(p.cur().Lexeme)
			if err != nil || n <= 0 {
				p.fail("array length must be a positive integer, found %q", p.cur().Lexeme)
			}
			length = n
			p.next()
		}
		p.expect(RBRACKET, "array type")
		t = &TypeNode{Kind: TypeArray, Elem: t, ArrayLen: length}
	}
	if p.at(QUESTION) {
		p.next()
		t = MakeNullable(t)
	}
	return t
}

// startsType reports whether the current token can begin a type in
// statement position: a type keyword, or an identifier registered as
// a struct name.
func (p *Parser) startsType() bool {
	if p.cur().IsTypeKeyword() {
		return true
	}
	return p.at(IDENT) && p.structNames[p.cur().Lexeme]
}

// ---------------------------------------------------------------------------
// Statements

// parseBlock parses "{ stmt* }" into a NodeBlock.
func (p *Parser) parseBlock() *ASTNode {
	start := p.expect(LBRACE, "block")
	block := &ASTNode{Kind: NodeBlock, Line: start.Line, Col: start.Col}
	for {
		p.skipNewlines()
		if p.at(RBRACE) || p.at(EOF) {
			break
		}
		block.Children = append(block.Children, p.parseStatement())
	}
	p.expect(RBRACE, "block")
	return block
}

func (p *Parser) parseStatement() *ASTNode {
	switch p.cur().Kind {
	case IF:
		return p.parseIf()
	case FOR:
		return p.parseFor()
	case TRY:
		return p.parseTry()
	case REPEAT:
		return p.parseRepeat()
	case RETURN:
		return p.parseReturn()
	case LBRACE:
		block := p.parseBlock()
		p.semi()
		return block
	case IDENT:
		// One token of lookahead decides between an assignment form
		// and a declaration whose type is a struct name. Committing
		// to "declaration" before this check mis-parses "x = 1".
		switch p.peekKind() {
		case ASSIGN:
			return p.parseAssign()
		case LBRACKET, ARROW:
			return p.parseTargetAssign()
		}
		if p.startsType() {
			return p.parseVarDecl(false)
		}
		return p.parseExprStatement()
	case VAL:
		p.next()
		return p.parseVarDecl(true)
	default:
		if p.cur().IsTypeKeyword() {
			return p.parseVarDecl(false)
		}
		return p.parseExprStatement()
	}
}

// semi consumes the mandatory statement terminator.
func (p *Parser) semi() {
	p.expect(SEMICOLON, "statement")
}

// blockSemi consumes an optional terminator after a braced statement.
func (p *Parser) blockSemi() {
	if p.at(SEMICOLON) {
		p.next()
	}
}

// val? Type name = expr ;
func (p *Parser) parseVarDecl(isConst bool) *ASTNode {
	start := p.cur()
	declType := p.parseType()
	name := p.expect(IDENT, "variable declaration")
	node := &ASTNode{
		Kind:     NodeVarDecl,
		Name:     name.Lexeme,
		DeclType: declType,
		IsConst:  isConst,
		Line:     start.Line,
		Col:      start.Col,
	}
	if p.at(ASSIGN) {
		p.next()
		node.Value = p.parseExpression()
	}
	p.semi()
	return node
}

// name = expr ;
func (p *Parser) parseAssign() *ASTNode {
	name := p.expect(IDENT, "assignment")
	p.expect(ASSIGN, "assignment")
	node := &ASTNode{Kind: NodeAssign, Name: name.Lexeme, Line: name.Line, Col: name.Col}
	node.Value = p.parseExpression()
	p.semi()
	return node
}

// parseTargetAssign parses "name[idx] = v;" and "name->field = v;"
// including chained accesses ("a->b->c = v;", "m[0]->x = v;"). The
// left side is parsed as a postfix expression and the outermost
// access becomes the assignment target.
func (p *Parser) parseTargetAssign() *ASTNode {
	target := p.parsePostfix(p.parsePrimary())
	start := p.cur()
	p.expect(ASSIGN, "assignment")
	value := p.parseExpression()
	p.semi()
	switch target.Kind {
	case NodeIndex:
		return &ASTNode{
			Kind: NodeIndexAssign, Target: target.Target, Index: target.Index,
			Value: value, Line: target.Line, Col: target.Col,
		}
	case NodeMember:
		return &ASTNode{
			Kind: NodeMemberAssign, Target: target.Target, Name: target.Name,
			Value: value, Line: target.Line, Col: target.Col,
		}
	}
	panic(parseErrorf(start, "cannot assign to this expression"))
}

// if [cond] { } or [cond] { } else { } ;
func (p *Parser) parseIf() *ASTNode {
	start := p.expect(IF, "if statement")
	node := p.parseIfArm(start)
	p.blockSemi()
	return node
}

func (p *Parser) parseIfArm(start Token) *ASTNode {
	node := &ASTNode{Kind: NodeIf, Line: start.Line, Col: start.Col}
	p.expect(LBRACKET, "if condition")
	node.Cond = p.parseExpression()
	p.expect(RBRACKET, "if condition")
	node.Body = p.parseBlock()
	switch p.cur().Kind {
	case OR:
		orTok := p.next()
		node.Else = p.parseIfArm(orTok)
	case ELSE:
		p.next()
		node.Else = p.parseBlock()
	}
	return node
}

// for [init; cond; incr] { body } ;
func (p *Parser) parseFor() *ASTNode {
	start := p.expect(FOR, "for statement")
	node := &ASTNode{Kind: NodeFor, Line: start.Line, Col: start.Col}
	p.expect(LBRACKET, "for header")
	node.Init = p.parseSimpleStatement()
	p.expect(SEMICOLON, "for header")
	node.Cond = p.parseExpression()
	p.expect(SEMICOLON, "for header")
	node.Post = p.parseSimpleStatement()
	p.expect(RBRACKET, "for header")
	node.Body = p.parseBlock()
	p.blockSemi()
	return node
}

// parseSimpleStatement parses a declaration or assignment without a
// trailing terminator, for use inside for-headers.
func (p *Parser) parseSimpleStatement() *ASTNode {
	if p.at(VAL) {
		p.next()
		return p.parseSimpleDecl(true)
	}
	if p.cur().IsTypeKeyword() || (p.at(IDENT) && p.structNames[p.cur().Lexeme] && p.peekKind() != ASSIGN) {
		return p.parseSimpleDecl(false)
	}
	name := p.expect(IDENT, "for header")
	p.expect(ASSIGN, "for header")
	node := &ASTNode{Kind: NodeAssign, Name: name.Lexeme, Line: name.Line, Col: name.Col}
	node.Value = p.parseExpression()
	return node
}

func (p *Parser) parseSimpleDecl(isConst bool) *ASTNode {
	start := p.cur()
	declType := p.parseType()
	name := p.expect(IDENT, "declaration")
	node := &ASTNode{
		Kind: NodeVarDecl, Name: name.Lexeme, DeclType: declType,
		IsConst: isConst, Line: start.Line, Col: start.Col,
	}
	if p.at(ASSIGN) {
		p.next()
		node.Value = p.parseExpression()
	}
	return node
}

// try { } catch[err] { } finally { } ;
func (p *Parser) parseTry() *ASTNode {
	start := p.expect(TRY, "try statement")
	node := &ASTNode{Kind: NodeTry, Line: start.Line, Col: start.Col}
	node.Body = p.parseBlock()
	p.expect(CATCH, "try statement")
	p.expect(LBRACKET, "catch clause")
	node.Name = p.expect(IDENT, "catch clause").Lexeme
	p.expect(RBRACKET, "catch clause")
	node.CatchBody = p.parseBlock()
	if p.at(FINALLY) {
		p.next()
		node.FinallyBody = p.parseBlock()
	}
	p.blockSemi()
	return node
}

// repeat [expr] { when [v] { } ... fixed { } } ;
func (p *Parser) parseRepeat() *ASTNode {
	start := p.expect(REPEAT, "repeat statement")
	node := &ASTNode{Kind: NodeRepeat, Line: start.Line, Col: start.Col}
	p.expect(LBRACKET, "repeat expression")
	node.Value = p.parseExpression()
	p.expect(RBRACKET, "repeat expression")
	p.expect(LBRACE, "repeat body")
	for {
		p.skipNewlines()
		switch p.cur().Kind {
		case WHEN:
			whenTok := p.next()
			whenNode := &ASTNode{Kind: NodeWhen, Line: whenTok.Line, Col: whenTok.Col}
			p.expect(LBRACKET, "when case")
			whenNode.Value = p.parseExpression()
			p.expect(RBRACKET, "when case")
			whenNode.Body = p.parseBlock()
			node.Cases = append(node.Cases, whenNode)
		case FIXED:
			if node.FixedBody != nil {
				p.fail("duplicate fixed arm in repeat")
			}
			p.next()
			node.FixedBody = p.parseBlock()
		case RBRACE:
			p.next()
			p.blockSemi()
			return node
		default:
			p.fail("expected when, fixed or \"}\" in repeat, found %q", p.cur().Lexeme)
		}
	}
}

// return expr? ;
func (p *Parser) parseReturn() *ASTNode {
	start := p.expect(RETURN, "return statement")
	node := &ASTNode{Kind: NodeReturn, Line: start.Line, Col: start.Col}
	if !p.at(SEMICOLON) && !p.at(NEWLINE) {
		node.Value = p.parseExpression()
	}
	p.semi()
	return node
}

func (p *Parser) parseExprStatement() *ASTNode {
	expr := p.parseExpression()
	p.semi()
	return expr
}

// ---------------------------------------------------------------------------
// Expressions

// precedence returns the binding power of a binary operator token, or
// 0 for non-operators.
func precedence(kind TokenKind) int {
	switch kind {
	case OR_OP:
		return 1
	case AND:
		return 2
	case EQ, NOT_EQ:
		return 3
	case LT, GT, LE, GE:
		return 4
	case PLUS, MINUS, CONCAT:
		return 5
	case ASTERISK, SLASH, PERCENT:
		return 6
	}
	return 0
}

const postfixPrecedence = 7

func (p *Parser) parseExpression() *ASTNode {
	return p.parseExpressionWithPrecedence(1)
}

// parseExpressionWithPrecedence implements precedence climbing.
func (p *Parser) parseExpressionWithPrecedence(minPrec int) *ASTNode {
	var left *ASTNode

	switch p.cur().Kind {
	case MINUS, PLUS, NOT:
		op := p.next()
		operand := p.parseExpressionWithPrecedence(postfixPrecedence)
		left = &ASTNode{Kind: NodeUnary, Op: op.Lexeme, Left: operand, Line: op.Line, Col: op.Col}
	default:
		left = p.parsePostfix(p.parsePrimary())
	}

	for {
		prec := precedence(p.cur().Kind)
		if prec == 0 || prec < minPrec {
			return left
		}
		op := p.next()
		right := p.parseExpressionWithPrecedence(prec + 1) // left-associative
		if op.Kind == CONCAT {
			left = &ASTNode{Kind: NodeConcat, Op: "+>>", Left: left, Right: right, Line: op.Line, Col: op.Col}
		} else {
			left = &ASTNode{Kind: NodeBinary, Op: op.Lexeme, Left: left, Right: right, Line: op.Line, Col: op.Col}
		}
	}
}

// parsePostfix applies "[index]" and "->field" suffixes. Dotted
// member syntax is reserved for the type-qualified read built-ins and
// is rejected here.
func (p *Parser) parsePostfix(left *ASTNode) *ASTNode {
	for {
		switch p.cur().Kind {
		case LBRACKET:
			open := p.next()
			index := p.parseExpression()
			p.expect(RBRACKET, "index expression")
			left = &ASTNode{Kind: NodeIndex, Target: left, Index: index, Line: open.Line, Col: open.Col}
		case ARROW:
			arrow := p.next()
			field := p.expect(IDENT, "member access")
			left = &ASTNode{Kind: NodeMember, Target: left, Name: field.Lexeme, Line: arrow.Line, Col: arrow.Col}
		case DOT:
			p.fail("\".\" is only valid in the read built-ins (num.read, text.read, char.read, bool.read)")
		default:
			return left
		}
	}
}

func (p *Parser) parsePrimary() *ASTNode {
	tok := p.cur()
	switch tok.Kind {
	case NUMBER:
		p.next()
		return numberNode(tok)

	case STRING:
		p.next()
		if strings.ContainsRune(tok.Lexeme, '$') {
			return p.parseInterpolation(tok)
		}
		return &ASTNode{Kind: NodeText, Name: tok.Lexeme, Line: tok.Line, Col: tok.Col}

	case CHAR:
		p.next()
		return &ASTNode{Kind: NodeChar, CharValue: tok.Lexeme[0], Line: tok.Line, Col: tok.Col}

	case TRUE, FALSE:
		p.next()
		return &ASTNode{Kind: NodeBoolean, BoolValue: tok.Kind == TRUE, Line: tok.Line, Col: tok.Col}

	case NULL:
		p.next()
		return &ASTNode{Kind: NodeNull, Line: tok.Line, Col: tok.Col}

	case IDENT:
		p.next()
		if p.at(LBRACE) && p.structNames[tok.Lexeme] {
			return p.parseStructLiteral(tok)
		}
		return &ASTNode{Kind: NodeIdent, Name: tok.Lexeme, Line: tok.Line, Col: tok.Col}

	case AT:
		return p.parseCall()

	case LBRACKET:
		return p.parseArrayLiteral()

	case LPAREN:
		p.next()
		expr := p.parseExpression()
		p.expect(RPAREN, "parenthesized expression")
		return expr
	}
	panic(parseErrorf(tok, "unexpected token %q in expression", tok.Lexeme))
}

// numberNode builds a numeric literal node. Decimals are truncated to
// their integer part; only 64-bit integers exist at run time.
func numberNode(tok Token) *ASTNode {
	lexeme := tok.Lexeme
	isInt := !strings.ContainsRune(lexeme, '.')
	if !isInt {
		lexeme = lexeme[:strings.IndexByte(lexeme, '.')]
	}
	value, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		panic(parseErrorf(tok, "number literal %q out of range", tok.Lexeme))
	}
	return &ASTNode{Kind: NodeNumber, NumValue: value, IsInt: isInt, Line: tok.Line, Col: tok.Col}
}

// parseCall parses "@name[args...]" and the type-qualified read
// built-ins "@num.read[...]" etc.
func (p *Parser) parseCall() *ASTNode {
	at := p.expect(AT, "call")
	var callee string
	tok := p.cur()
	if tok.IsTypeKeyword() {
		p.next()
		p.expect(DOT, "read built-in")
		member := p.expect(IDENT, "read built-in")
		if member.Lexeme != "read" {
			panic(parseErrorf(member, "unknown built-in %s.%s", tok.Lexeme, member.Lexeme))
		}
		callee = tok.Lexeme + ".read"
	} else {
		callee = p.expect(IDENT, "call").Lexeme
	}
	node := &ASTNode{Kind: NodeCall, Name: callee, Line: at.Line, Col: at.Col}
	p.expect(LBRACKET, "call argument list")
	for !p.at(RBRACKET) {
		node.Children = append(node.Children, p.parseExpression())
		if p.at(COMMA) {
			p.next()
			continue
		}
		break
	}
	p.expect(RBRACKET, "call argument list")
	return node
}

// parseArrayLiteral parses "[e1, e2, ...]".
func (p *Parser) parseArrayLiteral() *ASTNode {
	open := p.expect(LBRACKET, "array literal")
	node := &ASTNode{Kind: NodeArrayLit, Line: open.Line, Col: open.Col}
	for !p.at(RBRACKET) {
		node.Children = append(node.Children, p.parseExpression())
		if p.at(COMMA) {
			p.next()
			continue
		}
		break
	}
	p.expect(RBRACKET, "array literal")
	return node
}

// parseStructLiteral parses "Name { field: value, ... }". The leading
// identifier token has already been consumed.
func (p *Parser) parseStructLiteral(name Token) *ASTNode {
	node := &ASTNode{Kind: NodeStructLit, Name: name.Lexeme, Line: name.Line, Col: name.Col}
	p.expect(LBRACE, "struct literal")
	for {
		p.skipNewlines()
		if p.at(RBRACE) {
			break
		}
		field := p.expect(IDENT, "struct literal field")
		p.expect(COLON, "struct literal field")
		node.FieldNames = append(node.FieldNames, field.Lexeme)
		node.FieldValues = append(node.FieldValues, p.parseExpression())
		if p.at(COMMA) {
			p.next()
			continue
		}
		p.skipNewlines()
		break
	}
	p.expect(RBRACE, "struct literal")
	return node
}

// ---------------------------------------------------------------------------
// In-literal interpolation

// parseInterpolation re-scans a text literal containing '$' into
// alternating static parts and embedded expressions:
//
//	"$ident"       an identifier reference
//	"${name:fmt}"  an identifier reference with a format specifier
//
// The resulting node satisfies len(Parts) == len(Exprs)+1 ==
// len(Formats)+1; a missing ":fmt" records an empty format.
func (p *Parser) parseInterpolation(tok Token) *ASTNode {
	content := tok.Lexeme
	node := &ASTNode{Kind: NodeInterp, Line: tok.Line, Col: tok.Col}
	var static []byte

	flush := func() {
		node.Parts = append(node.Parts, string(static))
		static = static[:0]
	}

	i := 0
	for i < len(content) {
		c := content[i]
		if c != '$' {
			static = append(static, c)
			i++
			continue
		}
		if i+1 < len(content) && content[i+1] == '{' {
			end := strings.IndexByte(content[i+2:], '}')
			if end < 0 {
				panic(parseErrorf(tok, "unterminated ${...} in text literal"))
			}
			inner := content[i+2 : i+2+end]
			i += 2 + end + 1
			format := ""
			if idx := strings.LastIndexByte(inner, ':'); idx >= 0 {
				switch inner[idx:] {
				case ":d", ":f", ":s":
					format = inner[idx:]
					inner = inner[:idx]
				}
			}
			inner = strings.TrimSpace(inner)
			if inner == "" {
				panic(parseErrorf(tok, "empty ${} in text literal"))
			}
			flush()
			node.Exprs = append(node.Exprs, &ASTNode{
				Kind: NodeIdent, Name: inner, Line: tok.Line, Col: tok.Col,
			})
			node.Formats = append(node.Formats, format)
			continue
		}
		if i+1 < len(content) && isLetter(content[i+1]) {
			j := i + 1
			for j < len(content) && isIdentTail(content[j]) {
				j++
			}
			flush()
			node.Exprs = append(node.Exprs, &ASTNode{
				Kind: NodeIdent, Name: content[i+1 : j], Line: tok.Line, Col: tok.Col,
			})
			node.Formats = append(node.Formats, "")
			i = j
			continue
		}
		// A '$' followed by nothing interpolatable stays literal.
		static = append(static, c)
		i++
	}
	flush()
	if len(node.Exprs) == 0 {
		// Nothing interpolatable: stay a plain text literal.
		return &ASTNode{Kind: NodeText, Name: content, Line: tok.Line, Col: tok.Col}
	}
	return node
}
