package main

import (
	"strconv"
	"strings"
)

// ToSExpr renders an AST node as an s-expression. Used by parser
// tests and by -v verbose output.
func ToSExpr(node *ASTNode) string {
	if node == nil {
		return "()"
	}
	switch node.Kind {
	case NodeNumber:
		return strconv.FormatInt(node.NumValue, 10)
	case NodeText:
		return strconv.Quote(node.Name)
	case NodeChar:
		return "'" + string(node.CharValue) + "'"
	case NodeBoolean:
		if node.BoolValue {
			return "true"
		}
		return "false"
	case NodeNull:
		return "null"
	case NodeIdent:
		return node.Name
	case NodeBinary:
		return "(" + node.Op + " " + ToSExpr(node.Left) + " " + ToSExpr(node.Right) + ")"
	case NodeConcat:
		return "(+>> " + ToSExpr(node.Left) + " " + ToSExpr(node.Right) + ")"
	case NodeUnary:
		return "(" + node.Op + " " + ToSExpr(node.Left) + ")"
	case NodeCall:
		parts := []string{"call", node.Name}
		for _, arg := range node.Children {
			parts = append(parts, ToSExpr(arg))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case NodeInterp:
		parts := []string{"interp"}
		for i, p := range node.Parts {
			parts = append(parts, strconv.Quote(p))
			if i < len(node.Exprs) {
				e := ToSExpr(node.Exprs[i])
				if node.Formats[i] != "" {
					e += node.Formats[i]
				}
				parts = append(parts, e)
			}
		}
		return "(" + strings.Join(parts, " ") + ")"
	case NodeArrayLit:
		parts := []string{"array"}
		for _, el := range node.Children {
			parts = append(parts, ToSExpr(el))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case NodeIndex:
		return "(index " + ToSExpr(node.Target) + " " + ToSExpr(node.Index) + ")"
	case NodeMember:
		return "(member " + ToSExpr(node.Target) + " " + node.Name + ")"
	case NodeStructLit:
		parts := []string{"struct-lit", node.Name}
		for i, fn := range node.FieldNames {
			parts = append(parts, fn+":"+ToSExpr(node.FieldValues[i]))
		}
		return "(" + strings.Join(parts, " ") + ")"

	case NodeVarDecl:
		head := "var"
		if node.IsConst {
			head = "val"
		}
		s := "(" + head + " " + TypeName(node.DeclType) + " " + node.Name
		if node.Value != nil {
			s += " " + ToSExpr(node.Value)
		}
		return s + ")"
	case NodeAssign:
		return "(= " + node.Name + " " + ToSExpr(node.Value) + ")"
	case NodeIndexAssign:
		return "(=[] " + ToSExpr(node.Target) + " " + ToSExpr(node.Index) + " " + ToSExpr(node.Value) + ")"
	case NodeMemberAssign:
		return "(=-> " + ToSExpr(node.Target) + " " + node.Name + " " + ToSExpr(node.Value) + ")"
	case NodeIf:
		s := "(if " + ToSExpr(node.Cond) + " " + ToSExpr(node.Body)
		if node.Else != nil {
			s += " " + ToSExpr(node.Else)
		}
		return s + ")"
	case NodeFor:
		return "(for " + ToSExpr(node.Init) + " " + ToSExpr(node.Cond) + " " +
			ToSExpr(node.Post) + " " + ToSExpr(node.Body) + ")"
	case NodeTry:
		s := "(try " + ToSExpr(node.Body) + " (catch " + node.Name + " " + ToSExpr(node.CatchBody) + ")"
		if node.FinallyBody != nil {
			s += " (finally " + ToSExpr(node.FinallyBody) + ")"
		}
		return s + ")"
	case NodeRepeat:
		parts := []string{"repeat", ToSExpr(node.Value)}
		for _, c := range node.Cases {
			parts = append(parts, ToSExpr(c))
		}
		if node.FixedBody != nil {
			parts = append(parts, "(fixed "+ToSExpr(node.FixedBody)+")")
		}
		return "(" + strings.Join(parts, " ") + ")"
	case NodeWhen:
		return "(when " + ToSExpr(node.Value) + " " + ToSExpr(node.Body) + ")"
	case NodeReturn:
		if node.Value == nil {
			return "(return)"
		}
		return "(return " + ToSExpr(node.Value) + ")"
	case NodeBlock:
		parts := []string{"block"}
		for _, stmt := range node.Children {
			parts = append(parts, ToSExpr(stmt))
		}
		return "(" + strings.Join(parts, " ") + ")"

	case NodeStructDecl:
		parts := []string{"struct", node.Name}
		for _, f := range node.Fields {
			parts = append(parts, TypeName(f.Type)+" "+f.Name)
		}
		return "(" + strings.Join(parts, " ") + ")"
	case NodeFuncDecl:
		parts := []string{"fnc", node.Name}
		for _, p := range node.Params {
			parts = append(parts, TypeName(p.Type)+" "+p.Name)
		}
		parts = append(parts, ":"+TypeName(node.ReturnType), ToSExpr(node.Body))
		return "(" + strings.Join(parts, " ") + ")"
	case NodeRun:
		return "(run " + ToSExpr(node.Body) + ")"
	case NodeProgram:
		parts := []string{"program"}
		for _, s := range node.Structs {
			parts = append(parts, ToSExpr(s))
		}
		for _, f := range node.Funcs {
			parts = append(parts, ToSExpr(f))
		}
		parts = append(parts, ToSExpr(node.RunBlock))
		return "(" + strings.Join(parts, " ") + ")"
	}
	return "(?" + string(node.Kind) + ")"
}
