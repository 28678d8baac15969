package main

import "fmt"

// TypeKind discriminates the variants of TypeNode.
type TypeKind string

const (
	TypeNum    TypeKind = "num"
	TypeText   TypeKind = "text"
	TypeChar   TypeKind = "char"
	TypeBool   TypeKind = "bool"
	TypeVoid   TypeKind = "void"
	TypeNull   TypeKind = "null"
	TypeArray  TypeKind = "array"
	TypeFunc   TypeKind = "func"
	TypeStruct TypeKind = "struct"
)

// TypeNode represents an LC type. Numbers are 64-bit signed integers
// (decimal literals truncate), text is a pointer to NUL-terminated
// bytes, char is a single byte, bool is 0/1.
type TypeNode struct {
	Kind     TypeKind
	Nullable bool

	// TypeArray: element type and length. ArrayLen == 0 means the
	// length is unspecified (dynamic).
	Elem     *TypeNode
	ArrayLen int

	// TypeFunc:
	Params []*TypeNode
	Result *TypeNode

	// TypeStruct: the registered struct name.
	Name string
}

// Prebuilt primitive types. Never mutate these; MakeNullable copies.
var (
	NumType  = &TypeNode{Kind: TypeNum}
	TextType = &TypeNode{Kind: TypeText}
	CharType = &TypeNode{Kind: TypeChar}
	BoolType = &TypeNode{Kind: TypeBool}
	VoidType = &TypeNode{Kind: TypeVoid}
	NullType = &TypeNode{Kind: TypeNull, Nullable: true}
)

// MakeNullable returns the nullable form of t. Void and function types
// have no nullable form and are returned unchanged.
func MakeNullable(t *TypeNode) *TypeNode {
	if t == nil || t.Nullable || t.Kind == TypeVoid || t.Kind == TypeFunc {
		return t
	}
	nt := *t
	nt.Nullable = true
	return &nt
}

// TypesEqual implements LC type equality: structural for primitives
// and arrays, nominal for structs, positional for functions. The
// nullable flag is part of the type.
func TypesEqual(a, b *TypeNode) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Nullable != b.Nullable {
		return false
	}
	switch a.Kind {
	case TypeArray:
		return a.ArrayLen == b.ArrayLen && TypesEqual(a.Elem, b.Elem)
	case TypeStruct:
		return a.Name == b.Name
	case TypeFunc:
		if len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !TypesEqual(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return TypesEqual(a.Result, b.Result)
	}
	return true
}

// AssignableTo reports whether a value of type src may be stored into
// a binding of type dst: equal types, a non-nullable type into its own
// nullable form, or the null literal into any nullable type.
func AssignableTo(src, dst *TypeNode) bool {
	if TypesEqual(src, dst) {
		return true
	}
	if src != nil && src.Kind == TypeNull {
		return dst != nil && dst.Nullable
	}
	if dst != nil && dst.Nullable && src != nil && !src.Nullable {
		stripped := *dst
		stripped.Nullable = false
		return TypesEqual(src, &stripped)
	}
	return false
}

// TypeName renders t for error messages, e.g. "num?", "text[3]",
// "Point".
func TypeName(t *TypeNode) string {
	if t == nil {
		return "<unknown>"
	}
	suffix := ""
	if t.Nullable && t.Kind != TypeNull {
		suffix = "?"
	}
	switch t.Kind {
	case TypeArray:
		if t.ArrayLen > 0 {
			return fmt.Sprintf("%s[%d]%s", TypeName(t.Elem), t.ArrayLen, suffix)
		}
		return TypeName(t.Elem) + "[]" + suffix
	case TypeStruct:
		return t.Name + suffix
	case TypeFunc:
		return "fnc" + suffix
	}
	return string(t.Kind) + suffix
}

// StructField is one field of a registered struct.
type StructField struct {
	Name string
	Type *TypeNode
}

// StructRegistry maps struct names to their ordered field lists. One
// registry lives for one compilation; it is threaded explicitly
// through the analyzer and the backends.
type StructRegistry struct {
	structs map[string][]StructField
	order   []string
}

func NewStructRegistry() *StructRegistry {
	return &StructRegistry{structs: make(map[string][]StructField)}
}

// Register records a struct definition. Registering the same name
// twice is an error.
func (r *StructRegistry) Register(name string, fields []StructField) error {
	if _, exists := r.structs[name]; exists {
		return fmt.Errorf("struct %s already defined", name)
	}
	r.structs[name] = fields
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the field list for name, or false if unregistered.
func (r *StructRegistry) Lookup(name string) ([]StructField, bool) {
	fields, ok := r.structs[name]
	return fields, ok
}

// FieldIndex returns the position and type of field within struct
// name, or -1 if either is unknown.
func (r *StructRegistry) FieldIndex(name, field string) (int, *TypeNode) {
	fields, ok := r.structs[name]
	if !ok {
		return -1, nil
	}
	for i, f := range fields {
		if f.Name == field {
			return i, f.Type
		}
	}
	return -1, nil
}

// Names returns the registered struct names in definition order.
func (r *StructRegistry) Names() []string {
	return r.order
}
