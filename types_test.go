package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestTypesEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *TypeNode
		expected bool
	}{
		{
			name:     "same primitives",
			a:        NumType,
			b:        &TypeNode{Kind: TypeNum},
			expected: true,
		},
		{
			name:     "different primitives",
			a:        NumType,
			b:        BoolType,
			expected: false,
		},
		{
			name:     "nullability is part of the type",
			a:        NumType,
			b:        MakeNullable(NumType),
			expected: false,
		},
		{
			name:     "same arrays",
			a:        &TypeNode{Kind: TypeArray, Elem: NumType, ArrayLen: 3},
			b:        &TypeNode{Kind: TypeArray, Elem: NumType, ArrayLen: 3},
			expected: true,
		},
		{
			name:     "arrays with different lengths",
			a:        &TypeNode{Kind: TypeArray, Elem: NumType, ArrayLen: 3},
			b:        &TypeNode{Kind: TypeArray, Elem: NumType, ArrayLen: 4},
			expected: false,
		},
		{
			name:     "arrays with different element types",
			a:        &TypeNode{Kind: TypeArray, Elem: NumType},
			b:        &TypeNode{Kind: TypeArray, Elem: TextType},
			expected: false,
		},
		{
			name:     "structs are nominal",
			a:        &TypeNode{Kind: TypeStruct, Name: "Point"},
			b:        &TypeNode{Kind: TypeStruct, Name: "Point"},
			expected: true,
		},
		{
			name:     "different struct names",
			a:        &TypeNode{Kind: TypeStruct, Name: "Point"},
			b:        &TypeNode{Kind: TypeStruct, Name: "Size"},
			expected: false,
		},
		{
			name: "functions are positional",
			a: &TypeNode{Kind: TypeFunc, Params: []*TypeNode{NumType, TextType},
				Result: BoolType},
			b: &TypeNode{Kind: TypeFunc, Params: []*TypeNode{NumType, TextType},
				Result: BoolType},
			expected: true,
		},
		{
			name: "functions with different params",
			a: &TypeNode{Kind: TypeFunc, Params: []*TypeNode{NumType},
				Result: BoolType},
			b: &TypeNode{Kind: TypeFunc, Params: []*TypeNode{TextType},
				Result: BoolType},
			expected: false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			be.Equal(t, TypesEqual(test.a, test.b), test.expected)
			be.Equal(t, TypesEqual(test.b, test.a), test.expected)
		})
	}
}

func TestAssignableTo(t *testing.T) {
	nullableNum := MakeNullable(NumType)
	tests := []struct {
		name     string
		src, dst *TypeNode
		expected bool
	}{
		{"equal types", NumType, NumType, true},
		{"non-nullable into nullable", NumType, nullableNum, true},
		{"nullable into non-nullable", nullableNum, NumType, false},
		{"null into nullable", NullType, nullableNum, true},
		{"null into non-nullable", NullType, NumType, false},
		{"unrelated types", TextType, NumType, false},
		{"nullable text into nullable num", MakeNullable(TextType), nullableNum, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			be.Equal(t, AssignableTo(test.src, test.dst), test.expected)
		})
	}
}

func TestMakeNullable(t *testing.T) {
	nt := MakeNullable(NumType)
	be.True(t, nt.Nullable)
	// The shared singleton must stay untouched.
	be.True(t, !NumType.Nullable)
	// Already-nullable and void/function types pass through.
	be.Equal(t, MakeNullable(nt), nt)
	be.Equal(t, MakeNullable(VoidType), VoidType)
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		typ  *TypeNode
		name string
	}{
		{NumType, "num"},
		{MakeNullable(TextType), "text?"},
		{&TypeNode{Kind: TypeArray, Elem: NumType, ArrayLen: 3}, "num[3]"},
		{&TypeNode{Kind: TypeArray, Elem: CharType}, "char[]"},
		{&TypeNode{Kind: TypeStruct, Name: "Point"}, "Point"},
		{MakeNullable(&TypeNode{Kind: TypeStruct, Name: "Point"}), "Point?"},
		{NullType, "null"},
	}
	for _, test := range tests {
		be.Equal(t, TypeName(test.typ), test.name)
	}
}

func TestStructRegistry(t *testing.T) {
	reg := NewStructRegistry()
	err := reg.Register("Point", []StructField{
		{Name: "x", Type: NumType},
		{Name: "y", Type: NumType},
	})
	be.Err(t, err, nil)

	// Duplicate registration fails.
	err = reg.Register("Point", nil)
	be.Err(t, err)

	fields, ok := reg.Lookup("Point")
	be.True(t, ok)
	be.Equal(t, len(fields), 2)

	idx, typ := reg.FieldIndex("Point", "y")
	be.Equal(t, idx, 1)
	be.Equal(t, typ, NumType)

	idx, _ = reg.FieldIndex("Point", "z")
	be.Equal(t, idx, -1)

	_, ok = reg.Lookup("Ghost")
	be.True(t, !ok)

	be.Equal(t, reg.Names(), []string{"Point"})
}
