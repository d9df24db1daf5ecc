// Package types implements mscript's type representations: the builtin
// scalar types, struct/enum declarations with member layout, and
// array-of-T handles (spec §3).
package types

import "fmt"

// Kind is the category of a Type.
type Kind int

const (
	Void Kind = iota
	VoidPtr
	Int
	Float
	Bool
	Vec3
	CharPtr
	Struct
	Enum
	Array

	// Vec2 is never produced by the lexer/parser/checker — mscript's
	// language surface has no vec2 type or literal (spec §3). It exists
	// solely so vm_run's host-argument marshaling (spec §6) can encode a
	// 2-float host value without promoting it to a script-visible type.
	Vec2
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case VoidPtr:
		return "void*"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Vec3:
		return "vec3"
	case CharPtr:
		return "char*"
	case Struct:
		return "struct"
	case Enum:
		return "enum"
	case Array:
		return "array"
	case Vec2:
		return "vec2"
	default:
		return "unknown"
	}
}

// RecursionState tracks struct-layout progress so layout can detect
// cycles through direct-by-value containment (spec §3, supplemented per
// DESIGN.md #2: a three-state marker rather than a single boolean, since
// a struct that has *finished* layout must be distinguishable from one
// currently *being* laid out when a third struct's member chain revisits
// it).
type RecursionState int

const (
	Unvisited RecursionState = iota
	InProgress
	Done
)

// Member is one field of a struct.
type Member struct {
	Name   string
	Type   *Type
	Offset int
}

// StructDef is a named struct declaration.
type StructDef struct {
	Name    string
	Members []Member
	State   RecursionState
}

func (s *StructDef) Size() int {
	n := 0
	for _, m := range s.Members {
		n += m.Type.Size()
	}
	return n
}

func (s *StructDef) Member(name string) (Member, bool) {
	for _, m := range s.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// EnumDef is a named enum declaration; its values are plain ints 0..n-1
// in declaration order.
type EnumDef struct {
	Name   string
	Values []string
}

func (e *EnumDef) Index(name string) (int, bool) {
	for i, v := range e.Values {
		if v == name {
			return i, true
		}
	}
	return 0, false
}

// Type is a single type value. Builtin scalar types are canonical
// singletons (see Builtin* below); Struct/Enum types are canonical per
// declaration (one *Type per StructDef/EnumDef); Array types are
// canonicalized per element type by a Registry so that "a type name
// resolves to exactly one type value within a program" (spec §3 Invariants)
// holds for pointer-equality comparisons too.
type Type struct {
	Kind      Kind
	Name      string
	Elem      *Type      // valid when Kind == Array
	StructDef *StructDef // valid when Kind == Struct
	EnumDef   *EnumDef   // valid when Kind == Enum
}

// Size returns the type's fixed size in bytes, per spec §3's size table.
func (t *Type) Size() int {
	switch t.Kind {
	case Void:
		return 0
	case VoidPtr, Int, Float, Bool, CharPtr, Array:
		return 4
	case Vec3:
		return 12
	case Vec2:
		return 8
	case Struct:
		return t.StructDef.Size()
	case Enum:
		return 4
	default:
		return 0
	}
}

func (t *Type) String() string {
	switch t.Kind {
	case Struct:
		return t.StructDef.Name
	case Enum:
		return t.EnumDef.Name
	case Array:
		return fmt.Sprintf("%s[]", t.Elem)
	default:
		return t.Kind.String()
	}
}

// IsNumeric reports whether t is int or float.
func (t *Type) IsNumeric() bool { return t.Kind == Int || t.Kind == Float }

// Equal reports whether t and u denote the same type. Builtins/struct/enum
// types compare by pointer identity (canonical per Registry); array types
// compare structurally by element type since nested array-of-array
// construction can otherwise produce distinct non-interned instances.
func Equal(t, u *Type) bool {
	if t == u {
		return true
	}
	if t == nil || u == nil {
		return false
	}
	if t.Kind != u.Kind {
		return false
	}
	if t.Kind == Array {
		return Equal(t.Elem, u.Elem)
	}
	return false
}

var (
	builtinVoid    = &Type{Kind: Void, Name: "void"}
	builtinVoidPtr = &Type{Kind: VoidPtr, Name: "void*"}
	builtinInt     = &Type{Kind: Int, Name: "int"}
	builtinFloat   = &Type{Kind: Float, Name: "float"}
	builtinBool    = &Type{Kind: Bool, Name: "bool"}
	builtinVec3    = &Type{Kind: Vec3, Name: "vec3"}
	builtinCharPtr = &Type{Kind: CharPtr, Name: "char*"}
	builtinVec2    = &Type{Kind: Vec2, Name: "vec2"}
)

func VoidType() *Type    { return builtinVoid }
func VoidPtrType() *Type { return builtinVoidPtr }
func IntType() *Type     { return builtinInt }
func FloatType() *Type   { return builtinFloat }
func BoolType() *Type    { return builtinBool }
func Vec3Type() *Type    { return builtinVec3 }
func CharPtrType() *Type { return builtinCharPtr }

// Vec2Type is the host-argument-only type described above; the registry
// never registers it under a lookupable name since no source syntax can
// produce a TypeExpr named "vec2" (spec §4.3's grammar).
func Vec2Type() *Type { return builtinVec2 }

// Registry canonicalizes array-of-T types and struct/enum declarations
// within one program, so that repeated references to "int[]" (or to a
// struct/enum name) share one *Type (spec §3 Invariants).
type Registry struct {
	arrays map[*Type]*Type // element type -> array type
	named  map[string]*Type
}

// NewRegistry returns a registry pre-seeded with the builtin types and
// their array forms, matching loader stage 1's bootstrap (spec §4.8).
func NewRegistry() *Registry {
	r := &Registry{
		arrays: make(map[*Type]*Type),
		named:  make(map[string]*Type),
	}
	for _, t := range []*Type{builtinVoid, builtinVoidPtr, builtinInt, builtinFloat, builtinBool, builtinVec3, builtinCharPtr} {
		r.named[t.Name] = t
		r.ArrayOf(t)
	}
	return r
}

// ArrayOf returns the canonical array-of-elem type.
func (r *Registry) ArrayOf(elem *Type) *Type {
	if t, ok := r.arrays[elem]; ok {
		return t
	}
	t := &Type{Kind: Array, Elem: elem}
	r.arrays[elem] = t
	return t
}

// Lookup resolves a type name to its canonical *Type.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.named[name]
	return t, ok
}

// DefineStruct registers a new struct type under name, returning the
// (mutable, not-yet-laid-out) StructDef so the caller can fill in members.
func (r *Registry) DefineStruct(name string) *Type {
	def := &StructDef{Name: name}
	t := &Type{Kind: Struct, Name: name, StructDef: def}
	r.named[name] = t
	r.ArrayOf(t)
	return t
}

// DefineEnum registers a new enum type under name with the given values.
func (r *Registry) DefineEnum(name string, values []string) *Type {
	def := &EnumDef{Name: name, Values: values}
	t := &Type{Kind: Enum, Name: name, EnumDef: def}
	r.named[name] = t
	r.ArrayOf(t)
	return t
}

// All returns every named type currently registered, for export to
// importing programs (loader stage 3).
func (r *Registry) All() map[string]*Type {
	return r.named
}

// Alias registers an already-canonical type (one owned by another
// program's Registry) under name in r, without constructing a new
// StructDef/EnumDef. This is how loader stage 3 satisfies spec §3's
// invariant that "a type name resolves to exactly one type value within
// a program (the same identity is shared across imports once linked)":
// an importing file's struct/enum Type is the very same *Type pointer
// the exporting file defined, not a re-declared lookalike.
func (r *Registry) Alias(name string, t *Type) {
	r.named[name] = t
	r.ArrayOf(t)
}
