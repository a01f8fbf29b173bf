package ir

import "github.com/VonTum/sus-compiler/internal/source"

// LinkInfo is embedded in every global entity (Module, NamedType,
// NamedConstant) so the linker can report diagnostics and retract
// declarations when their owning file is removed.
type LinkInfo struct {
	File FileOwner
	Name string
	Span source.Span
	// Checkpoint has room for a namespace generation counter (see
	// linker.Linker.Checkpoint). No stage in this repository writes or
	// compares it, so it stays zero and nothing re-runs stages based on it.
	Checkpoint uint64
}

// FileOwner is the file a global belongs to, reusing source.FileID.
type FileOwner = source.FileID

// NamedTypeKind distinguishes the builtin opaque types from the struct
// kind, which is reserved but not yet wired into typing.
type NamedTypeKind int

const (
	TypeBool NamedTypeKind = iota
	TypeInt
	TypeStruct
)

// NamedType is a global named type: the "bool", "int" builtins, or a user
// struct (reserved, not yet wired into typing).
type NamedType struct {
	Link LinkInfo
	Kind NamedTypeKind
	// Fields is populated only for TypeStruct; left empty today.
	Fields []FieldID
}

// NamedConstant is a typed compile-time value: the "true"/"false"
// builtins, or a user-declared named constant.
type NamedConstant struct {
	Link  LinkInfo
	Type  AbstractType
	Value Value
}
