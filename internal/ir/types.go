package ir

import "fmt"

// ---------------------------------------------------------------------
// Abstract types: shape only, no array
// size. Unification happens over exactly this term algebra in
// internal/typing.
// ---------------------------------------------------------------------

// AbstractTypeKind tags which variant of AbstractType is populated.
type AbstractTypeKind int

const (
	AbstractNamed AbstractTypeKind = iota
	AbstractTemplateVar
	AbstractArray
	AbstractUnknown
)

// AbstractType is Named(TypeID) | Template(TemplateID) | Array(AbstractType)
// | Unknown(TypeVarID).
type AbstractType struct {
	Kind     AbstractTypeKind
	Named    TypeID
	Template TemplateID
	Elem     *AbstractType // non-nil iff Kind == AbstractArray.
	Var      TypeVarID     // meaningful iff Kind == AbstractUnknown.
}

func AbstractNamedType(t TypeID) AbstractType   { return AbstractType{Kind: AbstractNamed, Named: t} }
func TemplateVarType(t TemplateID) AbstractType { return AbstractType{Kind: AbstractTemplateVar, Template: t} }
func ArrayOf(elem AbstractType) AbstractType {
	e := elem
	return AbstractType{Kind: AbstractArray, Elem: &e}
}
func UnknownType(v TypeVarID) AbstractType { return AbstractType{Kind: AbstractUnknown, Var: v} }

func (t AbstractType) String() string {
	switch t.Kind {
	case AbstractNamed:
		return fmt.Sprintf("type%s", t.Named)
	case AbstractTemplateVar:
		return fmt.Sprintf("template%s", t.Template)
	case AbstractArray:
		return t.Elem.String() + "[]"
	default:
		return fmt.Sprintf("?%s", t.Var)
	}
}

// ---------------------------------------------------------------------
// Domain types.
// ---------------------------------------------------------------------

type DomainTypeKind int

const (
	DomainGenerative DomainTypeKind = iota
	DomainPhysical
	DomainVariable
)

// DomainType is Generative | Physical(DomainID) | DomainVariable(DomainVarID).
type DomainType struct {
	Kind     DomainTypeKind
	Physical DomainID
	Var      DomainVarID
}

func Generative() DomainType                 { return DomainType{Kind: DomainGenerative} }
func PhysicalDomain(d DomainID) DomainType    { return DomainType{Kind: DomainPhysical, Physical: d} }
func DomainVar(v DomainVarID) DomainType      { return DomainType{Kind: DomainVariable, Var: v} }

func (d DomainType) String() string {
	switch d.Kind {
	case DomainGenerative:
		return "gen"
	case DomainPhysical:
		return fmt.Sprintf("domain%s", d.Physical)
	default:
		return fmt.Sprintf("?domain%s", d.Var)
	}
}

// FullType pairs an abstract shape with a clock domain, the type every
// Declaration and Expression instruction carries post name-resolution.
type FullType struct {
	Abstract AbstractType
	Domain   DomainType
}

// ---------------------------------------------------------------------
// Compile-time values, the currency of generative execution.
// ---------------------------------------------------------------------

type ValueKind int

const (
	ValueUnset ValueKind = iota // declared generative, not yet assigned.
	ValueInt
	ValueBool
	ValueArray
)

// Value is the runtime representation of a generative (compile-time known)
// quantity: an unset cell, an int, a bool, or an array of Values.
type Value struct {
	Kind  ValueKind
	Int   int64
	Bool  bool
	Array []Value
}

func IntValue(v int64) Value  { return Value{Kind: ValueInt, Int: v} }
func BoolValue(v bool) Value  { return Value{Kind: ValueBool, Bool: v} }
func UnsetValue() Value       { return Value{Kind: ValueUnset} }

func (v Value) String() string {
	switch v.Kind {
	case ValueInt:
		return fmt.Sprintf("%d", v.Int)
	case ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValueArray:
		return fmt.Sprintf("%v", v.Array)
	default:
		return "<unset>"
	}
}

// GlobalKind distinguishes the three kinds of global a name can resolve
// to, so wrong-kind uses (a constant where a type belongs) can name what
// was actually found.
type GlobalKind int

const (
	GlobalModule GlobalKind = iota
	GlobalType
	GlobalConstant
)

func (k GlobalKind) String() string {
	switch k {
	case GlobalModule:
		return "module"
	case GlobalType:
		return "type"
	default:
		return "constant"
	}
}
