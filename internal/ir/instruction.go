package ir

import "github.com/VonTum/sus-compiler/internal/source"

// ---------------------------------------------------------------------
// Flat IR. Instruction is a closed sum type; we use
// a Kind tag plus one struct per variant rather than an interface, because
// Range fields on IfStatement/ForStatement must be fillable in place after
// the handle is Reserved, which requires Instruction to be
// a plain value arena elements can Fill() into.
// ---------------------------------------------------------------------

type InstructionKind int

const (
	InstrDeclaration InstructionKind = iota
	InstrExpression
	InstrWrite
	InstrSubModuleInstance
	InstrFuncCall
	InstrIf
	InstrFor
)

// IdentifierType classifies a Declaration: plain local, state register,
// or compile-time (generative) value.
type IdentifierType int

const (
	IdentifierLocal IdentifierType = iota
	IdentifierState
	IdentifierGenerative
)

// Declaration instruction: a local/port/template-in/struct-field variable.
type Declaration struct {
	WrittenType WrittenTypeExpr
	Type        FullType
	Name        string
	Span        source.Span
	ReadOnly    bool
	// NotWrittenTo marks declarations that are never themselves targets of
	// a Write (e.g. input ports read but never assigned from inside).
	NotWrittenTo bool
	IdentType    IdentifierType
	LatencySpec  FlatID // Placeholder if absent; must reference a generative Expression.
}

// WrittenTypeExpr is the as-written type syntax, kept alongside the
// resolved FullType so "unifying any inferred type against a written type
// is expected to succeed; a mismatch is a bug" has
// something concrete to compare against.
type WrittenTypeExpr struct {
	Span    source.Span
	Base    TypeID
	IsArray bool
	Elem    *WrittenTypeExpr
	Size    FlatID // generative Expression, Placeholder if not an array.
}

// ExpressionSourceKind tags ExpressionSource's variant.
type ExpressionSourceKind int

const (
	ExprWireRef ExpressionSourceKind = iota
	ExprUnaryOp
	ExprBinaryOp
	ExprConstant
)

// ArrayAccess is one step of a WireReference's path.
type ArrayAccess struct {
	Idx FlatID
}

// WireReferenceRootKind tags WireReference.Root's variant.
type WireReferenceRootKind int

const (
	RootLocalDecl WireReferenceRootKind = iota
	RootNamedConstant
	RootSubModulePort
)

// WireReference is root + optional index path.
type WireReference struct {
	RootKind WireReferenceRootKind

	LocalDecl     FlatID     // meaningful iff RootKind == RootLocalDecl.
	NamedConstant ConstantID // meaningful iff RootKind == RootNamedConstant.

	// Meaningful iff RootKind == RootSubModulePort.
	SubModuleFlat     FlatID
	Port              PortID
	PortNameSpan      *source.Span
	SubModuleNameSpan *source.Span

	Path []ArrayAccess
}

// ExpressionSource is the right-hand shape of an Expression instruction.
type ExpressionSource struct {
	Kind ExpressionSourceKind

	WireRef WireReference // Kind == ExprWireRef

	UnaryOp    string // Kind == ExprUnaryOp / ExprBinaryOp
	Left       FlatID
	Right      FlatID

	ConstantValue Value // Kind == ExprConstant
}

// Expression instruction.
type Expression struct {
	Type   FullType
	Span   source.Span
	Source ExpressionSource
}

// WriteModifierKind distinguishes pipelined connections from initial-value
// seeds.
type WriteModifierKind int

const (
	WriteConnection WriteModifierKind = iota
	WriteInitial
)

// WriteModifier carries the register count for Connection writes.
type WriteModifier struct {
	Kind    WriteModifierKind
	NumRegs int
}

// Write instruction: an assignment.
type Write struct {
	From     FlatID
	To       WireReference
	ToType   FullType
	Modifier WriteModifier
	Span     source.Span
}

// SubModuleInstance instruction.
type SubModuleInstance struct {
	Module ModuleID
	Name   string // instance name, possibly synthesized for call-syntax sugar.
	Span   source.Span
	// DomainMap maps the callee's DomainID to the caller's DomainType for
	// each of the callee's domains, in callee domain-handle order. The
	// typing pass fills it with one fresh domain variable per callee
	// domain; call arguments and port reads unify against these, and any
	// variable left unbound is promoted to a fresh physical domain of the
	// caller.
	DomainMap []DomainType
}

// FuncCallInstruction binds argument FlatIDs to an interface's input ports;
// outputs are read back via subsequent WireRef SubModulePort references.
type FuncCallInstruction struct {
	SubModuleFlat FlatID // the SubModuleInstance this call targets.
	Interface     InterfaceID
	Arguments     []FlatID
	Span          source.Span
}

// IfStatement instruction. ThenRange/ElseRange are filled in after the
// branches are recursively flattened.
type IfStatement struct {
	Condition    FlatID
	IsGenerative bool
	ThenRange    FlatRange
	ElseRange    FlatRange // zero-length Range if no else branch.
	Span         source.Span
}

// ForStatement instruction: always generative.
type ForStatement struct {
	LoopVarDecl FlatID
	Start       FlatID
	End         FlatID
	BodyRange   FlatRange
	Span        source.Span
}

// Instruction is one flattened IR node. Exactly one of the payload fields
// is meaningful, selected by Kind.
type Instruction struct {
	Kind InstructionKind

	Declaration       Declaration
	Expression        Expression
	Write             Write
	SubModuleInstance SubModuleInstance
	FuncCall          FuncCallInstruction
	If                IfStatement
	For               ForStatement
}

func (i *Instruction) Span() source.Span {
	switch i.Kind {
	case InstrDeclaration:
		return i.Declaration.Span
	case InstrExpression:
		return i.Expression.Span
	case InstrWrite:
		return i.Write.Span
	case InstrSubModuleInstance:
		return i.SubModuleInstance.Span
	case InstrFuncCall:
		return i.FuncCall.Span
	case InstrIf:
		return i.If.Span
	case InstrFor:
		return i.For.Span
	}
	return source.Span{}
}
