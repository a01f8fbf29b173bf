// Package ast fixes the shape of the parsed-AST boundary: spans, a tree
// of syntactic nodes, and an ordered list of Statements per module.
// Concrete lexing and parsing live outside this compiler core — this
// package only types what that boundary hands the flattener, one struct
// per syntactic shape rather than a single interface{}-tagged node, since
// the flattener switches exhaustively over statement/expr kinds and a
// sum-of-structs is checked by the compiler where type assertions are
// not.
package ast

import "github.com/VonTum/sus-compiler/internal/source"

// File is one parsed source file: a sequence of top-level module
// declarations.
type File struct {
	Modules []ModuleDecl
}

// TemplateParamDecl declares one compile-time (generative) parameter,
// always an integer or bool for now.
type TemplateParamDecl struct {
	Name string
	Span source.Span
	Type WrittenType // "int" or "bool"
}

// DomainDecl declares one clock domain of the enclosing module.
type DomainDecl struct {
	Name string
	Span source.Span
}

// InterfaceDecl names a contiguous grouping of ports callable by
// function-call syntax.
type InterfaceDecl struct {
	Name     string
	Span     source.Span
	IsMain   bool
	Domain   string // references a DomainDecl.Name, or "" for generative-only interfaces.
	Inputs   []PortDecl
	Outputs  []PortDecl
}

// PortDecl declares one port of an interface.
type PortDecl struct {
	Name string
	Span source.Span
	Type WrittenType
}

// ModuleDecl is one module's full declaration.
type ModuleDecl struct {
	Name            string
	Span            source.Span
	TemplateParams  []TemplateParamDecl
	Domains         []DomainDecl
	Interfaces      []InterfaceDecl
	Body            []Statement
}

// WrittenType is the syntactic type expression attached to a declaration.
// Resolution to an AbstractType happens in internal/typing.
type WrittenType struct {
	Span    source.Span
	Name    string        // "int", "bool", a named type, or a module name (sub-module sugar).
	IsArray bool
	Elem    *WrittenType  // non-nil when IsArray.
	Size    Expr          // non-nil when IsArray; must be generative.
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

// Statement is one of Declaration, ExprStmt, Assign, IfStmt, ForStmt.
type Statement interface{ stmtNode() }

// IdentifierKind classifies what a Declaration introduces.
type IdentifierKind int

const (
	IdentLocal IdentifierKind = iota
	IdentState
	IdentGenerative
	IdentInputPort
	IdentOutputPort
)

// Declaration declares a local/port/template-in/struct-field variable.
type Declaration struct {
	Span        source.Span
	Name        string
	Type        WrittenType
	Kind        IdentifierKind
	ReadOnly    bool
	LatencySpec Expr // non-nil if a 'N latency specifier was written; must be generative.
}

func (*Declaration) stmtNode() {}

// ExprStmt is a bare expression evaluated for effect (rare in an HDL, kept
// for completeness of the AST boundary).
type ExprStmt struct {
	Span source.Span
	Expr Expr
}

func (*ExprStmt) stmtNode() {}

// WriteModifierKind distinguishes the two write modifiers.
type WriteModifierKind int

const (
	ModConnection WriteModifierKind = iota
	ModInitial
)

// WriteModifier is the modifier attached to one Write target in an Assign.
type WriteModifier struct {
	Kind    WriteModifierKind
	NumRegs int // meaningful when Kind == ModConnection; reg*N annotation.
}

// AssignTarget is one left-hand side of an Assign: a name plus optional
// array-index path and write modifier.
type AssignTarget struct {
	Span     source.Span
	Name     string
	Path     []Expr // array index expressions.
	Modifier WriteModifier
}

// Assign is `to... = expr`, with n left-hand sides: when the RHS is a
// call with n outputs, wires are bound positionally; otherwise n must
// equal 1.
type Assign struct {
	Span  source.Span
	To    []AssignTarget
	Value Expr
}

func (*Assign) stmtNode() {}

// IfStmt is `if cond { then } else { else }`. IsGenerative is decided by
// internal/typing's generative-checking pass, not by the parser.
type IfStmt struct {
	Span source.Span
	Cond Expr
	Then []Statement
	Else []Statement // nil if no else branch.
}

func (*IfStmt) stmtNode() {}

// ForStmt is `for x in start..end { body }`; always generative.
type ForStmt struct {
	Span     source.Span
	VarName  string
	VarSpan  source.Span
	Start    Expr
	End      Expr
	Body     []Statement
}

func (*ForStmt) stmtNode() {}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

// Expr is one of Ident, IntLit, BoolLit, UnaryExpr, BinaryExpr, IndexExpr,
// CallExpr.
type Expr interface{ exprNode() }

// Ident references a local/port/constant by name.
type Ident struct {
	Span source.Span
	Name string
}

func (*Ident) exprNode() {}

// IntLit is an integer literal.
type IntLit struct {
	Span  source.Span
	Value int64
}

func (*IntLit) exprNode() {}

// BoolLit is `true`/`false`.
type BoolLit struct {
	Span  source.Span
	Value bool
}

func (*BoolLit) exprNode() {}

// UnaryExpr is `op right`.
type UnaryExpr struct {
	Span  source.Span
	Op    string
	Right Expr
}

func (*UnaryExpr) exprNode() {}

// BinaryExpr is `left op right`.
type BinaryExpr struct {
	Span  source.Span
	Op    string
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// IndexExpr is `base[index]`.
type IndexExpr struct {
	Span  source.Span
	Base  Expr
	Index Expr
}

func (*IndexExpr) exprNode() {}

// CallExpr is function-call syntax `f(a, b, ...)`, which desugars during
// flattening to a SubModuleInstance plus per-argument Writes.
type CallExpr struct {
	Span   source.Span
	Callee string
	Args   []Expr
}

func (*CallExpr) exprNode() {}
