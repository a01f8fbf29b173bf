// This file is the concrete shape cmd/hdlc reads from disk at the parser
// boundary: a JSON document already shaped like a File, standing in for
// whatever a real lexer/parser would hand the flattener. internal/instcache's Encode/Decode
// (internal/instcache/codec.go) already round-trips this repo's
// handle-bearing structs through encoding/json; Statement and Expr are
// the two places that pattern doesn't apply directly, since both are
// interfaces, so each gets a Kind-tagged wire struct here instead of a
// handle.
package ast

import (
	"encoding/json"
	"fmt"

	"github.com/VonTum/sus-compiler/internal/source"
)

// ParseJSON decodes a JSON-encoded File, the shape an external
// lexer/parser boundary is expected to produce.
func ParseJSON(data []byte) (*File, error) {
	var wf wireFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("ast: decode: %w", err)
	}
	f := &File{Modules: make([]ModuleDecl, len(wf.Modules))}
	for i, wm := range wf.Modules {
		f.Modules[i] = wm.toModuleDecl()
	}
	return f, nil
}

// ---------------------------------------------------------------------
// Wire shapes. One struct per syntactic category, Kind-tagged where the
// corresponding Go type is an interface (Statement, Expr).
// ---------------------------------------------------------------------

type wireFile struct {
	Modules []wireModule `json:"modules"`
}

type wireModule struct {
	Name           string               `json:"name"`
	Span           sourceSpan           `json:"span"`
	TemplateParams []wireTemplateParam  `json:"template_params,omitempty"`
	Domains        []DomainDecl         `json:"domains,omitempty"`
	Interfaces     []wireInterface      `json:"interfaces"`
	Body           []wireStmt           `json:"body,omitempty"`
}

func (wm wireModule) toModuleDecl() ModuleDecl {
	m := ModuleDecl{
		Name: wm.Name, Span: wm.Span.toSpan(), Domains: wm.Domains,
	}
	for _, tp := range wm.TemplateParams {
		m.TemplateParams = append(m.TemplateParams, tp.toTemplateParamDecl())
	}
	for _, ifc := range wm.Interfaces {
		m.Interfaces = append(m.Interfaces, ifc.toInterfaceDecl())
	}
	for _, s := range wm.Body {
		m.Body = append(m.Body, s.toStatement())
	}
	return m
}

type wireTemplateParam struct {
	Name string     `json:"name"`
	Span sourceSpan `json:"span"`
	Type wireType   `json:"type"`
}

func (wp wireTemplateParam) toTemplateParamDecl() TemplateParamDecl {
	return TemplateParamDecl{Name: wp.Name, Span: wp.Span.toSpan(), Type: wp.Type.toWrittenType()}
}

type wireInterface struct {
	Name    string     `json:"name"`
	Span    sourceSpan `json:"span"`
	IsMain  bool       `json:"is_main,omitempty"`
	Domain  string     `json:"domain,omitempty"`
	Inputs  []wirePort `json:"inputs,omitempty"`
	Outputs []wirePort `json:"outputs,omitempty"`
}

func (wi wireInterface) toInterfaceDecl() InterfaceDecl {
	d := InterfaceDecl{Name: wi.Name, Span: wi.Span.toSpan(), IsMain: wi.IsMain, Domain: wi.Domain}
	for _, p := range wi.Inputs {
		d.Inputs = append(d.Inputs, p.toPortDecl())
	}
	for _, p := range wi.Outputs {
		d.Outputs = append(d.Outputs, p.toPortDecl())
	}
	return d
}

type wirePort struct {
	Name string     `json:"name"`
	Span sourceSpan `json:"span"`
	Type wireType   `json:"type"`
}

func (wp wirePort) toPortDecl() PortDecl {
	return PortDecl{Name: wp.Name, Span: wp.Span.toSpan(), Type: wp.Type.toWrittenType()}
}

// wireType mirrors WrittenType, with Size as a wireExpr instead of an Expr.
type wireType struct {
	Span    sourceSpan `json:"span"`
	Name    string     `json:"name,omitempty"`
	IsArray bool       `json:"is_array,omitempty"`
	Elem    *wireType  `json:"elem,omitempty"`
	Size    *wireExpr  `json:"size,omitempty"`
}

func (wt wireType) toWrittenType() WrittenType {
	t := WrittenType{Span: wt.Span.toSpan(), Name: wt.Name, IsArray: wt.IsArray, Size: wt.Size.toExpr()}
	if wt.Elem != nil {
		elem := wt.Elem.toWrittenType()
		t.Elem = &elem
	}
	return t
}

// sourceSpan mirrors source.Span field-for-field with its own json tags;
// source.Span's own fields already marshal fine, but spelling them out
// here keeps the
// wire format's field names stable independent of that package's.
type sourceSpan struct {
	File    int `json:"file"`
	Line    int `json:"line"`
	Col     int `json:"col"`
	EndLine int `json:"end_line"`
	EndCol  int `json:"end_col"`
}

func (s sourceSpan) toSpan() source.Span {
	return source.Span{File: source.FileID(s.File), Line: s.Line, Col: s.Col, EndLine: s.EndLine, EndCol: s.EndCol}
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

type wireStmt struct {
	Kind string     `json:"kind"` // "decl" | "expr" | "assign" | "if" | "for"
	Span sourceSpan `json:"span"`

	// decl
	Name        string    `json:"name,omitempty"`
	Type        *wireType `json:"type,omitempty"`
	IdentKind   string    `json:"ident_kind,omitempty"` // "local" | "state" | "gen"
	ReadOnly    bool      `json:"read_only,omitempty"`
	LatencySpec *wireExpr `json:"latency_spec,omitempty"`

	// expr
	Expr *wireExpr `json:"expr,omitempty"`

	// assign
	To    []wireAssignTarget `json:"to,omitempty"`
	Value *wireExpr          `json:"value,omitempty"`

	// if
	Cond *wireExpr  `json:"cond,omitempty"`
	Then []wireStmt `json:"then,omitempty"`
	Else []wireStmt `json:"else,omitempty"`

	// for
	VarName string     `json:"var_name,omitempty"`
	VarSpan sourceSpan `json:"var_span,omitempty"`
	Start   *wireExpr  `json:"start,omitempty"`
	End     *wireExpr  `json:"end,omitempty"`
	Body    []wireStmt `json:"body,omitempty"`
}

func (ws wireStmt) toStatement() Statement {
	switch ws.Kind {
	case "decl":
		t := WrittenType{}
		if ws.Type != nil {
			t = ws.Type.toWrittenType()
		}
		return &Declaration{
			Span: ws.Span.toSpan(), Name: ws.Name, Type: t,
			Kind: identifierKindFromString(ws.IdentKind), ReadOnly: ws.ReadOnly,
			LatencySpec: ws.LatencySpec.toExpr(),
		}
	case "expr":
		return &ExprStmt{Span: ws.Span.toSpan(), Expr: ws.Expr.toExpr()}
	case "assign":
		targets := make([]AssignTarget, len(ws.To))
		for i, t := range ws.To {
			targets[i] = t.toAssignTarget()
		}
		return &Assign{Span: ws.Span.toSpan(), To: targets, Value: ws.Value.toExpr()}
	case "if":
		stmt := &IfStmt{Span: ws.Span.toSpan(), Cond: ws.Cond.toExpr()}
		for _, s := range ws.Then {
			stmt.Then = append(stmt.Then, s.toStatement())
		}
		for _, s := range ws.Else {
			stmt.Else = append(stmt.Else, s.toStatement())
		}
		return stmt
	case "for":
		stmt := &ForStmt{
			Span: ws.Span.toSpan(), VarName: ws.VarName, VarSpan: ws.VarSpan.toSpan(),
			Start: ws.Start.toExpr(), End: ws.End.toExpr(),
		}
		for _, s := range ws.Body {
			stmt.Body = append(stmt.Body, s.toStatement())
		}
		return stmt
	default:
		return &ExprStmt{Span: ws.Span.toSpan()}
	}
}

func identifierKindFromString(s string) IdentifierKind {
	switch s {
	case "state":
		return IdentState
	case "gen":
		return IdentGenerative
	case "input":
		return IdentInputPort
	case "output":
		return IdentOutputPort
	default:
		return IdentLocal
	}
}

type wireAssignTarget struct {
	Span     sourceSpan     `json:"span"`
	Name     string         `json:"name"`
	Path     []*wireExpr    `json:"path,omitempty"`
	Modifier wireModifier   `json:"modifier"`
}

func (wt wireAssignTarget) toAssignTarget() AssignTarget {
	t := AssignTarget{Span: wt.Span.toSpan(), Name: wt.Name, Modifier: wt.Modifier.toWriteModifier()}
	for _, p := range wt.Path {
		t.Path = append(t.Path, p.toExpr())
	}
	return t
}

type wireModifier struct {
	Kind    string `json:"kind"` // "connection" | "initial"
	NumRegs int    `json:"num_regs,omitempty"`
}

func (wm wireModifier) toWriteModifier() WriteModifier {
	if wm.Kind == "initial" {
		return WriteModifier{Kind: ModInitial}
	}
	return WriteModifier{Kind: ModConnection, NumRegs: wm.NumRegs}
}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

type wireExpr struct {
	Kind  string     `json:"kind"` // "ident" | "int" | "bool" | "unary" | "binary" | "index" | "call"
	Span  sourceSpan `json:"span"`
	Name  string     `json:"name,omitempty"`
	Int   int64      `json:"int,omitempty"`
	Bool  bool       `json:"bool,omitempty"`
	Op    string     `json:"op,omitempty"`
	Left  *wireExpr  `json:"left,omitempty"`
	Right *wireExpr  `json:"right,omitempty"`
	Base  *wireExpr  `json:"base,omitempty"`
	Index *wireExpr  `json:"index,omitempty"`

	Callee string      `json:"callee,omitempty"`
	Args   []*wireExpr `json:"args,omitempty"`
}

// toExpr is nil-safe so omitted optional Expr fields (WrittenType.Size,
// Declaration.LatencySpec, ...) decode to a nil Expr exactly like their
// hand-built AST counterparts.
func (we *wireExpr) toExpr() Expr {
	if we == nil {
		return nil
	}
	switch we.Kind {
	case "ident":
		return &Ident{Span: we.Span.toSpan(), Name: we.Name}
	case "int":
		return &IntLit{Span: we.Span.toSpan(), Value: we.Int}
	case "bool":
		return &BoolLit{Span: we.Span.toSpan(), Value: we.Bool}
	case "unary":
		return &UnaryExpr{Span: we.Span.toSpan(), Op: we.Op, Right: we.Right.toExpr()}
	case "binary":
		return &BinaryExpr{Span: we.Span.toSpan(), Op: we.Op, Left: we.Left.toExpr(), Right: we.Right.toExpr()}
	case "index":
		return &IndexExpr{Span: we.Span.toSpan(), Base: we.Base.toExpr(), Index: we.Index.toExpr()}
	case "call":
		args := make([]Expr, len(we.Args))
		for i, a := range we.Args {
			args[i] = a.toExpr()
		}
		return &CallExpr{Span: we.Span.toSpan(), Callee: we.Callee, Args: args}
	default:
		return nil
	}
}
