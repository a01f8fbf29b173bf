package flatten

import (
	"fmt"

	"github.com/VonTum/sus-compiler/internal/ast"
	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/linker"
	"github.com/VonTum/sus-compiler/internal/source"
)

// Flattener walks one module's AST body into module.Instructions.
// Constructed fresh per module.
type Flattener struct {
	mod    *ir.Module
	names  *NameContext
	link   *linker.Linker
	diags  *diag.Collector
	// implicitSubmodules caches one SubModuleInstance FlatID per callee
	// name for bare call-syntax sugar, so repeated calls to the same
	// global module reuse one instance rather than allocating N.
	implicitSubmodules map[string]ir.FlatID
}

// NewFlattener returns a Flattener ready to flatten mod's ports and body.
// internal/moduleinit constructs one of these during per-module
// initialization and calls FlattenDeclaration for each port before
// FlattenBody, so that port names are already bound in the name context
// by the time the body is walked.
func NewFlattener(mod *ir.Module, link *linker.Linker, diags *diag.Collector) *Flattener {
	return &Flattener{
		mod:                mod,
		names:              NewNameContext(),
		link:               link,
		diags:              diags,
		implicitSubmodules: make(map[string]ir.FlatID),
	}
}

// FlattenDeclaration exposes flattenDeclaration to internal/moduleinit, so
// a port can be emitted as the same kind of
// Declaration instruction a local gets, through the same written-type
// resolution and name-binding path.
func (f *Flattener) FlattenDeclaration(n *ast.Declaration) ir.FlatID {
	return f.flattenDeclaration(n)
}

// FlattenBody flattens a statement list into the module's instruction
// arena and returns the FlatRange it occupies; body ranges point at
// strictly later instructions and never cross other control structures.
func (f *Flattener) FlattenBody(body []ast.Statement) ir.FlatRange {
	start := f.mod.Instructions.NextHandle()
	for _, s := range body {
		f.flattenStmt(s)
	}
	return f.mod.Instructions.RangeFrom(start)
}

func (f *Flattener) flattenStmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.Declaration:
		f.flattenDeclaration(n)
	case *ast.ExprStmt:
		f.flattenExpr(n.Expr)
	case *ast.Assign:
		f.flattenAssign(n)
	case *ast.IfStmt:
		f.flattenIf(n)
	case *ast.ForStmt:
		f.flattenFor(n)
	default:
		f.diags.Append(diag.Diagnostic{
			Level:   diag.Error,
			Kind:    diag.KindParse,
			Message: fmt.Sprintf("internal: unhandled statement type %T", s),
		})
	}
}

// flattenDeclaration emits a Declaration instruction and binds its name in
// the current scope. A declaration whose (non-array) written type
// resolves to a module name is handed to flattenSubmoduleSugar instead
// and yields a SubModuleInstance.
func (f *Flattener) flattenDeclaration(n *ast.Declaration) ir.FlatID {
	if elem, ok, _ := f.link.Lookup(n.Type.Name); ok && elem.Kind == ir.GlobalModule && !n.Type.IsArray {
		return f.flattenSubmoduleSugar(n, elem)
	}

	writtenType := f.resolveWrittenType(n.Type)
	id := f.mod.Instructions.Reserve()

	identType := ir.IdentifierLocal
	switch n.Kind {
	case ast.IdentState:
		identType = ir.IdentifierState
	case ast.IdentGenerative:
		identType = ir.IdentifierGenerative
	}

	latencySpec := ir.NoFlatID()
	if n.LatencySpec != nil {
		latencySpec = f.flattenExpr(n.LatencySpec)
	}

	f.mod.Instructions.Fill(id, ir.Instruction{
		Kind: ir.InstrDeclaration,
		Declaration: ir.Declaration{
			WrittenType: writtenType,
			Name:        n.Name,
			Span:        n.Span,
			ReadOnly:    n.ReadOnly,
			IdentType:   identType,
			LatencySpec: latencySpec,
		},
	})

	DeclareChecked(f.names, f.diags, n.Name, id, n.Span, f.earlierSpan(n.Name, n.Span))
	return id
}

// earlierSpan returns the span of the instruction name is already bound to
// in the current frame, or fallback if it is not bound there.
func (f *Flattener) earlierSpan(name string, fallback source.Span) source.Span {
	if prev, ok := f.names.top.names[name]; ok {
		return f.mod.Instructions.Get(prev).Span()
	}
	return fallback
}

// flattenSubmoduleSugar implements "a declaration whose written type
// resolves to a module name instead yields a SubModuleInstance."
func (f *Flattener) flattenSubmoduleSugar(n *ast.Declaration, elem linker.NameElem) ir.FlatID {
	id := f.mod.Instructions.Alloc(ir.Instruction{
		Kind: ir.InstrSubModuleInstance,
		SubModuleInstance: ir.SubModuleInstance{
			Module: elem.Module,
			Name:   n.Name,
			Span:   n.Span,
		},
	})
	DeclareChecked(f.names, f.diags, n.Name, id, n.Span, f.earlierSpan(n.Name, n.Span))
	return id
}

func (f *Flattener) resolveWrittenType(t ast.WrittenType) ir.WrittenTypeExpr {
	if t.IsArray {
		elem := f.resolveWrittenType(*t.Elem)
		sizeID := ir.NoFlatID()
		if t.Size != nil {
			sizeID = f.flattenExpr(t.Size)
		}
		return ir.WrittenTypeExpr{Span: t.Span, IsArray: true, Elem: &elem, Size: sizeID}
	}
	elem, ok, collision := f.link.Lookup(t.Name)
	if collision {
		f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindUnresolvedGlobal, Span: t.Span,
			Message: fmt.Sprintf("%q is ambiguous", t.Name)})
		return ir.WrittenTypeExpr{Span: t.Span}
	}
	if !ok {
		f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindUnresolvedGlobal, Span: t.Span,
			Message: fmt.Sprintf("%q is not a known type", t.Name)})
		return ir.WrittenTypeExpr{Span: t.Span}
	}
	if elem.Kind != ir.GlobalType {
		f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindKindMismatch, Span: t.Span,
			Message: fmt.Sprintf("expected a type here, but %q is a %s", t.Name, elem.Kind)})
		return ir.WrittenTypeExpr{Span: t.Span}
	}
	return ir.WrittenTypeExpr{Span: t.Span, Base: elem.Type}
}

// flattenExpr always emits an Expression instruction; operators and
// constants never short-circuit.
func (f *Flattener) flattenExpr(e ast.Expr) ir.FlatID {
	switch n := e.(type) {
	case *ast.Ident:
		return f.flattenIdent(n)
	case *ast.IntLit:
		return f.mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
			Span: n.Span,
			Source: ir.ExpressionSource{Kind: ir.ExprConstant, ConstantValue: ir.IntValue(n.Value)},
		}})
	case *ast.BoolLit:
		return f.mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
			Span: n.Span,
			Source: ir.ExpressionSource{Kind: ir.ExprConstant, ConstantValue: ir.BoolValue(n.Value)},
		}})
	case *ast.UnaryExpr:
		right := f.flattenExpr(n.Right)
		return f.mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
			Span:   n.Span,
			Source: ir.ExpressionSource{Kind: ir.ExprUnaryOp, UnaryOp: n.Op, Right: right},
		}})
	case *ast.BinaryExpr:
		left := f.flattenExpr(n.Left)
		right := f.flattenExpr(n.Right)
		return f.mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
			Span:   n.Span,
			Source: ir.ExpressionSource{Kind: ir.ExprBinaryOp, UnaryOp: n.Op, Left: left, Right: right},
		}})
	case *ast.IndexExpr:
		return f.flattenIndex(n)
	case *ast.CallExpr:
		return f.flattenCallAsExpr(n)
	default:
		f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindParse,
			Message: fmt.Sprintf("internal: unhandled expression type %T", e)})
		return f.mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression})
	}
}

func (f *Flattener) flattenIdent(n *ast.Ident) ir.FlatID {
	if id, ok := f.names.Resolve(n.Name); ok {
		return f.mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
			Span: n.Span,
			Source: ir.ExpressionSource{Kind: ir.ExprWireRef, WireRef: ir.WireReference{
				RootKind: ir.RootLocalDecl, LocalDecl: id,
			}},
		}})
	}
	if elem, ok, _ := f.link.Lookup(n.Name); ok && elem.Kind == ir.GlobalConstant {
		return f.mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
			Span: n.Span,
			Source: ir.ExpressionSource{Kind: ir.ExprWireRef, WireRef: ir.WireReference{
				RootKind: ir.RootNamedConstant, NamedConstant: elem.Constant,
			}},
		}})
	}
	f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindUnresolvedGlobal, Span: n.Span,
		Message: fmt.Sprintf("reference to identifier %q not found", n.Name)})
	return f.mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{Span: n.Span}})
}

func (f *Flattener) flattenIndex(n *ast.IndexExpr) ir.FlatID {
	idxID := f.flattenExpr(n.Index)
	baseID := f.flattenExpr(n.Base)
	baseInstr := f.mod.Instructions.Get(baseID)
	if baseInstr.Kind == ir.InstrExpression && baseInstr.Expression.Source.Kind == ir.ExprWireRef {
		ref := baseInstr.Expression.Source.WireRef
		ref.Path = append(append([]ir.ArrayAccess{}, ref.Path...), ir.ArrayAccess{Idx: idxID})
		return f.mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
			Span:   n.Span,
			Source: ir.ExpressionSource{Kind: ir.ExprWireRef, WireRef: ref},
		}})
	}
	f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindArrayIndexOnNonArray, Span: n.Span,
		Message: "array index applied to a non wire-reference expression"})
	return baseID
}

// flattenCallAsExpr handles a call used in expression position: it must
// have exactly one output to be used as a value.
func (f *Flattener) flattenCallAsExpr(n *ast.CallExpr) ir.FlatID {
	outs := f.flattenCall(n, 1)
	if len(outs) != 1 {
		f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindArityMismatch, Span: n.Span,
			Message: fmt.Sprintf("call to %q used as a value must produce exactly one output, has %d", n.Callee, len(outs))})
		if len(outs) == 0 {
			return f.mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{Span: n.Span}})
		}
	}
	return outs[0]
}

// flattenCall desugars function-call syntax: ensure a SubModuleInstance
// for the callee, emit Writes from arguments to input ports, then return
// one FlatID per requested output, each a fresh Expression wrapping a
// SubModulePort WireRef whose Port records that output's positional
// index. numOutputs is the number of results the call
// site actually consumes (len(n.To) for a multi-target assignment, 1 for
// expression position); the callee's own output count isn't necessarily
// known yet when the callee is declared later in the same file, so the
// caller's own arity is the only count available here. A mismatch
// against what the callee actually provides is caught positionally by
// internal/instantiate's executor once the callee's interface is known.
func (f *Flattener) flattenCall(n *ast.CallExpr, numOutputs int) []ir.FlatID {
	elem, ok, collision := f.link.Lookup(n.Callee)
	if collision || !ok {
		f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindUnresolvedGlobal, Span: n.Span,
			Message: fmt.Sprintf("%q is not a known module", n.Callee)})
		return nil
	}
	if elem.Kind != ir.GlobalModule {
		f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindKindMismatch, Span: n.Span,
			Message: fmt.Sprintf("%q is a %s, only a module can be called", n.Callee, elem.Kind)})
		return nil
	}

	subID, exists := f.implicitSubmodules[n.Callee]
	if !exists {
		subID = f.mod.Instructions.Alloc(ir.Instruction{
			Kind: ir.InstrSubModuleInstance,
			SubModuleInstance: ir.SubModuleInstance{Module: elem.Module, Name: n.Callee, Span: n.Span},
		})
		f.implicitSubmodules[n.Callee] = subID
	}

	argIDs := make([]ir.FlatID, len(n.Args))
	for i, a := range n.Args {
		argIDs[i] = f.flattenExpr(a)
	}

	f.mod.Instructions.Alloc(ir.Instruction{
		Kind: ir.InstrFuncCall,
		FuncCall: ir.FuncCallInstruction{
			SubModuleFlat: subID,
			Arguments:     argIDs,
			Span:          n.Span,
		},
	})

	// Output wires are exposed lazily by the caller reading SubModulePort
	// WireRefs; here we synthesize one Expression per requested output
	// slot, each stamped with its positional output index, deferring
	// resolution against the callee's actual output ports to
	// instantiation (module interfaces are not yet known at flatten time
	// in the general case: a callee declared later in the same file
	// hasn't run moduleinit.InitModule yet).
	if numOutputs < 1 {
		numOutputs = 1
	}
	outs := make([]ir.FlatID, numOutputs)
	for i := 0; i < numOutputs; i++ {
		outs[i] = f.mod.Instructions.Alloc(ir.Instruction{
			Kind: ir.InstrExpression,
			Expression: ir.Expression{
				Span: n.Span,
				Source: ir.ExpressionSource{Kind: ir.ExprWireRef, WireRef: ir.WireReference{
					RootKind:      ir.RootSubModulePort,
					SubModuleFlat: subID,
					Port:          ir.PortIDFromIndex(i),
				}},
			},
		})
	}
	return outs
}

// flattenAssign implements `to... = expr`: when the RHS is
// a call with n outputs, outputs are wired positionally; otherwise n must
// equal 1.
func (f *Flattener) flattenAssign(n *ast.Assign) {
	if call, isCall := n.Value.(*ast.CallExpr); isCall && len(n.To) > 1 {
		outs := f.flattenCall(call, len(n.To))
		if len(outs) != len(n.To) {
			f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindArityMismatch, Span: n.Span,
				Message: fmt.Sprintf("call to %q produces %d outputs, assigned to %d targets", call.Callee, len(outs), len(n.To))})
		}
		for i, t := range n.To {
			if i >= len(outs) {
				break
			}
			f.emitWrite(t, outs[i])
		}
		return
	}
	if len(n.To) != 1 {
		f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindArityMismatch, Span: n.Span,
			Message: fmt.Sprintf("assignment has %d targets but right-hand side produces one value", len(n.To))})
	}
	from := f.flattenExpr(n.Value)
	for _, t := range n.To {
		f.emitWrite(t, from)
	}
}

func (f *Flattener) emitWrite(target ast.AssignTarget, from ir.FlatID) {
	declID, ok := f.names.Resolve(target.Name)
	if !ok {
		f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindUnresolvedGlobal, Span: target.Span,
			Message: fmt.Sprintf("assignment to undeclared identifier %q", target.Name)})
		return
	}
	decl := f.mod.Instructions.Get(declID)
	if decl.Kind == ir.InstrDeclaration && decl.Declaration.ReadOnly {
		f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindReadOnlyWrite, Span: target.Span,
			Message: fmt.Sprintf("cannot assign to read-only value %q", target.Name)})
		return
	}

	path := make([]ir.ArrayAccess, len(target.Path))
	for i, p := range target.Path {
		path[i] = ir.ArrayAccess{Idx: f.flattenExpr(p)}
	}

	mod := ir.WriteModifier{Kind: ir.WriteConnection, NumRegs: target.Modifier.NumRegs}
	if target.Modifier.Kind == ast.ModInitial {
		mod = ir.WriteModifier{Kind: ir.WriteInitial}
		if decl.Kind != ir.InstrDeclaration || decl.Declaration.IdentType != ir.IdentifierState {
			f.diags.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindInitialOnNonState, Span: target.Span,
				Message: fmt.Sprintf("'initial' assignment target %q is not a state variable", target.Name)})
		}
	}

	f.mod.Instructions.Alloc(ir.Instruction{
		Kind: ir.InstrWrite,
		Write: ir.Write{
			From: from,
			To: ir.WireReference{
				RootKind:  ir.RootLocalDecl,
				LocalDecl: declID,
				Path:      path,
			},
			Modifier: mod,
			Span:     target.Span,
		},
	})
}

// flattenIf emits an IfStatement instruction whose body/else ranges are
// filled after recursively flattening each branch.
func (f *Flattener) flattenIf(n *ast.IfStmt) {
	cond := f.flattenExpr(n.Cond)
	id := f.mod.Instructions.Reserve()

	f.names.Push()
	thenRange := f.FlattenBody(n.Then)
	f.names.Pop()

	var elseRange ir.FlatRange
	if n.Else != nil {
		f.names.Push()
		elseRange = f.FlattenBody(n.Else)
		f.names.Pop()
	}

	f.mod.Instructions.Fill(id, ir.Instruction{
		Kind: ir.InstrIf,
		If: ir.IfStatement{
			Condition: cond,
			ThenRange: thenRange,
			ElseRange: elseRange,
			Span:      n.Span,
		},
	})
}

// flattenFor emits a ForStatement; the loop variable is a generative,
// read-only declaration scoped to the body.
func (f *Flattener) flattenFor(n *ast.ForStmt) {
	start := f.flattenExpr(n.Start)
	end := f.flattenExpr(n.End)
	id := f.mod.Instructions.Reserve()

	f.names.Push()
	loopVar := f.mod.Instructions.Alloc(ir.Instruction{
		Kind: ir.InstrDeclaration,
		Declaration: ir.Declaration{
			Name:      n.VarName,
			Span:      n.VarSpan,
			ReadOnly:  true,
			IdentType: ir.IdentifierGenerative,
		},
	})
	f.names.Declare(n.VarName, loopVar)
	body := f.FlattenBody(n.Body)
	f.names.Pop()

	f.mod.Instructions.Fill(id, ir.Instruction{
		Kind: ir.InstrFor,
		For: ir.ForStatement{
			LoopVarDecl: loopVar,
			Start:       start,
			End:         end,
			BodyRange:   body,
			Span:        n.Span,
		},
	})
}
