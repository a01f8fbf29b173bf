package instantiate

import (
	"fmt"

	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/linker"
)

// execCtx is the mutable state threaded through one instantiation run.
// condStack holds the enclosing runtime-if condition wires, innermost
// last; a Write's enabling condition is their conjunction.
type execCtx struct {
	inst         *Instantiation
	mod          *ir.Module
	env          *env
	subModules   map[ir.FlatID]ir.SubModuleID
	condStack    []ir.WireID
	link         *linker.Linker
	instantiator *Instantiator
}

func (ins *Instantiator) run(mod *ir.Module, modID ir.ModuleID, args []ir.Value) (*Instantiation, error) {
	inst := &Instantiation{
		Module:         modID,
		Name:           mod.Link.Name,
		TemplateArgs:   args,
		InterfacePorts: make(map[ir.PortID]PortBinding),
	}
	ctx := &execCtx{
		inst:         inst,
		mod:          mod,
		env:          newEnv(),
		subModules:   make(map[ir.FlatID]ir.SubModuleID),
		link:         ins.link,
		instantiator: ins,
	}

	// Template parameters are generative integers/bools, positionally
	// matched to mod.Templates; they get no Declaration instructions in
	// the flat body (templates are a module-level concept) and the
	// flattener never binds their names, so no body instruction refers
	// to one. Nothing further is done with them here beyond recording
	// them on the Instantiation for code-gen/debug naming.

	if err := ctx.execBody(ir.WholeBody(mod)); err != nil {
		return nil, err
	}

	for _, h := range mod.Ports.AllHandles() {
		port := mod.Ports.Get(h)
		slot, ok := ctx.env.get(port.Decl)
		if !ok {
			continue
		}
		wire := ctx.asWire(slot)
		inst.InterfacePorts[h] = PortBinding{Wire: wire, IsInput: port.IsInput, AbsoluteLatency: ir.CalculateLater}
	}

	return inst, nil
}

func (ctx *execCtx) execBody(rng ir.FlatRange) error {
	for i := rng.Start.Index(); i < rng.End.Index(); i++ {
		id := ir.FlatIDFromIndex(i)
		instr := ctx.mod.Instructions.Get(id)

		switch instr.Kind {
		case ir.InstrDeclaration:
			ctx.execDeclaration(id, instr)
		case ir.InstrExpression:
			ctx.execExpression(id, instr)
		case ir.InstrWrite:
			ctx.execWrite(id, instr)
		case ir.InstrSubModuleInstance:
			ctx.execSubModuleInstance(id, instr)
		case ir.InstrFuncCall:
			ctx.execFuncCall(id, instr)
		case ir.InstrIf:
			end := ctx.execIf(instr)
			i = end - 1
		case ir.InstrFor:
			ctx.execFor(instr)
			i = instr.For.BodyRange.End.Index() - 1
		}
	}
	return nil
}

func (ctx *execCtx) execDeclaration(id ir.FlatID, instr *ir.Instruction) {
	decl := &instr.Declaration
	ctx.checkArraySizeResolved(decl)
	if decl.IdentType == ir.IdentifierGenerative {
		ctx.env.bindValue(id, ir.UnsetValue())
		return
	}

	src := ir.RealWireDataSource{Kind: ir.SourceMultiplexer}
	if decl.ReadOnly {
		src = ir.RealWireDataSource{Kind: ir.SourceReadOnly}
	} else if decl.IdentType == ir.IdentifierState {
		src.IsState = true
	}

	w := ctx.inst.Wires.Alloc(ir.RealWire{
		Type: decl.Type, Name: decl.Name, Origin: id, Source: src,
		AbsoluteLatency: ir.CalculateLater, NeededUntil: ir.CalculateLater, SpecifiedLatency: ir.CalculateLater,
	})
	if decl.LatencySpec.Valid() {
		if slot, ok := ctx.env.get(decl.LatencySpec); ok && slot.isValue && slot.value.Kind == ir.ValueInt {
			wire := ctx.inst.Wires.Get(w)
			wire.SpecifiedLatency = slot.value.Int
			wire.HasSpecified = true
		}
	}
	ctx.env.bindWire(id, w)
}

// checkArraySizeResolved reports an unresolved-generative error when an
// array declaration's size expression never settled on a concrete value
// by the time the declaration runs (e.g. a self-referential "N = N" that
// never has anything to read). The executor's single forward pass over
// the flat instruction list can never loop on this, so the only failure
// mode is exactly this one: the size slot stays Unset.
func (ctx *execCtx) checkArraySizeResolved(decl *ir.Declaration) {
	wt := decl.WrittenType
	for wt.IsArray {
		if wt.Size.Valid() {
			slot, ok := ctx.env.get(wt.Size)
			if !ok || !slot.isValue || slot.value.Kind != ir.ValueInt {
				ctx.inst.Errors.Append(diag.Diagnostic{
					Level: diag.Error, Kind: diag.KindUnresolvedGenerative, Span: wt.Span,
					Message: "array size did not resolve to a concrete generative value",
				})
			}
		}
		if wt.Elem == nil {
			break
		}
		wt = *wt.Elem
	}
}

func (ctx *execCtx) execExpression(id ir.FlatID, instr *ir.Instruction) {
	expr := &instr.Expression
	switch expr.Source.Kind {
	case ir.ExprConstant:
		ctx.env.bindValue(id, expr.Source.ConstantValue)

	case ir.ExprWireRef:
		slot := ctx.resolveRef(expr.Source.WireRef, id)
		ctx.env.slots[id] = slot

	case ir.ExprUnaryOp:
		right, _ := ctx.env.get(expr.Source.Right)
		if right.isValue {
			ctx.env.bindValue(id, evalUnary(expr.Source.UnaryOp, right.value))
			return
		}
		w := ctx.inst.Wires.Alloc(ir.RealWire{
			Type: expr.Type, Origin: id,
			Source:          ir.RealWireDataSource{Kind: ir.SourceUnaryOp, Op: expr.Source.UnaryOp, Right: right.wire},
			AbsoluteLatency: ir.CalculateLater, NeededUntil: ir.CalculateLater, SpecifiedLatency: ir.CalculateLater,
		})
		ctx.env.bindWire(id, w)

	case ir.ExprBinaryOp:
		left, _ := ctx.env.get(expr.Source.Left)
		right, _ := ctx.env.get(expr.Source.Right)
		if left.isValue && right.isValue {
			v, ok := evalBinary(expr.Source.UnaryOp, left.value, right.value)
			if !ok {
				ctx.inst.Errors.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindDivByZero, Span: expr.Span,
					Message: "division or modulo by zero in generative expression"})
			}
			ctx.env.bindValue(id, v)
			return
		}
		leftWire := ctx.asWire(left)
		rightWire := ctx.asWire(right)
		w := ctx.inst.Wires.Alloc(ir.RealWire{
			Type: expr.Type, Origin: id,
			Source:          ir.RealWireDataSource{Kind: ir.SourceBinaryOp, Op: expr.Source.UnaryOp, Left: leftWire, Right: rightWire},
			AbsoluteLatency: ir.CalculateLater, NeededUntil: ir.CalculateLater, SpecifiedLatency: ir.CalculateLater,
		})
		ctx.env.bindWire(id, w)
	}
}

// resolveRef resolves a WireReference to an envSlot, walking any
// array-index path.
func (ctx *execCtx) resolveRef(ref ir.WireReference, origin ir.FlatID) envSlot {
	var cur envSlot
	switch ref.RootKind {
	case ir.RootLocalDecl:
		cur, _ = ctx.env.get(ref.LocalDecl)
	case ir.RootNamedConstant:
		c := ctx.link.Constants.Get(ref.NamedConstant)
		cur = envSlot{isValue: true, value: c.Value}
	case ir.RootSubModulePort:
		subID, ok := ctx.subModules[ref.SubModuleFlat]
		if !ok {
			return envSlot{}
		}
		sm := ctx.inst.SubModules.Get(subID)
		callee := ctx.link.Modules.Get(sm.Module)
		port := ctx.resolveOutputPort(callee, ref)
		w, ok := sm.PortMap[port]
		if !ok {
			w = ctx.inst.Wires.Alloc(ir.RealWire{
				Origin: origin, Source: ir.RealWireDataSource{Kind: ir.SourceOutPort, SubModule: subID, Port: port},
				AbsoluteLatency: ir.CalculateLater, NeededUntil: ir.CalculateLater, SpecifiedLatency: ir.CalculateLater,
			})
			sm.PortMap[port] = w
		}
		cur = envSlot{isValue: false, wire: w}
	}

	for _, step := range ref.Path {
		idxSlot, _ := ctx.env.get(step.Idx)
		if cur.isValue && idxSlot.isValue {
			idx := int(idxSlot.value.Int)
			if idx < 0 || idx >= len(cur.value.Array) {
				ctx.inst.Errors.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindArrayBounds, Message: fmt.Sprintf("array index %d out of bounds", idx)})
				cur = envSlot{isValue: true, value: ir.UnsetValue()}
				continue
			}
			cur = envSlot{isValue: true, value: cur.value.Array[idx]}
			continue
		}
		rootWire := ctx.asWire(cur)
		idxWire := ctx.asWire(idxSlot)
		w := ctx.inst.Wires.Alloc(ir.RealWire{
			Origin: origin,
			Source: ir.RealWireDataSource{Kind: ir.SourceSelect, SelectRoot: rootWire, SelectPath: []ir.WireArrayAccess{{Idx: idxWire}}},
			AbsoluteLatency: ir.CalculateLater, NeededUntil: ir.CalculateLater, SpecifiedLatency: ir.CalculateLater,
		})
		cur = envSlot{isValue: false, wire: w}
	}
	return cur
}

// resolveOutputPort maps ref's positional output index (internal/flatten
// stamps WireReference.Port with 0, 1, 2... in call order) onto callee's
// main interface's absolute output PortID. A call site can request more
// outputs than the callee actually declares, since the callee's
// interface isn't always known yet when the call is flattened; that's an
// arity mismatch, not a panic, so it's reported and the first output is
// used instead of indexing out of range.
func (ctx *execCtx) resolveOutputPort(callee *ir.Module, ref ir.WireReference) ir.PortID {
	iface := callee.Interfaces.Get(callee.MainIface)
	idx := ref.Port.Index()
	if idx < 0 || idx >= iface.Outputs.Len() {
		ctx.inst.Errors.Append(diag.Diagnostic{
			Level: diag.Error, Kind: diag.KindArityMismatch,
			Message: fmt.Sprintf("call requests output %d but %q only has %d outputs", idx, callee.Link.Name, iface.Outputs.Len()),
		})
		return ir.PortIDFromIndex(iface.Outputs.Start.Index())
	}
	return ir.PortIDFromIndex(iface.Outputs.Start.Index() + idx)
}

func (ctx *execCtx) asWire(slot envSlot) ir.WireID {
	if !slot.isValue {
		return slot.wire
	}
	return ctx.inst.Wires.Alloc(ir.RealWire{
		Origin:          ir.NoFlatID(),
		Source:          ir.RealWireDataSource{Kind: ir.SourceConstant, ConstantValue: slot.value},
		AbsoluteLatency: ir.CalculateLater, NeededUntil: ir.CalculateLater, SpecifiedLatency: ir.CalculateLater,
	})
}

func (ctx *execCtx) execWrite(id ir.FlatID, instr *ir.Instruction) {
	w := &instr.Write
	fromSlot, _ := ctx.env.get(w.From)

	if w.To.RootKind == ir.RootLocalDecl {
		targetDecl := ctx.mod.Instructions.Get(w.To.LocalDecl)
		if targetDecl.Kind == ir.InstrDeclaration && targetDecl.Declaration.IdentType == ir.IdentifierGenerative {
			if fromSlot.isValue {
				ctx.env.bindValue(w.To.LocalDecl, fromSlot.value)
			}
			return
		}
	}

	targetSlot := ctx.resolveRef(w.To, id)
	if targetSlot.isValue || !targetSlot.wire.Valid() {
		return
	}
	rw := ctx.inst.Wires.Get(targetSlot.wire)
	if rw.Source.Kind != ir.SourceMultiplexer {
		rw.Source = ir.RealWireDataSource{Kind: ir.SourceMultiplexer, IsState: rw.Source.IsState}
	}

	if w.Modifier.Kind == ir.WriteInitial {
		if fromSlot.isValue {
			rw.Source.InitialValue = fromSlot.value
			rw.Source.HasInitial = true
		}
		return
	}

	cond, hasCond := ctx.currentCondition()
	rw.Source.MuxSources = append(rw.Source.MuxSources, ir.MultiplexerSource{
		From: ctx.asWire(fromSlot), Condition: cond, HasCond: hasCond, OriginWrite: id, NumRegs: w.Modifier.NumRegs,
	})
}

// currentCondition conjoins the condition stack into one wire, allocating
// AND wires as needed.
func (ctx *execCtx) currentCondition() (ir.WireID, bool) {
	if len(ctx.condStack) == 0 {
		return ir.WireID{}, false
	}
	acc := ctx.condStack[0]
	for _, next := range ctx.condStack[1:] {
		acc = ctx.inst.Wires.Alloc(ir.RealWire{
			Source:          ir.RealWireDataSource{Kind: ir.SourceBinaryOp, Op: "&&", Left: acc, Right: next},
			AbsoluteLatency: ir.CalculateLater, NeededUntil: ir.CalculateLater, SpecifiedLatency: ir.CalculateLater,
		})
	}
	return acc, true
}

// execIf returns the index just past whichever branch range extends
// furthest, so execBody can skip over both; branch ranges are laid out
// contiguously right after the IfStatement.
func (ctx *execCtx) execIf(instr *ir.Instruction) int {
	stmt := &instr.If
	condSlot, _ := ctx.env.get(stmt.Condition)

	if stmt.IsGenerative {
		if condSlot.isValue && condSlot.value.Bool {
			ctx.execBody(stmt.ThenRange)
		} else if condSlot.isValue {
			ctx.execBody(stmt.ElseRange)
		}
	} else {
		condWire := ctx.asWire(condSlot)
		ctx.condStack = append(ctx.condStack, condWire)
		ctx.execBody(stmt.ThenRange)
		ctx.condStack = ctx.condStack[:len(ctx.condStack)-1]

		if stmt.ElseRange.Len() > 0 {
			notWire := ctx.inst.Wires.Alloc(ir.RealWire{
				Source:          ir.RealWireDataSource{Kind: ir.SourceUnaryOp, Op: "!", Right: condWire},
				AbsoluteLatency: ir.CalculateLater, NeededUntil: ir.CalculateLater, SpecifiedLatency: ir.CalculateLater,
			})
			ctx.condStack = append(ctx.condStack, notWire)
			ctx.execBody(stmt.ElseRange)
			ctx.condStack = ctx.condStack[:len(ctx.condStack)-1]
		}
	}

	end := stmt.ThenRange.End.Index()
	if stmt.ElseRange.Len() > 0 && stmt.ElseRange.End.Index() > end {
		end = stmt.ElseRange.End.Index()
	}
	return end
}

func (ctx *execCtx) execFor(instr *ir.Instruction) {
	stmt := &instr.For
	startSlot, _ := ctx.env.get(stmt.Start)
	endSlot, _ := ctx.env.get(stmt.End)
	if !startSlot.isValue || !endSlot.isValue {
		return
	}
	for i := startSlot.value.Int; i < endSlot.value.Int; i++ {
		ctx.env.bindValue(stmt.LoopVarDecl, ir.IntValue(i))
		ctx.execBody(stmt.BodyRange)
	}
}

func (ctx *execCtx) execSubModuleInstance(id ir.FlatID, instr *ir.Instruction) {
	sub := &instr.SubModuleInstance
	callee := ctx.link.Modules.Get(sub.Module)
	if callee == nil {
		return
	}
	_, err := ctx.instantiator.GetOrInstantiate(callee, sub.Module, nil)
	if err != nil {
		ctx.inst.Errors.Append(diag.Diagnostic{Level: diag.Error, Kind: diag.KindArityMismatch, Span: sub.Span,
			Message: fmt.Sprintf("instantiating %q: %v", sub.Name, err)})
		return
	}
	subID := ctx.inst.SubModules.Alloc(ir.SubModule{Module: sub.Module, Name: sub.Name, Origin: id, PortMap: make(map[ir.PortID]ir.WireID)})
	ctx.subModules[id] = subID
}

func (ctx *execCtx) execFuncCall(id ir.FlatID, instr *ir.Instruction) {
	fc := &instr.FuncCall
	subID, ok := ctx.subModules[fc.SubModuleFlat]
	if !ok {
		return
	}
	sm := ctx.inst.SubModules.Get(subID)
	callee := ctx.link.Modules.Get(sm.Module)
	if callee == nil {
		return
	}
	iface := callee.Interfaces.Get(callee.MainIface)

	if len(fc.Arguments) != iface.Inputs.Len() {
		ctx.inst.Errors.Append(diag.Diagnostic{
			Level: diag.Error, Kind: diag.KindArityMismatch, Span: fc.Span,
			Message: fmt.Sprintf("call to %q passes %d argument(s) but it declares %d input(s)", callee.Link.Name, len(fc.Arguments), iface.Inputs.Len()),
		})
	}

	for i, argID := range fc.Arguments {
		if i >= iface.Inputs.Len() {
			break
		}
		portID := ir.PortIDFromIndex(iface.Inputs.Start.Index() + i)
		argSlot, _ := ctx.env.get(argID)
		argWire := ctx.asWire(argSlot)

		w, ok := sm.PortMap[portID]
		if !ok {
			w = ctx.inst.Wires.Alloc(ir.RealWire{
				Origin: id, Source: ir.RealWireDataSource{Kind: ir.SourceMultiplexer},
				AbsoluteLatency: ir.CalculateLater, NeededUntil: ir.CalculateLater, SpecifiedLatency: ir.CalculateLater,
			})
			sm.PortMap[portID] = w
		}
		rw := ctx.inst.Wires.Get(w)
		rw.Source.MuxSources = append(rw.Source.MuxSources, ir.MultiplexerSource{From: argWire, OriginWrite: id})
	}
}
