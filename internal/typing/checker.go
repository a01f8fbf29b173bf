package typing

import (
	"fmt"

	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/linker"
)

// Checker runs both HM substitutors over one module's flat instruction
// list in a single forward pass. Flattening guarantees
// every wire reference points at a strictly earlier FlatID, including
// inside If/For body ranges, so one linear pass resolves every source
// before it is needed.
type Checker struct {
	link  *linker.Linker
	diags *diag.Collector

	Abstract *AbstractSubstitutor
	Domain   *DomainSubstitutor

	boolID ir.TypeID
	intID  ir.TypeID
}

// NewChecker resolves the builtin bool/int globals once and returns a
// Checker ready to run over any number of modules sharing link.
func NewChecker(link *linker.Linker, diags *diag.Collector) *Checker {
	c := &Checker{link: link, diags: diags, Abstract: NewAbstractSubstitutor(), Domain: NewDomainSubstitutor()}
	if elem, ok, _ := link.Lookup("bool"); ok {
		c.boolID = elem.Type
	}
	if elem, ok, _ := link.Lookup("int"); ok {
		c.intID = elem.Type
	}
	return c
}

func (c *Checker) boolT() ir.AbstractType { return ir.AbstractNamedType(c.boolID) }
func (c *Checker) intT() ir.AbstractType  { return ir.AbstractNamedType(c.intID) }

// Check walks every instruction of mod in order, assigning each
// Declaration/Expression a FullType and recording unification failures on
// c.diags.
func (c *Checker) Check(mod *ir.Module) {
	handles := mod.Instructions.AllHandles()
	for _, h := range handles {
		instr := mod.Instructions.Get(h)
		switch instr.Kind {
		case ir.InstrDeclaration:
			c.checkDeclaration(mod, h, instr)
		case ir.InstrExpression:
			c.checkExpression(mod, h, instr)
		case ir.InstrWrite:
			c.checkWrite(mod, instr)
		case ir.InstrIf:
			c.checkIf(mod, instr)
		case ir.InstrFor:
			c.checkFor(mod, instr)
		case ir.InstrSubModuleInstance:
			c.checkSubModuleInstance(instr)
		case ir.InstrFuncCall:
			c.checkFuncCall(mod, instr)
		}
	}
}

// checkSubModuleInstance introduces one fresh domain variable per callee
// domain, recorded on the instance's DomainMap in callee domain-handle
// order. Calls and port reads then constrain the caller's domains by
// unifying against these variables; any left unbound are promoted to
// fresh physical domains with everything else in FullySubstituteModule.
// A callee that has not been initialized yet has no domains to map, and
// the call/port paths below fall back to unconstrained fresh variables.
func (c *Checker) checkSubModuleInstance(instr *ir.Instruction) {
	sub := &instr.SubModuleInstance
	callee := c.link.Modules.Get(sub.Module)
	if callee == nil {
		return
	}
	sub.DomainMap = make([]ir.DomainType, callee.Domains.Len())
	for i := range sub.DomainMap {
		sub.DomainMap[i] = c.Domain.FreshType()
	}
}

// checkFuncCall unifies each argument's domain with the callee input
// port's domain, mapped through the instance's DomainMap, so wiring two
// caller domains into one callee domain is a reported mismatch. Arity is
// checked positionally by the instantiation executor; here excess
// arguments are simply not constrained.
func (c *Checker) checkFuncCall(mod *ir.Module, instr *ir.Instruction) {
	fc := &instr.FuncCall
	subInstr := mod.Instructions.Get(fc.SubModuleFlat)
	if subInstr.Kind != ir.InstrSubModuleInstance {
		return
	}
	sub := &subInstr.SubModuleInstance
	callee := c.link.Modules.Get(sub.Module)
	if callee == nil || callee.Interfaces.Len() == 0 {
		return
	}
	iface := callee.Interfaces.Get(callee.MainIface)
	for i, argID := range fc.Arguments {
		if i >= iface.Inputs.Len() {
			break
		}
		port := callee.Ports.Get(ir.PortIDFromIndex(iface.Inputs.Start.Index() + i))
		callerDomain, ok := callerDomainFor(sub, port.Domain)
		if !ok {
			continue
		}
		arg := mod.Instructions.Get(argID)
		if err := c.Domain.Unify(arg.Expression.Type.Domain, callerDomain); err != nil {
			c.diags.Append(mismatchDiagnostic(fc.Span,
				fmt.Sprintf("argument %d of call to %q crosses clock domains", i+1, callee.Link.Name), err))
		}
	}
}

// callerDomainFor maps a callee domain handle onto the caller-side
// DomainType the instance's DomainMap assigned it.
func callerDomainFor(sub *ir.SubModuleInstance, calleeDomain ir.DomainID) (ir.DomainType, bool) {
	if !calleeDomain.Valid() || calleeDomain.Index() >= len(sub.DomainMap) {
		return ir.DomainType{}, false
	}
	return sub.DomainMap[calleeDomain.Index()], true
}

// subModulePortDomain resolves the caller-side domain of a SubModulePort
// wire reference: the callee output port at ref's positional index, mapped
// through the instance's DomainMap. Falls back to fallback (a fresh
// variable) when the callee or its interface is not resolvable yet.
func (c *Checker) subModulePortDomain(mod *ir.Module, ref ir.WireReference, fallback ir.DomainType) ir.DomainType {
	if !ref.SubModuleFlat.Valid() {
		return fallback
	}
	subInstr := mod.Instructions.Get(ref.SubModuleFlat)
	if subInstr.Kind != ir.InstrSubModuleInstance {
		return fallback
	}
	sub := &subInstr.SubModuleInstance
	callee := c.link.Modules.Get(sub.Module)
	if callee == nil || callee.Interfaces.Len() == 0 {
		return fallback
	}
	iface := callee.Interfaces.Get(callee.MainIface)
	idx := ref.Port.Index()
	if idx < 0 || idx >= iface.Outputs.Len() {
		return fallback
	}
	port := callee.Ports.Get(ir.PortIDFromIndex(iface.Outputs.Start.Index() + idx))
	if d, ok := callerDomainFor(sub, port.Domain); ok {
		return d
	}
	return fallback
}

func (c *Checker) checkDeclaration(mod *ir.Module, h ir.FlatID, instr *ir.Instruction) {
	decl := &instr.Declaration

	abstractType := c.Abstract.FreshType()
	if decl.WrittenType.Base.Valid() || decl.WrittenType.IsArray {
		abstractType = c.resolveWritten(decl.WrittenType)
	}

	domain := c.Domain.FreshType()
	if decl.IdentType == ir.IdentifierGenerative {
		domain = ir.Generative()
	}

	instr.Declaration.Type = ir.FullType{Abstract: abstractType, Domain: domain}

	if decl.LatencySpec.Valid() {
		spec := mod.Instructions.Get(decl.LatencySpec)
		if err := c.Abstract.Unify(spec.Expression.Type.Abstract, c.intT()); err != nil {
			c.diags.Append(mismatchDiagnostic(decl.Span, "latency specifier must be an int", err))
		}
	}
}

func (c *Checker) resolveWritten(w ir.WrittenTypeExpr) ir.AbstractType {
	if w.IsArray {
		return ir.ArrayOf(c.resolveWritten(*w.Elem))
	}
	return ir.AbstractNamedType(w.Base)
}

func (c *Checker) checkExpression(mod *ir.Module, h ir.FlatID, instr *ir.Instruction) {
	expr := &instr.Expression
	switch expr.Source.Kind {
	case ir.ExprConstant:
		abstractType := c.intT()
		if expr.Source.ConstantValue.Kind == ir.ValueBool {
			abstractType = c.boolT()
		}
		expr.Type = ir.FullType{Abstract: abstractType, Domain: ir.Generative()}

	case ir.ExprWireRef:
		expr.Type = c.wireRefType(mod, expr.Source.WireRef)

	case ir.ExprUnaryOp:
		right := mod.Instructions.Get(expr.Source.Right)
		sig, ok := unarySignatures[expr.Source.UnaryOp]
		operand := c.boolT()
		result := c.boolT()
		if ok {
			operand, result = sig.operand(c), sig.result(c)
		}
		if err := c.Abstract.Unify(right.Expression.Type.Abstract, operand); err != nil {
			c.diags.Append(mismatchDiagnostic(expr.Span, fmt.Sprintf("operand of %q", expr.Source.UnaryOp), err))
		}
		expr.Type = ir.FullType{Abstract: result, Domain: right.Expression.Type.Domain}

	case ir.ExprBinaryOp:
		left := mod.Instructions.Get(expr.Source.Left)
		right := mod.Instructions.Get(expr.Source.Right)
		operand := c.BinaryOperandType(expr.Source.UnaryOp)
		result := c.BinaryResultType(expr.Source.UnaryOp)
		if err := c.Abstract.Unify(left.Expression.Type.Abstract, operand); err != nil {
			c.diags.Append(mismatchDiagnostic(expr.Span, fmt.Sprintf("left operand of %q", expr.Source.UnaryOp), err))
		}
		if err := c.Abstract.Unify(right.Expression.Type.Abstract, operand); err != nil {
			c.diags.Append(mismatchDiagnostic(expr.Span, fmt.Sprintf("right operand of %q", expr.Source.UnaryOp), err))
		}
		domain := ir.Generative()
		if err := c.Domain.Unify(left.Expression.Type.Domain, right.Expression.Type.Domain); err != nil {
			c.diags.Append(mismatchDiagnostic(expr.Span, "operands must share a clock domain", err))
		} else {
			// A generative operand is a constant injected into the other
			// side's domain, so the result rides whichever operand is NOT
			// generative; only an all-generative operation stays
			// generative. Unify never binds across a generative operand,
			// so resolving the left side unconditionally would leak
			// Generative out of e.g. `n + x` with only n generative.
			lDom := c.Domain.Resolve(left.Expression.Type.Domain)
			rDom := c.Domain.Resolve(right.Expression.Type.Domain)
			switch {
			case lDom.Kind != ir.DomainGenerative:
				domain = lDom
			case rDom.Kind != ir.DomainGenerative:
				domain = rDom
			default:
				domain = lDom
			}
		}
		expr.Type = ir.FullType{Abstract: result, Domain: domain}
	}
}

// wireRefType resolves a WireReference's type, walking any array-index
// path: each index must have abstract type int, the indexed value
// unifies with Array(elem), and the expression's type becomes elem.
func (c *Checker) wireRefType(mod *ir.Module, ref ir.WireReference) ir.FullType {
	var base ir.FullType
	switch ref.RootKind {
	case ir.RootLocalDecl:
		root := mod.Instructions.Get(ref.LocalDecl)
		if root.Kind == ir.InstrDeclaration {
			base = root.Declaration.Type
		} else {
			base = root.Expression.Type
		}
	case ir.RootNamedConstant:
		base = ir.FullType{Abstract: c.Abstract.FreshType(), Domain: ir.Generative()}
	case ir.RootSubModulePort:
		// The callee's port shape is not known until instantiation binds
		// a concrete module, so the abstract type stays a fresh variable.
		// The domain, however, is constrained now: the output port rides
		// the same DomainMap variable the call's arguments unified with,
		// so reading the result into a different caller domain is a
		// reported mismatch rather than a silent crossing.
		base = ir.FullType{Abstract: c.Abstract.FreshType(), Domain: c.Domain.FreshType()}
		base.Domain = c.subModulePortDomain(mod, ref, base.Domain)
	}

	for _, step := range ref.Path {
		idx := mod.Instructions.Get(step.Idx)
		if err := c.Abstract.Unify(idx.Expression.Type.Abstract, c.intT()); err != nil {
			c.diags.Append(mismatchDiagnostic(idx.Expression.Span, "array index", err))
		}
		elem := c.Abstract.FreshType()
		if err := c.Abstract.Unify(base.Abstract, ir.ArrayOf(elem)); err != nil {
			c.diags.Append(mismatchDiagnostic(idx.Expression.Span, "indexing a non-array value", err))
		}
		base = ir.FullType{Abstract: elem, Domain: base.Domain}
	}
	return base
}

func (c *Checker) checkWrite(mod *ir.Module, instr *ir.Instruction) {
	w := &instr.Write
	from := mod.Instructions.Get(w.From)
	w.ToType = c.wireRefType(mod, w.To)
	if err := c.Abstract.Unify(from.Expression.Type.Abstract, w.ToType.Abstract); err != nil {
		c.diags.Append(mismatchDiagnostic(w.Span, "assignment", err))
	}
	if err := c.Domain.Unify(from.Expression.Type.Domain, w.ToType.Domain); err != nil {
		c.diags.Append(mismatchDiagnostic(w.Span, "assignment crosses clock domains", err))
	}
}

func (c *Checker) checkIf(mod *ir.Module, instr *ir.Instruction) {
	stmt := &instr.If
	cond := mod.Instructions.Get(stmt.Condition)
	if err := c.Abstract.Unify(cond.Expression.Type.Abstract, c.boolT()); err != nil {
		c.diags.Append(mismatchDiagnostic(stmt.Span, "if condition", err))
	}
	stmt.IsGenerative = cond.Expression.Type.Domain.Kind == ir.DomainGenerative
}

func (c *Checker) checkFor(mod *ir.Module, instr *ir.Instruction) {
	stmt := &instr.For
	start := mod.Instructions.Get(stmt.Start)
	end := mod.Instructions.Get(stmt.End)
	if err := c.Abstract.Unify(start.Expression.Type.Abstract, c.intT()); err != nil {
		c.diags.Append(mismatchDiagnostic(stmt.Span, "for-loop start", err))
	}
	if err := c.Abstract.Unify(end.Expression.Type.Abstract, c.intT()); err != nil {
		c.diags.Append(mismatchDiagnostic(stmt.Span, "for-loop end", err))
	}
	loopVar := mod.Instructions.Get(stmt.LoopVarDecl)
	loopVar.Declaration.Type = ir.FullType{Abstract: c.intT(), Domain: ir.Generative()}
}

// FullySubstituteModule closes off every still-open type/domain variable
// in mod's instructions. Call once per module after Check has run over its
// entire instantiation-independent body.
func (c *Checker) FullySubstituteModule(mod *ir.Module) {
	c.Domain.PromoteUnbound(mod)

	for _, h := range mod.Instructions.AllHandles() {
		instr := mod.Instructions.Get(h)
		switch instr.Kind {
		case ir.InstrDeclaration:
			if t, ok := c.Abstract.FullySubstitute(instr.Declaration.Type.Abstract); ok {
				instr.Declaration.Type.Abstract = t
			} else {
				c.diags.Append(diag.Diagnostic{
					Level: diag.Error, Kind: diag.KindUnresolvedType, Span: instr.Declaration.Span,
					Message: fmt.Sprintf("could not infer a concrete type for %q", instr.Declaration.Name),
				})
			}
			instr.Declaration.Type.Domain = c.Domain.Resolve(instr.Declaration.Type.Domain)
		case ir.InstrExpression:
			if t, ok := c.Abstract.FullySubstitute(instr.Expression.Type.Abstract); ok {
				instr.Expression.Type.Abstract = t
			} else {
				c.diags.Append(diag.Diagnostic{
					Level: diag.Error, Kind: diag.KindUnresolvedType, Span: instr.Expression.Span,
					Message: "could not infer a concrete type for this expression",
				})
			}
			instr.Expression.Type.Domain = c.Domain.Resolve(instr.Expression.Type.Domain)
		}
	}
}
