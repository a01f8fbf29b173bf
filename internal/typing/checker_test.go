package typing

import (
	"testing"

	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/linker"
)

// TestBinaryArithmeticInfersIntResultSharedDomain builds "a + b" by hand
// and checks the int,int -> int result type and that both operands'
// shared physical domain propagates to the sum.
func TestBinaryArithmeticInfersIntResultSharedDomain(t *testing.T) {
	link := linker.New()
	mod := &ir.Module{}
	dom := mod.Domains.Alloc(ir.Domain{Name: "clk"})

	aID := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
		Source: ir.ExpressionSource{Kind: ir.ExprConstant, ConstantValue: ir.IntValue(1)},
	}})
	bID := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
		Source: ir.ExpressionSource{Kind: ir.ExprConstant, ConstantValue: ir.IntValue(2)},
	}})
	sumID := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
		Source: ir.ExpressionSource{Kind: ir.ExprBinaryOp, UnaryOp: "+", Left: aID, Right: bID},
	}})

	var diags diag.Collector
	c := NewChecker(link, &diags)

	// Constants always typecheck as generative; to exercise the "shared
	// physical domain" rule, force both operands onto the same physical
	// domain the way a declaration's wire-ref would.
	intID, _, _ := link.Lookup("int")
	a := mod.Instructions.Get(aID)
	b := mod.Instructions.Get(bID)
	a.Expression.Type = ir.FullType{Abstract: ir.AbstractNamedType(intID.Type), Domain: ir.PhysicalDomain(dom)}
	b.Expression.Type = ir.FullType{Abstract: ir.AbstractNamedType(intID.Type), Domain: ir.PhysicalDomain(dom)}

	c.checkExpression(mod, sumID, mod.Instructions.Get(sumID))

	sum := mod.Instructions.Get(sumID)
	if sum.Expression.Type.Abstract.Kind != ir.AbstractNamed || sum.Expression.Type.Abstract.Named != intID.Type {
		t.Fatalf("expected a+b to have abstract type int, got %v", sum.Expression.Type.Abstract)
	}
	if sum.Expression.Type.Domain.Kind != ir.DomainPhysical || sum.Expression.Type.Domain.Physical != dom {
		t.Fatalf("expected a+b to share the operands' physical domain, got %v", sum.Expression.Type.Domain)
	}
	if diags.Len() != 0 {
		t.Fatalf("expected no diagnostics for a well-typed addition, got %d", diags.Len())
	}
}

// TestBinaryOpGenerativeOperandTakesConcreteDomain puts the generative
// operand on the left of "n + x": the sum must still land in x's
// physical domain, not leak Generative out of the operation.
func TestBinaryOpGenerativeOperandTakesConcreteDomain(t *testing.T) {
	link := linker.New()
	mod := &ir.Module{}
	dom := mod.Domains.Alloc(ir.Domain{Name: "clk"})
	intID, _, _ := link.Lookup("int")

	nID := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
		Type:   ir.FullType{Abstract: ir.AbstractNamedType(intID.Type), Domain: ir.Generative()},
		Source: ir.ExpressionSource{Kind: ir.ExprConstant, ConstantValue: ir.IntValue(3)},
	}})
	xID := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
		Type:   ir.FullType{Abstract: ir.AbstractNamedType(intID.Type), Domain: ir.PhysicalDomain(dom)},
		Source: ir.ExpressionSource{Kind: ir.ExprConstant, ConstantValue: ir.IntValue(0)},
	}})
	sumID := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
		Source: ir.ExpressionSource{Kind: ir.ExprBinaryOp, UnaryOp: "+", Left: nID, Right: xID},
	}})

	var diags diag.Collector
	c := NewChecker(link, &diags)
	c.checkExpression(mod, sumID, mod.Instructions.Get(sumID))

	sum := mod.Instructions.Get(sumID)
	if sum.Expression.Type.Domain.Kind != ir.DomainPhysical || sum.Expression.Type.Domain.Physical != dom {
		t.Fatalf("expected n+x to ride x's physical domain, got %v", sum.Expression.Type.Domain)
	}
	if diags.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %d", diags.Len())
	}
}

// TestArrayIndexOnNonArrayReportsFailedUnification exercises the
// array-index-on-non-array diagnostic.
func TestArrayIndexOnNonArrayReportsFailedUnification(t *testing.T) {
	link := linker.New()
	mod := &ir.Module{}
	intID, _, _ := link.Lookup("int")

	declID := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrDeclaration, Declaration: ir.Declaration{
		Name: "x", Type: ir.FullType{Abstract: ir.AbstractNamedType(intID.Type), Domain: ir.Generative()},
	}})
	idxID := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
		Type:   ir.FullType{Abstract: ir.AbstractNamedType(intID.Type), Domain: ir.Generative()},
		Source: ir.ExpressionSource{Kind: ir.ExprConstant, ConstantValue: ir.IntValue(0)},
	}})

	var diags diag.Collector
	c := NewChecker(link, &diags)

	ref := ir.WireReference{RootKind: ir.RootLocalDecl, LocalDecl: declID, Path: []ir.ArrayAccess{{Idx: idxID}}}
	c.wireRefType(mod, ref)

	if diags.Len() == 0 {
		t.Fatalf("expected indexing a non-array declaration to report a diagnostic")
	}
}

// TestSubModuleCallConstrainsCallerDomains builds a callee with one
// clock domain (two inputs, one output) and a caller that binds both
// arguments and reads the output. Everything riding the callee's single
// domain must collapse to one caller domain: pinning the first argument
// pins the output read too, and pinning the second argument to a
// different domain must fail to unify.
func TestSubModuleCallConstrainsCallerDomains(t *testing.T) {
	link := linker.New()
	intID, _, _ := link.Lookup("int")
	intType := ir.FullType{Abstract: ir.AbstractNamedType(intID.Type), Domain: ir.Generative()}

	callee := &ir.Module{}
	cd := callee.Domains.Alloc(ir.Domain{Name: "clk"})
	in0 := callee.Instructions.Alloc(ir.Instruction{Kind: ir.InstrDeclaration, Declaration: ir.Declaration{
		Name: "in0", ReadOnly: true, WrittenType: ir.WrittenTypeExpr{Base: intID.Type}, Type: intType,
	}})
	in1 := callee.Instructions.Alloc(ir.Instruction{Kind: ir.InstrDeclaration, Declaration: ir.Declaration{
		Name: "in1", ReadOnly: true, WrittenType: ir.WrittenTypeExpr{Base: intID.Type}, Type: intType,
	}})
	out0 := callee.Instructions.Alloc(ir.Instruction{Kind: ir.InstrDeclaration, Declaration: ir.Declaration{
		Name: "out0", WrittenType: ir.WrittenTypeExpr{Base: intID.Type}, Type: intType,
	}})
	inStart := callee.Ports.NextHandle()
	callee.Ports.Alloc(ir.Port{Name: "in0", IsInput: true, Domain: cd, Decl: in0})
	callee.Ports.Alloc(ir.Port{Name: "in1", IsInput: true, Domain: cd, Decl: in1})
	inRange := callee.Ports.RangeFrom(inStart)
	outStart := callee.Ports.NextHandle()
	callee.Ports.Alloc(ir.Port{Name: "out0", Domain: cd, Decl: out0})
	outRange := callee.Ports.RangeFrom(outStart)
	callee.MainIface = callee.Interfaces.Alloc(ir.Interface{
		Name: "main", IsMain: true, Domain: cd, Inputs: inRange, Outputs: outRange,
	})
	calleeID := link.Modules.Alloc(*callee)

	mod := &ir.Module{}
	subID := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrSubModuleInstance, SubModuleInstance: ir.SubModuleInstance{
		Module: calleeID, Name: "u",
	}})
	aDecl := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrDeclaration, Declaration: ir.Declaration{
		Name: "a", WrittenType: ir.WrittenTypeExpr{Base: intID.Type}, LatencySpec: ir.NoFlatID(),
	}})
	bDecl := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrDeclaration, Declaration: ir.Declaration{
		Name: "b", WrittenType: ir.WrittenTypeExpr{Base: intID.Type}, LatencySpec: ir.NoFlatID(),
	}})
	aRef := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
		Source: ir.ExpressionSource{Kind: ir.ExprWireRef, WireRef: ir.WireReference{RootKind: ir.RootLocalDecl, LocalDecl: aDecl}},
	}})
	bRef := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
		Source: ir.ExpressionSource{Kind: ir.ExprWireRef, WireRef: ir.WireReference{RootKind: ir.RootLocalDecl, LocalDecl: bDecl}},
	}})
	mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrFuncCall, FuncCall: ir.FuncCallInstruction{
		SubModuleFlat: subID, Arguments: []ir.FlatID{aRef, bRef},
	}})
	outRef := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrExpression, Expression: ir.Expression{
		Source: ir.ExpressionSource{Kind: ir.ExprWireRef, WireRef: ir.WireReference{
			RootKind: ir.RootSubModulePort, SubModuleFlat: subID, Port: ir.PortIDFromIndex(0),
		}},
	}})

	var diags diag.Collector
	c := NewChecker(link, &diags)
	c.Check(mod)
	if diags.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}

	subInstr := mod.Instructions.Get(subID)
	if len(subInstr.SubModuleInstance.DomainMap) != 1 {
		t.Fatalf("expected one DomainMap entry per callee domain, got %d", len(subInstr.SubModuleInstance.DomainMap))
	}

	d0 := mod.Domains.Alloc(ir.Domain{Name: "d0"})
	d1 := mod.Domains.Alloc(ir.Domain{Name: "d1"})
	a := mod.Instructions.Get(aRef)
	if err := c.Domain.Unify(a.Expression.Type.Domain, ir.PhysicalDomain(d0)); err != nil {
		t.Fatalf("pinning argument a's domain failed: %v", err)
	}

	out := mod.Instructions.Get(outRef)
	got := c.Domain.Resolve(out.Expression.Type.Domain)
	if got.Kind != ir.DomainPhysical || got.Physical.Index() != d0.Index() {
		t.Fatalf("expected the output read to ride a's domain, got %v", got)
	}

	b := mod.Instructions.Get(bRef)
	if err := c.Domain.Unify(b.Expression.Type.Domain, ir.PhysicalDomain(d1)); err == nil {
		t.Fatalf("expected both arguments to be constrained to one caller domain")
	}
}

// TestFullySubstituteModulePromotesUnboundDomains checks that domain
// variables still unbound after inference become fresh physical domains
// of the enclosing module.
func TestFullySubstituteModulePromotesUnboundDomains(t *testing.T) {
	link := linker.New()
	mod := &ir.Module{}
	intID, _, _ := link.Lookup("int")

	var diags diag.Collector
	c := NewChecker(link, &diags)

	domVar := c.Domain.FreshType()
	declID := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrDeclaration, Declaration: ir.Declaration{
		Name: "x", Type: ir.FullType{Abstract: ir.AbstractNamedType(intID.Type), Domain: domVar},
	}})

	c.FullySubstituteModule(mod)

	decl := mod.Instructions.Get(declID)
	if decl.Declaration.Type.Domain.Kind == ir.DomainVariable {
		t.Fatalf("expected the unbound domain variable to be promoted, got %v", decl.Declaration.Type.Domain)
	}
}
