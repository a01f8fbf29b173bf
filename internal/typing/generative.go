package typing

import (
	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/ir"
)

// CheckGenerative is the generative-placement pass, separate from type
// and domain inference. Domain inference (run by
// Checker.Check/FullySubstituteModule) already decides, per wire, whether
// its DomainType is Generative; this pass only enforces the placement
// rules that depend on that classification:
//   - assignments to a generative declaration need a generative RHS, and
//     must not be nested inside a runtime if;
//   - latency specifiers, array sizes, and Initial right-hand sides must
//     be generative;
//   - indexing into a generative declaration needs a generative index.
func CheckGenerative(mod *ir.Module, diags *diag.Collector) {
	ifs := collectIfs(mod)

	for _, h := range mod.Instructions.AllHandles() {
		instr := mod.Instructions.Get(h)
		switch instr.Kind {
		case ir.InstrDeclaration:
			checkDeclGenerative(mod, instr, diags)
		case ir.InstrWrite:
			checkWriteGenerative(mod, h, instr, ifs, diags)
		}
	}
}

type ifSpan struct {
	then, els    ir.FlatRange
	isGenerative bool
}

func collectIfs(mod *ir.Module) []ifSpan {
	var out []ifSpan
	for _, h := range mod.Instructions.AllHandles() {
		instr := mod.Instructions.Get(h)
		if instr.Kind != ir.InstrIf {
			continue
		}
		out = append(out, ifSpan{then: instr.If.ThenRange, els: instr.If.ElseRange, isGenerative: instr.If.IsGenerative})
	}
	return out
}

func checkDeclGenerative(mod *ir.Module, instr *ir.Instruction, diags *diag.Collector) {
	decl := &instr.Declaration
	if decl.LatencySpec.Valid() {
		spec := mod.Instructions.Get(decl.LatencySpec)
		if !isGenerativeDomain(spec.Expression.Type.Domain) {
			diags.Append(diag.Diagnostic{
				Level: diag.Error, Kind: diag.KindNonGenerative, Span: decl.Span,
				Message: "a latency specifier must be generative",
			})
		}
	}
	checkWrittenTypeGenerative(mod, decl.WrittenType, diags)
}

func checkWrittenTypeGenerative(mod *ir.Module, wt ir.WrittenTypeExpr, diags *diag.Collector) {
	if !wt.IsArray {
		return
	}
	if wt.Size.Valid() {
		size := mod.Instructions.Get(wt.Size)
		if !isGenerativeDomain(size.Expression.Type.Domain) {
			diags.Append(diag.Diagnostic{
				Level: diag.Error, Kind: diag.KindNonGenerative, Span: wt.Span,
				Message: "array size must be generative",
			})
		}
	}
	if wt.Elem != nil {
		checkWrittenTypeGenerative(mod, *wt.Elem, diags)
	}
}

func checkWriteGenerative(mod *ir.Module, h ir.FlatID, instr *ir.Instruction, ifs []ifSpan, diags *diag.Collector) {
	w := &instr.Write
	from := mod.Instructions.Get(w.From)

	targetGenerative := false
	if w.To.RootKind == ir.RootLocalDecl {
		target := mod.Instructions.Get(w.To.LocalDecl)
		targetGenerative = target.Kind == ir.InstrDeclaration && target.Declaration.IdentType == ir.IdentifierGenerative

		for _, step := range w.To.Path {
			if !targetGenerative {
				break
			}
			idx := mod.Instructions.Get(step.Idx)
			if !isGenerativeDomain(idx.Expression.Type.Domain) {
				diags.Append(diag.Diagnostic{
					Level: diag.Error, Kind: diag.KindNonGenerative, Span: w.Span,
					Message: "indexing into a generative value requires a generative index",
				})
			}
		}
	}

	if w.Modifier.Kind == ir.WriteInitial {
		if !isGenerativeDomain(from.Expression.Type.Domain) {
			diags.Append(diag.Diagnostic{
				Level: diag.Error, Kind: diag.KindNonGenerative, Span: w.Span,
				Message: "an 'initial' right-hand side must be generative",
			})
		}
	}

	if !targetGenerative {
		return
	}
	if !isGenerativeDomain(from.Expression.Type.Domain) {
		diags.Append(diag.Diagnostic{
			Level: diag.Error, Kind: diag.KindNonGenerative, Span: w.Span,
			Message: "assignment to a generative variable must have a generative right-hand side",
		})
	}
	for _, span := range ifs {
		if span.isGenerative {
			continue
		}
		if span.then.Contains(h) || span.els.Contains(h) {
			diags.Append(diag.Diagnostic{
				Level: diag.Error, Kind: diag.KindGenerativeInRuntimeIf, Span: w.Span,
				Message: "assignment to a generative variable cannot occur inside a runtime if",
			})
			break
		}
	}
}

func isGenerativeDomain(d ir.DomainType) bool {
	return d.Kind == ir.DomainGenerative
}
