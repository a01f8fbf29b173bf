// Package moduleinit is the per-module initialization pass: it discovers
// ports, domains, interfaces and template parameters from a module's AST
// and builds the skeletal *ir.Module (empty instruction list save for
// the Declaration instructions the ports themselves need) that
// internal/flatten then flattens the body into. It runs once per module,
// before the body referencing those declarations is walked.
package moduleinit

import (
	"fmt"

	"github.com/VonTum/sus-compiler/internal/ast"
	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/flatten"
	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/linker"
	"github.com/VonTum/sus-compiler/internal/source"
)

// InitModule fills mod (already Reserved and zero-Filled in link.Modules,
// so every further mutation lands directly in the linker's arena slot)
// from decl, and returns a flatten.Flattener seeded with the resulting
// port names, ready for FlattenBody to walk decl.Body into mod's
// Instructions.
//
// Template parameters (always generative int/bool for now) are recorded
// on mod.Templates but, per internal/instantiate.Instantiator.run's own
// documented scope limit, are not given Declaration instructions: the
// flattener only resolves a bare identifier against local/port
// declarations and global constants, so a written-type array size or a
// body expression cannot yet reference a template parameter by name.
// Template arguments still reach the executor positionally.
func InitModule(mod *ir.Module, file source.FileID, decl *ast.ModuleDecl, link *linker.Linker, diags *diag.Collector) *flatten.Flattener {
	mod.Link = ir.LinkInfo{File: file, Name: decl.Name, Span: decl.Span}

	domainByName := make(map[string]ir.DomainID, len(decl.Domains))
	for _, d := range decl.Domains {
		id := mod.Domains.Alloc(ir.Domain{Name: d.Name, Span: d.Span})
		domainByName[d.Name] = id
	}

	for _, tp := range decl.TemplateParams {
		mod.Templates.Alloc(ir.TemplateParam{
			Name: tp.Name,
			Span: tp.Span,
			Type: resolveTemplateParamType(tp.Type, link, diags),
		})
	}

	f := flatten.NewFlattener(mod, link, diags)

	for _, ifc := range decl.Interfaces {
		domainID, ok := lookupDomain(ifc, domainByName)
		if !ok {
			diags.Append(diag.Diagnostic{
				Level: diag.Error, Kind: diag.KindUnresolvedGlobal, Span: ifc.Span,
				Message: fmt.Sprintf("interface %q references unknown domain %q", ifc.Name, ifc.Domain),
			})
			domainID = ir.NoDomainID()
		}

		inStart := mod.Ports.NextHandle()
		for _, p := range ifc.Inputs {
			declarePort(f, mod, p, true, domainID)
		}
		inRange := mod.Ports.RangeFrom(inStart)

		outStart := mod.Ports.NextHandle()
		for _, p := range ifc.Outputs {
			declarePort(f, mod, p, false, domainID)
		}
		outRange := mod.Ports.RangeFrom(outStart)

		ifaceID := mod.Interfaces.Alloc(ir.Interface{
			Name: ifc.Name, Span: ifc.Span, IsMain: ifc.IsMain, Domain: domainID,
			Inputs: inRange, Outputs: outRange,
		})
		if ifc.IsMain {
			mod.MainIface = ifaceID
		}
	}

	return f
}

func lookupDomain(ifc ast.InterfaceDecl, byName map[string]ir.DomainID) (ir.DomainID, bool) {
	if ifc.Domain == "" {
		return ir.NoDomainID(), true // generative-only interface: no domain to bind.
	}
	id, ok := byName[ifc.Domain]
	return id, ok
}

// declarePort emits the port's Declaration instruction through the same
// flattenDeclaration path a local gets, then records the ir.Port entry.
// Input ports are read-only from inside the module and never themselves
// written to; output ports are written by the body exactly like a local.
func declarePort(f *flatten.Flattener, mod *ir.Module, p ast.PortDecl, isInput bool, domain ir.DomainID) {
	kind := ast.IdentOutputPort
	if isInput {
		kind = ast.IdentInputPort
	}
	fid := f.FlattenDeclaration(&ast.Declaration{
		Span:     p.Span,
		Name:     p.Name,
		Type:     p.Type,
		Kind:     kind,
		ReadOnly: isInput,
	})
	if decl := mod.Instructions.Get(fid); decl.Kind == ir.InstrDeclaration {
		decl.Declaration.NotWrittenTo = isInput
	}
	mod.Ports.Alloc(ir.Port{Name: p.Name, Span: p.Span, IsInput: isInput, Domain: domain, Decl: fid})
}

// resolveTemplateParamType resolves a template parameter's written type
// against the builtin int/bool globals, the only types a template
// parameter can have.
func resolveTemplateParamType(t ast.WrittenType, link *linker.Linker, diags *diag.Collector) ir.AbstractType {
	elem, ok, collision := link.Lookup(t.Name)
	if collision || !ok || elem.Kind != ir.GlobalType {
		diags.Append(diag.Diagnostic{
			Level: diag.Error, Kind: diag.KindUnresolvedGlobal, Span: t.Span,
			Message: fmt.Sprintf("template parameter type %q is not a known type", t.Name),
		})
		return ir.AbstractType{}
	}
	return ir.AbstractNamedType(elem.Type)
}
