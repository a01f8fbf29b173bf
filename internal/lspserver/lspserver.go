// Package lspserver is the boundary to a language-server front end: the
// LocationInfo/RefersTo shapes a hover or go-to-definition query needs,
// plus a minimal transport. The tree-walk itself reuses
// source.Span.Contains, provided for exactly this purpose.
package lspserver

import (
	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/linker"
	"github.com/VonTum/sus-compiler/internal/source"
)

// LocationKind tags which case of the LocationInfo sum a value is.
type LocationKind int

const (
	LocInModule LocationKind = iota
	LocType
	LocGlobal
	LocPort
	LocInterface
)

// LocalKind distinguishes the three InModule sub-cases.
type LocalKind int

const (
	NamedLocal LocalKind = iota
	NamedSubmodule
	Temporary
)

// LocationInfo describes what sits under a cursor position: exactly one
// of the fields below is meaningful, selected by Kind.
type LocationInfo struct {
	Kind LocationKind

	Module ir.ModuleID // Kind == LocInModule
	Flat   ir.FlatID   // Kind == LocInModule
	Local  LocalKind   // Kind == LocInModule

	Written ir.WrittenTypeExpr // Kind == LocType

	Global linker.NameElem // Kind == LocGlobal

	Module2    ir.ModuleID // Kind == LocPort / LocInterface: owning module
	Port       ir.PortID   // Kind == LocPort
	Interface  ir.InterfaceID // Kind == LocInterface
}

// RefersTo is the comparable distillation of LocationInfo, giving O(1)
// equality for "same symbol" queries: every field is itself a comparable
// value (ir handles are plain structs, linker.NameElem is a flat struct
// of comparable fields), so two RefersTo values can be compared with ==
// directly.
type RefersTo struct {
	Kind      LocationKind
	Module    ir.ModuleID
	Flat      ir.FlatID
	Global    linker.NameElem
	Port      ir.PortID
	Interface ir.InterfaceID
	Span      source.Span // Kind == LocType: the written type's own span
}

// DistillRefersTo extracts the identity-bearing fields of info. Two
// LocationInfo values describing different occurrences of the same
// symbol (e.g. a declaration and every read of it, or a global and every
// reference to it) distill to equal RefersTo values.
func DistillRefersTo(info LocationInfo) RefersTo {
	switch info.Kind {
	case LocInModule:
		return RefersTo{Kind: LocInModule, Module: info.Module, Flat: info.Flat}
	case LocGlobal:
		return RefersTo{Kind: LocGlobal, Global: info.Global}
	case LocPort:
		return RefersTo{Kind: LocPort, Module: info.Module2, Port: info.Port}
	case LocInterface:
		return RefersTo{Kind: LocInterface, Module: info.Module2, Interface: info.Interface}
	default:
		// LocType: written-type syntax has no stable cross-occurrence
		// identity (two separately-written "int"s are not "the same
		// symbol"); distinguish by position alone, so two different
		// occurrences never compare equal.
		return RefersTo{Kind: LocType, Span: info.Written.Span}
	}
}

// Position is a 1-based cursor location within one file, the shape a
// hover/go-to-definition request carries.
type Position struct {
	Line, Col int
}

// Locate walks mod looking for the innermost span containing pos,
// returning the LocationInfo describing what's there. link resolves
// global (named-constant/type/module) references so a cursor over a
// global use reports LocGlobal instead of a bare local handle.
func Locate(mod *ir.Module, modID ir.ModuleID, link *linker.Linker, pos Position) (LocationInfo, bool) {
	best, bestSize, found := LocationInfo{}, -1, false

	consider := func(span source.Span, info LocationInfo) {
		if !span.Contains(pos.Line, pos.Col) {
			return
		}
		size := spanSize(span)
		if !found || size < bestSize {
			best, bestSize, found = info, size, true
		}
	}

	for _, h := range mod.Ports.AllHandles() {
		p := mod.Ports.Get(h)
		consider(p.Span, LocationInfo{Kind: LocPort, Module2: modID, Port: h})
	}
	for _, h := range mod.Interfaces.AllHandles() {
		iface := mod.Interfaces.Get(h)
		consider(iface.Span, LocationInfo{Kind: LocInterface, Module2: modID, Interface: h})
	}

	for _, h := range mod.Instructions.AllHandles() {
		instr := mod.Instructions.Get(h)
		switch instr.Kind {
		case ir.InstrDeclaration:
			decl := &instr.Declaration
			consider(decl.WrittenType.Span, LocationInfo{Kind: LocType, Written: decl.WrittenType})
			consider(decl.Span, LocationInfo{Kind: LocInModule, Module: modID, Flat: h, Local: NamedLocal})
		case ir.InstrSubModuleInstance:
			consider(instr.SubModuleInstance.Span, LocationInfo{Kind: LocInModule, Module: modID, Flat: h, Local: NamedSubmodule})
		case ir.InstrExpression:
			expr := &instr.Expression
			if expr.Source.Kind == ir.ExprWireRef && expr.Source.WireRef.RootKind == ir.RootNamedConstant && link != nil {
				consider(expr.Span, LocationInfo{Kind: LocGlobal, Global: linker.NameElem{Kind: ir.GlobalConstant, Constant: expr.Source.WireRef.NamedConstant}})
				continue
			}
			consider(expr.Span, LocationInfo{Kind: LocInModule, Module: modID, Flat: h, Local: Temporary})
		default:
			consider(instr.Span(), LocationInfo{Kind: LocInModule, Module: modID, Flat: h, Local: Temporary})
		}
	}

	return best, found
}

// spanSize is a crude but total ordering over span extents: fewer lines
// wins, then fewer columns. Good enough to prefer a nested written-type
// span over its enclosing declaration's span.
func spanSize(s source.Span) int {
	lines := s.EndLine - s.Line
	cols := s.EndCol - s.Col
	if cols < 0 {
		cols = 0
	}
	return lines*100000 + cols
}
