// Package codegen is the boundary to the netlist-printing back end: a
// small Emitter interface plus a reference textual-netlist
// implementation, so the rest of the compiler never depends on any
// concrete output syntax.
package codegen

import (
	"fmt"
	"sort"

	"github.com/VonTum/sus-compiler/internal/instantiate"
	"github.com/VonTum/sus-compiler/internal/ir"
)

// Emitter turns one finished instantiation into netlist text. Emission is
// purely a function of the exported tuple, so Emitter takes no other state.
type Emitter interface {
	Emit(target EmitTarget) (string, error)
}

// EmitTarget is everything code generation consumes: name,
// interface ports, wires, submodules.
type EmitTarget struct {
	Name           string
	InterfacePorts map[ir.PortID]instantiate.PortBinding
	Wires          ir.WireArena
	SubModules     ir.SubModuleArena
}

// FromInstantiation builds an EmitTarget from a finished Instantiation,
// the only conversion a caller needs between internal/instantiate and
// this package.
func FromInstantiation(inst *instantiate.Instantiation) EmitTarget {
	return EmitTarget{
		Name:           inst.Name,
		InterfacePorts: inst.InterfacePorts,
		Wires:          inst.Wires,
		SubModules:     inst.SubModules,
	}
}

// New resolves an Emitter by backend name, the set internal/config.Options
// accepts for -codegen.
func New(backend string) (Emitter, error) {
	switch backend {
	case "verilog", "":
		return &VerilogEmitter{}, nil
	case "vhdl":
		return &VHDLEmitter{}, nil
	default:
		return nil, fmt.Errorf("codegen: unknown backend %q", backend)
	}
}

// sortedWireHandles returns target's wire handles in allocation order, the
// determinism every Emitter implementation relies on for reproducible
// output text.
func sortedWireHandles(target EmitTarget) []ir.WireID {
	handles := target.Wires.AllHandles()
	sort.Slice(handles, func(i, j int) bool { return handles[i].Index() < handles[j].Index() })
	return handles
}

// sortedPortIDs returns target's interface port IDs in ascending order.
func sortedPortIDs(target EmitTarget) []ir.PortID {
	ids := make([]ir.PortID, 0, len(target.InterfacePorts))
	for id := range target.InterfacePorts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Index() < ids[j].Index() })
	return ids
}
