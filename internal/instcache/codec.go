// Package instcache is the cold-start spill layer for instantiation
// results: Module.Instantiations.ByKey is the hot path, kept purely in
// memory; this package persists the same entries to an on-disk SQLite
// table so a second compiler invocation over an unchanged module skips
// re-running the executor and latency counter.
package instcache

import (
	"encoding/json"
	"fmt"

	"github.com/VonTum/sus-compiler/internal/instantiate"
	"github.com/VonTum/sus-compiler/internal/ir"
)

// blob is the on-disk shape of one cached Instantiation: every field is
// already a plain value or a handle (which marshals as its raw index via
// arena.Handle's MarshalText), so a round trip through encoding/json
// reconstructs an Instantiation whose wire/submodule indices line up
// exactly with the original, since arenas are append-only and never
// renumbered.
type blob struct {
	Module         ir.ModuleID
	Name           string
	TemplateArgs   []ir.Value
	Wires          []ir.RealWire
	SubModules     []ir.SubModule
	InterfacePorts map[ir.PortID]instantiate.PortBinding
}

// Encode serializes a finished Instantiation for the concrete_blob column.
// Errors (diag.Collector) are not persisted: only a successful, fully
// latency-counted Instantiation is ever cached (cmd/hdlc calls Cache.Put
// only after latency counting leaves no errors), so there is nothing in
// Errors worth spilling.
func Encode(inst *instantiate.Instantiation) ([]byte, error) {
	b := blob{
		Module:         inst.Module,
		Name:           inst.Name,
		TemplateArgs:   inst.TemplateArgs,
		InterfacePorts: inst.InterfacePorts,
	}
	for _, h := range inst.Wires.AllHandles() {
		b.Wires = append(b.Wires, *inst.Wires.Get(h))
	}
	for _, h := range inst.SubModules.AllHandles() {
		b.SubModules = append(b.SubModules, *inst.SubModules.Get(h))
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("instcache: encode: %w", err)
	}
	return data, nil
}

// Decode is Encode's inverse, rebuilding a fresh Instantiation from a
// concrete_blob column. LatencyCounted is always set: only already-counted
// instantiations are ever cached.
func Decode(data []byte) (*instantiate.Instantiation, error) {
	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("instcache: decode: %w", err)
	}
	inst := &instantiate.Instantiation{
		Module:         b.Module,
		Name:           b.Name,
		TemplateArgs:   b.TemplateArgs,
		InterfacePorts: b.InterfacePorts,
		LatencyCounted: true,
	}
	for _, w := range b.Wires {
		inst.Wires.Alloc(w)
	}
	for _, sm := range b.SubModules {
		inst.SubModules.Alloc(sm)
	}
	return inst, nil
}
