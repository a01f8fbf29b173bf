package instantiate

import (
	"fmt"
	"strings"

	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/linker"
)

// PortBinding is one exported interface port of a finished
// instantiation: the wire backing it, its direction, and the absolute
// latency callers build their own graphs against.
type PortBinding struct {
	Wire            ir.WireID
	IsInput         bool
	AbsoluteLatency int64
}

// Instantiation is the concrete result of executing one module against
// one set of template arguments. It is stored behind
// ir.Instantiation.Payload so ir itself never has to import this package.
type Instantiation struct {
	Module       ir.ModuleID
	Name         string
	TemplateArgs []ir.Value

	Wires      ir.WireArena
	SubModules ir.SubModuleArena

	InterfacePorts map[ir.PortID]PortBinding

	Errors diag.Collector

	// LatencyCounted is set once internal/latency.Counter has assigned
	// AbsoluteLatency/NeededUntil to every wire here, so a caller walking
	// a tree of sub-module instantiations bottom-up only counts each one
	// once.
	LatencyCounted bool
}

// Instantiator owns the linker (to resolve sub-module callees) and runs
// the executor, caching results on each ir.Module's own
// InstantiationList, keyed by a stable encoding of template arguments.
type Instantiator struct {
	link *linker.Linker
}

// New returns an Instantiator bound to link.
func New(link *linker.Linker) *Instantiator {
	return &Instantiator{link: link}
}

// Linker returns the linker this Instantiator resolves sub-module
// callees against, so internal/latency can look up a callee's Module and
// its already-cached Instantiation without duplicating that bookkeeping.
func (ins *Instantiator) Linker() *linker.Linker {
	return ins.link
}

// CachedInstantiation returns the already-computed Instantiation for
// (modID, args) if GetOrInstantiate has run for it before, without
// triggering a fresh run. Used by internal/latency to fetch a
// sub-module's Instantiation when latency-counting bottom-up.
func CachedInstantiation(mod *ir.Module, args []ir.Value) (*Instantiation, bool) {
	if mod.Instantiations.ByKey == nil {
		return nil, false
	}
	cached, ok := mod.Instantiations.ByKey[TemplateArgsKey(args)]
	if !ok {
		return nil, false
	}
	inst, ok := cached.Payload.(*Instantiation)
	return inst, ok
}

// TemplateArgsKey builds the stable cache key Module.Instantiations.ByKey
// is keyed by.
func TemplateArgsKey(args []ir.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

// GetOrInstantiate returns the cached Instantiation for (mod, args) if one
// exists, otherwise runs the executor and caches the result.
func (ins *Instantiator) GetOrInstantiate(mod *ir.Module, modID ir.ModuleID, args []ir.Value) (*Instantiation, error) {
	key := TemplateArgsKey(args)
	if mod.Instantiations.ByKey == nil {
		mod.Instantiations.ByKey = make(map[string]*ir.Instantiation)
	}
	if cached, ok := mod.Instantiations.ByKey[key]; ok {
		inst, ok := cached.Payload.(*Instantiation)
		if !ok {
			return nil, fmt.Errorf("instantiate: corrupt cache entry for %q", key)
		}
		return inst, nil
	}

	inst, err := ins.run(mod, modID, args)
	if err != nil {
		return nil, err
	}
	mod.Instantiations.ByKey[key] = &ir.Instantiation{TemplateArgsKey: key, Payload: inst}
	return inst, nil
}
