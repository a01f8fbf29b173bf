package latency

import (
	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/instantiate"
	"github.com/VonTum/sus-compiler/internal/ir"
)

// Counter runs latency counting over a tree of instantiations, bottom-up:
// a sub-module's ports must already carry a finite absolute_latency
// before its caller's graph can place the two-way port-pair edges. One
// Counter is bound to the same linker/instantiator the rest of the
// pipeline used.
type Counter struct {
	inst *instantiate.Instantiator
}

// NewCounter returns a Counter driving off ins (for resolving sub-module
// callee modules and their cached instantiations).
func NewCounter(ins *instantiate.Instantiator) *Counter {
	return &Counter{inst: ins}
}

// CountAll latency-counts target and, recursively, every sub-module
// instantiation it depends on that hasn't been counted yet, writing
// AbsoluteLatency/NeededUntil onto each RealWire in place and appending
// any LatencyCountingError as a diag.Diagnostic to the instantiation's
// own Errors collector.
func (c *Counter) CountAll(target *instantiate.Instantiation) error {
	if target.LatencyCounted {
		return nil
	}

	link := c.inst.Linker()
	for _, h := range target.SubModules.AllHandles() {
		sm := target.SubModules.Get(h)
		callee := link.Modules.Get(sm.Module)
		if callee == nil {
			continue
		}
		childInst, ok := instantiate.CachedInstantiation(callee, nil)
		if !ok {
			continue
		}
		if err := c.CountAll(childInst); err != nil {
			return err
		}
	}

	lookup := func(modID ir.ModuleID, args []ir.Value, port ir.PortID) (int64, bool) {
		callee := link.Modules.Get(modID)
		if callee == nil {
			return 0, false
		}
		childInst, ok := instantiate.CachedInstantiation(callee, args)
		if !ok {
			return 0, false
		}
		binding, ok := childInst.InterfacePorts[port]
		if !ok || binding.AbsoluteLatency == ir.CalculateLater {
			return 0, false
		}
		return binding.AbsoluteLatency, true
	}

	g := BuildGraph(target, lookup)

	var seeds []Seed
	for _, h := range target.Wires.AllHandles() {
		w := target.Wires.Get(h)
		if w.HasSpecified {
			seeds = append(seeds, Seed{Wire: h, Latency: w.SpecifiedLatency})
		}
	}

	dist, lcErr := Solve(g, seeds)
	if lcErr != nil {
		target.Errors.Append(toDiagnostic(lcErr))
		return nil
	}

	for _, h := range target.Wires.AllHandles() {
		w := target.Wires.Get(h)
		lat, ok := dist[h]
		if !ok {
			// Unreached by any seed: a purely-internal dead wire (no
			// fanout toward any output), harmless to leave pending; the
			// unused-variable lint (internal/instantiate.UnusedWarnings)
			// is what flags it, not latency counting.
			continue
		}
		w.AbsoluteLatency = lat
	}
	computeNeededUntil(g, dist)

	for port, binding := range target.InterfacePorts {
		if lat, ok := dist[binding.Wire]; ok {
			binding.AbsoluteLatency = lat
			target.InterfacePorts[port] = binding
		}
	}

	target.LatencyCounted = true
	return nil
}

// computeNeededUntil sets needed_until[w] = max(absolute_latency[w], max
// over fanout t: absolute_latency[t]), the last cycle w's value must be
// held.
func computeNeededUntil(g *Graph, dist map[ir.WireID]int64) {
	for _, h := range g.AllWires() {
		w := g.Wires.Get(h)
		own, ok := dist[h]
		if !ok {
			continue
		}
		needed := own
		for _, e := range g.Fanout[h] {
			if t, ok := dist[e.To]; ok && t > needed {
				needed = t
			}
		}
		w.NeededUntil = needed
	}
}

func toDiagnostic(e *LatencyCountingError) diag.Diagnostic {
	switch e.Kind {
	case NetPositiveLatencyCycle:
		return diag.Diagnostic{
			Level:   diag.Error,
			Kind:    diag.KindNetPositiveCycle,
			Message: e.Error(),
		}
	case IndeterminablePortLatency:
		return diag.Diagnostic{
			Level:   diag.Error,
			Kind:    diag.KindIndeterminablePort,
			Message: e.Error(),
		}
	default:
		return diag.Diagnostic{
			Level:   diag.Error,
			Kind:    diag.KindConflictingSpecifiedLat,
			Message: e.Error(),
		}
	}
}
