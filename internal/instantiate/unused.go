package instantiate

import (
	"fmt"

	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/ir"
)

// UnusedWarnings is the unused-variable lint: a backward reachability
// sweep over the concrete wire graph starting from every output-port wire
// and every submodule input-port wire, flagging any locally-declared wire
// the sweep never reaches. It needs only the instantiated wire graph, not
// its latencies; cmd/hdlc runs it right after instantiation, before
// latency counting (mod resolves Origin flat IDs back to their declaring
// span).
func UnusedWarnings(mod *ir.Module, inst *Instantiation) []diag.Diagnostic {
	reached := make(map[ir.WireID]bool)
	var queue []ir.WireID

	for _, binding := range inst.InterfacePorts {
		if !binding.IsInput {
			queue = append(queue, binding.Wire)
		}
	}

	outPortOf := make(map[ir.SubModuleID]map[ir.PortID]bool)
	for _, h := range inst.Wires.AllHandles() {
		w := inst.Wires.Get(h)
		if w.Source.Kind == ir.SourceOutPort {
			if outPortOf[w.Source.SubModule] == nil {
				outPortOf[w.Source.SubModule] = make(map[ir.PortID]bool)
			}
			outPortOf[w.Source.SubModule][w.Source.Port] = true
		}
	}
	for smh, sm := range allSubModules(inst) {
		for port, wire := range sm.PortMap {
			if !outPortOf[smh][port] {
				queue = append(queue, wire)
			}
		}
	}

	for len(queue) > 0 {
		h := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if reached[h] {
			continue
		}
		reached[h] = true
		for _, dep := range fanin(inst, h) {
			if !reached[dep] {
				queue = append(queue, dep)
			}
		}
	}

	var out []diag.Diagnostic
	for _, h := range inst.Wires.AllHandles() {
		if reached[h] {
			continue
		}
		w := inst.Wires.Get(h)
		if w.Name == "" {
			continue
		}
		instr := mod.Instructions.Get(w.Origin)
		if instr == nil || instr.Kind != ir.InstrDeclaration {
			continue
		}
		out = append(out, diag.Diagnostic{
			Level:   diag.Warning,
			Kind:    diag.KindUnusedVariable,
			Span:    instr.Declaration.Span,
			Message: fmt.Sprintf("%q is never read", w.Name),
		})
	}
	return out
}

func allSubModules(inst *Instantiation) map[ir.SubModuleID]ir.SubModule {
	out := make(map[ir.SubModuleID]ir.SubModule)
	for _, h := range inst.SubModules.AllHandles() {
		out[h] = *inst.SubModules.Get(h)
	}
	return out
}

// fanin lists the wires h directly depends on, the same edges
// internal/latency.BuildGraph installs (duplicated rather than imported:
// latency already imports this package for Instantiation/PortBinding, so
// the reverse import would cycle).
func fanin(inst *Instantiation, h ir.WireID) []ir.WireID {
	w := inst.Wires.Get(h)
	var deps []ir.WireID
	switch w.Source.Kind {
	case ir.SourceSelect:
		deps = append(deps, w.Source.SelectRoot)
		for _, step := range w.Source.SelectPath {
			if !step.IsConstant {
				deps = append(deps, step.Idx)
			}
		}
	case ir.SourceUnaryOp:
		deps = append(deps, w.Source.Right)
	case ir.SourceBinaryOp:
		deps = append(deps, w.Source.Left, w.Source.Right)
	case ir.SourceMultiplexer:
		for _, src := range w.Source.MuxSources {
			deps = append(deps, src.From)
			if src.HasCond {
				deps = append(deps, src.Condition)
			}
			for _, step := range src.Path {
				if !step.IsConstant {
					deps = append(deps, step.Idx)
				}
			}
		}
	}
	return deps
}
