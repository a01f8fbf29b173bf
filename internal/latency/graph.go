// Package latency assigns pipeline timestamps: given a concrete wire
// graph with per-edge register counts, it computes an integer
// absolute_latency for every wire such that combinatorial edges preserve
// ordering and registered edges advance time, detecting infeasible
// cycles and ambiguous port latencies along the way. The problem is
// longest-path over a graph with positive and negative edge weights but
// no net-positive cycle allowed.
package latency

import (
	"sort"

	"github.com/VonTum/sus-compiler/internal/instantiate"
	"github.com/VonTum/sus-compiler/internal/ir"
)

// Edge is one weighted directed edge of the latency graph: sink's
// absolute latency must be at least source's plus Delta.
// A combinatorial connection has Delta 0; a register adds 1 per stage.
type Edge struct {
	From, To ir.WireID
	Delta    int64
	// Origin is the originating Write's FlatID, meaningful only when
	// HasOrigin is set (edges synthesized from plain structural dataflow
	// — operator operands, select roots — carry no origin; the zero
	// ir.FlatID is itself a valid handle, so a bool flag disambiguates,
	// matching ir.MultiplexerSource.HasCond's convention). Cycle
	// diagnostics prefer register-annotation sites over plain writes when
	// both appear on the cycle.
	Origin     ir.FlatID
	HasOrigin  bool
	IsRegister bool
}

// Graph is the adjacency-list view of one instantiation's wire graph that
// Solve operates over. Built once per instantiation by BuildGraph.
type Graph struct {
	Wires   *ir.WireArena
	Fanin   map[ir.WireID][]Edge
	Fanout  map[ir.WireID][]Edge
	Inputs  []ir.WireID // this instantiation's own input-port wires
	Outputs []ir.WireID // this instantiation's own output-port wires
}

// PortLatencyLookup resolves the precomputed absolute latency of one port
// of an already latency-counted callee instantiation.
type PortLatencyLookup func(mod ir.ModuleID, args []ir.Value, port ir.PortID) (latency int64, ok bool)

// BuildGraph walks inst's wire arena and sub-module records, producing
// the weighted graph Solve consumes. portLatency resolves callee port
// latencies; pass a lookup backed by already-counted instantiations,
// since sub-modules must be counted bottom-up (Counter.CountAll).
func BuildGraph(inst *instantiate.Instantiation, portLatency PortLatencyLookup) *Graph {
	g := &Graph{
		Wires:  &inst.Wires,
		Fanin:  make(map[ir.WireID][]Edge),
		Fanout: make(map[ir.WireID][]Edge),
	}

	addEdge := func(e Edge) {
		g.Fanin[e.To] = append(g.Fanin[e.To], e)
		g.Fanout[e.From] = append(g.Fanout[e.From], e)
	}

	for _, h := range inst.Wires.AllHandles() {
		w := inst.Wires.Get(h)
		switch w.Source.Kind {
		case ir.SourceConstant, ir.SourceReadOnly:
			// No fanin: these are graph sources.

		case ir.SourceOutPort:
			// No direct fanin edge here; the submodule port-pair edges
			// below connect it to the submodule's input-port wires.

		case ir.SourceSelect:
			addEdge(Edge{From: w.Source.SelectRoot, To: h, Delta: 0})
			for _, step := range w.Source.SelectPath {
				if step.IsConstant {
					continue
				}
				addEdge(Edge{From: step.Idx, To: h, Delta: 0})
			}

		case ir.SourceUnaryOp:
			addEdge(Edge{From: w.Source.Right, To: h, Delta: 0})

		case ir.SourceBinaryOp:
			addEdge(Edge{From: w.Source.Left, To: h, Delta: 0})
			addEdge(Edge{From: w.Source.Right, To: h, Delta: 0})

		case ir.SourceMultiplexer:
			for _, src := range w.Source.MuxSources {
				addEdge(Edge{
					From: src.From, To: h, Delta: int64(src.NumRegs),
					Origin: src.OriginWrite, HasOrigin: true, IsRegister: src.NumRegs > 0,
				})
				if src.HasCond {
					addEdge(Edge{From: src.Condition, To: h, Delta: 0})
				}
				for _, step := range src.Path {
					if !step.IsConstant {
						addEdge(Edge{From: step.Idx, To: h, Delta: 0})
					}
				}
			}
		}
	}

	for _, h := range inst.SubModules.AllHandles() {
		sm := inst.SubModules.Get(h)
		type portWire struct {
			port  ir.PortID
			wire  ir.WireID
			lat   int64
			input bool
		}
		var portWires []portWire
		for port, wire := range sm.PortMap {
			lat, ok := portLatency(sm.Module, nil, port)
			if !ok {
				continue
			}
			// IsInput is recovered from the callee module by the caller
			// of BuildGraph via portLatency's lookup table; BuildGraph
			// itself only needs the two port kinds paired up, so it asks
			// portLatency to tell input-ness too by checking whether the
			// same port also appears reachable as an out-port source on
			// some wire in this instantiation (an OutPort wire records
			// its own port, so we can classify directly from Wires).
			portWires = append(portWires, portWire{port: port, wire: wire, lat: lat})
		}
		// Classify input vs output ports by whether any wire in this
		// instantiation names (sm, port) as its SourceOutPort: such ports
		// are outputs, everything else bound in PortMap is an input.
		outPorts := make(map[ir.PortID]bool)
		for _, wh := range inst.Wires.AllHandles() {
			ww := inst.Wires.Get(wh)
			if ww.Source.Kind == ir.SourceOutPort && ww.Source.SubModule == h {
				outPorts[ww.Source.Port] = true
			}
		}
		for i := range portWires {
			portWires[i].input = !outPorts[portWires[i].port]
		}

		for _, in := range portWires {
			if !in.input {
				continue
			}
			for _, out := range portWires {
				if out.input {
					continue
				}
				delta := out.lat - in.lat
				addEdge(Edge{From: in.wire, To: out.wire, Delta: delta})
				addEdge(Edge{From: out.wire, To: in.wire, Delta: -delta})
			}
		}
	}

	for _, binding := range inst.InterfacePorts {
		if binding.IsInput {
			g.Inputs = append(g.Inputs, binding.Wire)
		} else {
			g.Outputs = append(g.Outputs, binding.Wire)
		}
	}
	sort.Slice(g.Inputs, func(i, j int) bool { return g.Inputs[i].Index() < g.Inputs[j].Index() })
	sort.Slice(g.Outputs, func(i, j int) bool { return g.Outputs[i].Index() < g.Outputs[j].Index() })

	return g
}

// AllWires returns every wire handle in deterministic (allocation) order;
// tie-breaks throughout the solver follow this order so diagnostic output
// is reproducible.
func (g *Graph) AllWires() []ir.WireID {
	return g.Wires.AllHandles()
}
