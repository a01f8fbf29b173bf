package latency

import (
	"testing"

	"github.com/VonTum/sus-compiler/internal/ir"
)

// buildTestGraph constructs a Graph directly over n wires with the given
// edges, bypassing BuildGraph/instantiate.Instantiation, so the solver's
// Bellman-Ford mechanics can be tested in isolation.
func buildTestGraph(n int, edges []Edge) (*Graph, []ir.WireID) {
	var wires ir.WireArena
	ids := make([]ir.WireID, n)
	for i := 0; i < n; i++ {
		ids[i] = wires.Alloc(ir.RealWire{Name: string(rune('a' + i)), AbsoluteLatency: ir.CalculateLater})
	}
	g := &Graph{Wires: &wires, Fanin: make(map[ir.WireID][]Edge), Fanout: make(map[ir.WireID][]Edge)}
	for _, e := range edges {
		g.Fanin[e.To] = append(g.Fanin[e.To], e)
		g.Fanout[e.From] = append(g.Fanout[e.From], e)
	}
	return g, ids
}

func TestSolveCombinatorialChain(t *testing.T) {
	g, w := buildTestGraph(3, nil)
	g.Inputs = []ir.WireID{w[0]}
	g.Outputs = []ir.WireID{w[2]}
	g.Fanin[w[1]] = []Edge{{From: w[0], To: w[1], Delta: 0}}
	g.Fanout[w[0]] = []Edge{{From: w[0], To: w[1], Delta: 0}}
	g.Fanin[w[2]] = []Edge{{From: w[1], To: w[2], Delta: 0}}
	g.Fanout[w[1]] = append(g.Fanout[w[1]], Edge{From: w[1], To: w[2], Delta: 0})

	dist, errLC := Solve(g, nil)
	if errLC != nil {
		t.Fatalf("unexpected error: %v", errLC)
	}
	for _, id := range w {
		if dist[id] != 0 {
			t.Fatalf("expected all-zero latency on a combinatorial chain, got %v", dist)
		}
	}
}

func TestSolveOneRegisterPipeline(t *testing.T) {
	g, w := buildTestGraph(2, nil)
	g.Inputs = []ir.WireID{w[0]}
	g.Outputs = []ir.WireID{w[1]}
	e := Edge{From: w[0], To: w[1], Delta: 1, IsRegister: true}
	g.Fanin[w[1]] = []Edge{e}
	g.Fanout[w[0]] = []Edge{e}

	dist, errLC := Solve(g, nil)
	if errLC != nil {
		t.Fatalf("unexpected error: %v", errLC)
	}
	if dist[w[0]] != 0 || dist[w[1]] != 1 {
		t.Fatalf("expected x=0, y=1, got %v", dist)
	}
}

func TestSolveNetPositiveCycleRejected(t *testing.T) {
	g, w := buildTestGraph(1, nil)
	e := Edge{From: w[0], To: w[0], Delta: 1, IsRegister: true}
	g.Fanin[w[0]] = []Edge{e}
	g.Fanout[w[0]] = []Edge{e}

	_, errLC := Solve(g, nil)
	if errLC == nil {
		t.Fatalf("expected a net-positive-latency-cycle error")
	}
	if errLC.Kind != NetPositiveLatencyCycle {
		t.Fatalf("expected NetPositiveLatencyCycle, got %v", errLC.Kind)
	}
	if errLC.NetRoundtripLatency <= 0 {
		t.Fatalf("expected a positive round-trip latency, got %d", errLC.NetRoundtripLatency)
	}
}

func TestSolveConflictingSpecifiedLatencies(t *testing.T) {
	g, w := buildTestGraph(2, nil)
	g.Inputs = []ir.WireID{w[0]}
	g.Outputs = []ir.WireID{w[1]}
	e := Edge{From: w[0], To: w[1], Delta: 1, IsRegister: true}
	g.Fanin[w[1]] = []Edge{e}
	g.Fanout[w[0]] = []Edge{e}

	_, errLC := Solve(g, []Seed{{Wire: w[0], Latency: 0}, {Wire: w[1], Latency: 0}})
	if errLC == nil {
		t.Fatalf("expected a conflicting-specified-latencies error")
	}
	if errLC.Kind != ConflictingSpecifiedLatencies {
		t.Fatalf("expected ConflictingSpecifiedLatencies, got %v", errLC.Kind)
	}
}

// TestSolveConflictingSpecifiedLatenciesReverseDirection covers the
// direction the forced-value check used to miss: a fixed wire whose
// specified latency is higher than what a path into it forces must
// conflict too, not just the already-tested "forces higher" direction.
func TestSolveConflictingSpecifiedLatenciesReverseDirection(t *testing.T) {
	g, w := buildTestGraph(2, nil)
	g.Inputs = []ir.WireID{w[0]}
	g.Outputs = []ir.WireID{w[1]}
	e := Edge{From: w[0], To: w[1], Delta: 1, IsRegister: true}
	g.Fanin[w[1]] = []Edge{e}
	g.Fanout[w[0]] = []Edge{e}

	_, errLC := Solve(g, []Seed{{Wire: w[0], Latency: 0}, {Wire: w[1], Latency: 5}})
	if errLC == nil {
		t.Fatalf("expected a conflicting-specified-latencies error when the forced value undershoots a fixed wire")
	}
	if errLC.Kind != ConflictingSpecifiedLatencies {
		t.Fatalf("expected ConflictingSpecifiedLatencies, got %v", errLC.Kind)
	}
}

func TestSolveUnreachableOutputIsIndeterminable(t *testing.T) {
	g, w := buildTestGraph(2, nil)
	g.Inputs = []ir.WireID{w[0]}
	g.Outputs = []ir.WireID{w[1]} // no edge ever connects w[1] to w[0]

	_, errLC := Solve(g, nil)
	if errLC == nil || errLC.Kind != IndeterminablePortLatency {
		t.Fatalf("expected IndeterminablePortLatency, got %v", errLC)
	}
}
