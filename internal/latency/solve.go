package latency

import (
	"sort"

	"github.com/VonTum/sus-compiler/internal/ir"
)

// Seed is one user-specified absolute latency feeding the solver: any
// wire carrying a latency specifier contributes one.
type Seed struct {
	Wire    ir.WireID
	Latency int64
}

// solveState is the mutable bookkeeping one Solve call threads through
// Bellman-Ford relaxation: distance, whether a wire's distance is pinned
// by a user specifier, and the edge that last produced each distance (to
// reconstruct a diagnostic path).
type solveState struct {
	dist  map[ir.WireID]int64
	fixed map[ir.WireID]bool
	pred  map[ir.WireID]Edge
	names map[ir.WireID]string
}

// Solve assigns absolute_latency to every wire in g: Bellman-Ford
// longest-path with an early-exit cycle report, seeded from
// specified-latency wires, followed by an independent check that every
// port's absolute latency is uniquely determined.
func Solve(g *Graph, seeds []Seed) (map[ir.WireID]int64, *LatencyCountingError) {
	st := &solveState{
		dist:  make(map[ir.WireID]int64),
		fixed: make(map[ir.WireID]bool),
		pred:  make(map[ir.WireID]Edge),
		names: wireNames(g),
	}

	// Seed every wire at 0, the equivalent of a virtual source with a
	// zero-weight edge to each node: this is what lets Bellman-Ford
	// detect a net-positive cycle even when it involves no interface
	// port at all (a free-running state register), and it gives input
	// ports (and every other otherwise-unconstrained wire) their default
	// absolute_latency of 0.
	for _, w := range g.AllWires() {
		st.dist[w] = 0
	}
	for _, s := range seeds {
		st.dist[s.Wire] = s.Latency
		st.fixed[s.Wire] = true
	}

	edges := allEdgesSorted(g)
	nWires := len(g.AllWires())

	var conflict *LatencyCountingError
	relax := func() bool {
		changed := false
		for _, e := range edges {
			u, ok := st.dist[e.From]
			if !ok {
				continue
			}
			nv := u + e.Delta
			cur, has := st.dist[e.To]
			if st.fixed[e.To] {
				// A fixed wire's distance must never move, in either
				// direction: both nv > cur and nv < cur mean some other
				// path demands a different absolute latency than the
				// user specified.
				if has && nv != cur {
					if conflict == nil {
						conflict = buildSpecifiedConflict(st, e, nv)
					}
				}
				continue
			}
			if has && nv <= cur {
				continue
			}
			st.dist[e.To] = nv
			st.pred[e.To] = e
			changed = true
		}
		return changed
	}

	for i := 0; i < nWires; i++ {
		if !relax() {
			break
		}
		if i == nWires-1 {
			// A further relaxation was still possible on the Nth pass:
			// a net-positive-latency cycle exists.
			return nil, buildCycleError(st, edges)
		}
	}
	if conflict != nil {
		return nil, conflict
	}

	if err := checkPortsDetermined(g, seeds); err != nil {
		return nil, err
	}

	return st.dist, nil
}

// wireNames resolves each wire's stable name for path rendering, falling
// back to its handle string when the RealWire carries no name (an
// intermediate operator/select wire).
func wireNames(g *Graph) map[ir.WireID]string {
	out := make(map[ir.WireID]string)
	for _, h := range g.AllWires() {
		w := g.Wires.Get(h)
		if w.Name != "" {
			out[h] = w.Name
		} else {
			out[h] = h.String()
		}
	}
	return out
}

func allEdgesSorted(g *Graph) []Edge {
	var edges []Edge
	for _, es := range g.Fanin {
		edges = append(edges, es...)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From.Index() != edges[j].From.Index() {
			return edges[i].From.Index() < edges[j].From.Index()
		}
		return edges[i].To.Index() < edges[j].To.Index()
	})
	return edges
}

func buildSpecifiedConflict(st *solveState, e Edge, forced int64) *LatencyCountingError {
	path := tracePath(st, e.From)
	path = append(path, Stop{Wire: e.To, Name: st.names[e.To], Latency: forced})
	return &LatencyCountingError{
		Kind:                  ConflictingSpecifiedLatencies,
		SpecifiedConflictPath: path,
		ConflictWire:          e.To,
		ForcedLatency:         forced,
		SpecifiedLatency:      st.dist[e.To],
	}
}

// buildCycleError walks the predecessor chain from an arbitrary still-
// relaxable edge back to its own start to recover the cycle, preferring
// to anchor the diagnostic on a register-carrying edge over a plain
// write.
func buildCycleError(st *solveState, edges []Edge) *LatencyCountingError {
	// Find an edge that can still relax: guaranteed to exist since Solve
	// only calls this after observing one on the Nth pass.
	var cycleEdge Edge
	for _, e := range edges {
		u, ok := st.dist[e.From]
		if !ok || st.fixed[e.To] {
			continue
		}
		if nv := u + e.Delta; nv > st.dist[e.To] {
			cycleEdge = e
			break
		}
	}

	visited := map[ir.WireID]bool{cycleEdge.To: true}
	var chain []Edge
	cur := cycleEdge.From
	for {
		if visited[cur] {
			break
		}
		visited[cur] = true
		p, ok := st.pred[cur]
		if !ok {
			break
		}
		chain = append(chain, p)
		cur = p.From
	}
	// Reverse chain into forward order and close the loop with cycleEdge.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	chain = append(chain, cycleEdge)

	var path Path
	var total int64
	regOrigin := ir.NoFlatID()
	writeOrigin := ir.NoFlatID()
	for _, e := range chain {
		total += e.Delta
		path = append(path, Stop{Wire: e.From, Name: st.names[e.From], Latency: st.dist[e.From]})
		if e.IsRegister && e.HasOrigin && !regOrigin.Valid() {
			regOrigin = e.Origin
		}
		if e.HasOrigin && !writeOrigin.Valid() {
			writeOrigin = e.Origin
		}
	}
	if len(chain) > 0 {
		last := chain[len(chain)-1]
		path = append(path, Stop{Wire: last.To, Name: st.names[last.To], Latency: st.dist[last.To] + last.Delta})
	}

	origin := regOrigin
	if !origin.Valid() {
		origin = writeOrigin
	}
	return &LatencyCountingError{
		Kind:                NetPositiveLatencyCycle,
		ConflictPath:        path,
		NetRoundtripLatency: total,
		RegisterOrigin:      origin,
	}
}

func tracePath(st *solveState, w ir.WireID) Path {
	var stops []Stop
	cur := w
	seen := map[ir.WireID]bool{}
	for {
		if seen[cur] {
			break
		}
		seen[cur] = true
		stops = append([]Stop{{Wire: cur, Name: st.names[cur], Latency: st.dist[cur]}}, stops...)
		p, ok := st.pred[cur]
		if !ok {
			break
		}
		cur = p.From
	}
	return stops
}

// checkPortsDetermined requires every output port to be reachable, via
// real (non-virtual) structural edges, from some input port or a
// user-specified latency; otherwise its relative timing to the rest of
// the interface is arbitrary and IndeterminablePortLatency is reported. This is a
// pure graph-reachability check, deliberately independent of the
// virtual-source distances Solve uses for cycle detection: those give
// every wire a default of 0, which would otherwise mask a genuinely
// disconnected port.
func checkPortsDetermined(g *Graph, seeds []Seed) *LatencyCountingError {
	reached := make(map[ir.WireID]bool, len(g.AllWires()))
	var frontier []ir.WireID
	for _, in := range g.Inputs {
		if !reached[in] {
			reached[in] = true
			frontier = append(frontier, in)
		}
	}
	for _, s := range seeds {
		if !reached[s.Wire] {
			reached[s.Wire] = true
			frontier = append(frontier, s.Wire)
		}
	}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		for _, e := range g.Fanout[cur] {
			if !reached[e.To] {
				reached[e.To] = true
				frontier = append(frontier, e.To)
			}
		}
	}

	var bad []ir.WireID
	for _, p := range g.Outputs {
		if !reached[p] {
			bad = append(bad, p)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return &LatencyCountingError{Kind: IndeterminablePortLatency, BadPorts: bad}
}
