package latency

import (
	"fmt"
	"strings"

	"github.com/VonTum/sus-compiler/internal/ir"
)

// Stop is one `name'latency` hop in a diagnostic path.
type Stop struct {
	Wire    ir.WireID
	Name    string
	Latency int64
}

// Path is the ordered sequence of stops a LatencyCountingError points at.
// String renders the `name'latency -> name'latency` form diagnostics
// print.
type Path []Stop

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = fmt.Sprintf("%s'%d", s.Name, s.Latency)
	}
	return strings.Join(parts, " -> ")
}

// ErrorKind tags which of the three LatencyCountingError subclasses
// occurred.
type ErrorKind int

const (
	NetPositiveLatencyCycle ErrorKind = iota
	IndeterminablePortLatency
	ConflictingSpecifiedLatencies
)

// LatencyCountingError is the result Solve returns on failure.
type LatencyCountingError struct {
	Kind ErrorKind

	// NetPositiveLatencyCycle fields.
	ConflictPath        Path
	NetRoundtripLatency int64
	// RegisterOrigin is the originating FlatID the diagnostic points at:
	// the first register-carrying write on the cycle, or, if the cycle is
	// purely combinatorial writes, the first write on it.
	RegisterOrigin ir.FlatID

	// ConflictingSpecifiedLatencies fields: the path from the seed that
	// forced a value (e.g. a'0 -> b'1), the wire it conflicts at, and
	// both the forced and user-written latencies there.
	SpecifiedConflictPath Path
	ConflictWire          ir.WireID
	ForcedLatency         int64
	SpecifiedLatency      int64

	// BadPorts: the output-port wires (or, for a mutually-unreachable
	// pair, both ports) whose latency could not be pinned down
	// (IndeterminablePortLatency).
	BadPorts []ir.WireID
}

func (e *LatencyCountingError) Error() string {
	switch e.Kind {
	case NetPositiveLatencyCycle:
		return fmt.Sprintf("net-positive latency cycle (round trip %+d): %s", e.NetRoundtripLatency, e.ConflictPath)
	case IndeterminablePortLatency:
		return fmt.Sprintf("indeterminable port latency at %v", e.BadPorts)
	default:
		return fmt.Sprintf("conflicting specified latencies: %s", e.SpecifiedConflictPath)
	}
}
