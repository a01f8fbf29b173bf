package ir

import "github.com/VonTum/sus-compiler/internal/arena"

// ---------------------------------------------------------------------
// Concrete (post-instantiation) wire graph. Lives alongside the flat IR
// types because an Instantiation's
// wire arena is keyed by the same WireID handle space Module's other
// arenas use, and internal/instantiate must not own the marker type.
// ---------------------------------------------------------------------

// WireArena and SubModuleArena let internal/instantiate hold arenas of
// these kinds without reaching into the unexported marker types.
type (
	WireArena      = arena.Arena[wireMark, RealWire]
	SubModuleArena = arena.Arena[subModuleMark, SubModule]
)

// RealWireDataSourceKind tags RealWireDataSource's variant.
type RealWireDataSourceKind int

const (
	SourceConstant RealWireDataSourceKind = iota
	SourceReadOnly
	SourceOutPort
	SourceSelect
	SourceUnaryOp
	SourceBinaryOp
	SourceMultiplexer
)

// WireArrayAccess is one array-index step in the concrete wire graph: the
// flat IR's ArrayAccess carries a FlatID index (a generative expression
// still to be evaluated); once instantiated the index is either baked
// into Path as a plain int (generative) or a driving WireID (runtime),
// hence a distinct type from ir.ArrayAccess.
type WireArrayAccess struct {
	Idx        WireID // meaningful iff !IsConstant
	IsConstant bool
	Const      int64
}

// MultiplexerSource is one possible driver of a Multiplexer-sourced wire:
// a destination path, the driving wire, an optional enabling condition
// (conjunction of enclosing runtime-if conditions), the originating
// Write's FlatID, and a register count.
type MultiplexerSource struct {
	Path        []WireArrayAccess
	From        WireID
	Condition   WireID // Placeholder if unconditional.
	HasCond     bool
	OriginWrite FlatID
	NumRegs     int
}

// RealWireDataSource is the right-hand shape of a RealWire.
type RealWireDataSource struct {
	Kind RealWireDataSourceKind

	ConstantValue Value // Kind == SourceConstant

	SubModule SubModuleID // Kind == SourceOutPort
	Port      PortID      // Kind == SourceOutPort

	SelectRoot WireID            // Kind == SourceSelect
	SelectPath []WireArrayAccess // Kind == SourceSelect

	Op    string // Kind == SourceUnaryOp / SourceBinaryOp
	Left  WireID // Kind == SourceBinaryOp
	Right WireID // Kind == SourceUnaryOp / SourceBinaryOp

	IsState       bool     // Kind == SourceMultiplexer
	InitialValue  Value    // Kind == SourceMultiplexer, meaningful iff IsState and an Initial write was seen.
	HasInitial    bool     // Kind == SourceMultiplexer
	MuxSources    []MultiplexerSource // Kind == SourceMultiplexer
}

// CalculateLater is the sentinel latency meaning "latency counting has
// not run, or did not reach this wire".
const CalculateLater = int64(1<<62)

// RealWire is one concrete, post-instantiation wire.
type RealWire struct {
	Type   FullType
	Name   string
	Origin FlatID // the flat instruction this wire was generated from.

	Source RealWireDataSource

	AbsoluteLatency  int64 // CalculateLater until internal/latency solves it.
	NeededUntil      int64
	SpecifiedLatency int64 // CalculateLater if the user wrote no latency annotation.
	HasSpecified     bool
}

// SubModule is one instantiated sub-module record: the resolved callee
// plus the callee-port to caller-wire map code generation consumes.
type SubModule struct {
	Module   ModuleID
	Name     string
	Origin   FlatID
	PortMap  map[PortID]WireID
}
