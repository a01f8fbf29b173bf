// Package ir holds the flat intermediate representation shared by the
// linker, flattener, typer and instantiator: the arena-keyed global and
// per-module entities every stage operates over.
package ir

import "github.com/VonTum/sus-compiler/internal/arena"

// Phantom markers, one per arena kind, so a handle from one arena can
// never be mistaken for a handle into another.
type (
	moduleMark            struct{}
	typeMark              struct{}
	constantMark          struct{}
	flatMark              struct{}
	wireMark              struct{}
	portMark              struct{}
	domainMark            struct{}
	interfaceMark         struct{}
	templateMark          struct{}
	fieldMark             struct{}
	typeVarMark           struct{}
	domainVarMark         struct{}
	concreteTypeVarMark   struct{}
	subModuleMark         struct{}
)

type (
	ModuleID          = arena.Handle[moduleMark]
	TypeID            = arena.Handle[typeMark]
	ConstantID        = arena.Handle[constantMark]
	FlatID            = arena.Handle[flatMark]
	WireID            = arena.Handle[wireMark]
	PortID            = arena.Handle[portMark]
	DomainID          = arena.Handle[domainMark]
	InterfaceID       = arena.Handle[interfaceMark]
	TemplateID        = arena.Handle[templateMark]
	FieldID           = arena.Handle[fieldMark]
	TypeVarID         = arena.Handle[typeVarMark]
	DomainVarID       = arena.Handle[domainVarMark]
	ConcreteTypeVarID = arena.Handle[concreteTypeVarMark]
	SubModuleID       = arena.Handle[subModuleMark]
)

// FlatRange and PortRange denote contiguous blocks of handles: an
// interface's input-port block, an if/else body.
type (
	FlatRange = arena.Range[flatMark]
	PortRange = arena.Range[portMark]
)

// Arena aliases exported so other packages (linker) can hold arenas of
// these kinds without reaching into the unexported phantom marker types.
type (
	ModuleArena   = arena.Arena[moduleMark, Module]
	TypeArena     = arena.Arena[typeMark, NamedType]
	ConstantArena = arena.Arena[constantMark, NamedConstant]
	FileArena     = arena.Arena[fileMark, FileRecord]
)

type fileMark struct{}

// FileRecord is what the linker attaches to a reserved file: the set of
// names the file owns, so RemoveEverythingInFile can prune them.
type FileRecord struct {
	Parsed bool
	Owned  []string
}

// HandleFromFileID converts a source.FileID (as an int) to its owning
// arena.Handle[fileMark]; FileID and the handle share the same
// integer space because ReserveFile (in internal/linker) is the only way
// to produce either.
func HandleFromFileID(id int) arena.Handle[fileMark] {
	return arena.FromIndex[fileMark](id)
}

// NoFlatID is the Placeholder FlatID meaning "absent": used for
// Declaration.LatencySpec and WrittenTypeExpr.Size when no generative
// expression was written. Distinct from the arena's zero value, which
// would otherwise alias handle #0.
func NoFlatID() FlatID {
	return arena.Placeholder[flatMark]()
}

// NoDomainID is the Placeholder DomainID meaning "no domain": a
// generative-only interface has no physical clock domain to bind.
// Distinct from the arena's zero value, which would otherwise alias
// domain handle #0.
func NoDomainID() DomainID {
	return arena.Placeholder[domainMark]()
}

// TypeVarIDFromIndex and DomainVarIDFromIndex let internal/typing keep its
// own parallel int-indexed cell slices (one per HM substitutor) and mint
// matching handles, since the marker types gating these arenas are
// unexported and otherwise unreachable outside this package.
func TypeVarIDFromIndex(i int) TypeVarID {
	return arena.FromIndex[typeVarMark](i)
}

func DomainVarIDFromIndex(i int) DomainVarID {
	return arena.FromIndex[domainVarMark](i)
}

// PortIDFromIndex mints a PortID for a known-valid index, used by
// internal/instantiate to walk a PortRange positionally when binding call
// arguments or a single-output call's result.
func PortIDFromIndex(i int) PortID {
	return arena.FromIndex[portMark](i)
}

// FlatIDFromIndex mints a FlatID for a known-valid index, used by
// internal/instantiate to step through a FlatRange by hand.
func FlatIDFromIndex(i int) FlatID {
	return arena.FromIndex[flatMark](i)
}

// WholeBody returns the FlatRange covering every instruction in mod, the
// range internal/instantiate's executor walks in order at the top level.
func WholeBody(mod *Module) FlatRange {
	return FlatRange{Start: arena.FromIndex[flatMark](0), End: arena.FromIndex[flatMark](mod.Instructions.Len())}
}
