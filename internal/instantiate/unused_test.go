package instantiate

import (
	"testing"

	"github.com/VonTum/sus-compiler/internal/ir"
)

// TestUnusedWarningsFlagsUnreachedDeclaration builds an Instantiation by
// hand with two declared wires: "live" feeds the sole output port, "dead"
// feeds nothing. UnusedWarnings should flag only "dead".
func TestUnusedWarningsFlagsUnreachedDeclaration(t *testing.T) {
	mod := &ir.Module{}
	liveDecl := mod.Instructions.Alloc(ir.Instruction{
		Kind:        ir.InstrDeclaration,
		Declaration: ir.Declaration{Name: "live"},
	})
	deadDecl := mod.Instructions.Alloc(ir.Instruction{
		Kind:        ir.InstrDeclaration,
		Declaration: ir.Declaration{Name: "dead"},
	})

	inst := &Instantiation{}
	liveWire := inst.Wires.Alloc(ir.RealWire{
		Name:   "live",
		Origin: liveDecl,
		Source: ir.RealWireDataSource{Kind: ir.SourceMultiplexer},
	})
	inst.Wires.Alloc(ir.RealWire{
		Name:   "dead",
		Origin: deadDecl,
		Source: ir.RealWireDataSource{Kind: ir.SourceMultiplexer},
	})
	inst.InterfacePorts = map[ir.PortID]PortBinding{
		ir.PortIDFromIndex(0): {Wire: liveWire, IsInput: false},
	}

	warnings := UnusedWarnings(mod, inst)
	if len(warnings) != 1 {
		t.Fatalf("expected exactly 1 warning, got %d: %+v", len(warnings), warnings)
	}
	if warnings[0].Message != `"dead" is never read` {
		t.Fatalf("unexpected message: %q", warnings[0].Message)
	}
}

// TestUnusedWarningsFollowsOperandChains confirms a wire reached only
// transitively (through a binary op feeding the output) is not flagged.
func TestUnusedWarningsFollowsOperandChains(t *testing.T) {
	mod := &ir.Module{}
	aDecl := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrDeclaration, Declaration: ir.Declaration{Name: "a"}})
	bDecl := mod.Instructions.Alloc(ir.Instruction{Kind: ir.InstrDeclaration, Declaration: ir.Declaration{Name: "b"}})

	inst := &Instantiation{}
	aWire := inst.Wires.Alloc(ir.RealWire{Name: "a", Origin: aDecl, Source: ir.RealWireDataSource{Kind: ir.SourceReadOnly}})
	bWire := inst.Wires.Alloc(ir.RealWire{Name: "b", Origin: bDecl, Source: ir.RealWireDataSource{Kind: ir.SourceReadOnly}})
	sum := inst.Wires.Alloc(ir.RealWire{
		Name:   "",
		Source: ir.RealWireDataSource{Kind: ir.SourceBinaryOp, Left: aWire, Right: bWire, Op: "+"},
	})
	inst.InterfacePorts = map[ir.PortID]PortBinding{
		ir.PortIDFromIndex(0): {Wire: sum, IsInput: false},
	}

	warnings := UnusedWarnings(mod, inst)
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", warnings)
	}
}
