package debugdump_test

import (
	"strings"
	"testing"

	"github.com/VonTum/sus-compiler/internal/debugdump"
	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/instantiate"
	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/source"
)

func TestWireTableRendersWiresAndLatencies(t *testing.T) {
	inst := &instantiate.Instantiation{Name: "counter"}
	inst.Wires.Alloc(ir.RealWire{
		Name:            "sum",
		AbsoluteLatency: 1,
		NeededUntil:     1,
		Source:          ir.RealWireDataSource{Kind: ir.SourceMultiplexer},
	})
	inst.Wires.Alloc(ir.RealWire{
		Name:             "unsolved",
		AbsoluteLatency:  ir.CalculateLater,
		NeededUntil:      ir.CalculateLater,
		Source:           ir.RealWireDataSource{Kind: ir.SourceBinaryOp},
	})

	out := debugdump.WireTable(inst)
	if !strings.Contains(out, "sum") || !strings.Contains(out, "multiplexer") {
		t.Fatalf("expected the sum wire rendered with its source kind, got:\n%s", out)
	}
	if !strings.Contains(out, "?") {
		t.Fatalf("expected CalculateLater rendered as '?', got:\n%s", out)
	}
}

func TestSubModuleTableRendersInstances(t *testing.T) {
	inst := &instantiate.Instantiation{Name: "top"}
	inst.SubModules.Alloc(ir.SubModule{Name: "adder0"})

	out := debugdump.SubModuleTable(inst)
	if !strings.Contains(out, "adder0") {
		t.Fatalf("expected the submodule instance name rendered, got:\n%s", out)
	}
}

func TestDiagnosticsTableRendersSortedByPosition(t *testing.T) {
	var errs diag.Collector
	errs.Append(diag.Diagnostic{
		Level: diag.Error, Kind: "net-positive-latency-cycle",
		Span: source.Span{Line: 5, Col: 1}, Message: "cycle",
	})
	errs.Append(diag.Diagnostic{
		Level: diag.Warning, Kind: "indeterminable-port-latency",
		Span: source.Span{Line: 1, Col: 1}, Message: "unreached port",
	})

	out := debugdump.DiagnosticsTable(&errs)
	firstIdx := strings.Index(out, "unreached port")
	secondIdx := strings.Index(out, "cycle")
	if firstIdx == -1 || secondIdx == -1 || firstIdx > secondIdx {
		t.Fatalf("expected diagnostics rendered in span order, got:\n%s", out)
	}
}
