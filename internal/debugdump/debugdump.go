// Package debugdump renders an Instantiation's wire graph and a
// Collector's diagnostics as go-pretty tables. It is the implementation
// behind cmd/hdlc's -vb flag, a developer debug aid rather than the
// user-facing diagnostic renderer.
package debugdump

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/instantiate"
	"github.com/VonTum/sus-compiler/internal/ir"
)

var sourceKindLabel = map[ir.RealWireDataSourceKind]string{
	ir.SourceConstant:    "constant",
	ir.SourceReadOnly:    "read-only",
	ir.SourceOutPort:     "out-port",
	ir.SourceSelect:      "select",
	ir.SourceUnaryOp:     "unary-op",
	ir.SourceBinaryOp:    "binary-op",
	ir.SourceMultiplexer: "multiplexer",
}

func latencyCell(v int64) string {
	if v == ir.CalculateLater {
		return "?"
	}
	return fmt.Sprintf("%d", v)
}

// WireTable renders one row per wire in inst: its name, origin flat
// instruction, data-source kind, and its three latency fields: the
// specified latency internal/instantiate records from a declaration's
// annotation, and the two values internal/latency assigns.
func WireTable(inst *instantiate.Instantiation) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Wires: %s", inst.Name))
	t.AppendHeader(table.Row{"Wire", "Name", "Origin", "Source", "AbsoluteLatency", "NeededUntil", "SpecifiedLatency"})

	for _, h := range inst.Wires.AllHandles() {
		w := inst.Wires.Get(h)
		name := w.Name
		if name == "" {
			name = "<unnamed>"
		}
		spec := "-"
		if w.HasSpecified {
			spec = latencyCell(w.SpecifiedLatency)
		}
		t.AppendRow(table.Row{
			h.String(),
			name,
			w.Origin.String(),
			sourceKindLabel[w.Source.Kind],
			latencyCell(w.AbsoluteLatency),
			latencyCell(w.NeededUntil),
			spec,
		})
	}

	return t.Render()
}

// SubModuleTable renders one row per instantiated sub-module: its
// instance name, callee module handle, and originating flat instruction.
func SubModuleTable(inst *instantiate.Instantiation) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Submodules: %s", inst.Name))
	t.AppendHeader(table.Row{"Instance", "Name", "Module", "Origin"})

	for _, h := range inst.SubModules.AllHandles() {
		sm := inst.SubModules.Get(h)
		t.AppendRow(table.Row{h.String(), sm.Name, sm.Module.String(), sm.Origin.String()})
	}

	return t.Render()
}

// DiagnosticsTable renders a Collector's sorted diagnostics: level, kind,
// span, and message, one row per entry.
func DiagnosticsTable(errs *diag.Collector) string {
	t := table.NewWriter()
	t.SetTitle("Diagnostics")
	t.AppendHeader(table.Row{"Level", "Kind", "Span", "Message"})

	for _, d := range errs.All() {
		t.AppendRow(table.Row{d.Level.String(), string(d.Kind), d.Span.String(), d.Message})
	}

	return t.Render()
}
