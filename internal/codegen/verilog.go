package codegen

import (
	"fmt"
	"strings"

	"github.com/VonTum/sus-compiler/internal/ir"
)

// VerilogEmitter renders one EmitTarget as a Verilog-like textual
// netlist. It is a reference implementation of the Emitter boundary, not
// a validated synthesizable-Verilog writer: wire/register declarations,
// continuous assignments for combinatorial wires (one per source of a
// multiplexed wire), and one clocked always-block per state wire.
type VerilogEmitter struct{}

func (VerilogEmitter) Emit(target EmitTarget) (string, error) {
	var b strings.Builder
	name := MangleName(target.Name)
	if name == "" {
		name = "module"
	}

	fmt.Fprintf(&b, "module %s (\n", name)
	ports := sortedPortIDs(target)
	for i, id := range ports {
		binding := target.InterfacePorts[id]
		dir := "output"
		if binding.IsInput {
			dir = "input"
		}
		comma := ","
		if i == len(ports)-1 {
			comma = ""
		}
		fmt.Fprintf(&b, "  %s %s%s\n", dir, wireName(target, binding.Wire), comma)
	}
	fmt.Fprintln(&b, ");")

	wires := sortedWireHandles(target)
	for _, h := range wires {
		w := target.Wires.Get(h)
		if w.Source.Kind == ir.SourceMultiplexer && w.Source.IsState {
			fmt.Fprintf(&b, "  reg %s;\n", wireName(target, h))
		} else if !isPort(target, h) {
			fmt.Fprintf(&b, "  wire %s;\n", wireName(target, h))
		}
	}

	for _, h := range wires {
		w := target.Wires.Get(h)
		emitWireBody(&b, target, h, w)
	}

	fmt.Fprintln(&b, "endmodule")
	return b.String(), nil
}

func isPort(target EmitTarget, w ir.WireID) bool {
	for _, binding := range target.InterfacePorts {
		if binding.Wire == w {
			return true
		}
	}
	return false
}

func wireName(target EmitTarget, w ir.WireID) string {
	rw := target.Wires.Get(w)
	if rw != nil && rw.Name != "" {
		return MangleName(rw.Name)
	}
	return fmt.Sprintf("w%d", w.Index())
}

func emitWireBody(b *strings.Builder, target EmitTarget, h ir.WireID, w *ir.RealWire) {
	switch w.Source.Kind {
	case ir.SourceConstant:
		fmt.Fprintf(b, "  assign %s = %s;\n", wireName(target, h), w.Source.ConstantValue.String())

	case ir.SourceReadOnly:
		// Driven externally (a module input); nothing to emit.

	case ir.SourceOutPort:
		fmt.Fprintf(b, "  assign %s = inst%d.port%d;\n", wireName(target, h), w.Source.SubModule.Index(), w.Source.Port.Index())

	case ir.SourceSelect:
		fmt.Fprintf(b, "  assign %s = %s%s;\n", wireName(target, h), wireName(target, w.Source.SelectRoot), selectSuffix(target, w.Source.SelectPath))

	case ir.SourceUnaryOp:
		fmt.Fprintf(b, "  assign %s = %s%s;\n", wireName(target, h), w.Source.Op, wireName(target, w.Source.Right))

	case ir.SourceBinaryOp:
		fmt.Fprintf(b, "  assign %s = %s %s %s;\n", wireName(target, h), wireName(target, w.Source.Left), w.Source.Op, wireName(target, w.Source.Right))

	case ir.SourceMultiplexer:
		emitMultiplexer(b, target, h, w)
	}
}

func selectSuffix(target EmitTarget, path []ir.WireArrayAccess) string {
	var b strings.Builder
	for _, step := range path {
		if step.IsConstant {
			fmt.Fprintf(&b, "[%d]", step.Const)
		} else {
			fmt.Fprintf(&b, "[%s]", wireName(target, step.Idx))
		}
	}
	return b.String()
}

// emitMultiplexer renders a Multiplexer-sourced wire: combinatorial
// wires get one continuous assign per MultiplexerSource (a conditional
// source drives 'bz when its condition is false; the trailing "if" /
// "else if" comment only records source order, no priority logic is
// emitted); state wires get a clocked always-block, one statement per
// MultiplexerSource. NumRegs is not read, so no pipeline registers are
// emitted for a source's register count.
func emitMultiplexer(b *strings.Builder, target EmitTarget, h ir.WireID, w *ir.RealWire) {
	name := wireName(target, h)
	if len(w.Source.MuxSources) == 0 {
		return
	}
	if w.Source.IsState {
		fmt.Fprintf(b, "  always @(posedge clk) begin\n")
		if w.Source.HasInitial {
			fmt.Fprintf(b, "    // initial %s\n", w.Source.InitialValue.String())
		}
		for _, src := range w.Source.MuxSources {
			if src.HasCond {
				fmt.Fprintf(b, "    if (%s) %s <= %s;\n", wireName(target, src.Condition), name, wireName(target, src.From))
			} else {
				fmt.Fprintf(b, "    %s <= %s;\n", name, wireName(target, src.From))
			}
		}
		fmt.Fprintln(b, "  end")
		return
	}
	for i, src := range w.Source.MuxSources {
		kw := "if"
		if i > 0 {
			kw = "else if"
		}
		if src.HasCond {
			fmt.Fprintf(b, "  assign %s = (%s) ? %s : 'bz; // %s\n", name, wireName(target, src.Condition), wireName(target, src.From), kw)
		} else {
			fmt.Fprintf(b, "  assign %s = %s;\n", name, wireName(target, src.From))
		}
	}
}
