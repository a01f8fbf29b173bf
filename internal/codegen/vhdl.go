package codegen

import (
	"fmt"
	"strings"
)

// VHDLEmitter is a minimal second backend, exercising the Emitter
// boundary's backend-selection path (internal/config's -codegen flag)
// with a second concrete implementation rather than just one.
type VHDLEmitter struct{}

func (VHDLEmitter) Emit(target EmitTarget) (string, error) {
	var b strings.Builder
	name := MangleName(target.Name)
	if name == "" {
		name = "module"
	}
	fmt.Fprintf(&b, "entity %s is\n  port (\n", name)
	ports := sortedPortIDs(target)
	for i, id := range ports {
		binding := target.InterfacePorts[id]
		dir := "out"
		if binding.IsInput {
			dir = "in"
		}
		comma := ";"
		if i == len(ports)-1 {
			comma = ""
		}
		fmt.Fprintf(&b, "    %s : %s std_logic%s\n", wireName(target, binding.Wire), dir, comma)
	}
	fmt.Fprintln(&b, "  );")
	fmt.Fprintf(&b, "end %s;\n", name)
	return b.String(), nil
}
