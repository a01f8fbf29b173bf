package ir

import (
	"github.com/VonTum/sus-compiler/internal/arena"
	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/source"
)

// Domain is one clock domain of the enclosing module.
type Domain struct {
	Name string
	Span source.Span
}

// Port is a named input or output of a module.
type Port struct {
	Name    string
	Span    source.Span
	IsInput bool
	Domain  DomainID
	Decl    FlatID // the Declaration instruction that introduced this port.
}

// Interface names a contiguous sub-range of ports, partitioned into an
// input-range and an output-range sharing one domain.
type Interface struct {
	Name    string
	Span    source.Span
	IsMain  bool
	Domain  DomainID
	Inputs  PortRange
	Outputs PortRange
}

// Module holds everything the flattener, typer and instantiator need for
// one module definition.
type Module struct {
	Link LinkInfo

	Ports      arena.Arena[portMark, Port]
	Domains    arena.Arena[domainMark, Domain]
	Interfaces arena.Arena[interfaceMark, Interface]
	MainIface  InterfaceID

	Templates arena.Arena[templateMark, TemplateParam]

	Instructions arena.Arena[flatMark, Instruction]

	Errors diag.Collector

	// Instantiations caches concrete instantiations keyed by a stable
	// encoding of template arguments; see
	// internal/instantiate.TemplateArgsKey and Instantiator.GetOrInstantiate
	// for the keying and internal/instcache for the on-disk spill.
	Instantiations InstantiationList
}

// TemplateParam is a compile-time (generative) module parameter, always
// an int or bool for now.
type TemplateParam struct {
	Name string
	Span source.Span
	Type AbstractType
}

// InstantiationList is the module's lazily populated set of concrete
// instantiations, one per distinct template-argument tuple.
type InstantiationList struct {
	ByKey map[string]*Instantiation
}

// Instantiation is a placeholder referenced by ir so that Module doesn't
// need to import internal/instantiate (which itself imports ir); the real
// definition lives there. Kept as an opaque pointer target.
type Instantiation struct {
	TemplateArgsKey string
	Payload         any
}
