// Package typing runs two independent Hindley-Milner substitutors over
// the flat IR: one over ir.AbstractType, one over ir.DomainType. It is a
// second arena-wide traversal after flattening that refines every
// instruction in place, split into two unification engines because this
// IR carries both an abstract (shape) type and a clock-domain type per
// wire.
package typing

import (
	"fmt"

	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/source"
)

// cell is one union-find slot for a type variable: either unbound, or
// bound to a term possibly referencing other variables.
type cell struct {
	bound bool
	term  ir.AbstractType
}

// AbstractSubstitutor is the HM substitutor over ir.AbstractType. One
// instance is shared by every module instruction during the typing pass
// for one compilation unit.
type AbstractSubstitutor struct {
	cells []cell
}

// NewAbstractSubstitutor returns an empty substitutor.
func NewAbstractSubstitutor() *AbstractSubstitutor {
	return &AbstractSubstitutor{}
}

// Fresh allocates a new unbound type variable.
func (s *AbstractSubstitutor) Fresh() ir.TypeVarID {
	s.cells = append(s.cells, cell{})
	return ir.TypeVarID(freshHandle(len(s.cells) - 1))
}

// FreshType returns a fresh ir.AbstractType wrapping a new variable.
func (s *AbstractSubstitutor) FreshType() ir.AbstractType {
	return ir.UnknownType(s.Fresh())
}

// find follows bound cells until it reaches an unbound variable or a
// concrete term. It leaves the chain as it is (no path compression).
func (s *AbstractSubstitutor) find(t ir.AbstractType) ir.AbstractType {
	for t.Kind == ir.AbstractUnknown {
		idx := t.Var.Index()
		c := &s.cells[idx]
		if !c.bound {
			return t
		}
		t = c.term
	}
	return t
}

// Unify walks a and b structurally, binding variables to terms. Returns a
// descriptive error (not a diag.Diagnostic — callers attach span/context)
// on a shape mismatch.
func (s *AbstractSubstitutor) Unify(a, b ir.AbstractType) error {
	a, b = s.find(a), s.find(b)

	if a.Kind == ir.AbstractUnknown {
		return s.bind(a.Var, b)
	}
	if b.Kind == ir.AbstractUnknown {
		return s.bind(b.Var, a)
	}

	switch {
	case a.Kind == ir.AbstractNamed && b.Kind == ir.AbstractNamed:
		if a.Named.Index() != b.Named.Index() {
			return fmt.Errorf("type mismatch: %s vs %s", a, b)
		}
		return nil
	case a.Kind == ir.AbstractTemplateVar && b.Kind == ir.AbstractTemplateVar:
		if a.Template.Index() != b.Template.Index() {
			return fmt.Errorf("template variable mismatch: %s vs %s", a, b)
		}
		return nil
	case a.Kind == ir.AbstractArray && b.Kind == ir.AbstractArray:
		return s.Unify(*a.Elem, *b.Elem)
	default:
		return fmt.Errorf("type mismatch: %s vs %s", a, b)
	}
}

func (s *AbstractSubstitutor) bind(v ir.TypeVarID, t ir.AbstractType) error {
	if t.Kind == ir.AbstractUnknown && t.Var.Index() == v.Index() {
		return nil // unifying a variable with itself.
	}
	s.cells[v.Index()] = cell{bound: true, term: t}
	return nil
}

// FullySubstitute walks t and reports whether any Unknown remains
// unbound.
func (s *AbstractSubstitutor) FullySubstitute(t ir.AbstractType) (ir.AbstractType, bool) {
	t = s.find(t)
	switch t.Kind {
	case ir.AbstractUnknown:
		return t, false
	case ir.AbstractArray:
		elem, ok := s.FullySubstitute(*t.Elem)
		return ir.ArrayOf(elem), ok
	default:
		return t, true
	}
}

// freshHandle is the only place this package constructs a raw handle; it
// exists because TypeVarID's backing arena.Handle has no public
// constructor from a plain int outside package ir. Substitutor cells are
// addressed purely by this package, so we keep our own parallel int space
// and convert through ir.NoFlatID's sibling for type vars.
func freshHandle(i int) ir.TypeVarID {
	return ir.TypeVarIDFromIndex(i)
}

// domainCell mirrors cell but for DomainType.
type domainCell struct {
	bound bool
	term  ir.DomainType
}

// DomainSubstitutor is the second, independent HM substitutor, over
// ir.DomainType. Both substitutors walk the same IR without sharing any
// state.
type DomainSubstitutor struct {
	cells []domainCell
}

func NewDomainSubstitutor() *DomainSubstitutor {
	return &DomainSubstitutor{}
}

func (s *DomainSubstitutor) Fresh() ir.DomainVarID {
	s.cells = append(s.cells, domainCell{})
	return ir.DomainVarIDFromIndex(len(s.cells) - 1)
}

func (s *DomainSubstitutor) FreshType() ir.DomainType {
	return ir.DomainVar(s.Fresh())
}

func (s *DomainSubstitutor) find(t ir.DomainType) ir.DomainType {
	for t.Kind == ir.DomainVariable {
		idx := t.Var.Index()
		c := &s.cells[idx]
		if !c.bound {
			return t
		}
		t = c.term
	}
	return t
}

// Unify unifies two domains. A Generative domain unifies with anything —
// a generative wire is a constant injected into whatever domain reads it
// — so Unify never fails on a Generative operand; it only fails when two
// distinct concrete physical domains meet.
func (s *DomainSubstitutor) Unify(a, b ir.DomainType) error {
	a, b = s.find(a), s.find(b)

	if a.Kind == ir.DomainGenerative || b.Kind == ir.DomainGenerative {
		return nil
	}
	if a.Kind == ir.DomainVariable {
		return s.bind(a.Var, b)
	}
	if b.Kind == ir.DomainVariable {
		return s.bind(b.Var, a)
	}
	if a.Kind == ir.DomainPhysical && b.Kind == ir.DomainPhysical {
		if a.Physical.Index() != b.Physical.Index() {
			return fmt.Errorf("domain mismatch: %s vs %s", a, b)
		}
		return nil
	}
	return nil
}

func (s *DomainSubstitutor) bind(v ir.DomainVarID, t ir.DomainType) error {
	if t.Kind == ir.DomainVariable && t.Var.Index() == v.Index() {
		return nil
	}
	s.cells[v.Index()] = domainCell{bound: true, term: t}
	return nil
}

// PromoteUnbound closes off inference: every still-unbound domain
// variable is promoted to a fresh physical domain of the enclosing
// module, allocated into mod.Domains.
func (s *DomainSubstitutor) PromoteUnbound(mod *ir.Module) {
	for i := range s.cells {
		if s.cells[i].bound {
			continue
		}
		d := mod.Domains.Alloc(ir.Domain{Name: fmt.Sprintf("$inferred_domain_%d", i)})
		s.cells[i] = domainCell{bound: true, term: ir.PhysicalDomain(d)}
	}
}

// Resolve returns the concrete DomainType for t, following any binding
// chain (used after PromoteUnbound has closed off every variable).
func (s *DomainSubstitutor) Resolve(t ir.DomainType) ir.DomainType {
	return s.find(t)
}

// mismatchDiagnostic builds the diag.Diagnostic for a Unify failure,
// attaching the span and context the caller has on hand.
func mismatchDiagnostic(span source.Span, context string, err error) diag.Diagnostic {
	return diag.Diagnostic{
		Level:   diag.Error,
		Kind:    diag.KindFailedUnification,
		Span:    span,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
