// Package flatten walks the parsed AST (internal/ast) into one module's
// flat Instruction list, resolving identifiers against a scoped
// local-variable context as it goes: push a frame on scope entry, pop on
// exit, search innermost-out, one map per frame since nested if/for
// bodies need their own.
package flatten

import (
	"fmt"

	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/source"
)

// frame is one scope level: block bodies, for-loop bodies, function
// parameter lists.
type frame struct {
	names  map[string]ir.FlatID
	parent *frame
}

// NameContext is the scoped name -> FlatID mapping used while flattening
// one module.
type NameContext struct {
	top *frame
}

// NewNameContext returns a name context with one empty top-level frame
// (the module's port/template-parameter scope).
func NewNameContext() *NameContext {
	return &NameContext{top: &frame{names: make(map[string]ir.FlatID)}}
}

// Push enters a new nested scope (if/for/block body).
func (c *NameContext) Push() {
	c.top = &frame{names: make(map[string]ir.FlatID), parent: c.top}
}

// Pop exits the innermost scope.
func (c *NameContext) Pop() {
	if c.top.parent != nil {
		c.top = c.top.parent
	}
}

// Declare binds name to id in the current frame. Returns the FlatID of an
// earlier declaration of the same name in the SAME frame if one exists;
// re-declaration in the same scope is a user error the caller reports,
// shadowing in a nested scope is fine.
func (c *NameContext) Declare(name string, id ir.FlatID) (earlier ir.FlatID, duplicate bool) {
	if prev, ok := c.top.names[name]; ok {
		return prev, true
	}
	c.top.names[name] = id
	return ir.FlatID{}, false
}

// Resolve searches the scope chain from innermost to outermost frame.
func (c *NameContext) Resolve(name string) (ir.FlatID, bool) {
	for f := c.top; f != nil; f = f.parent {
		if id, ok := f.names[name]; ok {
			return id, true
		}
	}
	return ir.FlatID{}, false
}

// DeclareChecked declares name, reporting a diag.KindDuplicateLocal
// diagnostic (with a secondary Info pointing at the earlier declaration)
// if the name already exists in the current frame.
func DeclareChecked(c *NameContext, diags *diag.Collector, name string, id ir.FlatID, span source.Span, earlierSpan source.Span) {
	if _, dup := c.Declare(name, id); dup {
		diags.Append(diag.Diagnostic{
			Level:   diag.Error,
			Kind:    diag.KindDuplicateLocal,
			Span:    span,
			Message: fmt.Sprintf("redeclaration of %q in the same scope", name),
			Infos: []diag.Info{{
				Span: earlierSpan,
				Note: fmt.Sprintf("%q was already declared here", name),
			}},
		})
	}
}
