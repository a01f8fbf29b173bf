// Package linker owns every global (file, module, named type, named
// constant) and the name -> global namespace, detecting duplicate
// definitions and tracking per-file ownership so files can be
// hot-reloaded: removing a file retracts every namespace entry it owned.
package linker

import (
	"fmt"

	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/source"
)

// NameElem is a resolved global reference, tagged by kind.
type NameElem struct {
	Kind     ir.GlobalKind
	Module   ir.ModuleID
	Type     ir.TypeID
	Constant ir.ConstantID
}

// nsEntry is either a unique global or a collision set; a collision on a
// global name is reported at every declaration site.
type nsEntry struct {
	unique    NameElem
	isUnique  bool
	collision []NameElem
}

// Linker owns every global arena and the shared namespace.
type Linker struct {
	Files     ir.FileArena
	Modules   ir.ModuleArena
	Types     ir.TypeArena
	Constants ir.ConstantArena

	namespace map[string]*nsEntry

	// generation increments every time the namespace changes; Checkpoint
	// returns it. Nothing in this repository copies it onto a Module.Link.
	generation uint64
}

// New returns a Linker with the builtin globals (the bool and int types,
// the true and false constants) already registered.
func New() *Linker {
	l := &Linker{namespace: make(map[string]*nsEntry)}
	boolID := l.Types.Alloc(ir.NamedType{Kind: ir.TypeBool, Link: ir.LinkInfo{Name: "bool"}})
	intID := l.Types.Alloc(ir.NamedType{Kind: ir.TypeInt, Link: ir.LinkInfo{Name: "int"}})
	l.registerUnchecked("bool", NameElem{Kind: ir.GlobalType, Type: boolID})
	l.registerUnchecked("int", NameElem{Kind: ir.GlobalType, Type: intID})

	trueID := l.Constants.Alloc(ir.NamedConstant{
		Link: ir.LinkInfo{Name: "true"}, Type: ir.AbstractNamedType(boolID), Value: ir.BoolValue(true),
	})
	falseID := l.Constants.Alloc(ir.NamedConstant{
		Link: ir.LinkInfo{Name: "false"}, Type: ir.AbstractNamedType(boolID), Value: ir.BoolValue(false),
	})
	l.registerUnchecked("true", NameElem{Kind: ir.GlobalConstant, Constant: trueID})
	l.registerUnchecked("false", NameElem{Kind: ir.GlobalConstant, Constant: falseID})
	return l
}

func (l *Linker) registerUnchecked(name string, e NameElem) {
	l.namespace[name] = &nsEntry{unique: e, isUnique: true}
}

// ReserveFile allocates a new FileID with no parsed content yet.
func (l *Linker) ReserveFile() source.FileID {
	h := l.Files.Reserve()
	return source.FileID(h.Index())
}

// AddFile attaches declarations to a reserved file, registering each
// module/type/constant in the shared namespace and recording ownership.
// names/elems are the minimal per-global info the module-initialization
// stage has already produced; AddFile's job is purely namespace
// bookkeeping and duplicate detection.
func (l *Linker) AddFile(id source.FileID, names []string, elems []NameElem, diags *diag.Collector) {
	rec := ir.FileRecord{Parsed: true}
	for i, name := range names {
		rec.Owned = append(rec.Owned, name)
		l.declare(name, elems[i], diags)
	}
	l.Files.Fill(ir.HandleFromFileID(int(id)), rec)
	l.generation++
}

func (l *Linker) declare(name string, elem NameElem, diags *diag.Collector) {
	entry, ok := l.namespace[name]
	if !ok {
		l.namespace[name] = &nsEntry{unique: elem, isUnique: true}
		return
	}
	// A collision: every declaration site gets its own diagnostic, each
	// pointing at the other. The first collision also backfills one for
	// the original declaration, which was fine until now.
	if entry.isUnique {
		entry.collision = []NameElem{entry.unique, elem}
		entry.isUnique = false
		if diags != nil {
			orig := l.GetLinkInfo(entry.collision[0])
			dup := l.GetLinkInfo(elem)
			diags.Append(diag.Diagnostic{
				Level:   diag.Error,
				Kind:    diag.KindDuplicateGlobal,
				Span:    orig.Span,
				Message: fmt.Sprintf("%q conflicts with a later global declaration", name),
				Infos: []diag.Info{{
					Span: dup.Span,
					File: dup.File,
					Note: fmt.Sprintf("%q is also declared here", name),
				}},
			})
		}
	} else {
		entry.collision = append(entry.collision, elem)
	}
	if diags != nil {
		dup := l.GetLinkInfo(elem)
		orig := l.GetLinkInfo(entry.collision[0])
		diags.Append(diag.Diagnostic{
			Level:   diag.Error,
			Kind:    diag.KindDuplicateGlobal,
			Span:    dup.Span,
			Message: fmt.Sprintf("%q conflicts with a previous global declaration", name),
			Infos: []diag.Info{{
				Span: orig.Span,
				File: orig.File,
				Note: fmt.Sprintf("%q was first declared here", name),
			}},
		})
	}
}

// Lookup resolves name against the global namespace. ok is false both when
// the name is unknown and when it resolves ambiguously (a collision);
// collision distinguishes the two so callers can report the right
// diagnostic ("not found" vs "ambiguous").
func (l *Linker) Lookup(name string) (elem NameElem, ok bool, collision bool) {
	entry, found := l.namespace[name]
	if !found {
		return NameElem{}, false, false
	}
	if entry.isUnique {
		return entry.unique, true, false
	}
	return NameElem{}, false, true
}

// RemoveEverythingInFile drops all globals owned by the file and prunes
// the namespace.
func (l *Linker) RemoveEverythingInFile(id source.FileID) {
	h := ir.HandleFromFileID(int(id))
	rec := l.Files.Get(h)
	if rec == nil || !rec.Parsed {
		return
	}
	for _, name := range rec.Owned {
		delete(l.namespace, name)
	}
	l.Files.Fill(h, ir.FileRecord{Parsed: false})
	l.generation++
}

// Checkpoint returns the current namespace generation. LinkInfo has a
// Checkpoint field for such a value; no caller in this repository stores
// or compares it.
func (l *Linker) Checkpoint() uint64 {
	return l.generation
}

// GetLinkInfo returns the span/name/file record of a resolved global, for
// diagnostics that need to point at a declaration site.
func (l *Linker) GetLinkInfo(e NameElem) *ir.LinkInfo {
	switch e.Kind {
	case ir.GlobalModule:
		return &l.Modules.Get(e.Module).Link
	case ir.GlobalType:
		return &l.Types.Get(e.Type).Link
	default:
		return &l.Constants.Get(e.Constant).Link
	}
}

// QualifiedName renders a global's fully qualified name, printed with a
// leading "::".
func (l *Linker) QualifiedName(e NameElem) string {
	return "::" + l.GetLinkInfo(e).Name
}

// AllErrorsInFile aggregates the per-module collectors of every module the
// file owns. Parse errors live upstream of this core and
// duplicate-declaration errors are reported through the collector AddFile
// was handed; what the linker itself can aggregate after the fact is the
// flatten/typecheck/instantiate diagnostics each module accumulated.
func (l *Linker) AllErrorsInFile(id source.FileID) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, h := range l.Modules.AllHandles() {
		m := l.Modules.Get(h)
		if m.Link.File != id {
			continue
		}
		out = append(out, m.Errors.All()...)
	}
	return out
}
