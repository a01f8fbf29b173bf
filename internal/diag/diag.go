// Package diag implements the compiler's error-collection model:
// diagnostics are accumulated, never thrown, so one compile run reports as
// many problems as it can find. Collector is a mutex-guarded buffer safe
// for concurrent appends from parallel per-module workers, backed by
// go-multierror for aggregation.
package diag

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/VonTum/sus-compiler/internal/source"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Level distinguishes hard failures from lints.
type Level int

const (
	Error Level = iota
	Warning
)

func (l Level) String() string {
	if l == Warning {
		return "warning"
	}
	return "error"
}

// Kind enumerates the user-visible diagnostic classes.
type Kind string

const (
	KindParse                   Kind = "parse"
	KindDuplicateGlobal         Kind = "duplicate-global"
	KindUnresolvedGlobal        Kind = "unresolved-global"
	KindKindMismatch            Kind = "kind-mismatch" // right name, wrong kind of global
	KindDuplicateLocal          Kind = "duplicate-local"
	KindReadOnlyWrite           Kind = "read-only-write"
	KindOutOfScope              Kind = "out-of-scope-reference"
	KindFailedUnification       Kind = "failed-unification"
	KindUnresolvedType          Kind = "unresolved-type"
	KindArrayIndexOnNonArray    Kind = "array-index-on-non-array"
	KindNonGenerative           Kind = "non-generative-value"
	KindGenerativeInRuntimeIf   Kind = "generative-write-in-runtime-if"
	KindInitialOnNonState       Kind = "initial-on-non-state"
	KindArityMismatch           Kind = "interface-arity-mismatch"
	KindDivByZero               Kind = "division-by-zero"
	KindArrayBounds             Kind = "array-bounds"
	KindTemplateArgMismatch     Kind = "template-argument-mismatch"
	KindNetPositiveCycle        Kind = "net-positive-latency-cycle"
	KindIndeterminablePort      Kind = "indeterminable-port-latency"
	KindConflictingSpecifiedLat Kind = "conflicting-specified-latencies"
	KindUnusedVariable          Kind = "unused-variable" // lint
	KindStructsUnsupported      Kind = "structs-unsupported"
	KindUnresolvedGenerative    Kind = "unresolved-generative-value"
)

// Info is a secondary span attached to a Diagnostic, e.g. "the other
// declaration is here".
type Info struct {
	Span source.Span
	File source.FileID
	Note string
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Level   Level
	Kind    Kind
	Span    source.Span
	Message string
	Infos   []Info
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s (at %s)", d.Level, d.Kind, d.Message, d.Span)
}

// Collector accumulates diagnostics from possibly-concurrent stages. It is
// append-only during a phase and flushed at stage boundaries.
type Collector struct {
	mu   sync.Mutex
	errs *multierror.Error
	list []Diagnostic
}

// Append records d. Safe to call from multiple goroutines.
func (c *Collector) Append(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append(c.list, d)
	c.errs = multierror.Append(c.errs, d)
}

// Len reports the number of collected diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.list)
}

// HasErrors reports whether any collected diagnostic is Level Error (as
// opposed to only Warning/lint entries).
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.list {
		if d.Level == Error {
			return true
		}
	}
	return false
}

// All returns a stable, span-ordered copy of the collected diagnostics.
// Ordering is deterministic (line then column) so diagnostic output is
// reproducible.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.list))
	copy(out, c.list)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.Line != out[j].Span.Line {
			return out[i].Span.Line < out[j].Span.Line
		}
		return out[i].Span.Col < out[j].Span.Col
	})
	return out
}

// Flush empties the collector, returning what had accumulated. Used at
// stage boundaries.
func (c *Collector) Flush() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.list
	c.list = nil
	c.errs = nil
	return out
}

// AsError returns the accumulated diagnostics as a single error (nil if
// none), for callers that want the go-multierror formatting.
func (c *Collector) AsError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errs == nil {
		return nil
	}
	return c.errs.ErrorOrNil()
}
