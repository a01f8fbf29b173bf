// Package arena implements the typed-handle append-mostly storage used by
// every long-lived entity in the compiler: files, modules, types,
// constants, flat IR instructions, wires, ports, domains, template
// parameters. Each arena owns one kind; a Handle from one arena must never
// be used to index another, so handles carry a phantom type parameter.
package arena

import (
	"fmt"
	"strconv"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Handle is an opaque index into the arena that stores values of kind K.
// The zero value is the handle of slot 0 and reports Valid; use
// Placeholder for "no handle yet".
type Handle[K any] struct {
	idx int
}

// Placeholder returns the sentinel handle meaning "to be filled in later".
// Dereferencing it before the real value is Set is a programming error and
// panics, same as reading an unfilled Reserve slot.
func Placeholder[K any]() Handle[K] {
	return Handle[K]{idx: -1}
}

// Valid reports whether h was produced by Reserve/Alloc on some arena
// (i.e. is not the Placeholder sentinel).
func (h Handle[K]) Valid() bool {
	return h.idx >= 0
}

// Index returns the zero-based position of h within its arena. Exposed so
// handles can be used as map keys or compared for a stable diagnostic
// ordering (tie-breaks go by handle order so output is reproducible).
func (h Handle[K]) Index() int {
	return h.idx
}

// FromIndex constructs a handle from a raw index. Only legitimate when the
// index is known to have been produced by the matching arena (e.g. when a
// FileID and its arena handle are defined to share the same integer
// space, as in internal/linker).
func FromIndex[K any](i int) Handle[K] {
	return Handle[K]{idx: i}
}

func (h Handle[K]) String() string {
	if !h.Valid() {
		return "<placeholder>"
	}
	return fmt.Sprintf("#%d", h.idx)
}

// MarshalText renders h as its raw index, so any struct nesting a handle
// (RealWire, SubModule, PortBinding, ...) round-trips through encoding/json
// without custom per-field glue, including as a map key (internal/instcache
// spills an Instantiation's wire graph to SQLite this way).
func (h Handle[K]) MarshalText() ([]byte, error) {
	return []byte(strconv.Itoa(h.idx)), nil
}

// UnmarshalText is MarshalText's inverse.
func (h *Handle[K]) UnmarshalText(b []byte) error {
	i, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("arena: bad handle text %q: %w", b, err)
	}
	h.idx = i
	return nil
}

// Range denotes a contiguous, half-open span of handles [Start, End) within
// one arena, e.g. a function's input-port block or a flattened if/else
// branch body.
type Range[K any] struct {
	Start, End Handle[K]
}

// Len returns the number of handles covered by r.
func (r Range[K]) Len() int {
	if r.End.idx <= r.Start.idx {
		return 0
	}
	return r.End.idx - r.Start.idx
}

// Contains reports whether h falls within r.
func (r Range[K]) Contains(h Handle[K]) bool {
	return h.idx >= r.Start.idx && h.idx < r.End.idx
}

// Arena is a dense, append-mostly store of T, indexed by Handle[K]. Values
// are reserved (get a handle with no value yet, for forward/self
// references such as IfStatement body ranges) then filled, or allocated
// directly when no forward reference is needed.
type Arena[K any, T any] struct {
	slots []*T
}

// Reserve allocates a new handle with no value yet. The caller must Fill it
// before any Get, except where a PLACEHOLDER semantic is intentional.
func (a *Arena[K, T]) Reserve() Handle[K] {
	a.slots = append(a.slots, nil)
	return Handle[K]{idx: len(a.slots) - 1}
}

// Fill assigns v to a previously Reserved handle.
func (a *Arena[K, T]) Fill(h Handle[K], v T) {
	a.slots[h.idx] = &v
}

// Alloc reserves a new handle and immediately fills it with v.
func (a *Arena[K, T]) Alloc(v T) Handle[K] {
	h := a.Reserve()
	a.Fill(h, v)
	return h
}

// Get returns a pointer to the value at h, allowing in-place mutation
// (instantiation rewrites RealWire.AbsoluteLatency in place, for example).
// Panics if h is out of range or was never filled.
func (a *Arena[K, T]) Get(h Handle[K]) *T {
	v := a.slots[h.idx]
	if v == nil {
		panic(fmt.Sprintf("arena: handle %v reserved but never filled", h))
	}
	return v
}

// Len returns the number of handles (filled or reserved) in the arena.
func (a *Arena[K, T]) Len() int {
	return len(a.slots)
}

// AllHandles returns every handle in the arena, from first to last. Used to
// iterate (handle, value) pairs without exposing the backing slice.
func (a *Arena[K, T]) AllHandles() []Handle[K] {
	hs := make([]Handle[K], len(a.slots))
	for i := range a.slots {
		hs[i] = Handle[K]{idx: i}
	}
	return hs
}

// RangeFrom returns the [start, end) Range from start up to the arena's
// current end, handy for "rest of the instructions after this point" style
// bookkeeping during flattening.
func (a *Arena[K, T]) RangeFrom(start Handle[K]) Range[K] {
	return Range[K]{Start: start, End: Handle[K]{idx: len(a.slots)}}
}

// NextHandle previews the handle the next Alloc/Reserve call will return,
// without allocating it. Used to record "start" before flattening a body.
func (a *Arena[K, T]) NextHandle() Handle[K] {
	return Handle[K]{idx: len(a.slots)}
}
