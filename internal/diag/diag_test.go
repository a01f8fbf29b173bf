package diag

import (
	"strings"
	"testing"

	"github.com/VonTum/sus-compiler/internal/source"
)

func TestCollectorAppendAndAll(t *testing.T) {
	var c Collector
	c.Append(Diagnostic{Level: Error, Kind: KindDivByZero, Span: source.Span{Line: 3, Col: 1}, Message: "second"})
	c.Append(Diagnostic{Level: Warning, Kind: KindUnusedVariable, Span: source.Span{Line: 1, Col: 5}, Message: "first"})

	if c.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", c.Len())
	}
	if !c.HasErrors() {
		t.Fatalf("expected HasErrors to be true with one Error-level diagnostic")
	}

	all := c.All()
	if len(all) != 2 {
		t.Fatalf("expected All() to return 2, got %d", len(all))
	}
	if all[0].Message != "first" || all[1].Message != "second" {
		t.Fatalf("expected All() sorted by span line, got %+v", all)
	}
}

func TestCollectorHasErrorsFalseForWarningsOnly(t *testing.T) {
	var c Collector
	c.Append(Diagnostic{Level: Warning, Kind: KindUnusedVariable, Message: "lint only"})
	if c.HasErrors() {
		t.Fatalf("expected HasErrors to be false when only warnings collected")
	}
}

func TestCollectorFlushEmptiesAndReturnsPrior(t *testing.T) {
	var c Collector
	c.Append(Diagnostic{Level: Error, Kind: KindParse, Message: "boom"})

	flushed := c.Flush()
	if len(flushed) != 1 {
		t.Fatalf("expected Flush to return the one collected diagnostic, got %d", len(flushed))
	}
	if c.Len() != 0 {
		t.Fatalf("expected Collector to be empty after Flush, got %d", c.Len())
	}
	if c.AsError() != nil {
		t.Fatalf("expected AsError to be nil after Flush, got %v", c.AsError())
	}
}

func TestCollectorAsErrorNilWhenEmpty(t *testing.T) {
	var c Collector
	if err := c.AsError(); err != nil {
		t.Fatalf("expected nil error from an empty Collector, got %v", err)
	}
}

func TestDiagnosticErrorStringIncludesLevelKindAndSpan(t *testing.T) {
	d := Diagnostic{Level: Error, Kind: KindArrayBounds, Span: source.Span{Line: 2, Col: 3, EndLine: 2, EndCol: 4}, Message: "out of range"}
	s := d.Error()
	if s == "" {
		t.Fatalf("expected a non-empty error string")
	}
	for _, want := range []string{d.Level.String(), string(d.Kind), d.Span.String()} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected error string %q to contain %q", s, want)
		}
	}
}
