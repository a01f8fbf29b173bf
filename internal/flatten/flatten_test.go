package flatten_test

import (
	"testing"

	"github.com/VonTum/sus-compiler/internal/ast"
	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/flatten"
	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/linker"
)

func newFixture() (*flatten.Flattener, *ir.Module, *diag.Collector) {
	return newFixtureWithLinker(linker.New())
}

func newFixtureWithLinker(link *linker.Linker) (*flatten.Flattener, *ir.Module, *diag.Collector) {
	mod := &ir.Module{}
	diags := &diag.Collector{}
	return flatten.NewFlattener(mod, link, diags), mod, diags
}

func TestFlattenDeclarationThenAssign(t *testing.T) {
	f, mod, diags := newFixture()

	f.FlattenBody([]ast.Statement{
		&ast.Declaration{Name: "a", Type: ast.WrittenType{Name: "int"}},
		&ast.Assign{
			To:    []ast.AssignTarget{{Name: "a"}},
			Value: &ast.IntLit{Value: 3},
		},
	})

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	var sawWrite bool
	for _, h := range mod.Instructions.AllHandles() {
		if mod.Instructions.Get(h).Kind == ir.InstrWrite {
			sawWrite = true
		}
	}
	if !sawWrite {
		t.Fatal("expected a Write instruction for the assignment")
	}
}

func TestFlattenRejectsWriteToReadOnly(t *testing.T) {
	f, _, diags := newFixture()

	f.FlattenBody([]ast.Statement{
		&ast.Declaration{Name: "in", Type: ast.WrittenType{Name: "int"}, ReadOnly: true},
		&ast.Assign{
			To:    []ast.AssignTarget{{Name: "in"}},
			Value: &ast.IntLit{Value: 1},
		},
	})

	if !diags.HasErrors() {
		t.Fatal("expected a read-only write diagnostic")
	}
	found := false
	for _, d := range diags.All() {
		if d.Kind == diag.KindReadOnlyWrite {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected KindReadOnlyWrite, got %v", diags.All())
	}
}

func TestFlattenRejectsUnknownIdentifier(t *testing.T) {
	f, _, diags := newFixture()

	f.FlattenBody([]ast.Statement{
		&ast.Assign{
			To:    []ast.AssignTarget{{Name: "ghost"}},
			Value: &ast.IntLit{Value: 1},
		},
	})

	if !diags.HasErrors() {
		t.Fatal("expected an unresolved-identifier diagnostic")
	}
}

func TestFlattenIfScopesLocalsToEachBranch(t *testing.T) {
	f, _, diags := newFixture()

	f.FlattenBody([]ast.Statement{
		&ast.Declaration{Name: "cond", Type: ast.WrittenType{Name: "bool"}},
		&ast.IfStmt{
			Cond: &ast.Ident{Name: "cond"},
			Then: []ast.Statement{
				&ast.Declaration{Name: "inner", Type: ast.WrittenType{Name: "int"}},
			},
			Else: []ast.Statement{
				// "inner" from the then-branch must not be visible here.
				&ast.Assign{To: []ast.AssignTarget{{Name: "inner"}}, Value: &ast.IntLit{Value: 1}},
			},
		},
	})

	if !diags.HasErrors() {
		t.Fatal("expected the else branch to reject the then branch's out-of-scope local")
	}
}

func TestFlattenForIntroducesReadOnlyGenerativeLoopVar(t *testing.T) {
	f, mod, diags := newFixture()

	f.FlattenBody([]ast.Statement{
		&ast.ForStmt{
			VarName: "i",
			Start:   &ast.IntLit{Value: 0},
			End:     &ast.IntLit{Value: 4},
			Body:    nil,
		},
	})

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	var sawFor bool
	for _, h := range mod.Instructions.AllHandles() {
		if mod.Instructions.Get(h).Kind == ir.InstrFor {
			sawFor = true
		}
	}
	if !sawFor {
		t.Fatal("expected a For instruction")
	}
}

// TestFlattenReportsKindMismatchForWrongGlobalKind uses the builtin
// constant "true" where a type is expected and where a callee module is
// expected; both sites must report the kind, not a plain "not found".
func TestFlattenReportsKindMismatchForWrongGlobalKind(t *testing.T) {
	f, _, diags := newFixture()

	f.FlattenBody([]ast.Statement{
		&ast.Declaration{Name: "x", Type: ast.WrittenType{Name: "true"}},
		&ast.Assign{
			To:    []ast.AssignTarget{{Name: "x"}},
			Value: &ast.CallExpr{Callee: "true"},
		},
	})

	mismatches := 0
	for _, d := range diags.All() {
		if d.Kind == diag.KindKindMismatch {
			mismatches++
		}
	}
	if mismatches != 2 {
		t.Fatalf("expected two kind-mismatch diagnostics, got %d: %v", mismatches, diags.All())
	}
}

// TestFlattenCallWithMultipleOutputsStampsPositionalPorts exercises
// multi-output call wiring: `a, b = adder(1, 2)` must
// allocate one SubModulePort WireRef per assignment target, each stamped
// with its own positional output index, not a single un-indexed WireRef
// shared by both targets.
func TestFlattenCallWithMultipleOutputsStampsPositionalPorts(t *testing.T) {
	link := linker.New()
	modID := link.Modules.Alloc(ir.Module{})
	link.AddFile(link.ReserveFile(), []string{"adder"}, []linker.NameElem{{Kind: ir.GlobalModule, Module: modID}}, &diag.Collector{})

	f, mod, diags := newFixtureWithLinker(link)

	f.FlattenBody([]ast.Statement{
		&ast.Declaration{Name: "a", Type: ast.WrittenType{Name: "int"}},
		&ast.Declaration{Name: "b", Type: ast.WrittenType{Name: "int"}},
		&ast.Assign{
			To: []ast.AssignTarget{{Name: "a"}, {Name: "b"}},
			Value: &ast.CallExpr{Callee: "adder", Args: []ast.Expr{
				&ast.IntLit{Value: 1}, &ast.IntLit{Value: 2},
			}},
		},
	})

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}

	var ports []int
	for _, h := range mod.Instructions.AllHandles() {
		instr := mod.Instructions.Get(h)
		if instr.Kind != ir.InstrExpression || instr.Expression.Source.Kind != ir.ExprWireRef {
			continue
		}
		ref := instr.Expression.Source.WireRef
		if ref.RootKind != ir.RootSubModulePort {
			continue
		}
		ports = append(ports, ref.Port.Index())
	}
	if len(ports) != 2 {
		t.Fatalf("expected 2 SubModulePort WireRefs, got %d: %v", len(ports), ports)
	}
	if ports[0] != 0 || ports[1] != 1 {
		t.Fatalf("expected positional output ports [0 1], got %v", ports)
	}
}
