// Package main is cmd/hdlc's entry point: the pipeline driver that reads
// a parsed module file, runs it through linking, flattening, typing,
// instantiation and latency counting, then hands the result to
// internal/codegen. Cleanup (output file, cache) is registered as
// github.com/tebeka/atexit hooks and run by atexit.Exit on every exit
// after registration; -h/-v exit inside config.ParseArgs, before any
// hook exists.
package main

import (
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/VonTum/sus-compiler/internal/ast"
	"github.com/VonTum/sus-compiler/internal/codegen"
	"github.com/VonTum/sus-compiler/internal/config"
	"github.com/VonTum/sus-compiler/internal/debugdump"
	"github.com/VonTum/sus-compiler/internal/diag"
	"github.com/VonTum/sus-compiler/internal/flatten"
	"github.com/VonTum/sus-compiler/internal/instantiate"
	"github.com/VonTum/sus-compiler/internal/instcache"
	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/latency"
	"github.com/VonTum/sus-compiler/internal/linker"
	"github.com/VonTum/sus-compiler/internal/moduleinit"
	"github.com/VonTum/sus-compiler/internal/typing"
)

func main() {
	opt, err := config.ParseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Command line argument error: %s\n", err)
		os.Exit(1)
	}

	out := os.Stdout
	if opt.Out != "" && opt.Out != "-" {
		f, err := os.OpenFile(opt.Out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open output file: %s\n", err)
			os.Exit(1)
		}
		out = f
		atexit.Register(func() { _ = f.Close() })
	}

	var cache *instcache.Cache
	if opt.Cache != "" {
		c, err := instcache.Open(opt.Cache)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open instantiation cache: %s\n", err)
			atexit.Exit(1)
		}
		cache = c
		atexit.Register(func() { _ = cache.Close() })
	}

	if err := run(opt, out, cache); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// run executes the pipeline: per-module initialization and flattening,
// abstract and domain typing, instantiation of each module with no
// template arguments, and latency counting, emitting the result of each
// successfully instantiated module to out.
func run(opt config.Options, out *os.File, cache *instcache.Cache) error {
	if opt.Src == "" {
		return fmt.Errorf("no source file given (see -h)")
	}
	data, err := os.ReadFile(opt.Src)
	if err != nil {
		return fmt.Errorf("could not read source: %w", err)
	}
	astFile, err := ast.ParseJSON(data)
	if err != nil {
		return fmt.Errorf("could not parse source: %w", err)
	}

	link := linker.New()
	diags := &diag.Collector{}

	fileID := link.ReserveFile()
	moduleIDs := make([]ir.ModuleID, len(astFile.Modules))
	names := make([]string, len(astFile.Modules))
	elems := make([]linker.NameElem, len(astFile.Modules))
	for i, m := range astFile.Modules {
		id := link.Modules.Reserve()
		link.Modules.Fill(id, ir.Module{})
		moduleIDs[i] = id
		names[i] = m.Name
		elems[i] = linker.NameElem{Kind: ir.GlobalModule, Module: id}
	}
	link.AddFile(fileID, names, elems, diags)

	// Initialize every module before flattening any body, so a call to a
	// module declared later in the file already sees its callee's ports
	// and domains when the caller is type-checked.
	modules := make([]*ir.Module, len(astFile.Modules))
	flatteners := make([]*flatten.Flattener, len(astFile.Modules))
	for i := range astFile.Modules {
		mod := link.Modules.Get(moduleIDs[i])
		flatteners[i] = moduleinit.InitModule(mod, fileID, &astFile.Modules[i], link, &mod.Errors)
		modules[i] = mod
	}
	for i, mod := range modules {
		flatteners[i].FlattenBody(astFile.Modules[i].Body)

		checker := typing.NewChecker(link, &mod.Errors)
		checker.Check(mod)
		typing.CheckGenerative(mod, &mod.Errors)
		checker.FullySubstituteModule(mod)
	}
	for _, d := range link.AllErrorsInFile(fileID) {
		diags.Append(d)
	}

	if diags.HasErrors() {
		printDiagnostics(diags)
		return fmt.Errorf("compilation failed with %d error(s)", countErrors(diags))
	}

	emitter, err := codegen.New(opt.Codegen)
	if err != nil {
		return err
	}

	instantiator := instantiate.New(link)
	counter := latency.NewCounter(instantiator)

	for i, mod := range modules {
		key := instantiate.TemplateArgsKey(nil)

		if cache != nil && mod.Instantiations.ByKey[key] == nil {
			if cached, ok, err := cache.Get(moduleIDs[i].Index(), key); err == nil && ok {
				mod.Instantiations.ByKey = map[string]*ir.Instantiation{
					key: {TemplateArgsKey: key, Payload: cached},
				}
			}
		}

		inst, err := instantiator.GetOrInstantiate(mod, moduleIDs[i], nil)
		if err != nil {
			return fmt.Errorf("module %q: %w", mod.Link.Name, err)
		}

		for _, w := range instantiate.UnusedWarnings(mod, inst) {
			diags.Append(w)
		}

		if err := counter.CountAll(inst); err != nil {
			return fmt.Errorf("module %q: %w", mod.Link.Name, err)
		}
		if inst.Errors.HasErrors() {
			printDiagnostics(&inst.Errors)
			continue
		}

		if cache != nil {
			_ = cache.Put(moduleIDs[i].Index(), key, inst)
		}

		if opt.Verbose {
			fmt.Fprintln(out, debugdump.WireTable(inst))
			fmt.Fprintln(out, debugdump.SubModuleTable(inst))
		}

		target := codegen.FromInstantiation(inst)
		text, err := emitter.Emit(target)
		if err != nil {
			return fmt.Errorf("module %q: codegen: %w", mod.Link.Name, err)
		}
		fmt.Fprintln(out, text)
	}

	if diags.Len() > 0 {
		fmt.Fprintln(out, debugdump.DiagnosticsTable(diags))
	}
	return nil
}

func printDiagnostics(diags *diag.Collector) {
	for _, d := range diags.All() {
		fmt.Fprintln(os.Stderr, d.Error())
	}
}

func countErrors(diags *diag.Collector) int {
	n := 0
	for _, d := range diags.All() {
		if d.Level == diag.Error {
			n++
		}
	}
	return n
}
