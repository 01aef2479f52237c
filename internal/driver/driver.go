// Package driver orchestrates the compiler pipeline: a synchronous,
// single-threaded stage sequence, each stage consuming the previous
// stage's artifact and releasing it on success, plus the CLI-facing
// sidecar-file surface (tokens/cst/ast/ir/alloc/assembly/errors). Every
// write below happens synchronously in this goroutine — there is no
// background writer listening on a channel.
package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vslrv/internal/ast"
	"vslrv/internal/check"
	"vslrv/internal/cli"
	"vslrv/internal/grammar"
	"vslrv/internal/ir"
	"vslrv/internal/lexer"
	"vslrv/internal/parser"
	"vslrv/internal/regalloc"
	"vslrv/internal/riscv"
	"vslrv/internal/util"
)

// sidecarExts lists every sidecar extension this driver produces, in the
// order stale copies are deleted in directory mode.
var sidecarExts = []string{".tokens", ".cst", ".ast", ".ir", ".alloc", ".s", ".err"}

// Compiler owns the SLR(1) table, built once and shared read-only across
// every file it compiles.
type Compiler struct {
	grammar *grammar.Grammar
	table   *grammar.Table
}

// New builds the grammar and SLR(1) table from the embedded grammar.Source.
// A failure here — a malformed embedded grammar, or an internal invariant
// violation while building the table — is unrecoverable; the caller should
// exit 1 on error.
func New() (*Compiler, error) {
	g, err := grammar.Parse(strings.NewReader(grammar.Source))
	if err != nil {
		return nil, util.Wrap(err, "parsing embedded grammar")
	}
	first := g.First()
	follow := g.Follow(first)
	states := g.CanonicalCollection()
	t, err := grammar.Build(g, states, follow)
	if err != nil {
		return nil, util.Wrap(err, "building SLR(1) table")
	}
	return &Compiler{grammar: g, table: t}, nil
}

// Run compiles opt.Path: a single file, or, in directory mode, every file
// under it with extension ".src". Per-file compile errors are written to
// .err (or printed, under -check) and never fail Run itself — only an
// unreadable path is an initialisation failure.
func (c *Compiler) Run(opt cli.Options) error {
	info, err := os.Stat(opt.Path)
	if err != nil {
		return util.Wrap(err, "reading input path")
	}

	if !info.IsDir() {
		c.compileFile(opt.Path, opt)
		return nil
	}

	entries, err := os.ReadDir(opt.Path)
	if err != nil {
		return util.Wrap(err, "reading input directory")
	}

	var sources []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".src" {
			continue
		}
		sources = append(sources, filepath.Join(opt.Path, e.Name()))
	}

	// Stale sidecar files are deleted first, for every input file, before
	// any of them is recompiled.
	for _, path := range sources {
		deleteStaleSidecars(path)
	}
	for _, path := range sources {
		c.compileFile(path, opt)
	}
	return nil
}

func deleteStaleSidecars(path string) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range sidecarExts {
		_ = os.Remove(base + ext)
	}
}

// compileFile runs the full pipeline over one source file. Every early
// return below is a stage boundary: a stage with accumulated diagnostics
// stops the pipeline and reports rather than continuing into a stage whose
// preconditions were never met.
func (c *Compiler) compileFile(path string, opt cli.Options) {
	base := strings.TrimSuffix(path, filepath.Ext(path))

	src, err := util.ReadSource(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not read %s: %s\n", path, err)
		return
	}

	errs := util.NewErrors(16)

	tokens, err := lexer.Tokenize(src)
	if err != nil {
		errs.Append(util.Pos{}, util.Lexer, "%s", err)
		c.report(base, errs, opt)
		return
	}
	if !opt.Check {
		writeText(base+".tokens", dumpTokens(tokens))
	}

	p := parser.New(c.grammar, c.table, errs)
	tree := p.Parse(tokens)
	if errs.Len() > 0 || tree == nil {
		c.report(base, errs, opt)
		return
	}
	if !opt.Check {
		writeJSON(base+".cst", tree)
	}

	prog := ast.Build(tree)

	chk := check.New(errs)
	chk.Check(prog)
	if !opt.Check {
		writeJSON(base+".ast", prog)
	}
	if errs.Len() > 0 {
		c.report(base, errs, opt)
		return
	}

	irProg := ir.Build(prog)
	if !opt.Check {
		writeText(base+".ir", ir.Dump(irProg))
	}

	for _, f := range irProg.Functions {
		regalloc.Allocate(f)
	}
	if !opt.Check {
		writeText(base+".alloc", ir.Dump(irProg))
	}

	asm := riscv.Emit(irProg)
	if !opt.Check {
		writeText(base+".s", asm)
	}
}

// report writes the accumulated diagnostics: to .err without -check, or
// straight to standard error under -check (only errors are printed, no
// sidecars).
func (c *Compiler) report(base string, errs *util.Errors, opt cli.Options) {
	var b strings.Builder
	for _, d := range errs.List() {
		b.WriteString(d.Error())
		b.WriteString("\n")
	}
	if opt.Check {
		fmt.Fprint(os.Stderr, b.String())
		return
	}
	writeText(base+".err", b.String())
}

func dumpTokens(tokens []lexer.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		fmt.Fprintf(&b, "%s\t%q\t%s\n", t.Kind, t.Lexeme, t.Pos)
	}
	return b.String()
}

func writeText(path, content string) {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "could not write %s: %s\n", path, err)
	}
}

func writeJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not encode %s: %s\n", path, err)
		return
	}
	writeText(path, string(data))
}
