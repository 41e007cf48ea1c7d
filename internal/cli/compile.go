package cli

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/veryl-go/internal/analyzer"
	"github.com/roach88/veryl-go/internal/conv"
	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/emitter"
	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/symbol"
)

// Compilation is the analyzed form of a project.
type Compilation struct {
	Project *Project
	Session *symbol.Session
	Ir      *ir.Ir
	Errors  diag.List
}

// Analyze builds the symbol table of every file, checks the instance
// hierarchy and converts the project to IR. Conversion is skipped when an
// earlier stage reported errors.
func Analyze(p *Project) *Compilation {
	start := time.Now()
	c := &Compilation{Project: p, Session: symbol.NewSession(p.Config.Project.Name)}
	for _, f := range p.Files {
		c.Errors = append(c.Errors, symbol.Create(c.Session, f)...)
	}
	c.Errors = append(c.Errors, analyzer.AnalyzeHierarchy(p.Files)...)
	slog.Debug("symbols created", "session", c.Session.ID, "symbols", len(c.Session.Symbols()),
		"errors", len(c.Errors), "elapsed", time.Since(start))
	if c.Errors.HasErrors() {
		return c
	}

	start = time.Now()
	out, errs := conv.Convert(c.Session, p.Config.Build.Conv())
	c.Ir = out
	c.Errors = append(c.Errors, errs...)
	slog.Debug("converted", "errors", len(errs), "elapsed", time.Since(start))
	return c
}

// Artifact is one emitted SystemVerilog file.
type Artifact struct {
	Source    string
	Dest      string
	Text      string
	SourceMap *emitter.SourceMap
}

// MapPath is where the source map of a is written.
func (a *Artifact) MapPath() string { return a.Dest + ".map" }

// Emit renders every file of the compilation. Outputs go next to their
// sources, or into outDir when it is set.
func Emit(c *Compilation, outDir string) ([]*Artifact, diag.List) {
	files := c.Project.Files
	e := emitter.New(c.Session, c.Project.Config, emitter.Options{})

	// A file may instantiate generics declared in a later one; the first
	// round records those instantiations.
	if len(files) > 1 {
		for _, f := range files {
			e.SetOptions(emitter.Options{SourcePath: f.Path, DestPath: destPath(f.Path, outDir)})
			e.Emit(f)
		}
	}

	var (
		arts []*Artifact
		errs diag.List
	)
	for _, f := range files {
		dest := destPath(f.Path, outDir)
		e.SetOptions(emitter.Options{SourcePath: f.Path, DestPath: dest})
		out, ferrs := e.Emit(f)
		for _, err := range ferrs {
			if err.Path == "" {
				err.Path = f.Path
			}
		}
		errs = append(errs, ferrs...)
		arts = append(arts, &Artifact{Source: f.Path, Dest: dest, Text: out.Text, SourceMap: out.SourceMap})
	}
	return arts, errs
}

func destPath(src, outDir string) string {
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".sv"
	if outDir == "" {
		return filepath.Join(filepath.Dir(src), name)
	}
	return filepath.Join(outDir, name)
}
