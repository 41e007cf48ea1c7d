package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/veryl-go/internal/config"
	"github.com/roach88/veryl-go/internal/syntax"
)

// Project is a configuration and the sources parsed under its directory.
type Project struct {
	Dir    string
	Config config.Config
	Files  []*syntax.File
}

// LoadError represents an error that occurred while loading a project.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Line    int
	Column  int
}

func (e *LoadError) Error() string {
	if e.Path != "" && e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Path, e.Line, e.Column, e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadProject reads the configuration in dir and parses every .veryl file
// below it. Syntax errors are collected; the project is returned with the
// files that parsed.
func LoadProject(dir string) (*Project, []error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("project directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing project directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cfg, err := config.Load(dir)
	if err != nil {
		var le *config.LoadError
		if errors.As(err, &le) {
			return nil, []error{&LoadError{Code: le.Code, Message: le.Message, Path: le.Path}}
		}
		return nil, []error{&LoadError{Code: ErrCodeConfig, Message: err.Error()}}
	}

	paths, err := FindSourceFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(paths) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no .veryl files found in %s", dir)}}
	}

	p := &Project{Dir: dir, Config: cfg}
	var errs []error
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeReadFailed, Message: err.Error(), Path: path})
			continue
		}
		f, err := syntax.Parse(path, string(src))
		if err != nil {
			errs = append(errs, syntaxError(path, err))
			continue
		}
		p.Files = append(p.Files, f)
	}
	slog.Debug("project loaded", "dir", dir, "project", cfg.Project.Name, "files", len(p.Files))
	return p, errs
}

func syntaxError(path string, err error) *LoadError {
	var se *syntax.SyntaxError
	if errors.As(err, &se) {
		return &LoadError{Code: ErrCodeSyntax, Message: se.Message, Path: path, Line: se.Line, Column: se.Column}
	}
	return &LoadError{Code: ErrCodeSyntax, Message: err.Error(), Path: path}
}

// FindSourceFiles returns the .veryl files below dir in lexical order.
// Hidden directories and the dependencies directory are skipped.
func FindSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (strings.HasPrefix(name, ".") || name == "dependencies") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".veryl" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// Error code constants, shared by all CLI commands. Configuration errors
// keep the C0xx codes of the config package and analyzer errors keep
// their own.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No .veryl files found
	ErrCodeReadFailed  = "E004" // Source file could not be read
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeSyntax      = "E006" // Source file could not be parsed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeConfig      = "E008" // Configuration error without a code
	ErrCodeAnalysis    = "E009" // Sources have analyzer errors
)
