package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is the Veryl.toml written next to the sources. When empty
	// the project is configured with defaults and named "prj".
	Config string `yaml:"config,omitempty"`

	// Files are the sources of the project.
	Files []SourceFile `yaml:"files"`

	// Assertions validate the emitted output and the diagnostics.
	Assertions []Assertion `yaml:"assertions"`
}

// SourceFile is one source of a scenario project.
type SourceFile struct {
	// Path is relative to the project directory.
	Path   string `yaml:"path"`
	Source string `yaml:"source"`
}

// Assertion validates the outcome of a compilation.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// File is the emitted file, relative to the project directory
	// (output_contains, output_excludes, output_order).
	File string `yaml:"file,omitempty"`

	// Text is searched for in File (output_contains, output_excludes).
	Text string `yaml:"text,omitempty"`

	// Lines must appear in File in this order (output_order).
	Lines []string `yaml:"lines,omitempty"`

	// Kinds are diagnostic kinds such as "undefined_identifier"
	// (error_kinds).
	Kinds []string `yaml:"kinds,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains = "output_contains"
	AssertOutputExcludes = "output_excludes"
	AssertOutputOrder    = "output_order"
	AssertErrorKinds     = "error_kinds"
	AssertNoErrors       = "no_errors"
)

const defaultConfig = "[project]\nname = \"prj\"\n"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario from YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	var out []*Scenario
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Files) == 0 {
		return fmt.Errorf("files list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, f := range s.Files {
		if f.Path == "" {
			return fmt.Errorf("files[%d]: path is required", i)
		}
		if filepath.IsAbs(f.Path) || !filepath.IsLocal(f.Path) {
			return fmt.Errorf("files[%d]: path %q must stay inside the project", i, f.Path)
		}
		if filepath.Ext(f.Path) != ".veryl" {
			return fmt.Errorf("files[%d]: path %q is not a .veryl file", i, f.Path)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutputContains, AssertOutputExcludes:
		if a.File == "" || a.Text == "" {
			return fmt.Errorf("assertions[%d]: file and text are required for %s", index, a.Type)
		}
	case AssertOutputOrder:
		if a.File == "" || len(a.Lines) == 0 {
			return fmt.Errorf("assertions[%d]: file and lines are required for output_order", index)
		}
	case AssertErrorKinds:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for error_kinds", index)
		}
	case AssertNoErrors:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
