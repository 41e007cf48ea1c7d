package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Error codes of configuration failures.
const (
	ErrCodeNotFound = "C001" // No configuration file
	ErrCodeRead     = "C002" // File could not be read
	ErrCodeParse    = "C003" // File could not be decoded
	ErrCodeSchema   = "C004" // CUE schema violation
	ErrCodeInvalid  = "C005" // Option value out of range
	ErrCodeEnv      = "C006" // Environment override could not be applied
)

// LoadError describes a configuration that could not be loaded.
type LoadError struct {
	Code    string
	Path    string
	Field   string
	Message string
}

func (e *LoadError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Code)
	if e.Path != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Path)
	}
	if e.Field != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Field)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	return sb.String()
}

// IsLoadError reports whether err is a LoadError with the given code. An
// empty code matches any LoadError.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	if !errors.As(err, &le) {
		return false
	}
	return code == "" || le.Code == code
}

// FileNames are the configuration files looked up in a project directory,
// in order of preference.
var FileNames = []string{"Veryl.toml", "veryl.yaml", "veryl.yml", "veryl.cue"}

// Find returns the configuration file of the project in dir.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", &LoadError{Code: ErrCodeNotFound, Path: dir, Message: "no Veryl.toml, veryl.yaml or veryl.cue found"}
}

// Load reads the project configuration in dir and applies the environment
// overrides. A directory without a configuration file yields the defaults
// for a project named after the directory.
func Load(dir string) (Config, error) {
	path, err := Find(dir)
	var cfg Config
	switch {
	case err == nil:
		if cfg, err = LoadFile(path); err != nil {
			return Config{}, err
		}
	case IsLoadError(err, ErrCodeNotFound):
		abs, _ := filepath.Abs(dir)
		cfg = Default(filepath.Base(abs))
		slog.Debug("no configuration file, using defaults", "dir", dir, "project", cfg.Project.Name)
	default:
		return Config{}, err
	}

	env, err := ReadEnv(filepath.Join(dir, ".env"))
	if err != nil {
		return Config{}, err
	}
	if err := ApplyEnv(&cfg, env); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadFile decodes one configuration file on top of the defaults. The
// format follows the extension.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &LoadError{Code: ErrCodeRead, Path: path, Message: err.Error()}
	}
	cfg := Default("")
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = decodeTOML(data, &cfg)
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	case ".cue":
		err = decodeCUE(path, data, &cfg)
	default:
		err = &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("unsupported configuration format %q", filepath.Ext(path))}
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) && le.Path == "" {
			le.Path = path
		}
		return Config{}, err
	}
	slog.Debug("configuration loaded", "path", path, "project", cfg.Project.Name)
	return cfg, cfg.Validate()
}

func decodeTOML(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%d:%d: %s", row, col, de.Error())}
		}
		return &LoadError{Code: ErrCodeParse, Message: err.Error()}
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &LoadError{Code: ErrCodeParse, Message: err.Error()}
	}
	return nil
}

// schema constrains veryl.cue files.
const schema = `
#Config: {
	project: {
		name:     =~"^[A-Za-z_][A-Za-z0-9_]*$"
		version?: string
	}
	build?: {
		clock_type?:               "posedge" | "negedge"
		reset_type?:               "async_high" | "async_low" | "sync_high" | "sync_low"
		clock_posedge_prefix?:     string
		clock_posedge_suffix?:     string
		clock_negedge_prefix?:     string
		clock_negedge_suffix?:     string
		reset_high_prefix?:        string
		reset_high_suffix?:        string
		reset_low_prefix?:         string
		reset_low_suffix?:         string
		implicit_parameter_types?: [...string]
		expand_inside_operation?:  bool
		emit_cond_type?:           bool
		omit_project_prefix?:      bool
		hashed_mangled_name?:      bool
		flatten_array_interface?:  bool
		sourcemap_target?:         "none" | "target"
		hierarchy_depth?:          int & >0
		total_instance?:           int & >0
		evaluate_size?:            int & >0
		evaluate_array?:           int & >0
	}
}
`

func decodeCUE(path string, data []byte, cfg *Config) error {
	ctx := cuecontext.New()
	def := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return &LoadError{Code: ErrCodeSchema, Message: err.Error()}
	}
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return &LoadError{Code: ErrCodeParse, Message: cueMessage(err)}
	}
	u := def.Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return &LoadError{Code: ErrCodeSchema, Message: cueMessage(err)}
	}
	if err := u.Decode(cfg); err != nil {
		return &LoadError{Code: ErrCodeParse, Message: cueMessage(err)}
	}
	return nil
}

// cueMessage flattens a CUE error list into one line with positions.
func cueMessage(err error) string {
	var parts []string
	for _, e := range cueerrors.Errors(err) {
		msg := e.Error()
		if pos := cueerrors.Positions(e); len(pos) > 0 {
			msg = fmt.Sprintf("%d:%d: %s", pos[0].Line(), pos[0].Column(), msg)
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return err.Error()
	}
	return strings.Join(parts, "; ")
}
