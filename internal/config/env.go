package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "VERYL_"

// ReadEnv returns the VERYL_* variables from the process environment on
// top of those defined in the .env file at path. A missing file is not an
// error.
func ReadEnv(path string) (map[string]string, error) {
	out := make(map[string]string)
	file, err := godotenv.Read(path)
	switch {
	case err == nil:
		for k, v := range file {
			if strings.HasPrefix(k, EnvPrefix) {
				out[k] = v
			}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, &LoadError{Code: ErrCodeEnv, Path: path, Message: err.Error()}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, EnvPrefix) {
			out[k] = v
		}
	}
	return out, nil
}

// ApplyEnv overrides build options from environment variables named
// VERYL_<OPTION>, e.g. VERYL_CLOCK_TYPE=negedge or
// VERYL_OMIT_PROJECT_PREFIX=true. Unknown names are ignored.
func ApplyEnv(cfg *Config, env map[string]string) error {
	b := &cfg.Build
	strs := map[string]*string{
		"PROJECT_NAME":         &cfg.Project.Name,
		"CLOCK_POSEDGE_PREFIX": &b.ClockPosedgePrefix,
		"CLOCK_POSEDGE_SUFFIX": &b.ClockPosedgeSuffix,
		"CLOCK_NEGEDGE_PREFIX": &b.ClockNegedgePrefix,
		"CLOCK_NEGEDGE_SUFFIX": &b.ClockNegedgeSuffix,
		"RESET_HIGH_PREFIX":    &b.ResetHighPrefix,
		"RESET_HIGH_SUFFIX":    &b.ResetHighSuffix,
		"RESET_LOW_PREFIX":     &b.ResetLowPrefix,
		"RESET_LOW_SUFFIX":     &b.ResetLowSuffix,
	}
	bools := map[string]*bool{
		"EXPAND_INSIDE_OPERATION": &b.ExpandInsideOperation,
		"EMIT_COND_TYPE":          &b.EmitCondType,
		"OMIT_PROJECT_PREFIX":     &b.OmitProjectPrefix,
		"HASHED_MANGLED_NAME":     &b.HashedMangledName,
		"FLATTEN_ARRAY_INTERFACE": &b.FlattenArrayInterface,
	}
	ints := map[string]*int{
		"HIERARCHY_DEPTH": &b.HierarchyDepth,
		"TOTAL_INSTANCE":  &b.TotalInstance,
		"EVALUATE_SIZE":   &b.EvaluateSize,
		"EVALUATE_ARRAY":  &b.EvaluateArray,
	}

	for key, raw := range env {
		name, ok := strings.CutPrefix(key, EnvPrefix)
		if !ok {
			continue
		}
		switch name {
		case "CLOCK_TYPE":
			b.ClockType = ClockType(strings.ToLower(raw))
			continue
		case "RESET_TYPE":
			b.ResetType = ResetType(strings.ToLower(raw))
			continue
		case "SOURCEMAP_TARGET":
			b.Sourcemap = SourceMap(strings.ToLower(raw))
			continue
		case "IMPLICIT_PARAMETER_TYPES":
			b.ImplicitParameterTypes = nil
			for _, t := range strings.Split(raw, ",") {
				if t = strings.TrimSpace(t); t != "" {
					b.ImplicitParameterTypes = append(b.ImplicitParameterTypes, t)
				}
			}
			continue
		}
		if p, ok := strs[name]; ok {
			*p = raw
			continue
		}
		if p, ok := bools[name]; ok {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return &LoadError{Code: ErrCodeEnv, Field: key, Message: fmt.Sprintf("not a boolean: %q", raw)}
			}
			*p = v
			continue
		}
		if p, ok := ints[name]; ok {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return &LoadError{Code: ErrCodeEnv, Field: key, Message: fmt.Sprintf("not an integer: %q", raw)}
			}
			*p = v
		}
	}
	return nil
}
