// Package config holds the project build options read by conversion and
// emission.
//
// A project is configured by one of Veryl.toml, veryl.yaml or veryl.cue in
// the project directory. Environment variables named VERYL_* override the
// file, and a .env file next to it is read first when present.
package config

import (
	"fmt"

	"github.com/roach88/veryl-go/internal/conv"
)

// ClockType is the active edge of a clock port typed plain clock.
type ClockType string

const (
	ClockPosedge ClockType = "posedge"
	ClockNegedge ClockType = "negedge"
)

// ResetType is the polarity and synchronicity of a plain reset.
type ResetType string

const (
	ResetAsyncHigh ResetType = "async_high"
	ResetAsyncLow  ResetType = "async_low"
	ResetSyncHigh  ResetType = "sync_high"
	ResetSyncLow   ResetType = "sync_low"
)

// IsAsync reports whether the reset appears in the sensitivity list.
func (r ResetType) IsAsync() bool { return r == ResetAsyncHigh || r == ResetAsyncLow }

// IsLow reports whether the reset is active low.
func (r ResetType) IsLow() bool { return r == ResetAsyncLow || r == ResetSyncLow }

// SourceMap selects whether a source map is produced.
type SourceMap string

const (
	SourceMapNone   SourceMap = "none"
	SourceMapTarget SourceMap = "target"
)

// Project identifies the project being built.
type Project struct {
	Name    string `toml:"name" yaml:"name" json:"name"`
	Version string `toml:"version,omitempty" yaml:"version,omitempty" json:"version,omitempty"`
}

// Build is the set of options shared by the IR conversion and the emitter.
type Build struct {
	ClockType ClockType `toml:"clock_type" yaml:"clock_type" json:"clock_type"`
	ResetType ResetType `toml:"reset_type" yaml:"reset_type" json:"reset_type"`

	ClockPosedgePrefix string `toml:"clock_posedge_prefix" yaml:"clock_posedge_prefix" json:"clock_posedge_prefix"`
	ClockPosedgeSuffix string `toml:"clock_posedge_suffix" yaml:"clock_posedge_suffix" json:"clock_posedge_suffix"`
	ClockNegedgePrefix string `toml:"clock_negedge_prefix" yaml:"clock_negedge_prefix" json:"clock_negedge_prefix"`
	ClockNegedgeSuffix string `toml:"clock_negedge_suffix" yaml:"clock_negedge_suffix" json:"clock_negedge_suffix"`
	ResetHighPrefix    string `toml:"reset_high_prefix" yaml:"reset_high_prefix" json:"reset_high_prefix"`
	ResetHighSuffix    string `toml:"reset_high_suffix" yaml:"reset_high_suffix" json:"reset_high_suffix"`
	ResetLowPrefix     string `toml:"reset_low_prefix" yaml:"reset_low_prefix" json:"reset_low_prefix"`
	ResetLowSuffix     string `toml:"reset_low_suffix" yaml:"reset_low_suffix" json:"reset_low_suffix"`

	// ImplicitParameterTypes lists source types whose parameters are
	// emitted without a type, e.g. "string" or "type".
	ImplicitParameterTypes []string `toml:"implicit_parameter_types" yaml:"implicit_parameter_types" json:"implicit_parameter_types"`

	ExpandInsideOperation bool `toml:"expand_inside_operation" yaml:"expand_inside_operation" json:"expand_inside_operation"`
	EmitCondType          bool `toml:"emit_cond_type" yaml:"emit_cond_type" json:"emit_cond_type"`
	OmitProjectPrefix     bool `toml:"omit_project_prefix" yaml:"omit_project_prefix" json:"omit_project_prefix"`
	HashedMangledName     bool `toml:"hashed_mangled_name" yaml:"hashed_mangled_name" json:"hashed_mangled_name"`
	FlattenArrayInterface bool `toml:"flatten_array_interface" yaml:"flatten_array_interface" json:"flatten_array_interface"`

	Sourcemap SourceMap `toml:"sourcemap_target" yaml:"sourcemap_target" json:"sourcemap_target"`

	HierarchyDepth int `toml:"hierarchy_depth" yaml:"hierarchy_depth" json:"hierarchy_depth"`
	TotalInstance  int `toml:"total_instance" yaml:"total_instance" json:"total_instance"`
	EvaluateSize   int `toml:"evaluate_size" yaml:"evaluate_size" json:"evaluate_size"`
	EvaluateArray  int `toml:"evaluate_array" yaml:"evaluate_array" json:"evaluate_array"`
}

// Config is a whole project configuration file.
type Config struct {
	Project Project `toml:"project" yaml:"project" json:"project"`
	Build   Build   `toml:"build" yaml:"build" json:"build"`
}

// Default returns the configuration used when no file sets an option.
func Default(name string) Config {
	limits := conv.DefaultConfig()
	return Config{
		Project: Project{Name: name},
		Build: Build{
			ClockType:      ClockPosedge,
			ResetType:      ResetAsyncLow,
			Sourcemap:      SourceMapTarget,
			HierarchyDepth: limits.HierarchyDepth,
			TotalInstance:  limits.TotalInstance,
			EvaluateSize:   limits.EvaluateSize,
			EvaluateArray:  limits.EvaluateArray,
		},
	}
}

// Validate checks the enumerated options and limits.
func (c *Config) Validate() error {
	if c.Project.Name == "" {
		return &LoadError{Code: ErrCodeInvalid, Field: "project.name", Message: "project name is required"}
	}
	switch c.Build.ClockType {
	case ClockPosedge, ClockNegedge:
	default:
		return &LoadError{Code: ErrCodeInvalid, Field: "build.clock_type",
			Message: fmt.Sprintf("unknown clock type %q", c.Build.ClockType)}
	}
	switch c.Build.ResetType {
	case ResetAsyncHigh, ResetAsyncLow, ResetSyncHigh, ResetSyncLow:
	default:
		return &LoadError{Code: ErrCodeInvalid, Field: "build.reset_type",
			Message: fmt.Sprintf("unknown reset type %q", c.Build.ResetType)}
	}
	switch c.Build.Sourcemap {
	case SourceMapNone, SourceMapTarget:
	default:
		return &LoadError{Code: ErrCodeInvalid, Field: "build.sourcemap_target",
			Message: fmt.Sprintf("unknown sourcemap target %q", c.Build.Sourcemap)}
	}
	limits := []struct {
		field string
		n     int
	}{
		{"build.hierarchy_depth", c.Build.HierarchyDepth},
		{"build.total_instance", c.Build.TotalInstance},
		{"build.evaluate_size", c.Build.EvaluateSize},
		{"build.evaluate_array", c.Build.EvaluateArray},
	}
	for _, l := range limits {
		if l.n <= 0 {
			return &LoadError{Code: ErrCodeInvalid, Field: l.field, Message: fmt.Sprintf("must be positive, got %d", l.n)}
		}
	}
	return nil
}

// Conv returns the conversion limits.
func (b Build) Conv() conv.Config {
	return conv.Config{
		HierarchyDepth:    b.HierarchyDepth,
		TotalInstance:     b.TotalInstance,
		EvaluateSize:      b.EvaluateSize,
		EvaluateArray:     b.EvaluateArray,
		HashedMangledName: b.HashedMangledName,
	}
}

// ImplicitParameterType reports whether parameters of the given source
// type are emitted without a type.
func (b Build) ImplicitParameterType(name string) bool {
	for _, t := range b.ImplicitParameterTypes {
		if t == name {
			return true
		}
	}
	return false
}

// ClockAffix returns the prefix and suffix applied to a clock with the
// given active edge.
func (b Build) ClockAffix(negedge bool) (string, string) {
	if negedge {
		return b.ClockNegedgePrefix, b.ClockNegedgeSuffix
	}
	return b.ClockPosedgePrefix, b.ClockPosedgeSuffix
}

// ResetAffix returns the prefix and suffix applied to a reset with the
// given polarity.
func (b Build) ResetAffix(low bool) (string, string) {
	if low {
		return b.ResetLowPrefix, b.ResetLowSuffix
	}
	return b.ResetHighPrefix, b.ResetHighSuffix
}
