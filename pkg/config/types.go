package config

import (
	"fmt"
	"time"
)

// Project is the decoded functoria.cue project file: one application,
// its keys, and the ordered component list the composition graph is
// built from.
type Project struct {
	// App describes the application being configured.
	App AppConfig `json:"app" validate:"required"`

	// Keys lists the configuration keys the application declares.
	Keys []KeyDecl `json:"keys,omitempty" validate:"dive"`

	// Computed lists Starlark expressions whose results become key
	// defaults, evaluated at load time.
	Computed []ComputedDecl `json:"computed,omitempty" validate:"dive"`

	// Vertices lists opaque leaves bound verbatim in generated source.
	Vertices []VertexDecl `json:"vertices,omitempty" validate:"dive"`

	// Components is the ordered component list. Order matters: a
	// component may only reference nodes declared before it, and the
	// root must come last.
	Components []ComponentDecl `json:"components" validate:"required,min=1,dive"`

	// Policies lists additional rego policy file paths, merged with
	// the builtin policy.
	Policies []string `json:"policies,omitempty"`

	// Packs optionally points at a directory of component packs.
	Packs *PacksConfig `json:"packs,omitempty"`
}

// AppConfig describes the application a project file configures.
type AppConfig struct {
	// Name is the application name.
	Name string `json:"name" validate:"required"`

	// Version is an optional application version.
	Version string `json:"version,omitempty"`

	// Output is the artifact output directory (default ./_build).
	Output string `json:"output,omitempty"`

	// Root names the component whose binding the generated program
	// hands to the runtime.
	Root string `json:"root" validate:"required"`
}

// KeyDecl declares one typed configuration key.
type KeyDecl struct {
	// Name is the key name, unique within the project.
	Name string `json:"name" validate:"required"`

	// Type is the key's value type.
	Type string `json:"type" validate:"required,oneof=string int bool strings"`

	// Stage decides when the key's value applies (default both).
	Stage string `json:"stage,omitempty" validate:"omitempty,oneof=configure run both"`

	// Default is the key's default value, in the key's type.
	Default interface{} `json:"default,omitempty"`

	// Help is the one-line flag help text.
	Help string `json:"help,omitempty"`

	// Placeholder is the value placeholder shown in documentation.
	Placeholder string `json:"placeholder,omitempty"`

	// Section groups the key in emitted documentation.
	Section string `json:"section,omitempty"`

	// Aliases are alternative flag names.
	Aliases []string `json:"aliases,omitempty"`
}

// ComputedDecl binds a key name to a Starlark expression evaluated at
// load time; the result overrides the named key's default.
type ComputedDecl struct {
	// Name is the key whose default the expression computes.
	Name string `json:"name" validate:"required"`

	// Expr is the Starlark expression.
	Expr string `json:"expr" validate:"required"`
}

// VertexDecl declares an opaque leaf node.
type VertexDecl struct {
	// Name is the node name, referenced from component args.
	Name string `json:"name" validate:"required"`

	// Source is the Go source text the binding carries verbatim.
	Source string `json:"source" validate:"required"`
}

// ComponentDecl declares one configurable node. Either Type references
// a catalog component type that supplies constructor, import, and
// keys, or Constructor and Import are given inline.
type ComponentDecl struct {
	// Name is the node name, unique within the project.
	Name string `json:"name" validate:"required"`

	// Type optionally references a registered component type.
	Type string `json:"type,omitempty"`

	// Constructor is the generated-code constructor (inline form).
	Constructor string `json:"constructor,omitempty"`

	// Import is the constructor's import path (inline form).
	Import string `json:"import,omitempty"`

	// Args names prior nodes passed as positional constructor
	// arguments, in order.
	Args []string `json:"args,omitempty"`

	// Requires names prior nodes this component data-depends on.
	Requires []string `json:"requires,omitempty"`

	// Keys names declared keys attached to this component.
	Keys []string `json:"keys,omitempty"`
}

// PacksConfig points at a directory scanned for component packs.
type PacksConfig struct {
	// Dir is the pack directory.
	Dir string `json:"dir" validate:"required"`
}

// ValidationError is one positioned diagnostic from project loading.
type ValidationError struct {
	// File is the source file the error was found in.
	File string `json:"file,omitempty"`

	// Line is the 1-based source line.
	Line int `json:"line,omitempty"`

	// Column is the 1-based source column.
	Column int `json:"column,omitempty"`

	// Path is the configuration path (e.g. "keys[2].type").
	Path string `json:"path,omitempty"`

	// Message is the diagnostic text.
	Message string `json:"message"`

	// Severity is "error" or "warning".
	Severity string `json:"severity"`
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	switch {
	case ve.File != "" && ve.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", ve.File, ve.Line, ve.Column, ve.Message)
	case ve.Path != "":
		return fmt.Sprintf("%s: %s", ve.Path, ve.Message)
	default:
		return ve.Message
	}
}

// ParsedProject is the result of loading a project file, carrying the
// decoded project or the diagnostics that prevented it.
type ParsedProject struct {
	// Project is the decoded project, nil when Errors is non-empty.
	Project *Project `json:"project,omitempty"`

	// SourceFile is the loaded file path.
	SourceFile string `json:"source_file"`

	// ParsedAt is when loading finished.
	ParsedAt time.Time `json:"parsed_at"`

	// Errors lists positioned diagnostics.
	Errors []ValidationError `json:"errors,omitempty"`
}

// StarlarkResult is the outcome of one Starlark evaluation.
type StarlarkResult struct {
	// Value is the expression's result converted to a Go value.
	Value interface{} `json:"value,omitempty"`

	// ExecutionTime is how long evaluation took.
	ExecutionTime time.Duration `json:"execution_time"`

	// Error is the evaluation error text, if any.
	Error string `json:"error,omitempty"`
}

// OutputDir returns the project's output directory, applying the
// default when unset.
func (p *Project) OutputDir() string {
	if p.App.Output == "" {
		return "./_build"
	}
	return p.App.Output
}

// KeyDecl returns the declaration for a key name.
func (p *Project) KeyDecl(name string) (*KeyDecl, bool) {
	for i := range p.Keys {
		if p.Keys[i].Name == name {
			return &p.Keys[i], true
		}
	}
	return nil, false
}

// stageOrDefault returns the declared stage, defaulting to both.
func (k *KeyDecl) stageOrDefault() string {
	if k.Stage == "" {
		return "both"
	}
	return k.Stage
}
