package config

import (
	"context"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// SchemaRegistry manages CUE schemas for validation.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a new schema registry with built-in schemas.
func NewSchemaRegistry() *SchemaRegistry {
	ctx := cuecontext.New()
	sr := &SchemaRegistry{
		ctx:     ctx,
		schemas: make(map[string]cue.Value),
	}

	// Register built-in schemas
	sr.registerBuiltInSchemas()

	return sr
}

// registerBuiltInSchemas registers all built-in schemas.
func (sr *SchemaRegistry) registerBuiltInSchemas() {
	sr.RegisterSchema("project", builtinProjectSchema)
	sr.RegisterSchema("key", builtinKeySchema)
	sr.RegisterSchema("component", builtinComponentSchema)
}

// RegisterSchema registers a CUE schema with the given name.
func (sr *SchemaRegistry) RegisterSchema(name, schema string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(schema)
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	sr.schemas[name] = val
	return nil
}

// GetSchema retrieves a schema by name.
func (sr *SchemaRegistry) GetSchema(name string) (cue.Value, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	val, ok := sr.schemas[name]
	return val, ok
}

// ValidateAgainstSchema validates data against a named schema.
func (sr *SchemaRegistry) ValidateAgainstSchema(ctx context.Context, schemaName string, data interface{}) error {
	schema, ok := sr.GetSchema(schemaName)
	if !ok {
		return fmt.Errorf("schema %s not found", schemaName)
	}

	// Convert data to CUE value
	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	// Unify with schema (validates)
	unified := schema.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// ListSchemas returns all registered schema names.
func (sr *SchemaRegistry) ListSchemas() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	names := make([]string, 0, len(sr.schemas))
	for name := range sr.schemas {
		names = append(names, name)
	}
	return names
}

// Built-in schema definitions

const builtinKeySchema = `
// Key schema for typed configuration key declarations
#Key: {
	// Name is the key name, unique within the project
	name: string & =~"^[a-z][a-z0-9_]*$"

	// Type is the key's value type
	type: "string" | "int" | "bool" | "strings"

	// Stage decides when the key's value applies
	stage?: "configure" | "run" | "both"

	// Default is the key's default value
	default?: _

	// Help is the one-line flag help text
	help?: string

	// Placeholder is shown in documentation
	placeholder?: string

	// Section groups the key in emitted documentation
	section?: string

	// Aliases are alternative flag names
	aliases?: [...string]
}
`

const builtinComponentSchema = `
// Component schema for configurable node declarations
#Component: {
	// Name is the node name, unique within the project
	name: string & =~"^[a-zA-Z][a-zA-Z0-9_]*$"

	// Type references a registered component type, or constructor
	// and import are given inline
	type?: string

	// Constructor is the generated-code constructor
	constructor?: string

	// Import is the constructor's import path
	import?: string

	// Args names prior nodes passed as constructor arguments
	args?: [...string]

	// Requires names prior nodes this component data-depends on
	requires?: [...string]

	// Keys names declared keys attached to this component
	keys?: [...string]
}
`

const builtinProjectSchema = `
// Project schema for a functoria.cue project file
#Project: {
	// App describes the application being configured
	app: {
		name:    string & =~"^[a-zA-Z0-9_-]+$"
		version?: string
		output?:  string
		root:    string
	}

	// Keys lists the configuration keys
	keys?: [...#Key]

	// Computed lists Starlark expressions for key defaults
	computed?: [...{
		name: string
		expr: string
	}]

	// Vertices lists opaque leaves
	vertices?: [...{
		name:   string & =~"^[a-zA-Z][a-zA-Z0-9_]*$"
		source: string
	}]

	// Components is the ordered component list
	components: [...#Component] & [_, ...]

	// Policies lists additional rego policy file paths
	policies?: [...string]

	// Packs points at a directory of component packs
	packs?: dir: string
}
` + builtinKeySchema + builtinComponentSchema
