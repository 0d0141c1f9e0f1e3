package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"github.com/go-playground/validator/v10"
)

// Loader parses and validates functoria project files.
type Loader struct {
	ctx            *cue.Context
	schemaRegistry *SchemaRegistry
	starlark       *StarlarkEvaluator
	validator      *validator.Validate
}

// NewLoader creates a new project loader.
func NewLoader() *Loader {
	return &Loader{
		ctx:            cuecontext.New(),
		schemaRegistry: NewSchemaRegistry(),
		starlark:       NewStarlarkEvaluator(30 * time.Second),
		validator:      validator.New(),
	}
}

// Load parses the project file at path and returns a validated
// Project, with computed key defaults already evaluated. Diagnostics
// are joined into the returned error.
func (l *Loader) Load(ctx context.Context, path string) (*Project, error) {
	parsed, err := l.Parse(ctx, path)
	if err != nil {
		return nil, err
	}

	if len(parsed.Errors) > 0 {
		msgs := make([]string, 0, len(parsed.Errors))
		for _, ve := range parsed.Errors {
			msgs = append(msgs, ve.Error())
		}
		return nil, fmt.Errorf("invalid project %s:\n  %s", path, strings.Join(msgs, "\n  "))
	}

	return parsed.Project, nil
}

// Parse parses the project file at path, collecting positioned
// diagnostics instead of failing on the first.
func (l *Loader) Parse(ctx context.Context, path string) (*ParsedProject, error) {
	parsed := &ParsedProject{
		SourceFile: path,
		ParsedAt:   time.Now(),
	}

	val, errs := l.loadFile(path)
	if len(errs) > 0 {
		parsed.Errors = errs
		return parsed, nil
	}

	// Unify with the builtin project schema
	schema, ok := l.schemaRegistry.GetSchema("project")
	if ok {
		def := schema.LookupPath(cue.ParsePath("#Project"))
		if def.Exists() {
			val = def.Unify(val)
			if err := val.Validate(cue.Concrete(false)); err != nil {
				parsed.Errors = l.convertCUEErrors(err)
				return parsed, nil
			}
		}
	}

	// Decode into Go structs
	var project Project
	if err := val.Decode(&project); err != nil {
		parsed.Errors = l.convertCUEErrors(err)
		return parsed, nil
	}

	// Second validation layer: struct tags
	if err := l.validator.Struct(&project); err != nil {
		parsed.Errors = append(parsed.Errors, l.convertValidatorErrors(err)...)
	}

	// Structural checks the schema cannot express
	parsed.Errors = append(parsed.Errors, l.validateProject(&project)...)

	// Normalize declared defaults into the declared types
	for i := range project.Keys {
		if err := coerceDefault(&project.Keys[i]); err != nil {
			parsed.Errors = append(parsed.Errors, ValidationError{
				Path:     fmt.Sprintf("keys.%s.default", project.Keys[i].Name),
				Message:  err.Error(),
				Severity: "error",
			})
		}
	}

	// Computed defaults run last, over the coerced literals
	if len(parsed.Errors) == 0 {
		parsed.Errors = append(parsed.Errors, l.applyComputedDefaults(ctx, &project)...)
	}

	if len(parsed.Errors) == 0 {
		parsed.Project = &project
	}
	return parsed, nil
}

// loadFile compiles a single CUE file.
func (l *Loader) loadFile(path string) (cue.Value, []ValidationError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, []ValidationError{{
			File:     path,
			Message:  fmt.Sprintf("failed to read file: %v", err),
			Severity: "error",
		}}
	}

	val := l.ctx.CompileString(string(content), cue.Filename(path))
	if err := val.Err(); err != nil {
		return cue.Value{}, l.convertCUEErrors(err)
	}

	return val, nil
}

// validateProject checks the cross-references the schema cannot: node
// name uniqueness, forward-only argument references, root placement,
// and key attachments.
func (l *Loader) validateProject(p *Project) []ValidationError {
	var verrs []ValidationError

	keyNames := make(map[string]bool, len(p.Keys))
	for _, k := range p.Keys {
		if keyNames[k.Name] {
			verrs = append(verrs, ValidationError{
				Path:     fmt.Sprintf("keys.%s", k.Name),
				Message:  "duplicate key name",
				Severity: "error",
			})
		}
		keyNames[k.Name] = true
	}

	for _, c := range p.Computed {
		if !keyNames[c.Name] {
			verrs = append(verrs, ValidationError{
				Path:     fmt.Sprintf("computed.%s", c.Name),
				Message:  "computed default names an undeclared key",
				Severity: "error",
			})
		}
	}

	// Nodes are visible to a component only once declared before it.
	declared := make(map[string]bool, len(p.Vertices)+len(p.Components))
	for _, v := range p.Vertices {
		if declared[v.Name] {
			verrs = append(verrs, ValidationError{
				Path:     fmt.Sprintf("vertices.%s", v.Name),
				Message:  "duplicate node name",
				Severity: "error",
			})
		}
		declared[v.Name] = true
	}

	for i, c := range p.Components {
		if declared[c.Name] {
			verrs = append(verrs, ValidationError{
				Path:     fmt.Sprintf("components[%d].name", i),
				Message:  fmt.Sprintf("duplicate node name %q", c.Name),
				Severity: "error",
			})
		}
		if c.Type == "" && (c.Constructor == "" || c.Import == "") {
			verrs = append(verrs, ValidationError{
				Path:     fmt.Sprintf("components[%d]", i),
				Message:  fmt.Sprintf("component %q needs either a type or a constructor and import", c.Name),
				Severity: "error",
			})
		}
		for _, arg := range c.Args {
			if !declared[arg] {
				verrs = append(verrs, ValidationError{
					Path:     fmt.Sprintf("components[%d].args", i),
					Message:  fmt.Sprintf("argument %q is not a previously declared node", arg),
					Severity: "error",
				})
			}
		}
		for _, req := range c.Requires {
			if !declared[req] {
				verrs = append(verrs, ValidationError{
					Path:     fmt.Sprintf("components[%d].requires", i),
					Message:  fmt.Sprintf("dependency %q is not a previously declared node", req),
					Severity: "error",
				})
			}
		}
		for _, k := range c.Keys {
			if !keyNames[k] {
				verrs = append(verrs, ValidationError{
					Path:     fmt.Sprintf("components[%d].keys", i),
					Message:  fmt.Sprintf("key %q is not declared", k),
					Severity: "error",
				})
			}
		}
		declared[c.Name] = true
	}

	if len(p.Components) > 0 {
		last := p.Components[len(p.Components)-1]
		if p.App.Root != last.Name {
			verrs = append(verrs, ValidationError{
				Path:     "app.root",
				Message:  fmt.Sprintf("root %q must be the last declared component (got %q)", p.App.Root, last.Name),
				Severity: "error",
			})
		}
	}

	return verrs
}

// applyComputedDefaults evaluates the computed expressions and
// overrides the named keys' defaults with the results. Other keys'
// literal defaults are in scope as predeclared variables.
func (l *Loader) applyComputedDefaults(ctx context.Context, p *Project) []ValidationError {
	if len(p.Computed) == 0 {
		return nil
	}

	input := make(map[string]interface{}, len(p.Keys))
	for _, k := range p.Keys {
		if k.Default != nil {
			input[k.Name] = k.Default
		}
	}

	var verrs []ValidationError
	for _, c := range p.Computed {
		result, err := l.starlark.Evaluate(ctx, c.Expr, input)
		if err != nil {
			verrs = append(verrs, ValidationError{
				Path:     fmt.Sprintf("computed.%s", c.Name),
				Message:  fmt.Sprintf("expression failed: %v", err),
				Severity: "error",
			})
			continue
		}

		decl, _ := p.KeyDecl(c.Name)
		decl.Default = result.Value
		if err := coerceDefault(decl); err != nil {
			verrs = append(verrs, ValidationError{
				Path:     fmt.Sprintf("computed.%s", c.Name),
				Message:  fmt.Sprintf("result does not fit key type %s: %v", decl.Type, err),
				Severity: "error",
			})
		}
	}
	return verrs
}

// convertCUEErrors converts CUE errors to ValidationError slice.
func (l *Loader) convertCUEErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	// Handle CUE error types
	errs := errors.Errors(err)
	for _, e := range errs {
		pos := errors.Positions(e)
		var file string
		var line, column int

		if len(pos) > 0 {
			file = pos[0].Filename()
			line = pos[0].Line()
			column = pos[0].Column()
		}

		validationErrors = append(validationErrors, ValidationError{
			File:     file,
			Line:     line,
			Column:   column,
			Message:  errors.Details(e, nil),
			Severity: "error",
		})
	}

	return validationErrors
}

// convertValidatorErrors converts struct-tag validation failures.
func (l *Loader) convertValidatorErrors(err error) []ValidationError {
	var verrs []ValidationError

	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			verrs = append(verrs, ValidationError{
				Path:     fe.Namespace(),
				Message:  fmt.Sprintf("failed %q validation", fe.Tag()),
				Severity: "error",
			})
		}
		return verrs
	}

	return []ValidationError{{
		Message:  err.Error(),
		Severity: "error",
	}}
}

// coerceDefault normalizes a decoded default value into the key's
// declared Go type. CUE decoding and Starlark evaluation produce
// int64 and []interface{} where the engine wants int and []string.
func coerceDefault(decl *KeyDecl) error {
	if decl.Default == nil {
		return nil
	}

	switch decl.Type {
	case "string":
		if s, ok := decl.Default.(string); ok {
			decl.Default = s
			return nil
		}
	case "int":
		switch v := decl.Default.(type) {
		case int:
			return nil
		case int64:
			decl.Default = int(v)
			return nil
		case float64:
			if v == float64(int(v)) {
				decl.Default = int(v)
				return nil
			}
		}
	case "bool":
		if b, ok := decl.Default.(bool); ok {
			decl.Default = b
			return nil
		}
	case "strings":
		switch v := decl.Default.(type) {
		case []string:
			return nil
		case []interface{}:
			out := make([]string, len(v))
			for i, item := range v {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("element %d is %T, want string", i, item)
				}
				out[i] = s
			}
			decl.Default = out
			return nil
		}
	}
	return fmt.Errorf("default %v (%T) does not fit type %s", decl.Default, decl.Default, decl.Type)
}
