package config

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/yomimono/functoria/pkg/components"
	"github.com/yomimono/functoria/pkg/engine"
)

// Session is the composed state one build invocation shares: the
// loaded project, its key registry, the composition graph, and the
// evaluation context flag values resolve into.
type Session struct {
	// Project is the loaded project.
	Project *Project

	// Registry holds every key the session registered.
	Registry *engine.Registry

	// Graph is the composition graph.
	Graph *engine.Graph

	// Context is the evaluation context.
	Context *engine.EvalContext

	// Nodes maps declared node names to graph ids.
	Nodes map[string]engine.NodeID

	// Root is the root node's id.
	Root engine.NodeID
}

// Compose turns a loaded project into a Session: keys are registered
// (component-type key declarations fill in behind explicit project
// declarations), vertices and components become graph nodes in
// declaration order, and requires become data-dependency edges.
func Compose(project *Project, catalog *components.Catalog) (*Session, error) {
	if catalog == nil {
		catalog = components.NewCatalog()
	}

	reg := engine.NewRegistry()
	for i := range project.Keys {
		k := &project.Keys[i]
		doc := engine.Doc{
			Help:        k.Help,
			Placeholder: k.Placeholder,
			Section:     k.Section,
			Aliases:     k.Aliases,
		}
		if err := registerKey(reg, k.Name, k.Type, engine.Stage(k.stageOrDefault()), k.Default, doc); err != nil {
			return nil, err
		}
	}

	g := engine.NewGraph()
	nodes := make(map[string]engine.NodeID, len(project.Vertices)+len(project.Components))
	for _, v := range project.Vertices {
		nodes[v.Name] = g.AddVertex(v.Name, v.Source)
	}

	for i := range project.Components {
		c := &project.Components[i]
		cfg := engine.Configurable{
			Name:        c.Name,
			Constructor: c.Constructor,
			Import:      c.Import,
		}
		attached := append([]string(nil), c.Keys...)

		if c.Type != "" {
			t, ok := catalog.Lookup(c.Type)
			if !ok {
				return nil, engine.NewConfigError(fmt.Sprintf("component type %q is not registered", c.Type), nil).
					WithCode(engine.ErrCodeNotFound).
					WithNodes(c.Name)
			}
			cfg.Constructor = t.Constructor
			cfg.Import = t.Import
			if t.Arity >= 0 && len(c.Args) != t.Arity {
				return nil, engine.NewConfigError(
					fmt.Sprintf("component %q: type %q takes %d argument(s), got %d", c.Name, t.Name, t.Arity, len(c.Args)), nil).
					WithCode(engine.ErrCodeValidation).
					WithNodes(c.Name)
			}
			for _, spec := range t.Keys {
				if err := ensureSpecKey(reg, spec); err != nil {
					return nil, err
				}
				attached = append(attached, spec.Name)
			}
		}

		ks := engine.NewKeySet()
		for _, name := range attached {
			k, ok := reg.Lookup(name)
			if !ok {
				return nil, engine.NewConfigError(fmt.Sprintf("component %q attaches undeclared key %q", c.Name, name), nil).
					WithCode(engine.ErrCodeNotFound).
					WithKey(name).
					WithNodes(c.Name)
			}
			ks.Add(k)
		}
		cfg.Keys = ks

		args, err := resolveNodes(nodes, c.Args, c.Name, "argument")
		if err != nil {
			return nil, err
		}
		deps, err := resolveNodes(nodes, c.Requires, c.Name, "dependency")
		if err != nil {
			return nil, err
		}

		id, err := g.AddConfigurable(cfg, args, deps)
		if err != nil {
			return nil, err
		}
		nodes[c.Name] = id
	}

	root, ok := nodes[project.App.Root]
	if !ok {
		return nil, engine.NewConfigError(fmt.Sprintf("root node %q does not exist", project.App.Root), nil).
			WithCode(engine.ErrCodeNotFound)
	}

	return &Session{
		Project:  project,
		Registry: reg,
		Graph:    g,
		Context:  engine.NewEvalContext(),
		Nodes:    nodes,
		Root:     root,
	}, nil
}

// BindFlags parses args as --key=value flags for the keys matching
// filter and writes the parsed values into the session context.
// Malformed values are collected per key and joined, never aborting
// the parse of the other keys.
func (s *Session) BindFlags(filter engine.StageFilter, args []string) error {
	binder := engine.NewFlagBinder(filter, s.Graph.Keys())

	fs := pflag.NewFlagSet(s.Project.App.Name, pflag.ContinueOnError)
	binder.Register(fs)
	if err := fs.Parse(args); err != nil {
		return engine.NewUserError("invalid command line", err).
			WithCode(engine.ErrCodeValidation)
	}

	if errs := binder.Bind(s.Context); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Evaluate evaluates the session graph against its context.
func (s *Session) Evaluate(mode engine.EvalMode) (*engine.Resolution, error) {
	return s.Graph.Evaluate(s.Context, mode)
}

// registerKey creates a typed key from a declaration. The default must
// already be coerced to the declared type.
func registerKey(reg *engine.Registry, name, typ string, stage engine.Stage, def interface{}, doc engine.Doc) error {
	switch typ {
	case "string":
		d, _ := def.(string)
		_, err := engine.NewKeyRaw(reg, doc, stage, d, name, engine.StringDescriptor())
		return err
	case "int":
		d, _ := def.(int)
		_, err := engine.NewKeyRaw(reg, doc, stage, d, name, engine.IntDescriptor())
		return err
	case "bool":
		d, _ := def.(bool)
		_, err := engine.NewKeyRaw(reg, doc, stage, d, name, engine.BoolDescriptor())
		return err
	case "strings":
		d, _ := def.([]string)
		if d == nil {
			d = []string{}
		}
		_, err := engine.NewKeyRaw(reg, doc, stage, d, name, engine.StringsDescriptor())
		return err
	default:
		return engine.NewConfigError(fmt.Sprintf("key %q has unknown type %q", name, typ), nil).
			WithCode(engine.ErrCodeValidation).
			WithKey(name)
	}
}

// ensureSpecKey registers a component type's key declaration unless a
// key with that name already exists. An explicit project declaration
// therefore overrides the type's default and help text.
func ensureSpecKey(reg *engine.Registry, spec components.KeySpec) error {
	if _, ok := reg.Lookup(spec.Name); ok {
		return nil
	}

	decl := KeyDecl{
		Name:    spec.Name,
		Type:    spec.Type,
		Stage:   spec.Stage,
		Default: spec.Default,
		Help:    spec.Help,
	}
	if err := coerceDefault(&decl); err != nil {
		return engine.NewConfigError(fmt.Sprintf("component key %q has a bad default", spec.Name), err).
			WithCode(engine.ErrCodeValidation).
			WithKey(spec.Name)
	}

	return registerKey(reg, decl.Name, decl.Type, engine.Stage(decl.stageOrDefault()), decl.Default, engine.Doc{Help: decl.Help})
}

// resolveNodes maps declared node names to graph ids.
func resolveNodes(nodes map[string]engine.NodeID, names []string, component, role string) ([]engine.NodeID, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]engine.NodeID, len(names))
	for i, name := range names {
		id, ok := nodes[name]
		if !ok {
			return nil, engine.NewConfigError(fmt.Sprintf("component %q: %s %q is not a declared node", component, role, name), nil).
				WithCode(engine.ErrCodeNotFound).
				WithNodes(component, name)
		}
		out[i] = id
	}
	return out, nil
}
