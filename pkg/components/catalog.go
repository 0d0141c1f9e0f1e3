package components

import (
	"fmt"
	"sync"

	"github.com/yomimono/functoria/pkg/engine"
)

// KeySpec declares one key a component type brings with it. Specs use
// the same shape in builtin declarations, pack manifests, and pack
// module output.
type KeySpec struct {
	// Name is the key name.
	Name string `json:"name" yaml:"name"`

	// Type is the key's value type: string, int, bool, or strings.
	Type string `json:"type" yaml:"type"`

	// Stage decides when the key's value applies (default both).
	Stage string `json:"stage,omitempty" yaml:"stage,omitempty"`

	// Default is the key's default value.
	Default interface{} `json:"default,omitempty" yaml:"default,omitempty"`

	// Help is the one-line flag help text.
	Help string `json:"help,omitempty" yaml:"help,omitempty"`
}

// Type is one registered component type: the constructor generated
// source calls, the import path providing it, the number of node
// arguments it takes, and the keys it declares. Key values become
// trailing constructor arguments in canonical name order.
type Type struct {
	// Name is the type name referenced from project files.
	Name string `json:"name" yaml:"name"`

	// Constructor is the generated-code constructor (for example
	// "components.NewLogger").
	Constructor string `json:"constructor" yaml:"constructor"`

	// Import is the import path providing Constructor.
	Import string `json:"import" yaml:"import"`

	// Arity is the number of node arguments the constructor takes
	// before key values. Negative means any number.
	Arity int `json:"arity" yaml:"arity"`

	// Keys are the key declarations attached to every component of
	// this type.
	Keys []KeySpec `json:"keys,omitempty" yaml:"keys,omitempty"`

	// Pack names the pack that contributed the type, empty for
	// builtins.
	Pack string `json:"pack,omitempty" yaml:"pack,omitempty"`
}

// Catalog is the set of component types a composition may reference.
// A catalog starts with the builtin types; packs merge more in.
type Catalog struct {
	mu    sync.RWMutex
	order []string
	types map[string]Type
}

// runtimeComponentsImport is the import path of the builtin component
// implementations linked into generated programs.
const runtimeComponentsImport = "github.com/yomimono/functoria/pkg/runtime/components"

// NewCatalog creates a catalog holding the builtin component types.
func NewCatalog() *Catalog {
	c := &Catalog{types: make(map[string]Type)}
	for _, t := range builtinTypes() {
		// Builtins cannot collide; ignore the error.
		_ = c.Register(t)
	}
	return c
}

// builtinTypes returns the component types every catalog starts with.
func builtinTypes() []Type {
	return []Type{
		{
			Name:        "console",
			Constructor: "components.NewConsole",
			Import:      runtimeComponentsImport,
			Arity:       0,
		},
		{
			Name:        "logger",
			Constructor: "components.NewLogger",
			Import:      runtimeComponentsImport,
			Arity:       1,
			Keys: []KeySpec{
				{Name: "log_level", Type: "string", Stage: "both", Default: "info", Help: "minimum level the logger emits"},
			},
		},
		{
			Name:        "http_server",
			Constructor: "components.NewHTTPServer",
			Import:      runtimeComponentsImport,
			Arity:       1,
			Keys: []KeySpec{
				{Name: "port", Type: "int", Stage: "run", Default: 8080, Help: "TCP port the server listens on"},
			},
		},
		{
			Name:        "kv_store",
			Constructor: "components.NewKVStore",
			Import:      runtimeComponentsImport,
			Arity:       0,
			Keys: []KeySpec{
				{Name: "kv_path", Type: "string", Stage: "both", Default: "functoria.kv", Help: "path of the key-value store file"},
			},
		},
	}
}

// Register adds a component type. Registration fails with an
// ALREADY_EXISTS error when the name is taken; types are never
// silently replaced.
func (c *Catalog) Register(t Type) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Name == "" {
		return engine.NewConfigError("component type name must not be empty", nil).
			WithCode(engine.ErrCodeValidation)
	}
	if t.Constructor == "" {
		return engine.NewConfigError(fmt.Sprintf("component type %q has no constructor", t.Name), nil).
			WithCode(engine.ErrCodeValidation)
	}
	if existing, exists := c.types[t.Name]; exists {
		err := engine.NewConfigError(fmt.Sprintf("component type %q is already registered", t.Name), nil).
			WithCode(engine.ErrCodeAlreadyExists)
		if existing.Pack != "" {
			err = err.WithDetail("pack", existing.Pack)
		}
		return err
	}

	c.types[t.Name] = t
	c.order = append(c.order, t.Name)
	return nil
}

// Lookup returns the type registered under name.
func (c *Catalog) Lookup(name string) (Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.types[name]
	return t, ok
}

// Types returns every registered type in registration order.
func (c *Catalog) Types() []Type {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Type, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.types[name])
	}
	return out
}

// Len returns the number of registered types.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}

// Merge registers every type under the contributing pack's name. The
// first collision aborts the merge and reports which pack already
// owns the name.
func (c *Catalog) Merge(types []Type, pack string) error {
	for _, t := range types {
		t.Pack = pack
		if err := c.Register(t); err != nil {
			return fmt.Errorf("pack %s: %w", pack, err)
		}
	}
	return nil
}
