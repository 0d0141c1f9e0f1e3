package components

import (
	"errors"
	"testing"

	"github.com/yomimono/functoria/pkg/engine"
)

func TestCatalog_Builtins(t *testing.T) {
	c := NewCatalog()

	for _, name := range []string{"console", "logger", "http_server", "kv_store"} {
		typ, ok := c.Lookup(name)
		if !ok {
			t.Fatalf("Expected builtin type %q to be registered", name)
		}
		if typ.Constructor == "" {
			t.Fatalf("Expected builtin type %q to carry a constructor", name)
		}
		if typ.Import == "" {
			t.Fatalf("Expected builtin type %q to carry an import path", name)
		}
		if typ.Pack != "" {
			t.Fatalf("Expected builtin type %q to have no pack, got %q", name, typ.Pack)
		}
	}

	if c.Len() != 4 {
		t.Fatalf("Expected 4 builtin types, got %d", c.Len())
	}
}

func TestCatalog_RegisterDuplicate(t *testing.T) {
	c := NewCatalog()

	err := c.Register(Type{Name: "logger", Constructor: "x.New", Import: "example.com/x"})
	if err == nil {
		t.Fatal("Expected duplicate registration to fail")
	}
	if !engine.IsCode(err, engine.ErrCodeAlreadyExists) {
		t.Fatalf("Expected ALREADY_EXISTS, got %v", err)
	}

	var e *engine.Error
	if !errors.As(err, &e) {
		t.Fatalf("Expected a classified error, got %T", err)
	}
	if e.Class != engine.ErrorClassConfig {
		t.Fatalf("Expected config class, got %s", e.Class)
	}
}

func TestCatalog_RegisterValidation(t *testing.T) {
	c := NewCatalog()

	if err := c.Register(Type{Constructor: "x.New"}); err == nil {
		t.Fatal("Expected registration without a name to fail")
	}
	if err := c.Register(Type{Name: "x"}); err == nil {
		t.Fatal("Expected registration without a constructor to fail")
	}
}

func TestCatalog_TypesOrder(t *testing.T) {
	c := NewCatalog()

	if err := c.Register(Type{Name: "zeta", Constructor: "z.New", Import: "example.com/z"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := c.Register(Type{Name: "alpha", Constructor: "a.New", Import: "example.com/a"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	types := c.Types()
	if len(types) != 6 {
		t.Fatalf("Expected 6 types, got %d", len(types))
	}
	// Registration order, not name order.
	if types[4].Name != "zeta" || types[5].Name != "alpha" {
		t.Fatalf("Expected registration order to be preserved, got %s, %s", types[4].Name, types[5].Name)
	}
}

func TestCatalog_Merge(t *testing.T) {
	c := NewCatalog()

	types := []Type{
		{Name: "mqtt_client", Constructor: "mqtt.NewClient", Import: "example.com/mqtt"},
		{Name: "mqtt_broker", Constructor: "mqtt.NewBroker", Import: "example.com/mqtt"},
	}
	if err := c.Merge(types, "mqtt"); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	typ, ok := c.Lookup("mqtt_client")
	if !ok {
		t.Fatal("Expected merged type to be registered")
	}
	if typ.Pack != "mqtt" {
		t.Fatalf("Expected pack %q, got %q", "mqtt", typ.Pack)
	}
}

func TestCatalog_MergeCollision(t *testing.T) {
	c := NewCatalog()

	err := c.Merge([]Type{{Name: "console", Constructor: "x.New", Import: "example.com/x"}}, "other")
	if err == nil {
		t.Fatal("Expected merge colliding with a builtin to fail")
	}
	if !engine.IsCode(err, engine.ErrCodeAlreadyExists) {
		t.Fatalf("Expected ALREADY_EXISTS, got %v", err)
	}
}
