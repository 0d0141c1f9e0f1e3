package engine

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// RuntimeImport is the import path of the flag-parsing support package
// every generated program links against.
const RuntimeImport = "github.com/yomimono/functoria/pkg/runtime"

// GenerateSource renders the graph as a compilable main package. The
// context must already be fully resolved (a full Evaluate against the
// same context); a key still unset aborts generation.
//
// The output is deterministic: nodes are bound in stable topological
// order, key arguments follow canonical key order, and the import block
// is sorted. The same graph and context always produce identical bytes.
func (g *Graph) GenerateSource(ctx *EvalContext) (string, error) {
	if len(g.nodes) == 0 {
		return "", NewConfigError("cannot generate source for an empty graph", nil).
			WithCode(ErrCodeValidation)
	}
	if ctx == nil {
		ctx = NewEvalContext()
	}

	order, err := g.Toposort()
	if err != nil {
		return "", err
	}

	runtimeKeys := make([]Key, 0)
	for _, k := range g.Keys().Keys() {
		if k.Stage().IsRuntime() {
			runtimeKeys = append(runtimeKeys, k)
		}
	}

	imports := map[string]bool{RuntimeImport: true}
	for _, n := range g.nodes {
		if n.cfg != nil && n.cfg.Import != "" {
			imports[n.cfg.Import] = true
		}
	}
	importPaths := make([]string, 0, len(imports))
	for path := range imports {
		importPaths = append(importPaths, path)
	}
	sort.Strings(importPaths)

	var b strings.Builder
	b.WriteString("// Code generated by functoria. DO NOT EDIT.\n\n")
	b.WriteString("package main\n\n")
	b.WriteString("import (\n")
	for _, path := range importPaths {
		fmt.Fprintf(&b, "\t%q\n", path)
	}
	b.WriteString(")\n\n")

	if len(runtimeKeys) > 0 {
		b.WriteString("var (\n")
		for _, k := range runtimeKeys {
			raw, ok := ctx.lookup(k.Name())
			if !ok {
				return "", NewInternalError(fmt.Sprintf("key %q reached code generation without a value", k.Name()), nil).
					WithCode(ErrCodeUnresolvedKey).
					WithKey(k.Name())
			}
			ctor, ok := runtimeCtor(raw)
			if !ok {
				return "", NewConfigError(fmt.Sprintf("key %q has no runtime flag form for type %s", k.Name(), k.TypeDescription()), nil).
					WithCode(ErrCodeValidation).
					WithKey(k.Name())
			}
			def, err := k.SerializeValue(ctx)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "\t%s = runtime.%s(%q, %s, %q)\n",
				keyVarIdent(k.Name()), ctor, k.Name(), def, k.Doc().Help)
		}
		b.WriteString(")\n\n")
	}

	names := make(map[NodeID]string, len(g.nodes))
	referenced := make(map[NodeID]bool, len(g.nodes))
	for _, n := range g.nodes {
		if n.kind == NodeApp {
			referenced[n.base] = true
		}
		for _, arg := range n.args {
			referenced[arg] = true
		}
	}
	final := order[len(order)-1]
	referenced[final] = true

	b.WriteString("func main() {\n")
	b.WriteString("\truntime.Parse()\n\n")

	for _, id := range order {
		n := g.nodes[id]
		name := bindingIdent(n.label, n.id)
		names[id] = name

		switch n.kind {
		case NodeVertex:
			fmt.Fprintf(&b, "\t%s := %s\n", name, n.source)
		case NodeConfigurable:
			callArgs := make([]string, 0, len(n.args)+n.cfg.Keys.Len())
			for _, arg := range n.args {
				callArgs = append(callArgs, names[arg])
			}
			for _, k := range n.cfg.Keys.Keys() {
				if k.Stage().IsRuntime() {
					callArgs = append(callArgs, keyVarIdent(k.Name())+".Get()")
					continue
				}
				lit, err := k.SerializeValue(ctx)
				if err != nil {
					return "", err
				}
				callArgs = append(callArgs, lit)
			}
			fmt.Fprintf(&b, "\t%s := %s(%s)\n", name, n.cfg.Constructor, strings.Join(callArgs, ", "))
		case NodeApp:
			callArgs := make([]string, 0, len(n.args))
			for _, arg := range n.args {
				callArgs = append(callArgs, names[arg])
			}
			fmt.Fprintf(&b, "\t%s := %s(%s)\n", name, names[n.base], strings.Join(callArgs, ", "))
		}
	}

	var unused []string
	for _, id := range order {
		if !referenced[id] {
			unused = append(unused, names[id])
		}
	}
	if len(unused) > 0 {
		b.WriteString("\n")
		for _, name := range unused {
			fmt.Fprintf(&b, "\t_ = %s\n", name)
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "\truntime.Main(%s)\n", names[final])
	b.WriteString("}\n")
	return b.String(), nil
}

// runtimeCtor maps a resolved key value to the runtime package
// constructor that registers its flag.
func runtimeCtor(v interface{}) (string, bool) {
	switch v.(type) {
	case string:
		return "String", true
	case int:
		return "Int", true
	case bool:
		return "Bool", true
	case []string:
		return "Strings", true
	}
	return "", false
}

// bindingIdent derives a unique Go identifier for a node binding from
// its label and arena id.
func bindingIdent(label string, id NodeID) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune('_')
		}
	}
	s := b.String()
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		s = "n" + s
	}
	return fmt.Sprintf("%s%d", s, id)
}

// keyVarIdent derives the generated variable name for a runtime key,
// for example "log_level" becomes "keyLogLevel".
func keyVarIdent(name string) string {
	var b strings.Builder
	b.WriteString("key")
	for _, part := range strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(part[size:])
	}
	return b.String()
}
