package engine

import (
	"fmt"

	"github.com/spf13/pflag"
)

// rawFlagValue receives a key's raw command-line input. Parsing is
// deferred to Bind so that one malformed value cannot abort the whole
// flag parse: failures are collected per key afterwards.
type rawFlagValue struct {
	key Key
	raw string
	set bool
}

// String implements pflag.Value.
func (v *rawFlagValue) String() string { return v.key.DefaultPrint() }

// Set implements pflag.Value. It records the raw input verbatim.
func (v *rawFlagValue) Set(raw string) error {
	v.raw = raw
	v.set = true
	return nil
}

// Type implements pflag.Value.
func (v *rawFlagValue) Type() string {
	if p := v.key.Doc().Placeholder; p != "" {
		return p
	}
	return "value"
}

// FlagBinder assembles one command-line surface from a key set and
// transfers the parsed values into an evaluation context. The binder is
// a pure parser from the context's point of view: it never mutates the
// context during flag parsing, only when Bind is called.
type FlagBinder struct {
	keys   []Key
	values map[string]*rawFlagValue
}

// NewFlagBinder creates a binder for the keys of ks whose stage matches
// filter. Keys are laid out in canonical name order.
func NewFlagBinder(filter StageFilter, ks *KeySet) *FlagBinder {
	b := &FlagBinder{values: make(map[string]*rawFlagValue)}
	for _, k := range ks.Keys() {
		if !filter.Matches(k.Stage()) {
			continue
		}
		b.keys = append(b.keys, k)
		b.values[k.Name()] = &rawFlagValue{key: k}
	}
	return b
}

// Keys returns the bound keys in canonical order.
func (b *FlagBinder) Keys() []Key { return b.keys }

// Register adds one flag per bound key to fs, using the key's Doc for
// help text and placeholder. Doc aliases register as hidden flags
// sharing the key's value.
func (b *FlagBinder) Register(fs *pflag.FlagSet) {
	for _, k := range b.keys {
		v := b.values[k.Name()]
		fs.Var(v, k.Name(), k.Doc().Help)
		for _, alias := range k.Doc().Aliases {
			fs.Var(v, alias, k.Doc().Help)
			_ = fs.MarkHidden(alias)
		}
	}
}

// Bind parses every raw value supplied during flag parsing and writes
// the successes into ctx with SourceFlag provenance. Parse failures are
// collected one per key and returned together; a failing key never
// blocks the others from resolving.
func (b *FlagBinder) Bind(ctx *EvalContext) []error {
	var errs []error
	for _, k := range b.keys {
		v := b.values[k.Name()]
		if !v.set {
			continue
		}
		parsed, err := k.ParseRaw(v.raw)
		if err != nil {
			errs = append(errs, NewUserError(fmt.Sprintf("invalid value %q for key %q", v.raw, k.Name()), err).
				WithCode(ErrCodeParseFailure).
				WithKey(k.Name()))
			continue
		}
		if err := ctx.set(k.Name(), parsed, SourceFlag); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
