package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Descriptor defines the parse/print/serialize contract for a key's value
// type. A descriptor is immutable, created once, and shared by every key
// of that type.
//
// Two laws bind every descriptor:
//
//   - Round trip: Parse(Print(v)) == v for every value produced by normal
//     construction. Parse is total and reports malformed input through its
//     error return, never by panicking.
//   - Serialization: Serialize(v) is Go source text that evaluates to v
//     when compiled into a generated artifact.
type Descriptor[T any] struct {
	parse       func(string) (T, error)
	print       func(T) string
	serialize   func(T) string
	description string
}

// NewDescriptor creates a descriptor from its four parts.
func NewDescriptor[T any](description string, parse func(string) (T, error), print, serialize func(T) string) Descriptor[T] {
	return Descriptor[T]{
		parse:       parse,
		print:       print,
		serialize:   serialize,
		description: description,
	}
}

// Parse converts raw input into a typed value.
func (d Descriptor[T]) Parse(raw string) (T, error) {
	return d.parse(raw)
}

// Print returns display text for a value.
func (d Descriptor[T]) Print(v T) string {
	return d.print(v)
}

// Serialize returns Go source text reconstructing a value.
func (d Descriptor[T]) Serialize(v T) string {
	return d.serialize(v)
}

// Description returns the human description of the value type.
func (d Descriptor[T]) Description() string {
	return d.description
}

// StringDescriptor returns the descriptor for plain string values.
// Parse and print are the identity; serialization quotes.
func StringDescriptor() Descriptor[string] {
	return NewDescriptor(
		"a string",
		func(raw string) (string, error) { return raw, nil },
		func(v string) string { return v },
		strconv.Quote,
	)
}

// IntDescriptor returns the descriptor for integer values.
func IntDescriptor() Descriptor[int] {
	return NewDescriptor(
		"an integer",
		func(raw string) (int, error) {
			v, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return 0, fmt.Errorf("invalid integer %q", raw)
			}
			return v, nil
		},
		strconv.Itoa,
		strconv.Itoa,
	)
}

// BoolDescriptor returns the descriptor for boolean values.
func BoolDescriptor() Descriptor[bool] {
	return NewDescriptor(
		"a boolean",
		func(raw string) (bool, error) {
			v, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				return false, fmt.Errorf("invalid boolean %q", raw)
			}
			return v, nil
		},
		strconv.FormatBool,
		strconv.FormatBool,
	)
}

// ListDescriptor builds a sequence descriptor from an element descriptor.
// Parsing splits the input on sep and parses each token; printing joins
// element prints with sep; serialization emits a slice literal of element
// serializations typed as typeLit (for example "[]string").
//
// Element prints must not contain sep, or the round-trip law breaks.
func ListDescriptor[T any](elem Descriptor[T], sep, typeLit string) Descriptor[[]T] {
	return NewDescriptor(
		fmt.Sprintf("a %q separated list, each element %s", sep, elem.Description()),
		func(raw string) ([]T, error) {
			if raw == "" {
				return []T{}, nil
			}
			tokens := strings.Split(raw, sep)
			out := make([]T, 0, len(tokens))
			for i, tok := range tokens {
				v, err := elem.Parse(tok)
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
				out = append(out, v)
			}
			return out, nil
		},
		func(vs []T) string {
			parts := make([]string, len(vs))
			for i, v := range vs {
				parts[i] = elem.Print(v)
			}
			return strings.Join(parts, sep)
		},
		func(vs []T) string {
			parts := make([]string, len(vs))
			for i, v := range vs {
				parts[i] = elem.Serialize(v)
			}
			return typeLit + "{" + strings.Join(parts, ", ") + "}"
		},
	)
}

// StringsDescriptor returns the descriptor for comma-separated string
// lists.
func StringsDescriptor() Descriptor[[]string] {
	return ListDescriptor(StringDescriptor(), ",", "[]string")
}
