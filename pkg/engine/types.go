package engine

import "fmt"

// Stage declares when a key's value is required: while composing and
// generating the application, while the generated artifact runs, or both.
type Stage string

const (
	// StageConfigure marks a key consumed only during configuration and
	// source generation. Its value is baked into the generated source.
	StageConfigure Stage = "configure"

	// StageRun marks a key consumed only by the generated artifact at
	// run time. It surfaces as a flag of the generated binary.
	StageRun Stage = "run"

	// StageBoth marks a key consumed in both stages. The configured
	// value becomes the generated flag's default.
	StageBoth Stage = "both"
)

// Validate checks that the stage is a known value.
func (s Stage) Validate() error {
	switch s {
	case StageConfigure, StageRun, StageBoth:
		return nil
	default:
		return fmt.Errorf("invalid stage: %s", s)
	}
}

// IsRuntime reports whether the key's value is needed at run time.
func (s Stage) IsRuntime() bool {
	return s == StageRun || s == StageBoth
}

// IsConfigure reports whether the key's value is needed at configure time.
func (s Stage) IsConfigure() bool {
	return s == StageConfigure || s == StageBoth
}

// StageFilter selects the subset of keys that participate in one
// command-line surface. Each build phase assembles its own flag set.
type StageFilter string

const (
	// FilterAll matches every key regardless of stage.
	FilterAll StageFilter = "all"

	// FilterConfigure matches keys needed at configure time
	// (StageConfigure or StageBoth).
	FilterConfigure StageFilter = "configure"

	// FilterRuntime matches keys needed at run time
	// (StageRun or StageBoth).
	FilterRuntime StageFilter = "runtime"
)

// Validate checks that the filter is a known value.
func (f StageFilter) Validate() error {
	switch f {
	case FilterAll, FilterConfigure, FilterRuntime:
		return nil
	default:
		return fmt.Errorf("invalid stage filter: %s", f)
	}
}

// Matches reports whether a key with the given stage belongs to the
// filtered flag surface.
func (f StageFilter) Matches(s Stage) bool {
	switch f {
	case FilterAll:
		return true
	case FilterConfigure:
		return s.IsConfigure()
	case FilterRuntime:
		return s.IsRuntime()
	default:
		return false
	}
}

// EvalMode selects how much of the graph's key space an evaluation pass
// is allowed to resolve.
type EvalMode string

const (
	// EvalPartial resolves only keys whose cells are already set,
	// without forcing defaults. Used for fast structural description
	// before the full argument surface has been parsed.
	EvalPartial EvalMode = "partial"

	// EvalFull fills every unresolved key cell with its default and
	// then evaluates every expression reachable from the graph. Used
	// before source generation or a build.
	EvalFull EvalMode = "full"
)

// Validate checks that the mode is a known value.
func (m EvalMode) Validate() error {
	switch m {
	case EvalPartial, EvalFull:
		return nil
	default:
		return fmt.Errorf("invalid evaluation mode: %s", m)
	}
}

// ValueSource records how a key's cell was populated.
type ValueSource string

const (
	// SourceFlag marks a value supplied explicitly, typically on the
	// command line.
	SourceFlag ValueSource = "flag"

	// SourceDefault marks a value filled in from the key's default.
	SourceDefault ValueSource = "default"
)

// NodeKind identifies the three graph node variants.
type NodeKind string

const (
	// NodeVertex is an opaque leaf carrying pre-rendered source text.
	NodeVertex NodeKind = "vertex"

	// NodeConfigurable is a composable unit with its own keys and an
	// ordered list of constructor arguments.
	NodeConfigurable NodeKind = "configurable"

	// NodeApp applies a previously added node to a list of arguments.
	NodeApp NodeKind = "app"
)

// Validate checks that the node kind is a known value.
func (k NodeKind) Validate() error {
	switch k {
	case NodeVertex, NodeConfigurable, NodeApp:
		return nil
	default:
		return fmt.Errorf("invalid node kind: %s", k)
	}
}
