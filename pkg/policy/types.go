package policy

import (
	"time"

	"github.com/yomimono/functoria/pkg/config"
	"github.com/yomimono/functoria/pkg/engine"
)

// Severity classifies a violation: deny blocks the build, warn is
// reported and ignored.
type Severity string

const (
	// SeverityDeny blocks the build.
	SeverityDeny Severity = "deny"

	// SeverityWarn is reported without blocking.
	SeverityWarn Severity = "warn"
)

// Policy is one rego module evaluated against the resolution document.
type Policy struct {
	// Name is the unique policy name.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description,omitempty"`

	// Rego contains the rego source.
	Rego string `json:"rego"`

	// Source is where the policy came from: "builtin" or a file path.
	Source string `json:"source"`
}

// Violation is one rule firing.
type Violation struct {
	// Policy names the policy rule that fired, as reported by the
	// rule itself.
	Policy string `json:"policy"`

	// Rule is the query the violation came from: "deny" or "warn".
	Rule string `json:"rule"`

	// Message is the human-readable violation message.
	Message string `json:"message"`

	// Severity mirrors Rule as a classification.
	Severity Severity `json:"severity"`
}

// Result is the outcome of one policy evaluation.
type Result struct {
	// Allowed is false when any deny rule fired.
	Allowed bool `json:"allowed"`

	// Violations lists the deny violations.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists the warn violations.
	Warnings []Violation `json:"warnings,omitempty"`

	// EvaluatedAt is when the evaluation ran.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`

	// Policies names the modules that were evaluated.
	Policies []string `json:"policies"`
}

// AppInput identifies the application under evaluation.
type AppInput struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// KeyInput is one resolved key in the input document.
type KeyInput struct {
	Name   string `json:"name"`
	Stage  string `json:"stage"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// ComponentInput is one declared component in the input document.
type ComponentInput struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Constructor string `json:"constructor,omitempty"`
	Import      string `json:"import,omitempty"`
}

// GraphInput summarizes the composition graph.
type GraphInput struct {
	Nodes int `json:"nodes"`
}

// Input is the resolution document policies evaluate over.
type Input struct {
	App        AppInput         `json:"app"`
	Keys       []KeyInput       `json:"keys"`
	Components []ComponentInput `json:"components"`
	Graph      GraphInput       `json:"graph"`
}

// NewInput builds the input document from a composed session and its
// resolution.
func NewInput(session *config.Session, res *engine.Resolution) *Input {
	in := &Input{
		App: AppInput{
			Name:    session.Project.App.Name,
			Version: session.Project.App.Version,
		},
		Graph: GraphInput{Nodes: session.Graph.Len()},
	}

	for _, rk := range res.Keys {
		in.Keys = append(in.Keys, KeyInput{
			Name:   rk.Name,
			Stage:  string(rk.Stage),
			Value:  rk.Value,
			Source: string(rk.Source),
		})
	}

	for _, c := range session.Project.Components {
		in.Components = append(in.Components, ComponentInput{
			Name:        c.Name,
			Type:        c.Type,
			Constructor: c.Constructor,
			Import:      c.Import,
		})
	}

	return in
}
