package policy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/rego"
	"github.com/yomimono/functoria/pkg/telemetry"
)

// Engine evaluates rego policies against a resolution document. All
// modules share the functoria package; the deny and warn rule sets are
// prepared once and reused across evaluations.
type Engine struct {
	mu       sync.RWMutex
	policies []Policy
	deny     rego.PreparedEvalQuery
	warn     rego.PreparedEvalQuery
	logger   *telemetry.Logger
}

// NewEngine creates an engine with the builtin policy plus any extra
// modules, preparing the deny and warn queries up front.
func NewEngine(logger *telemetry.Logger, extra ...Policy) (*Engine, error) {
	if logger == nil {
		l, err := telemetry.NewLogger(telemetry.DefaultConfig().Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to create policy logger: %w", err)
		}
		logger = l
	}

	e := &Engine{
		policies: append([]Policy{BuiltinPolicy()}, extra...),
		logger:   logger,
	}

	if err := e.prepare(context.Background()); err != nil {
		return nil, err
	}
	return e, nil
}

// prepare compiles every module and builds the two shared queries.
func (e *Engine) prepare(ctx context.Context) error {
	denyOpts := []func(*rego.Rego){rego.Query("data.functoria.deny")}
	warnOpts := []func(*rego.Rego){rego.Query("data.functoria.warn")}
	for _, p := range e.policies {
		denyOpts = append(denyOpts, rego.Module(p.Name, p.Rego))
		warnOpts = append(warnOpts, rego.Module(p.Name, p.Rego))
	}

	deny, err := rego.New(denyOpts...).PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("failed to prepare deny query: %w", err)
	}
	warn, err := rego.New(warnOpts...).PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("failed to prepare warn query: %w", err)
	}

	e.deny = deny
	e.warn = warn

	e.logger.Debugf("prepared %d policy module(s)", len(e.policies))
	return nil
}

// AddPolicies compiles additional modules into the engine.
func (e *Engine) AddPolicies(ctx context.Context, policies ...Policy) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.policies = append(e.policies, policies...)
	if err := e.prepare(ctx); err != nil {
		// Roll back so the engine keeps working with what it had.
		e.policies = e.policies[:len(e.policies)-len(policies)]
		return err
	}
	return nil
}

// LoadPaths loads .rego files or directories and compiles them in.
func (e *Engine) LoadPaths(ctx context.Context, paths []string) error {
	policies, err := NewLoader(e.logger).LoadFromPaths(ctx, paths)
	if err != nil {
		return err
	}
	if len(policies) == 0 {
		return nil
	}
	return e.AddPolicies(ctx, policies...)
}

// Policies returns the loaded modules in load order.
func (e *Engine) Policies() []Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Policy(nil), e.policies...)
}

// Evaluate runs the deny and warn rule sets over one input document.
func (e *Engine) Evaluate(ctx context.Context, input *Input) (*Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	start := time.Now()

	violations, err := e.run(ctx, e.deny, "deny", SeverityDeny, input)
	if err != nil {
		return nil, err
	}
	warnings, err := e.run(ctx, e.warn, "warn", SeverityWarn, input)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(e.policies))
	for _, p := range e.policies {
		names = append(names, p.Name)
	}

	result := &Result{
		Allowed:     len(violations) == 0,
		Violations:  violations,
		Warnings:    warnings,
		EvaluatedAt: time.Now().UTC(),
		Duration:    time.Since(start),
		Policies:    names,
	}

	e.logger.Debugf("policy evaluation for %s: %d violation(s), %d warning(s) in %s",
		input.App.Name, len(result.Violations), len(result.Warnings), result.Duration)

	return result, nil
}

// run evaluates one prepared query and decodes its violation set.
func (e *Engine) run(ctx context.Context, query rego.PreparedEvalQuery, rule string, severity Severity, input *Input) ([]Violation, error) {
	results, err := query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("%s rule evaluation failed: %w", rule, err)
	}

	var violations []Violation
	for _, result := range results {
		for _, expr := range result.Expressions {
			set, ok := expr.Value.([]interface{})
			if !ok {
				continue
			}
			for _, raw := range set {
				violations = append(violations, decodeViolation(raw, rule, severity))
			}
		}
	}
	return violations, nil
}

// decodeViolation turns one rego result into a Violation. Rules emit
// either a bare message string or an object with policy and message.
func decodeViolation(raw interface{}, rule string, severity Severity) Violation {
	v := Violation{Rule: rule, Severity: severity}
	switch value := raw.(type) {
	case string:
		v.Message = value
	case map[string]interface{}:
		if msg, ok := value["message"].(string); ok {
			v.Message = msg
		}
		if name, ok := value["policy"].(string); ok {
			v.Policy = name
		}
	default:
		v.Message = fmt.Sprintf("%v", raw)
	}
	return v
}
