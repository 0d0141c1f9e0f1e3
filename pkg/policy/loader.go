package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-policy-agent/opa/ast"
	"github.com/yomimono/functoria/pkg/telemetry"
)

// Loader reads rego policy files. Modules must live in the functoria
// package; anything else would never be reached by the engine's
// queries, so it is rejected at load time.
type Loader struct {
	logger *telemetry.Logger
}

// NewLoader creates a loader.
func NewLoader(logger *telemetry.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadFromPaths loads policies from files or directories. Directories
// are walked recursively for .rego files.
func (l *Loader) LoadFromPaths(ctx context.Context, paths []string) ([]Policy, error) {
	var policies []Policy
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat policy path %s: %w", path, err)
		}

		if !info.IsDir() {
			p, err := l.loadFromFile(path)
			if err != nil {
				return nil, err
			}
			policies = append(policies, *p)
			continue
		}

		err = filepath.WalkDir(path, func(file string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(file, ".rego") {
				return nil
			}
			p, err := l.loadFromFile(file)
			if err != nil {
				return err
			}
			policies = append(policies, *p)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk policy directory %s: %w", path, err)
		}
	}

	if l.logger != nil {
		l.logger.Debugf("loaded %d policy file(s)", len(policies))
	}
	return policies, nil
}

// loadFromFile reads and validates a single .rego file.
func (l *Loader) loadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), ".rego")
	module, err := ast.ParseModule(name, string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}

	if pkg := module.Package.Path.String(); pkg != "data.functoria" {
		return nil, fmt.Errorf("policy file %s declares package %s, want package functoria", path, strings.TrimPrefix(pkg, "data."))
	}

	return &Policy{
		Name:   name,
		Rego:   string(data),
		Source: path,
	}, nil
}
