package components

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PackMetadata identifies a component pack.
type PackMetadata struct {
	// Name is the pack name.
	Name string `yaml:"name"`

	// Version is the pack version.
	Version string `yaml:"version"`

	// Author is the pack author.
	Author string `yaml:"author"`

	// License is the pack license identifier.
	License string `yaml:"license"`

	// Description describes what the pack provides.
	Description string `yaml:"description,omitempty"`
}

// Manifest is a parsed pack manifest. A pack always declares its
// component types in the manifest; an optional WASM entrypoint can
// contribute more at load time.
type Manifest struct {
	// Metadata identifies the pack.
	Metadata PackMetadata `yaml:"metadata"`

	// Entrypoint is the optional WASM module path, relative to the
	// manifest.
	Entrypoint string `yaml:"entrypoint,omitempty"`

	// Checksum is the hex sha256 of the WASM module. Required when
	// Entrypoint is set.
	Checksum string `yaml:"checksum,omitempty"`

	// Components are the component types the manifest declares.
	Components []Type `yaml:"components,omitempty"`

	// Path is the file path the manifest was loaded from.
	Path string `yaml:"-"`

	// WasmPath is the resolved entrypoint path.
	WasmPath string `yaml:"-"`

	// Verified reports whether the WASM module checksum has been
	// verified.
	Verified bool `yaml:"-"`
}

// ManifestLoader loads and validates pack manifests.
type ManifestLoader struct {
	// BaseDir is the base directory for resolving relative paths.
	BaseDir string
}

// NewManifestLoader creates a new manifest loader.
func NewManifestLoader(baseDir string) *ManifestLoader {
	return &ManifestLoader{
		BaseDir: baseDir,
	}
}

// LoadFromFile loads a manifest from a YAML file.
func (m *ManifestLoader) LoadFromFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	manifest, err := m.LoadFromBytes(data)
	if err != nil {
		return nil, err
	}
	manifest.Path = path

	if err := m.resolveWasmPath(manifest); err != nil {
		return nil, fmt.Errorf("failed to resolve WASM path: %w", err)
	}

	return manifest, nil
}

// LoadFromBytes loads a manifest from raw YAML bytes.
func (m *ManifestLoader) LoadFromBytes(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest YAML: %w", err)
	}

	if err := m.validateManifest(&manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	return &manifest, nil
}

// validateManifest validates the basic structure of a manifest.
func (m *ManifestLoader) validateManifest(manifest *Manifest) error {
	if manifest.Metadata.Name == "" {
		return fmt.Errorf("pack name is required")
	}
	if manifest.Metadata.Version == "" {
		return fmt.Errorf("pack version is required")
	}
	if manifest.Metadata.Author == "" {
		return fmt.Errorf("pack author is required")
	}
	if manifest.Metadata.License == "" {
		return fmt.Errorf("pack license is required")
	}

	if manifest.Entrypoint != "" && manifest.Checksum == "" {
		return fmt.Errorf("checksum is required when an entrypoint is declared")
	}
	if manifest.Entrypoint == "" && len(manifest.Components) == 0 {
		return fmt.Errorf("at least one component type or an entrypoint is required")
	}

	for i, t := range manifest.Components {
		if t.Name == "" {
			return fmt.Errorf("component %d: name is required", i)
		}
		if t.Constructor == "" {
			return fmt.Errorf("component %s: constructor is required", t.Name)
		}
		if t.Import == "" {
			return fmt.Errorf("component %s: import is required", t.Name)
		}
		for _, spec := range t.Keys {
			switch spec.Type {
			case "string", "int", "bool", "strings":
			default:
				return fmt.Errorf("component %s: key %s has unknown type %q", t.Name, spec.Name, spec.Type)
			}
		}
	}

	return nil
}

// resolveWasmPath resolves the path to the WASM module.
func (m *ManifestLoader) resolveWasmPath(manifest *Manifest) error {
	if manifest.Entrypoint == "" {
		return nil
	}

	if filepath.IsAbs(manifest.Entrypoint) {
		manifest.WasmPath = manifest.Entrypoint
	} else if manifest.Path != "" {
		manifest.WasmPath = filepath.Join(filepath.Dir(manifest.Path), manifest.Entrypoint)
	} else {
		manifest.WasmPath = filepath.Join(m.BaseDir, manifest.Entrypoint)
	}

	if _, err := os.Stat(manifest.WasmPath); err != nil {
		return fmt.Errorf("WASM module not found at %s: %w", manifest.WasmPath, err)
	}

	return nil
}

// VerifyChecksum verifies the WASM module checksum against the
// manifest.
func (m *Manifest) VerifyChecksum(wasmModule []byte) error {
	if m.Checksum == "" {
		return fmt.Errorf("no checksum in manifest")
	}

	hash := sha256.Sum256(wasmModule)
	computed := hex.EncodeToString(hash[:])

	if computed != m.Checksum {
		return fmt.Errorf("WASM module checksum mismatch: expected %s, got %s",
			m.Checksum, computed)
	}

	m.Verified = true
	return nil
}

// Key builds the unique pack key (name@version).
func (m *Manifest) Key() string {
	return buildPackKey(m.Metadata.Name, m.Metadata.Version)
}

// buildPackKey builds a unique key for a pack.
func buildPackKey(name, version string) string {
	return name + "@" + version
}
