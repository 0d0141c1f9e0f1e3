package components

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/yomimono/functoria/pkg/telemetry"
)

// Registry tracks the component packs found on disk and loads their
// contributed types into a catalog on demand. WASM modules stay
// uninstantiated until the first load.
type Registry struct {
	// mu protects the registry state.
	mu sync.RWMutex

	// packs maps pack key (name@version) to loaded pack instance.
	packs map[string]*Pack

	// manifests maps pack key to manifest.
	manifests map[string]*Manifest

	// wasmModules maps pack key to WASM module bytes.
	wasmModules map[string][]byte

	// loader is the manifest loader.
	loader *ManifestLoader

	// config is the default sandbox configuration.
	config *PackConfig

	// logger logs scan and load progress.
	logger *telemetry.Logger
}

// NewRegistry creates a new pack registry.
func NewRegistry(baseDir string, cfg *PackConfig) *Registry {
	if cfg == nil {
		cfg = &PackConfig{}
	}

	logger := cfg.Logger
	if logger == nil {
		if l, err := telemetry.NewLogger(telemetry.DefaultConfig().Logging); err == nil {
			logger = l
		}
	}

	return &Registry{
		packs:       make(map[string]*Pack),
		manifests:   make(map[string]*Manifest),
		wasmModules: make(map[string][]byte),
		loader:      NewManifestLoader(baseDir),
		config:      cfg,
		logger:      logger,
	}
}

// RegisterFromPath registers a pack from its manifest file. The WASM
// module, when declared, is read and checksum-verified immediately but
// instantiated lazily.
func (r *Registry) RegisterFromPath(ctx context.Context, manifestPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	manifest, err := r.loader.LoadFromFile(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	var wasmModule []byte
	if manifest.Entrypoint != "" {
		wasmModule, err = os.ReadFile(manifest.WasmPath)
		if err != nil {
			return fmt.Errorf("failed to read WASM module: %w", err)
		}
		if err := manifest.VerifyChecksum(wasmModule); err != nil {
			return fmt.Errorf("checksum verification failed: %w", err)
		}
	}

	key := manifest.Key()
	if _, exists := r.manifests[key]; exists {
		return fmt.Errorf("pack %s already registered", key)
	}

	r.manifests[key] = manifest
	if wasmModule != nil {
		r.wasmModules[key] = wasmModule
	}

	return nil
}

// ScanDirectory scans a directory for pack manifests
// (<dir>/<pack>/manifest.yaml) and registers them. A broken pack is
// logged and skipped; the scan continues.
func (r *Registry) ScanDirectory(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifestPath := filepath.Join(dir, entry.Name(), "manifest.yaml")
		if _, err := os.Stat(manifestPath); err != nil {
			continue
		}
		if err := r.RegisterFromPath(ctx, manifestPath); err != nil {
			if r.logger != nil {
				r.logger.WithError(err).Warnf("Skipping pack at %s", manifestPath)
			}
		}
	}

	return nil
}

// Get returns the pack registered under name and version, opening its
// WASM module on first use. Version accepts an exact version, "latest"
// (or empty), and tilde/caret ranges.
func (r *Registry) Get(ctx context.Context, name, version string) (*Pack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, err := r.resolveVersion(name, version)
	if err != nil {
		return nil, err
	}

	if pack, exists := r.packs[key]; exists {
		return pack, nil
	}

	manifest := r.manifests[key]
	wasmModule, exists := r.wasmModules[key]
	if !exists {
		return nil, fmt.Errorf("pack %s has no WASM entrypoint", key)
	}

	pack, err := OpenPack(ctx, manifest, wasmModule, r.config)
	if err != nil {
		return nil, fmt.Errorf("failed to open pack: %w", err)
	}

	r.packs[key] = pack
	return pack, nil
}

// LoadInto merges every registered pack's component types into the
// catalog: first the types the manifest declares, then the types the
// pack's WASM entrypoint contributes.
func (r *Registry) LoadInto(ctx context.Context, catalog *Catalog) error {
	for _, manifest := range r.List() {
		if err := catalog.Merge(manifest.Components, manifest.Metadata.Name); err != nil {
			return err
		}

		if manifest.Entrypoint == "" {
			continue
		}
		pack, err := r.Get(ctx, manifest.Metadata.Name, manifest.Metadata.Version)
		if err != nil {
			return err
		}
		types, err := pack.Components(ctx)
		if err != nil {
			return fmt.Errorf("pack %s: %w", manifest.Key(), err)
		}
		if err := catalog.Merge(types, manifest.Metadata.Name); err != nil {
			return err
		}
	}
	return nil
}

// List returns every registered manifest in pack-key order.
func (r *Registry) List() []*Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.manifests))
	for key := range r.manifests {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]*Manifest, 0, len(keys))
	for _, key := range keys {
		out = append(out, r.manifests[key])
	}
	return out
}

// Unregister removes a pack, closing it if loaded.
func (r *Registry) Unregister(ctx context.Context, name, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := buildPackKey(name, version)

	if pack, exists := r.packs[key]; exists {
		if err := pack.Close(ctx); err != nil {
			return fmt.Errorf("failed to close pack: %w", err)
		}
		delete(r.packs, key)
	}

	delete(r.manifests, key)
	delete(r.wasmModules, key)

	return nil
}

// Close closes every loaded pack and clears the registry.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for key, pack := range r.packs {
		if err := pack.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close pack %s: %w", key, err))
		}
	}

	r.packs = make(map[string]*Pack)
	r.manifests = make(map[string]*Manifest)
	r.wasmModules = make(map[string][]byte)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing packs: %v", errs)
	}
	return nil
}

// resolveVersion resolves a version constraint to an exact pack key.
// Supports:
//   - Exact version: "1.0.0"
//   - Latest: "latest" or ""
//   - Tilde range: "~1.0.0" (matches 1.0.x)
//   - Caret range: "^1.0.0" (matches 1.x.x)
func (r *Registry) resolveVersion(name, version string) (string, error) {
	if version == "" || version == "latest" {
		return r.findLatestVersion(name)
	}

	if strings.HasPrefix(version, "~") {
		return r.findTildeVersion(name, version[1:])
	}

	if strings.HasPrefix(version, "^") {
		return r.findCaretVersion(name, version[1:])
	}

	key := buildPackKey(name, version)
	if _, exists := r.manifests[key]; !exists {
		return "", fmt.Errorf("pack %s not found", key)
	}

	return key, nil
}

// findLatestVersion finds the latest version of a pack.
func (r *Registry) findLatestVersion(name string) (string, error) {
	var latest string
	for key := range r.manifests {
		if strings.HasPrefix(key, name+"@") {
			// Lexicographic comparison; pack versions in a single
			// project directory are expected to share a width.
			if latest == "" || key > latest {
				latest = key
			}
		}
	}

	if latest == "" {
		return "", fmt.Errorf("pack %s not found", name)
	}

	return latest, nil
}

// findTildeVersion finds a version matching the tilde constraint.
func (r *Registry) findTildeVersion(name, version string) (string, error) {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return "", fmt.Errorf("invalid version format: %s", version)
	}

	prefix := name + "@" + parts[0] + "." + parts[1]
	return r.findByPrefix(name, prefix, "~"+version)
}

// findCaretVersion finds a version matching the caret constraint.
func (r *Registry) findCaretVersion(name, version string) (string, error) {
	parts := strings.Split(version, ".")
	if len(parts) < 1 {
		return "", fmt.Errorf("invalid version format: %s", version)
	}

	prefix := name + "@" + parts[0]
	return r.findByPrefix(name, prefix, "^"+version)
}

func (r *Registry) findByPrefix(name, prefix, constraint string) (string, error) {
	var match string
	for key := range r.manifests {
		if strings.HasPrefix(key, prefix) {
			if match == "" || key > match {
				match = key
			}
		}
	}

	if match == "" {
		return "", fmt.Errorf("no version matching %s found for pack %s", constraint, name)
	}

	return match, nil
}
