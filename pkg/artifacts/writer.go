package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yomimono/functoria/pkg/engine"
	"gopkg.in/yaml.v3"
)

// Writer writes build artifacts under one output root and accumulates
// the build manifest. Every write is atomic: content lands in a
// temporary file in the same directory and is renamed into place, so
// a crashed build never leaves a half-written artifact.
type Writer struct {
	root     string
	manifest *BuildManifest
}

// NewWriter creates a writer rooted at dir, creating it if needed.
// buildID names the build in the manifest; pass "" to generate one.
// Callers that trace the build pass the id their spans carry, so the
// manifest and the telemetry stream identify the same build.
func NewWriter(dir, app, version, buildID string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if buildID == "" {
		buildID = uuid.New().String()
	}
	return &Writer{
		root: dir,
		manifest: &BuildManifest{
			ID:        buildID,
			App:       app,
			Version:   version,
			CreatedAt: time.Now().UTC(),
		},
	}, nil
}

// Root returns the output root.
func (w *Writer) Root() string { return w.root }

// BuildID returns the build's unique id.
func (w *Writer) BuildID() string { return w.manifest.ID }

// Manifest returns the manifest accumulated so far.
func (w *Writer) Manifest() *BuildManifest { return w.manifest }

// WriteFile atomically writes an artifact at name (relative to the
// root) and records it in the manifest. Paths escaping the root are
// refused.
func (w *Writer) WriteFile(name string, data []byte, kind Kind) (Artifact, error) {
	path, err := w.resolve(name)
	if err != nil {
		return Artifact{}, err
	}

	if dir := filepath.Dir(path); dir != w.root {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Artifact{}, fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}

	if err := atomicWrite(path, data); err != nil {
		return Artifact{}, err
	}

	hash := sha256.Sum256(data)
	artifact := Artifact{
		Kind:   kind,
		Path:   name,
		Size:   int64(len(data)),
		SHA256: hex.EncodeToString(hash[:]),
	}
	w.manifest.Artifacts = append(w.manifest.Artifacts, artifact)
	return artifact, nil
}

// RecordKeys copies a resolution's key values and provenance into the
// manifest.
func (w *Writer) RecordKeys(res *engine.Resolution) {
	w.manifest.Keys = append([]engine.ResolvedKey(nil), res.Keys...)
}

// WriteManifest writes the build manifest as the final artifact and
// returns its path.
func (w *Writer) WriteManifest() (string, error) {
	// The manifest lists itself without size or checksum; both would
	// change the bytes being hashed.
	w.manifest.Artifacts = append(w.manifest.Artifacts, Artifact{
		Kind: KindManifest,
		Path: ManifestName,
	})

	data, err := yaml.Marshal(w.manifest)
	if err != nil {
		return "", fmt.Errorf("failed to marshal build manifest: %w", err)
	}

	path := filepath.Join(w.root, ManifestName)
	if err := atomicWrite(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// resolve joins name onto the root and refuses escapes.
func (w *Writer) resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("artifact path %q must be relative", name)
	}
	path := filepath.Join(w.root, name)
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact path %q escapes the output root", name)
	}
	return path, nil
}

// atomicWrite writes data to path via a temporary file and rename.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set artifact mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

// ReadManifest reads the build manifest from an output root.
func ReadManifest(dir string) (*BuildManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read build manifest: %w", err)
	}

	var manifest BuildManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse build manifest: %w", err)
	}
	return &manifest, nil
}

// Clean removes exactly the artifacts the build manifest lists,
// manifest included, and returns the removed paths. Listed paths
// outside the output root are refused, never deleted. A missing
// manifest means nothing to clean.
func Clean(dir string) ([]string, error) {
	manifest, err := ReadManifest(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var removed []string
	for _, artifact := range manifest.Artifacts {
		if filepath.IsAbs(artifact.Path) {
			return removed, fmt.Errorf("manifest lists absolute path %q, refusing", artifact.Path)
		}
		path := filepath.Join(dir, artifact.Path)
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return removed, fmt.Errorf("manifest lists path %q outside the output root, refusing", artifact.Path)
		}
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed = append(removed, path)
	}

	return removed, nil
}
