package artifacts

import (
	"time"

	"github.com/yomimono/functoria/pkg/engine"
)

// Kind classifies a generated artifact.
type Kind string

const (
	// KindSource is generated Go source.
	KindSource Kind = "source"

	// KindDot is a DOT rendering of the composition graph.
	KindDot Kind = "dot"

	// KindImage is a rendered graph image.
	KindImage Kind = "image"

	// KindDocs is generated key documentation.
	KindDocs Kind = "docs"

	// KindManifest is the build manifest itself.
	KindManifest Kind = "manifest"
)

// Artifact records one generated file.
type Artifact struct {
	// Kind classifies the artifact.
	Kind Kind `yaml:"kind"`

	// Path is the artifact path relative to the output root.
	Path string `yaml:"path"`

	// Size is the artifact size in bytes.
	Size int64 `yaml:"size"`

	// SHA256 is the hex checksum of the artifact contents.
	SHA256 string `yaml:"sha256"`
}

// BuildManifest is the record of one build: what was configured, with
// which key values, and which files were produced. It is written as
// the last artifact and read back by Clean; nothing else persists
// between invocations.
type BuildManifest struct {
	// ID uniquely identifies the build.
	ID string `yaml:"id"`

	// App is the configured application name.
	App string `yaml:"app"`

	// Version is the configured application version, if any.
	Version string `yaml:"version,omitempty"`

	// CreatedAt is when the build ran.
	CreatedAt time.Time `yaml:"created_at"`

	// Keys lists every resolved key with its provenance.
	Keys []engine.ResolvedKey `yaml:"keys,omitempty"`

	// Artifacts lists the generated files in write order.
	Artifacts []Artifact `yaml:"artifacts"`
}

// ManifestName is the build manifest's file name inside the output
// root.
const ManifestName = "functoria.build.yml"
