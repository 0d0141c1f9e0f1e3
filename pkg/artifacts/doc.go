// Package artifacts writes generated files atomically under one
// output root and records them in a YAML build manifest
// (functoria.build.yml). Clean reads the manifest back and removes
// exactly what it lists; nothing else persists between invocations.
package artifacts
