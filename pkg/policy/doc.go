// Package policy checks resolved configurations against rego rules
// before artifacts are written.
//
// The input document carries the application identity, every resolved
// key with its stage and provenance, the declared components, and a
// graph summary. All modules live in the functoria package and
// contribute to two rule sets: deny blocks the build, warn is
// reported. A builtin module ships with the tool; projects add their
// own .rego files via the policies list in the project file.
package policy
