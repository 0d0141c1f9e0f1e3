// Package config loads functoria.cue project files and composes them
// into engine sessions.
//
// Loading unifies the file with an embedded CUE schema, decodes into
// validated Go structs, and evaluates computed key defaults written as
// Starlark expressions. Compose then registers the declared keys,
// builds the composition graph in declaration order, and hands back a
// Session the commands share.
package config
