package policy

// builtinRego is the policy every build is checked against. Projects
// layer their own .rego files on top; extra modules must use the same
// functoria package so their deny and warn rules land in the shared
// queries.
const builtinRego = `package functoria

import rego.v1

# Flag names the generated runtime claims for itself.
reserved_names := {"help", "version", "config"}

deny contains violation if {
	some key in input.keys
	key.name in reserved_names
	violation := {
		"policy": "reserved-key-name",
		"message": sprintf("key %q shadows a reserved runtime flag", [key.name]),
	}
}

deny contains violation if {
	input.graph.nodes == 0
	violation := {
		"policy": "empty-graph",
		"message": "the composition graph has no nodes",
	}
}

warn contains violation if {
	some key in input.keys
	key.stage != "configure"
	key.source == "default"
	key.value == ""
	violation := {
		"policy": "empty-runtime-default",
		"message": sprintf("run-stage key %q defaults to the empty value", [key.name]),
	}
}

warn contains violation if {
	input.graph.nodes > 100
	violation := {
		"policy": "large-graph",
		"message": sprintf("composition graph has %d nodes", [input.graph.nodes]),
	}
}
`

// BuiltinPolicy returns the policy shipped with the tool.
func BuiltinPolicy() Policy {
	return Policy{
		Name:        "functoria-builtin",
		Description: "Reserved key names, empty graphs, and composition size limits.",
		Rego:        builtinRego,
		Source:      "builtin",
	}
}
