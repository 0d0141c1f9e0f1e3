package engine

import (
	"fmt"
	"strings"
)

// NodeID is the stable arena index of a graph node.
type NodeID int

// Configurable describes a composable unit before it is added to the
// graph: its label, the constructor the generated source calls, the
// import path providing that constructor, the keys that parameterize
// it, and any additional value expressions evaluated with it.
type Configurable struct {
	// Name is the node label.
	Name string

	// Constructor is the function the generated source calls to
	// instantiate the unit (for example "logger.New").
	Constructor string

	// Import is the import path providing Constructor. Empty for
	// constructors from the generated package itself.
	Import string

	// Keys are the keys attached to this unit. Their resolved values
	// become trailing constructor arguments in canonical name order.
	Keys *KeySet

	// Exprs are additional expressions evaluated whenever the unit is
	// evaluated.
	Exprs []AnyExpr
}

// node is one arena entry. Argument edges are ordered and position
// significant; data-dependency edges are unordered.
type node struct {
	id       NodeID
	kind     NodeKind
	label    string
	source   string
	cfg      *Configurable
	base     NodeID
	args     []NodeID
	dataDeps []NodeID
}

// Graph is a directed acyclic graph of vertices, configurables, and
// applications. Nodes live in an arena addressed by NodeID; edges
// reference earlier nodes, so only data-dependency edges added after
// construction can close a cycle.
type Graph struct {
	nodes []*node
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// AddVertex adds an opaque leaf node. The source text is bound verbatim
// in generated output.
func (g *Graph) AddVertex(label, source string) NodeID {
	n := &node{
		id:     NodeID(len(g.nodes)),
		kind:   NodeVertex,
		label:  label,
		source: source,
		base:   -1,
	}
	g.nodes = append(g.nodes, n)
	return n.id
}

// AddConfigurable adds a configurable node with its ordered argument
// children and extra data dependencies. Argument order is preserved: it
// mirrors constructor-argument order in the generated source.
func (g *Graph) AddConfigurable(c Configurable, args, dataDeps []NodeID) (NodeID, error) {
	if c.Name == "" {
		return -1, NewConfigError("configurable name must not be empty", nil).
			WithCode(ErrCodeValidation)
	}
	if err := g.validateIDs(args); err != nil {
		return -1, err
	}
	if err := g.validateIDs(dataDeps); err != nil {
		return -1, err
	}
	cfg := c
	if cfg.Keys == nil {
		cfg.Keys = NewKeySet()
	}
	n := &node{
		id:       NodeID(len(g.nodes)),
		kind:     NodeConfigurable,
		label:    c.Name,
		cfg:      &cfg,
		base:     -1,
		args:     append([]NodeID(nil), args...),
		dataDeps: append([]NodeID(nil), dataDeps...),
	}
	g.nodes = append(g.nodes, n)
	return n.id, nil
}

// AddApp adds an application node: base applied to args. The generated
// source binds it as a call of base's binding.
func (g *Graph) AddApp(base NodeID, args []NodeID) (NodeID, error) {
	if err := g.validateIDs(append([]NodeID{base}, args...)); err != nil {
		return -1, err
	}
	n := &node{
		id:    NodeID(len(g.nodes)),
		kind:  NodeApp,
		label: g.nodes[base].label,
		base:  base,
		args:  append([]NodeID(nil), args...),
	}
	g.nodes = append(g.nodes, n)
	return n.id, nil
}

// AddDataDep records that node id must be evaluated after dep. The edge
// is checked immediately: when it closes a cycle the edge stays in
// place, the graph is reported cyclic here, and every later Toposort or
// Evaluate fails the same way. The edge is never silently dropped.
func (g *Graph) AddDataDep(id, dep NodeID) error {
	if err := g.validateIDs([]NodeID{id, dep}); err != nil {
		return err
	}
	g.nodes[id].dataDeps = append(g.nodes[id].dataDeps, dep)
	if path, found := g.findCycle(); found {
		return g.cycleError(path)
	}
	return nil
}

// NodeInfo is a read-only copy of one node's structure.
type NodeInfo struct {
	ID       NodeID
	Kind     NodeKind
	Label    string
	Args     []NodeID
	DataDeps []NodeID
}

// Node returns a copy of the node's structure.
func (g *Graph) Node(id NodeID) (NodeInfo, error) {
	if err := g.validateIDs([]NodeID{id}); err != nil {
		return NodeInfo{}, err
	}
	n := g.nodes[id]
	args := n.args
	if n.kind == NodeApp {
		args = append([]NodeID{n.base}, n.args...)
	}
	return NodeInfo{
		ID:       n.id,
		Kind:     n.kind,
		Label:    n.label,
		Args:     append([]NodeID(nil), args...),
		DataDeps: append([]NodeID(nil), n.dataDeps...),
	}, nil
}

// Keys returns the union of every node's key set and every attached
// expression's dependency set.
func (g *Graph) Keys() *KeySet {
	out := NewKeySet()
	for _, n := range g.nodes {
		if n.cfg == nil {
			continue
		}
		out = out.Union(n.cfg.Keys)
		for _, ex := range n.cfg.Exprs {
			out = out.Union(ex.Deps())
		}
	}
	return out
}

// deps returns the nodes that must be evaluated before n, in
// edge-insertion order.
func (n *node) deps() []NodeID {
	out := make([]NodeID, 0, len(n.args)+len(n.dataDeps)+1)
	if n.kind == NodeApp {
		out = append(out, n.base)
	}
	out = append(out, n.args...)
	out = append(out, n.dataDeps...)
	return out
}

// Toposort returns a topological order of the node ids. The order is
// stable: ready nodes are served in insertion order, so the same
// construction sequence always yields the same order. A cyclic graph
// fails with a CYCLIC_GRAPH error naming every node still on a cycle.
func (g *Graph) Toposort() ([]NodeID, error) {
	inDegree := make([]int, len(g.nodes))
	dependents := make([][]NodeID, len(g.nodes))
	for _, n := range g.nodes {
		for _, dep := range n.deps() {
			inDegree[n.id]++
			dependents[dep] = append(dependents[dep], n.id)
		}
	}

	queue := make([]NodeID, 0, len(g.nodes))
	for _, n := range g.nodes {
		if inDegree[n.id] == 0 {
			queue = append(queue, n.id)
		}
	}

	order := make([]NodeID, 0, len(g.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, next := range dependents[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) < len(g.nodes) {
		if path, found := g.findCycle(); found {
			return nil, g.cycleError(path)
		}
		// Unreachable unless findCycle and Kahn's disagree; report the
		// remaining nodes rather than mask the defect.
		var remaining []string
		for _, n := range g.nodes {
			if inDegree[n.id] > 0 {
				remaining = append(remaining, n.label)
			}
		}
		return nil, NewConfigError("dependency cycle detected", nil).
			WithCode(ErrCodeCyclicGraph).
			WithNodes(remaining...)
	}
	return order, nil
}

// findCycle runs a depth-first search over the dependency edges and
// returns one cycle path when the graph is cyclic.
func (g *Graph) findCycle() ([]NodeID, bool) {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make([]int, len(g.nodes))
	var path []NodeID

	var visit func(id NodeID) ([]NodeID, bool)
	visit = func(id NodeID) ([]NodeID, bool) {
		state[id] = inStack
		path = append(path, id)
		for _, dep := range g.nodes[id].deps() {
			switch state[dep] {
			case inStack:
				// Close the cycle: slice the path from the first
				// occurrence of dep.
				for i, pid := range path {
					if pid == dep {
						return append(append([]NodeID(nil), path[i:]...), dep), true
					}
				}
			case unvisited:
				if cycle, found := visit(dep); found {
					return cycle, true
				}
			}
		}
		state[id] = done
		path = path[:len(path)-1]
		return nil, false
	}

	for _, n := range g.nodes {
		if state[n.id] == unvisited {
			path = path[:0]
			if cycle, found := visit(n.id); found {
				return cycle, true
			}
		}
	}
	return nil, false
}

// cycleError builds the CYCLIC_GRAPH error for a cycle path, naming
// each distinct participating node once.
func (g *Graph) cycleError(path []NodeID) *Error {
	labels := make([]string, len(path))
	seen := make(map[string]bool)
	var distinct []string
	for i, id := range path {
		labels[i] = g.nodes[id].label
		if !seen[labels[i]] {
			seen[labels[i]] = true
			distinct = append(distinct, labels[i])
		}
	}
	return NewConfigError(fmt.Sprintf("dependency cycle detected: %s", strings.Join(labels, " -> ")), nil).
		WithCode(ErrCodeCyclicGraph).
		WithNodes(distinct...)
}

func (g *Graph) validateIDs(ids []NodeID) error {
	for _, id := range ids {
		if id < 0 || int(id) >= len(g.nodes) {
			return NewConfigError(fmt.Sprintf("node %d does not exist", id), nil).
				WithCode(ErrCodeNotFound)
		}
	}
	return nil
}
