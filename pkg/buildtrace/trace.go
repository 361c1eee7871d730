// SPDX-License-Identifier: MPL-2.0

package buildtrace

import (
	"iter"
	"time"
)

// noNode marks an absent parent, child or sibling link.
const noNode NodeID = -1

type (
	// NodeID is the arena index of a node. The root is always 0.
	NodeID int32

	// Trace is an immutable build trace. The zero value is not usable; obtain
	// traces from Decode or Builder.Build.
	Trace struct {
		nodes     []node
		startTime time.Time
		endTime   time.Time
		succeeded bool
	}

	node struct {
		kind        Kind
		name        string
		value       string
		parent      NodeID
		firstChild  NodeID
		lastChild   NodeID
		nextSibling NodeID
	}

	// Node is a lightweight handle to a node of a trace. The zero Node is
	// invalid and reports IsZero.
	Node struct {
		t  *Trace
		id NodeID
	}
)

// Root returns the build node at the root of the trace.
func (t *Trace) Root() Node {
	return Node{t: t, id: 0}
}

// Len returns the number of nodes in the trace.
func (t *Trace) Len() int {
	return len(t.nodes)
}

// Node returns the handle for id. It reports false if id is out of range.
func (t *Trace) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(t.nodes) {
		return Node{}, false
	}
	return Node{t: t, id: id}, true
}

// StartTime returns when the build started.
func (t *Trace) StartTime() time.Time { return t.startTime }

// EndTime returns when the build finished.
func (t *Trace) EndTime() time.Time { return t.endTime }

// Succeeded reports the overall build result recorded in the trace.
func (t *Trace) Succeeded() bool { return t.succeeded }

// FirstError returns the first error node in document order.
func (t *Trace) FirstError() (Node, bool) {
	for i := range t.nodes {
		if t.nodes[i].kind == KindError {
			return Node{t: t, id: NodeID(i)}, true
		}
	}
	return Node{}, false
}

// HasErrors reports whether the build failed or logged any error.
func (t *Trace) HasErrors() bool {
	if !t.succeeded {
		return true
	}
	_, found := t.FirstError()
	return found
}

// EvaluationFolder returns the folder holding project evaluations, or the root
// when the trace has no such folder.
func (t *Trace) EvaluationFolder() Node {
	root := t.Root()
	if n, ok := root.Child(KindFolder, EvaluationFolderName); ok {
		return n
	}
	return root
}

// IsZero reports whether n is the zero handle.
func (n Node) IsZero() bool { return n.t == nil }

// ID returns the arena index of n.
func (n Node) ID() NodeID { return n.id }

// Kind returns the node variant.
func (n Node) Kind() Kind { return n.t.nodes[n.id].kind }

// Name returns the node name.
func (n Node) Name() string { return n.t.nodes[n.id].name }

// Value returns the node value: the property value, the item text, or the
// project file path. Kinds without a value return "".
func (n Node) Value() string { return n.t.nodes[n.id].value }

// Parent returns the enclosing node. The root has no parent.
func (n Node) Parent() (Node, bool) {
	p := n.t.nodes[n.id].parent
	if p == noNode {
		return Node{}, false
	}
	return Node{t: n.t, id: p}, true
}

// Children iterates over the direct children of n in document order.
func (n Node) Children() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for c := n.t.nodes[n.id].firstChild; c != noNode; c = n.t.nodes[c].nextSibling {
			if !yield(Node{t: n.t, id: c}) {
				return
			}
		}
	}
}

// Descendants iterates over every node below n, depth first, visiting each
// node before its children.
func (n Node) Descendants() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		first := n.t.nodes[n.id].firstChild
		if first == noNode {
			return
		}
		stack := []NodeID{first}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(Node{t: n.t, id: id}) {
				return
			}
			cur := n.t.nodes[id]
			if cur.nextSibling != noNode {
				stack = append(stack, cur.nextSibling)
			}
			if cur.firstChild != noNode {
				stack = append(stack, cur.firstChild)
			}
		}
	}
}

// Child returns the first direct child with the given kind and name.
func (n Node) Child(kind Kind, name string) (Node, bool) {
	for c := range n.Children() {
		if c.Kind() == kind && c.Name() == name {
			return c, true
		}
	}
	return Node{}, false
}

// Find returns the first descendant, depth first, with the given kind and name.
func (n Node) Find(kind Kind, name string) (Node, bool) {
	for d := range n.Descendants() {
		if d.Kind() == kind && d.Name() == name {
			return d, true
		}
	}
	return Node{}, false
}

// Ancestor returns the nearest enclosing node of the given kind.
func (n Node) Ancestor(kind Kind) (Node, bool) {
	for p, ok := n.Parent(); ok; p, ok = p.Parent() {
		if p.Kind() == kind {
			return p, true
		}
	}
	return Node{}, false
}

// Items returns the values of the direct item children of n, in order.
func (n Node) Items() []string {
	var items []string
	for c := range n.Children() {
		if c.Kind() == KindItem {
			items = append(items, c.Value())
		}
	}
	return items
}
