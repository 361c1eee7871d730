// SPDX-License-Identifier: MPL-2.0

package buildtrace

import "time"

const (
	// EvaluationFolderName is the folder under the root that holds project evaluations.
	EvaluationFolderName = "Evaluation"
	// PropertiesFolderName is the folder holding the evaluated properties of a project evaluation.
	PropertiesFolderName = "Properties"
	// GlobalPropertiesFolderName is the folder holding the global properties of a project build.
	GlobalPropertiesFolderName = "Global Properties"
)

// Builder appends nodes to a trace under construction. Nodes can only be
// appended; Build hands out the finished, immutable trace.
type Builder struct {
	t *Trace
}

// NewBuilder returns a builder holding a single succeeded root build node.
func NewBuilder() *Builder {
	t := &Trace{succeeded: true}
	t.nodes = append(t.nodes, node{
		kind:        KindBuild,
		name:        KindBuild.String(),
		parent:      noNode,
		firstChild:  noNode,
		lastChild:   noNode,
		nextSibling: noNode,
	})
	return &Builder{t: t}
}

// Root returns the ID of the root build node.
func (b *Builder) Root() NodeID { return 0 }

// SetTimes records the build start and end times.
func (b *Builder) SetTimes(start, end time.Time) *Builder {
	b.t.startTime = start
	b.t.endTime = end
	return b
}

// SetSucceeded records the overall build result.
func (b *Builder) SetSucceeded(ok bool) *Builder {
	b.t.succeeded = ok
	return b
}

// Add appends a node of the given kind as the last child of parent and
// returns its ID. Values are dropped for kinds that do not carry one.
func (b *Builder) Add(parent NodeID, kind Kind, name, value string) NodeID {
	if !kind.hasValue() {
		value = ""
	}
	id := NodeID(len(b.t.nodes))
	b.t.nodes = append(b.t.nodes, node{
		kind:        kind,
		name:        name,
		value:       value,
		parent:      parent,
		firstChild:  noNode,
		lastChild:   noNode,
		nextSibling: noNode,
	})
	p := &b.t.nodes[parent]
	if p.lastChild == noNode {
		p.firstChild = id
	} else {
		b.t.nodes[p.lastChild].nextSibling = id
	}
	p.lastChild = id
	return id
}

// AddProject appends a project build node. The node name is the project file
// name and its value the full project path.
func (b *Builder) AddProject(parent NodeID, name, path string) NodeID {
	return b.Add(parent, KindProject, name, path)
}

// AddEvaluation appends a project evaluation node.
func (b *Builder) AddEvaluation(parent NodeID, name, path string) NodeID {
	return b.Add(parent, KindProjectEvaluation, name, path)
}

// AddProperties appends a folder of properties, in the order given.
func (b *Builder) AddProperties(parent NodeID, folder string, props ...Property) NodeID {
	f := b.Add(parent, KindFolder, folder, "")
	for _, p := range props {
		b.Add(f, KindProperty, p.Name, p.Value)
	}
	return f
}

// AddItems appends one item node per value under parent.
func (b *Builder) AddItems(parent NodeID, values ...string) {
	for _, v := range values {
		b.Add(parent, KindItem, v, v)
	}
}

// Build returns the finished trace. The builder must not be used afterward.
func (b *Builder) Build() *Trace {
	t := b.t
	b.t = nil
	return t
}
