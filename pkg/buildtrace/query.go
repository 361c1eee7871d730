// SPDX-License-Identifier: MPL-2.0

package buildtrace

// Query finds nodes that belong to one project and whose target framework
// can be loaded by a runtime family.
type Query struct {
	// ProjectFile is the file name (not the path) of the owning project.
	ProjectFile string
	// Family decides which target framework monikers are compatible.
	Family RuntimeFamily
	// Fallback supplies framework properties for project builds that carry
	// none in their global properties, typically the evaluated properties of
	// the main project.
	Fallback PropertySet
}

// FindProjectNode returns the first node below root, depth first, with the
// given kind and exact name whose nearest enclosing project build is the
// queried project and targets a compatible framework.
func (q Query) FindProjectNode(root Node, kind Kind, name string) (Node, bool) {
	return q.find(root, kind, name, KindProject)
}

// FindEvaluationNode is FindProjectNode for nodes recorded during project
// evaluation, before a project build node exists.
func (q Query) FindEvaluationNode(root Node, kind Kind, name string) (Node, bool) {
	return q.find(root, kind, name, KindProjectEvaluation)
}

func (q Query) find(root Node, kind Kind, name string, owner Kind) (Node, bool) {
	for n := range root.Descendants() {
		if n.Kind() != kind || n.Name() != name {
			continue
		}
		project, ok := n.Ancestor(owner)
		if !ok || project.Name() != q.ProjectFile {
			continue
		}
		if q.Family.Accepts(q.MonikerOf(project)) {
			return n, true
		}
	}
	return Node{}, false
}

// MonikerOf resolves the target framework of a project build or evaluation.
// Evaluations use their evaluated properties. Project builds use their global
// properties and fall back to the query's fallback set when those name no
// framework.
func (q Query) MonikerOf(project Node) Moniker {
	switch project.Kind() {
	case KindProjectEvaluation:
		props, _ := project.Child(KindFolder, PropertiesFolderName)
		return ResolveMoniker(PropertiesOf(props))
	case KindProject:
		if global, ok := project.Child(KindFolder, GlobalPropertiesFolderName); ok {
			if m := ResolveMoniker(PropertiesOf(global)); m != "" {
				return m
			}
		}
		return ResolveMoniker(q.Fallback)
	default:
		return ""
	}
}
