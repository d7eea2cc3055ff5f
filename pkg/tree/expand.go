package tree

// Toggle flips the expansion of the named node. Descendants keep their own
// state. It reports whether anything changed: unknown names, leaves and a
// non-collapsible renderer leave the tree untouched.
func (r *Renderer) Toggle(name string) bool {
	if !r.opts.Collapsible {
		return false
	}
	n := r.Lookup(name)
	if n == nil || !n.HasChildren() {
		return false
	}
	r.setExpanded(n, !n.Expanded)
	return true
}

// ExpandAll expands every node that has children.
func (r *Renderer) ExpandAll() {
	for _, n := range r.hier {
		if n.HasChildren() {
			r.setExpanded(n, true)
		}
	}
}

// CollapseAll empties the expansion set and collapses every node,
// regardless of MaxInitialDepth.
func (r *Renderer) CollapseAll() {
	for _, n := range r.hier {
		n.Expanded = false
	}
	clear(r.expanded)
}

// ExpandToDepth expands exactly the nodes whose depth is below depth and
// collapses the rest. ExpandToDepth(1) shows only roots, ExpandToDepth(2)
// shows roots and their children.
func (r *Renderer) ExpandToDepth(depth int) {
	for _, n := range r.hier {
		if n.HasChildren() {
			r.setExpanded(n, n.Depth < depth)
		}
	}
}

// ExpandPath expands every ancestor of the named node so that it is
// reachable. It reports whether the node exists.
func (r *Renderer) ExpandPath(name string) bool {
	n := r.Lookup(name)
	if n == nil {
		return false
	}
	r.expandAncestors(n)
	return true
}

func (r *Renderer) expandAncestors(n *Node) {
	for a := n.Parent; a != nil; a = a.Parent {
		r.setExpanded(a, true)
	}
}
