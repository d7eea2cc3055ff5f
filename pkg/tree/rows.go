package tree

import (
	"github.com/vanderheijden86/tasktree/pkg/model"
)

// Select marks the named node as selected and calls Options.OnSelect.
// It reports whether the node exists; an unknown name leaves the selection
// unchanged.
func (r *Renderer) Select(name string) bool {
	n := r.Lookup(name)
	if n == nil {
		return false
	}
	r.selected = n
	if r.opts.OnSelect != nil {
		r.opts.OnSelect(n.Task)
	}
	return true
}

// Selected returns the selected node, or nil.
func (r *Renderer) Selected() *Node { return r.selected }

// ClearSelection removes the selection.
func (r *Renderer) ClearSelection() { r.selected = nil }

// Row is one visible line of the tree.
type Row struct {
	Node         *Node
	Name         string
	Depth        int
	Kind         model.Kind
	Group        string
	Expandable   bool // has children and can be toggled
	Expanded     bool
	Selected     bool
	ChildCount   int
	DatasetCount int
	ShowCount    bool
	Segments     []Segment
}

func (r *Renderer) row(n *Node) Row {
	return Row{
		Node:         n,
		Name:         n.Task.Name,
		Depth:        n.Depth,
		Kind:         n.Kind,
		Group:        n.Group,
		Expandable:   r.opts.Collapsible && n.HasChildren(),
		Expanded:     n.Expanded,
		Selected:     n == r.selected,
		ChildCount:   len(n.Children),
		DatasetCount: n.Task.DatasetCount,
		ShowCount:    r.opts.ShowDatasetCount && n.Task.DatasetCount > 0,
		Segments:     Segments(n.Task.Name, n.Highlights),
	}
}

// HierarchyRows flattens the visible hierarchy in pre-order. Hidden nodes
// and the subtrees of collapsed nodes are skipped.
func (r *Renderer) HierarchyRows() []Row {
	var rows []Row
	stack := make([]*Node, 0, len(r.roots))
	for i := len(r.roots) - 1; i >= 0; i-- {
		stack = append(stack, r.roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Hidden {
			continue
		}
		rows = append(rows, r.row(n))
		if !n.Expanded {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return rows
}

// GroupRows is a standalone group with its visible rows.
type GroupRows struct {
	Key  string
	Rows []Row
}

// StandaloneRows returns the visible standalone rows per group. Groups with
// no visible rows are omitted.
func (r *Renderer) StandaloneRows() []GroupRows {
	var out []GroupRows
	for _, g := range r.groups {
		var rows []Row
		for _, n := range g.Nodes {
			if !n.Hidden {
				rows = append(rows, r.row(n))
			}
		}
		if len(rows) > 0 {
			out = append(out, GroupRows{Key: g.Key, Rows: rows})
		}
	}
	return out
}

// Rows returns every visible row: the hierarchy followed by the standalone
// groups.
func (r *Renderer) Rows() []Row {
	rows := r.HierarchyRows()
	for _, g := range r.StandaloneRows() {
		rows = append(rows, g.Rows...)
	}
	return rows
}
