// Package tree holds the expand/collapse, selection and search-highlight
// state for a domain's task hierarchy and flattens it into rows that a view
// can paint. It has no terminal or styling dependencies.
package tree

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/vanderheijden86/tasktree/pkg/debug"
	"github.com/vanderheijden86/tasktree/pkg/loader"
	"github.com/vanderheijden86/tasktree/pkg/metrics"
	"github.com/vanderheijden86/tasktree/pkg/model"
)

// Options configures a Renderer.
type Options struct {
	ShowDatasetCount bool
	Collapsible      bool
	SearchHighlight  bool
	MaxInitialDepth  int
	OnSelect         func(*model.Task)
}

// DefaultOptions returns the stock renderer configuration.
func DefaultOptions() Options {
	return Options{
		ShowDatasetCount: true,
		Collapsible:      true,
		SearchHighlight:  true,
		MaxInitialDepth:  2,
	}
}

// Node is a task placed in the rendered tree.
type Node struct {
	Task       *model.Task
	Kind       model.Kind
	Children   []*Node
	Parent     *Node // nil for roots and standalone tasks
	Depth      int   // 0 = root
	Expanded   bool
	Hidden     bool   // filtered out by the active search
	Highlights []Span // emphasized ranges of Task.Name
	Group      string // grouping key, standalone tasks only
}

// Name returns the task name.
func (n *Node) Name() string { return n.Task.Name }

// HasChildren reports whether the node has child nodes.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// Span is a half-open byte range [Start, End) of a node name.
type Span struct {
	Start int
	End   int
}

// Group is a set of standalone tasks sharing a grouping key.
type Group struct {
	Key   string
	Nodes []*Node
}

// Renderer manages the tree state for one hierarchy and one standalone list.
// It is not safe for concurrent use.
type Renderer struct {
	opts Options

	roots  []*Node // hierarchical roots
	hier   []*Node // every hierarchical node, pre-order
	solo   []*Node // standalone nodes in document order
	groups []Group // standalone nodes grouped for display

	lookup   map[string]*Node // lowercased name -> node, last registered wins
	expanded map[string]bool  // expansion set, keyed like lookup

	selected *Node
	query    string
	matches  []*Node
}

// New creates an empty Renderer.
func New(opts Options) *Renderer {
	return &Renderer{
		opts:     opts,
		lookup:   make(map[string]*Node),
		expanded: make(map[string]bool),
	}
}

// Options returns the renderer configuration.
func (r *Renderer) Options() Options { return r.opts }

// Build replaces both the hierarchy and the standalone list with the
// contents of ds.
func (r *Renderer) Build(ds *loader.Dataset) {
	r.BuildHierarchy(ds.HierarchicalRoots)
	r.BuildStandalone(ds.StandaloneTasks)
}

// BuildHierarchy replaces the hierarchical tree.
//
// A node starts expanded when it has children and either sits above
// MaxInitialDepth or is already in the expansion set. Nodes above
// MaxInitialDepth are added to the set on every build, so a user collapse of
// a shallow node does not survive a rebuild.
func (r *Renderer) BuildHierarchy(roots []*model.Task) {
	defer metrics.Timer(metrics.TreeBuild)()

	r.roots = nil
	r.hier = nil
	r.resetSearch()

	type frame struct {
		task   *model.Task
		parent *Node
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{task: roots[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &Node{Task: f.task, Kind: model.KindHierarchical, Parent: f.parent}
		if f.parent != nil {
			node.Depth = f.parent.Depth + 1
			f.parent.Children = append(f.parent.Children, node)
		} else {
			r.roots = append(r.roots, node)
		}
		r.hier = append(r.hier, node)

		for i := len(f.task.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{task: f.task.Children[i], parent: node})
		}
	}

	// Children are known only after the walk.
	for _, n := range r.hier {
		if !n.HasChildren() {
			continue
		}
		key := n.Task.Key()
		if n.Depth < r.opts.MaxInitialDepth {
			r.expanded[key] = true
		}
		n.Expanded = r.expanded[key]
	}

	r.reindex()
	debug.Log("tree: built hierarchy with %d roots, %d nodes", len(r.roots), len(r.hier))
}

// BuildStandalone replaces the standalone list. Tasks are grouped by the
// uppercased first character of their name; groups are ordered by key and
// each group is ordered by dataset count, highest first.
func (r *Renderer) BuildStandalone(tasks []*model.Task) {
	defer metrics.Timer(metrics.TreeBuild)()

	r.solo = make([]*Node, 0, len(tasks))
	r.resetSearch()

	byKey := make(map[string][]*Node)
	for _, t := range tasks {
		key := groupKey(t.Name)
		n := &Node{Task: t, Kind: model.KindStandalone, Group: key}
		r.solo = append(r.solo, n)
		byKey[key] = append(byKey[key], n)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	r.groups = make([]Group, 0, len(keys))
	for _, k := range keys {
		nodes := byKey[k]
		sort.SliceStable(nodes, func(i, j int) bool {
			return nodes[i].Task.DatasetCount > nodes[j].Task.DatasetCount
		})
		r.groups = append(r.groups, Group{Key: k, Nodes: nodes})
	}

	r.reindex()
}

func groupKey(name string) string {
	rn, _ := utf8.DecodeRuneInString(name)
	if rn == utf8.RuneError {
		return ""
	}
	return strings.ToUpper(string(rn))
}

// reindex rebuilds the name lookup: hierarchy in pre-order, then standalone
// tasks in document order, later entries replacing earlier ones.
func (r *Renderer) reindex() {
	r.lookup = make(map[string]*Node, len(r.hier)+len(r.solo))
	for _, n := range r.hier {
		r.lookup[n.Task.Key()] = n
	}
	for _, n := range r.solo {
		r.lookup[n.Task.Key()] = n
	}
	if r.selected != nil && r.lookup[r.selected.Task.Key()] != r.selected {
		r.selected = nil
	}
}

// Roots returns the hierarchical root nodes.
func (r *Renderer) Roots() []*Node { return r.roots }

// Groups returns the standalone groups in display order.
func (r *Renderer) Groups() []Group { return r.groups }

// Lookup finds a node by case-insensitive name. When names collide the node
// registered last wins.
func (r *Renderer) Lookup(name string) *Node {
	return r.lookup[model.NameKey(name)]
}

// NodeCount returns the number of hierarchical and standalone nodes.
func (r *Renderer) NodeCount() int {
	return len(r.hier) + len(r.solo)
}

// ExpansionState returns the expansion set in sorted order.
func (r *Renderer) ExpansionState() []string {
	out := make([]string, 0, len(r.expanded))
	for k := range r.expanded {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Renderer) setExpanded(n *Node, expanded bool) {
	n.Expanded = expanded
	if expanded {
		r.expanded[n.Task.Key()] = true
	} else {
		delete(r.expanded, n.Task.Key())
	}
}
