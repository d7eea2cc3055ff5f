package loader

import (
	"sort"

	"github.com/vanderheijden86/tasktree/pkg/debug"
	"github.com/vanderheijden86/tasktree/pkg/metrics"
	"github.com/vanderheijden86/tasktree/pkg/model"
)

// Entry is an index record: the task, its root-to-task path and its kind.
type Entry struct {
	Task  *model.Task
	Path  []string
	Kind  model.Kind
	Depth int
}

// Name returns the task name, or "" for the zero Entry.
func (e Entry) Name() string {
	if e.Task == nil {
		return ""
	}
	return e.Task.Name
}

// PopularityEntry is a flattened task used for popularity rankings.
type PopularityEntry struct {
	Name         string     `json:"name"`
	DatasetCount int        `json:"dataset_count"`
	Description  string     `json:"description,omitempty"`
	Kind         model.Kind `json:"type"`
}

// Collision records two tasks that normalize to the same lookup key.
// The index keeps the later one.
type Collision struct {
	Key      string   `json:"key"`
	Replaced []string `json:"replaced_path"`
	Kept     []string `json:"kept_path"`
}

// Dataset is the indexed, read-only view of one domain document.
// It is never mutated after BuildIndex returns.
type Dataset struct {
	Domain            string
	HierarchicalRoots []*model.Task
	StandaloneTasks   []*model.Task
	TotalTasks        int
	HierarchicalCount int
	MaxDepth          int
	Collisions        []Collision

	byName       map[string]Entry
	order        []string // lookup keys in first-insertion order
	byPopularity []PopularityEntry
	maxCount     int
}

// BuildIndex computes the derived structures for doc.
//
// Trees are walked depth-first in pre-order (parents before children,
// siblings in document order) with an explicit stack. When two tasks share a
// lowercased name the one visited last wins; every such replacement is
// recorded in Dataset.Collisions.
func BuildIndex(domain string, doc *model.Document) *Dataset {
	defer metrics.Timer(metrics.IndexBuild)()

	ds := &Dataset{
		Domain:            domain,
		HierarchicalRoots: doc.HierarchicalTasks,
		StandaloneTasks:   doc.StandaloneTasks,
		TotalTasks:        doc.TotalTasks,
		byName:            make(map[string]Entry),
	}

	type frame struct {
		task  *model.Task
		depth int
		path  []string
	}

	var flat []PopularityEntry
	stack := make([]frame, 0, len(doc.HierarchicalTasks))
	for i := len(doc.HierarchicalTasks) - 1; i >= 0; i-- {
		stack = append(stack, frame{task: doc.HierarchicalTasks[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		path := make([]string, len(f.path)+1)
		copy(path, f.path)
		path[len(f.path)] = f.task.Name

		ds.HierarchicalCount++
		if f.depth > ds.MaxDepth {
			ds.MaxDepth = f.depth
		}
		ds.insert(Entry{Task: f.task, Path: path, Kind: model.KindHierarchical, Depth: f.depth})
		flat = append(flat, popularityOf(f.task, model.KindHierarchical))

		for i := len(f.task.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{task: f.task.Children[i], depth: f.depth + 1, path: path})
		}
	}

	for _, t := range doc.StandaloneTasks {
		debug.LogIf(t.HasChildren(), "standalone task %q has %d children; they are not indexed", t.Name, len(t.Children))
		ds.insert(Entry{Task: t, Path: []string{t.Name}, Kind: model.KindStandalone})
		flat = append(flat, popularityOf(t, model.KindStandalone))
	}

	sort.SliceStable(flat, func(i, j int) bool {
		return flat[i].DatasetCount > flat[j].DatasetCount
	})
	ds.byPopularity = flat
	if len(flat) > 0 {
		ds.maxCount = flat[0].DatasetCount
	}

	debug.Log("indexed domain %q: %d hierarchical, %d standalone, max depth %d, %d collisions",
		domain, ds.HierarchicalCount, len(ds.StandaloneTasks), ds.MaxDepth, len(ds.Collisions))
	return ds
}

func (d *Dataset) insert(e Entry) {
	key := model.NameKey(e.Task.Name)
	if prev, ok := d.byName[key]; ok {
		d.Collisions = append(d.Collisions, Collision{Key: key, Replaced: prev.Path, Kept: e.Path})
	} else {
		d.order = append(d.order, key)
	}
	d.byName[key] = e
}

func popularityOf(t *model.Task, kind model.Kind) PopularityEntry {
	return PopularityEntry{
		Name:         t.Name,
		DatasetCount: t.DatasetCount,
		Description:  t.Description,
		Kind:         kind,
	}
}
