// Package inspector derives the detail view for a selected task: its place
// in the hierarchy, a summary of its children and tags, and other tasks with
// similar names.
package inspector

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/vanderheijden86/tasktree/pkg/loader"
	"github.com/vanderheijden86/tasktree/pkg/metrics"
	"github.com/vanderheijden86/tasktree/pkg/model"
)

const (
	// MaxRelated caps the related-task list.
	MaxRelated = 5
	// MaxChildren is how many child names a summary lists.
	MaxChildren = 10
	// MaxTags is how many benchmarks or metrics are listed before folding.
	MaxTags = 5

	// Shared name tokens only count when longer than minTokenLen runes. A
	// single shared token makes tasks related only when it is longer than
	// strongTokenLen runes.
	minTokenLen    = 3
	strongTokenLen = 5

	// NoDescription is shown for tasks without a description.
	NoDescription = "No description available"
)

// Index is the read side of a loaded domain that the inspector queries.
// *loader.Dataset implements it.
type Index interface {
	GetByName(name string) (loader.Entry, bool)
	Entries() []loader.Entry
	MaxDatasetCount() int
}

// Inspector tracks the task on display. It is not safe for concurrent use.
type Inspector struct {
	index   Index
	current *model.Task
}

// New returns an Inspector backed by index. index may be nil until a domain
// is loaded.
func New(index Index) *Inspector {
	return &Inspector{index: index}
}

// SetIndex switches the backing index and hides the current task.
func (i *Inspector) SetIndex(index Index) {
	i.index = index
	i.current = nil
}

// Show displays task. A nil task is ignored.
func (i *Inspector) Show(task *model.Task) {
	if task == nil {
		return
	}
	i.current = task
}

// Hide clears the displayed task.
func (i *Inspector) Hide() { i.current = nil }

// Current returns the displayed task, or nil.
func (i *Inspector) Current() *model.Task { return i.current }

// Visible reports whether a task is on display.
func (i *Inspector) Visible() bool { return i.current != nil }

// Related is a task whose name shares significant words with another.
type Related struct {
	Name         string     `json:"name"`
	SharedTokens int        `json:"shared_tokens"`
	DatasetCount int        `json:"dataset_count"`
	Kind         model.Kind `json:"type"`
}

// Related lists up to MaxRelated indexed tasks whose names share words
// with task's name.
//
// Names are split on whitespace and lowercased. Only shared words longer
// than three characters count. A candidate is related when it shares at
// least two such words, or exactly one that is longer than five characters.
// Results are ordered by shared word count, highest first, keeping index
// order for ties. The task itself (same exact name) is skipped.
func (i *Inspector) Related(task *model.Task) []Related {
	if task == nil || i.index == nil {
		return nil
	}
	defer metrics.Timer(metrics.RelatedScan)()

	own := tokens(task.Name)
	var out []Related
	for _, e := range i.index.Entries() {
		if e.Task.Name == task.Name {
			continue
		}
		shared, longest := sharedTokens(own, tokens(e.Task.Name))
		if shared >= 2 || (shared == 1 && longest > strongTokenLen) {
			out = append(out, Related{
				Name:         e.Task.Name,
				SharedTokens: shared,
				DatasetCount: e.Task.DatasetCount,
				Kind:         e.Kind,
			})
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].SharedTokens > out[b].SharedTokens
	})
	if len(out) > MaxRelated {
		out = out[:MaxRelated]
	}
	return out
}

// tokens returns the distinct lowercased whitespace-separated words of name.
func tokens(name string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(name))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// sharedTokens counts the words present in both sets that are longer than
// minTokenLen runes, and returns the rune length of the longest one.
func sharedTokens(a, b map[string]struct{}) (count, longest int) {
	for w := range a {
		if _, ok := b[w]; !ok {
			continue
		}
		n := utf8.RuneCountInString(w)
		if n <= minTokenLen {
			continue
		}
		count++
		if n > longest {
			longest = n
		}
	}
	return count, longest
}

// TagList is a benchmark or metric list folded after MaxTags entries.
type TagList struct {
	Visible []string `json:"visible"`
	Hidden  []string `json:"hidden,omitempty"`
}

// More returns the number of folded entries.
func (l TagList) More() int { return len(l.Hidden) }

// Empty reports whether the list has no entries at all.
func (l TagList) Empty() bool { return len(l.Visible) == 0 }

func foldTags(items []string) TagList {
	if len(items) <= MaxTags {
		return TagList{Visible: items}
	}
	return TagList{Visible: items[:MaxTags], Hidden: items[MaxTags:]}
}

// ChildSummary lists the first MaxChildren child names.
type ChildSummary struct {
	Names []string `json:"names"`
	Total int      `json:"total"`
}

// More returns how many children are not listed.
func (c ChildSummary) More() int { return c.Total - len(c.Names) }

// Details is everything the detail view shows for one task.
type Details struct {
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	HasDescription bool         `json:"has_description"`
	DatasetCount   int          `json:"dataset_count"`
	Popularity     float64      `json:"popularity"` // DatasetCount relative to the domain maximum, 0..1
	Benchmarks     TagList      `json:"benchmarks"`
	Metrics        TagList      `json:"metrics"`
	Path           []string     `json:"path"`
	Kind           model.Kind   `json:"type,omitempty"`
	Children       ChildSummary `json:"children"`
	Related        []Related    `json:"related"`
	TaskID         string       `json:"task_id,omitempty"`
	Area           string       `json:"area,omitempty"`
}

// CountLabel renders the dataset count with the right plural.
func (d Details) CountLabel() string {
	if d.DatasetCount == 1 {
		return "1 dataset"
	}
	return fmt.Sprintf("%d datasets", d.DatasetCount)
}

// Details derives the detail view for task. Path and kind come from the
// index; a task that is not the indexed entry for its name (a collision
// loser) gets a single-element path and no kind.
func (i *Inspector) Details(task *model.Task) Details {
	if task == nil {
		return Details{}
	}
	d := Details{
		Name:           task.Name,
		Description:    task.Description,
		HasDescription: strings.TrimSpace(task.Description) != "",
		DatasetCount:   task.DatasetCount,
		Benchmarks:     foldTags(task.Benchmarks),
		Metrics:        foldTags(task.Metrics),
		Path:           []string{task.Name},
		TaskID:         task.TaskID,
		Area:           task.Area,
	}
	if !d.HasDescription {
		d.Description = NoDescription
	}

	d.Children.Total = len(task.Children)
	for _, c := range task.Children {
		if len(d.Children.Names) == MaxChildren {
			break
		}
		d.Children.Names = append(d.Children.Names, c.Name)
	}

	if i.index != nil {
		if e, ok := i.index.GetByName(task.Name); ok && e.Task == task {
			d.Path = e.Path
			d.Kind = e.Kind
		}
		if top := i.index.MaxDatasetCount(); top > 0 {
			d.Popularity = float64(task.DatasetCount) / float64(top)
			if d.Popularity > 1 {
				d.Popularity = 1
			}
		}
		d.Related = i.Related(task)
	}
	return d
}

// CurrentDetails returns Details for the displayed task.
func (i *Inspector) CurrentDetails() (Details, bool) {
	if i.current == nil {
		return Details{}, false
	}
	return i.Details(i.current), true
}
