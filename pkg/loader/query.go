package loader

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/vanderheijden86/tasktree/pkg/metrics"
	"github.com/vanderheijden86/tasktree/pkg/model"
)

// Relevance scores for search results.
const (
	RelevanceContains = 1
	RelevancePrefix   = 2
)

// SearchResult is a matching index entry with its relevance score.
type SearchResult struct {
	Entry
	Relevance int
}

// Search matches query case-insensitively against indexed names and
// descriptions. Names starting with the query rank first, then higher
// dataset counts; remaining ties keep index order. An empty query matches
// nothing.
func (d *Dataset) Search(query string) []SearchResult {
	if query == "" {
		return nil
	}
	defer metrics.Timer(metrics.Search)()

	q := strings.ToLower(query)
	var results []SearchResult
	for _, key := range d.order {
		e := d.byName[key]
		if !strings.Contains(key, q) && !strings.Contains(strings.ToLower(e.Task.Description), q) {
			continue
		}
		rel := RelevanceContains
		if strings.HasPrefix(key, q) {
			rel = RelevancePrefix
		}
		results = append(results, SearchResult{Entry: e, Relevance: rel})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Task.DatasetCount > results[j].Task.DatasetCount
	})
	return results
}

// GetByName looks a task up by name, ignoring case.
func (d *Dataset) GetByName(name string) (Entry, bool) {
	e, ok := d.byName[model.NameKey(name)]
	return e, ok
}

// Entries returns every index entry in first-insertion order.
func (d *Dataset) Entries() []Entry {
	out := make([]Entry, 0, len(d.order))
	for _, key := range d.order {
		out = append(out, d.byName[key])
	}
	return out
}

// Len returns the number of distinct lookup keys.
func (d *Dataset) Len() int {
	return len(d.order)
}

// TopByPopularity returns the first limit entries of the popularity ranking.
func (d *Dataset) TopByPopularity(limit int) []PopularityEntry {
	if limit <= 0 {
		return nil
	}
	if limit > len(d.byPopularity) {
		limit = len(d.byPopularity)
	}
	out := make([]PopularityEntry, limit)
	copy(out, d.byPopularity[:limit])
	return out
}

// MaxDatasetCount returns the highest dataset count in the domain.
func (d *Dataset) MaxDatasetCount() int {
	return d.maxCount
}

// Stats summarizes a dataset.
type Stats struct {
	Domain            string `json:"domain"`
	TotalTasks        int    `json:"total_tasks"`
	HierarchicalCount int    `json:"hierarchical_tasks"`
	StandaloneCount   int    `json:"standalone_tasks"`
	MaxDepth          int    `json:"max_depth"`
	RootCount         int    `json:"root_tasks"`
}

// Stats returns the domain summary.
func (d *Dataset) Stats() Stats {
	return Stats{
		Domain:            d.Domain,
		TotalTasks:        d.TotalTasks,
		HierarchicalCount: d.HierarchicalCount,
		StandaloneCount:   len(d.StandaloneTasks),
		MaxDepth:          d.MaxDepth,
		RootCount:         len(d.HierarchicalRoots),
	}
}

// Suggest returns up to limit task names that fuzzily match name, best
// first. It is meant for "did you mean" hints after GetByName misses.
func (d *Dataset) Suggest(name string, limit int) []string {
	if name == "" || limit <= 0 {
		return nil
	}
	names := make([]string, len(d.order))
	for i, key := range d.order {
		names[i] = d.byName[key].Task.Name
	}
	matches := fuzzy.Find(name, names)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}
