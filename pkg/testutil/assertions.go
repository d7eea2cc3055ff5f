package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/tasktree/pkg/model"
)

// AssertNonIncreasing verifies counts never increase from one element to
// the next.
func AssertNonIncreasing(t *testing.T, counts []int) {
	t.Helper()
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[i-1] {
			t.Errorf("count at %d (%d) is greater than count at %d (%d)", i, counts[i], i-1, counts[i-1])
			return
		}
	}
}

// AssertAllValid verifies every task in the document passes validation.
func AssertAllValid(t *testing.T, doc *model.Document) {
	t.Helper()
	Walk(doc.HierarchicalTasks, func(task *model.Task, _ []string) {
		if err := task.Validate(); err != nil {
			t.Errorf("task %q invalid: %v", task.Name, err)
		}
	})
	for _, task := range doc.StandaloneTasks {
		if err := task.Validate(); err != nil {
			t.Errorf("standalone task %q invalid: %v", task.Name, err)
		}
	}
}

// Walk visits every hierarchical task in pre-order with its root-to-task path.
func Walk(roots []*model.Task, fn func(task *model.Task, path []string)) {
	var visit func(t *model.Task, parent []string)
	visit = func(t *model.Task, parent []string) {
		path := append(append([]string(nil), parent...), t.Name)
		fn(t, path)
		for _, c := range t.Children {
			visit(c, path)
		}
	}
	for _, r := range roots {
		visit(r, nil)
	}
}

// CountTasks returns the number of tasks across all trees.
func CountTasks(roots []*model.Task) int {
	n := 0
	Walk(roots, func(*model.Task, []string) { n++ })
	return n
}

// Depth returns the greatest depth of any task (roots are 0), or 0 for an
// empty forest.
func Depth(roots []*model.Task) int {
	deepest := 0
	Walk(roots, func(_ *model.Task, path []string) {
		if len(path)-1 > deepest {
			deepest = len(path) - 1
		}
	})
	return deepest
}

// WriteDomainFile writes doc as <dir>/<domain>_hierarchy.json and returns
// the path.
func WriteDomainFile(t *testing.T, dir, domain string, doc *model.Document) string {
	t.Helper()
	return WriteRawDomainFile(t, dir, domain, ToJSON(doc))
}

// WriteRawDomainFile writes data verbatim as the document for domain.
func WriteRawDomainFile(t *testing.T, dir, domain string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	path := filepath.Join(dir, domain+"_hierarchy.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write domain file: %v", err)
	}
	return path
}
