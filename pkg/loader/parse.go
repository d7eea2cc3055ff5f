package loader

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/tasktree/pkg/metrics"
	"github.com/vanderheijden86/tasktree/pkg/model"
)

// rawDocument mirrors model.Document with pointers so that missing keys can be
// told apart from empty arrays.
type rawDocument struct {
	Domain            string         `json:"domain"`
	HierarchicalTasks *[]*model.Task `json:"hierarchical_tasks"`
	StandaloneTasks   *[]*model.Task `json:"standalone_tasks"`
	TotalTasks        *int           `json:"total_tasks"`
}

// ParseDocument decodes and validates a hierarchy document.
// Both task arrays must be present; total_tasks defaults to the number of
// tasks in the document when absent.
func ParseDocument(data []byte) (*model.Document, error) {
	defer metrics.Timer(metrics.JSONParsing)()

	data = stripBOM(bytes.TrimSpace(data))
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if raw.HierarchicalTasks == nil {
		return nil, fmt.Errorf("missing hierarchical_tasks")
	}
	if raw.StandaloneTasks == nil {
		return nil, fmt.Errorf("missing standalone_tasks")
	}

	doc := &model.Document{
		Domain:            raw.Domain,
		HierarchicalTasks: *raw.HierarchicalTasks,
		StandaloneTasks:   *raw.StandaloneTasks,
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	if raw.TotalTasks != nil {
		if *raw.TotalTasks < 0 {
			return nil, fmt.Errorf("total_tasks cannot be negative (%d)", *raw.TotalTasks)
		}
		doc.TotalTasks = *raw.TotalTasks
	} else {
		doc.TotalTasks = countTrees(doc.HierarchicalTasks) + len(doc.StandaloneTasks)
	}
	return doc, nil
}

// ReadDocument reads r fully and parses it with ParseDocument.
func ReadDocument(r io.Reader) (*model.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return ParseDocument(data)
}

// validateDocument walks every task without recursion so that very deep
// documents cannot exhaust the stack.
func validateDocument(doc *model.Document) error {
	type item struct {
		task *model.Task
		path string
	}
	stack := make([]item, 0, len(doc.HierarchicalTasks))
	for i := len(doc.HierarchicalTasks) - 1; i >= 0; i-- {
		stack = append(stack, item{doc.HierarchicalTasks[i], fmt.Sprintf("hierarchical_tasks[%d]", i)})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := it.task.Validate(); err != nil {
			return fmt.Errorf("%s: %w", it.path, err)
		}
		for i := len(it.task.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{it.task.Children[i], fmt.Sprintf("%s.children[%d]", it.path, i)})
		}
	}
	for i, t := range doc.StandaloneTasks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("standalone_tasks[%d]: %w", i, err)
		}
	}
	return nil
}

func countTrees(roots []*model.Task) int {
	n := 0
	stack := append([]*model.Task(nil), roots...)
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		stack = append(stack, t.Children...)
	}
	return n
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
