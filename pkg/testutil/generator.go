// Package testutil provides test fixture generators for task forests.
// All Generator output is deterministic for a given seed.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/goccy/go-json"
	"pgregory.net/rapid"

	"github.com/vanderheijden86/tasktree/pkg/model"
)

// ForestFixture is a generated domain document together with the facts a
// correct index must report for it.
type ForestFixture struct {
	Description string
	Document    *model.Document
	Properties  Properties
}

// Properties holds the expected derived values for a fixture.
type Properties struct {
	HierarchicalCount int
	MaxDepth          int
	Roots             int
}

// GeneratorConfig controls forest generation.
type GeneratorConfig struct {
	Seed          int64    // Random seed for determinism (0 = fixed default)
	NamePrefix    string   // Prefix for task names (default: "Task")
	MaxCount      int      // Upper bound for dataset_count (default: 500)
	IncludeTags   bool     // Generate benchmarks and metrics
	Vocabulary    []string // Words mixed into names (nil = defaultVocabulary)
	DescribeTasks bool     // Generate descriptions
}

var defaultVocabulary = []string{
	"image", "classification", "segmentation", "detection", "object",
	"semantic", "language", "translation", "speech", "recognition",
	"question", "answering", "audio", "generation", "retrieval",
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:          42, // Deterministic
		NamePrefix:    "Task",
		MaxCount:      500,
		DescribeTasks: true,
	}
}

// Generator creates forests with various shapes.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	next int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = "Task"
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = 500
	}
	if len(cfg.Vocabulary) == 0 {
		cfg.Vocabulary = defaultVocabulary
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// ============================================================================
// Forest Shape Generators
// ============================================================================

// Chain creates one root with a single path of descendants.
// Properties: depth = size-1, one root.
func (g *Generator) Chain(size int) ForestFixture {
	if size < 1 {
		size = 1
	}
	root := g.task()
	cur := root
	for i := 1; i < size; i++ {
		child := g.task()
		cur.Children = []*model.Task{child}
		cur = child
	}
	return g.fixture(fmt.Sprintf("Chain of %d tasks", size), []*model.Task{root}, size, size-1)
}

// Tree creates one complete tree with the given depth and branching factor.
// A depth of 0 is a single root.
func (g *Generator) Tree(depth, breadth int) ForestFixture {
	if breadth < 1 {
		breadth = 1
	}
	root := g.task()
	level := []*model.Task{root}
	total := 1
	for d := 0; d < depth; d++ {
		var next []*model.Task
		for _, parent := range level {
			for i := 0; i < breadth; i++ {
				child := g.task()
				parent.Children = append(parent.Children, child)
				next = append(next, child)
				total++
			}
		}
		level = next
	}
	return g.fixture(fmt.Sprintf("Complete tree depth=%d breadth=%d", depth, breadth), []*model.Task{root}, total, depth)
}

// Flat creates n roots without children.
func (g *Generator) Flat(n int) ForestFixture {
	roots := make([]*model.Task, n)
	for i := range roots {
		roots[i] = g.task()
	}
	return g.fixture(fmt.Sprintf("%d childless roots", n), roots, n, 0)
}

// Random creates a forest of roughly size tasks attached to random parents.
func (g *Generator) Random(size, roots int) ForestFixture {
	if roots < 1 {
		roots = 1
	}
	if size < roots {
		size = roots
	}
	type placed struct {
		task  *model.Task
		depth int
	}
	all := make([]placed, 0, size)
	out := make([]*model.Task, roots)
	for i := range out {
		out[i] = g.task()
		all = append(all, placed{out[i], 0})
	}
	maxDepth := 0
	for len(all) < size {
		parent := all[g.rng.Intn(len(all))]
		child := g.task()
		parent.task.Children = append(parent.task.Children, child)
		all = append(all, placed{child, parent.depth + 1})
		if parent.depth+1 > maxDepth {
			maxDepth = parent.depth + 1
		}
	}
	return g.fixture(fmt.Sprintf("Random forest of %d tasks in %d trees", size, roots), out, size, maxDepth)
}

// Standalone creates n standalone tasks.
func (g *Generator) Standalone(n int) []*model.Task {
	out := make([]*model.Task, n)
	for i := range out {
		out[i] = g.task()
	}
	return out
}

// WithStandalone adds standalone tasks to a fixture and fixes up TotalTasks.
func (g *Generator) WithStandalone(f ForestFixture, n int) ForestFixture {
	f.Document.StandaloneTasks = append(f.Document.StandaloneTasks, g.Standalone(n)...)
	f.Document.TotalTasks = f.Properties.HierarchicalCount + len(f.Document.StandaloneTasks)
	return f
}

func (g *Generator) fixture(desc string, roots []*model.Task, count, depth int) ForestFixture {
	return ForestFixture{
		Description: desc,
		Document: &model.Document{
			HierarchicalTasks: roots,
			StandaloneTasks:   []*model.Task{},
			TotalTasks:        count,
		},
		Properties: Properties{
			HierarchicalCount: count,
			MaxDepth:          depth,
			Roots:             len(roots),
		},
	}
}

func (g *Generator) task() *model.Task {
	id := g.next
	g.next++
	v := g.cfg.Vocabulary
	first := v[g.rng.Intn(len(v))]
	name := fmt.Sprintf("%s %s %s %d", g.cfg.NamePrefix, strings.ToUpper(first[:1])+first[1:], v[g.rng.Intn(len(v))], id)
	t := &model.Task{
		Name:         name,
		DatasetCount: g.rng.Intn(g.cfg.MaxCount + 1),
	}
	if g.cfg.DescribeTasks {
		t.Description = fmt.Sprintf("Generated task %d for %s", id, v[g.rng.Intn(len(v))])
	}
	if g.cfg.IncludeTags {
		for i := g.rng.Intn(8); i > 0; i-- {
			t.Benchmarks = append(t.Benchmarks, fmt.Sprintf("Bench-%d-%d", id, i))
		}
		for i := g.rng.Intn(4); i > 0; i-- {
			t.Metrics = append(t.Metrics, fmt.Sprintf("metric-%d", i))
		}
	}
	return t
}

// ============================================================================
// Serialization
// ============================================================================

// ToJSON encodes a document the way the classification pipeline publishes it.
func ToJSON(doc *model.Document) []byte {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal document: %v", err))
	}
	return data
}

// ============================================================================
// Property-test generators
// ============================================================================

// ForestGen draws forests with unique task names for rapid property tests.
// maxRoots, maxDepth and maxBreadth bound the shape.
func ForestGen(maxRoots, maxDepth, maxBreadth int) *rapid.Generator[[]*model.Task] {
	return rapid.Custom(func(t *rapid.T) []*model.Task {
		next := 0
		var grow func(depth int) *model.Task
		grow = func(depth int) *model.Task {
			task := &model.Task{
				Name:         fmt.Sprintf("node %d", next),
				DatasetCount: rapid.IntRange(0, 20).Draw(t, "count"),
			}
			next++
			if depth < maxDepth {
				n := rapid.IntRange(0, maxBreadth).Draw(t, "children")
				for i := 0; i < n; i++ {
					task.Children = append(task.Children, grow(depth+1))
				}
			}
			return task
		}
		roots := make([]*model.Task, rapid.IntRange(0, maxRoots).Draw(t, "roots"))
		for i := range roots {
			roots[i] = grow(0)
		}
		return roots
	})
}

// NameGen draws short task names from a small vocabulary so that shared
// tokens and case collisions are common.
func NameGen() *rapid.Generator[string] {
	word := rapid.SampledFrom([]string{"Image", "image", "Segmentation", "semantic", "Audio", "text", "Detection", "QA"})
	return rapid.Custom(func(t *rapid.T) string {
		words := rapid.SliceOfN(word, 1, 3).Draw(t, "words")
		return strings.Join(words, " ")
	})
}

// ============================================================================
// Quick Fixtures
// ============================================================================

// Scenario returns the three-task document used throughout the docs:
// A with child B (5 datasets) and standalone C (10 datasets).
func Scenario() *model.Document {
	return &model.Document{
		HierarchicalTasks: []*model.Task{
			{Name: "A", Children: []*model.Task{{Name: "B", DatasetCount: 5}}},
		},
		StandaloneTasks: []*model.Task{{Name: "C", DatasetCount: 10}},
		TotalTasks:      3,
	}
}

// QuickTree generates a complete tree with default config.
func QuickTree(depth, breadth int) *model.Document {
	return NewDefault().Tree(depth, breadth).Document
}

// QuickRandom generates a random forest plus standalone tasks with default config.
func QuickRandom(size, roots, standalone int) *model.Document {
	g := NewDefault()
	return g.WithStandalone(g.Random(size, roots), standalone).Document
}

// Empty returns a document with no tasks.
func Empty() *model.Document {
	return &model.Document{HierarchicalTasks: []*model.Task{}, StandaloneTasks: []*model.Task{}}
}
