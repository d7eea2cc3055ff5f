package loader_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/vanderheijden86/tasktree/pkg/loader"
	"github.com/vanderheijden86/tasktree/pkg/model"
	"github.com/vanderheijden86/tasktree/pkg/testutil"
)

// TestBuildIndex_Scenario verifies the counts, depth and ranking for the
// three-task reference document.
func TestBuildIndex_Scenario(t *testing.T) {
	ds := loader.BuildIndex("demo", testutil.Scenario())

	if ds.HierarchicalCount != 2 {
		t.Errorf("HierarchicalCount = %d, want 2", ds.HierarchicalCount)
	}
	if ds.MaxDepth != 1 {
		t.Errorf("MaxDepth = %d, want 1", ds.MaxDepth)
	}
	if ds.TotalTasks != 3 {
		t.Errorf("TotalTasks = %d, want 3", ds.TotalTasks)
	}

	want := []loader.PopularityEntry{
		{Name: "C", DatasetCount: 10, Kind: model.KindStandalone},
		{Name: "B", DatasetCount: 5, Kind: model.KindHierarchical},
		{Name: "A", DatasetCount: 0, Kind: model.KindHierarchical},
	}
	if diff := cmp.Diff(want, ds.TopByPopularity(10)); diff != "" {
		t.Errorf("popularity mismatch (-want +got):\n%s", diff)
	}
	if ds.MaxDatasetCount() != 10 {
		t.Errorf("MaxDatasetCount = %d, want 10", ds.MaxDatasetCount())
	}
}

// TestBuildIndex_Paths verifies root-to-node paths, kinds and depths.
func TestBuildIndex_Paths(t *testing.T) {
	ds := loader.BuildIndex("demo", testutil.Scenario())

	tests := []struct {
		name  string
		path  []string
		kind  model.Kind
		depth int
	}{
		{"A", []string{"A"}, model.KindHierarchical, 0},
		{"b", []string{"A", "B"}, model.KindHierarchical, 1},
		{"C", []string{"C"}, model.KindStandalone, 0},
	}
	for _, tt := range tests {
		e, ok := ds.GetByName(tt.name)
		if !ok {
			t.Errorf("GetByName(%q) missing", tt.name)
			continue
		}
		if diff := cmp.Diff(tt.path, e.Path); diff != "" {
			t.Errorf("path for %q (-want +got):\n%s", tt.name, diff)
		}
		if e.Kind != tt.kind {
			t.Errorf("kind for %q = %s, want %s", tt.name, e.Kind, tt.kind)
		}
		if e.Depth != tt.depth {
			t.Errorf("depth for %q = %d, want %d", tt.name, e.Depth, tt.depth)
		}
	}
}

// TestBuildIndex_Empty verifies an empty document indexes to zero values.
func TestBuildIndex_Empty(t *testing.T) {
	ds := loader.BuildIndex("empty", testutil.Empty())
	if ds.HierarchicalCount != 0 || ds.MaxDepth != 0 || ds.Len() != 0 {
		t.Errorf("unexpected stats for empty document: %+v", ds.Stats())
	}
	if got := ds.TopByPopularity(5); len(got) != 0 {
		t.Errorf("expected no popularity entries, got %v", got)
	}
	if ds.MaxDatasetCount() != 0 {
		t.Errorf("MaxDatasetCount = %d, want 0", ds.MaxDatasetCount())
	}
}

// TestBuildIndex_Collisions verifies last-visited-wins and the collision log.
func TestBuildIndex_Collisions(t *testing.T) {
	doc := &model.Document{
		HierarchicalTasks: []*model.Task{
			{Name: "Segmentation", DatasetCount: 1, Children: []*model.Task{
				{Name: "segmentation", DatasetCount: 2},
			}},
		},
		StandaloneTasks: []*model.Task{{Name: "SEGMENTATION", DatasetCount: 3}},
	}
	ds := loader.BuildIndex("cv", doc)

	e, ok := ds.GetByName("Segmentation")
	if !ok {
		t.Fatal("GetByName missed a colliding name")
	}
	if e.Task.DatasetCount != 3 || e.Kind != model.KindStandalone {
		t.Errorf("expected the standalone task to win, got %+v", e)
	}
	if ds.Len() != 1 {
		t.Errorf("Len = %d, want 1 distinct key", ds.Len())
	}
	if ds.HierarchicalCount != 2 {
		t.Errorf("HierarchicalCount = %d, collisions must not change counting", ds.HierarchicalCount)
	}

	want := []loader.Collision{
		{Key: "segmentation", Replaced: []string{"Segmentation"}, Kept: []string{"Segmentation", "segmentation"}},
		{Key: "segmentation", Replaced: []string{"Segmentation", "segmentation"}, Kept: []string{"SEGMENTATION"}},
	}
	if diff := cmp.Diff(want, ds.Collisions); diff != "" {
		t.Errorf("collisions (-want +got):\n%s", diff)
	}
	if got := len(ds.TopByPopularity(10)); got != 3 {
		t.Errorf("popularity should list every task, got %d", got)
	}
}

// TestBuildIndex_StableTies verifies equal counts keep pre-order then
// standalone order.
func TestBuildIndex_StableTies(t *testing.T) {
	doc := &model.Document{
		HierarchicalTasks: []*model.Task{
			{Name: "root1", DatasetCount: 1, Children: []*model.Task{
				{Name: "child1", DatasetCount: 1},
				{Name: "child2", DatasetCount: 1},
			}},
			{Name: "root2", DatasetCount: 1},
		},
		StandaloneTasks: []*model.Task{{Name: "solo", DatasetCount: 1}},
	}
	ds := loader.BuildIndex("ties", doc)

	var got []string
	for _, p := range ds.TopByPopularity(5) {
		got = append(got, p.Name)
	}
	want := []string{"root1", "child1", "child2", "root2", "solo"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tie order (-want +got):\n%s", diff)
	}

	var order []string
	for _, e := range ds.Entries() {
		order = append(order, e.Name())
	}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("entry order (-want +got):\n%s", diff)
	}
}

// TestBuildIndex_StandaloneChildrenIgnored verifies children listed under a
// standalone task are neither counted nor indexed.
func TestBuildIndex_StandaloneChildrenIgnored(t *testing.T) {
	doc := &model.Document{
		HierarchicalTasks: []*model.Task{},
		StandaloneTasks: []*model.Task{
			{Name: "solo", Children: []*model.Task{{Name: "hidden"}}},
		},
	}
	ds := loader.BuildIndex("x", doc)
	if _, ok := ds.GetByName("hidden"); ok {
		t.Error("child of a standalone task should not be indexed")
	}
	if ds.HierarchicalCount != 0 {
		t.Errorf("HierarchicalCount = %d, want 0", ds.HierarchicalCount)
	}
}

// TestBuildIndex_DeepChain verifies very deep trees index without recursion.
func TestBuildIndex_DeepChain(t *testing.T) {
	f := testutil.NewDefault().Chain(2000)
	ds := loader.BuildIndex("deep", f.Document)
	if ds.HierarchicalCount != 2000 {
		t.Errorf("HierarchicalCount = %d, want 2000", ds.HierarchicalCount)
	}
	if ds.MaxDepth != 1999 {
		t.Errorf("MaxDepth = %d, want 1999", ds.MaxDepth)
	}
}

func TestBuildIndex_GeneratedFixtures(t *testing.T) {
	gen := testutil.NewDefault()
	fixtures := []testutil.ForestFixture{
		gen.Chain(25),
		gen.Tree(3, 4),
		gen.Flat(30),
		gen.Random(300, 6),
		gen.WithStandalone(gen.Random(80, 2), 20),
	}
	for _, f := range fixtures {
		t.Run(f.Description, func(t *testing.T) {
			ds := loader.BuildIndex("gen", f.Document)
			if ds.HierarchicalCount != f.Properties.HierarchicalCount {
				t.Errorf("HierarchicalCount = %d, want %d", ds.HierarchicalCount, f.Properties.HierarchicalCount)
			}
			if ds.MaxDepth != f.Properties.MaxDepth {
				t.Errorf("MaxDepth = %d, want %d", ds.MaxDepth, f.Properties.MaxDepth)
			}
			if got := ds.Stats().RootCount; got != f.Properties.Roots {
				t.Errorf("RootCount = %d, want %d", got, f.Properties.Roots)
			}
		})
	}
}

// TestBuildIndex_Properties checks counting, depth, paths and ranking over
// arbitrary forests.
func TestBuildIndex_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		roots := testutil.ForestGen(4, 4, 3).Draw(t, "forest")
		standalone := rapid.SliceOfN(rapid.IntRange(0, 20), 0, 5).Draw(t, "standalone")
		doc := &model.Document{HierarchicalTasks: roots}
		for i, c := range standalone {
			doc.StandaloneTasks = append(doc.StandaloneTasks, &model.Task{Name: "solo " + string(rune('a'+i)), DatasetCount: c})
		}

		ds := loader.BuildIndex("prop", doc)

		if want := testutil.CountTasks(roots); ds.HierarchicalCount != want {
			t.Fatalf("HierarchicalCount = %d, want %d", ds.HierarchicalCount, want)
		}
		if want := testutil.Depth(roots); ds.MaxDepth != want {
			t.Fatalf("MaxDepth = %d, want %d", ds.MaxDepth, want)
		}

		testutil.Walk(roots, func(task *model.Task, path []string) {
			e, ok := ds.GetByName(task.Name)
			if !ok {
				t.Fatalf("%q not indexed", task.Name)
			}
			if !cmp.Equal(path, e.Path) {
				t.Fatalf("path for %q = %v, want %v", task.Name, e.Path, path)
			}
			if e.Depth != len(path)-1 {
				t.Fatalf("depth for %q = %d, want %d", task.Name, e.Depth, len(path)-1)
			}
		})

		pop := ds.TopByPopularity(ds.HierarchicalCount + len(standalone))
		if len(pop) != ds.HierarchicalCount+len(standalone) {
			t.Fatalf("popularity has %d entries, want %d", len(pop), ds.HierarchicalCount+len(standalone))
		}
		for i := 1; i < len(pop); i++ {
			if pop[i].DatasetCount > pop[i-1].DatasetCount {
				t.Fatalf("popularity not sorted at %d: %d > %d", i, pop[i].DatasetCount, pop[i-1].DatasetCount)
			}
		}
	})
}

func BenchmarkBuildIndex(b *testing.B) {
	doc := testutil.QuickRandom(5000, 20, 500)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = loader.BuildIndex("bench", doc)
	}
}
