package tree

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/vanderheijden86/tasktree/pkg/loader"
	"github.com/vanderheijden86/tasktree/pkg/model"
	"github.com/vanderheijden86/tasktree/pkg/testutil"
)

// visionTasks is a small three-level hierarchy:
//
//	Computer Vision
//	├── Image Classification
//	│   └── Fine-Grained Classification
//	└── Segmentation
//	    ├── Semantic Segmentation
//	    │   └── Road Segmentation
//	    └── Instance Segmentation
//	Audio
func visionTasks() []*model.Task {
	return []*model.Task{
		{Name: "Computer Vision", DatasetCount: 300, Children: []*model.Task{
			{Name: "Image Classification", DatasetCount: 120, Children: []*model.Task{
				{Name: "Fine-Grained Classification", DatasetCount: 12},
			}},
			{Name: "Segmentation", DatasetCount: 90, Children: []*model.Task{
				{Name: "Semantic Segmentation", DatasetCount: 40, Children: []*model.Task{
					{Name: "Road Segmentation", DatasetCount: 3},
				}},
				{Name: "Instance Segmentation", DatasetCount: 25},
			}},
		}},
		{Name: "Audio"},
	}
}

func rowNames(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func newVisionRenderer(t *testing.T) *Renderer {
	t.Helper()
	r := New(DefaultOptions())
	r.BuildHierarchy(visionTasks())
	return r
}

// TestDefaultOptions verifies the stock configuration.
func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if !opts.ShowDatasetCount || !opts.Collapsible || !opts.SearchHighlight {
		t.Errorf("flags should default to true: %+v", opts)
	}
	if opts.MaxInitialDepth != 2 {
		t.Errorf("MaxInitialDepth = %d, want 2", opts.MaxInitialDepth)
	}
}

// TestBuildHierarchy_InitialExpansion verifies nodes above MaxInitialDepth
// start expanded and deeper ones start collapsed.
func TestBuildHierarchy_InitialExpansion(t *testing.T) {
	r := newVisionRenderer(t)

	want := []string{
		"Computer Vision",
		"Image Classification",
		"Fine-Grained Classification",
		"Segmentation",
		"Semantic Segmentation",
		"Instance Segmentation",
		"Audio",
	}
	if diff := cmp.Diff(want, rowNames(r.HierarchyRows())); diff != "" {
		t.Errorf("visible rows (-want +got):\n%s", diff)
	}
	if r.Lookup("Semantic Segmentation").Expanded {
		t.Error("depth-2 node should start collapsed")
	}
	wantSet := []string{"computer vision", "image classification", "segmentation"}
	if diff := cmp.Diff(wantSet, r.ExpansionState()); diff != "" {
		t.Errorf("expansion set (-want +got):\n%s", diff)
	}
}

// TestBuildHierarchy_Structure verifies depths and parent links.
func TestBuildHierarchy_Structure(t *testing.T) {
	r := newVisionRenderer(t)

	road := r.Lookup("road segmentation")
	if road == nil {
		t.Fatal("Lookup failed")
	}
	if road.Depth != 3 {
		t.Errorf("Depth = %d, want 3", road.Depth)
	}
	var chain []string
	for n := road; n != nil; n = n.Parent {
		chain = append(chain, n.Name())
	}
	want := []string{"Road Segmentation", "Semantic Segmentation", "Segmentation", "Computer Vision"}
	if diff := cmp.Diff(want, chain); diff != "" {
		t.Errorf("parent chain (-want +got):\n%s", diff)
	}
	if len(r.Roots()) != 2 || r.NodeCount() != 8 {
		t.Errorf("roots=%d nodes=%d", len(r.Roots()), r.NodeCount())
	}
}

// TestBuildHierarchy_StickyExpansion verifies deep expansions survive a
// rebuild while shallow collapses do not.
func TestBuildHierarchy_StickyExpansion(t *testing.T) {
	r := newVisionRenderer(t)

	if !r.Toggle("Semantic Segmentation") {
		t.Fatal("Toggle on a collapsed parent should change state")
	}
	if !r.Toggle("Computer Vision") {
		t.Fatal("Toggle on an expanded root should change state")
	}
	if got := rowNames(r.HierarchyRows()); len(got) != 2 {
		t.Fatalf("collapsed root should hide its subtree, got %v", got)
	}

	r.BuildHierarchy(visionTasks())

	if !r.Lookup("Semantic Segmentation").Expanded {
		t.Error("user expansion of a deep node should survive a rebuild")
	}
	if !r.Lookup("Computer Vision").Expanded {
		t.Error("shallow nodes are re-expanded on rebuild")
	}
	if !strings.Contains(strings.Join(rowNames(r.HierarchyRows()), ","), "Road Segmentation") {
		t.Error("Road Segmentation should be visible after rebuild")
	}
}

// TestToggle_NoCascade verifies toggling a parent leaves descendants alone.
func TestToggle_NoCascade(t *testing.T) {
	r := newVisionRenderer(t)

	r.Toggle("Segmentation")
	if r.Lookup("Segmentation").Expanded {
		t.Fatal("Segmentation should be collapsed")
	}
	r.Toggle("Segmentation")

	if r.Lookup("Semantic Segmentation").Expanded {
		t.Error("child state changed by toggling the parent")
	}
	if !r.Lookup("Image Classification").Expanded {
		t.Error("sibling state changed")
	}
}

// TestToggle_NoChange verifies Toggle reports false when nothing changes.
func TestToggle_NoChange(t *testing.T) {
	r := newVisionRenderer(t)
	if r.Toggle("Audio") {
		t.Error("toggling a leaf should report no change")
	}
	if r.Toggle("Nonexistent") {
		t.Error("toggling an unknown name should report no change")
	}

	opts := DefaultOptions()
	opts.Collapsible = false
	fixed := New(opts)
	fixed.BuildHierarchy(visionTasks())
	if fixed.Toggle("Computer Vision") {
		t.Error("non-collapsible renderer should ignore Toggle")
	}
	for _, row := range fixed.HierarchyRows() {
		if row.Expandable {
			t.Errorf("%q should not be expandable", row.Name)
		}
	}
}

// TestExpandAllCollapseAll verifies collapse-all empties the expansion set
// after expand-all, ignoring MaxInitialDepth.
func TestExpandAllCollapseAll(t *testing.T) {
	r := newVisionRenderer(t)

	r.ExpandAll()
	if got := len(r.HierarchyRows()); got != 8 {
		t.Errorf("ExpandAll shows %d rows, want 8", got)
	}
	if got := len(r.ExpansionState()); got != 4 {
		t.Errorf("expansion set has %d entries, want 4", got)
	}

	r.CollapseAll()
	if got := r.ExpansionState(); len(got) != 0 {
		t.Errorf("expansion set not empty: %v", got)
	}
	if diff := cmp.Diff([]string{"Computer Vision", "Audio"}, rowNames(r.HierarchyRows())); diff != "" {
		t.Errorf("rows after CollapseAll (-want +got):\n%s", diff)
	}
}

// TestExpandToDepth verifies absolute re-leveling.
func TestExpandToDepth(t *testing.T) {
	tests := []struct {
		depth int
		want  int
	}{
		{0, 2},
		{1, 4},
		{2, 7},
		{3, 8},
		{10, 8},
	}
	for _, tt := range tests {
		r := newVisionRenderer(t)
		r.ExpandAll()
		r.ExpandToDepth(tt.depth)
		if got := len(r.HierarchyRows()); got != tt.want {
			t.Errorf("ExpandToDepth(%d) shows %d rows, want %d", tt.depth, got, tt.want)
		}
		for _, n := range r.hier {
			if n.HasChildren() && n.Expanded != (n.Depth < tt.depth) {
				t.Errorf("ExpandToDepth(%d): %q expanded=%v at depth %d", tt.depth, n.Name(), n.Expanded, n.Depth)
			}
		}
	}
}

// TestExpandPath verifies ancestors are opened for a deep node.
func TestExpandPath(t *testing.T) {
	r := newVisionRenderer(t)
	r.CollapseAll()

	if !r.ExpandPath("Road Segmentation") {
		t.Fatal("ExpandPath returned false")
	}
	want := []string{
		"Computer Vision",
		"Image Classification",
		"Segmentation",
		"Semantic Segmentation",
		"Road Segmentation",
		"Instance Segmentation",
		"Audio",
	}
	if diff := cmp.Diff(want, rowNames(r.HierarchyRows())); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	if r.ExpandPath("missing") {
		t.Error("ExpandPath should report unknown names")
	}
}

// TestHighlightSearch verifies filtering, ancestor expansion and highlights.
func TestHighlightSearch(t *testing.T) {
	r := newVisionRenderer(t)
	r.CollapseAll()

	n := r.HighlightSearch("ROAD")
	if n != 1 || r.MatchCount() != 1 {
		t.Fatalf("matches = %d, want 1", n)
	}
	want := []string{"Computer Vision", "Segmentation", "Semantic Segmentation", "Road Segmentation"}
	if diff := cmp.Diff(want, rowNames(r.HierarchyRows())); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}

	road := r.Lookup("Road Segmentation")
	if diff := cmp.Diff([]Span{{Start: 0, End: 4}}, road.Highlights); diff != "" {
		t.Errorf("highlights (-want +got):\n%s", diff)
	}
	if r.Lookup("Segmentation").Highlights != nil {
		t.Error("non-matching ancestor should not be highlighted")
	}
	if !r.Lookup("Audio").Hidden {
		t.Error("unrelated root should be hidden")
	}
	if r.Query() != "ROAD" {
		t.Errorf("Query = %q", r.Query())
	}
}

// TestHighlightSearch_MatchesStable verifies a later search does not rewrite
// the match list returned for an earlier one.
func TestHighlightSearch_MatchesStable(t *testing.T) {
	r := newVisionRenderer(t)

	r.HighlightSearch("road")
	first := r.Matches()
	r.HighlightSearch("audio")

	if len(first) != 1 || first[0].Task.Name != "Road Segmentation" {
		t.Errorf("earlier matches changed: %v", first)
	}
	if got := r.Matches(); len(got) != 1 || got[0].Task.Name != "Audio" {
		t.Errorf("current matches = %v", got)
	}
}

// TestHighlightSearch_HidesNonMatchingDescendants verifies children of a
// match are hidden unless they match too.
func TestHighlightSearch_HidesNonMatchingDescendants(t *testing.T) {
	r := newVisionRenderer(t)
	r.ExpandAll()

	r.HighlightSearch("segmentation")
	want := []string{
		"Computer Vision",
		"Segmentation",
		"Semantic Segmentation",
		"Road Segmentation",
		"Instance Segmentation",
	}
	if diff := cmp.Diff(want, rowNames(r.HierarchyRows())); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}

	r.HighlightSearch("classification")
	if !r.Lookup("Segmentation").Hidden {
		t.Error("Segmentation has no matching descendants and should be hidden")
	}
	if r.Lookup("Computer Vision").Hidden {
		t.Error("ancestor of a match must stay visible")
	}
}

// TestHighlightSearch_Clear verifies an empty or blank query restores the
// full tree and removes highlights.
func TestHighlightSearch_Clear(t *testing.T) {
	for _, q := range []string{"", "   ", "\t"} {
		r := newVisionRenderer(t)
		r.BuildStandalone([]*model.Task{{Name: "Speaker ID"}})
		r.HighlightSearch("road")
		if got := r.HighlightSearch(q); got != 0 {
			t.Errorf("HighlightSearch(%q) = %d, want 0", q, got)
		}
		for _, row := range r.Rows() {
			if len(row.Segments) != 1 || row.Segments[0].Match {
				t.Errorf("%q still highlighted after clearing with %q", row.Name, q)
			}
		}
		for _, n := range append(append([]*Node(nil), r.hier...), r.solo...) {
			if n.Hidden {
				t.Errorf("%q hidden after clearing with %q", n.Name(), q)
			}
		}
		if r.Query() != "" || r.MatchCount() != 0 {
			t.Errorf("search state not reset: query=%q matches=%d", r.Query(), r.MatchCount())
		}
	}
}

// TestHighlightSearch_NoHighlightOption verifies filtering still applies
// without emphasis spans.
func TestHighlightSearch_NoHighlightOption(t *testing.T) {
	opts := DefaultOptions()
	opts.SearchHighlight = false
	r := New(opts)
	r.BuildHierarchy(visionTasks())

	if r.HighlightSearch("image") != 1 {
		t.Fatal("expected one match")
	}
	for _, row := range r.HierarchyRows() {
		for _, seg := range row.Segments {
			if seg.Match {
				t.Errorf("%q highlighted with SearchHighlight off", row.Name)
			}
		}
	}
	if len(r.HierarchyRows()) != 2 {
		t.Errorf("filtering should still apply, got %v", rowNames(r.HierarchyRows()))
	}
}

// TestHighlightSearch_DescriptionIgnored verifies only names are searched.
func TestHighlightSearch_DescriptionIgnored(t *testing.T) {
	r := New(DefaultOptions())
	r.BuildHierarchy([]*model.Task{{Name: "Pose Estimation", Description: "keypoints in an image"}})
	if n := r.HighlightSearch("image"); n != 0 {
		t.Errorf("description matched: %d", n)
	}
}

func TestMatchSpans(t *testing.T) {
	tests := []struct {
		name, query string
		want        []Span
	}{
		{"Image Classification", "image", []Span{{0, 5}}},
		{"image Image IMAGE", "Image", []Span{{0, 5}, {6, 11}, {12, 17}}},
		{"aaaa", "aa", []Span{{0, 2}, {2, 4}}},
		{"Über Übung", "üb", []Span{{0, 3}, {6, 9}}},
		{"Audio", "video", nil},
		{"ab", "abc", nil},
	}
	for _, tt := range tests {
		got := matchSpans(tt.name, []rune(tt.query))
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("matchSpans(%q, %q) (-want +got):\n%s", tt.name, tt.query, diff)
		}
	}
}

func TestSegments(t *testing.T) {
	got := Segments("Road Segmentation", []Span{{0, 4}, {5, 8}})
	want := []Segment{
		{Text: "Road", Match: true},
		{Text: " "},
		{Text: "Seg", Match: true},
		{Text: "mentation"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Segments (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Segment{{Text: "plain"}}, Segments("plain", nil)); diff != "" {
		t.Errorf("Segments without spans (-want +got):\n%s", diff)
	}
}

// TestBuildStandalone_Groups verifies grouping by first letter and ordering
// by dataset count within a group.
func TestBuildStandalone_Groups(t *testing.T) {
	r := New(DefaultOptions())
	r.BuildStandalone([]*model.Task{
		{Name: "banana", DatasetCount: 1},
		{Name: "Apple", DatasetCount: 5},
		{Name: "avocado", DatasetCount: 9},
		{Name: "Cherry", DatasetCount: 2},
		{Name: "apricot", DatasetCount: 9},
		{Name: "éclair", DatasetCount: 4},
	})

	var got [][]string
	var keys []string
	for _, g := range r.Groups() {
		keys = append(keys, g.Key)
		var names []string
		for _, n := range g.Nodes {
			names = append(names, n.Name())
		}
		got = append(got, names)
	}
	if diff := cmp.Diff([]string{"A", "B", "C", "É"}, keys); diff != "" {
		t.Errorf("group keys (-want +got):\n%s", diff)
	}
	want := [][]string{{"avocado", "apricot", "Apple"}, {"banana"}, {"Cherry"}, {"éclair"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("groups (-want +got):\n%s", diff)
	}

	r.HighlightSearch("an")
	sr := r.StandaloneRows()
	if len(sr) != 1 || sr[0].Key != "B" {
		t.Errorf("only the B group should have visible rows: %+v", sr)
	}
}

// TestLookup_LastRegisteredWins verifies name collisions resolve to the
// standalone task, which is registered after the hierarchy.
func TestLookup_LastRegisteredWins(t *testing.T) {
	r := New(DefaultOptions())
	r.Build(loader.BuildIndex("x", &model.Document{
		HierarchicalTasks: []*model.Task{{Name: "Segmentation", Children: []*model.Task{{Name: "segmentation"}}}},
		StandaloneTasks:   []*model.Task{{Name: "SEGMENTATION"}},
	}))
	n := r.Lookup("Segmentation")
	if n == nil || n.Kind != model.KindStandalone {
		t.Errorf("Lookup = %+v, want the standalone node", n)
	}
}

// TestSelect verifies selection, the callback and row flags.
func TestSelect(t *testing.T) {
	var picked []string
	opts := DefaultOptions()
	opts.OnSelect = func(task *model.Task) { picked = append(picked, task.Name) }
	r := New(opts)
	r.BuildHierarchy(visionTasks())

	if r.Select("nothing") {
		t.Error("Select on an unknown name should fail")
	}
	if !r.Select("segmentation") {
		t.Fatal("Select failed")
	}
	if r.Selected() == nil || r.Selected().Name() != "Segmentation" {
		t.Errorf("Selected = %+v", r.Selected())
	}
	if diff := cmp.Diff([]string{"Segmentation"}, picked); diff != "" {
		t.Errorf("OnSelect calls (-want +got):\n%s", diff)
	}

	selectedRows := 0
	for _, row := range r.Rows() {
		if row.Selected {
			selectedRows++
			if row.Name != "Segmentation" {
				t.Errorf("wrong row selected: %q", row.Name)
			}
		}
	}
	if selectedRows != 1 {
		t.Errorf("%d rows selected, want 1", selectedRows)
	}

	r.ClearSelection()
	if r.Selected() != nil {
		t.Error("ClearSelection did not clear")
	}
}

// TestSelect_DroppedOnRebuild verifies a selection whose task disappears is
// cleared.
func TestSelect_DroppedOnRebuild(t *testing.T) {
	r := newVisionRenderer(t)
	r.Select("Audio")
	r.BuildHierarchy([]*model.Task{{Name: "Speech"}})
	if r.Selected() != nil {
		t.Errorf("stale selection kept: %+v", r.Selected())
	}
}

// TestRows_Fields verifies the structural row contents.
func TestRows_Fields(t *testing.T) {
	r := newVisionRenderer(t)
	r.BuildStandalone([]*model.Task{{Name: "Zero"}, {Name: "Counted", DatasetCount: 7}})
	rows := r.Rows()

	first := rows[0]
	if first.Name != "Computer Vision" || first.Depth != 0 || !first.Expandable || !first.Expanded || first.ChildCount != 2 {
		t.Errorf("unexpected root row: %+v", first)
	}
	if !first.ShowCount || first.DatasetCount != 300 {
		t.Errorf("root row should show its count: %+v", first)
	}

	byName := make(map[string]Row)
	for _, row := range rows {
		byName[row.Name] = row
	}
	if byName["Audio"].ShowCount {
		t.Error("zero counts are not shown")
	}
	if byName["Counted"].Kind != model.KindStandalone || byName["Counted"].Group != "C" {
		t.Errorf("standalone row: %+v", byName["Counted"])
	}

	opts := DefaultOptions()
	opts.ShowDatasetCount = false
	quiet := New(opts)
	quiet.BuildHierarchy(visionTasks())
	for _, row := range quiet.Rows() {
		if row.ShowCount {
			t.Errorf("%q shows a count with ShowDatasetCount off", row.Name)
		}
	}
}

// TestRenderer_Properties checks the search and collapse laws over
// arbitrary forests.
func TestRenderer_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		roots := testutil.ForestGen(3, 4, 3).Draw(t, "forest")
		opts := DefaultOptions()
		opts.MaxInitialDepth = rapid.IntRange(0, 4).Draw(t, "maxInitialDepth")
		r := New(opts)
		r.BuildHierarchy(roots)
		total := testutil.CountTasks(roots)

		q := rapid.SampledFrom([]string{"1", "node 2", "NODE", "7", "x"}).Draw(t, "query")
		matches := r.HighlightSearch(q)

		visible := make(map[*Node]bool)
		for _, row := range r.HierarchyRows() {
			visible[row.Node] = true
		}
		lq := strings.ToLower(q)
		count := 0
		for _, n := range r.hier {
			isMatch := strings.Contains(strings.ToLower(n.Name()), lq)
			if isMatch {
				count++
				if !visible[n] {
					t.Fatalf("match %q is not reachable", n.Name())
				}
			}
			if visible[n] && !isMatch && !hasMatchingDescendant(n, lq) {
				t.Fatalf("%q visible without matching itself or a descendant", n.Name())
			}
		}
		if count != matches {
			t.Fatalf("HighlightSearch = %d, counted %d", matches, count)
		}

		r.HighlightSearch("")
		for _, n := range r.hier {
			if n.Hidden || n.Highlights != nil {
				t.Fatalf("%q still filtered after clearing", n.Name())
			}
		}

		r.ExpandAll()
		if got := len(r.HierarchyRows()); got != total {
			t.Fatalf("ExpandAll shows %d of %d", got, total)
		}
		r.CollapseAll()
		if len(r.ExpansionState()) != 0 {
			t.Fatalf("expansion set not empty after CollapseAll")
		}
		if got := len(r.HierarchyRows()); got != len(roots) {
			t.Fatalf("CollapseAll shows %d rows, want %d roots", got, len(roots))
		}
	})
}

func hasMatchingDescendant(n *Node, lq string) bool {
	for _, c := range n.Children {
		if strings.Contains(strings.ToLower(c.Name()), lq) || hasMatchingDescendant(c, lq) {
			return true
		}
	}
	return false
}

func BenchmarkBuildAndSearch(b *testing.B) {
	doc := testutil.QuickRandom(5000, 20, 500)
	ds := loader.BuildIndex("bench", doc)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := New(DefaultOptions())
		r.Build(ds)
		r.HighlightSearch("segmentation")
		_ = r.Rows()
	}
}
