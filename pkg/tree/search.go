package tree

import (
	"strings"
	"unicode"

	"github.com/vanderheijden86/tasktree/pkg/debug"
	"github.com/vanderheijden86/tasktree/pkg/metrics"
)

// HighlightSearch filters the tree by a case-insensitive substring of the
// task name and returns the number of matching nodes.
//
// A query that is empty or only whitespace clears the search: every node is
// shown and all highlights are removed. Otherwise each matching node gets
// its matched ranges highlighted (when SearchHighlight is set) and all of
// its ancestors are expanded. A node is hidden only when it does not match
// and is not an ancestor of a match.
func (r *Renderer) HighlightSearch(query string) int {
	if strings.TrimSpace(query) == "" {
		r.resetSearch()
		return 0
	}
	defer metrics.Timer(metrics.TreeSearch)()

	r.query = query
	r.matches = nil
	needle := []rune(query)

	for _, n := range r.hier {
		n.Hidden = true
		n.Highlights = nil
	}
	for _, n := range r.solo {
		n.Hidden = true
		n.Highlights = nil
	}

	mark := func(n *Node) {
		spans := matchSpans(n.Task.Name, needle)
		if len(spans) == 0 {
			return
		}
		r.matches = append(r.matches, n)
		n.Hidden = false
		if r.opts.SearchHighlight {
			n.Highlights = spans
		}
		for a := n.Parent; a != nil; a = a.Parent {
			a.Hidden = false
			r.setExpanded(a, true)
		}
	}
	for _, n := range r.hier {
		mark(n)
	}
	for _, n := range r.solo {
		mark(n)
	}

	debug.Log("tree: search %q matched %d of %d nodes", query, len(r.matches), r.NodeCount())
	return len(r.matches)
}

// ClearSearch is HighlightSearch("").
func (r *Renderer) ClearSearch() {
	r.resetSearch()
}

// Query returns the active search query, or "" when no search is active.
func (r *Renderer) Query() string { return r.query }

// MatchCount returns the number of nodes matching the active search.
func (r *Renderer) MatchCount() int { return len(r.matches) }

// Matches returns the nodes matching the active search in display order of
// the underlying lists (hierarchy pre-order, then standalone).
func (r *Renderer) Matches() []*Node { return r.matches }

func (r *Renderer) resetSearch() {
	r.query = ""
	r.matches = nil
	for _, n := range r.hier {
		n.Hidden = false
		n.Highlights = nil
	}
	for _, n := range r.solo {
		n.Hidden = false
		n.Highlights = nil
	}
}

// matchSpans returns the non-overlapping byte ranges of s that equal needle
// under per-rune lowercase folding, scanning left to right.
func matchSpans(s string, needle []rune) []Span {
	if len(needle) == 0 {
		return nil
	}
	lowNeedle := make([]rune, len(needle))
	for i, c := range needle {
		lowNeedle[i] = unicode.ToLower(c)
	}

	type pos struct {
		r     rune
		start int
	}
	runes := make([]pos, 0, len(s))
	for i, c := range s {
		runes = append(runes, pos{unicode.ToLower(c), i})
	}

	var spans []Span
	for i := 0; i+len(lowNeedle) <= len(runes); {
		ok := true
		for j, c := range lowNeedle {
			if runes[i+j].r != c {
				ok = false
				break
			}
		}
		if !ok {
			i++
			continue
		}
		end := len(s)
		if i+len(lowNeedle) < len(runes) {
			end = runes[i+len(lowNeedle)].start
		}
		spans = append(spans, Span{Start: runes[i].start, End: end})
		i += len(lowNeedle)
	}
	return spans
}

// Segment is a run of a node name, either emphasized or plain.
type Segment struct {
	Text  string
	Match bool
}

// Segments splits name around spans. With no spans the whole name is one
// plain segment.
func Segments(name string, spans []Span) []Segment {
	if len(spans) == 0 {
		return []Segment{{Text: name}}
	}
	var out []Segment
	at := 0
	for _, sp := range spans {
		if sp.Start < at || sp.End > len(name) || sp.Start >= sp.End {
			continue
		}
		if sp.Start > at {
			out = append(out, Segment{Text: name[at:sp.Start]})
		}
		out = append(out, Segment{Text: name[sp.Start:sp.End], Match: true})
		at = sp.End
	}
	if at < len(name) {
		out = append(out, Segment{Text: name[at:]})
	}
	return out
}
