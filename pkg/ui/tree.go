package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/tasktree/pkg/tree"
)

// pane is which list the tree view shows.
type pane int

const (
	paneHierarchy pane = iota
	paneStandalone
)

func (p pane) String() string {
	if p == paneStandalone {
		return "Standalone"
	}
	return "Hierarchy"
}

const cursorMarker = "❯ "

// listItem is one line of the tree view: a task row or a standalone group
// header.
type listItem struct {
	header string
	row    tree.Row
}

func (it listItem) isHeader() bool { return it.header != "" }

// buildItems flattens the visible part of the renderer for p.
func buildItems(r *tree.Renderer, p pane) []listItem {
	var items []listItem
	if p == paneHierarchy {
		for _, row := range r.HierarchyRows() {
			items = append(items, listItem{row: row})
		}
		return items
	}
	for _, g := range r.StandaloneRows() {
		items = append(items, listItem{header: g.Key})
		for _, row := range g.Rows {
			items = append(items, listItem{row: row})
		}
	}
	return items
}

// renderItem renders one line clamped to width cells.
func renderItem(theme Theme, roots []*tree.Node, it listItem, width int, isCursor bool) string {
	if it.isHeader() {
		return theme.GroupHeader.Render(truncateRunesHelper(it.header, width, "…"))
	}
	row := it.row

	var sb strings.Builder
	if isCursor {
		sb.WriteString(theme.PrimaryBold.Render(cursorMarker))
	} else {
		sb.WriteString(strings.Repeat(" ", runewidth.StringWidth(cursorMarker)))
	}
	used := runewidth.StringWidth(cursorMarker)

	if row.Node != nil && row.Node.Parent != nil {
		prefix := buildTreePrefix(roots, row.Node)
		sb.WriteString(theme.MutedText.Render(prefix))
		used += runewidth.StringWidth(prefix)
	} else if row.Group != "" {
		sb.WriteString("  ")
		used += 2
	}

	indicator := expandIndicator(row)
	sb.WriteString(theme.MutedText.Render(indicator + " "))
	used += runewidth.StringWidth(indicator) + 1

	count := ""
	if row.ShowCount {
		count = fmt.Sprintf(" (%d)", row.DatasetCount)
	}
	avail := width - used - runewidth.StringWidth(count)

	nameStyle := theme.Base
	if row.Selected {
		nameStyle = theme.Selected
	}
	sb.WriteString(renderSegments(theme, nameStyle, row.Segments, avail))
	if count != "" && avail > 0 {
		sb.WriteString(theme.MutedText.Render(count))
	}

	return sb.String()
}

// renderSegments styles name segments, cutting them at maxWidth cells.
func renderSegments(theme Theme, base lipgloss.Style, segs []tree.Segment, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	total := 0
	for _, s := range segs {
		total += runewidth.StringWidth(s.Text)
	}
	var sb strings.Builder
	left := maxWidth
	truncated := total > maxWidth
	if truncated {
		left = maxWidth - 1
	}
	for _, s := range segs {
		if left <= 0 {
			break
		}
		text := s.Text
		if w := runewidth.StringWidth(text); w > left {
			text = runewidth.Truncate(text, left, "")
		}
		left -= runewidth.StringWidth(text)
		if s.Match {
			sb.WriteString(theme.Match.Render(text))
		} else {
			sb.WriteString(base.Render(text))
		}
	}
	if truncated {
		sb.WriteString(base.Render("…"))
	}
	return sb.String()
}

func expandIndicator(row tree.Row) string {
	switch {
	case !row.Expandable:
		return "•"
	case row.Expanded:
		return "▾"
	default:
		return "▸"
	}
}

// buildTreePrefix builds the indentation and branch characters for a node.
func buildTreePrefix(roots []*tree.Node, node *tree.Node) string {
	if node == nil || node.Parent == nil {
		return ""
	}
	var ancestors []*tree.Node
	for a := node.Parent; a != nil; a = a.Parent {
		ancestors = append([]*tree.Node{a}, ancestors...)
	}

	var sb strings.Builder
	// Skip the root: it sits at column zero without a branch.
	for _, a := range ancestors[1:] {
		if isLastSibling(roots, a) {
			sb.WriteString("    ")
		} else {
			sb.WriteString("│   ")
		}
	}
	if isLastSibling(roots, node) {
		sb.WriteString("└── ")
	} else {
		sb.WriteString("├── ")
	}
	return sb.String()
}

func isLastSibling(roots []*tree.Node, n *tree.Node) bool {
	siblings := roots
	if n.Parent != nil {
		siblings = n.Parent.Children
	}
	return len(siblings) > 0 && siblings[len(siblings)-1] == n
}
