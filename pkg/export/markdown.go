package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/tasktree/pkg/inspector"
	"github.com/vanderheijden86/tasktree/pkg/loader"
	"github.com/vanderheijden86/tasktree/pkg/model"
)

// pathSeparator joins hierarchy path segments in breadcrumbs.
const pathSeparator = " › "

// TaskMarkdown renders the detail view of one task as markdown.
func TaskMarkdown(d inspector.Details) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(d.Name))
	fmt.Fprintf(&sb, "**%s** %s", d.CountLabel(), barChart(d.Popularity))
	if d.Kind != "" {
		fmt.Fprintf(&sb, " · %s", d.Kind.Label())
	}
	sb.WriteString("\n\n")

	if len(d.Path) > 1 {
		segs := make([]string, len(d.Path))
		for i, p := range d.Path {
			segs[i] = escapeMarkdown(p)
		}
		fmt.Fprintf(&sb, "*%s*\n\n", strings.Join(segs, pathSeparator))
	}

	if d.HasDescription {
		sb.WriteString(d.Description)
	} else {
		fmt.Fprintf(&sb, "*%s*", d.Description)
	}
	sb.WriteString("\n\n")

	if d.TaskID != "" || d.Area != "" {
		sb.WriteString("| Field | Value |\n|-------|-------|\n")
		if d.TaskID != "" {
			fmt.Fprintf(&sb, "| Task ID | `%s` |\n", d.TaskID)
		}
		if d.Area != "" {
			fmt.Fprintf(&sb, "| Area | %s |\n", escapeMarkdown(d.Area))
		}
		sb.WriteString("\n")
	}

	writeTagSection(&sb, "Benchmarks", d.Benchmarks)
	writeTagSection(&sb, "Metrics", d.Metrics)

	if d.Children.Total > 0 {
		fmt.Fprintf(&sb, "## Subtasks (%d)\n\n", d.Children.Total)
		for _, name := range d.Children.Names {
			fmt.Fprintf(&sb, "- %s\n", escapeMarkdown(name))
		}
		if more := d.Children.More(); more > 0 {
			fmt.Fprintf(&sb, "- *…and %d more*\n", more)
		}
		sb.WriteString("\n")
	}

	if len(d.Related) > 0 {
		sb.WriteString("## Related Tasks\n\n")
		sb.WriteString("| Task | Shared words | Datasets |\n|------|--------------|----------|\n")
		for _, r := range d.Related {
			fmt.Fprintf(&sb, "| %s | %d | %d |\n", escapeTableCell(r.Name), r.SharedTokens, r.DatasetCount)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeTagSection(sb *strings.Builder, title string, tags inspector.TagList) {
	if tags.Empty() {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", title)
	for _, t := range tags.Visible {
		fmt.Fprintf(sb, "`%s` ", t)
	}
	if more := tags.More(); more > 0 {
		fmt.Fprintf(sb, "*+%d more*", more)
	}
	sb.WriteString("\n\n")
}

// DomainMarkdown renders a domain report: summary counts, the top tasks by
// dataset count and the hierarchy as a nested list down to maxDepth (all
// levels when maxDepth < 0).
func DomainMarkdown(ds *loader.Dataset, title string, top, maxDepth int) string {
	var sb strings.Builder
	if strings.TrimSpace(title) == "" {
		title = ds.Domain
	}
	st := ds.Stats()

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Count |\n|--------|-------|\n")
	fmt.Fprintf(&sb, "| **Total** | %d |\n", st.TotalTasks)
	fmt.Fprintf(&sb, "| Hierarchical | %d |\n", st.HierarchicalCount)
	fmt.Fprintf(&sb, "| Standalone | %d |\n", st.StandaloneCount)
	fmt.Fprintf(&sb, "| Roots | %d |\n", st.RootCount)
	fmt.Fprintf(&sb, "| Max depth | %d |\n\n", st.MaxDepth)

	if entries := ds.TopByPopularity(top); len(entries) > 0 {
		fmt.Fprintf(&sb, "## Top %d Tasks\n\n", len(entries))
		sb.WriteString("| # | Task | Datasets | Type |\n|---|------|----------|------|\n")
		for i, e := range entries {
			fmt.Fprintf(&sb, "| %d | %s | %d | %s |\n", i+1, escapeTableCell(e.Name), e.DatasetCount, e.Kind.Label())
		}
		sb.WriteString("\n")
	}

	if len(ds.HierarchicalRoots) > 0 {
		sb.WriteString("## Hierarchy\n\n")
		writeOutline(&sb, ds.HierarchicalRoots, maxDepth)
		sb.WriteString("\n")
	}

	if len(ds.StandaloneTasks) > 0 {
		sb.WriteString("## Standalone Tasks\n\n")
		for _, t := range ds.StandaloneTasks {
			fmt.Fprintf(&sb, "- %s (%d)\n", escapeMarkdown(t.Name), t.DatasetCount)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// writeOutline writes the forest as a nested list with an explicit stack.
func writeOutline(sb *strings.Builder, roots []*model.Task, maxDepth int) {
	type frame struct {
		task  *model.Task
		depth int
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{roots[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fmt.Fprintf(sb, "%s- %s (%d)\n", strings.Repeat("  ", f.depth), escapeMarkdown(f.task.Name), f.task.DatasetCount)
		if maxDepth >= 0 && f.depth+1 >= maxDepth {
			continue
		}
		for i := len(f.task.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.task.Children[i], f.depth + 1})
		}
	}
}

// SaveMarkdownToFile writes content to filename.
func SaveMarkdownToFile(content, filename string) error {
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	return nil
}

// RenderTerminal renders markdown for a terminal of the given width. Style
// is a glamour standard style name ("dark", "light", "notty", ...); empty
// picks one from the terminal background.
func RenderTerminal(md string, width int, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimRight(out, " \n"), nil
}

// barChart creates a mini bar chart for a 0-1 value
func barChart(value float64) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(value * 4)
	switch filled {
	case 0:
		return "░░░░"
	case 1:
		return "█░░░"
	case 2:
		return "██░░"
	case 3:
		return "███░"
	default:
		return "████"
	}
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func escapeTableCell(s string) string {
	return strings.ReplaceAll(escapeMarkdown(s), "|", `\|`)
}
