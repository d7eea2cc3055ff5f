package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tasktree/pkg/tree"
)

var matchStyle = lipgloss.NewStyle().Bold(true).Underline(true)

func (c *CLI) treeCommand() *cobra.Command {
	var (
		depth int
		query string
	)
	cmd := &cobra.Command{
		Use:   "tree <domain>",
		Short: "Print the task hierarchy",
		Long: `Print the hierarchy as an indented tree followed by the standalone tasks.

Without --depth the configured initial expansion is used. With --query only
matching tasks and their ancestors are printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			r := tree.New(c.cfg.TreeOptions())
			r.Build(ds)
			if depth > 0 {
				r.ExpandToDepth(depth)
			}
			if query != "" {
				n := r.HighlightSearch(query)
				loggerFromContext(cmd.Context()).Debug("tree search", "query", query, "matches", n)
			}
			printTree(cmd.OutOrStdout(), r)
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 0, "expand levels above this depth (0 keeps the configured expansion)")
	cmd.Flags().StringVar(&query, "query", "", "show only tasks whose name contains this text")
	return cmd
}

func printTree(w io.Writer, r *tree.Renderer) {
	rows := r.HierarchyRows()
	for _, row := range rows {
		fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", row.Depth), indicator(row), rowLabel(row))
	}

	groups := r.StandaloneRows()
	if len(groups) > 0 {
		if len(rows) > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "Standalone")
	}
	for _, g := range groups {
		fmt.Fprintf(w, "  %s\n", g.Key)
		for _, row := range g.Rows {
			fmt.Fprintf(w, "    • %s\n", rowLabel(row))
		}
	}

	if q := r.Query(); q != "" {
		fmt.Fprintf(w, "\n%d matches for %q\n", r.MatchCount(), q)
	}
}

func indicator(row tree.Row) string {
	switch {
	case !row.Expandable:
		return "•"
	case row.Expanded:
		return "▾"
	default:
		return "▸"
	}
}

func rowLabel(row tree.Row) string {
	var sb strings.Builder
	for _, s := range row.Segments {
		if s.Match {
			sb.WriteString(matchStyle.Render(s.Text))
		} else {
			sb.WriteString(s.Text)
		}
	}
	if row.ShowCount {
		fmt.Fprintf(&sb, " (%d)", row.DatasetCount)
	}
	return sb.String()
}
