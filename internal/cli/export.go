package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tasktree/pkg/export"
)

func (c *CLI) exportCommand() *cobra.Command {
	var (
		out   string
		n     int
		depth int
		title string
	)
	cmd := &cobra.Command{
		Use:   "export <domain>",
		Short: "Write a popularity chart or a markdown report",
		Long: `Export writes the domain's most popular tasks as a bar chart (.svg or .png)
or a markdown report with the hierarchy outline (.md). The format follows the
extension of --out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			if filepath.Ext(out) == "" {
				out += ".svg"
			}
			ds, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if title == "" {
				title = c.cfg.DomainTitle(ds.Domain)
			}

			switch strings.ToLower(filepath.Ext(out)) {
			case ".md", ".markdown":
				md := export.DomainMarkdown(ds, title, n, depth)
				if err := export.SaveMarkdownToFile(md, out); err != nil {
					return err
				}
			default:
				err := export.SaveChart(export.ChartOptions{
					Path:    out,
					Title:   "Task Popularity: " + title,
					Entries: ds.TopByPopularity(n),
					Stats:   ds.Stats(),
				})
				if err != nil {
					return err
				}
			}
			loggerFromContext(cmd.Context()).Info("export written", "path", out)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (.svg, .png or .md)")
	cmd.Flags().IntVarP(&n, "number", "n", 20, "number of tasks in the chart or top table")
	cmd.Flags().IntVar(&depth, "depth", -1, "outline depth for markdown reports (-1 for all levels)")
	cmd.Flags().StringVar(&title, "title", "", "report title (defaults to the domain title)")
	return cmd
}
