package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tasktree/pkg/export"
	"github.com/vanderheijden86/tasktree/pkg/inspector"
	"github.com/vanderheijden86/tasktree/pkg/loader"
	"github.com/vanderheijden86/tasktree/pkg/metrics"
	"github.com/vanderheijden86/tasktree/pkg/model"
)

// maxSuggestions bounds the "did you mean" list for unknown task names.
const maxSuggestions = 3

type statsOutput struct {
	loader.Stats
	Title      string                `json:"title"`
	Collisions []loader.Collision    `json:"collisions,omitempty"`
	Timings    []metrics.TimingStats `json:"timings,omitempty"`
	Caches     []metrics.CacheStats  `json:"caches,omitempty"`
}

func (c *CLI) statsCommand() *cobra.Command {
	var asJSON, timings bool
	cmd := &cobra.Command{
		Use:   "stats <domain>",
		Short: "Summarize a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := statsOutput{
				Stats:      ds.Stats(),
				Title:      c.cfg.DomainTitle(ds.Domain),
				Collisions: ds.Collisions,
			}
			if timings {
				out.Timings = metrics.AllTimingStats()
				out.Caches = metrics.AllCacheStats()
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			printStats(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.Flags().BoolVar(&timings, "timings", false, "include timing and cache metrics")
	return cmd
}

func printStats(w io.Writer, out statsOutput) {
	fmt.Fprintf(w, "%s (%s)\n", out.Title, out.Domain)
	fmt.Fprintf(w, "  Total tasks:   %d\n", out.TotalTasks)
	fmt.Fprintf(w, "  Hierarchical:  %d in %d trees\n", out.HierarchicalCount, out.RootCount)
	fmt.Fprintf(w, "  Standalone:    %d\n", out.StandaloneCount)
	fmt.Fprintf(w, "  Max depth:     %d\n", out.MaxDepth)
	if n := len(out.Collisions); n > 0 {
		fmt.Fprintf(w, "  Shadowed:      %d duplicate names\n", n)
	}

	if len(out.Timings) > 0 {
		rows := make([][]string, 0, len(out.Timings))
		for _, t := range out.Timings {
			rows = append(rows, []string{
				t.Name,
				strconv.FormatInt(t.Count, 10),
				fmt.Sprintf("%.3f", t.TotalMs),
				fmt.Sprintf("%.3f", t.AvgMs),
				fmt.Sprintf("%.3f", t.MaxMs),
			})
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, renderTable([]string{"Operation", "Count", "Total ms", "Avg ms", "Max ms"}, rows))
	}
	for _, cs := range out.Caches {
		fmt.Fprintf(w, "%s: %d hits, %d misses (%.0f%% hit ratio)\n", cs.Name, cs.Hits, cs.Misses, cs.HitRatio*100)
	}
}

type searchHit struct {
	Name         string     `json:"name"`
	DatasetCount int        `json:"dataset_count"`
	Kind         model.Kind `json:"type"`
	Path         []string   `json:"path"`
	Relevance    int        `json:"relevance"`
}

func (c *CLI) searchCommand() *cobra.Command {
	var (
		asJSON bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "search <domain> <query>...",
		Short: "Search task names and descriptions",
		Long: `Search matches the query case-insensitively against task names and
descriptions. Names starting with the query rank first, then tasks with
more datasets.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")
			results := ds.Search(query)
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}

			hits := make([]searchHit, 0, len(results))
			for _, r := range results {
				hits = append(hits, searchHit{
					Name:         r.Task.Name,
					DatasetCount: r.Task.DatasetCount,
					Kind:         r.Kind,
					Path:         r.Path,
					Relevance:    r.Relevance,
				})
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), hits)
			}

			w := cmd.OutOrStdout()
			if len(hits) == 0 {
				fmt.Fprintf(w, "No tasks match %q.\n", query)
				return nil
			}
			rows := make([][]string, 0, len(hits))
			for _, h := range hits {
				rows = append(rows, []string{h.Name, strconv.Itoa(h.DatasetCount), h.Kind.Label(), joinPath(h.Path)})
			}
			fmt.Fprintln(w, renderTable([]string{"Task", "Datasets", "Type", "Path"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results (0 for all)")
	return cmd
}

func (c *CLI) topCommand() *cobra.Command {
	var (
		asJSON bool
		n      int
	)
	cmd := &cobra.Command{
		Use:   "top <domain>",
		Short: "List the tasks with the most datasets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			entries := ds.TopByPopularity(n)
			if asJSON {
				if entries == nil {
					entries = []loader.PopularityEntry{}
				}
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			rows := make([][]string, 0, len(entries))
			for i, e := range entries {
				rows = append(rows, []string{strconv.Itoa(i + 1), e.Name, strconv.Itoa(e.DatasetCount), e.Kind.Label()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Task", "Datasets", "Type"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.Flags().IntVarP(&n, "number", "n", 10, "number of tasks")
	return cmd
}

func (c *CLI) showCommand() *cobra.Command {
	var asJSON, plain bool
	cmd := &cobra.Command{
		Use:   "show <domain> <task>...",
		Short: "Show the details of one task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			name := strings.Join(args[1:], " ")
			e, ok := ds.GetByName(name)
			if !ok {
				return notFound(ds, name)
			}

			d := inspector.New(ds).Details(e.Task)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), d)
			}
			md := export.TaskMarkdown(d)
			w := cmd.OutOrStdout()
			width, isTTY := terminal(w)
			if plain {
				fmt.Fprint(w, md)
				return nil
			}
			style := ""
			if !isTTY {
				style = "notty"
			}
			out, err := export.RenderTerminal(md, width, style)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.Flags().BoolVar(&plain, "plain", false, "print raw markdown")
	return cmd
}

func notFound(ds *loader.Dataset, name string) error {
	if s := ds.Suggest(name, maxSuggestions); len(s) > 0 {
		return fmt.Errorf("task %q not found in %s (did you mean %s?)", name, ds.Domain, strings.Join(quoteAll(s), ", "))
	}
	return fmt.Errorf("task %q not found in %s", name, ds.Domain)
}

func quoteAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strconv.Quote(s)
	}
	return out
}
