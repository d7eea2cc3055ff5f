package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/tasktree/pkg/config"
	"github.com/vanderheijden86/tasktree/pkg/session"
	"github.com/vanderheijden86/tasktree/pkg/ui"
)

func (c *CLI) browseCommand() *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "browse [domain]",
		Short: "Browse a domain interactively",
		Long: `Open the interactive tree browser.

Without a domain argument you are asked to pick one when running in a
terminal; otherwise the configured default domain is opened.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := c.pickDomain(args)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("starting browser", "domain", domain)

			s := session.New(c.loader, c.cfg.TreeOptions())
			m := ui.NewModel(cmd.Context(), s, ui.Options{
				Domains:       c.cfg.Domains,
				InitialDomain: domain,
				Style:         style,
			})
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running browser: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "markdown style for the detail pane (dark, light, notty; default detects)")
	return cmd
}

// pickDomain returns the domain to open: the argument when given, a choice
// from a picker on a terminal, and the configured default otherwise.
func (c *CLI) pickDomain(args []string) (string, error) {
	if len(args) == 1 {
		return c.domainID(args[0]), nil
	}
	if !isTerminal() || len(c.cfg.Domains) < 2 {
		return c.defaultDomain(), nil
	}

	domain := c.defaultDomain()
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Domain").
				Options(domainOptions(c.cfg.Domains)...).
				Value(&domain),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("domain picker: %w", err)
	}
	return domain, nil
}

func (c *CLI) defaultDomain() string {
	if c.cfg.DefaultDomain != "" {
		return c.domainID(c.cfg.DefaultDomain)
	}
	if len(c.cfg.Domains) > 0 {
		return c.cfg.Domains[0].ID
	}
	return ""
}

func domainOptions(domains []config.Domain) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(domains))
	for _, d := range domains {
		label := d.Title
		if label == "" {
			label = d.ID
		}
		opts = append(opts, huh.NewOption(label, d.ID))
	}
	return opts
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
