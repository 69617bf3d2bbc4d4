package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/research-paper-finder/internal/app"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search every enabled provider for papers",
	Long: `Search derives search terms from the query, fans out to every enabled
provider and prints the ranked, deduplicated papers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App, format string) error {
			resp, err := a.Service.Search(cmd.Context(), queryArg(args))
			if err != nil {
				return err
			}
			bySource, _ := cmd.Flags().GetBool("by-source")
			return render(cmd.OutOrStdout(), format, resp, func(p *printer) {
				if bySource {
					p.printf("Search terms: %s\n", strings.Join(resp.SearchTerms, ", "))
					p.papersBySource(resp.Papers)
					return
				}
				p.searchResponse(resp)
			})
		})
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat <query>",
	Short: "Search and summarize the results",
	Long: `Chat runs a search and writes a short summary of what was found. The summary
is produced by the configured AI provider, or by a fixed template when AI is
disabled.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App, format string) error {
			resp, err := a.Service.Chat(cmd.Context(), queryArg(args))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, resp, func(p *printer) {
				p.chatResponse(resp)
			})
		})
	},
}

var termsCmd = &cobra.Command{
	Use:   "terms <query>",
	Short: "Show the search terms derived from a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App, format string) error {
			terms, err := a.Service.Terms(cmd.Context(), queryArg(args))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, terms, func(p *printer) {
				p.list(terms)
			})
		})
	},
}

func init() {
	searchCmd.Flags().Bool("by-source", false, "group text output by provider")

	rootCmd.AddCommand(searchCmd, chatCmd, termsCmd)
}
