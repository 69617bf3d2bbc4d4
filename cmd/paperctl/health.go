package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helixir/research-paper-finder/internal/app"
	"github.com/helixir/research-paper-finder/internal/research"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every enabled provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App, format string) error {
			report := a.Service.Health(cmd.Context())
			if err := render(cmd.OutOrStdout(), format, report, func(p *printer) {
				p.health(report)
			}); err != nil {
				return err
			}
			if report.Status != research.StatusHealthy {
				return fmt.Errorf("status %s", report.Status)
			}
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the search configuration and enabled providers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App, format string) error {
			stats := a.Service.Stats()
			return render(cmd.OutOrStdout(), format, stats, func(p *printer) {
				p.stats(stats)
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(healthCmd, statsCmd)
}
