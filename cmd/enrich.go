package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finclip/prospector-cli/internal/enrich"
	"github.com/finclip/prospector-cli/internal/extract"
	"github.com/finclip/prospector-cli/internal/match"
	"github.com/finclip/prospector-cli/internal/registry"
	"github.com/finclip/prospector-cli/pkg/receitaws"
)

var (
	enrichLimit  int
	enrichBudget int
	enrichNoAPI  bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Resolve and enrich unresolved leads",
	Long:  "Walks unresolved leads through the identity chain (registry match, website scan, web search), then pulls official contact data for each resolved CNPJ.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLeadStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}

		reg, err := registry.Open(cfg.Registry.Path)
		if err != nil {
			return err
		}
		defer reg.Close()

		matcher := match.New(reg,
			match.WithThreshold(cfg.Matcher.SimilarityThreshold),
			match.WithMaxCandidates(cfg.Matcher.MaxCandidates),
		)
		extractor := extract.New(
			extract.WithUserAgent(cfg.Extract.UserAgent),
			extract.WithSearchBaseURL(cfg.Extract.SearchBaseURL),
			extract.WithTimeout(time.Duration(cfg.Extract.TimeoutSecs)*time.Second),
		)

		var api receitaws.Client
		if !enrichNoAPI {
			api = receitaws.NewClient(
				receitaws.WithBaseURL(cfg.Receita.BaseURL),
				receitaws.WithInterval(time.Duration(cfg.Receita.IntervalSecs)*time.Second),
			)
		}

		pipeline := enrich.NewPipeline(api,
			enrich.NewRegistryResolver(matcher),
			enrich.NewWebsiteResolver(extractor),
			enrich.NewSearchResolver(extractor),
		)

		report, err := enrich.NewSweeper(store, pipeline, enrichLimit, enrichBudget).Run(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "run:        %s\n", report.RunID)
		fmt.Fprintf(out, "processed:  %d\n", report.Processed)
		fmt.Fprintf(out, "resolved:   %d\n", report.Resolved)
		fmt.Fprintf(out, "unresolved: %d\n", report.Unresolved)
		fmt.Fprintf(out, "errors:     %d\n", report.Errors)
		if report.BudgetStopped {
			fmt.Fprintln(out, "stopped early: daily budget exhausted")
		}
		return nil
	},
}

func init() {
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 50, "maximum leads to process this run")
	enrichCmd.Flags().IntVar(&enrichBudget, "daily-budget", 200, "maximum leads per UTC day, 0 to disable")
	enrichCmd.Flags().BoolVar(&enrichNoAPI, "no-api", false, "skip the external detail API, resolve identities only")
	rootCmd.AddCommand(enrichCmd)
}
