package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/finclip/prospector-cli/internal/enrich"
	"github.com/finclip/prospector-cli/internal/extract"
	"github.com/finclip/prospector-cli/internal/match"
	"github.com/finclip/prospector-cli/internal/model"
	"github.com/finclip/prospector-cli/internal/registry"
	"github.com/finclip/prospector-cli/pkg/receitaws"
)

var (
	resolveCity    string
	resolveState   string
	resolveWebsite string
	resolveWithAPI bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <business name>",
	Short: "Run the identity chain for one business name",
	Long:  "Debugging helper: resolves a name through registry match, website scan, and web search, optionally pulling official details for the resolved CNPJ.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		if resolveWithAPI {
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

		lead := model.Lead{
			Name:    strings.Join(args, " "),
			City:    resolveCity,
			State:   resolveState,
			Website: resolveWebsite,
		}
		out := cmd.OutOrStdout()
		enriched, err := pipeline.Enrich(cmd.Context(), lead)
		if errors.Is(err, enrich.ErrNotResolved) {
			fmt.Fprintln(out, "no match")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "cnpj:    %s\n", enriched.ResolvedID)
		fmt.Fprintf(out, "source:  %s\n", enriched.Source)
		if enriched.Phone != "" {
			fmt.Fprintf(out, "phone:   %s\n", enriched.Phone)
		}
		if enriched.Email != "" {
			fmt.Fprintf(out, "email:   %s\n", enriched.Email)
		}
		if enriched.ContactName != "" {
			fmt.Fprintf(out, "contact: %s (%s)\n", enriched.ContactName, enriched.ContactRole)
		}
		for _, o := range enriched.Officers {
			fmt.Fprintf(out, "officer: %s (%s)\n", o.Name, o.Role)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveCity, "city", "", "city used by the web-search fallback")
	resolveCmd.Flags().StringVar(&resolveState, "state", "", "two-letter state code for the lead")
	resolveCmd.Flags().StringVar(&resolveWebsite, "website", "", "website to scan before falling back to search")
	resolveCmd.Flags().BoolVar(&resolveWithAPI, "api", false, "also fetch official details for the resolved id")
	rootCmd.AddCommand(resolveCmd)
}
