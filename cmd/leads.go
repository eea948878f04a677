package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finclip/prospector-cli/internal/model"
	"github.com/finclip/prospector-cli/pkg/places"
)

var (
	leadsCSVPath      string
	collectCategory   string
	collectCity       string
	collectMinRating  float64
	collectMinReviews int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Manage the lead base",
}

var leadsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import leads from a CSV export",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLeadStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}

		f, err := os.Open(leadsCSVPath)
		if err != nil {
			return fmt.Errorf("open %s: %w", leadsCSVPath, err)
		}
		defer f.Close()

		reader := csv.NewReader(f)
		header, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read csv header: %w", err)
		}
		col := make(map[string]int, len(header))
		for i, name := range header {
			col[strings.ToLower(strings.TrimSpace(name))] = i
		}
		pick := func(rec []string, name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		imported := 0
		for {
			rec, err := reader.Read()
			if err != nil {
				break
			}
			name := pick(rec, "name")
			if name == "" {
				continue
			}
			rating, _ := strconv.ParseFloat(pick(rec, "rating"), 64)
			reviews, _ := strconv.Atoi(pick(rec, "review_count"))
			lead := &model.Lead{
				Name:        name,
				Phone:       pick(rec, "phone"),
				Email:       pick(rec, "email"),
				Website:     pick(rec, "website"),
				City:        pick(rec, "city"),
				State:       pick(rec, "state"),
				Address:     pick(rec, "address"),
				Rating:      rating,
				ReviewCount: reviews,
			}
			if err := store.UpsertLead(cmd.Context(), lead); err != nil {
				return err
			}
			imported++
		}

		fmt.Fprintf(cmd.OutOrStdout(), "imported %d leads\n", imported)
		return nil
	},
}

var leadsCollectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect leads from Places text search",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Places.Key == "" {
			return fmt.Errorf("places.key is not configured")
		}
		store, err := openLeadStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}

		client := places.NewClient(cfg.Places.Key, places.WithBaseURL(cfg.Places.BaseURL))
		query := collectCategory + " em " + collectCity
		businesses, err := client.SearchBusinesses(cmd.Context(), query)
		if err != nil {
			return err
		}

		collected := 0
		for _, b := range businesses {
			if b.Rating < collectMinRating || b.RatingCount < collectMinReviews {
				continue
			}
			lead := &model.Lead{
				ID:          b.PlaceID,
				Name:        b.Name,
				Phone:       b.Phone,
				Website:     b.Website,
				City:        collectCity,
				Address:     b.Address,
				Rating:      b.Rating,
				ReviewCount: b.RatingCount,
			}
			if err := store.UpsertLead(cmd.Context(), lead); err != nil {
				return err
			}
			collected++
		}

		zap.L().Info("leads collected",
			zap.String("query", query),
			zap.Int("found", len(businesses)),
			zap.Int("kept", collected),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "collected %d leads for %q\n", collected, query)
		return nil
	},
}

var leadsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show lead counts per funnel status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLeadStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}

		counts, err := store.StatusCounts(cmd.Context())
		if err != nil {
			return err
		}

		order := []model.LeadStatus{
			model.StatusNew, model.StatusContacted, model.StatusQualified,
			model.StatusMeeting, model.StatusCustomer, model.StatusLost,
		}
		total := 0
		for _, status := range order {
			fmt.Fprintf(cmd.OutOrStdout(), "%-18s %d\n", status, counts[status])
			total += counts[status]
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-18s %d\n", "total", total)
		return nil
	},
}

func init() {
	leadsImportCmd.Flags().StringVar(&leadsCSVPath, "csv", "", "CSV file to import")
	leadsImportCmd.MarkFlagRequired("csv")

	leadsCollectCmd.Flags().StringVar(&collectCategory, "category", "", "business category to search for")
	leadsCollectCmd.Flags().StringVar(&collectCity, "city", "", "city to search in")
	leadsCollectCmd.Flags().Float64Var(&collectMinRating, "min-rating", 0, "drop places rated below this")
	leadsCollectCmd.Flags().IntVar(&collectMinReviews, "min-reviews", 0, "drop places with fewer reviews")
	leadsCollectCmd.MarkFlagRequired("category")
	leadsCollectCmd.MarkFlagRequired("city")

	leadsCmd.AddCommand(leadsImportCmd, leadsCollectCmd, leadsStatusCmd)
	rootCmd.AddCommand(leadsCmd)
}
