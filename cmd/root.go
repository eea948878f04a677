package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finclip/prospector-cli/internal/config"
	"github.com/finclip/prospector-cli/internal/leadstore"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "prospector",
	Short: "Lead generation and outreach pipeline",
	Long:  "Collects local business leads, resolves them against the CNPJ registry, enriches contact data, and drafts outreach messages.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openLeadStore opens the configured lead store backend.
func openLeadStore(cmd *cobra.Command) (leadstore.Store, error) {
	switch cfg.Leads.Driver {
	case "postgres":
		return leadstore.NewPostgres(cmd.Context(), cfg.Leads.DatabaseURL)
	default:
		return leadstore.NewSQLite(cfg.Leads.Path)
	}
}
