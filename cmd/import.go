package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finclip/prospector-cli/internal/registry"
)

var importDir string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load zipped CNPJ registry dumps into the local dataset",
	Long:  "Scans a directory for the published Empresas and Estabelecimentos zip files, streams them into SQLite, and rebuilds the name search index.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := registry.Open(cfg.Registry.Path, registry.WithBatchSize(cfg.Registry.BatchSize))
		if err != nil {
			return err
		}
		defer store.Close()

		zips, err := filepath.Glob(filepath.Join(importDir, "*.zip"))
		if err != nil {
			return fmt.Errorf("scan %s: %w", importDir, err)
		}
		if len(zips) == 0 {
			return fmt.Errorf("no zip files found in %s", importDir)
		}

		ctx := cmd.Context()
		for _, path := range zips {
			name := strings.ToLower(filepath.Base(path))
			switch {
			case strings.Contains(name, "empresa"):
				stats, err := store.LoadCompanies(ctx, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d companies (%d skipped)\n",
					filepath.Base(path), stats.Rows, stats.Skipped)
			case strings.Contains(name, "estabelecimento"):
				stats, err := store.LoadEstablishments(ctx, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d establishments (%d skipped)\n",
					filepath.Base(path), stats.Rows, stats.Skipped)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: skipped (unrecognized dump)\n", filepath.Base(path))
			}
		}

		if err := store.RebuildIndex(ctx); err != nil {
			return err
		}

		companies, establishments, err := store.Counts(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "dataset ready: %d companies, %d establishments\n",
			companies, establishments)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDir, "dir", "data/registry", "directory holding the registry zip dumps")
	rootCmd.AddCommand(importCmd)
}
