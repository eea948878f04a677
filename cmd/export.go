package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finclip/prospector-cli/internal/export"
	"github.com/finclip/prospector-cli/internal/leadstore"
	"github.com/finclip/prospector-cli/internal/model"
	"github.com/finclip/prospector-cli/pkg/notion"
)

var (
	exportXLSXPath string
	exportNotion   bool
	exportStatus   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export leads to a spreadsheet or the Notion CRM",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportXLSXPath == "" && !exportNotion {
			return fmt.Errorf("nothing to do: pass --xlsx and/or --notion")
		}

		store, err := openLeadStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}

		filter := leadstore.LeadFilter{}
		if exportStatus != "" {
			filter.Status = model.LeadStatus(exportStatus)
		}
		leads, err := store.ListLeads(cmd.Context(), filter)
		if err != nil {
			return err
		}

		if exportXLSXPath != "" {
			if err := export.WriteXLSX(exportXLSXPath, leads); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d leads to %s\n", len(leads), exportXLSXPath)
		}

		if exportNotion {
			if cfg.Notion.Token == "" || cfg.Notion.LeadDB == "" {
				return fmt.Errorf("notion.token and notion.lead_db must be configured")
			}
			exporter := export.NewNotionExporter(notion.NewClient(cfg.Notion.Token, cfg.Notion.LeadDB))
			created, updated, err := exporter.Export(cmd.Context(), leads)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "notion: %d pages created, %d updated\n", created, updated)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportXLSXPath, "xlsx", "", "write leads to this spreadsheet path")
	exportCmd.Flags().BoolVar(&exportNotion, "notion", false, "push leads to the configured Notion database")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "export only leads with this status")
	rootCmd.AddCommand(exportCmd)
}
