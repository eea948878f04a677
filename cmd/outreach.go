package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finclip/prospector-cli/internal/leadstore"
	"github.com/finclip/prospector-cli/internal/model"
	"github.com/finclip/prospector-cli/internal/outreach"
	"github.com/finclip/prospector-cli/pkg/claude"
)

var (
	outreachFollowUp bool
	outreachLimit    int
)

var outreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Draft outreach messages",
}

var outreachDraftCmd = &cobra.Command{
	Use:   "draft [lead-id]",
	Short: "Draft messages and store them in the conversation log",
	Long:  "With a lead id, drafts a single message. Without one, drafts messages for qualified leads up to --limit.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLeadStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}

		opts := []outreach.Option{}
		if cfg.Outreach.Personalize && cfg.Outreach.AnthropicKey != "" {
			opts = append(opts, outreach.WithClient(
				claude.NewClient(cfg.Outreach.AnthropicKey), cfg.Outreach.Model))
		}
		gen := outreach.NewGenerator(cfg.Outreach.SenderName, opts...)

		kind := outreach.FirstTouch
		if outreachFollowUp {
			kind = outreach.FollowUp
		}

		var leads []model.Lead
		if len(args) == 1 {
			lead, err := store.GetLead(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			leads = []model.Lead{*lead}
		} else {
			leads, err = store.ListLeads(cmd.Context(), leadstore.LeadFilter{
				Status: model.StatusQualified,
				Limit:  outreachLimit,
			})
			if err != nil {
				return err
			}
			if len(leads) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no qualified leads to draft for")
				return nil
			}
		}

		out := cmd.OutOrStdout()
		for _, lead := range leads {
			body, err := gen.Draft(cmd.Context(), lead, kind)
			if err != nil {
				return err
			}
			msg := &model.Message{
				LeadID:    lead.ID,
				Direction: model.DirectionOutbound,
				Body:      body,
			}
			if err := store.AddMessage(cmd.Context(), msg); err != nil {
				return err
			}
			fmt.Fprintf(out, "draft #%d for %s:\n\n%s\n\n", msg.ID, lead.Name, body)
		}
		return nil
	},
}

func init() {
	outreachDraftCmd.Flags().BoolVar(&outreachFollowUp, "follow-up", false, "draft a follow-up instead of a first touch")
	outreachDraftCmd.Flags().IntVar(&outreachLimit, "limit", 20, "maximum qualified leads to draft for in batch mode")
	outreachCmd.AddCommand(outreachDraftCmd)
	rootCmd.AddCommand(outreachCmd)
}
