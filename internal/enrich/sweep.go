package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finclip/prospector-cli/internal/leadstore"
)

// Report summarizes one enrichment sweep.
type Report struct {
	RunID         string
	Processed     int
	Resolved      int
	Unresolved    int
	Errors        int
	BudgetStopped bool
}

// Sweeper runs batch enrichment over unresolved leads, one lead at a time.
// The external API's pacing dominates throughput, so there is nothing to
// gain from concurrency here.
type Sweeper struct {
	store       leadstore.Store
	pipeline    *Pipeline
	limit       int
	dailyBudget int
}

// NewSweeper builds a Sweeper. limit caps leads per run; dailyBudget caps
// leads per UTC day across runs (0 disables the budget).
func NewSweeper(store leadstore.Store, pipeline *Pipeline, limit, dailyBudget int) *Sweeper {
	return &Sweeper{
		store:       store,
		pipeline:    pipeline,
		limit:       limit,
		dailyBudget: dailyBudget,
	}
}

// Run enriches up to limit unresolved leads and returns an aggregate
// report. Per-lead failures are counted, never fatal; the sweep stops early
// only on context cancellation or when the daily budget is exhausted.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.New().String()}

	usedToday := 0
	if s.dailyBudget > 0 {
		midnight := time.Now().UTC().Truncate(24 * time.Hour)
		n, err := s.store.CountProcessedSince(ctx, midnight)
		if err != nil {
			return nil, eris.Wrap(err, "enrich: count daily usage")
		}
		usedToday = n
	}

	leads, err := s.store.ListUnresolved(ctx, s.limit)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: list unresolved")
	}

	zap.L().Info("enrich: sweep starting",
		zap.String("run_id", report.RunID),
		zap.Int("leads", len(leads)),
		zap.Int("used_today", usedToday),
	)

	for _, lead := range leads {
		if err := ctx.Err(); err != nil {
			return report, eris.Wrap(err, "enrich: sweep canceled")
		}
		if s.dailyBudget > 0 && usedToday+report.Processed >= s.dailyBudget {
			report.BudgetStopped = true
			zap.L().Warn("enrich: daily budget exhausted, stopping sweep",
				zap.Int("budget", s.dailyBudget),
			)
			break
		}

		done, err := s.store.IsProcessed(ctx, lead.ID)
		if err != nil {
			return report, eris.Wrapf(err, "enrich: check progress %s", lead.ID)
		}
		if done {
			continue
		}
		report.Processed++

		enriched, err := s.pipeline.Enrich(ctx, lead)
		switch {
		case errors.Is(err, ErrNotResolved):
			report.Unresolved++
			if err := s.store.MarkProcessed(ctx, lead.ID, report.RunID); err != nil {
				return report, err
			}
		case err != nil:
			// Transient upstream trouble: leave the lead unmarked so the
			// next sweep retries it.
			report.Errors++
			zap.L().Warn("enrich: lead failed",
				zap.String("lead", lead.Name),
				zap.Error(err),
			)
		default:
			if err := s.store.ApplyEnrichment(ctx, lead.ID, enriched); err != nil {
				return report, err
			}
			if err := s.store.MarkProcessed(ctx, lead.ID, report.RunID); err != nil {
				return report, err
			}
			report.Resolved++
		}
	}

	zap.L().Info("enrich: sweep finished",
		zap.String("run_id", report.RunID),
		zap.Int("processed", report.Processed),
		zap.Int("resolved", report.Resolved),
		zap.Int("unresolved", report.Unresolved),
		zap.Int("errors", report.Errors),
		zap.Bool("budget_stopped", report.BudgetStopped),
	)
	return report, nil
}
