package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/extract"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/reconcile"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/store"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/workflow"
	anthropicpkg "github.com/Frankwerd/Career-Suite-AI-V6/pkg/anthropic"
)

var (
	reconcileMaxMessages int
	reconcileMaxThreads  int
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one reconciliation pass over pending threads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		ctrl, err := newController(st)
		if err != nil {
			return err
		}

		summary, err := ctrl.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "reconcile run")
		}

		zap.L().Info("reconcile complete",
			zap.Int("threads_examined", summary.ThreadsExamined),
			zap.Int("messages_processed", summary.MessagesProcessed),
			zap.Int("records_created", summary.RecordsCreated),
			zap.Int("records_updated", summary.RecordsUpdated),
			zap.Int("threads_done", summary.ThreadsDone),
			zap.Int("threads_needs_review", summary.ThreadsNeedsReview),
			zap.Bool("budget_exhausted", summary.BudgetExhausted),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

// newController wires the extraction, reconciliation and label workflow
// components from configuration. The primary extractor is optional: without
// an API key the composer runs on keyword fallback alone.
func newController(st store.Store) (*workflow.Controller, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, eris.Wrap(err, "load rules")
	}

	fallback, err := extract.NewFallback(rules, cfg.Extract.FallbackScanChars)
	if err != nil {
		return nil, eris.Wrap(err, "build fallback extractor")
	}

	var primary *extract.Primary
	if cfg.Anthropic.Key != "" {
		primary = extract.NewPrimary(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic, cfg.Extract)
	} else {
		zap.L().Warn("no anthropic key configured, extraction is keyword-only")
	}

	gmailClient, err := initGmail()
	if err != nil {
		return nil, err
	}

	maxMessages := cfg.Reconcile.MaxMessages
	if reconcileMaxMessages > 0 {
		maxMessages = reconcileMaxMessages
	}
	maxThreads := cfg.Reconcile.MaxThreads
	if reconcileMaxThreads > 0 {
		maxThreads = reconcileMaxThreads
	}

	return workflow.NewController(
		gmailClient,
		st,
		extract.NewComposer(primary, fallback),
		reconcile.NewReconciler(rules.BuildHierarchy()),
		workflow.Labels{
			Pending:     cfg.Gmail.LabelPending,
			Done:        cfg.Gmail.LabelDone,
			NeedsReview: cfg.Gmail.LabelNeedsReview,
		},
		workflow.Budgets{
			MaxMessages: maxMessages,
			MaxThreads:  maxThreads,
			Deadline:    time.Duration(cfg.Reconcile.DeadlineSecs) * time.Second,
		},
	), nil
}

func init() {
	reconcileCmd.Flags().IntVar(&reconcileMaxMessages, "max-messages", 0, "message budget for this run (default from config)")
	reconcileCmd.Flags().IntVar(&reconcileMaxThreads, "max-threads", 0, "thread budget for this run (default from config)")
	rootCmd.AddCommand(reconcileCmd)
}
