package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run reconcile and sweep continuously on their configured cadences",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

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
		sweeper, err := newSweeper(st)
		if err != nil {
			return err
		}

		reconcileEvery := time.Duration(cfg.Schedule.ReconcileEveryMins) * time.Minute
		sweepEvery := time.Duration(cfg.Schedule.SweepEveryMins) * time.Minute

		zap.L().Info("scheduler started",
			zap.Duration("reconcile_every", reconcileEvery),
			zap.Duration("sweep_every", sweepEvery),
		)

		g, gctx := errgroup.WithContext(ctx)

		// A failed pass is logged and retried on the next tick; only
		// cancellation stops the loops.
		g.Go(func() error {
			return every(gctx, reconcileEvery, func() {
				summary, err := ctrl.Run(gctx)
				if err != nil {
					zap.L().Error("scheduled reconcile failed", zap.Error(err))
					return
				}
				zap.L().Info("scheduled reconcile complete",
					zap.Int("messages_processed", summary.MessagesProcessed),
					zap.Int("records_created", summary.RecordsCreated),
					zap.Int("records_updated", summary.RecordsUpdated),
				)
			})
		})

		g.Go(func() error {
			return every(gctx, sweepEvery, func() {
				closed, err := sweeper.Run(gctx)
				if err != nil {
					zap.L().Error("scheduled sweep failed", zap.Error(err))
					return
				}
				zap.L().Info("scheduled sweep complete", zap.Int("closed", closed))
			})
		})

		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("scheduler stopped")
		return nil
	},
}

// every runs fn immediately and then on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
