package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/store"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/sweep"
)

var sweepThresholdWeeks int

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Reject applications with no activity past the staleness threshold",
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

		sweeper, err := newSweeper(st)
		if err != nil {
			return err
		}

		closed, err := sweeper.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "sweep run")
		}

		zap.L().Info("sweep complete", zap.Int("closed", closed))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]int{"closed": closed})
	},
}

func newSweeper(st store.Store) (*sweep.Sweeper, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, eris.Wrap(err, "load rules")
	}

	weeks := cfg.Sweep.ThresholdWeeks
	if sweepThresholdWeeks > 0 {
		weeks = sweepThresholdWeeks
	}
	threshold := time.Duration(weeks) * 7 * 24 * time.Hour

	return sweep.New(st, rules.BuildHierarchy(), threshold), nil
}

func init() {
	sweepCmd.Flags().IntVar(&sweepThresholdWeeks, "threshold-weeks", 0, "staleness threshold in weeks (default from config)")
	rootCmd.AddCommand(sweepCmd)
}
