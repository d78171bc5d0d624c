package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "careersuite",
	Short: "Job application tracking from inbox to record store",
	Long:  "Pulls labeled application emails, extracts company, title and status via tiered Claude extraction, reconciles them into application records, and advances thread workflow labels.",
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
