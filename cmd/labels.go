package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Create the workflow labels in the mailbox if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client, err := initGmail()
		if err != nil {
			return err
		}

		for _, name := range []string{cfg.Gmail.LabelPending, cfg.Gmail.LabelDone, cfg.Gmail.LabelNeedsReview} {
			id, err := client.EnsureLabel(ctx, name)
			if err != nil {
				return eris.Wrapf(err, "ensure label %s", name)
			}
			zap.L().Info("label ready", zap.String("name", name), zap.String("id", id))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(labelsCmd)
}
