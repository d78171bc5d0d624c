package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

var (
	recordsFormat string
	recordsOut    string
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect application records in the store",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all application records as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := loadAllRecords(cmd)
		if err != nil {
			return err
		}
		return writeRecords(os.Stdout, "json", recs)
	},
}

var recordsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all application records to a file or stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := loadAllRecords(cmd)
		if err != nil {
			return err
		}

		out := io.Writer(os.Stdout)
		if recordsOut != "" {
			f, err := os.Create(recordsOut)
			if err != nil {
				return eris.Wrap(err, "create export file")
			}
			defer f.Close()
			out = f
		}
		return writeRecords(out, recordsFormat, recs)
	},
}

func loadAllRecords(cmd *cobra.Command) ([]*model.ApplicationRecord, error) {
	ctx := cmd.Context()

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return nil, eris.Wrap(err, "migrate store")
	}

	recs, err := st.LoadRecords(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load records")
	}
	return recs, nil
}

func writeRecords(w io.Writer, format string, recs []*model.ApplicationRecord) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(recs)
	default:
		return eris.Errorf("unsupported format: %s", format)
	}
}

func init() {
	recordsExportCmd.Flags().StringVar(&recordsFormat, "format", "json", "output format: json or yaml")
	recordsExportCmd.Flags().StringVar(&recordsOut, "out", "", "output file (default stdout)")
	recordsCmd.AddCommand(recordsListCmd, recordsExportCmd)
	rootCmd.AddCommand(recordsCmd)
}
