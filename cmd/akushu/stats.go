package main

import (
	"github.com/spf13/cobra"

	"akushu/pkg/bank"
)

var statsIn string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize problems by severity and player",
	Long: `Summarize an exported bank given with --in (parquet or sqlite), or the
problems of the output directory when --in is omitted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rows, err := statsRows(cmd)
		if err != nil {
			return err
		}
		bank.Summarize(rows).Print(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsIn, "in", "", "exported bank (.parquet, .db)")
	rootCmd.AddCommand(statsCmd)
}

func statsRows(cmd *cobra.Command) ([]bank.Row, error) {
	if statsIn == "" {
		entries, err := bank.Load(cmd.Context(), cfg.OutputDir, 4, logger)
		if err != nil {
			return nil, err
		}
		return bank.Rows(entries), nil
	}
	if formatOf(statsIn) == "sqlite" {
		return bank.ReadSQLite(cmd.Context(), statsIn)
	}
	return bank.ReadParquet(statsIn, 4)
}
