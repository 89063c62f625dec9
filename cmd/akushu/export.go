package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"akushu/pkg/bank"
)

var (
	exportFormat   string
	exportOut      string
	exportParallel int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every problem of the output directory as parquet or sqlite",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if exportOut == "" {
			return fmt.Errorf("--out is required")
		}
		if exportParallel < 1 {
			exportParallel = 1
		}
		entries, err := bank.Load(cmd.Context(), cfg.OutputDir, exportParallel, logger)
		if err != nil {
			return err
		}
		rows := bank.Rows(entries)

		format := strings.ToLower(exportFormat)
		if format == "" {
			format = formatOf(exportOut)
		}
		switch format {
		case "parquet":
			ch := make(chan bank.Row)
			go func() {
				defer close(ch)
				for _, r := range rows {
					ch <- r
				}
			}()
			if err := bank.WriteParquet(exportOut, ch, int64(exportParallel)); err != nil {
				// unblock the sender
				for range ch {
				}
				return err
			}
		case "sqlite":
			if err := bank.WriteSQLite(cmd.Context(), exportOut, rows); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q (want parquet or sqlite)", exportFormat)
		}
		cmd.Printf("exported %d problems to %s\n", len(rows), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "parquet or sqlite (default: from the --out extension)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file")
	exportCmd.Flags().IntVar(&exportParallel, "parallel", 4, "files read (and parquet writers) at once")
	rootCmd.AddCommand(exportCmd)
}

// formatOf guesses an export format from a file name.
func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	default:
		return "parquet"
	}
}
