package main

import (
	"github.com/spf13/cobra"

	"akushu/pkg/problem"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Print the problem manifest of the output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		idx, err := problem.ReadIndex(cfg.OutputDir, logger)
		if err != nil {
			return err
		}
		files := idx.Files()
		cmd.Printf("next_id: %d\n", idx.NextID())
		cmd.Printf("problems: %d\n", len(files))
		for _, name := range files {
			cmd.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
