package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"akushu/pkg/problem"
	"akushu/pkg/shogi"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Write a problem for every losing move of the input record",
	Args:  cobra.NoArgs,
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	res, err := extract(cfg.InputPath, cfg.OutputDir, logger)
	if err != nil {
		return err
	}
	cmd.Printf("%d problems written to %s (%d plies)\n", len(res.Files), cfg.OutputDir, res.Plies)
	return nil
}

func extract(input, output string, log *zap.Logger) (problem.Result, error) {
	lines, err := shogi.ReadLines(input)
	if err != nil {
		return problem.Result{}, err
	}
	log.Info("extract", zap.String("input", input), zap.String("output", output), zap.Int("lines", len(lines)))
	x := problem.NewExtractor(problem.DefaultGrammar(), shogi.Reader{}, log)
	res, err := x.Run(lines, output)
	if err != nil {
		return res, err
	}
	log.Info("extract done",
		zap.Int("plies", res.Plies),
		zap.Int("problems", len(res.Files)),
		zap.Int("unfollowed", res.Unfollowed),
		zap.Int("dropped", res.Dropped),
	)
	return res, nil
}
