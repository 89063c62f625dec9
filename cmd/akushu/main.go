package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"akushu/pkg/config"
)

var (
	configPath string
	inputPath  string
	outputDir  string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "akushu",
	Short: "Extract blunder problems from an analysed KIF record",
	Long: `akushu reads a KIF game record annotated with engine analysis and writes
one JSON problem for every move that lost 200 or more evaluation points,
together with an index of every problem in the output directory.

Run without a subcommand to extract once.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := resolveConfig(cmd); err != nil {
			return err
		}
		return initLogger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runExtract,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default: akushu.yaml|json|toml searched upward)")
	flags.StringVarP(&inputPath, "input", "i", "", "input KIF file")
	flags.StringVarP(&outputDir, "output", "o", "", "output directory for problems")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// resolveConfig layers defaults, the config file, the environment and
// finally the flags.
func resolveConfig(cmd *cobra.Command) error {
	var err error
	if configPath != "" {
		if cfg, err = config.LoadConfig(configPath); err != nil {
			return err
		}
		cfg.ApplyEnv()
		if err := cfg.Validate(); err != nil {
			return err
		}
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if cfg, _, err = config.Load(cwd); err != nil {
			return err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputPath = inputPath
	}
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	return nil
}

func initLogger() error {
	zcfg := zap.NewProductionConfig()
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.LogLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	l, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l.With(zap.String("run_id", uuid.NewString()))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
