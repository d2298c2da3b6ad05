package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lexcodex/docsmith/config"
)

var (
	flagConfig       string
	flagOutput       string
	flagAPIKey       string
	flagModel        string
	flagIncludeTests bool
	flagExclude      []string
	flagVerbose      bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docsmith [path]",
		Short: "Incremental AI documentation generator for Python projects",
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to a YAML configuration file")
	root.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output directory for documentation")
	root.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY)")
	root.PersistentFlags().StringVarP(&flagModel, "model", "m", envOrDefault("DOCSMITH_MODEL", ""), "OpenAI model to use")
	root.PersistentFlags().BoolVar(&flagIncludeTests, "include-tests", false, "Include test files in documentation")
	root.PersistentFlags().StringSliceVar(&flagExclude, "exclude", nil, "Additional directories to exclude")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Show per-file progress logging")

	root.AddCommand(newGenerateCmd(), newScanCmd(), newStatusCmd(), newClearCmd())
	return root
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadConfig builds the effective configuration from file, environment and
// flags, in that order of increasing precedence. The positional argument is
// the project root.
func loadConfig(args []string) (*config.Config, error) {
	if !flagVerbose {
		log.SetOutput(io.Discard)
	}

	var cfg *config.Config
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	cfg.ProjectRoot = abs

	cfg.LoadEnv()
	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagOutput != "" {
		cfg.OutputDir = flagOutput
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagIncludeTests {
		cfg.IncludeTests = true
	}
	cfg.ExcludeDirs = append(cfg.ExcludeDirs, flagExclude...)
	return cfg, nil
}

// validateConfig reports every problem at once and fails before any
// scanning starts.
func validateConfig(cmd *cobra.Command, cfg *config.Config) error {
	return reportConfigErrors(cmd, cfg.Validate())
}

// validateProject is validateConfig without the API key requirement, for
// commands that never call the generation service.
func validateProject(cmd *cobra.Command, cfg *config.Config) error {
	return reportConfigErrors(cmd, cfg.ValidateProject())
}

func reportConfigErrors(cmd *cobra.Command, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), errStyle.Render("Configuration errors:"))
	for _, err := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", err)
	}
	return fmt.Errorf("invalid configuration")
}
