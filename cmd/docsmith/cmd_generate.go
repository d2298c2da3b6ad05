package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexcodex/docsmith/builder"
	"github.com/lexcodex/docsmith/generator"
	"github.com/lexcodex/docsmith/llm"
)

func newGenerateCmd() *cobra.Command {
	var full bool
	var noArchive bool
	cmd := &cobra.Command{
		Use:   "generate [path]",
		Short: "Generate documentation for a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			if err := validateConfig(cmd, cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gen := generator.New(cfg, llm.NewClient(cfg.APIKey, cfg.Model))
			if !noArchive {
				archive, err := builder.OpenArchive(filepath.Join(cfg.ProjectRoot, ".docsmith.db"))
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("archive unavailable: "+err.Error()))
				} else {
					defer archive.Close()
					gen.SetArchive(archive)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render("Generating documentation for ")+cfg.ProjectRoot)
			if err := gen.Run(ctx, full); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Documentation written to ")+cfg.OutputDir)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&full, "full", "f", false, "Force full documentation regeneration")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "Skip the SQLite documentation archive")
	return cmd
}
