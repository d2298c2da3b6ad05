package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexcodex/docsmith/ledger"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show documentation state for a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			if err := validateProject(cmd, cfg); err != nil {
				return err
			}

			led := ledger.New(cfg)
			stats := led.Stats()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, titleStyle.Render("Documentation status for ")+cfg.ProjectRoot)
			if !led.HasPreviousRun() {
				fmt.Fprintln(out, dimStyle.Render("No previous documentation run."))
				return nil
			}
			fmt.Fprintf(out, "Tracked files:  %d\n", stats.TotalFiles)
			fmt.Fprintf(out, "Last run:       %s\n", formatTime(stats.LastRun))
			fmt.Fprintf(out, "Oldest entry:   %s\n", formatTime(stats.Oldest))
			fmt.Fprintf(out, "Newest entry:   %s\n", formatTime(stats.Newest))
			return nil
		},
	}
	return cmd
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
