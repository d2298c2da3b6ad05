package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/docsmith/ledger"
)

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear [path]",
		Short: "Reset the change ledger, forcing a full rebuild next run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			if err := validateProject(cmd, cfg); err != nil {
				return err
			}
			if err := ledger.New(cfg).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Ledger cleared; next run will regenerate everything."))
			return nil
		},
	}
	return cmd
}
