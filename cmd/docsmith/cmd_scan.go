package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/docsmith/ledger"
	"github.com/lexcodex/docsmith/scanner"
)

// newScanCmd is the dry-run view: what would be documented, without calling
// the generation service.
func newScanCmd() *cobra.Command {
	var showChanged bool
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "List the files a generation run would document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			if err := validateProject(cmd, cfg); err != nil {
				return err
			}

			files, err := scanner.New(cfg).Scan()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Project: ")+cfg.ProjectRoot)
			fmt.Fprintln(out, titleStyle.Render("Output:  ")+cfg.OutputDir)
			fmt.Fprintln(out, titleStyle.Render("Model:   ")+cfg.Model)
			fmt.Fprintf(out, "\nWould document %d files:\n", len(files))

			changed := make(map[string]struct{})
			if showChanged {
				led := ledger.New(cfg)
				for _, f := range led.ChangedFiles(files) {
					changed[f] = struct{}{}
				}
			}
			for _, f := range files {
				if _, ok := changed[f]; ok {
					fmt.Fprintf(out, "  %s %s\n", warnStyle.Render("*"), f)
				} else {
					fmt.Fprintf(out, "    %s\n", f)
				}
			}
			if showChanged {
				fmt.Fprintf(out, "\n%s\n", dimStyle.Render(fmt.Sprintf("* changed since last run (%d)", len(changed))))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showChanged, "changed", false, "Mark files that changed since the last run")
	return cmd
}
