package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent reconciliation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Path == "" {
				return fmt.Errorf("no run store configured (store.path is empty)")
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}

			for _, run := range runs {
				line := fmt.Sprintf("%s  %s  %-9s  -%d +%d ~%d =%d",
					run.StartedAt.Format("2006-01-02 15:04:05"),
					run.ID, run.Status,
					run.Deletes, run.Installs, run.Replaces, run.Unchanged)
				if run.DryRun {
					line += "  (dry run)"
				}
				fmt.Println(line)
				if run.Error != "" {
					fmt.Printf("    error: %s\n", run.Error)
				}
			}
			fmt.Printf("%d runs\n", len(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")

	return cmd
}
