package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkgdrift/pkgdrift/pkg/executor"
)

func newPlanCommand() *cobra.Command {
	var script bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the operations a reconciliation run would execute",
		Long: `Compare the installed package set with the manifest and print the
operations policy resolution produces, without executing anything.`,
		Example: `  # Show planned operations
  pkgdrift plan

  # Emit the transaction script that apply would feed the backend
  pkgdrift plan --script`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			p, err := buildPlan(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			if script {
				return executor.WriteScript(os.Stdout, p.Operations)
			}

			summary := summarize(p)
			for _, op := range p.Operations {
				fmt.Println(op.String())
			}
			fmt.Printf("Plan: %d to delete, %d to install, %d to replace, %d unchanged\n",
				summary.Deletes, summary.Installs, summary.Replaces, summary.Unchanged)
			return nil
		},
	}

	cmd.Flags().BoolVar(&script, "script", false, "print the transaction script instead of a summary")

	return cmd
}
