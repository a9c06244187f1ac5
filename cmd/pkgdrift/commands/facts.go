package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkgdrift/pkgdrift/pkg/inventory"
	"github.com/pkgdrift/pkgdrift/pkg/policy"
)

func newFactsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Show the installed package inventory and running kernel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			release, err := inventory.KernelRelease(ctx)
			if err != nil {
				return err
			}
			kernel := policy.ParseKernelRelease(release)
			fmt.Printf("kernel: %s (package %s, version %s)\n",
				release, kernel.KernelPackageName(), kernel.Version)

			rpmdb := inventory.NewRPMDatabase(logger)
			rpmdb.LocalVendors = cfg.Policy.LocalVendors
			installed, err := rpmdb.Installed(ctx)
			if err != nil {
				return err
			}

			for _, p := range installed {
				if p.Local {
					fmt.Printf("%s (local)\n", p.String())
					continue
				}
				fmt.Println(p.String())
			}
			fmt.Printf("%d packages installed\n", len(installed))
			return nil
		},
	}

	return cmd
}
