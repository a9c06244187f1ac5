package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkgdrift/pkgdrift/pkg/inventory"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			manifest, err := inventory.LoadManifest(cfg.Manifest)
			if err != nil {
				return err
			}

			fmt.Printf("config %s: ok\n", configPath)
			fmt.Printf("manifest %s: ok (%d packages)\n", cfg.Manifest, len(manifest.Packages))
			return nil
		},
	}

	return cmd
}
