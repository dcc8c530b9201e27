package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/cqlmigrate/cli/internal/config"
	"github.com/satishbabariya/cqlmigrate/cli/internal/ui"
)

func newInitCommand(r *runner) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a .cqlmigrate.yaml for the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.AppFs.Stat(config.FileName); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName)
			}
			if err := config.SaveConfig(r.cfg, config.FileName); err != nil {
				return err
			}
			ui.PrintSuccess("Created %s", config.FileName)
			if r.cfg.Password != "" {
				ui.PrintWarning("The password is not written; set CQLMIGRATE_PASSWORD instead")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
