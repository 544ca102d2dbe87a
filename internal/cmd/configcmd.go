package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (rc *RootCommand) newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rc.ensureAppContext()
			if err != nil {
				return err
			}
			out, err := app.Config.YAML()
			if err != nil {
				return err
			}
			fmt.Fprintf(rc.stdout, "# source: %s\n", app.Config.Source)
			_, err = rc.stdout.Write(out)
			return err
		},
	}
}
