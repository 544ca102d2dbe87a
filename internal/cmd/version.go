package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (rc *RootCommand) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the CLI version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipInitAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(rc.stdout, "deskutil "+versionString())
			return err
		},
	}
}
