package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/weld/internal/app"
)

func (c *CLI) newConfigureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure [srcdir]",
		Short: "Validate the project and save the target graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.ConfigureOptions{SourceDir: "."}
			if len(args) == 1 {
				opts.SourceDir = args[0]
			}
			opts.BuildDir, _ = cmd.Flags().GetString("builddir")
			opts.Force, _ = cmd.Flags().GetBool("force")

			if watch, _ := cmd.Flags().GetBool("watch"); watch {
				return c.app.Watch(cmd.Context(), opts)
			}
			_, err := c.app.Configure(cmd.Context(), opts)
			return err
		},
	}
	cmd.Flags().StringP("builddir", "B", "", "Build directory (default: <srcdir>/builddir)")
	cmd.Flags().BoolP("force", "f", false, "Reconfigure even if no project file changed")
	cmd.Flags().BoolP("watch", "w", false, "Keep running and reconfigure when project files change")
	return cmd
}
