package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/weld/internal/app"
	"go.trai.ch/weld/internal/core/domain"
)

func (c *CLI) newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe [targets...]",
		Short: "Describe the targets of a configured build",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			buildDir, _ := cmd.Flags().GetString("builddir")
			asJSON, _ := cmd.Flags().GetBool("json")
			color, _ := cmd.Flags().GetString("color")

			return c.app.Describe(cmd.Context(), cmd.OutOrStdout(), app.DescribeOptions{
				BuildDir: buildDir,
				Targets:  args,
				JSON:     asJSON,
				Color:    color,
			})
		},
	}
	cmd.Flags().StringP("builddir", "B", domain.DefaultBuildDir, "Build directory")
	cmd.Flags().Bool("json", false, "Print targets as JSON")
	cmd.Flags().String("color", "auto", "Color output: auto, always or never")
	return cmd
}
