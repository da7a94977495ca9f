// Package commands implements the CLI commands for the weld build tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/weld/internal/app"
	"go.trai.ch/weld/internal/build"
	"go.trai.ch/weld/internal/core/domain"
)

// CLI represents the command line interface for weld.
type CLI struct {
	app     Application
	log     LogSettings
	trace   TraceSettings
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Configure(ctx context.Context, opts app.ConfigureOptions) (*domain.Build, error)
	Describe(ctx context.Context, w io.Writer, opts app.DescribeOptions) error
	Watch(ctx context.Context, opts app.ConfigureOptions) error
}

// LogSettings is implemented by loggers whose format can be changed from
// the command line.
type LogSettings interface {
	SetJSON(enable bool)
	SetQuiet(quiet bool)
}

// TraceSettings is implemented by span renderers that can be switched on
// from the command line.
type TraceSettings interface {
	SetEnabled(enable bool)
}

// New creates a new CLI instance with the given app. log may be nil.
func New(a Application, log LogSettings) *CLI {
	rootCmd := &cobra.Command{
		Use:           "weld",
		Short:         "Configure and inspect build target graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().Bool("trace", false, "Log how long each configure phase takes")

	c := &CLI{
		app:     a,
		log:     log,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if c.trace != nil {
			trace, _ := cmd.Flags().GetBool("trace")
			c.trace.SetEnabled(trace)
		}
		if c.log == nil {
			return
		}
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		quiet, _ := cmd.Flags().GetBool("quiet")
		c.log.SetJSON(jsonLogs)
		c.log.SetQuiet(quiet)
	}

	rootCmd.AddCommand(c.newConfigureCmd())
	rootCmd.AddCommand(c.newDescribeCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// WithTrace lets the --trace flag switch t on.
func (c *CLI) WithTrace(t TraceSettings) *CLI {
	c.trace = t
	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
