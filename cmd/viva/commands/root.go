// Package commands implements the CLI commands for viva.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/viva/internal/app"
	"go.trai.ch/viva/internal/build"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/engine/lifecycle"
)

// DefaultEnvironment is used when no --env flag is given.
const DefaultEnvironment = "default"

// CLI represents the command line interface for viva.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Create(ctx context.Context, spec string, opts app.EnvOptions) (*lifecycle.Result, error)
	Apply(ctx context.Context, spec string, opts app.EnvOptions) (*lifecycle.Result, error)
	Merge(ctx context.Context, spec string, opts app.EnvOptions) (*lifecycle.Result, error)
	Update(ctx context.Context, spec string) (*lifecycle.Result, error)
	Remove(ctx context.Context, spec string) (*lifecycle.Result, error)
	List() ([]domain.Environment, error)
	Status(spec string) (*domain.Environment, error)
	Run(ctx context.Context, spec string, argv []string, opts app.RunOptions) error
	ConfigureLogging(verbose, jsonMode bool)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "viva",
		Short:         "Manage package environments and run commands in them",
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

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log verbose")
	rootCmd.PersistentFlags().Bool("json", false, "Log in JSON format")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		jsonMode, _ := cmd.Flags().GetBool("json")
		a.ConfigureLogging(verbose, jsonMode)
	}

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newCreateCmd())
	rootCmd.AddCommand(c.newApplyCmd())
	rootCmd.AddCommand(c.newMergeCmd())
	rootCmd.AddCommand(c.newUpdateCmd())
	rootCmd.AddCommand(c.newRemoveCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newVersionCmd())

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

func addEnvFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("env", "e", DefaultEnvironment, "Environment alias or path")
}

func addChannelFlag(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("channel", "c", nil, "Channel to add to the environment (repeatable, highest priority first)")
}

func addCheckFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("env-check-strategy", "C", string(domain.CheckAuto),
		"When to make sure the environment is materialized: auto, skip or force")
}

// checkStrategy reads the --env-check-strategy flag. Commands without it use auto.
func checkStrategy(cmd *cobra.Command) (domain.CheckStrategy, error) {
	if cmd.Flags().Lookup("env-check-strategy") == nil {
		return domain.CheckAuto, nil
	}
	value, _ := cmd.Flags().GetString("env-check-strategy")
	return domain.ParseCheckStrategy(value)
}
