package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/viva/internal/app"
	"go.trai.ch/viva/internal/engine/lifecycle"
)

type envOperation func(ctx context.Context, spec string, opts app.EnvOptions) (*lifecycle.Result, error)

func (c *CLI) newCreateCmd() *cobra.Command {
	return newRequestsCmd(
		"create [requests...]",
		"Create a new environment from the given package requests",
		c.app.Create,
	)
}

func (c *CLI) newApplyCmd() *cobra.Command {
	cmd := newRequestsCmd(
		"apply [requests...]",
		"Make sure an environment exists and contains the given package requests",
		c.app.Apply,
	)
	addCheckFlag(cmd)
	return cmd
}

func (c *CLI) newMergeCmd() *cobra.Command {
	return newRequestsCmd(
		"merge [requests...]",
		"Add channels and package requests to an existing environment",
		c.app.Merge,
	)
}

func newRequestsCmd(use, short string, op envOperation) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, _ := cmd.Flags().GetString("env")
			channels, _ := cmd.Flags().GetStringArray("channel")
			check, err := checkStrategy(cmd)
			if err != nil {
				return err
			}

			res, err := op(cmd.Context(), env, app.EnvOptions{
				Channels: channels,
				Requests: args,
				Check:    check,
			})
			if err != nil {
				return err
			}
			printChanges(cmd.OutOrStdout(), res)
			return nil
		},
	}
	addEnvFlag(cmd)
	addChannelFlag(cmd)
	return cmd
}

func (c *CLI) newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Re-resolve an environment against the latest channel metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, _ := cmd.Flags().GetString("env")
			res, err := c.app.Update(cmd.Context(), env)
			if err != nil {
				return err
			}
			printChanges(cmd.OutOrStdout(), res)
			return nil
		},
	}
	addEnvFlag(cmd)
	return cmd
}

func (c *CLI) newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove an environment and its packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, _ := cmd.Flags().GetString("env")
			res, err := c.app.Remove(cmd.Context(), env)
			if err != nil {
				return err
			}
			printChanges(cmd.OutOrStdout(), res)
			return nil
		},
	}
	addEnvFlag(cmd)
	return cmd
}

// printChanges lists the packages an operation added and removed.
func printChanges(w io.Writer, res *lifecycle.Result) {
	for _, rec := range res.Removed {
		_, _ = fmt.Fprintln(w, "- "+rec.String())
	}
	for _, rec := range res.Added {
		_, _ = fmt.Fprintln(w, "+ "+rec.String())
	}
}
