package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/viva/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command> [args...]",
		Short: "Run an executable from an environment, creating the environment if needed",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			env, _ := cmd.Flags().GetString("env")
			channels, _ := cmd.Flags().GetStringArray("channel")
			requests, _ := cmd.Flags().GetStringArray("spec")
			check, err := checkStrategy(cmd)
			if err != nil {
				return err
			}

			return c.app.Run(cmd.Context(), env, args, app.RunOptions{
				EnvOptions: app.EnvOptions{
					Channels: channels,
					Requests: requests,
					Check:    check,
				},
				Stdin:  cmd.InOrStdin(),
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})
		},
	}
	// Flags after the command name belong to the command.
	cmd.Flags().SetInterspersed(false)
	addEnvFlag(cmd)
	addChannelFlag(cmd)
	cmd.Flags().StringArrayP("spec", "s", nil, "Package request to add before running (repeatable)")
	addCheckFlag(cmd)
	return cmd
}
