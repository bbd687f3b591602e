package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show where an environment lives and whether it matches its spec",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("env")
			env, err := c.app.Status(name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "environment: %s\n", env.Location.String())
			_, _ = fmt.Fprintf(out, "status:      %s %s\n", statusIcon(env.Status), env.Status.String())
			_, _ = fmt.Fprintf(out, "spec file:   %s\n", env.Location.SpecFile)
			_, _ = fmt.Fprintf(out, "prefix:      %s\n", env.Location.TargetPrefix)
			if env.Spec != nil {
				_, _ = fmt.Fprintf(out, "channels:    %s\n", strings.Join(env.Spec.Channels, ", "))
				_, _ = fmt.Fprintf(out, "requests:    %s\n", strings.Join(env.Spec.Requests, ", "))
				_, _ = fmt.Fprintf(out, "packages:    %d\n", len(env.Installed))
			}
			return nil
		},
	}
	addEnvFlag(cmd)
	return cmd
}
