package commands

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/ui/style"
)

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all alias environments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			envs, err := c.app.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(envs) == 0 {
				_, _ = fmt.Fprintln(out, "no environments")
				return nil
			}
			_, _ = fmt.Fprintln(out, renderEnvironments(envs))
			return nil
		},
	}
}

func renderEnvironments(envs []domain.Environment) string {
	rows := make([][]string, 0, len(envs))
	for _, env := range envs {
		rows = append(rows, []string{
			env.Location.Name,
			statusIcon(env.Status) + " " + env.Status.String(),
			strconv.Itoa(len(env.Installed)),
			env.Location.TargetPrefix,
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(style.BorderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return style.HeaderStyle
			}
			return style.CellStyle
		}).
		Headers("NAME", "STATUS", "PACKAGES", "PREFIX").
		Rows(rows...).
		String()
}

func statusIcon(status domain.SyncStatus) string {
	switch status {
	case domain.StatusSynced:
		return style.Check
	case domain.StatusNotSynced:
		return style.Tilde
	case domain.StatusPending:
		return style.Warning
	default:
		return style.Circle
	}
}
