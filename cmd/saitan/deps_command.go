package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"saitan/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools used by the local copy actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				detail := status.Path
				if !status.Available {
					detail = status.Detail
				}
				rows = append(rows, []string{
					status.Name,
					status.Description,
					yesNo(status.Available),
					yesNo(status.Optional),
					detail,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Tool", "Used for", "Available", "Optional", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				fmt.Fprintf(out, "%d required tool(s) missing; -l will fail until installed\n", len(missing))
			}
			return nil
		},
	}
}
