package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newDrivesCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "drives",
		Short: "List optical drives with ready media",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.newDiscClient(cfg)
			if err != nil {
				return err
			}

			drives, err := client.ListDrives(cmd.Context())
			if err != nil {
				return fmt.Errorf("enumerate drives: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd, drives)
			}

			out := cmd.OutOrStdout()
			if len(drives) == 0 {
				fmt.Fprintln(out, "No drives with ready media")
				return nil
			}
			rows := make([]table.Row, 0, len(drives))
			for _, d := range drives {
				rows = append(rows, table.Row{d.Index, d.Label, d.Device})
			}
			fmt.Fprintln(out, renderTable(table.Row{"Index", "Label", "Device"}, rows, 0))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the drive list as JSON")
	return cmd
}
