package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"librarian/internal/makemkv"
	"librarian/internal/resolve"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var disc int
	var interactive bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "identify [disc]",
		Short: "Scan a disc and show how its title resolves",
		Long: `Scan a disc with MakeMKV and walk it through title resolution. Nothing
is written to history or manifests, so the command is safe for
troubleshooting identification issues.

Examples:
  librarian identify            # disc 0
  librarian identify 1          # second drive
  librarian identify --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 0 {
					return fmt.Errorf("invalid disc index %q", args[0])
				}
				disc = n
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}
			client, err := ctx.newDiscClient(cfg)
			if err != nil {
				return err
			}
			resolver, err := ctx.newResolver(cfg, logger, interactive)
			if err != nil {
				return err
			}

			label := driveLabel(cmd, client, disc)

			raw, titles, err := client.Scan(cmd.Context(), disc)
			if err != nil {
				return fmt.Errorf("scan disc %d: %w", disc, err)
			}

			res := resolver.Resolve(cmd.Context(), resolve.Input{
				DriveLabel: label,
				ScanText:   raw,
				Titles:     titles,
			})

			if jsonOut {
				return printResolution(cmd, res, true)
			}

			out := cmd.OutOrStdout()
			if label != "" {
				fmt.Fprintf(out, "Disc label: %s\n", label)
			}
			if len(titles) > 0 {
				rows := make([]table.Row, 0, len(titles))
				for _, t := range titles {
					rows = append(rows, table.Row{t.ID, t.Name, t.Duration, t.Size})
				}
				fmt.Fprintln(out, renderTable(
					table.Row{"ID", "Name", "Duration", "Size"}, rows, 0, 2, 3))
			}
			fmt.Fprintln(out)
			return printResolution(cmd, res, false)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt when candidates are ambiguous")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the resolution as JSON")
	return cmd
}

// driveLabel looks the drive's volume label up via enumeration; failure
// only costs one resolution channel, so it is not fatal.
func driveLabel(cmd *cobra.Command, client *makemkv.Client, disc int) string {
	drives, err := client.ListDrives(cmd.Context())
	if err != nil {
		return ""
	}
	for _, d := range drives {
		if d.Index == disc {
			return d.Label
		}
	}
	return ""
}
