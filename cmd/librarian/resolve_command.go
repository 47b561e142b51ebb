package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"librarian/internal/resolve"
)

type resolveOutput struct {
	Name       string  `json:"name"`
	Query      string  `json:"query,omitempty"`
	Source     string  `json:"source"`
	Title      string  `json:"title,omitempty"`
	Year       string  `json:"year,omitempty"`
	ImdbID     string  `json:"imdb_id,omitempty"`
	Confidence float64 `json:"confidence"`
	Suggested  bool    `json:"suggested"`
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var scanFile string
	var interactive bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "resolve [label...]",
		Short: "Resolve a disc label or saved scan output into a title",
		Long: `Resolve a raw volume label (or a saved MakeMKV robot-mode scan via
--scan-file) into a library title without touching a drive.

Examples:
  librarian resolve REMEMBER_THE_TITANS
  librarian resolve --scan-file scan.txt
  librarian resolve LOGICAL_VOLUME_ID --scan-file scan.txt --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			label := strings.TrimSpace(strings.Join(args, " "))

			var scanText string
			if scanFile != "" {
				data, err := os.ReadFile(scanFile)
				if err != nil {
					return fmt.Errorf("read scan file: %w", err)
				}
				scanText = string(data)
			}
			if label == "" && scanText == "" {
				return fmt.Errorf("provide a label argument or --scan-file")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}
			resolver, err := ctx.newResolver(cfg, logger, interactive)
			if err != nil {
				return err
			}

			res := resolver.Resolve(cmd.Context(), resolve.Input{
				DriveLabel: label,
				ScanText:   scanText,
			})
			return printResolution(cmd, res, jsonOut)
		},
	}

	cmd.Flags().StringVar(&scanFile, "scan-file", "", "Path to saved MakeMKV robot-mode output")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt when candidates are ambiguous")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the resolution as JSON")
	return cmd
}

func printResolution(cmd *cobra.Command, res resolve.Result, jsonOut bool) error {
	if jsonOut {
		return writeJSON(cmd, resolveOutput{
			Name:       res.Name,
			Query:      res.Query,
			Source:     string(res.Source),
			Title:      res.Match.Title,
			Year:       res.Match.Year,
			ImdbID:     res.Match.ImdbID,
			Confidence: res.Match.Confidence,
			Suggested:  res.Suggested,
		})
	}

	out := cmd.OutOrStdout()
	if res.Name == "" {
		fmt.Fprintln(out, "No usable title found")
		return nil
	}
	fmt.Fprintf(out, "Name:       %s\n", res.Name)
	fmt.Fprintf(out, "Source:     %s\n", res.Source)
	if res.Match.Title != "" {
		match := res.Match.Title
		if res.Match.Year != "" {
			match = fmt.Sprintf("%s (%s)", match, res.Match.Year)
		}
		fmt.Fprintf(out, "Match:      %s\n", match)
		if res.Match.ImdbID != "" {
			fmt.Fprintf(out, "IMDb:       %s\n", res.Match.ImdbID)
		}
		fmt.Fprintf(out, "Confidence: %.2f\n", res.Match.Confidence)
	}
	if res.Suggested {
		fmt.Fprintln(out, "Status:     needs review (low-confidence match)")
	}
	return nil
}
