package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRepairCommand(load loadFunc) *cobra.Command {
	var (
		guildID string
		output  string
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Scan one guild and apply every automatic repair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cliContext(cmd.Context())
			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if dryRun {
				report, err := a.svc.ScanForIntegrityIssues(ctx, guildID)
				if err != nil {
					return err
				}
				repairable := report.Repairable()
				if output == "json" {
					return printJSON(out, repairable)
				}
				fmt.Fprintf(out, "guild %s: %d of %d issues would be repaired\n", guildID, len(repairable), len(report.Issues))
				for _, issue := range repairable {
					fmt.Fprintf(out, "  %s\n", issue)
				}
				return nil
			}

			_, result, err := a.svc.ScanAndRepair(ctx, guildID)
			if err != nil {
				return err
			}
			if output == "json" {
				return printJSON(out, result)
			}
			fmt.Fprintf(out, "guild %s: %d issues, %d repaired, %d failed, %d need review\n",
				guildID, result.TotalIssuesFound, result.IssuesRepaired, result.IssuesFailed, result.Skipped())
			for _, f := range result.FailedRepairs {
				fmt.Fprintf(out, "  failed %s: %s\n", f.Issue, f.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&guildID, "guild", "", "guild id to repair")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list repairs without applying them")
	_ = cmd.MarkFlagRequired("guild")
	return cmd
}
